package main

import "github.com/lepinkainen/bmn/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
