package tui

import (
	"errors"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bmn/internal/tmdb"
)

var searchResults = []tmdb.SearchResult{
	{ID: 26914, Title: "Troll 2", ReleaseDate: "1990-10-12", VoteCount: 812, VoteAverage: 3.9, OriginalLang: "en"},
	{ID: 17473, Title: "The Room", ReleaseDate: "2003-06-27", VoteCount: 1290, VoteAverage: 4.0},
	{ID: 40016, Title: "Birdemic: Shock and Terror", ReleaseDate: "2010-02-27", VoteCount: 250, VoteAverage: 2.1},
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func send(m *model, msgs ...tea.Msg) *model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(*model)
	}
	return m
}

func TestModel_PickMultiple(t *testing.T) {
	m := send(newModel("bad", searchResults),
		key('x'),
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		key('x'),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	assert.Equal(t, ActionPicked, m.result.Action)
	require.Len(t, m.result.Movies, 2)
	assert.Equal(t, 26914, m.result.Movies[0].ID)
	assert.Equal(t, 40016, m.result.Movies[1].ID)
}

func TestModel_ToggleOff(t *testing.T) {
	m := send(newModel("bad", searchResults), key('x'), key('x'))
	assert.Empty(t, m.picked())
	assert.Contains(t, m.View(), "(0 picked)")
}

func TestModel_EnterPicksHighlighted(t *testing.T) {
	m := send(newModel("bad", searchResults), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ActionPicked, m.result.Action)
	require.Len(t, m.result.Movies, 1)
	assert.Equal(t, 17473, m.result.Movies[0].ID)
}

func TestModel_Cancel(t *testing.T) {
	for _, msg := range []tea.KeyMsg{key('q'), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m := send(newModel("bad", searchResults), key('x'), msg)
		assert.Equal(t, ActionCanceled, m.result.Action, msg.String())
		assert.Empty(t, m.result.Movies)
	}
}

func TestPick_FiltersByVotes(t *testing.T) {
	orig := runProgram
	t.Cleanup(func() { runProgram = orig })

	var shown []tmdb.SearchResult
	runProgram = func(m tea.Model) (tea.Model, error) {
		typed := m.(*model)
		for _, it := range typed.list.Items() {
			shown = append(shown, it.(movieItem).SearchResult)
		}
		typed.result = PickResult{Action: ActionPicked, Movies: shown[:1]}
		return typed, nil
	}

	result, err := Pick("bad", searchResults, 500)
	require.NoError(t, err)
	assert.Equal(t, ActionPicked, result.Action)
	require.Len(t, shown, 2)
	assert.Equal(t, 26914, shown[0].ID)
	assert.Equal(t, 17473, shown[1].ID)
}

func TestPick_NothingAboveThreshold(t *testing.T) {
	orig := runProgram
	t.Cleanup(func() { runProgram = orig })
	runProgram = func(tea.Model) (tea.Model, error) {
		t.Fatal("picker should not run")
		return nil, nil
	}

	result, err := Pick("bad", searchResults, 5000)
	require.NoError(t, err)
	assert.Equal(t, ActionCanceled, result.Action)
}

func TestPick_ProgramError(t *testing.T) {
	orig := runProgram
	t.Cleanup(func() { runProgram = orig })
	runProgram = func(tea.Model) (tea.Model, error) { return nil, errors.New("no tty") }

	_, err := Pick("bad", searchResults, 0)
	require.Error(t, err)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "TROLL 2 (1990)", displayName(searchResults[0]))
	assert.Equal(t, "UNDATED", displayName(tmdb.SearchResult{Title: "Undated"}))
	assert.Equal(t, "EN | 812 votes", formatMetadata(searchResults[0]))
	assert.Equal(t, "1.3K votes", formatVoteCount(1290))
	assert.Equal(t, "a b...", truncate("a   b   cdef", 6))
	assert.Equal(t, "Amélie", truncate("Amélie", 6))
	assert.Equal(t, "Amé...", truncate("Amélie Poulain", 6))
	assert.Equal(t, "Äm", truncate("Ämélie", 2))
	assert.True(t, utf8.ValidString(truncate("Le Fabuleux Destin d'Amélie Poulain", 23)))
	assert.Equal(t, 40, clamp(72, 30, 40))
}
