// Package tui provides the interactive movie picker.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/bmn/internal/tmdb"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// Action is how the picker was left.
type Action int

const (
	// ActionNone means the picker has not finished.
	ActionNone Action = iota
	// ActionPicked means the user confirmed a selection.
	ActionPicked
	// ActionCanceled means the user left without picking.
	ActionCanceled
)

// PickResult holds the movies picked, in list order.
type PickResult struct {
	Action Action
	Movies []tmdb.SearchResult
}

type movieItem struct {
	tmdb.SearchResult
	picked bool
}

func (i movieItem) FilterValue() string {
	return i.DisplayTitle()
}

type itemStyles struct {
	normal        lipgloss.Style
	current       lipgloss.Style
	checkStyle    lipgloss.Style
	titleStyle    lipgloss.Style
	ratingStyle   lipgloss.Style
	metadataStyle lipgloss.Style
	overviewStyle lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	return itemStyles{
		normal: container,
		current: container.Copy().
			BorderForeground(lipgloss.Color("214")).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("237")),
		checkStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		ratingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")),
		metadataStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
		overviewStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("248")),
	}
}

type movieDelegate struct {
	styles itemStyles
}

func (d movieDelegate) Height() int                         { return 4 }
func (d movieDelegate) Spacing() int                        { return 1 }
func (d movieDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d movieDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	movie, ok := item.(movieItem)
	if !ok {
		return
	}

	check := "[ ]"
	if movie.picked {
		check = "[x]"
	}
	titleLine := lipgloss.JoinHorizontal(lipgloss.Left,
		d.styles.checkStyle.Render(check+" "),
		d.styles.titleStyle.Render(displayName(movie.SearchResult)),
	)
	ratingLine := lipgloss.JoinHorizontal(lipgloss.Left,
		d.styles.ratingStyle.Render(fmt.Sprintf("%.1f/10", movie.VoteAverage)),
		d.styles.metadataStyle.Render("  "+formatMetadata(movie.SearchResult)),
	)
	overviewLine := d.styles.overviewStyle.Render(truncate(movie.Overview, m.Width()-4))

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.current
	}
	_, _ = fmt.Fprint(w, container.Render(lipgloss.JoinVertical(lipgloss.Left, titleLine, ratingLine, overviewLine)))
}

type model struct {
	list   list.Model
	query  string
	result PickResult
}

func newModel(query string, results []tmdb.SearchResult) *model {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = movieItem{SearchResult: r}
	}

	l := list.New(items, movieDelegate{styles: newItemStyles()}, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{list: l, query: query}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case " ", "x":
			m.toggle(m.list.Index())
			return m, nil
		case "enter":
			picked := m.picked()
			if len(picked) == 0 {
				// enter without marks picks the highlighted movie
				if item, ok := m.list.SelectedItem().(movieItem); ok {
					picked = []tmdb.SearchResult{item.SearchResult}
				}
			}
			m.result = PickResult{Action: ActionPicked, Movies: picked}
			return m, tea.Quit
		case "ctrl+c", "q", "esc":
			m.result = PickResult{Action: ActionCanceled}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) toggle(idx int) {
	items := m.list.Items()
	if idx < 0 || idx >= len(items) {
		return
	}
	item := items[idx].(movieItem)
	item.picked = !item.picked
	m.list.SetItem(idx, item)
}

func (m *model) picked() []tmdb.SearchResult {
	var out []tmdb.SearchResult
	for _, it := range m.list.Items() {
		if item := it.(movieItem); item.picked {
			out = append(out, item.SearchResult)
		}
	}
	return out
}

func (m *model) View() string {
	header := headerStyle.Render(fmt.Sprintf("Results for: %s (%d picked)", m.query, len(m.picked())))
	help := helpStyle.Render("Up/Down navigate | Space pick | Enter confirm | q cancel")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// Pick shows search results and lets the user mark any number of movies.
// Results with fewer than minVotes votes are hidden; when none remain the
// picker is not shown and the result is canceled.
func Pick(query string, results []tmdb.SearchResult, minVotes int) (PickResult, error) {
	filtered := make([]tmdb.SearchResult, 0, len(results))
	for _, r := range results {
		if r.VoteCount >= minVotes {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return PickResult{Action: ActionCanceled}, nil
	}

	final, err := runProgram(newModel(query, filtered))
	if err != nil {
		return PickResult{}, err
	}
	if typed, ok := final.(*model); ok {
		return typed.result, nil
	}
	return PickResult{}, fmt.Errorf("unexpected program result")
}

func displayName(r tmdb.SearchResult) string {
	name := strings.ToUpper(r.DisplayTitle())
	if year := r.Year(); year != "" {
		return fmt.Sprintf("%s (%s)", name, year)
	}
	return name
}

// truncate collapses whitespace and cuts value to width runes.
func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if width <= 0 || len(runes) <= width {
		return value
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// formatMetadata joins language, vote count and popularity.
func formatMetadata(r tmdb.SearchResult) string {
	var parts []string
	if r.OriginalLang != "" {
		parts = append(parts, strings.ToUpper(r.OriginalLang))
	}
	if r.VoteCount > 0 {
		parts = append(parts, formatVoteCount(r.VoteCount))
	}
	if r.Popularity > 0 {
		parts = append(parts, fmt.Sprintf("pop %.1f", r.Popularity))
	}
	return strings.Join(parts, " | ")
}

func formatVoteCount(count int) string {
	if count >= 1000 {
		return fmt.Sprintf("%.1fK votes", float64(count)/1000)
	}
	return fmt.Sprintf("%d votes", count)
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
