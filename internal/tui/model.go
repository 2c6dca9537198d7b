// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tui is the optional full-screen chat interface behind
// `worldbuild chat --tui`. The plain line REPL in internal/chat remains
// the default surface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/worldbuild/internal/retrieval"
)

// Querier is the TUI-facing slice of the retrieval index.
type Querier interface {
	Query(ctx context.Context, query string, opts retrieval.Options) ([]retrieval.Result, error)
}

// Model is the Bubble Tea model for the chat screen: a query box, a
// viewport cycling through ranked results, and a status line.
type Model struct {
	querier   Querier
	opts      retrieval.Options
	input     textinput.Model
	viewport  viewport.Model
	results   []retrieval.Result
	cursor    int
	status    string
	summary   string
	ready     bool
	lastQuery string
}

// New builds the chat model. summary is shown under the header, typically
// the store path and corpus counts.
func New(querier Querier, opts retrieval.Options, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your world and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		querier:  querier,
		opts:     opts,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready.",
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, query box, spacer
		vh := msg.Height - reserved - rh
		if vh < 3 {
			vh = 3
		}
		if msg.Width > 20 {
			m.viewport.Width = msg.Width
		} else {
			m.viewport.Width = 20
		}
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				return m, nil
			}
			if query == "exit" || query == "quit" {
				return m, tea.Quit
			}
			m.runQuery(query)
			m.viewport.SetContent(m.renderCurrentResult())
			return m, nil
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runQuery(query string) {
	results, err := m.querier.Query(context.Background(), query, m.opts)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
		return
	}
	m.results = results
	m.cursor = 0
	m.lastQuery = query
	if len(results) == 0 {
		m.status = fmt.Sprintf("Nothing found for %q", query)
	} else {
		m.status = fmt.Sprintf("%d result(s) for %q — up/down to browse", len(results), query)
	}
}

// View renders the full screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("worldbuild chat")
	summary := summaryStyle.Render(m.summary)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		if m.lastQuery == "" {
			return "Type a question below."
		}
		return "No relevant information found."
	}

	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  score=%.3f  %s",
		m.cursor+1, len(m.results), r.Score, r.DocumentTitle)

	var entities []string
	for _, e := range r.Entities {
		entities = append(entities, fmt.Sprintf("[%s] %s", e.Type, e.Name))
	}

	body := strings.TrimSpace(r.Chunk.Text)
	if len(entities) > 0 {
		body += "\n\n" + entityStyle.Render(strings.Join(entities, "  "))
	}
	return title + "\n\n" + body
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	entityStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
