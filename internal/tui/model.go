// Package tui is a terminal chat client. One session id is kept for the
// lifetime of the program so questions can follow up on each other.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// Answerer is the TUI-facing subset of the orchestrator.
type Answerer interface {
	Answer(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error)
}

type exchange struct {
	question string
	answer   string
	turn     entities.TurnKind
	failed   bool
}

// answerMsg carries a finished answer back into Update.
type answerMsg struct {
	question string
	resp     *entities.ChatResponse
	err      error
}

// Model is the Bubble Tea model for the chat.
type Model struct {
	service   Answerer
	sessionID string
	timeout   time.Duration
	title     string

	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	status   string
	pending  bool
	ready    bool
}

// New creates a chat model with a fresh session id.
func New(service Answerer, title string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the document and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return Model{
		service:   service,
		sessionID: uuid.NewString(),
		timeout:   timeout,
		title:     title,
		input:     ti,
		viewport:  viewport.New(0, 0),
		status:    "Ready.",
	}
}

// SessionID returns the session used for every question.
func (m Model) SessionID() string { return m.sessionID }

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := historyBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.pending = false
		ex := exchange{question: msg.question}
		switch {
		case msg.err != nil:
			ex.answer, ex.failed = "Error: "+msg.err.Error(), true
			m.status = "Request failed."
		default:
			ex.answer, ex.turn = msg.resp.Response, msg.resp.Turn
			m.status = "Ready."
		}
		m.history = append(m.history, ex)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.input.SetValue("")
			m.pending = true
			m.status = "Thinking..."
			return m, m.ask(q)
		}
		if msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question outside the update loop.
func (m Model) ask(question string) tea.Cmd {
	service, sessionID, timeout := m.service, m.sessionID, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := service.Answer(ctx, entities.ChatRequest{
			Message:    question,
			SessionID:  sessionID,
			HasSession: true,
		})
		return answerMsg{question: question, resp: resp, err: err}
	}
}

// View renders the header, the conversation, the input and the status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.title)
	history := historyBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(fmt.Sprintf("%s  session %s", m.status, m.sessionID[:8]))
	return header + "\n" + history + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "No questions yet."
	}
	var sb strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render("You: " + ex.question))
		if ex.turn == entities.TurnFollowUp {
			sb.WriteString(" " + turnStyle.Render("(follow-up)"))
		}
		sb.WriteString("\n")
		if ex.failed {
			sb.WriteString(errorStyle.Render(ex.answer))
		} else {
			sb.WriteString(ex.answer)
		}
	}
	return sb.String()
}

var (
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	turnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
