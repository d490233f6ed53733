package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// JobView is one render job row as reported by the server
type JobView struct {
	ID        string
	Status    string
	Pages     int
	Retries   int
	Error     string
	CreatedAt time.Time
}

// WatchModel polls the server and shows the render queue
type WatchModel struct {
	fetch  func() ([]JobView, error)
	clear  func() error
	jobs   []JobView
	cursor int
	width  int
	height int

	spinner spinner.Model
	err     error
	message string
	msgType string
}

type jobsFetchedMsg struct {
	jobs []JobView
	err  error
}

type pollTickMsg struct{}

// NewWatchModel creates a watch model around server accessors
func NewWatchModel(fetch func() ([]JobView, error), clear func() error) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return WatchModel{
		fetch:   fetch,
		clear:   clear,
		jobs:    make([]JobView, 0),
		spinner: s,
	}
}

// Init starts the spinner and the first poll
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

func (m WatchModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		jobs, err := m.fetch()
		return jobsFetchedMsg{jobs: jobs, err: err}
	}
}

func pollCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

// Update handles messages
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case jobsFetchedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.jobs = msg.jobs
			if m.cursor >= len(m.jobs) && len(m.jobs) > 0 {
				m.cursor = len(m.jobs) - 1
			}
		}
		return m, pollCmd()

	case pollTickMsg:
		return m, m.fetchCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.jobs)-1 {
				m.cursor++
			}
		case "r":
			m.message = "Refreshed"
			m.msgType = "success"
			return m, m.fetchCmd()
		case "c":
			if m.clear != nil {
				if err := m.clear(); err != nil {
					m.message = err.Error()
					m.msgType = "error"
				} else {
					m.message = "Cleared completed"
					m.msgType = "success"
				}
				return m, m.fetchCmd()
			}
		}
	}

	return m, nil
}

// View renders the watch screen
func (m WatchModel) View() string {
	var b strings.Builder

	// Title
	b.WriteString(CardTitleStyle.Render("Render Queue"))
	b.WriteString("  ")
	b.WriteString(m.spinner.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Server unreachable: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(m.help())
		return b.String()
	}

	if len(m.jobs) == 0 {
		b.WriteString(TextMuted.Render("No jobs in queue.\n"))
	} else {
		// Stats bar
		queued, rendering, completed, failed := 0, 0, 0, 0
		for _, j := range m.jobs {
			switch j.Status {
			case "queued":
				queued++
			case "rendering":
				rendering++
			case "completed":
				completed++
			case "failed":
				failed++
			}
		}

		statsLine := ""
		if queued > 0 {
			statsLine += WarningStyle.Render(fmt.Sprintf("%d queued", queued)) + "  "
		}
		if rendering > 0 {
			statsLine += InfoStyle.Render(fmt.Sprintf("%d rendering", rendering)) + "  "
		}
		if completed > 0 {
			statsLine += SuccessStyle.Render(fmt.Sprintf("%d completed", completed)) + "  "
		}
		if failed > 0 {
			statsLine += ErrorStyle.Render(fmt.Sprintf("%d failed", failed))
		}
		b.WriteString(statsLine)
		b.WriteString("\n\n")

		for i, job := range m.jobs {
			cursor := "  "
			style := ListItemStyle
			if i == m.cursor {
				cursor = "▸ "
				style = SelectedItemStyle
			}

			var statusStyle lipgloss.Style
			switch job.Status {
			case "queued":
				statusStyle = lipgloss.NewStyle().Foreground(Warning)
			case "rendering":
				statusStyle = lipgloss.NewStyle().Foreground(Secondary)
			case "completed":
				statusStyle = lipgloss.NewStyle().Foreground(Success)
			case "failed":
				statusStyle = lipgloss.NewStyle().Foreground(Error)
			default:
				statusStyle = TextMuted
			}

			age := time.Since(job.CreatedAt).Truncate(time.Second).String()

			status := statusStyle.Render(job.Status)
			line := fmt.Sprintf("%s%s  %s  %s", cursor, Truncate(job.ID, 20), status, TextMuted.Render(age))

			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}

		// Selected job details
		if m.cursor < len(m.jobs) {
			job := m.jobs[m.cursor]
			b.WriteString("\n")
			b.WriteString(SectionHeaderStyle.Render("DETAILS"))
			b.WriteString("\n")

			b.WriteString(TextMuted.Render("ID: ") + TextNormal.Render(job.ID))
			b.WriteString("\n")
			b.WriteString(TextMuted.Render("Pages: ") + TextNormal.Render(fmt.Sprintf("%d", job.Pages)))
			b.WriteString("\n")
			b.WriteString(TextMuted.Render("Created: ") + TextNormal.Render(job.CreatedAt.Format("15:04:05")))

			if job.Retries > 0 {
				b.WriteString("\n")
				b.WriteString(TextMuted.Render("Retries: ") + WarningStyle.Render(fmt.Sprintf("%d", job.Retries)))
			}

			if job.Error != "" {
				b.WriteString("\n")
				b.WriteString(ErrorStyle.Render("Error: " + job.Error))
			}
		}
	}

	// Message
	if m.message != "" {
		b.WriteString("\n\n")
		switch m.msgType {
		case "success":
			b.WriteString(SuccessStyle.Render("✓ " + m.message))
		case "error":
			b.WriteString(ErrorStyle.Render("✗ " + m.message))
		default:
			b.WriteString(InfoStyle.Render("ℹ " + m.message))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.help())

	return b.String()
}

func (m WatchModel) help() string {
	return RenderHelp("↑/↓", "select") + "  " +
		RenderHelp("c", "clear done") + "  " +
		RenderHelp("r", "refresh") + "  " +
		RenderHelp("q", "quit")
}
