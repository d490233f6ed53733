// Package tui provides terminal UIs for the label engine: a tview
// server monitor and a bubbletea job watcher for the CLI.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mkjmk-alt/label-engine/internal/command"
	"github.com/mkjmk-alt/label-engine/internal/history"
	"github.com/mkjmk-alt/label-engine/internal/jobs"
	"github.com/rivo/tview"
)

// Monitor is the server TUI built on tview
type Monitor struct {
	App      *tview.Application
	queue    *jobs.Queue
	store    *history.Store
	executor *command.Executor
	port     string

	// Main layout
	flex *tview.Flex

	// Panels
	historyList  *tview.List
	jobsTable    *tview.Table
	statusBox    *tview.TextView
	logsArea     *tview.TextView
	commandInput *tview.InputField

	// State
	logs      []string
	maxLogs   int
	startTime time.Time
}

// NewMonitor creates the server monitor TUI
func NewMonitor(queue *jobs.Queue, store *history.Store, executor *command.Executor, port string) *Monitor {
	app := tview.NewApplication()

	m := &Monitor{
		App:       app,
		queue:     queue,
		store:     store,
		executor:  executor,
		port:      port,
		logs:      make([]string, 0),
		maxLogs:   100,
		startTime: time.Now(),
	}

	m.setupUI()
	return m
}

func (m *Monitor) setupUI() {
	// Create panels
	m.historyList = tview.NewList()
	m.historyList.SetBorder(true)
	m.historyList.SetTitle("Recent Codes")

	m.jobsTable = tview.NewTable()
	m.jobsTable.SetBorder(true)
	m.jobsTable.SetTitle("Render Queue")

	m.statusBox = tview.NewTextView()
	m.statusBox.SetBorder(true)
	m.statusBox.SetTitle("Server Status")
	m.statusBox.SetDynamicColors(true)

	m.logsArea = tview.NewTextView()
	m.logsArea.SetBorder(true)
	m.logsArea.SetTitle("Server Logs")
	m.logsArea.SetDynamicColors(true)
	m.logsArea.SetScrollable(true)
	m.logsArea.SetChangedFunc(func() {
		m.App.Draw()
	})

	m.commandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0).
		SetPlaceholder("Type a command (e.g., 'help')").
		SetDoneFunc(func(key tcell.Key) {
			if key == tcell.KeyEnter {
				m.executeCommand(m.commandInput.GetText())
				m.commandInput.SetText("")
			}
		})

	// Top row: History, Queue, Status
	topRow := tview.NewFlex().
		AddItem(m.historyList, 0, 1, false).
		AddItem(m.jobsTable, 0, 1, false).
		AddItem(m.statusBox, 0, 1, false)

	// Bottom: Logs and command
	bottom := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(m.logsArea, 0, 3, false).
		AddItem(m.commandInput, 1, 0, true)

	// Main layout
	m.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, false).
		AddItem(bottom, 0, 1, false)

	// Set up key bindings
	m.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Let typed commands through untouched
		if m.commandInput.HasFocus() {
			if event.Key() == tcell.KeyEsc {
				m.App.SetFocus(m.historyList)
				return nil
			}
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEsc:
			m.App.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ':':
				m.App.SetFocus(m.commandInput)
				return nil
			case 'q':
				m.App.Stop()
				return nil
			}
		}
		return event
	})

	m.App.SetRoot(m.flex, true)
}

// Run starts the TUI
func (m *Monitor) Run() error {
	// Initial refresh
	m.refreshAll()

	// Start refresh ticker
	go m.refreshTicker()

	// Initial log
	m.AddLog("🏷️  Label Engine starting...", "info")

	return m.App.Run()
}

func (m *Monitor) refreshTicker() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.App.QueueUpdateDraw(func() {
			m.refreshAll()
		})
	}
}

func (m *Monitor) refreshAll() {
	m.refreshHistory()
	m.refreshJobs()
	m.refreshStatus()
}

func (m *Monitor) refreshHistory() {
	m.historyList.Clear()

	entries := m.store.GetAll()
	if len(entries) == 0 {
		m.historyList.AddItem("No codes recorded", "", 0, nil)
		return
	}

	// Newest ten
	if len(entries) > 10 {
		entries = entries[:10]
	}

	for _, entry := range entries {
		icon := "🏷️"
		if entry.Kind == history.KindScan {
			icon = "📷"
		}

		title := fmt.Sprintf("%s %s", icon, entry.Value)
		details := entry.Format
		if entry.ProductName != "" {
			details = fmt.Sprintf("%s • %s", entry.Format, entry.ProductName)
		}

		m.historyList.AddItem(title, details, 0, nil)
	}
}

func (m *Monitor) refreshJobs() {
	m.jobsTable.Clear()

	// Header
	m.jobsTable.SetCell(0, 0, tview.NewTableCell("Status").SetAlign(tview.AlignCenter).SetSelectable(false))
	m.jobsTable.SetCell(0, 1, tview.NewTableCell("Pages").SetAlign(tview.AlignCenter).SetSelectable(false))
	m.jobsTable.SetCell(0, 2, tview.NewTableCell("Retries").SetAlign(tview.AlignCenter).SetSelectable(false))
	m.jobsTable.SetCell(0, 3, tview.NewTableCell("Time").SetAlign(tview.AlignCenter).SetSelectable(false))

	all := m.queue.GetAllJobs()

	// Count stats
	queued := 0
	rendering := 0
	completed := 0
	failed := 0

	for i, job := range all {
		row := i + 1
		statusIcon := getStatusIcon(job.Status)

		m.jobsTable.SetCell(row, 0, tview.NewTableCell(statusIcon+" "+job.Status))
		m.jobsTable.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf("%d", len(job.Pages))))
		m.jobsTable.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", job.Retries)))

		timeStr := time.Since(job.CreatedAt).Truncate(time.Second).String()
		m.jobsTable.SetCell(row, 3, tview.NewTableCell(timeStr))

		switch job.Status {
		case jobs.StatusQueued:
			queued++
		case jobs.StatusRendering:
			rendering++
		case jobs.StatusCompleted:
			completed++
		case jobs.StatusFailed:
			failed++
		}
	}

	// Add summary row
	if len(all) > 0 {
		summaryRow := len(all) + 1
		summary := fmt.Sprintf("[%d] Queued [%d] Rendering [%d] Completed [%d] Failed",
			queued, rendering, completed, failed)
		cell := tview.NewTableCell(summary)
		cell.SetSelectable(false)
		m.jobsTable.SetCell(summaryRow, 0, cell)
		m.jobsTable.SetCell(summaryRow, 1, tview.NewTableCell(""))
		m.jobsTable.SetCell(summaryRow, 2, tview.NewTableCell(""))
		m.jobsTable.SetCell(summaryRow, 3, tview.NewTableCell(""))
	}
}

func (m *Monitor) refreshStatus() {
	uptime := time.Since(m.startTime)
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60

	status := fmt.Sprintf(`[green]🟢 Running[white]

Uptime: %dh %dm
API: :%s
Jobs: %d total
History: %d codes`, hours, minutes, m.port, len(m.queue.GetAllJobs()), len(m.store.GetAll()))

	m.statusBox.SetText(status)
}

func (m *Monitor) executeCommand(cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return
	}

	m.AddLog(fmt.Sprintf("> %s", cmd), "command")

	switch cmd {
	case "clear":
		m.logs = make([]string, 0)
		m.logsArea.Clear()
		return
	case "refresh":
		m.AddLog("Refreshing all panels...", "info")
		m.refreshAll()
		return
	case "quit", "q":
		m.App.Stop()
		return
	}

	result := m.executor.Execute(cmd)
	if !result.Success {
		m.AddLog(result.Error, "error")
		return
	}

	if result.Message != "" {
		m.AddLog(result.Message, "info")
	}
	if data, ok := result.Data["job_id"].(string); ok {
		m.AddLog(fmt.Sprintf("Queued %s", data), "info")
	}
	m.refreshAll()
}

// AddLog adds a log entry
func (m *Monitor) AddLog(message string, level string) {
	var color string
	var icon string

	switch level {
	case "error":
		color = "[red]"
		icon = "❌"
	case "warning":
		color = "[yellow]"
		icon = "⚠️"
	case "command":
		color = "[cyan]"
		icon = ">"
	default:
		color = "[white]"
		icon = "ℹ️"
	}

	timeStr := time.Now().Format("15:04:05")
	logEntry := fmt.Sprintf("%s[%s] %s %s[white]\n", color, timeStr, icon, message)

	m.logs = append(m.logs, logEntry)
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}

	// Update logs area
	m.logsArea.Clear()
	for _, log := range m.logs {
		fmt.Fprint(m.logsArea, log)
	}

	// Auto-scroll to bottom
	m.logsArea.ScrollToEnd()
}

func getStatusIcon(status string) string {
	switch status {
	case jobs.StatusQueued:
		return "⏳"
	case jobs.StatusRendering:
		return "🟡"
	case jobs.StatusCompleted:
		return "✅"
	case jobs.StatusFailed:
		return "❌"
	default:
		return "⚪"
	}
}

// LogWriter creates an io.Writer that writes to the logs panel
func (m *Monitor) LogWriter() io.Writer {
	return &monitorLogWriter{app: m}
}

type monitorLogWriter struct {
	app *Monitor
}

func (w *monitorLogWriter) Write(p []byte) (n int, err error) {
	message := strings.TrimSpace(string(p))
	if message != "" {
		w.app.AddLog(message, "info")
	}
	return len(p), nil
}
