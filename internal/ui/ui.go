package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotitransfer/internal/services"
	"github.com/desertthunder/spotitransfer/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	TransferView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	source       services.LibraryService
	engine       *tasks.TransferEngine
	opts         tasks.RunOpts
	width        int
	height       int
	total        int
	bar          progress.Model
	spin         spinner.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	summary      *tasks.TransferSummary
	err          error
	help         help.Model
	keys         keyMap
}

type librarySizedMsg struct {
	total int
	err   error
}

type progressUpdateMsg tasks.ProgressUpdate

type transferCompleteMsg struct {
	summary *tasks.TransferSummary
	err     error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, source services.LibraryService, engine *tasks.TransferEngine, opts tasks.RunOpts) *Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		ctx:    ctx,
		view:   ConfirmView,
		source: source,
		engine: engine,
		opts:   opts,
		bar:    progress.New(progress.WithDefaultGradient()),
		spin:   spin,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init looks up the source library size so the confirmation view can show it.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchLibrarySize())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case TransferView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case librarySizedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.total = msg.total
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case transferCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case TransferView:
		return m.renderTransfer()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no):
		return m, tea.Quit
	case key.Matches(msg, m.keys.yes):
		m.view = TransferView
		return m, m.startTransfer()
	}
	return m, nil
}

func (m *Model) fetchLibrarySize() tea.Cmd {
	return func() tea.Msg {
		page, err := m.source.SavedTracks(m.ctx, 1, 0)
		if err != nil {
			return librarySizedMsg{err: err}
		}
		return librarySizedMsg{total: page.Total}
	}
}

func (m *Model) startTransfer() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 100)

	progressChan := m.progressChan
	go func() {
		summary, err := m.engine.Run(m.ctx, progressChan, m.opts)
		m.summary = summary
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return transferCompleteMsg{summary: m.summary, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return transferCompleteMsg{summary: m.summary, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Transfer liked songs to the destination account?")

	var info string
	if m.total == 0 {
		info = fmt.Sprintf("\n%s Looking up library size...\n", m.spin.View())
	} else {
		info = fmt.Sprintf("\nLiked songs on source account: %d\nTracks are inserted oldest first so the destination keeps the original order.\n", m.total)
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderTransfer() string {
	title := styles.title.Render("Transferring Liked Songs")

	var body string
	switch m.progress.Phase {
	case tasks.FetchPage:
		body = fmt.Sprintf("%s Fetching library (%d/%d)...", m.spin.View(), m.progress.Step, m.progress.Total)
	case tasks.FetchRetry:
		body = styles.warn.Render(m.progress.Message)
	case tasks.OrderTracks:
		body = "Sorting by original save date..."
	case tasks.TransferTrack:
		percent := 0.0
		if m.progress.Total > 0 {
			percent = float64(m.progress.Step) / float64(m.progress.Total)
		}
		body = fmt.Sprintf("%s\n\n%s", m.bar.ViewAs(percent), m.progress.Message)
	case tasks.RateLimitWait:
		body = styles.warn.Render(m.progress.Message)
	default:
		body = fmt.Sprintf("%s Working...", m.spin.View())
	}

	return fmt.Sprintf("%s\n\n%s", title, body)
}

func (m *Model) renderResult() string {
	if m.summary == nil {
		if m.err != nil {
			return styles.err.Render(fmt.Sprintf("Transfer failed: %v\n\nPress q to quit", m.err))
		}
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	var title string
	switch m.summary.Status {
	case tasks.StatusCompleted:
		title = styles.ok.Render("✓ Transfer Complete!")
	case tasks.StatusCompletedWithErrors:
		title = styles.warn.Render("Transfer complete with errors")
	default:
		title = styles.err.Render(fmt.Sprintf("Transfer aborted: %v", m.summary.Err))
	}

	info := fmt.Sprintf(
		"\nTracks: %d\nSucceeded: %d\nFailed: %d",
		m.summary.Total,
		m.summary.SucceededCount,
		m.summary.FailedCount,
	)

	var failed string
	if m.summary.FailedCount > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render("Failed tracks (add these by hand):"))
		for _, result := range m.summary.FailedTracks {
			failed += fmt.Sprintf("\n  • %s", result.TrackID)
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
