package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/workplate/internal/server"
	"github.com/desertthunder/workplate/internal/shared"
)

const tickInterval = time.Second

// WaitOpts configures a [WaitModel].
type WaitOpts struct {
	Title    string
	URL      string
	Port     uint16
	Deadline time.Time
	// BrowserErr is the error from the first attempt to open URL, if any.
	BrowserErr  error
	Results     <-chan server.Result
	OpenBrowser shared.BrowserOpener
	// Cancel stops the listener when the user quits before the redirect arrives.
	Cancel context.CancelFunc
}

// WaitModel shows a countdown while the redirect listener waits, then the outcome.
type WaitModel struct {
	opts       WaitOpts
	now        func() time.Time
	remaining  time.Duration
	browserErr error
	result     *server.Result
	quitting   bool
	spinner    spinner.Model
	help       help.Model
	keys       keyMap
}

// NewWaitModel creates a [WaitModel] for an in-flight listener.
func NewWaitModel(opts WaitOpts) *WaitModel {
	if opts.Title == "" {
		opts.Title = "Waiting for authorization"
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	m := &WaitModel{
		opts:       opts,
		now:        time.Now,
		browserErr: opts.BrowserErr,
		spinner:    s,
		help:       help.New(),
		keys:       newKeyMap(),
	}
	m.remaining = m.timeLeft()
	return m
}

// Result returns the listener outcome, or a cancelled result when the user quit first.
func (m *WaitModel) Result() server.Result {
	if m.result != nil {
		return *m.result
	}
	return server.NewResult("", context.Canceled)
}

// Init starts the spinner, the countdown, and the wait for the listener.
func (m *WaitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick(), m.waitForResult())
}

// Update handles incoming messages and updates the model state.
func (m *WaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgTick:
			if m.result != nil {
				return m, nil
			}
			m.remaining = m.timeLeft()
			return m, tick()
		case MsgResult:
			result := msg.data.(server.Result)
			m.result = &result
			return m, tea.Quit
		case MsgBrowserOpened:
			m.browserErr, _ = msg.data.(error)
			return m, nil
		}

	case spinner.TickMsg:
		if m.result != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the countdown while waiting and the outcome once it arrives.
func (m *WaitModel) View() string {
	if m.result != nil {
		return m.renderResult() + "\n"
	}
	if m.quitting {
		return styles.warn.Render("Authorization cancelled.") + "\n"
	}
	return m.renderWaiting()
}

func (m *WaitModel) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.result != nil {
		return m, tea.Quit
	}

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		if m.opts.Cancel != nil {
			m.opts.Cancel()
		}
		return m, tea.Quit
	case "o":
		return m, m.openBrowser()
	}
	return m, nil
}

func (m *WaitModel) timeLeft() time.Duration {
	if m.opts.Deadline.IsZero() {
		return 0
	}
	left := m.opts.Deadline.Sub(m.now()).Round(time.Second)
	if left < 0 {
		return 0
	}
	return left
}

func (m *WaitModel) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-m.opts.Results
		if !ok {
			return resultMsg(server.NewResult("", shared.ErrRead))
		}
		return resultMsg(result)
	}
}

func (m *WaitModel) openBrowser() tea.Cmd {
	url := m.opts.URL
	opener := m.opts.OpenBrowser
	return func() tea.Msg {
		return browserOpenedMsg(opener(url))
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *WaitModel) renderWaiting() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.opts.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s Listening on 127.0.0.1:%d", m.spinner.View(), m.opts.Port)
	if !m.opts.Deadline.IsZero() {
		fmt.Fprintf(&b, " (%s left)", m.remaining)
	}
	b.WriteString("\n\n")

	if m.browserErr != nil {
		b.WriteString(styles.warn.Render("⚠ Could not open browser automatically. Open this URL:"))
	} else {
		b.WriteString("Complete sign-in in your browser. If nothing opened, visit:")
	}
	fmt.Fprintf(&b, "\n%s\n\n", m.opts.URL)

	b.WriteString(styles.help.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return b.String()
}

func (m *WaitModel) renderResult() string {
	switch m.result.Kind() {
	case server.KindCode:
		return styles.ok.Render("✓ Authorization code received")
	case server.KindTimedOut:
		return styles.err.Render("✗ Timed out waiting for the browser redirect")
	case server.KindCanceled:
		return styles.warn.Render("Authorization cancelled.")
	default:
		return styles.err.Render(fmt.Sprintf("✗ Authorization failed: %v", m.result.Error()))
	}
}
