package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/renatogalera/agentchat/pkg/session"
	"github.com/renatogalera/agentchat/pkg/stream"
)

// uiState represents the different states of the TUI.
type uiState int

const (
	stateComposing uiState = iota
	stateStreaming
)

const logoText = `agentchat`

// --- MESSAGES ----------------------------------------------------------------

// storeChangedMsg signals that the session store mutated and the
// transcript must be re-rendered.
type storeChangedMsg struct{}

// streamStartedMsg is emitted once a send has been handed to the
// controller; doneCh delivers the terminal error (or nil).
type streamStartedMsg struct {
	doneCh <-chan error
}

// streamDoneMsg carries the terminal result of a stream.
type streamDoneMsg struct {
	err error
}

// --- STYLES ------------------------------------------------------------------

var (
	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Margin(0, 1)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	modelLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	toolLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	infoLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Margin(0, 1)

	errorBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("196")).
			Foreground(lipgloss.Color("196")).
			Padding(0, 1).
			Margin(0, 1)

	transcriptStyle = lipgloss.NewStyle().Margin(0, 1)
)

// --- KEY BINDINGS ------------------------------------------------------------

type keys struct {
	Send   key.Binding
	Cancel key.Binding
	Quit   key.Binding
	Help   key.Binding
}

var keyMap = keys{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("ctrl+h"),
		key.WithHelp("ctrl+h", "toggle help"),
	),
}

// --- MODEL -------------------------------------------------------------------

// Model is the interactive chat TUI. It renders the transcript held in
// the session store and drives sends through the stream controller.
type Model struct {
	state uiState

	store     *session.Store
	ctrl      *stream.Controller
	sessionID string

	updates     chan struct{}
	updatesMu   sync.Mutex
	updatesDone bool
	unsubscribe func()

	spinner   spinner.Model
	textarea  textarea.Model
	viewport  viewport.Model
	help      help.Model
	showHelp  bool
	ready     bool
	width     int
	height    int
	sendErr   string
	quitting  bool
	streaming bool
}

// NewModel builds the chat model and subscribes it to store changes.
func NewModel(store *session.Store, ctrl *stream.Controller, sessionID string) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask something..."
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &Model{
		state:     stateComposing,
		store:     store,
		ctrl:      ctrl,
		sessionID: sessionID,
		updates:   make(chan struct{}, 1),
		spinner:   sp,
		textarea:  ta,
		help:      help.New(),
	}
	m.unsubscribe = store.Subscribe(func() {
		m.updatesMu.Lock()
		defer m.updatesMu.Unlock()
		if m.updatesDone {
			return
		}
		select {
		case m.updates <- struct{}{}:
		default:
		}
	})
	return m
}

// teardown detaches the model from the store. Closing the update channel
// unblocks the pending waitStoreCmd reader; the mutex keeps a late notify
// from hitting the closed channel.
func (m *Model) teardown() {
	m.unsubscribe()
	m.updatesMu.Lock()
	defer m.updatesMu.Unlock()
	if !m.updatesDone {
		m.updatesDone = true
		close(m.updates)
	}
}

// NewProgram creates a new Bubble Tea program for the chat UI.
func NewProgram(m *Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitStoreCmd(m.updates))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(msg.Width - 4)
		headerHeight := 2
		footerHeight := m.textarea.Height() + 4
		vpHeight := msg.Height - headerHeight - footerHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyMap.Quit):
			m.quitting = true
			if m.ctrl.Busy() {
				m.ctrl.Cancel()
			}
			m.teardown()
			return m, tea.Quit
		case key.Matches(msg, keyMap.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, keyMap.Cancel):
			if m.state == stateStreaming {
				m.ctrl.Cancel()
				return m, nil
			}
			m.quitting = true
			m.teardown()
			return m, tea.Quit
		case key.Matches(msg, keyMap.Send):
			if m.state != stateComposing {
				return m, nil
			}
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" {
				return m, nil
			}
			m.sendErr = ""
			m.textarea.Reset()
			m.state = stateStreaming
			m.streaming = true
			return m, tea.Batch(m.spinner.Tick, sendCmd(m.ctrl, m.sessionID, text))
		}

	case storeChangedMsg:
		m.refreshTranscript()
		cmds = append(cmds, waitStoreCmd(m.updates))

	case streamStartedMsg:
		cmds = append(cmds, m.spinner.Tick, waitDoneCmd(msg.doneCh))

	case streamDoneMsg:
		m.state = stateComposing
		m.streaming = false
		if msg.err != nil {
			m.sendErr = msg.err.Error()
			log.Debug().Err(msg.err).Msg("stream finished with error")
		}
		m.refreshTranscript()

	case spinner.TickMsg:
		if m.streaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if m.state == stateComposing {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	// Keystrokes belong to the textarea while composing; the viewport
	// still gets mouse and resize traffic.
	if _, isKey := msg.(tea.KeyMsg); !isKey || m.state != stateComposing {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// --- VIEWS -------------------------------------------------------------------

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	header := logoStyle.Render(logoText)

	status := ""
	if agent := m.store.CurrentAgent(); agent != "" {
		status = fmt.Sprintf("agent: %s", agent)
	}
	if m.store.ProcessingFunction() {
		if status != "" {
			status += " | "
		}
		status += "running tool"
	}
	if m.streaming {
		if status != "" {
			status += " | "
		}
		status += m.spinner.View() + "thinking"
	}
	statusLine := infoLineStyle.Render(status)

	errSection := ""
	if strings.TrimSpace(m.sendErr) != "" {
		boxWidth := minInt(m.width-4, 100)
		errSection = errorBoxStyle.Width(boxWidth).Render(m.sendErr) + "\n"
	}

	input := lipgloss.NewStyle().Margin(0, 1).Render(m.textarea.View())

	helpView := ""
	if m.showHelp {
		helpView = "\n" + m.help.View(m)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		statusLine,
		errSection+input,
		helpView,
	)
}

// refreshTranscript re-renders the message list into the viewport and
// keeps it scrolled to the bottom.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(transcriptStyle.Render(m.renderMessages()))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMessages() string {
	msgs := m.store.Messages(m.sessionID)
	if len(msgs) == 0 {
		return infoLineStyle.Render("No messages yet.")
	}

	wrap := lipgloss.NewStyle().Width(maxInt(m.viewport.Width-4, 20))
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		label := modelLabelStyle.Render("Assistant")
		if msg.Role == session.RoleUser {
			label = userLabelStyle.Render("You")
		}
		b.WriteString(label + "\n")
		for _, call := range msg.FunctionCalls {
			b.WriteString(toolLineStyle.Render(fmt.Sprintf("⚙ %s", call.Name)) + "\n")
		}
		body := msg.Content
		if body == "" && msg.IsStreaming {
			body = "..."
		}
		if body != "" {
			b.WriteString(wrap.Render(body) + "\n")
		}
	}
	return b.String()
}

// --- COMMANDS ----------------------------------------------------------------

// sendCmd hands the message to the controller in a goroutine and wires
// the completion channel back into the program.
func sendCmd(ctrl *stream.Controller, sessionID, text string) tea.Cmd {
	return func() tea.Msg {
		doneCh := make(chan error, 1)
		go func() {
			doneCh <- ctrl.Send(context.Background(), sessionID, text)
			close(doneCh)
		}()
		return streamStartedMsg{doneCh: doneCh}
	}
}

// waitDoneCmd waits for the terminal error from a send.
func waitDoneCmd(done <-chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-done
		if !ok {
			return streamDoneMsg{err: nil}
		}
		return streamDoneMsg{err: err}
	}
}

// waitStoreCmd blocks until the store signals a change; a closed channel
// means the model tore down and there is nothing left to render.
func waitStoreCmd(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

// -------------------------------------------------------------------------------------
// Model implements help.KeyMap (for m.help.View(m)).
// -------------------------------------------------------------------------------------

func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		keyMap.Send,
		keyMap.Cancel,
		keyMap.Help,
		keyMap.Quit,
	}
}

func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		m.ShortHelp(),
	}
}

// --- helpers -----------------------------------------------------------------

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
