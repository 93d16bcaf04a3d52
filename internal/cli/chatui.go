package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/gepetto/internal/chat"
	"github.com/raphaelgruber/gepetto/internal/models"
)

// Theme holds the color scheme for the chat screen.
type Theme struct {
	User      lipgloss.Color
	Assistant lipgloss.Color
	Accent    lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:      lipgloss.Color("#5FAFD7"), // light blue
	Assistant: lipgloss.Color("#00D787"), // green
	Accent:    lipgloss.Color("#D7AF00"), // amber
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) assistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Assistant).Bold(true)
}

func (t Theme) accentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

const keyHints = "enter send • ctrl+j newline • tab model • ctrl+o attach path • ctrl+x drop attachment • esc quit"

// replyMsg carries the outcome of a proxy call back into the event loop.
type replyMsg struct {
	pending chat.Pending
	reply   string
	err     error
}

// chatModel is the bubbletea model for the interactive chat.
type chatModel struct {
	ctrl *chat.Controller
	gen  chat.Generator

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	theme    Theme

	width, height int
	cursor        int
	status        string
	lastRevision  uint64
	quitting      bool
}

// newChatModel creates the chat screen over ctrl, sending prompts through gen.
func newChatModel(ctrl *chat.Controller, gen chat.Generator) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = chat.MaxInputRows
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j"))
	ta.SetHeight(1)
	ta.Focus()

	m := chatModel{
		ctrl:     ctrl,
		gen:      gen,
		input:    ta,
		viewport: viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:    defaultTheme,
		width:    80,
		height:   24,
	}
	m.layout()
	m.refresh()
	return m
}

// Init returns the initial command.
func (m chatModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case replyMsg:
		// Failures are logged by the controller; the screen only drops the placeholder.
		m.ctrl.Complete(msg.pending, msg.reply, msg.err)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	return m, nil
}

func (m chatModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.String()

	if k == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.ctrl.DropdownOpen() {
		options := m.ctrl.Models()
		switch k {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(options)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(options) {
				if err := m.ctrl.SelectModel(options[m.cursor].ID); err != nil {
					m.status = err.Error()
				}
			}
		case "tab", "esc":
			m.ctrl.ToggleDropdown()
		}
		m.layout()
		return m, nil
	}

	switch k {
	case "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.ctrl.ToggleDropdown()
		m.cursor = indexOfModel(m.ctrl.Models(), m.ctrl.SelectedModel())
		m.layout()
		return m, nil

	case "enter":
		return m.submit()

	case "ctrl+o":
		a, err := chat.AttachmentFromPath(m.input.Value())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.ctrl.Attach(a)
		m.input.Reset()
		m.syncInput()
		m.status = ""
		return m, nil

	case "ctrl+x":
		if pending := m.ctrl.PendingAttachments(); len(pending) > 0 {
			m.ctrl.Detach(pending[len(pending)-1].Name)
			m.layout()
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.syncInput()
	return m, cmd
}

// submit records the user message and dispatches the proxy call off the
// event loop. A blank input or a request in flight makes it a no-op.
func (m chatModel) submit() (tea.Model, tea.Cmd) {
	m.ctrl.SetInput(m.input.Value())
	p, ok := m.ctrl.Begin()
	if !ok {
		return m, nil
	}

	m.input.Reset()
	m.syncInput()
	m.status = ""
	m.refresh()

	return m, tea.Batch(m.generate(p), m.spinner.Tick)
}

// generate calls the proxy in a separate goroutine (command) to avoid blocking Update().
func (m chatModel) generate(p chat.Pending) tea.Cmd {
	gen := m.gen
	return func() tea.Msg {
		reply, err := gen.Generate(context.Background(), p.Model, p.Prompt)
		return replyMsg{pending: p, reply: reply, err: err}
	}
}

// syncInput mirrors the textarea into the controller and resizes the input area.
func (m *chatModel) syncInput() {
	m.ctrl.SetInput(m.input.Value())
	m.input.SetHeight(m.ctrl.InputRows())
	m.layout()
}

// layout distributes the terminal height between the transcript and the chrome.
func (m *chatModel) layout() {
	chrome := 1 + 1 + 1 + m.ctrl.InputRows() // header, attachments/status, hints, input
	if m.ctrl.DropdownOpen() {
		chrome += len(m.ctrl.Models())
	}

	m.input.SetWidth(m.width)
	m.viewport.SetWidth(m.width)
	m.viewport.SetHeight(max(m.height-chrome, 1))
}

// refresh re-renders the transcript and scrolls to the newest entry when
// the message list changed. Spinner ticks re-render without moving the view.
func (m *chatModel) refresh() {
	m.viewport.SetContent(m.renderTranscript())

	rev := m.ctrl.Revision()
	if rev != m.lastRevision {
		m.viewport.GotoBottom()
	}
	m.lastRevision = rev
}

func (m chatModel) renderTranscript() string {
	var b strings.Builder
	width := max(m.width-2, 10)

	for _, msg := range m.ctrl.Messages() {
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n")
	}

	if ph, ok := m.ctrl.Placeholder(); ok {
		b.WriteString(m.theme.assistantStyle().Render("Gepetto"))
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " " + m.theme.hintStyle().Render(ph.Content))
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return m.theme.hintStyle().Render("Start a conversation by typing a message below.")
	}
	return b.String()
}

func (m chatModel) renderMessage(msg models.Message, width int) string {
	label := m.theme.assistantStyle().Render("Gepetto")
	if msg.IsUser() {
		label = m.theme.userStyle().Render("You")
	}

	var b strings.Builder
	b.WriteString(label)
	b.WriteString(" " + m.theme.hintStyle().Render(msg.CreatedAt.Format("15:04")))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Content))
	b.WriteString("\n")
	for _, a := range msg.Attachments {
		b.WriteString(m.theme.hintStyle().Render(fmt.Sprintf("  attached: %s (%d bytes)", a.Name, a.Size)))
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the chat screen.
func (m chatModel) View() tea.View {
	v := tea.NewView(m.renderContent())
	v.AltScreen = true
	return v
}

func (m chatModel) renderContent() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	selected := m.ctrl.SelectedModel()
	name := selected
	if opt, ok := models.FindModel(m.ctrl.Models(), selected); ok {
		name = opt.Name
	}
	b.WriteString(m.theme.accentStyle().Render("gepetto") + "  model: " + name + m.theme.hintStyle().Render(" (tab to change)"))
	b.WriteString("\n")

	if m.ctrl.DropdownOpen() {
		for i, opt := range m.ctrl.Models() {
			line := "   " + opt.Name
			if i == m.cursor {
				line = m.theme.accentStyle().Render(" > " + opt.Name)
			}
			if opt.ID == selected {
				line += m.theme.hintStyle().Render(" (selected)")
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.status != "":
		b.WriteString(m.theme.errorStyle().Render(m.status))
	case len(m.ctrl.PendingAttachments()) > 0:
		names := make([]string, 0)
		for _, a := range m.ctrl.PendingAttachments() {
			names = append(names, a.Name)
		}
		b.WriteString(m.theme.hintStyle().Render("attachments: " + strings.Join(names, ", ")))
	}
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render(keyHints))

	return b.String()
}

func indexOfModel(options []models.ModelOption, id string) int {
	for i, o := range options {
		if o.ID == id {
			return i
		}
	}
	return 0
}

// RunChat runs the interactive chat UI until the user quits.
func RunChat(ctrl *chat.Controller, gen chat.Generator) error {
	p := tea.NewProgram(newChatModel(ctrl, gen))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
