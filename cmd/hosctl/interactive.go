package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/hle/am"
	"github.com/wippyai/hle/config"
	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/session"
	"github.com/wippyai/hle/system"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	cmdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	revStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const historySize = 8

type commandInfo struct {
	name      string
	minimum   string
	id        uint32
	input     bool
	available bool
}

type modelState int

const (
	stateSelectCommand modelState = iota
	stateInput
)

type interactiveModel struct {
	sys      *system.System
	sess     *session.State
	cfg      *config.Manager
	history  []historyEntry
	commands []commandInfo
	input    textinput.Model
	selected int
	state    modelState
}

type historyEntry struct {
	text string
	ok   bool
}

type callResultMsg struct {
	err  error
	name string
	resp ipc.Response
	cmd  uint32
}

func newInteractiveModel(sys *system.System, sess *session.State, cfg *config.Manager) *interactiveModel {
	var cmds []commandInfo
	for _, d := range am.Commands() {
		cmds = append(cmds, commandInfo{
			name:      d.Name,
			minimum:   d.MinRevision.String(),
			id:        d.ID,
			input:     d.ID == am.CmdSetCpuBoostMode,
			available: d.MinRevision <= sess.Revision(),
		})
	}
	return &interactiveModel{
		sys:      sys,
		sess:     sess,
		cfg:      cfg,
		commands: cmds,
		state:    stateSelectCommand,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateInput {
			return m.updateInput(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.commands)-1 {
				m.selected++
			}

		case "enter":
			c := m.commands[m.selected]
			if c.input {
				m.prepareInput()
				m.state = stateInput
				return m, textinput.Blink
			}
			return m, m.call(c, nil)

		case "d":
			m.cfg.SetDocked(!m.cfg.Docked())
			m.note(fmt.Sprintf("operation mode -> %s", m.sess.OperationMode()), true)

		case "f":
			next := session.FocusOutOfFocus
			if m.sess.FocusState() == session.FocusOutOfFocus {
				next = session.FocusInFocus
			}
			m.sess.SetFocus(next)
			m.note(fmt.Sprintf("focus -> %s", next), true)

		case "r":
			m.sess.PushMessage(session.MessageResume)
			m.note("queued resume", true)

		case "v":
			m.cfg.SetVRMode(!m.cfg.VRMode())
			m.note(fmt.Sprintf("vr mode -> %v", m.sess.VRModeEnabled()), true)

		case "s":
			m.sys.SignalDisplayResolutionChange()
			m.note("signaled display resolution change", true)
		}

	case callResultMsg:
		if msg.err != nil {
			m.note(fmt.Sprintf("%s: %v", msg.name, msg.err), false)
		} else {
			m.note(fmt.Sprintf("%s: %s", msg.name, describe(msg.cmd, msg.resp)), msg.resp.Result.IsSuccess())
		}
	}

	return m, nil
}

func (m *interactiveModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.state = stateSelectCommand
		return m, nil

	case "enter":
		m.state = stateSelectCommand
		v, err := strconv.ParseUint(strings.TrimSpace(m.input.Value()), 0, 32)
		if err != nil {
			m.note(fmt.Sprintf("invalid value %q", m.input.Value()), false)
			return m, nil
		}
		w := ipc.NewWriter()
		w.U32(uint32(v))
		return m, m.call(m.commands[m.selected], w.Bytes())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) prepareInput() {
	ti := textinput.New()
	ti.Placeholder = "u32 (0 disabled, 1 fast load)"
	ti.Prompt = "cpu_boost_mode: "
	ti.Width = 40
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) call(c commandInfo, data []byte) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		resp, err := sess.Dispatch(context.Background(), ipc.Request{Command: c.id, Data: data})
		return callResultMsg{err: err, name: c.name, resp: resp, cmd: c.id}
	}
}

func (m *interactiveModel) note(text string, ok bool) {
	m.history = append(m.history, historyEntry{text: text, ok: ok})
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(am.ServiceName))
	b.WriteString(fmt.Sprintf(" firmware %s  pid 0x%x  session %s\n", m.sess.Revision(), m.sess.ProcessID(), m.sess.ID()))
	b.WriteString(fmt.Sprintf("mode %s  focus %s  vr %v  handles %d/%d  messages %d\n\n",
		m.sess.OperationMode(), m.sess.FocusState(), m.sess.VRModeEnabled(),
		m.sess.Handles().Len(), m.sess.Handles().Cap(), m.sess.Messages().Len()))

	for i, c := range m.commands {
		line := fmt.Sprintf("%3d  %-40s", c.id, c.name)
		switch {
		case i == m.selected:
			b.WriteString(selectedStyle.Render("> " + line))
		case !c.available:
			b.WriteString(disabledStyle.Render("  " + line))
		default:
			b.WriteString("  " + cmdStyle.Render(line))
		}
		b.WriteString(" ")
		b.WriteString(revStyle.Render(c.minimum + "+"))
		b.WriteString("\n")
	}

	if m.state == stateInput {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for _, h := range m.history {
		if h.ok {
			b.WriteString(resultStyle.Render(h.text))
		} else {
			b.WriteString(errorStyle.Render(h.text))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.state == stateInput {
		b.WriteString(helpStyle.Render("enter call • esc back"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • d dock • f focus • r resume • v vr • s display event • q quit"))
	}
	return b.String()
}

func runInteractive(sys *system.System, sess *session.State, cfg *config.Manager) error {
	p := tea.NewProgram(newInteractiveModel(sys, sess, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
