// Package tui is the interactive JSON tree explorer. It hosts the treeview
// core: the model owns the current value and expansion state, re-flattens on
// every change, and renders the resulting node list. It runs in two modes:
// exploring a JSON file (optionally reloading on change) and attached to a
// live session, where incoming request payloads become the inspected tree
// and decision keys resolve them.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simdeck/simdeck/client"
	"github.com/simdeck/simdeck/sim"
	"github.com/simdeck/simdeck/treeview"
)

// mode is the model's input mode.
type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeCompose
)

// Attach connects the explorer to a live session.
type Attach struct {
	Client    *client.Client
	SessionID string
}

// Config configures the explorer.
type Config struct {
	// Title is shown in the header: the file name or session ID.
	Title string

	// DefaultExpanded controls the initial expansion state.
	DefaultExpanded bool

	// Watcher, when set, feeds file reloads into the view.
	Watcher *Watcher

	// Attach, when set, switches the explorer to session mode.
	Attach *Attach
}

// Messages crossing into the bubbletea loop.
type (
	streamOpenedMsg struct {
		events <-chan *sim.Event
		cancel func()
	}
	eventMsg struct {
		e *sim.Event
	}
	streamClosedMsg struct{}
	streamErrMsg    struct {
		err error
	}
	decisionMsg struct {
		kind sim.DecisionKind
		err  error
	}
)

// Model is the bubbletea model for the tree explorer.
type Model struct {
	cfg Config

	// The hosted treeview core: current value, expansion state, and the
	// flattened output of the last pass.
	value any
	state treeview.State
	nodes []treeview.DisplayNode

	// visible is nodes after the filter; what the cursor moves over.
	visible []treeview.DisplayNode

	cursor int
	offset int
	width  int
	height int
	ready  bool

	mode   mode
	input  textinput.Model
	filter *Filter

	composer *Composer

	// Session mode state.
	events      <-chan *sim.Event
	cancelEvent func()
	pendingTurn string

	status  string
	lastErr error
}

// NewModel builds an explorer over value.
func NewModel(value any, cfg Config) Model {
	input := textinput.New()
	input.Prompt = "/ "
	input.CharLimit = 256

	m := Model{
		cfg:   cfg,
		value: value,
		state: treeview.NewState(cfg.DefaultExpanded),
		input: input,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.cfg.Watcher != nil {
		cmds = append(cmds, waitReload(m.cfg.Watcher))
	}
	if m.cfg.Attach != nil {
		cmds = append(cmds, openStream(m.cfg.Attach))
	}
	return tea.Batch(cmds...)
}

// refresh re-runs the flatten pass and the filter, then clamps the cursor.
func (m *Model) refresh() {
	m.nodes = treeview.Flatten(m.value, m.state.IsExpanded)
	m.visible = m.filter.Apply(m.nodes)
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scrollIntoView()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.scrollIntoView()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeFilter:
			return m.updateFilterInput(msg)
		case modeCompose:
			return m.updateComposeInput(msg)
		default:
			return m.updateBrowse(msg)
		}

	case ReloadMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err
			m.status = "reload failed"
		} else {
			m.value = msg.Value
			m.lastErr = nil
			m.status = "reloaded"
			// Expansion state is path-keyed and survives the reload.
			m.refresh()
		}
		return m, waitReload(m.cfg.Watcher)

	case streamOpenedMsg:
		m.events = msg.events
		m.cancelEvent = msg.cancel
		m.status = "attached"
		return m, waitEvent(m.events)

	case eventMsg:
		m.applyEvent(msg.e)
		return m, waitEvent(m.events)

	case streamClosedMsg:
		m.status = "stream closed"
		return m, nil

	case streamErrMsg:
		m.lastErr = msg.err
		m.status = "stream error"
		return m, nil

	case decisionMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.status = "decision failed"
		} else {
			m.status = fmt.Sprintf("decided: %s", msg.kind)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.cancelEvent != nil {
			m.cancelEvent()
		}
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.scrollIntoView()
		}

	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
			m.scrollIntoView()
		}

	case "g", "home":
		m.cursor = 0
		m.scrollIntoView()

	case "G", "end":
		if len(m.visible) > 0 {
			m.cursor = len(m.visible) - 1
			m.scrollIntoView()
		}

	case "pgdown", "ctrl+d":
		m.cursor += m.viewHeight() / 2
		if m.cursor >= len(m.visible) {
			m.cursor = len(m.visible) - 1
		}
		m.scrollIntoView()

	case "pgup", "ctrl+u":
		m.cursor -= m.viewHeight() / 2
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.scrollIntoView()

	case "enter", " ":
		if node, ok := m.nodeAtCursor(); ok && node.Expandable {
			m.state = m.state.Toggle(node.Path, m.value)
			m.refresh()
		}

	case "e":
		m.state = m.state.ExpandAll()
		m.refresh()

	case "c":
		m.state = m.state.CollapseAll()
		m.refresh()

	case "/":
		m.mode = modeFilter
		m.input.SetValue("")
		if m.filter != nil {
			m.input.SetValue(m.filter.Source())
		}
		m.input.Focus()
		return m, textinput.Blink

	case "esc":
		if m.filter != nil {
			m.filter = nil
			m.status = "filter cleared"
			m.refresh()
		}

	case "a":
		return m.decide(sim.DecisionApprove, nil)

	case "d":
		return m.decide(sim.DecisionDeny, nil)

	case "r":
		if m.cfg.Attach != nil && m.pendingTurn != "" {
			m.mode = modeCompose
			m.composer = NewComposer()
			m.input.SetValue("")
			m.input.Prompt = "> "
			m.input.Focus()
			return m, textinput.Blink
		}
	}

	return m, nil
}

func (m Model) updateFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		src := m.input.Value()
		m.mode = modeBrowse
		m.input.Blur()
		if src == "" {
			m.filter = nil
			m.refresh()
			return m, nil
		}
		f, err := CompileFilter(src)
		if err != nil {
			m.lastErr = err
			m.status = "bad filter"
			return m, nil
		}
		m.filter = f
		m.lastErr = nil
		m.status = ""
		m.cursor = 0
		m.refresh()
		return m, nil

	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateComposeInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		line := m.input.Value()
		if line == "" {
			return m, nil
		}
		if err := m.composer.Add(line); err != nil {
			m.lastErr = err
			m.status = "bad field"
			return m, nil
		}
		m.lastErr = nil
		m.status = ""
		m.input.SetValue("")
		return m, nil

	case "ctrl+s":
		if m.composer.Empty() {
			m.status = "nothing to send"
			return m, nil
		}
		payload := m.composer.Payload()
		m.mode = modeBrowse
		m.input.Blur()
		m.input.Prompt = "/ "
		return m.decide(sim.DecisionRespond, payload)

	case "esc":
		m.mode = modeBrowse
		m.composer = nil
		m.input.Blur()
		m.input.Prompt = "/ "
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// decide submits a decision for the pending turn.
func (m Model) decide(kind sim.DecisionKind, response json.RawMessage) (tea.Model, tea.Cmd) {
	if m.cfg.Attach == nil || m.pendingTurn == "" {
		return m, nil
	}

	attach := m.cfg.Attach
	decision := &sim.Decision{
		TurnID:   m.pendingTurn,
		Kind:     kind,
		Response: response,
	}
	m.pendingTurn = ""
	m.status = "deciding..."

	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := attach.Client.SubmitDecision(ctx, attach.SessionID, decision)
		return decisionMsg{kind: kind, err: err}
	}
}

// applyEvent folds one session event into the view. Request payloads replace
// the inspected value; decisions and closure update the status line.
func (m *Model) applyEvent(e *sim.Event) {
	switch e.Type {
	case sim.EventRequest:
		var req sim.Request
		if err := json.Unmarshal(e.Payload, &req); err != nil {
			m.lastErr = fmt.Errorf("error decoding request event: %w", err)
			return
		}
		value, err := treeview.Parse(req.Payload)
		if err != nil {
			m.lastErr = fmt.Errorf("error parsing request payload: %w", err)
			return
		}
		m.value = value
		m.pendingTurn = req.TurnID
		m.status = fmt.Sprintf("request from %s (seq %d)", req.AgentName, e.Seq)
		m.lastErr = nil
		m.refresh()

	case sim.EventDecision:
		var d sim.Decision
		if err := json.Unmarshal(e.Payload, &d); err == nil {
			m.status = fmt.Sprintf("turn %s: %s", shortID(d.TurnID), d.Kind)
			if d.TurnID == m.pendingTurn {
				m.pendingTurn = ""
			}
		}

	case sim.EventSessionClosed:
		m.status = "session closed"
		m.pendingTurn = ""
	}
}

func (m Model) nodeAtCursor() (treeview.DisplayNode, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return treeview.DisplayNode{}, false
	}
	return m.visible[m.cursor], true
}

// viewHeight is the rows available to the node list.
func (m Model) viewHeight() int {
	h := m.height - chromeHeight
	if h < 1 {
		h = 1
	}
	return h
}

// scrollIntoView keeps the cursor inside the visible window.
func (m *Model) scrollIntoView() {
	h := m.viewHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// waitReload delivers the watcher's next re-read.
func waitReload(w *Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-w.Reloads()
		if !ok {
			return nil
		}
		return msg
	}
}

// openStream dials the session's event stream.
func openStream(a *Attach) tea.Cmd {
	return func() tea.Msg {
		events, cancel, err := a.Client.Stream(context.Background(), a.SessionID)
		if err != nil {
			return streamErrMsg{err: err}
		}
		return streamOpenedMsg{events: events, cancel: cancel}
	}
}

// waitEvent delivers the stream's next event.
func waitEvent(events <-chan *sim.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{e: e}
	}
}
