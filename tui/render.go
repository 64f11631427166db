package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/simdeck/simdeck/treeview"
)

// chromeHeight is the rows taken by the header and footer around the node
// list.
const chromeHeight = 4

const (
	indicatorExpanded  = "▾"
	indicatorCollapsed = "▸"
	indicatorLeaf      = "•"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	indicatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	stringStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	numberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("215"))

	boolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141"))

	nullStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func valueStyle(t treeview.ValueType) lipgloss.Style {
	switch t {
	case treeview.TypeString:
		return stringStyle
	case treeview.TypeNumber:
		return numberStyle
	case treeview.TypeBool:
		return boolStyle
	default:
		return nullStyle
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	h := m.viewHeight()
	end := m.offset + h
	if end > len(m.visible) {
		end = len(m.visible)
	}

	if len(m.visible) == 0 {
		b.WriteString(statusStyle.Render("  (no nodes match)"))
		b.WriteString("\n")
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.visible[i], i == m.cursor))
		b.WriteString("\n")
	}
	for i := end - m.offset; i < h && len(m.visible) > 0; i++ {
		b.WriteString("\n")
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.cfg.Title
	if title == "" {
		title = "simdeck"
	}

	pos := ""
	if len(m.visible) > 0 {
		pos = fmt.Sprintf("%d/%d", m.cursor+1, len(m.visible))
	}
	if m.filter != nil {
		pos += fmt.Sprintf("  filter: %s", m.filter.Source())
	}
	return headerStyle.Render(title) + "  " + statusStyle.Render(pos)
}

// renderRow builds one node line: indent, expand indicator, key, value or
// child count. The plain text is truncated to the terminal width before any
// styling so escape sequences never confuse the width math.
func (m Model) renderRow(n treeview.DisplayNode, selected bool) string {
	indent := strings.Repeat("  ", n.Depth)

	indicator := indicatorLeaf
	if n.Expandable {
		if n.Expanded {
			indicator = indicatorExpanded
		} else {
			indicator = indicatorCollapsed
		}
	}

	var value, badge string
	if n.Expandable {
		noun := "keys"
		if n.Type == treeview.TypeArray {
			noun = "items"
		}
		badge = fmt.Sprintf("{%d %s}", n.ChildCount, noun)
	} else {
		value = n.Value
	}

	// Width budget, minus indent, indicator, key, separators.
	used := runewidth.StringWidth(indent) + 2 + runewidth.StringWidth(n.Key) + 2
	avail := m.width - used
	if avail < 4 {
		avail = 4
	}
	value = runewidth.Truncate(value, avail, "…")

	if selected {
		line := fmt.Sprintf("%s%s %s: %s%s", indent, indicator, n.Key, value, badge)
		return cursorStyle.Render(runewidth.Truncate(line, m.width, "…"))
	}

	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(indicatorStyle.Render(indicator))
	b.WriteString(" ")
	b.WriteString(keyStyle.Render(n.Key))
	b.WriteString(": ")
	if n.Expandable {
		b.WriteString(badgeStyle.Render(badge))
	} else {
		b.WriteString(valueStyle(n.Type).Render(value))
	}
	return b.String()
}

func (m Model) renderFooter() string {
	var b strings.Builder

	switch m.mode {
	case modeFilter:
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter apply · esc cancel"))
		return b.String()

	case modeCompose:
		fields := strings.Join(m.composer.Fields(), ", ")
		if fields == "" {
			fields = "(empty)"
		}
		b.WriteString(statusStyle.Render("respond: " + fields))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString(" ")
		b.WriteString(helpStyle.Render("path = value · enter add · ctrl+s send · esc cancel"))
		return b.String()
	}

	status := m.status
	if m.lastErr != nil {
		status = errStyle.Render(m.lastErr.Error())
	} else {
		status = statusStyle.Render(status)
	}
	b.WriteString(status)
	b.WriteString("\n")

	help := "↑/↓ move · enter toggle · e expand all · c collapse all · / filter · q quit"
	if m.cfg.Attach != nil {
		help = "↑/↓ move · enter toggle · a approve · d deny · r respond · / filter · q quit"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}
