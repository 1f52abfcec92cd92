// Package render выводит список в терминал.
package render

import (
	"fmt"
	"strings"
	"time"

	"listTracker/internal/models/list"
	"listTracker/internal/notify"
	"listTracker/internal/ordering"

	"github.com/charmbracelet/lipgloss"
)

const dateLayout = "2006-01-02"

var tagColors = map[list.Color]lipgloss.Color{
	list.ColorPink:    lipgloss.Color("#f472b6"),
	list.ColorRed:     lipgloss.Color("#f87171"),
	list.ColorOrange:  lipgloss.Color("#fb923c"),
	list.ColorAmber:   lipgloss.Color("#fbbf24"),
	list.ColorYellow:  lipgloss.Color("#facc15"),
	list.ColorLime:    lipgloss.Color("#a3e635"),
	list.ColorGreen:   lipgloss.Color("#4ade80"),
	list.ColorEmerald: lipgloss.Color("#34d399"),
	list.ColorCyan:    lipgloss.Color("#22d3ee"),
	list.ColorBlue:    lipgloss.Color("#60a5fa"),
	list.ColorViolet:  lipgloss.Color("#a78bfa"),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("#565f89"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f7768e"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3b4261")).Padding(0, 1)

	priorityStyles = map[list.Priority]lipgloss.Style{
		list.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
		list.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")),
		list.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")),
	}
)

// List рисует список: секции по порядку, элементы в порядке перетаскивания
// с номером позиции, который принимает команда move.
func List(l *list.List, now time.Time) string {
	var b strings.Builder

	header := titleStyle.Render(l.Name)
	if flags := flagsLine(l); flags != "" {
		header += " " + dimStyle.Render(flags)
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(l.ID.String()))
	b.WriteString("\n")

	for _, s := range l.Sections {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d)", s.Name, len(s.Items))))
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(s.ID.String()))
		b.WriteString("\n")

		if len(s.Items) == 0 {
			b.WriteString(dimStyle.Render("  пусто"))
			b.WriteString("\n")
			continue
		}
		for pos, it := range ordering.DragOrder(s.Items) {
			b.WriteString(Item(pos, it, l, now))
			b.WriteString("\n")
		}
	}

	if len(l.Tags) > 0 {
		b.WriteString("\n")
		b.WriteString(Tags(l.Tags))
		b.WriteString("\n")
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func flagsLine(l *list.List) string {
	var flags []string
	if l.HasDueDates {
		flags = append(flags, "сроки")
	}
	if l.HasTimeTracking {
		flags = append(flags, "учёт времени")
	}
	if len(flags) == 0 {
		return ""
	}
	return "[" + strings.Join(flags, ", ") + "]"
}

// Item одна строка элемента.
func Item(pos int, it list.Item, l *list.List, now time.Time) string {
	name := it.Name
	if it.IsCompleted() {
		name = doneStyle.Render(name)
	}

	parts := []string{
		fmt.Sprintf("%2d.", pos),
		statusMark(it.Status),
		name,
		priorityStyles[it.Priority].Render(string(it.Priority)),
	}

	if l.HasDueDates && it.DateDue != nil {
		due := "до " + it.DateDue.Format(dateLayout)
		if !it.IsCompleted() && it.DateDue.Before(now) {
			due = overdueStyle.Render(due)
		}
		parts = append(parts, due)
	}
	if l.HasTimeTracking && it.ExpectedMs != nil {
		parts = append(parts, dimStyle.Render("~"+(time.Duration(*it.ExpectedMs)*time.Millisecond).String()))
	}
	if len(it.Tags) > 0 {
		parts = append(parts, Tags(it.Tags))
	}
	if len(it.Assignees) > 0 {
		names := make([]string, len(it.Assignees))
		for i, a := range it.Assignees {
			names[i] = "@" + a.User.Username
		}
		parts = append(parts, dimStyle.Render(strings.Join(names, " ")))
	}
	parts = append(parts, dimStyle.Render(it.ID.String()))

	return "  " + strings.Join(parts, " ")
}

func statusMark(s list.Status) string {
	switch s {
	case list.StatusCompleted:
		return "[x]"
	case list.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func Tags(tags []list.Tag) string {
	rendered := make([]string, len(tags))
	for i, t := range tags {
		style := lipgloss.NewStyle()
		if c, ok := tagColors[t.Color]; ok {
			style = style.Foreground(c)
		}
		rendered[i] = style.Render("#" + t.Name)
	}
	return strings.Join(rendered, " ")
}

// Notification строка уведомления для вывода после команды.
func Notification(n notify.Notification) string {
	if n.IsError() {
		return errorStyle.Render("✗ " + n.Action + ": " + n.Message)
	}
	msg := n.Message
	if msg == "" {
		msg = n.Action
	}
	return successStyle.Render("✓ " + msg)
}
