// Package ui holds the terminal styles of taskctl.
package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/BuzzLyutic/taskdesk/internal/model"
)

const (
	IconDone  = "✅"
	IconInfo  = "ℹ️"
	IconWarn  = "⚠️"
	IconError = "🧨"
	IconLock  = "🔒"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

func StatusText(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return Good.Render("completed")
	case model.StatusInProgress:
		return H2.Render("in progress")
	case model.StatusPending:
		return Warn.Render("pending")
	default:
		return Muted.Render(string(s))
	}
}

// PriorityText renders a priority as filled and empty pips, 5 being the
// most urgent.
func PriorityText(p int) string {
	if p < model.MinPriority || p > model.MaxPriority {
		return Muted.Render(strconv.Itoa(p))
	}
	pips := strings.Repeat("●", p) + strings.Repeat("○", model.MaxPriority-p)
	if p >= 4 {
		return Bad.Render(pips)
	}
	return Key.Render(pips)
}

// TaskTable renders tasks in the given order.
func TaskTable(tasks []model.Task) string {
	if len(tasks) == 0 {
		return Muted.Render("No tasks.")
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Muted).
		Headers("ID", "TITLE", "PRIORITY", "STATUS", "DESCRIPTION").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return H2.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, task := range tasks {
		t.Row(
			strconv.FormatInt(task.ID, 10),
			task.Title,
			PriorityText(task.Priority),
			StatusText(task.Status),
			truncate(task.Description, 48),
		)
	}
	return t.String()
}

func StatsPanel(st model.Stats) string {
	lines := []string{
		LabelValue("Total", st.Total),
		LabelValue("Completed", Good.Render(strconv.Itoa(st.Completed))),
		LabelValue("In progress", st.InProgress),
		LabelValue("Pending", Warn.Render(strconv.Itoa(st.Pending))),
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
