package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type TaskRowData struct {
	ID           string
	Title        string
	Status       string
	Tags         []string
	StepsDone    int
	StepsTotal   int
	TimeSpent    int
	CanDecompose bool
	Pending      string
}

type ListPanelData struct {
	QuickAddView   string
	QuickAddActive bool
	Rows           []TaskRowData
	SelectedID     string
}

type BoardColumnData struct {
	Title string
	Rows  []TaskRowData
}

type BoardPanelData struct {
	Columns    []BoardColumnData
	SelectedID string
}

type CalendarEventData struct {
	ID            string
	Title         string
	Done          bool
	From          time.Duration
	To            time.Duration
	When          string
	ClippedBefore bool
	ClippedAfter  bool
}

type CalendarDayData struct {
	Label   string
	AllDay  []CalendarEventData
	Timed   []CalendarEventData
	Outside []CalendarEventData
}

type CalendarPanelData struct {
	Title      string
	Mode       string
	Slots      []time.Duration
	Step       time.Duration
	Days       []CalendarDayData
	SelectedID string
	AgendaView string
}

type DetailPanelData struct {
	ID           string
	Title        string
	Status       string
	Tags         []string
	Created      string
	Slot         string
	TimeSpent    int
	Subtasks     []TaskRowData
	SubCursor    int
	Editing      bool
	NotesEditor  string
	NotesView    string
	Pending      string
	CanDecompose bool
}

type FocusBarData struct {
	Running      bool
	Clock        string
	ProgressView string
	TaskTitle    string
	TotalMinutes int
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

var (
	columnStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1).Width(21)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	allDayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

func RenderListPanel(data ListPanelData) string {
	var b strings.Builder
	b.WriteString("list:\n")
	if data.QuickAddActive {
		b.WriteString(data.QuickAddView + "\n")
	} else {
		b.WriteString(mutedStyle.Render("[a]dd [enter]open [space]done [m]move [d]ecompose [x]delete") + "\n")
	}
	if len(data.Rows) == 0 {
		b.WriteString(mutedStyle.Render("(no tasks yet)"))
		return b.String()
	}
	for _, row := range data.Rows {
		b.WriteString(renderTaskRow(row, data.SelectedID == row.ID, 64) + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderBoardPanel(data BoardPanelData) string {
	cols := make([]string, 0, len(data.Columns))
	for _, col := range data.Columns {
		var b strings.Builder
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", col.Title, len(col.Rows))) + "\n")
		if len(col.Rows) == 0 {
			b.WriteString(mutedStyle.Render("empty"))
		}
		for _, row := range col.Rows {
			line := runewidth.Truncate(row.Title, 17, "…")
			if row.StepsTotal > 0 {
				line = runewidth.Truncate(row.Title, 12, "…") + fmt.Sprintf(" %d/%d", row.StepsDone, row.StepsTotal)
			} else if row.CanDecompose {
				line = runewidth.Truncate(row.Title, 15, "…") + " ✦"
			}
			if row.Pending != "" {
				line = "… " + line
			}
			if row.ID == data.SelectedID {
				line = selectedStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
		cols = append(cols, columnStyle.Render(strings.TrimSuffix(b.String(), "\n")))
	}
	return "board:\n" + lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// RenderCalendarPanel draws a slot grid for the visible window. Each cell
// shows the first timed event covering that slot: its title where it begins,
// a bar where it continues.
func RenderCalendarPanel(data CalendarPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("calendar (%s): %s\n", data.Mode, data.Title))
	b.WriteString(mutedStyle.Render("[h/l]period [w/D]week/day [j/k]event [H/L]move [J/K]resize [t]today") + "\n")

	cellW := 9
	if len(data.Days) == 1 {
		cellW = 56
	}
	b.WriteString(strings.Repeat(" ", 8))
	for _, day := range data.Days {
		b.WriteString(runewidth.FillRight(runewidth.Truncate(day.Label, cellW-1, ""), cellW))
	}
	b.WriteString("\n")

	b.WriteString(allDayStyle.Render(runewidth.FillRight("all-day", 8)))
	for _, day := range data.Days {
		cell := ""
		if len(day.AllDay) > 0 {
			cell = day.AllDay[0].Title
			if len(day.AllDay) > 1 {
				cell = fmt.Sprintf("+%d %s", len(day.AllDay)-1, cell)
			}
		}
		b.WriteString(renderCell(cell, cellW, containsID(day.AllDay, data.SelectedID), false))
	}
	b.WriteString("\n")

	for _, slot := range data.Slots {
		b.WriteString(runewidth.FillRight(clockLabel(slot), 8))
		for _, day := range data.Days {
			ev, ok := eventAt(day.Timed, slot, data.Step)
			if !ok {
				b.WriteString(renderCell("·", cellW, false, false))
				continue
			}
			cell := "│"
			if ev.From >= slot || (ev.ClippedBefore && slot == data.Slots[0]) {
				cell = ev.Title
				if ev.ClippedBefore {
					cell = "↑" + cell
				}
			}
			b.WriteString(renderCell(cell, cellW, ev.ID == data.SelectedID, ev.Done))
		}
		b.WriteString("\n")
	}

	var outside []CalendarEventData
	for _, day := range data.Days {
		outside = append(outside, day.Outside...)
	}
	if len(outside) > 0 {
		b.WriteString(fmt.Sprintf("\noutside visible hours (%d):\n", len(outside)))
		for _, ev := range outside {
			cursor := " "
			if ev.ID == data.SelectedID {
				cursor = ">"
			}
			b.WriteString(fmt.Sprintf("%s %s %s\n", cursor, ev.When, ev.Title))
		}
	}
	if data.AgendaView != "" {
		b.WriteString("\n" + data.AgendaView)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderDetailPanel(data DetailPanelData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "detail:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Title) + "\n")
	b.WriteString(fmt.Sprintf("status: %s\n", data.Status))
	b.WriteString(fmt.Sprintf("tags: %s\n", strings.Join(data.Tags, ", ")))
	b.WriteString(fmt.Sprintf("created: %s\n", data.Created))
	b.WriteString(fmt.Sprintf("slot: %s\n", data.Slot))
	b.WriteString(fmt.Sprintf("time spent: %dm\n", data.TimeSpent))
	if data.Pending != "" {
		b.WriteString(fmt.Sprintf("assistant: %s…\n", data.Pending))
	}

	b.WriteString("\nsubtasks:\n")
	switch {
	case len(data.Subtasks) > 0:
		for i, sub := range data.Subtasks {
			b.WriteString(renderTaskRow(sub, i == data.SubCursor && !data.Editing, 46) + "\n")
		}
	case data.CanDecompose:
		b.WriteString(mutedStyle.Render("  none, press d to decompose") + "\n")
	default:
		b.WriteString(mutedStyle.Render("  none") + "\n")
	}

	b.WriteString("\nnotes:\n")
	if data.Editing {
		b.WriteString(data.NotesEditor + "\n")
		b.WriteString(mutedStyle.Render("[ctrl+s]save [esc]cancel"))
		return b.String()
	}
	if strings.TrimSpace(data.NotesView) == "" {
		b.WriteString(mutedStyle.Render("_No notes_") + "\n")
	} else {
		b.WriteString(data.NotesView + "\n")
	}
	b.WriteString(mutedStyle.Render("[e]dit notes [b]rainstorm [u]nstuck [j/k]step [space]toggle step [esc]close"))
	return b.String()
}

func RenderFocusBar(data FocusBarData) string {
	state := "paused"
	if data.Running {
		state = "running"
	}
	task := "no task"
	if data.TaskTitle != "" {
		task = runewidth.Truncate(data.TaskTitle, 28, "…")
	}
	return fmt.Sprintf("focus %s [%s] %s | %s | total %dm", data.Clock, state, data.ProgressView, task, data.TotalMinutes)
}

func RenderConfirmDialog(title string) string {
	return fmt.Sprintf("Delete %q?\n[y]es / [n]o", title)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help (%s view):\n%s\n\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func renderTaskRow(row TaskRowData, selected bool, width int) string {
	cursor := " "
	if selected {
		cursor = cursorStyle.Render(">")
	}
	var extras []string
	if len(row.Tags) > 0 {
		extras = append(extras, "#"+strings.Join(row.Tags, " #"))
	}
	if row.StepsTotal > 0 {
		extras = append(extras, fmt.Sprintf("%d/%d steps", row.StepsDone, row.StepsTotal))
	}
	if row.TimeSpent > 0 {
		extras = append(extras, fmt.Sprintf("%dm", row.TimeSpent))
	}
	if row.Pending != "" {
		extras = append(extras, row.Pending+"…")
	}
	meta := strings.Join(extras, " · ")

	budget := width - 6
	if meta != "" {
		budget -= runewidth.StringWidth(meta) + 1
	}
	title := runewidth.Truncate(row.Title, max(budget, 8), "…")
	if row.Status == "DONE" {
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s %s %s", cursor, statusBadge(row.Status), title)
	if meta != "" {
		line += " " + mutedStyle.Render(meta)
	}
	return line
}

func statusBadge(status string) string {
	switch status {
	case "DONE":
		return "[x]"
	case "IN_PROGRESS":
		return "[~]"
	default:
		return "[ ]"
	}
}

func renderCell(text string, width int, selected, done bool) string {
	text = runewidth.FillRight(runewidth.Truncate(text, width-1, "…"), width-1)
	switch {
	case selected:
		text = selectedStyle.Render(text)
	case done:
		text = doneStyle.Render(text)
	}
	return text + " "
}

func eventAt(events []CalendarEventData, slot, step time.Duration) (CalendarEventData, bool) {
	slotEnd := slot + step
	for _, ev := range events {
		if ev.From == ev.To {
			if ev.From >= slot && ev.From < slotEnd {
				return ev, true
			}
			continue
		}
		if ev.From < slotEnd && ev.To > slot {
			return ev, true
		}
	}
	return CalendarEventData{}, false
}

func containsID(events []CalendarEventData, id string) bool {
	for _, ev := range events {
		if ev.ID == id {
			return true
		}
	}
	return false
}

func clockLabel(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
