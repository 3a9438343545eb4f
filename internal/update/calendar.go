package update

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/flow/internal/model"
	"github.com/sandeepkv93/flow/internal/projection"
	"github.com/sandeepkv93/flow/internal/views"
)

// agendaEntry is one task in the visible period, listed once even when it
// spans several days.
type agendaEntry struct {
	TaskID  string
	Day     time.Time
	Start   time.Time
	End     time.Time
	AllDay  bool
	Outside bool
	Status  model.Status
	Title   string
}

func (m Model) calendar() projection.Calendar {
	return projection.BuildCalendar(m.tasks(), m.Calendar.Anchor, m.Calendar.Mode, m.Calendar.Window, m.loc)
}

func agenda(cal projection.Calendar) []agendaEntry {
	seen := make(map[string]bool)
	var out []agendaEntry
	add := func(day time.Time, ev projection.Event, outside bool) {
		if seen[ev.TaskID] {
			return
		}
		seen[ev.TaskID] = true
		out = append(out, agendaEntry{
			TaskID:  ev.TaskID,
			Day:     day,
			Start:   ev.Start,
			End:     ev.End,
			AllDay:  ev.AllDay,
			Outside: outside,
			Status:  ev.Status,
			Title:   ev.Title,
		})
	}
	for _, day := range cal.Days {
		for _, ev := range day.AllDay {
			add(day.Date, ev, false)
		}
		for _, ev := range day.Timed {
			add(day.Date, ev, false)
		}
		for _, ev := range day.Outside {
			add(day.Date, ev, true)
		}
	}
	return out
}

func (m Model) handleCalendarKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "h", "left":
		m.shiftPeriod(-1)
	case "l", "right":
		m.shiftPeriod(1)
	case "t":
		m.Calendar.Anchor = m.now().In(m.loc)
		m.ensureSelection()
	case "w":
		m.setCalendarMode(projection.ModeWeek)
	case "D":
		m.setCalendarMode(projection.ModeDay)
	case "v":
		if m.Calendar.Mode == projection.ModeDay {
			m.setCalendarMode(projection.ModeWeek)
		} else {
			m.setCalendarMode(projection.ModeDay)
		}
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "H":
		m.moveSelectedSlot(-m.Calendar.Window.Step, false)
	case "L":
		m.moveSelectedSlot(m.Calendar.Window.Step, false)
	case "[":
		m.moveSelectedSlot(-24*time.Hour, true)
	case "]":
		m.moveSelectedSlot(24*time.Hour, true)
	case "J":
		m.resizeSelectedSlot(m.Calendar.Window.Step)
	case "K":
		m.resizeSelectedSlot(-m.Calendar.Window.Step)
	case "A":
		m.toggleAllDay()
	}
	return m
}

func (m *Model) shiftPeriod(dir int) {
	m.Calendar.Anchor = m.Calendar.Mode.Shift(m.Calendar.Anchor, dir)
	m.ensureSelection()
	m.Status = StatusBar{Text: fmt.Sprintf("calendar: %s", m.calendar().Title())}
}

func (m *Model) setCalendarMode(mode projection.Mode) {
	m.Calendar.Mode = mode
	m.ensureSelection()
	m.Status = StatusBar{Text: fmt.Sprintf("calendar mode: %s", mode)}
}

// moveSelectedSlot shifts the selected task's slot. A day move keeps the
// all-day flag; a slot move lands the task in the timed grid.
func (m *Model) moveSelectedSlot(delta time.Duration, keepAllDay bool) {
	task, ok := m.selectedTask()
	if !ok {
		return
	}
	start, end := projection.MoveSlot(task.Start, task.End, delta)
	allDay := false
	if keepAllDay {
		allDay = task.AllDay
	}
	if m.store.RescheduleTask(task.ID, start, end, &allDay) {
		m.Status = StatusBar{Text: fmt.Sprintf("moved to %s", formatSlot(start.In(m.loc), end.In(m.loc), allDay))}
	}
}

func (m *Model) resizeSelectedSlot(delta time.Duration) {
	task, ok := m.selectedTask()
	if !ok || task.AllDay {
		return
	}
	start, end := projection.ResizeSlot(task.Start, task.End, delta, m.Calendar.Window.Step)
	if m.store.RescheduleTask(task.ID, start, end, nil) {
		m.Status = StatusBar{Text: fmt.Sprintf("resized to %s", formatSlot(start.In(m.loc), end.In(m.loc), false))}
	}
}

func (m *Model) toggleAllDay() {
	task, ok := m.selectedTask()
	if !ok {
		return
	}
	day := startOfDay(task.Start.In(m.loc))
	allDay := !task.AllDay
	start, end := day, day.AddDate(0, 0, 1)
	if !allDay {
		start = projection.AtClock(day, m.Calendar.Window.Start)
		end = start.Add(model.DefaultSlotSize)
	}
	if m.store.RescheduleTask(task.ID, start, end, &allDay) {
		m.Status = StatusBar{Text: fmt.Sprintf("moved to %s", formatSlot(start, end, allDay))}
	}
}

func (m Model) renderCalendarView() string {
	cal := m.calendar()
	days := make([]views.CalendarDayData, 0, len(cal.Days))
	for _, day := range cal.Days {
		label := day.Date.Format("Mon 02")
		if cal.Mode == projection.ModeDay {
			label = day.Date.Format("Monday 2 Jan")
		}
		data := views.CalendarDayData{Label: label}
		for _, ev := range day.AllDay {
			data.AllDay = append(data.AllDay, calendarEventData(day.Date, ev))
		}
		for _, ev := range day.Timed {
			data.Timed = append(data.Timed, calendarEventData(day.Date, ev))
		}
		for _, ev := range day.Outside {
			data.Outside = append(data.Outside, calendarEventData(day.Date, ev))
		}
		days = append(days, data)
	}
	return views.RenderCalendarPanel(views.CalendarPanelData{
		Title:      cal.Title(),
		Mode:       string(cal.Mode),
		Slots:      cal.Window.Slots(),
		Step:       cal.Window.Step,
		Days:       days,
		SelectedID: m.SelectedTaskID,
		AgendaView: m.agendaTable.View(),
	})
}

func calendarEventData(day time.Time, ev projection.Event) views.CalendarEventData {
	return views.CalendarEventData{
		ID:            ev.TaskID,
		Title:         ev.Title,
		Done:          ev.Status == model.StatusDone,
		From:          projection.ClockOffset(day, ev.ShownStart),
		To:            projection.ClockOffset(day, ev.ShownEnd),
		When:          day.Format("Mon 02") + " " + formatSlot(ev.Start, ev.End, ev.AllDay),
		ClippedBefore: ev.ClippedBefore,
		ClippedAfter:  ev.ClippedAfter,
	}
}

func (m *Model) syncAgendaTable() {
	entries := agenda(m.calendar())
	rows := make([]table.Row, 0, len(entries))
	cursor := 0
	for i, entry := range entries {
		when := formatSlot(entry.Start, entry.End, entry.AllDay)
		if entry.Outside {
			when += " *"
		}
		rows = append(rows, table.Row{entry.Day.Format("Mon 02 Jan"), when, string(entry.Status), entry.Title})
		if entry.TaskID == m.SelectedTaskID {
			cursor = i
		}
	}
	m.agendaTable.SetRows(rows)
	if len(rows) > 0 {
		m.agendaTable.SetCursor(cursor)
	}
}

func formatSlot(start, end time.Time, allDay bool) string {
	if allDay {
		return "all-day"
	}
	return start.Format("15:04") + "-" + end.Format("15:04")
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
