package projection

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/flow/internal/model"
)

var ErrInvalidWindow = errors.New("projection: invalid calendar window")

type Mode string

const (
	ModeWeek Mode = "week"
	ModeDay  Mode = "day"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeWeek:
		return ModeWeek, nil
	case ModeDay:
		return ModeDay, nil
	default:
		return "", fmt.Errorf("projection: unknown calendar mode %q", raw)
	}
}

// Shift moves anchor by one period of the mode in direction dir (+1 or -1).
func (m Mode) Shift(anchor time.Time, dir int) time.Time {
	if m == ModeDay {
		return anchor.AddDate(0, 0, dir)
	}
	return anchor.AddDate(0, 0, 7*dir)
}

// Window is the visible time range of each calendar day, as offsets from
// local midnight.
type Window struct {
	Start time.Duration
	End   time.Duration
	Step  time.Duration
}

var DefaultWindow = Window{
	Start: 6 * time.Hour,
	End:   23*time.Hour + 59*time.Minute,
	Step:  30 * time.Minute,
}

func (w Window) Validate() error {
	if w.Start < 0 || w.End > 24*time.Hour || w.End <= w.Start {
		return fmt.Errorf("%w: %s-%s", ErrInvalidWindow, w.Start, w.End)
	}
	if w.Step <= 0 {
		return fmt.Errorf("%w: step %s", ErrInvalidWindow, w.Step)
	}
	return nil
}

// Slots lists the row offsets of the time grid.
func (w Window) Slots() []time.Duration {
	var out []time.Duration
	for at := w.Start; at < w.End; at += w.Step {
		out = append(out, at)
	}
	return out
}

type Event struct {
	TaskID string
	Title  string
	Status model.Status
	AllDay bool

	Start time.Time
	End   time.Time

	// ShownStart and ShownEnd are Start and End clipped to the day window.
	ShownStart    time.Time
	ShownEnd      time.Time
	ClippedBefore bool
	ClippedAfter  bool
}

type Day struct {
	Date    time.Time
	AllDay  []Event
	Timed   []Event
	Outside []Event
}

type Calendar struct {
	Mode   Mode
	Anchor time.Time
	Window Window
	Days   []Day
}

// OutsideCount is the number of event placements hidden from the grid.
func (c Calendar) OutsideCount() int {
	n := 0
	for _, d := range c.Days {
		n += len(d.Outside)
	}
	return n
}

func (c Calendar) Title() string {
	if len(c.Days) == 0 {
		return ""
	}
	first := c.Days[0].Date
	if c.Mode == ModeDay {
		return first.Format("Monday 2 Jan 2006")
	}
	last := c.Days[len(c.Days)-1].Date
	return fmt.Sprintf("%s - %s", first.Format("Mon 2 Jan"), last.Format("Mon 2 Jan 2006"))
}

// BuildCalendar projects tasks onto the days of the period containing anchor.
// Timed events overlapping the window are clipped to it. Timed events that
// touch a day but miss its window are listed in that day's Outside set.
// Subtasks carry no slot and are never shown.
func BuildCalendar(tasks []model.Task, anchor time.Time, mode Mode, window Window, loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	if window.Validate() != nil {
		window = DefaultWindow
	}
	first := startOfDay(anchor.In(loc))
	count := 1
	if mode != ModeDay {
		mode = ModeWeek
		first = StartOfWeek(first)
		count = 7
	}

	cal := Calendar{Mode: mode, Anchor: anchor, Window: window, Days: make([]Day, count)}
	for i := range cal.Days {
		cal.Days[i] = Day{Date: first.AddDate(0, 0, i)}
	}

	for _, task := range tasks {
		if task.Start.IsZero() {
			continue
		}
		start := task.Start.In(loc)
		end := task.End.In(loc)
		if end.Before(start) {
			end = start
		}
		for i := range cal.Days {
			placeEvent(&cal.Days[i], task, start, end, window)
		}
	}
	for i := range cal.Days {
		sortEvents(cal.Days[i].AllDay)
		sortEvents(cal.Days[i].Timed)
		sortEvents(cal.Days[i].Outside)
	}
	return cal
}

func placeEvent(day *Day, task model.Task, start, end time.Time, window Window) {
	dayStart := day.Date
	dayEnd := day.Date.AddDate(0, 0, 1)
	ev := Event{
		TaskID: task.ID,
		Title:  task.Title,
		Status: task.Status,
		AllDay: task.AllDay,
		Start:  start,
		End:    end,
	}

	if !touches(start, end, dayStart, dayEnd) {
		return
	}
	if task.AllDay {
		ev.ShownStart, ev.ShownEnd = dayStart, dayEnd
		day.AllDay = append(day.AllDay, ev)
		return
	}

	winStart := AtClock(dayStart, window.Start)
	winEnd := AtClock(dayStart, window.End)
	if !touches(start, end, winStart, winEnd) {
		ev.ShownStart, ev.ShownEnd = start, end
		day.Outside = append(day.Outside, ev)
		return
	}
	ev.ShownStart, ev.ShownEnd = start, end
	if start.Before(winStart) {
		ev.ShownStart = winStart
		ev.ClippedBefore = true
	}
	if end.After(winEnd) {
		ev.ShownEnd = winEnd
		ev.ClippedAfter = true
	}
	day.Timed = append(day.Timed, ev)
}

// touches reports whether [start, end) overlaps [from, to). A zero-length
// event counts when its instant lies inside the range.
func touches(start, end, from, to time.Time) bool {
	if end.Equal(start) {
		return !start.Before(from) && start.Before(to)
	}
	return start.Before(to) && end.After(from)
}

func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].ShownStart.Equal(events[j].ShownStart) {
			return events[i].ShownStart.Before(events[j].ShownStart)
		}
		return events[i].Title < events[j].Title
	})
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AtClock returns the wall-clock time offset after midnight of day, in day's
// location. Unlike day.Add it stays on the clock across DST changes.
func AtClock(day time.Time, offset time.Duration) time.Time {
	h := int(offset / time.Hour)
	m := int(offset % time.Hour / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

// ClockOffset is the inverse of AtClock for t on the same calendar day.
func ClockOffset(day, t time.Time) time.Duration {
	t = t.In(day.Location())
	if !startOfDay(t).Equal(startOfDay(day)) {
		return t.Sub(startOfDay(day))
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}

// StartOfWeek returns local midnight of the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MoveSlot shifts both bounds by delta, keeping the duration.
func MoveSlot(start, end time.Time, delta time.Duration) (time.Time, time.Time) {
	return start.Add(delta), end.Add(delta)
}

// ResizeSlot moves the end bound by delta but never below start+minimum.
func ResizeSlot(start, end time.Time, delta, minimum time.Duration) (time.Time, time.Time) {
	next := end.Add(delta)
	if floor := start.Add(minimum); next.Before(floor) {
		next = floor
	}
	return start, next
}
