package update

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/flow/internal/assistant"
	"github.com/sandeepkv93/flow/internal/commands"
	"github.com/sandeepkv93/flow/internal/model"
	"github.com/sandeepkv93/flow/internal/projection"
)

var errNoSelection = &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no task selected"}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var follow tea.Cmd
	selected := func() (model.Task, error) {
		task, ok := m.selectedTask()
		if !ok {
			return model.Task{}, errNoSelection
		}
		return task, nil
	}
	ask := func(kind assistant.Kind) (commands.Result, error) {
		if _, err := selected(); err != nil {
			return commands.Result{}, err
		}
		m, follow = m.startAssistant(kind)
		return commands.Result{Message: m.Status.Text}, statusError(m.Status)
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			task, ok := m.store.AddTask(a.Title)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "title is blank"}
			}
			m.SelectedTaskID = task.ID
			if m.CurrentView == ViewBoard {
				m.Board.Column = projection.ColumnIndex(task.Status)
			}
			return commands.Result{Message: fmt.Sprintf("added: %s", task.Title)}, nil
		},
		Move: func(a commands.MoveArgs) (commands.Result, error) {
			task, err := selected()
			if err != nil {
				return commands.Result{}, err
			}
			if !m.store.MoveStatus(task.ID, a.Status) {
				return commands.Result{Message: fmt.Sprintf("already %s", a.Status)}, nil
			}
			m.followStatus(a.Status)
			return commands.Result{Message: fmt.Sprintf("moved to %s", a.Status)}, nil
		},
		Toggle: func() (commands.Result, error) {
			task, err := selected()
			if err != nil {
				return commands.Result{}, err
			}
			next, _ := m.store.ToggleStatus(task.ID)
			m.followStatus(next)
			return commands.Result{Message: fmt.Sprintf("status: %s", next)}, nil
		},
		Reschedule: func(a commands.RescheduleArgs) (commands.Result, error) {
			task, err := selected()
			if err != nil {
				return commands.Result{}, err
			}
			start, end, allDay, err := m.resolveSlot(task, a)
			if err != nil {
				return commands.Result{}, err
			}
			m.store.RescheduleTask(task.ID, start, end, &allDay)
			return commands.Result{Message: fmt.Sprintf("rescheduled to %s %s", start.Format("Mon 2 Jan"), formatSlot(start, end, allDay))}, nil
		},
		Tag: func(a commands.TagArgs) (commands.Result, error) {
			task, err := selected()
			if err != nil {
				return commands.Result{}, err
			}
			if a.Remove {
				if !m.store.RemoveTag(task.ID, a.Tag) {
					return commands.Result{Message: fmt.Sprintf("no tag %s", a.Tag)}, nil
				}
				return commands.Result{Message: fmt.Sprintf("removed tag %s", a.Tag)}, nil
			}
			if !m.store.AddTag(task.ID, a.Tag) {
				return commands.Result{Message: fmt.Sprintf("already tagged %s", a.Tag)}, nil
			}
			return commands.Result{Message: fmt.Sprintf("tagged %s", a.Tag)}, nil
		},
		Note: func(a commands.NoteArgs) (commands.Result, error) {
			task, err := selected()
			if err != nil {
				return commands.Result{}, err
			}
			if a.Append {
				m.store.AppendNotes(task.ID, "Note", a.Text)
				return commands.Result{Message: "note appended"}, nil
			}
			m.store.UpdateNotes(task.ID, a.Text)
			if a.Text == "" {
				return commands.Result{Message: "notes cleared"}, nil
			}
			return commands.Result{Message: "notes replaced"}, nil
		},
		Delete: func() (commands.Result, error) {
			if _, err := selected(); err != nil {
				return commands.Result{}, err
			}
			m.askDelete()
			return commands.Result{Message: "confirm deletion"}, nil
		},
		Decompose:  func() (commands.Result, error) { return ask(assistant.KindDecompose) },
		Brainstorm: func() (commands.Result, error) { return ask(assistant.KindBrainstorm) },
		Unstuck:    func() (commands.Result, error) { return ask(assistant.KindUnstuck) },
		View: func(a commands.ViewArgs) (commands.Result, error) {
			switch a.Name {
			case "board":
				m.switchView(ViewBoard)
			case "calendar":
				if a.Mode != "" {
					m.Calendar.Mode = projection.Mode(a.Mode)
				}
				m.switchView(ViewCalendar)
			default:
				m.switchView(ViewList)
			}
			return commands.Result{Message: fmt.Sprintf("view: %s", m.CurrentView)}, nil
		},
		Focus: func() (commands.Result, error) {
			m, follow = m.toggleFocus()
			return commands.Result{Message: m.Status.Text}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command failed", err.Error(), "error")
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, follow
}

// resolveSlot turns reschedule arguments into new bounds. Without a clock
// time the task keeps its time of day; without a duration it keeps its
// length.
func (m Model) resolveSlot(task model.Task, a commands.RescheduleArgs) (time.Time, time.Time, bool, error) {
	day, hasClock, err := commands.ResolveWhen(a.When, m.now().In(m.loc))
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if a.AllDay {
		day = startOfDay(day)
		return day, day.AddDate(0, 0, 1), true, nil
	}
	start := day
	if !hasClock {
		prev := task.Start.In(m.loc)
		start = projection.AtClock(day, projection.ClockOffset(startOfDay(prev), prev))
	}
	length := a.For
	if length <= 0 {
		length = task.End.Sub(task.Start)
	}
	if length <= 0 || task.AllDay {
		length = model.DefaultSlotSize
	}
	return start, start.Add(length), false, nil
}

func statusError(s StatusBar) error {
	if !s.IsError {
		return nil
	}
	return errors.New(s.Text)
}
