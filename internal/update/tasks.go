package update

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/flow/internal/assistant"
	"github.com/sandeepkv93/flow/internal/model"
	"github.com/sandeepkv93/flow/internal/projection"
)

// handleTaskKey covers the actions shared by every view. It reports false
// when the key is not one of them.
func (m Model) handleTaskKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "a":
		m.QuickAdd.Active = true
		m.quickAddInput.SetValue("")
		m.quickAddInput.Focus()
		return m, textinput.Blink, true
	case "enter":
		if _, ok := m.selectedTask(); ok {
			m.Detail = DetailState{TaskID: m.SelectedTaskID}
		}
		return m, nil, true
	case " ":
		m.toggleSelected()
		return m, nil, true
	case "m":
		if task, ok := m.selectedTask(); ok {
			m.moveSelected(nextStatus(task.Status))
		}
		return m, nil, true
	case "x":
		m.askDelete()
		return m, nil, true
	case "d":
		next, cmd := m.startAssistant(assistant.KindDecompose)
		return next, cmd, true
	case "b":
		next, cmd := m.startAssistant(assistant.KindBrainstorm)
		return next, cmd, true
	case "u":
		next, cmd := m.startAssistant(assistant.KindUnstuck)
		return next, cmd, true
	}
	return m, nil, false
}

func (m Model) handleListKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "g", "home":
		m.moveSelection(-len(m.visibleOrder()))
	case "G", "end":
		m.moveSelection(len(m.visibleOrder()))
	}
	return m
}

func (m Model) handleBoardKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "left", "h":
		if m.Board.Column > 0 {
			m.Board.Column--
			m.ensureSelection()
		}
	case "right", "l":
		if m.Board.Column < len(model.Statuses)-1 {
			m.Board.Column++
			m.ensureSelection()
		}
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "<", "H":
		if m.Board.Column > 0 {
			m.moveSelected(model.Statuses[m.Board.Column-1])
		}
	case ">", "L":
		if m.Board.Column < len(model.Statuses)-1 {
			m.moveSelected(model.Statuses[m.Board.Column+1])
		}
	}
	return m
}

func (m Model) handleQuickAddKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeQuickAdd()
		return m, nil
	case "enter":
		title := m.quickAddInput.Value()
		m.closeQuickAdd()
		task, ok := m.store.AddTask(title)
		if !ok {
			return m, nil
		}
		if m.CurrentView == ViewBoard {
			m.Board.Column = projection.ColumnIndex(task.Status)
		}
		m.SelectedTaskID = task.ID
		m.Status = StatusBar{Text: fmt.Sprintf("added: %s", task.Title)}
		return m, nil
	}
	var cmd tea.Cmd
	m.quickAddInput, cmd = m.quickAddInput.Update(msg)
	return m, cmd
}

func (m *Model) closeQuickAdd() {
	m.QuickAdd.Active = false
	m.quickAddInput.SetValue("")
	m.quickAddInput.Blur()
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "y", "Y", "enter":
		id, title := m.Confirm.TaskID, m.Confirm.Title
		m.Confirm = ConfirmState{}
		order := m.visibleOrder()
		idx := slices.Index(order, id)
		if !m.store.DeleteTask(id, true) {
			return m
		}
		if m.Detail.TaskID == id {
			m.Detail = DetailState{}
			m.notesArea.Blur()
		}
		if m.SelectedTaskID == id {
			m.SelectedTaskID = ""
			if order = m.visibleOrder(); len(order) > 0 {
				m.SelectedTaskID = order[min(max(idx, 0), len(order)-1)]
			}
		}
		m.Status = StatusBar{Text: fmt.Sprintf("deleted: %s", title)}
	case "n", "N", "esc":
		m.Confirm = ConfirmState{}
		m.Status = StatusBar{Text: "delete cancelled"}
	}
	return m
}

func (m *Model) askDelete() {
	task, ok := m.selectedTask()
	if !ok {
		return
	}
	m.Confirm = ConfirmState{Active: true, TaskID: task.ID, Title: task.Title}
}

func (m *Model) toggleSelected() {
	next, ok := m.store.ToggleStatus(m.SelectedTaskID)
	if !ok {
		return
	}
	m.followStatus(next)
	m.Status = StatusBar{Text: fmt.Sprintf("status: %s", next)}
}

func (m *Model) moveSelected(status model.Status) {
	if !m.store.MoveStatus(m.SelectedTaskID, status) {
		return
	}
	m.followStatus(status)
	m.Status = StatusBar{Text: fmt.Sprintf("moved to %s", status)}
}

// followStatus keeps the board cursor on a task that changed column.
func (m *Model) followStatus(status model.Status) {
	if m.CurrentView == ViewBoard {
		if col := projection.ColumnIndex(status); col >= 0 {
			m.Board.Column = col
		}
	}
}

// visibleOrder lists the task ids the cursor walks in the current view.
func (m Model) visibleOrder() []string {
	var ids []string
	switch m.CurrentView {
	case ViewBoard:
		cols := projection.Board(m.tasks())
		col := min(max(m.Board.Column, 0), len(cols)-1)
		for _, task := range cols[col].Tasks {
			ids = append(ids, task.ID)
		}
	case ViewCalendar:
		for _, entry := range agenda(m.calendar()) {
			ids = append(ids, entry.TaskID)
		}
	default:
		for _, task := range projection.List(m.tasks()) {
			ids = append(ids, task.ID)
		}
	}
	return ids
}

func (m *Model) ensureSelection() {
	order := m.visibleOrder()
	if slices.Contains(order, m.SelectedTaskID) {
		return
	}
	m.SelectedTaskID = ""
	if len(order) > 0 {
		m.SelectedTaskID = order[0]
	}
}

func (m *Model) moveSelection(delta int) {
	order := m.visibleOrder()
	if len(order) == 0 {
		m.SelectedTaskID = ""
		return
	}
	idx := slices.Index(order, m.SelectedTaskID)
	if idx < 0 {
		m.SelectedTaskID = order[0]
		return
	}
	m.SelectedTaskID = order[min(max(idx+delta, 0), len(order)-1)]
}

func nextStatus(s model.Status) model.Status {
	idx := projection.ColumnIndex(s)
	return model.Statuses[(idx+1)%len(model.Statuses)]
}
