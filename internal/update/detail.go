package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/flow/internal/assistant"
	"github.com/sandeepkv93/flow/internal/model"
	"github.com/sandeepkv93/flow/internal/views"
)

func (m Model) handleDetailKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	task, ok := m.store.Task(m.Detail.TaskID)
	if !ok {
		m.Detail = DetailState{}
		return m, nil
	}
	// Task actions below act on the selection; pin it to the open task.
	m.SelectedTaskID = task.ID
	switch msg.String() {
	case "esc", "enter":
		m.Detail = DetailState{}
	case "e":
		m.Detail.Editing = true
		m.notesArea.SetValue(task.Notes)
		cmd := m.notesArea.Focus()
		return m, cmd
	case "up", "k":
		if m.Detail.SubCursor > 0 {
			m.Detail.SubCursor--
		}
	case "down", "j":
		if m.Detail.SubCursor < len(task.Subtasks)-1 {
			m.Detail.SubCursor++
		}
	case " ":
		if m.Detail.SubCursor < len(task.Subtasks) {
			m.store.ToggleSubtask(task.ID, task.Subtasks[m.Detail.SubCursor].ID)
		}
	case "s":
		m.toggleSelected()
	case "m":
		m.moveSelected(nextStatus(task.Status))
	case "x":
		m.askDelete()
	case "d":
		return m.startAssistant(assistant.KindDecompose)
	case "b":
		return m.startAssistant(assistant.KindBrainstorm)
	case "u":
		return m.startAssistant(assistant.KindUnstuck)
	}
	return m, nil
}

// handleNotesKey edits the open task's notes. Changes reach the store only
// on ctrl+s.
func (m Model) handleNotesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Detail.Editing = false
		m.notesArea.Blur()
		m.Status = StatusBar{Text: "edit cancelled"}
		return m, nil
	case "ctrl+s":
		m.Detail.Editing = false
		m.notesArea.Blur()
		if m.store.UpdateNotes(m.Detail.TaskID, m.notesArea.Value()) {
			m.Status = StatusBar{Text: "notes saved"}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.notesArea, cmd = m.notesArea.Update(msg)
	return m, cmd
}

func (m Model) renderDetailView() string {
	task, ok := m.store.Task(m.Detail.TaskID)
	if !ok {
		return views.RenderDetailPanel(views.DetailPanelData{})
	}
	pending := ""
	if kind, busy := m.assistant.Tracker().Pending(task.ID); busy {
		pending = kind.Label()
	}
	return views.RenderDetailPanel(views.DetailPanelData{
		ID:           task.ID,
		Title:        task.Title,
		Status:       string(task.Status),
		Tags:         task.Tags,
		Created:      task.Created.In(m.loc).Format("Mon 2 Jan 2006 15:04"),
		Slot:         task.Start.In(m.loc).Format("Mon 2 Jan ") + formatSlot(task.Start.In(m.loc), task.End.In(m.loc), task.AllDay),
		TimeSpent:    task.TimeSpent,
		Subtasks:     taskRows(task.Subtasks, m.assistant.Tracker()),
		SubCursor:    m.Detail.SubCursor,
		Editing:      m.Detail.Editing,
		NotesEditor:  m.notesArea.View(),
		NotesView:    m.notesViewport.View(),
		Pending:      pending,
		CanDecompose: task.CanDecompose(),
	})
}

func (m *Model) syncNotesViewport() {
	if m.Detail.TaskID == "" || m.Detail.Editing {
		return
	}
	task, ok := m.store.Task(m.Detail.TaskID)
	if !ok {
		return
	}
	m.notesViewport.SetContent(views.RenderMarkdown(task.Notes, m.cfg.NotesWidth))
}

func taskRows(tasks []model.Task, tracker *assistant.Tracker) []views.TaskRowData {
	rows := make([]views.TaskRowData, 0, len(tasks))
	for _, task := range tasks {
		row := views.TaskRowData{
			ID:           task.ID,
			Title:        task.Title,
			Status:       string(task.Status),
			Tags:         task.Tags,
			StepsTotal:   len(task.Subtasks),
			TimeSpent:    task.TimeSpent,
			CanDecompose: task.CanDecompose(),
		}
		for _, sub := range task.Subtasks {
			if sub.IsDone() {
				row.StepsDone++
			}
		}
		if kind, busy := tracker.Pending(task.ID); busy {
			row.Pending = kind.Label()
		}
		rows = append(rows, row)
	}
	return rows
}
