package update

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/flow/internal/assistant"
)

// startAssistant reserves the selected task and runs the request off the UI
// goroutine. The result comes back as an AssistantResultMsg.
func (m Model) startAssistant(kind assistant.Kind) (Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	if kind == assistant.KindDecompose && !task.CanDecompose() {
		m.Status = StatusBar{Text: "only open tasks without steps can be decomposed"}
		return m, nil
	}
	if err := m.assistant.Begin(task.ID, kind); err != nil {
		switch {
		case errors.Is(err, assistant.ErrUnavailable):
			m.Status = StatusBar{Text: "assistant unavailable: set FLOW_ASSISTANT_API_KEY", IsError: true}
		case errors.Is(err, assistant.ErrBusy):
			m.Status = StatusBar{Text: "assistant is already working on this task", IsError: true}
		default:
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		}
		return m, nil
	}

	svc, id, title := m.assistant, task.ID, task.Title
	run := func() tea.Msg {
		ctx := context.Background()
		if kind == assistant.KindDecompose {
			steps, err := svc.Decompose(ctx, id, title)
			return AssistantResultMsg{TaskID: id, Kind: kind, Steps: steps, Err: err}
		}
		text, err := svc.Coach(ctx, kind, id, title)
		return AssistantResultMsg{TaskID: id, Kind: kind, Text: text, Err: err}
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s: %s", kind.Label(), title)}
	return m, tea.Batch(run, m.aiSpinner.Tick)
}

// applyAssistantResult lands a finished request by id. A task deleted while
// the request was in flight drops the result.
func (m Model) applyAssistantResult(msg AssistantResultMsg) Model {
	m.assistant.Finish(msg.TaskID)
	if msg.Err != nil {
		m.LastError = msg.Err
		text := fmt.Sprintf("%s failed: %v", msg.Kind.Label(), msg.Err)
		m.Status = StatusBar{Text: text, IsError: true}
		m.notify("Assistant", text, "error")
		return m
	}
	if !m.store.Exists(msg.TaskID) {
		m.logger.Info("assistant result discarded; task deleted",
			zap.String("task_id", msg.TaskID), zap.String("kind", string(msg.Kind)))
		return m
	}

	switch msg.Kind {
	case assistant.KindDecompose:
		if m.store.ReplaceSubtasks(msg.TaskID, msg.Steps) {
			m.Status = StatusBar{Text: fmt.Sprintf("added %d steps", len(msg.Steps))}
		}
	default:
		if m.store.AppendNotes(msg.TaskID, msg.Kind.NoteHeader(), msg.Text) {
			m.Status = StatusBar{Text: fmt.Sprintf("%s added to notes", msg.Kind.NoteHeader())}
		}
	}
	return m
}
