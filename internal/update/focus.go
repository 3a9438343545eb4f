package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/flow/internal/views"
)

// toggleFocus starts or pauses the timer. A fresh session is credited to
// the task selected when it starts.
func (m Model) toggleFocus() (Model, tea.Cmd) {
	if m.Focus.Running() {
		m.Focus.Pause()
		m.Status = StatusBar{Text: "focus paused"}
		return m, nil
	}
	if m.Focus.RemainingSeconds() <= 0 || m.Focus.Progress() == 0 {
		m.Focus.Attach(m.SelectedTaskID)
	}
	m.Focus.Start()
	m.focusGen++
	m.Status = StatusBar{Text: "focus running"}
	return m, focusTickCmd(m.focusGen)
}

func (m Model) onFocusTick(msg FocusTickMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.focusGen || !m.Focus.Running() {
		return m, nil
	}
	done, ok := m.Focus.Tick()
	if !ok {
		return m, focusTickCmd(m.focusGen)
	}
	m.store.AddFocusMinutes(done.Minutes, done.TaskID)
	m.logger.Info("focus session completed", zap.Int("minutes", done.Minutes), zap.String("task_id", done.TaskID))
	text := fmt.Sprintf("focus session complete: +%dm", done.Minutes)
	if task, found := m.store.Task(done.TaskID); found {
		text += " on " + task.Title
	}
	m.Status = StatusBar{Text: text}
	m.notify("Focus", text, "info")
	return m, nil
}

func (m Model) renderFocusBar() string {
	title := ""
	if task, ok := m.store.Task(m.Focus.TaskID()); ok {
		title = task.Title
	}
	return views.RenderFocusBar(views.FocusBarData{
		Running:      m.Focus.Running(),
		Clock:        m.Focus.Clock(),
		ProgressView: m.focusProgress.ViewAs(m.Focus.Progress()),
		TaskTitle:    title,
		TotalMinutes: m.store.TotalFocusMinutes(),
	})
}

func focusTickCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return FocusTickMsg{Gen: gen} })
}
