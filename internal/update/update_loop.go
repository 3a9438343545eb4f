package update

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/flow/internal/projection"
	"github.com/sandeepkv93/flow/internal/storage"
	"github.com/sandeepkv93/flow/internal/store"
	"github.com/sandeepkv93/flow/internal/views"
)

type emptyLoader struct{}

func (emptyLoader) Load(context.Context) (*storage.Snapshot, error) { return nil, nil }

func (m Model) Init() tea.Cmd {
	return tea.Batch(loadCmd(m.store, m.loader), waitForSaveErrorCmd(m.saveErrs))
}

func loadCmd(s *store.Store, loader store.Loader) tea.Cmd {
	if loader == nil {
		loader = emptyLoader{}
	}
	return func() tea.Msg {
		err := s.Load(context.Background(), loader)
		if errors.Is(err, store.ErrAlreadyLoaded) {
			err = nil
		}
		return LoadedMsg{Err: err}
	}
}

func waitForSaveErrorCmd(ch <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return SaveFailedMsg{Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.assistant.Tracker().Len() > 0 {
			var cmd tea.Cmd
			m.aiSpinner, cmd = m.aiSpinner.Update(typed)
			return m, cmd
		}
		return m, nil
	case LoadedMsg:
		m.Loaded = true
		if typed.Err != nil {
			// A broken data file starts the app empty; the next save replaces it.
			m.logger.Warn("starting with empty task list", zap.Error(typed.Err))
		}
		m.ensureSelection()
		return m, nil
	case SaveFailedMsg:
		m.LastError = typed.Err
		m.Status = StatusBar{Text: fmt.Sprintf("save failed: %v", typed.Err), IsError: true}
		m.notify("Save failed", typed.Err.Error(), "error")
		return m, waitForSaveErrorCmd(m.saveErrs)
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.switchView(typed.View)
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	case FocusTickMsg:
		return m.onFocusTick(typed)
	case AssistantResultMsg:
		return m.applyAssistantResult(typed), nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}
	switch {
	case m.Confirm.Active:
		return m.handleConfirmKey(msg), nil
	case m.Palette.Active:
		next, cmd := m.handlePaletteKey(msg)
		return next, cmd
	case m.QuickAdd.Active:
		next, cmd := m.handleQuickAddKey(msg)
		return next, cmd
	case m.Detail.Editing:
		next, cmd := m.handleNotesKey(msg)
		return next, cmd
	}

	switch keyStr {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.List:
		m.switchView(ViewList)
		return m, nil
	case m.Keys.Board:
		m.switchView(ViewBoard)
		return m, nil
	case m.Keys.Calendar:
		m.switchView(ViewCalendar)
		return m, nil
	case m.Keys.Focus:
		next, cmd := m.toggleFocus()
		return next, cmd
	case "F":
		m.Focus.Reset()
		m.Status = StatusBar{Text: "focus reset"}
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}

	if m.Detail.TaskID != "" {
		next, cmd := m.handleDetailKey(msg)
		return next, cmd
	}
	if next, cmd, ok := m.handleTaskKey(msg); ok {
		return next, cmd
	}
	switch m.CurrentView {
	case ViewBoard:
		return m.handleBoardKey(msg), nil
	case ViewCalendar:
		return m.handleCalendarKey(msg), nil
	default:
		return m.handleListKey(msg), nil
	}
}

func (m Model) View() string {
	m.syncBubbleData()

	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	var leftPane string
	switch m.CurrentView {
	case ViewBoard:
		leftPane = m.renderBoardView()
	case ViewCalendar:
		leftPane = m.renderCalendarView()
	default:
		leftPane = m.renderListView()
	}
	rightPane := ""
	if m.Detail.TaskID != "" {
		rightPane = m.renderDetailView()
	}
	if m.HelpVisible {
		rightPane = strings.TrimSpace(rightPane + "\n\n" + m.renderHelpView())
	}

	overlay := ""
	switch {
	case m.Confirm.Active:
		overlay = views.RenderConfirmDialog(m.Confirm.Title)
	case m.Palette.Active:
		overlay = m.renderCommandPalette()
	}

	header := fmt.Sprintf("flow | view: %s | tasks: %d", m.CurrentView, len(m.tasks()))
	if task, ok := m.selectedTask(); ok {
		header += fmt.Sprintf(" | selected: %s", task.Title)
	}
	if n := m.assistant.Tracker().Len(); n > 0 {
		header += fmt.Sprintf(" | %s assistant x%d", m.aiSpinner.View(), n)
	}

	return views.RenderApp(views.AppData{
		Header:       header,
		FocusBar:     m.renderFocusBar(),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		Overlay:      overlay,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: m.renderNotificationsView(),
		Footer: fmt.Sprintf("keys: %s list | %s board | %s cal | %s focus | / cmd | %s help | %s quit",
			m.Keys.List, m.Keys.Board, m.Keys.Calendar, m.Keys.Focus, m.Keys.Help, m.Keys.Quit),
	})
}

func (m *Model) switchView(v View) {
	m.CurrentView = v
	if task, ok := m.store.Task(m.Detail.TaskID); ok {
		m.SelectedTaskID = task.ID
		if v == ViewBoard {
			m.Board.Column = projection.ColumnIndex(task.Status)
		}
		return
	}
	m.ensureSelection()
}

func isKnownView(v View) bool {
	switch v {
	case ViewList, ViewBoard, ViewCalendar:
		return true
	default:
		return false
	}
}
