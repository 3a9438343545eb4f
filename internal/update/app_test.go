package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/flow/internal/assistant"
	"github.com/sandeepkv93/flow/internal/model"
	"github.com/sandeepkv93/flow/internal/storage"
	"github.com/sandeepkv93/flow/internal/store"
)

var testNow = time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC) // Monday

type recordingSaver struct {
	mu    sync.Mutex
	snaps []storage.Snapshot
}

func (r *recordingSaver) Enqueue(snap storage.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return nil
}

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (fn completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return fn(ctx, prompt)
}

type recordingNotifier struct {
	sent []Notification
}

func (r *recordingNotifier) Send(n Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	}
}

type harness struct {
	store    *store.Store
	saver    *recordingSaver
	notifier *recordingNotifier
}

func newTestModel(t *testing.T, completer assistant.Completer, cfg RuntimeConfig) (Model, *harness) {
	t.Helper()
	h := &harness{saver: &recordingSaver{}, notifier: &recordingNotifier{}}
	clock := func() time.Time { return testNow }
	h.store = store.New(h.saver, store.WithClock(clock), store.WithIDGenerator(sequentialIDs()))
	m := NewModel(Deps{
		Store:     h.store,
		Assistant: assistant.NewService(completer, time.Second, nil),
		Notifier:  h.notifier,
		Clock:     clock,
		Location:  time.UTC,
	}, cfg)
	msg := loadCmd(h.store, nil)()
	next, _ := m.Update(msg)
	return next.(Model), h
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

// collect runs cmd and any batched commands, returning the messages of the
// given type.
func collect[T tea.Msg](cmd tea.Cmd) []T {
	if cmd == nil {
		return nil
	}
	var out []T
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, collect[T](c)...)
		}
	case T:
		out = append(out, msg)
	}
	return out
}

func addTask(t *testing.T, m Model, title string) Model {
	t.Helper()
	m = press(t, m, "a", title, "enter")
	if m.QuickAdd.Active {
		t.Fatal("expected quick add closed after enter")
	}
	return m
}

func TestNewModelDefaults(t *testing.T) {
	m, _ := newTestModel(t, nil, DefaultRuntimeConfig())
	if m.CurrentView != ViewList {
		t.Fatalf("expected default view %q, got %q", ViewList, m.CurrentView)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}
	if !m.Loaded {
		t.Fatal("expected model loaded")
	}
	if m.Focus.Clock() != "25:00" {
		t.Fatalf("unexpected focus clock %q", m.Focus.Clock())
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m, _ := newTestModel(t, nil, DefaultRuntimeConfig())
	m = press(t, m, "2")
	if m.CurrentView != ViewBoard {
		t.Fatalf("expected board view, got %q", m.CurrentView)
	}
	m = press(t, m, "3")
	if m.CurrentView != ViewCalendar {
		t.Fatalf("expected calendar view, got %q", m.CurrentView)
	}

	updated, _ := m.Update(SwitchViewMsg{View: View("Unknown")})
	m = updated.(Model)
	if m.CurrentView != ViewCalendar {
		t.Fatalf("expected view unchanged for unknown view, got %q", m.CurrentView)
	}
}

func TestQuickAddWithKeyboard(t *testing.T) {
	m, h := newTestModel(t, nil, DefaultRuntimeConfig())
	m = addTask(t, m, "write tests")

	tasks := h.store.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "write tests" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if m.SelectedTaskID != tasks[0].ID {
		t.Fatalf("expected new task selected, got %q", m.SelectedTaskID)
	}
	if len(h.saver.snaps) != 1 {
		t.Fatalf("expected one snapshot enqueued, got %d", len(h.saver.snaps))
	}

	m = press(t, m, "a", "   ", "enter")
	if len(h.store.Tasks()) != 1 {
		t.Fatal("blank quick add should be a no-op")
	}
	m = press(t, m, "a", "abandoned", "esc")
	if len(h.store.Tasks()) != 1 || m.QuickAdd.Active {
		t.Fatal("escape should discard the quick add")
	}
}

func TestToggleAndCycleStatus(t *testing.T) {
	m, h := newTestModel(t, nil, DefaultRuntimeConfig())
	m = addTask(t, m, "ship it")
	id := m.SelectedTaskID

	m = press(t, m, "space")
	if task, _ := h.store.Task(id); task.Status != model.StatusDone {
		t.Fatalf("expected DONE, got %s", task.Status)
	}
	m = press(t, m, "space")
	if task, _ := h.store.Task(id); task.Status != model.StatusTodo {
		t.Fatalf("expected TODO, got %s", task.Status)
	}
	m = press(t, m, "m")
	if task, _ := h.store.Task(id); task.Status != model.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", task.Status)
	}
	_ = m
}

func TestDetailActionsTargetOpenTaskAcrossViews(t *testing.T) {
	m, h := newTestModel(t, nil, DefaultRuntimeConfig())
	m = addTask(t, m, "alpha")
	m = addTask(t, m, "beta")
	m = press(t, m, "j", "enter")
	alpha := m.Detail.TaskID
	if alpha == "" || alpha != m.SelectedTaskID {
		t.Fatalf("expected detail open on selection, detail=%q selected=%q", alpha, m.SelectedTaskID)
	}
	if task, _ := h.store.Task(alpha); task.Title != "alpha" {
		t.Fatalf("expected detail on alpha, got %q", task.Title)
	}
	var beta string
	for _, task := range h.store.Tasks() {
		if task.Title == "beta" {
			beta = task.ID
		}
	}

	m = press(t, m, "s", "2")
	if m.SelectedTaskID != alpha {
		t.Fatalf("view switch moved selection away from open task: %q", m.SelectedTaskID)
	}
	if m.Board.Column != 2 {
		t.Fatalf("expected board cursor on DONE column, got %d", m.Board.Column)
	}

	m = press(t, m, "s")
	if task, _ := h.store.Task(alpha); task.Status != model.StatusTodo {
		t.Fatalf("expected alpha toggled back to TODO, got %s", task.Status)
	}
	if task, _ := h.store.Task(beta); task.Status != model.StatusTodo {
		t.Fatalf("beta must be untouched, got %s", task.Status)
	}

	// Selection moved behind the pane still resolves to the open task.
	m.SelectedTaskID = beta
	m = press(t, m, "m")
	if task, _ := h.store.Task(alpha); task.Status != model.StatusInProgress {
		t.Fatalf("expected alpha IN_PROGRESS, got %s", task.Status)
	}
	if task, _ := h.store.Task(beta); task.Status != model.StatusTodo {
		t.Fatalf("beta must be untouched, got %s", task.Status)
	}
	m = press(t, m, "x")
	if !m.Confirm.Active || m.Confirm.TaskID != alpha {
		t.Fatalf("expected delete confirm for alpha, got %+v", m.Confirm)
	}
}

func TestBoardMovesTaskBetweenColumns(t *testing.T) {
	m, h := newTestModel(t, nil, DefaultRuntimeConfig())
	m = addTask(t, m, "card")
	id := m.SelectedTaskID
	m = press(t, m, "2", ">")
	if task, _ := h.store.Task(id); task.Status != model.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", task.Status)
	}
	if m.Board.Column != 1 || m.SelectedTaskID != id {
		t.Fatalf("expected cursor to follow card, column=%d selected=%q", m.Board.Column, m.SelectedTaskID)
	}
	m = press(t, m, "h")
	if m.SelectedTaskID != "" {
		t.Fatalf("expected empty TODO column to clear selection, got %q", m.SelectedTaskID)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	m, h := newTestModel(t, nil, DefaultRuntimeConfig())
	m = addTask(t, m, "keep me")
	m = addTask(t, m, "drop me")
	id := m.SelectedTaskID

	m = press(t, m, "x")
	if !m.Confirm.Active {
		t.Fatal("expected confirm dialog")
	}
	m = press(t, m, "n")
	if !h.store.Exists(id) || m.Confirm.Active {
		t.Fatal("cancel must keep the task")
	}

	m = press(t, m, "enter")
	if m.Detail.TaskID != id {
		t.Fatalf("expected detail open for %q", id)
	}
	m = press(t, m, "x", "y")
	if h.store.Exists(id) {
		t.Fatal("expected task deleted")
	}
	if m.Detail.TaskID != "" {
		t.Fatal("expected detail closed after deleting its task")
	}
	if m.SelectedTaskID == id || m.SelectedTaskID == "" {
		t.Fatalf("expected selection moved to remaining task, got %q", m.SelectedTaskID)
	}
}

func TestDecomposeReplacesSubtasks(t *testing.T) {
	var calls int
	completer := completerFunc(func(context.Context, string) (string, error) {
		calls++
		return "```json\n[\"outline\", \"draft\", \"review\"]\n```", nil
	})
	m, h := newTestModel(t, completer, DefaultRuntimeConfig())
	m = addTask(t, m, "write report")
	id := m.SelectedTaskID

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected assistant command")
	}

	m = press(t, m, "d")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "already working") {
		t.Fatalf("expected busy error, got %+v", m.Status)
	}

	results := collect[AssistantResultMsg](cmd)
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	updated, _ = m.Update(results[0])
	m = updated.(Model)

	task, _ := h.store.Task(id)
	if len(task.Subtasks) != 3 || task.Subtasks[0].Title != "outline" {
		t.Fatalf("unexpected subtasks: %+v", task.Subtasks)
	}
	if m.assistant.Tracker().Len() != 0 {
		t.Fatal("expected tracker released")
	}
	if calls != 1 {
		t.Fatalf("expected one provider call, got %d", calls)
	}
	m = press(t, m, "d")
	if calls != 1 {
		t.Fatal("decomposed task must not be decomposed again")
	}
}

func TestAssistantResultForDeletedTaskIsDiscarded(t *testing.T) {
	completer := completerFunc(func(context.Context, string) (string, error) { return "breathe", nil })
	m, h := newTestModel(t, completer, DefaultRuntimeConfig())
	m = addTask(t, m, "scary task")
	id := m.SelectedTaskID

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'u'}})
	m = updated.(Model)
	m = press(t, m, "x", "y")
	if h.store.Exists(id) {
		t.Fatal("expected task deleted")
	}

	results := collect[AssistantResultMsg](cmd)
	updated, _ = m.Update(results[0])
	m = updated.(Model)
	if h.store.Exists(id) {
		t.Fatal("result must not resurrect the task")
	}
	if m.assistant.Tracker().Len() != 0 {
		t.Fatal("expected tracker released")
	}
}

func TestCoachingAppendsNotes(t *testing.T) {
	completer := completerFunc(func(context.Context, string) (string, error) { return "try a timer", nil })
	m, h := newTestModel(t, completer, DefaultRuntimeConfig())
	m = addTask(t, m, "taxes")
	id := m.SelectedTaskID
	h.store.UpdateNotes(id, "receipts in drawer")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})
	m = updated.(Model)
	for _, res := range collect[AssistantResultMsg](cmd) {
		updated, _ = m.Update(res)
		m = updated.(Model)
	}
	task, _ := h.store.Task(id)
	want := "receipts in drawer\n\n--- " + assistant.KindBrainstorm.NoteHeader() + " ---\ntry a timer"
	if task.Notes != want {
		t.Fatalf("unexpected notes %q", task.Notes)
	}
}

func TestAssistantFailureLeavesTaskUntouched(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	cfg.DesktopNotifications = true
	completer := completerFunc(func(context.Context, string) (string, error) { return "not json", nil })
	m, h := newTestModel(t, completer, cfg)
	m = addTask(t, m, "plan trip")
	id := m.SelectedTaskID

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	m = updated.(Model)
	for _, res := range collect[AssistantResultMsg](cmd) {
		updated, _ = m.Update(res)
		m = updated.(Model)
	}
	if !m.Status.IsError || !errors.Is(m.LastError, assistant.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error, got %+v / %v", m.Status, m.LastError)
	}
	if task, _ := h.store.Task(id); len(task.Subtasks) != 0 {
		t.Fatal("subtasks must stay empty on failure")
	}
	if len(h.notifier.sent) != 1 || h.notifier.sent[0].Level != "error" {
		t.Fatalf("expected one error notification, got %+v", h.notifier.sent)
	}
}

func TestAssistantUnavailable(t *testing.T) {
	m, _ := newTestModel(t, nil, DefaultRuntimeConfig())
	m = addTask(t, m, "anything")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})
	m = updated.(Model)
	if cmd != nil {
		t.Fatal("expected no command without an assistant")
	}
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "unavailable") {
		t.Fatalf("unexpected status %+v", m.Status)
	}
}

func TestFocusCompletionCreditsTask(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	cfg.FocusSession = time.Minute
	cfg.DesktopNotifications = true
	m, h := newTestModel(t, nil, cfg)
	m = addTask(t, m, "deep work")
	id := m.SelectedTaskID

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	m = updated.(Model)
	if cmd == nil || !m.Focus.Running() {
		t.Fatal("expected running timer with tick command")
	}
	for i := 0; i < 60; i++ {
		updated, _ = m.Update(FocusTickMsg{Gen: m.focusGen})
		m = updated.(Model)
	}
	if m.Focus.Running() {
		t.Fatal("expected timer idle after completion")
	}
	if h.store.TotalFocusMinutes() != 1 {
		t.Fatalf("expected 1 focus minute, got %d", h.store.TotalFocusMinutes())
	}
	if task, _ := h.store.Task(id); task.TimeSpent != 1 {
		t.Fatalf("expected task credited, got %d", task.TimeSpent)
	}
	if len(h.notifier.sent) != 1 || h.notifier.sent[0].Title != "Focus" {
		t.Fatalf("expected one focus notification, got %+v", h.notifier.sent)
	}

	updated, _ = m.Update(FocusTickMsg{Gen: m.focusGen})
	m = updated.(Model)
	if h.store.TotalFocusMinutes() != 1 {
		t.Fatal("idle timer must not credit again")
	}
}

func TestStaleFocusTickIgnored(t *testing.T) {
	m, _ := newTestModel(t, nil, DefaultRuntimeConfig())
	m = press(t, m, "f", "f", "f")
	stale := m.focusGen - 1
	before := m.Focus.RemainingSeconds()
	updated, cmd := m.Update(FocusTickMsg{Gen: stale})
	m = updated.(Model)
	if cmd != nil || m.Focus.RemainingSeconds() != before {
		t.Fatal("stale tick must be ignored")
	}
}

func TestNotesEditing(t *testing.T) {
	m, h := newTestModel(t, nil, DefaultRuntimeConfig())
	m = addTask(t, m, "journal")
	id := m.SelectedTaskID

	m = press(t, m, "enter", "e", "hello", "ctrl+s")
	if m.Detail.Editing {
		t.Fatal("expected editor closed")
	}
	if task, _ := h.store.Task(id); task.Notes != "hello" {
		t.Fatalf("unexpected notes %q", task.Notes)
	}

	m = press(t, m, "e", " world", "esc")
	if task, _ := h.store.Task(id); task.Notes != "hello" {
		t.Fatalf("cancelled edit must not save, got %q", task.Notes)
	}
	m = press(t, m, "esc")
	if m.Detail.TaskID != "" {
		t.Fatal("expected detail closed")
	}
}

func TestPaletteCommands(t *testing.T) {
	m, h := newTestModel(t, nil, DefaultRuntimeConfig())
	run := func(line string) {
		t.Helper()
		m = press(t, m, "/", line, "enter")
		if m.Status.IsError {
			t.Fatalf("command %q failed: %s", line, m.Status.Text)
		}
	}

	run("add pay rent")
	id := m.SelectedTaskID
	run("tag +Home")
	run("note + landlord prefers transfer")
	run("move doing")
	run("reschedule tomorrow 09:00 for 30m")
	run("view calendar day")

	task, _ := h.store.Task(id)
	if !task.HasTag("Home") || task.Status != model.StatusInProgress {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.Notes != "landlord prefers transfer" {
		t.Fatalf("unexpected notes %q", task.Notes)
	}
	wantStart := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	if !task.Start.Equal(wantStart) || !task.End.Equal(wantStart.Add(30*time.Minute)) || task.AllDay {
		t.Fatalf("unexpected slot %s-%s allDay=%v", task.Start, task.End, task.AllDay)
	}
	if m.CurrentView != ViewCalendar || m.Calendar.Mode != "day" {
		t.Fatalf("unexpected view %s/%s", m.CurrentView, m.Calendar.Mode)
	}

	m = press(t, m, "/", "frobnicate", "enter")
	if !m.Status.IsError {
		t.Fatal("expected error for unknown command")
	}
}

func TestPaletteRequiresSelection(t *testing.T) {
	m, _ := newTestModel(t, nil, DefaultRuntimeConfig())
	m = press(t, m, "/", "toggle", "enter")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "no task selected") {
		t.Fatalf("unexpected status %+v", m.Status)
	}
}

func TestCalendarMoveAndResize(t *testing.T) {
	m, h := newTestModel(t, nil, DefaultRuntimeConfig())
	m = addTask(t, m, "standup")
	id := m.SelectedTaskID
	m = press(t, m, "3")
	if m.SelectedTaskID != id {
		t.Fatalf("expected task selected in calendar, got %q", m.SelectedTaskID)
	}

	m = press(t, m, "L")
	task, _ := h.store.Task(id)
	if !task.Start.Equal(testNow.Add(30*time.Minute)) || !task.End.Equal(testNow.Add(90*time.Minute)) {
		t.Fatalf("unexpected slot after move: %s-%s", task.Start, task.End)
	}

	m = press(t, m, "J")
	task, _ = h.store.Task(id)
	if !task.End.Equal(testNow.Add(120 * time.Minute)) {
		t.Fatalf("unexpected end after resize: %s", task.End)
	}
	m = press(t, m, "K", "K", "K", "K")
	task, _ = h.store.Task(id)
	if !task.End.Equal(task.Start.Add(30 * time.Minute)) {
		t.Fatalf("resize must keep one slot, got %s-%s", task.Start, task.End)
	}

	m = press(t, m, "A")
	task, _ = h.store.Task(id)
	if !task.AllDay || !task.Start.Equal(time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected all-day slot, got %+v", task)
	}
	m = press(t, m, "L")
	task, _ = h.store.Task(id)
	if task.AllDay {
		t.Fatal("slot move must clear all-day")
	}
}

func TestCalendarPeriodNavigation(t *testing.T) {
	m, _ := newTestModel(t, nil, DefaultRuntimeConfig())
	m = addTask(t, m, "this week")
	m = press(t, m, "3", "l")
	if m.SelectedTaskID != "" {
		t.Fatalf("next week has no events, got selection %q", m.SelectedTaskID)
	}
	m = press(t, m, "t")
	if m.SelectedTaskID == "" {
		t.Fatal("expected selection back on today")
	}
	m = press(t, m, "D")
	if m.Calendar.Mode != "day" {
		t.Fatalf("expected day mode, got %s", m.Calendar.Mode)
	}
}

func TestSaveFailureShown(t *testing.T) {
	m, _ := newTestModel(t, nil, DefaultRuntimeConfig())
	ch := make(chan error)
	m.saveErrs = ch
	updated, cmd := m.Update(SaveFailedMsg{Err: errors.New("disk full")})
	m = updated.(Model)
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "disk full") {
		t.Fatalf("unexpected status %+v", m.Status)
	}
	if cmd == nil {
		t.Fatal("expected to keep waiting for save errors")
	}
	close(ch)
	if msg := cmd(); msg != nil {
		t.Fatalf("closed channel should end the wait, got %#v", msg)
	}
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	s := store.New(&recordingSaver{})
	loader := loaderFunc(func(context.Context) (*storage.Snapshot, error) {
		return nil, storage.ErrCorruptSnapshot
	})
	m := NewModel(Deps{Store: s, Loader: loader}, DefaultRuntimeConfig())
	updated, _ := m.Update(loadCmd(s, loader)())
	m = updated.(Model)
	if !m.Loaded || m.Status.IsError {
		t.Fatalf("load failure must not surface, got %+v", m.Status)
	}
	if len(s.Tasks()) != 0 {
		t.Fatal("expected empty store")
	}
}

func TestUpdateQuitKey(t *testing.T) {
	m, _ := newTestModel(t, nil, DefaultRuntimeConfig())
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	next := updated.(Model)
	if !next.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m, _ := newTestModel(t, nil, DefaultRuntimeConfig())
	m = addTask(t, m, "task-42")
	m.Status = StatusBar{Text: "all good"}
	for _, v := range []string{"1", "2", "3"} {
		m = press(t, m, v)
		out := m.View()
		for _, want := range []string{"view: " + string(m.CurrentView), "task-42", "status: all good", "focus 25:00"} {
			if !strings.Contains(out, want) {
				t.Fatalf("expected %q in %s output: %q", want, m.CurrentView, out)
			}
		}
	}
}

type loaderFunc func(ctx context.Context) (*storage.Snapshot, error)

func (fn loaderFunc) Load(ctx context.Context) (*storage.Snapshot, error) { return fn(ctx) }
