package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandeepkv93/flow/internal/model"
	"github.com/sandeepkv93/flow/internal/storage"
)

var ErrAlreadyLoaded = errors.New("store: already loaded")

// Loader reads the persisted snapshot; (nil, nil) means nothing was saved.
type Loader interface {
	Load(ctx context.Context) (*storage.Snapshot, error)
}

// Saver accepts full snapshots for asynchronous persistence.
type Saver interface {
	Enqueue(snap storage.Snapshot) error
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is the canonical task list plus the aggregate focus counter. All
// reads return copies; every mutation after Load enqueues a full snapshot.
type Store struct {
	mu         sync.RWMutex
	tasks      []model.Task
	totalFocus int
	loaded     bool

	saver  Saver
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

func New(saver Saver, opts ...Option) *Store {
	s := &Store{
		tasks:  []model.Task{},
		saver:  saver,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load hydrates the store once. A read failure leaves the store empty but
// loaded, and the error is returned for reporting only. The snapshot is read
// without holding the lock so readers are not blocked on disk I/O.
func (s *Store) Load(ctx context.Context, loader Loader) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return ErrAlreadyLoaded
	}

	snap, err := loader.Load(ctx)

	var tasks []model.Task
	totalFocus := 0
	if err == nil && snap != nil {
		tasks = validTasks(snap.Tasks, s.logger)
		totalFocus = snap.TotalFocusMinutes
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return ErrAlreadyLoaded
	}
	s.loaded = true

	switch {
	case err != nil:
		s.logger.Warn("load snapshot failed; starting empty", zap.Error(err))
		return err
	case snap == nil:
		s.logger.Info("no saved snapshot; starting empty")
		return nil
	}
	s.tasks = tasks
	s.totalFocus = totalFocus
	s.logger.Info("snapshot loaded", zap.Int("tasks", len(tasks)), zap.Int("total_focus_minutes", totalFocus))
	return nil
}

// validTasks drops records that fail validation or repeat an earlier id.
func validTasks(in []model.Task, logger *zap.Logger) []model.Task {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.Task, 0, len(in))
	for _, task := range in {
		if err := task.Validate(); err != nil {
			logger.Warn("skipping invalid task", zap.String("id", task.ID), zap.Error(err))
			continue
		}
		if _, dup := seen[task.ID]; dup {
			logger.Warn("skipping task with duplicate id", zap.String("id", task.ID))
			continue
		}
		seen[task.ID] = struct{}{}
		out = append(out, task.Clone())
	}
	return out
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// AddTask prepends a quick-add task. Blank titles are ignored.
func (s *Store) AddTask(title string) (model.Task, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for s.indexLocked(id) >= 0 {
		id = s.newID()
	}
	task := model.NewTask(id, title, s.now().UTC())
	s.tasks = slices.Insert(s.tasks, 0, task)
	s.persistLocked()
	return task.Clone(), true
}

// ToggleStatus sends DONE back to TODO and anything else to DONE.
func (s *Store) ToggleStatus(id string) (model.Status, bool) {
	var next model.Status
	ok := s.mutate(id, func(t *model.Task) bool {
		if t.Status == model.StatusDone {
			next = model.StatusTodo
		} else {
			next = model.StatusDone
		}
		t.Status = next
		return true
	})
	return next, ok
}

func (s *Store) MoveStatus(id string, status model.Status) bool {
	if !status.IsValid() {
		return false
	}
	return s.mutate(id, func(t *model.Task) bool {
		if t.Status == status {
			return false
		}
		t.Status = status
		return true
	})
}

// DeleteTask removes the task only when the caller has confirmed.
func (s *Store) DeleteTask(id string, confirmed bool) bool {
	if !confirmed {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	s.persistLocked()
	return true
}

func (s *Store) UpdateNotes(id, text string) bool {
	return s.mutate(id, func(t *model.Task) bool {
		if t.Notes == text {
			return false
		}
		t.Notes = text
		return true
	})
}

// AppendNotes joins text onto existing notes under a "--- header ---" line.
// Empty notes are replaced by text alone.
func (s *Store) AppendNotes(id, header, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	return s.mutate(id, func(t *model.Task) bool {
		if t.Notes == "" {
			t.Notes = text
		} else {
			t.Notes = t.Notes + "\n\n--- " + header + " ---\n" + text
		}
		return true
	})
}

// RescheduleTask sets the calendar slot. allDay is left alone when nil.
func (s *Store) RescheduleTask(id string, start, end time.Time, allDay *bool) bool {
	return s.mutate(id, func(t *model.Task) bool {
		t.Start = start.UTC()
		t.End = end.UTC()
		if allDay != nil {
			t.AllDay = *allDay
		}
		return true
	})
}

// ReplaceSubtasks overwrites the subtasks of id wholesale. It reports false
// when the task no longer exists.
func (s *Store) ReplaceSubtasks(id string, titles []string) bool {
	if len(titles) == 0 {
		return false
	}
	now := s.now().UTC()
	return s.mutate(id, func(t *model.Task) bool {
		subs := make([]model.Task, 0, len(titles))
		for i, title := range titles {
			subs = append(subs, model.NewSubtask(t.ID, i, title, now))
		}
		t.Subtasks = subs
		return true
	})
}

// ToggleSubtask flips a child step between DONE and TODO.
func (s *Store) ToggleSubtask(parentID, subID string) bool {
	return s.mutate(parentID, func(t *model.Task) bool {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID != subID {
				continue
			}
			if t.Subtasks[i].Status == model.StatusDone {
				t.Subtasks[i].Status = model.StatusTodo
			} else {
				t.Subtasks[i].Status = model.StatusDone
			}
			return true
		}
		return false
	})
}

func (s *Store) AddTag(id, tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	return s.mutate(id, func(t *model.Task) bool {
		if t.HasTag(tag) {
			return false
		}
		t.Tags = append(t.Tags, tag)
		return true
	})
}

func (s *Store) RemoveTag(id, tag string) bool {
	return s.mutate(id, func(t *model.Task) bool {
		idx := slices.Index(t.Tags, strings.TrimSpace(tag))
		if idx < 0 {
			return false
		}
		t.Tags = slices.Delete(t.Tags, idx, idx+1)
		return true
	})
}

// AddFocusMinutes credits a completed focus session to the aggregate counter
// and, when taskID names an existing task, to that task's time spent.
func (s *Store) AddFocusMinutes(minutes int, taskID string) {
	if minutes <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalFocus += minutes
	if idx := s.indexLocked(taskID); idx >= 0 {
		s.tasks[idx].TimeSpent += minutes
	}
	s.persistLocked()
}

func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *Store) Task(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Task{}, false
	}
	return s.tasks[idx].Clone(), true
}

func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

func (s *Store) TotalFocusMinutes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalFocus
}

// Snapshot returns the full durable state stamped with the current time.
func (s *Store) Snapshot() storage.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) mutate(id string, fn func(t *model.Task) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	if !fn(&s.tasks[idx]) {
		return false
	}
	s.persistLocked()
	return true
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}

func (s *Store) snapshotLocked() storage.Snapshot {
	tasks := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		tasks[i] = t.Clone()
	}
	return storage.Snapshot{
		Tasks:             tasks,
		TotalFocusMinutes: s.totalFocus,
		LastSaved:         s.now().UTC(),
	}
}

func (s *Store) persistLocked() {
	if !s.loaded || s.saver == nil {
		return
	}
	snap := s.snapshotLocked()
	if err := s.saver.Enqueue(snap); err != nil {
		s.logger.Warn("snapshot not queued", zap.Error(err), zap.Int("tasks", len(snap.Tasks)))
	}
}
