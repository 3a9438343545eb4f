package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrInvalidStatus     = errors.New("model: invalid task status")
	ErrNestedSubtask     = errors.New("model: subtasks cannot carry subtasks")
	ErrNegativeTimeSpent = errors.New("model: time spent must not be negative")
)

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To do"
	case StatusInProgress:
		return "In progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// ParseStatus accepts the wire form as well as loose spellings typed into the
// command palette ("todo", "in-progress", "doing", "done").
func ParseStatus(raw string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "TODO", "TO_DO":
		return StatusTodo, nil
	case "IN_PROGRESS", "INPROGRESS", "DOING", "WIP":
		return StatusInProgress, nil
	case "DONE", "COMPLETE", "COMPLETED":
		return StatusDone, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

const (
	DefaultTag      = "Work"
	DefaultSlotSize = time.Hour
)

type Task struct {
	ID        string
	Title     string
	Status    Status
	TimeSpent int
	Tags      []string
	Subtasks  []Task
	Notes     string
	Created   time.Time
	Start     time.Time
	End       time.Time
	AllDay    bool
}

// NewTask builds a quick-add task with the default tag and a one hour slot
// starting at now.
func NewTask(id, title string, now time.Time) Task {
	return Task{
		ID:       id,
		Title:    strings.TrimSpace(title),
		Status:   StatusTodo,
		Tags:     []string{DefaultTag},
		Subtasks: []Task{},
		Created:  now,
		Start:    now,
		End:      now.Add(DefaultSlotSize),
	}
}

// NewSubtask builds a child step produced by decomposition. Children have no
// tags, no calendar slot and no subtasks of their own.
func NewSubtask(parentID string, index int, title string, now time.Time) Task {
	return Task{
		ID:      SubtaskID(parentID, index),
		Title:   strings.TrimSpace(title),
		Status:  StatusTodo,
		Tags:    []string{},
		Created: now,
	}
}

func SubtaskID(parentID string, index int) string {
	return fmt.Sprintf("%s-%d", parentID, index)
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.TimeSpent < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeTimeSpent, t.TimeSpent)
	}
	if t.Created.IsZero() {
		return errors.New("model: task created is required")
	}
	for _, sub := range t.Subtasks {
		if len(sub.Subtasks) > 0 {
			return fmt.Errorf("%w: %s", ErrNestedSubtask, sub.ID)
		}
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("subtask %s: %w", sub.ID, err)
		}
	}
	return nil
}

// Clone returns a deep copy so callers never share slices with the store.
func (t Task) Clone() Task {
	out := t
	out.Tags = slices.Clone(t.Tags)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	out.Subtasks = make([]Task, len(t.Subtasks))
	for i, sub := range t.Subtasks {
		out.Subtasks[i] = sub.Clone()
	}
	return out
}

func (t Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// CanDecompose reports whether AI decomposition should be offered.
func (t Task) CanDecompose() bool {
	return len(t.Subtasks) == 0 && t.Status != StatusDone
}

func (t Task) IsDone() bool {
	return t.Status == StatusDone
}
