package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/sandeepkv93/flow/internal/model"
)

// Snapshot is the canonical in-memory shape of the durable state.
type Snapshot struct {
	Tasks             []model.Task
	TotalFocusMinutes int
	LastSaved         time.Time
}

// Shape identifies which on-disk layout a snapshot was read from.
type Shape string

const (
	ShapeLegacy  Shape = "legacy"
	ShapeCurrent Shape = "current"
)

type taskRecord struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Status    string       `json:"status"`
	TimeSpent float64      `json:"timeSpent"`
	Tags      []string     `json:"tags"`
	Subtasks  []taskRecord `json:"subtasks,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	Created   int64        `json:"created"`
	Start     *time.Time   `json:"start,omitempty"`
	End       *time.Time   `json:"end,omitempty"`
	AllDay    bool         `json:"allDay,omitempty"`
}

type snapshotRecord struct {
	Tasks             []taskRecord `json:"tasks"`
	TotalFocusMinutes float64      `json:"totalFocusMinutes"`
	LastSaved         string       `json:"lastSaved"`
}

// envelope is the tagged union of the two accepted layouts: a bare task
// array (legacy) or the wrapped object (current).
type envelope struct {
	shape   Shape
	legacy  []taskRecord
	current snapshotRecord
}

func (e *envelope) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty document", ErrCorruptSnapshot)
	}
	switch trimmed[0] {
	case '[':
		e.shape = ShapeLegacy
		return json.Unmarshal(trimmed, &e.legacy)
	case '{':
		e.shape = ShapeCurrent
		return json.Unmarshal(trimmed, &e.current)
	default:
		return fmt.Errorf("%w: unexpected token %q", ErrCorruptSnapshot, trimmed[0])
	}
}

// Decode resolves either layout into a Snapshot. Top-level tasks missing a
// calendar slot get now and now+1h; absent tags become an empty sequence.
// An empty document or JSON null yields (nil, "", nil).
func Decode(raw []byte, now time.Time) (*Snapshot, Shape, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, "", nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	out := &Snapshot{}
	records := env.legacy
	if env.shape == ShapeCurrent {
		records = env.current.Tasks
		out.TotalFocusMinutes = nonNegativeInt(env.current.TotalFocusMinutes)
		if env.current.LastSaved != "" {
			if ts, err := time.Parse(time.RFC3339Nano, env.current.LastSaved); err == nil {
				out.LastSaved = ts
			}
		}
	}
	out.Tasks = make([]model.Task, 0, len(records))
	for _, rec := range records {
		out.Tasks = append(out.Tasks, rec.toModel(now, true))
	}
	return out, env.shape, nil
}

// Encode always writes the current layout.
func Encode(snap Snapshot) ([]byte, error) {
	rec := snapshotRecord{
		Tasks:             make([]taskRecord, 0, len(snap.Tasks)),
		TotalFocusMinutes: float64(snap.TotalFocusMinutes),
		LastSaved:         snap.LastSaved.UTC().Format(time.RFC3339Nano),
	}
	for _, t := range snap.Tasks {
		rec.Tasks = append(rec.Tasks, fromModel(t))
	}
	return json.MarshalIndent(rec, "", "  ")
}

func (r taskRecord) toModel(now time.Time, topLevel bool) model.Task {
	status := model.Status(r.Status)
	if !status.IsValid() {
		status = model.StatusTodo
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	out := model.Task{
		ID:        r.ID,
		Title:     r.Title,
		Status:    status,
		TimeSpent: nonNegativeInt(r.TimeSpent),
		Tags:      tags,
		Subtasks:  make([]model.Task, 0, len(r.Subtasks)),
		Notes:     r.Notes,
		Created:   time.UnixMilli(r.Created).UTC(),
		AllDay:    r.AllDay,
	}
	for _, sub := range r.Subtasks {
		child := sub.toModel(now, false)
		child.Subtasks = []model.Task{}
		out.Subtasks = append(out.Subtasks, child)
	}
	switch {
	case r.Start != nil:
		out.Start = r.Start.UTC()
	case topLevel:
		out.Start = now
	}
	switch {
	case r.End != nil:
		out.End = r.End.UTC()
	case topLevel:
		out.End = now.Add(model.DefaultSlotSize)
	}
	return out
}

func fromModel(t model.Task) taskRecord {
	rec := taskRecord{
		ID:        t.ID,
		Title:     t.Title,
		Status:    string(t.Status),
		TimeSpent: float64(t.TimeSpent),
		Tags:      t.Tags,
		Notes:     t.Notes,
		Created:   t.Created.UnixMilli(),
		AllDay:    t.AllDay,
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if len(t.Subtasks) > 0 {
		rec.Subtasks = make([]taskRecord, 0, len(t.Subtasks))
		for _, sub := range t.Subtasks {
			rec.Subtasks = append(rec.Subtasks, fromModel(sub))
		}
	}
	if !t.Start.IsZero() {
		start := t.Start.UTC()
		rec.Start = &start
	}
	if !t.End.IsZero() {
		end := t.End.UTC()
		rec.End = &end
	}
	return rec
}

func nonNegativeInt(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Floor(v))
}
