package assistant

import "sync"

// Tracker records which tasks have an assistant request pending. A task
// admits one request at a time; different tasks never contend.
type Tracker struct {
	mu      sync.Mutex
	pending map[string]Kind
}

func NewTracker() *Tracker {
	return &Tracker{pending: make(map[string]Kind)}
}

// TryAcquire marks taskID busy with kind. It fails when the task already has
// a request in flight.
func (t *Tracker) TryAcquire(taskID string, kind Kind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.pending[taskID]; busy {
		return false
	}
	t.pending[taskID] = kind
	return true
}

func (t *Tracker) Release(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, taskID)
}

func (t *Tracker) Pending(taskID string) (Kind, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kind, ok := t.pending[taskID]
	return kind, ok
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
