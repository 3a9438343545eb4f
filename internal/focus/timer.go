package focus

import (
	"fmt"
	"time"
)

type State string

const (
	StateIdle    State = "IDLE"
	StateRunning State = "RUNNING"
)

const DefaultSession = 25 * time.Minute

// Completion is reported once when a running session reaches zero.
type Completion struct {
	Minutes int
	TaskID  string
}

// Timer is a one-second countdown. It holds no goroutines; the caller
// drives it with Tick.
type Timer struct {
	sessionSec   int
	remainingSec int
	state        State
	taskID       string
}

func New(session time.Duration) Timer {
	if session < time.Second {
		session = DefaultSession
	}
	sec := int(session / time.Second)
	return Timer{sessionSec: sec, remainingSec: sec, state: StateIdle}
}

func (t Timer) State() State          { return t.state }
func (t Timer) Running() bool         { return t.state == StateRunning }
func (t Timer) RemainingSeconds() int { return t.remainingSec }
func (t Timer) SessionMinutes() int   { return t.sessionSec / 60 }
func (t Timer) TaskID() string        { return t.taskID }

// Start resumes from the remaining time, or from a full session when the
// previous one ran out.
func (t *Timer) Start() {
	if t.remainingSec <= 0 {
		t.remainingSec = t.sessionSec
	}
	t.state = StateRunning
}

func (t *Timer) Pause() {
	t.state = StateIdle
}

func (t *Timer) Toggle() {
	if t.Running() {
		t.Pause()
		return
	}
	t.Start()
}

func (t *Timer) Reset() {
	t.state = StateIdle
	t.remainingSec = t.sessionSec
}

// Attach credits the next completed session to taskID. Empty detaches.
func (t *Timer) Attach(taskID string) {
	t.taskID = taskID
}

// Tick advances one second. It reports a Completion exactly when a running
// session reaches zero; the timer is then idle.
func (t *Timer) Tick() (Completion, bool) {
	if !t.Running() {
		return Completion{}, false
	}
	if t.remainingSec > 0 {
		t.remainingSec--
	}
	if t.remainingSec > 0 {
		return Completion{}, false
	}
	t.state = StateIdle
	return Completion{Minutes: t.SessionMinutes(), TaskID: t.taskID}, true
}

// Advance applies n ticks and returns the completions observed.
func (t *Timer) Advance(n int) []Completion {
	var out []Completion
	for i := 0; i < n; i++ {
		if done, ok := t.Tick(); ok {
			out = append(out, done)
		}
	}
	return out
}

// Clock formats the remaining time as m:ss.
func (t Timer) Clock() string {
	return fmt.Sprintf("%d:%02d", t.remainingSec/60, t.remainingSec%60)
}

// Progress is the elapsed share of the session in [0, 1].
func (t Timer) Progress() float64 {
	if t.sessionSec == 0 {
		return 0
	}
	return float64(t.sessionSec-t.remainingSec) / float64(t.sessionSec)
}
