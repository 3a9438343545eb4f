package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultSaveTimeout = 5 * time.Second

// Writer serializes snapshot saves through one goroutine so that writes land
// in mutation order. When the queue is full the oldest pending snapshot is
// discarded; every snapshot is a full copy, so the newest always wins.
type Writer struct {
	repo    Repository
	logger  *zap.Logger
	timeout time.Duration

	mu        sync.Mutex
	queue     chan Snapshot
	errs      chan error
	doneCh    chan struct{}
	started   bool
	closed    bool
	coalesced uint64
	written   uint64
}

func NewWriter(repo Repository, bufferSize int, logger *zap.Logger) *Writer {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		repo:    repo,
		logger:  logger,
		timeout: defaultSaveTimeout,
		queue:   make(chan Snapshot, bufferSize),
		errs:    make(chan error, bufferSize),
		doneCh:  make(chan struct{}),
	}
}

// Errors delivers save failures. It is closed once the writer has drained.
func (w *Writer) Errors() <-chan error {
	return w.errs
}

func (w *Writer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	go w.loop()
}

// Enqueue never blocks the caller. After Close it drops snap and returns
// ErrWriterClosed.
func (w *Writer) Enqueue(snap Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	for {
		select {
		case w.queue <- snap:
			return nil
		default:
		}
		select {
		case <-w.queue:
			atomic.AddUint64(&w.coalesced, 1)
		default:
		}
	}
}

// Close stops accepting snapshots and waits until pending ones are written.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.doneCh
		return nil
	}
	w.closed = true
	close(w.queue)
	started := w.started
	w.mu.Unlock()

	if !started {
		go w.loop()
	}
	<-w.doneCh
	return nil
}

func (w *Writer) Coalesced() uint64 {
	return atomic.LoadUint64(&w.coalesced)
}

func (w *Writer) Written() uint64 {
	return atomic.LoadUint64(&w.written)
}

func (w *Writer) loop() {
	defer close(w.doneCh)
	defer close(w.errs)

	for snap := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.repo.Save(ctx, snap)
		cancel()
		if err != nil {
			w.logger.Error("save snapshot", zap.Error(err), zap.Int("tasks", len(snap.Tasks)))
			select {
			case w.errs <- err:
			default:
			}
			continue
		}
		atomic.AddUint64(&w.written, 1)
		w.logger.Debug("snapshot saved",
			zap.Int("tasks", len(snap.Tasks)),
			zap.Int("total_focus_minutes", snap.TotalFocusMinutes),
		)
	}
}
