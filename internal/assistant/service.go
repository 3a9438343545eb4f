package assistant

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Service runs decomposition and coaching requests against a Completer.
// Results are returned to the caller; nothing here touches task state.
type Service struct {
	completer Completer
	tracker   *Tracker
	timeout   time.Duration
	logger    *zap.Logger
}

func NewService(completer Completer, timeout time.Duration, logger *zap.Logger) *Service {
	if completer == nil {
		completer = Unavailable{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		completer: completer,
		tracker:   NewTracker(),
		timeout:   timeout,
		logger:    logger,
	}
}

func (s *Service) Available() bool {
	return IsAvailable(s.completer)
}

func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// Begin reserves taskID for kind. Callers must pair a successful Begin with
// Finish once the result has been applied or discarded.
func (s *Service) Begin(taskID string, kind Kind) error {
	if !s.Available() {
		return ErrUnavailable
	}
	if !s.tracker.TryAcquire(taskID, kind) {
		return fmt.Errorf("%w: %s", ErrBusy, taskID)
	}
	return nil
}

func (s *Service) Finish(taskID string) {
	s.tracker.Release(taskID)
}

// Decompose asks for step titles for a task.
func (s *Service) Decompose(ctx context.Context, taskID, title string) ([]string, error) {
	raw, err := s.complete(ctx, KindDecompose, taskID, DecomposePrompt(title))
	if err != nil {
		return nil, err
	}
	steps, err := ParseSteps(raw)
	if err != nil {
		s.logger.Warn("decomposition response rejected", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}
	return steps, nil
}

// Coach returns free text for a brainstorm or unstuck request.
func (s *Service) Coach(ctx context.Context, kind Kind, taskID, title string) (string, error) {
	prompt, err := CoachPrompt(kind, title)
	if err != nil {
		return "", err
	}
	return s.complete(ctx, kind, taskID, prompt)
}

func (s *Service) complete(ctx context.Context, kind Kind, taskID, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Error("assistant request failed",
			zap.String("kind", string(kind)),
			zap.String("task_id", taskID),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return "", err
	}
	s.logger.Info("assistant request completed",
		zap.String("kind", string(kind)),
		zap.String("task_id", taskID),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("response_bytes", len(text)),
	)
	return text, nil
}
