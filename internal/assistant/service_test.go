package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestServiceDecompose(t *testing.T) {
	var gotPrompt string
	svc := NewService(completerFunc(func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "```json\n[\"a\",\"b\",\"c\"]\n```", nil
	}), time.Second, zap.NewNop())

	steps, err := svc.Decompose(context.Background(), "t1", "Write report")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, steps)
	assert.Contains(t, gotPrompt, "Write report")
}

func TestServiceDecomposeMalformed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewService(completerFunc(func(context.Context, string) (string, error) {
		return "I cannot help with that.", nil
	}), time.Second, zap.New(core))

	_, err := svc.Decompose(context.Background(), "t1", "x")
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, 1, logs.FilterMessage("decomposition response rejected").Len())
}

func TestServiceCoachPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(completerFunc(func(context.Context, string) (string, error) {
		return "", boom
	}), time.Second, nil)

	_, err := svc.Coach(context.Background(), KindBrainstorm, "t1", "x")
	require.ErrorIs(t, err, boom)
}

func TestServiceAppliesTimeout(t *testing.T) {
	svc := NewService(completerFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), 10*time.Millisecond, nil)

	_, err := svc.Coach(context.Background(), KindUnstuck, "t1", "x")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServiceBeginGuards(t *testing.T) {
	off := NewService(nil, 0, nil)
	require.ErrorIs(t, off.Begin("t1", KindDecompose), ErrUnavailable)

	svc := NewService(completerFunc(func(context.Context, string) (string, error) { return "", nil }), 0, nil)
	require.NoError(t, svc.Begin("t1", KindDecompose))
	require.ErrorIs(t, svc.Begin("t1", KindBrainstorm), ErrBusy)
	require.NoError(t, svc.Begin("t2", KindBrainstorm))
	svc.Finish("t1")
	require.NoError(t, svc.Begin("t1", KindUnstuck))
}
