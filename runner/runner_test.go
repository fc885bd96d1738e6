package runner

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/hupe1980/taskmesh/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type targetFunc func(ctx context.Context, input string) (string, error)

func (f targetFunc) Execute(ctx context.Context, input string) (string, error) {
	return f(ctx, input)
}

func quietLogger(o *Options) {
	o.Logger = logging.NewRunLogger(&logging.RunLoggerConfig{
		Level:  logging.LogLevelError,
		Output: io.Discard,
	})
}

func TestRunnerRun(t *testing.T) {
	r := New(targetFunc(func(ctx context.Context, input string) (string, error) {
		return "echo: " + input, nil
	}), quietLogger)

	result, err := r.Run(context.Background(), "hello")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "echo: hello", result.Output)
	assert.Empty(t, r.ActiveRuns())
}

func TestRunnerPropagatesFailure(t *testing.T) {
	r := New(targetFunc(func(ctx context.Context, input string) (string, error) {
		return "", errors.New("boom")
	}), quietLogger)

	_, err := r.Run(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRunnerTimeout(t *testing.T) {
	r := New(targetFunc(func(ctx context.Context, input string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return "too late", nil
		}
	}), quietLogger, func(o *Options) { o.Timeout = 20 * time.Millisecond })

	_, err := r.Run(context.Background(), "slow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRunnerCancelUnknownRun(t *testing.T) {
	r := New(targetFunc(func(ctx context.Context, input string) (string, error) {
		return "", nil
	}), quietLogger)

	assert.False(t, r.Cancel("no-such-run"))
}
