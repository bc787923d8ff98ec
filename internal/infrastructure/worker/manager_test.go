package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubWorker struct {
	name     string
	startErr error
	stopErr  error
	started  int
	stopped  int
}

func (w *stubWorker) Start(context.Context) error {
	w.started++
	return w.startErr
}

func (w *stubWorker) Stop() error {
	w.stopped++
	return w.stopErr
}

func (w *stubWorker) Name() string { return w.name }

func TestWorkerManager_Lifecycle(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	a := &stubWorker{name: "a"}
	b := &stubWorker{name: "b"}
	m.Register(a)
	m.Register(b)

	require.False(t, m.IsRunning())
	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.Equal(t, 1, a.started)
	assert.Equal(t, 1, b.started)

	// a second start while running is refused
	assert.Error(t, m.StartAll(context.Background()))
	assert.Equal(t, 1, a.started)

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.Equal(t, 1, a.stopped)
	assert.Equal(t, 1, b.stopped)

	// stopping again is a no-op
	require.NoError(t, m.StopAll())
	assert.Equal(t, 1, a.stopped)
}

func TestWorkerManager_Failures(t *testing.T) {
	t.Run("one failed start does not block the rest", func(t *testing.T) {
		m := NewWorkerManager(zap.NewNop())
		bad := &stubWorker{name: "bad", startErr: errors.New("no ticker")}
		good := &stubWorker{name: "good"}
		m.Register(bad)
		m.Register(good)

		require.NoError(t, m.StartAll(context.Background()))
		assert.Equal(t, 1, good.started)
	})

	t.Run("stop reports how many workers failed", func(t *testing.T) {
		m := NewWorkerManager(zap.NewNop())
		m.Register(&stubWorker{name: "bad", stopErr: errors.New("stuck")})
		m.Register(&stubWorker{name: "good"})

		require.NoError(t, m.StartAll(context.Background()))
		err := m.StopAll()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 workers")
	})
}
