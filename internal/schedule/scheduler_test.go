package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

func TestAddRejectsBadSpecAndDuplicates(t *testing.T) {
	s := New()
	job := funcJob{name: "a", fn: func(context.Context) error { return nil }}
	require.Error(t, s.Add(job, "not a spec"))
	require.NoError(t, s.Add(job, "*/5 * * * *"))
	require.Error(t, s.Add(job, "@hourly"))
	require.NoError(t, s.Add(funcJob{name: "b", fn: job.fn}, "@daily"))
	require.Equal(t, []string{"a", "b"}, s.Names())
}

func TestRunNow(t *testing.T) {
	s := New()
	var calls atomic.Int32
	boom := errors.New("boom")
	require.NoError(t, s.Add(funcJob{name: "ok", fn: func(context.Context) error {
		calls.Add(1)
		return nil
	}}, "@hourly"))
	require.NoError(t, s.Add(funcJob{name: "bad", fn: func(context.Context) error { return boom }}, "@hourly"))

	ran, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, int32(1), calls.Load())

	ran, err = s.RunNow(context.Background(), "bad")
	require.ErrorIs(t, err, boom)
	require.True(t, ran)

	_, err = s.RunNow(context.Background(), "missing")
	require.Error(t, err)
}

func TestRunNowSkipsOverlap(t *testing.T) {
	s := New()
	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Add(funcJob{name: "slow", fn: func(context.Context) error {
		close(entered)
		<-release
		return nil
	}}, "@hourly"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunNow(context.Background(), "slow")
	}()
	<-entered
	ran, err := s.RunNow(context.Background(), "slow")
	require.NoError(t, err)
	require.False(t, ran)
	close(release)
	<-done
}

func TestStartStop(t *testing.T) {
	s := New()
	s.Start(context.Background())
	s.Stop(context.Background())
}
