package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunOnceSkipsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	calls := 0

	s := NewSweeper("test sweep", func(ctx context.Context) (int, error) {
		calls++
		close(started)
		<-release
		return 2, nil
	}, 0)

	done := make(chan bool)
	go func() { done <- s.RunOnce() }()

	<-started
	require.False(t, s.RunOnce())
	close(release)
	require.True(t, <-done)
	require.Equal(t, 1, calls)
}

func TestRunOnceSurvivesErrors(t *testing.T) {
	calls := 0
	s := NewSweeper("test sweep", func(ctx context.Context) (int, error) {
		calls++
		_, ok := ctx.Deadline()
		require.True(t, ok)
		return 0, errors.New("db down")
	}, 0)

	require.True(t, s.RunOnce())
	require.True(t, s.RunOnce())
	require.Equal(t, 2, calls)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewSweeper("test sweep", func(ctx context.Context) (int, error) { return 0, nil }, 0)
	require.Error(t, s.Start("not a cron spec"))
}
