package worker

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
)

func TestGroupRefusesAfterStop(t *testing.T) {
	var g Group
	ran := make(chan struct{})
	require.True(t, g.Go(func() { close(ran) }))
	<-ran

	require.NoError(t, g.StopAndWait(context.Background()))
	assert.False(t, g.Go(func() {}))

	g.Reset()
	assert.True(t, g.Go(func() {}))
	require.NoError(t, g.StopAndWait(context.Background()))
}

func TestGroupStopAndWaitHonoursContext(t *testing.T) {
	var g Group
	release := make(chan struct{})
	require.True(t, g.Go(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, g.StopAndWait(ctx), context.DeadlineExceeded)
	close(release)
}

func TestDispatcherRecordsOutcomes(t *testing.T) {
	d := NewDispatcher()
	t.Cleanup(func() { _ = d.Shutdown(context.Background()) })
	ctx := context.Background()

	ok, err := d.Dispatch("daemon.restart", func(context.Context) (any, error) { return true, nil })
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, ok.Status)
	assert.NotEmpty(t, ok.ID)

	bad, err := d.Dispatch("profile.apply", func(context.Context) (any, error) {
		return nil, stderrors.New("volt file rejected")
	})
	require.NoError(t, err)

	got, err := d.Wait(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, true, got.Result)
	require.NotNil(t, got.CompletedAt)

	got, err = d.Wait(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "volt file rejected", got.Error)
}

func TestDispatcherRecoversPanics(t *testing.T) {
	d := NewDispatcher()
	t.Cleanup(func() { _ = d.Shutdown(context.Background()) })

	job, err := d.Dispatch("boom", func(context.Context) (any, error) { panic("bad state") })
	require.NoError(t, err)

	got, err := d.Wait(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "bad state")
}

func TestDispatcherHistoryIsBounded(t *testing.T) {
	d := NewDispatcher(WithHistory(2))
	t.Cleanup(func() { _ = d.Shutdown(context.Background()) })

	var ids []string
	for range 3 {
		job, err := d.Dispatch("noop", func(context.Context) (any, error) { return nil, nil })
		require.NoError(t, err)
		_, err = d.Wait(context.Background(), job.ID)
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	_, err := d.Get(ids[0])
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	_, err = d.Get(ids[2])
	assert.NoError(t, err)
}

func TestDispatcherRejectsAfterShutdown(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Shutdown(context.Background()))

	_, err := d.Dispatch("late", func(context.Context) (any, error) { return nil, nil })
	require.Error(t, err)

	_, err = d.Dispatch("nil", nil)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestShutdownCancelsJobContext(t *testing.T) {
	d := NewDispatcher()
	started := make(chan struct{})
	job, err := d.Dispatch("long", func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-started

	require.NoError(t, d.Shutdown(context.Background()))
	got, err := d.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
}
