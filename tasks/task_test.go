package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncRunExecutesOnce(t *testing.T) {
	var count int32
	task := New(func(ctx context.Context) {
		atomic.AddInt32(&count, 1)
	}, 0, false)

	require.NoError(t, task.SyncRun(time.Second))
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
}

func TestSyncRunTimesOut(t *testing.T) {
	release := make(chan struct{})
	task := New(func(ctx context.Context) {
		<-release
	}, 0, true)

	assert.ErrorIs(t, task.SyncRun(50*time.Millisecond), ErrTimeout)

	close(release)
	require.NoError(t, task.Stop(time.Second))
}

func TestCoalescedTriggersQueueOneFollowUp(t *testing.T) {
	var count int32
	started := make(chan struct{})
	release := make(chan struct{})
	task := New(func(ctx context.Context) {
		atomic.AddInt32(&count, 1)
		started <- struct{}{}
		<-release
	}, 0, true)

	task.Run()
	<-started

	// triggers landing mid-run collapse into one queued rerun
	task.Run()
	task.Run()
	task.Run()

	release <- struct{}{}
	<-started
	release <- struct{}{}

	require.NoError(t, task.Stop(time.Second))
	assert.Equal(t, int32(2), atomic.LoadInt32(&count))
}

func TestRestartCancelsInFlightRun(t *testing.T) {
	var starts, canceled int32
	started := make(chan struct{})
	task := New(func(ctx context.Context) {
		atomic.AddInt32(&starts, 1)
		started <- struct{}{}
		<-ctx.Done()
		atomic.AddInt32(&canceled, 1)
	}, 0, false)

	task.Run()
	<-started

	task.Run()
	<-started

	require.NoError(t, task.Stop(time.Second))
	assert.Equal(t, int32(2), atomic.LoadInt32(&starts))
	assert.Equal(t, int32(2), atomic.LoadInt32(&canceled))
}

func TestStopRefusesFutureTriggers(t *testing.T) {
	var count int32
	task := New(func(ctx context.Context) {
		atomic.AddInt32(&count, 1)
	}, 0, false)

	require.NoError(t, task.SyncRun(time.Second))
	require.NoError(t, task.Stop(time.Second))

	task.Run()
	require.NoError(t, task.SyncRun(time.Second))
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
}

func TestStopDuringDelaySkipsRun(t *testing.T) {
	var count int32
	task := New(func(ctx context.Context) {
		atomic.AddInt32(&count, 1)
	}, 100*time.Millisecond, false)

	task.Run()
	require.NoError(t, task.Stop(time.Second))
	assert.Equal(t, int32(0), atomic.LoadInt32(&count))
}

func TestDelayedRunFires(t *testing.T) {
	var count int32
	task := New(func(ctx context.Context) {
		atomic.AddInt32(&count, 1)
	}, 20*time.Millisecond, false)

	task.Run()
	assert.Equal(t, int32(0), atomic.LoadInt32(&count))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) == 1
	}, time.Second, 10*time.Millisecond)
}
