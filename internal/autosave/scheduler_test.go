package autosave

import (
	"context"
	"errors"
	"testing"
	"time"

	"site-builder/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedCall struct {
	at      time.Time
	payload string
}

func setupScheduler(t *testing.T, delay time.Duration) (*Scheduler[string], *clock.Fake, *[]savedCall) {
	t.Helper()
	fc := clock.NewFake(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	var calls []savedCall
	s := New(fc, delay, func(_ context.Context, p string) error {
		calls = append(calls, savedCall{at: fc.Now(), payload: p})
		return nil
	})
	return s, fc, &calls
}

func TestScheduleCoalescesBurst(t *testing.T) {
	s, fc, calls := setupScheduler(t, 500*time.Millisecond)
	start := fc.Now()

	s.Schedule("M1")
	fc.Advance(100 * time.Millisecond)
	s.Schedule("M2")
	fc.Advance(50 * time.Millisecond)
	s.Schedule("M3")

	fc.Advance(499 * time.Millisecond)
	assert.Empty(t, *calls, "nothing fires inside the window")
	assert.True(t, s.Pending())

	fc.Advance(1 * time.Millisecond)
	require.Len(t, *calls, 1)
	assert.Equal(t, "M3", (*calls)[0].payload)
	assert.Equal(t, start.Add(650*time.Millisecond), (*calls)[0].at)
	assert.False(t, s.Pending())

	fc.Advance(5 * time.Second)
	assert.Len(t, *calls, 1, "a fired timer never fires twice")
}

func TestScheduleAfterFireStartsNewWindow(t *testing.T) {
	s, fc, calls := setupScheduler(t, 500*time.Millisecond)

	s.Schedule("first")
	fc.Advance(time.Second)
	s.Schedule("second")
	fc.Advance(time.Second)

	require.Len(t, *calls, 2)
	assert.Equal(t, "first", (*calls)[0].payload)
	assert.Equal(t, "second", (*calls)[1].payload)
}

func TestCancelDropsPending(t *testing.T) {
	s, fc, calls := setupScheduler(t, 500*time.Millisecond)

	s.Schedule("lost")
	s.Cancel()
	fc.Advance(time.Second)

	assert.Empty(t, *calls)
	assert.False(t, s.Pending())
	assert.Equal(t, 0, fc.Pending())
}

func TestFlushSavesImmediately(t *testing.T) {
	s, fc, calls := setupScheduler(t, 500*time.Millisecond)

	require.NoError(t, s.Flush(context.Background()), "flush while idle is a no-op")
	assert.Empty(t, *calls)

	s.Schedule("now")
	require.NoError(t, s.Flush(context.Background()))
	require.Len(t, *calls, 1)
	assert.Equal(t, "now", (*calls)[0].payload)

	fc.Advance(time.Second)
	assert.Len(t, *calls, 1, "flushed payload is not saved again by the timer")
}

func TestFlushReturnsSaveError(t *testing.T) {
	fc := clock.NewFake(time.Now())
	boom := errors.New("boom")
	s := New(fc, time.Second, func(context.Context, int) error { return boom })

	s.Schedule(1)
	assert.ErrorIs(t, s.Flush(context.Background()), boom)
	assert.False(t, s.Pending())
}

func TestFailedTimerSaveLeavesSchedulerIdle(t *testing.T) {
	fc := clock.NewFake(time.Now())
	s := New(fc, time.Second, func(context.Context, int) error { return errors.New("offline") })

	s.Schedule(1)
	fc.Advance(time.Second)
	assert.False(t, s.Pending())
}

func TestNonPositiveDelayUsesDefault(t *testing.T) {
	s := New[int](clock.NewFake(time.Now()), 0, func(context.Context, int) error { return nil })
	assert.Equal(t, DefaultDelay, s.delay)
}
