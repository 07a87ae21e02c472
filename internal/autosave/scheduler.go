// Package autosave coalesces bursts of edits into a single save.
//
// A Scheduler is a debounce: every Schedule restarts one timer, and only
// when the timer runs out uncontested is the latest payload saved. There
// is never more than one pending write.
package autosave

import (
	"context"
	"sync"
	"time"

	"site-builder/internal/clock"

	"github.com/sirupsen/logrus"
)

const DefaultDelay = 2 * time.Second

type SaveFunc[T any] func(ctx context.Context, payload T) error

type Scheduler[T any] struct {
	clock clock.Clock
	delay time.Duration
	save  SaveFunc[T]
	log   *logrus.Entry

	mu      sync.Mutex
	timer   clock.Timer
	pending T
	has     bool
	gen     uint64
}

// New returns an idle scheduler. A non-positive delay falls back to
// DefaultDelay.
func New[T any](c clock.Clock, delay time.Duration, save SaveFunc[T]) *Scheduler[T] {
	if c == nil {
		c = clock.Real()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Scheduler[T]{
		clock: c,
		delay: delay,
		save:  save,
		log:   logrus.WithField("component", "autosave"),
	}
}

// Schedule replaces the pending payload and restarts the delay.
func (s *Scheduler[T]) Schedule(payload T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = payload
	s.has = true
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() { s.fire(gen) })
}

// Cancel drops the pending payload without saving it.
func (s *Scheduler[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Flush saves the pending payload now, if there is one.
func (s *Scheduler[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.has {
		s.mu.Unlock()
		return nil
	}
	payload := s.pending
	s.resetLocked()
	s.mu.Unlock()

	return s.save(ctx, payload)
}

// Pending reports whether a save is waiting on the timer.
func (s *Scheduler[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.has
}

func (s *Scheduler[T]) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.has {
		s.mu.Unlock()
		return
	}
	payload := s.pending
	s.resetLocked()
	s.mu.Unlock()

	if err := s.save(context.Background(), payload); err != nil {
		s.log.WithError(err).Warn("autosave failed")
	}
}

func (s *Scheduler[T]) resetLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	var zero T
	s.pending = zero
	s.has = false
	s.gen++
}
