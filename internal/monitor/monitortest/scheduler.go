// Package monitortest provides a manually driven scheduler for tests of
// code built on monitor.Monitor.
package monitortest

import (
	"sort"
	"sync"
	"time"
)

// Scheduler fires callbacks only when told to. It satisfies
// monitor.Scheduler so tests can drive ticks deterministically.
type Scheduler struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]manualTask
}

type manualTask struct {
	interval time.Duration
	fn       func()
}

// NewScheduler an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[int]manualTask)}
}

func (s *Scheduler) Schedule(interval time.Duration, fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.tasks[id] = manualTask{interval: interval, fn: fn}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.tasks, id)
		s.mu.Unlock()
	}
}

// Fire runs every live callback once, in scheduling order
func (s *Scheduler) Fire() {
	for _, fn := range s.live() {
		fn()
	}
}

// Active the number of live callbacks
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Intervals of the live callbacks, in scheduling order
func (s *Scheduler) Intervals() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.sortedIDs()
	out := make([]time.Duration, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.tasks[id].interval)
	}
	return out
}

func (s *Scheduler) live() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.sortedIDs()
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.tasks[id].fn)
	}
	return fns
}

func (s *Scheduler) sortedIDs() []int {
	ids := make([]int, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
