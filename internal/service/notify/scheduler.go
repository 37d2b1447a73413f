package notify

import (
	"sync"
	"time"
)

// Scheduler runs keyed one-shot tasks. Scheduling a key again cancels the
// task pending under that key.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*task
	seq     uint64
	stopped bool
}

type task struct {
	timer *time.Timer
	id    uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[string]*task)}
}

// After runs fn once d has elapsed unless the key is cancelled or
// rescheduled first. It is a no-op after Stop.
func (s *Scheduler) After(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
	}
	s.seq++
	id := s.seq
	t := &task{id: id}
	t.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		current, ok := s.tasks[key]
		if !ok || current.id != id {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, key)
		s.mu.Unlock()
		fn()
	})
	s.tasks[key] = t
}

// Cancel drops the task pending under key.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)
	return true
}

// Pending reports whether a task is waiting under key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// Stop cancels every pending task and rejects new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
	s.stopped = true
}
