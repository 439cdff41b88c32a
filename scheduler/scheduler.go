package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs named background tasks, either on a fixed interval or once
// after a delay. Registering a name twice replaces the earlier task.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]chan struct{}
	logger *zap.Logger
	done   chan struct{}
}

// New creates an empty Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tasks:  make(map[string]chan struct{}),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// register swaps in a fresh stop channel for name, stopping any older task.
func (s *Scheduler) register(name string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.tasks[name]; ok {
		close(old)
	}
	stop := make(chan struct{})
	s.tasks[name] = stop
	return stop
}

func (s *Scheduler) runSafely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked",
				zap.String("task", name), zap.Any("recover", r))
		}
	}()
	fn()
}

// AddTicker runs fn every interval until the task is removed or the
// scheduler stops. A panic in fn is logged and does not kill the loop.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn func()) {
	stop := s.register(name)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runSafely(name, fn)
			case <-stop:
				return
			case <-s.done:
				return
			}
		}
	}()
	s.logger.Info("scheduled task registered",
		zap.String("name", name), zap.Duration("interval", interval))
}

// AddDelay runs fn once after delay, unless removed or stopped first.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn func()) {
	stop := s.register(name)
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			s.runSafely(name, fn)
			s.mu.Lock()
			if s.tasks[name] == stop {
				delete(s.tasks, name)
			}
			s.mu.Unlock()
		case <-stop:
		case <-s.done:
		}
	}()
}

// Remove stops the named task. Unknown names are ignored.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.tasks[name]; ok {
		close(stop)
		delete(s.tasks, name)
	}
}

// Stop halts every task. Safe to call more than once.
func (s *Scheduler) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// Names returns the currently registered task names.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	return names
}
