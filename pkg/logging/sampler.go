package logging

import (
	"log/slog"
	"sync"
)

// ErrorSampler throttles repeated failures for the same key. The first
// failure of a streak is always reported, then every Nth one.
type ErrorSampler struct {
	mu       sync.Mutex
	streaks  map[string]int
	interval int
	logger   *slog.Logger
}

func NewErrorSampler(interval int) *ErrorSampler {
	if interval < 1 {
		interval = 10
	}
	return &ErrorSampler{
		streaks:  make(map[string]int),
		interval: interval,
	}
}

// WithLogger sends sampled records to l instead of the default logger.
func (s *ErrorSampler) WithLogger(l *slog.Logger) *ErrorSampler {
	s.logger = l
	return s
}

// Observe records one failure for key and reports the streak length and
// whether this occurrence should be logged.
func (s *ErrorSampler) Observe(key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streaks[key]++
	n := s.streaks[key]
	return n, n == 1 || n%s.interval == 0
}

// Warn records a failure and logs msg at warn level if the sample admits it.
func (s *ErrorSampler) Warn(key, msg string, args ...any) {
	n, ok := s.Observe(key)
	if !ok {
		return
	}
	l := s.logger
	if l == nil {
		l = slog.Default()
	}
	l.Warn(msg, append(args, "occurrences", n)...)
}

// Recover ends the failure streak for key. It returns the streak length so
// callers can log a recovery line.
func (s *ErrorSampler) Recover(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.streaks[key]
	delete(s.streaks, key)
	return n
}
