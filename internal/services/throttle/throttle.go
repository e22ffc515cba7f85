package throttle

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// KeyTranscription caps simultaneous transcription API calls across all
// workers. Summarization is deliberately not subject to the same cap.
const KeyTranscription = "transcription"

// DefaultTranscriptionLimit is the number of simultaneous transcription
// calls allowed when no limit is configured
const DefaultTranscriptionLimit = 3

// Limiter is a registry of named counting semaphores shared by every
// worker in the process. A unit that cannot acquire a slot stays queued in
// pending rather than busy-waiting; the worker releases its job and moves on.
type Limiter struct {
	mu     sync.Mutex
	limits map[string]int64
	sems   map[string]*semaphore.Weighted
}

// NewLimiter creates a limiter with per-key concurrency limits. Keys
// without an explicit limit are unthrottled.
func NewLimiter(limits map[string]int64) *Limiter {
	l := &Limiter{
		limits: make(map[string]int64, len(limits)),
		sems:   make(map[string]*semaphore.Weighted, len(limits)),
	}
	for key, limit := range limits {
		if limit > 0 {
			l.limits[key] = limit
			l.sems[key] = semaphore.NewWeighted(limit)
		}
	}
	return l
}

// TryAcquire attempts to take one slot for the key without blocking.
// Returns a release func on success, or false when the key is saturated.
// Unknown keys always succeed with a no-op release.
func (l *Limiter) TryAcquire(key string) (func(), bool) {
	l.mu.Lock()
	sem, ok := l.sems[key]
	l.mu.Unlock()

	if !ok {
		return func() {}, true
	}

	if !sem.TryAcquire(1) {
		return nil, false
	}

	var once sync.Once
	return func() {
		once.Do(func() { sem.Release(1) })
	}, true
}

// Limit returns the configured limit for the key, or 0 when unthrottled
func (l *Limiter) Limit(key string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limits[key]
}
