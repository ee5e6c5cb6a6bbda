package motion

import (
	"sync"
	"time"
)

// MotionLog is the bounded per-camera history of accepted detections.
// Insertion order is chronological order. It has a single writer (the
// camera's own pipeline); the synchronizer reads copies via Snapshot, so
// concurrent appends never invalidate a reader's view.
type MotionLog struct {
	mu       sync.RWMutex
	entries  []Detection
	capacity int
}

// NewMotionLog returns an empty log holding at most capacity detections.
func NewMotionLog(capacity int) *MotionLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &MotionLog{capacity: capacity}
}

// Append records an accepted detection, evicting the oldest entry when the
// log is full.
func (l *MotionLog) Append(d Detection) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries[len(l.entries)-1] = d
		return
	}
	l.entries = append(l.entries, d)
}

// Len returns the number of stored detections.
func (l *MotionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Snapshot returns a copy of the log, oldest first.
func (l *MotionLog) Snapshot() []Detection {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Detection, len(l.entries))
	copy(out, l.entries)
	return out
}

// Last returns a copy of the most recent n detections, oldest first.
func (l *MotionLog) Last(n int) []Detection {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Detection, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// RecentSince returns a copy of all detections with timestamps strictly
// after cutoff, oldest first.
func (l *MotionLog) RecentSince(cutoff time.Time) []Detection {
	l.mu.RLock()
	defer l.mu.RUnlock()
	// Entries are time-ordered; find the first one after the cutoff.
	i := len(l.entries)
	for i > 0 && l.entries[i-1].Timestamp.After(cutoff) {
		i--
	}
	out := make([]Detection, len(l.entries)-i)
	copy(out, l.entries[i:])
	return out
}

// Clear drops all entries. Only used on explicit session restarts.
func (l *MotionLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}
