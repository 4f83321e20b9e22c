package engine

import (
	"sort"
	"sync"
	"time"
)

// pendingFile is a downloads entry whose size or mtime changed recently.
type pendingFile struct {
	size     int64
	modTime  time.Time
	lastSeen time.Time
}

// settleTracker holds files until they stop changing for the settle window.
type settleTracker struct {
	mu     sync.Mutex
	settle time.Duration
	files  map[string]pendingFile
}

// Creates a new settleTracker with the given quiet window.
func newSettleTracker(settle time.Duration) *settleTracker {
	return &settleTracker{
		settle: settle,
		files:  make(map[string]pendingFile),
	}
}

// observe records the latest size and mtime of name. The settle clock restarts
// whenever either differs from the previous observation.
func (t *settleTracker) observe(name string, size int64, modTime, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.files[name]
	if ok && prev.size == size && prev.modTime.Equal(modTime) {
		return false
	}
	t.files[name] = pendingFile{size: size, modTime: modTime, lastSeen: now}
	return true
}

// touch restarts the settle clock of name without new stat data.
func (t *settleTracker) touch(name string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.files[name]; ok {
		prev.lastSeen = now
		t.files[name] = prev
		return
	}
	t.files[name] = pendingFile{size: -1, lastSeen: now}
}

func (t *settleTracker) has(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.files[name]
	return ok
}

func (t *settleTracker) forget(name string) {
	t.mu.Lock()
	delete(t.files, name)
	t.mu.Unlock()
}

// names returns every pending name, sorted.
func (t *settleTracker) names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.files))
	for name := range t.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// due returns the names, sorted, whose settle window has elapsed at now.
func (t *settleTracker) due(now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var names []string
	for name, f := range t.files {
		if now.Sub(f.lastSeen) >= t.settle {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (t *settleTracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.files)
}

// returnedGrace keeps a returned name marked past its settle window.
const returnedGrace = 5 * time.Second

// recentNames remembers names for a limited time.
type recentNames struct {
	mu    sync.Mutex
	ttl   time.Duration
	names map[string]time.Time
}

func newRecentNames(ttl time.Duration) *recentNames {
	return &recentNames{ttl: ttl, names: make(map[string]time.Time)}
}

func (r *recentNames) add(name string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for n, expires := range r.names {
		if now.After(expires) {
			delete(r.names, n)
		}
	}
	r.names[name] = now.Add(r.ttl)
}

// take reports whether name was added and has not expired, and clears it.
func (r *recentNames) take(name string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	expires, ok := r.names[name]
	if !ok {
		return false
	}
	delete(r.names, name)
	return !now.After(expires)
}
