package ledger

import (
	"sort"
	"sync"
)

// StreamLocks serializes compound operations per stream key, so two
// concurrent validations cannot both read the same pre-update balance.
// Unrelated materials proceed in parallel.
type StreamLocks struct {
	mu    sync.Mutex
	locks map[StreamKey]*sync.Mutex
}

// NewStreamLocks creates an empty lock registry.
func NewStreamLocks() *StreamLocks {
	return &StreamLocks{locks: make(map[StreamKey]*sync.Mutex)}
}

func (l *StreamLocks) get(key StreamKey) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// Lock acquires the mutexes for all given streams in deterministic key
// order (prevents lock-order deadlock between compound operations) and
// returns the release function. Duplicate keys are collapsed.
func (l *StreamLocks) Lock(keys ...StreamKey) (unlock func()) {
	uniq := make([]StreamKey, 0, len(keys))
	seen := make(map[StreamKey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, k := range uniq {
		m := l.get(k)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
