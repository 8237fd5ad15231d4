package trace

import (
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// FirstSeen remembers names approximately. False positives make a new name
// look familiar; a seen name is never reported as new.
type FirstSeen struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewFirstSeen sizes the filter for n names at false-positive rate fp.
func NewFirstSeen(n uint, fp float64) *FirstSeen {
	return &FirstSeen{filter: bloom.NewWithEstimates(n, fp)}
}

// Mark records name and reports whether it was new. Names compare
// case-insensitively.
func (f *FirstSeen) Mark(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.filter.TestAndAdd([]byte(strings.ToLower(name)))
}

// Seen reports whether name was marked before.
func (f *FirstSeen) Seen(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter.Test([]byte(strings.ToLower(name)))
}
