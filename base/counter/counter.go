package counter

import "sync"

type Counter struct {
	count int
	mu    sync.RWMutex
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Add(val int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count += val
}

func (c *Counter) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Sequence hands out monotonically increasing int64 handles starting at 1.
// Listing and auction repositories own one each.
type Sequence struct {
	next int64
	mu   sync.Mutex
}

func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceFrom resumes a sequence after the given value, for repositories
// that reload persisted records on start.
func NewSequenceFrom(last int64) *Sequence {
	return &Sequence{next: last}
}

func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}
