package pipeline

import (
	"sync"

	"go.uber.org/atomic"
)

// InsertedCounters tracks the per-table count of inserts that actually
// succeeded, incremented by the LatencyCollector. The bitmap in
// tablekey.State already reflects every attempted insert at the moment it
// is scheduled, so in the presence of failed inserts this counter can lag
// the ordinal space — an accepted approximation, not a bug.
type InsertedCounters struct {
	mu       sync.Mutex
	perTable map[string]*atomic.Int64
}

// NewInsertedCounters returns an empty InsertedCounters.
func NewInsertedCounters() *InsertedCounters {
	return &InsertedCounters{perTable: make(map[string]*atomic.Int64)}
}

// Increment atomically bumps table's counter by one, creating it on first use.
func (c *InsertedCounters) Increment(table string) int64 {
	return c.counterFor(table).Inc()
}

// Count returns table's current counter value (zero if never incremented).
func (c *InsertedCounters) Count(table string) int64 {
	c.mu.Lock()
	ctr, ok := c.perTable[table]
	c.mu.Unlock()
	if !ok {
		return 0
	}
	return ctr.Load()
}

func (c *InsertedCounters) counterFor(table string) *atomic.Int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctr, ok := c.perTable[table]
	if !ok {
		ctr = atomic.NewInt64(0)
		c.perTable[table] = ctr
	}
	return ctr
}
