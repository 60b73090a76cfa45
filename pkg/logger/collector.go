package logger

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

// AggregatedWarning is one deduplicated advisory warning with an
// occurrence count.
type AggregatedWarning struct {
	Kind      string
	Message   string
	Count     int
	FirstSeen time.Time
	LastSeen  time.Time
}

// WarningCollector aggregates data-quality warnings for one run.
// Duplicate warnings (same kind and message) are counted, not appended,
// so a batch of a million rows cannot flood run metadata. Safe for
// concurrent use; Drain hands the collected set to the run summary and
// resets the collector.
type WarningCollector struct {
	mu    sync.Mutex
	byKey map[string]*AggregatedWarning
	order []string
}

// NewWarningCollector creates an empty collector.
func NewWarningCollector() *WarningCollector {
	return &WarningCollector{byKey: make(map[string]*AggregatedWarning)}
}

// Add records one warning occurrence.
func (c *WarningCollector) Add(kind, message string) {
	now := time.Now()
	key := warningKey(kind, message)

	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.byKey[key]; ok {
		w.Count++
		w.LastSeen = now
		return
	}
	c.byKey[key] = &AggregatedWarning{
		Kind:      kind,
		Message:   message,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	c.order = append(c.order, key)
}

// Len returns the number of distinct warnings collected so far.
func (c *WarningCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

// Drain returns the collected warnings in insertion order and resets the
// collector for the next run.
func (c *WarningCollector) Drain() []AggregatedWarning {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]AggregatedWarning, 0, len(c.byKey))
	for _, key := range c.order {
		if w, ok := c.byKey[key]; ok {
			out = append(out, *w)
		}
	}
	// Insertion order is already stable; sort only ties on kind for a
	// deterministic report when concurrent adds interleave.
	sort.SliceStable(out, func(i, j int) bool { return out[i].FirstSeen.Before(out[j].FirstSeen) })

	c.byKey = make(map[string]*AggregatedWarning)
	c.order = nil
	return out
}

func warningKey(kind, message string) string {
	hash := sha256.Sum256([]byte(kind + "\x00" + message))
	return fmt.Sprintf("%x", hash)
}
