// Package usage accumulates per-call counters reported by a model server.
package usage

import (
	"sync"
	"time"
)

// Count holds the counters reported for a single generate call, or their sum
// over several calls.
type Count struct {
	PromptTokens   int           // Tokens evaluated from the prompt.
	ResponseTokens int           // Tokens generated in the response.
	Duration       time.Duration // Server-side wall time.
}

// Total returns the sum of prompt and response tokens.
func (c Count) Total() int {
	return c.PromptTokens + c.ResponseTokens
}

func (c Count) plus(o Count) Count {
	return Count{
		PromptTokens:   c.PromptTokens + o.PromptTokens,
		ResponseTokens: c.ResponseTokens + o.ResponseTokens,
		Duration:       c.Duration + o.Duration,
	}
}

// Tracker keeps the latest count and a running sum. The zero value is ready
// to use and safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	calls int
	last  Count
	sum   Count
}

// Add records the counters of one call.
func (t *Tracker) Add(c Count) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls++
	t.last = c
	t.sum = t.sum.plus(c)
}

// Last returns the counters of the most recent call, or false if none was
// recorded.
func (t *Tracker) Last() (Count, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.calls > 0
}

// Total returns the sum over every recorded call.
func (t *Tracker) Total() Count {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.sum
}

// Count returns the number of recorded calls.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls
}
