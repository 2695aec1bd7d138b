// Package flood tracks per-chat, per-user message rates over a trailing
// time window, entirely in memory. State does not survive restarts, which
// is acceptable for flood detection.
package flood

import (
	"fmt"
	"sync"
	"time"
)

type key struct {
	chatID int64
	userID int64
}

type window struct {
	timestamps []time.Time
	lastSeen   time.Time
}

type Tracker struct {
	mu      sync.Mutex
	windows map[key]*window
}

func NewTracker() *Tracker {
	return &Tracker{
		windows: make(map[key]*window),
	}
}

// RecordAndCheck appends now to the key's window, prunes entries older than
// the window, and reports whether the remaining count (including the new
// entry) reaches the threshold. Append and check happen under one lock so
// two concurrent messages from the same flooder cannot both slip under the
// threshold.
//
// Threshold and window are per-chat configuration passed in by the caller;
// the tracker holds mechanism, not policy.
func (t *Tracker) RecordAndCheck(chatID, userID int64, now time.Time, threshold int, windowDuration time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{chatID: chatID, userID: userID}
	w, ok := t.windows[k]
	if !ok {
		w = &window{timestamps: make([]time.Time, 0, threshold+1)}
		t.windows[k] = w
	}
	w.lastSeen = now

	cutoff := now.Add(-windowDuration)
	valid := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	w.timestamps = append(valid, now)

	return len(w.timestamps) >= threshold
}

// Reset clears the window for a key. Called after a flood penalty so the
// offender's mute does not immediately re-trigger once it lifts.
func (t *Tracker) Reset(chatID, userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.windows, key{chatID: chatID, userID: userID})
}

// Prune drops keys idle longer than maxIdle so quiet users do not
// accumulate forever. Runs from a scheduler job.
func (t *Tracker) Prune(now time.Time, maxIdle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-maxIdle)
	removed := 0
	for k, w := range t.windows {
		if w.lastSeen.Before(cutoff) {
			delete(t.windows, k)
			removed++
		}
	}
	return removed
}

// Len reports how many keys are currently tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.windows)
}

func (t *Tracker) String() string {
	return fmt.Sprintf("flood.Tracker(%d keys)", t.Len())
}
