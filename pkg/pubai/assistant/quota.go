// Package assistant – quota.go implements the rolling-window request quota.
//
// Per identity, three logical states: Unlimited (in the Unlocked set,
// terminal), Within-Quota (fewer than Limit requests in the trailing
// window), Exhausted. Pruning is lazy: expired timestamps are dropped when
// an identity's quota is next checked, never by a background task.
package assistant

import (
	"log/slog"
	"time"
)

// QuotaTracker enforces the rolling-window quota over the state store.
type QuotaTracker struct {
	limit  int
	window time.Duration
	store  *Store
	logger *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewQuotaTracker creates a tracker with the given limit and window.
func NewQuotaTracker(cfg QuotaConfig, store *Store, logger *slog.Logger) *QuotaTracker {
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 3
	}
	window := time.Duration(cfg.WindowMinutes) * time.Minute
	if window <= 0 {
		window = 3 * time.Hour
	}
	return &QuotaTracker{
		limit:  limit,
		window: window,
		store:  store,
		logger: logger.With("component", "quota"),
		now:    time.Now,
	}
}

// Decision is the result of a quota check.
type Decision struct {
	// Allowed is true if the identity may send a request now.
	Allowed bool

	// Unlimited is true for permanently unlocked identities; Remaining is
	// meaningless when set.
	Unlimited bool

	// Remaining is how many requests are left in the current window.
	Remaining int

	// RetryAfter is how long until a slot re-opens, rounded up to whole
	// minutes so the wait is never under-reported. Zero when Allowed.
	RetryAfter time.Duration
}

// Limit returns the configured per-window request limit.
func (q *QuotaTracker) Limit() int { return q.limit }

// Window returns the configured trailing window.
func (q *QuotaTracker) Window() time.Duration { return q.window }

// Check evaluates the identity's quota state. Expired timestamps are pruned
// in memory as a side effect; the pruned view is not flushed to disk until
// the next mutating operation.
func (q *QuotaTracker) Check(id string) Decision {
	now := q.now()
	cutoff := now.Add(-q.window).UnixMilli()

	var d Decision
	q.store.Update(func(doc *StateDocument) bool {
		if doc.HasUnlocked(id) {
			d = Decision{Allowed: true, Unlimited: true}
			return false
		}

		times := pruneOlderThan(doc.Usage[id], cutoff)
		if len(times) == 0 {
			delete(doc.Usage, id)
		} else {
			doc.Usage[id] = times
		}

		if len(times) < q.limit {
			d = Decision{Allowed: true, Remaining: q.limit - len(times)}
			return false
		}

		// Exhausted: the oldest in-window entry is the one that expires
		// first and re-opens a slot.
		oldest := time.UnixMilli(times[0])
		wait := q.window - now.Sub(oldest)
		d = Decision{RetryAfter: ceilMinutes(wait)}
		return false
	})
	return d
}

// Consume records one request for the identity and persists. No-op for
// unlocked identities. Must be called exactly once per accepted request,
// after the blocking/filter checks.
func (q *QuotaTracker) Consume(id string) {
	now := q.now().UnixMilli()
	q.store.Update(func(doc *StateDocument) bool {
		if doc.HasUnlocked(id) {
			return false
		}
		doc.Usage[id] = append(doc.Usage[id], now)
		return true
	})
}

// Unlock grants the identity permanent unlimited quota. Idempotent; the
// second call is a no-op on storage.
func (q *QuotaTracker) Unlock(id string) {
	q.store.Update(func(doc *StateDocument) bool {
		if doc.HasUnlocked(id) {
			return false
		}
		doc.Unlocked = append(doc.Unlocked, id)
		return true
	})
	q.logger.Info("permanent unlock granted", "user", id)
}

// IsUnlocked reports whether the identity has permanent unlimited quota.
func (q *QuotaTracker) IsUnlocked(id string) bool {
	var unlocked bool
	q.store.View(func(doc *StateDocument) {
		unlocked = doc.HasUnlocked(id)
	})
	return unlocked
}

// Reset clears the identity's usage history and persists.
func (q *QuotaTracker) Reset(id string) {
	q.store.Update(func(doc *StateDocument) bool {
		if _, ok := doc.Usage[id]; !ok {
			return false
		}
		delete(doc.Usage, id)
		return true
	})
	q.logger.Info("quota reset", "user", id)
}

// ---------- Helpers ----------

// pruneOlderThan returns the timestamps strictly newer than cutoff.
// An entry exactly at the cutoff is considered expired. Pure function;
// input order (chronological) is preserved.
func pruneOlderThan(seq []int64, cutoff int64) []int64 {
	out := make([]int64, 0, len(seq))
	for _, t := range seq {
		if t > cutoff {
			out = append(out, t)
		}
	}
	return out
}

// ceilMinutes rounds a duration up to whole minutes.
func ceilMinutes(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Minute
	}
	mins := (d + time.Minute - 1) / time.Minute
	return mins * time.Minute
}
