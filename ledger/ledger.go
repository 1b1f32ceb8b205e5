// In-memory and redis-backed violation ledgers.
//
// A ledger records timestamped violation events keyed by (group, user) and
// aggregated per group, and answers sliding-window count queries. Events are
// retained for at most RetentionPeriod; expiry is lazy, triggered on every
// insertion, so memory stays bounded under continuous traffic without a
// background timer.
package ledger

import (
	"context"
	"time"
)

// Retention horizon for violation events. Any sliding window used for
// threshold decisions must be <= this; policy resolution clamps wider
// windows, and counts additionally never look past the horizon.
const RetentionPeriod = 24 * time.Hour

type Ledger interface {
	// Record appends a timestamped event to both the per-(group,user)
	// series and the per-group series. The kind tag is retained for
	// inspection but never filters counts.
	Record(ctx context.Context, groupID, userID, kind string) error
	// CountUser returns the number of events for (groupID, userID) with
	// timestamp strictly after now-window. Unknown keys count as zero.
	CountUser(ctx context.Context, groupID, userID string, window time.Duration) (int, error)
	// CountGroup is CountUser aggregated over the whole group.
	CountGroup(ctx context.Context, groupID string, window time.Duration) (int, error)
}

func userKey(groupID, userID string) string {
	return "user/" + groupID + "/" + userID
}

func groupKey(groupID string) string {
	return "group/" + groupID
}

// clampCutoff bounds a window cutoff to the retention horizon, so events
// past the horizon never contribute to a count even if a caller passes an
// oversized window.
func clampCutoff(now time.Time, window time.Duration) time.Time {
	cutoff := now.Add(-window)
	horizon := now.Add(-RetentionPeriod)
	if cutoff.Before(horizon) {
		return horizon
	}
	return cutoff
}
