package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type event struct {
	ts   time.Time
	kind string
}

// One append-only event series. Events are in arrival order; the mutex
// serializes appends, count scans, and expiry filtering for this key only,
// so unrelated groups never contend.
type series struct {
	mu     sync.Mutex
	events []event
}

// MemLedger keeps violation events in process memory, sharded per key via a
// concurrent map. Expiry runs synchronously on every Record: events older
// than RetentionPeriod are dropped and emptied keys are removed.
type MemLedger struct {
	series *xsync.MapOf[string, *series]

	// Now is the clock used for timestamps and cutoffs. Override in tests.
	Now func() time.Time
}

var _ Ledger = (*MemLedger)(nil)

func NewMemLedger() *MemLedger {
	return &MemLedger{
		series: xsync.NewMapOf[string, *series](),
		Now:    time.Now,
	}
}

func (l *MemLedger) Record(ctx context.Context, groupID, userID, kind string) error {
	now := l.Now()
	for _, key := range []string{userKey(groupID, userID), groupKey(groupID)} {
		l.append(key, event{ts: now, kind: kind})
	}
	l.expire(now)
	return nil
}

// append goes through Compute so that insertion and expiry-deletion of the
// same key are serialized by the map, and a series can never be revived
// after deletion with events silently dropped.
func (l *MemLedger) append(key string, ev event) {
	l.series.Compute(key, func(s *series, loaded bool) (*series, bool) {
		if !loaded {
			s = &series{}
		}
		s.mu.Lock()
		s.events = append(s.events, ev)
		s.mu.Unlock()
		return s, false
	})
}

func (l *MemLedger) CountUser(ctx context.Context, groupID, userID string, window time.Duration) (int, error) {
	return l.countSince(userKey(groupID, userID), clampCutoff(l.Now(), window)), nil
}

func (l *MemLedger) CountGroup(ctx context.Context, groupID string, window time.Duration) (int, error) {
	return l.countSince(groupKey(groupID), clampCutoff(l.Now(), window)), nil
}

func (l *MemLedger) countSince(key string, cutoff time.Time) int {
	s, ok := l.series.Load(key)
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ev := range s.events {
		if ev.ts.After(cutoff) {
			count++
		}
	}
	return count
}

// expire drops events past the retention horizon across all keys, and
// deletes keys whose series became empty. Worst case O(total retained
// events), which the 24h horizon keeps bounded.
func (l *MemLedger) expire(now time.Time) {
	horizon := now.Add(-RetentionPeriod)
	var stale []string
	l.series.Range(func(key string, s *series) bool {
		s.mu.Lock()
		kept := s.events[:0]
		for _, ev := range s.events {
			if ev.ts.After(horizon) {
				kept = append(kept, ev)
			}
		}
		s.events = kept
		empty := len(kept) == 0
		s.mu.Unlock()
		if empty {
			stale = append(stale, key)
		}
		return true
	})
	for _, key := range stale {
		l.series.Compute(key, func(s *series, loaded bool) (*series, bool) {
			if !loaded {
				return nil, true
			}
			s.mu.Lock()
			empty := len(s.events) == 0
			s.mu.Unlock()
			// a concurrent Record may have appended since the scan
			return s, empty
		})
	}
}
