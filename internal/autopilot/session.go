package autopilot

import (
	"sort"
	"sync"
	"time"

	"github.com/lumina-io/lumina-core/internal/schedule"
)

// session holds the per-user active schedule for the current weekly cycle.
// All mutation goes through the session's mutex; readers get cloned
// snapshots so a half-updated list is never observable.
type session struct {
	userID string

	mu     sync.Mutex
	items  map[string]*schedule.Item
	timers map[string]*time.Timer
	fired  map[string]bool
	closed bool
}

func newSession(userID string) *session {
	return &session{
		userID: userID,
		items:  make(map[string]*schedule.Item),
		timers: make(map[string]*time.Timer),
		fired:  make(map[string]bool),
	}
}

// replace installs a fresh item list, cancelling every armed timer from the
// previous cycle first.
func (s *session) replace(items []*schedule.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimersLocked()
	s.items = make(map[string]*schedule.Item, len(items))
	s.fired = make(map[string]bool, len(items))
	for _, item := range items {
		s.items[item.ID] = item
	}
}

// snapshot returns the items as clones, sorted by scheduled time.
func (s *session) snapshot() []schedule.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schedule.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out
}

// get returns a clone of one item.
func (s *session) get(id string) (schedule.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return schedule.Item{}, false
	}
	return item.Clone(), true
}

// claimFire marks an item fired exactly once. The second caller, whether
// timer or periodic scan, gets false.
func (s *session) claimFire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.fired[id] {
		return false
	}
	item, ok := s.items[id]
	if !ok || item.State != schedule.StateScheduled {
		return false
	}
	s.fired[id] = true
	return true
}

// update applies a mutation to one item under the lock.
func (s *session) update(id string, fn func(*schedule.Item)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return false
	}
	fn(item)
	return true
}

// armTimer registers a one-shot timer for an item, replacing any prior one.
func (s *session) armTimer(id string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(d, fn)
}

// rearm returns a repeating item to the scheduled state for its next
// occurrence, clearing the fired flag so it can claim again.
func (s *session) rearm(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return
	}
	item.ScheduledTime = at
	item.State = schedule.StateScheduled
	s.fired[id] = false
}

// cancelTimer stops an armed timer for one item.
func (s *session) cancelTimer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// scheduledBefore lists IDs of un-fired scheduled items due at or before t.
func (s *session) scheduledBefore(t time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []string
	for id, item := range s.items {
		if item.State == schedule.StateScheduled && !s.fired[id] && !item.ScheduledTime.After(t) {
			due = append(due, id)
		}
	}
	sort.Strings(due)
	return due
}

// pendingIDs lists items awaiting user decision.
func (s *session) pendingIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for id, item := range s.items {
		if item.State == schedule.StatePending {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// close cancels all timers and blocks any further firing.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimersLocked()
}

func (s *session) stopTimersLocked() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
