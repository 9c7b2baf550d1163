package service

import (
	"slices"

	"github.com/MKhiriev/profile-sync/models"
)

// MutationQueue is the ordered log of updates not yet acknowledged by the
// server.
//
// The first Watermark items are frozen for the flush in flight; they are
// never reordered, removed or preceded by new items until the flush settles
// with Commit or Release. The queue offers no insertion API other than
// Append, and Restore and Discard refuse to run while items are frozen.
//
// MutationQueue is not safe for concurrent use; the engine guards it.
type MutationQueue struct {
	items     []models.PendingUpdate
	watermark int
}

func NewMutationQueue() *MutationQueue {
	return &MutationQueue{}
}

// Append adds u after the current tail.
func (q *MutationQueue) Append(u models.PendingUpdate) {
	q.items = append(q.items, u)
}

func (q *MutationQueue) Len() int {
	return len(q.items)
}

func (q *MutationQueue) Watermark() int {
	return q.watermark
}

// InFlight reports whether a flush holds frozen items.
func (q *MutationQueue) InFlight() bool {
	return q.watermark > 0
}

// Freeze selects the next batch: the leading run of updates addressed to
// the same profile. Updates without a profile key join the run and are
// addressed to the run's profile, or to fallback when no update of the run
// names one. It returns nil when the queue is empty or already frozen.
func (q *MutationQueue) Freeze(fallback models.ProfileKey) ([]models.PendingUpdate, models.ProfileKey) {
	if q.watermark > 0 || len(q.items) == 0 {
		return nil, models.ProfileKey{}
	}

	var target *models.ProfileKey
	n := 0
	for _, u := range q.items {
		if u.ProfileKey != nil {
			if target == nil {
				target = u.ProfileKey
			} else if *target != *u.ProfileKey {
				break
			}
		}
		n++
	}

	q.watermark = n
	key := fallback
	if target != nil {
		key = *target
	}

	return slices.Clone(q.items[:n]), key
}

// Commit drops the frozen items after the server acknowledged them.
func (q *MutationQueue) Commit() {
	q.items = slices.Delete(q.items, 0, q.watermark)
	q.watermark = 0
}

// Release unfreezes the items of a failed flush. They stay at the head in
// their original order, so the next Freeze selects the same batch.
func (q *MutationQueue) Release() {
	q.watermark = 0
}

// Restore puts persisted updates in front of the ones enqueued since start;
// they are older.
func (q *MutationQueue) Restore(items []models.PendingUpdate) error {
	if q.InFlight() {
		return ErrQueueFrozen
	}
	q.items = append(slices.Clone(items), q.items...)
	return nil
}

// Discard removes the updates for which drop returns true and reports how
// many were removed.
func (q *MutationQueue) Discard(drop func(models.PendingUpdate) bool) (int, error) {
	if q.InFlight() {
		return 0, ErrQueueFrozen
	}
	before := len(q.items)
	q.items = slices.DeleteFunc(q.items, drop)
	return before - len(q.items), nil
}

// HasFor reports whether any queued update targets key.
func (q *MutationQueue) HasFor(key models.ProfileKey) bool {
	return slices.ContainsFunc(q.items, func(u models.PendingUpdate) bool {
		return u.Targets(key)
	})
}

// Snapshot returns a copy of the queued updates.
func (q *MutationQueue) Snapshot() []models.PendingUpdate {
	return slices.Clone(q.items)
}
