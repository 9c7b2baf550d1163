package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/profile-sync/models"
)

type memoryItemID struct {
	userID    string
	accountID string
	version   int
	kind      models.ItemKind
	key       string
}

// memoryProfileRepository is an in-process [ProfileRepository] for tests and
// for running the server without PostgreSQL.
type memoryProfileRepository struct {
	mu     sync.RWMutex
	items  map[memoryItemID]models.ProfileItem
	clocks map[string]*Clock
	now    func() time.Time
}

func NewMemoryProfileRepository() ProfileRepository {
	return &memoryProfileRepository{
		items:  make(map[memoryItemID]models.ProfileItem),
		clocks: make(map[string]*Clock),
		now:    time.Now,
	}
}

func (m *memoryProfileRepository) ApplyMutations(_ context.Context, userID string, key models.ProfileKey, mutations []models.Mutation) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamp := m.clock(userID).Next(m.now().UnixMilli())
	for _, mut := range mutations {
		accountID, version := itemScope(key, mut.Kind)
		id := memoryItemID{userID: userID, accountID: accountID, version: version, kind: mut.Kind, key: mut.Key}

		item := models.ProfileItem{Kind: mut.Kind, Key: mut.Key, Deleted: mut.Delete, LastModified: stamp}
		if !mut.Delete {
			item.Value = append([]byte(nil), mut.Value...)
		}
		m.items[id] = item
	}

	return stamp, nil
}

func (m *memoryProfileRepository) FetchItems(_ context.Context, userID string, key models.ProfileKey, since int64, includeDeleted bool) ([]models.ProfileItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ProfileItem, 0)
	for id, item := range m.items {
		if id.userID != userID || item.LastModified <= since {
			continue
		}
		if item.Deleted && !includeDeleted {
			continue
		}
		inProfile := id.accountID == key.AccountID && id.version == key.Version
		isSetting := id.accountID == "" && id.version == 0 && id.kind == models.KindSetting
		if !inProfile && !isSetting {
			continue
		}
		out = append(out, item)
	}

	slices.SortFunc(out, func(a, b models.ProfileItem) int {
		return cmp.Or(
			cmp.Compare(a.LastModified, b.LastModified),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Key, b.Key),
		)
	})

	return out, nil
}

func (m *memoryProfileRepository) DeleteAccount(_ context.Context, userID, accountID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamp := m.clock(userID).Next(m.now().UnixMilli())
	var affected int64
	for id, item := range m.items {
		if id.userID != userID || item.Deleted {
			continue
		}
		if id.accountID != accountID && !(id.accountID == "" && id.kind == models.KindSetting) {
			continue
		}
		item.Deleted = true
		item.Value = nil
		item.LastModified = stamp
		m.items[id] = item
		affected++
	}

	return affected, nil
}

func (m *memoryProfileRepository) clock(userID string) *Clock {
	c, ok := m.clocks[userID]
	if !ok {
		c = NewClockAt(0)
		m.clocks[userID] = c
	}
	return c
}
