package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// memRepo is an in-memory ItemRepository used to observe exactly which
// status transitions the pipeline applies.
type memRepo struct {
	items map[string]*domain.Item
	seq   int
}

var _ ports.ItemRepository = (*memRepo)(nil)

var errMemNotFound = fmt.Errorf("item not found")

func newMemRepo() *memRepo {
	return &memRepo{items: map[string]*domain.Item{}}
}

func (m *memRepo) Insert(_ context.Context, item domain.Item) (string, error) {
	id := domain.Fingerprint(item.Title, item.Link)
	if _, ok := m.items[id]; ok {
		return id, nil
	}

	m.seq++
	item.ID = id
	if item.Status == "" {
		item.Status = domain.StatusPendingReview
	}
	item.CreatedAt = time.Unix(int64(m.seq), 0).UTC()
	item.UpdatedAt = item.CreatedAt
	m.items[id] = &item
	return id, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*domain.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, errMemNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *memRepo) ListByStatus(_ context.Context, status domain.Status, limit int) ([]domain.Item, error) {
	var out []domain.Item
	for _, item := range m.items {
		if item.Status == status {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) ListByStatusWithin(ctx context.Context, status domain.Status, _ time.Duration, limit int) ([]domain.Item, error) {
	return m.ListByStatus(ctx, status, limit)
}

func (m *memRepo) SetStatus(_ context.Context, id string, status domain.Status) error {
	item, ok := m.items[id]
	if !ok {
		return errMemNotFound
	}
	item.Status = status
	item.UpdatedAt = item.UpdatedAt.Add(time.Second)
	return nil
}

func (m *memRepo) SetDetail(_ context.Context, id string, secondary, mediaURL, imageURL string) error {
	item, ok := m.items[id]
	if !ok {
		return errMemNotFound
	}
	item.Secondary = secondary
	item.MediaURL = mediaURL
	item.ImageURL = imageURL
	item.UpdatedAt = item.UpdatedAt.Add(time.Second)
	return nil
}

func (m *memRepo) SetTranslation(_ context.Context, id string, title, secondary string) error {
	item, ok := m.items[id]
	if !ok {
		return errMemNotFound
	}
	item.TranslatedTitle = title
	item.TranslatedSecondary = secondary
	item.UpdatedAt = item.UpdatedAt.Add(time.Second)
	return nil
}

func (m *memRepo) CleanupOldRecords(_ context.Context, keep int) (int64, error) {
	if len(m.items) <= keep {
		return 0, nil
	}

	all := make([]*domain.Item, 0, len(m.items))
	for _, item := range m.items {
		all = append(all, item)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	var deleted int64
	for _, item := range all[keep:] {
		delete(m.items, item.ID)
		deleted++
	}
	return deleted, nil
}
