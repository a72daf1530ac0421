// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// memstore.go is an in-memory Store implementation. Tests run against
// it, and the server falls back to it when started with DB_DRIVER=memory
// so the API can be explored without PostgreSQL.
package category

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"wavecms/internal/models"
)

// MemStore holds categories and audio records in maps guarded by one
// mutex. Multi-row operations apply under a single lock acquisition,
// which gives them the same all-or-nothing visibility a transaction
// provides.
type MemStore struct {
	mu     sync.RWMutex
	cats   map[uuid.UUID]models.Category
	audios map[uuid.UUID]models.Audio

	// Latency, when set, delays every read. Used by benchmark tests to
	// make cold reads measurably slower than cache hits.
	Latency time.Duration
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		cats:   make(map[uuid.UUID]models.Category),
		audios: make(map[uuid.UUID]models.Audio),
	}
}

func (m *MemStore) delay() {
	if m.Latency > 0 {
		time.Sleep(m.Latency)
	}
}

// ListCategories returns every category row.
func (m *MemStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.delay()
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, 0, len(m.cats))
	for _, c := range m.cats {
		out = append(out, c)
	}
	return out, nil
}

// GetCategory returns a category or nil.
func (m *MemStore) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cats[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// CreateCategory inserts a category, assigning an id if absent.
func (m *MemStore) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *c
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.cats[stored.ID] = stored
	return &stored, nil
}

// UpdateCategory rewrites a category row.
func (m *MemStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *c
	stored.UpdatedAt = time.Now()
	m.cats[stored.ID] = stored
	return nil
}

// DeleteCategories removes the given rows atomically.
func (m *MemStore) DeleteCategories(ctx context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.cats, id)
	}
	return nil
}

// SetCategoriesActive flips is_active for the given rows atomically.
func (m *MemStore) SetCategoriesActive(ctx context.Context, ids []uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		c, ok := m.cats[id]
		if !ok {
			continue
		}
		c.IsActive = active
		c.UpdatedAt = time.Now()
		m.cats[id] = c
	}
	return nil
}

// CountAudioRefs counts direct audio references per category id.
func (m *MemStore) CountAudioRefs(ctx context.Context) (map[uuid.UUID]int, error) {
	m.delay()
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[uuid.UUID]int)
	for _, a := range m.audios {
		if a.CategoryID != nil {
			counts[*a.CategoryID]++
		}
		if a.SubcategoryID != nil {
			counts[*a.SubcategoryID]++
		}
	}
	return counts, nil
}

// ListAudios returns every audio record.
func (m *MemStore) ListAudios(ctx context.Context) ([]models.Audio, error) {
	m.delay()
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Audio, 0, len(m.audios))
	for _, a := range m.audios {
		out = append(out, a)
	}
	return out, nil
}

// GetAudio returns an audio record or nil.
func (m *MemStore) GetAudio(ctx context.Context, id uuid.UUID) (*models.Audio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.audios[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// PutAudio inserts or replaces an audio record. Not part of the Store
// contract; seeding and tests use it.
func (m *MemStore) PutAudio(a models.Audio) models.Audio {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	m.audios[a.ID] = a
	return a
}

// UpdateAudioClassification rewrites an audio record's category
// references and subject.
func (m *MemStore) UpdateAudioClassification(ctx context.Context, id uuid.UUID, categoryID, subcategoryID *uuid.UUID, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.audios[id]
	if !ok {
		return &NotFoundError{ID: id, Kind: "audio"}
	}
	a.CategoryID = categoryID
	a.SubcategoryID = subcategoryID
	a.Subject = subject
	a.UpdatedAt = time.Now()
	m.audios[id] = a
	return nil
}
