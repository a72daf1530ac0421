// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package category implements the two-level audio classification
// subsystem: the in-memory tree model, structural invariant validation,
// the mutation engine that is the sole writer of category rows, the
// consistency diagnostic engine, the legacy-subject compatibility sync
// engine, and the read-path query cache.
package category

import (
	"context"

	"github.com/google/uuid"

	"wavecms/internal/models"
)

// Store is the persistence boundary the subsystem talks to. The pgx
// implementation lives in internal/store; MemStore provides the same
// contract in memory for tests and database-less development.
//
// Multi-row operations (DeleteCategories, SetCategoriesActive) must be
// atomic: either every row is applied or none is.
type Store interface {
	// ListCategories returns every category row, active or not, with
	// no derived fields populated.
	ListCategories(ctx context.Context) ([]models.Category, error)

	// GetCategory returns the category with the given id, or nil if it
	// does not exist.
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)

	// CreateCategory inserts a new category and returns the stored row.
	CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error)

	// UpdateCategory rewrites an existing category row.
	UpdateCategory(ctx context.Context, c *models.Category) error

	// DeleteCategories removes the given rows in a single transaction.
	DeleteCategories(ctx context.Context, ids []uuid.UUID) error

	// SetCategoriesActive flips is_active for the given rows in a
	// single transaction.
	SetCategoriesActive(ctx context.Context, ids []uuid.UUID, active bool) error

	// CountAudioRefs returns, per category id, the number of audio
	// records referencing it: by category_id for roots and by
	// subcategory_id for subcategories. A consistent audio record with
	// both ids set counts once toward each.
	CountAudioRefs(ctx context.Context) (map[uuid.UUID]int, error)

	// ListAudios returns every audio record.
	ListAudios(ctx context.Context) ([]models.Audio, error)

	// GetAudio returns the audio record with the given id, or nil if it
	// does not exist.
	GetAudio(ctx context.Context, id uuid.UUID) (*models.Audio, error)

	// UpdateAudioClassification rewrites an audio record's category
	// reference pair and legacy subject label.
	UpdateAudioClassification(ctx context.Context, id uuid.UUID, categoryID, subcategoryID *uuid.UUID, subject string) error
}

// Snapshot is a point-in-time read of everything the diagnostic and
// sync engines inspect. It is taken directly from the Store, bypassing
// any cache, and is never held under a lock: a concurrent mutation may
// invalidate it, which is acceptable because repairs re-validate
// against current state before writing.
type Snapshot struct {
	Categories []models.Category
	Audios     []models.Audio
}

// TakeSnapshot reads categories and audio records from the store.
func TakeSnapshot(ctx context.Context, s Store) (*Snapshot, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	audios, err := s.ListAudios(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Categories: cats, Audios: audios}, nil
}
