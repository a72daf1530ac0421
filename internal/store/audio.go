// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"wavecms/internal/models"
)

const audioColumns = `id, title, audio_url, duration_sec, category_id, subcategory_id, subject, created_at, updated_at`

// scanAudio scans a row into an Audio struct.
func scanAudio(scanner interface{ Scan(...any) error }) (*models.Audio, error) {
	var a models.Audio
	err := scanner.Scan(
		&a.ID, &a.Title, &a.AudioURL, &a.DurationSec,
		&a.CategoryID, &a.SubcategoryID, &a.Subject,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAudios returns every audio record ordered by title.
func (s *Store) ListAudios(ctx context.Context) ([]models.Audio, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+audioColumns+` FROM audios ORDER BY LOWER(title)`)
	if err != nil {
		return nil, fmt.Errorf("list audios: %w", err)
	}
	defer rows.Close()

	var items []models.Audio
	for rows.Next() {
		a, err := scanAudio(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audio: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// GetAudio retrieves an audio record by ID. Returns nil if not found.
func (s *Store) GetAudio(ctx context.Context, id uuid.UUID) (*models.Audio, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+audioColumns+` FROM audios WHERE id = $1`, id)
	a, err := scanAudio(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audio: %w", err)
	}
	return a, nil
}

// CreateAudio inserts a new audio record and returns the stored row.
func (s *Store) CreateAudio(ctx context.Context, a *models.Audio) (*models.Audio, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO audios (id, title, audio_url, duration_sec, category_id, subcategory_id, subject)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+audioColumns,
		a.ID, a.Title, a.AudioURL, a.DurationSec, a.CategoryID, a.SubcategoryID, a.Subject,
	)
	result, err := scanAudio(row)
	if err != nil {
		return nil, fmt.Errorf("create audio: %w", err)
	}
	return result, nil
}

// UpdateAudioClassification rewrites an audio record's normalized
// category references and legacy subject label.
func (s *Store) UpdateAudioClassification(ctx context.Context, id uuid.UUID, categoryID, subcategoryID *uuid.UUID, subject string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE audios SET category_id = $1, subcategory_id = $2, subject = $3, updated_at = NOW()
		WHERE id = $4
	`, categoryID, subcategoryID, subject, id)
	if err != nil {
		return fmt.Errorf("update audio classification: %w", err)
	}
	return nil
}

// CountAudioRefs counts, per category id, the audio records referencing
// it: by category_id for roots and by subcategory_id for subcategories.
func (s *Store) CountAudioRefs(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id AS id, COUNT(*) FROM audios WHERE category_id IS NOT NULL GROUP BY category_id
		UNION ALL
		SELECT subcategory_id AS id, COUNT(*) FROM audios WHERE subcategory_id IS NOT NULL GROUP BY subcategory_id
	`)
	if err != nil {
		return nil, fmt.Errorf("count audio refs: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan audio ref count: %w", err)
		}
		counts[id] += n
	}
	return counts, rows.Err()
}
