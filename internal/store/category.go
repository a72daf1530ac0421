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

const categoryColumns = `id, name, slug, parent_id, level, sort_order, is_active, color, icon, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Level,
		&c.SortOrder, &c.IsActive, &c.Color, &c.Icon,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns every category row, active or not, ordered by
// sort_order then name.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		ORDER BY sort_order, LOWER(name)
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// GetCategory retrieves a category by ID. Returns nil if not found.
func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// CreateCategory inserts a new category and returns the stored row.
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, name, slug, parent_id, level, sort_order, is_active, color, icon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+categoryColumns,
		c.ID, c.Name, c.Slug, c.ParentID, c.Level, c.SortOrder, c.IsActive, c.Color, c.Icon,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// UpdateCategory rewrites an existing category row.
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET
			name = $1, slug = $2, parent_id = $3, level = $4,
			sort_order = $5, is_active = $6, color = $7, icon = $8,
			updated_at = NOW()
		WHERE id = $9
	`, c.Name, c.Slug, c.ParentID, c.Level, c.SortOrder, c.IsActive, c.Color, c.Icon, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// DeleteCategories removes the given rows in a single transaction so a
// cascade or batch delete is all-or-nothing.
func (s *Store) DeleteCategories(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM categories WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("delete category %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// SetCategoriesActive flips is_active for the given rows in a single
// transaction.
func (s *Store) SetCategoriesActive(ctx context.Context, ids []uuid.UUID, active bool) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE categories SET is_active = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		return fmt.Errorf("prepare activate: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, active, id); err != nil {
			return fmt.Errorf("set category %s active: %w", id, err)
		}
	}
	return tx.Commit()
}
