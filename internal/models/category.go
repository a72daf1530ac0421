// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category levels. The classification tree is capped at two levels:
// root categories (level 1) and their direct children (level 2).
const (
	LevelRoot = 1
	LevelSub  = 2
)

// Category represents a node in the two-level audio classification tree.
// A nil ParentID means the category is a root (level 1); otherwise it is
// a subcategory (level 2) of the referenced root.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Level     int        `json:"level"`
	SortOrder int        `json:"sort_order"`
	IsActive  bool       `json:"is_active"`
	Color     string     `json:"color,omitempty"`
	Icon      string     `json:"icon,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Virtual fields populated by the tree model, never stored.
	Children   []Category `json:"children,omitempty"`
	AudioCount int        `json:"audio_count"`
}

// IsRoot returns true if the category sits at the top of the tree.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
