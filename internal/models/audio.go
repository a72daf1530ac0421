// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Audio represents an audio record in the library. Classification is
// carried twice for backward compatibility: the normalized CategoryID /
// SubcategoryID pair references the category tree, while Subject is the
// legacy free-text label that predates it. Once a normalized reference
// is present it is the source of truth and Subject is kept in sync from
// it, never the other way around.
type Audio struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	AudioURL      string     `json:"audio_url"`
	DurationSec   int        `json:"duration_sec"`
	CategoryID    *uuid.UUID `json:"category_id"`
	SubcategoryID *uuid.UUID `json:"subcategory_id"`
	Subject       string     `json:"subject"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
