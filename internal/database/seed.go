package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"wavecms/internal/slug"
)

// Seed populates the database with a small two-level demo taxonomy and
// a few audio records for development. No-op if categories already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	taxonomy := []struct {
		name, slug string
		children   []string
	}{
		{"Cardiology", "cardiology", []string{"Arrhythmia", "Heart Failure"}},
		{"Neurology", "neurology", []string{"Stroke", "Epilepsy"}},
		{"Surgery", "surgery", nil},
	}

	for i, root := range taxonomy {
		var rootID string
		err := db.QueryRow(`
			INSERT INTO categories (name, slug, level, sort_order)
			VALUES ($1, $2, 1, $3)
			RETURNING id
		`, root.name, root.slug, i).Scan(&rootID)
		if err != nil {
			return fmt.Errorf("seed root category %q: %w", root.name, err)
		}

		for j, child := range root.children {
			var childID string
			err := db.QueryRow(`
				INSERT INTO categories (name, slug, parent_id, level, sort_order)
				VALUES ($1, $2, $3, 2, $4)
				RETURNING id
			`, child, root.slug+"-"+slug.Generate(child), rootID, j).Scan(&childID)
			if err != nil {
				return fmt.Errorf("seed subcategory %q: %w", child, err)
			}

			// One demo audio per subcategory, subject pre-synced.
			_, err = db.Exec(`
				INSERT INTO audios (title, audio_url, duration_sec, category_id, subcategory_id, subject)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, child+" Episode 1", "https://cdn.wavecms.local/demo.mp3", 600, rootID, childID, child)
			if err != nil {
				return fmt.Errorf("seed audio for %q: %w", child, err)
			}
		}
	}

	slog.Info("database seeded with demo taxonomy", "roots", len(taxonomy))
	return nil
}

