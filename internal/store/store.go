// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store is the PostgreSQL persistence adapter for the category
// subsystem. It implements category.Store over a *sql.DB pool: point
// reads and writes per row, bulk scans, and transactional multi-row
// batches.
package store

import (
	"database/sql"
)

// Store bundles category and audio persistence over one connection pool.
type Store struct {
	db *sql.DB
}

// New returns a Store over the given pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}
