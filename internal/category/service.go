// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// service.go is the mutation engine and the cached read path. The
// service is the only writer of category rows: every mutation validates
// the resulting state, commits through the store, and invalidates the
// affected cache entries before reporting success. Writes serialize on
// a single lock.
package category

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wavecms/internal/models"
	"wavecms/internal/slug"
)

// Listing formats.
const (
	FormatTree = "tree"
	FormatFlat = "flat"
)

// ListQuery describes one read of the category listing surface.
type ListQuery struct {
	Format          string // "tree" or "flat"
	IncludeInactive bool
	IncludeCount    bool
	ParentID        *uuid.UUID // children-of listing when set
	Level           int        // 0 = all levels (flat listings only)
}

// Key returns the deterministic cache signature for the query.
func (q ListQuery) Key() string {
	if q.ParentID != nil {
		return Key("byParent",
			"parent="+q.ParentID.String(),
			boolParam("includeInactive", q.IncludeInactive),
			boolParam("includeCount", q.IncludeCount),
		)
	}
	format := q.Format
	if format != FormatTree {
		format = FormatFlat
	}
	return Key(format,
		boolParam("includeInactive", q.IncludeInactive),
		boolParam("includeCount", q.IncludeCount),
		fmt.Sprintf("level=%d", q.Level),
	)
}

// ListingInvalidator is the hook into the optional L2 listing cache.
// The service calls it after every committed mutation, before the
// mutation returns success to its caller.
type ListingInvalidator interface {
	InvalidateAll(ctx context.Context)
}

// Service owns all category reads and writes. Construct one per
// process; it is safe for concurrent use.
type Service struct {
	store Store
	cache *QueryCache
	diag  *Diagnostic
	sync  *Syncer

	// writeMu serializes mutations. Reads never take it.
	writeMu chMutex

	listings ListingInvalidator
}

// chMutex is a channel-based mutex so mutations can honor context
// cancellation while waiting for the write lock.
type chMutex chan struct{}

func (m chMutex) lock(ctx context.Context) error {
	select {
	case m <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m chMutex) unlock() { <-m }

// NewService creates the service with its diagnostic and sync engines.
func NewService(store Store, cache *QueryCache, penalties Penalties) *Service {
	if cache == nil {
		cache = NewQueryCache(0, 0)
	}
	return &Service{
		store:   store,
		cache:   cache,
		diag:    NewDiagnostic(penalties),
		sync:    NewSyncer(store),
		writeMu: make(chMutex, 1),
	}
}

// SetListingCache attaches the optional L2 listing cache. May be left
// unset; the service then runs with the in-process cache only.
func (s *Service) SetListingCache(inv ListingInvalidator) {
	s.listings = inv
}

// Cache exposes the query cache for stats and operator tooling.
func (s *Service) Cache() *QueryCache {
	return s.cache
}

// --- Read path ---

// List serves a listing query through the cache. On a miss the result
// is computed from a fresh store read, stored, and returned; cached and
// computed results are always identical absent intervening mutations.
func (s *Service) List(ctx context.Context, q ListQuery) ([]models.Category, error) {
	key := q.Key()
	start := time.Now()

	if v, ok := s.cache.Get(key); ok {
		s.cache.Record(key, time.Since(start), true)
		return v.([]models.Category), nil
	}

	items, err := s.compute(ctx, q)
	if err != nil {
		return nil, err
	}
	s.cache.Put(key, items)
	s.cache.Record(key, time.Since(start), false)
	return items, nil
}

// compute evaluates a listing query against a fresh snapshot.
func (s *Service) compute(ctx context.Context, q ListQuery) ([]models.Category, error) {
	flat, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if q.IncludeCount {
		counts, err := s.store.CountAudioRefs(ctx)
		if err != nil {
			return nil, fmt.Errorf("count audio refs: %w", err)
		}
		for i := range flat {
			flat[i].AudioCount = counts[flat[i].ID]
		}
	}

	tree := NewTree(flat)

	switch {
	case q.ParentID != nil:
		return filterActive(tree.Children(*q.ParentID), q.IncludeInactive), nil
	case q.Format == FormatTree:
		return nestedListing(tree, q.IncludeInactive), nil
	default:
		items := filterActive(tree.Flat(), q.IncludeInactive)
		if q.Level != 0 {
			items = filterLevel(items, q.Level)
		}
		return items, nil
	}
}

// nestedListing projects the tree view, hiding inactive roots (children
// included) and inactive children unless inactive records were asked for.
func nestedListing(tree *Tree, includeInactive bool) []models.Category {
	nested := tree.Nested()
	if includeInactive {
		return nested
	}
	out := make([]models.Category, 0, len(nested))
	for _, root := range nested {
		if !root.IsActive {
			continue
		}
		root.Children = filterActive(root.Children, false)
		out = append(out, root)
	}
	return out
}

func filterActive(items []models.Category, includeInactive bool) []models.Category {
	if includeInactive {
		return items
	}
	out := make([]models.Category, 0, len(items))
	for _, c := range items {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

func filterLevel(items []models.Category, level int) []models.Category {
	out := make([]models.Category, 0, len(items))
	for _, c := range items {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out
}

// --- Mutations ---

// CreateRequest describes a new category. Level is never supplied: it
// is derived from the presence of ParentID.
type CreateRequest struct {
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id"`
	SortOrder *int       `json:"sort_order"`
	IsActive  *bool      `json:"is_active"`
	Color     string     `json:"color"`
	Icon      string     `json:"icon"`
}

// UpdateRequest is an explicit optional-field patch: nil leaves a field
// unchanged, non-nil replaces it. Clearing the parent (promoting a
// subcategory to root) is a distinct flag so "absent" and "explicitly
// cleared" never blur.
type UpdateRequest struct {
	Name        *string    `json:"name"`
	ParentID    *uuid.UUID `json:"parent_id"`
	ClearParent bool       `json:"clear_parent"`
	SortOrder   *int       `json:"sort_order"`
	IsActive    *bool      `json:"is_active"`
	Color       *string    `json:"color"`
	Icon        *string    `json:"icon"`
}

// DeleteOptions selects the deletion mode. Default (both false) rejects
// deletion of categories with active children or audio associations.
type DeleteOptions struct {
	Force   bool `json:"force"`
	Cascade bool `json:"cascade"`
}

// Create validates and persists a new category.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Category, error) {
	if err := s.writeMu.lock(ctx); err != nil {
		return nil, err
	}
	defer s.writeMu.unlock()

	flat, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	c := models.Category{
		ID:       uuid.New(),
		Name:     req.Name,
		ParentID: req.ParentID,
		Level:    models.LevelRoot,
		IsActive: true,
		Color:    req.Color,
		Icon:     req.Icon,
	}
	if req.ParentID != nil {
		c.Level = models.LevelSub
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		c.SortOrder = *req.SortOrder
	} else {
		c.SortOrder = nextSortOrder(flat, req.ParentID)
	}
	c.Slug = uniqueSlug(c.Name, c.ID, flat)

	if err := checkRules(c, flat); err != nil {
		return nil, err
	}

	created, err := s.store.CreateCategory(ctx, &c)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx, affectedIDs(created, nil))
	slog.Info("category created", "id", created.ID, "name", created.Name, "level", created.Level)
	return created, nil
}

// Update applies a patch and re-validates the resulting record, not
// just the patch, against every invariant.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdateRequest) (*models.Category, error) {
	if err := s.writeMu.lock(ctx); err != nil {
		return nil, err
	}
	defer s.writeMu.unlock()

	current, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if current == nil {
		return nil, &NotFoundError{ID: id, Kind: "category"}
	}

	next := *current
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	switch {
	case patch.ClearParent:
		next.ParentID = nil
	case patch.ParentID != nil:
		next.ParentID = patch.ParentID
	}
	if patch.SortOrder != nil {
		next.SortOrder = *patch.SortOrder
	}
	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}
	if patch.Color != nil {
		next.Color = *patch.Color
	}
	if patch.Icon != nil {
		next.Icon = *patch.Icon
	}

	// Level is derived state, re-computed whenever the parent changes.
	next.Level = models.LevelRoot
	if next.ParentID != nil {
		next.Level = models.LevelSub
	}

	flat, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if patch.Name != nil && next.Name != current.Name {
		next.Slug = uniqueSlug(next.Name, next.ID, flat)
	}

	if err := checkRules(next, flat); err != nil {
		return nil, err
	}

	if err := s.store.UpdateCategory(ctx, &next); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	s.invalidate(ctx, affectedIDs(&next, current))
	slog.Info("category updated", "id", next.ID, "name", next.Name)
	return &next, nil
}

// Delete removes a category. Default mode conflicts on active children
// or audio associations; cascade removes level-2 children first in the
// same atomic batch; force deletes regardless, orphaning references for
// the diagnostic engine to flag.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, opts DeleteOptions) error {
	if err := s.writeMu.lock(ctx); err != nil {
		return err
	}
	defer s.writeMu.unlock()

	ids, affected, err := s.planDelete(ctx, id, opts)
	if err != nil {
		return err
	}

	if err := s.store.DeleteCategories(ctx, ids); err != nil {
		return fmt.Errorf("delete categories: %w", err)
	}
	s.invalidate(ctx, affected)
	slog.Info("category deleted", "id", id, "cascade", opts.Cascade, "force", opts.Force, "rows", len(ids))
	return nil
}

// planDelete resolves which rows a delete touches and enforces the
// conflict rules for the chosen mode. Caller holds the write lock.
func (s *Service) planDelete(ctx context.Context, id uuid.UUID, opts DeleteOptions) ([]uuid.UUID, []uuid.UUID, error) {
	current, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get category: %w", err)
	}
	if current == nil {
		return nil, nil, &NotFoundError{ID: id, Kind: "category"}
	}

	flat, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list categories: %w", err)
	}
	tree := NewTree(flat)
	children := tree.Children(id)

	// Cascade resolves the active-children conflict only. Audio
	// references still block the delete unless force is set.
	if !opts.Force {
		var activeChildren int
		if !opts.Cascade {
			for _, ch := range children {
				if ch.IsActive {
					activeChildren++
				}
			}
		}
		counts, err := s.store.CountAudioRefs(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("count audio refs: %w", err)
		}
		if activeChildren > 0 || counts[id] > 0 {
			return nil, nil, &ConflictError{ID: id, ActiveChildren: activeChildren, AudioCount: counts[id]}
		}
	}

	ids := []uuid.UUID{id}
	affected := []uuid.UUID{id}
	if current.ParentID != nil {
		affected = append(affected, *current.ParentID)
	}
	if opts.Cascade {
		for _, ch := range children {
			ids = append(ids, ch.ID)
			affected = append(affected, ch.ID)
		}
	}
	return ids, affected, nil
}

// Batch operations.
const (
	BatchActivate   = "activate"
	BatchDeactivate = "deactivate"
	BatchDelete     = "delete"
)

// BatchResult reports an applied batch.
type BatchResult struct {
	Op        string      `json:"op"`
	Requested int         `json:"requested"`
	Applied   int         `json:"applied"`
	IDs       []uuid.UUID `json:"ids"`
}

// Batch applies one operation to a list of ids as a single atomic unit.
// If any id fails validation and force is not set, nothing is applied:
// partial batches are explicitly disallowed.
func (s *Service) Batch(ctx context.Context, op string, ids []uuid.UUID, opts DeleteOptions) (*BatchResult, error) {
	if err := s.writeMu.lock(ctx); err != nil {
		return nil, err
	}
	defer s.writeMu.unlock()

	switch op {
	case BatchActivate, BatchDeactivate:
		// The parent's byParent listing carries the toggled row, so the
		// invalidation set includes each parent alongside the id itself.
		affected := make([]uuid.UUID, 0, len(ids)*2)
		for _, id := range ids {
			c, err := s.store.GetCategory(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("get category: %w", err)
			}
			if c == nil {
				return nil, &NotFoundError{ID: id, Kind: "category"}
			}
			affected = append(affected, id)
			if c.ParentID != nil {
				affected = append(affected, *c.ParentID)
			}
		}
		if err := s.store.SetCategoriesActive(ctx, ids, op == BatchActivate); err != nil {
			return nil, fmt.Errorf("batch %s: %w", op, err)
		}
		s.invalidate(ctx, affected)
		slog.Info("category batch applied", "op", op, "count", len(ids))
		return &BatchResult{Op: op, Requested: len(ids), Applied: len(ids), IDs: ids}, nil

	case BatchDelete:
		var rows, affected []uuid.UUID
		seen := make(map[uuid.UUID]bool)
		for _, id := range ids {
			delIDs, aff, err := s.planDelete(ctx, id, opts)
			if err != nil {
				// All-or-nothing: one bad id rejects the whole batch.
				return nil, err
			}
			for _, d := range delIDs {
				if !seen[d] {
					seen[d] = true
					rows = append(rows, d)
				}
			}
			affected = append(affected, aff...)
		}
		if err := s.store.DeleteCategories(ctx, rows); err != nil {
			return nil, fmt.Errorf("batch delete: %w", err)
		}
		s.invalidate(ctx, affected)
		slog.Info("category batch applied", "op", op, "count", len(rows))
		return &BatchResult{Op: op, Requested: len(ids), Applied: len(rows), IDs: rows}, nil

	default:
		return nil, fmt.Errorf("unknown batch operation %q", op)
	}
}

// --- Helpers ---

// checkRules maps validator output to the error taxonomy: a missing
// parent is NotFound, a cycle is CycleError, everything else is a
// ValidationError carrying every violated rule.
func checkRules(c models.Category, flat []models.Category) error {
	rules := Validate(c, flat)
	if len(rules) == 0 {
		return nil
	}
	if len(rules) == 1 && rules[0] == RuleParentMissing {
		return &NotFoundError{ID: *c.ParentID, Kind: "parent"}
	}
	for _, r := range rules {
		if r == RuleCycle {
			return &CycleError{ID: c.ID, ParentID: *c.ParentID}
		}
	}
	return &ValidationError{ID: c.ID, Name: c.Name, Rules: rules}
}

// invalidate drops every whole-listing entry plus the byParent entries
// of the affected ids, then clears the L2 listing cache. Runs after the
// store write commits and before the mutation returns.
func (s *Service) invalidate(ctx context.Context, affected []uuid.UUID) {
	prefixes := []string{FormatTree + "|", FormatFlat + "|"}
	for _, id := range affected {
		prefixes = append(prefixes, Key("byParent", "parent="+id.String()))
	}
	s.cache.InvalidatePrefix(prefixes...)
	if s.listings != nil {
		s.listings.InvalidateAll(ctx)
	}
}

// affectedIDs lists the ids whose byParent listings a mutation could
// have changed: the record, its parent, and its previous parent.
func affectedIDs(next, prev *models.Category) []uuid.UUID {
	ids := []uuid.UUID{next.ID}
	if next.ParentID != nil {
		ids = append(ids, *next.ParentID)
	}
	if prev != nil && prev.ParentID != nil {
		ids = append(ids, *prev.ParentID)
	}
	return ids
}

// nextSortOrder returns max sibling sort order plus one.
func nextSortOrder(flat []models.Category, parentID *uuid.UUID) int {
	next := 0
	for _, c := range flat {
		if sameParent(c.ParentID, parentID) && c.SortOrder >= next {
			next = c.SortOrder + 1
		}
	}
	return next
}

// uniqueSlug derives a slug from the name, suffixing with a short id
// fragment when another category already owns it.
func uniqueSlug(name string, id uuid.UUID, flat []models.Category) string {
	base := slug.Generate(name)
	taken := false
	for _, c := range flat {
		if c.ID != id && c.Slug == base {
			taken = true
			break
		}
	}
	if !taken {
		return base
	}
	return slug.WithSuffix(base, id.String()[:8])
}
