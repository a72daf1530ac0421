// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// tree.go is the in-memory tree model: a pure projection over a flat
// category record set. It is rebuilt from the store on demand and never
// mutates its input.
package category

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"wavecms/internal/models"
)

// Tree indexes a flat category list by id and parent id in a single
// pass. All query methods return copies; the underlying records are
// never modified.
type Tree struct {
	byID     map[uuid.UUID]models.Category
	children map[uuid.UUID][]uuid.UUID
	roots    []uuid.UUID
	orphans  []uuid.UUID
}

// NewTree builds a tree from a flat record set in O(n). Records whose
// parent_id does not resolve stay visible in the flat view and in
// Orphans(), but are omitted from the nested view.
func NewTree(flat []models.Category) *Tree {
	t := &Tree{
		byID:     make(map[uuid.UUID]models.Category, len(flat)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, c := range flat {
		t.byID[c.ID] = c
	}
	for _, c := range flat {
		switch {
		case c.ParentID == nil:
			t.roots = append(t.roots, c.ID)
		default:
			if _, ok := t.byID[*c.ParentID]; !ok {
				t.orphans = append(t.orphans, c.ID)
				continue
			}
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
		}
	}
	t.roots = t.sortIDs(t.roots)
	for pid, ids := range t.children {
		t.children[pid] = t.sortIDs(ids)
	}
	t.orphans = t.sortIDs(t.orphans)
	return t
}

// sortIDs orders sibling ids by sort order, ties broken by name
// (case-insensitive), then id for full determinism.
func (t *Tree) sortIDs(ids []uuid.UUID) []uuid.UUID {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := t.byID[ids[i]], t.byID[ids[j]]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.ID.String() < b.ID.String()
	})
	return ids
}

// Get returns the category with the given id.
func (t *Tree) Get(id uuid.UUID) (models.Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Len returns the number of categories in the tree, orphans included.
func (t *Tree) Len() int {
	return len(t.byID)
}

// Children returns the direct children of the given category in
// display order.
func (t *Tree) Children(id uuid.UUID) []models.Category {
	ids := t.children[id]
	out := make([]models.Category, 0, len(ids))
	for _, cid := range ids {
		out = append(out, t.byID[cid])
	}
	return out
}

// AncestorsOf returns the ancestor chain of the given category, nearest
// first. At the current depth cap the chain holds zero or one entries;
// the walk is written for arbitrary depth so a future cap increase does
// not silently truncate it.
func (t *Tree) AncestorsOf(id uuid.UUID) []models.Category {
	var out []models.Category
	c, ok := t.byID[id]
	if !ok {
		return out
	}
	seen := map[uuid.UUID]bool{c.ID: true}
	for c.ParentID != nil {
		p, ok := t.byID[*c.ParentID]
		if !ok || seen[p.ID] {
			break
		}
		out = append(out, p)
		seen[p.ID] = true
		c = p
	}
	return out
}

// IsDescendant reports whether a sits below b in the tree.
func (t *Tree) IsDescendant(a, b uuid.UUID) bool {
	for _, anc := range t.AncestorsOf(a) {
		if anc.ID == b {
			return true
		}
	}
	return false
}

// Flat returns every category, roots first in display order, each root
// followed by its children, orphans appended last. Dangling records are
// included: the flat view hides nothing.
func (t *Tree) Flat() []models.Category {
	out := make([]models.Category, 0, len(t.byID))
	for _, rid := range t.roots {
		out = append(out, t.byID[rid])
		out = append(out, t.Children(rid)...)
	}
	for _, oid := range t.orphans {
		out = append(out, t.byID[oid])
	}
	return out
}

// Nested returns the tree view: root categories with their Children
// slice populated. Orphans do not appear; they are surfaced through
// Orphans() and the diagnostic engine instead.
func (t *Tree) Nested() []models.Category {
	out := make([]models.Category, 0, len(t.roots))
	for _, rid := range t.roots {
		root := t.byID[rid]
		root.Children = t.Children(rid)
		out = append(out, root)
	}
	return out
}

// Orphans returns categories whose parent_id does not resolve.
func (t *Tree) Orphans() []models.Category {
	out := make([]models.Category, 0, len(t.orphans))
	for _, oid := range t.orphans {
		out = append(out, t.byID[oid])
	}
	return out
}
