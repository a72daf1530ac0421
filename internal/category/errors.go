// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Rule identifies a structural invariant of the category tree. A failed
// validation reports every violated rule, not just the first.
type Rule string

const (
	// RuleLevelParent: level must be 1 exactly when parent_id is absent.
	RuleLevelParent Rule = "level_parent_mismatch"
	// RuleParentMissing: parent_id references a category that does not exist.
	RuleParentMissing Rule = "parent_not_found"
	// RuleParentNotRoot: parent_id references a non-root category
	// (the tree is capped at two levels).
	RuleParentNotRoot Rule = "parent_not_root"
	// RuleCycle: the proposed parent chain passes through the category
	// itself. Unreachable at depth two, checked anyway.
	RuleCycle Rule = "cycle"
	// RuleDuplicateName: another sibling already carries the same name
	// (case-insensitive).
	RuleDuplicateName Rule = "duplicate_sibling_name"
	// RuleHasChildren: a category that still has children cannot be
	// given a parent; its children would end up below the depth cap.
	RuleHasChildren Rule = "parent_with_children"
	// RuleNameRequired: the category name is empty.
	RuleNameRequired Rule = "name_required"
	// RuleInactiveTarget: a new audio association targets an inactive
	// category.
	RuleInactiveTarget Rule = "inactive_category"
)

// ValidationError reports that a proposed category state violates one
// or more structural invariants.
type ValidationError struct {
	ID    uuid.UUID
	Name  string
	Rules []Rule
}

func (e *ValidationError) Error() string {
	rules := make([]string, len(e.Rules))
	for i, r := range e.Rules {
		rules[i] = string(r)
	}
	return fmt.Sprintf("category %q invalid: %s", e.Name, strings.Join(rules, ", "))
}

// Violates returns true if the error includes the given rule.
func (e *ValidationError) Violates(rule Rule) bool {
	for _, r := range e.Rules {
		if r == rule {
			return true
		}
	}
	return false
}

// NotFoundError reports that a referenced id does not resolve.
type NotFoundError struct {
	ID   uuid.UUID
	Kind string // "category", "parent", "audio"
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ConflictError reports a deletion blocked by existing children or
// audio associations under default (non-force, non-cascade) mode.
type ConflictError struct {
	ID             uuid.UUID
	ActiveChildren int
	AudioCount     int
}

func (e *ConflictError) Error() string {
	var parts []string
	if e.ActiveChildren > 0 {
		parts = append(parts, fmt.Sprintf("%d active sub-categories", e.ActiveChildren))
	}
	if e.AudioCount > 0 {
		parts = append(parts, fmt.Sprintf("%d audio records", e.AudioCount))
	}
	return fmt.Sprintf("cannot delete category %s: %s; use cascade=true or force=true",
		e.ID, strings.Join(parts, " and "))
}

// CycleError reports an update whose parent chain would pass through
// the category itself. Structurally unreachable while depth is capped
// at two; the guard stays so raising the cap cannot introduce one.
type CycleError struct {
	ID       uuid.UUID
	ParentID uuid.UUID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("setting parent of %s to %s would create a cycle", e.ID, e.ParentID)
}
