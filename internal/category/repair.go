// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// repair.go wires the diagnostic and sync engines into the service.
// Diagnostics are read-only; repairs are re-expressed as mutation or
// sync engine operations so every fix revalidates against current
// state; the report that motivated a repair may already be stale, and
// the mutation engine's own validation is the final guard.
package category

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Repair actions.
const (
	RepairFixStructure   = "fix-structure"
	RepairFixData        = "fix-data"
	RepairCleanupOrphans = "cleanup-orphans"
)

// RepairEntry is one line of a repair's action log.
type RepairEntry struct {
	ID      uuid.UUID `json:"id"`
	Action  string    `json:"action"`
	Message string    `json:"message"`
}

// RepairResult reports an executed repair action.
type RepairResult struct {
	Action    string        `json:"action"`
	Processed int           `json:"processed"`
	Updated   int           `json:"updated"`
	Errors    int           `json:"errors"`
	Entries   []RepairEntry `json:"entries"`
}

// RunDiagnostic produces a consistency report from a fresh snapshot
// read, bypassing every cache.
func (s *Service) RunDiagnostic(ctx context.Context) (*ConsistencyReport, error) {
	snap, err := TakeSnapshot(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return s.diag.Run(snap), nil
}

// DetectDrift reports every audio record whose legacy subject disagrees
// with its normalized reference.
func (s *Service) DetectDrift(ctx context.Context) ([]DriftRecord, error) {
	snap, err := TakeSnapshot(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return s.sync.DetectDrift(snap), nil
}

// SyncAudio reconciles a single audio record's legacy subject.
func (s *Service) SyncAudio(ctx context.Context, audioID uuid.UUID) (*SyncResult, error) {
	return s.sync.Sync(ctx, audioID)
}

// RunRepair executes one repair action and returns its audit log.
func (s *Service) RunRepair(ctx context.Context, action string) (*RepairResult, error) {
	switch action {
	case RepairFixStructure:
		return s.fixStructure(ctx)
	case RepairFixData:
		res, err := s.sync.SyncAll(ctx)
		if err != nil {
			return nil, err
		}
		return repairResult(action, res), nil
	case RepairCleanupOrphans:
		res, err := s.sync.CleanupOrphanedReferences(ctx)
		if err != nil {
			return nil, err
		}
		return repairResult(action, res), nil
	default:
		return nil, fmt.Errorf("unknown repair action %q", action)
	}
}

// fixStructure repairs orphaned categories and level/parent mismatches
// through the mutation engine. Orphans are promoted to roots; level
// mismatches are fixed by an empty patch, which re-derives the level
// from the parent reference.
func (s *Service) fixStructure(ctx context.Context) (*RepairResult, error) {
	report, err := s.RunDiagnostic(ctx)
	if err != nil {
		return nil, err
	}

	result := &RepairResult{Action: RepairFixStructure}
	for _, orphan := range report.Orphans {
		result.Processed++
		if _, err := s.Update(ctx, orphan.ID, UpdateRequest{ClearParent: true}); err != nil {
			result.Errors++
			result.Entries = append(result.Entries, RepairEntry{ID: orphan.ID, Action: SyncError, Message: err.Error()})
			continue
		}
		result.Updated++
		result.Entries = append(result.Entries, RepairEntry{ID: orphan.ID, Action: SyncUpdated, Message: "dangling parent cleared, promoted to root"})
	}

	for _, c := range report.InconsistentLevels {
		result.Processed++
		if _, err := s.Update(ctx, c.ID, UpdateRequest{}); err != nil {
			result.Errors++
			result.Entries = append(result.Entries, RepairEntry{ID: c.ID, Action: SyncError, Message: err.Error()})
			continue
		}
		result.Updated++
		result.Entries = append(result.Entries, RepairEntry{ID: c.ID, Action: SyncUpdated, Message: "level re-derived from parent reference"})
	}

	slog.Info("structure repair finished",
		"processed", result.Processed, "updated", result.Updated, "errors", result.Errors)
	return result, nil
}

// repairResult converts a sync result into the repair report shape.
func repairResult(action string, res *SyncResult) *RepairResult {
	out := &RepairResult{
		Action:    action,
		Processed: res.Processed,
		Updated:   res.Updated,
		Errors:    res.Errors,
	}
	for _, e := range res.Entries {
		out.Entries = append(out.Entries, RepairEntry{ID: e.AudioID, Action: e.Action, Message: e.Message})
	}
	return out
}
