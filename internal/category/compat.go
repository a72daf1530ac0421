// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// compat.go is the compatibility sync engine. The application evolved
// from a single free-text "subject" field to the normalized category /
// subcategory pair; both stay externally observable, so this engine is
// a permanent component, not a one-time migration script. Sync is
// one-directional: once a normalized reference exists it is the source
// of truth and the legacy subject is rewritten from it.
package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"wavecms/internal/models"
)

// Sync entry actions.
const (
	SyncUpdated = "updated"
	SyncSkipped = "skipped"
	SyncError   = "error"
)

// SyncEntry is one line of the per-record action log.
type SyncEntry struct {
	AudioID uuid.UUID `json:"audio_id"`
	Action  string    `json:"action"`
	Message string    `json:"message"`
}

// SyncResult reports a sync run so operators can audit exactly what
// changed.
type SyncResult struct {
	Processed int         `json:"processed"`
	Updated   int         `json:"updated"`
	Errors    int         `json:"errors"`
	Entries   []SyncEntry `json:"entries"`
}

func (r *SyncResult) add(e SyncEntry) {
	r.Processed++
	switch e.Action {
	case SyncUpdated:
		r.Updated++
	case SyncError:
		r.Errors++
	}
	r.Entries = append(r.Entries, e)
}

// DriftRecord describes one audio record whose legacy subject disagrees
// with its resolved category name.
type DriftRecord struct {
	AudioID     uuid.UUID `json:"audio_id"`
	Subject     string    `json:"subject"`
	WantSubject string    `json:"want_subject"`
}

// Syncer reconciles legacy subject labels with normalized category
// references. Reads and writes go through the store; it never touches
// the query cache, which only fronts category listings.
type Syncer struct {
	store Store
}

// NewSyncer creates a sync engine over the given store.
func NewSyncer(store Store) *Syncer {
	return &Syncer{store: store}
}

// Sync reconciles a single audio record: if a normalized reference is
// set and the subject is empty or stale, the subject is rewritten to
// the resolved category name.
func (s *Syncer) Sync(ctx context.Context, audioID uuid.UUID) (*SyncResult, error) {
	audio, err := s.store.GetAudio(ctx, audioID)
	if err != nil {
		return nil, fmt.Errorf("get audio: %w", err)
	}
	if audio == nil {
		return nil, &NotFoundError{ID: audioID, Kind: "audio"}
	}

	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	result := &SyncResult{}
	result.add(s.syncOne(ctx, *audio, indexByID(cats)))
	return result, nil
}

// SyncAll reconciles every audio record in the snapshot.
func (s *Syncer) SyncAll(ctx context.Context) (*SyncResult, error) {
	snap, err := TakeSnapshot(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	byID := indexByID(snap.Categories)

	result := &SyncResult{}
	for _, a := range snap.Audios {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.add(s.syncOne(ctx, a, byID))
	}
	return result, nil
}

// syncOne applies the one-directional reconciliation to a single record.
func (s *Syncer) syncOne(ctx context.Context, a models.Audio, byID map[uuid.UUID]models.Category) SyncEntry {
	want, ok := expectedSubject(a, byID)
	if !ok {
		return SyncEntry{AudioID: a.ID, Action: SyncSkipped, Message: "no resolvable category reference"}
	}
	if subjectMatches(a.Subject, want) {
		return SyncEntry{AudioID: a.ID, Action: SyncSkipped, Message: "subject already in sync"}
	}

	if err := s.store.UpdateAudioClassification(ctx, a.ID, a.CategoryID, a.SubcategoryID, want); err != nil {
		return SyncEntry{AudioID: a.ID, Action: SyncError, Message: err.Error()}
	}
	return SyncEntry{AudioID: a.ID, Action: SyncUpdated, Message: fmt.Sprintf("subject %q -> %q", a.Subject, want)}
}

// DetectDrift returns every audio record whose subject does not equal
// the resolved category name, without mutating anything. Drift is a
// finding, not an error: a report full of drift is still a successful
// call.
func (s *Syncer) DetectDrift(snap *Snapshot) []DriftRecord {
	byID := indexByID(snap.Categories)
	var drift []DriftRecord
	for _, a := range snap.Audios {
		want, ok := expectedSubject(a, byID)
		if !ok {
			continue
		}
		if !subjectMatches(a.Subject, want) {
			drift = append(drift, DriftRecord{AudioID: a.ID, Subject: a.Subject, WantSubject: want})
		}
	}
	return drift
}

// CleanupOrphanedReferences clears normalized references that no longer
// resolve (the category was force-deleted), falling back to the legacy
// subject alone. A subcategory whose resolved parent disagrees with the
// stated category is also cleared.
func (s *Syncer) CleanupOrphanedReferences(ctx context.Context) (*SyncResult, error) {
	snap, err := TakeSnapshot(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	byID := indexByID(snap.Categories)

	result := &SyncResult{}
	for _, a := range snap.Audios {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.CategoryID == nil && a.SubcategoryID == nil {
			continue
		}

		catID, subID := a.CategoryID, a.SubcategoryID
		var cleared []string
		if catID != nil {
			if _, ok := byID[*catID]; !ok {
				catID = nil
				cleared = append(cleared, "category")
			}
		}
		if subID != nil {
			sub, ok := byID[*subID]
			if !ok {
				subID = nil
				cleared = append(cleared, "subcategory")
			} else if catID != nil && (sub.ParentID == nil || *sub.ParentID != *catID) {
				subID = nil
				cleared = append(cleared, "mismatched subcategory")
			}
		}
		if len(cleared) == 0 {
			result.add(SyncEntry{AudioID: a.ID, Action: SyncSkipped, Message: "references resolve"})
			continue
		}

		if err := s.store.UpdateAudioClassification(ctx, a.ID, catID, subID, a.Subject); err != nil {
			result.add(SyncEntry{AudioID: a.ID, Action: SyncError, Message: err.Error()})
			continue
		}
		result.add(SyncEntry{AudioID: a.ID, Action: SyncUpdated, Message: "cleared " + strings.Join(cleared, " and ")})
	}
	return result, nil
}

// expectedSubject resolves the subject an audio record should carry:
// the subcategory name when one resolves, otherwise the category name.
// Returns false when no normalized reference resolves.
func expectedSubject(a models.Audio, byID map[uuid.UUID]models.Category) (string, bool) {
	if a.SubcategoryID != nil {
		if sub, ok := byID[*a.SubcategoryID]; ok {
			return sub.Name, true
		}
	}
	if a.CategoryID != nil {
		if cat, ok := byID[*a.CategoryID]; ok {
			return cat.Name, true
		}
	}
	return "", false
}

// subjectMatches compares the legacy subject against the resolved name,
// ignoring case and surrounding whitespace.
func subjectMatches(subject, want string) bool {
	return strings.EqualFold(strings.TrimSpace(subject), strings.TrimSpace(want))
}

func indexByID(cats []models.Category) map[uuid.UUID]models.Category {
	byID := make(map[uuid.UUID]models.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}
	return byID
}
