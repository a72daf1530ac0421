// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// diagnostic.go is the consistency diagnostic engine. It inspects a
// fresh snapshot (categories plus audio associations), computes a
// structured report with a 0..100 health score, and emits remediation
// recommendations. It never writes: repairs are separate operations
// re-expressed as mutation or sync engine calls.
package category

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"wavecms/internal/models"
)

// Severity buckets for recommendations, mirrored from the penalty type
// that produced them.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Penalties are the health-score deductions per violation class. The
// defaults match the values existing dashboards were built against;
// they are configuration, not constants.
type Penalties struct {
	Orphan         int // per orphaned category
	Level          int // per level/parent inconsistency
	EmptyHierarchy int // flat penalty when roots exist but no subcategories do
}

// DefaultPenalties returns the deployed penalty weights.
func DefaultPenalties() Penalties {
	return Penalties{Orphan: 10, Level: 15, EmptyHierarchy: 20}
}

// Audio association issue kinds.
const (
	IssueSubWithoutCategory = "subcategory_without_category"
	IssueParentMismatch     = "parent_mismatch"
	IssueCategoryMissing    = "category_missing"
	IssueSubMissing         = "subcategory_missing"
	IssueSubjectDrift       = "subject_drift"
)

// AudioIssue describes one inconsistent audio association.
type AudioIssue struct {
	AudioID uuid.UUID `json:"audio_id"`
	Kind    string    `json:"kind"`
	Detail  string    `json:"detail"`
}

// Recommendation is one ordered, human-readable remediation hint.
type Recommendation struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ConsistencyReport is the structured output of a diagnostic run.
// Running the engine twice over the same snapshot yields an identical
// report (timestamps aside).
type ConsistencyReport struct {
	GeneratedAt time.Time `json:"generated_at"`

	TotalCategories int `json:"total_categories"`
	RootCount       int `json:"root_count"`
	SubCount        int `json:"sub_count"`
	ActiveCount     int `json:"active_count"`
	InactiveCount   int `json:"inactive_count"`
	TotalAudios     int `json:"total_audios"`

	Orphans            []models.Category `json:"orphans"`
	InconsistentLevels []models.Category `json:"inconsistent_levels"`
	AudioIssues        []AudioIssue      `json:"audio_issues"`

	HealthScore     int              `json:"health_score"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Diagnostic computes consistency reports. It holds no store handle:
// the caller supplies the snapshot, which keeps every run deterministic
// and trivially testable.
type Diagnostic struct {
	penalties Penalties
}

// NewDiagnostic creates a diagnostic engine with the given penalty
// weights. Zero-value penalties fall back to the defaults.
func NewDiagnostic(p Penalties) *Diagnostic {
	if p == (Penalties{}) {
		p = DefaultPenalties()
	}
	return &Diagnostic{penalties: p}
}

// Run produces a report from a snapshot.
func (d *Diagnostic) Run(snap *Snapshot) *ConsistencyReport {
	report := &ConsistencyReport{
		GeneratedAt:     time.Now(),
		TotalCategories: len(snap.Categories),
		TotalAudios:     len(snap.Audios),
	}

	byID := make(map[uuid.UUID]models.Category, len(snap.Categories))
	for _, c := range snap.Categories {
		byID[c.ID] = c
	}

	for _, c := range snap.Categories {
		if c.Level == models.LevelRoot {
			report.RootCount++
		} else {
			report.SubCount++
		}
		if c.IsActive {
			report.ActiveCount++
		} else {
			report.InactiveCount++
		}

		if c.ParentID != nil {
			if _, ok := byID[*c.ParentID]; !ok {
				report.Orphans = append(report.Orphans, c)
			}
		}
		if (c.Level == models.LevelRoot && c.ParentID != nil) ||
			(c.Level == models.LevelSub && c.ParentID == nil) {
			report.InconsistentLevels = append(report.InconsistentLevels, c)
		}
	}
	sortByName(report.Orphans)
	sortByName(report.InconsistentLevels)

	for _, a := range snap.Audios {
		report.AudioIssues = append(report.AudioIssues, auditAudio(a, byID)...)
	}
	sort.SliceStable(report.AudioIssues, func(i, j int) bool {
		a, b := report.AudioIssues[i], report.AudioIssues[j]
		if a.AudioID != b.AudioID {
			return a.AudioID.String() < b.AudioID.String()
		}
		return a.Kind < b.Kind
	})

	report.HealthScore = d.score(report)
	report.Recommendations = d.recommend(report)
	return report
}

// auditAudio checks one audio association against the category index.
func auditAudio(a models.Audio, byID map[uuid.UUID]models.Category) []AudioIssue {
	var issues []AudioIssue

	if a.SubcategoryID != nil && a.CategoryID == nil {
		issues = append(issues, AudioIssue{
			AudioID: a.ID,
			Kind:    IssueSubWithoutCategory,
			Detail:  "subcategory set without a category",
		})
	}

	var cat, sub *models.Category
	if a.CategoryID != nil {
		if c, ok := byID[*a.CategoryID]; ok {
			cat = &c
		} else {
			issues = append(issues, AudioIssue{
				AudioID: a.ID,
				Kind:    IssueCategoryMissing,
				Detail:  fmt.Sprintf("category %s does not exist", a.CategoryID),
			})
		}
	}
	if a.SubcategoryID != nil {
		if c, ok := byID[*a.SubcategoryID]; ok {
			sub = &c
		} else {
			issues = append(issues, AudioIssue{
				AudioID: a.ID,
				Kind:    IssueSubMissing,
				Detail:  fmt.Sprintf("subcategory %s does not exist", a.SubcategoryID),
			})
		}
	}

	if cat != nil && sub != nil {
		if sub.ParentID == nil || *sub.ParentID != cat.ID {
			issues = append(issues, AudioIssue{
				AudioID: a.ID,
				Kind:    IssueParentMismatch,
				Detail:  fmt.Sprintf("subcategory %q does not belong to category %q", sub.Name, cat.Name),
			})
		}
	}

	if want, ok := expectedSubject(a, byID); ok && !subjectMatches(a.Subject, want) {
		issues = append(issues, AudioIssue{
			AudioID: a.ID,
			Kind:    IssueSubjectDrift,
			Detail:  fmt.Sprintf("legacy subject %q does not match resolved category %q", a.Subject, want),
		})
	}

	return issues
}

// score applies the penalty weights, floored at zero.
func (d *Diagnostic) score(r *ConsistencyReport) int {
	score := 100
	score -= d.penalties.Orphan * len(r.Orphans)
	score -= d.penalties.Level * len(r.InconsistentLevels)
	if r.RootCount > 0 && r.SubCount == 0 {
		score -= d.penalties.EmptyHierarchy
	}
	if score < 0 {
		score = 0
	}
	return score
}

// recommend derives ordered remediation hints from the non-zero penalty
// classes, severest first.
func (d *Diagnostic) recommend(r *ConsistencyReport) []Recommendation {
	var recs []Recommendation
	if n := len(r.InconsistentLevels); n > 0 {
		recs = append(recs, Recommendation{
			Severity: SeverityError,
			Message:  fmt.Sprintf("%d categories have a level that disagrees with their parent reference; run repair action fix-structure", n),
		})
	}
	if n := len(r.Orphans); n > 0 {
		recs = append(recs, Recommendation{
			Severity: SeverityError,
			Message:  fmt.Sprintf("%d categories reference a parent that no longer exists; run repair action fix-structure to promote them to roots", n),
		})
	}
	if n := countIssues(r.AudioIssues, IssueCategoryMissing, IssueSubMissing); n > 0 {
		recs = append(recs, Recommendation{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d audio records reference deleted categories; run repair action cleanup-orphans", n),
		})
	}
	if n := countIssues(r.AudioIssues, IssueSubjectDrift, IssueSubWithoutCategory, IssueParentMismatch); n > 0 {
		recs = append(recs, Recommendation{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d audio records have inconsistent classification fields; run repair action fix-data", n),
		})
	}
	if r.RootCount > 0 && r.SubCount == 0 {
		recs = append(recs, Recommendation{
			Severity: SeverityInfo,
			Message:  "no level-2 categories exist; create subcategories to populate the hierarchy",
		})
	}
	return recs
}

func countIssues(issues []AudioIssue, kinds ...string) int {
	var n int
	for _, issue := range issues {
		for _, k := range kinds {
			if issue.Kind == k {
				n++
				break
			}
		}
	}
	return n
}

func sortByName(cats []models.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		a, b := strings.ToLower(cats[i].Name), strings.ToLower(cats[j].Name)
		if a != b {
			return a < b
		}
		return cats[i].ID.String() < cats[j].ID.String()
	})
}
