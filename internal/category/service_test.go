package category

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"wavecms/internal/models"
)

func newTestService(t *testing.T) (*Service, *MemStore) {
	t.Helper()
	store := NewMemStore()
	svc := NewService(store, NewQueryCache(time.Minute, DefaultSlowQuery), Penalties{})
	return svc, store
}

func mustCreate(t *testing.T, svc *Service, name string, parent *uuid.UUID) *models.Category {
	t.Helper()
	created, err := svc.Create(context.Background(), CreateRequest{Name: name, ParentID: parent})
	if err != nil {
		t.Fatalf("create %q: %v", name, err)
	}
	return created
}

func TestCreateDerivesLevelAndSlug(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root := mustCreate(t, svc, "Classical Music", nil)
	if root.Level != models.LevelRoot {
		t.Errorf("root level: got %d, want %d", root.Level, models.LevelRoot)
	}
	if root.Slug != "classical-music" {
		t.Errorf("slug: got %q, want classical-music", root.Slug)
	}
	if !root.IsActive {
		t.Error("new category should default to active")
	}

	sub := mustCreate(t, svc, "Baroque", &root.ID)
	if sub.Level != models.LevelSub {
		t.Errorf("sub level: got %d, want %d", sub.Level, models.LevelSub)
	}

	listed, err := svc.List(ctx, ListQuery{Format: FormatTree})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || len(listed[0].Children) != 1 {
		t.Fatalf("tree listing: got %d roots, want 1 with 1 child", len(listed))
	}
}

func TestCreateSortOrderAutoIncrementsPerSibling(t *testing.T) {
	svc, _ := newTestService(t)

	a := mustCreate(t, svc, "Alpha", nil)
	b := mustCreate(t, svc, "Beta", nil)
	if b.SortOrder != a.SortOrder+1 {
		t.Errorf("sibling sort order: got %d after %d", b.SortOrder, a.SortOrder)
	}

	// A new sibling group starts over.
	sub := mustCreate(t, svc, "Gamma", &a.ID)
	if sub.SortOrder != 0 {
		t.Errorf("first child sort order: got %d, want 0", sub.SortOrder)
	}
}

func TestCreateDuplicateSiblingName(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "Podcasts", nil)

	_, err := svc.Create(context.Background(), CreateRequest{Name: "  podcasts "})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if !ve.Violates(RuleDuplicateName) {
		t.Errorf("rules: got %v, want %q", ve.Rules, RuleDuplicateName)
	}
}

func TestCreateUnderMissingParent(t *testing.T) {
	svc, _ := newTestService(t)
	missing := uuid.New()

	_, err := svc.Create(context.Background(), CreateRequest{Name: "Lost", ParentID: &missing})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	if nf.ID != missing || nf.Kind != "parent" {
		t.Errorf("got %+v, want parent %s", nf, missing)
	}
}

func TestCreateUnderSubcategory(t *testing.T) {
	svc, _ := newTestService(t)
	root := mustCreate(t, svc, "Music", nil)
	sub := mustCreate(t, svc, "Jazz", &root.ID)

	_, err := svc.Create(context.Background(), CreateRequest{Name: "Bebop", ParentID: &sub.ID})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if !ve.Violates(RuleParentNotRoot) {
		t.Errorf("rules: got %v, want %q", ve.Rules, RuleParentNotRoot)
	}
}

func TestCreateSlugCollisionGetsSuffix(t *testing.T) {
	svc, _ := newTestService(t)
	root := mustCreate(t, svc, "Jazz", nil)
	other := mustCreate(t, svc, "Talks", nil)

	// Same name under another parent is legal but must not share a slug.
	sub := mustCreate(t, svc, "Jazz", &other.ID)
	if sub.Slug == root.Slug {
		t.Errorf("slug collision: both %q", sub.Slug)
	}
}

func TestUpdatePatchSemantics(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "Music", nil)
	sub := mustCreate(t, svc, "Jazz", &root.ID)

	color := "#aabbcc"
	updated, err := svc.Update(ctx, sub.ID, UpdateRequest{Color: &color})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Color != color {
		t.Errorf("color: got %q, want %q", updated.Color, color)
	}
	// Untouched fields survive the patch.
	if updated.Name != "Jazz" || updated.ParentID == nil || *updated.ParentID != root.ID {
		t.Errorf("patch touched unrelated fields: %+v", updated)
	}
	if updated.Slug != sub.Slug {
		t.Errorf("slug regenerated without a rename: %q -> %q", sub.Slug, updated.Slug)
	}

	name := "Blues"
	updated, err = svc.Update(ctx, sub.ID, UpdateRequest{Name: &name})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if updated.Slug != "blues" {
		t.Errorf("slug after rename: got %q, want blues", updated.Slug)
	}

	stored, _ := store.GetCategory(ctx, sub.ID)
	if stored.Name != "Blues" {
		t.Errorf("store: got %q, want Blues", stored.Name)
	}
}

func TestUpdateClearParentPromotesToRoot(t *testing.T) {
	svc, _ := newTestService(t)
	root := mustCreate(t, svc, "Music", nil)
	sub := mustCreate(t, svc, "Jazz", &root.ID)

	updated, err := svc.Update(context.Background(), sub.ID, UpdateRequest{ClearParent: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ParentID != nil {
		t.Error("parent not cleared")
	}
	if updated.Level != models.LevelRoot {
		t.Errorf("level: got %d, want %d", updated.Level, models.LevelRoot)
	}
}

func TestUpdateCycleRejected(t *testing.T) {
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, "A", nil)
	b := mustCreate(t, svc, "B", &a.ID)

	_, err := svc.Update(context.Background(), a.ID, UpdateRequest{ParentID: &b.ID})
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want CycleError", err)
	}
	if ce.ID != a.ID || ce.ParentID != b.ID {
		t.Errorf("cycle error: %+v", ce)
	}
}

func TestUpdateSelfParentRejected(t *testing.T) {
	svc, _ := newTestService(t)
	a := mustCreate(t, svc, "A", nil)

	_, err := svc.Update(context.Background(), a.ID, UpdateRequest{ParentID: &a.ID})
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want CycleError", err)
	}
}

func TestUpdateUnknownCategory(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update(context.Background(), uuid.New(), UpdateRequest{})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestDeleteDefaultConflictsOnActiveChildren(t *testing.T) {
	svc, _ := newTestService(t)
	root := mustCreate(t, svc, "Music", nil)
	mustCreate(t, svc, "Jazz", &root.ID)

	err := svc.Delete(context.Background(), root.ID, DeleteOptions{})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want ConflictError", err)
	}
	if conflict.ActiveChildren != 1 {
		t.Errorf("active children: got %d, want 1", conflict.ActiveChildren)
	}
}

func TestDeleteDefaultConflictsOnAudioRefs(t *testing.T) {
	svc, store := newTestService(t)
	root := mustCreate(t, svc, "Music", nil)
	store.PutAudio(models.Audio{Title: "Ep 1", CategoryID: &root.ID, Subject: "Music"})

	err := svc.Delete(context.Background(), root.ID, DeleteOptions{})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want ConflictError", err)
	}
	if conflict.AudioCount != 1 {
		t.Errorf("audio count: got %d, want 1", conflict.AudioCount)
	}
}

func TestDeleteDefaultAllowsDeactivatedChildren(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "Music", nil)
	sub := mustCreate(t, svc, "Jazz", &root.ID)

	if _, err := svc.Batch(ctx, BatchDeactivate, []uuid.UUID{sub.ID}, DeleteOptions{}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := svc.Delete(ctx, root.ID, DeleteOptions{}); err != nil {
		t.Fatalf("delete with inactive child: %v", err)
	}
}

func TestDeleteCascadeRemovesChildren(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "Music", nil)
	sub := mustCreate(t, svc, "Jazz", &root.ID)

	if err := svc.Delete(ctx, root.ID, DeleteOptions{Cascade: true}); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if c, _ := store.GetCategory(ctx, sub.ID); c != nil {
		t.Error("cascade left the child behind")
	}
}

func TestDeleteCascadeConflictsOnAudioRefs(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "Music", nil)
	mustCreate(t, svc, "Jazz", &root.ID)
	store.PutAudio(models.Audio{Title: "Ep 1", CategoryID: &root.ID, Subject: "Music"})

	// Cascade resolves the children conflict but not audio references.
	err := svc.Delete(ctx, root.ID, DeleteOptions{Cascade: true})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want ConflictError", err)
	}
	if conflict.AudioCount != 1 {
		t.Errorf("audio count: got %d, want 1", conflict.AudioCount)
	}
	if c, _ := store.GetCategory(ctx, root.ID); c == nil {
		t.Error("conflicting cascade delete removed the category")
	}

	// Force still bypasses both checks.
	if err := svc.Delete(ctx, root.ID, DeleteOptions{Force: true}); err != nil {
		t.Fatalf("force delete: %v", err)
	}
}

func TestDeleteForceOrphansChildren(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "Music", nil)
	sub := mustCreate(t, svc, "Jazz", &root.ID)

	if err := svc.Delete(ctx, root.ID, DeleteOptions{Force: true}); err != nil {
		t.Fatalf("force delete: %v", err)
	}
	c, _ := store.GetCategory(ctx, sub.ID)
	if c == nil {
		t.Fatal("force delete removed the child")
	}
	if c.ParentID == nil || *c.ParentID != root.ID {
		t.Errorf("child parent: got %v, want dangling %s", c.ParentID, root.ID)
	}
}

func TestBatchDeactivateHidesFromDefaultListing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, "A", nil)
	mustCreate(t, svc, "B", nil)

	if _, err := svc.Batch(ctx, BatchDeactivate, []uuid.UUID{a.ID}, DeleteOptions{}); err != nil {
		t.Fatalf("batch: %v", err)
	}

	items, err := svc.List(ctx, ListQuery{Format: FormatFlat})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Name != "B" {
		t.Errorf("default listing: got %v, want only B", items)
	}

	all, err := svc.List(ctx, ListQuery{Format: FormatFlat, IncludeInactive: true})
	if err != nil {
		t.Fatalf("list inactive: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("inclusive listing: got %d, want 2", len(all))
	}
}

func TestBatchDeactivateInvalidatesParentListing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "Music", nil)
	sub := mustCreate(t, svc, "Jazz", &root.ID)

	// Prime the parent's byParent listing before the batch.
	q := ListQuery{ParentID: &root.ID}
	before, err := svc.List(ctx, q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(before) != 1 {
		t.Fatalf("children before: got %d, want 1", len(before))
	}

	if _, err := svc.Batch(ctx, BatchDeactivate, []uuid.UUID{sub.ID}, DeleteOptions{}); err != nil {
		t.Fatalf("batch: %v", err)
	}

	after, err := svc.List(ctx, q)
	if err != nil {
		t.Fatalf("list after batch: %v", err)
	}
	if len(after) != 0 {
		t.Errorf("children after deactivate: got %d, want 0", len(after))
	}
}

func TestBatchRejectsUnknownID(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, "A", nil)

	_, err := svc.Batch(ctx, BatchDeactivate, []uuid.UUID{a.ID, uuid.New()}, DeleteOptions{})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	// All-or-nothing: the known id must not have been touched.
	c, _ := store.GetCategory(ctx, a.ID)
	if !c.IsActive {
		t.Error("partial batch applied before the failure")
	}
}

func TestBatchDeleteAllOrNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	empty := mustCreate(t, svc, "Empty", nil)
	busy := mustCreate(t, svc, "Busy", nil)
	mustCreate(t, svc, "Child", &busy.ID)

	_, err := svc.Batch(ctx, BatchDelete, []uuid.UUID{empty.ID, busy.ID}, DeleteOptions{})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want ConflictError", err)
	}
	if c, _ := store.GetCategory(ctx, empty.ID); c == nil {
		t.Error("conflicting batch deleted the clean id anyway")
	}
}

func TestBatchDeleteCascadeDeduplicatesRows(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "Music", nil)
	sub := mustCreate(t, svc, "Jazz", &root.ID)

	// The child appears both explicitly and through the cascade.
	res, err := svc.Batch(ctx, BatchDelete, []uuid.UUID{root.ID, sub.ID}, DeleteOptions{Cascade: true})
	if err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	if res.Applied != 2 {
		t.Errorf("applied rows: got %d, want 2", res.Applied)
	}
}

func TestBatchUnknownOperation(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Batch(context.Background(), "destroy", nil, DeleteOptions{}); err == nil {
		t.Fatal("unknown op accepted")
	}
}

func TestListByParentAndLevel(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "Music", nil)
	sub := mustCreate(t, svc, "Jazz", &root.ID)
	store.PutAudio(models.Audio{Title: "Ep 1", CategoryID: &root.ID, SubcategoryID: &sub.ID, Subject: "Jazz"})

	children, err := svc.List(ctx, ListQuery{ParentID: &root.ID})
	if err != nil {
		t.Fatalf("byParent: %v", err)
	}
	if len(children) != 1 || children[0].ID != sub.ID {
		t.Fatalf("children: got %v, want [Jazz]", children)
	}

	roots, err := svc.List(ctx, ListQuery{Format: FormatFlat, Level: models.LevelRoot})
	if err != nil {
		t.Fatalf("level filter: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != root.ID {
		t.Fatalf("level filter: got %v, want [Music]", roots)
	}

	counted, err := svc.List(ctx, ListQuery{Format: FormatFlat, IncludeCount: true})
	if err != nil {
		t.Fatalf("includeCount: %v", err)
	}
	for _, c := range counted {
		if c.AudioCount != 1 {
			t.Errorf("audio count for %s: got %d, want 1", c.Name, c.AudioCount)
		}
	}
}

func TestListServesSecondReadFromCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "Music", nil)

	q := ListQuery{Format: FormatTree}
	if _, err := svc.List(ctx, q); err != nil {
		t.Fatalf("cold list: %v", err)
	}
	if _, err := svc.List(ctx, q); err != nil {
		t.Fatalf("warm list: %v", err)
	}

	st := svc.Cache().Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("hits/misses: got %d/%d, want 1/1", st.Hits, st.Misses)
	}
}

func TestMutationInvalidatesListings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "Music", nil)

	q := ListQuery{Format: FormatFlat}
	before, err := svc.List(ctx, q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(before) != 1 {
		t.Fatalf("before: got %d, want 1", len(before))
	}

	mustCreate(t, svc, "Talks", nil)

	after, err := svc.List(ctx, q)
	if err != nil {
		t.Fatalf("list after create: %v", err)
	}
	if len(after) != 2 {
		t.Errorf("after: got %d, want 2; stale cache served", len(after))
	}
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) InvalidateAll(ctx context.Context) { f.calls++ }

func TestMutationsClearListingCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	inv := &fakeInvalidator{}
	svc.SetListingCache(inv)

	root := mustCreate(t, svc, "Music", nil)
	name := "Audio"
	if _, err := svc.Update(ctx, root.ID, UpdateRequest{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, root.ID, DeleteOptions{}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if inv.calls != 3 {
		t.Errorf("listing invalidations: got %d, want 3", inv.calls)
	}
}

func TestMutationHonorsContextCancellation(t *testing.T) {
	svc, _ := newTestService(t)

	// Hold the write lock so the mutation has to wait on it.
	svc.writeMu <- struct{}{}
	defer func() { <-svc.writeMu }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Create(ctx, CreateRequest{Name: "Late"}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
