package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/phlask/resource-registry/internal/domain"
)

func TestStatusChangeAndRollbackScenario(t *testing.T) {
	resources, changelog, _, _ := newTestEngine()
	ctx := context.Background()

	created, err := resources.Create(ctx, waterEntry(), "creator@example.org")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := resources.UpdateByID(ctx, created.ID, map[string]any{
		"status": "TEMPORARILY_CLOSED",
	}, "admin@x", ""); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	page, err := changelog.ListChanges(ctx, created.ID, domain.Unbounded())
	if err != nil {
		t.Fatalf("listChanges failed: %v", err)
	}
	if len(page.Data) != 1 {
		t.Fatalf("expected exactly one change record, got %d", len(page.Data))
	}
	rec := page.Data[0]
	if rec.Field != "status" {
		t.Fatalf("expected field status, got %s", rec.Field)
	}
	if rec.OldValue != `"OPERATIONAL"` || rec.NewValue != `"TEMPORARILY_CLOSED"` {
		t.Fatalf("unexpected values: old=%s new=%s", rec.OldValue, rec.NewValue)
	}

	restored, err := changelog.Rollback(ctx, rec.ID, "admin@x")
	if err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if restored.Status != domain.StatusOperational {
		t.Fatalf("expected status restored, got %s", restored.Status)
	}

	page, _ = changelog.ListChanges(ctx, created.ID, domain.Unbounded())
	if len(page.Data) != 2 {
		t.Fatalf("rollback must append, expected 2 records got %d", len(page.Data))
	}
	// Most recent first.
	latest := page.Data[0]
	if latest.OldValue != `"TEMPORARILY_CLOSED"` || latest.NewValue != `"OPERATIONAL"` {
		t.Fatalf("rollback record values wrong: %+v", latest)
	}
	if !strings.HasPrefix(latest.Reason, "rollback of ") {
		t.Fatalf("expected rollback reason, got %q", latest.Reason)
	}
}

func TestRollbackIsItsOwnInverse(t *testing.T) {
	resources, changelog, _, _ := newTestEngine()
	ctx := context.Background()

	created, _ := resources.Create(ctx, waterEntry(), "creator@example.org")
	if _, err := resources.UpdateByID(ctx, created.ID, map[string]any{
		"status": "PERMANENTLY_CLOSED",
	}, "admin@x", ""); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	page, _ := changelog.ListChanges(ctx, created.ID, domain.Unbounded())
	first := page.Data[0]

	if _, err := changelog.Rollback(ctx, first.ID, "admin@x"); err != nil {
		t.Fatalf("first rollback failed: %v", err)
	}
	page, _ = changelog.ListChanges(ctx, created.ID, domain.Unbounded())
	second := page.Data[0]

	restored, err := changelog.Rollback(ctx, second.ID, "admin@x")
	if err != nil {
		t.Fatalf("second rollback failed: %v", err)
	}
	if restored.Status != domain.StatusPermanentlyClosed {
		t.Fatalf("rollback of rollback must restore the change, got %s", restored.Status)
	}

	page, _ = changelog.ListChanges(ctx, created.ID, domain.Unbounded())
	if len(page.Data) != 3 {
		t.Fatalf("history must only grow, expected 3 records got %d", len(page.Data))
	}
}

func TestRollbackMissingChange(t *testing.T) {
	_, changelog, _, _ := newTestEngine()

	_, err := changelog.Rollback(context.Background(), "nope", "admin@x")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRollbackAfterHardDelete(t *testing.T) {
	resources, changelog, _, _ := newTestEngine()
	ctx := context.Background()

	created, _ := resources.Create(ctx, waterEntry(), "creator@example.org")
	if _, err := resources.SetStatus(ctx, created.ID, domain.StatusHidden, "admin@x"); err != nil {
		t.Fatalf("setStatus failed: %v", err)
	}

	page, _ := changelog.ListChanges(ctx, created.ID, domain.Unbounded())
	rec := page.Data[0]

	if err := resources.DeleteByID(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := changelog.Rollback(ctx, rec.ID, "admin@x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound rolling back onto a deleted resource, got %v", err)
	}
}

func TestListChangesMostRecentFirstAndPaged(t *testing.T) {
	resources, changelog, _, _ := newTestEngine()
	ctx := context.Background()

	created, _ := resources.Create(ctx, waterEntry(), "creator@example.org")
	statuses := []string{"TEMPORARILY_CLOSED", "OPERATIONAL", "PERMANENTLY_CLOSED"}
	for _, s := range statuses {
		if _, err := resources.UpdateByID(ctx, created.ID, map[string]any{"status": s}, "admin@x", ""); err != nil {
			t.Fatalf("update to %s failed: %v", s, err)
		}
	}

	page, err := changelog.ListChanges(ctx, created.ID, domain.PageWindow(2, 0))
	if err != nil {
		t.Fatalf("listChanges failed: %v", err)
	}
	if page.TotalCount != 3 || !page.HasMore {
		t.Fatalf("expected total 3 with more, got %+v", page)
	}
	if page.Data[0].Seq <= page.Data[1].Seq {
		t.Fatalf("expected descending sequence, got %d then %d", page.Data[0].Seq, page.Data[1].Seq)
	}
	if page.Data[0].NewValue != `"PERMANENTLY_CLOSED"` {
		t.Fatalf("expected the latest change first, got %s", page.Data[0].NewValue)
	}
}
