package usecase

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/phlask/resource-registry/internal/domain"
)

// ChangelogRepository reads the append-only audit log. Appending happens
// inside the mutation path's atomic write, never here.
type ChangelogRepository interface {
	List(ctx context.Context, resourceID string, page domain.Pagination) ([]domain.ChangeRecord, int64, error)
	Get(ctx context.Context, changeID string) (domain.ChangeRecord, error)
}

// ResourceUpdater is the slice of the mutation path rollback needs.
type ResourceUpdater interface {
	UpdateByID(ctx context.Context, id string, fields map[string]any, actor, reason string) (domain.ResourceEntry, error)
}

type ChangelogUsecase struct {
	repo      ChangelogRepository
	resources ResourceUpdater
}

func NewChangelogUsecase(repo ChangelogRepository, resources ResourceUpdater) *ChangelogUsecase {
	return &ChangelogUsecase{repo: repo, resources: resources}
}

// ListChanges returns one page of a resource's audit log, most recent first.
// Ordering follows the per-resource sequence number, so concurrent writers
// never reorder history.
func (uc *ChangelogUsecase) ListChanges(ctx context.Context, resourceID string, page domain.Pagination) (domain.Page[domain.ChangeRecord], error) {
	if page.Paged && (page.Limit < 0 || page.Offset < 0) {
		return domain.Page[domain.ChangeRecord]{}, domain.ValidationError{Fields: []domain.FieldError{
			{Field: "pagination", Rule: domain.RuleTypeMismatch},
		}}
	}
	data, total, err := uc.repo.List(ctx, resourceID, page)
	if err != nil {
		return domain.Page[domain.ChangeRecord]{}, err
	}
	return domain.NewPage(data, total, page), nil
}

// Rollback reverts the field touched by the named change record to its old
// value by running a regular update. History is never edited: the revert
// itself appends a new change record with old and new swapped. Rolling back a
// record whose target resource no longer exists reports NotFound.
func (uc *ChangelogUsecase) Rollback(ctx context.Context, changeID, actor string) (domain.ResourceEntry, error) {
	rec, err := uc.repo.Get(ctx, changeID)
	if err != nil {
		return domain.ResourceEntry{}, err
	}

	var oldValue any
	if err := json.Unmarshal([]byte(rec.OldValue), &oldValue); err != nil {
		return domain.ResourceEntry{}, errors.Wrap(err, "corrupt change record value")
	}

	return uc.resources.UpdateByID(ctx, rec.ResourceID,
		map[string]any{rec.Field: oldValue},
		actor, "rollback of "+rec.ID)
}
