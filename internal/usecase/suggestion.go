package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/phlask/resource-registry/internal/domain"
	"github.com/phlask/resource-registry/schema"
)

// SuggestionRepository defines storage for proposed edits. Close performs a
// compare-and-set from OPEN and reports whether it won, so two moderators
// cannot both resolve the same suggestion.
type SuggestionRepository interface {
	Create(ctx context.Context, s domain.Suggestion) error
	Get(ctx context.Context, id string) (domain.Suggestion, error)
	List(ctx context.Context, filter domain.SuggestionFilter, page domain.Pagination) ([]domain.Suggestion, int64, error)
	Close(ctx context.Context, id string, to domain.SuggestionStatus, moderator, reason string, at time.Time) (bool, error)
}

// ResourceAccess is the slice of the resource engine the workflow needs:
// existence checks on submit and the mutation path on approval.
type ResourceAccess interface {
	GetByID(ctx context.Context, id string) (domain.ResourceEntry, error)
	UpdateByID(ctx context.Context, id string, fields map[string]any, actor, reason string) (domain.ResourceEntry, error)
}

type SuggestionUsecase struct {
	repo      SuggestionRepository
	resources ResourceAccess
}

func NewSuggestionUsecase(repo SuggestionRepository, resources ResourceAccess) *SuggestionUsecase {
	return &SuggestionUsecase{repo: repo, resources: resources}
}

// Submit stores a proposed diff against an existing resource. The diff is
// validated for shape and vocabulary against the target's type, but required
// fields are not enforced since it is partial. A diff against a missing
// resource reports NotFound and stores nothing.
func (uc *SuggestionUsecase) Submit(ctx context.Context, resourceID, reporter string, fields map[string]any) (domain.Suggestion, error) {
	target, err := uc.resources.GetByID(ctx, resourceID)
	if err != nil {
		return domain.Suggestion{}, err
	}

	if len(fields) == 0 {
		return domain.Suggestion{}, domain.ValidationError{Fields: []domain.FieldError{
			{Field: "fields", Rule: domain.RuleMissingRequired},
		}}
	}
	if errs := schema.ValidatePartial(target.ResourceType, fields); len(errs) > 0 {
		return domain.Suggestion{}, domain.ValidationError{Fields: errs}
	}

	s := domain.Suggestion{
		ID:         uuid.NewString(),
		ResourceID: resourceID,
		Reporter:   reporter,
		Fields:     fields,
		Status:     domain.SuggestionOpen,
		CDate:      time.Now().UTC(),
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		return domain.Suggestion{}, err
	}
	return s, nil
}

func (uc *SuggestionUsecase) Get(ctx context.Context, id string) (domain.Suggestion, error) {
	return uc.repo.Get(ctx, id)
}

// List returns one page of suggestions for the moderation queue.
func (uc *SuggestionUsecase) List(ctx context.Context, filter domain.SuggestionFilter, page domain.Pagination) (domain.Page[domain.Suggestion], error) {
	data, total, err := uc.repo.List(ctx, filter, page)
	if err != nil {
		return domain.Page[domain.Suggestion]{}, err
	}
	return domain.NewPage(data, total, page), nil
}

// Approve applies the suggestion's diff through the mutation path and marks
// it RESOLVED. If the diff no longer validates, the error is surfaced and the
// suggestion stays OPEN for the moderator to deal with.
func (uc *SuggestionUsecase) Approve(ctx context.Context, id, actor string) (domain.Suggestion, error) {
	s, err := uc.repo.Get(ctx, id)
	if err != nil {
		return domain.Suggestion{}, err
	}
	if s.Status != domain.SuggestionOpen {
		return domain.Suggestion{}, domain.InvalidStateError{Entity: "suggestion", State: string(s.Status)}
	}

	if _, err := uc.resources.UpdateByID(ctx, s.ResourceID, s.Fields, actor, "suggestion "+s.ID); err != nil {
		return domain.Suggestion{}, err
	}

	now := time.Now().UTC()
	won, err := uc.repo.Close(ctx, s.ID, domain.SuggestionResolved, actor, "", now)
	if err != nil {
		return domain.Suggestion{}, err
	}
	if !won {
		return domain.Suggestion{}, domain.InvalidStateError{Entity: "suggestion", State: string(s.Status)}
	}

	s.Status = domain.SuggestionResolved
	s.Moderator = actor
	s.ResolvedAt = &now
	return s, nil
}

// Dismiss closes the suggestion without touching the target resource.
func (uc *SuggestionUsecase) Dismiss(ctx context.Context, id, actor, reason string) (domain.Suggestion, error) {
	s, err := uc.repo.Get(ctx, id)
	if err != nil {
		return domain.Suggestion{}, err
	}
	if s.Status != domain.SuggestionOpen {
		return domain.Suggestion{}, domain.InvalidStateError{Entity: "suggestion", State: string(s.Status)}
	}

	now := time.Now().UTC()
	won, err := uc.repo.Close(ctx, s.ID, domain.SuggestionDismissed, actor, reason, now)
	if err != nil {
		return domain.Suggestion{}, err
	}
	if !won {
		return domain.Suggestion{}, domain.InvalidStateError{Entity: "suggestion", State: string(s.Status)}
	}

	s.Status = domain.SuggestionDismissed
	s.Moderator = actor
	s.Reason = reason
	s.ResolvedAt = &now
	return s, nil
}
