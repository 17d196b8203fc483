package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/phlask/resource-registry/internal/domain"
	"github.com/phlask/resource-registry/schema"
)

// ResourceRepository defines storage operations for resource entries.
// Update loads the entry under a row lock, invokes apply on that state, and
// persists the result together with its change records in a single atomic
// write; a partially applied update must never become visible.
type ResourceRepository interface {
	Create(ctx context.Context, entry domain.ResourceEntry) error
	List(ctx context.Context, filter domain.ResourceFilter, page domain.Pagination) ([]domain.ResourceEntry, int64, error)
	Get(ctx context.Context, id string) (domain.ResourceEntry, error)
	Update(ctx context.Context, id string, apply domain.UpdateFunc) (domain.ResourceEntry, error)
	Delete(ctx context.Context, id string) error
}

// ChangeNotifier fans successful mutations out to live subscribers.
type ChangeNotifier interface {
	PublishChanges(ctx context.Context, records []domain.ChangeRecord) error
}

type ResourceUsecase struct {
	repo     ResourceRepository
	notifier ChangeNotifier
}

// NewResourceUsecase wires the mutation and query paths. notifier may be nil;
// publishing is best-effort and never fails a mutation.
func NewResourceUsecase(repo ResourceRepository, notifier ChangeNotifier) *ResourceUsecase {
	return &ResourceUsecase{repo: repo, notifier: notifier}
}

// List returns one page of the filtered set. Ordering is stable across pages
// of the same filter set, so offset paging neither skips nor duplicates rows
// while the underlying set is unchanged.
func (uc *ResourceUsecase) List(ctx context.Context, filter domain.ResourceFilter, page domain.Pagination) (domain.Page[domain.ResourceEntry], error) {
	if page.Paged && (page.Limit < 0 || page.Offset < 0) {
		return domain.Page[domain.ResourceEntry]{}, domain.ValidationError{Fields: []domain.FieldError{
			{Field: "pagination", Rule: domain.RuleTypeMismatch},
		}}
	}
	data, total, err := uc.repo.List(ctx, filter, page)
	if err != nil {
		return domain.Page[domain.ResourceEntry]{}, err
	}
	return domain.NewPage(data, total, page), nil
}

func (uc *ResourceUsecase) GetByID(ctx context.Context, id string) (domain.ResourceEntry, error) {
	return uc.repo.Get(ctx, id)
}

// Nearby lists the filtered candidate set and keeps entries within
// radiusMeters great-circle distance of the given point. This is a
// correctness-first client-side pass; a server-side spatial predicate
// (e.g. PostGIS ST_DWithin) is the intended optimization once candidate
// sets outgrow it.
func (uc *ResourceUsecase) Nearby(ctx context.Context, lat, lon, radiusMeters float64, filter domain.ResourceFilter) ([]domain.ResourceEntry, error) {
	var fieldErrs []domain.FieldError
	if lat < -90 || lat > 90 {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "latitude", Rule: domain.RuleTypeMismatch})
	}
	if lon < -180 || lon > 180 {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "longitude", Rule: domain.RuleTypeMismatch})
	}
	if radiusMeters <= 0 {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "radius", Rule: domain.RuleTypeMismatch})
	}
	if len(fieldErrs) > 0 {
		return nil, domain.ValidationError{Fields: fieldErrs}
	}

	candidates, _, err := uc.repo.List(ctx, filter, domain.Unbounded())
	if err != nil {
		return nil, err
	}

	matches := make([]domain.ResourceEntry, 0, len(candidates))
	for _, entry := range candidates {
		if HaversineMeters(lat, lon, entry.Latitude, entry.Longitude) <= radiusMeters {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}

// Create validates and persists a new entry. Provenance is stamped from the
// acting identity and the current time; callers cannot supply it. Initial
// creation writes no change record, only subsequent edits do.
func (uc *ResourceUsecase) Create(ctx context.Context, entry domain.ResourceEntry, actor string) (domain.ResourceEntry, error) {
	if errs := schema.Validate(entry); len(errs) > 0 {
		return domain.ResourceEntry{}, domain.ValidationError{Fields: errs}
	}

	now := time.Now().UTC()
	entry.ID = uuid.NewString()
	if entry.Version == 0 {
		entry.Version = 1
	}
	entry.DateCreated = now
	entry.Creator = actor
	entry.LastModified = now
	entry.LastModifier = actor
	entry.Verification = domain.Verification{Verified: false, LastModified: now}
	if entry.Source.Type == "" {
		entry.Source.Type = domain.SourceManual
	}
	if entry.Images == nil {
		entry.Images = []string{}
	}

	if err := uc.repo.Create(ctx, entry); err != nil {
		return domain.ResourceEntry{}, err
	}
	return entry, nil
}

// UpdateByID applies a partial diff to an entry. Validation and merge run
// against the entry as it stands under the store's row lock, so a concurrent
// editor's fields are never silently reverted. If any field fails, nothing is
// applied and no change record is written. On success all changes land in one
// atomic write together with one change record per changed field.
func (uc *ResourceUsecase) UpdateByID(ctx context.Context, id string, fields map[string]any, actor, reason string) (domain.ResourceEntry, error) {
	var applied []domain.ChangeRecord
	merged, err := uc.repo.Update(ctx, id, func(current domain.ResourceEntry) (domain.ResourceEntry, []domain.ChangeRecord, error) {
		if errs := schema.ValidatePartial(current.ResourceType, fields); len(errs) > 0 {
			return domain.ResourceEntry{}, nil, domain.ValidationError{Fields: errs}
		}

		merged, diffs, err := applyFields(current, fields)
		if err != nil {
			return domain.ResourceEntry{}, nil, err
		}
		if len(diffs) == 0 {
			return current, nil, nil
		}

		now := time.Now().UTC()
		merged.LastModified = now
		merged.LastModifier = actor

		records := make([]domain.ChangeRecord, 0, len(diffs))
		for _, d := range diffs {
			records = append(records, domain.ChangeRecord{
				ID:         uuid.NewString(),
				ResourceID: id,
				Actor:      actor,
				Field:      d.field,
				OldValue:   d.oldValue,
				NewValue:   d.newValue,
				Reason:     reason,
				CDate:      now,
			})
		}
		applied = records
		return merged, records, nil
	})
	if err != nil {
		return domain.ResourceEntry{}, err
	}

	if len(applied) > 0 {
		uc.notify(ctx, applied)
	}
	return merged, nil
}

// DeleteByID removes an entry for good. Change records and suggestions
// survive the delete for auditability. Callers wanting something reversible
// should use SetStatus with HIDDEN instead.
func (uc *ResourceUsecase) DeleteByID(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

// SetStatus is the status-transition path; HIDDEN is the soft delete.
func (uc *ResourceUsecase) SetStatus(ctx context.Context, id string, status domain.ResourceStatus, actor string) (domain.ResourceEntry, error) {
	return uc.UpdateByID(ctx, id, map[string]any{"status": string(status)}, actor, "")
}

// Hide soft-deletes an entry by transitioning it to HIDDEN.
func (uc *ResourceUsecase) Hide(ctx context.Context, id string, actor string) (domain.ResourceEntry, error) {
	return uc.SetStatus(ctx, id, domain.StatusHidden, actor)
}

// Verify flips the verification state. Verification carries its own
// last_modified/verifier provenance and is updated independently of general
// field edits, so it does not touch the changelog or the entry's modifier
// stamps.
func (uc *ResourceUsecase) Verify(ctx context.Context, id string, verified bool, actor string) (domain.ResourceEntry, error) {
	return uc.repo.Update(ctx, id, func(current domain.ResourceEntry) (domain.ResourceEntry, []domain.ChangeRecord, error) {
		current.Verification = domain.Verification{
			Verified:     verified,
			LastModified: time.Now().UTC(),
			Verifier:     actor,
		}
		return current, nil, nil
	})
}

func (uc *ResourceUsecase) notify(ctx context.Context, records []domain.ChangeRecord) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.PublishChanges(ctx, records); err != nil {
		slog.WarnContext(ctx, "failed to publish change records",
			slog.String("error", err.Error()),
			slog.String("module", "resource"),
		)
	}
}

type fieldDiff struct {
	field    string
	oldValue string
	newValue string
}

// applyFields merges a validated diff into the current entry through its JSON
// form and reports which fields actually changed, comparing serialized
// values. Fields whose new value equals the current one are dropped from the
// diff so no-op updates emit no change records.
func applyFields(current domain.ResourceEntry, fields map[string]any) (domain.ResourceEntry, []fieldDiff, error) {
	raw, err := json.Marshal(current)
	if err != nil {
		return current, nil, err
	}
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		return current, nil, err
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var diffs []fieldDiff
	for _, name := range names {
		newRaw, err := json.Marshal(fields[name])
		if err != nil {
			return current, nil, err
		}
		oldRaw := []byte("null")
		if old, ok := flat[name]; ok {
			if oldRaw, err = json.Marshal(old); err != nil {
				return current, nil, err
			}
		}
		if bytes.Equal(oldRaw, newRaw) {
			continue
		}
		diffs = append(diffs, fieldDiff{field: name, oldValue: string(oldRaw), newValue: string(newRaw)})
		if fields[name] == nil {
			delete(flat, name)
		} else {
			flat[name] = fields[name]
		}
	}

	mergedRaw, err := json.Marshal(flat)
	if err != nil {
		return current, nil, err
	}
	var merged domain.ResourceEntry
	if err := json.Unmarshal(mergedRaw, &merged); err != nil {
		return current, nil, err
	}
	return merged, diffs, nil
}
