package usecase

import (
	"context"
	"time"

	"github.com/phlask/resource-registry/internal/domain"
)

// memDB is a shared in-memory backing store for the repository mocks used
// across the usecase tests. Listing follows insertion order, mirroring the
// stable ordering the real store provides.
type memDB struct {
	entries   map[string]domain.ResourceEntry
	order     []string
	changes   []domain.ChangeRecord
	suggs     map[string]domain.Suggestion
	suggOrder []string
}

func newMemDB() *memDB {
	return &memDB{
		entries: make(map[string]domain.ResourceEntry),
		suggs:   make(map[string]domain.Suggestion),
	}
}

func (db *memDB) maxSeq(resourceID string) int64 {
	var max int64
	for _, c := range db.changes {
		if c.ResourceID == resourceID && c.Seq > max {
			max = c.Seq
		}
	}
	return max
}

type memResourceRepo struct {
	db *memDB
}

func (r *memResourceRepo) Create(ctx context.Context, entry domain.ResourceEntry) error {
	r.db.entries[entry.ID] = entry
	r.db.order = append(r.db.order, entry.ID)
	return nil
}

func (r *memResourceRepo) List(ctx context.Context, filter domain.ResourceFilter, page domain.Pagination) ([]domain.ResourceEntry, int64, error) {
	matched := make([]domain.ResourceEntry, 0, len(r.db.order))
	for _, id := range r.db.order {
		e, ok := r.db.entries[id]
		if !ok {
			continue
		}
		if filter.ResourceType != nil && e.ResourceType != *filter.ResourceType {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		matched = append(matched, e)
	}
	total := int64(len(matched))
	if page.Paged {
		lo := page.Offset
		if lo > len(matched) {
			lo = len(matched)
		}
		hi := lo + page.Limit
		if hi > len(matched) {
			hi = len(matched)
		}
		matched = matched[lo:hi]
	}
	return matched, total, nil
}

func (r *memResourceRepo) Get(ctx context.Context, id string) (domain.ResourceEntry, error) {
	e, ok := r.db.entries[id]
	if !ok {
		return domain.ResourceEntry{}, domain.NotFoundError{Resource: "resource"}
	}
	return e, nil
}

func (r *memResourceRepo) Update(ctx context.Context, id string, apply domain.UpdateFunc) (domain.ResourceEntry, error) {
	current, ok := r.db.entries[id]
	if !ok {
		return domain.ResourceEntry{}, domain.NotFoundError{Resource: "resource"}
	}
	merged, changes, err := apply(current)
	if err != nil {
		return domain.ResourceEntry{}, err
	}
	r.db.entries[id] = merged
	seq := r.db.maxSeq(id)
	for i := range changes {
		seq++
		changes[i].Seq = seq
		r.db.changes = append(r.db.changes, changes[i])
	}
	return merged, nil
}

func (r *memResourceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.db.entries[id]; !ok {
		return domain.NotFoundError{Resource: "resource"}
	}
	delete(r.db.entries, id)
	return nil
}

type memChangelogRepo struct {
	db *memDB
}

func (r *memChangelogRepo) List(ctx context.Context, resourceID string, page domain.Pagination) ([]domain.ChangeRecord, int64, error) {
	matched := make([]domain.ChangeRecord, 0, len(r.db.changes))
	for i := len(r.db.changes) - 1; i >= 0; i-- {
		if r.db.changes[i].ResourceID == resourceID {
			matched = append(matched, r.db.changes[i])
		}
	}
	total := int64(len(matched))
	if page.Paged {
		lo := page.Offset
		if lo > len(matched) {
			lo = len(matched)
		}
		hi := lo + page.Limit
		if hi > len(matched) {
			hi = len(matched)
		}
		matched = matched[lo:hi]
	}
	return matched, total, nil
}

func (r *memChangelogRepo) Get(ctx context.Context, changeID string) (domain.ChangeRecord, error) {
	for _, c := range r.db.changes {
		if c.ID == changeID {
			return c, nil
		}
	}
	return domain.ChangeRecord{}, domain.NotFoundError{Resource: "change record"}
}

type memSuggestionRepo struct {
	db *memDB
}

func (r *memSuggestionRepo) Create(ctx context.Context, s domain.Suggestion) error {
	r.db.suggs[s.ID] = s
	r.db.suggOrder = append(r.db.suggOrder, s.ID)
	return nil
}

func (r *memSuggestionRepo) Get(ctx context.Context, id string) (domain.Suggestion, error) {
	s, ok := r.db.suggs[id]
	if !ok {
		return domain.Suggestion{}, domain.NotFoundError{Resource: "suggestion"}
	}
	return s, nil
}

func (r *memSuggestionRepo) List(ctx context.Context, filter domain.SuggestionFilter, page domain.Pagination) ([]domain.Suggestion, int64, error) {
	matched := make([]domain.Suggestion, 0, len(r.db.suggOrder))
	for _, id := range r.db.suggOrder {
		s := r.db.suggs[id]
		if filter.ResourceID != nil && s.ResourceID != *filter.ResourceID {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		matched = append(matched, s)
	}
	total := int64(len(matched))
	if page.Paged {
		lo := page.Offset
		if lo > len(matched) {
			lo = len(matched)
		}
		hi := lo + page.Limit
		if hi > len(matched) {
			hi = len(matched)
		}
		matched = matched[lo:hi]
	}
	return matched, total, nil
}

func (r *memSuggestionRepo) Close(ctx context.Context, id string, to domain.SuggestionStatus, moderator, reason string, at time.Time) (bool, error) {
	s, ok := r.db.suggs[id]
	if !ok || s.Status != domain.SuggestionOpen {
		return false, nil
	}
	s.Status = to
	s.Moderator = moderator
	s.Reason = reason
	s.ResolvedAt = &at
	r.db.suggs[id] = s
	return true, nil
}

// newTestEngine wires the three usecases over one shared in-memory store.
func newTestEngine() (*ResourceUsecase, *ChangelogUsecase, *SuggestionUsecase, *memDB) {
	db := newMemDB()
	resources := NewResourceUsecase(&memResourceRepo{db: db}, nil)
	changelog := NewChangelogUsecase(&memChangelogRepo{db: db}, resources)
	suggestions := NewSuggestionUsecase(&memSuggestionRepo{db: db}, resources)
	return resources, changelog, suggestions, db
}

func waterEntry() domain.ResourceEntry {
	return domain.ResourceEntry{
		ResourceType: domain.ResourceWater,
		Status:       domain.StatusOperational,
		Latitude:     39.95,
		Longitude:    -75.16,
		Water: &domain.WaterInfo{
			DispenserType: []string{"DRINKING_FOUNTAIN"},
			Tags:          []string{},
		},
	}
}
