package repository

import (
	"context"
	"encoding/json"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phlask/resource-registry/internal/domain"
	"github.com/phlask/resource-registry/internal/infra/database/models"
)

var tracer trace.Tracer = otel.Tracer("repository")

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) Create(ctx context.Context, entry domain.ResourceEntry) error {
	row, err := resourceToModel(entry)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// List orders by (date_created, id) so offset paging over an unchanged set is
// gapless and duplicate-free.
func (r *ResourceRepository) List(ctx context.Context, filter domain.ResourceFilter, page domain.Pagination) ([]domain.ResourceEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Resource{})
	if filter.ResourceType != nil {
		query = query.Where("resource_type = ?", string(*filter.ResourceType))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("date_created ASC, id ASC")
	if page.Paged {
		query = query.Limit(page.Limit).Offset(page.Offset)
	}

	var rows []models.Resource
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]domain.ResourceEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := resourceFromModel(row)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, nil
}

func (r *ResourceRepository) Get(ctx context.Context, id string) (domain.ResourceEntry, error) {
	var row models.Resource
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ResourceEntry{}, domain.NotFoundError{Resource: "resource"}
	}
	if err != nil {
		return domain.ResourceEntry{}, err
	}
	return resourceFromModel(row)
}

// Update locks the target row, re-reads the entry under the lock, invokes
// apply on that state, and saves the result together with its change records
// in one transaction. Merging under the lock means two concurrent editors
// serialize instead of the second one reverting the first one's fields, and
// sequence numbers stay gapless per resource.
func (r *ResourceRepository) Update(ctx context.Context, id string, apply domain.UpdateFunc) (domain.ResourceEntry, error) {
	ctx, span := tracer.Start(ctx, "ResourceRepository.Update")
	defer span.End()

	var merged domain.ResourceEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Resource
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFoundError{Resource: "resource"}
		}
		if err != nil {
			return err
		}

		current, err := resourceFromModel(row)
		if err != nil {
			return err
		}

		var changes []domain.ChangeRecord
		merged, changes, err = apply(current)
		if err != nil {
			return err
		}

		newRow, err := resourceToModel(merged)
		if err != nil {
			return err
		}
		if err := tx.Save(&newRow).Error; err != nil {
			return err
		}

		if len(changes) == 0 {
			return nil
		}

		var maxSeq int64
		err = tx.Model(&models.ChangeRecord{}).
			Where("resource_id = ?", id).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error
		if err != nil {
			return err
		}

		rows := make([]models.ChangeRecord, 0, len(changes))
		for i, c := range changes {
			rows = append(rows, models.ChangeRecord{
				ID:         c.ID,
				ResourceID: c.ResourceID,
				Seq:        maxSeq + int64(i) + 1,
				Actor:      c.Actor,
				Field:      c.Field,
				OldValue:   c.OldValue,
				NewValue:   c.NewValue,
				Reason:     c.Reason,
				CDate:      c.CDate,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return domain.ResourceEntry{}, err
	}
	return merged, nil
}

// Delete removes the row for good. Change records carry no foreign key and
// stay behind as the audit trail.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Resource{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "resource"}
	}
	return nil
}

func resourceToModel(entry domain.ResourceEntry) (models.Resource, error) {
	images, err := json.Marshal(entry.Images)
	if err != nil {
		return models.Resource{}, err
	}

	var payload *string
	var info any
	switch entry.ResourceType {
	case domain.ResourceWater:
		if entry.Water != nil {
			info = entry.Water
		}
	case domain.ResourceFood:
		if entry.Food != nil {
			info = entry.Food
		}
	case domain.ResourceForage:
		if entry.Forage != nil {
			info = entry.Forage
		}
	case domain.ResourceBathroom:
		if entry.Bathroom != nil {
			info = entry.Bathroom
		}
	}
	if info != nil {
		raw, err := json.Marshal(info)
		if err != nil {
			return models.Resource{}, err
		}
		s := string(raw)
		payload = &s
	}

	var entryType *string
	if entry.EntryType != nil {
		s := string(*entry.EntryType)
		entryType = &s
	}

	return models.Resource{
		ID:           entry.ID,
		Version:      entry.Version,
		DateCreated:  entry.DateCreated,
		Creator:      entry.Creator,
		LastModified: entry.LastModified,
		LastModifier: entry.LastModifier,
		SourceType:   entry.Source.Type,
		SourceURL:    entry.Source.URL,
		Verified:     entry.Verification.Verified,
		VerifiedAt:   entry.Verification.LastModified,
		Verifier:     entry.Verification.Verifier,
		ResourceType: string(entry.ResourceType),
		Name:         entry.Name,
		Description:  entry.Description,
		Guidelines:   entry.Guidelines,
		Address:      entry.Address,
		City:         entry.City,
		State:        entry.State,
		ZipCode:      entry.ZipCode,
		Latitude:     entry.Latitude,
		Longitude:    entry.Longitude,
		GpID:         entry.GpID,
		Images:       string(images),
		EntryType:    entryType,
		Status:       string(entry.Status),
		Payload:      payload,
	}, nil
}

func resourceFromModel(row models.Resource) (domain.ResourceEntry, error) {
	var images []string
	if row.Images != "" {
		if err := json.Unmarshal([]byte(row.Images), &images); err != nil {
			return domain.ResourceEntry{}, err
		}
	}
	if images == nil {
		images = []string{}
	}

	var entryType *domain.EntryType
	if row.EntryType != nil {
		et := domain.EntryType(*row.EntryType)
		entryType = &et
	}

	entry := domain.ResourceEntry{
		ID:           row.ID,
		Version:      row.Version,
		DateCreated:  row.DateCreated,
		Creator:      row.Creator,
		LastModified: row.LastModified,
		LastModifier: row.LastModifier,
		Source: domain.DataSource{
			Type: row.SourceType,
			URL:  row.SourceURL,
		},
		Verification: domain.Verification{
			Verified:     row.Verified,
			LastModified: row.VerifiedAt,
			Verifier:     row.Verifier,
		},
		ResourceType: domain.ResourceType(row.ResourceType),
		Name:         row.Name,
		Description:  row.Description,
		Guidelines:   row.Guidelines,
		Address:      row.Address,
		City:         row.City,
		State:        row.State,
		ZipCode:      row.ZipCode,
		Latitude:     row.Latitude,
		Longitude:    row.Longitude,
		GpID:         row.GpID,
		Images:       images,
		EntryType:    entryType,
		Status:       domain.ResourceStatus(row.Status),
	}

	if row.Payload == nil {
		return entry, nil
	}
	raw := []byte(*row.Payload)
	switch entry.ResourceType {
	case domain.ResourceWater:
		entry.Water = &domain.WaterInfo{}
		if err := json.Unmarshal(raw, entry.Water); err != nil {
			return domain.ResourceEntry{}, err
		}
	case domain.ResourceFood:
		entry.Food = &domain.FoodInfo{}
		if err := json.Unmarshal(raw, entry.Food); err != nil {
			return domain.ResourceEntry{}, err
		}
	case domain.ResourceForage:
		entry.Forage = &domain.ForageInfo{}
		if err := json.Unmarshal(raw, entry.Forage); err != nil {
			return domain.ResourceEntry{}, err
		}
	case domain.ResourceBathroom:
		entry.Bathroom = &domain.BathroomInfo{}
		if err := json.Unmarshal(raw, entry.Bathroom); err != nil {
			return domain.ResourceEntry{}, err
		}
	}
	return entry, nil
}
