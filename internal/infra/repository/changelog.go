package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/phlask/resource-registry/internal/domain"
	"github.com/phlask/resource-registry/internal/infra/database/models"
)

type ChangelogRepository struct {
	db *gorm.DB
}

func NewChangelogRepository(db *gorm.DB) *ChangelogRepository {
	return &ChangelogRepository{db: db}
}

// List returns a resource's audit log most recent first, ordered by the
// per-resource sequence number.
func (r *ChangelogRepository) List(ctx context.Context, resourceID string, page domain.Pagination) ([]domain.ChangeRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ChangeRecord{}).
		Where("resource_id = ?", resourceID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("seq DESC")
	if page.Paged {
		query = query.Limit(page.Limit).Offset(page.Offset)
	}

	var rows []models.ChangeRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	records := make([]domain.ChangeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, changeFromModel(row))
	}
	return records, total, nil
}

func (r *ChangelogRepository) Get(ctx context.Context, changeID string) (domain.ChangeRecord, error) {
	var row models.ChangeRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", changeID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ChangeRecord{}, domain.NotFoundError{Resource: "change"}
	}
	if err != nil {
		return domain.ChangeRecord{}, err
	}
	return changeFromModel(row), nil
}

func changeFromModel(row models.ChangeRecord) domain.ChangeRecord {
	return domain.ChangeRecord{
		ID:         row.ID,
		ResourceID: row.ResourceID,
		Seq:        row.Seq,
		Actor:      row.Actor,
		Field:      row.Field,
		OldValue:   row.OldValue,
		NewValue:   row.NewValue,
		Reason:     row.Reason,
		CDate:      row.CDate,
	}
}
