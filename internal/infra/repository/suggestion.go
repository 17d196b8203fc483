package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/phlask/resource-registry/internal/domain"
	"github.com/phlask/resource-registry/internal/infra/database/models"
)

type SuggestionRepository struct {
	db *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

func (r *SuggestionRepository) Create(ctx context.Context, s domain.Suggestion) error {
	row, err := suggestionToModel(s)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *SuggestionRepository) Get(ctx context.Context, id string) (domain.Suggestion, error) {
	var row models.Suggestion
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Suggestion{}, domain.NotFoundError{Resource: "suggestion"}
	}
	if err != nil {
		return domain.Suggestion{}, err
	}
	return suggestionFromModel(row)
}

func (r *SuggestionRepository) List(ctx context.Context, filter domain.SuggestionFilter, page domain.Pagination) ([]domain.Suggestion, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Suggestion{})
	if filter.ResourceID != nil {
		query = query.Where("resource_id = ?", *filter.ResourceID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("c_date ASC, id ASC")
	if page.Paged {
		query = query.Limit(page.Limit).Offset(page.Offset)
	}

	var rows []models.Suggestion
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	suggestions := make([]domain.Suggestion, 0, len(rows))
	for _, row := range rows {
		s, err := suggestionFromModel(row)
		if err != nil {
			return nil, 0, err
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, total, nil
}

// Close transitions an OPEN suggestion to a terminal state. The status check
// lives in the WHERE clause so only one of two racing moderators wins.
func (r *SuggestionRepository) Close(ctx context.Context, id string, to domain.SuggestionStatus, moderator, reason string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Suggestion{}).
		Where("id = ? AND status = ?", id, string(domain.SuggestionOpen)).
		Updates(map[string]any{
			"status":      string(to),
			"moderator":   moderator,
			"reason":      reason,
			"resolved_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func suggestionToModel(s domain.Suggestion) (models.Suggestion, error) {
	fields, err := json.Marshal(s.Fields)
	if err != nil {
		return models.Suggestion{}, err
	}
	return models.Suggestion{
		ID:         s.ID,
		ResourceID: s.ResourceID,
		Reporter:   s.Reporter,
		Fields:     string(fields),
		Status:     string(s.Status),
		Moderator:  s.Moderator,
		Reason:     s.Reason,
		CDate:      s.CDate,
		ResolvedAt: s.ResolvedAt,
	}, nil
}

func suggestionFromModel(row models.Suggestion) (domain.Suggestion, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(row.Fields), &fields); err != nil {
		return domain.Suggestion{}, err
	}
	return domain.Suggestion{
		ID:         row.ID,
		ResourceID: row.ResourceID,
		Reporter:   row.Reporter,
		Fields:     fields,
		Status:     domain.SuggestionStatus(row.Status),
		Moderator:  row.Moderator,
		Reason:     row.Reason,
		CDate:      row.CDate,
		ResolvedAt: row.ResolvedAt,
	}, nil
}
