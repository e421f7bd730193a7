package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/infra/database/models"
)

type SurveyRepository struct {
	base
}

func (r *SurveyRepository) List(ctx context.Context, filter domain.SurveyFilter) ([]domain.Survey, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := db.Model(&models.Survey{})
	if filter.CreatorID != "" {
		query = query.Where("creator_id = ?", filter.CreatorID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}

	var rows []models.Survey
	if err := query.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	surveys := make([]domain.Survey, 0, len(rows))
	for _, row := range rows {
		surveys = append(surveys, surveyFromModel(row))
	}
	return surveys, nil
}

func (r *SurveyRepository) Get(ctx context.Context, id string) (domain.Survey, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var row models.Survey
	if err := db.Take(&row, "id = ?", id).Error; err != nil {
		return domain.Survey{}, translate(err, "survey")
	}
	return surveyFromModel(row), nil
}

func (r *SurveyRepository) Create(ctx context.Context, survey domain.Survey) (domain.Survey, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	row := models.Survey{
		ID:          uuid.NewString(),
		Title:       survey.Title,
		Description: survey.Description,
		CreatorID:   survey.CreatorID,
	}
	if err := db.Omit(clause.Associations).Clauses(clause.Returning{}).Create(&row).Error; err != nil {
		return domain.Survey{}, err
	}
	return surveyFromModel(row), nil
}

func (r *SurveyRepository) Update(ctx context.Context, id, title, description string) (domain.Survey, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []models.Survey
	result := db.Model(&rows).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]any{"title": title, "description": description})
	if result.Error != nil {
		return domain.Survey{}, result.Error
	}
	if len(rows) == 0 {
		return domain.Survey{}, domain.NotFoundError{Resource: "survey"}
	}
	return surveyFromModel(rows[0]), nil
}

func (r *SurveyRepository) Delete(ctx context.Context, id string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return db.Delete(&models.Survey{}, "id = ?", id).Error
}

func surveyFromModel(m models.Survey) domain.Survey {
	return domain.Survey{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		CreatorID:   m.CreatorID,
		CreatedAt:   m.CreatedAt,
	}
}
