package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/infra/database/models"
)

type OptionRepository struct {
	base
}

func (r *OptionRepository) ListByQuestions(ctx context.Context, questionIDs []string) ([]domain.Option, error) {
	if len(questionIDs) == 0 {
		return []domain.Option{}, nil
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []models.Option
	if err := db.Where("question_id IN ?", questionIDs).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	options := make([]domain.Option, 0, len(rows))
	for _, row := range rows {
		options = append(options, domain.Option{
			ID:         row.ID,
			QuestionID: row.QuestionID,
			OptionText: row.OptionText,
		})
	}
	return options, nil
}

func (r *OptionRepository) Create(ctx context.Context, option domain.Option) (domain.Option, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	row := models.Option{
		ID:         uuid.NewString(),
		QuestionID: option.QuestionID,
		OptionText: option.OptionText,
	}
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return domain.Option{}, err
	}
	return domain.Option{
		ID:         row.ID,
		QuestionID: row.QuestionID,
		OptionText: row.OptionText,
	}, nil
}

func (r *OptionRepository) DeleteByQuestions(ctx context.Context, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	return db.Delete(&models.Option{}, "question_id IN ?", questionIDs).Error
}
