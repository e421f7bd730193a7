package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/infra/database/models"
)

type ResponseRepository struct {
	base
}

func (r *ResponseRepository) Create(ctx context.Context, response domain.Response) (domain.Response, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	row := models.Response{
		ID:       uuid.NewString(),
		SurveyID: response.SurveyID,
		UserID:   response.UserID,
	}
	if err := db.Omit(clause.Associations).Clauses(clause.Returning{}).Create(&row).Error; err != nil {
		return domain.Response{}, err
	}
	return domain.Response{
		ID:        row.ID,
		SurveyID:  row.SurveyID,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (r *ResponseRepository) DeleteBySurvey(ctx context.Context, surveyID string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return db.Delete(&models.Response{}, "survey_id = ?", surveyID).Error
}

type AnswerChoiceRepository struct {
	base
}

func (r *AnswerChoiceRepository) Create(ctx context.Context, answers []domain.AnswerChoice) ([]domain.AnswerChoice, error) {
	if len(answers) == 0 {
		return []domain.AnswerChoice{}, nil
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	rows := make([]models.AnswerChoice, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, models.AnswerChoice{
			ID:         uuid.NewString(),
			ResponseID: a.ResponseID,
			QuestionID: a.QuestionID,
			OptionID:   a.OptionID,
		})
	}
	if err := db.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return nil, err
	}

	created := make([]domain.AnswerChoice, 0, len(rows))
	for _, row := range rows {
		created = append(created, domain.AnswerChoice{
			ID:         row.ID,
			ResponseID: row.ResponseID,
			QuestionID: row.QuestionID,
			OptionID:   row.OptionID,
		})
	}
	return created, nil
}

func (r *AnswerChoiceRepository) DeleteByQuestions(ctx context.Context, questionIDs []string) error {
	if len(questionIDs) == 0 {
		return nil
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	return db.Delete(&models.AnswerChoice{}, "question_id IN ?", questionIDs).Error
}

func (r *AnswerChoiceRepository) DeleteBySurveyResponses(ctx context.Context, surveyID string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	responses := db.Model(&models.Response{}).Select("id").Where("survey_id = ?", surveyID)
	return db.Delete(&models.AnswerChoice{}, "response_id IN (?)", responses).Error
}
