package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/infra/database/models"
)

type QuestionRepository struct {
	base
}

func (r *QuestionRepository) Get(ctx context.Context, id string) (domain.Question, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var row models.Question
	if err := db.Take(&row, "id = ?", id).Error; err != nil {
		return domain.Question{}, translate(err, "question")
	}
	return questionFromModel(row), nil
}

func (r *QuestionRepository) ListBySurvey(ctx context.Context, surveyID string) ([]domain.Question, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rows []models.Question
	if err := db.Where("survey_id = ?", surveyID).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, questionFromModel(row))
	}
	return questions, nil
}

func (r *QuestionRepository) IDsBySurvey(ctx context.Context, surveyID string) ([]string, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var ids []string
	err := db.Model(&models.Question{}).
		Where("survey_id = ?", surveyID).
		Order("position ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Create inserts all questions in one statement.
func (r *QuestionRepository) Create(ctx context.Context, questions []domain.Question) ([]domain.Question, error) {
	if len(questions) == 0 {
		return []domain.Question{}, nil
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	rows := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, models.Question{
			ID:           uuid.NewString(),
			SurveyID:     q.SurveyID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
		})
	}
	if err := db.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return nil, err
	}

	created := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		created = append(created, questionFromModel(row))
	}
	return created, nil
}

func (r *QuestionRepository) DeleteBySurvey(ctx context.Context, surveyID string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return db.Delete(&models.Question{}, "survey_id = ?", surveyID).Error
}

func questionFromModel(m models.Question) domain.Question {
	return domain.Question{
		ID:           m.ID,
		SurveyID:     m.SurveyID,
		QuestionText: m.QuestionText,
		QuestionType: m.QuestionType,
	}
}
