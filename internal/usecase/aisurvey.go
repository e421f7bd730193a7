package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/survey-playground/internal/domain"
)

const compensationTimeout = 10 * time.Second

type CreateAISurveyInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	CreatorID   string `json:"creator_id" validate:"required"`
	Topic       string `json:"topic" validate:"required"`
}

// AISurveyUsecase creates a survey whose questions come from the question generator.
type AISurveyUsecase struct {
	store     Store
	generator QuestionGenerator
	events    EventPublisher
}

func NewAISurveyUsecase(store Store, generator QuestionGenerator, events EventPublisher) *AISurveyUsecase {
	return &AISurveyUsecase{store: store, generator: generator, events: events}
}

// Create generates questions before writing anything. If inserting the questions fails
// the freshly inserted survey is deleted again, so a survey never survives without them.
func (uc *AISurveyUsecase) Create(ctx context.Context, input CreateAISurveyInput) (domain.AISurvey, error) {
	ctx, span := tracer.Start(ctx, "AISurvey.Usecase.Create")
	defer span.End()
	span.SetAttributes(attribute.String("topic", input.Topic))

	if err := validateInput(input); err != nil {
		return domain.AISurvey{}, err
	}

	if err := requireUser(ctx, uc.store, input.CreatorID); err != nil {
		span.RecordError(err)
		return domain.AISurvey{}, err
	}

	generated, err := uc.generator.Generate(ctx, input.Topic)
	if err != nil {
		span.RecordError(err)
		return domain.AISurvey{}, err
	}

	survey, err := uc.store.Surveys().Create(ctx, domain.Survey{
		Title:       input.Title,
		Description: input.Description,
		CreatorID:   input.CreatorID,
	})
	if err != nil {
		span.RecordError(err)
		return domain.AISurvey{}, domain.UpstreamError{Op: "Failed to create survey", Err: err}
	}

	rows := make([]domain.Question, 0, len(generated))
	for _, q := range generated {
		rows = append(rows, domain.Question{
			SurveyID:     survey.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
		})
	}

	questions, err := uc.store.Questions().Create(ctx, rows)
	if err != nil {
		span.RecordError(err)
		if cerr := uc.compensate(ctx, survey.ID); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return domain.AISurvey{}, domain.UpstreamError{Op: "Failed to add questions", Err: err}
	}

	slog.InfoContext(ctx, "ai survey created",
		"survey_id", survey.ID,
		"creator_id", survey.CreatorID,
		"questions", len(questions),
	)
	publish(ctx, uc.events, domain.EventSurveyCreated, survey.ID, "")

	return domain.AISurvey{Survey: survey, Questions: questions}, nil
}

// compensate removes a survey whose questions could not be stored. It runs detached from
// the request so a cancelled request still cleans up.
func (uc *AISurveyUsecase) compensate(ctx context.Context, surveyID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := uc.store.Surveys().Delete(ctx, surveyID); err != nil {
		slog.ErrorContext(ctx, "failed to roll back survey after question insert failure",
			"survey_id", surveyID,
			"error", err,
		)
		return err
	}
	slog.WarnContext(ctx, "rolled back survey after question insert failure", "survey_id", surveyID)
	return nil
}
