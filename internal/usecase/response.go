package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/survey-playground/internal/domain"
)

type AnswerInput struct {
	QuestionID string  `json:"question_id" validate:"required"`
	OptionID   *string `json:"option_id"`
}

type SubmitResponseInput struct {
	SurveyID string        `json:"survey_id" validate:"required"`
	UserID   string        `json:"user_id" validate:"required"`
	Answers  []AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

// ResponseUsecase records submitted answers.
type ResponseUsecase struct {
	store  Store
	events EventPublisher
}

func NewResponseUsecase(store Store, events EventPublisher) *ResponseUsecase {
	return &ResponseUsecase{store: store, events: events}
}

// Submit stores one response and its answer choices. Answers are not checked against the
// survey's questions. A failed answer insert leaves the response row in place.
func (uc *ResponseUsecase) Submit(ctx context.Context, input SubmitResponseInput) (domain.Submission, error) {
	ctx, span := tracer.Start(ctx, "Response.Usecase.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("survey_id", input.SurveyID))

	if err := validateInput(input); err != nil {
		return domain.Submission{}, err
	}

	if _, err := uc.store.Surveys().Get(ctx, input.SurveyID); err != nil {
		span.RecordError(err)
		return domain.Submission{}, notFound(err, "survey", "Survey not found")
	}

	response, err := uc.store.Responses().Create(ctx, domain.Response{
		SurveyID: input.SurveyID,
		UserID:   input.UserID,
	})
	if err != nil {
		span.RecordError(err)
		return domain.Submission{}, upstream("create response", err)
	}

	rows := make([]domain.AnswerChoice, 0, len(input.Answers))
	for _, a := range input.Answers {
		rows = append(rows, domain.AnswerChoice{
			ResponseID: response.ID,
			QuestionID: a.QuestionID,
			OptionID:   a.OptionID,
		})
	}

	answers, err := uc.store.AnswerChoices().Create(ctx, rows)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "answer choices not stored, response kept",
			"survey_id", input.SurveyID,
			"response_id", response.ID,
			"error", err,
		)
		return domain.Submission{}, upstream("create answer choices", err)
	}

	slog.InfoContext(ctx, "response submitted",
		"survey_id", input.SurveyID,
		"response_id", response.ID,
		"answers", len(answers),
	)
	publish(ctx, uc.events, domain.EventResponseSubmitted, input.SurveyID, response.ID)

	return domain.Submission{Response: response, Answers: answers}, nil
}
