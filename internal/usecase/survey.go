package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/survey-playground/internal/domain"
)

type CreateSurveyInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	CreatorID   string `json:"creator_id" validate:"required"`
}

type UpdateSurveyInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type AddQuestionInput struct {
	SurveyID     string `json:"survey_id" validate:"required"`
	QuestionText string `json:"question_text" validate:"required"`
	QuestionType string `json:"question_type" validate:"required"`
}

type AddOptionInput struct {
	QuestionID string `json:"question_id" validate:"required"`
	OptionText string `json:"option_text" validate:"required"`
}

// SurveyUsecase owns the lifecycle of surveys and their nested rows.
type SurveyUsecase struct {
	store  Store
	events EventPublisher
}

func NewSurveyUsecase(store Store, events EventPublisher) *SurveyUsecase {
	return &SurveyUsecase{store: store, events: events}
}

func (uc *SurveyUsecase) List(ctx context.Context, filter domain.SurveyFilter) ([]domain.Survey, error) {
	ctx, span := tracer.Start(ctx, "Survey.Usecase.List")
	defer span.End()

	surveys, err := uc.store.Surveys().List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, upstream("list surveys", err)
	}
	return surveys, nil
}

func (uc *SurveyUsecase) Get(ctx context.Context, id string) (domain.SurveyDetail, error) {
	ctx, span := tracer.Start(ctx, "Survey.Usecase.Get")
	defer span.End()
	span.SetAttributes(attribute.String("survey_id", id))

	survey, err := uc.store.Surveys().Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return domain.SurveyDetail{}, notFound(err, "survey", "Survey not found")
	}

	questions, err := uc.store.Questions().ListBySurvey(ctx, id)
	if err != nil {
		span.RecordError(err)
		return domain.SurveyDetail{}, upstream("list questions", err)
	}

	options := []domain.Option{}
	if ids := questionIDs(questions); len(ids) > 0 {
		options, err = uc.store.Options().ListByQuestions(ctx, ids)
		if err != nil {
			span.RecordError(err)
			return domain.SurveyDetail{}, upstream("list options", err)
		}
	}

	return domain.SurveyDetail{
		Survey:    survey,
		Questions: questions,
		Options:   options,
	}, nil
}

func (uc *SurveyUsecase) Create(ctx context.Context, input CreateSurveyInput) (domain.Survey, error) {
	ctx, span := tracer.Start(ctx, "Survey.Usecase.Create")
	defer span.End()

	if err := validateInput(input); err != nil {
		return domain.Survey{}, err
	}

	if err := requireUser(ctx, uc.store, input.CreatorID); err != nil {
		span.RecordError(err)
		return domain.Survey{}, err
	}

	survey, err := uc.store.Surveys().Create(ctx, domain.Survey{
		Title:       input.Title,
		Description: input.Description,
		CreatorID:   input.CreatorID,
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "Survey.Usecase.Create: store.Surveys().Create failed"))
		return domain.Survey{}, upstream("create survey", err)
	}

	slog.InfoContext(ctx, "survey created", "survey_id", survey.ID, "creator_id", survey.CreatorID)
	publish(ctx, uc.events, domain.EventSurveyCreated, survey.ID, "")
	return survey, nil
}

func (uc *SurveyUsecase) Update(ctx context.Context, id string, input UpdateSurveyInput) (domain.Survey, error) {
	ctx, span := tracer.Start(ctx, "Survey.Usecase.Update")
	defer span.End()
	span.SetAttributes(attribute.String("survey_id", id))

	if err := validateInput(input); err != nil {
		return domain.Survey{}, err
	}

	if _, err := uc.store.Surveys().Get(ctx, id); err != nil {
		span.RecordError(err)
		return domain.Survey{}, notFound(err, "survey", "Survey not found")
	}

	survey, err := uc.store.Surveys().Update(ctx, id, input.Title, input.Description)
	if err != nil {
		span.RecordError(err)
		return domain.Survey{}, upstream("update survey", err)
	}

	slog.InfoContext(ctx, "survey updated", "survey_id", id)
	publish(ctx, uc.events, domain.EventSurveyUpdated, id, "")
	return survey, nil
}

// Delete removes the survey and every row depending on it inside one transaction.
// Answer choices go before options because they reference them. An unknown id is not
// an error; nothing is removed.
func (uc *SurveyUsecase) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Survey.Usecase.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("survey_id", id))

	err := uc.store.Transaction(ctx, func(tx Store) error {
		ids, err := tx.Questions().IDsBySurvey(ctx, id)
		if err != nil {
			return upstream("look up questions", err)
		}

		if len(ids) > 0 {
			if err := tx.AnswerChoices().DeleteByQuestions(ctx, ids); err != nil {
				return upstream("delete answer choices", err)
			}
			if err := tx.Options().DeleteByQuestions(ctx, ids); err != nil {
				return upstream("delete options", err)
			}
			if err := tx.Questions().DeleteBySurvey(ctx, id); err != nil {
				return upstream("delete questions", err)
			}
		}

		if err := tx.AnswerChoices().DeleteBySurveyResponses(ctx, id); err != nil {
			return upstream("delete answer choices", err)
		}
		if err := tx.Responses().DeleteBySurvey(ctx, id); err != nil {
			return upstream("delete responses", err)
		}
		if err := tx.Surveys().Delete(ctx, id); err != nil {
			return upstream("delete survey", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to delete survey", "survey_id", id, "error", err)
		return upstream("delete survey", err)
	}

	slog.InfoContext(ctx, "survey deleted", "survey_id", id)
	publish(ctx, uc.events, domain.EventSurveyDeleted, id, "")
	return nil
}

func (uc *SurveyUsecase) AddQuestion(ctx context.Context, input AddQuestionInput) (domain.Question, error) {
	ctx, span := tracer.Start(ctx, "Survey.Usecase.AddQuestion")
	defer span.End()

	if err := validateInput(input); err != nil {
		return domain.Question{}, err
	}

	if _, err := uc.store.Surveys().Get(ctx, input.SurveyID); err != nil {
		span.RecordError(err)
		return domain.Question{}, notFound(err, "survey", "Survey not found")
	}

	created, err := uc.store.Questions().Create(ctx, []domain.Question{{
		SurveyID:     input.SurveyID,
		QuestionText: input.QuestionText,
		QuestionType: input.QuestionType,
	}})
	if err != nil {
		span.RecordError(err)
		return domain.Question{}, upstream("add question", err)
	}
	if len(created) == 0 {
		return domain.Question{}, domain.UpstreamError{Op: "Failed to add question"}
	}

	slog.InfoContext(ctx, "question added", "survey_id", input.SurveyID, "question_id", created[0].ID)
	return created[0], nil
}

func (uc *SurveyUsecase) AddOption(ctx context.Context, input AddOptionInput) (domain.Option, error) {
	ctx, span := tracer.Start(ctx, "Survey.Usecase.AddOption")
	defer span.End()

	if err := validateInput(input); err != nil {
		return domain.Option{}, err
	}

	if _, err := uc.store.Questions().Get(ctx, input.QuestionID); err != nil {
		span.RecordError(err)
		return domain.Option{}, notFound(err, "question", "Question not found")
	}

	option, err := uc.store.Options().Create(ctx, domain.Option{
		QuestionID: input.QuestionID,
		OptionText: input.OptionText,
	})
	if err != nil {
		span.RecordError(err)
		return domain.Option{}, upstream("add option", err)
	}

	slog.InfoContext(ctx, "option added", "question_id", input.QuestionID, "option_id", option.ID)
	return option, nil
}

// requireUser fails with a 404 class error when id does not name a user.
func requireUser(ctx context.Context, store Store, id string) error {
	ok, err := store.Users().Exists(ctx, id)
	if err != nil {
		return upstream("look up user", err)
	}
	if !ok {
		return domain.NotFoundError{Resource: "user", Message: "Invalid creator_id"}
	}
	return nil
}

func questionIDs(questions []domain.Question) []string {
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	return ids
}
