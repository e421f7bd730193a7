package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/infra/memory"
	"github.com/totegamma/survey-playground/internal/usecase"
)

var errInjected = errors.New("injected failure")

// faultyStore wraps a store and fails selected operations, inside transactions too.
type faultyStore struct {
	usecase.Store
	failQuestionCreate bool
	failOptionDelete   bool
	failAnswerCreate   bool
	failSurveyDelete   bool
}

func (s *faultyStore) wrap(inner usecase.Store) *faultyStore {
	c := *s
	c.Store = inner
	return &c
}

func (s *faultyStore) Surveys() usecase.SurveyRepository {
	if s.failSurveyDelete {
		return failingSurveys{s.Store.Surveys()}
	}
	return s.Store.Surveys()
}

func (s *faultyStore) Questions() usecase.QuestionRepository {
	if s.failQuestionCreate {
		return failingQuestions{s.Store.Questions()}
	}
	return s.Store.Questions()
}

func (s *faultyStore) Options() usecase.OptionRepository {
	if s.failOptionDelete {
		return failingOptions{s.Store.Options()}
	}
	return s.Store.Options()
}

func (s *faultyStore) AnswerChoices() usecase.AnswerChoiceRepository {
	if s.failAnswerCreate {
		return failingAnswers{s.Store.AnswerChoices()}
	}
	return s.Store.AnswerChoices()
}

func (s *faultyStore) Transaction(ctx context.Context, fn func(tx usecase.Store) error) error {
	return s.Store.Transaction(ctx, func(tx usecase.Store) error {
		return fn(s.wrap(tx))
	})
}

type failingSurveys struct{ usecase.SurveyRepository }

func (failingSurveys) Delete(ctx context.Context, id string) error { return errInjected }

type failingQuestions struct{ usecase.QuestionRepository }

func (failingQuestions) Create(ctx context.Context, questions []domain.Question) ([]domain.Question, error) {
	return nil, errInjected
}

type failingOptions struct{ usecase.OptionRepository }

func (failingOptions) DeleteByQuestions(ctx context.Context, questionIDs []string) error {
	return errInjected
}

type failingAnswers struct{ usecase.AnswerChoiceRepository }

func (failingAnswers) Create(ctx context.Context, answers []domain.AnswerChoice) ([]domain.AnswerChoice, error) {
	return nil, errInjected
}

type fakeGenerator struct {
	questions []domain.GeneratedQuestion
	err       error
	calls     int
}

func (g *fakeGenerator) Generate(ctx context.Context, topic string) ([]domain.GeneratedQuestion, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.questions, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func seedUser(t *testing.T, store usecase.Store, id string) {
	t.Helper()
	if _, err := store.Users().Create(context.Background(), domain.User{ID: id, Email: id + "@example.com"}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

// seedSurvey creates a survey with the given shape through the usecases and returns its id.
func seedSurvey(t *testing.T, store usecase.Store, creatorID string, questions, options, responses, answers int) string {
	t.Helper()
	if answers > 0 && questions == 0 {
		t.Fatal("answers need at least one question")
	}
	ctx := context.Background()
	surveys := usecase.NewSurveyUsecase(store, nil)
	recorder := usecase.NewResponseUsecase(store, nil)

	survey, err := surveys.Create(ctx, usecase.CreateSurveyInput{
		Title:       "Coffee habits",
		Description: "How do you drink it",
		CreatorID:   creatorID,
	})
	if err != nil {
		t.Fatalf("failed to create survey: %v", err)
	}

	var questionIDs []string
	var optionIDs []string
	for i := 0; i < questions; i++ {
		q, err := surveys.AddQuestion(ctx, usecase.AddQuestionInput{
			SurveyID:     survey.ID,
			QuestionText: "question",
			QuestionType: "choice",
		})
		if err != nil {
			t.Fatalf("failed to add question: %v", err)
		}
		questionIDs = append(questionIDs, q.ID)
		for j := 0; j < options; j++ {
			o, err := surveys.AddOption(ctx, usecase.AddOptionInput{QuestionID: q.ID, OptionText: "option"})
			if err != nil {
				t.Fatalf("failed to add option: %v", err)
			}
			optionIDs = append(optionIDs, o.ID)
		}
	}

	for i := 0; i < responses; i++ {
		input := usecase.SubmitResponseInput{SurveyID: survey.ID, UserID: creatorID}
		for j := 0; j < answers; j++ {
			a := usecase.AnswerInput{QuestionID: questionIDs[j%len(questionIDs)]}
			if len(optionIDs) > 0 {
				id := optionIDs[j%len(optionIDs)]
				a.OptionID = &id
			}
			input.Answers = append(input.Answers, a)
		}
		if _, err := recorder.Submit(ctx, input); err != nil {
			t.Fatalf("failed to submit response: %v", err)
		}
	}
	return survey.ID
}

func newStore() *memory.Store {
	return memory.NewStore()
}
