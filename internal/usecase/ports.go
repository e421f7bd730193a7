package usecase

import (
	"context"

	"github.com/totegamma/survey-playground/internal/domain"
)

// Store is the persistence gateway. Repositories obtained from a Store handed to
// Transaction's callback share that transaction.
type Store interface {
	Users() UserRepository
	Surveys() SurveyRepository
	Questions() QuestionRepository
	Options() OptionRepository
	Responses() ResponseRepository
	AnswerChoices() AnswerChoiceRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// UserRepository defines persistence/lookup for user profiles.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// SurveyRepository defines persistence/lookup for surveys.
type SurveyRepository interface {
	List(ctx context.Context, filter domain.SurveyFilter) ([]domain.Survey, error)
	Get(ctx context.Context, id string) (domain.Survey, error)
	Create(ctx context.Context, survey domain.Survey) (domain.Survey, error)
	Update(ctx context.Context, id, title, description string) (domain.Survey, error)
	Delete(ctx context.Context, id string) error
}

type QuestionRepository interface {
	Get(ctx context.Context, id string) (domain.Question, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]domain.Question, error)
	IDsBySurvey(ctx context.Context, surveyID string) ([]string, error)
	Create(ctx context.Context, questions []domain.Question) ([]domain.Question, error)
	DeleteBySurvey(ctx context.Context, surveyID string) error
}

type OptionRepository interface {
	ListByQuestions(ctx context.Context, questionIDs []string) ([]domain.Option, error)
	Create(ctx context.Context, option domain.Option) (domain.Option, error)
	DeleteByQuestions(ctx context.Context, questionIDs []string) error
}

type ResponseRepository interface {
	Create(ctx context.Context, response domain.Response) (domain.Response, error)
	DeleteBySurvey(ctx context.Context, surveyID string) error
}

type AnswerChoiceRepository interface {
	Create(ctx context.Context, answers []domain.AnswerChoice) ([]domain.AnswerChoice, error)
	DeleteByQuestions(ctx context.Context, questionIDs []string) error
	DeleteBySurveyResponses(ctx context.Context, surveyID string) error
}

// QuestionGenerator produces survey questions for a topic.
type QuestionGenerator interface {
	Generate(ctx context.Context, topic string) ([]domain.GeneratedQuestion, error)
}

// AuthGateway is the external account service.
type AuthGateway interface {
	SignUp(ctx context.Context, email, password string) (domain.AuthUser, error)
	SignInWithPassword(ctx context.Context, email, password string) (domain.Session, error)
	GetUser(ctx context.Context, accessToken string) (domain.AuthUser, error)
	RefreshSession(ctx context.Context, refreshToken string) (domain.Session, error)
}

// EventPublisher broadcasts survey events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
