package repository

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/usecase"
)

// Store implements usecase.Store on top of gorm.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
	users   *cache.Cache
}

// NewStore wraps db. Every statement gets its own deadline of timeout; zero disables it.
func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	return &Store{
		db:      db,
		timeout: timeout,
		users:   cache.New(time.Minute, 5*time.Minute),
	}
}

func (s *Store) Users() usecase.UserRepository { return &UserRepository{base{s}} }

func (s *Store) Surveys() usecase.SurveyRepository { return &SurveyRepository{base{s}} }

func (s *Store) Questions() usecase.QuestionRepository { return &QuestionRepository{base{s}} }

func (s *Store) Options() usecase.OptionRepository { return &OptionRepository{base{s}} }

func (s *Store) Responses() usecase.ResponseRepository { return &ResponseRepository{base{s}} }

func (s *Store) AnswerChoices() usecase.AnswerChoiceRepository {
	return &AnswerChoiceRepository{base{s}}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx usecase.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, timeout: s.timeout, users: s.users})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := s.deadline(ctx)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (s *Store) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

type base struct {
	s *Store
}

// conn returns a session bound to ctx with the per-call deadline applied.
func (b base) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := b.s.deadline(ctx)
	return b.s.db.WithContext(ctx), cancel
}

func translate(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError{Resource: resource}
	}
	return err
}

var _ usecase.Store = (*Store)(nil)
