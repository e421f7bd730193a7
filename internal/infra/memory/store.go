// Package memory provides an in-process implementation of usecase.Store. Referential
// integrity is enforced the way the postgres schema does it: inserts need live parents
// and a row still referenced by another cannot be deleted.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/usecase"
)

// ErrForeignKey is returned when a write would break a reference between rows.
var ErrForeignKey = errors.New("foreign key violation")

type state struct {
	users     []domain.User
	surveys   []domain.Survey
	questions []domain.Question
	options   []domain.Option
	responses []domain.Response
	answers   []domain.AnswerChoice
}

func (st *state) clone() *state {
	return &state{
		users:     slices.Clone(st.users),
		surveys:   slices.Clone(st.surveys),
		questions: slices.Clone(st.questions),
		options:   slices.Clone(st.options),
		responses: slices.Clone(st.responses),
		answers:   slices.Clone(st.answers),
	}
}

func (st *state) hasUser(id string) bool {
	return slices.ContainsFunc(st.users, func(u domain.User) bool { return u.ID == id })
}

func (st *state) surveyIndex(id string) int {
	return slices.IndexFunc(st.surveys, func(sv domain.Survey) bool { return sv.ID == id })
}

func (st *state) hasQuestion(id string) bool {
	return slices.ContainsFunc(st.questions, func(q domain.Question) bool { return q.ID == id })
}

func (st *state) hasOption(id string) bool {
	return slices.ContainsFunc(st.options, func(o domain.Option) bool { return o.ID == id })
}

func (st *state) hasResponse(id string) bool {
	return slices.ContainsFunc(st.responses, func(rs domain.Response) bool { return rs.ID == id })
}

func (st *state) responsesOf(surveyID string) map[string]bool {
	ids := map[string]bool{}
	for _, rs := range st.responses {
		if rs.SurveyID == surveyID {
			ids[rs.ID] = true
		}
	}
	return ids
}

// op is one write. It checks every reference before mutating, so a failed op leaves the
// state untouched. Ops are deterministic and can be applied again to newer data.
type op func(st *state) error

type Store struct {
	mu      sync.RWMutex
	state   *state
	now     func() time.Time
	journal *[]op // set on transaction handles only
}

type Option func(*Store)

// WithClock overrides the time source used for created_at columns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{state: &state{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Users() usecase.UserRepository                 { return userRepo{s} }
func (s *Store) Surveys() usecase.SurveyRepository             { return surveyRepo{s} }
func (s *Store) Questions() usecase.QuestionRepository         { return questionRepo{s} }
func (s *Store) Options() usecase.OptionRepository             { return optionRepo{s} }
func (s *Store) Responses() usecase.ResponseRepository         { return responseRepo{s} }
func (s *Store) AnswerChoices() usecase.AnswerChoiceRepository { return answerRepo{s} }

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Transaction runs fn against a private copy of the data and records the writes fn makes.
// On success the recorded writes are replayed against the current data in one step, so
// changes committed by others in the meantime are kept. If a replayed write no longer
// holds, for example because a concurrent insert now references a row fn deleted, the
// commit fails and nothing is applied.
func (s *Store) Transaction(ctx context.Context, fn func(tx usecase.Store) error) error {
	s.mu.RLock()
	tx := &Store{state: s.state.clone(), now: s.now, journal: &[]op{}}
	s.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(*tx.journal)
}

func (s *Store) commit(ops []op) error {
	if len(ops) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	for _, apply := range ops {
		if err := apply(next); err != nil {
			return fmt.Errorf("commit conflict: %w", err)
		}
	}
	s.state = next
	if s.journal != nil {
		*s.journal = append(*s.journal, ops...)
	}
	return nil
}

// write applies one op in place and, on a transaction handle, records it for commit.
func (s *Store) write(apply op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := apply(s.state); err != nil {
		return err
	}
	if s.journal != nil {
		*s.journal = append(*s.journal, apply)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func fkError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForeignKey, fmt.Sprintf(format, args...))
}

// user

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = newID()
	}
	user.CreatedAt = r.s.now().UTC()

	err := r.s.write(func(st *state) error {
		if st.hasUser(user.ID) {
			return fmt.Errorf("duplicate user id %s", user.ID)
		}
		st.users = append(st.users, user)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r userRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.state.hasUser(id), nil
}

// survey

type surveyRepo struct{ s *Store }

func (r surveyRepo) List(ctx context.Context, filter domain.SurveyFilter) ([]domain.Survey, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []domain.Survey{}
	for _, sv := range r.s.state.surveys {
		if filter.CreatorID != "" && sv.CreatorID != filter.CreatorID {
			continue
		}
		if filter.StartDate != nil && sv.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && sv.CreatedAt.After(*filter.EndDate) {
			continue
		}
		result = append(result, sv)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r surveyRepo) Get(ctx context.Context, id string) (domain.Survey, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := r.s.state.surveyIndex(id)
	if i < 0 {
		return domain.Survey{}, domain.NotFoundError{Resource: "survey"}
	}
	return r.s.state.surveys[i], nil
}

func (r surveyRepo) Create(ctx context.Context, survey domain.Survey) (domain.Survey, error) {
	survey.ID = newID()
	survey.CreatedAt = r.s.now().UTC()

	err := r.s.write(func(st *state) error {
		if !st.hasUser(survey.CreatorID) {
			return fkError("surveys.creator_id %q", survey.CreatorID)
		}
		st.surveys = append(st.surveys, survey)
		return nil
	})
	if err != nil {
		return domain.Survey{}, err
	}
	return survey, nil
}

func (r surveyRepo) Update(ctx context.Context, id, title, description string) (domain.Survey, error) {
	var updated domain.Survey
	err := r.s.write(func(st *state) error {
		i := st.surveyIndex(id)
		if i < 0 {
			return domain.NotFoundError{Resource: "survey"}
		}
		st.surveys[i].Title = title
		st.surveys[i].Description = description
		updated = st.surveys[i]
		return nil
	})
	if err != nil {
		return domain.Survey{}, err
	}
	return updated, nil
}

func (r surveyRepo) Delete(ctx context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if slices.ContainsFunc(st.questions, func(q domain.Question) bool { return q.SurveyID == id }) {
			return fkError("survey %s is referenced by questions", id)
		}
		if slices.ContainsFunc(st.responses, func(rs domain.Response) bool { return rs.SurveyID == id }) {
			return fkError("survey %s is referenced by responses", id)
		}
		st.surveys = slices.DeleteFunc(st.surveys, func(sv domain.Survey) bool { return sv.ID == id })
		return nil
	})
}

// question

type questionRepo struct{ s *Store }

func (r questionRepo) Get(ctx context.Context, id string) (domain.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := slices.IndexFunc(r.s.state.questions, func(q domain.Question) bool { return q.ID == id })
	if i < 0 {
		return domain.Question{}, domain.NotFoundError{Resource: "question"}
	}
	return r.s.state.questions[i], nil
}

func (r questionRepo) ListBySurvey(ctx context.Context, surveyID string) ([]domain.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []domain.Question{}
	for _, q := range r.s.state.questions {
		if q.SurveyID == surveyID {
			result = append(result, q)
		}
	}
	return result, nil
}

func (r questionRepo) IDsBySurvey(ctx context.Context, surveyID string) ([]string, error) {
	questions, err := r.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	return ids, nil
}

func (r questionRepo) Create(ctx context.Context, questions []domain.Question) ([]domain.Question, error) {
	created := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		q.ID = newID()
		created = append(created, q)
	}

	err := r.s.write(func(st *state) error {
		for _, q := range created {
			if st.surveyIndex(q.SurveyID) < 0 {
				return fkError("questions.survey_id %q", q.SurveyID)
			}
		}
		st.questions = append(st.questions, created...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r questionRepo) DeleteBySurvey(ctx context.Context, surveyID string) error {
	return r.s.write(func(st *state) error {
		doomed := map[string]bool{}
		for _, q := range st.questions {
			if q.SurveyID == surveyID {
				doomed[q.ID] = true
			}
		}
		if slices.ContainsFunc(st.options, func(o domain.Option) bool { return doomed[o.QuestionID] }) {
			return fkError("questions of survey %s are referenced by options", surveyID)
		}
		if slices.ContainsFunc(st.answers, func(a domain.AnswerChoice) bool { return doomed[a.QuestionID] }) {
			return fkError("questions of survey %s are referenced by answer choices", surveyID)
		}
		st.questions = slices.DeleteFunc(st.questions, func(q domain.Question) bool { return doomed[q.ID] })
		return nil
	})
}

// option

type optionRepo struct{ s *Store }

func (r optionRepo) ListByQuestions(ctx context.Context, questionIDs []string) ([]domain.Option, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []domain.Option{}
	for _, o := range r.s.state.options {
		if slices.Contains(questionIDs, o.QuestionID) {
			result = append(result, o)
		}
	}
	return result, nil
}

func (r optionRepo) Create(ctx context.Context, option domain.Option) (domain.Option, error) {
	option.ID = newID()

	err := r.s.write(func(st *state) error {
		if !st.hasQuestion(option.QuestionID) {
			return fkError("options.question_id %q", option.QuestionID)
		}
		st.options = append(st.options, option)
		return nil
	})
	if err != nil {
		return domain.Option{}, err
	}
	return option, nil
}

func (r optionRepo) DeleteByQuestions(ctx context.Context, questionIDs []string) error {
	return r.s.write(func(st *state) error {
		doomed := map[string]bool{}
		for _, o := range st.options {
			if slices.Contains(questionIDs, o.QuestionID) {
				doomed[o.ID] = true
			}
		}
		referenced := slices.ContainsFunc(st.answers, func(a domain.AnswerChoice) bool {
			return a.OptionID != nil && doomed[*a.OptionID]
		})
		if referenced {
			return fkError("options are referenced by answer choices")
		}
		st.options = slices.DeleteFunc(st.options, func(o domain.Option) bool { return doomed[o.ID] })
		return nil
	})
}

// response

type responseRepo struct{ s *Store }

func (r responseRepo) Create(ctx context.Context, response domain.Response) (domain.Response, error) {
	response.ID = newID()
	response.CreatedAt = r.s.now().UTC()

	err := r.s.write(func(st *state) error {
		if st.surveyIndex(response.SurveyID) < 0 {
			return fkError("responses.survey_id %q", response.SurveyID)
		}
		if !st.hasUser(response.UserID) {
			return fkError("responses.user_id %q", response.UserID)
		}
		st.responses = append(st.responses, response)
		return nil
	})
	if err != nil {
		return domain.Response{}, err
	}
	return response, nil
}

func (r responseRepo) DeleteBySurvey(ctx context.Context, surveyID string) error {
	return r.s.write(func(st *state) error {
		doomed := st.responsesOf(surveyID)
		if slices.ContainsFunc(st.answers, func(a domain.AnswerChoice) bool { return doomed[a.ResponseID] }) {
			return fkError("responses of survey %s are referenced by answer choices", surveyID)
		}
		st.responses = slices.DeleteFunc(st.responses, func(rs domain.Response) bool { return doomed[rs.ID] })
		return nil
	})
}

// answer choice

type answerRepo struct{ s *Store }

func (r answerRepo) Create(ctx context.Context, answers []domain.AnswerChoice) ([]domain.AnswerChoice, error) {
	created := make([]domain.AnswerChoice, 0, len(answers))
	for _, a := range answers {
		a.ID = newID()
		created = append(created, a)
	}

	err := r.s.write(func(st *state) error {
		for _, a := range created {
			if !st.hasResponse(a.ResponseID) {
				return fkError("answerchoices.response_id %q", a.ResponseID)
			}
			if !st.hasQuestion(a.QuestionID) {
				return fkError("answerchoices.question_id %q", a.QuestionID)
			}
			if a.OptionID != nil && !st.hasOption(*a.OptionID) {
				return fkError("answerchoices.option_id %q", *a.OptionID)
			}
		}
		st.answers = append(st.answers, created...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r answerRepo) DeleteByQuestions(ctx context.Context, questionIDs []string) error {
	return r.s.write(func(st *state) error {
		st.answers = slices.DeleteFunc(st.answers, func(a domain.AnswerChoice) bool {
			return slices.Contains(questionIDs, a.QuestionID)
		})
		return nil
	})
}

func (r answerRepo) DeleteBySurveyResponses(ctx context.Context, surveyID string) error {
	return r.s.write(func(st *state) error {
		doomed := st.responsesOf(surveyID)
		st.answers = slices.DeleteFunc(st.answers, func(a domain.AnswerChoice) bool { return doomed[a.ResponseID] })
		return nil
	})
}

// Counts reports the number of rows per table. Meant for tests and diagnostics.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"users":         len(s.state.users),
		"surveys":       len(s.state.surveys),
		"questions":     len(s.state.questions),
		"options":       len(s.state.options),
		"responses":     len(s.state.responses),
		"answerchoices": len(s.state.answers),
	}
}

var _ usecase.Store = (*Store)(nil)
