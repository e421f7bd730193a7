package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/totegamma/survey-playground/internal/domain"
)

// sqlRecorder keeps every statement gorm renders. DryRun still traces statements, so
// this captures the SQL without a database.
type sqlRecorder struct {
	mu  sync.Mutex
	sql []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface      { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, _ := fc()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sql = append(r.sql, sql)
}

func (r *sqlRecorder) last(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sql) == 0 {
		t.Fatal("no statement was rendered")
	}
	return r.sql[len(r.sql)-1]
}

func newDryRunStore(t *testing.T) (*Store, *sqlRecorder) {
	t.Helper()
	recorder := &sqlRecorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=postgres dbname=postgres sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               recorder,
	})
	if err != nil {
		t.Fatalf("failed to open dry run db: %v", err)
	}
	return NewStore(db, time.Second), recorder
}

func assertContains(t *testing.T, sql string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if !strings.Contains(sql, part) {
			t.Errorf("expected %q in %s", part, sql)
		}
	}
}

func TestDeleteBySurveyResponsesUsesSubquery(t *testing.T) {
	s, recorder := newDryRunStore(t)

	if err := s.AnswerChoices().DeleteBySurveyResponses(context.Background(), "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, recorder.last(t),
		`DELETE FROM "answerchoices"`,
		`response_id IN (SELECT`,
		`FROM "responses" WHERE survey_id = 's1'`,
	)
}

func TestUpdateReturnsRow(t *testing.T) {
	s, recorder := newDryRunStore(t)

	// nothing is scanned back in dry run, so the row reads as missing
	_, err := s.Surveys().Update(context.Background(), "s1", "title", "desc")
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, recorder.last(t),
		`UPDATE "surveys" SET`,
		`"title"='title'`,
		`"description"='desc'`,
		`WHERE id = 's1'`,
		`RETURNING *`,
	)
}

func TestListOrdersByCreation(t *testing.T) {
	s, recorder := newDryRunStore(t)

	_, err := s.Surveys().List(context.Background(), domain.SurveyFilter{CreatorID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, recorder.last(t),
		`FROM "surveys"`,
		`creator_id = 'u1'`,
		`ORDER BY created_at ASC,id ASC`,
	)
}

func TestDeleteByQuestions(t *testing.T) {
	s, recorder := newDryRunStore(t)

	if err := s.AnswerChoices().DeleteByQuestions(context.Background(), []string{"q1", "q2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertContains(t, recorder.last(t),
		`DELETE FROM "answerchoices"`,
		`question_id IN ('q1','q2')`,
	)

	before := len(recorder.sql)
	if err := s.AnswerChoices().DeleteByQuestions(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorder.sql) != before {
		t.Errorf("expected no statement for an empty id list, got %q", recorder.sql[before:])
	}
}
