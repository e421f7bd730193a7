package presenter

import (
	"errors"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"

	"github.com/totegamma/survey-playground/internal/domain"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", domain.ValidationError{Message: "Missing required fields: title"}, http.StatusBadRequest, "Missing required fields: title"},
		{"not found", domain.NotFoundError{Resource: "survey", Message: "Survey not found"}, http.StatusNotFound, "Survey not found"},
		{"wrapped not found", pkgerrors.Wrap(domain.NotFoundError{Resource: "question"}, "lookup"), http.StatusNotFound, "question not found"},
		{"upstream", domain.UpstreamError{Op: "Failed to add questions"}, http.StatusBadRequest, "Failed to add questions"},
		{"generation", domain.GenerationError{Message: "Exceeded maximum retry attempts", Err: domain.ErrRetriesExhausted}, http.StatusInternalServerError, "Exceeded maximum retry attempts"},
		{"unknown", errors.New("kaboom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		status, msg := Status(tc.err)
		if status != tc.status || msg != tc.msg {
			t.Errorf("%s: expected %d %q, got %d %q", tc.name, tc.status, tc.msg, status, msg)
		}
	}
}
