package usecase

import (
	"github.com/pkg/errors"

	"github.com/totegamma/survey-playground/internal/domain"
)

// upstream classifies a store failure. Not-found and already classified errors pass through.
func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	var ue domain.UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return domain.UpstreamError{Op: op, Err: err}
}

// notFound rewrites a store not-found into the client facing message for resource.
func notFound(err error, resource, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFoundError{Resource: resource, Message: message}
	}
	return upstream("look up "+resource, err)
}
