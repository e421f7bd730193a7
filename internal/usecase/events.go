package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/totegamma/survey-playground/internal/domain"
)

var tracer = otel.Tracer("usecase")

func publish(ctx context.Context, events EventPublisher, eventType, surveyID, responseID string) {
	if events == nil {
		return
	}
	err := events.Publish(ctx, domain.Event{
		Type:       eventType,
		SurveyID:   surveyID,
		ResponseID: responseID,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			slog.String("type", eventType),
			slog.String("survey_id", surveyID),
			slog.String("error", err.Error()),
		)
	}
}
