package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/survey-playground/internal/domain"
)

// SignalService fans survey events out through redis pub/sub.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.Event) error {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, domain.SurveyChannel(event.SurveyID), jsonstr).Err()
	if err != nil {
		eventsPublished.WithLabelValues(event.Type, "error").Inc()
		return err
	}

	eventsPublished.WithLabelValues(event.Type, "ok").Inc()
	return nil
}

// Realtime forwards events of surveyID to output until ctx is done. It closes output on return.
func (s *SignalService) Realtime(ctx context.Context, surveyID string, output chan<- domain.Event) {
	defer close(output)

	pubsub := s.rdb.Subscribe(ctx, domain.SurveyChannel(surveyID))
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(ctx, "dropping malformed event",
					slog.String("channel", msg.Channel),
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

// NopPublisher discards events. It stands in when no redis is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event domain.Event) error {
	eventsPublished.WithLabelValues(event.Type, "dropped").Inc()
	return nil
}
