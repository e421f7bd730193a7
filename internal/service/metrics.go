package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// generationAttempts counts chat completion calls by outcome: ok, rate_limited, error.
	generationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survey_generation_attempts_total",
		Help: "Question generation attempts by result",
	}, []string{"result"})

	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "survey_generation_duration_seconds",
		Help:    "Wall time of a whole Generate call including retries",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survey_events_published_total",
		Help: "Survey events published by type and result",
	}, []string{"type", "result"})
)
