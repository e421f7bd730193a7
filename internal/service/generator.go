package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/survey-playground/internal/domain"
)

var tracer = otel.Tracer("service")

const (
	systemPrompt = "You are a helpful assistant that creates survey questions. " +
		"Generate 5 relevant questions for the given topic. Each question should be on a new line."
	userPromptFormat = "Create survey questions for the topic: %s"

	DefaultModel       = openai.GPT3Dot5Turbo
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 5

	temperature = 0.7
	maxTokens   = 150
)

// ChatCompleter is the subset of *openai.Client the generator needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// RetryPolicy waits Interval between attempts and gives up after MaxAttempts calls.
type RetryPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

type GeneratorConfig struct {
	Model   string
	Timeout time.Duration // per attempt, zero means none
	Retry   RetryPolicy
}

// Generator asks a chat model for survey questions.
type Generator struct {
	client  ChatCompleter
	model   string
	timeout time.Duration
	retry   RetryPolicy
	wait    func(ctx context.Context, d time.Duration) error
}

func NewGenerator(client ChatCompleter, config GeneratorConfig) *Generator {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if config.Retry.Interval < 0 {
		config.Retry.Interval = 0
	}
	return &Generator{
		client:  client,
		model:   config.Model,
		timeout: config.Timeout,
		retry:   config.Retry,
		wait:    sleep,
	}
}

// Generate requests questions about topic. Rate limited calls are retried with a constant
// interval; any other failure ends the call immediately.
func (g *Generator) Generate(ctx context.Context, topic string) ([]domain.GeneratedQuestion, error) {
	ctx, span := tracer.Start(ctx, "Generator.Service.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("topic", topic))

	start := time.Now()
	defer func() { generationDuration.Observe(time.Since(start).Seconds()) }()

	for attempt := 1; ; attempt++ {
		content, err := g.complete(ctx, topic)
		if err == nil {
			generationAttempts.WithLabelValues("ok").Inc()
			questions := ParseQuestions(content)
			if len(questions) == 0 {
				span.RecordError(domain.ErrNoQuestions)
				return nil, domain.GenerationError{Message: "Failed to generate survey questions", Err: domain.ErrNoQuestions}
			}
			span.SetAttributes(attribute.Int("attempts", attempt), attribute.Int("questions", len(questions)))
			return questions, nil
		}

		if !IsRateLimited(err) {
			generationAttempts.WithLabelValues("error").Inc()
			span.RecordError(err)
			slog.ErrorContext(ctx, "question generation failed", "attempt", attempt, "error", err)
			return nil, domain.GenerationError{Message: "Failed to generate survey questions", Err: err}
		}

		generationAttempts.WithLabelValues("rate_limited").Inc()
		if attempt >= g.retry.MaxAttempts {
			span.RecordError(domain.ErrRetriesExhausted)
			slog.ErrorContext(ctx, "question generation rate limited, giving up", "attempts", attempt)
			return nil, domain.GenerationError{Message: "Exceeded maximum retry attempts", Err: domain.ErrRetriesExhausted}
		}

		slog.WarnContext(ctx, "question generation rate limited, retrying",
			"attempt", attempt,
			"interval", g.retry.Interval,
		)
		if err := g.wait(ctx, g.retry.Interval); err != nil {
			span.RecordError(err)
			return nil, domain.GenerationError{Message: "Failed to generate survey questions", Err: err}
		}
	}
}

func (g *Generator) complete(ctx context.Context, topic string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPromptFormat, topic)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// IsRateLimited reports whether err carries an HTTP 429 from the completion API.
func IsRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// ParseQuestions turns a completion into one question per non-blank line, dropping any
// leading "N." numbering.
func ParseQuestions(content string) []domain.GeneratedQuestion {
	questions := []domain.GeneratedQuestion{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		text := strings.TrimSpace(stripNumbering(line))
		if text == "" {
			continue
		}
		questions = append(questions, domain.GeneratedQuestion{
			QuestionText: text,
			QuestionType: domain.QuestionTypeText,
		})
	}
	return questions
}

func stripNumbering(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) || line[i] != '.' {
		return line
	}
	return strings.TrimLeft(line[i+1:], " \t")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
