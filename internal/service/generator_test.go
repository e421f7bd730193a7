package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/totegamma/survey-playground/internal/domain"
)

type fakeCompleter struct {
	replies []reply
	calls   int
	lastReq openai.ChatCompletionRequest
}

type reply struct {
	content string
	err     error
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	r := f.replies[len(f.replies)-1]
	if f.calls < len(f.replies) {
		r = f.replies[f.calls]
	}
	f.calls++
	if r.err != nil {
		return openai.ChatCompletionResponse{}, r.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: r.content}},
		},
	}, nil
}

func rateLimited() error {
	return &openai.APIError{HTTPStatusCode: 429, Message: "rate limit reached"}
}

func newTestGenerator(client ChatCompleter, attempts int) (*Generator, *[]time.Duration) {
	g := NewGenerator(client, GeneratorConfig{
		Retry: RetryPolicy{Interval: 2 * time.Second, MaxAttempts: attempts},
	})
	waits := []time.Duration{}
	g.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return g, &waits
}

func TestParseQuestions(t *testing.T) {
	got := ParseQuestions("1. Q1\n\n2. Q2\n3. Q3")
	want := []string{"Q1", "Q2", "Q3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d questions, got %d: %+v", len(want), len(got), got)
	}
	for i, q := range got {
		if q.QuestionText != want[i] {
			t.Errorf("question %d: expected %q, got %q", i, want[i], q.QuestionText)
		}
		if q.QuestionType != domain.QuestionTypeText {
			t.Errorf("question %d: expected type text, got %q", i, q.QuestionType)
		}
	}
}

func TestParseQuestionsKeepsUnnumberedLines(t *testing.T) {
	got := ParseQuestions("  How often do you cook?  \r\n10.   What is 2.5 times 2?\n   \n")
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %+v", got)
	}
	if got[0].QuestionText != "How often do you cook?" {
		t.Errorf("unexpected first question %q", got[0].QuestionText)
	}
	if got[1].QuestionText != "What is 2.5 times 2?" {
		t.Errorf("unexpected second question %q", got[1].QuestionText)
	}
}

func TestParseQuestionsLongLine(t *testing.T) {
	long := strings.Repeat("x", 70*1024)
	got := ParseQuestions("1. " + long + "\n2. After")
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if got[0].QuestionText != long {
		t.Errorf("expected long question of %d bytes, got %d", len(long), len(got[0].QuestionText))
	}
	if got[1].QuestionText != "After" {
		t.Errorf("unexpected second question %q", got[1].QuestionText)
	}
}

func TestGenerateSendsPrompt(t *testing.T) {
	client := &fakeCompleter{replies: []reply{{content: "1. A\n2. B"}}}
	g, waits := newTestGenerator(client, 5)

	questions, err := g.Generate(context.Background(), "coffee")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if len(*waits) != 0 {
		t.Errorf("expected no waits, got %d", len(*waits))
	}

	req := client.lastReq
	if req.Model != DefaultModel {
		t.Errorf("expected default model, got %q", req.Model)
	}
	if req.Temperature != 0.7 || req.MaxTokens != 150 {
		t.Errorf("unexpected sampling parameters: %v %d", req.Temperature, req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[1].Content != "Create survey questions for the topic: coffee" {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}
}

func TestGenerateRetriesRateLimit(t *testing.T) {
	client := &fakeCompleter{replies: []reply{{err: rateLimited()}, {err: rateLimited()}, {content: "1. Q1"}}}
	g, waits := newTestGenerator(client, 5)

	questions, err := g.Generate(context.Background(), "tea")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if client.calls != 3 {
		t.Errorf("expected 3 calls, got %d", client.calls)
	}
	if len(*waits) != 2 {
		t.Errorf("expected 2 waits, got %d", len(*waits))
	}
}

func TestGenerateExhaustsRetries(t *testing.T) {
	client := &fakeCompleter{replies: []reply{{err: rateLimited()}}}
	g, waits := newTestGenerator(client, 5)

	_, err := g.Generate(context.Background(), "tea")
	if !errors.Is(err, domain.ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	var genErr domain.GenerationError
	if !errors.As(err, &genErr) || genErr.Message != "Exceeded maximum retry attempts" {
		t.Errorf("unexpected error message: %v", err)
	}
	if client.calls != 5 {
		t.Errorf("expected 5 calls, got %d", client.calls)
	}
	if len(*waits) != 4 {
		t.Errorf("expected 4 waits, got %d", len(*waits))
	}
	for _, d := range *waits {
		if d != 2*time.Second {
			t.Errorf("expected constant 2s wait, got %v", d)
		}
	}
}

func TestGenerateRequestErrorRateLimit(t *testing.T) {
	client := &fakeCompleter{replies: []reply{{err: &openai.RequestError{HTTPStatusCode: 429, Err: errors.New("slow down")}}}}
	g, _ := newTestGenerator(client, 2)

	_, err := g.Generate(context.Background(), "tea")
	if !errors.Is(err, domain.ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if client.calls != 2 {
		t.Errorf("expected 2 calls, got %d", client.calls)
	}
}

func TestGenerateOtherErrorStopsImmediately(t *testing.T) {
	cause := &openai.APIError{HTTPStatusCode: 500, Message: "boom"}
	client := &fakeCompleter{replies: []reply{{err: cause}}}
	g, waits := newTestGenerator(client, 5)

	_, err := g.Generate(context.Background(), "tea")
	var genErr domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T %v", err, err)
	}
	if genErr.Message != "Failed to generate survey questions" {
		t.Errorf("unexpected message %q", genErr.Message)
	}
	if client.calls != 1 || len(*waits) != 0 {
		t.Errorf("expected a single call and no waits, got %d calls %d waits", client.calls, len(*waits))
	}
}

func TestGenerateEmptyCompletion(t *testing.T) {
	client := &fakeCompleter{replies: []reply{{content: "\n  \n"}}}
	g, _ := newTestGenerator(client, 5)

	_, err := g.Generate(context.Background(), "tea")
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestGenerateCancelledDuringWait(t *testing.T) {
	client := &fakeCompleter{replies: []reply{{err: rateLimited()}}}
	g := NewGenerator(client, GeneratorConfig{Retry: RetryPolicy{Interval: time.Hour, MaxAttempts: 5}})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := g.Generate(ctx, "tea")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if client.calls != 1 {
		t.Errorf("expected 1 call, got %d", client.calls)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := sleep(context.Background(), 0); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
