// Package generation produces typed content for each task kind: it asks the
// model first and substitutes deterministic fallback content when that
// fails. Callers never see a generation error.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/lernbuddy/internal/content"
	"github.com/abhisek/lernbuddy/internal/fallback"
	"github.com/abhisek/lernbuddy/internal/llm"
	"github.com/abhisek/lernbuddy/internal/logger"
	"github.com/abhisek/lernbuddy/internal/metrics"
	"github.com/abhisek/lernbuddy/internal/prompt"
)

// Generator is the part of llm.Client the service needs.
type Generator interface {
	Generate(ctx context.Context, call llm.Call) (*llm.Result, error)
}

// Config tunes the generation calls.
type Config struct {
	MaxTokens   int
	Temperature float64

	// FeedbackTimeout bounds each attempt of a feedback call. Zero uses the
	// client's per-model timeout.
	FeedbackTimeout time.Duration

	// MaxAttempts overrides the client's attempt budget when positive.
	MaxAttempts int
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:       4096,
		Temperature:     0.7,
		FeedbackTimeout: 20 * time.Second,
	}
}

// Service generates content with fallback. A Service with a nil Generator
// always serves fallback content.
type Service struct {
	gen     Generator
	cfg     Config
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(gen Generator, opts ...Option) *Service {
	s := &Service{
		gen: gen,
		cfg: DefaultConfig(),
		log: logger.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exercises returns in.Count questions, at most. A model reply with fewer
// usable questions is accepted as long as it has one.
func (s *Service) Exercises(ctx context.Context, in prompt.Input) content.Generated[content.ExerciseSet] {
	count := max(in.Count, 1)
	in.Count = count
	return generate(ctx, s, prompt.Exercises(in), 0,
		func(raw []byte) (*content.ExerciseSet, error) {
			set, err := content.DecodeExercises(raw)
			if err != nil {
				return nil, err
			}
			set.Limit(count)
			return set, nil
		},
		func() content.ExerciseSet { return fallback.Exercises(in.Subject, in.Topic, count) },
	)
}

func (s *Service) Flashcards(ctx context.Context, in prompt.Input) content.Generated[content.FlashcardSet] {
	count := max(in.Count, 1)
	in.Count = count
	return generate(ctx, s, prompt.Flashcards(in), 0,
		func(raw []byte) (*content.FlashcardSet, error) {
			set, err := content.DecodeFlashcards(raw)
			if err != nil {
				return nil, err
			}
			if len(set.Flashcards) > count {
				set.Flashcards = set.Flashcards[:count]
			}
			return set, nil
		},
		func() content.FlashcardSet { return fallback.Flashcards(in.Subject, in.Topic, count) },
	)
}

// SessionFeedback returns the coaching report for in.Result.
func (s *Service) SessionFeedback(ctx context.Context, in prompt.Input) content.Generated[content.SessionFeedback] {
	r := in.Result
	return generate(ctx, s, prompt.SessionFeedback(in), s.cfg.FeedbackTimeout,
		content.DecodeSessionFeedback,
		func() content.SessionFeedback { return fallback.SessionFeedback(r.Score, r.Correct, r.Total) },
	)
}

// AnswerFeedback returns immediate feedback on in.Answer. explanation is
// the question's own explanation, used by the fallback.
func (s *Service) AnswerFeedback(ctx context.Context, in prompt.Input, explanation string) content.Generated[content.AnswerFeedback] {
	a := in.Answer
	return generate(ctx, s, prompt.SingleFeedback(in), s.cfg.FeedbackTimeout,
		content.DecodeAnswerFeedback,
		func() content.AnswerFeedback {
			return fallback.AnswerFeedback(len(a.Selected) > 0, a.IsCorrect, explanation)
		},
	)
}

// StudyPlan returns a plan covering in.DaysLeft days.
func (s *Service) StudyPlan(ctx context.Context, in prompt.Input) content.Generated[content.StudyPlan] {
	days := max(in.DaysLeft, 1)
	in.DaysLeft = days
	return generate(ctx, s, prompt.StudyPlan(in), 0,
		content.DecodeStudyPlan,
		func() content.StudyPlan { return fallback.StudyPlan(in.Subject, days) },
	)
}

// generate runs one call and decodes its reply into T. Any failure along
// the way yields fb() instead.
func generate[T any](
	ctx context.Context,
	s *Service,
	p prompt.Prompt,
	timeout time.Duration,
	decode func([]byte) (*T, error),
	fb func() T,
) content.Generated[T] {
	kind := string(p.Kind)

	v, err := attempt(ctx, s, p, timeout, decode)
	if err == nil {
		return content.Generated[T]{Content: *v, Source: content.SourceAI, GeneratedAt: s.now()}
	}

	s.log.Info("using fallback content", "kind", kind, "error", err)
	s.metrics.ObserveFallback(kind)
	return content.Generated[T]{Content: fb(), Source: content.SourceFallback, GeneratedAt: s.now()}
}

func attempt[T any](ctx context.Context, s *Service, p prompt.Prompt, timeout time.Duration, decode func([]byte) (*T, error)) (*T, error) {
	if s.gen == nil {
		return nil, errNoGenerator
	}
	schema, ok := content.SchemaFor(p.Kind)
	if !ok {
		return nil, fmt.Errorf("no schema for %q", p.Kind)
	}

	res, err := s.gen.Generate(ctx, llm.Call{
		Purpose: string(p.Kind),
		System:  p.System,
		Prompt:  p.User,
		Kind:    llm.KindJSON,
		Schema: &llm.Schema{
			Name:       schema.Name,
			Key:        schema.Key,
			Definition: schema.Definition,
		},
		Validate: func(raw json.RawMessage) error {
			_, err := decode(raw)
			return err
		},
		Timeout:     timeout,
		MaxAttempts: s.cfg.MaxAttempts,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	v, err := decode(res.JSON)
	if err != nil {
		return nil, fmt.Errorf("decode %s reply: %w", p.Kind, err)
	}
	return v, nil
}

var errNoGenerator = errors.New("no generation backend configured")
