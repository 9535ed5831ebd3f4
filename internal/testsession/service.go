// Package testsession runs timed multiple-choice tests: creation with
// generated questions, answer submission, scoring on finish and review.
package testsession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/lernbuddy/internal/content"
	"github.com/abhisek/lernbuddy/internal/identity"
	"github.com/abhisek/lernbuddy/internal/logger"
	"github.com/abhisek/lernbuddy/internal/metrics"
	"github.com/abhisek/lernbuddy/internal/profile"
	"github.com/abhisek/lernbuddy/internal/prompt"
	"github.com/abhisek/lernbuddy/internal/scoring"
	"github.com/abhisek/lernbuddy/internal/store"
)

const tracerName = "github.com/abhisek/lernbuddy/internal/testsession"

// Profiles reads and feeds learning profiles. *profile.Analyzer
// implements it.
type Profiles interface {
	Profile(ctx context.Context, learner identity.Learner) (profile.Profile, error)
	Record(ctx context.Context, learner identity.Learner, s profile.Session) error
}

// Content produces questions and feedback with fallback.
// *generation.Service implements it.
type Content interface {
	Exercises(ctx context.Context, in prompt.Input) content.Generated[content.ExerciseSet]
	SessionFeedback(ctx context.Context, in prompt.Input) content.Generated[content.SessionFeedback]
	AnswerFeedback(ctx context.Context, in prompt.Input, explanation string) content.Generated[content.AnswerFeedback]
}

// Config bounds session sizes and switches optional behavior.
type Config struct {
	DefaultQuestions   int  `yaml:"default_questions"`
	MaxQuestions       int  `yaml:"max_questions"`
	SecondsPerQuestion int  `yaml:"seconds_per_question"`
	ImmediateFeedback  bool `yaml:"immediate_feedback"`
	HistoryLimit       int  `yaml:"history_limit"`
}

func DefaultConfig() Config {
	return Config{
		DefaultQuestions:   10,
		MaxQuestions:       20,
		SecondsPerQuestion: 60,
		HistoryLimit:       10,
	}
}

// Service is the test session orchestrator. The store is the only source
// of session state; every operation re-reads it.
type Service struct {
	sessions store.SessionStore
	profiles Profiles
	content  Content
	cfg      Config

	locks   *keyedMutex
	now     func() time.Time
	newID   func(learner identity.Learner) string
	log     *logger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(sessions store.SessionStore, profiles Profiles, c Content, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		profiles: profiles,
		content:  c,
		cfg:      DefaultConfig(),
		locks:    newKeyedMutex(),
		now:      time.Now,
		newID:    newSessionID,
		log:      logger.Nop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newSessionID is time ordered and carries the learner as a suffix.
func newSessionID(learner identity.Learner) string {
	return fmt.Sprintf("test_%s_%s", uuid.Must(uuid.NewV7()), learner)
}

func (s *Service) questionCount(n int) int {
	if n <= 0 {
		n = s.cfg.DefaultQuestions
	}
	if s.cfg.MaxQuestions > 0 && n > s.cfg.MaxQuestions {
		n = s.cfg.MaxQuestions
	}
	return max(n, 1)
}

// Create generates questions for a new session and stores it as active.
// Generation never fails the call; store errors do.
func (s *Service) Create(ctx context.Context, learner identity.Learner, subject, topic string, count int) (_ *Started, err error) {
	subject, topic = strings.TrimSpace(subject), strings.TrimSpace(topic)
	if subject == "" || topic == "" {
		return nil, fmt.Errorf("%w: subject and topic are required", ErrInvalidInput)
	}
	count = s.questionCount(count)

	ctx, span := s.tracer.Start(ctx, "testsession.create", trace.WithAttributes(
		attribute.String("subject", subject),
		attribute.Int("count", count),
	))
	defer endSpan(span, &err)

	prof, err := s.profiles.Profile(ctx, learner)
	if err != nil {
		return nil, &ErrStoreUnavailable{Op: "load profile", Err: err}
	}

	gen := s.content.Exercises(ctx, prompt.Input{
		Profile: prof,
		Subject: subject,
		Topic:   topic,
		Count:   count,
	})
	questions := gen.Content.Exercises

	// The clock starts once the questions exist.
	start := s.now().UTC()
	sess := &store.TestSession{
		ID:             s.newID(learner),
		Learner:        string(learner),
		Subject:        subject,
		Topic:          topic,
		Questions:      questions,
		Answers:        map[int]store.AnswerRecord{},
		StartTime:      start,
		TotalQuestions: len(questions),
		Status:         store.StatusActive,
		Source:         gen.Source,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, &ErrStoreUnavailable{Op: "create session", Err: err}
	}

	s.metrics.ObserveSessionStarted(string(gen.Source))
	s.log.Info("test session created", "session", sess.ID, "subject", subject, "questions", len(questions), "source", string(gen.Source))
	span.SetAttributes(attribute.String("session.id", sess.ID), attribute.String("content.source", string(gen.Source)))

	views := make([]QuestionView, len(questions))
	for i, q := range questions {
		views[i] = QuestionView{
			Index:           i,
			Question:        q.Question,
			Options:         q.Options,
			MultipleCorrect: q.MultipleCorrect,
			Difficulty:      q.Difficulty,
		}
	}
	return &Started{
		ID:               sess.ID,
		Subject:          subject,
		Topic:            topic,
		Questions:        views,
		TimeLimitSeconds: s.cfg.SecondsPerQuestion * count,
		StartTime:        start,
		Source:           gen.Source,
		AdaptiveTips:     gen.Content.AdaptiveTips,
	}, nil
}

// SubmitAnswer records the selection for one question, replacing any
// earlier one. Correctness is decided at finish time; with immediate
// feedback enabled the single answer is also evaluated right away.
func (s *Service) SubmitAnswer(ctx context.Context, learner identity.Learner, id string, index int, selected []string) (_ *Submission, err error) {
	ctx, span := s.tracer.Start(ctx, "testsession.submit_answer", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.Int("question.index", index),
	))
	defer endSpan(span, &err)

	keys := scoring.Keys(selected)
	sess, err := s.recordAnswer(ctx, learner, id, index, keys)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveAnswer()

	sub := &Submission{
		ID:              id,
		QuestionIndex:   index,
		SelectedAnswers: keys,
		Answered:        len(sess.Answers),
		Total:           sess.TotalQuestions,
	}
	if !s.cfg.ImmediateFeedback {
		return sub, nil
	}

	q := sess.Questions[index]
	r := scoring.Score(keys, q.CorrectAnswers)
	sub.Feedback = &ImmediateFeedback{
		IsCorrect:     r.IsCorrect,
		PartialCredit: r.PartialCredit,
		Feedback: s.content.AnswerFeedback(ctx, prompt.Input{
			Subject: sess.Subject,
			Topic:   sess.Topic,
			Answer: prompt.Answer{
				Question:  q.Question,
				Options:   q.Options,
				Correct:   q.CorrectAnswers,
				Selected:  keys,
				IsCorrect: r.IsCorrect,
			},
		}, q.Explanation),
	}
	return sub, nil
}

// recordAnswer is the locked read-modify-write of the answers mapping.
func (s *Service) recordAnswer(ctx context.Context, learner identity.Learner, id string, index int, keys []string) (*store.TestSession, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, learner, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != store.StatusActive {
		return nil, &ErrSessionClosed{ID: id}
	}
	if index < 0 || index >= sess.TotalQuestions {
		return nil, &ErrInvalidIndex{Index: index, Total: sess.TotalQuestions}
	}

	if sess.Answers == nil {
		sess.Answers = map[int]store.AnswerRecord{}
	}
	sess.Answers[index] = store.AnswerRecord{
		QuestionIndex:   index,
		SelectedAnswers: keys,
		Timestamp:       s.now().UTC(),
	}
	if err := s.sessions.UpdateAnswers(ctx, id, sess.Answers); err != nil {
		if errors.Is(err, store.ErrNotActive) {
			return nil, &ErrSessionClosed{ID: id}
		}
		return nil, &ErrStoreUnavailable{Op: "update answers", Err: err}
	}
	return sess, nil
}

// Finish scores the session, completes it and generates the coaching
// feedback. A second call fails with *ErrSessionClosed.
func (s *Service) Finish(ctx context.Context, learner identity.Learner, id string) (_ *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "testsession.finish", trace.WithAttributes(attribute.String("session.id", id)))
	defer endSpan(span, &err)

	sess, err := s.complete(ctx, learner, id)
	if err != nil {
		return nil, err
	}

	res := s.buildResult(sess)
	s.metrics.ObserveSessionFinished(string(res.PerformanceLevel), res.Score)
	s.log.Info("test session finished", "session", id, "score", res.Score, "correct", res.CorrectCount, "total", res.TotalQuestions)
	span.SetAttributes(attribute.Float64("session.score", res.Score))

	engagement := 0.0
	if res.TotalQuestions > 0 {
		engagement = float64(res.Answered) / float64(res.TotalQuestions)
	}
	if err := s.profiles.Record(ctx, learner, profile.Session{
		Subject:         sess.Subject,
		DurationMinutes: res.ElapsedSeconds / 60,
		Score:           res.Score,
		Engagement:      engagement,
		Timestamp:       res.EndTime,
	}); err != nil {
		s.log.Warn("failed to record study session", "session", id, "error", err)
	}

	res.Feedback = s.feedback(ctx, sess, res)
	return res, nil
}

// complete is the locked read, score and state transition.
func (s *Service) complete(ctx context.Context, learner identity.Learner, id string) (*store.TestSession, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, learner, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != store.StatusActive {
		return nil, &ErrSessionClosed{ID: id}
	}

	correct := 0
	for i, q := range sess.Questions {
		rec, ok := sess.Answers[i]
		if !ok {
			continue
		}
		rec.IsCorrect = scoring.Score(rec.SelectedAnswers, q.CorrectAnswers).IsCorrect
		sess.Answers[i] = rec
		if rec.IsCorrect {
			correct++
		}
	}

	end := s.now().UTC()
	sess.Status = store.StatusCompleted
	sess.CorrectCount = correct
	sess.Score = scoring.SessionScore(correct, sess.TotalQuestions)
	sess.EndTime = end
	sess.ElapsedSeconds = max(end.Sub(sess.StartTime).Seconds(), 0)

	err = s.sessions.CompleteSession(ctx, id, store.Completion{
		Score:          sess.Score,
		CorrectCount:   sess.CorrectCount,
		ElapsedSeconds: sess.ElapsedSeconds,
		Answers:        sess.Answers,
		EndTime:        end,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotActive) {
			return nil, &ErrSessionClosed{ID: id}
		}
		return nil, &ErrStoreUnavailable{Op: "complete session", Err: err}
	}
	return sess, nil
}

// Review rebuilds the result of a completed session, regenerating its
// feedback.
func (s *Service) Review(ctx context.Context, learner identity.Learner, id string) (_ *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "testsession.review", trace.WithAttributes(attribute.String("session.id", id)))
	defer endSpan(span, &err)

	sess, err := s.load(ctx, learner, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != store.StatusCompleted {
		return nil, &ErrSessionActive{ID: id}
	}

	res := s.buildResult(sess)
	res.Feedback = s.feedback(ctx, sess, res)
	return res, nil
}

// History lists the learner's completed sessions, most recent first.
func (s *Service) History(ctx context.Context, learner identity.Learner, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	rows, err := s.sessions.ListCompletedSessions(ctx, string(learner), limit)
	if err != nil {
		return nil, &ErrStoreUnavailable{Op: "list sessions", Err: err}
	}

	out := make([]Summary, len(rows))
	for i, r := range rows {
		out[i] = Summary{
			ID:               r.ID,
			Subject:          r.Subject,
			Topic:            r.Topic,
			Score:            r.Score,
			CorrectCount:     r.CorrectCount,
			TotalQuestions:   r.TotalQuestions,
			ElapsedSeconds:   r.ElapsedSeconds,
			PerformanceLevel: scoring.PerformanceLevel(r.Score),
			CompletedAt:      r.EndTime,
		}
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, learner identity.Learner, id string) (*store.TestSession, error) {
	sess, err := s.sessions.GetSession(ctx, id, string(learner))
	if err != nil {
		return nil, &ErrStoreUnavailable{Op: "load session", Err: err}
	}
	if sess == nil {
		return nil, &ErrSessionNotFound{ID: id}
	}
	return sess, nil
}

// buildResult derives the per-question breakdown from a completed session.
// Absent answers count as empty selections.
func (s *Service) buildResult(sess *store.TestSession) *Result {
	res := &Result{
		ID:               sess.ID,
		Subject:          sess.Subject,
		Topic:            sess.Topic,
		Score:            sess.Score,
		CorrectCount:     sess.CorrectCount,
		TotalQuestions:   sess.TotalQuestions,
		ElapsedSeconds:   sess.ElapsedSeconds,
		PerformanceLevel: scoring.PerformanceLevel(sess.Score),
		StartTime:        sess.StartTime,
		EndTime:          sess.EndTime,
		Questions:        make([]QuestionResult, len(sess.Questions)),
	}
	for i, q := range sess.Questions {
		rec, answered := sess.Answers[i]
		r := scoring.Score(rec.SelectedAnswers, q.CorrectAnswers)
		selected := rec.SelectedAnswers
		if selected == nil {
			selected = []string{}
		}
		if answered {
			res.Answered++
		}
		res.Questions[i] = QuestionResult{
			Index:           i,
			Question:        q.Question,
			Options:         q.Options,
			SelectedAnswers: selected,
			CorrectAnswers:  q.CorrectAnswers,
			IsCorrect:       r.IsCorrect,
			PartialCredit:   r.PartialCredit,
			Explanation:     q.Explanation,
			Answered:        answered,
		}
	}
	return res
}

func (s *Service) feedback(ctx context.Context, sess *store.TestSession, res *Result) content.Generated[content.SessionFeedback] {
	return s.content.SessionFeedback(ctx, prompt.Input{
		Subject: sess.Subject,
		Topic:   sess.Topic,
		Result: prompt.Result{
			Score:   res.Score,
			Correct: res.CorrectCount,
			Total:   res.TotalQuestions,
		},
	})
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
