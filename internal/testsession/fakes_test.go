package testsession

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/abhisek/lernbuddy/internal/content"
	"github.com/abhisek/lernbuddy/internal/fallback"
	"github.com/abhisek/lernbuddy/internal/identity"
	"github.com/abhisek/lernbuddy/internal/profile"
	"github.com/abhisek/lernbuddy/internal/prompt"
	"github.com/abhisek/lernbuddy/internal/store"
)

// memSessions is an in-memory store.SessionStore. Reads return copies so
// unsynchronized read-modify-write cycles lose updates, as with a real
// database.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]store.TestSession
	failOps  map[string]error
	updates  int
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]store.TestSession{}, failOps: map[string]error{}}
}

func (m *memSessions) CreateSession(_ context.Context, s *store.TestSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOps["create"]; err != nil {
		return err
	}
	cp := *s
	cp.Answers = maps.Clone(s.Answers)
	m.sessions[s.ID] = cp
	return nil
}

func (m *memSessions) GetSession(_ context.Context, id, learner string) (*store.TestSession, error) {
	// Widen the read-modify-write window.
	time.Sleep(time.Millisecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOps["get"]; err != nil {
		return nil, err
	}
	s, ok := m.sessions[id]
	if !ok || s.Learner != learner {
		return nil, nil
	}
	s.Answers = maps.Clone(s.Answers)
	return &s, nil
}

func (m *memSessions) UpdateAnswers(_ context.Context, id string, answers map[int]store.AnswerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOps["update"]; err != nil {
		return err
	}
	s, ok := m.sessions[id]
	if !ok || s.Status != store.StatusActive {
		return store.ErrNotActive
	}
	s.Answers = maps.Clone(answers)
	m.sessions[id] = s
	m.updates++
	return nil
}

func (m *memSessions) CompleteSession(_ context.Context, id string, c store.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != store.StatusActive {
		return store.ErrNotActive
	}
	s.Status = store.StatusCompleted
	s.Score = c.Score
	s.CorrectCount = c.CorrectCount
	s.ElapsedSeconds = c.ElapsedSeconds
	s.Answers = maps.Clone(c.Answers)
	s.EndTime = c.EndTime
	m.sessions[id] = s
	return nil
}

func (m *memSessions) ListCompletedSessions(_ context.Context, learner string, limit int) ([]store.TestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOps["list"]; err != nil {
		return nil, err
	}
	var out []store.TestSession
	for _, s := range m.sessions {
		if s.Learner == learner && s.Status == store.StatusCompleted {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b store.TestSession) int { return b.EndTime.Compare(a.EndTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSessions) get(id string) store.TestSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// fakeProfiles serves a fixed profile and collects recorded sessions.
type fakeProfiles struct {
	mu        sync.Mutex
	profile   profile.Profile
	err       error
	recordErr error
	recorded  []profile.Session
}

func (f *fakeProfiles) Profile(context.Context, identity.Learner) (profile.Profile, error) {
	if f.err != nil {
		return profile.Profile{}, f.err
	}
	return f.profile, nil
}

func (f *fakeProfiles) Record(_ context.Context, _ identity.Learner, s profile.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, s)
	return f.recordErr
}

// fakeContent returns fixed questions and fallback feedback.
type fakeContent struct {
	mu           sync.Mutex
	questions    []content.Question
	onExercises  func()
	lastInput    prompt.Input
	feedbackRuns int
	answerRuns   int
}

func (f *fakeContent) Exercises(_ context.Context, in prompt.Input) content.Generated[content.ExerciseSet] {
	f.mu.Lock()
	f.lastInput = in
	f.mu.Unlock()
	if f.onExercises != nil {
		f.onExercises()
	}
	if f.questions == nil {
		return content.Generated[content.ExerciseSet]{Content: fallback.Exercises(in.Subject, in.Topic, in.Count), Source: content.SourceFallback}
	}
	return content.Generated[content.ExerciseSet]{
		Content: content.ExerciseSet{Exercises: f.questions, AdaptiveTips: []string{"Tipp"}},
		Source:  content.SourceAI,
	}
}

func (f *fakeContent) SessionFeedback(_ context.Context, in prompt.Input) content.Generated[content.SessionFeedback] {
	f.mu.Lock()
	f.feedbackRuns++
	f.mu.Unlock()
	r := in.Result
	return content.Generated[content.SessionFeedback]{Content: fallback.SessionFeedback(r.Score, r.Correct, r.Total), Source: content.SourceFallback}
}

func (f *fakeContent) AnswerFeedback(_ context.Context, in prompt.Input, explanation string) content.Generated[content.AnswerFeedback] {
	f.mu.Lock()
	f.answerRuns++
	f.mu.Unlock()
	return content.Generated[content.AnswerFeedback]{
		Content: fallback.AnswerFeedback(len(in.Answer.Selected) > 0, in.Answer.IsCorrect, explanation),
		Source:  content.SourceFallback,
	}
}

// stepClock advances by step on every reading.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errDiskGone = errors.New("disk I/O error")
