package testsession

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/lernbuddy/internal/content"
	"github.com/abhisek/lernbuddy/internal/identity"
	"github.com/abhisek/lernbuddy/internal/profile"
	"github.com/abhisek/lernbuddy/internal/scoring"
	"github.com/abhisek/lernbuddy/internal/store"
)

var anna = identity.FromAccount("anna")

func twoQuestions() []content.Question {
	return []content.Question{
		{
			Question:       "Ableitung von x³?",
			Options:        map[string]string{"A": "3x²", "B": "x²", "C": "6x", "D": "3x"},
			CorrectAnswers: []string{"A"},
			Explanation:    "Potenzregel",
		},
		{
			Question:        "Welche Zahlen sind gerade?",
			Options:         map[string]string{"A": "2", "B": "3", "C": "4", "D": "5", "E": "6"},
			CorrectAnswers:  []string{"A", "C", "E"},
			Explanation:     "Durch 2 teilbar",
			MultipleCorrect: true,
		},
	}
}

type fixture struct {
	svc      *Service
	sessions *memSessions
	profiles *fakeProfiles
	content  *fakeContent
	clock    *stepClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		sessions: newMemSessions(),
		profiles: &fakeProfiles{profile: profile.Default()},
		content:  &fakeContent{questions: twoQuestions()},
		clock:    &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	opts = append([]Option{WithClock(f.clock.Now)}, opts...)
	f.svc = New(f.sessions, f.profiles, f.content, opts...)
	return f
}

func (f *fixture) start(t *testing.T) *Started {
	t.Helper()
	st, err := f.svc.Create(context.Background(), anna, "Mathe", "Analysis", 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return st
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	f.profiles.profile = profile.Profile{Style: profile.StyleDeepFocused, OptimalSessionLength: 65}

	st := f.start(t)

	if !strings.HasPrefix(st.ID, "test_") || !strings.HasSuffix(st.ID, "_"+string(anna)) {
		t.Errorf("unexpected id %q", st.ID)
	}
	if len(st.Questions) != 2 || st.TimeLimitSeconds != 120 {
		t.Fatalf("questions=%d limit=%d", len(st.Questions), st.TimeLimitSeconds)
	}
	if st.Source != content.SourceAI || len(st.AdaptiveTips) != 1 {
		t.Errorf("source=%s tips=%v", st.Source, st.AdaptiveTips)
	}
	if f.content.lastInput.Profile.Style != profile.StyleDeepFocused {
		t.Error("profile not passed to generation")
	}

	stored := f.sessions.get(st.ID)
	if stored.Status != store.StatusActive || stored.Learner != string(anna) || stored.TotalQuestions != 2 {
		t.Fatalf("stored %+v", stored)
	}
	if len(stored.Questions[0].CorrectAnswers) == 0 {
		t.Error("stored questions must keep their answers")
	}
}

func TestCreate_QuestionViewHidesAnswers(t *testing.T) {
	f := newFixture(t)
	st := f.start(t)
	if st.Questions[1].Question != "Welche Zahlen sind gerade?" || !st.Questions[1].MultipleCorrect || st.Questions[1].Index != 1 {
		t.Fatalf("view = %+v", st.Questions[1])
	}
}

func TestCreate_StartTimeAfterGeneration(t *testing.T) {
	f := newFixture(t)
	f.clock.step = 0
	f.content.onExercises = func() { f.clock.Advance(40 * time.Second) }

	st := f.start(t)
	want := time.Date(2026, 3, 1, 9, 0, 40, 0, time.UTC)
	if !st.StartTime.Equal(want) {
		t.Fatalf("start time = %v, want %v", st.StartTime, want)
	}
	if !f.sessions.get(st.ID).StartTime.Equal(want) {
		t.Fatal("stored start time differs")
	}
}

func TestCreate_TimeLimitFollowsRequestedCount(t *testing.T) {
	f := newFixture(t)

	// The generator returns two questions although five were asked for.
	st, err := f.svc.Create(context.Background(), anna, "Mathe", "Analysis", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Questions) != 2 || st.TimeLimitSeconds != 300 {
		t.Fatalf("questions=%d limit=%d, want 2 and 300", len(st.Questions), st.TimeLimitSeconds)
	}
}

func TestCreate_QuestionCount(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{0, 10},
		{-3, 10},
		{7, 7},
		{20, 20},
		{50, 20},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.requested), func(t *testing.T) {
			f := newFixture(t)
			f.content.questions = nil // fallback honours the count

			st, err := f.svc.Create(context.Background(), anna, "Mathe", "Analysis", tt.requested)
			if err != nil {
				t.Fatal(err)
			}
			if f.content.lastInput.Count != tt.want || len(st.Questions) != tt.want {
				t.Errorf("requested %d: count=%d questions=%d, want %d", tt.requested, f.content.lastInput.Count, len(st.Questions), tt.want)
			}
			if st.TimeLimitSeconds != 60*tt.want {
				t.Errorf("time limit = %d", st.TimeLimitSeconds)
			}
		})
	}
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Create(context.Background(), anna, " ", "Analysis", 2); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank subject: got %v", err)
	}

	f.profiles.err = errDiskGone
	_, err := f.svc.Create(context.Background(), anna, "Mathe", "Analysis", 2)
	var su *ErrStoreUnavailable
	if !errors.As(err, &su) || su.Op != "load profile" {
		t.Fatalf("profile failure: got %v", err)
	}

	f.profiles.err = nil
	f.sessions.failOps["create"] = errDiskGone
	_, err = f.svc.Create(context.Background(), anna, "Mathe", "Analysis", 2)
	if !errors.As(err, &su) || !errors.Is(err, errDiskGone) {
		t.Fatalf("create failure: got %v", err)
	}
}

func TestSubmitAnswer_Idempotent(t *testing.T) {
	f := newFixture(t)
	st := f.start(t)
	ctx := context.Background()

	if _, err := f.svc.SubmitAnswer(ctx, anna, st.ID, 1, []string{"e", "A", "C"}); err != nil {
		t.Fatal(err)
	}
	first := f.sessions.get(st.ID).Answers[1]
	if _, err := f.svc.SubmitAnswer(ctx, anna, st.ID, 1, []string{"A", "C", "E"}); err != nil {
		t.Fatal(err)
	}
	second := f.sessions.get(st.ID).Answers[1]

	if !slices.Equal(first.SelectedAnswers, second.SelectedAnswers) || first.QuestionIndex != second.QuestionIndex || first.IsCorrect != second.IsCorrect {
		t.Fatalf("records differ: %+v vs %+v", first, second)
	}
	if len(f.sessions.get(st.ID).Answers) != 1 {
		t.Fatal("expected a single record")
	}
	if second.IsCorrect {
		t.Error("correctness must not be decided at submission")
	}
}

func TestSubmitAnswer_Overwrite(t *testing.T) {
	f := newFixture(t)
	st := f.start(t)
	ctx := context.Background()

	f.svc.SubmitAnswer(ctx, anna, st.ID, 0, []string{"B"})
	sub, err := f.svc.SubmitAnswer(ctx, anna, st.ID, 0, []string{"A"})
	if err != nil {
		t.Fatal(err)
	}
	if sub.Answered != 1 || sub.Total != 2 || sub.Feedback != nil {
		t.Errorf("submission = %+v", sub)
	}
	answers := f.sessions.get(st.ID).Answers
	if len(answers) != 1 || !slices.Equal(answers[0].SelectedAnswers, []string{"A"}) {
		t.Fatalf("answers = %+v", answers)
	}
}

func TestSubmitAnswer_Errors(t *testing.T) {
	f := newFixture(t)
	st := f.start(t)
	ctx := context.Background()

	var idx *ErrInvalidIndex
	for _, i := range []int{-1, 2, 99} {
		_, err := f.svc.SubmitAnswer(ctx, anna, st.ID, i, []string{"A"})
		if !errors.As(err, &idx) || idx.Index != i || idx.Total != 2 {
			t.Errorf("index %d: got %v", i, err)
		}
	}

	var nf *ErrSessionNotFound
	if _, err := f.svc.SubmitAnswer(ctx, anna, "test_nope", 0, nil); !errors.As(err, &nf) {
		t.Errorf("unknown id: got %v", err)
	}
	bob := identity.FromAccount("bob")
	if _, err := f.svc.SubmitAnswer(ctx, bob, st.ID, 0, nil); !errors.As(err, &nf) {
		t.Errorf("foreign learner: got %v", err)
	}

	f.sessions.failOps["update"] = errDiskGone
	var su *ErrStoreUnavailable
	if _, err := f.svc.SubmitAnswer(ctx, anna, st.ID, 0, []string{"A"}); !errors.As(err, &su) {
		t.Errorf("store failure: got %v", err)
	}
	delete(f.sessions.failOps, "update")

	if _, err := f.svc.Finish(ctx, anna, st.ID); err != nil {
		t.Fatal(err)
	}
	var closed *ErrSessionClosed
	if _, err := f.svc.SubmitAnswer(ctx, anna, st.ID, 0, []string{"A"}); !errors.As(err, &closed) {
		t.Errorf("after finish: got %v", err)
	}
}

func TestSubmitAnswer_ConcurrentDifferentIndices(t *testing.T) {
	f := newFixture(t)
	f.content.questions = nil
	st, err := f.svc.Create(context.Background(), anna, "Mathe", "Analysis", 12)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.SubmitAnswer(context.Background(), anna, st.ID, i, []string{"A"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := len(f.sessions.get(st.ID).Answers); n != 12 {
		t.Fatalf("recorded %d answers, want 12 (lost updates)", n)
	}
	if f.svc.locks.size() != 0 {
		t.Error("session locks leaked")
	}
}

func TestSubmitAnswer_ImmediateFeedback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImmediateFeedback = true
	f := newFixture(t, WithConfig(cfg))
	st := f.start(t)

	sub, err := f.svc.SubmitAnswer(context.Background(), anna, st.ID, 1, []string{"A", "C"})
	if err != nil {
		t.Fatal(err)
	}
	if sub.Feedback == nil {
		t.Fatal("expected immediate feedback")
	}
	if sub.Feedback.IsCorrect || sub.Feedback.PartialCredit < 0.66 || sub.Feedback.PartialCredit > 0.67 {
		t.Errorf("feedback = %+v", sub.Feedback)
	}
	if sub.Feedback.Feedback.Content.ConceptExplanation != "Durch 2 teilbar" {
		t.Errorf("explanation = %q", sub.Feedback.Feedback.Content.ConceptExplanation)
	}
	if f.sessions.get(st.ID).Answers[1].IsCorrect {
		t.Error("immediate evaluation must not be stored")
	}
}

func TestFinish(t *testing.T) {
	f := newFixture(t)
	f.clock.step = 0
	st := f.start(t)
	ctx := context.Background()

	f.svc.SubmitAnswer(ctx, anna, st.ID, 0, []string{"A"})
	f.clock.Advance(90 * time.Second)

	res, err := f.svc.Finish(ctx, anna, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.CorrectCount != 1 || res.Score != 50 || res.PerformanceLevel != scoring.LevelSatisfactory {
		t.Fatalf("result = %+v", res)
	}
	if res.ElapsedSeconds != 90 || res.Answered != 1 {
		t.Errorf("elapsed=%v answered=%d", res.ElapsedSeconds, res.Answered)
	}
	q1 := res.Questions[1]
	if q1.Answered || q1.IsCorrect || len(q1.SelectedAnswers) != 0 || !slices.Equal(q1.CorrectAnswers, []string{"A", "C", "E"}) {
		t.Errorf("unanswered question row = %+v", q1)
	}
	if !res.Questions[0].IsCorrect || res.Questions[0].PartialCredit != 1 || res.Questions[0].Explanation != "Potenzregel" {
		t.Errorf("answered question row = %+v", res.Questions[0])
	}
	if res.Feedback.Content.OverallAssessment == "" {
		t.Error("missing feedback")
	}

	stored := f.sessions.get(st.ID)
	if stored.Status != store.StatusCompleted || stored.Score != 50 || !stored.Answers[0].IsCorrect {
		t.Fatalf("stored = %+v", stored)
	}
	if _, ok := stored.Answers[1]; ok {
		t.Error("absent answers must not be invented")
	}

	if len(f.profiles.recorded) != 1 {
		t.Fatalf("recorded %d study sessions", len(f.profiles.recorded))
	}
	rec := f.profiles.recorded[0]
	if rec.Subject != "Mathe" || rec.DurationMinutes != 1.5 || rec.Score != 50 || rec.Engagement != 0.5 {
		t.Errorf("study session = %+v", rec)
	}
}

func TestFinish_Twice(t *testing.T) {
	f := newFixture(t)
	st := f.start(t)
	ctx := context.Background()

	f.svc.SubmitAnswer(ctx, anna, st.ID, 0, []string{"A"})
	if _, err := f.svc.Finish(ctx, anna, st.ID); err != nil {
		t.Fatal(err)
	}
	before := f.sessions.get(st.ID)

	var closed *ErrSessionClosed
	if _, err := f.svc.Finish(ctx, anna, st.ID); !errors.As(err, &closed) {
		t.Fatalf("second finish: got %v", err)
	}
	after := f.sessions.get(st.ID)
	if after.Score != before.Score || after.CorrectCount != before.CorrectCount || !after.EndTime.Equal(before.EndTime) {
		t.Error("second finish mutated the session")
	}
	if f.content.feedbackRuns != 1 {
		t.Errorf("feedback generated %d times", f.content.feedbackRuns)
	}
}

func TestFinish_Concurrent(t *testing.T) {
	f := newFixture(t)
	st := f.start(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, closed int
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Finish(context.Background(), anna, st.ID)
			mu.Lock()
			defer mu.Unlock()
			var ce *ErrSessionClosed
			switch {
			case err == nil:
				ok++
			case errors.As(err, &ce):
				closed++
			default:
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if ok != 1 || closed != 4 {
		t.Fatalf("ok=%d closed=%d", ok, closed)
	}
}

func TestFinish_RecordFailureOnlyWarns(t *testing.T) {
	f := newFixture(t)
	f.profiles.recordErr = errDiskGone
	st := f.start(t)

	if _, err := f.svc.Finish(context.Background(), anna, st.ID); err != nil {
		t.Fatalf("finish should succeed: %v", err)
	}
}

func TestFinish_EmptySelectionNeverCorrect(t *testing.T) {
	f := newFixture(t)
	st := f.start(t)
	ctx := context.Background()

	f.svc.SubmitAnswer(ctx, anna, st.ID, 0, []string{" ", ""})
	res, err := f.svc.Finish(ctx, anna, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.CorrectCount != 0 || res.Score != 0 || res.PerformanceLevel != scoring.LevelNeedsPractice {
		t.Fatalf("result = %+v", res)
	}
	if !res.Questions[0].Answered {
		t.Error("a blank submission still counts as answered")
	}
}

func TestReview(t *testing.T) {
	f := newFixture(t)
	st := f.start(t)
	ctx := context.Background()

	var active *ErrSessionActive
	if _, err := f.svc.Review(ctx, anna, st.ID); !errors.As(err, &active) {
		t.Fatalf("review of active session: got %v", err)
	}

	f.svc.SubmitAnswer(ctx, anna, st.ID, 1, []string{"A", "C", "E"})
	finished, err := f.svc.Finish(ctx, anna, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	review, err := f.svc.Review(ctx, anna, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if review.Score != finished.Score || review.CorrectCount != 1 || !review.Questions[1].IsCorrect {
		t.Fatalf("review = %+v", review)
	}
	if f.content.feedbackRuns != 2 {
		t.Errorf("review should regenerate feedback, runs = %d", f.content.feedbackRuns)
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	f.clock.step = time.Second
	ctx := context.Background()

	var ids []string
	for range 3 {
		st := f.start(t)
		f.svc.SubmitAnswer(ctx, anna, st.ID, 0, []string{"A"})
		if _, err := f.svc.Finish(ctx, anna, st.ID); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, st.ID)
	}
	f.start(t) // still active

	got, err := f.svc.History(ctx, anna, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Fatalf("history = %+v", got)
	}
	if got[0].PerformanceLevel != scoring.LevelSatisfactory || got[0].CompletedAt.IsZero() {
		t.Errorf("summary = %+v", got[0])
	}

	f.sessions.failOps["list"] = errDiskGone
	var su *ErrStoreUnavailable
	if _, err := f.svc.History(ctx, anna, 0); !errors.As(err, &su) {
		t.Fatalf("got %v", err)
	}
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
	}()

	// Other keys are independent.
	unlockB := k.Lock("b")
	unlockB()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a locked key")
	case <-time.After(20 * time.Millisecond):
	}
	unlockA()
	<-acquired

	deadline := time.Now().Add(time.Second)
	for k.size() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if k.size() != 0 {
		t.Fatalf("size = %d after release", k.size())
	}
}
