package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abhisek/lernbuddy/internal/identity"
	"github.com/abhisek/lernbuddy/internal/logger"
	"github.com/abhisek/lernbuddy/internal/metrics"
	"github.com/abhisek/lernbuddy/internal/store"
)

// DefaultHistoryLimit is how many recent sessions an analysis looks at.
const DefaultHistoryLimit = 50

// Analyzer serves learning profiles. The stored profile is a cache of the
// latest analysis and is recomputed only when the history changed since.
type Analyzer struct {
	store        store.ProfileStore
	historyLimit int
	now          func() time.Time
	log          *logger.Logger
	metrics      *metrics.Metrics
	group        singleflight.Group
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

func WithHistoryLimit(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.historyLimit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

func NewAnalyzer(ps store.ProfileStore, opts ...Option) *Analyzer {
	a := &Analyzer{
		store:        ps,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Profile returns the learner's current profile. Concurrent calls for the
// same learner share one analysis, which is not cancelled with any single
// caller. Store failures, including a failed upsert, are returned.
func (a *Analyzer) Profile(ctx context.Context, learner identity.Learner) (Profile, error) {
	ch := a.group.DoChan(string(learner), func() (any, error) {
		return a.profile(context.WithoutCancel(ctx), learner)
	})
	select {
	case <-ctx.Done():
		return Profile{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Profile{}, r.Err
		}
		return r.Val.(Profile), nil
	}
}

func (a *Analyzer) profile(ctx context.Context, learner identity.Learner) (Profile, error) {
	rows, err := a.store.GetSessionHistory(ctx, string(learner), a.historyLimit)
	if err != nil {
		return Profile{}, fmt.Errorf("load session history: %w", err)
	}
	if len(rows) < MinSessions {
		a.metrics.ObserveProfile("default")
		p := Default()
		p.SessionCount = len(rows)
		return p, nil
	}

	stored, err := a.store.GetProfile(ctx, string(learner))
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if stored != nil && fresh(stored, rows) {
		p, err := fromRecord(stored)
		if err == nil {
			a.metrics.ObserveProfile("cached")
			return p, nil
		}
		a.log.Warn("discarding unreadable stored profile", "learner", string(learner), "error", err)
	}

	history := make([]Session, len(rows))
	for i, r := range rows {
		history[i] = Session{
			Subject:         r.Subject,
			DurationMinutes: r.DurationMinutes,
			Score:           r.Score,
			Engagement:      r.Engagement,
			Timestamp:       r.Timestamp,
		}
	}
	p := Analyze(history)
	p.UpdatedAt = a.now().UTC()
	a.metrics.ObserveProfile("recomputed")

	rec, err := toRecord(learner, p)
	if err != nil {
		return Profile{}, err
	}
	if err := a.store.UpsertProfile(ctx, rec); err != nil {
		return Profile{}, fmt.Errorf("store learning profile: %w", err)
	}
	a.log.Debug("learning profile updated", "learner", string(learner), "style", string(p.Style), "sessions", p.SessionCount)
	return p, nil
}

// fresh reports whether stored was computed from the given history: same
// number of sessions and no session newer than the analysis.
func fresh(stored *store.LearningProfile, rows []store.StudySession) bool {
	if stored.SessionCount != len(rows) {
		return false
	}
	for _, r := range rows {
		if r.Timestamp.After(stored.UpdatedAt) {
			return false
		}
	}
	return true
}

// Record appends a study session to the learner's history. Values outside
// their ranges are clamped.
func (a *Analyzer) Record(ctx context.Context, learner identity.Learner, s Session) error {
	if s.Subject == "" {
		return fmt.Errorf("study session without subject")
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = a.now()
	}
	err := a.store.RecordStudySession(ctx, store.StudySession{
		Learner:         string(learner),
		Subject:         s.Subject,
		DurationMinutes: max(s.DurationMinutes, 0),
		Score:           min(max(s.Score, 0), 100),
		Engagement:      min(max(s.Engagement, 0), 1),
		Timestamp:       s.Timestamp.UTC(),
	})
	if err != nil {
		return fmt.Errorf("record study session: %w", err)
	}
	return nil
}

func toRecord(learner identity.Learner, p Profile) (store.LearningProfile, error) {
	patterns, err := json.Marshal(p.Patterns)
	if err != nil {
		return store.LearningProfile{}, fmt.Errorf("marshal patterns: %w", err)
	}
	return store.LearningProfile{
		Learner:              string(learner),
		Style:                string(p.Style),
		OptimalSessionLength: p.OptimalSessionLength,
		PreferredSubjects:    p.PreferredSubjects,
		StruggleAreas:        p.StruggleAreas,
		Patterns:             patterns,
		SessionCount:         p.SessionCount,
		UpdatedAt:            p.UpdatedAt,
	}, nil
}

func fromRecord(r *store.LearningProfile) (Profile, error) {
	p := Profile{
		Style:                Style(r.Style),
		OptimalSessionLength: r.OptimalSessionLength,
		PreferredSubjects:    r.PreferredSubjects,
		StruggleAreas:        r.StruggleAreas,
		SessionCount:         r.SessionCount,
		UpdatedAt:            r.UpdatedAt,
	}
	if len(r.Patterns) > 0 {
		if err := json.Unmarshal(r.Patterns, &p.Patterns); err != nil {
			return Profile{}, fmt.Errorf("decode patterns: %w", err)
		}
	}
	if p.PreferredSubjects == nil {
		p.PreferredSubjects = []string{}
	}
	if p.StruggleAreas == nil {
		p.StruggleAreas = []string{}
	}
	return p, nil
}
