package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// profileRepo implements ProfileStore on the learning_profiles and
// study_sessions tables.
type profileRepo struct {
	db *sql.DB
}

func (r *profileRepo) RecordStudySession(ctx context.Context, s StudySession) error {
	query, args := builder().Insert(StudySessionsTable.Name).
		Columns("learner", "subject", "duration_minutes", "score", "engagement", "timestamp").
		Values(s.Learner, s.Subject, s.DurationMinutes, s.Score, s.Engagement, s.Timestamp.UTC()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert study session: %w", err)
	}
	return nil
}

func (r *profileRepo) GetSessionHistory(ctx context.Context, learner string, limit int) ([]StudySession, error) {
	sel := builder().Select("id", "learner", "subject", "duration_minutes", "score", "engagement", "timestamp").
		From(entsql.Table(StudySessionsTable.Name)).
		Where(entsql.EQ("learner", learner)).
		OrderBy(entsql.Desc("timestamp"), entsql.Desc("id"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	var out []StudySession
	for rows.Next() {
		var s StudySession
		if err := rows.Scan(&s.ID, &s.Learner, &s.Subject, &s.DurationMinutes, &s.Score, &s.Engagement, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scan study session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *profileRepo) UpsertProfile(ctx context.Context, p LearningProfile) error {
	preferred, err := json.Marshal(nonNil(p.PreferredSubjects))
	if err != nil {
		return fmt.Errorf("marshal preferred subjects: %w", err)
	}
	struggles, err := json.Marshal(nonNil(p.StruggleAreas))
	if err != nil {
		return fmt.Errorf("marshal struggle areas: %w", err)
	}
	patterns := p.Patterns
	if len(patterns) == 0 {
		patterns = json.RawMessage("{}")
	}

	query, args := builder().Insert(LearningProfilesTable.Name).
		Columns("learner", "style", "optimal_session_length", "preferred_subjects",
			"struggle_areas", "patterns", "session_count", "updated_at").
		Values(p.Learner, p.Style, p.OptimalSessionLength, string(preferred),
			string(struggles), string(patterns), p.SessionCount, p.UpdatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("learner"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert learning profile: %w", err)
	}
	return nil
}

func (r *profileRepo) GetProfile(ctx context.Context, learner string) (*LearningProfile, error) {
	query, args := builder().Select("learner", "style", "optimal_session_length", "preferred_subjects",
		"struggle_areas", "patterns", "session_count", "updated_at").
		From(entsql.Table(LearningProfilesTable.Name)).
		Where(entsql.EQ("learner", learner)).
		Query()

	var (
		p                             LearningProfile
		preferred, struggles, pattern []byte
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.Learner, &p.Style, &p.OptimalSessionLength, &preferred,
		&struggles, &pattern, &p.SessionCount, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query learning profile: %w", err)
	}
	if err := json.Unmarshal(preferred, &p.PreferredSubjects); err != nil {
		return nil, fmt.Errorf("decode preferred subjects: %w", err)
	}
	if err := json.Unmarshal(struggles, &p.StruggleAreas); err != nil {
		return nil, fmt.Errorf("decode struggle areas: %w", err)
	}
	p.Patterns = json.RawMessage(pattern)
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
