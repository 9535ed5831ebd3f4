package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lernbuddy/internal/content"
)

// sessionRepo implements SessionStore on the test_sessions table.
type sessionRepo struct {
	db *sql.DB
}

var sessionColumns = []string{
	"id", "learner", "subject", "topic", "questions", "answers",
	"start_time", "end_time", "elapsed_seconds", "score", "correct_count",
	"total_questions", "status", "source",
}

func (r *sessionRepo) CreateSession(ctx context.Context, s *TestSession) error {
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := marshalAnswers(s.Answers)
	if err != nil {
		return err
	}
	status := s.Status
	if status == "" {
		status = StatusActive
	}

	query, args := builder().Insert(TestSessionsTable.Name).
		Columns("id", "learner", "subject", "topic", "questions", "answers",
			"start_time", "total_questions", "status", "source").
		Values(s.ID, s.Learner, s.Subject, s.Topic, string(questions), answers,
			s.StartTime.UTC(), s.TotalQuestions, string(status), string(s.Source)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert test session: %w", err)
	}
	return nil
}

func (r *sessionRepo) GetSession(ctx context.Context, id, learner string) (*TestSession, error) {
	query, args := builder().Select(sessionColumns...).
		From(entsql.Table(TestSessionsTable.Name)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("learner", learner))).
		Query()

	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *sessionRepo) UpdateAnswers(ctx context.Context, id string, answers map[int]AnswerRecord) error {
	encoded, err := marshalAnswers(answers)
	if err != nil {
		return err
	}
	query, args := builder().Update(TestSessionsTable.Name).
		Set("answers", encoded).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", string(StatusActive)))).
		Query()
	return r.execOnActive(ctx, "update answers", query, args)
}

func (r *sessionRepo) CompleteSession(ctx context.Context, id string, c Completion) error {
	encoded, err := marshalAnswers(c.Answers)
	if err != nil {
		return err
	}
	query, args := builder().Update(TestSessionsTable.Name).
		Set("answers", encoded).
		Set("score", c.Score).
		Set("correct_count", c.CorrectCount).
		Set("elapsed_seconds", c.ElapsedSeconds).
		Set("end_time", c.EndTime.UTC()).
		Set("status", string(StatusCompleted)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("status", string(StatusActive)))).
		Query()
	return r.execOnActive(ctx, "complete session", query, args)
}

// execOnActive runs an update guarded by status = 'active' and reports
// ErrNotActive when no row matched.
func (r *sessionRepo) execOnActive(ctx context.Context, op, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotActive
	}
	return nil
}

func (r *sessionRepo) ListCompletedSessions(ctx context.Context, learner string, limit int) ([]TestSession, error) {
	sel := builder().Select(sessionColumns...).
		From(entsql.Table(TestSessionsTable.Name)).
		Where(entsql.And(entsql.EQ("learner", learner), entsql.EQ("status", string(StatusCompleted)))).
		OrderBy(entsql.Desc("end_time"), entsql.Desc("start_time"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	defer rows.Close()

	var out []TestSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanSession(row rowScanner) (*TestSession, error) {
	var (
		s         TestSession
		questions []byte
		answers   []byte
		endTime   sql.NullTime
		status    string
		source    string
	)
	err := row.Scan(
		&s.ID,
		&s.Learner,
		&s.Subject,
		&s.Topic,
		&questions,
		&answers,
		&s.StartTime,
		&endTime,
		&s.ElapsedSeconds,
		&s.Score,
		&s.CorrectCount,
		&s.TotalQuestions,
		&status,
		&source,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan test session: %w", err)
	}

	if err := json.Unmarshal(questions, &s.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of %s: %w", s.ID, err)
	}
	s.Answers = map[int]AnswerRecord{}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &s.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", s.ID, err)
		}
	}
	if endTime.Valid {
		s.EndTime = endTime.Time
	}
	s.Status = SessionStatus(status)
	s.Source = content.Source(source)
	return &s, nil
}

func marshalAnswers(answers map[int]AnswerRecord) (string, error) {
	if answers == nil {
		answers = map[int]AnswerRecord{}
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("marshal answers: %w", err)
	}
	return string(b), nil
}
