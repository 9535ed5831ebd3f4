package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/abhisek/lernbuddy/internal/content"
)

// ErrNotActive is returned when a write requires an active session but the
// session is missing or already completed.
var ErrNotActive = errors.New("store: session is not active")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact match when set
}

// SessionStatus is the lifecycle state of a test session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// AnswerRecord is the learner's selection for one question. IsCorrect is
// only meaningful once the session is completed.
type AnswerRecord struct {
	QuestionIndex   int       `json:"question_index"`
	SelectedAnswers []string  `json:"selected_answers"`
	IsCorrect       bool      `json:"is_correct"`
	Timestamp       time.Time `json:"timestamp"`
}

// TestSession is a timed set of questions and the answers given so far.
type TestSession struct {
	ID        string
	Learner   string
	Subject   string
	Topic     string
	Questions []content.Question

	// Answers is keyed by question index and may be sparse.
	Answers map[int]AnswerRecord

	StartTime      time.Time
	EndTime        time.Time // zero while active
	ElapsedSeconds float64
	Score          float64
	CorrectCount   int
	TotalQuestions int
	Status         SessionStatus
	Source         content.Source
}

// Completion carries the final state written when a session completes.
type Completion struct {
	Score          float64
	CorrectCount   int
	ElapsedSeconds float64
	Answers        map[int]AnswerRecord
	EndTime        time.Time
}

// SessionStore persists test sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *TestSession) error

	// GetSession returns the session owned by learner, or nil if none exists.
	GetSession(ctx context.Context, id, learner string) (*TestSession, error)

	// UpdateAnswers replaces the answers of an active session. It returns
	// ErrNotActive when the session is not active.
	UpdateAnswers(ctx context.Context, id string, answers map[int]AnswerRecord) error

	// CompleteSession moves an active session to completed. It returns
	// ErrNotActive when the session was already completed, so of two racing
	// calls exactly one succeeds.
	CompleteSession(ctx context.Context, id string, c Completion) error

	// ListCompletedSessions returns completed sessions, most recent first.
	ListCompletedSessions(ctx context.Context, learner string, limit int) ([]TestSession, error)
}

// StudySession is one row of a learner's study history.
type StudySession struct {
	ID              int64
	Learner         string
	Subject         string
	DurationMinutes float64
	Score           float64 // percent
	Engagement      float64 // 0..1
	Timestamp       time.Time
}

// LearningProfile is the cached result of the latest profile analysis.
type LearningProfile struct {
	Learner              string
	Style                string
	OptimalSessionLength int
	PreferredSubjects    []string
	StruggleAreas        []string
	Patterns             json.RawMessage
	SessionCount         int
	UpdatedAt            time.Time
}

// ProfileStore persists study history and learning profiles.
type ProfileStore interface {
	// GetSessionHistory returns study sessions, most recent first.
	GetSessionHistory(ctx context.Context, learner string, limit int) ([]StudySession, error)

	// UpsertProfile stores p, replacing any previous profile of the learner.
	UpsertProfile(ctx context.Context, p LearningProfile) error

	// GetProfile returns the stored profile, or nil if none exists.
	GetProfile(ctx context.Context, learner string) (*LearningProfile, error)

	RecordStudySession(ctx context.Context, s StudySession) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
