package testsession

import (
	"time"

	"github.com/abhisek/lernbuddy/internal/content"
	"github.com/abhisek/lernbuddy/internal/scoring"
)

// QuestionView is a question as shown while the test runs: no answers,
// no explanation.
type QuestionView struct {
	Index           int               `json:"index"`
	Question        string            `json:"question"`
	Options         map[string]string `json:"options"`
	MultipleCorrect bool              `json:"multiple_correct"`
	Difficulty      string            `json:"difficulty,omitempty"`
}

// Started is returned by Create.
type Started struct {
	ID               string         `json:"test_id"`
	Subject          string         `json:"subject"`
	Topic            string         `json:"topic"`
	Questions        []QuestionView `json:"questions"`
	TimeLimitSeconds int            `json:"time_limit_seconds"`
	StartTime        time.Time      `json:"start_time"`
	Source           content.Source `json:"source"`
	AdaptiveTips     []string       `json:"adaptive_tips,omitempty"`
}

// ImmediateFeedback evaluates a single answer right after submission. It
// does not affect the session score.
type ImmediateFeedback struct {
	IsCorrect     bool                                     `json:"is_correct"`
	PartialCredit float64                                  `json:"partial_credit"`
	Feedback      content.Generated[content.AnswerFeedback] `json:"feedback"`
}

// Submission is returned by SubmitAnswer.
type Submission struct {
	ID              string             `json:"test_id"`
	QuestionIndex   int                `json:"question_index"`
	SelectedAnswers []string           `json:"selected_answers"`
	Answered        int                `json:"answered"`
	Total           int                `json:"total"`
	Feedback        *ImmediateFeedback `json:"immediate_feedback,omitempty"`
}

// QuestionResult is one row of the per-question breakdown.
type QuestionResult struct {
	Index           int               `json:"index"`
	Question        string            `json:"question"`
	Options         map[string]string `json:"options"`
	SelectedAnswers []string          `json:"selected_answers"`
	CorrectAnswers  []string          `json:"correct_answers"`
	IsCorrect       bool              `json:"is_correct"`
	PartialCredit   float64           `json:"partial_credit"`
	Explanation     string            `json:"explanation"`
	Answered        bool              `json:"answered"`
}

// Result is the outcome of a completed session.
type Result struct {
	ID               string                                    `json:"test_id"`
	Subject          string                                    `json:"subject"`
	Topic            string                                    `json:"topic"`
	Score            float64                                   `json:"score"`
	CorrectCount     int                                       `json:"correct_count"`
	TotalQuestions   int                                       `json:"total_questions"`
	Answered         int                                       `json:"answered"`
	ElapsedSeconds   float64                                   `json:"elapsed_seconds"`
	PerformanceLevel scoring.Level                             `json:"performance_level"`
	StartTime        time.Time                                 `json:"start_time"`
	EndTime          time.Time                                 `json:"end_time"`
	Questions        []QuestionResult                          `json:"questions"`
	Feedback         content.Generated[content.SessionFeedback] `json:"feedback"`
}

// Summary is one entry of a learner's test history.
type Summary struct {
	ID               string        `json:"test_id"`
	Subject          string        `json:"subject"`
	Topic            string        `json:"topic"`
	Score            float64       `json:"score"`
	CorrectCount     int           `json:"correct_count"`
	TotalQuestions   int           `json:"total_questions"`
	ElapsedSeconds   float64       `json:"elapsed_seconds"`
	PerformanceLevel scoring.Level `json:"performance_level"`
	CompletedAt      time.Time     `json:"completed_at"`
}
