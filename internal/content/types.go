// Package content holds the typed payloads produced by generation, one per
// task kind, together with their JSON schemas and shape validation.
package content

import "time"

// Kind identifies a generation task.
type Kind string

const (
	KindExercises       Kind = "exercises"
	KindFlashcards      Kind = "flashcards"
	KindSingleFeedback  Kind = "single_feedback"
	KindSessionFeedback Kind = "session_feedback"
	KindStudyPlan       Kind = "study_plan"
)

// Kinds lists every task kind in a stable order.
var Kinds = []Kind{KindExercises, KindFlashcards, KindSingleFeedback, KindSessionFeedback, KindStudyPlan}

// Source records whether a payload came from the model or the fallback
// library.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Question is one multiple-choice item. Options maps a choice key ("A".."F")
// to its text; CorrectAnswers is a non-empty subset of the option keys.
type Question struct {
	Question            string            `json:"question" validate:"required"`
	Options             map[string]string `json:"options" validate:"min=4,max=6,dive,keys,oneof=A B C D E F,endkeys,required"`
	CorrectAnswers      []string          `json:"correct_answers" validate:"min=1,dive,required"`
	Explanation         string            `json:"explanation"`
	Difficulty          string            `json:"difficulty"`
	PersonalizationNote string            `json:"personalization_note,omitempty"`
	MultipleCorrect     bool              `json:"multiple_correct"`
}

// ExerciseSet is the payload of KindExercises.
type ExerciseSet struct {
	Exercises    []Question `json:"exercises" validate:"min=1,dive"`
	AdaptiveTips []string   `json:"adaptive_tips,omitempty"`
}

// Flashcard is a front/back study card.
type Flashcard struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back" validate:"required"`
}

// FlashcardSet is the payload of KindFlashcards.
type FlashcardSet struct {
	Flashcards []Flashcard `json:"flashcards" validate:"min=1,dive"`
}

// Recommendation is one prioritized coaching action.
type Recommendation struct {
	Priority string `json:"priority"`
	Area     string `json:"area"`
	Action   string `json:"action" validate:"required"`
	Reason   string `json:"reason"`
}

// SessionFeedback is the coaching report for a finished test, the payload
// of KindSessionFeedback.
type SessionFeedback struct {
	OverallAssessment       string           `json:"overall_assessment" validate:"required"`
	KeyStrengths            []string         `json:"key_strengths"`
	MainWeaknesses          []string         `json:"main_weaknesses"`
	LearningRecommendations []Recommendation `json:"learning_recommendations" validate:"dive"`
	ConceptualUnderstanding string           `json:"conceptual_understanding"`
	NextSteps               []string         `json:"next_steps"`
	Encouragement           string           `json:"encouragement"`
}

// AnswerFeedback is the immediate feedback on one answer, the payload of
// KindSingleFeedback.
type AnswerFeedback struct {
	Strengths          string `json:"strengths"`
	Improvements       string `json:"improvements"`
	Hint               string `json:"hint"`
	ConceptExplanation string `json:"concept_explanation" validate:"required"`
}

// PlanDay is one day of a study plan. Days are numbered from 1.
type PlanDay struct {
	Day      int    `json:"day" validate:"min=1"`
	Topic    string `json:"topic" validate:"required"`
	Activity string `json:"activity" validate:"required"`
}

// StudyPlan is the payload of KindStudyPlan.
type StudyPlan struct {
	Plan []PlanDay `json:"plan" validate:"min=1,dive"`
}

// Generated wraps a payload with where it came from.
type Generated[T any] struct {
	Content     T         `json:"content"`
	Source      Source    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}
