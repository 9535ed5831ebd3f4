package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/lernbuddy/internal/scoring"
)

// ValidationError describes why a payload does not have the required shape.
type ValidationError struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s: %s", e.Kind, e.Field, e.Message)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// check runs the struct tags on v and converts the first failure.
func check(kind Kind, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Kind:    kind,
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed %q (%s)", fe.Tag(), fe.Param()),
		}
	}
	return &ValidationError{Kind: kind, Message: err.Error()}
}

// Normalize cleans up a question in place: keys are trimmed and upper-cased,
// correct answers are deduplicated and sorted, and MultipleCorrect is
// derived from the answer count.
func (q *Question) Normalize() {
	q.Question = strings.TrimSpace(q.Question)
	if len(q.Options) > 0 {
		opts := make(map[string]string, len(q.Options))
		for k, v := range q.Options {
			opts[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
		q.Options = opts
	}
	q.CorrectAnswers = scoring.Keys(q.CorrectAnswers)
	q.MultipleCorrect = len(q.CorrectAnswers) > 1
}

// Validate checks the option count, the option keys and that the correct
// answers are a non-empty subset of the options.
func (q *Question) Validate() error {
	if err := check(KindExercises, q); err != nil {
		return err
	}
	for _, k := range q.CorrectAnswers {
		if _, ok := q.Options[k]; !ok {
			return &ValidationError{
				Kind:    KindExercises,
				Field:   "correct_answers",
				Message: fmt.Sprintf("answer %q is not an option", k),
			}
		}
	}
	return nil
}

// Validate checks every question. Call Normalize first.
func (s *ExerciseSet) Validate() error {
	if len(s.Exercises) == 0 {
		return &ValidationError{Kind: KindExercises, Field: "exercises", Message: "empty"}
	}
	for i := range s.Exercises {
		if err := s.Exercises[i].Validate(); err != nil {
			return fmt.Errorf("exercise %d: %w", i, err)
		}
	}
	return nil
}

// Normalize normalizes every question and drops repeated question texts.
func (s *ExerciseSet) Normalize() {
	seen := make(map[string]bool, len(s.Exercises))
	out := s.Exercises[:0]
	for _, q := range s.Exercises {
		q.Normalize()
		key := strings.ToLower(q.Question)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	s.Exercises = out
}

// Limit keeps at most n questions.
func (s *ExerciseSet) Limit(n int) {
	if n > 0 && len(s.Exercises) > n {
		s.Exercises = s.Exercises[:n]
	}
}

func (s *FlashcardSet) Validate() error { return check(KindFlashcards, s) }

func (f *SessionFeedback) Validate() error { return check(KindSessionFeedback, f) }

func (f *AnswerFeedback) Validate() error { return check(KindSingleFeedback, f) }

func (p *StudyPlan) Validate() error { return check(KindStudyPlan, p) }
