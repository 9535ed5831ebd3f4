package content

import (
	"encoding/json"
	"fmt"
)

// DecodeExercises parses and validates a repaired exercises object.
func DecodeExercises(raw []byte) (*ExerciseSet, error) {
	var s ExerciseSet
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeFlashcards parses and validates a repaired flashcards object.
func DecodeFlashcards(raw []byte) (*FlashcardSet, error) {
	var s FlashcardSet
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode flashcards: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeSessionFeedback parses and validates a repaired feedback object.
func DecodeSessionFeedback(raw []byte) (*SessionFeedback, error) {
	var f SessionFeedback
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode session feedback: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// DecodeAnswerFeedback parses and validates a repaired single-answer
// feedback object.
func DecodeAnswerFeedback(raw []byte) (*AnswerFeedback, error) {
	var f AnswerFeedback
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode answer feedback: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// DecodeStudyPlan parses and validates a repaired plan object.
func DecodeStudyPlan(raw []byte) (*StudyPlan, error) {
	var p StudyPlan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode study plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
