package content

// Schema describes the JSON object a model must return for a kind.
type Schema struct {
	// Name identifies the schema; compiled schemas are cached by it.
	Name string

	// Key is the top-level property every accepted reply carries.
	Key string

	// Definition is a JSON Schema document.
	Definition map[string]any
}

func str() map[string]any { return map[string]any{"type": "string"} }

func strList() map[string]any {
	return map[string]any{"type": "array", "items": str()}
}

var exercisesSchema = Schema{
	Name: "exercise-set",
	Key:  "exercises",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"exercises": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string", "minLength": 1},
						"options": map[string]any{
							"type":                 "object",
							"minProperties":        4,
							"maxProperties":        6,
							"additionalProperties": str(),
						},
						"correct_answers": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items":    str(),
						},
						"explanation":          str(),
						"difficulty":           str(),
						"personalization_note": str(),
						"multiple_correct":     map[string]any{"type": "boolean"},
					},
					"required": []any{"question", "options", "correct_answers"},
				},
			},
			"adaptive_tips": strList(),
		},
		"required": []any{"exercises"},
	},
}

var flashcardsSchema = Schema{
	Name: "flashcard-set",
	Key:  "flashcards",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"flashcards": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"front": map[string]any{"type": "string", "minLength": 1},
						"back":  map[string]any{"type": "string", "minLength": 1},
					},
					"required": []any{"front", "back"},
				},
			},
		},
		"required": []any{"flashcards"},
	},
}

var sessionFeedbackSchema = Schema{
	Name: "session-feedback",
	Key:  "overall_assessment",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall_assessment": map[string]any{"type": "string", "minLength": 1},
			"key_strengths":      strList(),
			"main_weaknesses":    strList(),
			"learning_recommendations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"priority": str(),
						"area":     str(),
						"action":   str(),
						"reason":   str(),
					},
					"required": []any{"action"},
				},
			},
			"conceptual_understanding": str(),
			"next_steps":               strList(),
			"encouragement":            str(),
		},
		"required": []any{"overall_assessment"},
	},
}

var answerFeedbackSchema = Schema{
	Name: "answer-feedback",
	Key:  "concept_explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"strengths":           str(),
			"improvements":        str(),
			"hint":                str(),
			"concept_explanation": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []any{"concept_explanation"},
	},
}

var studyPlanSchema = Schema{
	Name: "study-plan",
	Key:  "plan",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"plan": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"day":      map[string]any{"type": "integer", "minimum": 1},
						"topic":    map[string]any{"type": "string", "minLength": 1},
						"activity": map[string]any{"type": "string", "minLength": 1},
					},
					"required": []any{"day", "topic", "activity"},
				},
			},
		},
		"required": []any{"plan"},
	},
}

// SchemaFor returns the response schema of kind. The second result is
// false for unknown kinds.
func SchemaFor(kind Kind) (Schema, bool) {
	switch kind {
	case KindExercises:
		return exercisesSchema, true
	case KindFlashcards:
		return flashcardsSchema, true
	case KindSessionFeedback:
		return sessionFeedbackSchema, true
	case KindSingleFeedback:
		return answerFeedbackSchema, true
	case KindStudyPlan:
		return studyPlanSchema, true
	}
	return Schema{}, false
}
