// Package fallback produces deterministic content for every task kind. It
// is used whenever generation fails and always satisfies the same shape
// checks as generated content.
package fallback

import (
	"fmt"
	"maps"

	"github.com/abhisek/lernbuddy/internal/content"
)

// bank holds curated questions by subject and topic.
var bank = map[string]map[string][]content.Question{
	"Mathe": {
		"Analysis": {
			{
				Question: "Welche der folgenden Funktionen sind Ableitungen von f(x) = x³?",
				Options: map[string]string{
					"A": "3x²",
					"B": "x²",
					"C": "6x",
					"D": "3x",
					"E": "x³",
				},
				CorrectAnswers:      []string{"A"},
				Explanation:         "Nur 3x² ist die korrekte Ableitung von x³.",
				Difficulty:          "mittel",
				PersonalizationNote: "Ableitungen erkennen",
			},
		},
		"Mengenlehre": {
			{
				Question: "Welche der folgenden Zahlen sind gerade?",
				Options: map[string]string{
					"A": "2",
					"B": "3",
					"C": "4",
					"D": "5",
					"E": "6",
				},
				CorrectAnswers:      []string{"A", "C", "E"},
				Explanation:         "Gerade Zahlen sind durch 2 teilbar: 2, 4, 6",
				Difficulty:          "einfach",
				PersonalizationNote: "Gerade Zahlen identifizieren",
				MultipleCorrect:     true,
			},
		},
	},
	"Deutsch": {
		"Grammatik": {
			{
				Question: "Welche der folgenden Wörter sind Nomen?",
				Options: map[string]string{
					"A": "Haus",
					"B": "laufen",
					"C": "schnell",
					"D": "Baum",
					"E": "und",
				},
				CorrectAnswers:      []string{"A", "D"},
				Explanation:         "Haus und Baum sind Nomen (Substantive).",
				Difficulty:          "einfach",
				PersonalizationNote: "Wortarten erkennen",
				MultipleCorrect:     true,
			},
		},
	},
}

var exerciseTips = []string{
	"Multiple-Choice Modus mit mehreren Antwortmöglichkeiten",
	"Achte darauf, dass mehrere Antworten richtig sein können!",
	"Wähle alle zutreffenden Antworten aus",
}

// Exercises returns exactly count questions (at least one). Curated
// questions for the subject and topic come first; the rest are generic
// questions that alternate between several and one correct answer.
func Exercises(subject, topic string, count int) content.ExerciseSet {
	if count < 1 {
		count = 1
	}

	var out []content.Question
	for _, q := range bank[subject][topic] {
		if len(out) == count {
			break
		}
		out = append(out, clone(q))
	}

	for i := len(out); i < count; i++ {
		multi := i%2 == 0
		correct := []string{"B"}
		if multi {
			correct = []string{"A", "C"}
		}
		out = append(out, content.Question{
			Question: fmt.Sprintf("Frage %d zu %s in %s?", i+1, topic, subject),
			Options: map[string]string{
				"A": "Antwort A",
				"B": "Antwort B",
				"C": "Antwort C",
				"D": "Antwort D",
			},
			CorrectAnswers:      correct,
			Explanation:         fmt.Sprintf("Erklärung zu %s", topic),
			Difficulty:          "mittel",
			PersonalizationNote: "Adaptive Lernfrage",
			MultipleCorrect:     multi,
		})
	}

	return content.ExerciseSet{
		Exercises:    out,
		AdaptiveTips: append([]string(nil), exerciseTips...),
	}
}

// clone copies q so callers cannot mutate the bank.
func clone(q content.Question) content.Question {
	q.Options = maps.Clone(q.Options)
	q.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
	return q
}
