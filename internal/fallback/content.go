package fallback

import (
	"fmt"
	"strings"

	"github.com/abhisek/lernbuddy/internal/content"
)

// Flashcards returns count generic cards (at least one) for the topic.
func Flashcards(subject, topic string, count int) content.FlashcardSet {
	if count < 1 {
		count = 1
	}
	templates := []content.Flashcard{
		{
			Front: fmt.Sprintf("Was ist %s?", topic),
			Back:  fmt.Sprintf("Fasse die Kernidee von %s in %s in zwei Sätzen zusammen.", topic, subject),
		},
		{
			Front: fmt.Sprintf("Wichtige Begriffe zu %s", topic),
			Back:  "Schreibe die drei wichtigsten Begriffe mit je einer kurzen Definition auf.",
		},
		{
			Front: fmt.Sprintf("Ein Beispiel für %s", topic),
			Back:  "Finde ein eigenes Beispiel und erkläre, warum es passt.",
		},
		{
			Front: fmt.Sprintf("Typische Fehler bei %s", topic),
			Back:  "Notiere, wo du schon einmal falsch lagst, und wie du es jetzt lösen würdest.",
		},
	}

	cards := make([]content.Flashcard, 0, count)
	for i := range count {
		c := templates[i%len(templates)]
		if round := i / len(templates); round > 0 {
			c.Front = fmt.Sprintf("%s (%d)", c.Front, round+1)
		}
		cards = append(cards, c)
	}
	return content.FlashcardSet{Flashcards: cards}
}

// SessionFeedback returns the coaching report used when no generated
// feedback is available. score is in percent.
func SessionFeedback(score float64, correct, total int) content.SessionFeedback {
	strengths := []string{"Test erfolgreich absolviert"}
	weaknesses := []string{}
	if total > 0 {
		strengths = append(strengths, fmt.Sprintf("%d von %d Fragen richtig", correct, total))
		weaknesses = append(weaknesses, fmt.Sprintf("%d Fragen benötigen Verbesserung", total-correct))
	} else {
		strengths = append(strengths, "Test beendet")
		weaknesses = append(weaknesses, "Detaillierte Analyse benötigt mehr Daten")
	}

	recs := []content.Recommendation{{
		Priority: "hoch",
		Area:     "Testanalyse",
		Action:   "Weitere Tests durchführen für bessere Analyse",
		Reason:   fmt.Sprintf("Erreichte %s%% bei %d/%d richtigen Antworten", formatScore(score), correct, total),
	}}

	switch {
	case score >= 80:
		strengths = append(strengths, "Ausgezeichnete Leistung!")
		recs = append(recs, content.Recommendation{
			Priority: "niedrig",
			Area:     "Weiterentwicklung",
			Action:   "Anspruchsvollere Themen angehen",
			Reason:   fmt.Sprintf("Exzellente Leistung mit %s%%", formatScore(score)),
		})
	case score >= 60:
		strengths = append(strengths, "Gute Grundkenntnisse")
		recs = append(recs, content.Recommendation{
			Priority: "mittel",
			Area:     "Vertiefung",
			Action:   "Falsch beantwortete Fragen wiederholen",
			Reason:   fmt.Sprintf("Gute Leistung mit %s%% - noch Luft nach oben", formatScore(score)),
		})
	default:
		weaknesses = append(weaknesses, "Grundlagen benötigen Wiederholung")
		recs = append(recs, content.Recommendation{
			Priority: "hoch",
			Area:     "Grundlagen",
			Action:   "Thematische Grundlagen systematisch wiederholen",
			Reason:   fmt.Sprintf("Basiswissen mit %s%% ausbauen", formatScore(score)),
		})
	}

	return content.SessionFeedback{
		OverallAssessment:       "Automatische Analyse durchgeführt",
		KeyStrengths:            strengths,
		MainWeaknesses:          weaknesses,
		LearningRecommendations: recs,
		ConceptualUnderstanding: "Wird basierend auf weiteren Tests besser bewertbar",
		NextSteps: []string{
			"Regelmäßig üben",
			"Schwierige Themen wiederholen",
			"Nächsten Test absolvieren",
		},
		Encouragement: "Jeder Test ist ein Schritt zum Erfolg! Weiter so! 💪",
	}
}

// AnswerFeedback returns immediate feedback on one answer built from the
// question's own explanation.
func AnswerFeedback(answered, isCorrect bool, explanation string) content.AnswerFeedback {
	f := content.AnswerFeedback{
		Strengths:          "Versuche eine Antwort zu geben",
		Improvements:       "Überprüfe deine Lösung noch einmal",
		Hint:               explanation,
		ConceptExplanation: explanation,
	}
	if answered {
		f.Strengths = "Du hast die Aufgabe bearbeitet"
	}
	if isCorrect {
		f.Improvements = "Weiter so!"
	}
	if strings.TrimSpace(f.ConceptExplanation) == "" {
		f.ConceptExplanation = "Konzept verstehen"
	}
	return f
}

// StudyPlan returns one entry per day (at least one): basics first, then
// deepening, and review at the end.
func StudyPlan(subject string, days int) content.StudyPlan {
	if days < 1 {
		days = 1
	}
	plan := make([]content.PlanDay, 0, days)
	for d := 1; d <= days; d++ {
		plan = append(plan, planDay(subject, d, days))
	}
	return content.StudyPlan{Plan: plan}
}

func planDay(subject string, day, days int) content.PlanDay {
	switch {
	case days == 1 || day == days:
		return content.PlanDay{
			Day:      day,
			Topic:    fmt.Sprintf("Wiederholung %s", subject),
			Activity: "Alle Themen kurz wiederholen und eine Probeaufgabe lösen",
		}
	case day <= (days+2)/3:
		return content.PlanDay{
			Day:      day,
			Topic:    fmt.Sprintf("Grundlagen %s", subject),
			Activity: "Zentrale Begriffe lesen und Karteikarten erstellen",
		}
	default:
		return content.PlanDay{
			Day:      day,
			Topic:    fmt.Sprintf("Vertiefung %s", subject),
			Activity: "Übungsaufgaben lösen und Fehler analysieren",
		}
	}
}

// formatScore prints whole scores without decimals.
func formatScore(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%.1f", score)
}
