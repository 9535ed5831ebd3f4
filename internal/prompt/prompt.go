// Package prompt builds the German generation prompts for each task kind.
// Builders are pure: the same input always yields the same text.
package prompt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/lernbuddy/internal/content"
	"github.com/abhisek/lernbuddy/internal/profile"
)

// Prompt is a system/user message pair for one generation call.
type Prompt struct {
	Kind   content.Kind
	System string
	User   string
}

// Input carries everything a builder may need. Each kind reads only its
// own fields.
type Input struct {
	Profile profile.Profile
	Subject string
	Topic   string
	Count   int

	// Answer is read by single-answer feedback.
	Answer Answer
	// Result is read by session feedback.
	Result Result
	// DaysLeft is read by study plans.
	DaysLeft int
}

// Answer describes one submitted answer.
type Answer struct {
	Question  string
	Options   map[string]string
	Correct   []string
	Selected  []string
	IsCorrect bool
}

// Result summarizes a finished test.
type Result struct {
	Score   float64
	Correct int
	Total   int
}

// Build dispatches to the builder for kind.
func Build(kind content.Kind, in Input) (Prompt, error) {
	switch kind {
	case content.KindExercises:
		return Exercises(in), nil
	case content.KindFlashcards:
		return Flashcards(in), nil
	case content.KindSingleFeedback:
		return SingleFeedback(in), nil
	case content.KindSessionFeedback:
		return SessionFeedback(in), nil
	case content.KindStudyPlan:
		return StudyPlan(in), nil
	}
	return Prompt{}, fmt.Errorf("unknown task kind %q", kind)
}

const tutorSystemPrompt = `Du bist ein erfahrener Tutor, der Übungsaufgaben für Schülerinnen und Schüler erstellt.

Regeln:
- Schreibe alle Inhalte auf Deutsch.
- Die Aufgaben müssen fachlich korrekt und eindeutig lösbar sein.
- Jede Frage hat 4 bis 6 Antwortoptionen mit den Schlüsseln A bis F.
- Es können mehrere Antworten richtig sein. Führe alle richtigen Schlüssel in "correct_answers" auf.
- Die Erklärung begründet die richtige Lösung Schritt für Schritt.`

const coachSystemPrompt = `Du bist ein energetischer, cooler Lern-Coach für Schüler. Sprich den Schüler direkt mit "Du" an. Sei motivierend, konkret und ehrlich.`

const plannerSystemPrompt = `Du bist ein Lerncoach, der realistische Lernpläne für Klausuren erstellt.`

// Exercises asks for Count multiple-choice questions adapted to the
// learner's profile.
func Exercises(in Input) Prompt {
	var b strings.Builder

	b.WriteString("ADAPTIVE LERNUNTERSTÜTZUNG:\n")
	b.WriteString(AdaptiveContext(in.Profile, in.Subject))

	fmt.Fprintf(&b, "\nGeneriere %d Multiple-Choice-Fragen für %s zum Thema %s.\n", max(in.Count, 1), in.Subject, in.Topic)
	b.WriteString("Passe Schwierigkeit und Erklärungstiefe an die Lernpräferenzen oben an.\n")

	b.WriteString(jsonInstruction(content.KindExercises, `{
  "exercises": [
    {
      "question": "...",
      "options": {"A": "...", "B": "...", "C": "...", "D": "..."},
      "correct_answers": ["A", "C"],
      "explanation": "...",
      "difficulty": "mittel"
    }
  ],
  "adaptive_tips": ["Tipp 1", "Tipp 2"]
}`))

	return Prompt{Kind: content.KindExercises, System: tutorSystemPrompt, User: b.String()}
}

// Flashcards asks for Count front/back study cards.
func Flashcards(in Input) Prompt {
	var b strings.Builder

	b.WriteString("LERN-KARTEIKARTEN:\n")
	fmt.Fprintf(&b, "Fach: %s\n", in.Subject)
	fmt.Fprintf(&b, "Thema: %s\n", in.Topic)
	fmt.Fprintf(&b, "Anzahl: %d\n", max(in.Count, 1))

	b.WriteString(`
Erstelle Karteikarten zum effektiven Lernen.
- Vorderseite: ein wichtiger Begriff, eine kurze Frage oder eine Formel.
- Rückseite: die prägnante Definition, Antwort oder Lösung (höchstens 2-3 Sätze).
`)

	b.WriteString(jsonInstruction(content.KindFlashcards, `{
  "flashcards": [
    {"front": "Begriff/Frage", "back": "Erklärung/Antwort"}
  ]
}`))

	return Prompt{Kind: content.KindFlashcards, System: tutorSystemPrompt, User: b.String()}
}

// SingleFeedback asks for immediate feedback on one answer.
func SingleFeedback(in Input) Prompt {
	a := in.Answer
	var b strings.Builder

	b.WriteString("SITUATION:\n")
	fmt.Fprintf(&b, "Frage: %s\n", a.Question)
	if len(a.Options) > 0 {
		b.WriteString("Optionen:\n")
		for _, key := range sortedKeys(a.Options) {
			fmt.Fprintf(&b, "  %s) %s\n", key, a.Options[key])
		}
	}
	fmt.Fprintf(&b, "Richtige Lösung: %s\n", joinKeys(a.Correct))
	fmt.Fprintf(&b, "Antwort des Schülers: %s\n", joinKeys(a.Selected))
	if a.IsCorrect {
		b.WriteString("Ergebnis: Richtig!\n")
	} else {
		b.WriteString("Ergebnis: Leider falsch.\n")
	}

	b.WriteString("\nErkläre das Konzept in einfacher Sprache und gib einen Merksatz oder Tipp.\n")

	b.WriteString(jsonInstruction(content.KindSingleFeedback, `{
  "strengths": "Was war gut? (oder motivierender Zuspruch)",
  "improvements": "Wo lag der Fehler? (nett formuliert)",
  "hint": "Ein Merksatz oder Tipp",
  "concept_explanation": "Die Erklärung in einfacher Sprache"
}`))

	return Prompt{Kind: content.KindSingleFeedback, System: coachSystemPrompt, User: b.String()}
}

// SessionFeedback asks for the coaching report on a finished test.
func SessionFeedback(in Input) Prompt {
	r := in.Result
	var b strings.Builder

	b.WriteString("DATEN:\n")
	fmt.Fprintf(&b, "Fach: %s\n", in.Subject)
	fmt.Fprintf(&b, "Thema: %s\n", in.Topic)
	fmt.Fprintf(&b, "Ergebnis: %.1f%% (%d von %d richtig)\n", r.Score, r.Correct, r.Total)

	if !in.Profile.Default && in.Profile.Style != "" {
		fmt.Fprintf(&b, "Lernstil: %s\n", StyleKey(in.Profile.Style))
	}

	b.WriteString("\nAnalysiere dieses Testergebnis. Nenne Stärken, Schwächen und priorisierte Empfehlungen (hoch/mittel/niedrig).\n")

	b.WriteString(jsonInstruction(content.KindSessionFeedback, `{
  "overall_assessment": "Dein motivierendes Fazit",
  "key_strengths": ["Stärke 1", "Stärke 2"],
  "main_weaknesses": ["Schwäche 1"],
  "learning_recommendations": [
    {"priority": "hoch", "area": "Was genau?", "action": "Konkreter Tipp", "reason": "Warum hilft das?"}
  ],
  "conceptual_understanding": "Einschätzung",
  "next_steps": ["Schritt 1", "Schritt 2"],
  "encouragement": "Dein finaler Motivations-Spruch"
}`))

	return Prompt{Kind: content.KindSessionFeedback, System: coachSystemPrompt, User: b.String()}
}

// StudyPlan asks for one entry per day until the exam.
func StudyPlan(in Input) Prompt {
	days := max(in.DaysLeft, 1)
	var b strings.Builder

	fmt.Fprintf(&b, "Erstelle einen Lernplan für das Fach '%s'.\n", in.Subject)
	fmt.Fprintf(&b, "Zeit bis zur Klausur: %d Tage.\n\n", days)
	fmt.Fprintf(&b, "Erstelle für JEDEN Tag (Tag 1 bis Tag %d) einen Eintrag.\n", days)
	b.WriteString("Baue aufeinander auf: erst Grundlagen, dann Vertiefung, am Ende Wiederholung.\n")
	if len(in.Profile.StruggleAreas) > 0 {
		fmt.Fprintf(&b, "Plane zusätzliche Zeit für diese Bereiche ein: %s\n", strings.Join(in.Profile.StruggleAreas, ", "))
	}
	if !in.Profile.Default && in.Profile.OptimalSessionLength > 0 {
		fmt.Fprintf(&b, "Eine Lerneinheit sollte etwa %d Minuten dauern.\n", in.Profile.OptimalSessionLength)
	}

	b.WriteString(jsonInstruction(content.KindStudyPlan, `{
  "plan": [
    {"day": 1, "topic": "...", "activity": "..."},
    {"day": 2, "topic": "...", "activity": "..."}
  ]
}`))

	return Prompt{Kind: content.KindStudyPlan, System: plannerSystemPrompt, User: b.String()}
}

// jsonInstruction closes every prompt: answer with nothing but one JSON
// object carrying the kind's required key.
func jsonInstruction(kind content.Kind, example string) string {
	key := string(kind)
	if s, ok := content.SchemaFor(kind); ok {
		key = s.Key
	}
	return fmt.Sprintf(`
Antworte AUSSCHLIESSLICH mit einem einzigen JSON-Objekt, ohne Text davor oder danach und ohne Markdown.
Das Objekt muss den Schlüssel "%s" enthalten und diesem Format folgen:
%s
`, key, example)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func joinKeys(keys []string) string {
	if len(keys) == 0 {
		return "keine Auswahl"
	}
	return strings.Join(keys, ", ")
}
