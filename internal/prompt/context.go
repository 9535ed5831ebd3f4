package prompt

import (
	"fmt"
	"strings"

	"github.com/abhisek/lernbuddy/internal/profile"
)

var styleKeys = map[profile.Style]string{
	profile.StyleDeepFocused:   "tiefgehend_konzentriert",
	profile.StyleFrequentShort: "häufig_kurz",
	profile.StyleHighlyEngaged: "hoch_engagiert",
	profile.StyleBalanced:      "adaptiv_ausgeglichen",
}

var styleAdvice = map[profile.Style]string{
	profile.StyleDeepFocused:   "Lange, ununterbrochene Lernsession für komplexe Themen",
	profile.StyleFrequentShort: "Kurze, häufige Lerneinheiten mit klaren Pausen",
	profile.StyleHighlyEngaged: "Herausfordernde Aufgaben mit sofortigem Feedback",
	profile.StyleBalanced:      "Abwechslungsreiche Methoden für nachhaltiges Lernen",
}

var subjectStrategies = map[string]string{
	"Mathe":      "Problemlösungsstrategien und praktische Anwendungen",
	"Deutsch":    "Textanalyse und kreative Schreibübungen",
	"Englisch":   "Kommunikative Übungen und Vokabeltraining",
	"Physik":     "Experimentelle Ansätze und Formelanwendungen",
	"Chemie":     "Praktische Versuche und chemische Prozesse",
	"Biologie":   "Visualisierungen und Systemverständnis",
	"Geschichte": "Zeitstrahl-Methoden und Quellenanalyse",
	"Geografie":  "Kartenarbeit und Fallstudien",
}

// StyleKey is the German label of a learning style used in prompts.
func StyleKey(s profile.Style) string {
	if k, ok := styleKeys[s]; ok {
		return k
	}
	return styleKeys[profile.StyleBalanced]
}

// StyleAdvice returns the study advice for a learning style.
func StyleAdvice(s profile.Style) string {
	if a, ok := styleAdvice[s]; ok {
		return a
	}
	return "Individuell angepasste Lernstrategien"
}

// SubjectStrategy returns the study strategy for a subject.
func SubjectStrategy(subject string) string {
	if s, ok := subjectStrategies[subject]; ok {
		return s
	}
	return "Fachspezifische Lernmethoden anwenden"
}

// AdaptiveContext renders the learner's profile as a prompt block.
func AdaptiveContext(p profile.Profile, subject string) string {
	length := p.OptimalSessionLength
	if length <= 0 {
		length = profile.DefaultSessionLength
	}

	var b strings.Builder
	b.WriteString("AUTOMATISCH ERKANNTE LERNPRÄFERENZEN:\n")
	fmt.Fprintf(&b, "Lernstil: %s\n", StyleKey(p.Style))
	fmt.Fprintf(&b, "Optimale Session-Länge: %d Minuten\n", length)
	fmt.Fprintf(&b, "Starke Fächer: %s\n", listOr(p.PreferredSubjects, "Noch nicht erkannt"))
	fmt.Fprintf(&b, "Schwierigkeits-Bereiche: %s\n", listOr(p.StruggleAreas, "Wird noch analysiert"))
	b.WriteString("\nLernempfehlungen:\n")
	fmt.Fprintf(&b, "- %s\n", StyleAdvice(p.Style))
	fmt.Fprintf(&b, "- Session-Länge: %d Minuten\n", length)
	fmt.Fprintf(&b, "- %s\n", SubjectStrategy(subject))
	return b.String()
}

func listOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
