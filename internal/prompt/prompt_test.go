package prompt

import (
	"strings"
	"testing"

	"github.com/abhisek/lernbuddy/internal/content"
	"github.com/abhisek/lernbuddy/internal/profile"
)

func deepFocused() profile.Profile {
	return profile.Profile{
		Style:                profile.StyleDeepFocused,
		OptimalSessionLength: 65,
		PreferredSubjects:    []string{"Biologie", "Mathe"},
		StruggleAreas:        []string{"Physik"},
		SessionCount:         5,
	}
}

func TestExercises_AdaptiveContext(t *testing.T) {
	p := Exercises(Input{Profile: deepFocused(), Subject: "Mathe", Topic: "Analysis", Count: 3})

	for _, want := range []string{
		"Lernstil: tiefgehend_konzentriert",
		"Optimale Session-Länge: 65 Minuten",
		"Starke Fächer: Biologie, Mathe",
		"Schwierigkeits-Bereiche: Physik",
		"- Lange, ununterbrochene Lernsession für komplexe Themen",
		"- Problemlösungsstrategien und praktische Anwendungen",
		"Generiere 3 Multiple-Choice-Fragen für Mathe zum Thema Analysis.",
		`"correct_answers"`,
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("exercise prompt missing %q", want)
		}
	}
	if p.Kind != content.KindExercises || p.System == "" {
		t.Errorf("unexpected prompt metadata: kind=%s system=%q", p.Kind, p.System)
	}
}

func TestExercises_DefaultProfile(t *testing.T) {
	p := Exercises(Input{Profile: profile.Default(), Subject: "Kunst", Topic: "Farben", Count: 0})

	for _, want := range []string{
		"Lernstil: adaptiv_ausgeglichen",
		"Optimale Session-Länge: 45 Minuten",
		"Starke Fächer: Noch nicht erkannt",
		"Schwierigkeits-Bereiche: Wird noch analysiert",
		"- Fachspezifische Lernmethoden anwenden",
		"Generiere 1 Multiple-Choice-Fragen",
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("exercise prompt missing %q", want)
		}
	}
}

func TestEveryKindDemandsJSONWithRequiredKey(t *testing.T) {
	in := Input{
		Profile:  deepFocused(),
		Subject:  "Mathe",
		Topic:    "Analysis",
		Count:    5,
		DaysLeft: 4,
		Answer:   Answer{Question: "Was ist 2+2?", Correct: []string{"A"}, Selected: []string{"B"}},
		Result:   Result{Score: 50, Correct: 1, Total: 2},
	}
	for _, kind := range content.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			p, err := Build(kind, in)
			if err != nil {
				t.Fatal(err)
			}
			schema, ok := content.SchemaFor(kind)
			if !ok {
				t.Fatalf("no schema for %s", kind)
			}
			if !strings.Contains(p.User, "AUSSCHLIESSLICH mit einem einzigen JSON-Objekt") {
				t.Error("missing JSON-only instruction")
			}
			if !strings.Contains(p.User, `den Schlüssel "`+schema.Key+`"`) {
				t.Errorf("missing required key %q", schema.Key)
			}
			if p.Kind != kind {
				t.Errorf("kind = %s", p.Kind)
			}
		})
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	if _, err := Build("quiz", Input{}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestDeterministic(t *testing.T) {
	in := Input{
		Profile: deepFocused(),
		Subject: "Mathe",
		Topic:   "Mengenlehre",
		Answer: Answer{
			Question: "Welche Zahlen sind gerade?",
			Options:  map[string]string{"D": "3", "A": "2", "C": "4", "B": "5", "E": "6"},
			Correct:  []string{"A", "C", "E"},
		},
	}
	first := SingleFeedback(in)
	for range 20 {
		if got := SingleFeedback(in); got != first {
			t.Fatal("identical input produced different prompts")
		}
	}
	if !strings.Contains(first.User, "  A) 2\n  B) 5\n  C) 4\n  D) 3\n  E) 6\n") {
		t.Errorf("options not listed in key order:\n%s", first.User)
	}
	if !strings.Contains(first.User, "Antwort des Schülers: keine Auswahl") {
		t.Error("empty selection not rendered")
	}
}

func TestSessionFeedback(t *testing.T) {
	p := SessionFeedback(Input{Subject: "Mathe", Topic: "Analysis", Profile: profile.Default(), Result: Result{Score: 50, Correct: 1, Total: 2}})
	if !strings.Contains(p.User, "Ergebnis: 50.0% (1 von 2 richtig)") {
		t.Errorf("missing result line:\n%s", p.User)
	}
	if strings.Contains(p.User, "Lernstil:") {
		t.Error("default profile should not be described")
	}
}

func TestStudyPlan(t *testing.T) {
	p := StudyPlan(Input{Subject: "Chemie", DaysLeft: 7, Profile: deepFocused()})
	for _, want := range []string{
		"Lernplan für das Fach 'Chemie'",
		"Tag 1 bis Tag 7",
		"zusätzliche Zeit für diese Bereiche ein: Physik",
		"etwa 65 Minuten",
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("study plan prompt missing %q", want)
		}
	}
}

func TestStyleLookups(t *testing.T) {
	tests := []struct {
		style profile.Style
		key   string
	}{
		{profile.StyleDeepFocused, "tiefgehend_konzentriert"},
		{profile.StyleFrequentShort, "häufig_kurz"},
		{profile.StyleHighlyEngaged, "hoch_engagiert"},
		{profile.StyleBalanced, "adaptiv_ausgeglichen"},
		{"", "adaptiv_ausgeglichen"},
	}
	for _, tt := range tests {
		if got := StyleKey(tt.style); got != tt.key {
			t.Errorf("StyleKey(%q) = %q, want %q", tt.style, got, tt.key)
		}
	}
	if StyleAdvice("unknown") != "Individuell angepasste Lernstrategien" {
		t.Error("unexpected advice fallback")
	}
	if SubjectStrategy("Geografie") != "Kartenarbeit und Fallstudien" {
		t.Error("unexpected strategy for Geografie")
	}
}
