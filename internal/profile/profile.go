// Package profile classifies a learner's study pattern from their session
// history.
package profile

import (
	"maps"
	"math"
	"slices"
	"time"
)

// Style is the coarse learning-style classification.
type Style string

const (
	StyleDeepFocused   Style = "deep-focused"
	StyleFrequentShort Style = "frequent-short"
	StyleHighlyEngaged Style = "highly-engaged"
	StyleBalanced      Style = "balanced"
)

const (
	// MinSessions is the history length below which the default profile
	// is used.
	MinSessions = 3

	DefaultSessionLength = 45
	minSessionLength     = 15
	maxSessionLength     = 90

	preferredScore = 75
	struggleScore  = 60
)

// Session is one history sample. Score is in percent, Engagement in [0, 1].
type Session struct {
	Subject         string    `json:"subject"`
	DurationMinutes float64   `json:"duration_minutes"`
	Score           float64   `json:"score"`
	Engagement      float64   `json:"engagement"`
	Timestamp       time.Time `json:"timestamp"`
}

// Patterns are the aggregates the classification is derived from.
type Patterns struct {
	SessionCount     int                  `json:"session_count"`
	MeanDuration     float64              `json:"mean_duration"`
	DurationVariance float64              `json:"duration_variance"`
	DurationStdDev   float64              `json:"duration_std_dev"`
	MedianDuration   float64              `json:"median_duration"`
	TimingSpread     float64              `json:"timing_spread"`
	MaxEngagement    float64              `json:"max_engagement"`
	SubjectScores    map[string][]float64 `json:"subject_scores"`
	SubjectMeans     map[string]float64   `json:"subject_means"`
}

// Profile is the result of an analysis.
type Profile struct {
	Style                Style     `json:"style"`
	Patterns             Patterns  `json:"patterns"`
	OptimalSessionLength int       `json:"optimal_session_length"`
	PreferredSubjects    []string  `json:"preferred_subjects"`
	StruggleAreas        []string  `json:"struggle_areas"`
	SessionCount         int       `json:"session_count"`
	Default              bool      `json:"default"`
	UpdatedAt            time.Time `json:"updated_at,omitempty"`
}

// Default is the profile of a learner with too little history.
func Default() Profile {
	return Profile{
		Style:                StyleBalanced,
		OptimalSessionLength: DefaultSessionLength,
		PreferredSubjects:    []string{},
		StruggleAreas:        []string{},
		Default:              true,
	}
}

// Analyze classifies history. It is pure; the order of history does not
// matter.
func Analyze(history []Session) Profile {
	if len(history) < MinSessions {
		p := Default()
		p.SessionCount = len(history)
		return p
	}

	pat := aggregate(history)
	p := Profile{
		Style:                classify(pat),
		Patterns:             pat,
		OptimalSessionLength: optimalLength(pat.MedianDuration),
		PreferredSubjects:    []string{},
		StruggleAreas:        []string{},
		SessionCount:         len(history),
	}
	for _, subject := range slices.Sorted(maps.Keys(pat.SubjectMeans)) {
		mean := pat.SubjectMeans[subject]
		if mean >= preferredScore {
			p.PreferredSubjects = append(p.PreferredSubjects, subject)
		}
		if mean < struggleScore {
			p.StruggleAreas = append(p.StruggleAreas, subject)
		}
	}
	return p
}

func aggregate(history []Session) Patterns {
	durations := make([]float64, 0, len(history))
	hours := make([]float64, 0, len(history))
	pat := Patterns{
		SessionCount:  len(history),
		SubjectScores: map[string][]float64{},
		SubjectMeans:  map[string]float64{},
	}

	for _, s := range history {
		durations = append(durations, s.DurationMinutes)
		if !s.Timestamp.IsZero() {
			hours = append(hours, float64(s.Timestamp.Hour()))
		}
		pat.MaxEngagement = math.Max(pat.MaxEngagement, s.Engagement)
		pat.SubjectScores[s.Subject] = append(pat.SubjectScores[s.Subject], s.Score)
	}

	pat.MeanDuration = mean(durations)
	pat.DurationVariance = variance(durations)
	pat.DurationStdDev = math.Sqrt(pat.DurationVariance)
	pat.MedianDuration = median(durations)
	pat.TimingSpread = math.Sqrt(variance(hours))
	for subject, scores := range pat.SubjectScores {
		pat.SubjectMeans[subject] = mean(scores)
	}
	return pat
}

// classify applies the rules in fixed precedence order.
func classify(p Patterns) Style {
	switch {
	case p.MeanDuration > 60 && p.TimingSpread < 2:
		return StyleDeepFocused
	case p.MeanDuration < 30 && p.SessionCount >= 5:
		return StyleFrequentShort
	case p.MaxEngagement > 0.8:
		return StyleHighlyEngaged
	default:
		return StyleBalanced
	}
}

func optimalLength(median float64) int {
	n := int(math.Round(median))
	return min(max(n, minSessionLength), maxSessionLength)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// variance is the population variance; 0 for fewer than two samples.
func variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := slices.Clone(xs)
	slices.Sort(s)
	n := len(s)
	if n%2 == 0 {
		return (s[n/2-1] + s[n/2]) / 2
	}
	return s[n/2]
}
