// Package scoring compares selected answer keys with the correct ones.
package scoring

import (
	"math"
	"slices"
	"strings"
)

// Result is the evaluation of one question.
type Result struct {
	IsCorrect bool `json:"is_correct"`

	// PartialCredit is in [0, 1] and equals 1 exactly when IsCorrect.
	PartialCredit float64 `json:"partial_credit"`
}

// Keys normalizes a selection into a set: entries are trimmed and
// upper-cased, empties and duplicates are dropped, and the result is sorted.
func Keys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.ToUpper(strings.TrimSpace(k))
		if k == "" || slices.Contains(out, k) {
			continue
		}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Score evaluates selected against correct with set semantics.
//
// Over-selection costs as much as under-selection:
// partial = max(0, (|selected ∩ correct| - |selected \ correct|) / |correct|).
func Score(selected, correct []string) Result {
	sel := Keys(selected)
	cor := Keys(correct)
	if len(cor) == 0 {
		return Result{}
	}

	var hits, misses int
	for _, k := range sel {
		if slices.Contains(cor, k) {
			hits++
		} else {
			misses++
		}
	}

	exact := slices.Equal(sel, cor)
	partial := math.Max(0, float64(hits-misses)/float64(len(cor)))
	if exact {
		partial = 1
	}
	return Result{IsCorrect: exact, PartialCredit: partial}
}

// SessionScore is the percentage of correct answers, 0 for an empty test.
func SessionScore(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}

// Level names a score band.
type Level string

const (
	LevelExcellent     Level = "Exzellent"
	LevelVeryGood      Level = "Sehr gut"
	LevelGood          Level = "Gut"
	LevelSatisfactory  Level = "Befriedigend"
	LevelNeedsPractice Level = "Braucht Übung"
)

var bands = []struct {
	min   float64
	level Level
}{
	{90, LevelExcellent},
	{75, LevelVeryGood},
	{60, LevelGood},
	{50, LevelSatisfactory},
}

// PerformanceLevel maps a percentage score to its band.
func PerformanceLevel(score float64) Level {
	for _, b := range bands {
		if score >= b.min {
			return b.level
		}
	}
	return LevelNeedsPractice
}
