package pipeline

import (
	"strings"

	"github.com/sells-group/leadscout/internal/model"
)

// seniorityKeywords let a senior title override a non-buyer inferred persona.
var seniorityKeywords = []string{
	"vp",
	"vice president",
	"cto",
	"chief",
	"head of",
	"director",
	"lead",
	"manager",
}

// PersonaMatch reports whether a contact is worth pursuing: its title must
// match one of the target titles, and either the inferred persona is a buyer
// or the title itself is senior.
func PersonaMatch(persona model.Persona, title string, targets []string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" || len(targets) == 0 {
		return false
	}
	if !matchesAnyTitle(t, targets) {
		return false
	}
	if persona.IsBuyer() {
		return true
	}
	for _, kw := range seniorityKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

func matchesAnyTitle(title string, targets []string) bool {
	for _, target := range targets {
		tg := strings.ToLower(strings.TrimSpace(target))
		if tg == "" {
			continue
		}
		if strings.Contains(title, tg) {
			return true
		}
		a, b := dropOf(title), dropOf(tg)
		if strings.Contains(a, b) || strings.Contains(b, a) {
			return true
		}
	}
	return false
}

func dropOf(s string) string {
	return strings.ReplaceAll(s, " of ", " ")
}

// IntentScore is the deterministic 1-3 intent signal from visited paths.
func IntentScore(paths []string) int {
	score := 1
	var pricing, sales bool
	for _, p := range paths {
		lp := strings.ToLower(p)
		if strings.Contains(lp, "pricing") || strings.Contains(lp, "cost") {
			pricing = true
		}
		if strings.Contains(lp, "demo") || strings.Contains(lp, "contact") || strings.Contains(lp, "sales") {
			sales = true
		}
	}
	if pricing {
		score++
	}
	if sales {
		score++
	}
	if len(paths) > 3 {
		score++
	}
	return min(score, 3)
}

// Confidence blends ICP fit and intent into a 0-1 figure.
func Confidence(icpScore, intent int) float64 {
	return (float64(icpScore) + float64(intent)*33) / 2 / 100
}
