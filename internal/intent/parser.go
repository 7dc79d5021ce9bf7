// Package intent reads unstructured order notes into a structured OrderIntent:
// urgency level, algo preference, execution style, session target, deadline,
// completion requirement and explicit instruction tags. It handles combined
// phrasings like "urgent - passive - closing auction".
package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ksred/auo-api/internal/types"
)

var urgencyPatterns = map[string][]*regexp.Regexp{
	"CRITICAL": compileAll(
		`\basap\b`, `\bimmediate\b`, `\bcritic`, `\brush\b`,
		`\bextreme\s*urgency\b`, `\bfast\s*as\s*possible\b`,
	),
	"HIGH": compileAll(
		`\burgent\b`, `\beod\s*compliance\b`, `\bmust\s*complete\b`,
		`\bhigh\s*priority\b`, `\btime[\s-]sensitive\b`,
	),
	"LOW": compileAll(
		`\bpassive\b`, `\bpatient\b`, `\bno\s*rush\b`,
		`\bno\s*urgency\b`, `\brelaxed\b`, `\bwork\s*it\b`,
	),
}

var algoPatterns = map[string][]*regexp.Regexp{
	"VWAP":    compileAll(`\bvwap\b`, `\bvolume[\s-]weighted\b`, `\bbenchmark\s*vwap\b`),
	"TWAP":    compileAll(`\btwap\b`, `\btime[\s-]weighted\b`),
	"POV":     compileAll(`\bpov\b`, `\bparticipation\b`, `\bpercentage\s*of\s*volume\b`),
	"ICEBERG": compileAll(`\biceberg\b`, `\bhide\s*size\b`, `\bdark\s*pool\b`),
}

var passiveStylePatterns = compileAll(
	`\bpassive\b`, `\bavoid\s*impact\b`, `\bminimize\s*impact\b`,
	`\bminimize\s*market\s*impact\b`, `\bpatient\b`, `\bwork\b`,
)

var aggressiveStylePatterns = compileAll(
	`\baggressive\b`, `\bcross\s*spread\b`, `\btake\s*liquidity\b`,
	`\bimmediate\s*fill\b`,
)

var sessionPatterns = map[string][]*regexp.Regexp{
	"CAS": compileAll(
		`\bcas\b`, `\bclosing\s*auction\b`, `\bclose\s*auction\b`,
		`\bauction\s*close\b`, `\bat\s*close\b`,
	),
	"OPENING": compileAll(`\bopening\s*auction\b`, `\bopen\s*auction\b`, `\bat\s*open\b`),
	"CLOSING": compileAll(`\bclosing\b`, `\bby\s*close\b`, `\btoward\s*close\b`),
}

// sessionOrder fixes iteration order so parsing is deterministic when a note
// matches more than one session pattern. CAS outranks the generic CLOSING
// match, so "closing auction" reads as CAS rather than CLOSING.
var sessionOrder = []string{"CAS", "OPENING", "CLOSING"}

var algoOrder = []string{"VWAP", "TWAP", "POV", "ICEBERG"}

var completionPatterns = compileAll(
	`\bmust\s*complete\b`, `\bensure\s*complete\b`, `\bguarantee\s*fill\b`,
	`\bget\s*done\b`, `\bcomplete\s*by\b`, `\bfill\s*or\s*kill\b`,
)

var neutralPatterns = compileAll(
	`\bstandard\s*order\b`, `\bexecute\s*normally\b`,
	`\bno\s*special\s*instructions\b`, `\bregular\b`,
)

var impactPattern = regexp.MustCompile(`\b(minimize|avoid)\s*(market\s*)?impact\b`)
var urgentFillPattern = regexp.MustCompile(`\b(urgent|asap|immediate|critical)\b`)

var deadline12h = regexp.MustCompile(`by\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
var deadline24h = regexp.MustCompile(`(?:by|until)\s*(\d{1,2}):(\d{2})`)

var instructionPatterns = []struct {
	tag     string
	pattern *regexp.Regexp
}{
	{"NO_CROSS_SPREAD", regexp.MustCompile(`\bdo\s*not\s*cross\b`)},
	{"LIMIT_ONLY", regexp.MustCompile(`\blimit\s*only\b`)},
	{"NO_MARKET", regexp.MustCompile(`\bno\s*market\s*orders?\b`)},
	{"BENCHMARK", regexp.MustCompile(`\bbenchmark\b`)},
	{"WORK_ORDER", regexp.MustCompile(`\bwork\s*(the\s*)?order\b`)},
	{"PARTICIPATE", regexp.MustCompile(`\bparticipate\b`)},
	{"DISCRETION", regexp.MustCompile(`\buse\s*discretion\b`)},
}

// Parse extracts every intent dimension from a free-text order note. Empty
// notes yield a neutral default intent with low confidence.
func Parse(notes string) types.OrderIntent {
	if strings.TrimSpace(notes) == "" {
		return defaultIntent()
	}

	lower := strings.ToLower(strings.TrimSpace(notes))
	isStandard := matchAny(lower, neutralPatterns)

	return types.OrderIntent{
		UrgencyLevel:         extractUrgency(lower, isStandard),
		AlgoStrategy:         extractAlgo(lower, isStandard),
		ExecutionStyle:       extractStyle(lower, isStandard),
		SessionTarget:        extractSession(lower),
		DeadlineTime:         extractDeadline(lower),
		MustComplete:         matchAny(lower, completionPatterns),
		PriceSensitivity:     extractSensitivity(lower, isStandard),
		ExplicitInstructions: extractInstructions(lower),
		ConfidenceScore:      confidence(lower, isStandard),
	}
}

func extractUrgency(notes string, isStandard bool) string {
	if isStandard {
		return "MEDIUM"
	}
	// Highest priority wins on conflicting signals.
	for _, level := range []string{"CRITICAL", "HIGH", "LOW"} {
		if matchAny(notes, urgencyPatterns[level]) {
			return level
		}
	}
	return "MEDIUM"
}

func extractAlgo(notes string, isStandard bool) string {
	if isStandard {
		return ""
	}
	// Impact-minimization reads as ICEBERG unless VWAP is named explicitly.
	if impactPattern.MatchString(notes) && !matchAny(notes, algoPatterns["VWAP"]) {
		return "ICEBERG"
	}
	for _, algo := range algoOrder {
		if matchAny(notes, algoPatterns[algo]) {
			return algo
		}
	}
	return ""
}

func extractStyle(notes string, isStandard bool) string {
	if isStandard {
		return "NEUTRAL"
	}
	if matchAny(notes, passiveStylePatterns) {
		return "PASSIVE"
	}
	if matchAny(notes, aggressiveStylePatterns) {
		return "AGGRESSIVE"
	}
	return "NEUTRAL"
}

func extractSession(notes string) string {
	for _, session := range sessionOrder {
		if matchAny(notes, sessionPatterns[session]) {
			return session
		}
	}
	return ""
}

// extractDeadline reads "by 2pm", "vwap by 14:00" style deadlines into HH:MM.
func extractDeadline(notes string) string {
	if m := deadline12h.FindStringSubmatch(notes); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := m[2]
		if minute == "" {
			minute = "00"
		}
		if m[3] == "pm" && hour != 12 {
			hour += 12
		} else if m[3] == "am" && hour == 12 {
			hour = 0
		}
		return fmt.Sprintf("%02d:%s", hour, minute)
	}

	if m := deadline24h.FindStringSubmatch(notes); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:%s", hour, m[2])
	}

	return ""
}

func extractSensitivity(notes string, isStandard bool) string {
	if isStandard {
		return "STANDARD"
	}
	if impactPattern.MatchString(notes) {
		return "MINIMIZE_IMPACT"
	}
	if urgentFillPattern.MatchString(notes) {
		return "URGENT_FILL"
	}
	return "STANDARD"
}

func extractInstructions(notes string) []string {
	var instructions []string
	for _, p := range instructionPatterns {
		if p.pattern.MatchString(notes) {
			instructions = append(instructions, p.tag)
		}
	}
	return instructions
}

// confidence grades how clearly the note reads: explicit algos, clear urgency
// and session targets raise it, conflicting urgency signals lower it.
func confidence(notes string, isStandard bool) float64 {
	if len(notes) < 5 {
		return 0.3
	}
	if isStandard {
		return 0.95
	}

	score := 0.5
	if matchAny(notes, algoPatterns["VWAP"]) || matchAny(notes, algoPatterns["TWAP"]) {
		score += 0.2
	}
	if matchAny(notes, urgencyPatterns["CRITICAL"]) || matchAny(notes, urgencyPatterns["HIGH"]) {
		score += 0.15
	}
	if extractSession(notes) != "" {
		score += 0.15
	}
	if matchAny(notes, urgencyPatterns["CRITICAL"]) && matchAny(notes, urgencyPatterns["LOW"]) {
		score -= 0.2
	}

	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

func defaultIntent() types.OrderIntent {
	return types.OrderIntent{
		UrgencyLevel:     "MEDIUM",
		ExecutionStyle:   "NEUTRAL",
		PriceSensitivity: "STANDARD",
		ConfidenceScore:  0.5,
	}
}

func matchAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}
