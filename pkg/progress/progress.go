// Package progress infers a completion percentage from the free-form text that
// minipro prints on its error stream.
package progress

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Rule identifies which classification rule produced an Event.
type Rule int

const (
	RulePhase Rule = iota
	RulePercent
	RuleBytes
	RuleTimed
	RuleDone
	RuleVerified
)

// String returns a short name for the rule.
func (r Rule) String() string {
	switch r {
	case RulePhase:
		return "phase"
	case RulePercent:
		return "percent"
	case RuleBytes:
		return "bytes"
	case RuleTimed:
		return "timed"
	case RuleDone:
		return "done"
	case RuleVerified:
		return "verified"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// Event is a best-effort progress reading derived from a single line.
type Event struct {
	Percent int
	Label   string
	Rule    Rule

	// Detail is a human readable trace of why the rule fired.
	Detail string
}

var (
	ansiPattern    = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	slashPattern   = regexp.MustCompile(`(?i)(\d+)\s*/\s*(\d+)(?:\s*(?:bytes|b)\b)?`)
	spacedPattern  = regexp.MustCompile(`(?i)(\d+)\s+(\d+)\s*(?:bytes|b)\b`)
	timedPattern   = regexp.MustCompile(`(?i)([\d.]+)\s*(ms|sec|s)\s+ok`)
)

type phase struct {
	name     string
	keywords []string
	suppress []string
	label    string
}

// Phases are checked in order; the first phase whose keyword matches decides
// the outcome even if it is suppressed.
var phases = []phase{
	{
		name:     "Reading",
		keywords: []string{"reading device", "reading code", "reading"},
		suppress: []string{"chip id", "id:"},
		label:    "Reading device...",
	},
	{
		name:     "Writing",
		keywords: []string{"writing jedec", "writing code", "writing"},
		suppress: []string{"protection"},
		label:    "Writing to device...",
	},
	{
		name:     "Verifying",
		keywords: []string{"verifying", "verify"},
		label:    "Verifying...",
	},
	{
		name:     "Erasing",
		keywords: []string{"erasing"},
		label:    "Erasing device...",
	},
}

var completionWords = map[string]struct{}{
	"ok":              {},
	"verification ok": {},
	"done":            {},
	"complete":        {},
	"success":         {},
}

// StripANSI removes CSI escape sequences such as "\x1b[K" from s.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// Clean strips escape sequences and surrounding whitespace.
func Clean(s string) string {
	return strings.TrimSpace(StripANSI(s))
}

// Classify runs every rule against line and returns the events in rule
// order. Several rules may fire for the same line. Unrecognised text yields
// no events.
func Classify(line string) []Event {
	clean := Clean(line)
	if clean == "" {
		return nil
	}
	lower := strings.ToLower(clean)

	var events []Event
	if ev, ok := classifyPhase(lower); ok {
		events = append(events, ev)
	}
	if ev, ok := classifyPercent(clean, lower); ok {
		events = append(events, ev)
	}
	if ev, ok := classifyBytes(clean); ok {
		events = append(events, ev)
	}
	if timedPattern.MatchString(lower) {
		events = append(events, Event{
			Percent: 100,
			Label:   "Complete!",
			Rule:    RuleTimed,
			Detail:  "Time + OK detected - operation complete",
		})
	}
	if _, ok := completionWords[lower]; ok {
		events = append(events, Event{
			Percent: 100,
			Label:   "Complete!",
			Rule:    RuleDone,
			Detail:  "Completion detected",
		})
	}
	if strings.Contains(lower, "verification ok") {
		events = append(events, Event{
			Percent: 100,
			Label:   "Verification OK!",
			Rule:    RuleVerified,
			Detail:  "Verification success detected",
		})
	}
	return events
}

func classifyPhase(lower string) (Event, bool) {
	for _, p := range phases {
		if !containsAny(lower, p.keywords) {
			continue
		}
		if containsAny(lower, p.suppress) {
			return Event{}, false
		}
		return Event{
			Percent: 5,
			Label:   p.label,
			Rule:    RulePhase,
			Detail:  fmt.Sprintf("Detected: %s operation", p.name),
		}, true
	}
	return Event{}, false
}

func classifyPercent(clean, lower string) (Event, bool) {
	m := percentPattern.FindStringSubmatch(clean)
	if m == nil {
		return Event{}, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Event{}, false
	}
	pct := clamp(int(math.Floor(value)))

	op := "Progress"
	switch {
	case strings.Contains(lower, "writing"):
		op = "Writing"
	case strings.Contains(lower, "reading"):
		op = "Reading"
	case strings.Contains(lower, "verifying"):
		op = "Verifying"
	case strings.Contains(lower, "erasing"):
		op = "Erasing"
	}

	return Event{
		Percent: pct,
		Label:   fmt.Sprintf("%s: %d%%", op, pct),
		Rule:    RulePercent,
		Detail:  fmt.Sprintf("Percentage found: %d%% (operation: %s)", pct, op),
	}, true
}

func classifyBytes(clean string) (Event, bool) {
	m := slashPattern.FindStringSubmatch(clean)
	if m == nil {
		m = spacedPattern.FindStringSubmatch(clean)
	}
	if m == nil {
		return Event{}, false
	}
	current, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Event{}, false
	}
	total, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || total <= 0 {
		return Event{}, false
	}
	pct := clamp(int(current * 100 / total))
	return Event{
		Percent: pct,
		Label:   fmt.Sprintf("Progress: %d/%d bytes", current, total),
		Rule:    RuleBytes,
		Detail:  fmt.Sprintf("Bytes found: %d/%d -> %d%%", current, total, pct),
	}, true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clamp(pct int) int {
	return min(max(pct, 0), 100)
}
