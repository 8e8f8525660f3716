package confirm

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/slok/plancoach/internal/model"
)

// DefaultTaskMinutes is the duration used for a task without a parseable duration.
const DefaultTaskMinutes = 60

// PlanExtractor finds a weekly plan in free text.
type PlanExtractor interface {
	Extract(text string) (*model.WeeklyPlan, bool)
}

// PlanExtractorFunc is a helper to implement PlanExtractor with a function.
type PlanExtractorFunc func(text string) (*model.WeeklyPlan, bool)

func (f PlanExtractorFunc) Extract(text string) (*model.WeeklyPlan, bool) { return f(text) }

var (
	bulletLineRegexp = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+?)\s*$`)
	boldRegexp       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	durationRegexp   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(hours?|hrs?|minutes?|mins?)\b`)
	// Parenthesized or dash separated duration suffix of a task text.
	durationSuffixRegexp = regexp.MustCompile(`(?i)\s*(?:\(\s*~?\s*\d+(?:\.\d+)?\s*(?:hours?|hrs?|minutes?|mins?)\s*\)|[-–—:]\s*~?\s*\d+(?:\.\d+)?\s*(?:hours?|hrs?|minutes?|mins?))\s*$`)
	weekRegexp           = regexp.MustCompile(`(?i)\bweek\s*#?\s*(\d+)\b`)
	// Summary lines like "Total: 3.5 hours".
	labelDurationRegexp = regexp.MustCompile(`(?i)^[\p{L} ]{1,24}:\s*~?\s*\d+(?:\.\d+)?\s*(?:hours?|hrs?|minutes?|mins?)\.?$`)
)

// BulletExtractor extracts plans from markdown bullet lists like:
//
//	- **Build an MCP server** (2 hrs) to practice tools
//
// When any bullet has a bold title only bold bullets are tasks. Lines under 5
// characters, holding the confirmation question or with only a label and a
// duration are ignored.
type BulletExtractor struct{}

// Extract satisfies PlanExtractor.
func (BulletExtractor) Extract(text string) (*model.WeeklyPlan, bool) {
	plan := &model.WeeklyPlan{Tasks: []string{}}
	total := 0

	var bullets []string
	boldTitles := false
	for _, line := range strings.Split(text, "\n") {
		m := bulletLineRegexp.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		bullets = append(bullets, m[1])
		if boldRegexp.MatchString(m[1]) {
			boldTitles = true
		}
	}

	for _, content := range bullets {
		if len(strings.TrimSpace(content)) < 5 || strings.Contains(strings.ToLower(content), "shall i") {
			continue
		}

		bm := boldRegexp.FindStringSubmatch(content)
		if boldTitles && bm == nil {
			continue
		}
		if labelDurationRegexp.MatchString(cleanMarkdown(content)) {
			continue
		}

		title := content
		if bm != nil {
			title = bm[1]
		}
		title = cleanMarkdown(title)
		if len(title) < 5 {
			continue
		}

		minutes, durationText, ok := ParseDuration(content)
		if ok && !durationRegexp.MatchString(title) {
			title = title + " (" + durationText + ")"
		}
		if !ok {
			minutes = DefaultTaskMinutes
		}

		plan.Tasks = append(plan.Tasks, title)
		total += minutes
	}

	if len(plan.Tasks) == 0 {
		return nil, false
	}

	if wm := weekRegexp.FindStringSubmatch(text); wm != nil {
		plan.Week, _ = strconv.Atoi(wm[1])
	}
	plan.EstimatedMinutes = &total

	return plan, true
}

func cleanMarkdown(s string) string {
	s = strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
	return strings.Trim(strings.TrimSpace(s), ":–—- ")
}

// ParseDuration finds the first "<n> hr|hour|min" duration in s and returns it in
// minutes along with the matched text.
func ParseDuration(s string) (minutes int, text string, ok bool) {
	m := durationRegexp.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil || n <= 0 {
		return 0, "", false
	}

	unit := strings.ToLower(m[2])
	if strings.HasPrefix(unit, "h") {
		n *= 60
	}

	return int(math.Round(n)), m[0], true
}

// SplitDuration removes a trailing duration annotation from a task text, like
// "Read the docs (1 hour)" or "Read the docs - 30 min".
func SplitDuration(text string) (clean string, minutes int, ok bool) {
	loc := durationSuffixRegexp.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text), 0, false
	}

	minutes, _, ok = ParseDuration(text[loc[0]:loc[1]])
	return strings.TrimSpace(text[:loc[0]]), minutes, ok
}
