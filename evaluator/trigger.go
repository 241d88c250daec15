// evaluator/trigger.go - Trigger text micro-parsers
//
// Every category evaluator parses rule triggers on its own; these are the
// shared extraction primitives. Numeric extraction is greedy-first-match:
// the first digit group wins, with thousands separators stripped first.
package evaluator

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	digitsRe    = regexp.MustCompile(`(\d+)`)
	hoursRe     = regexp.MustCompile(`(\d+)\s*hour`)
	bookCountRe = regexp.MustCompile(`(\d+)\s+book`)
	opHoursRe   = regexp.MustCompile(`(>=|<=)\s*(\d+(?:\.\d+)?)\s*hour`)
	modeHoursRe = regexp.MustCompile(`\b(over|under)\b\s*(\d+(?:\.\d+)?)\s*hour`)
	nonAlnumRe  = regexp.MustCompile(`[^a-z0-9]+`)
)

// firstInt returns the first integer found in a trigger, or 0.
func firstInt(s string) int {
	m := digitsRe.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// extractHours returns the first "N hour(s)" figure in a trigger, or 0.
func extractHours(s string) int {
	m := hoursRe.FindStringSubmatch(strings.ReplaceAll(strings.ToLower(s), ",", ""))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// extractBookCount returns the "N book(s)" figure in a trigger, defaulting
// to 1 when the phrase carries no explicit count.
func extractBookCount(s string) int {
	m := bookCountRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 1
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// parseDurationRule extracts the over/under mode and hour threshold from a
// duration trigger. "longer/shorter than" and explicit >=/<= operators are
// normalized to over/under.
func parseDurationRule(trigger string) (mode string, hours float64, ok bool) {
	t := strings.TrimSpace(strings.ToLower(trigger))
	t = strings.ReplaceAll(t, "longer than", "over")
	t = strings.ReplaceAll(t, "shorter than", "under")

	if m := opHoursRe.FindStringSubmatch(t); m != nil {
		hours, _ = strconv.ParseFloat(m[2], 64)
		if m[1] == ">=" {
			return "over", hours, true
		}
		return "under", hours, true
	}
	if m := modeHoursRe.FindStringSubmatch(t); m != nil {
		hours, _ = strconv.ParseFloat(m[2], 64)
		return m[1], hours, true
	}
	return "", 0, false
}

// normName canonicalizes a person name for matching: collapse whitespace,
// lower case.
func normName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// normText reduces free text to lower-case alphanumeric words for fuzzy
// series-name comparison.
func normText(s string) string {
	return strings.TrimSpace(nonAlnumRe.ReplaceAllString(strings.ToLower(s), " "))
}

// keywordsFromTrigger recovers a keyword list from the canonical
// "... with {kw1, kw2 or kw3} in the title" phrase. Returns nil when the
// trigger doesn't follow that pattern.
func keywordsFromTrigger(trigger string) []string {
	t := strings.ToLower(trigger)
	_, rest, ok := strings.Cut(t, "with ")
	if !ok {
		return nil
	}
	content, _, ok := strings.Cut(rest, " in the title")
	if !ok {
		return nil
	}

	content = strings.ReplaceAll(content, " or ", ",")
	var keywords []string
	for _, part := range strings.Split(content, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}

// nthTimestamp returns the n-th (1-based) entry of an ascending timestamp
// slice, or 0 when fewer than n are known.
func nthTimestamp(sorted []int64, n int) int64 {
	if n > 0 && len(sorted) >= n {
		return sorted[n-1]
	}
	return 0
}

// positiveSorted filters out non-positive timestamps and sorts ascending.
func positiveSorted(timestamps []int64) []int64 {
	out := make([]int64, 0, len(timestamps))
	for _, ts := range timestamps {
		if ts > 0 {
			out = append(out, ts)
		}
	}
	slices.Sort(out)
	return out
}
