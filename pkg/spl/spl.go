// Package spl builds and validates SPL search strings and the inputs that
// accompany them (SIDs, time modifiers).
//
// Validation here is a cheap front-line check for obviously broken input;
// the server remains the authority on SPL syntax.
package spl

import (
	"fmt"
	"regexp"
	"strings"
)

// Default time bounds applied when the caller specifies none.
const (
	DefaultEarliestTime = "-24h@h"
	DefaultLatestTime   = "now"
)

var (
	// sidPattern matches ad hoc sids (epoch.serial with an optional user
	// suffix) and scheduler sids.
	sidPattern = regexp.MustCompile(`^(\d+\.\d+(_\w+)?|scheduler__\w+__\w+__\w+__\w+__\w+)$`)

	timeModifierPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^[+-]?\d+[smhdwMy](@[smhdwMy]?\d*)?$`),
		regexp.MustCompile(`(?i)^@[smhdwMy]\d*$`),
		regexp.MustCompile(`(?i)^@w[0-6]$`),
		regexp.MustCompile(`(?i)^@(mon|q\d?|y)$`),
		regexp.MustCompile(`(?i)^[+-]?\d+[smhdwMy]@[smhdwMy0-6]?\d*$`),
	}

	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// ValidateSID checks that sid looks like a search job identifier.
func ValidateSID(sid string) (string, error) {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return "", fmt.Errorf("sid is required")
	}
	if !sidPattern.MatchString(sid) {
		return "", fmt.Errorf("invalid sid format: %s", sid)
	}
	return sid, nil
}

// ValidateSearch rejects structurally broken SPL: unbalanced quotes or
// parentheses, empty pipe segments, and trailing pipes.
func ValidateSearch(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("search is required")
	}
	if strings.Count(query, `"`)%2 != 0 || strings.Count(query, `'`)%2 != 0 {
		return "", fmt.Errorf("search has unbalanced quotes")
	}
	if strings.Count(query, "(") != strings.Count(query, ")") {
		return "", fmt.Errorf("search has unbalanced parentheses")
	}
	if strings.Contains(strings.ReplaceAll(query, " ", ""), "||") {
		return "", fmt.Errorf("search has an empty pipe segment")
	}
	if strings.HasSuffix(strings.TrimRight(query, " \t"), "|") {
		return "", fmt.Errorf("search cannot end with a pipe")
	}
	return query, nil
}

// ValidateTimeModifier checks a relative or absolute time expression
// ("-24h@h", "now", epoch seconds).
func ValidateTimeModifier(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", fmt.Errorf("time modifier is required")
	}
	switch v {
	case "now", "now()", "earliest", "latest", "0":
		return v, nil
	}
	if digitsOnly.MatchString(v) {
		return v, nil
	}
	for _, p := range timeModifierPatterns {
		if p.MatchString(v) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid time modifier format: %s", value)
}

// TimeBounds applies defaults and validates both bounds.
func TimeBounds(earliest, latest string) (string, string, error) {
	if earliest == "" {
		earliest = DefaultEarliestTime
	}
	if latest == "" {
		latest = DefaultLatestTime
	}
	earliest, err := ValidateTimeModifier(earliest)
	if err != nil {
		return "", "", err
	}
	latest, err = ValidateTimeModifier(latest)
	if err != nil {
		return "", "", err
	}
	return earliest, latest, nil
}

// BuildOptions are the optional clauses BuildSearch can add.
type BuildOptions struct {
	Index        string
	EarliestTime string
	LatestTime   string
	Fields       []string
	Head         int
}

// BuildSearch assembles a complete search string from a base query,
// adding only clauses the query does not already carry.
func BuildSearch(query string, opts BuildOptions) string {
	out := strings.TrimSpace(query)
	if opts.Index != "" && !strings.Contains(out, "index=") {
		out = fmt.Sprintf("index=%s %s", opts.Index, out)
	}
	out = AddTimeBounds(out, opts.EarliestTime, opts.LatestTime)
	if len(opts.Fields) > 0 {
		out = AddFieldExtraction(out, opts.Fields)
	}
	if opts.Head > 0 {
		out = AddHeadLimit(out, opts.Head)
	}
	return out
}

// AddTimeBounds appends earliest/latest terms unless the query already
// sets its own bounds.
func AddTimeBounds(query, earliest, latest string) string {
	if strings.Contains(query, "earliest=") || strings.Contains(query, "latest=") {
		return query
	}
	if earliest != "" {
		query += " earliest=" + earliest
	}
	if latest != "" {
		query += " latest=" + latest
	}
	return query
}

// AddFieldExtraction appends a fields clause unless one exists.
func AddFieldExtraction(query string, fields []string) string {
	if len(fields) == 0 || strings.Contains(query, "| fields") {
		return query
	}
	return query + " | fields " + strings.Join(fields, ", ")
}

// AddHeadLimit appends a head clause unless one exists.
func AddHeadLimit(query string, n int) string {
	if n <= 0 || strings.Contains(query, "| head") {
		return query
	}
	return fmt.Sprintf("%s | head %d", query, n)
}
