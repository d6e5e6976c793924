// Package tracer parses recorded simulation traces. A trace is an
// ordered list of text lines where leading whitespace encodes the
// nesting of one variable's computation under another; extracting a
// variable means taking the contiguous run of lines that form its
// computation subtree.
package tracer

import "strings"

// Extract returns the contiguous sub-sequence of trace lines covering
// the first occurrence of target and everything computed beneath it.
//
// A line matches the target when, after stripping leading whitespace,
// it begins with target as a whole token: the next character must not
// be an identifier character, so "rate" does not match "rate_adjusted".
// A bracketed value annotation may follow, e.g. "market_income <1000>".
//
// Capture starts at the first matching line and continues while lines
// are indented deeper than it; the first line at equal or lesser depth
// is a sibling or ancestor and ends the subtree. Later occurrences of
// the target are ignored. An absent or blank target yields an empty
// segment.
func Extract(trace []string, target string) []string {
	result := []string{}

	if strings.TrimSpace(target) == "" {
		return result
	}

	capturing := false
	targetDepth := 0

	for _, line := range trace {
		depth := indentDepth(line)

		if !capturing {
			if matchesTarget(line[depth:], target) {
				targetDepth = depth
				capturing = true
				result = append(result, line)
			}
			continue
		}

		// Equal or lesser depth means the target's subtree has ended.
		if depth <= targetDepth {
			break
		}
		result = append(result, line)
	}

	return result
}

// indentDepth counts leading whitespace characters.
func indentDepth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// matchesTarget reports whether stripped (a line with its indentation
// removed) begins with target as a whole token.
func matchesTarget(stripped, target string) bool {
	if !strings.HasPrefix(stripped, target) {
		return false
	}
	if len(stripped) == len(target) {
		return true
	}
	return !isIdentChar(stripped[len(target)])
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}
