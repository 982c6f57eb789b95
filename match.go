package mindgames

import (
	"regexp"
	"strconv"
)

// lastMatch returns the submatches of the occurrence with the greatest
// start offset, or nil when the pattern does not match. Transcripts are
// chronological, so the latest mention supersedes earlier ones.
func lastMatch(re *regexp.Regexp, text string) []string {
	var latest []int
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if latest == nil || loc[0] > latest[0] {
			latest = loc
		}
	}
	return submatches(text, latest)
}

// lastMatchOf is lastMatch over several patterns sharing the same group layout.
func lastMatchOf(text string, patterns ...*regexp.Regexp) []string {
	var latest []int
	for _, re := range patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if latest == nil || loc[0] > latest[0] {
				latest = loc
			}
		}
	}
	return submatches(text, latest)
}

// lastOffset returns the start offset of the latest occurrence, or -1.
func lastOffset(re *regexp.Regexp, text string) int {
	offset := -1
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > offset {
			offset = loc[0]
		}
	}
	return offset
}

func submatches(text string, loc []int) []string {
	if loc == nil {
		return nil
	}
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] < 0 {
			continue
		}
		groups[i] = text[loc[2*i]:loc[2*i+1]]
	}
	return groups
}

// firstInt parses group 1 of the first match.
func firstInt(re *regexp.Regexp, text string) *int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return parseInt(m[1])
}

func parseInt(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func ptr[T any](v T) *T {
	return &v
}
