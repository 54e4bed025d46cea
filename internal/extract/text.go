package extract

import (
	"regexp"
	"strings"
)

// whitespace matches one Unicode whitespace character, including the
// separators Word uses for justified text.
const whitespace = `[\s\v\p{Z}\x{1c}-\x{1f}\x{85}]`

var (
	segmentSplit = regexp.MustCompile(whitespace + `{2,}`)
	wideSpaces   = regexp.MustCompile(`[\x{2002}-\x{200a}]+`)
	visitDate    = regexp.MustCompile(`^(\d{2}/\d{2}/\d{2,4})` + whitespace + `*(.*)`)
)

// segments splits cell text on runs of two or more whitespace characters.
func segments(s string) []string {
	return segmentSplit.Split(s, -1)
}

// fixSpaces collapses en/em/thin space runs into a single space.
func fixSpaces(s string) string {
	return wideSpaces.ReplaceAllString(s, " ")
}

// flatten turns cell text into one line and normalises wide spaces.
func flatten(s string) string {
	return fixSpaces(strings.ReplaceAll(s, "\n", " "))
}

// cleanCell flattens and trims, trimming before the space fix.
func cleanCell(s string) string {
	return fixSpaces(strings.TrimSpace(strings.ReplaceAll(s, "\n", " ")))
}

// splitLabel splits "label: value" on the first colon and trims both sides.
func splitLabel(s string) (string, string, bool) {
	label, value, ok := strings.Cut(s, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(label), strings.TrimSpace(value), true
}

// afterColon returns the trimmed text after the first colon, or "".
func afterColon(s string) string {
	_, value, ok := strings.Cut(s, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func orMissing(s string) string {
	if s == "" {
		return Missing
	}
	return s
}

func indexOf(lines []string, s string) int {
	for i, l := range lines {
		if l == s {
			return i
		}
	}
	return -1
}

// firstRunes returns at most n characters of s.
func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
