package cli

import (
	"strings"
	"unicode/utf8"
)

// Wrap breaks text into display lines of at most maxWidth characters.
// Explicit newlines always force a break. A word that would push the current
// line over maxWidth starts a new line instead; words are never split, so a
// single word longer than maxWidth gets a line to itself and that line is
// allowed to exceed the limit. Whitespace between words that stay on the same
// line is preserved verbatim. A trailing empty line is not emitted.
func Wrap(text string, maxWidth int) []string {
	lines := []string{}
	segments := strings.Split(text, "\n")
	for i, segment := range segments {
		if segment == "" {
			if i == len(segments)-1 {
				break
			}
			lines = append(lines, "")
			continue
		}
		lines = append(lines, wrapSegment(segment, maxWidth)...)
	}
	return lines
}

// wrapSegment wraps a single segment containing no newlines.
func wrapSegment(segment string, maxWidth int) []string {
	var lines []string
	line := ""
	space := "" // whitespace run pending before the next word
	hasWord := false
	for _, token := range tokenise(segment) {
		if isSpace(token) {
			space = token
			continue
		}
		if hasWord && utf8.RuneCountInString(line)+utf8.RuneCountInString(space)+utf8.RuneCountInString(token) > maxWidth {
			lines = append(lines, line)
			line = token
		} else {
			line += space + token
		}
		space = ""
		hasWord = true
	}
	return append(lines, line+space)
}

// tokenise splits a string into alternating runs of whitespace and non-whitespace.
func tokenise(s string) []string {
	tokens := []string{}
	start := 0
	for i, c := range s {
		if i > 0 && isSpace(string(c)) != isSpace(s[start:start+1]) {
			tokens = append(tokens, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

func isSpace(s string) bool {
	c, _ := utf8.DecodeRuneInString(s)
	return c == ' ' || c == '\t' || c == '\v' || c == '\f' || c == '\r'
}
