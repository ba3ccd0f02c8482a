package utils

import (
	"strings"
	"unicode"
)

// HasLetter returns true if s contains at least one ASCII letter (a-zA-Z)
func HasLetter(s string) bool {
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			return true
		}
	}
	return false
}

// TruncateRunes shortens s to at most n runes, appending "..." when cut.
func TruncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// TitleFromPrompt derives a short conversation title from the first words of
// a prompt: up to five words verbatim, more gets cut with "...". The first
// letter is upper-cased. Empty input yields an empty title.
func TitleFromPrompt(prompt string) string {
	words := strings.Fields(strings.TrimSpace(prompt))
	if len(words) == 0 {
		return ""
	}
	var title string
	if len(words) <= 5 {
		title = strings.Join(words, " ")
	} else {
		title = strings.Join(words[:5], " ") + "..."
	}
	r := []rune(title)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
