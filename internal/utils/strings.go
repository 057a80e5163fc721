package utils

import "strings"

// TitleCase lower-cases the input and upper-cases the first letter of
// every space-separated word. Used to normalize resident and building
// names on write so "maria SANTOS" and "Maria Santos" store identically.
func TitleCase(s string) string {
	if s == "" {
		return ""
	}
	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// NormalizeBlock trims and upper-cases a free-text block label.
func NormalizeBlock(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
