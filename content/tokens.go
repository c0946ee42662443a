package content

import "unicode/utf8"

// EstimateTokens provides a fast token count estimate without importing a
// tokenizer.
//
// Heuristic: utf8 rune count / 3.
//
//   - English text averages ~4 chars/token, CJK text averages ~1.5 chars/token.
//   - Dividing by 3 is a reasonable middle-ground for mixed-language content
//     and over-estimates slightly, keeping prompts inside the model's limit.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}

// Truncate trims text to approximately maxTokens using the same rune/3
// heuristic as EstimateTokens. Returns text unchanged when it fits.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if EstimateTokens(text) <= maxTokens {
		return text
	}

	maxRunes := maxTokens * 3
	runes := 0
	for i := range text {
		if runes == maxRunes {
			return text[:i]
		}
		runes++
	}
	return text
}
