package models

import (
	"strings"
	"unicode"
)

const (
	LanguageChinese = "zh"
	LanguageEnglish = "en"
)

// Share of CJK code points above which a chunk is tagged Chinese.
const cjkTagThreshold = 0.3

// ContainsCJK reports whether text holds at least one CJK ideograph.
func ContainsCJK(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// DetectLanguage returns the language label used in prompts sent to the
// model. A single CJK character classifies the whole text as Chinese.
func DetectLanguage(text string) string {
	if ContainsCJK(text) {
		return "Traditional Chinese (繁體中文)"
	}
	return "English"
}

// LanguageTag classifies chunk text as "zh" or "en" from the proportion of
// CJK code points among its non-space runes.
func LanguageTag(text string) string {
	total, cjk := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Han, r) {
			cjk++
		}
	}
	if total > 0 && float64(cjk)/float64(total) >= cjkTagThreshold {
		return LanguageChinese
	}
	return LanguageEnglish
}

var questionKeywordsZh = []string{
	"什麼", "为什么", "為什麼", "如何", "怎麼", "哪", "嗎", "誰", "幾",
}

var questionKeywordsEn = []string{
	"what", "why", "how", "where", "who", "when", "which",
	"is", "are", "can", "do", "does",
}

// IsQuestion reports whether text reads as a question: a terminal question
// mark, an interrogative particle (Chinese), or an interrogative word
// (English, matched on word boundaries).
func IsQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") || strings.HasSuffix(trimmed, "？") {
		return true
	}

	for _, kw := range questionKeywordsZh {
		if strings.Contains(trimmed, kw) {
			return true
		}
	}

	for _, field := range strings.Fields(strings.ToLower(trimmed)) {
		word := strings.Trim(field, ".,!?;:\"'()")
		for _, kw := range questionKeywordsEn {
			if word == kw {
				return true
			}
		}
	}
	return false
}
