package tone

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/config"
)

// Age brackets: minors get the child profile, seniors the elder one.
const (
	childAgeMax = 17
	elderAgeMin = 65
)

var agePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:years?\s*old|-year-old)`),
	regexp.MustCompile(`(?i)\baged\s*(\d{1,3})\b`),
	regexp.MustCompile(`(\d{1,3})\s*[歲岁]`),
}

type keywordMatcher func(string) bool

// Selector maps an appearance description to a Profile with rule
// scoring: explicit age indicators carry the configured strong weight,
// keyword hits the light one, highest total wins. It is deliberately
// narrow; anything ambiguous falls back to CasualFriendly.
type Selector struct {
	cfg      config.TonesConfig
	keywords map[Profile][]keywordMatcher
}

// The three profiles that compete in scoring; CasualFriendly is the
// default, not a contestant.
var scoredProfiles = []Profile{ChildFriendly, ElderFriendly, ProfessionalFriendly}

func NewSelector(cfg config.TonesConfig) *Selector {
	keywords := make(map[Profile][]keywordMatcher)
	for _, profile := range scoredProfiles {
		profileCfg, ok := cfg.Profiles[string(profile)]
		if !ok {
			continue
		}
		for _, keyword := range profileCfg.Keywords {
			if m := compileKeyword(keyword); m != nil {
				keywords[profile] = append(keywords[profile], m)
			}
		}
	}
	return &Selector{cfg: cfg, keywords: keywords}
}

// Select scores the description against the three non-default profiles.
// Empty input, no signal, and tied top scores all resolve to
// CasualFriendly.
func (s *Selector) Select(auxiliaryContext string) Profile {
	description := strings.TrimSpace(auxiliaryContext)
	if description == "" {
		return CasualFriendly
	}
	lower := strings.ToLower(description)

	scores := make(map[Profile]int)
	if age, ok := extractAge(description); ok {
		switch {
		case age <= childAgeMax:
			scores[ChildFriendly] += s.cfg.Selector.AgeWeight
		case age >= elderAgeMin:
			scores[ElderFriendly] += s.cfg.Selector.AgeWeight
		}
	}

	for _, profile := range scoredProfiles {
		for _, matches := range s.keywords[profile] {
			if matches(lower) {
				scores[profile] += s.cfg.Selector.KeywordWeight
			}
		}
	}

	best := CasualFriendly
	bestScore := 0
	tied := false
	for _, profile := range scoredProfiles {
		score := scores[profile]
		if score > bestScore {
			best, bestScore, tied = profile, score, false
		} else if score == bestScore && score > 0 {
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return CasualFriendly
	}
	return best
}

// compileKeyword builds a matcher for one configured keyword. Latin
// keywords match on word boundaries so that short ones do not fire
// inside unrelated words; CJK keywords match as substrings since CJK
// text has no word delimiters.
func compileKeyword(keyword string) keywordMatcher {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil
	}
	if isASCII(kw) {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		return re.MatchString
	}
	return func(text string) bool {
		return strings.Contains(text, kw)
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// extractAge pulls the first explicit age mention out of the text.
func extractAge(text string) (int, bool) {
	for _, pattern := range agePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		age, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return age, true
	}
	return 0, false
}
