package tone

import (
	"testing"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/config"
)

func testTonesConfig() config.TonesConfig {
	return config.TonesConfig{
		Selector: config.SelectorConfig{AgeWeight: 3, KeywordWeight: 1},
		Profiles: map[string]config.ProfileConfig{
			"child_friendly": {Keywords: []string{
				"child", "kid", "young boy", "little girl", "little boy",
				"teenager", "student", "school uniform", "pigtails", "toy",
				"小孩", "兒童", "小朋友", "小男孩", "小女孩", "學生", "校服",
			}},
			"elder_friendly": {Keywords: []string{
				"elderly", "senior", "old man", "old woman", "gray hair",
				"grey hair", "white hair", "walking stick", "cane",
				"wheelchair", "wrinkles",
				"老人", "長者", "老爺爺", "老奶奶", "拐杖", "白髮", "輪椅",
			}},
			"professional_friendly": {Keywords: []string{
				"business suit", "suit", "formal attire", "formal", "office",
				"tie", "briefcase", "professional",
				"西裝", "商務", "正式", "辦公室", "公事包", "上班族",
			}},
			"casual_friendly": {},
		},
	}
}

func TestSelectorProfiles(t *testing.T) {
	selector := NewSelector(testTonesConfig())

	tests := []struct {
		name        string
		description string
		want        Profile
	}{
		{"empty input", "", CasualFriendly},
		{"whitespace only", "   ", CasualFriendly},
		{"young boy", "a young boy wearing glasses, and is smiling", ChildFriendly},
		{"pigtails and toy", "a little girl with pigtails holding a toy", ChildFriendly},
		{"school uniform", "a teenager in school uniform", ChildFriendly},
		{"elderly features", "an elderly man with gray hair and wrinkles", ElderFriendly},
		{"walking stick", "an old woman with white hair using a walking stick", ElderFriendly},
		{"wheelchair", "a senior person sitting in a wheelchair", ElderFriendly},
		{"business suit", "a middle-aged person in business suit", ProfessionalFriendly},
		{"formal office", "a man in formal attire standing in an office", ProfessionalFriendly},
		{"plain casual", "a person wearing jeans and a hoodie", CasualFriendly},
		{"relaxed couch", "someone sitting relaxed on a couch", CasualFriendly},
		{"chinese child", "一個戴眼鏡微笑的小男孩", ChildFriendly},
		{"chinese elder", "一位拄著拐杖的老爺爺", ElderFriendly},
		{"chinese professional", "穿西裝的商務人士", ProfessionalFriendly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selector.Select(tt.description); got != tt.want {
				t.Errorf("Select(%q) = %s, want %s", tt.description, got, tt.want)
			}
		})
	}
}

func TestSelectorAgeIndicators(t *testing.T) {
	selector := NewSelector(testTonesConfig())

	tests := []struct {
		name        string
		description string
		want        Profile
	}{
		{"young age", "a person who is 8 years old", ChildFriendly},
		{"hyphenated age", "a 7-year-old drawing with crayons", ChildFriendly},
		{"aged senior", "a person aged 72 with a warm smile", ElderFriendly},
		{"chinese age elder", "一位70歲的先生", ElderFriendly},
		{"chinese age child", "這位12歲的訪客", ChildFriendly},
		{"middle age no bucket", "a person who is 35 years old", CasualFriendly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selector.Select(tt.description); got != tt.want {
				t.Errorf("Select(%q) = %s, want %s", tt.description, got, tt.want)
			}
		})
	}
}

func TestSelectorAgeOutweighsKeywords(t *testing.T) {
	selector := NewSelector(testTonesConfig())

	// One professional keyword against a strong elder age signal.
	got := selector.Select("a person aged 80 wearing a business suit")
	if got != ElderFriendly {
		t.Errorf("Select() = %s, want ElderFriendly", got)
	}
}

func TestSelectorTieFallsBackToCasual(t *testing.T) {
	selector := NewSelector(testTonesConfig())

	// Exactly one child keyword and one elder keyword.
	got := selector.Select("a child holding a cane")
	if got != CasualFriendly {
		t.Errorf("Select() = %s, want CasualFriendly on tie", got)
	}
}

func TestSelectorWordBoundaries(t *testing.T) {
	selector := NewSelector(testTonesConfig())

	// "tie" must not fire inside "patient", nor "kid" inside "kidding".
	if got := selector.Select("a patient person kidding around"); got != CasualFriendly {
		t.Errorf("Select() = %s, want CasualFriendly", got)
	}
}
