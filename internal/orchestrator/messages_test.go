package orchestrator

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/tone"
)

func resultsFromTexts(texts ...string) []models.RetrievalResult {
	results := make([]models.RetrievalResult, 0, len(texts))
	for i, text := range texts {
		results = append(results, models.RetrievalResult{Text: text, Rank: i + 1})
	}
	return results
}

func TestBuildReferenceJoinsInRankOrder(t *testing.T) {
	got := buildReference(resultsFromTexts("first chunk", "second chunk", "third chunk"))
	want := "first chunk\n\nsecond chunk\n\nthird chunk"
	if got != want {
		t.Errorf("reference = %q, want %q", got, want)
	}
}

func TestBuildReferenceStopsAtCap(t *testing.T) {
	big := strings.Repeat("a", 1200)
	got := buildReference(resultsFromTexts(big, big, big))

	// Two 1200-rune chunks fit; the third would exceed 2500.
	if count := strings.Count(got, big); count != 2 {
		t.Errorf("kept %d chunks, want 2", count)
	}
}

func TestBuildReferenceTruncatesOversizedFirstChunk(t *testing.T) {
	got := buildReference(resultsFromTexts(strings.Repeat("工", 3000)))
	if n := utf8.RuneCountInString(got); n != maxReferenceLength {
		t.Errorf("rune count = %d, want %d", n, maxReferenceLength)
	}
}

func TestBuildReferenceSkipsBlankChunks(t *testing.T) {
	got := buildReference(resultsFromTexts("  ", "solid chunk", ""))
	if got != "solid chunk" {
		t.Errorf("reference = %q", got)
	}
}

func TestGroundedMessagesHistoryPairIDs(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleUser, Content: "Where is ITRI?"},
		{Role: models.RoleAssistant, Content: "In Hsinchu."},
		{Role: models.RoleUser, Content: "When was it founded?"},
		{Role: models.RoleAssistant, Content: "In 1973."},
	}

	messages := groundedMessages("What does it research?", history, "ref", "")
	content := messages[1].Content
	for _, id := range []string{`"id":"Q1"`, `"id":"A1"`, `"id":"Q2"`, `"id":"A2"`} {
		if !strings.Contains(content, id) {
			t.Errorf("payload missing %s: %s", id, content)
		}
	}
}

func TestGroundedMessagesLanguageRequirement(t *testing.T) {
	en := groundedMessages("Where is ITRI?", nil, "", "")[1].Content
	if !strings.Contains(en, "ENTIRELY in English") {
		t.Errorf("english payload = %s", en)
	}

	zh := groundedMessages("工研院在哪裡?", nil, "", "")[1].Content
	if !strings.Contains(zh, "ENTIRELY in Traditional Chinese (繁體中文)") {
		t.Errorf("chinese payload = %s", zh)
	}
}

func TestGroundedMessagesOmitsEmptyDescription(t *testing.T) {
	content := groundedMessages("Where is ITRI?", nil, "", "   ")[1].Content
	if strings.Contains(content, "user_description") {
		t.Errorf("blank description should be omitted: %s", content)
	}

	withDesc := groundedMessages("Where is ITRI?", nil, "", "a boy in a school uniform")[1].Content
	if !strings.Contains(withDesc, `"user_description":"a boy in a school uniform"`) {
		t.Errorf("description missing: %s", withDesc)
	}
}

func TestGroundedMessagesKeepPunctuationUnescaped(t *testing.T) {
	content := groundedMessages("Is A&B <Lab> open?", nil, "", "")[1].Content
	if !strings.Contains(content, "A&B <Lab>") {
		t.Errorf("payload escaped punctuation: %s", content)
	}
}

func TestGroundedMessagesEmptyHistoryMarshalsAsArray(t *testing.T) {
	content := groundedMessages("Where is ITRI?", nil, "", "")[1].Content
	if !strings.Contains(content, `"chat_history":[]`) {
		t.Errorf("chat_history should be an empty array: %s", content)
	}
}

func TestConversionRequestLanguageFollowsText(t *testing.T) {
	zh := conversionRequest("工研院於1973年成立。", tone.CasualFriendly, tone.ConversionContext{}, 0)
	if !strings.Contains(zh.Messages[0].Content, "Traditional Chinese (繁體中文)") {
		t.Error("CJK text should convert into Traditional Chinese")
	}

	en := conversionRequest("ITRI was founded in 1973.", tone.CasualFriendly, tone.ConversionContext{}, 0)
	if !strings.Contains(en.Messages[0].Content, "English") {
		t.Error("latin text should convert into English")
	}
	if en.Temperature != 0.3 {
		t.Errorf("temperature = %v", en.Temperature)
	}
}
