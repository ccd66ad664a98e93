package orchestrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/llm"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/tone"
)

// maxReferenceLength caps the grounding material handed to the model,
// counted in runes so Chinese and English corpora get the same budget.
const maxReferenceLength = 2500

// groundedSystemPrompt is the fixed system prompt for the grounded
// answer call. The avatar speaks, so answers stay short enough to be
// voiced in one breath.
const groundedSystemPrompt = `You are the voice of a digital avatar guide for the Industrial Technology Research Institute (ITRI, 工業技術研究院) and its exhibition halls.

The user message is a JSON object with these fields:
- "user_question": the question to answer.
- "chat_history": earlier turns, with questions labelled Q1, Q2, ... and their answers labelled A1, A2, ...
- "rag_reference": reference material retrieved for this question.
- "language_requirement": the language you must answer in.
- "user_description": how the user currently looks, when available.

Answer the user_question directly and conversationally, as a friendly guide speaking aloud. Use chat_history only to resolve references such as "it" or "there". If rag_reference does not cover the question, say you are not sure instead of guessing.

NOTICE: You must answer in 1 sentence only.(請用一句話回答!只能有一句!不可以超過) The response language should depend on what the user requires. If the user does not specify a language, use the same language as the user input. If Mandarin or Chinese is requested, respond in Traditional Chinese (zh-tw). Most importantly, ensure all information comes from rag_reference and is accurate and truthful.`

// historyEntry is one prior turn in the structured history handed to
// the model. Pair ids (Q1/A1, Q2/A2, ...) let the model line answers up
// with their questions.
type historyEntry struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groundedPayload struct {
	UserQuestion        string         `json:"user_question"`
	ChatHistory         []historyEntry `json:"chat_history"`
	RAGReference        string         `json:"rag_reference"`
	LanguageRequirement string         `json:"language_requirement"`
	UserDescription     string         `json:"user_description,omitempty"`
}

// buildReference concatenates retrieved chunk texts, most relevant
// first, until the length cap. If even the best chunk alone exceeds the
// cap it is truncated rather than dropped, so the model always sees the
// strongest evidence.
func buildReference(results []models.RetrievalResult) string {
	var parts []string
	length := 0
	for _, r := range results {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		runes := utf8.RuneCountInString(text)
		if length+runes > maxReferenceLength {
			if len(parts) == 0 {
				parts = append(parts, truncateRunes(text, maxReferenceLength))
			}
			break
		}
		parts = append(parts, text)
		length += runes
	}
	return strings.Join(parts, "\n\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// groundedMessages builds the grounded answer call: the fixed system
// prompt plus one user turn whose content is a JSON payload. The
// user description only appears when the caller supplied one
// explicitly; a fetched visual description feeds tone selection, not
// generation.
func groundedMessages(question string, history []models.Message, reference, userDescription string) []llm.Message {
	entries := make([]historyEntry, 0, len(history))
	questionCount := 0
	for _, msg := range history {
		switch msg.Role {
		case models.RoleUser:
			questionCount++
			entries = append(entries, historyEntry{
				ID:      fmt.Sprintf("Q%d", questionCount),
				Role:    msg.Role,
				Content: msg.Content,
			})
		case models.RoleAssistant:
			entries = append(entries, historyEntry{
				ID:      fmt.Sprintf("A%d", questionCount),
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}

	lang := models.DetectLanguage(question)
	payload := groundedPayload{
		UserQuestion: question,
		ChatHistory:  entries,
		RAGReference: reference,
		LanguageRequirement: fmt.Sprintf(
			"CRITICAL: The user question is in %s. You MUST respond ENTIRELY in %s. Do NOT use any other language.",
			lang, lang),
		UserDescription: strings.TrimSpace(userDescription),
	}

	// Encode without HTML escaping so CJK-adjacent punctuation reaches
	// the model as written.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: groundedSystemPrompt},
		{Role: llm.RoleUser, Content: strings.TrimRight(buf.String(), "\n")},
	}
}

// conversionRequest builds the restyle call: the profile's system
// prompt plus the rewrite instruction, both in the language of the text
// being rewritten.
func conversionRequest(text string, profile tone.Profile, cc tone.ConversionContext, maxTokens int) llm.Request {
	targetLang := models.DetectLanguage(text)
	return llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: tone.SystemPrompt(profile, targetLang)},
			{Role: llm.RoleUser, Content: tone.ConversionInstruction(text, targetLang, profile, cc)},
		},
		Temperature: conversionTemperature,
		MaxTokens:   maxTokens,
	}
}
