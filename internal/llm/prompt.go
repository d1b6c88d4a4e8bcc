package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avvvet/homebuddy-agent/internal/session"
)

const systemPrompt = `You are an AI assistant for HomeBuddy, a household bill and maintenance tracker. Your job is to analyze user messages and determine what expense-related action they want to perform.

IMPORTANT RULES:
1. Work on ONE intent at a time, even if multiple are mentioned
2. If multiple intents are mentioned, pick the first one mentioned
3. Extract slot values from the conversation for the selected intent
4. If the agent previously asked the user for a missing value, treat the message as the answer to that question first
5. Dates may be relative ("next Friday", "in 5 days"); copy them verbatim into the slot

RESPONSE FORMAT:
You must respond with a valid JSON object in this exact format:
{
  "intent": "intent_name or unknown",
  "confidence": 0.0,
  "slots": {
    "slot_name": "extracted_value"
  }
}

Available intents and their slots:
- add_bill: name, amount, due_date, category, vendor, description
- update_bill_status: bill_id or name, status (pending or paid)
- query_bills: category, status
- query_upcoming: days
- get_summary: year, month
- get_stats: (no slots)
- add_maintenance: title, scheduled_date, estimated_cost, priority (low/medium/high/urgent), category, contractor
- query_maintenance: status, category
- greeting: (no slots)
- unknown: (no slots)

%s
Current Conversation:
%s

Analyze the conversation and respond with the JSON format above.`

// BuildIntentPrompt renders the classification prompt for one turn
func BuildIntentPrompt(text string, conv ConversationContext) string {
	return fmt.Sprintf(systemPrompt, buildPendingSection(conv.Pending), buildConversationSection(conv.RecentTurns, text))
}

func buildPendingSection(pending *session.PendingRequest) string {
	if pending == nil {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Pending intent: %s (still missing: %s)\n",
		pending.Intent, strings.Join(pending.Missing, ", ")))
	builder.WriteString("If the user's message supplies one of the missing values, return the pending intent with that slot filled.\n\n")
	return builder.String()
}

func buildConversationSection(turns []session.Turn, currentMessage string) string {
	var builder strings.Builder

	for _, turn := range turns {
		speaker := "User"
		if turn.Speaker == session.SpeakerAgent {
			speaker = "Assistant"
		}
		builder.WriteString(fmt.Sprintf("%s: %s\n", speaker, turn.Text))
	}

	builder.WriteString(fmt.Sprintf("User: %s\n", currentMessage))

	return builder.String()
}

// ParseGuess extracts the structured guess from raw model output
func ParseGuess(content string) (*Guess, error) {
	jsonContent := extractJSON(content)
	if jsonContent == "" {
		return nil, fmt.Errorf("no valid JSON found in response")
	}

	// Slot values can come back as numbers or strings depending on the model
	var raw struct {
		Intent     string                 `json:"intent"`
		Confidence float64                `json:"confidence"`
		Slots      map[string]interface{} `json:"slots"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	guess := &Guess{
		Intent:     raw.Intent,
		Confidence: raw.Confidence,
		Slots:      make(map[string]string),
	}

	for key, value := range raw.Slots {
		switch v := value.(type) {
		case string:
			if v != "" && v != "null" {
				guess.Slots[key] = v
			}
		case float64:
			guess.Slots[key] = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
		case bool:
			guess.Slots[key] = fmt.Sprintf("%t", v)
		}
	}

	if guess.Intent == "" {
		guess.Intent = "unknown"
		guess.Confidence = 0
	}

	return guess, nil
}

func extractJSON(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(content, "}")
	if end == -1 || end <= start {
		return ""
	}

	return content[start : end+1]
}
