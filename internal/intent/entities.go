package intent

import (
	"regexp"
	"strings"
)

// Regex backstop for slots the model missed. Patterns follow the product's
// documented extraction behavior: currency amounts, common date shapes,
// category keywords.
var (
	dollarAmountRe = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	centsAmountRe  = regexp.MustCompile(`\b([0-9][0-9,]*\.[0-9]{2})\b`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`),
		regexp.MustCompile(`\b(\d{4}-\d{1,2}-\d{1,2})\b`),
		regexp.MustCompile(`\b((?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s*\d{4})?)\b`),
		regexp.MustCompile(`\b(today|tomorrow)\b`),
		regexp.MustCompile(`\b(next\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`),
		regexp.MustCompile(`\b(in\s+\d+\s+days?)\b`),
	}

	markPaidRe = regexp.MustCompile(`(?i)\bmark\s+(.+?)\s+(?:as\s+)?(paid|pending)\b`)

	priorityRe = regexp.MustCompile(`(?i)\b(low|medium|high|urgent)\s+priority\b`)

	fillerWordsRe = regexp.MustCompile(`(?i)\b(due|on|by|add|a|bill|the)\b`)
)

var categoryKeywords = map[string][]string{
	"Utilities":      {"electric", "electricity", "power", "gas bill", "water", "sewer", "utilities"},
	"Subscriptions":  {"netflix", "spotify", "subscription", "streaming", "amazon prime"},
	"Maintenance":    {"maintenance", "repair", "hvac", "plumbing", "electrician"},
	"Insurance":      {"insurance", "policy", "coverage"},
	"Rent":           {"rent", "mortgage", "housing"},
	"Internet":       {"internet", "cable", "wifi", "broadband"},
	"Transportation": {"car payment", "auto", "fuel", "parking", "uber", "lyft"},
}

// ExtractEntities pulls slot values out of raw text. Results only fill slots
// the provider left empty; they never override it.
func ExtractEntities(text string) map[string]string {
	entities := make(map[string]string)
	lower := strings.ToLower(text)

	if m := dollarAmountRe.FindStringSubmatch(text); m != nil {
		entities["amount"] = m[1]
	} else if m := centsAmountRe.FindStringSubmatch(text); m != nil {
		entities["amount"] = m[1]
	}

	for _, pattern := range datePatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			entities["due_date"] = m[1]
			break
		}
	}

	for category, keywords := range categoryKeywords {
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				entities["category"] = category
				break
			}
		}
		if _, ok := entities["category"]; ok {
			break
		}
	}

	if m := markPaidRe.FindStringSubmatch(text); m != nil {
		entities["name"] = strings.TrimSpace(m[1])
		entities["status"] = strings.ToLower(m[2])
	}

	if m := priorityRe.FindStringSubmatch(text); m != nil {
		entities["priority"] = strings.ToLower(m[1])
	}

	return entities
}

// remapMaintenanceEntities renames the generic bill-shaped extractions to the
// maintenance slot names before they backstop the provider
func remapMaintenanceEntities(entities map[string]string) {
	if value, ok := entities["due_date"]; ok {
		if _, taken := entities["scheduled_date"]; !taken {
			entities["scheduled_date"] = value
		}
		delete(entities, "due_date")
	}
	if value, ok := entities["amount"]; ok {
		if _, taken := entities["estimated_cost"]; !taken {
			entities["estimated_cost"] = value
		}
		delete(entities, "amount")
	}
}

// stripEntityText removes matched amount/date fragments so the remainder can
// serve as a bill name when the user packs everything into one message
// ("Electric, $120, due July 15").
func stripEntityText(text string) string {
	cleaned := dollarAmountRe.ReplaceAllString(text, "")
	cleaned = centsAmountRe.ReplaceAllString(cleaned, "")

	lower := strings.ToLower(cleaned)
	for _, pattern := range datePatterns {
		if loc := pattern.FindStringIndex(lower); loc != nil {
			cleaned = cleaned[:loc[0]] + cleaned[loc[1]:]
			break
		}
	}

	cleaned = fillerWordsRe.ReplaceAllString(cleaned, "")
	cleaned = strings.Trim(cleaned, " ,.:;-")
	return strings.TrimSpace(cleaned)
}
