package llm

import "strings"

// SystemPrompt is sent as the system message of every extraction call.
const SystemPrompt = "You are a precise information extraction assistant."

// BuildUserPrompt states the task, names the three record keys, shows two worked
// examples and embeds the OCR transcript verbatim.
func BuildUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Extract all technical properties (name, value, and unit) from the following text.\n")
	b.WriteString(`Return them as a *pure JSON list*, with keys: "prop-name", "prop-value", "prop-unit".` + "\n")
	b.WriteString("Do not include explanations or markdown fences.\n")
	b.WriteString("If a property has no unit, use an empty string for \"prop-unit\".\n")
	b.WriteString("Example:\n")
	b.WriteString("[\n")
	b.WriteString(`  {"prop-name": "Battery", "prop-value": "5000", "prop-unit": "mAh"},` + "\n")
	b.WriteString(`  {"prop-name": "Screen size", "prop-value": "6.2", "prop-unit": "inch"}` + "\n")
	b.WriteString("]\n\n")
	b.WriteString("Text:\n")
	b.WriteString(text)
	return b.String()
}
