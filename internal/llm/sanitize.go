package llm

import "strings"

// ExtractJSONBlock strips a markdown code fence around a JSON payload if
// present. Models occasionally fence their output even when asked for raw
// application/json.
func ExtractJSONBlock(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line ("json", "javascript", ...)
		first := strings.TrimSpace(s[:nl])
		if first == "" || !strings.ContainsAny(first, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
