package llm

import "strings"

// StripCodeFences removes a Markdown code fence wrapped around content,
// including an optional language tag such as ```json. Content that is not
// fenced on both ends is only trimmed.
func StripCodeFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}

	body := strings.TrimSuffix(s, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.TrimSpace(body[3:nl])
		if !strings.ContainsAny(tag, "{[\" ") {
			body = body[nl+1:]
		} else {
			body = body[3:]
		}
	} else {
		body = body[3:]
	}
	return strings.TrimSpace(body)
}
