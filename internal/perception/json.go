package perception

import "strings"

// extractJSON finds the last complete JSON object in a model response.
// It tolerates markdown wrappers, prose preambles, and trailing commentary.
func extractJSON(response string) string {
	cleaned := stripMarkdownCodeFences(response)
	cleaned = stripLineComments(cleaned)

	var best string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(cleaned); i++ {
		ch := cleaned[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					best = cleaned[start : i+1]
				}
			}
		}
	}

	return best
}

// stripMarkdownCodeFences removes a ```lang ... ``` wrapper if present.
// The language tag is optional.
func stripMarkdownCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	firstNewline := strings.Index(trimmed, "\n")
	if firstNewline == -1 {
		return trimmed
	}
	lastFence := strings.LastIndex(trimmed, "```")
	if lastFence <= firstNewline {
		return trimmed
	}
	return strings.TrimSpace(trimmed[firstNewline+1 : lastFence])
}

// stripLineComments drops // comment remnants some models append to JSON.
// Slashes inside string literals are preserved.
func stripLineComments(s string) string {
	var sb strings.Builder
	for _, line := range strings.Split(s, "\n") {
		inString := false
		escaped := false
		cut := len(line)
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			if ch == '"' {
				inString = true
				continue
			}
			if ch == '/' && i+1 < len(line) && line[i+1] == '/' {
				cut = i
				break
			}
		}
		sb.WriteString(strings.TrimRight(line[:cut], " \t"))
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
