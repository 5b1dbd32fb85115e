package llm

import (
	"errors"
	"strings"
)

var ErrNoJSONObject = errors.New("no JSON object in completion")

// ExtractJSONObject recovers a JSON object from a chat completion: markdown
// code fences are stripped and the outermost {...} span is returned.
func ExtractJSONObject(content string) ([]byte, error) {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return nil, ErrNoJSONObject
	}
	return []byte(s[start : end+1]), nil
}
