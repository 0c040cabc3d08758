package usecase

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSON = errors.New("no json payload in model output")

// extractJSONPayload pulls a question list out of free-form model output.
// Code fences are ignored and the outermost {...} or [...] is decoded as a
// bare array or as an object with a "questions" or "question" field.
func extractJSONPayload(raw string) ([]string, error) {
	s := stripFences(raw)
	body, ok := outermost(s)
	if !ok {
		return nil, errNoJSON
	}

	if body[0] == '[' {
		return decodeList([]byte(body))
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, err
	}
	for _, key := range []string{"questions", "question"} {
		v, ok := obj[key]
		if !ok {
			continue
		}
		var one string
		if json.Unmarshal(v, &one) == nil {
			return clean([]string{one}), nil
		}
		return decodeList(v)
	}
	return nil, errNoJSON
}

// decodeList accepts ["..."] and [{"question": "..."}] shapes.
func decodeList(b []byte) ([]string, error) {
	var plain []string
	if err := json.Unmarshal(b, &plain); err == nil {
		return clean(plain), nil
	}
	var objs []struct {
		Question string `json:"question"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(b, &objs); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		if o.Question != "" {
			out = append(out, o.Question)
		} else {
			out = append(out, o.Text)
		}
	}
	return clean(out), nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// outermost returns the span from the first opening bracket to its matching
// last closing bracket of the same kind.
func outermost(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func clean(qs []string) []string {
	out := make([]string, 0, len(qs))
	seen := make(map[string]struct{}, len(qs))
	for _, q := range qs {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
