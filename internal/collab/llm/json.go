package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSON unmarshals a model reply into target. Replies wrapped in a
// markdown fence or surrounded by prose are accepted as long as one
// object or array can be cut out of them.
func DecodeJSON(reply string, target any) error {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return errors.New("llm: empty reply")
	}
	var first error
	for _, candidate := range jsonCandidates(reply) {
		err := json.Unmarshal([]byte(candidate), target)
		if err == nil {
			return nil
		}
		if first == nil {
			first = err
		}
	}
	return fmt.Errorf("llm: reply is not JSON (%v): %s", first, preview(reply, 160))
}

// jsonCandidates lists progressively looser readings of reply, deduplicated.
func jsonCandidates(reply string) []string {
	out := []string{reply}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	unfenced := unfence(reply)
	add(unfenced)
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(unfenced, pair[0])
		end := strings.LastIndex(unfenced, pair[1])
		if start >= 0 && end > start {
			add(unfenced[start : end+1])
		}
	}
	return out
}

// unfence strips a ```json ... ``` wrapper.
func unfence(s string) string {
	body, ok := strings.CutPrefix(s, "```")
	if !ok {
		return s
	}
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	body, _, _ = strings.Cut(body, "```")
	return strings.TrimSpace(body)
}

func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
