package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// RepairStage identifies which step of the repair pipeline produced a value.
type RepairStage int

const (
	StageNone RepairStage = iota
	StageStrict
	StageSliced
	StagePermissive
)

func (s RepairStage) String() string {
	switch s {
	case StageStrict:
		return "strict"
	case StageSliced:
		return "sliced"
	case StagePermissive:
		return "permissive"
	default:
		return "none"
	}
}

// Repair extracts a JSON object carrying schema.Key out of free-form model
// output. The stages run in order and the first candidate that has the key
// and validates against the schema wins:
//
//  1. strip reasoning blocks, parse each markdown fence body strictly (or
//     the whole reply when it has no fences)
//  2. drop the fence markers and parse the span from the first '{' to the
//     last '}'
//  3. parse that span permissively (single quotes, Python literals)
//
// The returned JSON is compact. All failures are *ErrInvalidResponse.
func Repair(text string, schema *Schema) (json.RawMessage, RepairStage, error) {
	body := stripReasoning(text)

	var err1 error
	for _, candidate := range strictCandidates(body) {
		raw, err := acceptCandidate([]byte(candidate), schema)
		if err == nil {
			return raw, StageStrict, nil
		}
		if err1 == nil {
			err1 = err
		}
	}

	span := strings.TrimSpace(stripFenceMarkers(body))
	if start, end := strings.Index(span, "{"), strings.LastIndex(span, "}"); start >= 0 && end > start {
		span = span[start : end+1]
	}

	raw, err2 := acceptCandidate([]byte(span), schema)
	if err2 == nil {
		return raw, StageSliced, nil
	}

	loose, err3 := parsePermissive(span)
	if err3 == nil {
		raw, err3 = acceptCandidate(loose, schema)
		if err3 == nil {
			return raw, StagePermissive, nil
		}
	}

	return nil, StageNone, &ErrInvalidResponse{
		Content: text,
		Err: errors.Join(
			fmt.Errorf("strict: %w", err1),
			fmt.Errorf("sliced: %w", err2),
			fmt.Errorf("permissive: %w", err3),
		),
	}
}

// acceptCandidate checks that raw is a JSON object with the schema's key
// and that it validates.
func acceptCandidate(raw []byte, schema *Schema) (json.RawMessage, error) {
	if !json.Valid(raw) {
		return nil, errors.New("not valid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, errors.New("top-level value is not an object")
	}
	if schema == nil {
		return compact(raw)
	}
	if schema.Key != "" && !doc.Get(gjson.Escape(schema.Key)).Exists() {
		return nil, fmt.Errorf("missing required key %q", schema.Key)
	}
	if err := validateResponse(schema, raw); err != nil {
		return nil, err
	}
	return compact(raw)
}

func compact(raw []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

// stripReasoning drops <think>...</think> blocks emitted by reasoning models.
func stripReasoning(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start < 0 {
			return s
		}
		end := strings.Index(s[start:], "</think>")
		if end < 0 {
			return s[:start]
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
}

const fence = "```"

// strictCandidates returns the bodies of all markdown code fences in order,
// or the trimmed input when there is none.
func strictCandidates(s string) []string {
	var bodies []string
	for {
		open := strings.Index(s, fence)
		if open < 0 {
			break
		}
		body := s[open+len(fence):]
		// Skip the language tag line, e.g. "json".
		if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
			body = body[nl+1:]
		}
		end := strings.Index(body, fence)
		if end < 0 {
			bodies = append(bodies, strings.TrimSpace(body))
			break
		}
		bodies = append(bodies, strings.TrimSpace(body[:end]))
		s = body[end+len(fence):]
	}
	if len(bodies) == 0 {
		return []string{strings.TrimSpace(s)}
	}
	return bodies
}

// stripFenceMarkers removes every fence marker together with a directly
// following language tag and keeps the text around them.
func stripFenceMarkers(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for {
		i := strings.Index(s, fence)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i+len(fence):]
		j := 0
		for j < len(s) && isIdentByte(s[j]) {
			j++
		}
		s = s[j:]
	}
}

// parsePermissive reads object literals written with single-quoted strings
// and Python-style True/False/None, and re-encodes them as JSON. YAML flow
// syntax covers single-quoted strings, so the text is normalized to valid
// YAML flow style and decoded with yaml.v3.
func parsePermissive(s string) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal([]byte(normalizeLiterals(s)), &v); err != nil {
		return nil, fmt.Errorf("permissive parse: %w", err)
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, errors.New("permissive parse: not an object")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("permissive parse: %w", err)
	}
	return out, nil
}

// normalizeLiterals rewrites the constructs YAML does not share with
// Python literals: backslash-escaped single quotes inside single-quoted
// strings and the bare words True, False and None.
func normalizeLiterals(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var quote byte // 0 outside strings, otherwise the opening quote
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote == '\'':
			if c == '\\' && i+1 < len(s) && s[i+1] == '\'' {
				b.WriteString("''")
				i++
				continue
			}
			if c == '\'' {
				quote = 0
			}
			b.WriteByte(c)
		case quote == '"':
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(c)
				b.WriteByte(s[i+1])
				i++
				continue
			}
			if c == '"' {
				quote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			b.WriteByte(c)
		default:
			if word, repl, ok := pythonWord(s, i); ok {
				b.WriteString(repl)
				i += len(word) - 1
				continue
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

var pythonWords = []struct{ word, repl string }{
	{"True", "true"},
	{"False", "false"},
	{"None", "null"},
}

func pythonWord(s string, i int) (string, string, bool) {
	if i > 0 && isIdentByte(s[i-1]) {
		return "", "", false
	}
	for _, w := range pythonWords {
		if strings.HasPrefix(s[i:], w.word) {
			end := i + len(w.word)
			if end < len(s) && isIdentByte(s[end]) {
				continue
			}
			return w.word, w.repl, true
		}
	}
	return "", "", false
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
