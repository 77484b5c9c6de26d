package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// StripCodeFences removes a surrounding ```json ... ``` block if the model added one.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, e.g. "json"
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeProducts turns the model's message content into candidates.
// On failure the returned kind is FailureContent (not a JSON object) or
// FailureProducts (products missing or not a list).
func DecodeProducts(content string) ([]RawCandidate, FailureKind, error) {
	body := StripCodeFences(content)
	if body == "" {
		return nil, FailureContent, errors.New("empty message content")
	}

	// Numbers stay json.Number so one out-of-range price cannot fail the document.
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, FailureContent, fmt.Errorf("decode content: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, FailureContent, errors.New("decode content: trailing data after object")
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, FailureContent, fmt.Errorf("content is %T, want object", doc)
	}
	if err := validateProductsEnvelope(obj); err != nil {
		return nil, FailureProducts, err
	}

	items, _ := obj["products"].([]any)
	out := make([]RawCandidate, 0, len(items))
	for _, it := range items {
		out = append(out, candidateFromItem(it))
	}
	return out, FailureNone, nil
}
