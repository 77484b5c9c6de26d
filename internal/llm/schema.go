package llm

// ProductsEnvelopeSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Only the list shape is enforced; individual items are judged by the normalizer.
func ProductsEnvelopeSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"products"},
		"properties": map[string]any{
			"products": map[string]any{"type": "array"},
		},
	}
}
