package classify

// SystemPrompt is the fixed instruction attached to every batch request.
func SystemPrompt() string {
	return `Analyze financial news. Return structured JSON:

1. News: Yes/No
2. Financial: Yes/No
3. Country: List of countries mentioned
4. Sectors: List (Technology, Banking, Energy, etc.)
5. Companies: List all companies/indices mentioned
6. Sentiment: Positive/Neutral/Negative
7. Confidence: Float 0.0-10.0
8. Summary EN: 2-3 sentences
9. Summary TR: 2-3 sentences (Turkish)

Be concise and accurate.`
}

// ResponseSchema is the JSON schema the service enforces on model output, so
// reconciliation receives well-formed objects rather than free text.
func ResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page_title":      map[string]any{"type": "string"},
			"is_news":         map[string]any{"type": "string", "enum": []string{"Yes", "No"}},
			"is_financial":    map[string]any{"type": "string", "enum": []string{"Yes", "No"}},
			"country":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"sector":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"companies":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"confident_score": map[string]any{"type": "number"},
			"sentiment":       map[string]any{"type": "string", "enum": []string{"Positive", "Neutral", "Negative"}},
			"summary_en":      map[string]any{"type": "string"},
			"summary_tr":      map[string]any{"type": "string"},
		},
		"required": []string{
			"is_news", "is_financial", "sector", "companies", "sentiment",
			"summary_en", "summary_tr", "confident_score",
		},
	}
}
