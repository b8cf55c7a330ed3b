package classify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// noValue marks summaries the model could not produce (non-news content or
// truncated output).
const noValue = "No Value"

// minSummaryLength is the shortest summary accepted as meaningful.
const minSummaryLength = 20

// Result is the structured classification of one article.
type Result struct {
	PageTitle      string   `json:"page_title"`
	IsNews         bool     `json:"is_news"`
	IsFinancial    bool     `json:"is_financial"`
	Country        []string `json:"country"`
	Sector         []string `json:"sector"`
	Companies      []string `json:"companies"`
	ConfidentScore float64  `json:"confident_score"`
	Sentiment      string   `json:"sentiment"`
	SummaryEN      string   `json:"summary_en"`
	SummaryTR      string   `json:"summary_tr"`
}

// rawResult mirrors Result with loose field types, because the model emits
// booleans as Yes/No strings, scores as strings, and lists as null.
type rawResult struct {
	PageTitle      string          `json:"page_title"`
	IsNews         json.RawMessage `json:"is_news"`
	IsFinancial    json.RawMessage `json:"is_financial"`
	Country        []string        `json:"country"`
	Sector         []string        `json:"sector"`
	Companies      []string        `json:"companies"`
	ConfidentScore json.RawMessage `json:"confident_score"`
	Sentiment      string          `json:"sentiment"`
	SummaryEN      string          `json:"summary_en"`
	SummaryTR      string          `json:"summary_tr"`
}

// DecodeResult parses the model's JSON payload into a Result, normalizing the
// loose shapes the model is known to produce. It fails only when the payload
// is not a JSON object or the confidence score is absent or non-numeric.
func DecodeResult(data []byte) (*Result, error) {
	var raw rawResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode classification payload: %w", err)
	}

	score, err := decodeScore(raw.ConfidentScore)
	if err != nil {
		return nil, err
	}

	r := &Result{
		PageTitle:      strings.TrimSpace(raw.PageTitle),
		IsNews:         decodeBool(raw.IsNews),
		IsFinancial:    decodeBool(raw.IsFinancial),
		Country:        nonNil(raw.Country),
		Sector:         nonNil(raw.Sector),
		Companies:      nonNil(raw.Companies),
		ConfidentScore: score,
		Sentiment:      normalizeSentiment(raw.Sentiment),
		SummaryEN:      normalizeSummary(raw.SummaryEN),
		SummaryTR:      normalizeSummary(raw.SummaryTR),
	}
	return r, nil
}

// decodeBool accepts true/false, "Yes"/"No", "true"/"false", and "1"/"0".
func decodeBool(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "true", "1":
			return true
		}
	}
	return false
}

// decodeScore accepts a JSON number or a numeric string and clamps the
// result to the documented 0..10 range.
func decodeScore(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("confident_score is required")
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("confident_score has unsupported type: %s", string(raw))
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("confident_score is not numeric: %q", s)
		}
		f = parsed
	}

	if f < 0 {
		f = 0
	}
	if f > 10 {
		f = 10
	}
	return f, nil
}

// normalizeSentiment maps model output onto the three canonical labels,
// defaulting to Neutral for anything unrecognized.
func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return "Positive"
	case "negative":
		return "Negative"
	default:
		return "Neutral"
	}
}

// normalizeSummary rejects short or truncated summaries and completes the
// final sentence when the model stopped without punctuation.
func normalizeSummary(s string) string {
	s = strings.TrimSpace(s)
	if s == noValue {
		return s
	}
	if len(s) < minSummaryLength {
		return noValue
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
