// Package classify defines the news-classification domain model: the articles
// submitted for analysis, the structured result produced by the model, and the
// per-item outcome reported to the caller.
package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Article is one unit of work: a document to classify. The ID is
// caller-supplied and must be unique within a run; it is the identity that
// survives the round trip through the batch service.
type Article struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"contents"`
}

// Validate reports whether the article can be submitted.
func (a Article) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("article has no id")
	}
	if strings.TrimSpace(a.Content) == "" {
		return fmt.Errorf("article %s has empty content", a.ID)
	}
	return nil
}

// LoadArticles reads a JSON file containing an array of articles. Items
// without an explicit id are assigned a positional one so no item can be
// silently lost later.
func LoadArticles(path string) ([]Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read articles file: %w", err)
	}

	var items []Article
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse articles file %s: %w", path, err)
	}

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("item_%d", i)
		}
	}
	return items, nil
}

// OutcomeState labels the final disposition of one article.
type OutcomeState string

// Final per-item states. Every submitted article ends in exactly one.
const (
	OutcomeSucceeded    OutcomeState = "succeeded"
	OutcomeFailed       OutcomeState = "failed"
	OutcomeNotSubmitted OutcomeState = "not_submitted"
)

// ItemOutcome is the per-article line in the final report: either a result,
// or the reason there is none. Articles never disappear silently.
type ItemOutcome struct {
	ItemID string       `json:"item_id"`
	State  OutcomeState `json:"state"`
	Result *Result      `json:"result,omitempty"`
	Reason string       `json:"reason,omitempty"`
}
