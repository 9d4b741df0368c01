package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// cleanMarkdownWrapper strips code fences and any prose around the first
// JSON object in a model reply.
func cleanMarkdownWrapper(content string) string {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		s = s[start : end+1]
	}
	return s
}

// parseBatchResults decodes {"results":[...]} from model text. Entries with
// an empty category id are dropped here; range and catalog checks are the
// caller's job.
func parseBatchResults(content string) ([]Result, error) {
	var payload struct {
		Results []struct {
			Index      *int   `json:"index"`
			CategoryID string `json:"categoryId"`
		} `json:"results"`
	}

	cleaned := cleanMarkdownWrapper(content)
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	results := make([]Result, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.Index == nil || strings.TrimSpace(r.CategoryID) == "" {
			continue
		}
		results = append(results, Result{Index: *r.Index, CategoryID: strings.TrimSpace(r.CategoryID)})
	}
	return results, nil
}
