package llm

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a financial transaction classifier. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON."

// buildBatchPrompt renders the catalog and the batch for text-completion
// providers.
func buildBatchPrompt(req Request) string {
	var categories strings.Builder
	for _, c := range req.Categories {
		fmt.Fprintf(&categories, "- %s: %s\n", c.ID, c.Name)
	}

	var items strings.Builder
	for _, item := range req.Batch {
		fmt.Fprintf(&items, "%d: %s\n", item.Index, item.Description)
	}

	return fmt.Sprintf(`Assign each bank transaction below to one of the categories.

Categories (id: name):
%s
Transactions (index: description):
%s
Rules:
- Use only category ids from the list above.
- Classify by what the merchant or payee is, not by guessed intent.
- Leave a transaction out of the results if no category fits.

Respond with JSON of the form:
{"results":[{"index":<index>,"categoryId":"<category id>"}]}`,
		categories.String(),
		items.String())
}
