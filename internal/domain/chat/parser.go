package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LineItem is one expense entry in the AI reply. Amount arrives as a
// string in the requested shape, but models occasionally emit a bare
// number; flexString accepts both. Null group_name and suggested_icon
// decode to empty strings.
type LineItem struct {
	Amount        flexString `json:"amount"`
	Description   string     `json:"description"`
	CategoryName  string     `json:"category_name"`
	GroupName     string     `json:"group_name"`
	IsNewCategory bool       `json:"is_new_category"`
	SuggestedIcon string     `json:"suggested_icon"`
}

type parsedResponse struct {
	Expenses []LineItem `json:"expenses"`
}

// flexString is a string that also accepts JSON numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// parseResponse validates the AI reply against the expected shape and
// returns its line items. A reply that is not JSON, or that lacks an
// expenses array, fails as a whole; an empty array is ErrNoExpenses.
func parseResponse(text string) ([]LineItem, error) {
	text = stripFences(text)
	if text == "" {
		return nil, ErrInvalidResponse
	}

	var parsed parsedResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if parsed.Expenses == nil {
		return nil, fmt.Errorf("%w: missing expenses array", ErrInvalidResponse)
	}
	if len(parsed.Expenses) == 0 {
		return nil, ErrNoExpenses
	}
	return parsed.Expenses, nil
}

// stripFences removes a surrounding markdown code block. Models often
// wrap the JSON in ```json fences despite being told not to.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
