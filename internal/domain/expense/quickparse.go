package expense

import (
	"regexp"
	"strings"

	"github.com/tallyhq/tally/pkg/money"
)

// Matches amounts with an optional currency token on either side:
// "4.50", "$4.50", "12,80€", "25 EUR".
var quickAmountRegex = regexp.MustCompile(`(?:(\$|€|£|USD|EUR|GBP)\s*)?(\d+(?:[.,]\d{1,2})?)\s*(\$|€|£|USD|EUR|GBP)?`)

// QuickParse extracts a description and an amount in cents from free text
// like "Coffee 4.50", for prefilling the expense form. The last number in
// the text is taken as the amount; a comma decimal separator is accepted.
// No amount found means cents is 0 and the whole text is the description.
func QuickParse(text string) (string, int64) {
	matches := quickAmountRegex.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return cleanQuickDescription(text), 0
	}

	match := matches[len(matches)-1]
	amountStr := text[match[4]:match[5]]
	amountStr = strings.Replace(amountStr, ",", ".", 1)

	amount, err := money.Parse(amountStr, money.DefaultCurrency)
	if err != nil {
		return cleanQuickDescription(text), 0
	}

	description := text[:match[0]] + text[match[1]:]
	return cleanQuickDescription(description), amount.Cents()
}

// cleanQuickDescription collapses whitespace and capitalizes the first
// letter, matching what the form would show for hand-typed input.
func cleanQuickDescription(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 0 {
		s = strings.ToUpper(s[:1]) + s[1:]
	}
	return s
}
