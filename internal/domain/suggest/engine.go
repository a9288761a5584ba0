// Package suggest proposes a category for free-text expense descriptions.
// A built-in keyword table covers common merchants and spending words; a
// fuzzy pass against the user's own category names catches typos.
package suggest

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// KeywordMatch is a keyword-table hit
type KeywordMatch struct {
	Keyword  string
	Category string
	Icon     string
}

// Engine matches descriptions against the keyword table in a single pass
// using Aho-Corasick. Matching is case-insensitive; hits must fall on word
// boundaries so "vegas" never reads as GAS.
type Engine struct {
	matcher *ahocorasick.Matcher
	rules   []keywordRule
}

// NewEngine builds the matcher from the built-in keyword table
func NewEngine() *Engine {
	patterns := make([]string, len(builtinKeywords))
	for i, rule := range builtinKeywords {
		patterns[i] = rule.Keyword
	}
	return &Engine{
		matcher: ahocorasick.NewStringMatcher(patterns),
		rules:   builtinKeywords,
	}
}

// Match returns the keyword rule whose hit starts earliest in the text,
// preferring the longer keyword on a tie. The earliest token is usually
// the merchant ("uber to airport" reads as Uber, not an airport). Returns
// nil when nothing matches.
func (e *Engine) Match(text string) *KeywordMatch {
	normalized := strings.ToUpper(text)
	hits := e.matcher.Match([]byte(normalized))
	if len(hits) == 0 {
		return nil
	}

	var best *KeywordMatch
	bestPos, bestLen := -1, 0
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.rules) {
			continue
		}
		rule := e.rules[idx]
		pos, ok := wordIndex(normalized, rule.Keyword)
		if !ok {
			continue
		}
		if best == nil || pos < bestPos || (pos == bestPos && len(rule.Keyword) > bestLen) {
			best = &KeywordMatch{Keyword: rule.Keyword, Category: rule.Category, Icon: rule.Icon}
			bestPos, bestLen = pos, len(rule.Keyword)
		}
	}
	return best
}

// wordIndex finds word (uppercase ASCII) in text at a word boundary and
// returns its position.
func wordIndex(text, word string) (int, bool) {
	for start := 0; start <= len(text)-len(word); {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return 0, false
		}
		i += start
		end := i + len(word)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return i, true
		}
		start = i + 1
	}
	return 0, false
}

func isWordByte(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
