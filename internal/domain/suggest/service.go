package suggest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/tallyhq/tally/internal/domain/category"
)

// Source says which matcher produced a suggestion
type Source string

const (
	SourceKeyword Source = "keyword"
	SourceFuzzy   Source = "fuzzy"
)

// Suggestion is a proposed category for a description. CategoryID is nil
// when the keyword table proposes a category the user does not have yet.
type Suggestion struct {
	CategoryID *uuid.UUID
	Name       string
	Icon       string
	Source     Source
}

// CategoryLister is the slice of the category domain the service reads
type CategoryLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]category.Category, error)
}

// Similarity scores run 0 to 100; anything below this is noise.
const fuzzyThreshold = 70

// Service ranks category suggestions for the expense form
type Service struct {
	engine     *Engine
	categories CategoryLister
	logger     *slog.Logger
}

// NewService creates a new suggestion service
func NewService(engine *Engine, categories CategoryLister, logger *slog.Logger) *Service {
	return &Service{engine: engine, categories: categories, logger: logger}
}

// Suggest returns the best category for the text, or nil when neither the
// keyword table nor a fuzzy pass over the user's categories clears the
// threshold.
func (s *Service) Suggest(ctx context.Context, userID uuid.UUID, text string) (*Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	categories, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	if m := s.engine.Match(text); m != nil {
		suggestion := &Suggestion{Name: m.Category, Icon: m.Icon, Source: SourceKeyword}
		// Prefer the user's own spelling and icon when the category exists.
		for i := range categories {
			if strings.EqualFold(categories[i].Name, m.Category) {
				id := categories[i].ID
				suggestion.CategoryID = &id
				suggestion.Name = categories[i].Name
				suggestion.Icon = categories[i].Icon
				break
			}
		}
		return suggestion, nil
	}

	return s.fuzzyMatch(text, categories), nil
}

func (s *Service) fuzzyMatch(text string, categories []category.Category) *Suggestion {
	normalized := strings.ToUpper(text)
	tokens := strings.Fields(normalized)

	var best *Suggestion
	bestScore := fuzzyThreshold - 1
	for i := range categories {
		name := strings.ToUpper(categories[i].Name)

		score := similarity(normalized, name)
		for _, token := range tokens {
			if tokenScore := similarity(token, name); tokenScore > score {
				score = tokenScore
			}
		}

		if score > bestScore {
			bestScore = score
			id := categories[i].ID
			best = &Suggestion{
				CategoryID: &id,
				Name:       categories[i].Name,
				Icon:       categories[i].Icon,
				Source:     SourceFuzzy,
			}
		}
	}

	if best != nil {
		s.logger.Debug("fuzzy category suggestion", "text", text, "category", best.Name, "score", bestScore)
	}
	return best
}

// similarity scores two uppercase strings 0 to 100. Exact and containment
// matches score high; otherwise the score falls out of the Levenshtein
// distance, with a floor for subsequence matches.
func similarity(a, b string) int {
	if a == b {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if strings.Contains(a, b) {
		return 75 + 25*len(b)/len(a)
	}
	if strings.Contains(b, a) {
		return 75 + 25*len(a)/len(b)
	}

	distance := fuzzy.LevenshteinDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	score := 100 * (maxLen - distance) / maxLen

	if score < 60 && fuzzy.Match(a, b) {
		score = 60
	}
	return score
}
