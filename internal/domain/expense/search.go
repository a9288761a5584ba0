package expense

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
)

// searchDocument is the indexed slice of an expense
type searchDocument struct {
	Description string `json:"description"`
	UserID      string `json:"user_id"`
}

// SearchIndex is an in-memory full-text index over expense descriptions.
// It is rebuilt from the database at startup and kept in step on every
// create, update, and delete. Queries tolerate a typo or two and only
// ever return the caller's own expenses.
type SearchIndex struct {
	index bleve.Index
	mu    sync.RWMutex
}

// NewSearchIndex creates an empty in-memory index
func NewSearchIndex() (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &SearchIndex{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("user_id", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// Rebuild replaces the index contents with the given entries in one batch.
func (si *SearchIndex) Rebuild(entries []IndexEntry) error {
	si.mu.Lock()
	defer si.mu.Unlock()

	batch := si.index.NewBatch()
	for _, e := range entries {
		doc := searchDocument{Description: e.Description, UserID: e.UserID.String()}
		if err := batch.Index(e.ID.String(), doc); err != nil {
			return fmt.Errorf("failed to index expense %s: %w", e.ID, err)
		}
	}
	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Index adds or updates a single expense
func (si *SearchIndex) Index(entry IndexEntry) error {
	si.mu.Lock()
	defer si.mu.Unlock()

	doc := searchDocument{Description: entry.Description, UserID: entry.UserID.String()}
	return si.index.Index(entry.ID.String(), doc)
}

// Remove drops an expense from the index
func (si *SearchIndex) Remove(id uuid.UUID) error {
	si.mu.Lock()
	defer si.mu.Unlock()

	return si.index.Delete(id.String())
}

// Search returns the IDs of the user's expenses whose description matches
// the query, best score first. Fuzziness covers typos.
func (si *SearchIndex) Search(ctx context.Context, userID uuid.UUID, query string) ([]uuid.UUID, error) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("description")
	matchQuery.SetFuzziness(fuzzinessFor(query))

	ownerQuery := bleve.NewTermQuery(userID.String())
	ownerQuery.SetField("user_id")

	searchRequest := bleve.NewSearchRequest(bleve.NewConjunctionQuery(ownerQuery, matchQuery))
	searchRequest.Size = 500

	searchResults, err := si.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// fuzzinessFor scales typo tolerance with query length. Short queries
// allow one edit, longer ones two. Two is bleve's maximum.
func fuzzinessFor(query string) int {
	if len(query) > 5 {
		return 2
	}
	return 1
}

// DocumentCount returns the number of indexed expenses
func (si *SearchIndex) DocumentCount() (uint64, error) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	return si.index.DocCount()
}

// Close closes the index
func (si *SearchIndex) Close() error {
	si.mu.Lock()
	defer si.mu.Unlock()

	if si.index != nil {
		return si.index.Close()
	}
	return nil
}
