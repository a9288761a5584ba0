package expense

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/domain/category"
	"github.com/tallyhq/tally/internal/domain/group"
	"github.com/tallyhq/tally/pkg/money"
	"github.com/tallyhq/tally/pkg/storage"
)

// CategoryGetter is the slice of the category domain used for ownership
// checks on writes.
type CategoryGetter interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*category.Category, error)
}

// GroupGetter verifies group membership for group-tagged expenses.
type GroupGetter interface {
	GetForMember(ctx context.Context, userID, groupID uuid.UUID) (*group.Group, error)
}

// ReceiptUpload carries an uploaded receipt image into the service
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// CreateInput holds the fields for a new expense
type CreateInput struct {
	Description   string
	AmountCents   int64
	SpentOn       time.Time
	CategoryID    *uuid.UUID
	GroupID       *uuid.UUID
	IsAIGenerated bool
	Receipt       *ReceiptUpload
}

// UpdateInput replaces the editable fields of an expense
type UpdateInput struct {
	Description string
	AmountCents int64
	SpentOn     time.Time
	CategoryID  *uuid.UUID
	GroupID     *uuid.UUID
	Receipt     *ReceiptUpload
}

// Page is one page of a filtered expense list
type Page struct {
	Expenses []Expense
	Total    int64
}

// Service contains the business logic for expenses
type Service struct {
	repo       Repository
	categories CategoryGetter
	groups     GroupGetter
	files      storage.Storage
	search     *SearchIndex
	logger     *slog.Logger
}

// NewService creates a new expense service
func NewService(repo Repository, categories CategoryGetter, groups GroupGetter, files storage.Storage, search *SearchIndex, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		groups:     groups,
		files:      files,
		search:     search,
		logger:     logger,
	}
}

// Create records a new expense for the user. The amount must be positive,
// and any referenced category or group must belong to the user.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*Expense, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if input.AmountCents <= 0 {
		return nil, money.ErrNotPositive
	}
	if err := s.checkOwnership(ctx, userID, input.CategoryID, input.GroupID); err != nil {
		return nil, err
	}

	spentOn := input.SpentOn
	if spentOn.IsZero() {
		spentOn = time.Now()
	}

	e := &Expense{
		UserID:        userID,
		CategoryID:    input.CategoryID,
		GroupID:       input.GroupID,
		Description:   description,
		AmountCents:   input.AmountCents,
		SpentOn:       spentOn,
		IsAIGenerated: input.IsAIGenerated,
	}

	if input.Receipt != nil {
		info, err := s.files.Upload(ctx, userID, input.Receipt.Filename, input.Receipt.ContentType, input.Receipt.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store receipt: %w", err)
		}
		e.ReceiptFileID = &info.ID
	}

	created, err := s.repo.Create(ctx, e)
	if err != nil {
		if e.ReceiptFileID != nil {
			if delErr := s.files.Delete(ctx, userID, *e.ReceiptFileID); delErr != nil {
				s.logger.Warn("failed to clean up orphaned receipt", "file_id", *e.ReceiptFileID, "error", delErr)
			}
		}
		return nil, err
	}

	s.indexExpense(created)
	s.logger.Info("expense created",
		"expense_id", created.ID, "user_id", userID,
		"amount_cents", created.AmountCents, "ai_generated", created.IsAIGenerated)
	return created, nil
}

// GetByID returns one of the user's expenses
func (s *Service) GetByID(ctx context.Context, userID, id uuid.UUID) (*Expense, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Update replaces the editable fields of an expense. A new receipt
// replaces the stored one.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*Expense, error) {
	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if input.AmountCents <= 0 {
		return nil, money.ErrNotPositive
	}
	if err := s.checkOwnership(ctx, userID, input.CategoryID, input.GroupID); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Description = description
	updated.AmountCents = input.AmountCents
	updated.CategoryID = input.CategoryID
	updated.GroupID = input.GroupID
	if !input.SpentOn.IsZero() {
		updated.SpentOn = input.SpentOn
	}

	var oldReceipt *uuid.UUID
	if input.Receipt != nil {
		info, err := s.files.Upload(ctx, userID, input.Receipt.Filename, input.Receipt.ContentType, input.Receipt.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store receipt: %w", err)
		}
		oldReceipt = existing.ReceiptFileID
		updated.ReceiptFileID = &info.ID
	}

	result, err := s.repo.Update(ctx, &updated)
	if err != nil {
		if input.Receipt != nil && updated.ReceiptFileID != nil {
			if delErr := s.files.Delete(ctx, userID, *updated.ReceiptFileID); delErr != nil {
				s.logger.Warn("failed to clean up orphaned receipt", "file_id", *updated.ReceiptFileID, "error", delErr)
			}
		}
		return nil, err
	}

	if oldReceipt != nil {
		if err := s.files.Delete(ctx, userID, *oldReceipt); err != nil {
			s.logger.Warn("failed to remove replaced receipt", "file_id", *oldReceipt, "error", err)
		}
	}

	s.indexExpense(result)
	return result, nil
}

// Delete removes an expense and its stored receipt
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	if existing.ReceiptFileID != nil {
		if err := s.files.Delete(ctx, userID, *existing.ReceiptFileID); err != nil {
			s.logger.Warn("failed to remove receipt of deleted expense", "file_id", *existing.ReceiptFileID, "error", err)
		}
	}
	if err := s.search.Remove(id); err != nil {
		s.logger.Warn("failed to deindex expense", "expense_id", id, "error", err)
	}

	s.logger.Info("expense deleted", "expense_id", id, "user_id", userID)
	return nil
}

// List returns the user's expenses narrowed by the filter. A free-text
// query is resolved through the search index first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Expense, error) {
	empty, err := s.resolveQuery(ctx, userID, &f)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, nil
	}
	return s.repo.List(ctx, userID, f)
}

// ListPage is List plus the total row count for pagination
func (s *Service) ListPage(ctx context.Context, userID uuid.UUID, f Filter) (*Page, error) {
	empty, err := s.resolveQuery(ctx, userID, &f)
	if err != nil {
		return nil, err
	}
	if empty {
		return &Page{}, nil
	}

	expenses, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	return &Page{Expenses: expenses, Total: total}, nil
}

// ListForGroup returns a group's expenses to one of its members
func (s *Service) ListForGroup(ctx context.Context, userID, groupID uuid.UUID) ([]Expense, error) {
	if _, err := s.groups.GetForMember(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListForGroup(ctx, groupID)
}

// Dashboard aggregates the user's spending for the landing page
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error) {
	return s.repo.DashboardSummary(ctx, userID)
}

// Receipt streams a stored receipt image back to its owner
func (s *Service) Receipt(ctx context.Context, userID, fileID uuid.UUID) (io.ReadCloser, *storage.FileInfo, error) {
	return s.files.Download(ctx, userID, fileID)
}

// ExportCSV writes the filtered expenses as CSV
func (s *Service) ExportCSV(ctx context.Context, userID uuid.UUID, f Filter, w io.Writer) error {
	f.Limit = 0
	expenses, err := s.List(ctx, userID, f)
	if err != nil {
		return err
	}
	return WriteCSV(w, expenses)
}

// ExportXLSX writes the filtered expenses as an Excel workbook
func (s *Service) ExportXLSX(ctx context.Context, userID uuid.UUID, f Filter, w io.Writer) error {
	f.Limit = 0
	expenses, err := s.List(ctx, userID, f)
	if err != nil {
		return err
	}
	return WriteXLSX(w, expenses)
}

// RebuildSearchIndex loads every expense into the search index. Called
// once at startup; the index lives in memory only.
func (s *Service) RebuildSearchIndex(ctx context.Context) error {
	entries, err := s.repo.IndexEntries(ctx)
	if err != nil {
		return err
	}
	if err := s.search.Rebuild(entries); err != nil {
		return err
	}
	s.logger.Info("search index rebuilt", "documents", len(entries))
	return nil
}

func (s *Service) checkOwnership(ctx context.Context, userID uuid.UUID, categoryID, groupID *uuid.UUID) error {
	if categoryID != nil {
		if _, err := s.categories.Get(ctx, userID, *categoryID); err != nil {
			return fmt.Errorf("category: %w", err)
		}
	}
	if groupID != nil {
		if _, err := s.groups.GetForMember(ctx, userID, *groupID); err != nil {
			return fmt.Errorf("group: %w", err)
		}
	}
	return nil
}

// resolveQuery turns Filter.Query into Filter.IDs via the search index.
// Reports true when the query matched nothing, so callers can skip the
// database entirely.
func (s *Service) resolveQuery(ctx context.Context, userID uuid.UUID, f *Filter) (bool, error) {
	q := strings.TrimSpace(f.Query)
	if q == "" {
		return false, nil
	}
	ids, err := s.search.Search(ctx, userID, q)
	if err != nil {
		return false, err
	}
	if len(ids) == 0 {
		return true, nil
	}
	f.IDs = ids
	return false, nil
}

func (s *Service) indexExpense(e *Expense) {
	err := s.search.Index(IndexEntry{ID: e.ID, UserID: e.UserID, Description: e.Description})
	if err != nil {
		s.logger.Warn("failed to index expense", "expense_id", e.ID, "error", err)
	}
}
