package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tallyhq/tally/internal/domain/category"
	"github.com/tallyhq/tally/internal/domain/expense"
	"github.com/tallyhq/tally/internal/domain/group"
	"github.com/tallyhq/tally/pkg/money"
)

// Generator is the outbound AI gateway. A single synchronous call, no
// retries; the pipeline treats it as opaque.
type Generator interface {
	Configured() bool
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// CategoryStore is the slice of the category domain the pipeline uses.
type CategoryStore interface {
	List(ctx context.Context, userID uuid.UUID) ([]category.Category, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID, name, icon string) (*category.Category, error)
}

// GroupDirectory resolves the caller's groups. Lookups are scoped to
// the caller's memberships; a group the caller does not belong to is
// indistinguishable from a missing one.
type GroupDirectory interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]group.Stats, error)
	FindByNameForMember(ctx context.Context, userID uuid.UUID, name string) (*group.Group, error)
}

// ExpenseCreator persists expense rows.
type ExpenseCreator interface {
	Create(ctx context.Context, userID uuid.UUID, input expense.CreateInput) (*expense.Expense, error)
}

// Result is what one ingestion call produced. Warnings carry the
// reasons for skipped line items; they never fail the batch.
type Result struct {
	Expenses []expense.Expense
	Warnings []string
	Reply    *Message
}

// Service runs the chat ingestion pipeline.
type Service struct {
	generator  Generator
	categories CategoryStore
	groups     GroupDirectory
	expenses   ExpenseCreator
	history    Repository
	currency   string
	metrics    *Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewService creates a new chat service.
func NewService(
	generator Generator,
	categories CategoryStore,
	groups GroupDirectory,
	expenses ExpenseCreator,
	history Repository,
	currency string,
	metrics *Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		generator:  generator,
		categories: categories,
		groups:     groups,
		expenses:   expenses,
		history:    history,
		currency:   currency,
		metrics:    metrics,
		tracer:     otel.Tracer("tally/chat"),
		logger:     logger,
	}
}

// Ingest takes raw user text, asks the AI to extract expenses from it,
// and persists one expense per valid line item. Gateway and shape
// failures abort with nothing written; invalid individual items are
// skipped with a warning while the rest of the batch proceeds. The user
// message and the assistant reply (or error reply) are appended to the
// chat history either way.
func (s *Service) Ingest(ctx context.Context, userID uuid.UUID, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	ctx, span := s.tracer.Start(ctx, "chat.Ingest")
	defer span.End()

	// The user's message goes into the history first so failed attempts
	// still show up in the conversation.
	if _, err := s.history.Insert(ctx, userID, RoleUser, text, false); err != nil {
		s.metrics.recordOutcome(outcomeError)
		return nil, err
	}

	result, err := s.process(ctx, userID, text)
	if err != nil {
		span.RecordError(err)
		s.metrics.recordOutcome(outcomeFor(err))
		if isRecoverable(err) {
			s.recordReply(ctx, userID, "❌ Sorry, I couldn't process that: "+err.Error(), true)
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("chat.expenses_created", len(result.Expenses)),
		attribute.Int("chat.items_skipped", len(result.Warnings)),
	)
	s.metrics.recordOutcome(outcomeOK)
	s.metrics.recordBatch(len(result.Expenses), len(result.Warnings))

	body, isError := buildReply(result, s.currency)
	result.Reply = s.recordReply(ctx, userID, body, isError)

	s.logger.Info("chat ingestion complete",
		"user_id", userID,
		"created", len(result.Expenses),
		"skipped", len(result.Warnings))
	return result, nil
}

// History returns the user's recent conversation, oldest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]Message, error) {
	return s.history.ListRecent(ctx, userID, HistoryLimit)
}

// Clear wipes the user's conversation.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.history.DeleteAll(ctx, userID)
}

// Enabled reports whether the AI gateway is configured.
func (s *Service) Enabled() bool {
	return s.generator.Configured()
}

// process runs the gateway call and turns its reply into expense rows.
func (s *Service) process(ctx context.Context, userID uuid.UUID, text string) (*Result, error) {
	if !s.generator.Configured() {
		return nil, ErrNotConfigured
	}

	categories, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	groups, err := s.groups.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	prompt := buildPrompt(text, groupNames(groups), categoryContexts(categories))

	gctx, gspan := s.tracer.Start(ctx, "gemini.GenerateContent")
	start := time.Now()
	raw, err := s.generator.GenerateContent(gctx, prompt)
	s.metrics.observeGateway(time.Since(start).Seconds())
	if err != nil {
		gspan.RecordError(err)
		gspan.End()
		s.logger.Warn("gemini call failed", "user_id", userID, "error", err)
		return nil, ErrUnavailable
	}
	gspan.End()

	items, err := parseResponse(raw)
	if err != nil {
		s.logger.Warn("unusable gemini reply", "user_id", userID, "error", err, "reply_chars", len(raw))
		return nil, err
	}

	result := &Result{}
	for i, item := range items {
		created, warning := s.processItem(ctx, userID, i, item, categories)
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
			continue
		}
		result.Expenses = append(result.Expenses, *created)
	}
	return result, nil
}

// processItem validates one line item and persists it. A non-empty
// warning means the item was skipped; the batch carries on.
func (s *Service) processItem(ctx context.Context, userID uuid.UUID, index int, item LineItem, categories []category.Category) (*expense.Expense, string) {
	description := strings.TrimSpace(item.Description)

	amount, err := money.ParsePositive(string(item.Amount), s.currency)
	if err != nil {
		return nil, fmt.Sprintf("skipped %s: %v", itemLabel(index, description), err)
	}
	if description == "" {
		return nil, fmt.Sprintf("skipped %s: description is required", itemLabel(index, description))
	}

	input := expense.CreateInput{
		Description:   description,
		AmountCents:   amount.Cents(),
		SpentOn:       time.Now(),
		IsAIGenerated: true,
	}

	var categoryName, categoryIcon string
	if name := strings.TrimSpace(item.CategoryName); name != "" {
		cat, err := s.resolveCategory(ctx, userID, name, item.SuggestedIcon, categories)
		if err != nil {
			return nil, fmt.Sprintf("skipped %s: %v", itemLabel(index, description), err)
		}
		input.CategoryID = &cat.ID
		categoryName, categoryIcon = cat.Name, cat.Icon
	}

	var groupName string
	if name := strings.TrimSpace(item.GroupName); name != "" {
		if g := s.resolveGroup(ctx, userID, name); g != nil {
			input.GroupID = &g.ID
			groupName = g.Name
		}
	}

	created, err := s.expenses.Create(ctx, userID, input)
	if err != nil {
		s.logger.Warn("failed to store AI expense", "user_id", userID, "description", description, "error", err)
		return nil, fmt.Sprintf("skipped %s: could not be saved", itemLabel(index, description))
	}

	// The repository fills joined names only on reads; fill them from
	// what was just resolved so callers can render the result directly.
	created.CategoryName = categoryName
	created.CategoryIcon = categoryIcon
	created.GroupName = groupName
	return created, ""
}

// resolveCategory matches the AI's category name against the caller's
// categories, creating it when absent. is_new_category in the reply is
// advisory only; the lookup happens regardless, and get-or-create
// resolves races through the storage-level uniqueness.
func (s *Service) resolveCategory(ctx context.Context, userID uuid.UUID, name, icon string, categories []category.Category) (*category.Category, error) {
	for i := range categories {
		if strings.EqualFold(categories[i].Name, name) {
			return &categories[i], nil
		}
	}

	if strings.TrimSpace(icon) == "" {
		icon = category.DefaultIcon
	}
	return s.categories.GetOrCreate(ctx, userID, name, icon)
}

// resolveGroup looks the name up among the caller's groups. No match,
// including a real group the caller is not a member of, leaves the
// expense ungrouped; that is not an error.
func (s *Service) resolveGroup(ctx context.Context, userID uuid.UUID, name string) *group.Group {
	g, err := s.groups.FindByNameForMember(ctx, userID, name)
	if err != nil {
		if errors.Is(err, group.ErrNotFound) {
			s.logger.Debug("AI group name matched nothing", "user_id", userID, "group_name", name)
		} else {
			s.logger.Warn("group lookup failed, leaving expense ungrouped", "user_id", userID, "group_name", name, "error", err)
		}
		return nil
	}
	return g
}

func (s *Service) recordReply(ctx context.Context, userID uuid.UUID, body string, isError bool) *Message {
	reply, err := s.history.Insert(ctx, userID, RoleAssistant, body, isError)
	if err != nil {
		s.logger.Warn("failed to record assistant reply", "user_id", userID, "error", err)
		return nil
	}
	if _, err := s.history.TrimUser(ctx, userID, HistoryLimit); err != nil {
		s.logger.Warn("failed to trim chat history", "user_id", userID, "error", err)
	}
	return reply
}

// buildReply renders the assistant summary for the history, in the
// same shape for one expense, several, or none.
func buildReply(result *Result, currency string) (body string, isError bool) {
	var sb strings.Builder

	switch len(result.Expenses) {
	case 0:
		sb.WriteString("❌ No expenses were added.")
		isError = true
	case 1:
		e := result.Expenses[0]
		sb.WriteString("✅ Added expense: ")
		sb.WriteString(expenseLine(e, currency))
	default:
		fmt.Fprintf(&sb, "✅ Added %d expenses:", len(result.Expenses))
		for _, e := range result.Expenses {
			sb.WriteString("\n• ")
			sb.WriteString(expenseLine(e, currency))
		}
	}

	for _, w := range result.Warnings {
		sb.WriteString("\n⚠️ ")
		sb.WriteString(w)
	}
	return sb.String(), isError
}

func expenseLine(e expense.Expense, currency string) string {
	line := fmt.Sprintf("%s - %s", e.Description, money.FormatCents(e.AmountCents, currency))
	if e.CategoryName != "" {
		line += fmt.Sprintf(" [%s]", e.CategoryName)
	}
	if e.GroupName != "" {
		line += fmt.Sprintf(" [Group: %s]", e.GroupName)
	}
	return line
}

func itemLabel(index int, description string) string {
	if description == "" {
		return fmt.Sprintf("item %d", index+1)
	}
	return fmt.Sprintf("%q", description)
}

// isRecoverable tells failures worth echoing into the conversation
// apart from internal errors, which are not the user's business.
func isRecoverable(err error) bool {
	return errors.Is(err, ErrNotConfigured) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrInvalidResponse) ||
		errors.Is(err, ErrNoExpenses)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return outcomeNotConfigured
	case errors.Is(err, ErrUnavailable):
		return outcomeUnavailable
	case errors.Is(err, ErrInvalidResponse):
		return outcomeInvalidResponse
	case errors.Is(err, ErrNoExpenses):
		return outcomeNoExpenses
	default:
		return outcomeError
	}
}

func groupNames(groups []group.Stats) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return names
}

func categoryContexts(categories []category.Category) []CategoryContext {
	out := make([]CategoryContext, len(categories))
	for i, c := range categories {
		out[i] = CategoryContext{Name: c.Name, Icon: c.Icon}
	}
	return out
}
