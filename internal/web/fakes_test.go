package web

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/domain/auth/common"
	"github.com/tallyhq/tally/internal/domain/auth/repository"
	"github.com/tallyhq/tally/internal/domain/category"
	"github.com/tallyhq/tally/internal/domain/chat"
	"github.com/tallyhq/tally/internal/domain/expense"
	"github.com/tallyhq/tally/internal/domain/group"
)

// In-memory repositories so the handlers run against real services.

type fakeAuthRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*repository.User
	sessions map[string]*repository.UserSession
	tokens   map[string]*repository.UserToken
	oauth    map[string]uuid.UUID
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		users:    make(map[uuid.UUID]*repository.User),
		sessions: make(map[string]*repository.UserSession),
		tokens:   make(map[string]*repository.UserToken),
		oauth:    make(map[string]uuid.UUID),
	}
}

func (f *fakeAuthRepo) CreateUser(_ context.Context, email, username, hashedPassword, displayName string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return nil, common.ErrUserAlreadyExists
		}
		if strings.EqualFold(u.Username, username) {
			return nil, common.ErrUsernameTaken
		}
	}
	now := time.Now()
	u := &repository.User{
		ID:             uuid.New(),
		Email:          email,
		Username:       username,
		HashedPassword: hashedPassword,
		DisplayName:    displayName,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeAuthRepo) GetUserByID(_ context.Context, id uuid.UUID) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeAuthRepo) GetUserByEmail(_ context.Context, email string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (f *fakeAuthRepo) GetUserByUsername(_ context.Context, username string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (f *fakeAuthRepo) UpdateLastLogin(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(_ context.Context, userID uuid.UUID, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return common.ErrUserNotFound
	}
	u.HashedPassword = hashedPassword
	return nil
}

func (f *fakeAuthRepo) VerifyEmail(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return common.ErrUserNotFound
	}
	now := time.Now()
	u.EmailVerifiedAt = &now
	return nil
}

func (f *fakeAuthRepo) CreateUserSession(_ context.Context, userID uuid.UUID, tokenHash, userAgent, clientIP string, expiresAt time.Time) (*repository.UserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &repository.UserSession{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		UserAgent: userAgent,
		ClientIP:  clientIP,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.sessions[tokenHash] = s
	return s, nil
}

func (f *fakeAuthRepo) GetUserSessionByToken(_ context.Context, tokenHash string) (*repository.UserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[tokenHash]
	if !ok || s.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeAuthRepo) DeleteUserSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[tokenHash]; !ok {
		return common.ErrSessionNotFound
	}
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeAuthRepo) DeleteAllUserSessions(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, hash)
		}
	}
	return nil
}

func (f *fakeAuthRepo) DeleteExpiredSessions(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for hash, s := range f.sessions {
		if s.ExpiresAt.Before(now) {
			delete(f.sessions, hash)
			n++
		}
	}
	return n, nil
}

func (f *fakeAuthRepo) CreateUserToken(_ context.Context, userID uuid.UUID, tokenHash, tokenType string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[tokenHash] = &repository.UserToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		TokenType: tokenType,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeAuthRepo) GetUserTokenByHash(_ context.Context, tokenHash, tokenType string) (*repository.UserToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[tokenHash]
	if !ok || t.TokenType != tokenType || t.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrTokenNotFound
	}
	clone := *t
	return &clone, nil
}

func (f *fakeAuthRepo) DeleteUserToken(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, tokenHash)
	return nil
}

func (f *fakeAuthRepo) DeleteExpiredTokens(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for hash, t := range f.tokens {
		if t.ExpiresAt.Before(now) {
			delete(f.tokens, hash)
			n++
		}
	}
	return n, nil
}

func (f *fakeAuthRepo) GetUserByOAuthIdentity(_ context.Context, provider, providerUserID string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.oauth[provider+"|"+providerUserID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeAuthRepo) CreateOrUpdateOAuthIdentity(_ context.Context, provider, providerUserID string, userID uuid.UUID, _, _ *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.oauth[provider+"|"+providerUserID] = userID
	return nil
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[uuid.UUID]category.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[uuid.UUID]category.Category)}
}

func (f *fakeCategoryRepo) List(_ context.Context, userID uuid.UUID) ([]category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []category.Category
	for _, c := range f.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategoryRepo) ListWithStats(ctx context.Context, userID uuid.UUID) ([]category.Stats, error) {
	categories, _ := f.List(ctx, userID)
	out := make([]category.Stats, 0, len(categories))
	for _, c := range categories {
		out = append(out, category.Stats{Category: c})
	}
	return out, nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return nil, category.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCategoryRepo) FindByName(_ context.Context, userID uuid.UUID, name string) (*category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.UserID == userID && strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, category.ErrNotFound
}

func (f *fakeCategoryRepo) Create(_ context.Context, userID uuid.UUID, name, icon string) (*category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.UserID == userID && strings.EqualFold(c.Name, name) {
			return nil, category.ErrExists
		}
	}
	c := category.Category{ID: uuid.New(), UserID: userID, Name: name, Icon: icon, CreatedAt: time.Now()}
	f.categories[c.ID] = c
	return &c, nil
}

func (f *fakeCategoryRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, name, icon string) (*category.Category, error) {
	if existing, err := f.FindByName(ctx, userID, name); err == nil {
		return existing, nil
	}
	return f.Create(ctx, userID, name, icon)
}

func (f *fakeCategoryRepo) Update(_ context.Context, userID, id uuid.UUID, name, icon string) (*category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return nil, category.ErrNotFound
	}
	c.Name = name
	c.Icon = icon
	f.categories[id] = c
	return &c, nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return category.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

type fakeGroupRepo struct {
	mu      sync.Mutex
	users   *fakeAuthRepo
	groups  map[uuid.UUID]*group.Group
	members map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeGroupRepo(users *fakeAuthRepo) *fakeGroupRepo {
	return &fakeGroupRepo{
		users:   users,
		groups:  make(map[uuid.UUID]*group.Group),
		members: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (f *fakeGroupRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]group.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []group.Stats
	for id, g := range f.groups {
		if f.members[id][userID] {
			stats := group.Stats{Group: *g}
			stats.MemberCount = int64(len(f.members[id]))
			out = append(out, stats)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeGroupRepo) GetByID(_ context.Context, id uuid.UUID) (*group.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, group.ErrNotFound
	}
	clone := *g
	clone.MemberCount = int64(len(f.members[id]))
	return &clone, nil
}

func (f *fakeGroupRepo) IsMember(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[groupID][userID], nil
}

func (f *fakeGroupRepo) FindByNameForMember(_ context.Context, userID uuid.UUID, name string) (*group.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, g := range f.groups {
		if f.members[id][userID] && strings.EqualFold(g.Name, name) {
			clone := *g
			return &clone, nil
		}
	}
	return nil, group.ErrNotFound
}

func (f *fakeGroupRepo) Create(_ context.Context, createdBy uuid.UUID, name, description string) (*group.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := &group.Group{ID: uuid.New(), CreatedBy: createdBy, Name: name, Description: description, CreatedAt: time.Now()}
	f.groups[g.ID] = g
	f.members[g.ID] = make(map[uuid.UUID]bool)
	clone := *g
	return &clone, nil
}

func (f *fakeGroupRepo) Update(_ context.Context, id uuid.UUID, name, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return group.ErrNotFound
	}
	g.Name = name
	g.Description = description
	return nil
}

func (f *fakeGroupRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, id)
	delete(f.members, id)
	return nil
}

func (f *fakeGroupRepo) Members(_ context.Context, groupID uuid.UUID) ([]group.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []group.Member
	for userID := range f.members[groupID] {
		m := group.Member{UserID: userID}
		if u, ok := f.users.users[userID]; ok {
			m.Username = u.Username
			m.DisplayName = u.DisplayName
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeGroupRepo) MemberStats(ctx context.Context, groupID uuid.UUID) ([]group.MemberStat, error) {
	members, _ := f.Members(ctx, groupID)
	out := make([]group.MemberStat, 0, len(members))
	for _, m := range members {
		out = append(out, group.MemberStat{Member: m})
	}
	return out, nil
}

func (f *fakeGroupRepo) AddMembers(_ context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range userIDs {
		f.members[groupID][id] = true
	}
	return nil
}

func (f *fakeGroupRepo) ReplaceMembers(_ context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[groupID] = make(map[uuid.UUID]bool)
	for _, id := range userIDs {
		f.members[groupID][id] = true
	}
	return nil
}

func (f *fakeGroupRepo) ResolveUsernames(_ context.Context, usernames []string) (map[string]uuid.UUID, error) {
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	out := make(map[string]uuid.UUID)
	for _, name := range usernames {
		for _, u := range f.users.users {
			if strings.EqualFold(u.Username, name) {
				out[strings.ToLower(name)] = u.ID
			}
		}
	}
	return out, nil
}

type fakeExpenseRepo struct {
	mu         sync.Mutex
	categories *fakeCategoryRepo
	groups     *fakeGroupRepo
	expenses   []*expense.Expense
}

func newFakeExpenseRepo(categories *fakeCategoryRepo, groups *fakeGroupRepo) *fakeExpenseRepo {
	return &fakeExpenseRepo{categories: categories, groups: groups}
}

func (f *fakeExpenseRepo) join(e expense.Expense) expense.Expense {
	if e.CategoryID != nil {
		if c, ok := f.categories.categories[*e.CategoryID]; ok {
			e.CategoryName = c.Name
			e.CategoryIcon = c.Icon
		}
	}
	if e.GroupID != nil {
		if g, ok := f.groups.groups[*e.GroupID]; ok {
			e.GroupName = g.Name
		}
	}
	return e
}

func (f *fakeExpenseRepo) Create(_ context.Context, e *expense.Expense) (*expense.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *e
	clone.ID = uuid.New()
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	f.expenses = append(f.expenses, &clone)
	joined := f.join(clone)
	return &joined, nil
}

func (f *fakeExpenseRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*expense.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.expenses {
		if e.ID == id && e.UserID == userID {
			joined := f.join(*e)
			return &joined, nil
		}
	}
	return nil, expense.ErrNotFound
}

func (f *fakeExpenseRepo) Update(_ context.Context, e *expense.Expense) (*expense.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.expenses {
		if existing.ID == e.ID && existing.UserID == e.UserID {
			clone := *e
			clone.UpdatedAt = time.Now()
			f.expenses[i] = &clone
			joined := f.join(clone)
			return &joined, nil
		}
	}
	return nil, expense.ErrNotFound
}

func (f *fakeExpenseRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.expenses {
		if e.ID == id && e.UserID == userID {
			f.expenses = append(f.expenses[:i], f.expenses[i+1:]...)
			return nil
		}
	}
	return expense.ErrNotFound
}

func (f *fakeExpenseRepo) matches(e *expense.Expense, userID uuid.UUID, filter expense.Filter) bool {
	if e.UserID != userID {
		return false
	}
	if filter.CategoryID != nil && (e.CategoryID == nil || *e.CategoryID != *filter.CategoryID) {
		return false
	}
	if filter.GroupID != nil && (e.GroupID == nil || *e.GroupID != *filter.GroupID) {
		return false
	}
	if filter.From != nil && e.SpentOn.Before(*filter.From) {
		return false
	}
	if filter.To != nil && e.SpentOn.After(*filter.To) {
		return false
	}
	if len(filter.IDs) > 0 {
		found := false
		for _, id := range filter.IDs {
			if e.ID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *fakeExpenseRepo) List(_ context.Context, userID uuid.UUID, filter expense.Filter) ([]expense.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []expense.Expense
	for _, e := range f.expenses {
		if f.matches(e, userID, filter) {
			out = append(out, f.join(*e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpentOn.After(out[j].SpentOn) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeExpenseRepo) Count(_ context.Context, userID uuid.UUID, filter expense.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.expenses {
		if f.matches(e, userID, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeExpenseRepo) ListForGroup(_ context.Context, groupID uuid.UUID) ([]expense.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []expense.Expense
	for _, e := range f.expenses {
		if e.GroupID != nil && *e.GroupID == groupID {
			out = append(out, f.join(*e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpentOn.After(out[j].SpentOn) })
	return out, nil
}

func (f *fakeExpenseRepo) DashboardSummary(_ context.Context, userID uuid.UUID) (*expense.DashboardSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := &expense.DashboardSummary{}
	cutoff := time.Now().AddDate(0, 0, -30)
	for _, e := range f.expenses {
		if e.UserID != userID {
			continue
		}
		summary.TotalCents += e.AmountCents
		summary.ExpenseCount++
		if e.SpentOn.After(cutoff) {
			summary.Last30DaysCents += e.AmountCents
		}
		summary.Recent = append(summary.Recent, f.join(*e))
	}
	sort.Slice(summary.Recent, func(i, j int) bool {
		return summary.Recent[i].SpentOn.After(summary.Recent[j].SpentOn)
	})
	if len(summary.Recent) > 5 {
		summary.Recent = summary.Recent[:5]
	}
	return summary, nil
}

func (f *fakeExpenseRepo) IndexEntries(_ context.Context) ([]expense.IndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]expense.IndexEntry, 0, len(f.expenses))
	for _, e := range f.expenses {
		out = append(out, expense.IndexEntry{ID: e.ID, UserID: e.UserID, Description: e.Description})
	}
	return out, nil
}

type fakeChatRepo struct {
	mu       sync.Mutex
	messages []chat.Message
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{}
}

func (f *fakeChatRepo) Insert(_ context.Context, userID uuid.UUID, role, body string, isError bool) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := chat.Message{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		Body:      body,
		IsError:   isError,
		CreatedAt: time.Now(),
	}
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f *fakeChatRepo) ListRecent(_ context.Context, userID uuid.UUID, limit int) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.Message
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeChatRepo) DeleteAll(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.messages[:0]
	for _, m := range f.messages {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	return nil
}

func (f *fakeChatRepo) TrimUser(_ context.Context, userID uuid.UUID, keep int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []int
	for i, m := range f.messages {
		if m.UserID == userID {
			mine = append(mine, i)
		}
	}
	excess := len(mine) - keep
	if excess <= 0 {
		return 0, nil
	}
	drop := make(map[int]bool, excess)
	for _, i := range mine[:excess] {
		drop[i] = true
	}
	kept := f.messages[:0]
	for i, m := range f.messages {
		if !drop[i] {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	return int64(excess), nil
}

func (f *fakeChatRepo) TrimAll(ctx context.Context, keep int) (int64, error) {
	f.mu.Lock()
	users := make(map[uuid.UUID]bool)
	for _, m := range f.messages {
		users[m.UserID] = true
	}
	f.mu.Unlock()

	var total int64
	for userID := range users {
		n, _ := f.TrimUser(ctx, userID, keep)
		total += n
	}
	return total, nil
}

type fakeGenerator struct {
	mu         sync.Mutex
	configured bool
	reply      string
	err        error
	calls      int
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
