package group

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	Repository

	users   map[string]uuid.UUID
	groups  map[uuid.UUID]*Group
	members map[uuid.UUID][]uuid.UUID

	createCalls int
	lastAdded   []uuid.UUID
	lastReplace []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:   make(map[string]uuid.UUID),
		groups:  make(map[uuid.UUID]*Group),
		members: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeRepo) addUser(username string) uuid.UUID {
	id := uuid.New()
	f.users[strings.ToLower(username)] = id
	return id
}

func (f *fakeRepo) addGroup(createdBy uuid.UUID, name string, memberIDs ...uuid.UUID) *Group {
	g := &Group{ID: uuid.New(), CreatedBy: createdBy, Name: name, CreatedAt: time.Now()}
	f.groups[g.ID] = g
	f.members[g.ID] = append([]uuid.UUID{createdBy}, memberIDs...)
	return g
}

func (f *fakeRepo) ResolveUsernames(_ context.Context, usernames []string) (map[string]uuid.UUID, error) {
	out := make(map[string]uuid.UUID)
	for _, name := range usernames {
		if id, ok := f.users[strings.ToLower(name)]; ok {
			out[strings.ToLower(name)] = id
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, createdBy uuid.UUID, name, description string) (*Group, error) {
	f.createCalls++
	g := &Group{ID: uuid.New(), CreatedBy: createdBy, Name: name, Description: description, CreatedAt: time.Now()}
	f.groups[g.ID] = g
	return g, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeRepo) IsMember(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	for _, id := range f.members[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, name, description string) error {
	g, ok := f.groups[id]
	if !ok {
		return ErrNotFound
	}
	g.Name, g.Description = name, description
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.groups[id]; !ok {
		return ErrNotFound
	}
	delete(f.groups, id)
	return nil
}

func (f *fakeRepo) AddMembers(_ context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error {
	f.lastAdded = userIDs
	f.members[groupID] = append(f.members[groupID], userIDs...)
	return nil
}

func (f *fakeRepo) ReplaceMembers(_ context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error {
	f.lastReplace = userIDs
	f.members[groupID] = userIDs
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.DiscardHandler))
}

func TestCreate_UnknownUsernamesRejected(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser("alice")
	svc := newTestService(repo)
	creator := uuid.New()

	_, err := svc.Create(context.Background(), creator, "Trip", "", []string{"alice", "zed", "Zed"})

	var unknown *UnknownUsernamesError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"zed"}, unknown.Usernames)
	assert.Zero(t, repo.createCalls, "group must not be created when members are invalid")
}

func TestCreate_CreatorAlwaysMember(t *testing.T) {
	repo := newFakeRepo()
	aliceID := repo.addUser("alice")
	bobID := repo.addUser("bob")
	svc := newTestService(repo)
	creator := uuid.New()

	g, err := svc.Create(context.Background(), creator, "  Roommates ", "split the rent", []string{"Alice", "bob", ""})
	require.NoError(t, err)

	assert.Equal(t, "Roommates", g.Name)
	assert.Equal(t, int64(3), g.MemberCount)
	assert.ElementsMatch(t, []uuid.UUID{aliceID, bobID, creator}, repo.lastAdded)
}

func TestCreate_EmptyNameRejected(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), uuid.New(), "   ", "", nil)
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestUpdate_CreatorOnly(t *testing.T) {
	repo := newFakeRepo()
	creator := uuid.New()
	outsider := uuid.New()
	g := repo.addGroup(creator, "Office Team")
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), outsider, g.ID, "Office Team", "", nil)
	assert.ErrorIs(t, err, ErrNotCreator)
}

func TestUpdate_ReplacesMembersKeepingCreator(t *testing.T) {
	repo := newFakeRepo()
	creator := uuid.New()
	oldMember := repo.addUser("carol")
	newMember := repo.addUser("dave")
	g := repo.addGroup(creator, "Office Team", oldMember)
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), creator, g.ID, "Office Team", "", []string{"dave"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []uuid.UUID{newMember, creator}, repo.lastReplace)
}

func TestDelete_CreatorOnly(t *testing.T) {
	repo := newFakeRepo()
	creator := uuid.New()
	member := repo.addUser("eve")
	g := repo.addGroup(creator, "Weekend Trip", member)
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), member, g.ID)
	assert.ErrorIs(t, err, ErrNotCreator)

	require.NoError(t, svc.Delete(context.Background(), creator, g.ID))
	_, err = repo.GetByID(context.Background(), g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetForMember_NonMemberHidden(t *testing.T) {
	repo := newFakeRepo()
	creator := uuid.New()
	g := repo.addGroup(creator, "Weekend Trip")
	svc := newTestService(repo)

	_, err := svc.GetForMember(context.Background(), uuid.New(), g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetForMember(context.Background(), creator, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
}

func TestFindByNameForMember_EmptyName(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.FindByNameForMember(context.Background(), uuid.New(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}
