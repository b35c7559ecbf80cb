package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelfolio/pixelfolio/internal/authz"
	"github.com/pixelfolio/pixelfolio/internal/shared"
)

type fakeRepo struct {
	accounts map[int64]*Account
	handles  map[int64][]string
}

func newFakeRepo(seed ...*Account) *fakeRepo {
	repo := &fakeRepo{
		accounts: make(map[int64]*Account),
		handles:  make(map[int64][]string),
	}
	for _, a := range seed {
		repo.accounts[a.ID] = a
	}
	return repo
}

func (f *fakeRepo) Create(ctx context.Context, a *Account) (*Account, error) {
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) (*Account, error) {
	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeRepo) FindByID(ctx context.Context, id int64) (*Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (f *fakeRepo) List(ctx context.Context, limit, offset int) ([]Account, int, error) {
	out := make([]Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, *a)
	}
	return out, len(f.accounts), nil
}

func (f *fakeRepo) UpdateRole(ctx context.Context, id int64, role authz.Role) (*Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	a.Role = role
	return a, nil
}

func (f *fakeRepo) UpdateSuspended(ctx context.Context, id int64, suspended bool) (*Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	a.Suspended = suspended
	return a, nil
}

func (f *fakeRepo) UpdateProfile(ctx context.Context, id int64, name, bio, passwordHash string) (*Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	a.Name = name
	a.Bio = bio
	if passwordHash != "" {
		a.PasswordHash = passwordHash
	}
	return a, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) ([]string, error) {
	if _, ok := f.accounts[id]; !ok {
		return nil, shared.ErrNotFound
	}
	delete(f.accounts, id)
	return f.handles[id], nil
}

type recordingCleaner struct {
	handles []string
}

func (c *recordingCleaner) AssetCleanup(ctx context.Context, handle string) error {
	c.handles = append(c.handles, handle)
	return nil
}

func adminCaller(id int64) *authz.Caller {
	return &authz.Caller{ID: id, Email: "admin@x.com", Role: authz.RoleAdmin}
}

func TestChangeRolePromotesUser(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 2, Role: authz.RoleUser})
	service := NewService(repo, nil, nil)

	updated, err := service.ChangeRole(context.Background(), adminCaller(1), 2, "manager")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleManager, updated.Role)
}

func TestChangeRoleSelfDemotionBlocked(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 1, Role: authz.RoleAdmin})
	service := NewService(repo, nil, nil)

	_, err := service.ChangeRole(context.Background(), adminCaller(1), 1, "user")
	assert.ErrorIs(t, err, shared.ErrSelfDemotion)
	assert.Equal(t, authz.RoleAdmin, repo.accounts[1].Role, "role must be untouched")
}

func TestChangeRoleSelfAdminIsNoop(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 1, Role: authz.RoleAdmin})
	service := NewService(repo, nil, nil)

	updated, err := service.ChangeRole(context.Background(), adminCaller(1), 1, "admin")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAdmin, updated.Role)
}

func TestChangeRoleInvalid(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 2, Role: authz.RoleUser})
	service := NewService(repo, nil, nil)

	_, err := service.ChangeRole(context.Background(), adminCaller(1), 2, "overlord")
	assert.ErrorIs(t, err, shared.ErrInvalidRole)
}

func TestChangeRoleUnknownTarget(t *testing.T) {
	service := NewService(newFakeRepo(), nil, nil)

	_, err := service.ChangeRole(context.Background(), adminCaller(1), 99, "manager")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSetSuspended(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 2, Role: authz.RoleUser})
	service := NewService(repo, nil, nil)

	updated, err := service.SetSuspended(context.Background(), adminCaller(1), 2, true)
	require.NoError(t, err)
	assert.True(t, updated.Suspended)

	updated, err = service.SetSuspended(context.Background(), adminCaller(1), 2, false)
	require.NoError(t, err)
	assert.False(t, updated.Suspended)
}

func TestUpdateProfileSelf(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 2, Name: "Old", Role: authz.RoleUser, PasswordHash: "hash"})
	service := NewService(repo, nil, nil)
	caller := &authz.Caller{ID: 2, Role: authz.RoleUser}

	updated, err := service.UpdateProfile(context.Background(), caller, 2, UpdateProfileInput{Name: "New", Bio: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "hash", updated.PasswordHash, "empty password must keep the old hash")
}

func TestUpdateProfileRehashesPassword(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 2, Name: "Old", Role: authz.RoleUser, PasswordHash: "hash"})
	service := NewService(repo, nil, nil)
	caller := &authz.Caller{ID: 2, Role: authz.RoleUser}

	updated, err := service.UpdateProfile(context.Background(), caller, 2, UpdateProfileInput{Name: "Old", Password: "newsecret"})
	require.NoError(t, err)
	assert.NotEqual(t, "hash", updated.PasswordHash)
	assert.NotEqual(t, "newsecret", updated.PasswordHash)
}

func TestUpdateProfileForbiddenForOthers(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 2, Role: authz.RoleUser})
	service := NewService(repo, nil, nil)
	caller := &authz.Caller{ID: 3, Role: authz.RoleManager}

	_, err := service.UpdateProfile(context.Background(), caller, 2, UpdateProfileInput{Name: "X"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateProfileAdminMayEditOthers(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 2, Role: authz.RoleUser})
	service := NewService(repo, nil, nil)

	updated, err := service.UpdateProfile(context.Background(), adminCaller(1), 2, UpdateProfileInput{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestDeleteSelfBlocked(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 1, Role: authz.RoleAdmin})
	service := NewService(repo, nil, nil)

	err := service.Delete(context.Background(), adminCaller(1), 1)
	assert.ErrorIs(t, err, shared.ErrSelfDeletion)
	assert.Contains(t, repo.accounts, int64(1))
}

func TestDeleteEnqueuesAssetCleanup(t *testing.T) {
	repo := newFakeRepo(&Account{ID: 2, Role: authz.RoleUser})
	repo.handles[2] = []string{"h1", "h2"}
	cleaner := &recordingCleaner{}
	service := NewService(repo, nil, cleaner)

	err := service.Delete(context.Background(), adminCaller(1), 2)
	require.NoError(t, err)
	assert.NotContains(t, repo.accounts, int64(2))
	assert.Equal(t, []string{"h1", "h2"}, cleaner.handles)
}

func TestDeleteUnknownTarget(t *testing.T) {
	service := NewService(newFakeRepo(), nil, nil)
	err := service.Delete(context.Background(), adminCaller(1), 9)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
