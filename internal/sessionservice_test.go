package internal

import (
	"testing"

	"github.com/bebevio27-prog/calendar/internal/cache"
	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/bebevio27-prog/calendar/internal/repos"
	"github.com/bebevio27-prog/calendar/internal/repos/session/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

type fakeUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]models.User)}
}

func (r *fakeUserRepo) Create(u *models.User) error {
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) Update(u *models.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return repos.ErrEntityNotExisting
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) Delete(id uint) error {
	if _, ok := r.users[id]; !ok {
		return repos.ErrEntityNotExisting
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repos.ErrEntityNotExisting
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			ret := u
			return &ret, nil
		}
	}
	return nil, repos.ErrEntityNotExisting
}

func (r *fakeUserRepo) GetByCredentials(email string, password string) (*models.User, error) {
	u, err := r.GetByEmail(email)
	if err == repos.ErrEntityNotExisting {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := u.CheckPassword(password); err != nil {
		// Wrong password is not a repo error
		return nil, nil
	}
	return u, nil
}

func newSessionFixture() (SessionService, *fakeUserRepo) {
	users := newFakeUserRepo()
	data := cache.New(newFakeEventRepo(), newFakeOverrideRepo(), testLogger())
	return NewSessionService(inmem.New(), users, data, testLogger()), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newSessionFixture()
	ctx := context.Background()

	info, err := svc.Register(ctx, " Anna@Example.com ", "s3cret", "Anna")
	require.NoError(t, err)
	assert.NotEmpty(t, info.SessionID)
	assert.Equal(t, "anna@example.com", info.Email)
	assert.Equal(t, "Anna", info.UserName)

	// The freshly created session resolves back to the user
	who, err := svc.WhoAmI(ctx, info.SessionID)
	require.NoError(t, err)
	assert.Equal(t, info.UserID, who.UserID)

	// A second, independent login works with the normalized address
	second, err := svc.Login(ctx, "anna@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, info.SessionID, second.SessionID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newSessionFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, "anna@example.com", "s3cret", "Anna")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ANNA@example.com", "other", "Imposter")
	require.Error(t, err)
	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeEmailTaken, httpErr.ErrorCode())
}

func TestLoginWithWrongPassword(t *testing.T) {
	svc, _ := newSessionFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, "anna@example.com", "s3cret", "Anna")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "anna@example.com", "wrong")
	require.Error(t, err)
	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeLoginFailed, httpErr.ErrorCode())
}

func TestLogout(t *testing.T) {
	svc, _ := newSessionFixture()
	ctx := context.Background()

	info, err := svc.Register(ctx, "anna@example.com", "s3cret", "Anna")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, info.SessionID))

	_, err = svc.WhoAmI(ctx, info.SessionID)
	require.Error(t, err)
	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotLoggedIn, httpErr.ErrorCode())

	// Logging out an unknown session is a no-op
	assert.NoError(t, svc.Logout(ctx, "gone"))
}
