package usecase

import (
	"context"
	"errors"
	"testing"

	authdomain "fieldline-backend/internal/auth/domain"
	"fieldline-backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeUserRepo keeps users by email and records writes.
type fakeUserRepo struct {
	users   map[string]*authdomain.User
	created []*authdomain.User
	updated []*authdomain.User
}

func newFakeUserRepo(users ...*authdomain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*authdomain.User{}}
	for _, u := range users {
		repo.users[u.Email] = u
	}
	return repo
}

func (f *fakeUserRepo) Create(u *authdomain.User) error {
	f.users[u.Email] = u
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*authdomain.User, error) {
	return f.users[email], nil
}

func (f *fakeUserRepo) FindByID(id string) (*authdomain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) List() ([]*authdomain.User, error) { return nil, nil }

func (f *fakeUserRepo) Update(u *authdomain.User) error {
	f.users[u.Email] = u
	f.updated = append(f.updated, u)
	return nil
}

func (f *fakeUserRepo) SaveRefreshToken(t *authdomain.RefreshToken) error { return nil }
func (f *fakeUserRepo) FindRefreshToken(t string) (*authdomain.RefreshToken, error) {
	return nil, nil
}
func (f *fakeUserRepo) DeleteRefreshToken(t string) error { return nil }

func newMailboxUsecase(users *fakeUserRepo, mailboxEmail string) *authUsecase {
	u := &authUsecase{
		userRepo: users,
		config:   &config.Config{MailboxEmail: mailboxEmail},
	}
	u.exchangeCode = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil
	}
	u.profileEmail = func(ctx context.Context, accessToken, refreshToken string) (string, error) {
		return mailboxEmail, nil
	}
	return u
}

func TestConnectMailboxStoresTokensOnExistingUser(t *testing.T) {
	users := newFakeUserRepo(&authdomain.User{ID: "u1", Email: "office@fieldline.test"})
	u := newMailboxUsecase(users, "office@fieldline.test")

	user, err := u.ConnectMailbox(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "access-1", user.AccessToken)
	assert.Equal(t, "refresh-1", user.RefreshToken)
	require.Len(t, users.updated, 1)
	assert.Equal(t, "access-1", users.users["office@fieldline.test"].AccessToken)
}

func TestConnectMailboxCreatesMailboxUser(t *testing.T) {
	users := newFakeUserRepo()
	u := newMailboxUsecase(users, "office@fieldline.test")

	user, err := u.ConnectMailbox(context.Background(), "auth-code")
	require.NoError(t, err)

	require.Len(t, users.created, 1)
	assert.Equal(t, "office@fieldline.test", user.Email)
	assert.Equal(t, "access-1", user.AccessToken)
	assert.Equal(t, "refresh-1", user.RefreshToken)
}

func TestConnectMailboxKeepsRefreshTokenWhenExchangeOmitsIt(t *testing.T) {
	users := newFakeUserRepo(&authdomain.User{
		Email:        "office@fieldline.test",
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
	})
	u := newMailboxUsecase(users, "office@fieldline.test")
	u.exchangeCode = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "new-access"}, nil
	}

	user, err := u.ConnectMailbox(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "new-access", user.AccessToken)
	assert.Equal(t, "old-refresh", user.RefreshToken)
}

func TestConnectMailboxRejectsWrongAccount(t *testing.T) {
	users := newFakeUserRepo()
	u := newMailboxUsecase(users, "office@fieldline.test")
	u.profileEmail = func(ctx context.Context, accessToken, refreshToken string) (string, error) {
		return "personal@gmail.test", nil
	}

	_, err := u.ConnectMailbox(context.Background(), "auth-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not the shared mailbox")
	assert.Empty(t, users.created)
	assert.Empty(t, users.updated)
}

func TestConnectMailboxRequiresConfiguredAddress(t *testing.T) {
	u := newMailboxUsecase(newFakeUserRepo(), "")

	_, err := u.ConnectMailbox(context.Background(), "auth-code")
	assert.Error(t, err)
}

func TestConnectMailboxSurfacesExchangeFailure(t *testing.T) {
	users := newFakeUserRepo()
	u := newMailboxUsecase(users, "office@fieldline.test")
	u.exchangeCode = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return nil, errors.New("invalid_grant")
	}

	_, err := u.ConnectMailbox(context.Background(), "bad-code")
	require.Error(t, err)
	assert.Empty(t, users.created)
}

func TestDisconnectMailboxClearsTokens(t *testing.T) {
	users := newFakeUserRepo(&authdomain.User{
		Email:        "office@fieldline.test",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	})
	u := newMailboxUsecase(users, "office@fieldline.test")

	require.NoError(t, u.DisconnectMailbox(context.Background()))

	stored := users.users["office@fieldline.test"]
	assert.Empty(t, stored.AccessToken)
	assert.Empty(t, stored.RefreshToken)
}

func TestDisconnectMailboxWithoutConnectionIsNoop(t *testing.T) {
	users := newFakeUserRepo()
	u := newMailboxUsecase(users, "office@fieldline.test")

	require.NoError(t, u.DisconnectMailbox(context.Background()))
	assert.Empty(t, users.updated)
}

func TestMailboxStatus(t *testing.T) {
	users := newFakeUserRepo(&authdomain.User{Email: "office@fieldline.test", AccessToken: "access-1"})
	u := newMailboxUsecase(users, "office@fieldline.test")

	status, err := u.MailboxStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "office@fieldline.test", status.Email)

	users.users["office@fieldline.test"].AccessToken = ""
	status, err = u.MailboxStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
}
