package sessions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"watchsweep/config"
	"watchsweep/internal/mocks"
	"watchsweep/services/plex"
	"watchsweep/services/sessions"
)

var target = sessions.Target{FriendlyName: "Home", MachineIdentifier: "m1"}

func credentials(m map[string]config.Credentials) sessions.CredentialLookup {
	return func(name string) (config.Credentials, bool) {
		c, ok := m[name]
		return c, ok
	}
}

type fixture struct {
	accounts    *mocks.MockAccountService
	admin       *mocks.MockAccount
	adminServer *mocks.MockServer
	resolver    *sessions.Resolver
}

func newFixture(t *testing.T, creds map[string]config.Credentials) fixture {
	ctrl := gomock.NewController(t)
	f := fixture{
		accounts:    mocks.NewMockAccountService(ctrl),
		admin:       mocks.NewMockAccount(ctrl),
		adminServer: mocks.NewMockServer(ctrl),
	}
	f.resolver = sessions.NewResolver(f.accounts, f.admin, f.adminServer, target, credentials(creds), zerolog.Nop())
	return f
}

func TestResolveAdminUsesPrimaryConnection(t *testing.T) {
	f := newFixture(t, nil)

	s, err := f.resolver.Resolve(context.Background(), "Admin")
	require.NoError(t, err)
	assert.True(t, s.Admin)
	assert.Same(t, f.adminServer, s.Server)
	assert.Same(t, f.admin, s.Account)
}

func TestAuthenticateCredentialProblems(t *testing.T) {
	f := newFixture(t, map[string]config.Credentials{
		"carol": {Username: "carol"},
	})

	_, err := f.resolver.Authenticate(context.Background(), "bob")
	assert.ErrorIs(t, err, sessions.ErrNoCredentials)

	_, err = f.resolver.Authenticate(context.Background(), "carol")
	assert.ErrorIs(t, err, sessions.ErrIncompleteCredentials)
}

func TestAuthenticateMapsRejectedSignIn(t *testing.T) {
	f := newFixture(t, map[string]config.Credentials{
		"bob":  {Username: "bob@example.com", Password: "wrong"},
		"dave": {Username: "dave", Password: "pw"},
	})
	f.accounts.EXPECT().SignIn(gomock.Any(), "bob@example.com", "wrong").
		Return(nil, &plex.StatusError{Op: "sign in", StatusCode: 401})
	f.accounts.EXPECT().SignIn(gomock.Any(), "dave", "pw").
		Return(nil, &plex.StatusError{Op: "sign in", StatusCode: 503})

	_, err := f.resolver.Authenticate(context.Background(), "bob")
	assert.ErrorIs(t, err, sessions.ErrAuthentication)

	_, err = f.resolver.Authenticate(context.Background(), "dave")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sessions.ErrAuthentication)
}

func TestResolveConnectsThroughUsersOwnResource(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, map[string]config.Credentials{"bob": {Username: "bob", Password: "pw"}})
	bob := mocks.NewMockAccount(ctrl)
	bobServer := mocks.NewMockServer(ctrl)

	home := plex.PlexResource{Name: "home", Provides: "server", ClientIdentifier: "other", AccessToken: "bob-server-token"}
	dup := plex.PlexResource{Name: "Other", Provides: "server", ClientIdentifier: "m1"}

	f.accounts.EXPECT().SignIn(gomock.Any(), "bob", "pw").Return(bob, nil)
	bob.EXPECT().Resources(gomock.Any()).Return([]plex.PlexResource{
		{Name: "Home", Provides: "player"},
		home,
		dup,
	}, nil)
	f.accounts.EXPECT().ConnectResource(gomock.Any(), home).Return(bobServer, nil)

	s, err := f.resolver.Resolve(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, s.Admin)
	assert.Same(t, bobServer, s.Server)
	assert.NotSame(t, f.adminServer, s.Server)
}

func TestResolveServerNotShared(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, map[string]config.Credentials{"bob": {Username: "bob", Password: "pw"}})
	bob := mocks.NewMockAccount(ctrl)

	f.accounts.EXPECT().SignIn(gomock.Any(), "bob", "pw").Return(bob, nil)
	bob.EXPECT().Resources(gomock.Any()).Return([]plex.PlexResource{
		{Name: "Elsewhere", Provides: "server", ClientIdentifier: "zz"},
	}, nil)

	_, err := f.resolver.Resolve(context.Background(), "bob")
	assert.ErrorIs(t, err, sessions.ErrServerNotAccessible)
}

func TestResolveConnectFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, map[string]config.Credentials{"bob": {Username: "bob", Password: "pw"}})
	bob := mocks.NewMockAccount(ctrl)
	res := plex.PlexResource{Name: "Home", Provides: "server"}

	f.accounts.EXPECT().SignIn(gomock.Any(), "bob", "pw").Return(bob, nil)
	bob.EXPECT().Resources(gomock.Any()).Return([]plex.PlexResource{res}, nil)
	f.accounts.EXPECT().ConnectResource(gomock.Any(), res).Return(nil, errors.New("refused"))

	_, err := f.resolver.Resolve(context.Background(), "bob")
	assert.ErrorIs(t, err, sessions.ErrServerNotAccessible)
}
