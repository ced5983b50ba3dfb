package sessions

//go:generate mockgen -destination=../../internal/mocks/sessions.go -package=mocks watchsweep/services/sessions Account,AccountService

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"watchsweep/config"
	"watchsweep/services/library"
	"watchsweep/services/plex"
	"watchsweep/services/watchlist"
)

var (
	ErrAuthentication        = errors.New("plex.tv authentication failed")
	ErrServerNotAccessible   = errors.New("server not accessible to user")
	ErrNoCredentials         = errors.New("no stored credentials for user")
	ErrIncompleteCredentials = errors.New("stored credentials are incomplete")
)

// Account is an authenticated plex.tv identity.
type Account interface {
	watchlist.Account
	Resources(ctx context.Context) ([]plex.PlexResource, error)
}

// AccountService signs users in and opens server connections on their behalf.
type AccountService interface {
	SignIn(ctx context.Context, login, password string) (Account, error)
	ConnectResource(ctx context.Context, res plex.PlexResource) (library.Server, error)
}

// CredentialLookup returns the stored login for a configured user name.
type CredentialLookup func(username string) (config.Credentials, bool)

// Target identifies the media server every user is reconciled against.
type Target struct {
	FriendlyName      string
	MachineIdentifier string
}

// Session is everything needed to process one user. Server is always a
// connection opened with that user's own credentials, except for the admin,
// who uses the primary connection.
type Session struct {
	Username string
	Admin    bool
	Account  Account
	Server   library.Server
}

// Resolver turns configured user names into sessions.
type Resolver struct {
	accounts     AccountService
	adminAccount Account
	adminServer  library.Server
	target       Target
	credentials  CredentialLookup
	log          zerolog.Logger
}

// NewResolver builds a resolver. adminAccount and adminServer are the owner's
// account and the primary server connection opened with the configured token.
func NewResolver(accounts AccountService, adminAccount Account, adminServer library.Server, target Target, credentials CredentialLookup, log zerolog.Logger) *Resolver {
	return &Resolver{
		accounts:     accounts,
		adminAccount: adminAccount,
		adminServer:  adminServer,
		target:       target,
		credentials:  credentials,
		log:          log,
	}
}

// IsAdmin reports whether username names the server owner.
func IsAdmin(username string) bool {
	return strings.EqualFold(strings.TrimSpace(username), config.AdminUser)
}

// Authenticate returns the plex.tv account for a user without touching any server.
func (r *Resolver) Authenticate(ctx context.Context, username string) (Account, error) {
	if IsAdmin(username) {
		return r.adminAccount, nil
	}

	creds, ok := r.credentials(username)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCredentials, username)
	}
	if !creds.Complete() {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteCredentials, username)
	}

	acct, err := r.accounts.SignIn(ctx, creds.Username, creds.Password)
	if err != nil {
		if isAuthFailure(err) {
			return nil, fmt.Errorf("%w: %s: %w", ErrAuthentication, username, err)
		}
		return nil, fmt.Errorf("sign in %s: %w", username, err)
	}

	r.log.Debug().Str("user", username).Msg("signed in to plex.tv")
	return acct, nil
}

// Resolve authenticates the user and opens the target server as that user.
func (r *Resolver) Resolve(ctx context.Context, username string) (*Session, error) {
	acct, err := r.Authenticate(ctx, username)
	if err != nil {
		return nil, err
	}
	if IsAdmin(username) {
		return &Session{Username: username, Admin: true, Account: acct, Server: r.adminServer}, nil
	}

	resources, err := acct.Resources(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resources for %s: %w", username, err)
	}

	matches := r.matchTarget(resources)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s cannot see %q", ErrServerNotAccessible, username, r.target.FriendlyName)
	}
	if len(matches) > 1 {
		r.log.Warn().Str("user", username).Int("matches", len(matches)).Str("server", matches[0].Name).Msg("several resources match the server, using the first")
	}

	server, err := r.accounts.ConnectResource(ctx, matches[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrServerNotAccessible, username, err)
	}

	return &Session{Username: username, Account: acct, Server: server}, nil
}

func (r *Resolver) matchTarget(resources []plex.PlexResource) []plex.PlexResource {
	var out []plex.PlexResource
	for _, res := range resources {
		if !res.IsServer() {
			continue
		}
		byID := r.target.MachineIdentifier != "" && res.ClientIdentifier == r.target.MachineIdentifier
		byName := plex.SameName(res.Name, r.target.FriendlyName)
		if byID || byName {
			out = append(out, res)
		}
	}
	return out
}

func isAuthFailure(err error) bool {
	if errors.Is(err, plex.ErrUnauthorized) {
		return true
	}
	var se *plex.StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnprocessableEntity
}

// NewPlexAccounts adapts a plex client to AccountService.
func NewPlexAccounts(client *plex.Client) AccountService {
	return plexAccounts{client: client}
}

type plexAccounts struct {
	client *plex.Client
}

func (p plexAccounts) SignIn(ctx context.Context, login, password string) (Account, error) {
	acct, err := p.client.SignIn(ctx, login, password)
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (p plexAccounts) ConnectResource(ctx context.Context, res plex.PlexResource) (library.Server, error) {
	srv, err := p.client.ConnectResource(ctx, res)
	if err != nil {
		return nil, err
	}
	return srv, nil
}
