package plex

import (
	"context"

	"watchsweep/models"
)

// Account is an authenticated plex.tv identity. Everything read through it
// (watchlist, resources) is scoped to that identity.
type Account struct {
	client   *Client
	token    string
	Username string
	ID       int
}

// Token returns the account's auth token.
func (a *Account) Token() string {
	return a.token
}

// Watchlist lists the account's watchlist, filtered to kind unless kind is empty.
func (a *Account) Watchlist(ctx context.Context, kind models.MediaKind) ([]WatchlistItem, error) {
	return a.client.GetWatchlist(ctx, a.token, kind)
}

// RemoveFromWatchlist removes the item with the given rating key.
func (a *Account) RemoveFromWatchlist(ctx context.Context, ratingKey string) error {
	return a.client.RemoveFromWatchlist(ctx, a.token, ratingKey)
}

// Resources lists the servers and clients this account can reach.
func (a *Account) Resources(ctx context.Context) ([]PlexResource, error) {
	return a.client.GetResources(ctx, a.token)
}
