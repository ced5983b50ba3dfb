package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"watchsweep/models"
	"watchsweep/services/plex"
)

var ErrAccountRequired = errors.New("watchlist account is required")

// Account is the slice of a plex.tv account the watchlist service needs.
type Account interface {
	Watchlist(ctx context.Context, kind models.MediaKind) ([]plex.WatchlistItem, error)
	RemoveFromWatchlist(ctx context.Context, ratingKey string) error
}

// Service reads and prunes plex.tv watchlists.
type Service struct {
	log zerolog.Logger
}

// NewService creates a watchlist service.
func NewService(log zerolog.Logger) *Service {
	return &Service{log: log}
}

// Fetch lists the account's watchlist for one kind, keyed by external ID.
// Items without a usable ID in the kind's catalog are left out.
func (s *Service) Fetch(ctx context.Context, account Account, owner string, kind models.MediaKind) (map[models.ExternalID]models.WatchlistEntry, error) {
	if account == nil {
		return nil, ErrAccountRequired
	}

	items, err := account.Watchlist(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("fetch %s watchlist for %s: %w", kind.Label(), owner, err)
	}

	entries := make(map[models.ExternalID]models.WatchlistEntry, len(items))
	for _, item := range items {
		if item.Type != "" && !strings.EqualFold(item.Type, string(kind)) {
			continue
		}
		id, ok := models.ExtractExternalID(kind, item.GUIDs())
		if !ok {
			s.log.Debug().Str("user", owner).Str("title", item.Title).Msg("watchlist item has no external id, skipping")
			continue
		}
		if _, dup := entries[id]; dup {
			continue
		}
		entries[id] = entryFromItem(id, owner, item)
	}

	s.log.Debug().Str("user", owner).Str("kind", string(kind)).Int("listed", len(items)).Int("usable", len(entries)).Msg("watchlist fetched")
	return entries, nil
}

// Remove deletes each entry from the account's watchlist. Every entry gets a
// result, in input order; one failure never stops the rest.
func (s *Service) Remove(ctx context.Context, account Account, entries []models.WatchlistEntry) []models.RemovalResult {
	results := make([]models.RemovalResult, 0, len(entries))
	for i, entry := range entries {
		if ctx.Err() != nil {
			results = append(results, models.RemovalResult{Entry: entry, Outcome: models.OutcomeFailed, Err: ctx.Err()})
			continue
		}

		res := s.removeOne(ctx, account, entry)
		results = append(results, res)
		s.log.Debug().Str("user", entry.Owner).Msgf("removal progress %d/%d", i+1, len(entries))
	}
	return results
}

func (s *Service) removeOne(ctx context.Context, account Account, entry models.WatchlistEntry) models.RemovalResult {
	log := s.log.With().Str("user", entry.Owner).Str("title", entry.Title).Stringer("id", entry.ExternalID).Logger()

	if entry.Handle == "" {
		err := fmt.Errorf("watchlist entry %q has no rating key", entry.Title)
		log.Error().Err(err).Msg("cannot remove watchlist entry")
		return models.RemovalResult{Entry: entry, Outcome: models.OutcomeFailed, Err: err}
	}

	err := account.RemoveFromWatchlist(ctx, entry.Handle)
	switch {
	case err == nil:
		log.Info().Msg("removed from watchlist")
		return models.RemovalResult{Entry: entry, Outcome: models.OutcomeRemoved}
	case errors.Is(err, plex.ErrNotOnWatchlist), errors.Is(err, plex.ErrNotFound):
		log.Warn().Err(err).Msg("already gone from watchlist")
		return models.RemovalResult{Entry: entry, Outcome: models.OutcomeAlreadyGone}
	default:
		log.Error().Err(err).Msg("failed to remove from watchlist")
		return models.RemovalResult{Entry: entry, Outcome: models.OutcomeFailed, Err: err}
	}
}

// Purge removes everything on the account's watchlist, regardless of kind or
// watch state. A listing failure is returned; removal failures are per item.
func (s *Service) Purge(ctx context.Context, account Account, owner string) (models.PurgeResult, error) {
	result := models.PurgeResult{Owner: owner}
	if account == nil {
		return result, ErrAccountRequired
	}

	items, err := account.Watchlist(ctx, "")
	if err != nil {
		return result, fmt.Errorf("fetch watchlist for %s: %w", owner, err)
	}
	result.Listed = len(items)

	entries := make([]models.WatchlistEntry, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.RatingKey]; dup && item.RatingKey != "" {
			continue
		}
		seen[item.RatingKey] = struct{}{}

		kind, kerr := models.ParseMediaKind(item.Type)
		var id models.ExternalID
		if kerr == nil {
			id, _ = models.ExtractExternalID(kind, item.GUIDs())
		}
		entries = append(entries, entryFromItem(id, owner, item))
	}

	result.Results = s.Remove(ctx, account, entries)
	s.log.Info().Str("user", owner).Int("listed", result.Listed).Int("purged", result.Count()).Msg("watchlist purged")
	return result, nil
}

func entryFromItem(id models.ExternalID, owner string, item plex.WatchlistItem) models.WatchlistEntry {
	return models.WatchlistEntry{
		ExternalID: id,
		Title:      item.Title,
		Year:       item.Year,
		Owner:      owner,
		Handle:     item.RatingKey,
	}
}
