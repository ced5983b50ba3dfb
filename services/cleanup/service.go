package cleanup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"

	"watchsweep/config"
	"watchsweep/models"
	"watchsweep/services/library"
	"watchsweep/services/reconcile"
	"watchsweep/services/sessions"
	"watchsweep/services/watchlist"
)

// Resolver provides per-user accounts and server connections.
type Resolver interface {
	Authenticate(ctx context.Context, username string) (sessions.Account, error)
	Resolve(ctx context.Context, username string) (*sessions.Session, error)
}

// Service runs one complete pass over every configured user.
type Service struct {
	settings  config.Settings
	resolver  Resolver
	watchlist *watchlist.Service
	scanner   *library.Scanner
	log       zerolog.Logger

	mu   sync.RWMutex
	last *models.RunSummary
}

// NewService wires the orchestrator.
func NewService(settings config.Settings, resolver Resolver, wl *watchlist.Service, scanner *library.Scanner, log zerolog.Logger) *Service {
	return &Service{
		settings:  settings,
		resolver:  resolver,
		watchlist: wl,
		scanner:   scanner,
		log:       log,
	}
}

// Run executes a pass in the configured mode. Problems with a single user are
// recorded in that user's summary and never stop the run.
func (s *Service) Run(ctx context.Context) models.RunSummary {
	summary := models.RunSummary{
		RunID:     uuid.NewString(),
		Mode:      s.settings.Mode(),
		DryRun:    !s.settings.PurgeAllWatchlist && !s.settings.RemoveFromWatchlist,
		StartedAt: time.Now(),
	}
	log := s.log.With().Str("run_id", summary.RunID).Str("mode", string(summary.Mode)).Logger()

	if summary.Mode == models.RunModePurge {
		log.Warn().Msg("purging all watchlists")
	}
	if summary.DryRun {
		log.Info().Msg("remove_from_watchlist is off, matches will only be reported")
	}

	for _, username := range s.settings.Users {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("run cancelled, remaining users not processed")
			break
		}
		summary.Add(s.runUser(ctx, log.With().Str("user", username).Logger(), username, summary.Mode))
	}

	summary.FinishedAt = time.Now()
	s.logSummary(log, summary)

	s.mu.Lock()
	s.last = &summary
	s.mu.Unlock()
	return summary
}

// LastSummary returns the summary of the most recent completed run.
func (s *Service) LastSummary() (models.RunSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return models.RunSummary{}, false
	}
	return *s.last, true
}

func (s *Service) runUser(ctx context.Context, log zerolog.Logger, username string, mode models.RunMode) models.UserSummary {
	var (
		us      models.UserSummary
		catcher panics.Catcher
	)
	catcher.Try(func() {
		if mode == models.RunModePurge {
			us = s.purgeUser(ctx, log, username)
			return
		}
		us = s.reconcileUser(ctx, log, username)
	})
	if r := catcher.Recovered(); r != nil {
		log.Error().Interface("panic", r.Value).Bytes("stack", r.Stack).Msg("user pass aborted")
		us = models.UserSummary{Username: username, Error: fmt.Sprintf("panic: %v", r.Value)}
	}
	return us
}

func (s *Service) purgeUser(ctx context.Context, log zerolog.Logger, username string) models.UserSummary {
	us := models.UserSummary{Username: username}

	account, err := s.resolver.Authenticate(ctx, username)
	if err != nil {
		return skip(log, us, err)
	}

	result, err := s.watchlist.Purge(ctx, account, username)
	if err != nil {
		log.Error().Err(err).Msg("error purging watchlist")
		us.Error = err.Error()
		return us
	}
	if result.Listed == 0 {
		log.Info().Msg("watchlist is already empty")
	}
	tally(&us, models.RunModePurge, "", result.Results)
	return us
}

func (s *Service) reconcileUser(ctx context.Context, log zerolog.Logger, username string) models.UserSummary {
	us := models.UserSummary{Username: username}

	session, err := s.resolver.Resolve(ctx, username)
	if err != nil {
		return skip(log, us, err)
	}
	log.Info().Bool("admin", session.Admin).Msg("processing watchlist")

	var problems []string
	for _, kind := range s.settings.Kinds() {
		items, reports := s.scanner.Scan(ctx, session.Server, kind, s.settings.SectionsFor(kind))
		us.Sections = append(us.Sections, reports...)

		entries, err := s.watchlist.Fetch(ctx, session.Account, username, kind)
		if err != nil {
			log.Error().Err(err).Str("kind", string(kind)).Msg("error fetching watchlist")
			problems = append(problems, err.Error())
			continue
		}

		matches := reconcile.Reconcile(kind, entries, items)
		report(log, username, kind, matches)
		us.Matches = append(us.Matches, matches...)
		switch kind {
		case models.MediaKindMovie:
			us.MoviesMatched += len(matches)
		case models.MediaKindShow:
			us.ShowsMatched += len(matches)
		}

		if !s.settings.RemoveFromWatchlist || len(matches) == 0 {
			continue
		}
		targets := reconcile.Targets(matches, entries)
		log.Info().Int("count", len(targets)).Msgf("removing %s from %s's watchlist", kind.Label(), username)
		tally(&us, models.RunModeReconcile, kind, s.watchlist.Remove(ctx, session.Account, targets))
	}

	us.Error = strings.Join(problems, "; ")
	return us
}

func report(log zerolog.Logger, username string, kind models.MediaKind, matches []models.ReconciliationResult) {
	if len(matches) == 0 {
		log.Info().Msgf("no watched %s found in %s's watchlist", kind.Label(), username)
		return
	}
	log.Info().Int("count", len(matches)).Msgf("watched %s in %s's watchlist", kind.Label(), username)
	for _, m := range matches {
		log.Info().Stringer("id", m.ExternalID).Msgf(" - %s (%d)", m.Title, m.Year)
	}
}

func tally(us *models.UserSummary, mode models.RunMode, kind models.MediaKind, results []models.RemovalResult) {
	for _, r := range results {
		switch r.Outcome {
		case models.OutcomeFailed:
			us.Failed++
			continue
		case models.OutcomeAlreadyGone:
			us.AlreadyGone++
		}
		switch {
		case mode == models.RunModePurge:
			us.Purged++
		case kind == models.MediaKindMovie:
			us.MoviesRemoved++
		case kind == models.MediaKindShow:
			us.ShowsRemoved++
		}
	}
}

func skip(log zerolog.Logger, us models.UserSummary, err error) models.UserSummary {
	us.Skipped = true
	us.SkipReason = skipReason(err)
	log.Warn().Err(err).Str("reason", us.SkipReason).Msg("skipping user")
	return us
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, sessions.ErrNoCredentials):
		return "no credentials provided"
	case errors.Is(err, sessions.ErrIncompleteCredentials):
		return "incomplete credentials"
	case errors.Is(err, sessions.ErrAuthentication):
		return "authentication failed"
	case errors.Is(err, sessions.ErrServerNotAccessible):
		return "server not accessible"
	default:
		return fmt.Sprintf("error: %v", err)
	}
}

func (s *Service) logSummary(log zerolog.Logger, summary models.RunSummary) {
	ev := log.Info().
		Int("users", len(summary.Users)).
		Int("skipped_users", summary.SkippedUsers).
		Int("failures", summary.Failures).
		Dur("duration", summary.Duration())
	if summary.Mode == models.RunModePurge {
		ev = ev.Int("purged", summary.Purged)
	} else {
		ev = ev.Int("movies_removed", summary.MoviesRemoved).Int("shows_removed", summary.ShowsRemoved)
	}
	ev.Msg("run summary")
}
