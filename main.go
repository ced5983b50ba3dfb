package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"watchsweep/api"
	"watchsweep/config"
	"watchsweep/handlers"
	"watchsweep/internal/logger"
	"watchsweep/services/cleanup"
	"watchsweep/services/library"
	"watchsweep/services/plex"
	"watchsweep/services/scheduler"
	"watchsweep/services/sessions"
	"watchsweep/services/watchlist"
)

var version = "dev"

const (
	retryDelay      = 500 * time.Millisecond
	shutdownTimeout = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	configFlag := flag.String("config", "", "path to config.yml (default $WATCHSWEEP_CONFIG or ./config.yml)")
	once := flag.Bool("once", false, "run a single pass even when the scheduler is enabled")
	dryRun := flag.Bool("dry-run", false, "report watched items without removing anything")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("watchsweep", version)
		return 0
	}

	boot := logger.Console(os.Stderr)
	boot.Info().Str("version", version).Msg("watchsweep starting")

	cfgManager := config.NewManager(nil, config.ResolvePath(*configFlag))
	settings, err := cfgManager.Load()
	if err != nil {
		boot.Error().Err(err).Str("path", cfgManager.Path()).Msg("failed to load settings")
		return 1
	}
	if *dryRun {
		settings.RemoveFromWatchlist = false
		settings.PurgeAllWatchlist = false
	}

	log, closer, err := logger.New(settings.Log, os.Stdout)
	if err != nil {
		boot.Error().Err(err).Msg("failed to set up logging")
		return 1
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := plex.NewClient(settings.Plex.ClientIdentifier,
		plex.WithTimeout(settings.Plex.Timeout()),
		plex.WithRateLimit(settings.Plex.RequestsPerSecond),
		plex.WithRetries(settings.Plex.MaxRetries, retryDelay),
		plex.WithProduct("watchsweep", version),
		plex.WithLogger(logger.Component(log, "plex")),
	)

	log.Debug().Str("client_id", client.ClientID()).Msg("plex client identifier")

	adminAccount := client.AccountFromToken(settings.PlexToken)
	if owner, err := client.GetUserInfo(ctx, adminAccount.Token()); err != nil {
		log.Warn().Err(err).Msg("could not read the server owner's plex.tv account")
	} else {
		log.Info().Str("plex_user", owner.Username).Msg("authenticated as server owner")
	}

	adminServer, err := client.ConnectServer(ctx, settings.PlexURL, settings.PlexToken)
	if err != nil {
		log.Error().Err(err).Str("url", settings.PlexURL).Msg("failed to connect to plex server")
		return 1
	}
	log.Info().
		Str("server", adminServer.FriendlyName).
		Str("machine_id", adminServer.MachineIdentifier).
		Strs("users", settings.Users).
		Str("mode", string(settings.Mode())).
		Msg("connected to plex server")

	resolver := sessions.NewResolver(
		sessions.NewPlexAccounts(client),
		adminAccount,
		adminServer,
		sessions.Target{FriendlyName: adminServer.FriendlyName, MachineIdentifier: adminServer.MachineIdentifier},
		settings.CredentialsFor,
		logger.Component(log, "sessions"),
	)
	cleanupService := cleanup.NewService(
		settings,
		resolver,
		watchlist.NewService(logger.Component(log, "watchlist")),
		library.NewScanner(logger.Component(log, "library")),
		logger.Component(log, "cleanup"),
	)

	if *once || !settings.Scheduled() {
		cleanupService.Run(ctx)
		return 0
	}

	return runScheduled(ctx, log, settings, cleanupService)
}

func runScheduled(ctx context.Context, log zerolog.Logger, settings config.Settings, cleanupService *cleanup.Service) int {
	schedulerService, err := scheduler.New(settings.Interval(), func(ctx context.Context) {
		cleanupService.Run(ctx)
	}, logger.Component(log, "scheduler"))
	if err != nil {
		log.Error().Err(err).Msg("failed to create scheduler")
		return 1
	}

	var statusServer *api.Server
	if settings.Status.Enabled {
		apiLog := logger.Component(log, "api")
		router := api.NewRouter(handlers.NewStatusHandler(cleanupService, schedulerService, version), apiLog)
		statusServer = api.NewServer(settings.Status.Addr, router, apiLog)
		statusServer.Start()
	}

	if err := schedulerService.Start(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to start scheduler")
		return 1
	}
	log.Info().Float64("interval_hours", settings.RunInterval).Msg("scheduler enabled, press Ctrl+C to stop")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, waiting for the current run to finish")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := schedulerService.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("scheduler did not stop cleanly")
	}
	if statusServer != nil {
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("status endpoint shutdown")
		}
	}

	log.Info().Msg("shutdown complete")
	return 0
}
