package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"watchsweep/models"
)

// AdminUser is the reserved name for the account that owns the server.
const AdminUser = "Admin"

// ErrInvalidConfig wraps every configuration problem. It is fatal and is
// reported before any remote call is made.
var ErrInvalidConfig = errors.New("invalid configuration")

// Settings represents the application configuration read from config.yml.
// Keys without a nested block are the long-standing config.yml keys.
type Settings struct {
	PlexURL             string                 `yaml:"plex_url"`
	PlexToken           string                 `yaml:"plex_api_key"`
	CheckMovies         bool                   `yaml:"check_movies"`
	CheckTVShows        bool                   `yaml:"check_tv_shows"`
	MovieLibraries      SectionList            `yaml:"movie_library_name"`
	TVLibraries         SectionList            `yaml:"tv_library_name"`
	RemoveFromWatchlist bool                   `yaml:"remove_from_watchlist"`
	PurgeAllWatchlist   bool                   `yaml:"purge_all_watchlist"`
	Users               UserList               `yaml:"users,omitempty"`
	UserCredentials     map[string]Credentials `yaml:"user_credentials,omitempty"`
	EnableScheduler     bool                   `yaml:"enable_scheduler"`
	RunInterval         float64                `yaml:"run_interval"` // hours, 0 = run once
	Plex                PlexSettings           `yaml:"plex"`
	Log                 LogConfig              `yaml:"log"`
	Status              StatusSettings         `yaml:"status"`
}

// Credentials are the stored plex.tv login for a non-owner user.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Complete reports whether both halves of the login are present.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}

// PlexSettings tunes the HTTP client used against plex.tv and the server.
type PlexSettings struct {
	ClientIdentifier  string  `yaml:"client_identifier"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	MaxRetries        int     `yaml:"max_retries"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout.
func (p PlexSettings) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// LogConfig represents logging configuration
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// StatusSettings controls the read-only status endpoint served while scheduled.
type StatusSettings struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		PlexURL:         "",
		PlexToken:       "",
		CheckMovies:     true,
		CheckTVShows:    true,
		MovieLibraries:  SectionList{"Movies"},
		TVLibraries:     SectionList{"TV Shows"},
		UserCredentials: map[string]Credentials{},
		Plex: PlexSettings{
			RequestsPerSecond: 4,
			MaxRetries:        3,
			TimeoutSeconds:    30,
		},
		Log: LogConfig{
			File:       "logs/watchsweep.log",
			Level:      "info",
			MaxSize:    10, // 10 MB per file
			MaxBackups: 3,
			MaxAge:     15, // days
			Compress:   true,
		},
		Status: StatusSettings{
			Enabled: false,
			Addr:    "127.0.0.1:8089",
		},
	}
}

// Mode returns the run mode selected by the purge toggle.
func (s Settings) Mode() models.RunMode {
	if s.PurgeAllWatchlist {
		return models.RunModePurge
	}
	return models.RunModeReconcile
}

// Kinds returns the media kinds enabled for reconciliation, in processing order.
func (s Settings) Kinds() []models.MediaKind {
	var kinds []models.MediaKind
	if s.CheckMovies {
		kinds = append(kinds, models.MediaKindMovie)
	}
	if s.CheckTVShows {
		kinds = append(kinds, models.MediaKindShow)
	}
	return kinds
}

// SectionsFor returns the configured library section names for a kind.
func (s Settings) SectionsFor(kind models.MediaKind) SectionList {
	switch kind {
	case models.MediaKindMovie:
		return s.MovieLibraries
	case models.MediaKindShow:
		return s.TVLibraries
	default:
		return nil
	}
}

// CredentialsFor looks up the stored login for a configured user.
func (s Settings) CredentialsFor(username string) (Credentials, bool) {
	c, ok := s.UserCredentials[username]
	return c, ok
}

// Interval returns the scheduling interval. Zero means run once.
func (s Settings) Interval() time.Duration {
	if s.RunInterval <= 0 {
		return 0
	}
	return time.Duration(s.RunInterval * float64(time.Hour))
}

// Scheduled reports whether the periodic trigger should be used.
func (s Settings) Scheduled() bool {
	return s.EnableScheduler && s.Interval() > 0
}

// Validate collects every problem with the settings into a single error.
func (s Settings) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(s.PlexURL) == "" {
		add("plex_url is required")
	} else if u, err := url.Parse(s.PlexURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("plex_url %q must be an absolute http(s) URL", s.PlexURL)
	}
	if strings.TrimSpace(s.PlexToken) == "" {
		add("plex_api_key is required")
	}
	if s.CheckMovies && len(s.MovieLibraries) == 0 {
		add("movie_library_name is required when check_movies is enabled")
	}
	if s.CheckTVShows && len(s.TVLibraries) == 0 {
		add("tv_library_name is required when check_tv_shows is enabled")
	}
	if s.RunInterval < 0 {
		add("run_interval must not be negative, got %v", s.RunInterval)
	}
	if s.Plex.RequestsPerSecond < 0 {
		add("plex.requests_per_second must not be negative (0 disables rate limiting), got %v", s.Plex.RequestsPerSecond)
	}
	if s.Plex.MaxRetries < 0 {
		add("plex.max_retries must not be negative, got %d", s.Plex.MaxRetries)
	}
	if s.Plex.TimeoutSeconds < 0 {
		add("plex.timeout_seconds must not be negative, got %d", s.Plex.TimeoutSeconds)
	}
	switch strings.ToLower(s.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		add("log.level %q is not one of debug, info, warn, error", s.Log.Level)
	}
	if s.Status.Enabled && strings.TrimSpace(s.Status.Addr) == "" {
		add("status.addr is required when status.enabled is set")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
}

// ApplyEnv overrides secrets from the environment so they can stay out of the file.
func (s *Settings) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("WATCHSWEEP_PLEX_URL")); v != "" {
		s.PlexURL = v
	}
	if v := strings.TrimSpace(getenv("WATCHSWEEP_PLEX_TOKEN")); v != "" {
		s.PlexToken = v
	}
}

// backfill fills zero values that older or partial config files leave behind.
func (s *Settings) backfill() {
	defaults := DefaultSettings()

	s.PlexURL = strings.TrimRight(strings.TrimSpace(s.PlexURL), "/")
	s.PlexToken = strings.TrimSpace(s.PlexToken)

	if len(s.Users) == 0 {
		s.Users = UserList{AdminUser}
	}
	if s.UserCredentials == nil {
		s.UserCredentials = map[string]Credentials{}
	}

	if s.Plex.TimeoutSeconds == 0 {
		s.Plex.TimeoutSeconds = defaults.Plex.TimeoutSeconds
	}

	if strings.TrimSpace(s.Log.Level) == "" {
		s.Log.Level = defaults.Log.Level
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = defaults.Log.MaxSize
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = defaults.Log.MaxAge
	}

	if strings.TrimSpace(s.Status.Addr) == "" {
		s.Status.Addr = defaults.Status.Addr
	}
}

// Manager loads and persists settings to a YAML file.
type Manager struct {
	fs   afero.Fs
	path string
}

// NewManager creates a manager reading configPath from fsys.
// A nil fsys means the operating system file system.
func NewManager(fsys afero.Fs, configPath string) *Manager {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Manager{fs: fsys, path: configPath}
}

// Path returns the config file location.
func (m *Manager) Path() string {
	return m.path
}

// ResolvePath picks the config path from the flag value, the environment, or the default.
func ResolvePath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("WATCHSWEEP_CONFIG")); p != "" {
		return p
	}
	return "config.yml"
}

// Load reads the config file, normalises it and validates it. A missing file is
// replaced with a default template and reported as invalid, since the server
// address and token cannot be defaulted.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, fmt.Errorf("%w: config path not set", ErrInvalidConfig)
	}

	data, err := afero.ReadFile(m.fs, m.path)
	if errors.Is(err, fs.ErrNotExist) {
		if saveErr := m.Save(DefaultSettings()); saveErr != nil {
			return Settings{}, fmt.Errorf("%w: %s not found and a default could not be written: %w", ErrInvalidConfig, m.path, saveErr)
		}
		return Settings{}, fmt.Errorf("%w: %s not found, a default one was written; set plex_url and plex_api_key", ErrInvalidConfig, m.path)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("%w: read %s: %w", ErrInvalidConfig, m.path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return Settings{}, err
	}
	s.ApplyEnv(os.Getenv)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Parse decodes YAML on top of the defaults and normalises the result without
// validating it.
func Parse(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s.backfill()
	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if dir := filepath.Dir(m.path); dir != "." && dir != "" {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := afero.WriteFile(m.fs, tmp, data, 0o600); err != nil {
		_ = m.fs.Remove(tmp)
		return err
	}
	return m.fs.Rename(tmp, m.path)
}
