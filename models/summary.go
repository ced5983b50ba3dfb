package models

import "time"

// RunMode selects between watch-status reconciliation and an unconditional purge.
type RunMode string

const (
	RunModeReconcile RunMode = "reconcile"
	RunModePurge     RunMode = "purge"
)

// UserSummary captures the outcome of one user's pass.
type UserSummary struct {
	Username      string                 `json:"username"`
	Skipped       bool                   `json:"skipped,omitempty"`
	SkipReason    string                 `json:"skipReason,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Matches       []ReconciliationResult `json:"matches,omitempty"`
	MoviesMatched int                    `json:"moviesMatched"`
	ShowsMatched  int                    `json:"showsMatched"`
	MoviesRemoved int                    `json:"moviesRemoved"`
	ShowsRemoved  int                    `json:"showsRemoved"`
	Purged        int                    `json:"purged"`
	AlreadyGone   int                    `json:"alreadyGone"`
	Failed        int                    `json:"failed"`
	Sections      []SectionReport        `json:"sections,omitempty"`
}

// SectionReport records how a single library section scan went.
type SectionReport struct {
	Kind  MediaKind `json:"kind"`
	Name  string    `json:"name"`
	Items int       `json:"items"`
	Error string    `json:"error,omitempty"`
}

// RunSummary is the tally of a complete run across all users.
type RunSummary struct {
	RunID         string        `json:"runId"`
	Mode          RunMode       `json:"mode"`
	DryRun        bool          `json:"dryRun"`
	StartedAt     time.Time     `json:"startedAt"`
	FinishedAt    time.Time     `json:"finishedAt"`
	Users         []UserSummary `json:"users"`
	MoviesRemoved int           `json:"moviesRemoved"`
	ShowsRemoved  int           `json:"showsRemoved"`
	Purged        int           `json:"purged"`
	Failures      int           `json:"failures"`
	SkippedUsers  int           `json:"skippedUsers"`
}

// Add folds a user's pass into the run totals.
func (s *RunSummary) Add(u UserSummary) {
	s.Users = append(s.Users, u)
	s.MoviesRemoved += u.MoviesRemoved
	s.ShowsRemoved += u.ShowsRemoved
	s.Purged += u.Purged
	s.Failures += u.Failed
	if u.Skipped {
		s.SkippedUsers++
	}
}

// Duration is the wall-clock time spent in the run.
func (s RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
