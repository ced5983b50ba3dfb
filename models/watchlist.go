package models

// WatchlistEntry is one item on a user's watchlist, keyed by its external ID.
// Handle is the remote reference needed to remove it again.
type WatchlistEntry struct {
	ExternalID ExternalID `json:"externalId"`
	Title      string     `json:"title"`
	Year       int        `json:"year,omitempty"`
	Owner      string     `json:"owner"`
	Handle     string     `json:"handle"`
}

// ReconciliationResult is a watched library item that is also on the watchlist.
type ReconciliationResult struct {
	Kind       MediaKind  `json:"kind"`
	Title      string     `json:"title"`
	Year       int        `json:"year,omitempty"`
	ExternalID ExternalID `json:"externalId"`
}

// RemovalOutcome describes what happened to a single removal request.
type RemovalOutcome string

const (
	OutcomeRemoved     RemovalOutcome = "removed"
	OutcomeAlreadyGone RemovalOutcome = "already_gone"
	OutcomeFailed      RemovalOutcome = "failed"
)

// RemovalResult pairs an entry with its removal outcome.
type RemovalResult struct {
	Entry   WatchlistEntry
	Outcome RemovalOutcome
	Err     error
}

// Counted reports whether the entry is off the watchlist after the call.
func (r RemovalResult) Counted() bool {
	return r.Outcome == OutcomeRemoved || r.Outcome == OutcomeAlreadyGone
}

// PurgeResult is the outcome of clearing a user's whole watchlist.
type PurgeResult struct {
	Owner   string
	Listed  int
	Results []RemovalResult
}

// Count is the number of entries that are off the watchlist afterwards.
func (p PurgeResult) Count() int {
	n := 0
	for _, r := range p.Results {
		if r.Counted() {
			n++
		}
	}
	return n
}
