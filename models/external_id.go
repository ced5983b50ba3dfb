package models

import (
	"strconv"
	"strings"
)

// ExternalID is the catalog identifier shared by a watchlist entry and a library item.
type ExternalID struct {
	Kind MediaKind `json:"kind"`
	ID   int       `json:"id"`
}

func (e ExternalID) String() string {
	return e.Kind.GUIDScheme() + "://" + strconv.Itoa(e.ID)
}

// ExtractExternalID returns the first cross-reference identifier in the kind's
// catalog namespace, e.g. "tmdb://438631" for a movie.
func ExtractExternalID(kind MediaKind, guids []string) (ExternalID, bool) {
	scheme := kind.GUIDScheme()
	if scheme == "" {
		return ExternalID{}, false
	}

	for _, guid := range guids {
		s, rest, ok := strings.Cut(strings.TrimSpace(guid), "://")
		if !ok || !strings.EqualFold(s, scheme) {
			continue
		}
		// Legacy agent GUIDs carry a query string, e.g. "tmdb://123?lang=en".
		if idx := strings.IndexAny(rest, "?/"); idx >= 0 {
			rest = rest[:idx]
		}
		id, err := strconv.Atoi(rest)
		if err != nil || id <= 0 {
			continue
		}
		return ExternalID{Kind: kind, ID: id}, true
	}

	return ExternalID{}, false
}
