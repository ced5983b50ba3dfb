package models

import "fmt"

// MediaKind identifies which half of the library a watchlist entry or item belongs to.
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindShow  MediaKind = "show"
)

// GUIDScheme returns the catalog namespace whose identifiers join watchlist and library.
func (k MediaKind) GUIDScheme() string {
	switch k {
	case MediaKindMovie:
		return "tmdb"
	case MediaKindShow:
		return "tvdb"
	default:
		return ""
	}
}

// SearchType returns the numeric Plex search type used to filter listings.
func (k MediaKind) SearchType() int {
	switch k {
	case MediaKindMovie:
		return 1
	case MediaKindShow:
		return 2
	default:
		return 0
	}
}

// Label is the plural form used in log output.
func (k MediaKind) Label() string {
	switch k {
	case MediaKindMovie:
		return "movies"
	case MediaKindShow:
		return "TV shows"
	default:
		return string(k)
	}
}

func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindShow
}

func (k MediaKind) String() string {
	return string(k)
}

// ParseMediaKind accepts the Plex type names ("movie", "show").
func ParseMediaKind(s string) (MediaKind, error) {
	k := MediaKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown media kind %q", s)
	}
	return k, nil
}
