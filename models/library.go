package models

// LibraryItem is one movie or show from a library section, as seen by the
// connecting account.
type LibraryItem struct {
	Title      string
	Year       int
	Section    string
	ExternalID *ExternalID
	Watched    bool
}

// MovieWatched reports whether a movie counts as watched.
func MovieWatched(viewCount int) bool {
	return viewCount > 0
}

// ShowWatched reports whether every episode of a show has been watched.
// A show without episodes is never watched.
func ShowWatched(viewedLeafCount, leafCount int) bool {
	return leafCount > 0 && viewedLeafCount == leafCount
}
