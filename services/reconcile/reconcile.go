// Package reconcile matches watched library items against a watchlist.
package reconcile

import "watchsweep/models"

// Reconcile returns one result per watched library item, in library order,
// whose external ID is on the watchlist. Items of another kind, items without
// an ID and unwatched items never match.
func Reconcile(kind models.MediaKind, watchlist map[models.ExternalID]models.WatchlistEntry, library []models.LibraryItem) []models.ReconciliationResult {
	if len(watchlist) == 0 || len(library) == 0 {
		return nil
	}

	var results []models.ReconciliationResult
	for _, item := range library {
		if !item.Watched || item.ExternalID == nil || item.ExternalID.Kind != kind {
			continue
		}
		if _, ok := watchlist[*item.ExternalID]; !ok {
			continue
		}
		results = append(results, models.ReconciliationResult{
			Kind:       kind,
			Title:      item.Title,
			Year:       item.Year,
			ExternalID: *item.ExternalID,
		})
	}
	return results
}

// Targets maps results back to the watchlist entries to remove. An entry
// matched by several library items is returned once, at its first match.
func Targets(results []models.ReconciliationResult, watchlist map[models.ExternalID]models.WatchlistEntry) []models.WatchlistEntry {
	seen := make(map[models.ExternalID]struct{}, len(results))
	targets := make([]models.WatchlistEntry, 0, len(results))
	for _, r := range results {
		if _, dup := seen[r.ExternalID]; dup {
			continue
		}
		entry, ok := watchlist[r.ExternalID]
		if !ok {
			continue
		}
		seen[r.ExternalID] = struct{}{}
		targets = append(targets, entry)
	}
	return targets
}
