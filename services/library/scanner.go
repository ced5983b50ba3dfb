package library

//go:generate mockgen -destination=../../internal/mocks/library.go -package=mocks watchsweep/services/library Server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"watchsweep/config"
	"watchsweep/models"
	"watchsweep/services/plex"
)

var (
	ErrSectionNotFound = errors.New("library section not found")
	ErrSectionType     = errors.New("library section has the wrong type")
)

// Server is the part of a media server connection the scanner reads.
type Server interface {
	Section(ctx context.Context, title string) (*plex.Section, error)
	SectionItems(ctx context.Context, section *plex.Section) ([]plex.Metadata, error)
}

// Scanner reads per-account watch state from library sections.
type Scanner struct {
	log zerolog.Logger
}

// NewScanner creates a library scanner.
func NewScanner(log zerolog.Logger) *Scanner {
	return &Scanner{log: log}
}

// Scan reads every named section in order. A section that cannot be found or
// read is reported and skipped; the others are still scanned.
func (s *Scanner) Scan(ctx context.Context, server Server, kind models.MediaKind, sections config.SectionList) ([]models.LibraryItem, []models.SectionReport) {
	var (
		items   []models.LibraryItem
		reports = make([]models.SectionReport, 0, len(sections))
	)

	for i, name := range sections {
		report := models.SectionReport{Kind: kind, Name: name}

		found, err := s.scanSection(ctx, server, kind, name)
		if err != nil {
			report.Error = err.Error()
			s.log.Warn().Err(err).Str("section", name).Str("kind", string(kind)).Msg("skipping library section")
		} else {
			report.Items = len(found)
			items = append(items, found...)
		}
		reports = append(reports, report)

		s.log.Debug().Str("section", name).Int("items", report.Items).Msgf("section progress %d/%d", i+1, len(sections))
	}

	return items, reports
}

func (s *Scanner) scanSection(ctx context.Context, server Server, kind models.MediaKind, name string) ([]models.LibraryItem, error) {
	section, err := server.Section(ctx, name)
	if errors.Is(err, plex.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrSectionNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("look up section %q: %w", name, err)
	}
	if section.Type != "" && !strings.EqualFold(section.Type, string(kind)) {
		return nil, fmt.Errorf("%w: %q holds %s items, not %s", ErrSectionType, name, section.Type, kind)
	}

	metadata, err := server.SectionItems(ctx, section)
	if err != nil {
		return nil, fmt.Errorf("list section %q: %w", name, err)
	}

	items := make([]models.LibraryItem, 0, len(metadata))
	for _, md := range metadata {
		items = append(items, toLibraryItem(kind, section.Title, md))
	}
	return items, nil
}

func toLibraryItem(kind models.MediaKind, section string, md plex.Metadata) models.LibraryItem {
	item := models.LibraryItem{
		Title:   md.Title,
		Year:    md.Year,
		Section: section,
	}
	if id, ok := models.ExtractExternalID(kind, md.GUIDs()); ok {
		item.ExternalID = &id
	}

	switch kind {
	case models.MediaKindMovie:
		item.Watched = models.MovieWatched(md.ViewCount)
	case models.MediaKindShow:
		item.Watched = models.ShowWatched(md.ViewedLeafCount, md.LeafCount)
	}
	return item
}
