package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const sectionPageSize = 200

// Server is an open connection to a Plex Media Server. View counts read
// through it belong to the account whose token opened it.
type Server struct {
	client            *Client
	baseURL           string
	token             string
	FriendlyName      string
	MachineIdentifier string
}

// Section is a library section directory entry.
type Section struct {
	Key   string `json:"key"`
	Type  string `json:"type"` // "movie", "show"
	Title string `json:"title"`
}

// Metadata is a library item as returned by /library/sections/{key}/all.
type Metadata struct {
	RatingKey       string    `json:"ratingKey"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Year            int       `json:"year"`
	GUID            string    `json:"guid"`
	Guids           []GUIDTag `json:"Guid"`
	ViewCount       int       `json:"viewCount"`
	LeafCount       int       `json:"leafCount"`
	ViewedLeafCount int       `json:"viewedLeafCount"`
}

// GUIDs returns every cross-reference identifier known for the item.
func (m Metadata) GUIDs() []string {
	return collectGUIDs(m.Guids, m.GUID)
}

// ConnectServer opens a connection to the server at baseURL and reads its identity.
func (c *Client) ConnectServer(ctx context.Context, baseURL, token string) (*Server, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	var identity struct {
		MediaContainer struct {
			FriendlyName      string `json:"friendlyName"`
			MachineIdentifier string `json:"machineIdentifier"`
		} `json:"MediaContainer"`
	}
	err := c.do(ctx, request{
		op:     "server identity",
		method: http.MethodGet,
		url:    baseURL + "/",
		token:  token,
	}, &identity)
	if err != nil {
		return nil, err
	}

	return &Server{
		client:            c,
		baseURL:           baseURL,
		token:             token,
		FriendlyName:      identity.MediaContainer.FriendlyName,
		MachineIdentifier: identity.MediaContainer.MachineIdentifier,
	}, nil
}

// BaseURL returns the address the connection was opened against.
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Sections lists the server's library sections.
func (s *Server) Sections(ctx context.Context) ([]Section, error) {
	var resp struct {
		MediaContainer struct {
			Directory []Section `json:"Directory"`
		} `json:"MediaContainer"`
	}
	err := s.client.do(ctx, request{
		op:     "library sections",
		method: http.MethodGet,
		url:    s.baseURL + "/library/sections",
		token:  s.token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.MediaContainer.Directory, nil
}

// Section finds a library section by title, ignoring case.
func (s *Server) Section(ctx context.Context, title string) (*Section, error) {
	sections, err := s.Sections(ctx)
	if err != nil {
		return nil, err
	}

	want := foldName(title)
	for i := range sections {
		if foldName(sections[i].Title) == want {
			return &sections[i], nil
		}
	}
	for i := range sections {
		if SameName(sections[i].Title, title) {
			return &sections[i], nil
		}
	}
	return nil, fmt.Errorf("%w: library section %q", ErrNotFound, title)
}

// SectionItems lists every item of a section, page by page, including external GUIDs.
func (s *Server) SectionItems(ctx context.Context, section *Section) ([]Metadata, error) {
	var all []Metadata
	offset := 0

	for {
		params := url.Values{}
		params.Set("includeGuids", "1")
		params.Set("X-Plex-Container-Start", strconv.Itoa(offset))
		params.Set("X-Plex-Container-Size", strconv.Itoa(sectionPageSize))

		var resp struct {
			MediaContainer struct {
				Size      int        `json:"size"`
				TotalSize int        `json:"totalSize"`
				Metadata  []Metadata `json:"Metadata"`
			} `json:"MediaContainer"`
		}
		err := s.client.do(ctx, request{
			op:     "section items",
			method: http.MethodGet,
			url:    s.baseURL + "/library/sections/" + url.PathEscape(section.Key) + "/all?" + params.Encode(),
			token:  s.token,
		}, &resp)
		if err != nil {
			return nil, err
		}

		page := resp.MediaContainer.Metadata
		all = append(all, page...)

		if lastPage(len(page), sectionPageSize, len(all), resp.MediaContainer.TotalSize) {
			break
		}
		offset += len(page)
	}

	return all, nil
}
