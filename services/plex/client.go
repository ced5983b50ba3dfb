package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"watchsweep/models"
)

const (
	plexTVBaseURL       = "https://plex.tv/api/v2"
	plexDiscoverBaseURL = "https://discover.provider.plex.tv"

	watchlistPageSize = 50
	detailWorkers     = 4
)

// Client handles Plex API interactions: plex.tv accounts, the discover
// watchlist, and connections to media servers.
type Client struct {
	httpClient  *http.Client
	clientID    string
	product     string
	version     string
	tvBaseURL   string
	discoverURL string
	limiter     *rate.Limiter
	maxRetries  int
	retryDelay  time.Duration
	log         zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limiter.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetries sets how many times a transient failure is retried and the
// initial backoff between attempts.
func WithRetries(maxRetries int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		c.retryDelay = delay
	}
}

// WithBaseURLs points the client at alternative plex.tv and discover hosts.
func WithBaseURLs(tv, discover string) ClientOption {
	return func(c *Client) {
		if tv != "" {
			c.tvBaseURL = strings.TrimRight(tv, "/")
		}
		if discover != "" {
			c.discoverURL = strings.TrimRight(discover, "/")
		}
	}
}

// WithLogger attaches a logger for retry and connection diagnostics.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithProduct sets the X-Plex-Product and X-Plex-Version headers.
func WithProduct(product, version string) ClientOption {
	return func(c *Client) {
		c.product = product
		c.version = version
	}
}

// NewClient creates a new Plex API client. An empty clientID gets a generated one.
func NewClient(clientID string, opts ...ClientOption) *Client {
	if strings.TrimSpace(clientID) == "" {
		clientID = GenerateClientID()
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		clientID:    clientID,
		product:     "watchsweep",
		version:     "1.0.0",
		tvBaseURL:   plexTVBaseURL,
		discoverURL: plexDiscoverBaseURL,
		maxRetries:  3,
		retryDelay:  500 * time.Millisecond,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// setPlexHeaders adds required Plex headers to a request
func (c *Client) setPlexHeaders(req *http.Request) {
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Product", c.product)
	req.Header.Set("X-Plex-Version", c.version)
	req.Header.Set("X-Plex-Platform", "Go")
	req.Header.Set("Accept", "application/json")
}

// ClientID returns the client identifier
func (c *Client) ClientID() string {
	return c.clientID
}

// GenerateClientID generates a new unique client identifier
func GenerateClientID() string {
	return "watchsweep-" + uuid.NewString()
}

// UserInfo represents basic Plex user information
type UserInfo struct {
	ID        int    `json:"id"`
	UUID      string `json:"uuid"`
	Username  string `json:"username"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	AuthToken string `json:"authToken,omitempty"`
}

// SignIn authenticates a plex.tv account with a username (or email) and password.
// Bad credentials surface as ErrUnauthorized.
func (c *Client) SignIn(ctx context.Context, login, password string) (*Account, error) {
	form := url.Values{}
	form.Set("login", login)
	form.Set("password", password)
	form.Set("rememberMe", "false")

	var user UserInfo
	err := c.do(ctx, request{
		op:     "sign in",
		method: http.MethodPost,
		url:    c.tvBaseURL + "/users/signin",
		form:   form,
		ok:     []int{http.StatusOK, http.StatusCreated},
	}, &user)
	if err != nil {
		return nil, err
	}
	if user.AuthToken == "" {
		return nil, fmt.Errorf("plex sign in for %s returned no auth token", login)
	}

	return &Account{client: c, token: user.AuthToken, Username: user.Username, ID: user.ID}, nil
}

// AccountFromToken wraps an existing auth token, e.g. the server owner's token.
func (c *Client) AccountFromToken(token string) *Account {
	return &Account{client: c, token: token}
}

// GetUserInfo retrieves information about the authenticated user
func (c *Client) GetUserInfo(ctx context.Context, authToken string) (*UserInfo, error) {
	var user UserInfo
	err := c.do(ctx, request{
		op:     "user info",
		method: http.MethodGet,
		url:    c.tvBaseURL + "/user",
		token:  authToken,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GUIDTag is one entry of a metadata item's "Guid" array.
type GUIDTag struct {
	ID string `json:"id"`
}

// WatchlistItem represents an item from the Plex watchlist
type WatchlistItem struct {
	RatingKey string    `json:"ratingKey"`
	Key       string    `json:"key"`
	GUID      string    `json:"guid"`
	Type      string    `json:"type"` // "movie" or "show"
	Title     string    `json:"title"`
	Year      int       `json:"year"`
	AddedAt   int64     `json:"addedAt"`
	Guids     []GUIDTag `json:"Guid"`
}

// GUIDs returns every cross-reference identifier known for the item.
func (w WatchlistItem) GUIDs() []string {
	return collectGUIDs(w.Guids, w.GUID)
}

// WatchlistPaginatedResponse represents the Plex watchlist API response with pagination info
type WatchlistPaginatedResponse struct {
	MediaContainer struct {
		Size      int             `json:"size"`
		TotalSize int             `json:"totalSize"`
		Offset    int             `json:"offset"`
		Metadata  []WatchlistItem `json:"Metadata"`
	} `json:"MediaContainer"`
}

// GetWatchlist retrieves the user's Plex watchlist (all pages), filtered to
// kind unless kind is empty. Items the listing returns without external IDs
// are enriched from the discover metadata endpoint.
func (c *Client) GetWatchlist(ctx context.Context, authToken string, kind models.MediaKind) ([]WatchlistItem, error) {
	var allItems []WatchlistItem
	offset := 0

	for {
		items, totalSize, err := c.getWatchlistPage(ctx, authToken, kind, offset, watchlistPageSize)
		if err != nil {
			return nil, err
		}

		allItems = append(allItems, items...)

		if lastPage(len(items), watchlistPageSize, len(allItems), totalSize) {
			break
		}

		offset += len(items)
	}

	c.fillWatchlistGUIDs(ctx, authToken, allItems)
	return allItems, nil
}

// getWatchlistPage retrieves a single page of the watchlist
func (c *Client) getWatchlistPage(ctx context.Context, authToken string, kind models.MediaKind, offset, limit int) ([]WatchlistItem, int, error) {
	params := url.Values{}
	params.Set("includeGuids", "1")
	params.Set("X-Plex-Container-Start", strconv.Itoa(offset))
	params.Set("X-Plex-Container-Size", strconv.Itoa(limit))
	if t := kind.SearchType(); t > 0 {
		params.Set("type", strconv.Itoa(t))
	}

	var watchlistResp WatchlistPaginatedResponse
	err := c.do(ctx, request{
		op:     "watchlist",
		method: http.MethodGet,
		url:    c.discoverURL + "/library/sections/watchlist/all?" + params.Encode(),
		token:  authToken,
	}, &watchlistResp)
	if err != nil {
		return nil, 0, err
	}

	mc := watchlistResp.MediaContainer
	return mc.Metadata, mc.TotalSize, nil
}

// lastPage reports whether paging is done. The total is only trusted when the
// server sent one; otherwise a short page ends the listing.
func lastPage(pageLen, pageSize, fetched, total int) bool {
	if pageLen == 0 {
		return true
	}
	if total > 0 {
		return fetched >= total
	}
	return pageLen < pageSize
}

// fillWatchlistGUIDs fetches external IDs for items that came back without any,
// using a small bounded pool. Lookup failures leave the item untouched.
func (c *Client) fillWatchlistGUIDs(ctx context.Context, authToken string, items []WatchlistItem) {
	p := pool.New().WithMaxGoroutines(detailWorkers)
	for i := range items {
		if len(items[i].Guids) > 0 || items[i].RatingKey == "" {
			continue
		}
		item := &items[i]
		p.Go(func() {
			guids, err := c.GetItemGUIDs(ctx, authToken, item.RatingKey)
			if err != nil {
				c.log.Debug().Err(err).Str("title", item.Title).Msg("watchlist item details unavailable")
				return
			}
			for _, g := range guids {
				item.Guids = append(item.Guids, GUIDTag{ID: g})
			}
		})
	}
	p.Wait()
}

// GetItemGUIDs retrieves the cross-reference identifiers of a discover item.
func (c *Client) GetItemGUIDs(ctx context.Context, authToken, ratingKey string) ([]string, error) {
	var detailsResp struct {
		MediaContainer struct {
			Metadata []struct {
				GUID  string    `json:"guid"`
				Guids []GUIDTag `json:"Guid"`
			} `json:"Metadata"`
		} `json:"MediaContainer"`
	}

	err := c.do(ctx, request{
		op:     "watchlist item details",
		method: http.MethodGet,
		url:    c.discoverURL + "/library/metadata/" + url.PathEscape(ratingKey),
		token:  authToken,
	}, &detailsResp)
	if err != nil {
		return nil, err
	}

	if len(detailsResp.MediaContainer.Metadata) == 0 {
		return nil, nil
	}
	item := detailsResp.MediaContainer.Metadata[0]
	return collectGUIDs(item.Guids, item.GUID), nil
}

// RemoveFromWatchlist removes an item from the user's Plex watchlist. An item
// that is no longer on the watchlist yields ErrNotOnWatchlist.
func (c *Client) RemoveFromWatchlist(ctx context.Context, authToken string, ratingKey string) error {
	params := url.Values{}
	params.Set("ratingKey", ratingKey)

	err := c.do(ctx, request{
		op:     "remove from watchlist",
		method: http.MethodPut,
		url:    c.discoverURL + "/actions/removeFromWatchlist?" + params.Encode(),
		token:  authToken,
		ok:     []int{http.StatusOK, http.StatusNoContent},
	}, nil)
	if err == nil {
		return nil
	}
	if isMissing(err) {
		return fmt.Errorf("%w: rating key %s: %w", ErrNotOnWatchlist, ratingKey, err)
	}
	return err
}

func isMissing(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusBadRequest || se.StatusCode == http.StatusConflict
}

// PlexResource represents a Plex server or client resource
type PlexResource struct {
	Name             string           `json:"name"`
	Product          string           `json:"product"`
	ProductVersion   string           `json:"productVersion"`
	Platform         string           `json:"platform"`
	ClientIdentifier string           `json:"clientIdentifier"`
	Provides         string           `json:"provides"`
	Owned            bool             `json:"owned"`
	AccessToken      string           `json:"accessToken"`
	Connections      []PlexConnection `json:"connections"`
	Presence         bool             `json:"presence"`
}

// IsServer reports whether the resource is a media server.
func (r PlexResource) IsServer() bool {
	for _, p := range strings.Split(r.Provides, ",") {
		if strings.TrimSpace(p) == "server" {
			return true
		}
	}
	return false
}

// PlexConnection represents a connection endpoint for a Plex resource
type PlexConnection struct {
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Port     int    `json:"port"`
	URI      string `json:"uri"`
	Local    bool   `json:"local"`
	Relay    bool   `json:"relay"`
}

// GetResources retrieves the account's Plex resources (servers, clients)
func (c *Client) GetResources(ctx context.Context, authToken string) ([]PlexResource, error) {
	var resources []PlexResource
	err := c.do(ctx, request{
		op:     "resources",
		method: http.MethodGet,
		url:    c.tvBaseURL + "/resources?includeHttps=1&includeRelay=1",
		token:  authToken,
	}, &resources)
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// orderedConnections returns the resource's connections in preference order:
// direct https, any direct, then relays.
func orderedConnections(res PlexResource) []PlexConnection {
	var httpsDirect, direct, relay []PlexConnection
	for _, conn := range res.Connections {
		switch {
		case conn.Relay:
			relay = append(relay, conn)
		case conn.Protocol == "https":
			httpsDirect = append(httpsDirect, conn)
		default:
			direct = append(direct, conn)
		}
	}
	out := make([]PlexConnection, 0, len(res.Connections))
	out = append(out, httpsDirect...)
	out = append(out, direct...)
	return append(out, relay...)
}

// ConnectResource opens a server connection through a resource using the
// resource's own access token, so that per-user state reflects the account
// that listed the resource.
func (c *Client) ConnectResource(ctx context.Context, res PlexResource) (*Server, error) {
	conns := orderedConnections(res)
	if len(conns) == 0 {
		return nil, fmt.Errorf("no available connection for server %s", res.Name)
	}

	var lastErr error
	for _, conn := range conns {
		srv, err := c.ConnectServer(ctx, conn.URI, res.AccessToken)
		if err == nil {
			return srv, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Debug().Err(err).Str("server", res.Name).Str("uri", conn.URI).Msg("connection attempt failed")
		lastErr = err
	}
	return nil, fmt.Errorf("connect to server %s: %w", res.Name, lastErr)
}

func collectGUIDs(tags []GUIDTag, primary string) []string {
	out := make([]string, 0, len(tags)+1)
	for _, t := range tags {
		if t.ID != "" {
			out = append(out, t.ID)
		}
	}
	if primary != "" {
		out = append(out, primary)
	}
	return out
}
