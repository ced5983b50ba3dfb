package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchsweep/models"
)

func newTestClient(t *testing.T, r *mux.Router) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	c := NewClient("test-client",
		WithBaseURLs(srv.URL+"/api/v2", srv.URL),
		WithRetries(2, 0),
		WithRateLimit(0),
	)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestSignInReturnsAccount(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/v2/users/signin", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, req.ParseForm())
		assert.Equal(t, "test-client", req.Header.Get("X-Plex-Client-Identifier"))
		if req.PostForm.Get("login") != "bob" || req.PostForm.Get("password") != "secret" {
			writeJSON(w, http.StatusUnauthorized, `{"errors":[{"message":"invalid"}]}`)
			return
		}
		writeJSON(w, http.StatusCreated, `{"id":7,"username":"bob","authToken":"tok-bob"}`)
	}).Methods(http.MethodPost)
	c, _ := newTestClient(t, r)

	acct, err := c.SignIn(context.Background(), "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-bob", acct.Token())
	assert.Equal(t, "bob", acct.Username)

	_, err = c.SignIn(context.Background(), "bob", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestWatchlistPagesAndFillsGUIDs(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/library/sections/watchlist/all", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "1", req.URL.Query().Get("type"))
		assert.Equal(t, "tok", req.Header.Get("X-Plex-Token"))
		switch req.URL.Query().Get("X-Plex-Container-Start") {
		case "0":
			writeJSON(w, http.StatusOK, `{"MediaContainer":{"size":1,"totalSize":2,"Metadata":[
				{"ratingKey":"a1","type":"movie","title":"Dune","year":2021,"Guid":[{"id":"imdb://tt1160419"},{"id":"tmdb://438631"}]}]}}`)
		default:
			writeJSON(w, http.StatusOK, `{"MediaContainer":{"size":1,"totalSize":2,"Metadata":[
				{"ratingKey":"b2","type":"movie","title":"Arrival","year":2016}]}}`)
		}
	})
	r.HandleFunc("/library/metadata/{key}", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "b2", mux.Vars(req)["key"])
		writeJSON(w, http.StatusOK, `{"MediaContainer":{"Metadata":[{"guid":"plex://movie/b2","Guid":[{"id":"tmdb://329865"}]}]}}`)
	})
	c, _ := newTestClient(t, r)

	items, err := c.AccountFromToken("tok").Watchlist(context.Background(), models.MediaKindMovie)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"imdb://tt1160419", "tmdb://438631"}, items[0].GUIDs())
	assert.Equal(t, []string{"tmdb://329865", "plex://movie/b2"}, items[1].GUIDs())
}

func TestRemoveFromWatchlist(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/actions/removeFromWatchlist", func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Query().Get("ratingKey") {
		case "present":
			w.WriteHeader(http.StatusOK)
		default:
			writeJSON(w, http.StatusNotFound, `{"error":"not found"}`)
		}
	}).Methods(http.MethodPut)
	c, _ := newTestClient(t, r)
	acct := c.AccountFromToken("tok")

	require.NoError(t, acct.RemoveFromWatchlist(context.Background(), "present"))

	err := acct.RemoveFromWatchlist(context.Background(), "gone")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotOnWatchlist)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveTreatsRejectedRemovalAsGone(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/actions/removeFromWatchlist", func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Query().Get("ratingKey") {
		case "bad-request":
			writeJSON(w, http.StatusBadRequest, `{"error":"not on watchlist"}`)
		case "conflict":
			writeJSON(w, http.StatusConflict, `{"error":"conflict"}`)
		default:
			writeJSON(w, http.StatusInternalServerError, `oops`)
		}
	}).Methods(http.MethodPut)
	c, _ := newTestClient(t, r)
	WithRetries(0, 0)(c)
	acct := c.AccountFromToken("tok")

	err := acct.RemoveFromWatchlist(context.Background(), "bad-request")
	assert.ErrorIs(t, err, ErrNotOnWatchlist)
	assert.ErrorIs(t, err, ErrBadRequest)

	err = acct.RemoveFromWatchlist(context.Background(), "conflict")
	assert.ErrorIs(t, err, ErrNotOnWatchlist)

	err = acct.RemoveFromWatchlist(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotOnWatchlist)
}

func TestPagingWithoutTotalSize(t *testing.T) {
	const sectionTotal = 250
	r := mux.NewRouter()
	r.HandleFunc("/library/sections/{key}/all", func(w http.ResponseWriter, req *http.Request) {
		start, _ := strconv.Atoi(req.URL.Query().Get("X-Plex-Container-Start"))
		size, _ := strconv.Atoi(req.URL.Query().Get("X-Plex-Container-Size"))
		var metas []string
		for i := start; i < start+size && i < sectionTotal; i++ {
			metas = append(metas, fmt.Sprintf(`{"ratingKey":"%d","type":"movie","title":"Movie %d","viewCount":1}`, i, i))
		}
		writeJSON(w, http.StatusOK, `{"MediaContainer":{"size":`+strconv.Itoa(len(metas))+`,"Metadata":[`+strings.Join(metas, ",")+`]}}`)
	})
	r.HandleFunc("/library/sections/watchlist/all", func(w http.ResponseWriter, req *http.Request) {
		start, _ := strconv.Atoi(req.URL.Query().Get("X-Plex-Container-Start"))
		var metas []string
		for i := start; i < start+watchlistPageSize && i < 60; i++ {
			metas = append(metas, fmt.Sprintf(`{"ratingKey":"w%d","type":"movie","title":"Wish %d","Guid":[{"id":"tmdb://%d"}]}`, i, i, i+1))
		}
		writeJSON(w, http.StatusOK, `{"MediaContainer":{"Metadata":[`+strings.Join(metas, ",")+`]}}`)
	})
	c, srv := newTestClient(t, r)

	server := &Server{client: c, baseURL: srv.URL, token: "tok"}
	items, err := server.SectionItems(context.Background(), &Section{Key: "1", Type: "movie", Title: "Movies"})
	require.NoError(t, err)
	assert.Len(t, items, sectionTotal)

	watchlist, err := c.AccountFromToken("tok").Watchlist(context.Background(), models.MediaKindMovie)
	require.NoError(t, err)
	assert.Len(t, watchlist, 60)
}

func TestTransientErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	r := mux.NewRouter()
	r.HandleFunc("/api/v2/user", func(w http.ResponseWriter, req *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, `busy`)
			return
		}
		writeJSON(w, http.StatusOK, `{"id":1,"username":"owner"}`)
	})
	c, _ := newTestClient(t, r)

	user, err := c.GetUserInfo(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "owner", user.Username)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	r := mux.NewRouter()
	r.HandleFunc("/api/v2/user", func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusUnauthorized, `nope`)
	})
	c, _ := newTestClient(t, r)

	_, err := c.GetUserInfo(context.Background(), "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualValues(t, 1, calls.Load())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.False(t, se.Temporary())
}

func TestServerSectionsAndItems(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, `{"MediaContainer":{"friendlyName":"Home","machineIdentifier":"m1"}}`)
	})
	r.HandleFunc("/library/sections", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, `{"MediaContainer":{"Directory":[
			{"key":"1","type":"movie","title":"Movies"},
			{"key":"2","type":"show","title":"TV Shows"}]}}`)
	})
	r.HandleFunc("/library/sections/{key}/all", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "2", mux.Vars(req)["key"])
		assert.Equal(t, "1", req.URL.Query().Get("includeGuids"))
		writeJSON(w, http.StatusOK, `{"MediaContainer":{"size":1,"totalSize":1,"Metadata":[
			{"ratingKey":"10","type":"show","title":"Severance","leafCount":19,"viewedLeafCount":19,"Guid":[{"id":"tvdb://371980"}]}]}}`)
	})
	c, srv := newTestClient(t, r)

	server, err := c.ConnectServer(context.Background(), srv.URL+"/", "tok")
	require.NoError(t, err)
	assert.Equal(t, "Home", server.FriendlyName)
	assert.Equal(t, srv.URL, server.BaseURL())

	section, err := server.Section(context.Background(), "tv shows")
	require.NoError(t, err)
	assert.Equal(t, "TV Shows", section.Title)

	_, err = server.Section(context.Background(), "Anime")
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := server.SectionItems(context.Background(), section)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 19, items[0].ViewedLeafCount)
	assert.Equal(t, []string{"tvdb://371980"}, items[0].GUIDs())
}

func TestConnectResourceFallsBackToNextConnection(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "shared-token", req.Header.Get("X-Plex-Token"))
		writeJSON(w, http.StatusOK, `{"MediaContainer":{"friendlyName":"Home","machineIdentifier":"m1"}}`)
	})
	c, srv := newTestClient(t, r)
	WithRetries(0, 0)(c)

	res := PlexResource{
		Name:        "Home",
		Provides:    "server",
		AccessToken: "shared-token",
		Connections: []PlexConnection{
			{Protocol: "http", URI: srv.URL, Relay: true},
			{Protocol: "https", URI: fmt.Sprintf("http://127.0.0.1:%d", 1)},
		},
	}
	require.True(t, res.IsServer())

	server, err := c.ConnectResource(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, "m1", server.MachineIdentifier)
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("TV Shows", "tv  shows"))
	assert.True(t, SameName("Séries", "Series"))
	assert.True(t, SameName("FILMS", "Films"))
	assert.False(t, SameName("Movies", "Movies 4K"))
	assert.False(t, SameName("", ""))
}
