package torrents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// qbtServer fakes enough of the WebUI API for the client tests.
type qbtServer struct {
	t        *testing.T
	logins   atomic.Int32
	requests []capturedRequest

	categoryMissing bool
}

type capturedRequest struct {
	path string
	form url.Values
}

func (s *qbtServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/auth/login" {
			s.logins.Add(1)
			http.SetCookie(w, &http.Cookie{Name: "SID", Value: "session"})
			w.Write([]byte("Ok."))
			return
		}

		cookie, err := r.Cookie("SID")
		if err != nil || cookie.Value != "session" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		r.ParseForm()
		s.requests = append(s.requests, capturedRequest{path: r.URL.Path, form: r.Form})

		switch r.URL.Path {
		case "/api/v2/torrents/info":
			w.Write([]byte(`[
				{"hash":"aaa","name":"Dune.2021.1080p","category":"movies","save_path":"/downloads","size":1024,"progress":1,"state":"uploading"},
				{"hash":"bbb","name":"The.Wire.S03","category":"","save_path":"/downloads","size":2048,"progress":0.5,"state":"downloading"}
			]`))
		case "/api/v2/torrents/setCategory":
			if s.categoryMissing {
				s.categoryMissing = false
				w.WriteHeader(http.StatusConflict)
				return
			}
		case "/api/v2/torrents/createCategory", "/api/v2/torrents/setLocation", "/api/v2/torrents/delete":
		default:
			s.t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestClient(t *testing.T, s *qbtServer) *QBittorrentClient {
	t.Helper()
	s.t = t
	srv := httptest.NewServer(s.handler())
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewQBittorrentClient(srv.Client(), u.Scheme, u.Host, "admin", "secret", 0)
}

func TestQBittorrentClient(t *testing.T) {
	ctx := context.Background()

	t.Run("lists torrents after logging in once", func(t *testing.T) {
		server := &qbtServer{}
		c := newTestClient(t, server)

		torrents, err := c.List(ctx)
		require.NoError(t, err)
		require.Len(t, torrents, 2)
		assert.Equal(t, "aaa", torrents[0].Hash)
		assert.Equal(t, "movies", torrents[0].Category)
		assert.Equal(t, 0.5, torrents[1].Progress)

		_, err = c.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(1), server.logins.Load())
	})

	t.Run("set category joins hashes with a pipe", func(t *testing.T) {
		server := &qbtServer{}
		c := newTestClient(t, server)

		require.NoError(t, c.SetCategory(ctx, CategoryTransiting, "aaa", "bbb"))
		require.Len(t, server.requests, 1)
		assert.Equal(t, "/api/v2/torrents/setCategory", server.requests[0].path)
		assert.Equal(t, "aaa|bbb", server.requests[0].form.Get("hashes"))
		assert.Equal(t, CategoryTransiting, server.requests[0].form.Get("category"))
	})

	t.Run("missing category is created and the assignment retried", func(t *testing.T) {
		server := &qbtServer{categoryMissing: true}
		c := newTestClient(t, server)

		require.NoError(t, c.SetCategory(ctx, CategoryUploaded, "aaa"))
		require.Len(t, server.requests, 3)
		assert.Equal(t, "/api/v2/torrents/setCategory", server.requests[0].path)
		assert.Equal(t, "/api/v2/torrents/createCategory", server.requests[1].path)
		assert.Equal(t, CategoryUploaded, server.requests[1].form.Get("category"))
		assert.Equal(t, "/api/v2/torrents/setCategory", server.requests[2].path)
	})

	t.Run("delete carries the delete files flag", func(t *testing.T) {
		server := &qbtServer{}
		c := newTestClient(t, server)

		require.NoError(t, c.Delete(ctx, true, "aaa"))
		require.Len(t, server.requests, 1)
		assert.Equal(t, "/api/v2/torrents/delete", server.requests[0].path)
		assert.Equal(t, "true", server.requests[0].form.Get("deleteFiles"))
	})

	t.Run("set location moves data", func(t *testing.T) {
		server := &qbtServer{}
		c := newTestClient(t, server)

		require.NoError(t, c.SetLocation(ctx, "/done", "bbb"))
		require.Len(t, server.requests, 1)
		assert.Equal(t, "/done", server.requests[0].form.Get("location"))
	})

	t.Run("empty hash lists are a no-op", func(t *testing.T) {
		server := &qbtServer{}
		c := newTestClient(t, server)

		require.NoError(t, c.SetCategory(ctx, CategoryUploaded))
		require.NoError(t, c.Delete(ctx, false))
		assert.Empty(t, server.requests)
		assert.Equal(t, int32(0), server.logins.Load())
	})

	t.Run("expired session is refreshed once", func(t *testing.T) {
		server := &qbtServer{}
		c := newTestClient(t, server)
		c.session = "stale"

		_, err := c.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(1), server.logins.Load())
	})
}

func TestFindForPath(t *testing.T) {
	list := []Torrent{
		{Hash: "aaa", Name: "Dune.2021.1080p"},
		{Hash: "bbb", Name: "loose.episode.mkv"},
		{Hash: "ccc", Name: "single.file"},
	}

	t.Run("matches a directory element", func(t *testing.T) {
		torrent, ok := FindForPath(list, "/downloads/Dune.2021.1080p/Dune.2021.1080p.mkv")
		require.True(t, ok)
		assert.Equal(t, "aaa", torrent.Hash)
	})

	t.Run("matches a single file torrent by full name", func(t *testing.T) {
		torrent, ok := FindForPath(list, "/downloads/loose.episode.mkv")
		require.True(t, ok)
		assert.Equal(t, "bbb", torrent.Hash)
	})

	t.Run("matches a single file torrent by stem", func(t *testing.T) {
		torrent, ok := FindForPath(list, "/downloads/single.file.mkv")
		require.True(t, ok)
		assert.Equal(t, "ccc", torrent.Hash)
	})

	t.Run("unowned path finds nothing", func(t *testing.T) {
		_, ok := FindForPath(list, "/downloads/other.show.s01e01.mkv")
		assert.False(t, ok)
	})
}
