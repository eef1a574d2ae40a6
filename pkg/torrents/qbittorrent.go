package torrents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/mediaporter/mediaporter/pkg/client"
	"github.com/mediaporter/mediaporter/pkg/logger"
)

// QBittorrentClient talks to the qBittorrent WebUI API. The session cookie
// is obtained lazily and refreshed once when a request comes back forbidden.
type QBittorrentClient struct {
	http     client.HTTPClient
	scheme   string
	host     string
	username string
	password string

	mutex   *sync.Mutex
	session string
}

var _ Coordinator = (*QBittorrentClient)(nil)

func NewQBittorrentClient(httpClient client.HTTPClient, scheme, host, username, password string, port int) *QBittorrentClient {
	if httpClient == nil {
		httpClient = client.NewRateLimited()
	}
	if port != 0 {
		host = fmt.Sprintf("%s:%d", host, port)
	}

	return &QBittorrentClient{
		http:     httpClient,
		scheme:   scheme,
		host:     host,
		username: username,
		password: password,
		mutex:    new(sync.Mutex),
	}
}

// List fetches every torrent the client knows about.
func (c *QBittorrentClient) List(ctx context.Context) ([]Torrent, error) {
	b, err := c.do(ctx, http.MethodGet, "/api/v2/torrents/info", nil)
	if err != nil {
		return nil, err
	}

	var torrents []Torrent
	if err := json.Unmarshal(b, &torrents); err != nil {
		return nil, fmt.Errorf("decoding torrent list: %w", err)
	}
	return torrents, nil
}

// SetCategory assigns the torrents to a category, creating the category on
// the client first if it does not exist yet.
func (c *QBittorrentClient) SetCategory(ctx context.Context, category string, hashes ...string) error {
	if len(hashes) == 0 {
		return nil
	}

	form := url.Values{}
	form.Set("hashes", strings.Join(hashes, "|"))
	form.Set("category", category)

	_, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/setCategory", form)
	if err == nil {
		return nil
	}
	if !isConflict(err) {
		return err
	}

	logger.FromCtx(ctx).Debugw("creating missing torrent category", "category", category)
	create := url.Values{}
	create.Set("category", category)
	if _, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/createCategory", create); err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, "/api/v2/torrents/setCategory", form)
	return err
}

// SetLocation moves the torrents' data to a new save path.
func (c *QBittorrentClient) SetLocation(ctx context.Context, location string, hashes ...string) error {
	if len(hashes) == 0 {
		return nil
	}

	form := url.Values{}
	form.Set("hashes", strings.Join(hashes, "|"))
	form.Set("location", location)

	_, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/setLocation", form)
	return err
}

// Delete removes the torrents, optionally with their data.
func (c *QBittorrentClient) Delete(ctx context.Context, deleteFiles bool, hashes ...string) error {
	if len(hashes) == 0 {
		return nil
	}

	form := url.Values{}
	form.Set("hashes", strings.Join(hashes, "|"))
	form.Set("deleteFiles", fmt.Sprintf("%t", deleteFiles))

	_, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/delete", form)
	return err
}

func (c *QBittorrentClient) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	session, err := c.authSession(ctx, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, path, form, session)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		if session, err = c.authSession(ctx, true); err != nil {
			return nil, err
		}
		if resp, err = c.send(ctx, method, path, form, session); err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading torrent client response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (c *QBittorrentClient) send(ctx context.Context, method, path string, form url.Values, session string) (*http.Response, error) {
	u := url.URL{
		Scheme: c.scheme,
		Host:   c.host,
		Path:   path,
	}

	var body io.Reader
	if method == http.MethodGet && len(form) > 0 {
		u.RawQuery = form.Encode()
	} else if len(form) > 0 {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building torrent client request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: "SID", Value: session})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("torrent client request: %w", err)
	}
	return resp, nil
}

func (c *QBittorrentClient) authSession(ctx context.Context, refresh bool) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session != "" && !refresh {
		return c.session, nil
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	u := url.URL{
		Scheme: c.scheme,
		Host:   c.host,
		Path:   "/api/v2/auth/login",
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building torrent client login: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("torrent client login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("torrent client login returned %d", resp.StatusCode)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "SID" {
			c.session = cookie.Value
			return c.session, nil
		}
	}
	return "", fmt.Errorf("torrent client login did not set a session cookie")
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("torrent client returned %d: %s", e.code, e.body)
}

func isConflict(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusConflict
}
