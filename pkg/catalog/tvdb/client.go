// Package tvdb is a client for the series catalog API. Authentication is a
// JWT obtained from the login endpoint; the token is fetched lazily and
// refreshed once when a request comes back unauthorized.
package tvdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/mediaporter/mediaporter/pkg/client"
)

type Client struct {
	http    client.HTTPClient
	baseURL string
	apiKey  string

	mu    sync.Mutex
	token string
}

func NewClient(baseURL, apiKey string, httpClient client.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = client.NewRateLimited()
	}
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// SearchSeries queries the catalog for series matching name.
func (c *Client) SearchSeries(ctx context.Context, name string) ([]Series, error) {
	params := url.Values{}
	params.Set("name", name)

	var resp searchSeriesResponse
	if err := c.get(ctx, "/search/series", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetSeries fetches one series record by catalog id.
func (c *Client) GetSeries(ctx context.Context, id string) (*Series, error) {
	var resp seriesResponse
	if err := c.get(ctx, "/series/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// QueryEpisodes returns the episodes of a series matching an aired season
// and episode number.
func (c *Client) QueryEpisodes(ctx context.Context, seriesID int, season, episode string) ([]Episode, error) {
	params := url.Values{}
	params.Set("airedSeason", season)
	params.Set("airedEpisode", episode)

	var resp episodesResponse
	if err := c.get(ctx, fmt.Sprintf("/series/%d/episodes/query", seriesID), params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// AllEpisodes fetches the full episode list for a series, following the
// catalog's pagination links.
func (c *Client) AllEpisodes(ctx context.Context, seriesID int) ([]Episode, error) {
	var episodes []Episode

	page := 1
	for {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))

		var resp episodesResponse
		if err := c.get(ctx, fmt.Sprintf("/series/%d/episodes", seriesID), params, &resp); err != nil {
			return nil, err
		}
		episodes = append(episodes, resp.Data...)

		if resp.Links.Next == nil || *resp.Links.Next <= page {
			return episodes, nil
		}
		page = *resp.Links.Next
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	token, err := c.authToken(ctx, false)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, path, params, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if token, err = c.authToken(ctx, true); err != nil {
			return err
		}
		if resp, err = c.do(ctx, path, params, token); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("series catalog returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding series catalog response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values, token string) (*http.Response, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building series catalog request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("series catalog request: %w", err)
	}
	return resp, nil
}

func (c *Client) authToken(ctx context.Context, refresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && !refresh {
		return c.token, nil
	}

	body, err := json.Marshal(loginRequest{APIKey: c.apiKey})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building series catalog login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("series catalog login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("series catalog login returned %d", resp.StatusCode)
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return "", fmt.Errorf("decoding series catalog login: %w", err)
	}

	c.token = login.Token
	return c.token, nil
}
