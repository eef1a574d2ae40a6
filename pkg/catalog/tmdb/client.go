// Package tmdb is a client for the movie catalog API.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/mediaporter/mediaporter/pkg/client"
)

type Client struct {
	http    client.HTTPClient
	baseURL string
	apiKey  string
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

// SearchMovies queries the catalog by title, optionally constrained to a
// release year.
func (c *Client) SearchMovies(ctx context.Context, query, year string) ([]Movie, error) {
	params := url.Values{}
	params.Set("query", query)
	if year != "" {
		params.Set("year", year)
	}

	var resp searchMoviesResponse
	if err := c.get(ctx, "/3/search/movie", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetMovie fetches one movie record by catalog id.
func (c *Client) GetMovie(ctx context.Context, id string) (*Movie, error) {
	var movie Movie
	if err := c.get(ctx, "/3/movie/"+url.PathEscape(id), nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building movie catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("movie catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("movie catalog returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding movie catalog response: %w", err)
	}
	return nil
}
