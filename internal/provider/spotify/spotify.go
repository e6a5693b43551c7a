package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"lyricpass/internal/fetch"
	"lyricpass/internal/lyrics"
)

// ErrNoCredentials is returned by Discover when no client credentials are configured.
var ErrNoCredentials = errors.New("spotify client credentials not configured")

const (
	albumBatch = 20 // max ids accepted by GET /albums
	maxAlbums  = 40
)

// Client is a Spotify Web API client that implements lyrics.Catalog.
// It uses the client-credentials flow, so no user login is involved.
type Client struct {
	clientID     string
	clientSecret string
	http         *fetch.Client
	market       string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	// Overridable for testing
	tokenURL string
	apiURL   string
}

// New creates a new Spotify client.
func New(hc *fetch.Client, clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         hc,
		market:       "US",
		tokenURL:     "https://accounts.spotify.com/api/token",
		apiURL:       "https://api.spotify.com/v1",
	}
}

func (c *Client) Name() string { return "spotify" }

// Discover lists the artist's top tracks followed by the tracks of their
// albums and singles, newest release first.
func (c *Client) Discover(ctx context.Context, name string) ([]lyrics.Song, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, ErrNoCredentials
	}

	a, ok, err := c.findArtist(ctx, name)
	if err != nil || !ok {
		return nil, err
	}

	var top topTracksResponse
	path := fmt.Sprintf("/artists/%s/top-tracks?market=%s", url.PathEscape(a.ID), c.market)
	if err := c.getJSON(ctx, path, &top); err != nil {
		return nil, err
	}
	songs := c.parseTracks(top.Tracks, "")

	albums, err := c.albumTracks(ctx, a.ID)
	if err != nil {
		// top tracks alone are still a usable catalog
		return songs, nil
	}
	return append(songs, albums...), nil
}

// findArtist returns the search hit whose name matches exactly.
func (c *Client) findArtist(ctx context.Context, name string) (artist, bool, error) {
	params := url.Values{}
	params.Set("q", name)
	params.Set("type", "artist")
	params.Set("limit", "5")

	var resp artistSearchResponse
	if err := c.getJSON(ctx, "/search?"+params.Encode(), &resp); err != nil {
		return artist{}, false, err
	}
	items := resp.Artists.Items
	if len(items) == 0 {
		return artist{}, false, nil
	}

	want := lyrics.SongKey(name)
	for _, a := range items {
		if lyrics.SongKey(a.Name) == want {
			return a, true, nil
		}
	}
	return artist{}, false, nil
}

// albumTracks fetches the artist's albums, then their track listings in
// batches of albumBatch.
func (c *Client) albumTracks(ctx context.Context, artistID string) ([]lyrics.Song, error) {
	params := url.Values{}
	params.Set("include_groups", "album,single")
	params.Set("market", c.market)
	params.Set("limit", "50")

	var page albumsResponse
	path := fmt.Sprintf("/artists/%s/albums?%s", url.PathEscape(artistID), params.Encode())
	if err := c.getJSON(ctx, path, &page); err != nil {
		return nil, err
	}

	var ids []string
	for _, al := range page.Items {
		if len(ids) == maxAlbums {
			break
		}
		ids = append(ids, al.ID)
	}

	var songs []lyrics.Song
	for start := 0; start < len(ids); start += albumBatch {
		end := min(start+albumBatch, len(ids))
		var full fullAlbumsResponse
		if err := c.getJSON(ctx, "/albums?ids="+strings.Join(ids[start:end], ",")+"&market="+c.market, &full); err != nil {
			return songs, err
		}
		for _, al := range full.Albums {
			songs = append(songs, c.parseTracks(al.Tracks.Items, al.Name)...)
		}
	}
	return songs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return fmt.Errorf("spotify auth failed: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	body, err := c.http.Get(ctx, c.apiURL+path, header)
	if err != nil {
		return fmt.Errorf("spotify request failed: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode spotify response: %w", err)
	}
	return nil
}

// getToken returns a valid access token, refreshing if necessary.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	data := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	body, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", errors.New("token response carried no access token")
	}

	c.accessToken = tokenResp.AccessToken
	// Refresh a bit early to avoid edge-case expiry
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)

	return c.accessToken, nil
}

// parseTracks converts Spotify tracks; album overrides the track's own album
// object, which album track listings leave out.
func (c *Client) parseTracks(items []trackItem, album string) []lyrics.Song {
	var songs []lyrics.Song
	for _, item := range items {
		var artists []string
		for _, a := range item.Artists {
			artists = append(artists, a.Name)
		}
		name := album
		if name == "" {
			name = item.Album.Name
		}
		songs = append(songs, lyrics.Song{
			Title:    item.Name,
			Artist:   strings.Join(artists, ", "),
			Album:    name,
			Duration: time.Duration(item.DurationMs) * time.Millisecond,
			Source:   c.Name(),
			ID:       item.ID,
		})
	}
	return songs
}

// Spotify API response types

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type artistSearchResponse struct {
	Artists struct {
		Items []artist `json:"items"`
	} `json:"artists"`
}

type topTracksResponse struct {
	Tracks []trackItem `json:"tracks"`
}

type albumsResponse struct {
	Items []albumInfo `json:"items"`
	Next  string      `json:"next"`
}

type fullAlbumsResponse struct {
	Albums []fullAlbum `json:"albums"`
}

type fullAlbum struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Items []trackItem `json:"items"`
	} `json:"tracks"`
}

type trackItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Artists    []artist  `json:"artists"`
	Album      albumInfo `json:"album"`
	DurationMs int       `json:"duration_ms"`
}

type artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type albumInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}
