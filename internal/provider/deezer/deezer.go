package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"lyricpass/internal/fetch"
	"lyricpass/internal/lyrics"
)

// DefaultLimit is the number of top tracks requested per artist.
const DefaultLimit = 100

// Client is a Deezer API client that implements lyrics.Catalog.
// Deezer has no lyric text; pair it with a lyrics.Fetcher.
type Client struct {
	http   *fetch.Client
	apiURL string
	limit  int
}

// New creates a new Deezer client.
func New(hc *fetch.Client) *Client {
	return &Client{
		http:   hc,
		apiURL: "https://api.deezer.com",
		limit:  DefaultLimit,
	}
}

func (c *Client) Name() string { return "deezer" }

// Discover resolves the artist by name and lists their top tracks.
func (c *Client) Discover(ctx context.Context, name string) ([]lyrics.Song, error) {
	a, ok, err := c.findArtist(ctx, name)
	if err != nil || !ok {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/artist/%d/top?limit=%d", c.apiURL, a.ID, c.limit)
	var resp tracksResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("deezer API error: %s", resp.Error.Message)
	}

	return c.parseTracks(resp.Data), nil
}

// findArtist picks the exact name match from the artist search. Deezer's
// fuzzy hits for an unknown name belong to other artists, so no match means
// no catalog.
func (c *Client) findArtist(ctx context.Context, name string) (artist, bool, error) {
	reqURL := fmt.Sprintf("%s/search/artist?q=%s&limit=5", c.apiURL, url.QueryEscape(name))
	var resp artistsResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return artist{}, false, err
	}
	if resp.Error != nil {
		return artist{}, false, fmt.Errorf("deezer API error: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return artist{}, false, nil
	}

	want := lyrics.SongKey(name)
	for _, a := range resp.Data {
		if lyrics.SongKey(a.Name) == want {
			return a, true, nil
		}
	}
	return artist{}, false, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, v any) error {
	body, err := c.http.Get(ctx, reqURL, nil)
	if err != nil {
		return fmt.Errorf("deezer request failed: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode deezer response: %w", err)
	}
	return nil
}

func (c *Client) parseTracks(items []trackItem) []lyrics.Song {
	var songs []lyrics.Song
	for _, item := range items {
		title := item.TitleShort
		if title == "" {
			title = item.Title
		}
		songs = append(songs, lyrics.Song{
			Title:    title,
			Artist:   item.Artist.Name,
			Album:    item.Album.Title,
			Duration: time.Duration(item.Duration) * time.Second,
			Source:   c.Name(),
			ID:       strconv.Itoa(item.ID),
		})
	}
	return songs
}

// Deezer API response types

type artistsResponse struct {
	Data  []artist  `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type tracksResponse struct {
	Data  []trackItem `json:"data"`
	Error *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type trackItem struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	TitleShort string    `json:"title_short"`
	Duration   int       `json:"duration"`
	Artist     artist    `json:"artist"`
	Album      albumInfo `json:"album"`
}

type artist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type albumInfo struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}
