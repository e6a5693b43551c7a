package itunes

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

// maxResults is the iTunes Search API ceiling for limit.
const maxResults = 200

// Client is an iTunes Search API client that implements lyrics.Catalog.
type Client struct {
	http   *fetch.Client
	apiURL string
}

// New creates a new iTunes client.
func New(hc *fetch.Client) *Client {
	return &Client{
		http:   hc,
		apiURL: "https://itunes.apple.com/search",
	}
}

func (c *Client) Name() string { return "itunes" }

// Discover lists songs whose artist field matches the artist name.
func (c *Client) Discover(ctx context.Context, artist string) ([]lyrics.Song, error) {
	params := url.Values{}
	params.Set("term", artist)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("attribute", "artistTerm")
	params.Set("limit", strconv.Itoa(maxResults))

	body, err := c.http.Get(ctx, fmt.Sprintf("%s?%s", c.apiURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("itunes search request failed: %w", err)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode itunes response: %w", err)
	}

	return c.parseResults(artist, searchResp.Results), nil
}

// parseResults drops tracks by other artists that the term search also matched.
func (c *Client) parseResults(artist string, items []resultItem) []lyrics.Song {
	var songs []lyrics.Song
	for _, item := range items {
		if item.WrapperType != "" && item.WrapperType != "track" {
			continue
		}
		if !lyrics.CreditedTo(item.ArtistName, artist) {
			continue
		}
		songs = append(songs, lyrics.Song{
			Title:    item.TrackName,
			Artist:   item.ArtistName,
			Album:    item.CollectionName,
			Duration: time.Duration(item.TrackTimeMillis) * time.Millisecond,
			Source:   c.Name(),
			ID:       strconv.FormatInt(item.TrackID, 10),
		})
	}
	return songs
}

// iTunes Search API response types

type searchResponse struct {
	ResultCount int          `json:"resultCount"`
	Results     []resultItem `json:"results"`
}

type resultItem struct {
	WrapperType     string `json:"wrapperType"`
	TrackID         int64  `json:"trackId"`
	TrackName       string `json:"trackName"`
	ArtistName      string `json:"artistName"`
	CollectionName  string `json:"collectionName"`
	TrackTimeMillis int    `json:"trackTimeMillis"`
}
