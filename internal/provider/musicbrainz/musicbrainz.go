package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"lyricpass/internal/fetch"
	"lyricpass/internal/lyrics"
)

const (
	pageSize = 100
	// DefaultMaxRecordings caps how many recordings are browsed per artist.
	DefaultMaxRecordings = 500
)

// Client is a MusicBrainz Web API client that implements lyrics.Catalog.
type Client struct {
	http          *fetch.Client
	apiURL        string
	interval      time.Duration
	maxRecordings int

	mu       sync.Mutex
	nextSlot time.Time
}

// New creates a new MusicBrainz client.
func New(hc *fetch.Client) *Client {
	return &Client{
		http:          hc,
		apiURL:        "https://musicbrainz.org/ws/2",
		interval:      time.Second,
		maxRecordings: DefaultMaxRecordings,
	}
}

func (c *Client) Name() string { return "musicbrainz" }

// Discover finds the artist's MBID and browses their recordings page by page.
func (c *Client) Discover(ctx context.Context, name string) ([]lyrics.Song, error) {
	a, ok, err := c.findArtist(ctx, name)
	if err != nil || !ok {
		return nil, err
	}

	var songs []lyrics.Song
	for offset := 0; offset < c.maxRecordings; offset += pageSize {
		params := url.Values{}
		params.Set("artist", a.ID)
		params.Set("inc", "releases+release-groups")
		params.Set("fmt", "json")
		params.Set("limit", fmt.Sprint(pageSize))
		params.Set("offset", fmt.Sprint(offset))

		var page browseResponse
		if err := c.getJSON(ctx, "/recording?"+params.Encode(), &page); err != nil {
			if len(songs) > 0 {
				// keep what earlier pages found
				return songs, nil
			}
			return nil, err
		}

		songs = append(songs, c.parseRecordings(a.Name, page.Recordings)...)
		if len(page.Recordings) < pageSize || offset+pageSize >= page.Count {
			break
		}
	}
	return songs, nil
}

// findArtist returns the best-scoring artist whose name matches. Lower hits
// that only resemble the name are ignored.
func (c *Client) findArtist(ctx context.Context, name string) (artistInfo, bool, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("artist:%q", name))
	params.Set("fmt", "json")
	params.Set("limit", "5")

	var resp artistSearchResponse
	if err := c.getJSON(ctx, "/artist?"+params.Encode(), &resp); err != nil {
		return artistInfo{}, false, err
	}
	if len(resp.Artists) == 0 {
		return artistInfo{}, false, nil
	}

	want := lyrics.SongKey(name)
	for _, a := range resp.Artists {
		if lyrics.SongKey(a.Name) == want {
			return a, true, nil
		}
	}
	return artistInfo{}, false, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	if err := c.rateLimit(ctx); err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	body, err := c.http.Get(ctx, c.apiURL+path, header)
	if err != nil {
		return fmt.Errorf("musicbrainz request failed: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode musicbrainz response: %w", err)
	}
	return nil
}

// rateLimit enforces MusicBrainz's 1 request/second limit across goroutines.
func (c *Client) rateLimit(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	slot := c.nextSlot
	if slot.Before(now) {
		slot = now
	}
	c.nextSlot = slot.Add(c.interval)
	c.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) parseRecordings(artist string, recordings []recording) []lyrics.Song {
	var songs []lyrics.Song
	for _, rec := range recordings {
		if rec.Video {
			continue
		}
		credit := joinArtistCredits(rec.ArtistCredit)
		if credit == "" {
			credit = artist
		}
		song := lyrics.Song{
			Title:    rec.Title,
			Artist:   credit,
			Duration: time.Duration(rec.Length) * time.Millisecond,
			Source:   c.Name(),
			ID:       rec.ID,
		}
		if len(rec.Releases) > 0 {
			song.Album = pickBestRelease(rec.Releases).Title
		}
		songs = append(songs, song)
	}
	return songs
}

func joinArtistCredits(credits []artistCredit) string {
	var b strings.Builder
	for _, ac := range credits {
		name := ac.Name
		if name == "" {
			name = ac.Artist.Name
		}
		b.WriteString(name)
		b.WriteString(ac.JoinPhrase)
	}
	return strings.TrimSpace(b.String())
}

// pickBestRelease selects the release whose title is used as the album.
// Prefers: Official status, Album type, no secondary types (not Compilation), earliest date.
func pickBestRelease(releases []release) release {
	best := releases[0]
	bestScore := releaseScore(best)

	for _, rel := range releases[1:] {
		s := releaseScore(rel)
		if s > bestScore || (s == bestScore && rel.Date != "" && (best.Date == "" || rel.Date < best.Date)) {
			best = rel
			bestScore = s
		}
	}
	return best
}

func releaseScore(rel release) int {
	score := 0
	if rel.Status == "Official" {
		score += 4
	}
	if rel.ReleaseGroup.PrimaryType == "Album" {
		score += 2
	}
	if len(rel.ReleaseGroup.SecondaryTypes) == 0 {
		score++
	}
	return score
}

// MusicBrainz API response types

type artistSearchResponse struct {
	Artists []artistInfo `json:"artists"`
}

type browseResponse struct {
	Count      int         `json:"recording-count"`
	Offset     int         `json:"recording-offset"`
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Length       int            `json:"length"`
	Video        bool           `json:"video"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	Releases     []release      `json:"releases"`
}

type artistCredit struct {
	Name       string     `json:"name"`
	JoinPhrase string     `json:"joinphrase"`
	Artist     artistInfo `json:"artist"`
}

type artistInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type release struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Status       string       `json:"status"`
	Date         string       `json:"date"`
	ReleaseGroup releaseGroup `json:"release-group"`
}

type releaseGroup struct {
	PrimaryType    string   `json:"primary-type"`
	SecondaryTypes []string `json:"secondary-types"`
}
