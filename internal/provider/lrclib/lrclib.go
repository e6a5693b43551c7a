package lrclib

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"lyricpass/internal/fetch"
	"lyricpass/internal/lyrics"
)

// Client is an LRCLIB API client. It is a full lyrics.Source and also serves
// as the lyrics.Fetcher for catalog-only providers.
type Client struct {
	http   *fetch.Client
	apiURL string

	mu    sync.Mutex
	cache map[string]record // search results by id; search already carries lyrics
}

func New(hc *fetch.Client) *Client {
	return &Client{
		http:   hc,
		apiURL: "https://lrclib.net/api",
		cache:  make(map[string]record),
	}
}

func (c *Client) Name() string { return "lrclib" }

// Discover searches LRCLIB for the artist and keeps records credited to them.
// The search endpoint rejects queries without q or track_name, so the artist
// goes in q and artist_name narrows the matches.
func (c *Client) Discover(ctx context.Context, artist string) ([]lyrics.Song, error) {
	params := url.Values{}
	params.Set("q", artist)
	params.Set("artist_name", artist)

	var records []record
	if err := c.getJSON(ctx, "/search?"+params.Encode(), &records); err != nil {
		return nil, err
	}

	var songs []lyrics.Song
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		if !lyrics.CreditedTo(rec.ArtistName, artist) {
			continue
		}
		id := strconv.Itoa(rec.ID)
		c.cache[id] = rec
		songs = append(songs, lyrics.Song{
			Title:    rec.TrackName,
			Artist:   rec.ArtistName,
			Album:    rec.AlbumName,
			Duration: time.Duration(rec.Duration * float64(time.Second)),
			Source:   c.Name(),
			ID:       id,
		})
	}
	return songs, nil
}

// FetchLyrics returns lyrics by LRCLIB id for songs this client discovered,
// or by artist/title signature for songs from other catalogs.
// Plain lyrics are preferred; synced lyrics are used with timestamps removed.
func (c *Client) FetchLyrics(ctx context.Context, song lyrics.Song) lyrics.Block {
	var rec record
	var err error
	if song.Source == c.Name() && song.ID != "" {
		rec, err = c.byID(ctx, song.ID)
	} else {
		rec, err = c.bySignature(ctx, song)
	}
	if err != nil {
		if fetch.IsNotFound(err) {
			return lyrics.Absent(song, lyrics.ErrNoLyrics)
		}
		return lyrics.Absent(song, err)
	}
	return blockFromRecord(song, rec)
}

func (c *Client) byID(ctx context.Context, id string) (record, error) {
	c.mu.Lock()
	rec, ok := c.cache[id]
	c.mu.Unlock()
	if ok {
		return rec, nil
	}

	err := c.getJSON(ctx, "/get/"+url.PathEscape(id), &rec)
	return rec, err
}

func (c *Client) bySignature(ctx context.Context, song lyrics.Song) (record, error) {
	params := url.Values{}
	params.Set("artist_name", song.Artist)
	params.Set("track_name", song.Title)
	if song.Album != "" {
		params.Set("album_name", song.Album)
	}
	if song.Duration > 0 {
		params.Set("duration", strconv.Itoa(int(song.Duration.Round(time.Second).Seconds())))
	}

	var rec record
	err := c.getJSON(ctx, "/get?"+params.Encode(), &rec)
	if err == nil || !fetch.IsNotFound(err) {
		return rec, err
	}
	return c.searchTrack(ctx, song, err)
}

// searchTrack is the fallback when the exact signature lookup misses, which
// happens when another catalog reports a different album or duration.
func (c *Client) searchTrack(ctx context.Context, song lyrics.Song, notFound error) (record, error) {
	params := url.Values{}
	params.Set("artist_name", song.Artist)
	params.Set("track_name", song.Title)

	var records []record
	if err := c.getJSON(ctx, "/search?"+params.Encode(), &records); err != nil {
		return record{}, err
	}

	title := song.Key()
	for _, rec := range records {
		if lyrics.SongKey(rec.TrackName) == title && lyrics.CreditedTo(rec.ArtistName, song.Artist) {
			return rec, nil
		}
	}
	return record{}, notFound
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.http.Get(ctx, c.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("lrclib request failed: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode lrclib response: %w", err)
	}
	return nil
}

func blockFromRecord(song lyrics.Song, rec record) lyrics.Block {
	if rec.Instrumental {
		return lyrics.Absent(song, fmt.Errorf("%w: instrumental", lyrics.ErrNoLyrics))
	}
	if strings.TrimSpace(rec.PlainLyrics) != "" {
		return lyrics.Present(song, rec.PlainLyrics)
	}
	if strings.TrimSpace(rec.SyncedLyrics) != "" {
		return lyrics.Present(song, lyrics.PlainFromSynced(rec.SyncedLyrics))
	}
	return lyrics.Absent(song, lyrics.ErrNoLyrics)
}

// LRCLIB API response type

type record struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}
