// Package lyrics defines the song and lyric data model shared by all lyric
// providers, the Source interface they implement, and the catalog resolver
// that merges their song lists.
//
// Concrete providers live under internal/provider and implement Source (or
// Catalog, when the provider lists songs but carries no lyric text).
package lyrics

import (
	"context"
	"errors"
	"time"
)

// ErrNoLyrics is the absent reason when a provider knows the song but has no text for it.
var ErrNoLyrics = errors.New("no lyrics available")

// Song identifies one song discovered for an artist.
type Song struct {
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
	Source   string // name of the provider that discovered the song
	ID       string // provider-specific handle used by FetchLyrics (lyric id, file path, ...)
}

// Key returns the normalized title used to detect the same song across providers.
func (s Song) Key() string {
	return SongKey(s.Title)
}

// Block is the raw lyric text fetched for one song. When Found is false the
// lyrics are absent: the song has none, the provider failed, or the response
// could not be parsed. Err records why, for logging only.
type Block struct {
	Song  Song
	Text  string
	Found bool
	Err   error
}

// Present returns a Block carrying lyric text.
func Present(song Song, text string) Block {
	return Block{Song: song, Text: text, Found: true}
}

// Absent returns a Block with no lyric text.
func Absent(song Song, err error) Block {
	return Block{Song: song, Err: err}
}

// Source is a lyric provider. Discover lists an artist's songs; an error means
// the listing failed and is treated as an empty catalog by callers.
// FetchLyrics never fails: every failure is reported as an absent Block.
type Source interface {
	Name() string
	Discover(ctx context.Context, artist string) ([]Song, error)
	FetchLyrics(ctx context.Context, song Song) Block
}

// Catalog is a provider that can list songs but has no lyric text of its own.
type Catalog interface {
	Name() string
	Discover(ctx context.Context, artist string) ([]Song, error)
}

// Fetcher retrieves lyric text for a song discovered elsewhere.
type Fetcher interface {
	FetchLyrics(ctx context.Context, song Song) Block
}

// WithLyrics turns a Catalog into a Source by delegating lyric lookups to f.
func WithLyrics(c Catalog, f Fetcher) Source {
	return &catalogSource{Catalog: c, fetcher: f}
}

type catalogSource struct {
	Catalog
	fetcher Fetcher
}

func (s *catalogSource) FetchLyrics(ctx context.Context, song Song) Block {
	b := s.fetcher.FetchLyrics(ctx, song)
	b.Song = song
	return b
}
