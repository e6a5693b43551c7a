// Package provider builds the lyric sources named in the configuration.
//
// The Source interface is defined in internal/lyrics (lyrics.Source),
// following the Go convention of defining interfaces where they are consumed.
// Each sub-package here implements it, or lyrics.Catalog when the service
// lists songs but has no lyric text; those are paired with LRCLIB for lyrics.
package provider

import (
	"fmt"

	"lyricpass/internal/config"
	"lyricpass/internal/fetch"
	"lyricpass/internal/logger"
	"lyricpass/internal/lyrics"
	"lyricpass/internal/provider/deezer"
	"lyricpass/internal/provider/itunes"
	"lyricpass/internal/provider/library"
	"lyricpass/internal/provider/lrclib"
	"lyricpass/internal/provider/lyricscom"
	"lyricpass/internal/provider/musicbrainz"
	"lyricpass/internal/provider/spotify"
)

// FromConfig returns the configured sources in priority order. All sources
// share one HTTP client, so retry and User-Agent settings apply uniformly.
func FromConfig(cfg config.Config, log *logger.Logger) ([]lyrics.Source, error) {
	hc := fetch.New(cfg.FetchOptions())
	lrc := lrclib.New(hc)

	var sources []lyrics.Source
	for _, name := range cfg.Sources {
		var src lyrics.Source
		switch name {
		case config.SourceLRCLIB:
			src = lrc
		case config.SourceLyricsCom:
			src = lyricscom.New(hc)
		case config.SourceDeezer:
			src = lyrics.WithLyrics(deezer.New(hc), lrc)
		case config.SourceITunes:
			src = lyrics.WithLyrics(itunes.New(hc), lrc)
		case config.SourceMusicBrainz:
			src = lyrics.WithLyrics(musicbrainz.New(hc), lrc)
		case config.SourceSpotify:
			if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
				log.Warn("Skipping spotify: client credentials not configured")
				continue
			}
			src = lyrics.WithLyrics(spotify.New(hc, cfg.SpotifyClientID, cfg.SpotifyClientSecret), lrc)
		case config.SourceLibrary:
			if cfg.LibraryDir == "" {
				log.Warn("Skipping library: library_dir not configured")
				continue
			}
			src = library.New(cfg.LibraryDir)
		default:
			return nil, fmt.Errorf("unknown source %q", name)
		}
		log.Debug("Source enabled: %s", name)
		sources = append(sources, src)
	}
	return sources, nil
}
