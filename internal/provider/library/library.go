// Package library is a lyric source backed by a local music directory.
// Songs are found by their artist tags; lyrics come from embedded tags
// (USLT frames in MP3, LYRICS in other formats) or from .lrc/.txt files
// next to the audio file.
package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bogem/id3v2"
	"go.senan.xyz/taglib"

	"lyricpass/internal/lyrics"
)

const lyricsTag = "LYRICS"

var audioExts = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".mp4":  true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".aiff": true,
	".wma":  true,
}

// fileTags is the subset of an audio file's tags used here.
type fileTags struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Lyrics      string
}

// Library implements lyrics.Source over a directory tree.
type Library struct {
	dir string

	// readOther reads tags from non-MP3 files.
	readOther func(path string) (fileTags, error)

	mu    sync.Mutex
	cache map[string]fileTags
}

func New(dir string) *Library {
	return &Library{
		dir:       dir,
		readOther: readTaglib,
		cache:     make(map[string]fileTags),
	}
}

func (l *Library) Name() string { return "library" }

// Discover walks the library and returns files whose artist or album artist
// credits the artist. Untagged files are matched by their file name.
// Unreadable files are skipped.
func (l *Library) Discover(ctx context.Context, artist string) ([]lyrics.Song, error) {
	if l.dir == "" {
		return nil, errors.New("library directory not configured")
	}

	var songs []lyrics.Song
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == l.dir {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !audioExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		tags, err := l.read(path)
		if err != nil {
			return nil
		}
		fileArtist, fileTitle := parseFileName(strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())))
		credit := tags.Artist
		if credit == "" {
			credit = fileArtist
		}
		if !lyrics.CreditedTo(credit, artist) {
			if !lyrics.CreditedTo(tags.AlbumArtist, artist) {
				return nil
			}
			if credit == "" {
				credit = tags.AlbumArtist
			}
		}

		title := tags.Title
		if title == "" {
			title = fileTitle
		}
		songs = append(songs, lyrics.Song{
			Title:  title,
			Artist: credit,
			Album:  tags.Album,
			Source: l.Name(),
			ID:     path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan library %s: %w", l.dir, err)
	}
	return songs, nil
}

// FetchLyrics returns embedded lyrics, falling back to a sidecar
// <name>.lrc or <name>.txt file.
func (l *Library) FetchLyrics(ctx context.Context, song lyrics.Song) lyrics.Block {
	if song.Source != l.Name() || song.ID == "" {
		return lyrics.Absent(song, fmt.Errorf("%w: not a library file", lyrics.ErrNoLyrics))
	}
	if err := ctx.Err(); err != nil {
		return lyrics.Absent(song, err)
	}

	tags, err := l.read(song.ID)
	if err == nil && strings.TrimSpace(tags.Lyrics) != "" {
		return lyrics.Present(song, tags.Lyrics)
	}

	if text, ok := sidecar(song.ID); ok {
		return lyrics.Present(song, text)
	}
	if err != nil {
		return lyrics.Absent(song, err)
	}
	return lyrics.Absent(song, lyrics.ErrNoLyrics)
}

func (l *Library) read(path string) (fileTags, error) {
	l.mu.Lock()
	tags, ok := l.cache[path]
	l.mu.Unlock()
	if ok {
		return tags, nil
	}

	var err error
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		tags, err = readID3(path)
	} else {
		tags, err = l.readOther(path)
	}
	if err != nil {
		return fileTags{}, err
	}

	l.mu.Lock()
	l.cache[path] = tags
	l.mu.Unlock()
	return tags, nil
}

func readID3(path string) (fileTags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fileTags{}, fmt.Errorf("failed to read ID3 tag from %s: %w", path, err)
	}
	defer tag.Close()

	tags := fileTags{
		Title:  tag.Title(),
		Artist: tag.Artist(),
		Album:  tag.Album(),
	}
	if tf, ok := tag.GetLastFrame(tag.CommonID("Band/Orchestra/Accompaniment")).(id3v2.TextFrame); ok {
		tags.AlbumArtist = tf.Text
	}
	for _, f := range tag.GetFrames(tag.CommonID("Unsynchronised lyrics/text transcription")) {
		if uslt, ok := f.(id3v2.UnsynchronisedLyricsFrame); ok && strings.TrimSpace(uslt.Lyrics) != "" {
			tags.Lyrics = uslt.Lyrics
			break
		}
	}
	return tags, nil
}

func readTaglib(path string) (fileTags, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return fileTags{}, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}
	return fileTags{
		Title:       firstTag(tags, taglib.Title),
		Artist:      firstTag(tags, taglib.Artist),
		AlbumArtist: firstTag(tags, taglib.AlbumArtist),
		Album:       firstTag(tags, taglib.Album),
		Lyrics:      firstTag(tags, lyricsTag),
	}, nil
}

func firstTag(tags map[string][]string, key string) string {
	if vals := tags[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// sidecar reads <path minus extension>.lrc or .txt.
func sidecar(path string) (string, bool) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".lrc", ".txt"} {
		data, err := os.ReadFile(base + ext)
		if err != nil || strings.TrimSpace(string(data)) == "" {
			continue
		}
		text := string(data)
		if ext == ".lrc" {
			text = lyrics.PlainFromSynced(text)
		}
		return text, true
	}
	return "", false
}
