package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"lyricpass/internal/logger"
	"lyricpass/internal/lyrics"
	"lyricpass/internal/wordlist"
)

type fakeSource struct {
	name   string
	songs  []lyrics.Song
	lyrics map[string]string
	delay  func(title string) time.Duration
	block  bool
	err    error
	calls  atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Discover(_ context.Context, _ string) ([]lyrics.Song, error) {
	return f.songs, f.err
}

func (f *fakeSource) FetchLyrics(ctx context.Context, song lyrics.Song) lyrics.Block {
	f.calls.Add(1)
	if f.block {
		<-make(chan struct{})
	}
	if f.delay != nil {
		time.Sleep(f.delay(song.Title))
	}
	text, ok := f.lyrics[song.Title]
	if !ok {
		return lyrics.Absent(song, errors.New("not found"))
	}
	return lyrics.Present(song, text)
}

func songs(titles ...string) []lyrics.Song {
	out := make([]lyrics.Song, len(titles))
	for i, t := range titles {
		out[i] = lyrics.Song{Title: t}
	}
	return out
}

func scenarioSource() *fakeSource {
	return &fakeSource{
		name:  "fake",
		songs: songs("Song A", "Song B"),
		lyrics: map[string]string{
			"Song A": "Hello\nHello\nWorld",
			"Song B": "World\nGoodbye",
		},
	}
}

func TestRun_ConcreteScenario(t *testing.T) {
	tests := []struct {
		name      string
		lowercase bool
		want      []string
	}{
		{name: "case preserved", want: []string{"Hello", "World", "Goodbye"}},
		{name: "lowercase", lowercase: true, want: []string{"hello", "world", "goodbye"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{Wordlist: wordlist.Options{Lowercase: tt.lowercase}}
			res, err := Run(context.Background(), "Artist", []lyrics.Source{scenarioSource()}, opts, logger.New(false), Hooks{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fmt.Sprintf("%q", res.Candidates) != fmt.Sprintf("%q", tt.want) {
				t.Errorf("Candidates = %q, want %q", res.Candidates, tt.want)
			}
			if res.Songs != 2 || res.WithLyrics != 2 {
				t.Errorf("Songs=%d WithLyrics=%d, want 2/2", res.Songs, res.WithLyrics)
			}
		})
	}
}

func TestRun_NoSources(t *testing.T) {
	_, err := Run(context.Background(), "Artist", nil, Options{}, logger.New(false), Hooks{})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
}

func TestRun_EmptyCatalog(t *testing.T) {
	failing := &fakeSource{name: "down", err: errors.New("connection refused")}
	empty := &fakeSource{name: "empty"}

	var warnings []string
	var resolvedTotal = -1
	hooks := Hooks{
		OnWarning:         func(msg string) { warnings = append(warnings, msg) },
		OnCatalogResolved: func(_ string, total int) { resolvedTotal = total },
	}

	res, err := Run(context.Background(), "Nobody", []lyrics.Source{failing, empty}, Options{}, logger.New(false), hooks)
	if err != nil {
		t.Fatalf("empty catalog should not be an error, got %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("expected no candidates, got %q", res.Candidates)
	}
	if resolvedTotal != 0 {
		t.Errorf("OnCatalogResolved total = %d, want 0", resolvedTotal)
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 discovery warning, got %v", warnings)
	}
}

func TestRun_AbsentLyricsDegrade(t *testing.T) {
	src := &fakeSource{
		name:   "partial",
		songs:  songs("Has Lyrics", "Missing", "Also Has"),
		lyrics: map[string]string{"Has Lyrics": "line one", "Also Has": "line two"},
	}

	res, err := Run(context.Background(), "Artist", []lyrics.Source{src}, Options{}, logger.New(false), Hooks{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"line one", "line two"}
	if fmt.Sprintf("%q", res.Candidates) != fmt.Sprintf("%q", want) {
		t.Errorf("Candidates = %q, want %q", res.Candidates, want)
	}
	if res.Songs != 3 || res.WithLyrics != 2 {
		t.Errorf("Songs=%d WithLyrics=%d, want 3/2", res.Songs, res.WithLyrics)
	}
}

func TestRun_FetchesFromOriginatingSource(t *testing.T) {
	first := &fakeSource{name: "first", songs: songs("Shared"), lyrics: map[string]string{"Shared": "from first"}}
	second := &fakeSource{name: "second", songs: songs("shared!", "Own"), lyrics: map[string]string{"shared!": "from second", "Own": "own line"}}

	res, err := Run(context.Background(), "Artist", []lyrics.Source{first, second}, Options{}, logger.New(false), Hooks{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"from first", "own line"}
	if fmt.Sprintf("%q", res.Candidates) != fmt.Sprintf("%q", want) {
		t.Errorf("Candidates = %q, want %q", res.Candidates, want)
	}
	if first.calls.Load() != 1 || second.calls.Load() != 1 {
		t.Errorf("calls first=%d second=%d, want 1/1", first.calls.Load(), second.calls.Load())
	}
}

func TestRun_OrderIndependentOfCompletion(t *testing.T) {
	titles := []string{"s0", "s1", "s2", "s3", "s4", "s5"}
	text := make(map[string]string)
	for _, title := range titles {
		text[title] = "line from " + title
	}
	src := &fakeSource{
		name:   "slow-first",
		songs:  songs(titles...),
		lyrics: text,
		delay: func(title string) time.Duration {
			// earlier songs finish last
			return time.Duration(len(titles)-int(title[1]-'0')) * 10 * time.Millisecond
		},
	}

	var progress atomic.Int32
	hooks := Hooks{OnProgress: func() { progress.Add(1) }}

	res, err := Run(context.Background(), "Artist", []lyrics.Source{src}, Options{ParallelJobs: len(titles)}, logger.New(false), hooks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, title := range titles {
		if res.Candidates[i] != "line from "+title {
			t.Fatalf("Candidates = %q, not in catalog order", res.Candidates)
		}
		if res.Blocks[i].Song.Title != title {
			t.Fatalf("Blocks not in catalog order at %d: %q", i, res.Blocks[i].Song.Title)
		}
	}
	if progress.Load() != int32(len(titles)) {
		t.Errorf("OnProgress called %d times, want %d", progress.Load(), len(titles))
	}
}

func TestRun_TimeoutAbandonsFetches(t *testing.T) {
	stuck := &fakeSource{name: "stuck", songs: songs("Never Returns"), block: true}
	quick := &fakeSource{name: "quick", songs: songs("Fast"), lyrics: map[string]string{"Fast": "fast line"}}

	start := time.Now()
	opts := Options{Timeout: 100 * time.Millisecond}
	res, err := Run(context.Background(), "Artist", []lyrics.Source{stuck, quick}, opts, logger.New(false), Hooks{})
	if err != nil {
		t.Fatalf("timeout should not fail the run, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("run took %v, expected it to stop at the timeout", elapsed)
	}
	if len(res.Candidates) != 1 || res.Candidates[0] != "fast line" {
		t.Errorf("Candidates = %q, want [fast line]", res.Candidates)
	}
	if res.Blocks[0].Found || !errors.Is(res.Blocks[0].Err, context.DeadlineExceeded) {
		t.Errorf("stuck song should be absent with deadline error, got %+v", res.Blocks[0])
	}
}

func TestRunAll_MergesArtists(t *testing.T) {
	src := &fakeSource{
		name:  "multi",
		songs: songs("Song A", "Song B"),
		lyrics: map[string]string{
			"Song A": "shared line\nfirst artist",
			"Song B": "shared line\nsecond song",
		},
	}

	var resolved []string
	hooks := Hooks{OnCatalogResolved: func(artist string, _ int) { resolved = append(resolved, artist) }}

	res, err := RunAll(context.Background(), []string{"One", "Two"}, []lyrics.Source{src}, Options{}, logger.New(false), hooks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"shared line", "first artist", "second song"}
	if fmt.Sprintf("%q", res.Candidates) != fmt.Sprintf("%q", want) {
		t.Errorf("Candidates = %q, want %q", res.Candidates, want)
	}
	if res.Songs != 4 {
		t.Errorf("Songs = %d, want 4", res.Songs)
	}
	if fmt.Sprint(resolved) != "[One Two]" {
		t.Errorf("resolved artists = %v", resolved)
	}
}

func TestRunAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := RunAll(ctx, []string{"One"}, []lyrics.Source{scenarioSource()}, Options{}, logger.New(false), Hooks{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("expected no candidates after cancellation, got %q", res.Candidates)
	}
}
