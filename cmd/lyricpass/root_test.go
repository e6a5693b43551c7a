package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"lyricpass/internal/config"
	"lyricpass/internal/logger"
	"lyricpass/internal/lyrics"
	"lyricpass/internal/pipeline"
)

// stubSource serves a fixed catalog with lyrics keyed by title.
type stubSource struct {
	songs  []lyrics.Song
	lyrics map[string]string
}

func (s stubSource) Name() string { return "stub" }

func (s stubSource) Discover(context.Context, string) ([]lyrics.Song, error) {
	return s.songs, nil
}

func (s stubSource) FetchLyrics(_ context.Context, song lyrics.Song) lyrics.Block {
	text, ok := s.lyrics[song.Title]
	if !ok {
		return lyrics.Absent(song, lyrics.ErrNoLyrics)
	}
	return lyrics.Present(song, text)
}

func quietLogger() *logger.Logger {
	log := logger.New(true)
	log.SetOutput(io.Discard, io.Discard)
	return log
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lyricpass.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func parse(t *testing.T, args ...string) (*cobra.Command, flagValues) {
	t.Helper()
	var fv flagValues
	cmd := &cobra.Command{Use: "test"}
	bindFlags(cmd, &fv)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v): %v", args, err)
	}
	return cmd, fv
}

func TestLoadConfigPriority(t *testing.T) {
	path := writeConfig(t, `
sources: [lrclib, deezer]
lowercase: true
min_length: 4
parallel_jobs: 3
`)

	t.Run("file over defaults", func(t *testing.T) {
		cmd, fv := parse(t, "-c", path)
		cfg, got, err := loadConfig(cmd, fv)
		if err != nil {
			t.Fatalf("loadConfig() error: %v", err)
		}
		if got != path {
			t.Errorf("config path = %q, want %q", got, path)
		}
		if !reflect.DeepEqual(cfg.Sources, []string{"lrclib", "deezer"}) {
			t.Errorf("sources = %v", cfg.Sources)
		}
		if !cfg.Lowercase || cfg.MinLength != 4 || cfg.ParallelJobs != 3 {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.Timeout != config.DefaultConfig().Timeout {
			t.Errorf("timeout = %s, want default", cfg.Timeout)
		}
	})

	t.Run("flags over file", func(t *testing.T) {
		cmd, fv := parse(t, "-c", path, "--sources", "itunes", "-l=false", "--min", "0", "-p", "12", "--timeout", "90s", "-o", "out.txt", "--raw", "raw.txt")
		cfg, _, err := loadConfig(cmd, fv)
		if err != nil {
			t.Fatalf("loadConfig() error: %v", err)
		}
		if !reflect.DeepEqual(cfg.Sources, []string{"itunes"}) {
			t.Errorf("sources = %v", cfg.Sources)
		}
		if cfg.Lowercase || cfg.MinLength != 0 || cfg.ParallelJobs != 12 {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.Timeout != 90*time.Second {
			t.Errorf("timeout = %s, want 90s", cfg.Timeout)
		}
		if cfg.Output != "out.txt" || cfg.RawOutput != "raw.txt" {
			t.Errorf("output = %q, raw = %q", cfg.Output, cfg.RawOutput)
		}
	})
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, "parallel_jobs: 4\n")

	tests := []struct {
		name string
		args []string
	}{
		{"parallel too high", []string{"-c", path, "-p", "99"}},
		{"unknown source", []string{"-c", path, "--sources", "napster"}},
		{"min above max", []string{"-c", path, "--min", "10", "--max", "5"}},
		{"spotify without credentials", []string{"-c", path, "--sources", "spotify"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, fv := parse(t, tt.args...)
			if _, _, err := loadConfig(cmd, fv); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCollectArtists(t *testing.T) {
	infile := filepath.Join(t.TempDir(), "artists.txt")
	os.WriteFile(infile, []byte("Queen\n# comment\nDaft Punk\n"), 0644)

	tests := []struct {
		name    string
		args    []string
		infile  string
		want    []string
		wantErr bool
	}{
		{name: "positional", args: []string{"Daft Punk"}, want: []string{"Daft Punk"}},
		{name: "infile", infile: infile, want: []string{"Queen", "Daft Punk"}},
		{name: "positional first, duplicates dropped", args: []string{"daft punk"}, infile: infile, want: []string{"daft punk", "Queen"}},
		{name: "nothing", wantErr: true},
		{name: "blank artist", args: []string{"   "}, wantErr: true},
		{name: "missing infile", infile: filepath.Join(t.TempDir(), "none.txt"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collectArtists(tt.args, tt.infile)
			if (err != nil) != tt.wantErr {
				t.Fatalf("collectArtists() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("collectArtists() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	now := time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC)

	wordlist, raw := outputPaths(config.Config{}, []string{"Daft Punk"}, now)
	if wordlist != "wordlist-Daft+Punk-2024-05-01-13.04.05.txt" || raw != "" {
		t.Errorf("outputPaths() = %q, %q", wordlist, raw)
	}

	wordlist, raw = outputPaths(config.Config{Output: "out.txt", RawOutput: "raw.txt"}, []string{"Daft Punk"}, now)
	if wordlist != "out.txt" || raw != "raw.txt" {
		t.Errorf("outputPaths() = %q, %q", wordlist, raw)
	}
}

func TestInitConfigCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cmd := initConfigCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--path", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init-config error: %v", err)
	}
	if !strings.Contains(out.String(), "Created default config file") {
		t.Errorf("output = %q", out.String())
	}

	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Sources, config.DefaultConfig().Sources) {
		t.Errorf("sources = %v", cfg.Sources)
	}

	// second run leaves the file alone
	out.Reset()
	cmd = initConfigCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--path", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init-config error: %v", err)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunWith(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Verbose = true
	cfg.Output = filepath.Join(dir, "out.txt")
	cfg.RawOutput = filepath.Join(dir, "raw.txt")

	src := stubSource{
		songs:  []lyrics.Song{{Title: "One"}, {Title: "Two"}, {Title: "Three"}},
		lyrics: map[string]string{"One": "Hello\nWorld", "Two": "World\nAgain"},
	}
	if err := runWith(context.Background(), cfg, []string{"Band"}, []lyrics.Source{src}, quietLogger()); err != nil {
		t.Fatalf("runWith() error: %v", err)
	}

	got, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello\nWorld\nAgain\n" {
		t.Errorf("wordlist = %q", got)
	}
	if _, err := os.Stat(cfg.RawOutput); err != nil {
		t.Errorf("raw lyrics not written: %v", err)
	}
}

func TestRunWithEmptyCatalog(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Verbose = true
	cfg.Output = filepath.Join(t.TempDir(), "out.txt")

	if err := runWith(context.Background(), cfg, []string{"Nobody"}, []lyrics.Source{stubSource{}}, quietLogger()); err != nil {
		t.Fatalf("runWith() error = %v, want nil for an empty catalog", err)
	}

	info, err := os.Stat(cfg.Output)
	if err != nil {
		t.Fatalf("wordlist not written: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("wordlist size = %d, want empty", info.Size())
	}
}

func TestRunWithNoSources(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Verbose = true
	cfg.Output = filepath.Join(t.TempDir(), "out.txt")

	err := runWith(context.Background(), cfg, []string{"Queen"}, nil, quietLogger())
	if !errors.Is(err, pipeline.ErrNoSources) {
		t.Fatalf("runWith() error = %v, want ErrNoSources", err)
	}
	if _, err := os.Stat(cfg.Output); !os.IsNotExist(err) {
		t.Errorf("wordlist should not be written, stat err = %v", err)
	}
}

func TestRootCmdEmptySources(t *testing.T) {
	path := writeConfig(t, "sources: [lrclib]\n")
	out := filepath.Join(t.TempDir(), "out.txt")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"-c", path, "--sources=", "-v", "-o", out, "Queen"})
	err := cmd.Execute()
	if !errors.Is(err, pipeline.ErrNoSources) {
		t.Fatalf("Execute() error = %v, want ErrNoSources", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("wordlist should not be written, stat err = %v", err)
	}
}
