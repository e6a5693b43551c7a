package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.Sources = []string{"lrclib", "spotify"}
		cfg.SpotifyClientID = "id"
		cfg.SpotifyClientSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:   "defaults",
			modify: func(c *Config) { *c = DefaultConfig() },
		},
		{
			name:    "parallel jobs 0",
			modify:  func(c *Config) { c.ParallelJobs = 0 },
			wantErr: true,
		},
		{
			name:    "parallel jobs 51",
			modify:  func(c *Config) { c.ParallelJobs = 51 },
			wantErr: true,
		},
		{
			name:   "parallel jobs 50",
			modify: func(c *Config) { c.ParallelJobs = 50 },
		},
		{
			name:    "negative min length",
			modify:  func(c *Config) { c.MinLength = -1 },
			wantErr: true,
		},
		{
			name:    "min above max",
			modify:  func(c *Config) { c.MinLength, c.MaxLength = 20, 10 },
			wantErr: true,
		},
		{
			name:   "min without max",
			modify: func(c *Config) { c.MinLength = 20 },
		},
		{
			name:   "original tool bounds",
			modify: func(c *Config) { c.MinLength, c.MaxLength = 8, 40 },
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: true,
		},
		{
			name:   "zero timeout",
			modify: func(c *Config) { c.Timeout = 0 },
		},
		{
			name:    "too many retries",
			modify:  func(c *Config) { c.Retries = 11 },
			wantErr: true,
		},
		{
			name:   "no retries",
			modify: func(c *Config) { c.Retries = 0 },
		},
		{
			name: "missing spotify id with spotify source",
			modify: func(c *Config) {
				c.SpotifyClientID = ""
			},
			wantErr: true,
		},
		{
			name: "missing spotify secret with spotify source",
			modify: func(c *Config) {
				c.SpotifyClientSecret = ""
			},
			wantErr: true,
		},
		{
			name: "no spotify creds needed without spotify source",
			modify: func(c *Config) {
				c.Sources = []string{"musicbrainz"}
				c.SpotifyClientID = ""
				c.SpotifyClientSecret = ""
			},
		},
		{
			name:   "empty sources left to the pipeline",
			modify: func(c *Config) { c.Sources = nil },
		},
		{
			name:    "unknown source",
			modify:  func(c *Config) { c.Sources = []string{"genius"} },
			wantErr: true,
		},
		{
			name:    "duplicate source",
			modify:  func(c *Config) { c.Sources = []string{"lrclib", "lrclib"} },
			wantErr: true,
		},
		{
			name:    "library without dir",
			modify:  func(c *Config) { c.Sources = []string{"library"} },
			wantErr: true,
		},
		{
			name: "library with dir",
			modify: func(c *Config) {
				c.Sources = []string{"library"}
				c.LibraryDir = "/music"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `sources: [lyricscom, lrclib]
lowercase: true
strip_accents: true
min_length: 8
max_length: 40
parallel_jobs: 16
timeout: 90s
retry_backoff: 250ms
library_dir: ~/Music
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}

	if !reflect.DeepEqual(cfg.Sources, []string{"lyricscom", "lrclib"}) {
		t.Errorf("Sources = %v", cfg.Sources)
	}
	if !cfg.Lowercase || !cfg.StripAccents || cfg.Clean {
		t.Errorf("flags = lowercase %v, strip %v, clean %v", cfg.Lowercase, cfg.StripAccents, cfg.Clean)
	}
	if cfg.MinLength != 8 || cfg.MaxLength != 40 {
		t.Errorf("bounds = %d..%d, want 8..40", cfg.MinLength, cfg.MaxLength)
	}
	if cfg.ParallelJobs != 16 {
		t.Errorf("ParallelJobs = %d, want 16", cfg.ParallelJobs)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.Timeout)
	}
	if cfg.RetryBackoff != 250*time.Millisecond {
		t.Errorf("RetryBackoff = %v, want 250ms", cfg.RetryBackoff)
	}
	if cfg.Retries != 2 {
		t.Errorf("Retries = %d, want default 2", cfg.Retries)
	}
	if cfg.LibraryDir != filepath.Join(homeDir(), "Music") {
		t.Errorf("LibraryDir = %q, want expanded home", cfg.LibraryDir)
	}
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("sources: [unclosed"), 0600)
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	cfg, err := LoadConfigFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfigFile() should return defaults for missing file, got error: %v", err)
	}
	if cfg.ParallelJobs != 8 {
		t.Errorf("expected default ParallelJobs=8, got %d", cfg.ParallelJobs)
	}
	if len(cfg.Sources) == 0 {
		t.Error("expected default sources")
	}
}

func TestSaveConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Lowercase = true
	cfg.Timeout = 2 * time.Minute

	if err := SaveConfigFile(cfg, path); err != nil {
		t.Fatalf("SaveConfigFile() error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lowercase = true
	cfg.SplitPunctuation = true
	cfg.MaxLength = 40
	cfg.Retries = 0

	po := cfg.PipelineOptions()
	if !po.Wordlist.Lowercase || !po.Wordlist.SplitPunctuation || po.Wordlist.MaxLength != 40 {
		t.Errorf("unexpected wordlist options: %+v", po.Wordlist)
	}
	if po.ParallelJobs != 8 || po.Timeout != 5*time.Minute {
		t.Errorf("unexpected pipeline options: %+v", po)
	}

	fo := cfg.FetchOptions()
	if fo.Retries != 0 || fo.UserAgent != "lyricpass/1.0" {
		t.Errorf("unexpected fetch options: %+v", fo)
	}
}

func TestExpandHome(t *testing.T) {
	home := homeDir()
	tests := []struct {
		input string
		want  string
	}{
		{"~/Music", filepath.Join(home, "Music")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~notslash", "~notslash"},
	}

	for _, tt := range tests {
		got := ExpandHome(tt.input)
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
