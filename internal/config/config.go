package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lyricpass/internal/fetch"
	"lyricpass/internal/pipeline"
	"lyricpass/internal/wordlist"
)

// Source names accepted in the sources list, in their default priority.
const (
	SourceLRCLIB      = "lrclib"
	SourceLyricsCom   = "lyricscom"
	SourceDeezer      = "deezer"
	SourceITunes      = "itunes"
	SourceMusicBrainz = "musicbrainz"
	SourceSpotify     = "spotify"
	SourceLibrary     = "library"
)

// ValidSources lists every source name Validate accepts.
var ValidSources = []string{
	SourceLRCLIB, SourceLyricsCom, SourceDeezer, SourceITunes,
	SourceMusicBrainz, SourceSpotify, SourceLibrary,
}

const maxParallelJobs = 50

// Config contains the program configuration
type Config struct {
	Sources             []string      `yaml:"sources"`
	Lowercase           bool          `yaml:"lowercase"`
	StripAccents        bool          `yaml:"strip_accents"`
	Clean               bool          `yaml:"clean"`
	SplitPunctuation    bool          `yaml:"split_punctuation"`
	MinLength           int           `yaml:"min_length"`
	MaxLength           int           `yaml:"max_length"`
	ParallelJobs        int           `yaml:"parallel_jobs"`
	Timeout             time.Duration `yaml:"timeout"`
	Retries             int           `yaml:"retries"`
	RetryBackoff        time.Duration `yaml:"retry_backoff"`
	UserAgent           string        `yaml:"user_agent"`
	SpotifyClientID     string        `yaml:"spotify_client_id"`
	SpotifyClientSecret string        `yaml:"spotify_client_secret"`
	LibraryDir          string        `yaml:"library_dir"`
	Output              string        `yaml:"output"`
	RawOutput           string        `yaml:"raw_output"`
	Verbose             bool          `yaml:"verbose"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Sources:      []string{SourceLRCLIB, SourceLyricsCom, SourceDeezer, SourceITunes},
		ParallelJobs: 8,
		Timeout:      5 * time.Minute,
		Retries:      fetch.DefaultRetries,
		RetryBackoff: fetch.DefaultBackoff,
		UserAgent:    fetch.DefaultUserAgent,
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.LibraryDir = ExpandHome(cfg.LibraryDir)
	cfg.Output = ExpandHome(cfg.Output)
	cfg.RawOutput = ExpandHome(cfg.RawOutput)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./lyricpass.yaml",
		"./lyricpass.yml",
		filepath.Join(home, ".config", "lyricpass", "config.yaml"),
		filepath.Join(home, ".config", "lyricpass", "config.yml"),
		filepath.Join(home, ".lyricpass.yaml"),
		filepath.Join(home, ".lyricpass.yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file may hold Spotify credentials
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "lyricpass", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "lyricpass", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid. An empty source list is
// not rejected here; the pipeline reports it as pipeline.ErrNoSources.
func (c *Config) Validate() error {
	if c.ParallelJobs < 1 {
		return fmt.Errorf("parallel jobs must be at least 1, got %d", c.ParallelJobs)
	}
	if c.ParallelJobs > maxParallelJobs {
		return fmt.Errorf("parallel jobs cannot exceed %d (to avoid rate limiting), got %d", maxParallelJobs, c.ParallelJobs)
	}

	if c.MinLength < 0 || c.MaxLength < 0 {
		return fmt.Errorf("min_length and max_length cannot be negative")
	}
	if c.MaxLength > 0 && c.MinLength > c.MaxLength {
		return fmt.Errorf("min_length (%d) cannot exceed max_length (%d)", c.MinLength, c.MaxLength)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout)
	}
	if c.Retries < 0 || c.Retries > 10 {
		return fmt.Errorf("retries must be between 0 and 10, got %d", c.Retries)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff cannot be negative, got %s", c.RetryBackoff)
	}

	valid := make(map[string]bool, len(ValidSources))
	for _, s := range ValidSources {
		valid[s] = true
	}
	seen := make(map[string]bool)
	for _, s := range c.Sources {
		if !valid[s] {
			return fmt.Errorf("unknown source %q, valid sources: %s", s, strings.Join(ValidSources, ", "))
		}
		if seen[s] {
			return fmt.Errorf("source %q listed twice", s)
		}
		seen[s] = true
	}

	if c.HasSource(SourceSpotify) {
		if c.SpotifyClientID == "" {
			return fmt.Errorf("spotify_client_id is required when spotify is in sources")
		}
		if c.SpotifyClientSecret == "" {
			return fmt.Errorf("spotify_client_secret is required when spotify is in sources")
		}
	}
	if c.HasSource(SourceLibrary) && c.LibraryDir == "" {
		return fmt.Errorf("library_dir is required when library is in sources")
	}

	return nil
}

// HasSource reports whether name is in the sources list.
func (c *Config) HasSource(name string) bool {
	for _, s := range c.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// WordlistOptions returns the normalization options.
func (c *Config) WordlistOptions() wordlist.Options {
	return wordlist.Options{
		Lowercase:        c.Lowercase,
		StripAccents:     c.StripAccents,
		Clean:            c.Clean,
		SplitPunctuation: c.SplitPunctuation,
		MinLength:        c.MinLength,
		MaxLength:        c.MaxLength,
	}
}

// PipelineOptions returns the run options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Wordlist:     c.WordlistOptions(),
		ParallelJobs: c.ParallelJobs,
		Timeout:      c.Timeout,
	}
}

// FetchOptions returns the HTTP client options shared by every source.
func (c *Config) FetchOptions() fetch.Options {
	return fetch.Options{
		Retries:   c.Retries,
		Backoff:   c.RetryBackoff,
		UserAgent: c.UserAgent,
	}
}
