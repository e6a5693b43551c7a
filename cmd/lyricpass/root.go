package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"lyricpass/internal/config"
	"lyricpass/internal/logger"
	"lyricpass/internal/lyrics"
	"lyricpass/internal/pipeline"
	"lyricpass/internal/progress"
	"lyricpass/internal/provider"
	"lyricpass/internal/shutdown"
	"lyricpass/pkg/utils"
)

// flagValues holds the raw command-line values. Only flags the user set
// override the configuration file.
type flagValues struct {
	configPath   string
	output       string
	infile       string
	raw          string
	sources      []string
	lowercase    bool
	clean        bool
	stripAccents bool
	split        bool
	verbose      bool
	minLength    int
	maxLength    int
	parallel     int
	timeout      time.Duration
}

func newRootCmd() *cobra.Command {
	var fv flagValues

	root := &cobra.Command{
		Use:   "lyricpass [flags] <artist>",
		Short: "Build password-candidate wordlists from an artist's song lyrics",
		Long: `lyricpass looks up every song an artist has published, fetches the lyrics,
and writes each distinct lyric line as one wordlist entry, in first-seen order.

Config file locations (checked in order):
  ./lyricpass.yaml
  ~/.config/lyricpass/config.yaml
  ~/.lyricpass.yaml

In normal mode a progress bar is shown and detailed logs are saved to
~/.local/share/lyricpass/logs/. Verbose mode prints everything instead.`,
		Example: `  lyricpass "Daft Punk"
  lyricpass -l -o queen.txt Queen
  lyricpass -i artists.txt --sources lrclib,deezer --min 8 --raw raw.txt`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, configPath, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			artists, err := collectArtists(args, fv.infile)
			if err != nil {
				return err
			}
			return run(cfg, configPath, artists)
		},
	}

	bindFlags(root, &fv)
	root.AddCommand(initConfigCmd())
	return root
}

func bindFlags(cmd *cobra.Command, fv *flagValues) {
	f := cmd.Flags()
	f.StringVarP(&fv.output, "output", "o", "", "wordlist file (default wordlist-<artist>-<time>.txt)")
	f.StringVarP(&fv.infile, "infile", "i", "", "file with one artist per line")
	f.StringVar(&fv.raw, "raw", "", "also write the raw lyrics to this file")
	f.StringSliceVar(&fv.sources, "sources", nil, "lyric sources in priority order (lrclib,lyricscom,deezer,itunes,musicbrainz,spotify,library)")
	f.BoolVarP(&fv.lowercase, "lowercase", "l", false, "lowercase every candidate")
	f.BoolVar(&fv.clean, "clean", false, "keep only letters, digits, spaces, ' and &")
	f.BoolVar(&fv.stripAccents, "strip-accents", false, "remove diacritics")
	f.BoolVar(&fv.split, "split", false, "also split lines on punctuation")
	f.IntVar(&fv.minLength, "min", 0, "drop candidates shorter than this (0 = off)")
	f.IntVar(&fv.maxLength, "max", 0, "wrap candidates longer than this (0 = off)")
	f.IntVarP(&fv.parallel, "parallel", "p", 0, "concurrent lyric fetches (1-50, default 8)")
	f.DurationVar(&fv.timeout, "timeout", 0, "per-artist deadline, e.g. 2m (0 = none)")
	f.StringVarP(&fv.configPath, "config", "c", "", "path to config file")
	f.BoolVarP(&fv.verbose, "verbose", "v", false, "show detailed output")
}

// loadConfig applies CLI flags > config file > defaults.
func loadConfig(cmd *cobra.Command, fv flagValues) (config.Config, string, error) {
	cfg, err := config.LoadConfigFile(fv.configPath)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("failed to load config: %w", err)
	}
	configPath := fv.configPath
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = fv.output
	}
	if flags.Changed("raw") {
		cfg.RawOutput = fv.raw
	}
	if flags.Changed("sources") {
		cfg.Sources = fv.sources
	}
	if flags.Changed("lowercase") {
		cfg.Lowercase = fv.lowercase
	}
	if flags.Changed("clean") {
		cfg.Clean = fv.clean
	}
	if flags.Changed("strip-accents") {
		cfg.StripAccents = fv.stripAccents
	}
	if flags.Changed("split") {
		cfg.SplitPunctuation = fv.split
	}
	if flags.Changed("min") {
		cfg.MinLength = fv.minLength
	}
	if flags.Changed("max") {
		cfg.MaxLength = fv.maxLength
	}
	if flags.Changed("parallel") {
		cfg.ParallelJobs = fv.parallel
	}
	if flags.Changed("timeout") {
		cfg.Timeout = fv.timeout
	}
	if flags.Changed("verbose") {
		cfg.Verbose = fv.verbose
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", fmt.Errorf("configuration error: %w", err)
	}
	return cfg, configPath, nil
}

// collectArtists merges the positional artist with the artist file.
func collectArtists(args []string, infile string) ([]string, error) {
	var names []string
	if len(args) > 0 {
		names = append(names, args[0])
	}
	if infile != "" {
		fromFile, err := utils.ReadArtists(infile)
		if err != nil {
			return nil, err
		}
		names = append(names, fromFile...)
	}

	artists := utils.DedupeArtists(names)
	if len(artists) == 0 {
		return nil, fmt.Errorf("no artist given: pass an artist name or --infile")
	}
	return artists, nil
}

func run(cfg config.Config, configPath string, artists []string) error {
	log := logger.New(cfg.Verbose)
	defer log.Close()

	if !cfg.Verbose {
		setupFileLog(log)
	}
	if configPath != "" {
		log.Debug("Loaded configuration from: %s", configPath)
	}

	sh := shutdown.New()
	sh.Listen(func() {
		log.Warn("Interrupted: finishing with the lyrics fetched so far (press Ctrl+C again to quit)")
	})
	defer sh.Shutdown()

	sources, err := provider.FromConfig(cfg, log)
	if err != nil {
		return err
	}
	return runWith(sh.Context(), cfg, artists, sources, log)
}

// runWith builds the wordlist from sources and writes the output files. An
// empty catalog still writes an empty wordlist; only configuration and
// output failures are errors.
func runWith(ctx context.Context, cfg config.Config, artists []string, sources []lyrics.Source, log *logger.Logger) error {
	started := time.Now()
	res, err := generate(ctx, cfg, artists, sources, log)
	if err != nil {
		return err
	}

	wordlistPath, rawPath := outputPaths(cfg, artists, started)
	if err := utils.WriteLines(wordlistPath, res.Candidates); err != nil {
		return err
	}
	log.Info("Wrote %d candidates to %s", len(res.Candidates), wordlistPath)

	if rawPath != "" {
		var texts []string
		for _, b := range res.Blocks {
			if b.Found {
				texts = append(texts, b.Text)
			}
		}
		if err := utils.WriteRawLyrics(rawPath, texts); err != nil {
			return err
		}
		log.Info("Wrote raw lyrics of %d songs to %s", len(texts), rawPath)
	}

	if ctx.Err() != nil {
		log.Warn("Run was interrupted: the wordlist is partial")
	}
	log.Info("=== Done: lyrics found for %d of %d songs ===", res.WithLyrics, res.Songs)
	return nil
}

func generate(ctx context.Context, cfg config.Config, artists []string, sources []lyrics.Source, log *logger.Logger) (pipeline.Result, error) {
	var bar *progress.Bar
	if !cfg.Verbose {
		bar = progress.New("Fetching lyrics", 0)
		log.SetProgressBar(true)
	}

	hooks := pipeline.Hooks{
		OnCatalogResolved: func(_ string, total int) {
			if bar != nil {
				bar.AddTotal(total)
			}
		},
		OnProgress: func() {
			if bar != nil {
				bar.Increment()
			}
		},
	}

	res, err := pipeline.RunAll(ctx, artists, sources, cfg.PipelineOptions(), log, hooks)

	if bar != nil {
		bar.Finish()
		log.SetProgressBar(false)
	}
	return res, err
}

// outputPaths returns the wordlist path and the raw-lyrics path, which is
// empty when raw output is off.
func outputPaths(cfg config.Config, artists []string, now time.Time) (string, string) {
	wordlist, _ := utils.OutputNames(artists, now)
	if cfg.Output != "" {
		wordlist = cfg.Output
	}
	return wordlist, cfg.RawOutput
}

func setupFileLog(log *logger.Logger) {
	logDir := config.GetDefaultLogPath()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		return
	}
	logFile := filepath.Join(logDir, fmt.Sprintf("lyricpass_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	if err := log.SetFileLog(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
		return
	}
	log.Debug("Logging to file: %s", logFile)
}

func initConfigCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Create a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.GetDefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists at: %s\nDelete it first if you want to recreate it.\n", path)
				return nil
			}

			if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created default config file at: %s\n", path)
			fmt.Fprintln(out, "\nAvailable options:")
			fmt.Fprintln(out, "  sources: lrclib, lyricscom, deezer, itunes, musicbrainz, spotify, library")
			fmt.Fprintln(out, "  parallel_jobs: 1-50 (concurrent lyric fetches)")
			fmt.Fprintln(out, "  lowercase, clean, strip_accents, split_punctuation: true/false")
			fmt.Fprintln(out, "  min_length, max_length: 0 disables the bound")
			fmt.Fprintln(out, "  spotify_client_id, spotify_client_secret: needed for the spotify source")
			fmt.Fprintln(out, "  library_dir: music folder for the library source")
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "o", "", "where to write the file (default ~/.config/lyricpass/config.yaml)")
	return cmd
}
