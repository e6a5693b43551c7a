package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lyricpass/internal/logger"
	"lyricpass/internal/lyrics"
	"lyricpass/internal/wordlist"
)

// ErrNoSources is returned when a run is started without any lyric source.
var ErrNoSources = errors.New("no lyric sources configured")

const defaultParallelJobs = 8

type Hooks struct {
	OnCatalogResolved func(artist string, total int)
	OnProgress        func()
	OnWarning         func(msg string)
}

// Options controls a run.
type Options struct {
	Wordlist     wordlist.Options
	ParallelJobs int           // concurrent lyric fetches, defaults to 8
	Timeout      time.Duration // per-artist deadline, 0 = none
}

// Result is the outcome of a run: the candidate list plus counters.
type Result struct {
	Candidates []string
	Blocks     []lyrics.Block // every fetched block, catalog order
	Songs      int
	WithLyrics int
}

// Run builds the wordlist for one artist: resolve the catalog, fetch lyrics
// for every song, normalize, and aggregate. Song-level failures never abort
// the run; only an empty source list does.
func Run(ctx context.Context, artist string, sources []lyrics.Source, opts Options, log *logger.Logger, hooks Hooks) (Result, error) {
	return RunAll(ctx, []string{artist}, sources, opts, log, hooks)
}

// RunAll runs several artists in order and merges their candidates into a
// single list, keeping the first occurrence of each.
func RunAll(ctx context.Context, artists []string, sources []lyrics.Source, opts Options, log *logger.Logger, hooks Hooks) (Result, error) {
	if len(sources) == 0 {
		return Result{}, ErrNoSources
	}
	if opts.ParallelJobs < 1 {
		opts.ParallelJobs = defaultParallelJobs
	}

	resolver := lyrics.NewResolver(sources, log)
	agg := wordlist.NewAggregator()
	var res Result

	for _, artist := range artists {
		if ctx.Err() != nil {
			log.Warn("Run cancelled before %q", artist)
			break
		}
		blocks := runArtist(ctx, artist, resolver, opts, log, hooks)

		for _, b := range blocks {
			res.Songs++
			if b.Found {
				res.WithLyrics++
			}
			agg.Add(wordlist.Normalize(b, opts.Wordlist)...)
		}
		res.Blocks = append(res.Blocks, blocks...)
	}

	res.Candidates = agg.Candidates()
	log.Info("Generated %d unique candidates from %d songs", len(res.Candidates), res.Songs)
	return res, nil
}

func runArtist(ctx context.Context, artist string, resolver *lyrics.Resolver, opts Options, log *logger.Logger, hooks Hooks) []lyrics.Block {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	log.Info("=== Looking up %s ===", artist)
	entries, failures := resolver.Resolve(ctx, artist)
	for _, err := range failures {
		warn(log, hooks, fmt.Sprintf("song discovery failed for %s: %v", artist, err))
	}

	if hooks.OnCatalogResolved != nil {
		hooks.OnCatalogResolved(artist, len(entries))
	}
	if len(entries) == 0 {
		log.Warn("No songs found for %s", artist)
		return nil
	}
	log.Info("Found %d songs for %s", len(entries), artist)

	blocks := fetchAll(ctx, entries, opts.ParallelJobs, log, hooks)

	var missing []string
	for _, b := range blocks {
		if !b.Found {
			missing = append(missing, b.Song.Title)
		}
	}
	if len(missing) > 0 {
		warn(log, hooks, fmt.Sprintf("%d of %d songs by %s had no retrievable lyrics", len(missing), len(blocks), artist))
		log.Debug("Songs without lyrics: %s", strings.Join(missing, "; "))
	}
	return blocks
}

// fetchAll fetches lyrics for every entry on a bounded pool and returns the
// blocks in catalog order regardless of completion order.
func fetchAll(ctx context.Context, entries []lyrics.Entry, parallel int, log *logger.Logger, hooks Hooks) []lyrics.Block {
	blocks := make([]lyrics.Block, len(entries))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, e := range entries {
		g.Go(func() error {
			blocks[i] = fetchOne(ctx, e)
			if b := blocks[i]; b.Found {
				log.Debug("[%d/%d] %s: lyrics from %s", i+1, len(entries), e.Song.Title, e.Song.Source)
			} else {
				log.Debug("[%d/%d] %s: no lyrics from %s (%v)", i+1, len(entries), e.Song.Title, e.Song.Source, b.Err)
			}
			if hooks.OnProgress != nil {
				hooks.OnProgress()
			}
			return nil
		})
	}
	g.Wait()

	return blocks
}

// fetchOne abandons the fetch when ctx ends, reporting the song as absent.
func fetchOne(ctx context.Context, e lyrics.Entry) lyrics.Block {
	if err := ctx.Err(); err != nil {
		return lyrics.Absent(e.Song, err)
	}

	done := make(chan lyrics.Block, 1)
	go func() {
		done <- e.Source.FetchLyrics(ctx, e.Song)
	}()

	select {
	case b := <-done:
		b.Song = e.Song
		return b
	case <-ctx.Done():
		return lyrics.Absent(e.Song, ctx.Err())
	}
}

func warn(log *logger.Logger, hooks Hooks, msg string) {
	log.Warn("%s", msg)
	if hooks.OnWarning != nil {
		hooks.OnWarning(msg)
	}
}
