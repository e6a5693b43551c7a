package lyrics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"lyricpass/internal/logger"
)

// Entry is one catalog song together with the source that will fetch its lyrics.
type Entry struct {
	Song   Song
	Source Source
}

// Resolver merges the song lists of several sources into one catalog.
type Resolver struct {
	sources []Source
	logger  *logger.Logger
}

// NewResolver creates a Resolver. Source order is the tie-break priority when
// two sources report the same song.
func NewResolver(sources []Source, log *logger.Logger) *Resolver {
	return &Resolver{sources: sources, logger: log}
}

// Resolve asks every source for the artist's songs and returns them
// deduplicated by SongKey, first seen wins. Sources are queried concurrently
// but merged in configuration order, so the result is deterministic.
// A failing source contributes nothing; its error is logged and returned
// alongside the catalog. An empty catalog is a valid result.
func (r *Resolver) Resolve(ctx context.Context, artist string) ([]Entry, []error) {
	found := make([][]Song, len(r.sources))
	errs := make([]error, len(r.sources))

	var g errgroup.Group
	for i, src := range r.sources {
		g.Go(func() error {
			songs, err := src.Discover(ctx, artist)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				return nil
			}
			found[i] = songs
			return nil
		})
	}
	g.Wait()

	var failures []error
	var entries []Entry
	seen := make(map[string]bool)
	for i, src := range r.sources {
		if errs[i] != nil {
			r.logger.Debug("catalog discovery failed: %v", errs[i])
			failures = append(failures, errs[i])
			continue
		}

		added := 0
		for _, song := range found[i] {
			key := song.Key()
			if key == "" {
				continue
			}
			if seen[key] {
				r.logger.Debug("  %s: skipping duplicate %q", src.Name(), song.Title)
				continue
			}
			seen[key] = true
			if song.Source == "" {
				song.Source = src.Name()
			}
			entries = append(entries, Entry{Song: song, Source: src})
			added++
		}
		r.logger.Debug("%s: %d songs found, %d new", src.Name(), len(found[i]), added)
	}

	return entries, failures
}
