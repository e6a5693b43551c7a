package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var slugChars = regexp.MustCompile(`[^a-zA-Z0-9+-]`)

// WriteLines writes one line per entry to path. The file is written to a
// temporary file in the same directory and renamed into place, so readers
// never see a partial list. An empty slice produces an empty file.
func WriteLines(path string, lines []string) error {
	if path == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".lyricpass-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place at %s: %w", path, err)
	}
	return nil
}

// WriteRawLyrics writes lyric texts to path separated by blank lines.
func WriteRawLyrics(path string, texts []string) error {
	var lines []string
	for i, text := range texts {
		if i > 0 {
			lines = append(lines, "")
		}
		text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
		lines = append(lines, strings.Split(text, "\n")...)
	}
	return WriteLines(path, lines)
}

// OutputNames returns the default wordlist and raw-lyrics file names for a
// run, e.g. wordlist-Daft+Punk-2024-05-01-13.04.05.txt.
func OutputNames(artists []string, now time.Time) (wordlist, raw string) {
	var slugs []string
	for _, a := range artists {
		if s := slugChars.ReplaceAllString(strings.ReplaceAll(strings.TrimSpace(a), " ", "+"), ""); s != "" {
			slugs = append(slugs, s)
		}
	}
	name := strings.Join(slugs, "-")
	if name == "" {
		name = "artist"
	}
	stamp := now.Format("2006-01-02-15.04.05")
	return fmt.Sprintf("wordlist-%s-%s.txt", name, stamp), fmt.Sprintf("raw-lyrics-%s-%s.txt", name, stamp)
}

// DedupeArtists trims names, drops blanks, and removes case-insensitive
// duplicates keeping the first spelling.
func DedupeArtists(names []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// ReadArtists reads one artist per line. Blank lines and lines starting
// with '#' are ignored.
func ReadArtists(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artist file: %w", err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read artist file %s: %w", path, err)
	}
	return DedupeArtists(names), nil
}
