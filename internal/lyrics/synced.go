package lyrics

import (
	"regexp"
	"strings"
)

var (
	lrcTimestamp = regexp.MustCompile(`\[\d{1,3}:\d{2}(?:[.:]\d{1,3})?\]`)
	lrcWordStamp = regexp.MustCompile(`<\d{1,3}:\d{2}(?:[.:]\d{1,3})?>`)
	lrcMetaLine  = regexp.MustCompile(`^\[[a-zA-Z#]+:[^\]]*\]$`)
)

// PlainFromSynced strips LRC timestamps and metadata tags from synced lyrics,
// leaving one lyric line per input line.
func PlainFromSynced(synced string) string {
	lines := strings.Split(strings.ReplaceAll(synced, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if lrcMetaLine.MatchString(trimmed) {
			continue
		}
		line = lrcTimestamp.ReplaceAllString(line, "")
		line = lrcWordStamp.ReplaceAllString(line, "")
		out = append(out, strings.TrimSpace(line))
	}
	return strings.Join(out, "\n")
}
