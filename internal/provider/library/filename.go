package library

import (
	"regexp"
	"strings"
)

// Download-site suffixes such as "(Official Video)" or "[HD]".
var fileNameNoise = regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:official\s+)?(?:music\s+|lyric\s+)?(?:video|audio|visuali[sz]er|lyrics?|hd|hq|4k)\s*[\)\]]`)

var featuringPattern = regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:feat\.?|ft\.?|featuring)\s+[^\)\]]+[\)\]]`)

var trackNumberPrefix = regexp.MustCompile(`^\d{1,3}\s*[-.]\s+`)

// "Artist - Title"; the dash must be spaced so "Jay-Z" stays whole.
var artistTitleSeparator = regexp.MustCompile(`^(.+?)\s+[-–—]\s+(.+)$`)

var vevoSuffix = regexp.MustCompile(`(?i)vevo$`)

// parseFileName guesses artist and title from an untagged file's base name,
// e.g. "03 - Queen - Bohemian Rhapsody (Official Video)". artist is empty
// when the name carries none.
func parseFileName(base string) (artist, title string) {
	name := strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
	name = trackNumberPrefix.ReplaceAllString(name, "")
	name = fileNameNoise.ReplaceAllString(name, "")
	name = featuringPattern.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if m := artistTitleSeparator.FindStringSubmatch(name); m != nil {
		artist = strings.TrimSpace(vevoSuffix.ReplaceAllString(strings.TrimSpace(m[1]), ""))
		name = strings.TrimSpace(m[2])
	}
	if name == "" {
		name = strings.TrimSpace(base)
	}
	return artist, name
}
