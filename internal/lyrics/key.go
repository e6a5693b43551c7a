package lyrics

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Markers that only credit guests or date a remaster. Other parentheticals
// such as "(With You)" or "(Radio Edit)" can name a different song or cut,
// so they stay part of the key.
var titleVersionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:feat\.?|ft\.?|featuring)\s+[^\)\]]+[\)\]]`),
	regexp.MustCompile(`(?i)\s*[\(\[][^\)\]]*\bremaster(?:ed)?\b[^\)\]]*[\)\]]`),
	regexp.MustCompile(`(?i)\s+-\s+(?:\d{4}\s+)?remaster(?:ed)?(?:\s+\d{4})?(?:\s+version)?$`),
}

var foldMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SongKey normalizes a song title for equality checks: version markers are
// dropped, accents and case folded, and every run of punctuation or
// whitespace collapsed to a single space.
func SongKey(title string) string {
	for _, p := range titleVersionPatterns {
		title = p.ReplaceAllString(title, "")
	}
	if folded, _, err := transform.String(foldMarks, title); err == nil {
		title = folded
	}

	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		// apostrophes join words: "don't" == "dont"
		if r == '\'' || r == '’' {
			continue
		}
		space = true
	}
	return b.String()
}

// CreditedTo reports whether an artist credit such as "Queen & David Bowie"
// names artist.
func CreditedTo(credit, artist string) bool {
	want := SongKey(artist)
	if want == "" {
		return false
	}
	got := SongKey(credit)
	return got == want || strings.Contains(" "+got+" ", " "+want+" ")
}
