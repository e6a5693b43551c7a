// Package wordlist turns raw lyric text into password candidates and collects
// them into a deduplicated, order-preserving list.
package wordlist

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"lyricpass/internal/lyrics"
)

// Options controls how lyric lines become candidates. The zero value only
// trims lines and drops empty ones; every other step is opt-in.
type Options struct {
	Lowercase        bool // fold candidates to lower case
	StripAccents     bool // remove diacritics (é -> e)
	Clean            bool // passphrase cleanup: -/_ to space, drop symbols other than ' and &, collapse spaces
	SplitPunctuation bool // also split lines on , ; : . ! ?
	MinLength        int  // drop candidates shorter than this many characters (0 = no limit)
	MaxLength        int  // word-wrap candidates longer than this (0 = no limit)
}

var (
	lineBreak     = regexp.MustCompile(`\r\n|\n|\r`)
	phraseBreak   = regexp.MustCompile(`[,;:.!?]+`)
	multiSpace    = regexp.MustCompile(`\s{2,}`)
	wordSeparator = strings.NewReplacer("-", " ", "_", " ")
	stripMarks    = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize converts one lyric block into candidates, in line order.
// Absent lyrics yield no candidates.
func Normalize(block lyrics.Block, opts Options) []string {
	if !block.Found {
		return nil
	}
	return NormalizeText(block.Text, opts)
}

// NormalizeText converts raw multi-line text into candidates, in line order.
func NormalizeText(text string, opts Options) []string {
	var out []string
	for _, line := range lineBreak.Split(text, -1) {
		pieces := []string{line}
		if opts.SplitPunctuation {
			pieces = phraseBreak.Split(line, -1)
		}
		for _, piece := range pieces {
			c := normalizeLine(piece, opts)
			if c == "" {
				continue
			}
			out = append(out, applyBounds(c, opts)...)
		}
	}
	return out
}

func normalizeLine(s string, opts Options) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if opts.StripAccents {
		if folded, _, err := transform.String(stripMarks, s); err == nil {
			s = folded
		}
	}
	if opts.Clean {
		s = clean(s)
	}
	if opts.Lowercase {
		s = lower(s)
	}
	return strings.TrimSpace(s)
}

// lower folds case. Letters such as ℂ or 𝐀 have no lowercase mapping, so
// any uppercase left after ToLower goes through its compatibility form.
func lower(s string) string {
	s = strings.ToLower(s)
	if strings.IndexFunc(s, unicode.IsUpper) < 0 {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteString(strings.ToLower(norm.NFKC.String(string(r))))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// clean keeps letters, digits, spaces, apostrophes and ampersands.
func clean(s string) string {
	s = wordSeparator.Replace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'', r == '&':
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, s)
	return multiSpace.ReplaceAllString(s, " ")
}

func applyBounds(c string, opts Options) []string {
	chunks := []string{c}
	if opts.MaxLength > 0 && utf8.RuneCountInString(c) > opts.MaxLength {
		chunks = wrap(c, opts.MaxLength)
	}
	if opts.MinLength <= 0 {
		return chunks
	}
	kept := chunks[:0]
	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk) >= opts.MinLength {
			kept = append(kept, chunk)
		}
	}
	return kept
}

// wrap greedily packs words into chunks of at most width characters.
// Words longer than width are kept whole on their own chunk.
func wrap(s string, width int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0
	for _, word := range strings.Fields(s) {
		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n > width {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	if curLen > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
