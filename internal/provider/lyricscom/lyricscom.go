// Package lyricscom scrapes artist song lists and lyric text from lyrics.com.
package lyricscom

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"lyricpass/internal/fetch"
	"lyricpass/internal/lyrics"
)

// The site serves a reduced page to non-browser agents.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/119.0"

const notFoundText = "We couldn't find any artists matching your query"

var artistQueryChars = regexp.MustCompile(`[^a-zA-Z0-9+-]`)

// Client scrapes lyrics.com. It implements lyrics.Source.
type Client struct {
	http    *fetch.Client
	siteURL string
}

func New(hc *fetch.Client) *Client {
	return &Client{http: hc, siteURL: "https://www.lyrics.com"}
}

func (c *Client) Name() string { return "lyricscom" }

// Discover reads the artist page and returns one song per lyric link.
// An unknown artist yields no songs; the page then lists suggestions only.
func (c *Client) Discover(ctx context.Context, artist string) ([]lyrics.Song, error) {
	q := ArtistQuery(artist)
	if q == "" {
		return nil, nil
	}

	doc, raw, err := c.page(ctx, c.siteURL+"/artist.php?name="+q)
	if err != nil {
		return nil, err
	}
	if bytes.Contains(raw, []byte(notFoundText)) {
		return nil, nil
	}

	var songs []lyrics.Song
	seen := make(map[string]bool)
	walk(doc, func(n *html.Node) bool {
		if n.DataAtom != atom.A {
			return true
		}
		id, title, ok := lyricLink(attr(n, "href"))
		if !ok || seen[id] {
			return false
		}
		if text := strings.TrimSpace(textContent(n)); text != "" {
			title = text
		}
		seen[id] = true
		songs = append(songs, lyrics.Song{
			Title:  title,
			Artist: artist,
			Source: c.Name(),
			ID:     id,
		})
		return false
	})
	return songs, nil
}

// FetchLyrics reads the print view of a song and returns the text of its
// <pre> block. Only songs discovered on lyrics.com can be fetched.
func (c *Client) FetchLyrics(ctx context.Context, song lyrics.Song) lyrics.Block {
	if song.Source != c.Name() || song.ID == "" {
		return lyrics.Absent(song, fmt.Errorf("%w: not a lyrics.com song", lyrics.ErrNoLyrics))
	}

	doc, _, err := c.page(ctx, c.siteURL+"/db-print.php?id="+url.QueryEscape(song.ID))
	if err != nil {
		return lyrics.Absent(song, err)
	}

	var text string
	found := false
	walk(doc, func(n *html.Node) bool {
		if found {
			return false
		}
		if n.DataAtom == atom.Pre {
			text, found = textContent(n), true
			return false
		}
		return true
	})
	if !found || strings.TrimSpace(text) == "" {
		return lyrics.Absent(song, lyrics.ErrNoLyrics)
	}
	return lyrics.Present(song, text)
}

func (c *Client) page(ctx context.Context, pageURL string) (*html.Node, []byte, error) {
	header := http.Header{}
	header.Set("User-Agent", browserUserAgent)
	body, err := c.http.Get(ctx, pageURL, header)
	if err != nil {
		return nil, nil, fmt.Errorf("lyrics.com request failed: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse lyrics.com page: %w", err)
	}
	return doc, body, nil
}

// ArtistQuery formats an artist name the way lyrics.com expects in its
// name parameter: spaces become '+' and anything else outside [a-zA-Z0-9+-]
// is dropped.
func ArtistQuery(artist string) string {
	q := strings.ReplaceAll(strings.TrimSpace(artist), " ", "+")
	return artistQueryChars.ReplaceAllString(q, "")
}

// lyricLink parses hrefs of the form /lyric/<id>/<Artist>/<Title>.
func lyricLink(href string) (id, title string, ok bool) {
	rest, found := strings.CutPrefix(href, "/lyric/")
	if !found {
		return "", "", false
	}
	id, tail, _ := strings.Cut(rest, "/")
	if id == "" {
		return "", "", false
	}
	if tail != "" {
		last := path.Base(tail)
		if unescaped, err := url.PathUnescape(last); err == nil {
			last = unescaped
		}
		title = strings.ReplaceAll(last, "+", " ")
	}
	return id, title, true
}

// walk visits n and its descendants depth first; fn returns false to skip
// a node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

// textContent concatenates the text below n, turning <br> into newlines.
func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(n *html.Node) bool {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.DataAtom == atom.Br:
			b.WriteByte('\n')
		}
		return true
	})
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
