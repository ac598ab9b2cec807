// Package storyimport converts legacy story pages into story definitions.
//
// A legacy page marks each segment with a data-segment attribute:
//
//	<section data-segment="hero" data-narration="audio/hero.mp3" data-background="img/hero.jpg">
//	  <span class="year">1927</span>
//	  <h2>The river rises</h2>
//	  <p class="stat">246 dead</p>
//	</section>
//
// Segments are ordered by their position in the document.
package storyimport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"narrascroll/pkg/model"
)

// ErrNoSegments is returned when the page has no data-segment elements.
var ErrNoSegments = errors.New("no segments found")

// Extract parses the page and returns its story. storyID may be empty; the page
// title is used when the document has one.
func Extract(r io.Reader, storyID string) (*model.Story, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	story := &model.Story{ID: storyID}
	if t := findFirst(doc, atom.Title); t != nil {
		story.Title = cleanText(t)
	}
	if story.Title == "" {
		if h := findFirst(doc, atom.H1); h != nil {
			story.Title = cleanText(h)
		}
	}

	seen := make(map[string]bool)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id, ok := segmentID(n); ok {
				if id == "" {
					id = fmt.Sprintf("segment-%d", len(story.Segments))
				}
				if !seen[id] {
					seen[id] = true
					seg := extractSegment(n, id)
					seg.Order = len(story.Segments)
					story.Segments = append(story.Segments, seg)
				}
				// Segments do not nest.
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(story.Segments) == 0 {
		return nil, ErrNoSegments
	}
	return story, nil
}

// segmentID reports whether n starts a segment and which id it declares.
// An empty data-segment falls back to the element id.
func segmentID(n *html.Node) (string, bool) {
	val, ok := attr(n, "data-segment")
	if !ok {
		return "", false
	}
	if val = strings.TrimSpace(val); val != "" {
		return val, true
	}
	id, _ := attr(n, "id")
	return strings.TrimSpace(id), true
}

func extractSegment(n *html.Node, id string) model.Segment {
	seg := model.Segment{ID: id}
	seg.NarrationURL, _ = attr(n, "data-narration")
	seg.BackgroundRef, _ = attr(n, "data-background")
	seg.Year, _ = attr(n, "data-year")

	var stats []string
	var visit func(c *html.Node)
	visit = func(c *html.Node) {
		if c.Type == html.ElementNode {
			switch {
			case seg.Year == "" && hasClass(c, "year"):
				seg.Year = cleanText(c)
				return
			case hasClass(c, "stat"):
				stats = append(stats, cleanText(c))
				return
			case seg.Title == "" && (c.DataAtom == atom.H1 || c.DataAtom == atom.H2 || c.DataAtom == atom.H3):
				seg.Title = cleanText(c)
				return
			}
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			visit(cc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
	}

	if len(stats) > 0 {
		seg.Stat1 = stats[0]
	}
	if len(stats) > 1 {
		seg.Stat2 = stats[1]
	}
	return seg
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, a); res != nil {
			return res
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// cleanText returns the visible text of n with whitespace collapsed.
func cleanText(n *html.Node) string {
	var b strings.Builder
	traverseText(n, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func traverseText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode {
		// Footnote markers and embedded code are not part of the text.
		if n.DataAtom == atom.Sup || n.DataAtom == atom.Style || n.DataAtom == atom.Script {
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteByte(' ')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		traverseText(c, b)
	}
}
