// Package linkcheck verifies links in the rendered site: internal
// links resolve against the output tree, external links are verified
// over HTTP with an optional JetStream KV cache in front.
package linkcheck

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdpage/internal/foundation/errors"
)

// Link is a reference extracted from a rendered page.
type Link struct {
	URL      string // raw href/src value
	Text     string // link text or alt text
	Tag      string // a, img, link, script
	Internal bool   // resolves within the site
}

// ExtractFile extracts links from a rendered HTML file.
func ExtractFile(path string, base *url.URL) ([]Link, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open rendered page").
			WithContext("path", path).
			Build()
	}
	defer func() { _ = file.Close() }()

	return Extract(file, base)
}

// Extract extracts links from HTML content.
func Extract(r io.Reader, base *url.URL) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").Build()
	}

	var links []Link

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l, ok := elementLink(n, base); ok {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return links, nil
}

// elementLink pulls the reference out of a single element, if it
// carries one.
func elementLink(n *html.Node, base *url.URL) (Link, bool) {
	var raw, text string

	switch n.Data {
	case "a":
		raw = getAttr(n, "href")
		text = nodeText(n)
	case "img":
		raw = getAttr(n, "src")
		text = getAttr(n, "alt")
	case "link":
		raw = getAttr(n, "href")
		text = getAttr(n, "rel")
	case "script":
		raw = getAttr(n, "src")
	default:
		return Link{}, false
	}

	if raw == "" {
		return Link{}, false
	}
	return Link{
		URL:      raw,
		Text:     text,
		Tag:      n.Data,
		Internal: isInternal(raw, base),
	}, true
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText collects the text content of a node and its children.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return strings.TrimSpace(b.String())
}

// isInternal reports whether a URL resolves within the site.
func isInternal(raw string, base *url.URL) bool {
	if strings.HasPrefix(raw, "#") ||
		strings.HasPrefix(raw, "mailto:") ||
		strings.HasPrefix(raw, "tel:") ||
		strings.HasPrefix(raw, "javascript:") {
		return true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	// Relative URLs are internal. Protocol-relative URLs carry a
	// host and fall through to the host comparison.
	if u.Scheme == "" && u.Host == "" {
		return true
	}

	if base != nil && u.Host == base.Host {
		return true
	}
	return false
}

// ShouldCheck reports whether a link is verifiable at all. Fragments
// and non-fetchable schemes are skipped.
func ShouldCheck(l Link) bool {
	if l.URL == "" || strings.HasPrefix(l.URL, "#") {
		return false
	}
	if strings.HasPrefix(l.URL, "mailto:") ||
		strings.HasPrefix(l.URL, "tel:") ||
		strings.HasPrefix(l.URL, "javascript:") ||
		strings.HasPrefix(l.URL, "data:") {
		return false
	}
	return true
}
