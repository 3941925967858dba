// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/width"
)

// ReadFile loads an answer document from disk and returns its text. See Text.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening input %s: %w", path, err)
	}
	defer f.Close()

	return Text(f, path)
}

// Text reads an answer document and returns the text the patterns run over.
// HTML documents (by extension or content sniffing) are reduced to their
// visible text. Full-width characters are narrowed so that full-width digits
// and percent signs match like their ASCII forms; the mapping is one rune for
// one rune, so claim offsets still index the input text.
func Text(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading input %s: %w", name, err)
	}

	text := string(data)
	if isHTML(name, data) {
		doc, err := html.Parse(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("parsing HTML %s: %w", name, err)
		}
		text = visibleText(doc)
	}

	return strings.Map(narrow, text), nil
}

// narrow maps a full-width rune to its narrow form and leaves every other
// rune (superscripts and ligatures included) unchanged.
func narrow(r rune) rune {
	p := width.LookupRune(r)
	if p.Kind() != width.EastAsianFullwidth {
		return r
	}
	if n := p.Narrow(); n != 0 {
		return n
	}
	return r
}

// isHTML reports whether the document should be parsed as HTML.
func isHTML(name string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	case ".md", ".markdown", ".txt":
		return false
	}
	return strings.HasPrefix(http.DetectContentType(data), "text/html")
}

// visibleText collects text nodes, skipping script and style content. Block
// elements end with a newline so sentences from adjacent paragraphs do not
// run together.
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}

	walk(n)
	return strings.TrimSpace(buf.String())
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "section": true, "article": true, "table": true,
}
