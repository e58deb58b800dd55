package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/shadabshaukat/searchd/engine/core"
)

// extractHTML walks the parsed document tree collecting visible text.
// Script, style, head and similar non-content subtrees are skipped and block
// elements introduce line breaks so downstream chunking sees paragraph
// structure.
func extractHTML(data []byte) (text, title string, err error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", "", core.NewExtractError(core.ExtractCorruptInput, "", err)
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Head, atom.Svg, atom.Template:
				return
			case atom.Title:
				if title == "" {
					title = strings.TrimSpace(nodeText(n))
				}
				return
			case atom.Br:
				sb.WriteString("\n")
			}
			if isBlock(n.DataAtom) {
				sb.WriteString("\n")
			}
		case html.TextNode:
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.DataAtom) {
			sb.WriteString("\n")
		}
	}
	walk(root)
	return collapseWhitespace(sb.String()), title, nil
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Tr, atom.Blockquote, atom.Pre, atom.Table,
		atom.Section, atom.Article, atom.Hr:
		return true
	}
	return false
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// collapseWhitespace trims each line, drops empty lines down to paragraph
// breaks, and squeezes runs of spaces.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
