package document

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fragment is a subtree considered as a possible event container
type Fragment struct {
	Sel   *goquery.Selection
	Text  string
	Attrs map[string]string
	// Depth is the number of element ancestors
	Depth int
	// Vouched is set when a site handler asserts the fragment is an event
	Vouched bool
}

// NewFragment builds a fragment for the first node in sel
func NewFragment(sel *goquery.Selection) *Fragment {
	sel = sel.First()
	f := &Fragment{
		Sel:   sel,
		Text:  Text(sel),
		Attrs: map[string]string{},
	}
	if n := f.Node(); n != nil {
		for _, a := range n.Attr {
			f.Attrs[strings.ToLower(a.Key)] = a.Val
		}
		for p := n.Parent; p != nil; p = p.Parent {
			if p.Type == html.ElementNode {
				f.Depth++
			}
		}
	}
	return f
}

// Node returns the fragment's root node, or nil for an empty selection
func (f *Fragment) Node() *html.Node {
	if f == nil || f.Sel == nil || len(f.Sel.Nodes) == 0 {
		return nil
	}
	return f.Sel.Nodes[0]
}

// Lines returns the fragment's text split at block boundaries
func (f *Fragment) Lines() []string {
	return Lines(f.Sel)
}

// Path renders the tag path from the root, e.g. "html>body>main>div.event"
func (f *Fragment) Path() string {
	n := f.Node()
	var parts []string
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		part := n.Data
		for _, a := range n.Attr {
			if a.Key == "class" {
				if fields := strings.Fields(a.Val); len(fields) > 0 {
					part += "." + fields[0]
				}
			}
		}
		parts = append(parts, part)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ">")
}

// Text returns the visible text of sel with whitespace collapsed. Unlike
// Selection.Text it separates block elements so adjacent cells do not run together.
func Text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(rawText(sel)), " ")
}

// Lines returns the visible text of sel, one entry per block-level line
func Lines(sel *goquery.Selection) []string {
	var out []string
	for _, line := range strings.Split(rawText(sel), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func rawText(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg, atom.Head:
			return
		case atom.Br:
			b.WriteByte('\n')
			return
		}
	case html.CommentNode:
		return
	}

	block := IsBlock(n)
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	} else if n.Type == html.ElementNode {
		b.WriteByte(' ')
	}
}

var blockAtoms = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Ul: true, atom.Body: true,
}

// IsBlock reports whether n is a block-level element
func IsBlock(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockAtoms[n.DataAtom]
}

// IsHeading reports whether n is h1-h6
func IsHeading(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

// NodeText is Text for a single node
func NodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	writeText(&b, n)
	return strings.Join(strings.Fields(b.String()), " ")
}
