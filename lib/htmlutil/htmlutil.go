package htmlutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// GetText concatenates every text node under `node` in document order.
func GetText(node *html.Node) string {
	var buffer strings.Builder
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Center: true, atom.Dd: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Fieldset: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tbody: true, atom.Thead: true, atom.Tfoot: true, atom.Tr: true, atom.Ul: true,
}

var skippedElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// BlockText renders the text under `node` the way a browser would lay it
// out in lines: block level elements and <br> break lines, table cells on
// the same row stay on the same line. Every returned line has been passed
// through NormalizeSpace and empty lines are dropped.
func BlockText(node *html.Node) []string {
	var buffer strings.Builder
	blockTextRecursive(node, &buffer)

	var lines []string
	for _, line := range strings.Split(buffer.String(), "\n") {
		line = NormalizeSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func blockTextRecursive(node *html.Node, buffer *strings.Builder) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(node.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	if node.Type == html.ElementNode {
		if skippedElements[node.DataAtom] {
			return
		}
		if node.DataAtom == atom.Br {
			buffer.WriteString("\n")
			return
		}
	}

	block := node.Type == html.ElementNode && blockElements[node.DataAtom]
	if block {
		buffer.WriteString("\n")
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		blockTextRecursive(child, buffer)
	}
	if block {
		buffer.WriteString("\n")
	}
	if node.Type == html.ElementNode && (node.DataAtom == atom.Td || node.DataAtom == atom.Th) {
		buffer.WriteString(" ")
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		switch {
		case unicode.IsSpace(c):
			newStr.WriteRune(' ')
		case unicode.IsPrint(c):
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// NormalizeSpace removes non printable characters, collapses every run of
// whitespace into a single space and trims the result.
func NormalizeSpace(s string) string {
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
