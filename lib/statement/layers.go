package statement

import (
	"html"
	"regexp"
	"strings"

	"payform-backend/lib/htmlutil"
	"payform-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// page is a parsed statement, every layer reads from it.
type page struct {
	raw   string
	doc   *goquery.Document
	lines []string
}

func newPage(markup string) page {
	p := page{raw: markup}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return p
	}
	p.doc = doc
	if len(doc.Nodes) > 0 {
		p.lines = htmlutil.BlockText(doc.Nodes[0])
	}
	return p
}

func selectionText(sel *goquery.Selection) string {
	return htmlutil.NormalizeSpace(sel.Text())
}

// selectorCandidates returns the text of every element matched by the
// selectors, in selector order then document order. The address of a
// mailto link is included after the link's text.
func selectorCandidates(p page, selectors []string) []string {
	if p.doc == nil {
		return nil
	}
	var out []string
	for _, selector := range selectors {
		p.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			out = append(out, selectionText(sel))
			sel.Find(`a[href^="mailto:"]`).AddSelection(sel.Filter(`a[href^="mailto:"]`)).Each(func(_ int, a *goquery.Selection) {
				out = append(out, strings.TrimPrefix(a.AttrOr("href", ""), "mailto:"))
			})
		})
	}
	return out
}

// labelledCandidates returns the text following each label on the lines
// of the page, labels are tried in order and each label is tried against
// every line before the next one.
func labelledCandidates(p page, labels []*regexp.Regexp) []string {
	var out []string
	for _, label := range labels {
		for _, line := range p.lines {
			loc := label.FindStringIndex(line)
			if loc == nil {
				continue
			}
			value := boundValue(line[loc[1]:])
			if value != "" {
				out = append(out, value)
			}
		}
	}
	return out
}

func rowCells(row *goquery.Selection) []string {
	var cells []string
	row.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, selectionText(cell))
	})
	return cells
}

// tabularCandidates looks for table cells holding one of the keywords and
// returns the cell to their right, the cell below them and the first cell
// of the following row, in that order.
func tabularCandidates(p page, keywords []string) []string {
	if p.doc == nil {
		return nil
	}

	var rows [][]string
	p.doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		rows = append(rows, rowCells(row))
	})

	var out []string
	for _, keyword := range keywords {
		matchers := []string{keyword}
		for r, cells := range rows {
			for c, cell := range cells {
				if !textutil.FuzzyMatchLabel(cell, matchers) {
					continue
				}
				if idx := strings.Index(cell, ":"); idx >= 0 && strings.TrimSpace(cell[idx+1:]) != "" {
					out = append(out, cell[idx+1:])
				}
				if c+1 < len(cells) {
					out = append(out, cells[c+1])
				}
				if r+1 < len(rows) && len(rows[r+1]) > 0 {
					next := rows[r+1]
					if c < len(next) {
						out = append(out, next[c])
					}
					out = append(out, next[0])
				}
			}
		}
	}
	return out
}

// mentions reports whether any word of text, or the whole text with its
// spacing removed, is one of the excluded terms.
func mentions(text string, excluded []string) bool {
	terms := append(strings.Fields(text), text)
	for _, term := range terms {
		normalized := textutil.NormalizeLabel(term)
		for _, e := range excluded {
			if normalized == e {
				return true
			}
		}
	}
	return false
}

// positionalCandidates returns the text of the bold runs and headings that
// do not mention any of the excluded terms.
func positionalCandidates(p page, selector string, excluded []string) []string {
	if p.doc == nil {
		return nil
	}
	var out []string
	p.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		text := selectionText(sel)
		if text == "" || mentions(text, excluded) {
			return
		}
		out = append(out, text)
	})
	return out
}

// rawCandidates runs the patterns against the unparsed markup, it catches
// values that the parsed layers cannot see such as text inside comments
// or markup broken enough to confuse the parser.
func rawCandidates(p page, patterns []*regexp.Regexp) []string {
	var out []string
	for _, pattern := range patterns {
		for _, match := range pattern.FindAllStringSubmatch(p.raw, -1) {
			if len(match) < 2 {
				continue
			}
			out = append(out, html.UnescapeString(match[1]))
		}
	}
	return out
}

// incidentalEmails returns every address on the page that does not belong
// to the auction house itself.
func incidentalEmails(p page, excluded []string) []string {
	var out []string
	for _, email := range emailPattern.FindAllString(strings.Join(p.lines, "\n"), -1) {
		lowered := strings.ToLower(email)
		skip := false
		for _, e := range excluded {
			if strings.HasPrefix(lowered, e) || strings.HasSuffix(lowered, e) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, email)
		}
	}
	return out
}
