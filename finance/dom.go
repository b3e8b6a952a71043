package finance

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"financescrapper/record"
)

// cleanText collapses runs of whitespace and trims the result.
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ownText returns the direct text children of the first node in s, without
// the text of nested elements.
func ownText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for c := s.Get(0).FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return cleanText(b.String())
}

// textNodes returns every non-blank direct text child of the nodes in s.
func textNodes(s *goquery.Selection) []string {
	var out []string
	s.Each(func(_ int, n *goquery.Selection) {
		for c := n.Get(0).FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.TextNode {
				continue
			}
			if t := strings.TrimSpace(c.Data); t != "" {
				out = append(out, t)
			}
		}
	})
	return out
}

// spanText returns the text of the first span child of s.
func spanText(s *goquery.Selection) string {
	return cleanText(s.ChildrenFiltered("span").First().Text())
}

func titled(doc *goquery.Document, title string) *goquery.Selection {
	return doc.Find("div[title=" + strconv.Quote(title) + "]").First()
}

// statementTable reads the column layout of the income statement, balance
// sheet and cash flow pages: a header row led by "Breakdown" and one row per
// line item whose label div carries a title attribute.
type statementTable struct {
	doc   *goquery.Document
	stage record.Stage
}

// breakdown returns the label cell that leads the header row.
func (t statementTable) breakdown() *goquery.Selection {
	return t.doc.Find("div > span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(ownText(s), "Breakdown")
	}).First().Parent()
}

// headerRow joins every column header, or returns "" when there is no table.
func (t statementTable) headerRow() string {
	var cols []string
	t.breakdown().NextAllFiltered("div").Each(func(_ int, s *goquery.Selection) {
		cols = append(cols, cleanText(s.ChildrenFiltered("span").First().Text()))
	})
	return strings.Join(cols, "|")
}

func (t statementTable) header(col int) (string, error) {
	cell := t.breakdown().NextAllFiltered("div").Eq(col - 1).ChildrenFiltered("span").First()
	if cell.Length() == 0 {
		return "", SelectorMissError{
			Stage:    t.stage,
			What:     "column " + strconv.Itoa(col) + " header",
			Selector: "//div[span[contains(text(), 'Breakdown')]]/following-sibling::div[" + strconv.Itoa(col) + "]/span",
		}
	}
	return cleanText(cell.Text()), nil
}

func (t statementTable) cell(title string, col int) (string, error) {
	cell := titled(t.doc, title).Parent().NextAllFiltered("div").Eq(col - 1).ChildrenFiltered("span").First()
	if cell.Length() == 0 {
		return "", SelectorMissError{
			Stage:    t.stage,
			What:     title + " column " + strconv.Itoa(col),
			Selector: "//div[@title=" + strconv.Quote(title) + "]/parent::div/following-sibling::div[" + strconv.Itoa(col) + "]/span",
		}
	}
	return cleanText(cell.Text()), nil
}
