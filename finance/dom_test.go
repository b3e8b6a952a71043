package finance

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func replaceOnce(t *testing.T, s, old, repl string) string {
	t.Helper()
	if !strings.Contains(s, old) {
		t.Fatalf("fixture does not contain %q", old)
	}
	return strings.Replace(s, old, repl, 1)
}

func TestOwnText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{name: "direct text", html: `<td id="x">  1.29 </td>`, want: "1.29"},
		{name: "nested span excluded", html: `<td id="x"><span>3.2</span></td>`, want: ""},
		{name: "mixed", html: `<td id="x">52 Week <sup>3</sup>High</td>`, want: "52 Week High"},
		{name: "missing", html: `<p></p>`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table><tr>" + tt.html + "</tr></table>"))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := ownText(doc.Find("#x")); got != tt.want {
				t.Errorf("ownText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatementTable(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture(t, "income_quarterly.html")))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tbl := statementTable{doc: doc}

	if h, err := tbl.header(1); err != nil || h != "TTM" {
		t.Errorf("header(1) = %q, %v; want TTM", h, err)
	}
	if h, err := tbl.header(5); err != nil || h != "3/31/2023" {
		t.Errorf("header(5) = %q, %v; want 3/31/2023", h, err)
	}
	if _, err := tbl.header(6); err == nil {
		t.Error("header(6) should be a miss")
	}
	if v, err := tbl.cell("Net Income", 5); err != nil || v != "(1)" {
		t.Errorf("cell(Net Income, 5) = %q, %v; want (1)", v, err)
	}
	if _, err := tbl.cell("Gross Profit", 1); err == nil {
		t.Error("unknown row should be a miss")
	}
}
