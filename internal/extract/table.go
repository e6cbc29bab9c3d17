package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is a document table reduced to cleaned cell text.
// Headers come from every th cell; Rows hold the td cells of each tr after
// the first one.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Pair is one two-cell key/value row.
type Pair struct {
	Key   string
	Value string
}

func readTable(sel *goquery.Selection) Table {
	var t Table
	sel.Find("th").Each(func(_ int, th *goquery.Selection) {
		t.Headers = append(t.Headers, cleanText(th.Text()))
	})
	sel.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		t.Rows = append(t.Rows, cells(tr))
	})
	return t
}

// readPairs keeps only rows that resolve to exactly two cells.
func readPairs(sel *goquery.Selection) []Pair {
	var out []Pair
	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		c := cells(tr)
		if len(c) != 2 {
			return
		}
		out = append(out, Pair{Key: c[0], Value: c[1]})
	})
	return out
}

func cells(tr *goquery.Selection) []string {
	tds := tr.Find("td")
	out := make([]string, 0, tds.Length())
	tds.Each(func(_ int, td *goquery.Selection) {
		out = append(out, cleanText(td.Text()))
	})
	return out
}

// Column returns the index of header, comparing without case or whitespace.
func (t Table) Column(header string) int {
	want := headerKey(header)
	for i, h := range t.Headers {
		if headerKey(h) == want {
			return i
		}
	}
	return -1
}

// locate resolves loc against doc. It returns nil when nothing matches.
func locate(doc *goquery.Document, loc Locator) *goquery.Selection {
	if loc.Class != "" {
		s := doc.Find("table." + loc.Class).First()
		if s.Length() == 0 {
			return nil
		}
		return s
	}
	if loc.Label == "" {
		return nil
	}

	// Find yields matches in document order, so the first table after the
	// label div is the next "table" seen once the label is found.
	var found *goquery.Selection
	labelSeen := false
	doc.Find("div, table").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !labelSeen {
			if goquery.NodeName(s) == "div" && s.Children().Length() == 0 && cleanText(s.Text()) == loc.Label {
				labelSeen = true
			}
			return true
		}
		if goquery.NodeName(s) == "table" {
			found = s
			return false
		}
		return true
	})
	return found
}

var textReplacer = strings.NewReplacer("\u00a0", " ", "\t", " ")

// cleanText strips non-breaking spaces and collapses whitespace runs.
func cleanText(s string) string {
	return strings.Join(strings.Fields(textReplacer.Replace(s)), " ")
}

func headerKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(textReplacer.Replace(s)) {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
