package extract

import (
	"errors"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"

	"efrsbmon/internal/notice"
)

// Classifier supplies a category when the lot table leaves it blank.
type Classifier interface {
	Classify(description string) string
}

// Parser applies Rules to one document. It holds no per-document state.
type Parser struct {
	rules      Rules
	classifier Classifier
}

func NewParser(rules Rules, classifier Classifier) *Parser {
	return &Parser{rules: rules, classifier: classifier}
}

// Parse reads the document in r. A non-nil error with lots means some rows
// were malformed (see OnlyMalformed); the returned lots are still valid.
func (p *Parser) Parse(r io.Reader, link string) ([]notice.Lot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	titleSel := p.rules.Title
	if titleSel == "" {
		titleSel = "h1"
	}
	title := cleanText(doc.Find(titleSel).First().Text())

	base := notice.NewLot(link)
	for _, sec := range p.rules.Base {
		applySection(doc, sec, &base)
	}

	rule, ok := p.rules.Match(title)
	if !ok {
		return nil, nil
	}
	for _, sec := range rule.Sections {
		applySection(doc, sec, &base)
	}

	sel := locate(doc, rule.Lots)
	if sel == nil {
		return nil, nil
	}
	table := readTable(sel)

	idx := make([]int, len(rule.Columns))
	for i, c := range rule.Columns {
		idx[i] = table.Column(c.Header)
	}

	var (
		lots []notice.Lot
		errs []error
	)
	for ri, row := range table.Rows {
		var missing []string
		for i, c := range rule.Columns {
			if idx[i] < 0 || idx[i] >= len(row) {
				missing = append(missing, c.Header)
			}
		}
		if len(missing) > 0 {
			errs = append(errs, &MalformedLotError{Rule: rule.Name, Row: ri + 1, Missing: missing})
			continue
		}

		lot := base.Clone()
		for i, c := range rule.Columns {
			lot.Set(c.Field, row[idx[i]])
		}
		if !notice.Known(lot.Category) && rule.ClassifyFrom != "" && p.classifier != nil {
			lot.Category = p.classifier.Classify(lot.Get(rule.ClassifyFrom))
		}
		lots = append(lots, lot)
	}
	return lots, errors.Join(errs...)
}

func applySection(doc *goquery.Document, sec Section, lot *notice.Lot) {
	sel := locate(doc, sec.Locate)
	if sel == nil {
		return
	}
	for _, kv := range readPairs(sel) {
		mapped := false
		for _, m := range sec.Map {
			if containsFold(kv.Key, m.Label) {
				lot.Set(m.Field, kv.Value)
				mapped = true
				break
			}
		}
		if mapped || !sec.Only {
			lot.Raw[kv.Key] = kv.Value
		}
	}
}
