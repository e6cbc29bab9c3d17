// Package classify assigns a category to a lot description using ordered
// keyword rules.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"efrsbmon/internal/notice"
)

// Category is one named keyword group. Keywords match as lower-case substrings.
type Category struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Table is an ordered, read-only set of categories. Earlier entries win.
type Table []Category

// Classifier is a pure function of (text, table). The zero value classifies
// everything as notice.Unclassified.
type Classifier struct {
	table Table
}

// New copies table and lower-cases keywords once.
func New(table Table) (*Classifier, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	cp := make(Table, 0, len(table))
	for _, c := range table {
		kws := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		cp = append(cp, Category{Name: strings.TrimSpace(c.Name), Keywords: kws})
	}
	return &Classifier{table: cp}, nil
}

// Classify returns the first category with a keyword contained in description.
func (c *Classifier) Classify(description string) string {
	if c == nil {
		return notice.Unclassified
	}
	text := strings.ToLower(description)
	for _, cat := range c.table {
		for _, kw := range cat.Keywords {
			if strings.Contains(text, kw) {
				return cat.Name
			}
		}
	}
	return notice.Unclassified
}

func (c *Classifier) Table() Table {
	if c == nil {
		return nil
	}
	return append(Table(nil), c.table...)
}

func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New("category table is empty")
	}
	seen := make(map[string]bool, len(t))
	for i, c := range t {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("categories[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("categories[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
		if len(c.Keywords) == 0 {
			return fmt.Errorf("categories[%d] %q: at least one keyword is required", i, name)
		}
	}
	return nil
}
