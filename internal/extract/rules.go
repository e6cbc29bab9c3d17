package extract

import "efrsbmon/internal/notice"

// Locator finds one table in a document: either by CSS class, or as the
// first table following a div whose whole text equals Label.
type Locator struct {
	Class string
	Label string
}

// FieldMap routes a key/value row whose label contains Label into Field.
type FieldMap struct {
	Label string
	Field notice.Field
}

// Section is a labeled key/value table merged into the base record.
// With Only set, rows that match no mapping are dropped instead of being
// kept in Lot.Raw.
type Section struct {
	Name   string
	Locate Locator
	Map    []FieldMap
	Only   bool
}

// Column names a lot-table header feeding a Lot field.
type Column struct {
	Header string
	Field  notice.Field
}

// DocumentRule applies to documents whose title contains Title.
type DocumentRule struct {
	Name     string
	Title    string
	Sections []Section
	Lots     Locator
	Columns  []Column
	// ClassifyFrom names the field that feeds the classifier when the
	// category column is blank.
	ClassifyFrom notice.Field
}

// Rules is the full extraction program: base sections read from every
// document, then the first DocumentRule whose title matches.
type Rules struct {
	Title     string // CSS selector of the title element
	Base      []Section
	Documents []DocumentRule
}

// DefaultRules describes the EFRSB message page layout.
func DefaultRules() Rules {
	return Rules{
		Title: "h1.red_small",
		Base: []Section{
			{
				Name:   "header",
				Locate: Locator{Class: "headInfo"},
				Map:    []FieldMap{{Label: "Дата публикации", Field: notice.FieldPublishedAt}},
				Only:   true,
			},
			{
				Name:   "debtor",
				Locate: Locator{Label: "Должник"},
				Map: []FieldMap{
					{Label: "ФИО должника", Field: notice.FieldDebtorName},
					{Label: "Наименование должника", Field: notice.FieldDebtorName},
					{Label: "ИНН", Field: notice.FieldDebtorINN},
				},
			},
			{
				Name:   "publisher",
				Locate: Locator{Label: "Кем опубликовано"},
				Map: []FieldMap{
					{Label: "Арбитражный управляющий", Field: notice.FieldManager},
					{Label: "Организатор торгов", Field: notice.FieldOrganizer},
					{Label: "E-mail", Field: notice.FieldEmail},
				},
			},
		},
		Documents: []DocumentRule{
			{
				Name:  "auction",
				Title: "Объявление о проведении торгов",
				Sections: []Section{{
					Name:   "published",
					Locate: Locator{Label: "Публикуемые сведения"},
					Map:    []FieldMap{{Label: "Вид торгов", Field: notice.FieldTradeFormat}},
					Only:   true,
				}},
				Lots: Locator{Class: "lotInfo"},
				Columns: []Column{
					{Header: "Описание", Field: notice.FieldDescription},
					{Header: "Классификация имущества", Field: notice.FieldCategory},
					{Header: "Начальная цена, руб", Field: notice.FieldPrice},
				},
				ClassifyFrom: notice.FieldDescription,
			},
			{
				Name:  "appraisal",
				Title: "Отчет оценщика об оценке имущества должника",
				Lots:  Locator{Label: "Сведения об объектах оценки"},
				Columns: []Column{
					{Header: "Описание", Field: notice.FieldDescription},
					{Header: "Тип", Field: notice.FieldCategory},
					{Header: "Стоимость, определенная оценщиком", Field: notice.FieldPrice},
				},
				ClassifyFrom: notice.FieldDescription,
			},
		},
	}
}

// Match returns the first rule whose Title occurs in title.
func (r Rules) Match(title string) (DocumentRule, bool) {
	for _, d := range r.Documents {
		if d.Title != "" && containsFold(title, d.Title) {
			return d, true
		}
	}
	return DocumentRule{}, false
}
