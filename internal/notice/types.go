package notice

import (
	"fmt"
	"maps"
)

// Type is the kind of legal notice a store row describes. Values are the
// labels stored in the messages table.
type Type string

const (
	TypeAuction         Type = "Аукцион"
	TypePublicSale      Type = "Публичка"
	TypeAppraisalReport Type = "Отчет оценщика"
)

// Types lists every notice type the pipeline selects from the store.
func Types() []Type {
	return []Type{TypeAuction, TypePublicSale, TypeAppraisalReport}
}

// Notice is one row of the record store.
type Notice struct {
	ID   int64
	Link string
	Type Type
	Sent bool
}

func (n Notice) String() string { return fmt.Sprintf("notice#%d(%s)", n.ID, n.Type) }

// Unknown marks a Lot field the source document did not supply.
const Unknown = "Неизвестно"

// Unclassified is the classifier's answer when no category matched.
const Unclassified = "Не определена"

// Lot is one asset entry extracted from a notice document.
//
// Every named field holds either a cleaned value or Unknown; Link is always
// the source notice link. Raw keeps every labeled key/value cell seen in the
// document, including labels that have no named field.
type Lot struct {
	PublishedAt string // Дата публикации
	TradeFormat string // Вид торгов
	Description string // Описание
	Category    string // Классификация
	Price       string // Цена

	Manager   string // Арбитражный управляющий
	Organizer string // Организатор торгов
	Email     string // E-mail

	DebtorName string // ФИО / Наименование должника
	DebtorINN  string // ИНН должника

	Link string

	Raw map[string]string
}

// NewLot returns a Lot with every field set to Unknown except Link.
func NewLot(link string) Lot {
	return Lot{
		PublishedAt: Unknown,
		TradeFormat: Unknown,
		Description: Unknown,
		Category:    Unknown,
		Price:       Unknown,
		Manager:     Unknown,
		Organizer:   Unknown,
		Email:       Unknown,
		DebtorName:  Unknown,
		DebtorINN:   Unknown,
		Link:        link,
		Raw:         map[string]string{},
	}
}

// Clone returns a deep copy so lot rows never share the Raw map.
func (l Lot) Clone() Lot {
	cp := l
	cp.Raw = maps.Clone(l.Raw)
	if cp.Raw == nil {
		cp.Raw = map[string]string{}
	}
	return cp
}

// Known reports whether v carries real content.
func Known(v string) bool { return v != "" && v != Unknown }
