package notice

// Field names a Lot attribute so extraction rules can target it as data.
type Field string

const (
	FieldPublishedAt Field = "published_at"
	FieldTradeFormat Field = "trade_format"
	FieldDescription Field = "description"
	FieldCategory    Field = "category"
	FieldPrice       Field = "price"
	FieldManager     Field = "manager"
	FieldOrganizer   Field = "organizer"
	FieldEmail       Field = "email"
	FieldDebtorName  Field = "debtor_name"
	FieldDebtorINN   Field = "debtor_inn"
)

func (l *Lot) ptr(f Field) *string {
	switch f {
	case FieldPublishedAt:
		return &l.PublishedAt
	case FieldTradeFormat:
		return &l.TradeFormat
	case FieldDescription:
		return &l.Description
	case FieldCategory:
		return &l.Category
	case FieldPrice:
		return &l.Price
	case FieldManager:
		return &l.Manager
	case FieldOrganizer:
		return &l.Organizer
	case FieldEmail:
		return &l.Email
	case FieldDebtorName:
		return &l.DebtorName
	case FieldDebtorINN:
		return &l.DebtorINN
	}
	return nil
}

// Set assigns v to f. Empty values become Unknown. Unknown fields are ignored.
func (l *Lot) Set(f Field, v string) bool {
	p := l.ptr(f)
	if p == nil {
		return false
	}
	if v == "" {
		v = Unknown
	}
	*p = v
	return true
}

// Get returns the value of f, or Unknown for an unrecognised field.
func (l *Lot) Get(f Field) string {
	p := l.ptr(f)
	if p == nil || *p == "" {
		return Unknown
	}
	return *p
}
