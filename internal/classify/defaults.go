package classify

// Default is the built-in category table used when the config has none.
func Default() Table {
	return Table{
		{Name: "Транспорт", Keywords: []string{
			"автомобиль", "машина", "грузовик", "коммерческий транспорт",
			"автобус", "спецтехника", "прицеп", "водный транспорт",
			"катер", "яхта", "лодка", "авиатехника", "самолет",
			"вертолет", "мотоцикл", "мототехника", "скутер",
		}},
		{Name: "Недвижимость", Keywords: []string{
			"жилая недвижимость", "нежилая недвижимость", "квартира", "комната",
			"дом", "участок", "земельный участок", "гараж", "машино-место",
			"помещение", "офис", "здание",
		}},
		{Name: "Производство и электроника", Keywords: []string{
			"оборудование", "станок", "производственное помещение", "промышленное",
			"компьютер", "оргтехника", "электроника", "инструмент", "станки",
			"производство", "софт", "имущественный комплекс",
		}},
		{Name: "Задолженности и ценные бумаги", Keywords: []string{
			"долг", "задолженность", "ценные бумаги", "акции", "облигации",
			"права требования",
		}},
		{Name: "Торговое оборудование и ТМЦ", Keywords: []string{
			"торговое оборудование", "тмц", "мебель", "драгоценности",
			"ювелирные изделия", "товарно-материальные ценности",
		}},
		{Name: "Сельское хозяйство", Keywords: []string{
			"сельское хозяйство", "сельхоз", "трактор", "комбайн", "ферма",
			"сельхозтехника",
		}},
	}
}
