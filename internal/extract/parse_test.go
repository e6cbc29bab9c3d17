package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"efrsbmon/internal/classify"
	"efrsbmon/internal/notice"
)

const testLink = "https://fedresurs.example/MessageWindow.aspx?ID=ABC"

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	c, err := classify.New(classify.Default())
	if err != nil {
		t.Fatalf("classify.New: %v", err)
	}
	return NewParser(DefaultRules(), c)
}

func parseFixture(t *testing.T, name string) ([]notice.Lot, error) {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return newTestParser(t).Parse(strings.NewReader(string(b)), testLink)
}

func TestParseAuction(t *testing.T) {
	t.Parallel()
	lots, err := parseFixture(t, "auction.html")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("len(lots) = %d, want 2", len(lots))
	}

	first := lots[0]
	checks := []struct{ name, got, want string }{
		{"link", first.Link, testLink},
		{"published", first.PublishedAt, "03.06.2024"},
		{"trade format", first.TradeFormat, "Открытый аукцион"},
		{"description", first.Description, "Легковой автомобиль Lada Granta, 2019 г.в."},
		{"category", first.Category, "Транспортные средства"},
		{"price", first.Price, "450 000,00"},
		{"debtor", first.DebtorName, "Иванов Иван Иванович"},
		{"debtor inn", first.DebtorINN, "771234567890"},
		{"email", first.Email, "au@example.org"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if !strings.HasPrefix(first.Manager, "Петров Петр Петрович (ИНН") {
		t.Fatalf("manager = %q", first.Manager)
	}

	// Second row has a blank classification cell: classifier fallback.
	if lots[1].Description != "Квартира 54 кв.м." {
		t.Fatalf("row order broken: %q", lots[1].Description)
	}
	if lots[1].Category != "Недвижимость" {
		t.Fatalf("fallback category = %q", lots[1].Category)
	}
}

func TestParseKeepsSectionScoping(t *testing.T) {
	t.Parallel()
	lots, err := parseFixture(t, "auction.html")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	raw := lots[0].Raw
	if _, ok := raw["№ сообщения"]; ok {
		t.Fatal("header section must only keep the publication date")
	}
	if _, ok := raw["Дата и время начала"]; ok {
		t.Fatal("published section must only keep the trade format")
	}
	if _, ok := raw["одна ячейка"]; ok {
		t.Fatal("rows without exactly two cells must be ignored")
	}
	if raw["ИНН"] != "771234567890" {
		t.Fatalf("raw debtor inn = %q", raw["ИНН"])
	}
}

func TestParseLotsDoNotShareState(t *testing.T) {
	t.Parallel()
	lots, _ := parseFixture(t, "auction.html")
	lots[0].Raw["x"] = "y"
	if _, ok := lots[1].Raw["x"]; ok {
		t.Fatal("lots share the Raw map")
	}
}

func TestParseAppraisalPartialFailure(t *testing.T) {
	t.Parallel()
	lots, err := parseFixture(t, "appraisal.html")
	if len(lots) != 2 {
		t.Fatalf("len(lots) = %d, want 2", len(lots))
	}
	if lots[0].Description != "Трактор МТЗ-82" || lots[1].Description != "Станок токарный" {
		t.Fatalf("unexpected lots: %q, %q", lots[0].Description, lots[1].Description)
	}
	if lots[0].Price != "800 000" || lots[0].Category != "Движимое" {
		t.Fatalf("lot 0 = %+v", lots[0])
	}
	if lots[0].DebtorName != `ООО "Ромашка"` {
		t.Fatalf("debtor alias not mapped: %q", lots[0].DebtorName)
	}
	if lots[0].TradeFormat != notice.Unknown {
		t.Fatalf("trade format = %q, want Unknown", lots[0].TradeFormat)
	}

	var m *MalformedLotError
	if !errors.As(err, &m) {
		t.Fatalf("expected MalformedLotError, got %v", err)
	}
	if m.Row != 2 || m.Rule != "appraisal" {
		t.Fatalf("malformed = %+v", m)
	}
	if !OnlyMalformed(err) {
		t.Fatal("OnlyMalformed = false")
	}
}

func TestParseUnknownTitleYieldsNothing(t *testing.T) {
	t.Parallel()
	lots, err := parseFixture(t, "other.html")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(lots) != 0 {
		t.Fatalf("len(lots) = %d, want 0", len(lots))
	}
}

func TestParseMissingLotTable(t *testing.T) {
	t.Parallel()
	html := `<h1 class="red_small">Объявление о проведении торгов</h1><p>нет лотов</p>`
	lots, err := newTestParser(t).Parse(strings.NewReader(html), testLink)
	if err != nil || len(lots) != 0 {
		t.Fatalf("Parse = %v, %v", lots, err)
	}
}

func TestParseMissingColumnFailsEveryRow(t *testing.T) {
	t.Parallel()
	html := `<h1 class="red_small">Объявление о проведении торгов</h1>
<table class="lotInfo">
<tr><th>Описание</th><th>Начальная цена, руб</th></tr>
<tr><td>Гараж</td><td>10</td></tr>
<tr><td>Дом</td><td>20</td></tr>
</table>`
	lots, err := newTestParser(t).Parse(strings.NewReader(html), testLink)
	if len(lots) != 0 {
		t.Fatalf("len(lots) = %d, want 0", len(lots))
	}
	if !OnlyMalformed(err) {
		t.Fatalf("err = %v", err)
	}
	var m *MalformedLotError
	if !errors.As(err, &m) || len(m.Missing) != 1 || m.Missing[0] != "Классификация имущества" {
		t.Fatalf("malformed = %+v", m)
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"  a\u00a0 b\t c\n": "a b c",
		"":                  "",
		"\u00a0":            "",
	}
	for in, want := range tests {
		if got := cleanText(in); got != want {
			t.Fatalf("cleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOnlyMalformed(t *testing.T) {
	t.Parallel()
	if OnlyMalformed(nil) {
		t.Fatal("nil is not malformed")
	}
	mixed := errors.Join(&MalformedLotError{Row: 1}, errors.New("boom"))
	if OnlyMalformed(mixed) {
		t.Fatal("mixed join must not be OnlyMalformed")
	}
}
