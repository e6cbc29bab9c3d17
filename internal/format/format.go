// Package format renders a lot into the channel notice text.
package format

import (
	"regexp"
	"strings"
	"unicode"

	"efrsbmon/internal/notice"
)

const descriptionWords = 15

// Options configures a Formatter.
type Options struct {
	Markup Markup
}

// Formatter is safe for concurrent use; Format has no side effects.
type Formatter struct {
	r renderer
}

func New(opt Options) *Formatter {
	return &Formatter{r: rendererFor(opt.Markup)}
}

// ParseMode is the transport parse mode matching the rendered markup.
func (f *Formatter) ParseMode() string { return f.r.parseMode() }

// Format never fails: absent fields are replaced by textual defaults.
func (f *Formatter) Format(lot notice.Lot) string {
	r := f.r
	name, inn := responsibleParty(lot)

	var b strings.Builder
	b.WriteString(r.text("#" + tag(or(lot.Category, "Без категории"))))
	b.WriteString("\n\n")
	b.WriteString("📅 " + r.bold("Дата публикации:") + " " + r.text(or(lot.PublishedAt, "Не указана")) + "\n")
	b.WriteString("🏷️ " + r.bold("Формат торгов:") + " " + r.text(or(lot.TradeFormat, "Не указан")) + "\n\n")
	b.WriteString("📝 " + r.bold("Описание:") + " " + r.text(shorten(or(lot.Description, "Описание отсутствует"), descriptionWords)) + "\n\n")
	b.WriteString("💰 " + r.bold("Цена:") + " " + r.text(or(lot.Price, "Не указана")) + "\n\n")
	b.WriteString("👨‍💼 " + r.bold("Арбитражный управляющий:") + "\n")
	b.WriteString(r.text("ФИО: "+name) + "\n")
	b.WriteString(r.text("ИНН: "+inn) + "\n")
	b.WriteString(r.text("Телефон: отсутствует") + "\n")
	b.WriteString(r.text("E-mail: "+or(lot.Email, "отсутствует")) + "\n\n")
	b.WriteString("🏢 " + r.bold("Должник:") + "\n")
	b.WriteString(r.text("Наименование: "+or(lot.DebtorName, "Не указано")) + "\n")
	b.WriteString(r.text("ИНН: "+or(lot.DebtorINN, "Не указан")) + "\n\n")
	b.WriteString("🔗 " + r.link("Открыть сообщение", or(lot.Link, "#")))
	return b.String()
}

func or(v, def string) string {
	v = strings.TrimSpace(v)
	if !notice.Known(v) {
		return def
	}
	return v
}

// shorten keeps the first n whitespace-separated words.
func shorten(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}

const innMarker = " (ИНН"

var innDigits = regexp.MustCompile(`ИНН[:\s]*(\d+)`)

// responsibleParty splits "Full Name (ИНН 123, ...)" into name and tax id.
// The organizer stands in when no manager is known.
func responsibleParty(lot notice.Lot) (name, inn string) {
	info := strings.TrimSpace(lot.Manager)
	if !notice.Known(info) {
		info = strings.TrimSpace(lot.Organizer)
	}
	if !notice.Known(info) {
		return notice.Unknown, notice.Unknown
	}
	i := strings.Index(info, innMarker)
	if i < 0 {
		return info, notice.Unknown
	}
	name = strings.TrimSpace(info[:i])
	if name == "" {
		name = notice.Unknown
	}
	inn = notice.Unknown
	if m := innDigits.FindStringSubmatch(info[i:]); m != nil {
		inn = m[1]
	}
	return name, inn
}

// tag turns a category name into a single hashtag token.
func tag(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
