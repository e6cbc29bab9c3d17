package format

import (
	"fmt"
	"html"
	"strings"
)

// Markup selects the Telegram parse mode a Formatter renders for.
type Markup string

const (
	MarkupHTML       Markup = "html"
	MarkupMarkdownV2 Markup = "markdownv2"
)

// ParseMarkup accepts "html", "markdownv2" (any case) and "" (html).
func ParseMarkup(s string) (Markup, error) {
	switch Markup(strings.ToLower(strings.TrimSpace(s))) {
	case "", MarkupHTML:
		return MarkupHTML, nil
	case MarkupMarkdownV2, "markdown_v2", "mdv2":
		return MarkupMarkdownV2, nil
	}
	return "", fmt.Errorf("unknown markup mode %q", s)
}

// renderer hides the syntax differences between parse modes. Every method
// escapes its arguments.
type renderer interface {
	parseMode() string
	text(s string) string
	bold(s string) string
	link(label, url string) string
}

func rendererFor(m Markup) renderer {
	if m == MarkupMarkdownV2 {
		return markdownV2{}
	}
	return htmlMarkup{}
}

type htmlMarkup struct{}

func (htmlMarkup) parseMode() string    { return "HTML" }
func (htmlMarkup) text(s string) string { return html.EscapeString(s) }
func (htmlMarkup) bold(s string) string { return "<b>" + html.EscapeString(s) + "</b>" }
func (htmlMarkup) link(label, url string) string {
	return `<a href="` + html.EscapeString(url) + `">` + html.EscapeString(label) + "</a>"
}

type markdownV2 struct{}

// Characters Telegram requires to be escaped anywhere in MarkdownV2 text.
var mdV2Escaper = strings.NewReplacer(
	`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`,
	"|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// Inside the (...) part of an inline link only ')' and '\' are special.
var mdV2URLEscaper = strings.NewReplacer(`\`, `\\`, ")", `\)`)

func (markdownV2) parseMode() string    { return "MarkdownV2" }
func (markdownV2) text(s string) string { return mdV2Escaper.Replace(s) }
func (markdownV2) bold(s string) string { return "*" + mdV2Escaper.Replace(s) + "*" }
func (markdownV2) link(label, url string) string {
	return "[" + mdV2Escaper.Replace(label) + "](" + mdV2URLEscaper.Replace(url) + ")"
}
