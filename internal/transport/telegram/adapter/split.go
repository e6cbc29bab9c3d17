package adapter

import "strings"

// textLimit stays under Telegram's 4096-character message cap.
const textLimit = 4000

// splitText cuts s into chunks of at most limit runes. Cuts prefer the last
// newline in the window (unless that leaves a chunk under a third of the
// limit) and, for HTML, never fall inside an unclosed tag.
func splitText(s string, limit int, parseMode string) []string {
	if limit <= 0 {
		limit = textLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}
	html := strings.EqualFold(parseMode, "HTML")

	var out []string
	start := 0
	for start < len(rs) {
		end := min(start+limit, len(rs))
		if end < len(rs) {
			end = cutPoint(rs[start:end], limit, html) + start
		}
		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))
		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

// cutPoint returns how many runes of window to emit.
func cutPoint(window []rune, limit int, html bool) int {
	cut := len(window)
	for i := len(window) - 1; i >= limit/3 && i > 0; i-- {
		if window[i] == '\n' {
			cut = i + 1
			break
		}
	}
	if !html {
		return cut
	}
	open, closed := -1, -1
	for i, r := range window[:cut] {
		switch r {
		case '<':
			open = i
		case '>':
			closed = i
		}
	}
	if open > closed && open > 1 {
		return open
	}
	return cut
}
