// Package format renders amounts, timestamps and text for the terminal.
package format

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/currency"
)

// Timestamp layouts the server is known to send.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02",
}

// Money formats an amount with thousands separators, two decimals and the
// currency code, e.g. "1,234.50 SGD".
func Money(amount float64, code string) string {
	s := humanize.FormatFloat("#,###.##", amount)
	if code == "" {
		return s
	}
	return s + " " + strings.ToUpper(code)
}

// SignedMoney prefixes the amount with + or -.
func SignedMoney(amount float64, code string, credit bool) string {
	if credit {
		return "+" + Money(amount, code)
	}
	return "-" + Money(amount, code)
}

// CurrencyName returns the code with its symbol when one is known, e.g.
// "SGD (S$)".
func CurrencyName(code string) string {
	u, err := currency.ParseISO(code)
	if err != nil {
		return code
	}
	sym := symbols[u.String()]
	if sym == "" {
		return u.String()
	}
	return u.String() + " (" + sym + ")"
}

var symbols = map[string]string{
	"USD": "$",
	"SGD": "S$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// ParseTime parses a server timestamp. ok is false when no layout matches.
func ParseTime(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TimeAgo renders a server timestamp relative to now, e.g. "3 hours ago".
// Unparsable input is returned as is.
func TimeAgo(s string) string {
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return humanize.Time(t)
}

// Date renders a server timestamp in local time.
func Date(s string) string {
	t, ok := ParseTime(s)
	if !ok {
		return s
	}
	return t.Local().Format("02 Jan 2006 15:04")
}

// Count renders n with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Wrap performs simple word wrapping to the given width. Lines indented by
// four spaces are left alone.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var result strings.Builder
	for _, paragraph := range strings.Split(text, "\n") {
		if strings.HasPrefix(paragraph, "    ") {
			result.WriteString(paragraph)
			result.WriteString("\n")
			continue
		}
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}
		lineLen := 0
		for i, word := range words {
			wlen := len(word)
			if i > 0 && lineLen+1+wlen > width {
				result.WriteString("\n")
				lineLen = 0
			} else if i > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wlen
		}
		result.WriteString("\n")
	}
	return strings.TrimRight(result.String(), "\n")
}
