package format

import (
	"strconv"
	"strings"
	"time"
)

// Count formats a counter with thousands separators.
// Example: Count(12345) => "12,345"
func Count(n int64) string {
	return thousandSep(n)
}

// Digits splits n into its decimal digits, zero-padded to width, for per-digit counter cells.
func Digits(n int64, width int) []string {
	if n < 0 {
		n = 0
	}
	s := strconv.FormatInt(n, 10)
	if pad := width - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return strings.Split(s, "")
}

func thousandSep(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FmtDate formats time in a locale-friendly short form.
func FmtDate(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	switch strings.ToLower(lang) {
	case "ko":
		return t.Format("2006년 1월 2일")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Seconds renders a reveal delay such as "1.5s".
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
