package core

import (
	"fmt"
	"strings"
	"time"
)

// FormatCurrency renders an amount as an Indian-locale rupee string,
// e.g. 1234.5 -> "₹1,234.50" and 123456.78 -> "₹1,23,456.78".
// Rounding happens only here, at the display boundary; aggregation
// keeps raw float values.
func FormatCurrency(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	whole := int64(amount + 0.005)
	frac := int64((amount-float64(whole))*100 + 0.5)
	if frac < 0 {
		frac = 0
	}
	if frac >= 100 {
		whole++
		frac -= 100
	}

	s := fmt.Sprintf("%d", whole)
	out := s
	// Indian grouping: rightmost group of three, then groups of two.
	if len(s) > 3 {
		head := s[:len(s)-3]
		tail := s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		out = strings.Join(groups, ",") + "," + tail
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s₹%s.%02d", sign, out, frac)
}

// FormatDate renders a timestamp as a short human date, e.g. "2 Jan 2025".
// The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006")
}
