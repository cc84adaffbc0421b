package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"stockintel/internal/domain"
)

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.WriteString(sign)
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatVolume formats a share volume with B/M/K suffixes.
func FormatVolume(v int64) string {
	f := float64(v)
	switch {
	case f >= 1e9:
		return fmt.Sprintf("%.1fB", f/1e9)
	case f >= 1e6:
		return fmt.Sprintf("%.1fM", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("%.1fK", f/1e3)
	default:
		return fmt.Sprintf("%d", v)
	}
}

// FormatPrice formats a price with two decimals, or "-" when absent.
func FormatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}

// FormatGainerReturn formats a gainer's average return with a leading "+".
func FormatGainerReturn(r float64) string {
	return fmt.Sprintf("+%.2f%%", r)
}

// FormatLoserReturn formats a loser's average return with its own sign. The
// value is not negated: losers already carry a negative magnitude.
func FormatLoserReturn(r float64) string {
	return fmt.Sprintf("%.2f%%", r)
}

// FormatVolatility renders a volatility score line, or "-" when v is nil.
func FormatVolatility(v *domain.Volatility) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f (%s)", v.Score, v.Classification)
}
