package dashboard

import (
	"strings"

	"stockintel/internal/domain"
)

// PrepareSeries turns a newest-first series into chronological, index-aligned
// dates and prices. Points with an empty date or a null close are dropped.
func PrepareSeries(points []domain.PricePoint) (dates []string, prices []float64) {
	dates = make([]string, 0, len(points))
	prices = make([]float64, 0, len(points))
	for i := len(points) - 1; i >= 0; i-- {
		p := points[i]
		if !p.Usable() {
			continue
		}
		dates = append(dates, p.Date)
		prices = append(prices, *p.Close)
	}
	return dates, prices
}

// MatchCompanies returns the companies whose name or symbol contains term,
// case-insensitively, in roster order. An empty term matches everything. The
// roster is never modified.
func MatchCompanies(roster []domain.Company, term string) []domain.Company {
	needle := strings.ToLower(term)
	out := make([]domain.Company, 0, len(roster))
	for _, c := range roster {
		if needle == "" ||
			strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Symbol), needle) {
			out = append(out, c)
		}
	}
	return out
}
