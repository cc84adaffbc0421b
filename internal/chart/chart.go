// Package chart draws price series as ASCII line charts onto dashboard
// surfaces.
package chart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/guptarohit/asciigraph"

	"stockintel/internal/dashboard"
)

// Minimum plot area; smaller surfaces are drawn at this size.
const (
	minWidth  = 20
	minHeight = 5
)

// axisWidth is the room asciigraph needs for the y-axis labels.
const axisWidth = 12

// Factory creates asciigraph-backed charts. It implements
// dashboard.ChartFactory.
type Factory struct {
	// Precision is the number of decimals on the y-axis labels.
	Precision uint
}

var _ dashboard.ChartFactory = Factory{}

// NewChart plots prices on s and returns the live chart.
func (f Factory) NewChart(s dashboard.Surface, dates []string, prices []float64) (dashboard.Chart, error) {
	if s == nil {
		return nil, errors.New("nil surface")
	}
	if len(prices) == 0 {
		return nil, errors.New("no prices to plot")
	}
	if len(dates) != len(prices) {
		return nil, fmt.Errorf("%w: %d dates, %d prices", dashboard.ErrMisaligned, len(dates), len(prices))
	}

	c := &Chart{surface: s}
	s.Draw(Plot(dates, prices, s, f.Precision))
	return c, nil
}

// Plot renders prices as a line chart sized to fit s, captioned with the
// date range.
func Plot(dates []string, prices []float64, s dashboard.Surface, precision uint) string {
	w, h := s.Size()
	width := max(w-axisWidth, minWidth)
	height := max(h-2, minHeight)

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Precision(precision),
		asciigraph.Caption(caption(dates)),
	}
	// asciigraph interpolates to the requested width; a single point has
	// nothing to interpolate.
	if len(prices) > 1 {
		opts = append(opts, asciigraph.Width(width))
	}
	return asciigraph.Plot(prices, opts...)
}

func caption(dates []string) string {
	switch len(dates) {
	case 0:
		return ""
	case 1:
		return dates[0]
	default:
		return fmt.Sprintf("%s → %s (%d days)", dates[0], dates[len(dates)-1], len(dates))
	}
}

// Chart is a plotted series attached to a surface.
type Chart struct {
	surface dashboard.Surface
	once    sync.Once
}

// Release clears the surface. Calling it more than once is a no-op.
func (c *Chart) Release() {
	c.once.Do(func() {
		c.surface.Clear()
		c.surface = nil
	})
}
