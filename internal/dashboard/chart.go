package dashboard

import (
	"errors"
	"fmt"
	"sync"
)

// ErrMisaligned is returned when dates and prices differ in length.
var ErrMisaligned = errors.New("dates and prices are not aligned")

// Chart is a live chart widget attached to a surface.
type Chart interface {
	// Release detaches the chart from its surface and frees its resources.
	// A released chart must not be used again.
	Release()
}

// ChartFactory creates chart widgets on a surface.
type ChartFactory interface {
	NewChart(s Surface, dates []string, prices []float64) (Chart, error)
}

// surfaceSource looks up drawing surfaces by id; View satisfies it.
type surfaceSource interface {
	Surface(id string) (Surface, error)
}

// ChartRenderer owns the single chart drawn onto a fixed surface. At most one
// chart instance is live at any time.
type ChartRenderer struct {
	surfaces  surfaceSource
	factory   ChartFactory
	surfaceID string

	mu      sync.Mutex
	current Chart
}

// NewChartRenderer creates a renderer that draws on the surface named
// surfaceID (TargetChart when empty).
func NewChartRenderer(surfaces surfaceSource, factory ChartFactory, surfaceID string) *ChartRenderer {
	if surfaceID == "" {
		surfaceID = TargetChart
	}
	return &ChartRenderer{
		surfaces:  surfaces,
		factory:   factory,
		surfaceID: surfaceID,
	}
}

// Render replaces the current chart with one plotting prices against dates.
// The previous chart is released before the new one is created, even when
// creating the new one fails.
func (r *ChartRenderer) Render(dates []string, prices []float64) error {
	if len(dates) != len(prices) {
		return fmt.Errorf("%w: %d dates, %d prices", ErrMisaligned, len(dates), len(prices))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseLocked()

	s, err := r.surfaces.Surface(r.surfaceID)
	if err != nil {
		return err
	}
	if s == nil {
		return MissingTarget(r.surfaceID)
	}

	ch, err := r.factory.NewChart(s, dates, prices)
	if err != nil {
		return fmt.Errorf("creating chart: %w", err)
	}
	r.current = ch
	return nil
}

// Release drops the current chart, if any.
func (r *ChartRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked()
}

func (r *ChartRenderer) releaseLocked() {
	if r.current != nil {
		r.current.Release()
		r.current = nil
	}
}

// Live returns the number of live chart instances (0 or 1).
func (r *ChartRenderer) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return 0
	}
	return 1
}
