// Package tui is the terminal front end of the stock dashboard. Screen holds
// the rendered state the dashboard controller writes; the bubbletea model
// reads snapshots of it and turns key presses into controller actions.
package tui

import (
	"sync"

	"stockintel/internal/dashboard"
	"stockintel/internal/domain"
)

// State is a point-in-time copy of everything on screen.
type State struct {
	RosterState dashboard.RosterState
	Companies   []domain.Company

	Symbol     string
	Summary    *domain.Summary
	Volatility *domain.Volatility

	Gainers []domain.InsightEntry
	Losers  []domain.InsightEntry

	Notice *dashboard.Notice
	Chart  string
}

// Screen implements dashboard.View. Render calls only store state and
// signal Updates; they never block.
type Screen struct {
	mu      sync.Mutex
	state   State
	chart   *panel
	updates chan struct{}
}

var _ dashboard.View = (*Screen)(nil)

// NewScreen creates an empty screen with a chart surface of the given size.
func NewScreen(chartWidth, chartHeight int) *Screen {
	s := &Screen{updates: make(chan struct{}, 1)}
	s.chart = &panel{screen: s, width: chartWidth, height: chartHeight}
	return s
}

// Updates is signalled (coalesced) after every state change.
func (s *Screen) Updates() <-chan struct{} { return s.updates }

// Snapshot returns a copy of the current state.
func (s *Screen) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Companies = append([]domain.Company(nil), s.state.Companies...)
	st.Gainers = append([]domain.InsightEntry(nil), s.state.Gainers...)
	st.Losers = append([]domain.InsightEntry(nil), s.state.Losers...)
	return st
}

// ClearNotice dismisses the current notice.
func (s *Screen) ClearNotice() {
	s.update(func(st *State) { st.Notice = nil })
}

// SetChartSize resizes the chart surface. It takes effect on the next draw.
func (s *Screen) SetChartSize(width, height int) {
	s.mu.Lock()
	s.chart.width, s.chart.height = width, height
	s.mu.Unlock()
}

func (s *Screen) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Screen) RenderRoster(state dashboard.RosterState, companies []domain.Company) error {
	s.update(func(st *State) {
		st.RosterState = state
		st.Companies = append([]domain.Company(nil), companies...)
	})
	return nil
}

func (s *Screen) RenderSummary(symbol string, sum domain.Summary) error {
	s.update(func(st *State) {
		if st.Symbol != symbol {
			st.Volatility = nil
		}
		st.Symbol = symbol
		st.Summary = &sum
	})
	return nil
}

// RenderVolatility updates the volatility line only while symbol is the one
// shown in the header. The header itself belongs to RenderSummary.
func (s *Screen) RenderVolatility(symbol string, v *domain.Volatility) error {
	s.update(func(st *State) {
		if st.Symbol != symbol {
			return
		}
		st.Volatility = v
	})
	return nil
}

func (s *Screen) RenderGainers(entries []domain.InsightEntry) error {
	s.update(func(st *State) { st.Gainers = append([]domain.InsightEntry(nil), entries...) })
	return nil
}

func (s *Screen) RenderLosers(entries []domain.InsightEntry) error {
	s.update(func(st *State) { st.Losers = append([]domain.InsightEntry(nil), entries...) })
	return nil
}

func (s *Screen) RenderNotice(n dashboard.Notice) {
	s.update(func(st *State) { st.Notice = &n })
}

// Surface returns the chart surface; it is the only drawable target.
func (s *Screen) Surface(id string) (dashboard.Surface, error) {
	if id != dashboard.TargetChart {
		return nil, dashboard.MissingTarget(id)
	}
	return s.chart, nil
}

// panel is the chart surface.
type panel struct {
	screen        *Screen
	width, height int
}

func (p *panel) Size() (int, int) {
	p.screen.mu.Lock()
	defer p.screen.mu.Unlock()
	return p.width, p.height
}

// Draw replaces the chart frame and dismisses any notice left over from an
// earlier selection.
func (p *panel) Draw(frame string) {
	p.screen.update(func(st *State) {
		st.Chart = frame
		st.Notice = nil
	})
}

func (p *panel) Clear() {
	p.screen.update(func(st *State) { st.Chart = "" })
}
