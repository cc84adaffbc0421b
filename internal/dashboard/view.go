package dashboard

import (
	"errors"
	"fmt"

	"stockintel/internal/domain"
)

// Stable ids of the rendering targets a View exposes.
const (
	TargetRoster  = "companies-list"
	TargetChart   = "stock-chart"
	TargetHeader  = "stock-header"
	TargetStats   = "stats-grid"
	TargetGainers = "gainers-list"
	TargetLosers  = "losers-list"
	TargetSearch  = "search"
)

// ErrMissingTarget is returned by a View when a named rendering target does
// not exist.
var ErrMissingTarget = errors.New("rendering target missing")

// MissingTarget wraps ErrMissingTarget with the target id.
func MissingTarget(id string) error {
	return fmt.Errorf("%w: %s", ErrMissingTarget, id)
}

// RosterState distinguishes the states of the roster panel.
type RosterState int

const (
	RosterLoading RosterState = iota
	RosterReady
	RosterEmpty
	RosterError
)

func (s RosterState) String() string {
	switch s {
	case RosterLoading:
		return "loading"
	case RosterReady:
		return "ready"
	case RosterEmpty:
		return "empty"
	case RosterError:
		return "error"
	default:
		return fmt.Sprintf("RosterState(%d)", int(s))
	}
}

// View is the set of rendering capabilities the Controller drives. Every
// method is called with the controller lock held, so implementations must
// not block and must not call back into the Controller synchronously.
type View interface {
	// RenderRoster fully replaces the roster panel. companies is nil unless
	// state is RosterReady.
	RenderRoster(state RosterState, companies []domain.Company) error

	// RenderSummary overwrites the header and the three stat values.
	RenderSummary(symbol string, s domain.Summary) error

	// RenderVolatility shows the volatility line for symbol; v is nil when
	// none is available. It never changes the header, so a symbol whose
	// summary failed leaves the previous stats and header in place.
	RenderVolatility(symbol string, v *domain.Volatility) error

	// RenderGainers and RenderLosers fully replace their insight list.
	RenderGainers(entries []domain.InsightEntry) error
	RenderLosers(entries []domain.InsightEntry) error

	// RenderNotice surfaces a user-visible condition.
	RenderNotice(n Notice)

	// Surface returns the drawing surface with the given id.
	Surface(id string) (Surface, error)
}

// Surface is an externally owned drawing area a chart is attached to.
type Surface interface {
	// Size reports the drawable area in cells.
	Size() (width, height int)
	// Draw replaces the surface content.
	Draw(frame string)
	// Clear blanks the surface.
	Clear()
}
