package dashboard

import (
	"errors"
	"fmt"

	"stockintel/pkg/stockintel"
)

// NoticeKind classifies a user-visible condition.
type NoticeKind int

const (
	NoticeBackendDown NoticeKind = iota
	NoticeRosterFailed
	NoticeNotFound
	NoticeRequestFailed
	NoticeNoData
	NoticeMissingTarget
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeBackendDown:
		return "backend-down"
	case NoticeRosterFailed:
		return "roster-failed"
	case NoticeNotFound:
		return "not-found"
	case NoticeRequestFailed:
		return "request-failed"
	case NoticeNoData:
		return "no-data"
	case NoticeMissingTarget:
		return "missing-target"
	default:
		return fmt.Sprintf("NoticeKind(%d)", int(k))
	}
}

// Notice is a condition surfaced to the user through View.RenderNotice.
// Status is the HTTP status for NoticeRequestFailed, or 0 when the request
// never got a response (transport failure, timeout).
type Notice struct {
	Kind   NoticeKind
	Symbol string
	Status int
	Target string
	Err    error
}

// Message renders the notice as a single line of user-facing text.
func (n Notice) Message() string {
	switch n.Kind {
	case NoticeBackendDown:
		return fmt.Sprintf("Cannot connect to backend: %v", n.Err)
	case NoticeRosterFailed:
		return fmt.Sprintf("Error loading companies: %v", n.Err)
	case NoticeNotFound:
		return fmt.Sprintf("Symbol %q not found in database.", n.Symbol)
	case NoticeRequestFailed:
		if n.Status != 0 {
			return fmt.Sprintf("Request for %s failed with status %d", n.Symbol, n.Status)
		}
		return fmt.Sprintf("Request for %s failed: %v", n.Symbol, n.Err)
	case NoticeNoData:
		return fmt.Sprintf("No data available for %s.", n.Symbol)
	case NoticeMissingTarget:
		return fmt.Sprintf("Rendering target %q is missing.", n.Target)
	default:
		return n.Kind.String()
	}
}

// seriesNotice maps a series fetch error onto the not-found / request-failed
// split.
func seriesNotice(symbol string, err error) Notice {
	if errors.Is(err, stockintel.ErrNotFound) {
		return Notice{Kind: NoticeNotFound, Symbol: symbol, Status: 404, Err: err}
	}
	return Notice{Kind: NoticeRequestFailed, Symbol: symbol, Status: stockintel.StatusCode(err), Err: err}
}

// targetNotice builds a NoticeMissingTarget for err when err wraps
// ErrMissingTarget.
func targetNotice(id string, err error) (Notice, bool) {
	if !errors.Is(err, ErrMissingTarget) {
		return Notice{}, false
	}
	return Notice{Kind: NoticeMissingTarget, Target: id, Err: err}, true
}
