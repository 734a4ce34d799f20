package console

import (
	"errors"

	"github.com/hackgods/clinic-calendar-console/internal/calendar"
)

var ErrSessionClosed = errors.New("calendar session closed")

type ActionKind string

const (
	ActionNone        ActionKind = "none"
	ActionBook        ActionKind = "book"
	ActionShowDetails ActionKind = "details"
)

// Action is what a click on a week or day cell asks the presentation layer to open.
type Action struct {
	Kind       ActionKind
	Slot       *calendar.Slot
	BookingIDs []string
}

// Click maps a grid cell to its action. Blocked and closed cells do nothing.
func Click(cell calendar.Cell) Action {
	switch c := cell.(type) {
	case *calendar.BookableCell:
		slot := c.Slot
		return Action{Kind: ActionBook, Slot: &slot}
	case *calendar.AppointmentsCell:
		ids := make([]string, len(c.Appointments))
		for i, a := range c.Appointments {
			ids[i] = a.BookingID
		}
		return Action{Kind: ActionShowDetails, BookingIDs: ids}
	case *calendar.BlockedCell, *calendar.ClosedCell:
		return Action{Kind: ActionNone}
	default:
		return Action{Kind: ActionNone}
	}
}
