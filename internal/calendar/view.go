package calendar

import (
	"time"
)

// GenericLoadError is the only message shown for transport or status failures.
const GenericLoadError = "Failed to load calendar data"

type FetchStatus int

const (
	FetchLoading FetchStatus = iota
	FetchReady
	FetchFailed
)

// Fetch is the state of one resource for the range on screen. Version changes every time a
// new result is applied and keys the memoized indices.
type Fetch[T any] struct {
	Status  FetchStatus
	Data    T
	Err     error
	Version uint64
}

func Loading[T any]() Fetch[T] {
	return Fetch[T]{Status: FetchLoading}
}

func Ready[T any](data T, version uint64) Fetch[T] {
	return Fetch[T]{Status: FetchReady, Data: data, Version: version}
}

func Failed[T any](err error) Fetch[T] {
	return Fetch[T]{Status: FetchFailed, Err: err}
}

type Inputs struct {
	Slots        Fetch[[]Slot]
	Appointments Fetch[[]Appointment]
	Month        Fetch[[]DayAggregate]
}

// LoadingInputs marks every resource as outstanding.
func LoadingInputs() Inputs {
	return Inputs{
		Slots:        Loading[[]Slot](),
		Appointments: Loading[[]Appointment](),
		Month:        Loading[[]DayAggregate](),
	}
}

// Required lists the resources a mode renders from.
func Required(mode ViewMode) []Resource {
	if mode == ModeMonth {
		return []Resource{ResourceMonth}
	}
	return []Resource{ResourceSlots, ResourceAppointments}
}

// Status reports the load state of one resource.
func (in Inputs) Status(res Resource) (FetchStatus, error) {
	switch res {
	case ResourceSlots:
		return in.Slots.Status, in.Slots.Err
	case ResourceAppointments:
		return in.Appointments.Status, in.Appointments.Err
	default:
		return in.Month.Status, in.Month.Err
	}
}

// Fail records a failed fetch for res. Data from an earlier success is dropped.
func (in *Inputs) Fail(res Resource, err error) {
	switch res {
	case ResourceSlots:
		in.Slots = Failed[[]Slot](err)
	case ResourceAppointments:
		in.Appointments = Failed[[]Appointment](err)
	default:
		in.Month = Failed[[]DayAggregate](err)
	}
}

type ViewStatus string

const (
	ViewLoading ViewStatus = "loading"
	ViewReady   ViewStatus = "ready"
	ViewError   ViewStatus = "error"
)

// View is what the presentation layer draws. Exactly one grid is set when Status is ViewReady.
type View struct {
	Mode   ViewMode
	Anchor time.Time
	Range  DateRange
	Status ViewStatus
	Err    error

	Month *MonthGrid
	Week  *WeekGrid
	Day   *DayGrid
}

// Builder turns fetch states into a View. It never joins a partially loaded set of resources.
type Builder struct {
	axis    HoursAxis
	indexer *Indexer
	now     func() time.Time
}

func NewBuilder(axis HoursAxis, indexer *Indexer, now func() time.Time) *Builder {
	if indexer == nil {
		indexer = NewIndexer(0)
	}
	if now == nil {
		now = time.Now
	}
	return &Builder{axis: axis, indexer: indexer, now: now}
}

func (b *Builder) Axis() HoursAxis { return b.axis }

func (b *Builder) Now() time.Time { return b.now() }

// NextVersion stamps a freshly fetched result so its index can be memoized.
func (b *Builder) NextVersion() uint64 { return b.indexer.NextVersion() }

func (b *Builder) Build(mode ViewMode, anchor time.Time, in Inputs) View {
	v := View{Mode: mode, Anchor: anchor, Range: RangeFor(mode, anchor)}

	var failure error
	for _, res := range Required(mode) {
		status, err := in.Status(res)
		switch status {
		case FetchLoading:
			v.Status = ViewLoading
			return v
		case FetchFailed:
			if failure == nil {
				failure = err
			}
		}
	}
	if failure != nil {
		v.Status = ViewError
		v.Err = failure
		return v
	}

	now := b.now()
	switch mode {
	case ModeMonth:
		g := BuildMonth(anchor, now, in.Month.Data)
		v.Month = &g
	case ModeWeek:
		g := BuildWeek(anchor, now, b.axis,
			b.indexer.Slots(in.Slots.Version, in.Slots.Data),
			b.indexer.Appointments(in.Appointments.Version, in.Appointments.Data))
		v.Week = &g
	default:
		g := BuildDay(anchor, now, b.axis, in.Slots.Data,
			b.indexer.Slots(in.Slots.Version, in.Slots.Data),
			b.indexer.Appointments(in.Appointments.Version, in.Appointments.Data))
		v.Day = &g
	}
	v.Status = ViewReady
	return v
}
