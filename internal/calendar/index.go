package calendar

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SlotIndex maps day -> bucket -> slot. When two slots share a bucket the later one in input order wins.
type SlotIndex map[string]map[BucketKey]Slot

func BuildSlotIndex(slots []Slot) SlotIndex {
	ix := make(SlotIndex)
	for _, s := range slots {
		day := DayString(s.Datetime.Time)
		buckets, ok := ix[day]
		if !ok {
			buckets = make(map[BucketKey]Slot)
			ix[day] = buckets
		}
		buckets[Bucket(s.Datetime.Time)] = s
	}
	return ix
}

func (ix SlotIndex) Lookup(day string, key BucketKey) (Slot, bool) {
	s, ok := ix[day][key]
	return s, ok
}

func (ix SlotIndex) At(t time.Time) (Slot, bool) {
	return ix.Lookup(DayString(t), Bucket(t))
}

// AppointmentIndex maps day -> bucket -> appointments. Double-booked buckets keep every appointment
// in input order.
type AppointmentIndex map[string]map[BucketKey][]Appointment

func BuildAppointmentIndex(appts []Appointment) AppointmentIndex {
	ix := make(AppointmentIndex)
	for _, a := range appts {
		day := DayString(a.AppointmentTime.Time)
		buckets, ok := ix[day]
		if !ok {
			buckets = make(map[BucketKey][]Appointment)
			ix[day] = buckets
		}
		key := Bucket(a.AppointmentTime.Time)
		buckets[key] = append(buckets[key], a)
	}
	return ix
}

func (ix AppointmentIndex) Lookup(day string, key BucketKey) []Appointment {
	return ix[day][key]
}

func (ix AppointmentIndex) At(t time.Time) []Appointment {
	return ix.Lookup(DayString(t), Bucket(t))
}

// Indexer memoizes indices by the version of the fetch result they were built from.
// Version zero is never cached.
type Indexer struct {
	seq   atomic.Uint64
	slots *lru.Cache[uint64, SlotIndex]
	appts *lru.Cache[uint64, AppointmentIndex]
}

// NextVersion hands out versions unique to this indexer.
func (x *Indexer) NextVersion() uint64 {
	return x.seq.Add(1)
}

func NewIndexer(size int) *Indexer {
	if size <= 0 {
		size = 16
	}
	slots, _ := lru.New[uint64, SlotIndex](size)
	appts, _ := lru.New[uint64, AppointmentIndex](size)
	return &Indexer{slots: slots, appts: appts}
}

func (x *Indexer) Slots(version uint64, slots []Slot) SlotIndex {
	if version == 0 {
		return BuildSlotIndex(slots)
	}
	if ix, ok := x.slots.Get(version); ok {
		return ix
	}
	ix := BuildSlotIndex(slots)
	x.slots.Add(version, ix)
	return ix
}

func (x *Indexer) Appointments(version uint64, appts []Appointment) AppointmentIndex {
	if version == 0 {
		return BuildAppointmentIndex(appts)
	}
	if ix, ok := x.appts.Get(version); ok {
		return ix
	}
	ix := BuildAppointmentIndex(appts)
	x.appts.Add(version, ix)
	return ix
}
