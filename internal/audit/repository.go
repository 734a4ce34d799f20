package audit

import (
	"context"
)

// Recorder persists booking events. Callers log failures and carry on.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Repository is the read side used by operators.
type Repository interface {
	Recorder
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListBySlot(ctx context.Context, slotID string) ([]Event, error)
}

// NopRecorder is used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) error { return nil }
