package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS booking_events (
	id          UUID PRIMARY KEY,
	event_type  TEXT NOT NULL,
	flow        TEXT NOT NULL,
	slot_id     TEXT NOT NULL,
	booking_id  TEXT,
	payload     JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS booking_events_slot_idx ON booking_events (slot_id, created_at);
`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create booking_events: %w", err)
	}
	return nil
}

func (r *PgRepository) Record(ctx context.Context, ev Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO booking_events (id, event_type, flow, slot_id, booking_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
	`, ev.ID, string(ev.Type), string(ev.Flow), ev.SlotID, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert booking event: %w", err)
	}
	return nil
}

func (r *PgRepository) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, flow, slot_id, booking_id, payload, created_at
		FROM booking_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list booking events: %w", err)
	}
	return collectEvents(rows)
}

func (r *PgRepository) ListBySlot(ctx context.Context, slotID string) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, flow, slot_id, booking_id, payload, created_at
		FROM booking_events
		WHERE slot_id = $1
		ORDER BY created_at
	`, slotID)
	if err != nil {
		return nil, fmt.Errorf("list booking events for slot: %w", err)
	}
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]Event, error) {
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var ev Event
		var typ, flow string
		err := row.Scan(&ev.ID, &typ, &flow, &ev.SlotID, &ev.BookingID, &ev.Payload, &ev.CreatedAt)
		ev.Type = EventType(typ)
		ev.Flow = Flow(flow)
		return ev, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan booking events: %w", err)
	}
	return events, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
