package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityLog represents a record stored in activity_logs.
type ActivityLog struct {
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// ActivityRecorder persists admin activity.
type ActivityRecorder interface {
	Record(ctx context.Context, log ActivityLog) error
}

// ActivityLogger writes records into activity_logs.
type ActivityLogger struct {
	pool *pgxpool.Pool
}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger(pool *pgxpool.Pool) *ActivityLogger {
	return &ActivityLogger{pool: pool}
}

// Record persists the log entry.
func (l *ActivityLogger) Record(ctx context.Context, log ActivityLog) error {
	if l == nil || l.pool == nil {
		return errors.New("activity logger not initialised")
	}
	if err := log.Validate(); err != nil {
		return err
	}
	metaJSON, err := encodeMeta(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO activity_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES (NULLIF($1, ''), $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}

// encodeMeta renders meta for the jsonb column; nil becomes an empty object.
func encodeMeta(meta map[string]any) ([]byte, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	return json.Marshal(meta)
}

// Validate checks the fields every activity record needs.
func (log ActivityLog) Validate() error {
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("activity log requires action/entity/entity_id")
	}
	return nil
}

// NopActivityRecorder discards records.
type NopActivityRecorder struct{}

// Record implements ActivityRecorder.
func (NopActivityRecorder) Record(context.Context, ActivityLog) error { return nil }

var _ ActivityRecorder = (*ActivityLogger)(nil)
