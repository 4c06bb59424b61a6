package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads activity_logs from PostgreSQL.
type PGRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *PGRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGRepository{pool: pool, logger: logger}
}

const timelineWindowSQL = `
SELECT l.id, l.occurred_at, COALESCE(l.actor_id, ''), COALESCE(u.email, ''), COALESCE(u.name, ''), l.action, l.entity, l.entity_id, l.meta
FROM activity_logs l
LEFT JOIN users u ON u.id = l.actor_id
WHERE ($1::timestamptz IS NULL OR l.occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR l.occurred_at < $2)
  AND ($3 = '' OR l.actor_id = $3 OR lower(u.email) = lower($3))
  AND ($4 = '' OR l.entity = $4)
  AND ($5 = '' OR l.action = $5)
ORDER BY l.occurred_at DESC, l.id DESC
OFFSET $6 LIMIT $7`

// TimelineWindow implements Repository.
func (r *PGRepository) TimelineWindow(ctx context.Context, q WindowQuery) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, timelineWindowSQL, q.From, q.To, q.Actor, q.Entity, q.Action, q.Offset, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TimelineRow, 0, q.Limit)
	for rows.Next() {
		var (
			row  TimelineRow
			meta []byte
		)
		if err := rows.Scan(&row.ID, &row.At, &row.ActorID, &row.ActorEmail, &row.ActorName, &row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return nil, err
		}
		row.Meta = decodeMeta(r.logger, row.ID, meta)
		out = append(out, row)
	}
	return out, rows.Err()
}

// decodeMeta parses a meta column. A malformed value is logged and the row is
// returned without meta.
func decodeMeta(logger *slog.Logger, id int64, raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		logger.Warn("decode activity meta", slog.Int64("activity_id", id), slog.Any("error", err))
		return nil
	}
	return meta
}
