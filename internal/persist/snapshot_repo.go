package persist

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roadroute/editor/internal/core/store"
	"github.com/roadroute/editor/internal/world"
)

// SnapshotRepo mirrors whole stores into PostgreSQL. Every save replaces the
// table contents (last write wins) and appends one snapshot_log row in the
// same transaction.
type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// SnapshotLogRow is one recorded save.
type SnapshotLogRow struct {
	ID       int64
	Kind     string
	Entities int
	SavedAt  time.Time
}

// SaveRoads replaces all mirrored roads (delete + bulk copy).
func (r *SnapshotRepo) SaveRoads(ctx context.Context, roads []world.Road) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM roads`); err != nil {
		return err
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"roads"},
		[]string{"position", "id", "name", "start_lat", "start_lon", "stop_lat", "stop_lon", "speed_limit", "lane_count", "road_type"},
		pgx.CopyFromSlice(len(roads), func(i int) ([]any, error) {
			rd := roads[i]
			return []any{
				int32(i), int32(rd.ID), rd.Name,
				rd.Start.Lat, rd.Start.Lon, rd.End.Lat, rd.End.Lon,
				rd.SpeedLimit, int32(rd.LaneCount), rd.Surface.String(),
			}, nil
		}),
	); err != nil {
		return err
	}
	if err := logSnapshot(ctx, tx, world.KindRoad, len(roads)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SaveIntersections replaces all mirrored intersections (delete + bulk copy).
func (r *SnapshotRepo) SaveIntersections(ctx context.Context, xs []world.Intersection) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM intersections`); err != nil {
		return err
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"intersections"},
		[]string{"position", "id", "lat", "lon", "traffic_lights"},
		pgx.CopyFromSlice(len(xs), func(i int) ([]any, error) {
			x := xs[i]
			return []any{int32(i), int32(x.ID), x.Point.Lat, x.Point.Lon, x.TrafficLights}, nil
		}),
	); err != nil {
		return err
	}
	if err := logSnapshot(ctx, tx, world.KindIntersection, len(xs)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func logSnapshot(ctx context.Context, tx pgx.Tx, kind world.Kind, n int) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO snapshot_log (kind, entities) VALUES ($1, $2)`,
		kind.String(), int32(n),
	)
	return err
}

// LoadRoads returns the mirrored roads in store order.
func (r *SnapshotRepo) LoadRoads(ctx context.Context) ([]world.Road, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name, start_lat, start_lon, stop_lat, stop_lon, speed_limit, lane_count, road_type
		 FROM roads ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]world.Road, 0, 64)
	for rows.Next() {
		var (
			rd      world.Road
			id      int32
			lanes   int32
			surface string
		)
		if err := rows.Scan(
			&id, &rd.Name,
			&rd.Start.Lat, &rd.Start.Lon, &rd.End.Lat, &rd.End.Lon,
			&rd.SpeedLimit, &lanes, &surface,
		); err != nil {
			return nil, err
		}
		rd.ID = store.ID(id)
		rd.LaneCount = int(lanes)
		rd.Surface = world.ParseSurface(surface)
		result = append(result, rd)
	}
	return result, rows.Err()
}

// LoadIntersections returns the mirrored intersections in store order.
func (r *SnapshotRepo) LoadIntersections(ctx context.Context) ([]world.Intersection, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, lat, lon, traffic_lights FROM intersections ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]world.Intersection, 0, 64)
	for rows.Next() {
		var (
			x  world.Intersection
			id int32
		)
		if err := rows.Scan(&id, &x.Point.Lat, &x.Point.Lon, &x.TrafficLights); err != nil {
			return nil, err
		}
		x.ID = store.ID(id)
		result = append(result, x)
	}
	return result, rows.Err()
}

// RecentSnapshots returns the newest limit snapshot_log rows, newest first.
func (r *SnapshotRepo) RecentSnapshots(ctx context.Context, limit int) ([]SnapshotLogRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, kind, entities, saved_at FROM snapshot_log ORDER BY id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SnapshotLogRow
	for rows.Next() {
		var (
			row SnapshotLogRow
			n   int32
		)
		if err := rows.Scan(&row.ID, &row.Kind, &n, &row.SavedAt); err != nil {
			return nil, err
		}
		row.Entities = int(n)
		result = append(result, row)
	}
	return result, rows.Err()
}
