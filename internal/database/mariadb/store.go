package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Store implements database.Store on a Pool.
type Store struct {
	pool *Pool
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error { return s.pool.Close() }

const identityColumns = `id, identity_key, display_name, feature_vector, strategy, dim, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*database.Identity, error) {
	var (
		id   database.Identity
		blob []byte
	)
	if err := row.Scan(&id.ID, &id.IdentityKey, &id.DisplayName, &blob, &id.Strategy, &id.Dim, &id.CreatedAt); err != nil {
		return nil, err
	}
	vec, err := decodeVector(blob)
	if err != nil {
		return nil, fmt.Errorf("identity %q: %w", id.IdentityKey, err)
	}
	id.FeatureVector = vec
	return &id, nil
}

// GetIdentity returns nil when the key is not enrolled.
func (s *Store) GetIdentity(ctx context.Context, key string) (*database.Identity, error) {
	row := s.pool.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE identity_key = ?`, key)
	id, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get identity", err)
	}
	return id, nil
}

func (s *Store) ListIdentities(ctx context.Context) ([]database.Identity, error) {
	rows, err := s.pool.db.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY seq`)
	if err != nil {
		return nil, classify("list identities", err)
	}
	defer rows.Close()

	var out []database.Identity
	for rows.Next() {
		id, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, *id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate identities", err)
	}
	return out, nil
}

func (s *Store) CountIdentities(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities`).Scan(&n); err != nil {
		return 0, classify("count identities", err)
	}
	return n, nil
}

// CreateIdentity relies on the unique key on identity_key; the losing
// insert fails with ER_DUP_ENTRY.
func (s *Store) CreateIdentity(ctx context.Context, id *database.Identity) error {
	_, err := s.pool.db.ExecContext(ctx, `
		INSERT INTO identities (id, identity_key, display_name, feature_vector, strategy, dim, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id.ID, id.IdentityKey, id.DisplayName, encodeVector(id.FeatureVector), id.Strategy, id.Dim, id.CreatedAt.UTC())
	if isDuplicate(err) {
		return fmt.Errorf("insert identity %q: %w", id.IdentityKey, database.ErrDuplicateKey)
	}
	return classify("insert identity", err)
}

func (s *Store) AppendAttendance(ctx context.Context, ev *database.AttendanceEvent) error {
	var lat, lon sql.NullFloat64
	if ev.Location != nil {
		lat = sql.NullFloat64{Float64: ev.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: ev.Location.Longitude, Valid: true}
	}

	_, err := s.pool.db.ExecContext(ctx, `
		INSERT INTO attendance (id, identity_key, ts, method, latitude, longitude, verified, confidence, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.IdentityKey, ev.Timestamp.UTC(), ev.Method, lat, lon, ev.Verified, ev.Confidence, ev.Score)
	return classify("insert attendance", err)
}

const attendanceColumns = `id, identity_key, ts, method, latitude, longitude, verified, confidence, score`

func (s *Store) queryAttendance(ctx context.Context, op, query string, args ...any) ([]database.AttendanceEvent, error) {
	rows, err := s.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []database.AttendanceEvent
	for rows.Next() {
		var (
			ev       database.AttendanceEvent
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&ev.ID, &ev.IdentityKey, &ev.Timestamp, &ev.Method, &lat, &lon,
			&ev.Verified, &ev.Confidence, &ev.Score); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		if lat.Valid && lon.Valid {
			ev.Location = &database.Location{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func (s *Store) RecentAttendance(ctx context.Context, limit int) ([]database.AttendanceEvent, error) {
	return s.queryAttendance(ctx, "recent attendance",
		`SELECT `+attendanceColumns+` FROM attendance ORDER BY ts DESC, id DESC LIMIT ?`, limit)
}

func (s *Store) AttendanceSince(ctx context.Context, since time.Time) ([]database.AttendanceEvent, error) {
	return s.queryAttendance(ctx, "attendance since",
		`SELECT `+attendanceColumns+` FROM attendance WHERE ts >= ? ORDER BY ts, id`, since.UTC())
}
