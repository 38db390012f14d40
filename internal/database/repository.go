package database

import (
	"context"
	"time"
)

// IdentityReader provides read-only access to enrolled identities
type IdentityReader interface {
	// GetIdentity returns the identity for key, or nil if it does not exist
	GetIdentity(ctx context.Context, key string) (*Identity, error)
	// ListIdentities returns every identity in enrollment order
	ListIdentities(ctx context.Context) ([]Identity, error)
	// CountIdentities returns the number of enrolled identities
	CountIdentities(ctx context.Context) (int, error)
}

// IdentityWriter provides write access to identities
type IdentityWriter interface {
	IdentityReader

	// CreateIdentity inserts id unless its key already exists, in which case
	// it returns an error wrapping ErrDuplicateKey. The check and the insert
	// are a single atomic operation.
	CreateIdentity(ctx context.Context, id *Identity) error
}

// AttendanceReader provides read-only access to attendance events
type AttendanceReader interface {
	// RecentAttendance returns up to limit events, newest first
	RecentAttendance(ctx context.Context, limit int) ([]AttendanceEvent, error)
	// AttendanceSince returns events with Timestamp >= since, oldest first
	AttendanceSince(ctx context.Context, since time.Time) ([]AttendanceEvent, error)
}

// AttendanceWriter appends attendance events
type AttendanceWriter interface {
	AttendanceReader

	AppendAttendance(ctx context.Context, ev *AttendanceEvent) error
}

// Store is a complete storage backend.
type Store interface {
	IdentityWriter
	AttendanceWriter

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}
