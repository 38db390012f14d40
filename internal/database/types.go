package database

import (
	"time"
)

// Identity is an enrolled person. Records are immutable once created.
type Identity struct {
	ID            string    // uuid assigned at creation
	IdentityKey   string    // unique, caller supplied (employee id)
	DisplayName   string
	FeatureVector []float32
	Strategy      string // extractor that produced FeatureVector
	Dim           int
	CreatedAt     time.Time
}

// Attendance methods.
const (
	MethodFace = "face"
	MethodQR   = "qr"
)

// Location is an optional client-reported position. It is stored as given.
type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// AttendanceEvent records one successful check-in. Events are append-only.
type AttendanceEvent struct {
	ID          string // ULID, sorts by creation time
	IdentityKey string
	Timestamp   time.Time
	Method      string // MethodFace or MethodQR
	Location    *Location
	Verified    bool
	Confidence  float64 // face method only
	Score       float64 // raw metric value, face method only
}
