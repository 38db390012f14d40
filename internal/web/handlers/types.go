package handlers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// LocationRequest is an optional client position, stored as given.
type LocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l *LocationRequest) toLocation() *database.Location {
	if l == nil {
		return nil
	}
	return &database.Location{Latitude: l.Latitude, Longitude: l.Longitude}
}

// RegisterRequest enrolls a person. employee_id is accepted as an alias
// of identity_key.
type RegisterRequest struct {
	Name        string `json:"name" validate:"required"`
	IdentityKey string `json:"identity_key" validate:"required_without=EmployeeID"`
	EmployeeID  string `json:"employee_id"`
	FaceImage   string `json:"face_image" validate:"required"`
}

func (r *RegisterRequest) key() string {
	if r.IdentityKey != "" {
		return r.IdentityKey
	}
	return r.EmployeeID
}

type RegisterResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IdentityKey string `json:"identity_key"`
}

type FaceAttendanceRequest struct {
	FaceImage string           `json:"face_image" validate:"required"`
	Location  *LocationRequest `json:"location,omitempty"`
}

type FaceAttendanceResponse struct {
	AttendanceID string    `json:"attendance_id"`
	EmployeeName string    `json:"employee_name"`
	EmployeeID   string    `json:"employee_id"`
	Confidence   float64   `json:"confidence"`
	Score        float64   `json:"score"`
	Timestamp    time.Time `json:"timestamp"`
}

// QRTimestamp accepts a JSON string or a JSON number. Numbers are unix
// seconds, possibly fractional, or unix milliseconds (13 digits, as
// JavaScript's Date.now() emits).
type QRTimestamp string

func (t *QRTimestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = QRTimestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*t = QRTimestamp(n.String())
	return nil
}

type QRData struct {
	EmployeeID string      `json:"employee_id"`
	Timestamp  QRTimestamp `json:"timestamp"`
}

type QRAttendanceRequest struct {
	QRData   *QRData          `json:"qr_data" validate:"required"`
	Location *LocationRequest `json:"location,omitempty"`
}

type QRAttendanceResponse struct {
	AttendanceID string    `json:"attendance_id"`
	EmployeeName string    `json:"employee_name"`
	EmployeeID   string    `json:"employee_id"`
	Timestamp    time.Time `json:"timestamp"`
}

type LivenessRequest struct {
	FaceImage string `json:"face_image" validate:"required"`
}

type LivenessResponse struct {
	IsLive    bool    `json:"is_live"`
	Reason    string  `json:"reason,omitempty"`
	Sharpness float64 `json:"sharpness"`
	Faces     int     `json:"faces"`
}

// IdentityResponse is an enrolled identity without its feature vector.
type IdentityResponse struct {
	ID          string    `json:"id"`
	IdentityKey string    `json:"identity_key"`
	Name        string    `json:"name"`
	Strategy    string    `json:"strategy"`
	Dim         int       `json:"dim"`
	CreatedAt   time.Time `json:"created_at"`
}

func identityToResponse(id *database.Identity) IdentityResponse {
	return IdentityResponse{
		ID:          id.ID,
		IdentityKey: id.IdentityKey,
		Name:        id.DisplayName,
		Strategy:    id.Strategy,
		Dim:         id.Dim,
		CreatedAt:   id.CreatedAt,
	}
}

type TrendResponse struct {
	Period string   `json:"period"`
	Dates  []string `json:"dates"`
	Counts []int    `json:"counts"`
}
