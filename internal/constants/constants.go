// Package constants provides shared constants used across the codebase.
package constants

import "time"

// QR check-in constants
const (
	// DefaultQRExpiry is how long a QR payload stays valid after it was issued
	DefaultQRExpiry = 5 * time.Minute

	// QRClockSkew is how far in the future a QR timestamp may be
	QRClockSkew = time.Minute
)

// Analytics constants
const (
	// RateWindowDays is the window the attendance rate is computed over
	RateWindowDays = 30

	// WorkingDaysPerWindow is the number of expected working days in RateWindowDays
	WorkingDaysPerWindow = 22

	// DefaultTrendPeriod is used when no period is requested
	DefaultTrendPeriod = "week"
)

// TrendPeriodDays maps a trend period name to its length in days.
var TrendPeriodDays = map[string]int{
	"week":    7,
	"month":   30,
	"quarter": 90,
}

// Enrollment constants
const (
	// EnrollWorkers is the number of parallel workers used by enroll-dir
	EnrollWorkers = 4
)
