package attendance

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// ErrInvalidQR is returned for malformed, expired or future-dated QR payloads.
var ErrInvalidQR = errors.New("invalid QR code")

// QRPayload is the content of a check-in QR code.
type QRPayload struct {
	EmployeeID string `json:"employee_id"`
	Timestamp  string `json:"timestamp"` // RFC3339, unix seconds or unix milliseconds
}

// QRVerifier checks QR payload freshness.
type QRVerifier struct {
	Expiry time.Duration
	Skew   time.Duration
}

func NewQRVerifier(expiry time.Duration) *QRVerifier {
	if expiry <= 0 {
		expiry = constants.DefaultQRExpiry
	}
	return &QRVerifier{Expiry: expiry, Skew: constants.QRClockSkew}
}

func invalidQR(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidQR, reason)
}

// Verify returns the identity key carried by p if it was issued within
// Expiry of now.
func (v *QRVerifier) Verify(p QRPayload, now time.Time) (string, error) {
	key := strings.TrimSpace(p.EmployeeID)
	if key == "" {
		return "", invalidQR("missing employee_id")
	}
	if err := ValidateIdentityKey(key); err != nil {
		return "", invalidQR(err.Error())
	}

	issued, err := parseQRTimestamp(p.Timestamp)
	if err != nil {
		return "", invalidQR(err.Error())
	}

	age := now.Sub(issued)
	if age > v.Expiry {
		return "", invalidQR("code expired")
	}
	if age < -v.Skew {
		return "", invalidQR("timestamp is in the future")
	}
	return key, nil
}

// epochMillisCutoff separates unix seconds from unix milliseconds. As
// seconds it is the year 33658; as milliseconds it is 2001-09-09.
const epochMillisCutoff = 1_000_000_000_000

// parseQRTimestamp accepts RFC3339, unix seconds (optionally fractional)
// and unix milliseconds as produced by JavaScript's Date.now().
func parseQRTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n >= epochMillisCutoff || n <= -epochMillisCutoff {
			return time.UnixMilli(n), nil
		}
		return time.Unix(n, 0), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		if math.Abs(f) >= epochMillisCutoff {
			return time.UnixMilli(int64(f)), nil
		}
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
	}
	return t, nil
}
