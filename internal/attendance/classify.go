package attendance

import (
	"errors"

	"github.com/kozaktomas/face-attendance/internal/biometric"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/logger"
)

// ErrUnknownIdentity is returned when a key is not enrolled.
var ErrUnknownIdentity = errors.New("unknown identity")

// Class groups errors by how a caller should react to them.
type Class int

const (
	ClassNone        Class = iota // nil error
	ClassClientError              // bad input or rejected capture
	ClassNotFound                 // no match or unknown identity
	ClassConflict                 // identity key already enrolled
	ClassUnavailable              // store unreachable
	ClassInternal                 // everything else
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassClientError:
		return "client_error"
	case ClassNotFound:
		return "not_found"
	case ClassConflict:
		return "conflict"
	case ClassUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Classify maps an error from the service to its class.
func Classify(err error) Class {
	var validation *ValidationError
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, biometric.ErrDimensionMismatch):
		// stored vectors disagree with the active strategy
		return ClassInternal
	case errors.Is(err, database.ErrStoreUnavailable):
		return ClassUnavailable
	case errors.Is(err, database.ErrDuplicateKey):
		return ClassConflict
	case errors.Is(err, biometric.ErrNoMatch), errors.Is(err, ErrUnknownIdentity):
		return ClassNotFound
	case errors.Is(err, biometric.ErrDecode),
		errors.Is(err, biometric.ErrNoFace),
		errors.Is(err, biometric.ErrMultipleFaces),
		errors.Is(err, biometric.ErrLivenessRejected),
		errors.Is(err, ErrInvalidQR),
		errors.As(err, &validation):
		return ClassClientError
	default:
		return ClassInternal
	}
}

// Expected reports whether the class is a normal outcome rather than a fault.
func (c Class) Expected() bool {
	return c == ClassClientError || c == ClassNotFound || c == ClassConflict
}

// LogOutcome logs err at info when it is an expected outcome and at
// error otherwise.
func LogOutcome(op string, err error) Class {
	class := Classify(err)
	if class == ClassNone {
		return class
	}
	opts := []logger.LoggerOptions{
		{Key: "op", Data: op},
		{Key: "class", Data: class.String()},
		{Key: "error", Data: err},
	}
	if class.Expected() {
		logger.Info("request rejected", opts...)
	} else {
		logger.Error("request failed", opts...)
	}
	return class
}
