package biometric

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification with errors.Is. The concrete error
// types below all match one of these.
var (
	ErrDecode            = errors.New("invalid image data")
	ErrNoFace            = errors.New("no face detected in image")
	ErrMultipleFaces     = errors.New("multiple faces detected, ensure only one person is in frame")
	ErrLivenessRejected  = errors.New("liveness check failed")
	ErrDimensionMismatch = errors.New("feature vector dimension mismatch")
	ErrNoMatch           = errors.New("no matching identity")
)

// DecodeError reports a payload that is not a decodable image.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode image: %s: %v", e.Reason, e.Err)
	}
	return "decode image: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// LivenessError is a rejection from the liveness validator. Reason is the
// human-readable message shown to the person in front of the camera.
type LivenessError struct {
	Reason string
	Faces  int
}

func (e *LivenessError) Error() string { return e.Reason }

func (e *LivenessError) Is(target error) bool {
	switch target {
	case ErrLivenessRejected:
		return true
	case ErrNoFace:
		return e.Faces == 0
	case ErrMultipleFaces:
		return e.Faces > 1
	}
	return false
}

// DimensionMismatchError reports vectors of different lengths.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("feature vector dimension mismatch: want %d, got %d", e.Want, e.Got)
}

func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// NoMatchError is returned when no candidate clears the threshold.
// BestKey and BestScore are empty when there were no candidates.
type NoMatchError struct {
	Candidates int
	BestKey    string
	BestScore  float64
}

func (e *NoMatchError) Error() string {
	if e.Candidates == 0 {
		return "no matching identity: no enrolled identities"
	}
	return fmt.Sprintf("no matching identity: best score %.4f among %d candidates", e.BestScore, e.Candidates)
}

func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatch }
