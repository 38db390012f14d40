//go:build !dlib

package dlib

import (
	"context"
	"errors"

	"github.com/kozaktomas/face-attendance/internal/biometric"
)

// Available reports whether the binary was built with dlib support.
const Available = false

var errNotBuilt = errors.New("dlib detector not available: rebuild with -tags dlib")

// Recognizer is a placeholder in builds without dlib.
type Recognizer struct{}

// New always fails without the dlib build tag.
func New(string) (*Recognizer, error) {
	return nil, errNotBuilt
}

func (r *Recognizer) Detect(context.Context, *biometric.Frame) ([]biometric.Detection, error) {
	return nil, errNotBuilt
}

func (r *Recognizer) Close() {}
