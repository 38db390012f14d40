package biometric

import (
	"context"
	"fmt"
	"image"
	"sync"
)

// Landmark is a facial keypoint in frame pixel coordinates. Z is 0 for
// detectors that only report 2D points.
type Landmark struct {
	X, Y, Z float64
}

// Detection is one face found in a frame.
type Detection struct {
	Box        image.Rectangle
	Landmarks  []Landmark
	Descriptor []float32 // model embedding, empty when the detector has none
	Score      float64
}

// Area returns the pixel area of the bounding box.
func (d Detection) Area() int {
	return d.Box.Dx() * d.Box.Dy()
}

// Detector finds faces in a frame. Implementations must be safe for
// concurrent use.
type Detector interface {
	Detect(ctx context.Context, frame *Frame) ([]Detection, error)
}

// LazyDetector builds the underlying detector on first use and shares it
// afterwards. A failed initialisation is remembered and returned on every
// call; restart the process after fixing the models.
type LazyDetector struct {
	init func() (Detector, error)
	once sync.Once
	det  Detector
	err  error
}

// NewLazyDetector returns a detector that calls init exactly once.
func NewLazyDetector(init func() (Detector, error)) *LazyDetector {
	return &LazyDetector{init: init}
}

// Get returns the shared detector, initialising it if needed.
func (l *LazyDetector) Get() (Detector, error) {
	l.once.Do(func() {
		l.det, l.err = l.init()
		if l.err == nil && l.det == nil {
			l.err = fmt.Errorf("detector initialisation returned nil")
		}
	})
	return l.det, l.err
}

// Detect implements Detector.
func (l *LazyDetector) Detect(ctx context.Context, frame *Frame) ([]Detection, error) {
	det, err := l.Get()
	if err != nil {
		return nil, fmt.Errorf("initialise face detector: %w", err)
	}
	return det.Detect(ctx, frame)
}
