//go:build dlib

// Package dlib detects faces with dlib through go-face. Build with
// -tags dlib; the models directory must contain
// shape_predictor_5_face_landmarks.dat and
// dlib_face_recognition_resnet_model_v1.dat.
package dlib

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/kozaktomas/face-attendance/internal/biometric"
)

// Available reports whether the binary was built with dlib support.
const Available = true

// Recognizer wraps a go-face recognizer. Calls are serialised because the
// underlying dlib objects are not documented as thread-safe.
type Recognizer struct {
	mu  sync.Mutex
	rec *face.Recognizer
}

// New loads the dlib models from modelsDir.
func New(modelsDir string) (*Recognizer, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("load dlib models from %s: %w", modelsDir, err)
	}
	return &Recognizer{rec: rec}, nil
}

// Detect implements biometric.Detector.
func (r *Recognizer) Detect(ctx context.Context, frame *biometric.Frame) ([]biometric.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// go-face only reads JPEG
	data := frame.Raw
	if frame.Format != "jpeg" || len(data) == 0 {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: 95}); err != nil {
			return nil, fmt.Errorf("encode frame as jpeg: %w", err)
		}
		data = buf.Bytes()
	}

	r.mu.Lock()
	faces, err := r.rec.Recognize(data)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dlib recognize: %w", err)
	}

	detections := make([]biometric.Detection, 0, len(faces))
	for _, f := range faces {
		det := biometric.Detection{
			Box:        f.Rectangle,
			Descriptor: append([]float32(nil), f.Descriptor[:]...),
			Score:      1,
		}
		for _, p := range f.Shapes {
			det.Landmarks = append(det.Landmarks, biometric.Landmark{X: float64(p.X), Y: float64(p.Y)})
		}
		detections = append(detections, det)
	}
	return detections, nil
}

// Close frees the dlib models.
func (r *Recognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.Close()
}
