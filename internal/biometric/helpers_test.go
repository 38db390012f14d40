package biometric

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync/atomic"
	"testing"
)

// checkerboard returns a high-contrast image with square cells.
func checkerboard(w, h, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func dataURI(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// fiveLandmarks returns plausible eye/nose/mouth keypoints inside box.
func fiveLandmarks(box image.Rectangle) []Landmark {
	w, h := float64(box.Dx()), float64(box.Dy())
	x0, y0 := float64(box.Min.X), float64(box.Min.Y)
	return []Landmark{
		{X: x0 + 0.3*w, Y: y0 + 0.35*h},
		{X: x0 + 0.7*w, Y: y0 + 0.35*h},
		{X: x0 + 0.5*w, Y: y0 + 0.55*h},
		{X: x0 + 0.35*w, Y: y0 + 0.75*h},
		{X: x0 + 0.65*w, Y: y0 + 0.75*h},
	}
}

// denseLandmarks returns n keypoints inside box: the five eye/nose/mouth
// points followed by a jaw contour, like the 68-point mesh models emit.
func denseLandmarks(box image.Rectangle, n int) []Landmark {
	pts := fiveLandmarks(box)
	w, h := float64(box.Dx()), float64(box.Dy())
	cx, cy := float64(box.Min.X)+0.5*w, float64(box.Min.Y)+0.5*h
	for i := len(pts); i < n; i++ {
		a := math.Pi * float64(i) / float64(n)
		r := 0.45 - 0.05*float64(i%3)
		pts = append(pts, Landmark{X: cx - r*w*math.Cos(a), Y: cy + r*h*math.Sin(a), Z: 0.1 * float64(i%7)})
	}
	return pts[:n]
}

// fakeDetector returns a fixed set of detections.
type fakeDetector struct {
	detections []Detection
	err        error
	calls      atomic.Int32
}

func (f *fakeDetector) Detect(_ context.Context, _ *Frame) ([]Detection, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Detection, len(f.detections))
	copy(out, f.detections)
	return out, nil
}

// contentDetector reports one face covering the frame unless every pixel
// is black.
type contentDetector struct{}

func (contentDetector) Detect(_ context.Context, frame *Frame) ([]Detection, error) {
	img := frame.Image
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
			box := img.Bounds()
			return []Detection{{Box: box, Landmarks: denseLandmarks(box, MinLandmarkCount), Score: 0.99}}, nil
		}
	}
	return nil, nil
}

// spyExtractor counts Extract calls.
type spyExtractor struct {
	Extractor
	calls int
}

func (s *spyExtractor) Extract(frame *Frame, det Detection) ([]float32, error) {
	s.calls++
	return s.Extractor.Extract(frame, det)
}

func mustStrategy(t *testing.T, opts StrategyOptions) *Strategy {
	t.Helper()
	s, err := NewStrategy(opts)
	if err != nil {
		t.Fatalf("NewStrategy(%+v): %v", opts, err)
	}
	return s
}
