package attendance

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/biometric"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

// Marker values stored in the red channel of pixel (0,0). The stub
// detector derives its output from the marker.
const (
	personA        uint8 = 10
	personARetaken uint8 = 11 // personA under different lighting
	personB        uint8 = 20
	personC        uint8 = 30
	personD        uint8 = 40
	twoFaces       uint8 = 2
	grayFrame      uint8 = 128
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// embeddings holds a unit-length descriptor per marker, shaped like
// ArcFace output: every face shares a common component (different people
// score around 0.15 cosine) and a retaken capture of the same person
// scores around 0.9.
var embeddings = func() map[uint8][]float32 {
	const dim = 512
	shared := gaussian(dim, 1)
	person := func(seed uint64) []float64 {
		v := gaussian(dim, seed)
		for i := range v {
			v[i] = 0.4*shared[i] + 0.92*v[i]
		}
		return v
	}
	a := person(uint64(personA))
	retaken := gaussian(dim, 99)
	for i := range retaken {
		retaken[i] = a[i] + 0.45*retaken[i]
	}
	return map[uint8][]float32{
		personA:        unit(a),
		personARetaken: unit(retaken),
		personB:        unit(person(uint64(personB))),
		personC:        unit(person(uint64(personC))),
		personD:        unit(person(uint64(personD))),
	}
}()

// gaussian returns a deterministic unit vector with normally distributed
// components.
func gaussian(dim int, seed uint64) []float64 {
	r := rand.New(rand.NewPCG(seed, 0x5eed))
	v := make([]float64, dim)
	for i := range v {
		v[i] = r.NormFloat64()
	}
	n := norm(v)
	for i := range v {
		v[i] /= n
	}
	return v
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func unit(v []float64) []float32 {
	n := norm(v)
	out := make([]float32, len(v))
	for i := range v {
		out[i] = float32(v[i] / n)
	}
	return out
}

// keypoints places eye, nose and mouth points inside box.
func keypoints(box image.Rectangle) []biometric.Landmark {
	w, h := float64(box.Dx()), float64(box.Dy())
	x0, y0 := float64(box.Min.X), float64(box.Min.Y)
	return []biometric.Landmark{
		{X: x0 + 0.3*w, Y: y0 + 0.35*h},
		{X: x0 + 0.7*w, Y: y0 + 0.35*h},
		{X: x0 + 0.5*w, Y: y0 + 0.55*h},
		{X: x0 + 0.35*w, Y: y0 + 0.75*h},
		{X: x0 + 0.65*w, Y: y0 + 0.75*h},
	}
}

type stubDetector struct {
	calls atomic.Int32
}

func (d *stubDetector) Detect(_ context.Context, frame *biometric.Frame) ([]biometric.Detection, error) {
	d.calls.Add(1)
	box := frame.Bounds()
	marker := frame.Image.Pix[0]
	face := func(r image.Rectangle, m uint8) biometric.Detection {
		return biometric.Detection{Box: r, Landmarks: keypoints(r), Descriptor: embeddings[m], Score: 0.99}
	}
	switch marker {
	case 0:
		return nil, nil
	case twoFaces:
		left := image.Rect(box.Min.X, box.Min.Y, box.Dx()/2, box.Max.Y)
		right := image.Rect(box.Dx()/2, box.Min.Y, box.Max.X, box.Max.Y)
		return []biometric.Detection{face(left, personA), face(right, personB)}, nil
	}
	if _, ok := embeddings[marker]; !ok {
		marker = personA
	}
	return []biometric.Detection{face(box, marker)}, nil
}

func encode(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// faceImage returns a sharp checkerboard carrying marker.
func faceImage(t *testing.T, marker uint8) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := color.RGBA{A: 255}
			if (x/4+y/4)%2 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	img.SetRGBA(0, 0, color.RGBA{R: marker, G: marker, B: marker, A: 255})
	return encode(t, img)
}

// flatImage returns a uniform image: no texture, so it is blurry.
func flatImage(t *testing.T, v uint8) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return encode(t, img)
}

type countingExtractor struct {
	biometric.Extractor
	calls atomic.Int32
}

func (c *countingExtractor) Extract(frame *biometric.Frame, det biometric.Detection) ([]float32, error) {
	c.calls.Add(1)
	return c.Extractor.Extract(frame, det)
}

type fixture struct {
	store     *mock.MockStore
	detector  *stubDetector
	extractor *countingExtractor
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		Face:       config.FaceConfig{Strategy: config.DefaultStrategy},
		Strategies: config.Presets(),
	}
	opts, err := cfg.StrategyOptions()
	if err != nil {
		t.Fatalf("StrategyOptions: %v", err)
	}
	strategy, err := biometric.NewStrategy(opts)
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}
	ext := &countingExtractor{Extractor: strategy.Extractor}
	strategy.Extractor = ext

	det := &stubDetector{}
	store := mock.NewMockStore()
	svc := NewService(store, biometric.NewPipeline(det, strategy, biometric.DefaultBlurThreshold), Options{
		Clock: func() time.Time { return testNow },
	})
	return &fixture{store: store, detector: det, extractor: ext, svc: svc}
}

func (f *fixture) register(t *testing.T, key, name string, marker uint8) *database.Identity {
	t.Helper()
	id, err := f.svc.Register(context.Background(), RegisterInput{Name: name, IdentityKey: key, FaceImage: faceImage(t, marker)})
	if err != nil {
		t.Fatalf("Register(%s): %v", key, err)
	}
	return id
}
