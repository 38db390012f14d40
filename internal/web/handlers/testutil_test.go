package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/biometric"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Face:     config.FaceConfig{Strategy: biometric.StrategyDescriptor, Resolver: "linear", BlurThreshold: 100},
		Detector: config.DetectorConfig{Backend: "insightface"},
		QR:       config.QRConfig{ExpiryMinutes: 5},
	}
}

// descriptors per marker; 10 and 20 are different people (cosine 0.34).
var descriptors = map[uint8][]float32{
	10: {0.9, 0.3, 0.2, 0.25},
	20: {0.1, 0.95, -0.3, 0.1},
}

// markerDetector returns no face for an all-black frame and one face
// otherwise; the red value of pixel (0,0) selects the descriptor.
type markerDetector struct{}

func (markerDetector) Detect(_ context.Context, frame *biometric.Frame) ([]biometric.Detection, error) {
	marker := frame.Image.Pix[0]
	if marker == 0 {
		return nil, nil
	}
	desc, ok := descriptors[marker]
	if !ok {
		desc = descriptors[10]
	}
	return []biometric.Detection{{Box: frame.Bounds(), Descriptor: desc, Score: 0.99}}, nil
}

// faceImage returns a sharp checkerboard data URI carrying marker.
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
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// newTestService wires a service to a mock store and the marker detector
func newTestService(t *testing.T) (*attendance.Service, *mock.MockStore, *biometric.Strategy) {
	t.Helper()
	strategy, err := biometric.NewStrategy(biometric.StrategyOptions{
		Name:          biometric.StrategyDescriptor,
		Metric:        biometric.MetricCosine,
		Threshold:     0.5,
		DescriptorDim: 4,
	})
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}
	store := mock.NewMockStore()
	svc := attendance.NewService(store, biometric.NewPipeline(markerDetector{}, strategy, 100), attendance.Options{
		Clock: func() time.Time { return testNow },
	})
	return svc, store, strategy
}

// jsonRequest creates a request with a JSON body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var raw string
	switch b := body.(type) {
	case string:
		raw = b
	default:
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		raw = string(data)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
