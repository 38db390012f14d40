package insightface

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/biometric"
)

func TestClient_Detect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart body, got %s", r.Header.Get("Content-Type"))
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file field: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 1,
			"model":       "buffalo_l",
			"faces": []map[string]any{{
				"face_index": 0,
				"dim":        3,
				"embedding":  []float32{0.1, 0.2, 0.3},
				"bbox":       []float64{10.4, 20.6, 50.2, 80.9},
				"kps":        [][]float64{{20, 40}, {40, 40}, {30, 55}, {22, 70}, {38, 70}},
				"det_score":  0.97,
			}},
		})
	}))
	defer server.Close()

	frame := biometric.NewFrame(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	dets, err := NewClient(server.URL + "/").Detect(context.Background(), frame)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(dets))
	}

	d := dets[0]
	if d.Box != image.Rect(10, 20, 51, 81) {
		t.Errorf("unexpected box %v", d.Box)
	}
	if len(d.Landmarks) != 5 || d.Landmarks[2].X != 30 || d.Landmarks[2].Y != 55 {
		t.Errorf("unexpected landmarks %v", d.Landmarks)
	}
	if len(d.Descriptor) != 3 {
		t.Errorf("expected 3-d descriptor, got %d", len(d.Descriptor))
	}
	if d.Score != 0.97 {
		t.Errorf("expected score 0.97, got %v", d.Score)
	}
}

func TestToDetection_PrefersDenseLandmarks(t *testing.T) {
	mesh := func(n, dims int) [][]float64 {
		pts := make([][]float64, n)
		for i := range pts {
			pts[i] = make([]float64, dims)
			for d := range dims {
				pts[i][d] = float64(i*10 + d)
			}
		}
		return pts
	}
	kps := mesh(5, 2)

	tests := []struct {
		name      string
		face      faceDetection
		wantCount int
		wantZ     bool
	}{
		{"kps only", faceDetection{Kps: kps}, 5, false},
		{"2d 106", faceDetection{Kps: kps, Landmark2D106: mesh(106, 2)}, 106, false},
		{"3d 68", faceDetection{Kps: kps, Landmark3D68: mesh(68, 3)}, 68, true},
		{"3d 68 over 2d 106", faceDetection{Kps: kps, Landmark3D68: mesh(68, 3), Landmark2D106: mesh(106, 2)}, 68, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := toDetection(tt.face)
			if len(det.Landmarks) != tt.wantCount {
				t.Fatalf("expected %d landmarks, got %d", tt.wantCount, len(det.Landmarks))
			}
			last := det.Landmarks[len(det.Landmarks)-1]
			if gotZ := last.Z != 0; gotZ != tt.wantZ {
				t.Errorf("expected z present=%v, got %+v", tt.wantZ, last)
			}
		})
	}
}

func TestClient_DetectDenseMeshFeedsLandmarkStrategy(t *testing.T) {
	mesh := make([][]float64, 68)
	for i := range mesh {
		mesh[i] = []float64{float64(10 + i%17), float64(20 + i/17*7 + i%3), float64(i%5) / 10}
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 1,
			"faces": []map[string]any{{
				"bbox":           []float64{0, 0, 40, 60},
				"kps":            [][]float64{{20, 40}, {40, 40}, {30, 55}, {22, 70}, {38, 70}},
				"landmark_3d_68": mesh,
				"det_score":      0.95,
			}},
		})
	}))
	defer server.Close()

	dets, err := NewClient(server.URL).Detect(context.Background(), biometric.NewFrame(image.NewRGBA(image.Rect(0, 0, 4, 4))))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	strategy, err := biometric.NewStrategy(biometric.StrategyOptions{
		Name: biometric.StrategyLandmark, Metric: biometric.MetricCosine, Threshold: 0.85, LandmarkCount: biometric.MinLandmarkCount,
	})
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}
	vec, err := strategy.Extractor.Extract(nil, dets[0])
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(vec) != strategy.Dim() {
		t.Errorf("expected %d values, got %d", strategy.Dim(), len(vec))
	}
}

func TestClient_DetectNoFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"faces_count": 0, "faces": [], "model": "buffalo_l"}`))
	}))
	defer server.Close()

	dets, err := NewClient(server.URL).Detect(context.Background(), &biometric.Frame{
		Image: image.NewRGBA(image.Rect(0, 0, 2, 2)),
		Raw:   []byte{0x89, 'P', 'N', 'G'},
	})
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("expected no detections, got %d", len(dets))
	}
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Detect(context.Background(), biometric.NewFrame(image.NewRGBA(image.Rect(0, 0, 2, 2))))
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("expected status in error, got %v", err)
	}
}
