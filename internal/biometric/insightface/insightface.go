// Package insightface detects faces through an InsightFace embedding server.
package insightface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/biometric"
)

const defaultURL = "http://localhost:8000"

// Client calls the /embed/face endpoint. It is safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// faceDetection is a single face as returned by the server.
type faceDetection struct {
	FaceIndex int         `json:"face_index"`
	Dim       int         `json:"dim"`
	Embedding []float32   `json:"embedding"`
	BBox      []float64   `json:"bbox"` // [x1, y1, x2, y2]
	Kps       [][]float64 `json:"kps"`  // five [x, y] keypoints
	DetScore  float64     `json:"det_score"`

	// Dense meshes from the landmark_3d_68 and landmark_2d_106 models,
	// present when the server has them loaded.
	Landmark3D68  [][]float64 `json:"landmark_3d_68"`
	Landmark2D106 [][]float64 `json:"landmark_2d_106"`
}

type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// Detect implements biometric.Detector.
func (c *Client) Detect(ctx context.Context, frame *biometric.Frame) ([]biometric.Detection, error) {
	data := frame.Raw
	if len(data) == 0 {
		var buf bytes.Buffer
		if err := png.Encode(&buf, frame.Image); err != nil {
			return nil, fmt.Errorf("encode frame: %w", err)
		}
		data = buf.Bytes()
	}

	body, err := c.postMultipartImage(ctx, "/embed/face", data)
	if err != nil {
		return nil, err
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	detections := make([]biometric.Detection, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		detections = append(detections, toDetection(f))
	}
	return detections, nil
}

func toDetection(f faceDetection) biometric.Detection {
	det := biometric.Detection{
		Descriptor: f.Embedding,
		Score:      f.DetScore,
	}
	if len(f.BBox) == 4 {
		det.Box = image.Rect(
			int(math.Floor(f.BBox[0])), int(math.Floor(f.BBox[1])),
			int(math.Ceil(f.BBox[2])), int(math.Ceil(f.BBox[3])),
		)
	}
	// densest mesh wins; the landmark strategy needs at least 68 points
	switch {
	case len(f.Landmark3D68) > 0:
		det.Landmarks = toLandmarks(f.Landmark3D68)
	case len(f.Landmark2D106) > 0:
		det.Landmarks = toLandmarks(f.Landmark2D106)
	default:
		det.Landmarks = toLandmarks(f.Kps)
	}
	return det
}

func toLandmarks(points [][]float64) []biometric.Landmark {
	var out []biometric.Landmark
	for _, p := range points {
		if len(p) < 2 {
			continue
		}
		lm := biometric.Landmark{X: p[0], Y: p[1]}
		if len(p) > 2 {
			lm.Z = p[2]
		}
		out = append(out, lm)
	}
	return out
}

// postMultipartImage sends the image as the "file" form field.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="capture"`)
	h.Set("Content-Type", http.DetectContentType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
