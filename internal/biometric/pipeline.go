package biometric

import (
	"context"
	"fmt"
)

// Capture is a decoded frame with the result of the single detection pass.
type Capture struct {
	Frame      *Frame
	Detections []Detection
	Verdict    Verdict
	Vector     []float32 // set by Process
}

// Face returns the single accepted detection.
func (c *Capture) Face() Detection {
	return c.Detections[0]
}

// Pipeline runs decode, detect, liveness and extraction. Detection runs
// once per capture and its output feeds both liveness and extraction.
type Pipeline struct {
	Detector Detector
	Liveness *LivenessValidator
	Strategy *Strategy
}

// NewPipeline wires the liveness validator to the strategy's landmark needs.
func NewPipeline(det Detector, strategy *Strategy, blurThreshold float64) *Pipeline {
	return &Pipeline{
		Detector: det,
		Strategy: strategy,
		Liveness: &LivenessValidator{
			RequiredLandmarks: strategy.Extractor.RequiredLandmarks(),
			BlurThreshold:     blurThreshold,
		},
	}
}

// Analyze decodes and validates the payload without extracting features.
// A liveness rejection is reported in the verdict, not as an error.
func (p *Pipeline) Analyze(ctx context.Context, payload string) (*Capture, error) {
	frame, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	return p.AnalyzeFrame(ctx, frame)
}

// AnalyzeFrame is Analyze for an already decoded frame.
func (p *Pipeline) AnalyzeFrame(ctx context.Context, frame *Frame) (*Capture, error) {
	detections, err := p.Detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	return &Capture{
		Frame:      frame,
		Detections: detections,
		Verdict:    p.Liveness.Check(frame, detections),
	}, nil
}

// Process runs the full pipeline and fails on a liveness rejection.
func (p *Pipeline) Process(ctx context.Context, payload string) (*Capture, error) {
	frame, err := Decode(payload)
	if err != nil {
		return nil, err
	}
	return p.ProcessFrame(ctx, frame)
}

// ProcessFrame is Process for an already decoded frame.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame *Frame) (*Capture, error) {
	capture, err := p.AnalyzeFrame(ctx, frame)
	if err != nil {
		return nil, err
	}
	if !capture.Verdict.Live {
		return capture, capture.Verdict.Err
	}

	vec, err := p.Strategy.Extractor.Extract(frame, capture.Face())
	if err != nil {
		return capture, fmt.Errorf("extract %s features: %w", p.Strategy.Name(), err)
	}
	if len(vec) != p.Strategy.Dim() {
		return capture, &DimensionMismatchError{Want: p.Strategy.Dim(), Got: len(vec)}
	}
	capture.Vector = vec
	return capture, nil
}
