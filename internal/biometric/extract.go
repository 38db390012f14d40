package biometric

import (
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Extractor names.
const (
	StrategyLandmark   = "landmark"
	StrategyPatch      = "patch"
	StrategyDescriptor = "descriptor"
)

// Extractor turns a single detected face into a fixed-length vector.
// Extract is deterministic for a given frame and detection.
type Extractor interface {
	Name() string
	Dim() int
	// RequiredLandmarks is the keypoint count Extract needs, 0 if none.
	RequiredLandmarks() int
	Extract(frame *Frame, det Detection) ([]float32, error)
}

// LandmarkExtractor flattens (x, y, z) keypoints and standardises each axis
// against the face's own landmarks, which removes translation and scale.
type LandmarkExtractor struct {
	Count int
}

func (e *LandmarkExtractor) Name() string { return StrategyLandmark }
func (e *LandmarkExtractor) Dim() int { return 3 * e.Count }
func (e *LandmarkExtractor) RequiredLandmarks() int { return e.Count }

func (e *LandmarkExtractor) Extract(_ *Frame, det Detection) ([]float32, error) {
	if e.Count <= 0 {
		return nil, errors.New("landmark count must be positive")
	}
	if len(det.Landmarks) < e.Count {
		return nil, &LivenessError{Reason: ReasonMissingFeatures, Faces: 1}
	}
	pts := det.Landmarks[:e.Count]

	axes := [3][]float64{}
	for _, p := range pts {
		axes[0] = append(axes[0], p.X)
		axes[1] = append(axes[1], p.Y)
		axes[2] = append(axes[2], p.Z)
	}
	for i := range axes {
		zScore(axes[i])
	}

	out := make([]float32, 0, e.Dim())
	for j := range pts {
		out = append(out, float32(axes[0][j]), float32(axes[1][j]), float32(axes[2][j]))
	}
	return out, nil
}

// zScore standardises vals in place. A constant axis becomes all zeros.
func zScore(vals []float64) {
	n := float64(len(vals))
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= n

	var variance float64
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / n)

	for i, v := range vals {
		if std == 0 {
			vals[i] = 0
			continue
		}
		vals[i] = (v - mean) / std
	}
}

// DefaultPatchSize is the side length of the grayscale patch.
const DefaultPatchSize = 100

// PatchExtractor crops the face box, converts it to grayscale and resizes
// it to Size x Size raw intensities.
type PatchExtractor struct {
	Size int
}

func (e *PatchExtractor) Name() string { return StrategyPatch }
func (e *PatchExtractor) Dim() int { return e.size() * e.size() }
func (e *PatchExtractor) RequiredLandmarks() int { return 0 }

func (e *PatchExtractor) size() int {
	if e.Size <= 0 {
		return DefaultPatchSize
	}
	return e.Size
}

func (e *PatchExtractor) Extract(frame *Frame, det Detection) ([]float32, error) {
	box := det.Box.Intersect(frame.Bounds())
	if box.Empty() {
		return nil, &LivenessError{Reason: ReasonNoFace}
	}

	src := grayImage(frame.Image, box)
	n := e.size()
	dst := image.NewGray(image.Rect(0, 0, n, n))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]float32, n*n)
	for y := 0; y < n; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+n]
		for x, v := range row {
			out[y*n+x] = float32(v)
		}
	}
	return out, nil
}

// DescriptorExtractor uses the embedding computed by the detector model.
type DescriptorExtractor struct {
	Length int
}

func (e *DescriptorExtractor) Name() string { return StrategyDescriptor }
func (e *DescriptorExtractor) Dim() int { return e.Length }
func (e *DescriptorExtractor) RequiredLandmarks() int { return 0 }

func (e *DescriptorExtractor) Extract(_ *Frame, det Detection) ([]float32, error) {
	if len(det.Descriptor) == 0 {
		return nil, errors.New("detector did not produce a face descriptor")
	}
	if len(det.Descriptor) != e.Length {
		return nil, &DimensionMismatchError{Want: e.Length, Got: len(det.Descriptor)}
	}
	out := make([]float32, len(det.Descriptor))
	copy(out, det.Descriptor)
	return out, nil
}
