package biometric

import (
	"fmt"
	"math"
)

// Metric names.
const (
	MetricCosine          = "cosine"
	MetricEuclidean       = "euclidean"
	MetricEuclideanScaled = "euclidean-scaled"
)

// Metric scores two feature vectors. Polarity is explicit: Better tells
// whether one score beats another, so callers never compare raw values.
type Metric interface {
	Name() string
	// Score fails with *DimensionMismatchError when lengths differ.
	Score(a, b []float32) (float64, error)
	// Better reports whether a is strictly better than b.
	Better(a, b float64) bool
	// Accepts reports whether score clears threshold for vectors of length dim.
	Accepts(score, threshold float64, dim int) bool
	// Confidence maps score into [0, 1]; accepted scores land in [0.5, 1].
	Confidence(score, threshold float64, dim int) float64
}

// MetricByName returns the metric registered under name.
func MetricByName(name string) (Metric, error) {
	switch name {
	case MetricCosine:
		return Cosine{}, nil
	case MetricEuclidean:
		return Euclidean{}, nil
	case MetricEuclideanScaled:
		return Euclidean{PerDimension: true}, nil
	}
	return nil, fmt.Errorf("unknown similarity metric %q", name)
}

func checkDims(a, b []float32) error {
	if len(a) != len(b) {
		return &DimensionMismatchError{Want: len(a), Got: len(b)}
	}
	return nil
}

// Cosine similarity in [-1, 1]; higher is better. A zero vector scores 0
// against anything.
type Cosine struct{}

func (Cosine) Name() string { return MetricCosine }

func (Cosine) Score(a, b []float32) (float64, error) {
	if err := checkDims(a, b); err != nil {
		return 0, err
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// clamp floating point drift
	return math.Max(-1, math.Min(1, sim)), nil
}

func (Cosine) Better(a, b float64) bool { return a > b }

func (Cosine) Accepts(score, threshold float64, _ int) bool { return score >= threshold }

func (Cosine) Confidence(score, threshold float64, _ int) float64 {
	if score >= threshold {
		if threshold >= 1 {
			return 1
		}
		return clamp01(0.5 + 0.5*(score-threshold)/(1-threshold))
	}
	return clamp01(0.5 * (score + 1) / (threshold + 1))
}

// Euclidean distance; lower is better. With PerDimension set the threshold
// is a factor of the vector length (accept when distance < threshold*dim),
// otherwise it is an absolute distance.
type Euclidean struct {
	PerDimension bool
}

func (e Euclidean) Name() string {
	if e.PerDimension {
		return MetricEuclideanScaled
	}
	return MetricEuclidean
}

func (Euclidean) Score(a, b []float32) (float64, error) {
	if err := checkDims(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

func (Euclidean) Better(a, b float64) bool { return a < b }

func (e Euclidean) limit(threshold float64, dim int) float64 {
	if e.PerDimension {
		return threshold * float64(dim)
	}
	return threshold
}

func (e Euclidean) Accepts(score, threshold float64, dim int) bool {
	return score < e.limit(threshold, dim)
}

func (e Euclidean) Confidence(score, threshold float64, dim int) float64 {
	limit := e.limit(threshold, dim)
	if limit <= 0 {
		return 0
	}
	if score < limit {
		return clamp01(0.5 + 0.5*(1-score/limit))
	}
	return clamp01(0.5 * limit / score)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
