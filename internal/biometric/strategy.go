package biometric

import (
	"fmt"
	"slices"
)

// MinLandmarkCount is the smallest keypoint set the landmark strategy
// accepts. Sparse 5-point layouts collapse to near-identical vectors after
// per-axis standardisation, so only dense meshes (68 or 106 points) are
// allowed.
const MinLandmarkCount = 68

// strategyMetrics lists the metrics each extractor's vectors can be scored
// with.
var strategyMetrics = map[string][]string{
	StrategyLandmark:   {MetricCosine},
	StrategyPatch:      {MetricEuclideanScaled},
	StrategyDescriptor: {MetricCosine, MetricEuclidean},
}

// StrategyOptions selects and parameterises a matching strategy.
type StrategyOptions struct {
	Name          string
	Metric        string
	Threshold     float64
	LandmarkCount int
	PatchSize     int
	DescriptorDim int
}

// Strategy bundles the extractor, metric and threshold used for every
// identity in a deployment. Vectors produced by different strategies are
// not comparable.
type Strategy struct {
	Extractor Extractor
	Metric    Metric
	Threshold float64
}

// NewStrategy builds the strategy named in opts.
func NewStrategy(opts StrategyOptions) (*Strategy, error) {
	var ext Extractor
	switch opts.Name {
	case StrategyLandmark:
		if opts.LandmarkCount < MinLandmarkCount {
			return nil, fmt.Errorf("landmark strategy needs at least %d landmarks, got %d", MinLandmarkCount, opts.LandmarkCount)
		}
		ext = &LandmarkExtractor{Count: opts.LandmarkCount}
	case StrategyPatch:
		ext = &PatchExtractor{Size: opts.PatchSize}
	case StrategyDescriptor:
		if opts.DescriptorDim <= 0 {
			return nil, fmt.Errorf("descriptor strategy needs a positive dimension, got %d", opts.DescriptorDim)
		}
		ext = &DescriptorExtractor{Length: opts.DescriptorDim}
	default:
		return nil, fmt.Errorf("unknown feature strategy %q", opts.Name)
	}

	metric, err := MetricByName(opts.Metric)
	if err != nil {
		return nil, err
	}
	if allowed := strategyMetrics[opts.Name]; !slices.Contains(allowed, metric.Name()) {
		return nil, fmt.Errorf("%s strategy cannot be scored with %s, use one of %v", opts.Name, metric.Name(), allowed)
	}
	if opts.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %v", opts.Threshold)
	}

	return &Strategy{Extractor: ext, Metric: metric, Threshold: opts.Threshold}, nil
}

// Name returns the extractor name stored with each identity.
func (s *Strategy) Name() string { return s.Extractor.Name() }

// Dim returns the vector length every identity must have.
func (s *Strategy) Dim() int { return s.Extractor.Dim() }

// Resolver returns a linear resolver using the strategy's metric.
func (s *Strategy) Resolver() *LinearResolver {
	return &LinearResolver{Metric: s.Metric, Threshold: s.Threshold}
}
