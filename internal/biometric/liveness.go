package biometric

// Rejection messages returned to the client.
const (
	ReasonNoFace          = "no face detected"
	ReasonMultipleFaces   = "multiple faces detected, ensure only one person is in frame"
	ReasonMissingFeatures = "could not detect all facial features"
	ReasonBlurry          = "image too blurry, ensure good lighting"
)

// DefaultBlurThreshold is the minimum variance of the Laplacian.
const DefaultBlurThreshold = 100.0

// Verdict is the outcome of a liveness check.
type Verdict struct {
	Live      bool
	Reason    string
	Faces     int
	Sharpness float64
	Err       error // nil when Live
}

// LivenessValidator gates captures before feature extraction.
//
// This is a heuristic, not anti-spoofing: a sharp printed photo or a
// replayed video of an enrolled person passes every check.
type LivenessValidator struct {
	// RequiredLandmarks is the number of keypoints the active extractor
	// needs. Zero skips the completeness check.
	RequiredLandmarks int
	BlurThreshold     float64
}

// Check runs presence, landmark completeness and sharpness in that order.
// The first failing check decides the verdict.
func (v *LivenessValidator) Check(frame *Frame, detections []Detection) Verdict {
	verdict := Verdict{Faces: len(detections)}

	switch {
	case len(detections) == 0:
		return reject(verdict, ReasonNoFace)
	case len(detections) > 1:
		return reject(verdict, ReasonMultipleFaces)
	}

	det := detections[0]
	if v.RequiredLandmarks > 0 && len(det.Landmarks) < v.RequiredLandmarks {
		return reject(verdict, ReasonMissingFeatures)
	}

	region := det.Box.Intersect(frame.Bounds())
	if region.Empty() {
		region = frame.Bounds()
	}
	verdict.Sharpness = LaplacianVariance(frame.Image, region)

	threshold := v.BlurThreshold
	if threshold <= 0 {
		threshold = DefaultBlurThreshold
	}
	if verdict.Sharpness < threshold {
		return reject(verdict, ReasonBlurry)
	}

	verdict.Live = true
	return verdict
}

func reject(v Verdict, reason string) Verdict {
	v.Live = false
	v.Reason = reason
	v.Err = &LivenessError{Reason: reason, Faces: v.Faces}
	return v
}
