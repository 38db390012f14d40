package biometric

import "slices"

// Candidate is an enrolled feature vector keyed by identity key.
type Candidate struct {
	Key    string
	Vector []float32
}

// Match is a successful resolution.
type Match struct {
	Key        string
	Index      int // position in the candidate slice
	Score      float64
	Confidence float64
}

// Resolver picks at most one candidate for a query vector.
type Resolver interface {
	Resolve(query []float32, candidates []Candidate) (Match, error)
}

// LinearResolver scores every candidate. The best score wins, the first
// candidate wins ties, and the winner must clear Threshold.
type LinearResolver struct {
	Metric    Metric
	Threshold float64
}

func (r *LinearResolver) Resolve(query []float32, candidates []Candidate) (Match, error) {
	best := -1
	var bestScore float64
	for i, c := range candidates {
		s, err := r.Metric.Score(query, c.Vector)
		if err != nil {
			return Match{}, err
		}
		if best < 0 || r.Metric.Better(s, bestScore) {
			best, bestScore = i, s
		}
	}
	return decide(r.Metric, r.Threshold, len(query), candidates, best, bestScore)
}

func decide(m Metric, threshold float64, dim int, candidates []Candidate, best int, score float64) (Match, error) {
	if best < 0 {
		return Match{}, &NoMatchError{Candidates: len(candidates)}
	}
	if !m.Accepts(score, threshold, dim) {
		return Match{}, &NoMatchError{
			Candidates: len(candidates),
			BestKey:    candidates[best].Key,
			BestScore:  score,
		}
	}
	return Match{
		Key:        candidates[best].Key,
		Index:      best,
		Score:      score,
		Confidence: m.Confidence(score, threshold, dim),
	}, nil
}

// CandidateIndex is an approximate nearest neighbour index over candidates.
type CandidateIndex interface {
	// Sync makes the index contain exactly candidates.
	Sync(candidates []Candidate) error
	// Nearest returns up to k candidate keys closest to query.
	Nearest(query []float32, k int) ([]string, error)
}

// IndexedResolver narrows the search with an index, then scores the
// returned candidates exactly with the same rules as LinearResolver.
// The index is approximate, so the true best candidate can be missed.
type IndexedResolver struct {
	Metric    Metric
	Threshold float64
	Index     CandidateIndex
	K         int
}

func (r *IndexedResolver) Resolve(query []float32, candidates []Candidate) (Match, error) {
	for _, c := range candidates {
		if len(c.Vector) != len(query) {
			return Match{}, &DimensionMismatchError{Want: len(query), Got: len(c.Vector)}
		}
	}
	if len(candidates) == 0 {
		return Match{}, &NoMatchError{}
	}
	if err := r.Index.Sync(candidates); err != nil {
		return Match{}, err
	}

	k := r.K
	if k <= 0 {
		k = 10
	}
	keys, err := r.Index.Nearest(query, k)
	if err != nil {
		return Match{}, err
	}

	// score in candidate order so ties resolve like the linear scan
	positions := make([]int, 0, len(keys))
	for i, c := range candidates {
		if slices.Contains(keys, c.Key) {
			positions = append(positions, i)
		}
	}

	best := -1
	var bestScore float64
	for _, i := range positions {
		s, err := r.Metric.Score(query, candidates[i].Vector)
		if err != nil {
			return Match{}, err
		}
		if best < 0 || r.Metric.Better(s, bestScore) {
			best, bestScore = i, s
		}
	}
	return decide(r.Metric, r.Threshold, len(query), candidates, best, bestScore)
}
