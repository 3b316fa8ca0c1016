/*
Package classification implements the classifier collaborators spec.md §1
scopes out of the HMM engine proper: ScoredClassification, an HMM-likelihood
classifier, an approximate nearest-neighbor classifier over dye tracks, and a
hybrid combination of the two (spec §6, SPEC_FULL.md §3).

Grounded in whatprot's common/scored_classification.cc (ScoredClassification)
and classifiers/kwann_classifier.cc (the NN classifier's weighting scheme).
*/
package classification

import "math"

// Scored is a candidate's classification result: Score is its raw weight,
// Total is the sum of every candidate's weight (the normalizing constant),
// and AdjustedScore is Score/Total. ID is -1 for a degenerate radiometry
// (spec §7).
type Scored struct {
	ID    int
	Score float64
	Total float64
}

// NewScored builds a Scored, collapsing the NaN 0/0 case (spec §7 "NaN
// adjusted score") to (score=0, total=1) rather than propagating NaN.
func NewScored(id int, score, total float64) Scored {
	s := Scored{ID: id, Score: score, Total: total}
	if math.IsNaN(s.AdjustedScore()) {
		s.Score = 0
		s.Total = 1
	}
	return s
}

// Degenerate is the fixed result for an all-zero radiometry (spec §7): not
// an error, just a classification nobody can be confident in.
func Degenerate() Scored {
	return Scored{ID: -1, Score: 0, Total: 1}
}

// AdjustedScore returns Score/Total.
func (s Scored) AdjustedScore() float64 {
	return s.Score / s.Total
}
