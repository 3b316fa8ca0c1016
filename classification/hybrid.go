package classification

import "github.com/erisyon/gofluoroseq/radiometry"

// Hybrid combines an HMM classifier and an NN classifier over the same
// candidate set, matching ann_main.cc's hybrid dispatch (SPEC_FULL.md §3):
// the two are independent full classifications, and Hybrid reports whichever
// is more confident (higher adjusted score) rather than averaging their
// scores, since the two classifiers' raw scores are not on a comparable
// scale (HMM likelihoods over full sequences vs. NN pdf-weighted local
// densities).
type Hybrid struct {
	HMM *HMM
	NN  *NN
}

// NewHybrid pairs an HMM and NN classifier into a single collaborator.
func NewHybrid(hmmClassifier *HMM, nnClassifier *NN) *Hybrid {
	return &Hybrid{HMM: hmmClassifier, NN: nnClassifier}
}

// Classify runs both classifiers and returns the more confident result.
func (h *Hybrid) Classify(rad radiometry.Radiometry) (Scored, error) {
	if rad.IsDegenerate() {
		return Degenerate(), nil
	}

	hmmScored, err := h.HMM.Classify(rad)
	if err != nil {
		return Scored{}, err
	}
	nnScored := h.NN.Classify(rad)

	if nnScored.AdjustedScore() > hmmScored.AdjustedScore() {
		return nnScored, nil
	}
	return hmmScored, nil
}
