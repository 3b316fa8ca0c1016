package classification

import (
	"fmt"

	"github.com/erisyon/gofluoroseq/dyeseq"
	"github.com/erisyon/gofluoroseq/hmm"
	"github.com/erisyon/gofluoroseq/radiometry"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
)

// Candidate is one labeled peptide a radiometry is classified against: ID
// identifies it in the output (spec §6 "id,score,total,adjusted_score"), Seq
// is the dye-seq the HMM engine builds a step list from.
type Candidate struct {
	ID  int
	Seq dyeseq.DyeSeq
}

// HMM classifies a radiometry by running the forward pass of every candidate
// dye-seq and picking the one with the highest likelihood, matching
// whatprot's FwdAlgClassifier (restored as hmm-main.cc's classify path).
type HMM struct {
	Candidates []Candidate
	Model      sequencingmodel.Model
}

// NewHMM builds an HMM classifier over candidates, scored against model.
func NewHMM(candidates []Candidate, model sequencingmodel.Model) *HMM {
	return &HMM{Candidates: candidates, Model: model}
}

// Classify returns the candidate with the highest forward-pass likelihood
// against rad, with Total the sum of every candidate's likelihood.
func (h *HMM) Classify(rad radiometry.Radiometry) (Scored, error) {
	if rad.IsDegenerate() {
		return Degenerate(), nil
	}

	total := 0.0
	bestID := -1
	bestScore := 0.0
	for _, cand := range h.Candidates {
		run, err := hmm.Build(cand.Seq, rad, h.Model)
		if err != nil {
			return Scored{}, fmt.Errorf("classification: candidate %d: %w", cand.ID, err)
		}
		_, z := run.Forward()
		total += z
		if bestID == -1 || z > bestScore {
			bestID = cand.ID
			bestScore = z
		}
	}
	return NewScored(bestID, bestScore, total), nil
}
