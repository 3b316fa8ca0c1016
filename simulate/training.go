package simulate

import (
	"math/rand"

	"github.com/erisyon/gofluoroseq/classification"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
)

// BuildTrainingSet simulates drawsPerCandidate dye tracks from each
// candidate dye-seq under model, deduplicating identical tracks by
// DyeTrack.Key() (spec §9 "custom hash of vector-valued keys") into the
// classification package's NN training-set shape: each deduplicated track
// carries, per candidate that produced it, how many of that candidate's
// draws landed there out of its total draw count.
func BuildTrainingSet(candidates []classification.Candidate, model sequencingmodel.Model, numTimesteps, drawsPerCandidate int, rng *rand.Rand) []classification.TrainingExample {
	byKey := make(map[string]*classification.TrainingExample)
	order := make([]string, 0, len(candidates))

	for _, cand := range candidates {
		for i := 0; i < drawsPerCandidate; i++ {
			track := GenerateDyeTrack(cand.Seq, model, numTimesteps, rng)
			key := track.Key()

			ex, ok := byKey[key]
			if !ok {
				ex = &classification.TrainingExample{Track: track}
				byKey[key] = ex
				order = append(order, key)
			}

			found := false
			for i := range ex.Hits {
				if ex.Hits[i].ID == cand.ID {
					ex.Hits[i].Hits++
					found = true
					break
				}
			}
			if !found {
				ex.Hits = append(ex.Hits, classification.SourceHits{ID: cand.ID, Count: drawsPerCandidate, Hits: 1})
			}
		}
	}

	examples := make([]classification.TrainingExample, len(order))
	for i, key := range order {
		examples[i] = *byKey[key]
	}
	return examples
}
