package classification

import (
	"sort"

	"github.com/erisyon/gofluoroseq/dyeseq"
	"github.com/erisyon/gofluoroseq/radiometry"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
)

// SourceHits is one source candidate's contribution to a deduplicated
// training DyeTrack: Count is how many times the candidate was simulated
// overall, Hits is how many of those simulated draws landed on this exact
// track. Grounded in whatprot's SourcedData<DyeTrack*,
// SourceCountHitsList<int>*> training-set shape in kwann_classifier.cc.
type SourceHits struct {
	ID    int
	Count int
	Hits  int
}

// TrainingExample is one deduplicated simulated DyeTrack together with every
// source candidate whose simulated draws produced it.
type TrainingExample struct {
	Track dyeseq.DyeTrack
	Hits  []SourceHits
}

// NN is an approximate nearest-neighbor classifier over simulated dye
// tracks: brute-force nearest neighbor by Euclidean distance in count-space
// (not KD-tree-exact — SPEC_FULL.md §3 documents this as a deliberate
// simplification of whatprot's FLANN-backed KWANNClassifier, since the spec
// explicitly scopes the KD-tree itself out, spec.md §1), followed by the
// same pdf-weighted, hits/count-normalized scoring kwann_classifier.cc uses.
type NN struct {
	Examples []TrainingExample
	Channels []sequencingmodel.ChannelModel
	K        int
}

// NewNN builds an NN classifier over a deduplicated training set.
func NewNN(examples []TrainingExample, channels []sequencingmodel.ChannelModel, k int) *NN {
	return &NN{Examples: examples, Channels: channels, K: k}
}

// Classify finds the K nearest training tracks to rad by squared Euclidean
// distance, reweights each by its channel-intensity likelihood, and
// accumulates a score per source ID (weight * hits / count, matching
// classify_helper in kwann_classifier.cc), returning the best-scoring ID.
func (n *NN) Classify(rad radiometry.Radiometry) Scored {
	if rad.IsDegenerate() {
		return Degenerate()
	}

	type neighbor struct {
		idx    int
		distSq float64
	}
	neighbors := make([]neighbor, len(n.Examples))
	for i, ex := range n.Examples {
		neighbors[i] = neighbor{idx: i, distSq: squaredDistance(rad, ex.Track)}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].distSq < neighbors[j].distSq })

	k := n.K
	if k > len(neighbors) {
		k = len(neighbors)
	}

	idScore := make(map[int]float64)
	total := 0.0
	for _, nb := range neighbors[:k] {
		ex := n.Examples[nb.idx]
		weight := n.weight(rad, ex.Track)
		for _, h := range ex.Hits {
			contribution := weight * float64(h.Hits)
			total += contribution
			if h.Count > 0 {
				idScore[h.ID] += contribution / float64(h.Count)
			}
		}
	}

	bestID := -1
	bestScore := 0.0
	for id, score := range idScore {
		if bestID == -1 || score > bestScore {
			bestID = id
			bestScore = score
		}
	}
	return NewScored(bestID, bestScore, total)
}

func (n *NN) weight(rad radiometry.Radiometry, track dyeseq.DyeTrack) float64 {
	w := 1.0
	for t := 0; t < rad.NumTimesteps(); t++ {
		for c := 0; c < rad.NumChannels(); c++ {
			w *= n.Channels[c].PDF(rad.Values[t][c], int(track.Counts[t][c]))
		}
	}
	return w
}

func squaredDistance(rad radiometry.Radiometry, track dyeseq.DyeTrack) float64 {
	sum := 0.0
	for t := 0; t < rad.NumTimesteps(); t++ {
		for c := 0; c < rad.NumChannels(); c++ {
			d := rad.Values[t][c] - float64(track.Counts[t][c])
			sum += d * d
		}
	}
	return sum
}
