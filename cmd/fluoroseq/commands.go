package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/erisyon/gofluoroseq/classification"
	"github.com/erisyon/gofluoroseq/dyeseq"
	"github.com/erisyon/gofluoroseq/fit"
	"github.com/erisyon/gofluoroseq/internal/logging"
	"github.com/erisyon/gofluoroseq/internal/progress"
	"github.com/erisyon/gofluoroseq/radiometry"
	"github.com/erisyon/gofluoroseq/sequencingmodel"
	"github.com/erisyon/gofluoroseq/simulate"
)

var log = logging.New("fluoroseq")

// classifyCommand implements "fluoroseq classify {hmm|nn|hybrid} dye-seqs
// radiometries predictions" (spec §6).
func classifyCommand(c *cli.Context) error {
	if c.Args().Len() != 4 {
		return fmt.Errorf("classify: expected 4 arguments, got %d", c.Args().Len())
	}
	kind := c.Args().Get(0)
	dyeSeqsPath := c.Args().Get(1)
	radiometriesPath := c.Args().Get(2)
	predictionsPath := c.Args().Get(3)

	modelPath := c.String("model")
	if modelPath == "" {
		return fmt.Errorf("classify: -model is required")
	}

	pr := progress.New(os.Stdout)

	model, err := loadModel(modelPath)
	if err != nil {
		return err
	}

	doneDyeSeqs := pr.StartStep("read dye seqs")
	records, numChannels, err := readDyeSeqs(dyeSeqsPath)
	if err != nil {
		return err
	}
	if numChannels != model.NumChannels() {
		return fmt.Errorf("classify: dye-seqs channel count %d disagrees with model channel count %d", numChannels, model.NumChannels())
	}
	doneDyeSeqs()

	candidates := make([]classification.Candidate, len(records))
	for i, rec := range records {
		candidates[i] = classification.Candidate{ID: i, Seq: rec.Seq}
	}
	log.Printf("classifying with %s against %d candidates", kind, len(candidates))

	doneRadiometries := pr.StartStep("read radiometries")
	radiometries, err := readRadiometries(radiometriesPath, c.Bool("binary"))
	if err != nil {
		return err
	}
	doneRadiometries()

	classifier, err := buildClassifier(kind, candidates, model, c, pr)
	if err != nil {
		return err
	}

	out, err := os.Create(predictionsPath)
	if err != nil {
		return fmt.Errorf("classify: creating %s: %w", predictionsPath, err)
	}
	defer out.Close()

	doneClassify := pr.StartStep("classify radiometries")
	for i, rad := range radiometries {
		scored, err := classifier.Classify(rad)
		if err != nil {
			return fmt.Errorf("classify: radiometry %d: %w", i, err)
		}
		if _, err := fmt.Fprintf(out, "%d,%v,%v,%v\n", scored.ID, scored.Score, scored.Total, scored.AdjustedScore()); err != nil {
			return fmt.Errorf("classify: writing predictions: %w", err)
		}
	}
	doneClassify()
	pr.Total()
	return nil
}

// classifier is the common surface buildClassifier returns, shared by the
// hmm, nn, and hybrid classification.* types.
type classifier interface {
	Classify(rad radiometry.Radiometry) (classification.Scored, error)
}

// nnAdapter adapts classification.NN's error-free Classify to the shared
// classifier interface; HMM and Hybrid already return (Scored, error).
type nnAdapter struct{ nn *classification.NN }

func (a nnAdapter) Classify(rad radiometry.Radiometry) (classification.Scored, error) {
	return a.nn.Classify(rad), nil
}

func buildClassifier(kind string, candidates []classification.Candidate, model sequencingmodel.Model, c *cli.Context, pr *progress.Printer) (classifier, error) {
	switch kind {
	case "hmm":
		return classification.NewHMM(candidates, model), nil
	case "nn":
		nn, err := buildNN(candidates, model, c, pr)
		if err != nil {
			return nil, err
		}
		return nnAdapter{nn}, nil
	case "hybrid":
		nn, err := buildNN(candidates, model, c, pr)
		if err != nil {
			return nil, err
		}
		return classification.NewHybrid(classification.NewHMM(candidates, model), nn), nil
	default:
		return nil, fmt.Errorf("classify: unknown classifier kind %q, expected hmm, nn, or hybrid", kind)
	}
}

func buildNN(candidates []classification.Candidate, model sequencingmodel.Model, c *cli.Context, pr *progress.Printer) (*classification.NN, error) {
	doneTraining := pr.StartStep("simulate nn training set")
	numTimesteps := c.Int("timesteps")
	if numTimesteps <= 0 {
		numTimesteps = defaultNumTimesteps
	}
	rng := rand.New(rand.NewSource(c.Int64("seed")))
	examples := simulate.BuildTrainingSet(candidates, model, numTimesteps, c.Int("draws-per-candidate"), rng)
	doneTraining()
	return classification.NewNN(examples, model.Channels, c.Int("k")), nil
}

// defaultNumTimesteps is the simulated-track length used to build the nn and
// hybrid training sets when -timesteps is zero or negative (the flag itself
// defaults to the same value); SPEC_FULL.md does not name a canonical run
// length.
const defaultNumTimesteps = 10

// fitCommand implements "fluoroseq fit dye-seqs radiometries model-out"
// (spec §6).
func fitCommand(c *cli.Context) error {
	if c.Args().Len() != 3 {
		return fmt.Errorf("fit: expected 3 arguments, got %d", c.Args().Len())
	}
	dyeSeqsPath := c.Args().Get(0)
	radiometriesPath := c.Args().Get(1)
	modelOutPath := c.Args().Get(2)

	modelPath := c.String("model")
	if modelPath == "" {
		return fmt.Errorf("fit: -model is required")
	}

	pr := progress.New(os.Stdout)

	model, err := loadModel(modelPath)
	if err != nil {
		return err
	}

	doneDyeSeqs := pr.StartStep("read dye seqs")
	records, numChannels, err := readDyeSeqs(dyeSeqsPath)
	if err != nil {
		return err
	}
	if numChannels != model.NumChannels() {
		return fmt.Errorf("fit: dye-seqs channel count %d disagrees with model channel count %d", numChannels, model.NumChannels())
	}
	doneDyeSeqs()

	doneRadiometries := pr.StartStep("read radiometries")
	radiometries, err := readRadiometries(radiometriesPath, c.Bool("binary"))
	if err != nil {
		return err
	}
	doneRadiometries()

	if len(records) != len(radiometries) {
		return fmt.Errorf("fit: %d dye-seqs but %d radiometries, expected one radiometry per dye-seq", len(records), len(radiometries))
	}
	log.Printf("fitting over %d examples", len(records))

	examples := make([]fit.Example, len(records))
	for i, rec := range records {
		examples[i] = fit.Example{Seq: rec.Seq, Rad: radiometries[i]}
	}

	opts := fit.Options{
		MaxEpochs: c.Int("max-epochs"),
		Tolerance: c.Float64("tolerance"),
		Workers:   c.Int("workers"),
		OnEpoch: func(p fit.Progress) {
			pr.Epoch(p.Epoch, p.Distance)
		},
	}

	doneFit := pr.StartStep("fit sequencing model")
	fitted, err := fit.Run(examples, model, opts)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	doneFit()

	if err := saveModel(modelOutPath, fitted); err != nil {
		return err
	}
	pr.Total()
	return nil
}

func loadModel(path string) (sequencingmodel.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return sequencingmodel.Model{}, fmt.Errorf("loading model: %w", err)
	}
	defer f.Close()
	model, err := sequencingmodel.Load(f)
	if err != nil {
		return sequencingmodel.Model{}, fmt.Errorf("loading model: %w", err)
	}
	return model, nil
}

func saveModel(path string, model sequencingmodel.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	defer f.Close()
	if err := sequencingmodel.Save(f, model); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	return nil
}

func readDyeSeqs(path string) ([]dyeseq.Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reading dye seqs: %w", err)
	}
	defer f.Close()
	records, numChannels, err := dyeseq.ParseList(f)
	if err != nil {
		return nil, 0, fmt.Errorf("reading dye seqs: %w", err)
	}
	return records, numChannels, nil
}

func readRadiometries(path string, binary bool) ([]radiometry.Radiometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading radiometries: %w", err)
	}
	defer f.Close()
	if binary {
		records, err := radiometry.ParseBinaryAll(f)
		if err != nil {
			return nil, fmt.Errorf("reading radiometries: %w", err)
		}
		return records, nil
	}
	records, err := radiometry.ParseTextAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading radiometries: %w", err)
	}
	return records, nil
}
