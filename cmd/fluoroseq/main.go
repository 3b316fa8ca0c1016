/*
Command fluoroseq is the entry point for the fluorosequencing HMM engine's
command-line surface (spec §6 "Two commands: classify {hmm|nn|hybrid}
dye-seqs radiometries predictions, fit dye-seqs radiometries model-out").

Structured the way poly's cmd/poly/main.go separates app wiring (this file)
from command bodies (commands.go): the &cli.App{} here only declares flags
and dispatches, every command's actual logic lives in commands.go.
*/
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	run(os.Args)
}

func run(args []string) {
	if err := application().Run(args); err != nil {
		log.Fatal(err)
	}
}

func application() *cli.App {
	return &cli.App{
		Name:  "fluoroseq",
		Usage: "Classify and fit protein fluorosequencing radiometries with a hidden Markov model.",
		Commands: []*cli.Command{
			{
				Name:      "classify",
				Usage:     "Classify radiometries against a set of candidate dye sequences.",
				ArgsUsage: "{hmm|nn|hybrid} dye-seqs radiometries predictions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "model",
						Usage: "Sequencing model snapshot to classify against (required).",
					},
					&cli.BoolFlag{
						Name:  "binary",
						Usage: "Read radiometries in the binary record format instead of text.",
					},
					&cli.IntFlag{
						Name:  "k",
						Value: 10,
						Usage: "Neighbor count for the nn and hybrid classifiers.",
					},
					&cli.IntFlag{
						Name:  "draws-per-candidate",
						Value: 1000,
						Usage: "Simulated draws per candidate when building the nn or hybrid training set.",
					},
					&cli.IntFlag{
						Name:  "timesteps",
						Value: 10,
						Usage: "Simulated track length when building the nn or hybrid training set.",
					},
					&cli.Int64Flag{
						Name:  "seed",
						Value: 1,
						Usage: "Random seed for the nn and hybrid training-set simulation.",
					},
				},
				Action: classifyCommand,
			},
			{
				Name:      "fit",
				Usage:     "Fit a sequencing model's parameters to labeled dye-seq/radiometry pairs by expectation-maximization.",
				ArgsUsage: "dye-seqs radiometries model-out",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "model",
						Usage: "Initial sequencing model snapshot to refine (required).",
					},
					&cli.BoolFlag{
						Name:  "binary",
						Usage: "Read radiometries in the binary record format instead of text.",
					},
					&cli.IntFlag{
						Name:  "max-epochs",
						Value: 50,
						Usage: "Maximum number of EM epochs to run.",
					},
					&cli.Float64Flag{
						Name:  "tolerance",
						Value: 1e-6,
						Usage: "Stop once consecutive models' Distance falls below this value.",
					},
					&cli.IntFlag{
						Name:  "workers",
						Value: 4,
						Usage: "Number of radiometries to fit concurrently per epoch.",
					},
				},
				Action: fitCommand,
			},
		},
	}
}
