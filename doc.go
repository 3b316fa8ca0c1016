/*
Package gofluoroseq is a hidden Markov model engine for protein
fluorosequencing: it estimates the likelihood that an observed fluorescence
time-series (a "radiometry") was produced by a candidate labeled peptide (a
"dye sequence"), and fits a sequencing model's physical parameters from
labeled training data by expectation-maximization.

The engine models the per-cycle Edman degradation chemistry used by
fluorosequencing instruments: each cycle may fail to cleave a residue, dyes
may bleach or arrive as duds, and the peptide may detach from its substrate
or become permanently blocked. Its forward and backward passes compute exact
state probabilities over a dense, pruned tensor of live dye-count
combinations rather than sampling, so a single radiometry's likelihood is
deterministic given the sequencing model.

Core engine packages:

  - tensor, kdrange  -- dense rectangular state tensors and the live
    sub-ranges that keep them from growing exponentially with cycle count.
  - psv              -- the per-step probability vector the forward and
    backward passes carry between cycles.
  - hmmstep          -- the transition and emission operators (Edman,
    bleach, dud, detach, block) applied at each cycle.
  - sequencingmodel  -- the physical parameters those operators read, and
    the EM accumulator used to refit them.
  - hmm              -- the driver that builds a step list from a dye
    sequence and radiometry and runs the forward/backward passes over it.

Collaborators built on the engine:

  - classification -- hmm, nearest-neighbor, and hybrid classifiers that
    score a radiometry against a set of candidate dye sequences.
  - fit             -- the EM outer loop that fits a sequencing model to a
    batch of labeled dye-seq/radiometry pairs across worker goroutines.
  - simulate        -- generates synthetic dye tracks and radiometries from
    a sequencing model, used to build nearest-neighbor training sets and to
    test that EM recovers known parameters.
  - dyeseq, radiometry -- the on-disk record types and their I/O formats.
  - cmd/fluoroseq   -- the classify and fit command-line entry points.

See SPEC_FULL.md and DESIGN.md in the module root for the full specification
and the grounding behind each package's design.
*/
package gofluoroseq
