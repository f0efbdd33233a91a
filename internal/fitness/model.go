package fitness

import (
	"math/rand"

	"evorbf/internal/model"
)

// Model is the capability set a trainable fitness model must provide. A model
// owns the genome encoding: its size, how random genomes are generated, how a
// genome is decoded into computed output, and how offspring are produced.
//
// Compute must be pure: the same (input, genome) pair always yields identical
// output. Mutate and Crossover must never modify their parents.
type Model interface {
	// Init performs one-time setup from the shared configuration and the
	// model-specific configuration string. It fails when required parameters
	// are missing or the declared dataset shape is invalid.
	Init(cfg *model.TrainingConfig, modelConfig string) error

	// GenomeSize reports the fixed genome length. Valid after Init.
	GenomeSize() int

	// GenerateRandomGenome produces an unscored genome with validly-ranged
	// random genes.
	GenerateRandomGenome(rng *rand.Rand) *model.Genome

	// Compute decodes the genome and evaluates it for one input vector.
	Compute(input []float64, genome *model.Genome) []float64

	// Score computes aggregate fitness over a dataset. Whether lower or
	// higher is better is decided by the configured goal, not the model.
	Score(genome *model.Genome, inputs, ideals [][]float64) float64

	// Mutate returns a new genome differing from the parent in at least one
	// gene.
	Mutate(rng *rand.Rand, parent *model.Genome) *model.Genome

	// Crossover combines two or more parents into one or more offspring.
	Crossover(rng *rand.Rand, parents []*model.Genome) []*model.Genome
}
