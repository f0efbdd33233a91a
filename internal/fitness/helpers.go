package fitness

import (
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// perturbProbability is the per-gene chance that MutateVector perturbs a gene.
const perturbProbability = 0.2

// ComputeFunc evaluates one input row against a decoded genome.
type ComputeFunc func(input []float64) []float64

// ScoreDataset computes aggregate fitness for one genome over a dataset.
//
// When the ideal rows have width 1 the result is the root-mean-square error
// over all rows and columns (regression). For wider ideals the result is the
// fraction of rows whose computed argmax disagrees with the ideal argmax
// (one-of-n classification).
//
// Rows are scored in parallel across workers. Each worker accumulates its own
// partial sums which are merged after all workers have finished; nothing is
// incremented concurrently.
func ScoreDataset(compute ComputeFunc, inputs, ideals [][]float64, workers int) float64 {
	if len(inputs) == 0 {
		return 0
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	regression := len(ideals[0]) == 1

	type partial struct {
		squaredErr float64
		elements   int
		missed     int
		rows       int
	}
	partials := make([]partial, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(worker int) {
			defer wg.Done()
			acc := &partials[worker]
			for row := worker; row < len(inputs); row += workers {
				output := compute(inputs[row])
				ideal := ideals[row]
				if regression {
					for col := range ideal {
						delta := output[col] - ideal[col]
						acc.squaredErr += delta * delta
						acc.elements++
					}
					continue
				}
				if argmax(output) != argmax(ideal) {
					acc.missed++
				}
				acc.rows++
			}
		}(w)
	}
	wg.Wait()

	if regression {
		squaredErr := 0.0
		elements := 0
		for _, acc := range partials {
			squaredErr += acc.squaredErr
			elements += acc.elements
		}
		if elements == 0 {
			return 0
		}
		return math.Sqrt(squaredErr / float64(elements))
	}

	missed := 0
	rows := 0
	for _, acc := range partials {
		missed += acc.missed
		rows += acc.rows
	}
	if rows == 0 {
		return 0
	}
	return float64(missed) / float64(rows)
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// MutateVector builds a child gene vector from the parent. Each gene is
// perturbed with probability 0.2 by a uniform delta in [minDelta, maxDelta];
// unperturbed genes are copied. If no gene was perturbed, exactly one
// randomly-chosen gene is forced to receive a perturbation so the child
// differs from the parent.
func MutateVector(rng *rand.Rand, parent []float64, minDelta, maxDelta float64) []float64 {
	child := make([]float64, len(parent))
	perturbed := false
	for i, gene := range parent {
		if rng.Float64() < perturbProbability {
			child[i] = gene + uniformIn(rng, minDelta, maxDelta)
			perturbed = true
		} else {
			child[i] = gene
		}
	}
	if !perturbed && len(child) > 0 {
		i := rng.Intn(len(child))
		child[i] = parent[i] + uniformIn(rng, minDelta, maxDelta)
	}
	return child
}

// CrossoverCut builds one offspring by walking gene positions left to right,
// copying cutLength consecutive genes from the current parent, then advancing
// cyclically to the next parent and resetting the run counter. With a cut
// length of at least the genome size the offspring equals the first parent.
func CrossoverCut(parents [][]float64, cutLength int) []float64 {
	size := len(parents[0])
	if cutLength < 1 {
		cutLength = 1
	}
	child := make([]float64, size)
	parent := 0
	run := 0
	for i := 0; i < size; i++ {
		child[i] = parents[parent][i]
		run++
		if run >= cutLength {
			parent = (parent + 1) % len(parents)
			run = 0
		}
	}
	return child
}

// RandomVector draws n genes uniformly from [0,1).
func RandomVector(rng *rand.Rand, n int) []float64 {
	genes := make([]float64, n)
	for i := range genes {
		genes[i] = rng.Float64()
	}
	return genes
}

func uniformIn(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
