// Package rbf implements a Radial Basis Function network as a trainable
// fitness model. The whole network is encoded in one flat genome so the
// generic evolutionary loop can optimize it without knowing the decoding.
package rbf

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"evorbf/internal/fitness"
	"evorbf/internal/model"
)

const ModelName = "rbf-network"

const (
	defaultMinDelta = -0.1
	defaultMaxDelta = 0.1
)

func init() {
	fitness.MustRegister(ModelName, func() fitness.Model { return New() })
}

// Network is an RBF network whose parameters live in a single genome.
//
// Genome layout, three contiguous segments:
//
//	input weights    R x I        weight of input i into unit u
//	unit parameters  R x (I+1)    per unit: one width, then I centers
//	output weights   (R+1) x O    per output: one weight per unit plus bias
//
// The (R+1)-th activation is a constant bias unit fixed at 1.
type Network struct {
	cfg *model.TrainingConfig

	rbfCount    int
	inputCount  int
	outputCount int

	paramOffset  int
	outputOffset int
	genomeSize   int

	minDelta float64
	maxDelta float64
	workers  int
}

func New() *Network {
	return &Network{minDelta: defaultMinDelta, maxDelta: defaultMaxDelta}
}

// Init derives the genome layout from the declared dataset shape and the
// model configuration string (comma-separated key=value pairs, e.g.
// "rbf_count=5").
func (n *Network) Init(cfg *model.TrainingConfig, modelConfig string) error {
	if cfg == nil {
		return fmt.Errorf("training config is required")
	}
	if cfg.InputCount <= 0 {
		return fmt.Errorf("input count must be > 0, got %d", cfg.InputCount)
	}
	if cfg.OutputCount <= 0 {
		return fmt.Errorf("output count must be > 0, got %d", cfg.OutputCount)
	}

	params, err := parseModelConfig(modelConfig)
	if err != nil {
		return err
	}
	rbfCount := 0
	for key, value := range params {
		switch key {
		case "rbf_count":
			rbfCount, err = strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid rbf_count %q: %w", value, err)
			}
		case "min_delta":
			n.minDelta, err = strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid min_delta %q: %w", value, err)
			}
		case "max_delta":
			n.maxDelta, err = strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid max_delta %q: %w", value, err)
			}
		case "workers":
			n.workers, err = strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid workers %q: %w", value, err)
			}
		default:
			return fmt.Errorf("unknown model config key: %s", key)
		}
	}
	if rbfCount <= 0 {
		return fmt.Errorf("model config requires rbf_count > 0")
	}
	if n.minDelta >= n.maxDelta {
		return fmt.Errorf("min_delta must be < max_delta")
	}

	n.cfg = cfg
	n.rbfCount = rbfCount
	n.inputCount = cfg.InputCount
	n.outputCount = cfg.OutputCount
	n.paramOffset = rbfCount * n.inputCount
	n.outputOffset = n.paramOffset + rbfCount*(n.inputCount+1)
	n.genomeSize = n.outputOffset + (rbfCount+1)*n.outputCount
	return nil
}

func (n *Network) GenomeSize() int {
	return n.genomeSize
}

func (n *Network) GenerateRandomGenome(rng *rand.Rand) *model.Genome {
	return &model.Genome{Genes: fitness.RandomVector(rng, n.genomeSize)}
}

// Compute runs the forward pass for one input row. It is pure: the same
// (input, genome) pair always yields identical output.
func (n *Network) Compute(input []float64, genome *model.Genome) []float64 {
	genes := genome.Genes
	activations := make([]float64, n.rbfCount+1)
	for u := 0; u < n.rbfCount; u++ {
		unit := n.paramOffset + u*(n.inputCount+1)
		width := genes[unit]
		sum := 0.0
		for i := 0; i < n.inputCount; i++ {
			weighted := input[i] * genes[u*n.inputCount+i]
			delta := weighted - genes[unit+1+i]
			sum += delta * delta
		}
		activations[u] = math.Exp(-sum / (2 * width * width))
	}
	activations[n.rbfCount] = 1

	output := make([]float64, n.outputCount)
	for k := 0; k < n.outputCount; k++ {
		segment := n.outputOffset + k*(n.rbfCount+1)
		sum := 0.0
		for u := 0; u <= n.rbfCount; u++ {
			sum += activations[u] * genes[segment+u]
		}
		output[k] = sum
	}
	return output
}

func (n *Network) Score(genome *model.Genome, inputs, ideals [][]float64) float64 {
	return fitness.ScoreDataset(func(input []float64) []float64 {
		return n.Compute(input, genome)
	}, inputs, ideals, n.workers)
}

func (n *Network) Mutate(rng *rand.Rand, parent *model.Genome) *model.Genome {
	return &model.Genome{Genes: fitness.MutateVector(rng, parent.Genes, n.minDelta, n.maxDelta)}
}

// Crossover produces one offspring with a cut length of genomeSize divided by
// the configured maximum parent count, floored to at least 1.
func (n *Network) Crossover(_ *rand.Rand, parents []*model.Genome) []*model.Genome {
	cutLength := n.genomeSize / n.cfg.MaxParents
	if cutLength < 1 {
		cutLength = 1
	}
	genes := make([][]float64, len(parents))
	for i, parent := range parents {
		genes[i] = parent.Genes
	}
	child := fitness.CrossoverCut(genes, cutLength)
	return []*model.Genome{{Genes: child}}
}

func parseModelConfig(raw string) (map[string]string, error) {
	params := map[string]string{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return params, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid model config entry %q, want key=value", pair)
		}
		params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return params, nil
}
