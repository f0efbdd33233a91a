package rbf

import (
	"math"
	"math/rand"
	"testing"

	"evorbf/internal/fitness"
	"evorbf/internal/model"
)

func newTestNetwork(t *testing.T, inputs, outputs int, modelConfig string) *Network {
	t.Helper()
	n := New()
	cfg := &model.TrainingConfig{
		PopulationSize: 10,
		MaxParents:     4,
		Goal:           model.GoalMinimize,
		InputCount:     inputs,
		OutputCount:    outputs,
	}
	if err := n.Init(cfg, modelConfig); err != nil {
		t.Fatalf("init: %v", err)
	}
	return n
}

func TestGenomeLayout(t *testing.T) {
	// R=3, I=2, O=1: input weights 3*2, unit params 3*(2+1), output
	// weights (3+1)*1.
	n := newTestNetwork(t, 2, 1, "rbf_count=3")
	if got, want := n.GenomeSize(), 6+9+4; got != want {
		t.Fatalf("genome size = %d, want %d", got, want)
	}

	n = newTestNetwork(t, 4, 3, "rbf_count=5")
	if got, want := n.GenomeSize(), 5*4+5*5+6*3; got != want {
		t.Fatalf("genome size = %d, want %d", got, want)
	}
}

func TestInitErrors(t *testing.T) {
	cases := []struct {
		name        string
		inputs      int
		outputs     int
		modelConfig string
	}{
		{"missing rbf_count", 2, 1, ""},
		{"zero rbf_count", 2, 1, "rbf_count=0"},
		{"non-numeric rbf_count", 2, 1, "rbf_count=lots"},
		{"unknown key", 2, 1, "rbf_count=3,spread=1"},
		{"malformed pair", 2, 1, "rbf_count"},
		{"inverted deltas", 2, 1, "rbf_count=3,min_delta=0.5,max_delta=-0.5"},
		{"zero inputs", 0, 1, "rbf_count=3"},
		{"zero outputs", 2, 0, "rbf_count=3"},
	}
	for _, tc := range cases {
		n := New()
		cfg := &model.TrainingConfig{
			PopulationSize: 10,
			MaxParents:     4,
			Goal:           model.GoalMinimize,
			InputCount:     tc.inputs,
			OutputCount:    tc.outputs,
		}
		if err := n.Init(cfg, tc.modelConfig); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestGenerateRandomGenomeMatchesLayout(t *testing.T) {
	n := newTestNetwork(t, 3, 2, "rbf_count=4")
	genome := n.GenerateRandomGenome(rand.New(rand.NewSource(1)))
	if len(genome.Genes) != n.GenomeSize() {
		t.Fatalf("genome length = %d, want %d", len(genome.Genes), n.GenomeSize())
	}
	for i, gene := range genome.Genes {
		if gene < 0 || gene >= 1 {
			t.Fatalf("gene %d = %v outside [0,1)", i, gene)
		}
	}
}

func TestComputeSingleUnit(t *testing.T) {
	// R=1, I=1, O=1 makes the forward pass small enough to check by hand.
	// Layout: [input weight, width, center, unit output weight, bias weight].
	n := newTestNetwork(t, 1, 1, "rbf_count=1")
	genome := &model.Genome{Genes: []float64{1, 1, 0, 1, 0}}

	// Activation exp(-(x*1 - 0)^2 / 2), output weight 1, bias weight 0.
	out := n.Compute([]float64{0}, genome)
	if len(out) != 1 {
		t.Fatalf("output width = %d, want 1", len(out))
	}
	if math.Abs(out[0]-1) > 1e-12 {
		t.Fatalf("output at center = %v, want 1", out[0])
	}

	out = n.Compute([]float64{1}, genome)
	if want := math.Exp(-0.5); math.Abs(out[0]-want) > 1e-12 {
		t.Fatalf("output = %v, want %v", out[0], want)
	}

	// Bias weight adds a constant regardless of input.
	genome.Genes[4] = 2.5
	out = n.Compute([]float64{0}, genome)
	if want := 1 + 2.5; math.Abs(out[0]-want) > 1e-12 {
		t.Fatalf("output with bias = %v, want %v", out[0], want)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	n := newTestNetwork(t, 3, 2, "rbf_count=4")
	rng := rand.New(rand.NewSource(5))
	genome := n.GenerateRandomGenome(rng)
	input := []float64{0.3, 0.7, 0.1}

	first := n.Compute(input, genome)
	second := n.Compute(input, genome)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("output widths = %d, %d; want 2", len(first), len(second))
	}
	for k := range first {
		if first[k] != second[k] {
			t.Fatalf("output %d differs between identical calls: %v vs %v", k, first[k], second[k])
		}
	}
}

func TestCrossoverCutLength(t *testing.T) {
	// Genome size 19 with max parents 4: cut length 4. Two constant-valued
	// parents make the copy pattern visible.
	n := newTestNetwork(t, 2, 1, "rbf_count=3")
	size := n.GenomeSize()

	first := &model.Genome{Genes: make([]float64, size)}
	second := &model.Genome{Genes: make([]float64, size)}
	for i := 0; i < size; i++ {
		first.Genes[i] = 1
		second.Genes[i] = 2
	}

	children := n.Crossover(rand.New(rand.NewSource(1)), []*model.Genome{first, second})
	if len(children) != 1 {
		t.Fatalf("child count = %d, want 1", len(children))
	}
	child := children[0].Genes
	if len(child) != size {
		t.Fatalf("child length = %d, want %d", len(child), size)
	}
	for i := 0; i < size; i++ {
		want := 1.0
		if (i/4)%2 == 1 {
			want = 2.0
		}
		if child[i] != want {
			t.Fatalf("gene %d = %v, want %v (child %v)", i, child[i], want, child)
		}
	}
}

func TestMutateKeepsParentIntact(t *testing.T) {
	n := newTestNetwork(t, 2, 1, "rbf_count=3")
	rng := rand.New(rand.NewSource(9))
	parent := n.GenerateRandomGenome(rng)
	snapshot := append([]float64(nil), parent.Genes...)

	child := n.Mutate(rng, parent)
	if len(child.Genes) != len(parent.Genes) {
		t.Fatalf("child length = %d, want %d", len(child.Genes), len(parent.Genes))
	}
	for i := range parent.Genes {
		if parent.Genes[i] != snapshot[i] {
			t.Fatalf("parent mutated in place at gene %d", i)
		}
	}
	changed := false
	for i := range child.Genes {
		if child.Genes[i] != parent.Genes[i] {
			changed = true
			delta := child.Genes[i] - parent.Genes[i]
			if delta < defaultMinDelta || delta > defaultMaxDelta {
				t.Fatalf("gene %d delta %v outside [%v, %v]", i, delta, defaultMinDelta, defaultMaxDelta)
			}
		}
	}
	if !changed {
		t.Fatal("mutation produced a child identical to the parent")
	}
}

func TestScorePerfectNetwork(t *testing.T) {
	// A network whose bias weight carries the whole signal scores zero RMSE
	// on a constant-target dataset.
	n := newTestNetwork(t, 1, 1, "rbf_count=1")
	genome := &model.Genome{Genes: []float64{0, 1, 5, 0, 3}}

	inputs := [][]float64{{0.1}, {0.5}, {0.9}}
	ideals := [][]float64{{3}, {3}, {3}}
	if got := n.Score(genome, inputs, ideals); got != 0 {
		t.Fatalf("score = %v, want 0", got)
	}
}

func TestModelIsRegistered(t *testing.T) {
	m, err := fitness.Resolve(ModelName)
	if err != nil {
		t.Fatalf("resolve %s: %v", ModelName, err)
	}
	if _, ok := m.(*Network); !ok {
		t.Fatalf("resolved model has type %T, want *Network", m)
	}
}
