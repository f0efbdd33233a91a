package fitness

import (
	"errors"
	"math/rand"
	"testing"

	"evorbf/internal/model"
)

type noopModel struct{}

func (noopModel) Init(_ *model.TrainingConfig, _ string) error                 { return nil }
func (noopModel) GenomeSize() int                                              { return 1 }
func (noopModel) GenerateRandomGenome(rng *rand.Rand) *model.Genome            { return &model.Genome{Genes: RandomVector(rng, 1)} }
func (noopModel) Compute(input []float64, _ *model.Genome) []float64           { return input }
func (noopModel) Score(_ *model.Genome, _, _ [][]float64) float64              { return 0 }
func (noopModel) Mutate(_ *rand.Rand, parent *model.Genome) *model.Genome      { return parent.Clone() }
func (noopModel) Crossover(_ *rand.Rand, parents []*model.Genome) []*model.Genome {
	return []*model.Genome{parents[0].Clone()}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	resetModelRegistryForTests()

	if err := Register("noop", func() Model { return noopModel{} }); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := Register("noop", func() Model { return noopModel{} })
	if !errors.Is(err, ErrModelExists) {
		t.Fatalf("duplicate register error = %v, want ErrModelExists", err)
	}
}

func TestRegisterRequiresNameAndFactory(t *testing.T) {
	resetModelRegistryForTests()

	if err := Register("", func() Model { return noopModel{} }); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := Register("noop", nil); err == nil {
		t.Fatal("expected error for nil factory")
	}
}

func TestResolveUnknownModel(t *testing.T) {
	resetModelRegistryForTests()

	_, err := Resolve("does-not-exist")
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("resolve error = %v, want ErrModelNotFound", err)
	}
}

func TestResolveReturnsFreshInstances(t *testing.T) {
	resetModelRegistryForTests()

	calls := 0
	MustRegister("counting", func() Model {
		calls++
		return noopModel{}
	})

	if _, err := Resolve("counting"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := Resolve("counting"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if calls != 2 {
		t.Fatalf("factory invoked %d times, want 2", calls)
	}
}

func TestListIsSorted(t *testing.T) {
	resetModelRegistryForTests()

	MustRegister("zeta", func() Model { return noopModel{} })
	MustRegister("alpha", func() Model { return noopModel{} })
	MustRegister("mid", func() Model { return noopModel{} })

	names := List()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}
