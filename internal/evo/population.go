package evo

import (
	"fmt"
	"math/rand"

	"evorbf/internal/fitness"
	"evorbf/internal/model"
	"evorbf/internal/storage"
)

// tournamentSampleSize is the number of uniformly-random contenders drawn
// (with replacement) per tournament.
const tournamentSampleSize = 10

// Population is a fixed-capacity ordered collection of genomes. Its length is
// constant after Generate; AddChildAndReplace is the sole mutation path for
// the life of a training run, and only the training worker calls it.
type Population struct {
	cfg     *model.TrainingConfig
	members []*model.Genome
	best    *model.Genome
}

// NewPopulation binds the shared configuration. It performs no other work;
// call Generate or Restore to fill the population.
func NewPopulation(cfg *model.TrainingConfig) (*Population, error) {
	if cfg == nil {
		return nil, fmt.Errorf("training config is required")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0, got %d", cfg.PopulationSize)
	}
	if cfg.MaxParents < 2 {
		return nil, fmt.Errorf("max parents must be >= 2, got %d", cfg.MaxParents)
	}
	if cfg.MutationPercent < 0 || cfg.MutationPercent > 1 {
		return nil, fmt.Errorf("mutation percent must be in [0,1], got %v", cfg.MutationPercent)
	}
	switch cfg.Goal {
	case model.GoalMaximize, model.GoalMinimize:
	default:
		return nil, fmt.Errorf("unsupported goal: %q", cfg.Goal)
	}
	return &Population{cfg: cfg}, nil
}

// Generate clears the population and fills it with random genomes from the
// model, updating the best-reference incrementally.
func (p *Population) Generate(rng *rand.Rand, m fitness.Model) {
	p.members = make([]*model.Genome, 0, p.cfg.PopulationSize)
	p.best = nil
	for i := 0; i < p.cfg.PopulationSize; i++ {
		genome := m.GenerateRandomGenome(rng)
		p.members = append(p.members, genome)
		if p.best == nil || p.IsBetterThan(genome, p.best) {
			p.best = genome
		}
	}
}

// ScoreAll recomputes every genome's score via the model and refreshes the
// best-reference. The population is not resized.
func (p *Population) ScoreAll(m fitness.Model, inputs, ideals [][]float64) {
	for _, genome := range p.members {
		genome.Score = m.Score(genome, inputs, ideals)
	}
	p.refreshBest()
}

// IsBetterThan is the strict goal-directed comparator used for all ranking
// decisions.
func (p *Population) IsBetterThan(a, b *model.Genome) bool {
	if p.cfg.Goal == model.GoalMaximize {
		return a.Score > b.Score
	}
	return a.Score < b.Score
}

// TournamentForBest samples contenders with replacement and returns the one
// that beat every contender seen so far, defaulting to the first sample.
func (p *Population) TournamentForBest(rng *rand.Rand) *model.Genome {
	result := p.members[rng.Intn(len(p.members))]
	for i := 1; i < tournamentSampleSize; i++ {
		contender := p.members[rng.Intn(len(p.members))]
		if p.IsBetterThan(contender, result) {
			result = contender
		}
	}
	return result
}

// TournamentForWorst samples contenders with replacement and returns the
// index of a weak member. The running pick is displaced by any contender that
// is not strictly better, so ties and losers both displace it and the last
// weak-or-equal contender sampled wins. The bias toward the last sample is
// intentional; do not replace this with a strict worst-of-n.
func (p *Population) TournamentForWorst(rng *rand.Rand) int {
	result := rng.Intn(len(p.members))
	for i := 1; i < tournamentSampleSize; i++ {
		contender := rng.Intn(len(p.members))
		if !p.IsBetterThan(p.members[contender], p.members[result]) {
			result = contender
		}
	}
	return result
}

// AddChildAndReplace overwrites a tournament-selected weak member with the
// child and updates the best-reference. Population length is unchanged.
func (p *Population) AddChildAndReplace(rng *rand.Rand, child *model.Genome) {
	slot := p.TournamentForWorst(rng)
	evicted := p.members[slot]
	p.members[slot] = child
	if evicted == p.best {
		p.refreshBest()
		return
	}
	if p.IsBetterThan(child, p.best) {
		p.best = child
	}
}

// Best returns the cached best-reference: always a member of the population
// and the goal-directed extremum over all current members.
func (p *Population) Best() *model.Genome {
	return p.best
}

func (p *Population) Size() int {
	return len(p.members)
}

// Members returns the live member slice. Callers must treat it as read-only.
func (p *Population) Members() []*model.Genome {
	return p.members
}

func (p *Population) Config() *model.TrainingConfig {
	return p.cfg
}

func (p *Population) refreshBest() {
	if len(p.members) == 0 {
		p.best = nil
		return
	}
	best := p.members[0]
	for _, genome := range p.members[1:] {
		if p.IsBetterThan(genome, best) {
			best = genome
		}
	}
	p.best = best
}

// Snapshot captures the population as an opaque persistable unit.
func (p *Population) Snapshot(id string) model.PopulationSnapshot {
	genomes := make([]model.Genome, len(p.members))
	bestIndex := 0
	for i, genome := range p.members {
		genomes[i] = *genome.Clone()
		if genome == p.best {
			bestIndex = i
		}
	}
	return model.PopulationSnapshot{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:        id,
		Config:    *p.cfg,
		Genomes:   genomes,
		BestIndex: bestIndex,
	}
}

// Restore replaces the population from a snapshot. The snapshot must match
// the configured population size and the model's genome size; the
// best-reference is recomputed so the population invariants hold post-load.
func (p *Population) Restore(snapshot model.PopulationSnapshot, m fitness.Model) error {
	if len(snapshot.Genomes) != p.cfg.PopulationSize {
		return fmt.Errorf("snapshot population mismatch: got=%d want=%d", len(snapshot.Genomes), p.cfg.PopulationSize)
	}
	size := m.GenomeSize()
	members := make([]*model.Genome, len(snapshot.Genomes))
	for i := range snapshot.Genomes {
		if len(snapshot.Genomes[i].Genes) != size {
			return fmt.Errorf("snapshot genome %d length mismatch: got=%d want=%d", i, len(snapshot.Genomes[i].Genes), size)
		}
		members[i] = snapshot.Genomes[i].Clone()
	}
	p.members = members
	p.refreshBest()
	return nil
}
