package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genome is a fixed-length real vector plus its fitness score. Genomes are
// treated as immutable once scored: variation operators build new genomes
// rather than editing a parent in place.
type Genome struct {
	Genes []float64 `json:"genes"`
	Score float64   `json:"score"`
}

// Clone returns a deep copy of the genome.
func (g *Genome) Clone() *Genome {
	return &Genome{
		Genes: append([]float64(nil), g.Genes...),
		Score: g.Score,
	}
}

// Goal is the optimization direction for fitness comparison.
type Goal string

const (
	GoalMaximize Goal = "maximize"
	GoalMinimize Goal = "minimize"
)

// TrainingConfig is the shared algorithm configuration. It is read-only after
// load; the population and trainer hold a reference to the same instance.
type TrainingConfig struct {
	PopulationSize  int     `json:"population_size" yaml:"population_size"`
	MaxParents      int     `json:"max_parents" yaml:"max_parents"`
	MutationPercent float64 `json:"mutation_percent" yaml:"mutation_percent"`
	Goal            Goal    `json:"goal" yaml:"goal"`
	ModelName       string  `json:"model" yaml:"model"`
	ModelConfig     string  `json:"model_config" yaml:"model_config"`

	// InputCount and OutputCount are the dataset field widths. The dataset
	// loader fills them before model initialization.
	InputCount  int `json:"input_count" yaml:"input_count"`
	OutputCount int `json:"output_count" yaml:"output_count"`
}

// PopulationSnapshot is the persisted form of a population: the full genome
// list, the index of the best genome, and the configuration it was built
// under.
type PopulationSnapshot struct {
	VersionedRecord
	ID        string         `json:"id"`
	Config    TrainingConfig `json:"config"`
	Genomes   []Genome       `json:"genomes"`
	BestIndex int            `json:"best_index"`
}

// RunSummary records the outcome of a training run.
type RunSummary struct {
	VersionedRecord
	RunID          string  `json:"run_id"`
	SnapshotID     string  `json:"snapshot_id"`
	ModelName      string  `json:"model"`
	OperationCount int64   `json:"operation_count"`
	BestScore      float64 `json:"best_score"`
}
