package types

// DocFreq is a document-frequency bound for the vectorizer. A bound is
// either a fraction of the snippet count (Absolute == false, Value in
// [0, 1]) or an absolute number of snippets (Absolute == true).
type DocFreq struct {
	Value    float64 `json:"value" yaml:"value"`
	Absolute bool    `json:"absolute,omitempty" yaml:"absolute,omitempty"`
}

// Fraction returns a bound expressed as a proportion of snippets.
func Fraction(f float64) DocFreq { return DocFreq{Value: f} }

// Count returns a bound expressed as an absolute number of snippets.
func Count(n int) DocFreq { return DocFreq{Value: float64(n), Absolute: true} }

// Resolve converts the bound into a snippet count for a corpus of n snippets.
func (d DocFreq) Resolve(n int) float64 {
	if d.Absolute {
		return d.Value
	}
	return d.Value * float64(n)
}

// RankingConfig holds settings for vectorizing and selecting answers.
type RankingConfig struct {
	// MinDF drops n-grams that appear in fewer snippets than this (default 0.1).
	MinDF DocFreq `json:"min_df" yaml:"min_df"`

	// MaxDF drops n-grams that appear in more snippets than this (default 0.9).
	MaxDF DocFreq `json:"max_df" yaml:"max_df"`

	// Top is the number of ranks inspected per question (default 4).
	Top int `json:"top" yaml:"top"`

	// KeepCase disables lower-casing before tokenization.
	KeepCase bool `json:"keep_case" yaml:"keep_case"`
}

// DefaultRankingConfig returns the stock ranking parameters.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		MinDF: Fraction(0.1),
		MaxDF: Fraction(0.9),
		Top:   4,
	}
}

// WalkMode selects how the paper walker traverses a directory tree.
type WalkMode string

const (
	// WalkFull visits every file in the subtree.
	WalkFull WalkMode = "full"

	// WalkLegacy inspects only the first entry of each directory listing,
	// matching the published answer files.
	WalkLegacy WalkMode = "legacy"
)

// WalkConfig holds settings for discovering paper files.
type WalkConfig struct {
	// InputDir is the corpus root (e.g. "CORD-19-research-challenge").
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// Extension is the expected file suffix without the dot (default "json").
	Extension string `json:"extension" yaml:"extension"`

	// Mode is "full" (default) or "legacy".
	Mode WalkMode `json:"mode" yaml:"mode"`
}

// MergeConfig holds settings for merging per-paper result records.
type MergeConfig struct {
	// Legacy reproduces the bracket/comma layout of the published files,
	// which is not guaranteed to be valid JSON.
	Legacy bool `json:"legacy" yaml:"legacy"`
}

// StoreConfig holds settings for the answer store.
type StoreConfig struct {
	// Dir contains the SQLite database and exports.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for a full run.
type PipelineConfig struct {
	Ranking RankingConfig `json:"ranking" yaml:"ranking"`
	Walk    WalkConfig    `json:"walk" yaml:"walk"`
	Merge   MergeConfig   `json:"merge" yaml:"merge"`
	Store   StoreConfig   `json:"store" yaml:"store"`

	// WorkingDir receives manifests, result records, and merged answers.
	WorkingDir string `json:"working_dir" yaml:"working_dir"`

	// Sources lists the source-type subsets processed by the pipeline.
	Sources []string `json:"sources" yaml:"sources"`

	// Workers bounds the number of source types processed at once.
	// Zero means one worker per source type.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultSources are the four CORD-19 source-type subsets.
var DefaultSources = []string{
	"biorxiv_medrxiv",
	"comm_use_subset",
	"noncomm_use_subset",
	"pmc_custom_license",
}
