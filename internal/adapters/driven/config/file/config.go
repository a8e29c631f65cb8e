package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
)

// Config is the on-disk TOML configuration.
type Config struct {
	// DataDir is where the metadata database lives.
	// Defaults to ~/.sentency/data.
	DataDir string `toml:"data_dir"`

	// IndexPath is the vector index artifact path. The sidecar lives
	// next to it with a .json extension. Defaults to
	// <data_dir>/corpus.vec.
	IndexPath string `toml:"index_path"`

	// BaselinePath is the doctrinal baseline artifact path.
	// Defaults to <data_dir>/doctrina.vec.
	BaselinePath string `toml:"baseline_path"`

	Retrieval Retrieval        `toml:"retrieval"`
	Models    map[string]Model `toml:"models"`
}

// Retrieval mirrors domain.RetrievalConfig in TOML form.
type Retrieval struct {
	ChunkTokens     int                `toml:"chunk_tokens"`
	OverlapTokens   int                `toml:"overlap_tokens"`
	FusionStrategy  string             `toml:"fusion_strategy"`
	OnMissing       string             `toml:"on_missing"`
	ModelWeights    map[string]float64 `toml:"model_weights"`
	CandidateK      int                `toml:"candidate_k"`
	Workers         int                `toml:"workers"`
	BoostIncrements map[string]float64 `toml:"boost_increments"`
	Thresholds      Thresholds         `toml:"distance_thresholds"`
	MinChunkChars   int                `toml:"min_chunk_chars"`
}

// Thresholds are the doctrinal distance category boundaries.
type Thresholds struct {
	Aligned  float64 `toml:"aligned"`
	Moderate float64 `toml:"moderate"`
}

// Model configures one embedding backend, keyed by its logical model ID
// in the [models] table.
type Model struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the backend model name.
	Model string `toml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	// Keys are never stored in the config file itself.
	APIKeyEnv string `toml:"api_key_env"`

	// Dimensions is the embedding vector size.
	Dimensions int `toml:"dimensions"`

	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// DefaultMinChunkChars is the minimum chunk length considered for the
// doctrinal baseline corpus.
const DefaultMinChunkChars = 50

// DefaultPath returns the default config file location,
// ~/.sentency/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".sentency", "config.toml"), nil
}

// Load reads and parses the TOML config at path, filling unset fields
// with defaults. A missing file yields the pure defaults; a malformed
// file is an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfiguration, path, err)
	}

	cfg.fillDerived()
	return cfg, nil
}

func defaults() *Config {
	d := domain.DefaultRetrievalConfig()
	cfg := &Config{
		Retrieval: Retrieval{
			ChunkTokens:     d.ChunkTokens,
			OverlapTokens:   d.OverlapTokens,
			FusionStrategy:  d.Strategy.String(),
			OnMissing:       string(d.OnMissing),
			CandidateK:      d.CandidateK,
			Workers:         d.Workers,
			BoostIncrements: d.BoostIncrements,
			Thresholds: Thresholds{
				Aligned:  d.Thresholds.Aligned,
				Moderate: d.Thresholds.Moderate,
			},
			MinChunkChars: DefaultMinChunkChars,
		},
	}
	cfg.fillDerived()
	return cfg
}

// fillDerived resolves paths left empty by the file.
func (c *Config) fillDerived() {
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, ".sentency", "data")
		}
	}
	if c.IndexPath == "" {
		c.IndexPath = filepath.Join(c.DataDir, "corpus.vec")
	}
	if c.BaselinePath == "" {
		c.BaselinePath = filepath.Join(c.DataDir, "doctrina.vec")
	}
}

// RetrievalConfig maps the file values onto the domain configuration
// and validates them.
func (c *Config) RetrievalConfig() (domain.RetrievalConfig, error) {
	rc := domain.RetrievalConfig{
		ChunkTokens:     c.Retrieval.ChunkTokens,
		OverlapTokens:   c.Retrieval.OverlapTokens,
		Strategy:        domain.FusionStrategy(c.Retrieval.FusionStrategy),
		OnMissing:       domain.MissingPolicy(c.Retrieval.OnMissing),
		ModelWeights:    c.Retrieval.ModelWeights,
		CandidateK:      c.Retrieval.CandidateK,
		Workers:         c.Retrieval.Workers,
		BoostIncrements: c.Retrieval.BoostIncrements,
		Thresholds: domain.DistanceThresholds{
			Aligned:  c.Retrieval.Thresholds.Aligned,
			Moderate: c.Retrieval.Thresholds.Moderate,
		},
	}

	if err := rc.Validate(); err != nil {
		return domain.RetrievalConfig{}, err
	}

	// Every weighted model needs an endpoint definition.
	for id := range rc.ModelWeights {
		if _, ok := c.Models[id]; !ok {
			return domain.RetrievalConfig{}, fmt.Errorf("%w: model %q has a weight but no [models.%s] section",
				domain.ErrInvalidConfiguration, id, id)
		}
	}

	return rc, nil
}
