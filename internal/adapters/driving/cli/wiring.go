package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pablofarias19/sentency-sub002/internal/adapters/driven/config/file"
	"github.com/pablofarias19/sentency-sub002/internal/adapters/driven/embedding/ollama"
	"github.com/pablofarias19/sentency-sub002/internal/adapters/driven/embedding/openai"
	"github.com/pablofarias19/sentency-sub002/internal/adapters/driven/index/flat"
	"github.com/pablofarias19/sentency-sub002/internal/adapters/driven/storage/sqlite"
	"github.com/pablofarias19/sentency-sub002/internal/core/domain"
	"github.com/pablofarias19/sentency-sub002/internal/core/ports/driven"
	"github.com/pablofarias19/sentency-sub002/internal/core/services"
	"github.com/pablofarias19/sentency-sub002/internal/fusion"
)

// Wired infrastructure shared by the commands. baselineStore is exposed
// separately because the recompute command loads the persisted baseline
// itself.
var (
	appConfig     *file.Config
	baselineStore driven.BaselineStore
	closers       []io.Closer
)

// ensureServices wires the full engine from the config file. Tests
// install their own services, in which case wiring is skipped.
func ensureServices() error {
	if ingestService != nil && searchService != nil && baselineService != nil {
		return nil
	}

	path := configPath
	if path == "" {
		var err error
		if path, err = file.DefaultPath(); err != nil {
			return err
		}
	}

	cfg, err := file.Load(path)
	if err != nil {
		return err
	}
	rc, err := cfg.RetrievalConfig()
	if err != nil {
		return err
	}
	appConfig = cfg

	embedder, err := buildEmbedder(cfg, rc)
	if err != nil {
		return err
	}
	closers = append(closers, embedder)

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	closers = append(closers, store)

	artifacts := flat.NewArtifactStore(cfg.IndexPath)
	baselineStore = flat.NewBaselineStore(cfg.BaselinePath)

	// One writer lock per engine instance: ingest, rebuild, baseline
	// build and recompute all serialise on it.
	writers := services.NewWriterLock()

	ingestService, err = services.NewIngestService(rc, embedder, store, flat.New(), artifacts, writers)
	if err != nil {
		return err
	}
	searchService, err = services.NewSearchService(rc, embedder, artifacts, store)
	if err != nil {
		return err
	}
	baselineService = services.NewBaselineService(embedder, store, baselineStore, cfg.Retrieval.MinChunkChars, writers)
	return nil
}

// buildEmbedder binds one backend per weighted model and wraps them in
// the fusion layer.
func buildEmbedder(cfg *file.Config, rc domain.RetrievalConfig) (driven.CompositeEmbedder, error) {
	fuser, err := fusion.New(rc.Strategy, rc.ModelWeights)
	if err != nil {
		return nil, err
	}

	embedders := make(map[string]driven.TextEmbedder, len(rc.ModelWeights))
	for id := range rc.ModelWeights {
		m := cfg.Models[id]
		timeout := time.Duration(m.TimeoutSeconds) * time.Second

		switch m.Provider {
		case "ollama":
			embedders[id] = ollama.NewEmbedder(ollama.Config{
				ModelID:    id,
				BaseURL:    m.BaseURL,
				Model:      m.Model,
				Timeout:    timeout,
				Dimensions: m.Dimensions,
			})
		case "openai":
			e, err := openai.NewEmbedder(openai.Config{
				APIKey:     os.Getenv(m.APIKeyEnv),
				ModelID:    id,
				BaseURL:    m.BaseURL,
				Model:      m.Model,
				Timeout:    timeout,
				Dimensions: m.Dimensions,
			})
			if err != nil {
				return nil, fmt.Errorf("model %q: %w", id, err)
			}
			embedders[id] = e
		default:
			return nil, fmt.Errorf("%w: model %q has unknown provider %q",
				domain.ErrInvalidConfiguration, id, m.Provider)
		}
	}

	return fusion.NewMultiEmbedder(fuser, embedders, rc.OnMissing)
}

func closeServices() {
	for _, c := range closers {
		c.Close() //nolint:errcheck
	}
	closers = nil
}
