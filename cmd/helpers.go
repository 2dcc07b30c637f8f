package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ziadkadry99/turnguard/internal/audit"
	"github.com/ziadkadry99/turnguard/internal/config"
	"github.com/ziadkadry99/turnguard/internal/db"
	"github.com/ziadkadry99/turnguard/internal/embeddings"
	"github.com/ziadkadry99/turnguard/internal/llm"
	"github.com/ziadkadry99/turnguard/internal/logging"
	"github.com/ziadkadry99/turnguard/internal/pipeline"
	"github.com/ziadkadry99/turnguard/internal/planner"
	"github.com/ziadkadry99/turnguard/internal/retrieval"
	"github.com/ziadkadry99/turnguard/internal/session"
)

// deps bundles everything a command needs to run the pipeline.
type deps struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *db.DB
	sessions *session.Store
	audit    *audit.Store
	evidence *retrieval.Store
	engine   *pipeline.Engine
}

func (d *deps) Close() {
	if d.evidence != nil {
		if err := d.evidence.Persist(d.cfg.DataDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: persisting evidence index: %v\n", err)
		}
	}
	d.log.Sync()
	d.db.Close()
}

// buildDeps loads config and wires the full pipeline. The evidence
// store is optional: if the embedder cannot be built the pipeline runs
// ungrounded with a warning.
func buildDeps() (*deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, verbose)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(filepath.Join(cfg.DataDir, "turnguard.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	provider, err := llm.New(cfg)
	if err != nil && !errors.Is(err, llm.ErrNoRemoteProvider) {
		database.Close()
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	composer := planner.New(provider, cfg.Model)

	evidence := buildEvidence(cfg, logger)

	sessions := session.NewStore(database)
	auditStore := audit.NewStore(database)
	engine := pipeline.NewEngine(cfg, logger, sessions, auditStore, evidence, composer)

	return &deps{
		cfg:      cfg,
		log:      logger,
		db:       database,
		sessions: sessions,
		audit:    auditStore,
		evidence: evidence,
		engine:   engine,
	}, nil
}

func buildEvidence(cfg *config.Config, logger *zap.Logger) *retrieval.Store {
	embedder, err := embeddings.New(cfg)
	if err != nil {
		logger.Warn("evidence store disabled", zap.Error(err))
		return nil
	}

	store, err := retrieval.NewStore(embedder, cfg.ToolTimeout())
	if err != nil {
		logger.Warn("evidence store disabled", zap.Error(err))
		return nil
	}

	if err := store.Load(cfg.DataDir); err != nil {
		// First run has no index yet; the store starts empty.
		logger.Debug("no evidence index loaded", zap.Error(err))
	}
	return store
}
