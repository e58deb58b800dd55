package cli

import (
	"context"
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shadabshaukat/searchd/engine/chunk"
	"github.com/shadabshaukat/searchd/engine/embedder"
	"github.com/shadabshaukat/searchd/engine/extract"
	"github.com/shadabshaukat/searchd/engine/ingest"
	"github.com/shadabshaukat/searchd/engine/retriever"
	"github.com/shadabshaukat/searchd/engine/store"
	"github.com/shadabshaukat/searchd/engine/synthesizer"
	"github.com/shadabshaukat/searchd/pkg/config"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

// runtime bundles the engine services a command needs.
type runtime struct {
	cfg         *config.Config
	log         *charmlog.Logger
	store       *store.Store
	pipeline    *ingest.Pipeline
	retriever   *retriever.Service
	synthesizer *synthesizer.Service
}

func (r *runtime) Close(ctx context.Context) {
	if r.store != nil {
		r.store.Close(ctx)
	}
}

// bootstrap loads configuration, initializes logging, connects to the
// database and assembles the engine. EnsureSchema runs on every start so a
// fresh database becomes serviceable without a separate migration step.
func bootstrap(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	log := setupLogger(cmd, cfg)
	st, err := store.Connect(ctx, &cfg.Database, store.Options{
		Dimension:   cfg.Embedder.Dimension,
		Metric:      store.Metric(cfg.Search.Metric),
		FTSLanguage: cfg.Search.FTSLanguage,
		IndexLists:  cfg.Search.IndexLists,
		IndexProbes: cfg.Search.IndexProbes,
	})
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close(ctx)
		return nil, err
	}
	emb, err := embedder.New(ctx, &cfg.Embedder)
	if err != nil {
		st.Close(ctx)
		return nil, err
	}
	var synth *synthesizer.Service
	if cfg.LLM.Provider != "" {
		synth, err = synthesizer.New(&cfg.LLM)
		if err != nil {
			st.Close(ctx)
			return nil, err
		}
	} else {
		log.Warn("No LLM provider configured; rag mode disabled")
	}
	var ragSynth retriever.Synthesizer
	if synth != nil {
		ragSynth = synth
	}
	retrieverSvc, err := retriever.NewService(st, emb, ragSynth, cfg.Search)
	if err != nil {
		st.Close(ctx)
		return nil, err
	}
	chunker, err := chunk.NewProcessor(chunk.Settings{
		Size:              cfg.Search.ChunkSize,
		Overlap:           cfg.Search.ChunkOverlap,
		NormalizeNewlines: true,
	})
	if err != nil {
		st.Close(ctx)
		return nil, err
	}
	pipeline, err := ingest.NewPipeline(extract.NewService(), chunker, emb, st)
	if err != nil {
		st.Close(ctx)
		return nil, err
	}
	log.With(
		"metric", cfg.Search.Metric,
		"dimension", cfg.Embedder.Dimension,
		"embedder", fmt.Sprintf("%s/%s", cfg.Embedder.Provider, cfg.Embedder.Model),
	).Info("Engine initialized")
	return &runtime{
		cfg:         cfg,
		log:         log,
		store:       st,
		pipeline:    pipeline,
		retriever:   retrieverSvc,
		synthesizer: synth,
	}, nil
}

// setupLogger applies CLI flag overrides on top of the configured log
// settings and installs the process logger.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *charmlog.Logger {
	level := cfg.Log.Level
	if flagLevel, err := cmd.Flags().GetString("log-level"); err == nil && flagLevel != "" {
		level = flagLevel
	}
	jsonOut := cfg.Log.JSON
	if flagJSON, err := cmd.Flags().GetBool("log-json"); err == nil && cmd.Flags().Changed("log-json") {
		jsonOut = flagJSON
	}
	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(level)
	logCfg.JSON = jsonOut
	logCfg.AddSource = cfg.Log.Source
	logger.Init(logCfg)
	return logger.With()
}
