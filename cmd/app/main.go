package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/markusmaresch/finnlo-pdf/internal/config"
	"github.com/markusmaresch/finnlo-pdf/internal/crop"
	"github.com/markusmaresch/finnlo-pdf/internal/fetch"
	logpkg "github.com/markusmaresch/finnlo-pdf/internal/logger"
	"github.com/markusmaresch/finnlo-pdf/internal/metrics"
	"github.com/markusmaresch/finnlo-pdf/internal/pdfdoc"
	"github.com/markusmaresch/finnlo-pdf/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	log.Logger = log.With().Str("run_id", uuid.NewString()).Logger()

	metrics.Init()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warn().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, cleanup, err := fetch.Resolve(ctx, cfg.Pipeline.Source)
	if err != nil {
		log.Error().Err(err).Str("source", cfg.Pipeline.Source).Msg("cannot resolve source document")
		return 1
	}
	defer cleanup()

	// Cheap pdfcpu count before any render context exists; fitz may still
	// cope with files pdfcpu rejects, so a failure here is only a warning.
	if n, err := pdfdoc.PageCount(src); err != nil {
		log.Warn().Err(err).Str("source", src).Msg("pdfcpu page count failed")
	} else {
		log.Info().Int("pages", n).Str("source", src).Msg("source document counted")
	}

	var rules []crop.Rule
	if cfg.Pipeline.RulesFile != "" {
		rules, err = cfgpkg.LoadRules(cfg.Pipeline.RulesFile)
		if err != nil {
			log.Error().Err(err).Str("file", cfg.Pipeline.RulesFile).Msg("cannot load crop rules")
			return 1
		}
	} else {
		rules = cfgpkg.DefaultRules()
	}

	pcfg := cfg.Pipeline
	pcfg.Source = src

	log.Info().
		Str("source", src).
		Str("raw_dir", pcfg.RawDir).
		Str("crop_dir", pcfg.CropDir).
		Int("dpi", pcfg.DPI).
		Bool("reorder", pcfg.Reorder).
		Int("rules", len(rules)).
		Msg("starting booklet pipeline")

	if !pipeline.New(pcfg, rules, pdfdoc.FitzOpener{}).Run(ctx) {
		return 1
	}
	return 0
}
