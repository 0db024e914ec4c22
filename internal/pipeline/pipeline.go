// Package pipeline sequences the two processing stages: page extraction,
// then strip cropping. Cropping is meaningless without rendered rasters, so
// an extraction failure aborts the run; individual skipped pages do not.
package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/markusmaresch/finnlo-pdf/internal/config"
	"github.com/markusmaresch/finnlo-pdf/internal/crop"
	"github.com/markusmaresch/finnlo-pdf/internal/extract"
	"github.com/markusmaresch/finnlo-pdf/internal/pdfdoc"
)

// Pipeline runs one configuration against one source document.
type Pipeline struct {
	cfg    config.PipelineConfig
	rules  []crop.Rule
	opener pdfdoc.Opener
}

// New assembles a pipeline. Pass nil rules to skip the crop stage.
func New(cfg config.PipelineConfig, rules []crop.Rule, opener pdfdoc.Opener) *Pipeline {
	return &Pipeline{cfg: cfg, rules: rules, opener: opener}
}

// Run executes extraction and then cropping, returning the overall verdict.
func (p *Pipeline) Run(ctx context.Context) bool {
	completed := extract.FirstArtifact
	if p.cfg.FullScan {
		completed = extract.FullScan
	}

	stage := extract.Stage{
		Opener:    p.opener,
		Source:    p.cfg.Source,
		OutDir:    p.cfg.RawDir,
		DPI:       p.cfg.DPI,
		Reorder:   p.cfg.Reorder,
		Normalize: p.cfg.Normalize,
		Completed: completed,
	}
	rep := stage.Run(ctx)
	if !rep.OK() {
		log.Error().Err(rep.Err).Str("source", p.cfg.Source).Msg("extraction failed, aborting run")
		return false
	}

	if len(p.rules) == 0 {
		return true
	}

	cropper := crop.Cropper{
		RasterDir: p.cfg.RawDir,
		OutDir:    p.cfg.CropDir,
		Rules:     p.rules,
	}
	crep := cropper.Run(ctx)
	if !crep.OK() {
		log.Error().Err(crep.Err).Msg("crop stage failed")
		return false
	}

	return true
}
