// Package extract drives the page renderer across a whole scan, writing one
// PNG per output page. It either replays the document order as-is or follows
// the booklet signature mapping, and it skips entirely when a previous run
// already produced output.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/markusmaresch/finnlo-pdf/internal/metrics"
	"github.com/markusmaresch/finnlo-pdf/internal/pdfdoc"
	"github.com/markusmaresch/finnlo-pdf/internal/render"
	"github.com/markusmaresch/finnlo-pdf/internal/signature"
)

// PageFileName names the raster artifact for a 1-based output page number.
func PageFileName(page int) string {
	return fmt.Sprintf("page_%02d.png", page)
}

// CompletionCheck decides whether a previous run already completed, given
// the output directory and the expected 1-based output page numbers.
type CompletionCheck func(outDir string, pages []int) bool

// FirstArtifact treats the stage as complete when the first expected output
// file exists. This is deliberately coarse: a partially completed prior run
// is indistinguishable from a complete one. Use FullScan when that matters.
func FirstArtifact(outDir string, pages []int) bool {
	if len(pages) == 0 {
		return false
	}
	_, err := os.Stat(filepath.Join(outDir, PageFileName(pages[0])))
	return err == nil
}

// FullScan treats the stage as complete only when every expected output
// file exists.
func FullScan(outDir string, pages []int) bool {
	if len(pages) == 0 {
		return false
	}
	for _, p := range pages {
		if _, err := os.Stat(filepath.Join(outDir, PageFileName(p))); err != nil {
			return false
		}
	}
	return true
}

// PageResult records the outcome for one output page.
type PageResult struct {
	Page   int    // 1-based output page number
	Source int    // 1-based physical page; 0 when the logical slot was unresolved
	Path   string // written artifact, empty when skipped or failed
	Err    error
}

// Report is the batch outcome of one stage run. Per-page failures live in
// Results and do not affect the stage verdict; Err is set only for fatal
// conditions (unreadable source, un-creatable output directory).
type Report struct {
	Results []PageResult
	Resumed bool
	Err     error
}

// OK reports the stage verdict.
func (r Report) OK() bool { return r.Err == nil }

// Rendered counts pages written to disk.
func (r Report) Rendered() int {
	n := 0
	for _, pr := range r.Results {
		if pr.Err == nil && pr.Path != "" {
			n++
		}
	}
	return n
}

// Failed counts pages that could not be rendered or written.
func (r Report) Failed() int {
	n := 0
	for _, pr := range r.Results {
		if pr.Err != nil {
			n++
		}
	}
	return n
}

// Stage renders every page of a source document into OutDir.
type Stage struct {
	Opener pdfdoc.Opener
	Source string
	OutDir string
	DPI    int

	// Reorder selects signature reordering; otherwise pages are emitted in
	// document order under their physical numbers.
	Reorder bool

	// Normalize runs the pdfcpu content stream cleanup before rendering.
	Normalize bool

	// Completed gates the whole stage; nil means FirstArtifact.
	Completed CompletionCheck
}

// Run executes the stage. See Report for the failure policy.
func (s Stage) Run(ctx context.Context) Report {
	start := time.Now()
	defer func() { metrics.ObserveStage("extract", time.Since(start)) }()

	dpi := s.DPI
	if dpi <= 0 {
		dpi = render.DefaultDPI
	}

	if _, err := os.Stat(s.Source); err != nil {
		return Report{Err: fmt.Errorf("source document: %w", err)}
	}

	doc, err := s.Opener.Open(s.Source)
	if err != nil {
		return Report{Err: fmt.Errorf("open %s: %w", s.Source, err)}
	}
	pageCount := doc.NumPage()
	doc.Close()

	var mapping signature.Mapping
	if s.Reorder {
		mapping, err = signature.Resolve(pageCount)
		if err != nil {
			return Report{Err: err}
		}
		if !mapping.Complete() {
			log.Warn().
				Int("pages", pageCount).
				Ints("unresolved_slots", mapping.UnresolvedSlots()).
				Msg("odd page count: not every logical slot has a physical page")
		}
	}

	// Expected artifacts: an unresolved slot never produces a file, so it
	// must not count against completion checks.
	pages := make([]int, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		if s.Reorder && mapping[i] == signature.Unresolved {
			continue
		}
		pages = append(pages, i+1)
	}

	completed := s.Completed
	if completed == nil {
		completed = FirstArtifact
	}
	if completed(s.OutDir, pages) {
		log.Info().Str("dir", s.OutDir).Msg("extraction output already present, skipping stage")
		return Report{Resumed: true}
	}

	if err := os.MkdirAll(s.OutDir, 0o755); err != nil {
		return Report{Err: fmt.Errorf("create output dir: %w", err)}
	}

	renderPath := s.Source
	if s.Normalize {
		var cleanup func()
		renderPath, cleanup = pdfdoc.Normalize(s.Source)
		defer cleanup()
	}

	rep := Report{Results: make([]PageResult, 0, pageCount)}
	for i := 0; i < pageCount; i++ {
		if err := ctx.Err(); err != nil {
			rep.Err = err
			return rep
		}

		page := i + 1
		physical := i
		if s.Reorder {
			physical = mapping[i]
			if physical == signature.Unresolved {
				log.Warn().Int("page", page).Msg("no physical page for logical slot, skipping")
				metrics.ObservePage("skipped")
				rep.Results = append(rep.Results, PageResult{Page: page})
				continue
			}
		}

		target := filepath.Join(s.OutDir, PageFileName(page))
		rep.Results = append(rep.Results, s.renderOne(renderPath, page, physical, target, dpi))
	}

	log.Info().
		Int("pages", pageCount).
		Int("rendered", rep.Rendered()).
		Int("failed", rep.Failed()).
		Str("dir", s.OutDir).
		Msg("extraction stage finished")

	return rep
}

func (s Stage) renderOne(renderPath string, page, physical int, target string, dpi int) PageResult {
	res := PageResult{Page: page, Source: physical + 1}
	start := time.Now()

	img, err := render.Page(s.Opener, renderPath, physical, dpi)
	if err != nil {
		log.Error().Err(err).
			Int("physical_page", physical+1).
			Str("target", target).
			Msg("page render failed, skipping")
		metrics.ObservePage("failed")
		res.Err = err
		return res
	}

	if err := render.WritePNG(target, img); err != nil {
		log.Error().Err(err).
			Int("physical_page", physical+1).
			Str("target", target).
			Msg("page write failed, skipping")
		metrics.ObservePage("failed")
		res.Err = err
		return res
	}

	metrics.ObserveRender(time.Since(start))
	metrics.ObservePage("rendered")
	res.Path = target
	return res
}
