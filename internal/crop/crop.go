// Package crop slices previously rendered page rasters into horizontal
// strips. Rules select pages by their output number and define where each
// strip starts as a ratio of page height; strip order in the rule decides
// the sub-index in the output name.
package crop

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/markusmaresch/finnlo-pdf/internal/extract"
	"github.com/markusmaresch/finnlo-pdf/internal/metrics"
	"github.com/markusmaresch/finnlo-pdf/internal/render"
)

// Rule selects a set of pages and the strips to cut from each of them.
type Rule struct {
	Pages       []int     `toml:"pages"`
	Description string    `toml:"description"`
	Breaks      []float64 `toml:"breaks"`
	HeightRatio float64   `toml:"height_ratio"`
}

func (r Rule) validate() error {
	if len(r.Pages) == 0 {
		return fmt.Errorf("rule %q: no pages", r.Description)
	}
	if len(r.Breaks) == 0 {
		return fmt.Errorf("rule %q: no break ratios", r.Description)
	}
	for _, b := range r.Breaks {
		if b < 0 || b >= 1 {
			return fmt.Errorf("rule %q: break ratio %v outside [0,1)", r.Description, b)
		}
	}
	if r.HeightRatio <= 0 || r.HeightRatio > 1 {
		return fmt.Errorf("rule %q: height ratio %v outside (0,1]", r.Description, r.HeightRatio)
	}
	return nil
}

// StripFileName names the artifact for a 1-based page and strip index.
func StripFileName(page, strip int) string {
	return fmt.Sprintf("page_%02d_%02d.png", page, strip)
}

// StripResult records one written strip, or the reason a page was skipped
// (Strip is 0 for page-level skips).
type StripResult struct {
	Page  int
	Strip int
	Path  string
	Err   error
}

// Report is the batch outcome of a crop run. Per-page problems live in
// Results; Err is set only when the output directory cannot be created.
type Report struct {
	Results []StripResult
	Err     error
}

// OK reports the stage verdict.
func (r Report) OK() bool { return r.Err == nil }

// Written counts strips on disk.
func (r Report) Written() int {
	n := 0
	for _, sr := range r.Results {
		if sr.Err == nil {
			n++
		}
	}
	return n
}

// Skipped counts pages that were skipped or failed.
func (r Report) Skipped() int {
	n := 0
	for _, sr := range r.Results {
		if sr.Err != nil {
			n++
		}
	}
	return n
}

// Cropper applies an ordered rule table to the rasters in RasterDir. When
// two rules touch the same page and strip index, the later rule overwrites
// the earlier output.
type Cropper struct {
	RasterDir string
	OutDir    string
	Rules     []Rule
}

// Run executes all rules in table order.
func (c Cropper) Run(ctx context.Context) Report {
	start := time.Now()
	defer func() { metrics.ObserveStage("crop", time.Since(start)) }()

	var rep Report
	if len(c.Rules) == 0 {
		return rep
	}

	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		rep.Err = fmt.Errorf("create crop dir: %w", err)
		return rep
	}

	for _, rule := range c.Rules {
		if err := rule.validate(); err != nil {
			log.Error().Err(err).Msg("invalid crop rule, skipping")
			continue
		}
		for _, page := range rule.Pages {
			if err := ctx.Err(); err != nil {
				rep.Err = err
				return rep
			}
			rep.Results = append(rep.Results, c.cropPage(rule, page)...)
		}
	}

	log.Info().
		Int("strips", rep.Written()).
		Int("skipped", rep.Skipped()).
		Str("dir", c.OutDir).
		Msg("crop stage finished")

	return rep
}

func (c Cropper) cropPage(rule Rule, page int) []StripResult {
	raster := filepath.Join(c.RasterDir, extract.PageFileName(page))

	img, err := loadPNG(raster)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Int("page", page).Str("raster", raster).Str("rule", rule.Description).
				Msg("raster missing for crop rule, skipping page")
			metrics.IncCropSkip("missing")
		} else {
			log.Error().Err(err).Int("page", page).Str("raster", raster).
				Msg("raster unreadable, skipping page")
			metrics.IncCropSkip("failed")
		}
		return []StripResult{{Page: page, Err: err}}
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	stripHeight := int(float64(height) * rule.HeightRatio)

	results := make([]StripResult, 0, len(rule.Breaks))
	for s, ratio := range rule.Breaks {
		yStart := int(float64(height) * ratio)
		yEnd := yStart + stripHeight
		if yEnd > height {
			yEnd = height
		}

		strip := subImage(img, image.Rect(bounds.Min.X, bounds.Min.Y+yStart, bounds.Min.X+width, bounds.Min.Y+yEnd))
		target := filepath.Join(c.OutDir, StripFileName(page, s+1))

		if err := render.WritePNG(target, strip); err != nil {
			log.Error().Err(err).Int("page", page).Int("strip", s+1).Str("target", target).
				Msg("strip write failed, skipping page")
			metrics.IncCropSkip("failed")
			results = append(results, StripResult{Page: page, Strip: s + 1, Err: err})
			return results
		}

		metrics.IncStrip()
		log.Debug().Int("page", page).Int("strip", s+1).
			Int("y_start", yStart).Int("y_end", yEnd).
			Str("target", target).Msg("wrote strip")
		results = append(results, StripResult{Page: page, Strip: s + 1, Path: target})
	}

	return results
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// subImage shares pixels with the source when the decoded format allows it
// and falls back to a copy otherwise.
func subImage(img image.Image, rect image.Rectangle) image.Image {
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}
