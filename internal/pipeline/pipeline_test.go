package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markusmaresch/finnlo-pdf/internal/config"
	"github.com/markusmaresch/finnlo-pdf/internal/crop"
	"github.com/markusmaresch/finnlo-pdf/internal/extract"
	"github.com/markusmaresch/finnlo-pdf/internal/pdfdoc"
)

type fakeOpener struct {
	pages    int
	failOpen bool
}

func (f *fakeOpener) Open(path string) (pdfdoc.Document, error) {
	if f.failOpen {
		return nil, errors.New("corrupt document")
	}
	return fakeDoc{pages: f.pages}, nil
}

type fakeDoc struct{ pages int }

func (d fakeDoc) NumPage() int { return d.pages }

func (d fakeDoc) ImageDPI(pageIndex int, dpi float64) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.RGBA{R: uint8(y), A: 255})
		}
	}
	return img, nil
}

func (d fakeDoc) Close() error { return nil }

func testConfig(t *testing.T) config.PipelineConfig {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "scan.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 fake"), 0o644))
	return config.PipelineConfig{
		Source:  src,
		RawDir:  filepath.Join(root, "pages"),
		CropDir: filepath.Join(root, "crops"),
		DPI:     72,
		Reorder: true,
	}
}

func TestRunFullPipeline(t *testing.T) {
	cfg := testConfig(t)
	rules := []crop.Rule{{
		Pages:       []int{1, 2},
		Description: "rows",
		Breaks:      []float64{0.1, 0.5},
		HeightRatio: 0.25,
	}}

	ok := New(cfg, rules, &fakeOpener{pages: 4}).Run(context.Background())
	require.True(t, ok)

	for p := 1; p <= 4; p++ {
		_, err := os.Stat(filepath.Join(cfg.RawDir, extract.PageFileName(p)))
		assert.NoError(t, err, "raster page %d", p)
	}
	for _, p := range []int{1, 2} {
		for s := 1; s <= 2; s++ {
			_, err := os.Stat(filepath.Join(cfg.CropDir, crop.StripFileName(p, s)))
			assert.NoError(t, err, "strip %d/%d", p, s)
		}
	}
}

func TestRunAbortsCropWhenExtractionFails(t *testing.T) {
	cfg := testConfig(t)
	rules := []crop.Rule{{
		Pages:       []int{1},
		Description: "rows",
		Breaks:      []float64{0.1},
		HeightRatio: 0.5,
	}}

	ok := New(cfg, rules, &fakeOpener{failOpen: true}).Run(context.Background())
	assert.False(t, ok)

	_, err := os.Stat(cfg.CropDir)
	assert.True(t, os.IsNotExist(err), "crop stage must not run after extraction failure")
}

func TestRunWithoutRulesSkipsCrop(t *testing.T) {
	cfg := testConfig(t)

	ok := New(cfg, nil, &fakeOpener{pages: 2}).Run(context.Background())
	require.True(t, ok)

	_, err := os.Stat(cfg.CropDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRunBadCropRuleDoesNotFailRun(t *testing.T) {
	cfg := testConfig(t)
	rules := []crop.Rule{{
		Pages:       []int{1},
		Description: "out of range break",
		Breaks:      []float64{1.5},
		HeightRatio: 0.5,
	}}

	ok := New(cfg, rules, &fakeOpener{pages: 2}).Run(context.Background())
	assert.True(t, ok, "a bad crop rule must not invalidate rendered pages")
}
