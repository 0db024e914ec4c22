package crop

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markusmaresch/finnlo-pdf/internal/extract"
)

// writeRaster writes a page raster whose every row encodes its own y
// coordinate (low byte in red, high byte in green), so a decoded strip
// reveals exactly which pixel rows it came from.
func writeRaster(t *testing.T, dir string, page, width, height int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(y), G: uint8(y >> 8), A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, extract.PageFileName(page)))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func decodeStrip(t *testing.T, path string) (topRow, height, width int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	b := img.Bounds()
	r, g, _, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	return int(r>>8) | int(g>>8)<<8, b.Dy(), b.Dx()
}

func TestRunStripGeometry(t *testing.T) {
	rasterDir := t.TempDir()
	outDir := t.TempDir()
	writeRaster(t, rasterDir, 1, 100, 1000)

	c := Cropper{
		RasterDir: rasterDir,
		OutDir:    outDir,
		Rules: []Rule{{
			Pages:       []int{1},
			Description: "exercise rows",
			Breaks:      []float64{0.07, 0.36, 0.65},
			HeightRatio: 0.3,
		}},
	}
	rep := c.Run(context.Background())

	require.True(t, rep.OK())
	assert.Equal(t, 3, rep.Written())

	wantTop := []int{70, 360, 650}
	for s, top := range wantTop {
		gotTop, gotHeight, gotWidth := decodeStrip(t, filepath.Join(outDir, StripFileName(1, s+1)))
		assert.Equal(t, top, gotTop, "strip %d start row", s+1)
		assert.Equal(t, 300, gotHeight, "strip %d height", s+1)
		assert.Equal(t, 100, gotWidth, "strip %d must span full width", s+1)
	}
}

func TestRunClampsStripToImageBottom(t *testing.T) {
	rasterDir := t.TempDir()
	outDir := t.TempDir()
	writeRaster(t, rasterDir, 1, 20, 1000)

	c := Cropper{
		RasterDir: rasterDir,
		OutDir:    outDir,
		Rules: []Rule{{
			Pages:       []int{1},
			Description: "tail strip",
			Breaks:      []float64{0.9},
			HeightRatio: 0.3,
		}},
	}
	rep := c.Run(context.Background())

	require.True(t, rep.OK())
	gotTop, gotHeight, _ := decodeStrip(t, filepath.Join(outDir, StripFileName(1, 1)))
	assert.Equal(t, 900, gotTop)
	assert.Equal(t, 100, gotHeight)
}

func TestRunMissingRasterSkipsPage(t *testing.T) {
	rasterDir := t.TempDir()
	outDir := t.TempDir()
	writeRaster(t, rasterDir, 1, 20, 100)

	c := Cropper{
		RasterDir: rasterDir,
		OutDir:    outDir,
		Rules: []Rule{{
			Pages:       []int{1, 2},
			Description: "both pages",
			Breaks:      []float64{0.1},
			HeightRatio: 0.5,
		}},
	}
	rep := c.Run(context.Background())

	require.True(t, rep.OK(), "a missing raster must not fail the run")
	assert.Equal(t, 1, rep.Written())
	assert.Equal(t, 1, rep.Skipped())

	_, err := os.Stat(filepath.Join(outDir, StripFileName(2, 1)))
	assert.True(t, os.IsNotExist(err))
}

func TestRunInvalidRuleIsSkipped(t *testing.T) {
	rasterDir := t.TempDir()
	outDir := t.TempDir()
	writeRaster(t, rasterDir, 1, 20, 100)

	c := Cropper{
		RasterDir: rasterDir,
		OutDir:    outDir,
		Rules: []Rule{
			{Pages: []int{1}, Description: "bad break", Breaks: []float64{1.2}, HeightRatio: 0.5},
			{Pages: []int{1}, Description: "good", Breaks: []float64{0.2}, HeightRatio: 0.5},
		},
	}
	rep := c.Run(context.Background())

	require.True(t, rep.OK())
	assert.Equal(t, 1, rep.Written(), "only the valid rule may produce output")
}

func TestRunLaterRuleOverwritesEarlier(t *testing.T) {
	rasterDir := t.TempDir()
	outDir := t.TempDir()
	writeRaster(t, rasterDir, 1, 20, 1000)

	c := Cropper{
		RasterDir: rasterDir,
		OutDir:    outDir,
		Rules: []Rule{
			{Pages: []int{1}, Description: "first", Breaks: []float64{0.1}, HeightRatio: 0.1},
			{Pages: []int{1}, Description: "second", Breaks: []float64{0.5}, HeightRatio: 0.1},
		},
	}
	rep := c.Run(context.Background())

	require.True(t, rep.OK())
	gotTop, _, _ := decodeStrip(t, filepath.Join(outDir, StripFileName(1, 1)))
	assert.Equal(t, 500, gotTop, "rule order decides which output wins")
}

func TestRunNoRules(t *testing.T) {
	rep := Cropper{RasterDir: t.TempDir(), OutDir: filepath.Join(t.TempDir(), "crops")}.Run(context.Background())
	require.True(t, rep.OK())
	assert.Empty(t, rep.Results)
}
