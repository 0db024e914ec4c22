// Package render rasterizes single PDF pages and encodes them as PNG files.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/markusmaresch/finnlo-pdf/internal/pdfdoc"
)

// DefaultDPI is the render resolution used when the configuration does not
// override it.
const DefaultDPI = 300

// Page renders one physical page to a raster image.
//
// Every call opens its own document handle and closes it before returning,
// on success and failure alike. Rendering consecutive pages through a shared
// handle bled residual graphics state between pages on malformed scans, so
// the per-call handle is a correctness requirement, not a style choice.
func Page(opener pdfdoc.Opener, path string, pageIndex int, dpi int) (image.Image, error) {
	doc, err := opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	if n := doc.NumPage(); pageIndex < 0 || pageIndex >= n {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", pageIndex+1, n)
	}

	img, err := doc.ImageDPI(pageIndex, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", pageIndex+1, err)
	}

	bounds := img.Bounds()
	log.Debug().
		Int("page", pageIndex+1).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("dpi", dpi).
		Msg("rendered page")

	return img, nil
}

// WritePNG encodes img and writes it to path.
func WritePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
