package pdfdoc

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// PageCount returns the number of pages without opening a render context.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

// Normalize writes a cleaned working copy of the document and returns its
// path. Scanned booklets occasionally carry inherited-but-invisible drawing
// operations in their content streams; pdfcpu's optimize pass rewrites them
// so the renderer starts from a sane document. When pdfcpu cannot process
// the file the original path is returned and rendering proceeds from it.
// The returned cleanup removes the working copy and is safe to call always.
func Normalize(path string) (string, func()) {
	tmp, err := os.CreateTemp("", "finnlo-work-*.pdf")
	if err != nil {
		log.Warn().Err(err).Msg("normalize: temp file unavailable, rendering from source")
		return path, func() {}
	}
	workPath := tmp.Name()
	tmp.Close()

	if err := api.OptimizeFile(path, workPath, nil); err != nil {
		log.Warn().Err(err).Str("source", path).Msg("normalize: pdfcpu optimize failed, rendering from source")
		os.Remove(workPath)
		return path, func() {}
	}

	log.Debug().Str("source", path).Str("work", workPath).Msg("normalized content streams into working copy")
	return workPath, func() { os.Remove(workPath) }
}
