// Package pdfdoc abstracts the PDF rendering backend so the reordering and
// cropping stages can be exercised against synthetic documents in tests.
package pdfdoc

import "image"

// Document is one open PDF. Implementations hold native resources and must
// be closed; callers open a fresh Document per page render so no graphics
// state survives from one page to the next.
type Document interface {
	NumPage() int
	ImageDPI(pageIndex int, dpi float64) (image.Image, error)
	Close() error
}

// Opener opens a PDF path into a Document.
type Opener interface {
	Open(path string) (Document, error)
}
