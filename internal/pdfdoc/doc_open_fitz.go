package pdfdoc

import (
	"image"

	fitz "github.com/gen2brain/go-fitz"
)

// FitzOpener implements Opener using github.com/gen2brain/go-fitz (MuPDF).
type FitzOpener struct{}

func (FitzOpener) Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return fitzDoc{doc}, nil
}

type fitzDoc struct{ *fitz.Document }

func (d fitzDoc) ImageDPI(pageIndex int, dpi float64) (image.Image, error) {
	return d.Document.ImageDPI(pageIndex, dpi)
}
