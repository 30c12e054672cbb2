package render

import (
	"bytes"
	"errors"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// FitzRasterizer renders pages to PNG with MuPDF.
type FitzRasterizer struct{}

func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

// ErrPageOutOfRange is returned when the requested page does not exist.
var ErrPageOutOfRange = errors.New("page out of range")

// RenderPage rasterizes the 0-based page at scale times its native size.
func (r *FitzRasterizer) RenderPage(path string, pageNum int, scale float64) ([]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if pageNum < 0 || pageNum >= doc.NumPage() {
		return nil, ErrPageOutOfRange
	}

	img, err := doc.ImageDPI(pageNum, 72*scale)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
