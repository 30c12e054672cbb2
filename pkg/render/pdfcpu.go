package render

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"pdf-annotator-be/pkg/annotation"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PdfcpuRenderer reads page geometry and burns icons into documents with pdfcpu.
type PdfcpuRenderer struct {
	icons *IconSet
}

func NewPdfcpuRenderer(icons *IconSet) *PdfcpuRenderer {
	return &PdfcpuRenderer{icons: icons}
}

// Inspect returns one descriptor per page, in page order.
func (r *PdfcpuRenderer) Inspect(path string, scale float64) ([]annotation.PageDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dims, err := pageDims(data)
	if err != nil {
		return nil, err
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	pages := make([]annotation.PageDescriptor, 0, len(dims))
	for i, d := range dims {
		pages = append(pages, annotation.PageDescriptor{
			PageNum:     i,
			OrigWidth:   d.Width,
			OrigHeight:  d.Height,
			RenderScale: scale,
		})
	}
	return pages, nil
}

// Open implements annotation.Renderer.
func (r *PdfcpuRenderer) Open(ctx context.Context, documentRef string) (annotation.Canvas, error) {
	data, err := os.ReadFile(documentRef)
	if err != nil {
		return nil, err
	}
	dims, err := pageDims(data)
	if err != nil {
		return nil, err
	}
	return &pdfcpuCanvas{
		source: data,
		dims:   dims,
		icons:  r.icons,
		stamps: make(map[int][]*model.Watermark),
	}, nil
}

func pageDims(data []byte) ([]types.Dim, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, err
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, err
	}
	return pdfCtx.PageDims()
}

// pdfcpuCanvas queues watermarks per page and applies them in one pass.
type pdfcpuCanvas struct {
	source []byte
	dims   []types.Dim
	icons  *IconSet
	// keyed by 1-based page number, as pdfcpu expects
	stamps map[int][]*model.Watermark
}

func (c *pdfcpuCanvas) PageCount() int {
	return len(c.dims)
}

func (c *pdfcpuCanvas) StampIcon(pageNum int, t annotation.Type, x, y, size float64) error {
	if pageNum < 0 || pageNum >= len(c.dims) {
		return fmt.Errorf("page %d out of range", pageNum)
	}
	icon, ok := c.icons.Get(t)
	if !ok {
		return annotation.ErrIconMissing
	}

	// Fit the icon into size x size keeping its aspect ratio, centered on
	// (x, y). pdfcpu offsets are measured from the bottom-left corner.
	longest := float64(max(icon.Width, icon.Height))
	scale := size / longest
	w := float64(icon.Width) * scale
	h := float64(icon.Height) * scale
	llx := x - w/2
	lly := c.dims[pageNum].Height - y - h/2

	desc := fmt.Sprintf("position:bl, offset:%.2f %.2f, scalefactor:%.6f abs, rotation:0, opacity:1", llx, lly, scale)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(icon.PNG), desc, true, false, types.POINTS)
	if err != nil {
		return err
	}
	c.stamps[pageNum+1] = append(c.stamps[pageNum+1], wm)
	return nil
}

func (c *pdfcpuCanvas) StampSummary(counts annotation.Counts) error {
	if len(c.dims) == 0 {
		return fmt.Errorf("document has no pages")
	}
	desc := "fontname:Helvetica, points:10, position:tl, offset:50 -20, scalefactor:1 abs, rotation:0, fillcolor:#000000, opacity:1"
	wm, err := api.TextWatermark(annotation.SummaryLine(counts), desc, true, false, types.POINTS)
	if err != nil {
		return err
	}
	c.stamps[1] = append(c.stamps[1], wm)
	return nil
}

func (c *pdfcpuCanvas) Bytes() ([]byte, error) {
	if len(c.stamps) == 0 {
		return append([]byte(nil), c.source...), nil
	}
	var out bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.AddWatermarksSliceMap(bytes.NewReader(c.source), &out, c.stamps, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (c *pdfcpuCanvas) Close() error {
	c.source = nil
	c.stamps = nil
	return nil
}
