package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"

	"pdf-annotator-be/pkg/annotation"

	"golang.org/x/image/vector"
)

// Icon is an encoded PNG together with its pixel size.
type Icon struct {
	PNG    []byte
	Width  int
	Height int
}

// IconSet maps marker types to icon images. A type without an icon is valid;
// records of that type are skipped at export.
type IconSet struct {
	mu    sync.RWMutex
	dir   string
	icons map[annotation.Type]Icon
}

// IconFileName is the file looked up in an icon directory for t.
func IconFileName(t annotation.Type) string {
	return string(t) + ".png"
}

// LoadIconDir reads tick.png, cross.png and blue_mark.png from dir. Missing
// files are reported in the returned error but do not prevent the others from
// loading.
func LoadIconDir(dir string) (*IconSet, error) {
	s := &IconSet{dir: dir, icons: make(map[annotation.Type]Icon)}
	return s, s.Reload()
}

// Reload re-reads the icon directory. Sets without a directory are left as is.
func (s *IconSet) Reload() error {
	if s.dir == "" {
		return nil
	}
	icons := make(map[annotation.Type]Icon, len(annotation.Types))
	var errs []error
	for _, t := range annotation.Types {
		icon, err := readIcon(filepath.Join(s.dir, IconFileName(t)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t, err))
			continue
		}
		icons[t] = icon
	}

	s.mu.Lock()
	s.icons = icons
	s.mu.Unlock()
	return errors.Join(errs...)
}

func (s *IconSet) Dir() string {
	return s.dir
}

func (s *IconSet) Get(t annotation.Type) (Icon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	icon, ok := s.icons[t]
	return icon, ok
}

func readIcon(path string) (Icon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Icon{}, err
	}
	return newIcon(data)
}

func newIcon(data []byte) (Icon, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Icon{}, err
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return Icon{}, fmt.Errorf("empty image")
	}
	return Icon{PNG: data, Width: cfg.Width, Height: cfg.Height}, nil
}

// BuiltinIcons draws the default marker set at size x size pixels.
func BuiltinIcons(size int) (*IconSet, error) {
	if size <= 0 {
		size = 64
	}
	drawers := map[annotation.Type]func(*vector.Rasterizer, float32){
		annotation.TypeTick:     drawTick,
		annotation.TypeCross:    drawCross,
		annotation.TypeBlueMark: drawDisc,
	}
	colors := map[annotation.Type]color.RGBA{
		annotation.TypeTick:     {R: 0x1b, G: 0x9e, B: 0x3e, A: 0xff},
		annotation.TypeCross:    {R: 0xd6, G: 0x28, B: 0x28, A: 0xff},
		annotation.TypeBlueMark: {R: 0x1e, G: 0x63, B: 0xd6, A: 0xff},
	}

	s := &IconSet{icons: make(map[annotation.Type]Icon, len(drawers))}
	for _, t := range annotation.Types {
		img := image.NewNRGBA(image.Rect(0, 0, size, size))
		r := vector.NewRasterizer(size, size)
		drawers[t](r, float32(size))
		r.Draw(img, img.Bounds(), image.NewUniform(colors[t]), image.Point{})

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		s.icons[t] = Icon{PNG: buf.Bytes(), Width: size, Height: size}
	}
	return s, nil
}

// thickLine adds the quad covering a segment of width w.
func thickLine(r *vector.Rasterizer, x0, y0, x1, y1, w float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	nx, ny := -dy/l*w/2, dx/l*w/2
	r.MoveTo(x0+nx, y0+ny)
	r.LineTo(x1+nx, y1+ny)
	r.LineTo(x1-nx, y1-ny)
	r.LineTo(x0-nx, y0-ny)
	r.ClosePath()
}

func drawTick(r *vector.Rasterizer, s float32) {
	w := s * 0.14
	thickLine(r, s*0.15, s*0.55, s*0.40, s*0.80, w)
	thickLine(r, s*0.40, s*0.80, s*0.85, s*0.20, w)
}

func drawCross(r *vector.Rasterizer, s float32) {
	w := s * 0.14
	thickLine(r, s*0.2, s*0.2, s*0.8, s*0.8, w)
	thickLine(r, s*0.8, s*0.2, s*0.2, s*0.8, w)
}

func drawDisc(r *vector.Rasterizer, s float32) {
	const n = 48
	c, rad := s/2, s*0.4
	r.MoveTo(c+rad, c)
	for i := 1; i < n; i++ {
		a := 2 * math.Pi * float64(i) / n
		r.LineTo(c+rad*float32(math.Cos(a)), c+rad*float32(math.Sin(a)))
	}
	r.ClosePath()
}
