package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Pages is an opened PDF that renders page rasters on demand. Page
// indexes start at zero.
type Pages interface {
	NumPage() int
	Render(n int) (*image.RGBA, error)
	Close() error
}

// Rasterizer opens PDF bytes for rendering.
type Rasterizer interface {
	Open(data []byte) (Pages, error)
}

// MuPDF renders pages through MuPDF at DPI dots per inch.
type MuPDF struct {
	DPI float64
}

// Open implements Rasterizer.
func (m MuPDF) Open(data []byte) (Pages, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	dpi := m.DPI
	if dpi <= 0 {
		dpi = 72 * PDFScale
	}
	return &fitzPages{doc: doc, dpi: dpi}, nil
}

type fitzPages struct {
	doc *fitz.Document
	dpi float64
}

func (p *fitzPages) NumPage() int { return p.doc.NumPage() }

func (p *fitzPages) Render(n int) (*image.RGBA, error) { return p.doc.ImageDPI(n, p.dpi) }

func (p *fitzPages) Close() error { return p.doc.Close() }

var defaultRasterizer Rasterizer = MuPDF{DPI: 72 * PDFScale}

func init() {
	// Keep pdfcpu from creating its own config directory.
	model.ConfigPath = "disable"
}

// renderPDF rasterizes every page. A failing page aborts ingestion so no
// partial document is produced.
func renderPDF(ctx context.Context, data []byte, r Rasterizer) ([]*image.RGBA, error) {
	if r == nil {
		r = defaultRasterizer
	}
	pages, err := r.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrDecode, err)
	}
	defer func() {
		if err := pages.Close(); err != nil {
			log.Printf("close pdf: %v", err)
		}
	}()
	n := pages.NumPage()
	if n <= 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", ErrDecode)
	}
	out := make([]*image.RGBA, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := pages.Render(i)
		if err != nil {
			return nil, &PageError{Page: i + 1, Err: fmt.Errorf("%w: %v", ErrDecode, err)}
		}
		if img == nil || img.Bounds().Empty() {
			return nil, &PageError{Page: i + 1, Err: fmt.Errorf("%w: empty page", ErrDecode)}
		}
		out = append(out, anchor(img))
	}
	return out, nil
}

// anchor moves img's bounds to the origin without copying when possible.
func anchor(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		return img
	}
	out := *img
	out.Rect = image.Rect(0, 0, b.Dx(), b.Dy())
	out.Pix = img.Pix[img.PixOffset(b.Min.X, b.Min.Y):]
	return &out
}

// PageSize is a page's MediaBox size in PDF points.
type PageSize struct {
	Width, Height float64
}

// ProbePDF reports the size of every page without rendering.
func ProbePDF(data []byte) ([]PageSize, error) {
	dims, err := api.PageDims(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", ErrDecode)
	}
	out := make([]PageSize, len(dims))
	for i, d := range dims {
		out[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return out, nil
}

// countPages reads back the page count of an encoded PDF.
func countPages(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
}
