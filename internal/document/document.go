// Package document turns uploaded images and PDFs into editable surfaces and
// serialises edited surfaces back into a single output file.
package document

import (
	"errors"
	"fmt"
	"image"

	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/region"
)

// Kind is the type of a loaded document.
type Kind int

const (
	KindImage Kind = iota
	KindPDF
)

func (k Kind) String() string {
	if k == KindPDF {
		return "pdf"
	}
	return "image"
}

const (
	// MaxImageBytes is the upload ceiling for raster images.
	MaxImageBytes = 10 << 20
	// MaxPDFBytes is the upload ceiling for PDF documents.
	MaxPDFBytes = 20 << 20
	// PDFScale is the working resolution of rendered PDF pages relative to
	// the nominal 72 dpi page size.
	PDFScale = 2
	// DefaultDisplayWidth is the widest a surface is shown on screen before
	// it is scaled down.
	DefaultDisplayWidth = 800
)

var (
	// ErrInvalidInput rejects a file before any decode is attempted.
	ErrInvalidInput = errors.New("invalid input file")
	// ErrDecode reports a file that claims a valid type but cannot be read.
	ErrDecode = errors.New("decode failed")
	// ErrExport reports a failure to produce the output file.
	ErrExport = errors.New("export failed")
)

// InputError carries the user-facing reason a file was rejected.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// PageError names the page an ingestion or export step failed on. Pages
// are numbered from 1.
type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string { return fmt.Sprintf("page %d: %v", e.Page, e.Err) }

func (e *PageError) Unwrap() error { return e.Err }

// Surface is one working raster with the regions drawn over it. Region
// coordinates are in display space; DisplayScale maps source pixels onto
// display pixels.
type Surface struct {
	Source       *image.RGBA
	DisplayScale float64
	Regions      []region.Region
}

// NewSurface wraps src, scaling it down to fit displayWidth. A displayWidth
// of zero or less shows the surface at its native size.
func NewSurface(src *image.RGBA, displayWidth int) *Surface {
	return &Surface{Source: src, DisplayScale: DisplayScaleFor(src.Bounds().Dx(), displayWidth)}
}

// DisplayScaleFor returns min(1, displayWidth/srcWidth).
func DisplayScaleFor(srcWidth, displayWidth int) float64 {
	if displayWidth <= 0 || srcWidth <= 0 {
		return 1
	}
	return min(1, float64(displayWidth)/float64(srcWidth))
}

// SourceScale is the factor taking display coordinates to source pixels.
func (s *Surface) SourceScale() float64 {
	if s.DisplayScale <= 0 {
		return 1
	}
	return 1 / s.DisplayScale
}

// DisplaySize is the on-screen size of the surface in whole pixels.
func (s *Surface) DisplaySize() image.Point {
	b := s.Source.Bounds()
	return image.Pt(
		int(float64(b.Dx())*s.DisplayScale),
		int(float64(b.Dy())*s.DisplayScale),
	)
}

// ToDisplay converts a point in source pixels to display coordinates.
func (s *Surface) ToDisplay(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X * s.DisplayScale, Y: p.Y * s.DisplayScale}
}

// Document is an ordered list of surfaces. Images have exactly one.
type Document struct {
	Name  string
	Kind  Kind
	Pages []*Surface
}

// Page returns the surface at index i, or nil when out of range.
func (d *Document) Page(i int) *Surface {
	if i < 0 || i >= len(d.Pages) {
		return nil
	}
	return d.Pages[i]
}

// RegionCount totals the regions across every page.
func (d *Document) RegionCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Regions)
	}
	return n
}
