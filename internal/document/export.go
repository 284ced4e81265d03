package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/example/blurkit/internal/effect"
)

// JPEGQuality is used for every page embedded in an exported PDF.
const JPEGQuality = 95

// Render recomposites the surface at full source resolution.
func (s *Surface) Render() (*image.RGBA, error) {
	return effect.Composite(s.Source, s.Regions, s.SourceScale())
}

// FileName is the download name for an export of kind made at now.
func FileName(kind Kind, now time.Time) string {
	if kind == KindPDF {
		return fmt.Sprintf("blurred-document-%d.pdf", now.UnixMilli())
	}
	return fmt.Sprintf("blurred-image-%d.png", now.UnixMilli())
}

// ExportOptions adjust every rendered page before it is encoded.
type ExportOptions struct {
	Decorate func(*image.RGBA) error
}

// Encode renders every page of doc and writes the output file to w: a PNG
// for images, a multi-page PDF otherwise. Nothing is written unless every
// page succeeds.
func Encode(ctx context.Context, w io.Writer, doc *Document, opts ExportOptions) error {
	if len(doc.Pages) == 0 {
		return fmt.Errorf("%w: document has no pages", ErrExport)
	}
	pages, err := renderAll(ctx, doc, opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if doc.Kind == KindPDF {
		err = encodePDF(&buf, pages)
	} else {
		err = png.Encode(&buf, pages[0])
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%w: write: %v", ErrExport, err)
	}
	return nil
}

func renderAll(ctx context.Context, doc *Document, opts ExportOptions) ([]*image.RGBA, error) {
	out := make([]*image.RGBA, 0, len(doc.Pages))
	for i, p := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := p.Render()
		if err != nil {
			return nil, &PageError{Page: i + 1, Err: fmt.Errorf("%w: %w", ErrExport, err)}
		}
		if opts.Decorate != nil {
			if err := opts.Decorate(img); err != nil {
				return nil, &PageError{Page: i + 1, Err: fmt.Errorf("%w: %w", ErrExport, err)}
			}
		}
		out = append(out, img)
	}
	return out, nil
}

// importConfig places each page image on an A4 page, scaled to fit while
// keeping its aspect ratio, anchored top-left.
func importConfig() *pdfcpu.Import {
	imp := pdfcpu.DefaultImportConfig()
	imp.PageSize = "A4"
	imp.PageDim = types.PaperSize["A4"]
	imp.Pos = types.TopLeft
	imp.Scale = 1.0
	imp.ScaleAbs = false
	return imp
}

func encodePDF(w io.Writer, pages []*image.RGBA) error {
	readers := make([]io.Reader, 0, len(pages))
	for i, img := range pages {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return &PageError{Page: i + 1, Err: err}
		}
		readers = append(readers, &buf)
	}
	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, importConfig(), model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("assemble pdf: %w", err)
	}
	n, err := countPages(out.Bytes())
	if err != nil {
		return fmt.Errorf("verify pdf: %w", err)
	}
	if n != len(pages) {
		return fmt.Errorf("assembled pdf has %d pages, want %d", n, len(pages))
	}
	_, err = out.WriteTo(w)
	return err
}
