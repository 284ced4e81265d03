package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const unsupportedMessage = "Please upload an image or PDF file"

// Options control how a file becomes surfaces.
type Options struct {
	// DisplayWidth caps the on-screen width of every surface. Zero keeps
	// surfaces at native size.
	DisplayWidth int
	// Rasterizer renders PDF pages. Nil uses the MuPDF backend.
	Rasterizer Rasterizer
}

// Classify decides whether data is an image or a PDF and enforces the size
// ceiling for that kind. It never decodes the payload.
func Classify(name string, data []byte) (Kind, error) {
	kind, ok := sniff(name, data)
	if !ok {
		return 0, &InputError{Reason: unsupportedMessage}
	}
	if kind == KindPDF && len(data) > MaxPDFBytes {
		return 0, &InputError{Reason: "PDF size must be less than 20MB"}
	}
	if kind == KindImage && len(data) > MaxImageBytes {
		return 0, &InputError{Reason: "Image size must be less than 10MB"}
	}
	return kind, nil
}

func sniff(name string, data []byte) (Kind, bool) {
	if k, ok := kindOf(http.DetectContentType(data)); ok {
		return k, true
	}
	return kindOf(mime.TypeByExtension(strings.ToLower(filepath.Ext(name))))
}

func kindOf(contentType string) (Kind, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return 0, false
	}
	switch {
	case mt == "application/pdf":
		return KindPDF, true
	case strings.HasPrefix(mt, "image/"):
		return KindImage, true
	}
	return 0, false
}

// Load classifies data and turns it into a document. On any failure no
// document is returned.
func Load(ctx context.Context, name string, data []byte, opts Options) (*Document, error) {
	kind, err := Classify(name, data)
	if err != nil {
		return nil, err
	}
	doc := &Document{Name: name, Kind: kind}
	switch kind {
	case KindImage:
		img, err := DecodeImage(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		doc.Pages = []*Surface{NewSurface(img, opts.DisplayWidth)}
	case KindPDF:
		pages, err := renderPDF(ctx, data, opts.Rasterizer)
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			doc.Pages = append(doc.Pages, NewSurface(p, opts.DisplayWidth))
		}
	}
	log.Printf("loaded %s %q: %d page(s)", kind, name, len(doc.Pages))
	return doc, nil
}

// LoadFile reads path and loads it. Oversized files are rejected before
// they are read.
func LoadFile(ctx context.Context, path string, opts Options) (*Document, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.Size() > MaxPDFBytes {
		return nil, &InputError{Reason: "File size must be less than 20MB"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Load(ctx, filepath.Base(path), data, opts)
}

// DecodeImage decodes any registered raster format into an RGBA image
// anchored at the origin.
func DecodeImage(r io.Reader) (*image.RGBA, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba, nil
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out, nil
}

// FromImage wraps an already decoded raster, such as a clipboard paste, as a
// single-page image document.
func FromImage(name string, img *image.RGBA, opts Options) (*Document, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	// A paste obeys the upload ceiling, measured as the PNG it would travel as.
	if err := png.Encode(&limitWriter{max: MaxImageBytes}, img); errors.Is(err, errTooLarge) {
		return nil, &InputError{Reason: "Image size must be less than 10MB"}
	}
	if img.Bounds().Min != (image.Point{}) {
		img = anchor(img)
	}
	return &Document{Name: name, Kind: KindImage, Pages: []*Surface{NewSurface(img, opts.DisplayWidth)}}, nil
}

var errTooLarge = errors.New("payload over size limit")

type limitWriter struct{ n, max int }

func (w *limitWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	if w.n > w.max {
		return 0, errTooLarge
	}
	return len(p), nil
}
