package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/example/blurkit/internal/quota"
	"github.com/example/blurkit/internal/watermark"
)

// Exporter gates exports on the daily quota and watermarks free-tier
// output before handing it to a sink.
type Exporter struct {
	Quota *quota.Tracker
	Now   func() time.Time
}

// NewExporter returns an exporter charging tracker. A nil tracker exports
// without limits or watermark.
func NewExporter(tracker *quota.Tracker) *Exporter {
	return &Exporter{Quota: tracker, Now: time.Now}
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Result describes a finished export.
type Result struct {
	Name        string
	Path        string
	Watermarked bool
	Remaining   int
}

// WriteTo exports doc to w. When the quota is spent it returns
// quota.ErrQuotaExceeded without rendering. An export is only charged once
// w has taken all of it.
func (e *Exporter) WriteTo(ctx context.Context, w io.Writer, doc *Document) (Result, error) {
	res, data, err := e.encode(ctx, doc)
	if err != nil {
		return res, err
	}
	if _, err := w.Write(data); err != nil {
		return res, fmt.Errorf("%w: %v", ErrExport, err)
	}
	e.charge(&res)
	return res, nil
}

// Save exports doc into dir under its generated file name. The file only
// appears once the export has fully succeeded.
func (e *Exporter) Save(ctx context.Context, doc *Document, dir string) (Result, error) {
	if dir == "" {
		dir = "."
	}
	res, data, err := e.encode(ctx, doc)
	if err != nil {
		return res, err
	}
	path := filepath.Join(dir, res.Name)
	if err := writeFile(path, data); err != nil {
		return res, fmt.Errorf("%w: %v", ErrExport, err)
	}
	res.Path = path
	e.charge(&res)
	return res, nil
}

// SaveAs writes the export to path exactly.
func (e *Exporter) SaveAs(ctx context.Context, doc *Document, path string) (Result, error) {
	res, data, err := e.encode(ctx, doc)
	if err != nil {
		return res, err
	}
	if err := writeFile(path, data); err != nil {
		return res, fmt.Errorf("%w: %v", ErrExport, err)
	}
	res.Path = path
	res.Name = filepath.Base(path)
	e.charge(&res)
	return res, nil
}

// encode checks the quota and renders doc into memory, watermarked when the
// tier calls for it.
func (e *Exporter) encode(ctx context.Context, doc *Document) (Result, []byte, error) {
	res := Result{Name: FileName(doc.Kind, e.now()), Remaining: quota.Unlimited}
	var opts ExportOptions
	if e.Quota != nil {
		if err := e.Quota.Check(); err != nil {
			return res, nil, err
		}
		if watermark.ShouldWatermark(e.Quota.Tier) {
			res.Watermarked = true
			opts.Decorate = watermark.Stamp
		}
	}
	var buf bytes.Buffer
	if err := Encode(ctx, &buf, doc, opts); err != nil {
		return res, nil, err
	}
	return res, buf.Bytes(), nil
}

// charge records one export against the quota and fills in what is left.
func (e *Exporter) charge(res *Result) {
	if e.Quota == nil {
		return
	}
	if _, err := e.Quota.Record(); err != nil {
		log.Printf("record usage: %v", err)
	}
	if n, err := e.Quota.Remaining(); err == nil {
		res.Remaining = n
	}
}

// RenderActive renders page i with the same decoration an export would get,
// for handing to the clipboard.
func (e *Exporter) RenderActive(doc *Document, i int) (*image.RGBA, error) {
	p := doc.Page(i)
	if p == nil {
		return nil, fmt.Errorf("%w: no page %d", ErrExport, i+1)
	}
	img, err := p.Render()
	if err != nil {
		return nil, &PageError{Page: i + 1, Err: fmt.Errorf("%w: %w", ErrExport, err)}
	}
	if e.Quota != nil && watermark.ShouldWatermark(e.Quota.Tier) {
		if err := watermark.Stamp(img); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".blurkit-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
