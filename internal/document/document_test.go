package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/quota"
	"github.com/example/blurkit/internal/region"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	black = color.RGBA{A: 255}
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

type fakePages struct {
	pages  []*image.RGBA
	failAt int
	closed bool
}

func (f *fakePages) NumPage() int { return len(f.pages) }

func (f *fakePages) Render(n int) (*image.RGBA, error) {
	if n == f.failAt {
		return nil, fmt.Errorf("broken page")
	}
	return f.pages[n], nil
}

func (f *fakePages) Close() error {
	f.closed = true
	return nil
}

type fakeRasterizer struct{ pages *fakePages }

func (r fakeRasterizer) Open([]byte) (Pages, error) { return r.pages, nil }

func threePages() *fakePages {
	return &fakePages{
		pages:  []*image.RGBA{solid(40, 60, red), solid(40, 60, red), solid(40, 60, red)},
		failAt: -1,
	}
}

var pdfHeader = []byte("%PDF-1.4\n%fake\n")

func TestClassify(t *testing.T) {
	img := pngBytes(t, solid(4, 4, red))
	if k, err := Classify("x.bin", img); err != nil || k != KindImage {
		t.Fatalf("png: %v %v", k, err)
	}
	if k, err := Classify("doc", pdfHeader); err != nil || k != KindPDF {
		t.Fatalf("pdf: %v %v", k, err)
	}
	_, err := Classify("notes.txt", []byte("hello world"))
	var ie *InputError
	if !errors.As(err, &ie) || ie.Reason != "Please upload an image or PDF file" {
		t.Fatalf("text err = %v", err)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("InputError should match ErrInvalidInput")
	}
	big := append(append([]byte{}, img...), make([]byte, MaxImageBytes)...)
	if _, err := Classify("big.png", big); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized image err = %v", err)
	}
	bigPDF := append(append([]byte{}, pdfHeader...), make([]byte, MaxImageBytes)...)
	if _, err := Classify("big.pdf", bigPDF); err != nil {
		t.Fatalf("pdf under its own limit rejected: %v", err)
	}
}

func TestLoadImageSetsDisplayScale(t *testing.T) {
	doc, err := Load(context.Background(), "wide.png", pngBytes(t, solid(1600, 100, red)), Options{DisplayWidth: 800})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Kind != KindImage || len(doc.Pages) != 1 {
		t.Fatalf("got kind %v with %d pages", doc.Kind, len(doc.Pages))
	}
	if got := doc.Pages[0].DisplayScale; got != 0.5 {
		t.Fatalf("display scale = %v, want 0.5", got)
	}
	if got := doc.Pages[0].DisplaySize(); got != image.Pt(800, 50) {
		t.Fatalf("display size = %v", got)
	}
	if s := DisplayScaleFor(400, 800); s != 1 {
		t.Fatalf("narrow images should not be enlarged, got %v", s)
	}
}

func TestLoadCorruptImage(t *testing.T) {
	data := pngBytes(t, solid(4, 4, red))
	_, err := Load(context.Background(), "x.png", data[:20], Options{})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestLoadPDFPages(t *testing.T) {
	pages := threePages()
	doc, err := Load(context.Background(), "doc.pdf", pdfHeader, Options{Rasterizer: fakeRasterizer{pages}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Pages) != 3 || doc.Kind != KindPDF {
		t.Fatalf("got %d pages of %v", len(doc.Pages), doc.Kind)
	}
	for i, p := range doc.Pages {
		if len(p.Regions) != 0 {
			t.Fatalf("page %d starts with regions", i+1)
		}
	}
	if !pages.closed {
		t.Fatal("rasterizer not closed")
	}
}

func TestLoadPDFFailingPage(t *testing.T) {
	pages := threePages()
	pages.failAt = 1
	doc, err := Load(context.Background(), "doc.pdf", pdfHeader, Options{Rasterizer: fakeRasterizer{pages}})
	if doc != nil {
		t.Fatal("partial document returned")
	}
	var pe *PageError
	if !errors.As(err, &pe) || pe.Page != 2 {
		t.Fatalf("err = %v, want page 2 failure", err)
	}
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestEncodeImageSolidScenario(t *testing.T) {
	doc := &Document{Kind: KindImage, Pages: []*Surface{NewSurface(solid(100, 100, red), 0)}}
	doc.Pages[0].Regions = []region.Region{{
		ID:     "r1",
		Shape:  geometry.ShapeRectangle,
		Box:    geometry.Box{StartX: 10, StartY: 10, EndX: 50, EndY: 50},
		Effect: region.Effect{Kind: region.Solid, Intensity: 10, Color: black},
	}}
	var buf bytes.Buffer
	if err := Encode(context.Background(), &buf, doc, ExportOptions{}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			want := red
			if x >= 10 && x < 50 && y >= 10 && y < 50 {
				want = black
			}
			if got := color.RGBAModel.Convert(out.At(x, y)); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderUndoesDisplayScale(t *testing.T) {
	s := NewSurface(solid(200, 100, red), 100)
	if s.DisplayScale != 0.5 {
		t.Fatalf("display scale = %v", s.DisplayScale)
	}
	s.Regions = []region.Region{{
		ID:     "r1",
		Shape:  geometry.ShapeRectangle,
		Box:    geometry.Box{StartX: 5, StartY: 5, EndX: 25, EndY: 25},
		Effect: region.Effect{Kind: region.Solid, Color: black},
	}}
	img, err := s.Render()
	if err != nil {
		t.Fatal(err)
	}
	if img.RGBAAt(10, 10) != black || img.RGBAAt(49, 49) != black {
		t.Fatal("region not mapped to source pixels")
	}
	if img.RGBAAt(50, 50) != red || img.RGBAAt(9, 9) != red {
		t.Fatal("region spilled outside its source footprint")
	}
}

func TestEncodeIsRepeatable(t *testing.T) {
	doc := &Document{Kind: KindImage, Pages: []*Surface{NewSurface(solid(64, 64, red), 0)}}
	doc.Pages[0].Regions = []region.Region{{
		ID: "a", Shape: geometry.ShapeCircle,
		Box:    geometry.Box{StartX: 10, StartY: 10, EndX: 40, EndY: 50},
		Effect: region.Effect{Kind: region.Pixelate, Intensity: 6},
	}}
	var a, b bytes.Buffer
	if err := Encode(context.Background(), &a, doc, ExportOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := Encode(context.Background(), &b, doc, ExportOptions{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("exports differ")
	}
}

func TestEncodePDFPageCount(t *testing.T) {
	doc := &Document{Kind: KindPDF, Pages: []*Surface{
		NewSurface(solid(120, 170, red), 0),
		NewSurface(solid(170, 120, red), 0),
	}}
	var buf bytes.Buffer
	if err := Encode(context.Background(), &buf, doc, ExportOptions{}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	sizes, err := ProbePDF(buf.Bytes())
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if len(sizes) != 2 {
		t.Fatalf("got %d pages, want 2", len(sizes))
	}
	for i, s := range sizes {
		if math.Abs(s.Width-595.28) > 1 || math.Abs(s.Height-841.89) > 1 {
			t.Fatalf("page %d is %vx%v, want A4", i+1, s.Width, s.Height)
		}
	}
}

func smoothGradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / (w - 1)), G: uint8(y * 255 / (h - 1)), B: 128, A: 255})
		}
	}
	return img
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestPDFRoundTripWithoutRegions(t *testing.T) {
	page := smoothGradient(300, 200)
	pages := &fakePages{pages: []*image.RGBA{page}, failAt: -1}
	doc, err := Load(context.Background(), "doc.pdf", pdfHeader, Options{Rasterizer: fakeRasterizer{pages}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var buf bytes.Buffer
	if err := Encode(context.Background(), &buf, doc, ExportOptions{}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got []image.Image
	err = api.ExtractImages(bytes.NewReader(buf.Bytes()), nil, func(img model.Image, _ bool, _ int) error {
		decoded, _, err := image.Decode(img)
		if err != nil {
			return fmt.Errorf("decode %s: %w", img.Name, err)
		}
		if img.Width != 300 || img.Height != 200 {
			return fmt.Errorf("embedded image is %dx%d", img.Width, img.Height)
		}
		got = append(got, decoded)
		return nil
	}, model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("extracted %d images, want 1", len(got))
	}
	if b := got[0].Bounds(); b.Dx() != 300 || b.Dy() != 200 {
		t.Fatalf("decoded bounds %v", b)
	}
	worst, total := 0, 0
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			want := page.RGBAAt(x, y)
			c := color.RGBAModel.Convert(got[0].At(got[0].Bounds().Min.X+x, got[0].Bounds().Min.Y+y)).(color.RGBA)
			for _, d := range []int{absDiff(c.R, want.R), absDiff(c.G, want.G), absDiff(c.B, want.B)} {
				worst = max(worst, d)
				total += d
			}
		}
	}
	if mean := float64(total) / (300 * 200 * 3); worst > 24 || mean > 3 {
		t.Fatalf("page drifted from its render: worst %d mean %.2f", worst, mean)
	}
}

var placement = regexp.MustCompile(`([-0-9.]+) ([-0-9.]+) ([-0-9.]+) ([-0-9.]+) ([-0-9.]+) ([-0-9.]+) cm`)

func TestPDFPageFitsA4KeepingAspect(t *testing.T) {
	doc := &Document{Kind: KindPDF, Pages: []*Surface{NewSurface(smoothGradient(300, 200), 0)}}
	var buf bytes.Buffer
	if err := Encode(context.Background(), &buf, doc, ExportOptions{}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	dir := t.TempDir()
	if err := api.ExtractContent(bytes.NewReader(buf.Bytes()), dir, "out", nil, model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("extract content: %v", err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil || len(files) != 1 {
		t.Fatalf("content files %v, %v", files, err)
	}
	content, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	m := placement.FindStringSubmatch(string(content))
	if m == nil {
		t.Fatalf("no image placement in content:\n%s", content)
	}
	var mat [6]float64
	for i := range mat {
		fmt.Sscan(m[i+1], &mat[i])
	}
	w, h := mat[0], mat[3]
	if math.Abs(mat[1]) > 1e-3 || math.Abs(mat[2]) > 1e-3 {
		t.Fatalf("image placed rotated or skewed: %v", mat)
	}
	if math.Abs(w/h-1.5) > 0.01 {
		t.Fatalf("placed at %vx%v, aspect %v want 1.5", w, h, w/h)
	}
	if w > 595.28+0.5 || h > 841.89+0.5 || w < 0.9*595.28 {
		t.Fatalf("placed at %vx%v, want the A4 width filled", w, h)
	}
}

func TestEncodeWritesNothingOnFailure(t *testing.T) {
	doc := &Document{Kind: KindPDF, Pages: []*Surface{
		NewSurface(solid(10, 10, red), 0),
		{Source: nil, DisplayScale: 1},
	}}
	var buf bytes.Buffer
	err := Encode(context.Background(), &buf, doc, ExportOptions{})
	var pe *PageError
	if !errors.As(err, &pe) || pe.Page != 2 || !errors.Is(err, ErrExport) {
		t.Fatalf("err = %v, want export failure on page 2", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("%d bytes written despite failure", buf.Len())
	}
}

func TestFileName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got := FileName(KindImage, now); got != "blurred-image-1700000000123.png" {
		t.Errorf("image name = %q", got)
	}
	if got := FileName(KindPDF, now); got != "blurred-document-1700000000123.pdf" {
		t.Errorf("pdf name = %q", got)
	}
}

func TestExporterQuotaAndWatermark(t *testing.T) {
	now := time.Date(2026, 5, 6, 12, 0, 0, 0, time.Local)
	store := &quota.MemoryStore{Stats: quota.Stats{BlursToday: quota.FreeDailyLimit - 1, LastResetDate: quota.DateKey(now)}}
	tracker := &quota.Tracker{Tier: quota.Free, Store: store, Now: func() time.Time { return now }}
	e := &Exporter{Quota: tracker, Now: func() time.Time { return now }}
	doc := &Document{Kind: KindImage, Pages: []*Surface{NewSurface(solid(400, 200, red), 0)}}

	var buf bytes.Buffer
	res, err := e.WriteTo(context.Background(), &buf, doc)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !res.Watermarked || res.Remaining != 0 {
		t.Fatalf("result = %+v", res)
	}
	out, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if color.RGBAModel.Convert(out.At(200, 180)) == red {
		t.Fatal("watermark missing")
	}

	buf.Reset()
	if _, err := e.WriteTo(context.Background(), &buf, doc); !errors.Is(err, quota.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if buf.Len() != 0 {
		t.Fatal("blocked export wrote output")
	}
	if len(doc.Pages[0].Regions) != 0 || doc.Pages[0].Source.RGBAAt(200, 180) != red {
		t.Fatal("blocked export touched the document")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExporterChargesOnlyDeliveredExports(t *testing.T) {
	now := time.Date(2026, 5, 6, 12, 0, 0, 0, time.Local)
	store := &quota.MemoryStore{Stats: quota.Stats{BlursToday: 3, LastResetDate: quota.DateKey(now)}}
	tracker := &quota.Tracker{Tier: quota.Free, Store: store, Now: func() time.Time { return now }}
	e := &Exporter{Quota: tracker, Now: func() time.Time { return now }}
	doc := &Document{Kind: KindImage, Pages: []*Surface{NewSurface(solid(8, 8, red), 0)}}

	if _, err := e.WriteTo(context.Background(), failingWriter{}, doc); !errors.Is(err, ErrExport) {
		t.Fatalf("WriteTo err = %v", err)
	}
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SaveAs(context.Background(), doc, filepath.Join(blocker, "out.png")); !errors.Is(err, ErrExport) {
		t.Fatalf("SaveAs err = %v", err)
	}
	if _, err := e.Save(context.Background(), doc, blocker); !errors.Is(err, ErrExport) {
		t.Fatalf("Save err = %v", err)
	}
	if store.Stats.BlursToday != 3 {
		t.Fatalf("failed exports charged: %d used", store.Stats.BlursToday)
	}

	res, err := e.SaveAs(context.Background(), doc, filepath.Join(t.TempDir(), "out.png"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.Stats.BlursToday != 4 || res.Remaining != quota.FreeDailyLimit-4 {
		t.Fatalf("used %d remaining %d", store.Stats.BlursToday, res.Remaining)
	}
}

func TestExporterSaveNamesFile(t *testing.T) {
	now := time.UnixMilli(42)
	e := &Exporter{Now: func() time.Time { return now }}
	doc := &Document{Kind: KindImage, Pages: []*Surface{NewSurface(solid(8, 8, red), 0)}}
	dir := t.TempDir()
	res, err := e.Save(context.Background(), doc, dir)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(res.Path, "blurred-image-42.png") || res.Watermarked {
		t.Fatalf("result = %+v", res)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	pages := threePages()
	doc, err := Load(context.Background(), "doc.pdf", pdfHeader, Options{Rasterizer: fakeRasterizer{pages}})
	if err != nil {
		t.Fatal(err)
	}
	doc.Pages[1].Regions = []region.Region{{
		ID: "region-1-0", Shape: geometry.ShapeCircle,
		Box:    geometry.Box{StartX: 30, StartY: 5, EndX: 2, EndY: 40},
		Effect: region.DefaultEffect(),
	}}
	var buf bytes.Buffer
	if err := WriteProject(&buf, doc.Project()); err != nil {
		t.Fatal(err)
	}
	p, err := ReadProject(&buf)
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := Load(context.Background(), "doc.pdf", pdfHeader, Options{Rasterizer: fakeRasterizer{threePages()}})
	if err != nil {
		t.Fatal(err)
	}
	if err := fresh.ApplyProject(p); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if diff := cmp.Diff(doc.Project(), fresh.Project()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestApplyProjectRejectsDuplicates(t *testing.T) {
	doc := &Document{Kind: KindImage, Pages: []*Surface{NewSurface(solid(40, 40, red), 0)}}
	r := region.Region{ID: "dup", Box: geometry.Box{EndX: 20, EndY: 20}, Effect: region.DefaultEffect()}
	err := doc.ApplyProject(Project{Pages: []ProjectPage{{DisplayScale: 1, Regions: []region.Region{r, r}}}})
	if !errors.Is(err, region.ErrDuplicateID) {
		t.Fatalf("err = %v", err)
	}
	if len(doc.Pages[0].Regions) != 0 {
		t.Fatal("rejected project was partially applied")
	}
}

func TestFromImageAnchorsAndScales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1600, 100))
	sub := src.SubImage(image.Rect(800, 0, 1600, 100)).(*image.RGBA)
	doc, err := FromImage("clipboard", sub, Options{DisplayWidth: 400})
	if err != nil {
		t.Fatal(err)
	}
	p := doc.Pages[0]
	if p.Source.Bounds() != image.Rect(0, 0, 800, 100) {
		t.Fatalf("bounds = %v", p.Source.Bounds())
	}
	if p.DisplayScale != 0.5 || doc.Kind != KindImage {
		t.Fatalf("scale %v kind %v", p.DisplayScale, doc.Kind)
	}
	if _, err := FromImage("x", nil, Options{}); !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v", err)
	}
}

func TestLimitWriterStopsPastCeiling(t *testing.T) {
	w := &limitWriter{max: 8}
	if _, err := w.Write(make([]byte, 8)); err != nil {
		t.Fatalf("write at limit: %v", err)
	}
	if _, err := w.Write([]byte{0}); !errors.Is(err, errTooLarge) {
		t.Fatalf("err = %v", err)
	}
}
