// Package detect finds words on a surface so they can be proposed as
// regions to redact.
package detect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/region"
)

// Word is one recognised word in source pixels.
type Word struct {
	Text       string
	Bounds     image.Rectangle
	Confidence float64
}

// Detector recognises words in an image.
type Detector interface {
	Words(ctx context.Context, img image.Image) ([]Word, error)
	Close() error
}

// Tesseract recognises words with a local Tesseract install.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract returns a detector for language lang, "eng" when empty.
func NewTesseract(lang string) (*Tesseract, error) {
	if lang == "" {
		lang = "eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	return &Tesseract{client: client}, nil
}

func (t *Tesseract) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

// Words runs word-level recognition over img.
func (t *Tesseract) Words(ctx context.Context, img image.Image) ([]Word, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get boxes: %w", err)
	}
	origin := img.Bounds().Min
	var words []Word
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		words = append(words, Word{Text: text, Bounds: b.Box.Add(origin), Confidence: b.Confidence})
	}
	return words, nil
}

// Options filter and shape matches.
type Options struct {
	// MinConfidence drops words Tesseract is less sure of (0..100).
	MinConfidence float64
	// Pad grows each word box by this many source pixels on every side.
	Pad int
}

// Match returns the bounds of every word whose text matches re.
func Match(words []Word, re *regexp.Regexp, opts Options) []image.Rectangle {
	var out []image.Rectangle
	for _, w := range words {
		if w.Confidence < opts.MinConfidence || !re.MatchString(w.Text) {
			continue
		}
		out = append(out, w.Bounds.Inset(-opts.Pad))
	}
	return out
}

// DisplayBoxes converts source-pixel rectangles to display-space boxes at
// scale, growing any that fall under the commit threshold about their
// centre.
func DisplayBoxes(rects []image.Rectangle, scale float64) []geometry.Box {
	out := make([]geometry.Box, 0, len(rects))
	for _, r := range rects {
		b := geometry.Box{
			StartX: float64(r.Min.X) * scale, StartY: float64(r.Min.Y) * scale,
			EndX: float64(r.Max.X) * scale, EndY: float64(r.Max.Y) * scale,
		}
		c := b.Center()
		if b.Width() < region.MinSize {
			b.StartX, b.EndX = c.X-region.MinSize/2, c.X+region.MinSize/2
		}
		if b.Height() < region.MinSize {
			b.StartY, b.EndY = c.Y-region.MinSize/2, c.Y+region.MinSize/2
		}
		out = append(out, b)
	}
	return out
}
