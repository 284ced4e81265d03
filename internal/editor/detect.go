package editor

import (
	"context"
	"fmt"
	"regexp"

	"github.com/example/blurkit/internal/detect"
	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/region"
)

// Detect proposes a rectangle over every word on the active page matching
// re and commits each one with the current effect. Every region is its own
// undo step.
func (s *Session) Detect(ctx context.Context, d detect.Detector, re *regexp.Regexp, opts detect.Options) ([]region.Region, error) {
	surface := s.Surface()
	words, err := d.Words(ctx, surface.Source)
	if err != nil {
		return nil, fmt.Errorf("detect text: %w", err)
	}
	boxes := detect.DisplayBoxes(detect.Match(words, re, opts), surface.DisplayScale)
	added := make([]region.Region, 0, len(boxes))
	for _, b := range boxes {
		r, err := s.Add(geometry.ShapeRectangle, b, s.state.Effect)
		if err != nil {
			return added, err
		}
		added = append(added, r)
	}
	return added, nil
}
