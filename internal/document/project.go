package document

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/example/blurkit/internal/region"
)

// Project is the serialisable edit state of a document: enough for an
// external save to restore every page's regions later.
type Project struct {
	Source string        `json:"source"`
	Kind   string        `json:"kind"`
	Pages  []ProjectPage `json:"pages"`
}

// ProjectPage carries one page's regions and the display scale their
// coordinates were drawn at.
type ProjectPage struct {
	DisplayScale float64         `json:"displayScale"`
	Regions      []region.Region `json:"regions"`
}

// Project captures the current regions of every page.
func (d *Document) Project() Project {
	p := Project{Source: d.Name, Kind: d.Kind.String()}
	for _, s := range d.Pages {
		regions := make([]region.Region, len(s.Regions))
		copy(regions, s.Regions)
		p.Pages = append(p.Pages, ProjectPage{DisplayScale: s.DisplayScale, Regions: regions})
	}
	return p
}

// WriteProject encodes p as indented JSON.
func WriteProject(w io.Writer, p Project) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// ReadProject decodes a project written by WriteProject.
func ReadProject(r io.Reader) (Project, error) {
	var p Project
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Project{}, fmt.Errorf("decode project: %w", err)
	}
	return p, nil
}

// ApplyProject replaces page regions with those saved in p. Every page is
// validated before any is changed.
func (d *Document) ApplyProject(p Project) error {
	if len(p.Pages) > len(d.Pages) {
		return fmt.Errorf("project has %d pages, document has %d", len(p.Pages), len(d.Pages))
	}
	for i, pg := range p.Pages {
		s := region.NewStore(nil)
		for _, r := range pg.Regions {
			if err := s.Add(r); err != nil {
				return &PageError{Page: i + 1, Err: err}
			}
		}
	}
	for i, pg := range p.Pages {
		surface := d.Pages[i]
		if pg.DisplayScale > 0 {
			surface.DisplayScale = pg.DisplayScale
		}
		surface.Regions = append([]region.Region(nil), pg.Regions...)
	}
	return nil
}
