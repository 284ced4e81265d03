package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/term"

	"github.com/example/blurkit/internal/appstate"
	"github.com/example/blurkit/internal/clipboard"
	"github.com/example/blurkit/internal/detect"
	"github.com/example/blurkit/internal/document"
	"github.com/example/blurkit/internal/editor"
	"github.com/example/blurkit/internal/geometry"
	"github.com/example/blurkit/internal/quota"
	"github.com/example/blurkit/internal/region"
	"github.com/example/blurkit/internal/theme"
)

// Seams for tests.
var (
	writeClipboardImage = clipboard.WriteImage
	newDetector         = func(lang string) (detect.Detector, error) { return detect.NewTesseract(lang) }
	stdout              io.Writer = os.Stdout
	stdoutIsTerminal    = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
)

// shapeSpec is one region given on the command line, in source pixels.
type shapeSpec struct {
	shape  geometry.Shape
	coords []int
}

// redactCmd applies regions to a document without opening a window.
type redactCmd struct {
	file          string
	output        string
	page          int
	effectName    string
	intensity     int
	colorSpec     string
	regionsFile   string
	detectPattern string
	lang          string
	minConfidence float64
	pad           int
	toClipboard   bool

	effect  region.Effect
	pattern *regexp.Regexp
	shapes  []shapeSpec
	*root
	fs *flag.FlagSet
}

func (rc *redactCmd) FlagSet() *flag.FlagSet {
	return rc.fs
}

var redactFlagNames = map[string]struct{}{
	"file":           {},
	"output":         {},
	"page":           {},
	"effect":         {},
	"intensity":      {},
	"color":          {},
	"regions":        {},
	"detect":         {},
	"lang":           {},
	"min-confidence": {},
	"pad":            {},
	"to-clipboard":   {},
	"to-clip":        {},
}

var redactBoolFlags = map[string]struct{}{
	"to-clipboard": {},
	"to-clip":      {},
}

func parseRedactCmd(args []string, r *root) (*redactCmd, error) {
	fs := flag.NewFlagSet("redact", flag.ExitOnError)
	rc := &redactCmd{root: r.subcommand("redact"), fs: fs}
	fs.Usage = usageFunc(rc)
	fs.StringVar(&rc.file, "file", "", "input image or PDF")
	fs.StringVar(&rc.output, "output", "", "output path, - for stdout (defaults to a timestamped file in the save directory)")
	fs.IntVar(&rc.page, "page", 1, "page the regions apply to, counting from 1")
	fs.StringVar(&rc.effectName, "effect", "", "gaussian (blur), pixelate or solid (defaults to the configured effect)")
	fs.IntVar(&rc.intensity, "intensity", 0, fmt.Sprintf("blur radius or pixel cell size, %d..%d", region.MinIntensity, region.MaxIntensity))
	fs.StringVar(&rc.colorSpec, "color", "", "fill color name or hex value for solid regions")
	fs.StringVar(&rc.regionsFile, "regions", "", "project JSON whose regions are applied first")
	fs.StringVar(&rc.detectPattern, "detect", "", "redact every recognised word matching this regular expression")
	fs.StringVar(&rc.lang, "lang", "eng", "tesseract language for -detect")
	fs.Float64Var(&rc.minConfidence, "min-confidence", 60, "ignore detected words below this confidence (0..100)")
	fs.IntVar(&rc.pad, "pad", 2, "grow detected word boxes by this many pixels")
	fs.BoolVar(&rc.toClipboard, "to-clipboard", false, "copy the redacted page to the clipboard")
	fs.BoolVar(&rc.toClipboard, "to-clip", false, "copy the redacted page to the clipboard (alias)")

	flagArgs, positionals, err := splitRedactArgs(args)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}
	if rc.file == "" {
		return nil, &UsageError{of: rc}
	}
	if rc.shapes, err = parseShapes(positionals); err != nil {
		return nil, err
	}
	if len(rc.shapes) == 0 && rc.regionsFile == "" && rc.detectPattern == "" {
		return nil, fmt.Errorf("nothing to redact: give shapes, -regions or -detect")
	}
	if rc.page < 1 {
		return nil, fmt.Errorf("page must be 1 or more")
	}
	if rc.detectPattern != "" {
		if rc.pattern, err = regexp.Compile(rc.detectPattern); err != nil {
			return nil, fmt.Errorf("invalid -detect pattern: %w", err)
		}
	}
	if rc.effect, err = rc.resolveEffect(); err != nil {
		return nil, err
	}
	if rc.output == "-" && rc.toClipboard {
		return nil, fmt.Errorf("-output - cannot be used with -to-clipboard")
	}
	return rc, nil
}

// resolveEffect starts from the configured effect and applies any flags.
func (rc *redactCmd) resolveEffect() (region.Effect, error) {
	fx := rc.config.Editor.RegionEffect()
	if rc.effectName != "" {
		k, err := region.ParseEffectKind(rc.effectName)
		if err != nil {
			return fx, err
		}
		fx.Kind = k
	}
	if rc.intensity != 0 {
		fx.Intensity = region.ClampIntensity(rc.intensity)
	}
	if rc.colorSpec != "" {
		c, err := parseColor(rc.colorSpec)
		if err != nil {
			return fx, err
		}
		fx.Color = c
	}
	return fx, nil
}

func parseColor(s string) (color.RGBA, error) {
	spec := strings.ToLower(strings.TrimSpace(s))
	if spec == "" {
		return color.RGBA{}, fmt.Errorf("color cannot be empty")
	}
	if c, ok := colornames.Map[spec]; ok {
		return c, nil
	}
	for _, entry := range appstate.Palette() {
		if strings.EqualFold(entry.Name, spec) {
			return entry.Color, nil
		}
	}
	if strings.HasPrefix(spec, "#") {
		return theme.ParseFillColor(spec)
	}
	return color.RGBA{}, fmt.Errorf("invalid color %q", s)
}

// parseShapes reads repeated "rect|circle x0 y0 x1 y1" groups.
func parseShapes(args []string) ([]shapeSpec, error) {
	var out []shapeSpec
	for len(args) > 0 {
		shape, err := geometry.ParseShape(args[0])
		if err != nil {
			return nil, fmt.Errorf("unsupported shape %q", args[0])
		}
		n := min(4, len(args)-1)
		coords, err := expectInts(args[1:1+n], 4, args[0])
		if err != nil {
			return nil, err
		}
		out = append(out, shapeSpec{shape: shape, coords: coords})
		args = args[1+n:]
	}
	return out, nil
}

func expectInts(args []string, n int, shape string) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s requires %d integer arguments", shape, n)
	}
	vals := make([]int, n)
	for i, raw := range args {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		vals[i] = v
	}
	return vals, nil
}

// splitRedactArgs lets flags appear after shape specs.
func splitRedactArgs(args []string) ([]string, []string, error) {
	var flags []string
	var positionals []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if name == "" {
			positionals = append(positionals, arg)
			continue
		}
		parts := strings.SplitN(name, "=", 2)
		base := strings.ToLower(parts[0])
		if _, ok := redactFlagNames[base]; !ok {
			positionals = append(positionals, arg)
			continue
		}
		norm := "-" + base
		if len(parts) == 2 {
			flags = append(flags, norm+"="+parts[1])
			continue
		}
		if _, ok := redactBoolFlags[base]; ok {
			flags = append(flags, norm)
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("flag %s requires a value", arg)
		}
		flags = append(flags, norm, args[i+1])
		i++
	}
	return flags, positionals, nil
}

func (rc *redactCmd) Run() error {
	ctx := context.Background()
	doc, err := document.LoadFile(ctx, rc.file, document.Options{})
	if err != nil {
		return fmt.Errorf("open %s: %w", rc.file, err)
	}
	if rc.regionsFile != "" {
		if err := applyRegionsFile(doc, rc.regionsFile); err != nil {
			return err
		}
	}
	session, err := editor.NewSession(doc, editor.WithEffect(rc.effect))
	if err != nil {
		return err
	}
	if err := session.SwitchPage(rc.page - 1); err != nil {
		return err
	}
	added, err := rc.addShapes(session)
	if err != nil {
		return err
	}
	if rc.pattern != nil {
		found, err := rc.detect(ctx, session)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "detected %d matching word(s)\n", found)
		added += found
	}

	exp, err := rc.exporter()
	if err != nil {
		return err
	}
	res, err := rc.export(ctx, exp, doc)
	if errors.Is(err, quota.ErrQuotaExceeded) {
		rc.notifyQuota(0)
		return err
	}
	if err != nil {
		return err
	}
	if res.Path != "" {
		saved := res.Path
		if abs, err := filepath.Abs(res.Path); err == nil {
			saved = abs
		}
		fmt.Fprintf(os.Stderr, "saved %s (%d region(s) on page %d)\n", saved, added, rc.page)
		var preview image.Image
		if doc.Kind == document.KindPDF {
			if img, err := session.Composite(); err == nil {
				preview = img
			}
		}
		rc.notifyExport(saved, preview)
	} else {
		fmt.Fprintln(os.Stderr, "wrote export to stdout")
	}
	if res.Watermarked {
		fmt.Fprintln(os.Stderr, "free tier: export is watermarked")
	}
	rc.notifyQuota(res.Remaining)

	if rc.toClipboard {
		img, err := exp.RenderActive(doc, session.Page())
		if err != nil {
			return err
		}
		if err := writeClipboardImage(img); err != nil {
			return fmt.Errorf("copy PNG to clipboard: %w", err)
		}
		detail := fmt.Sprintf("page %d", rc.page)
		if doc.Kind == document.KindImage {
			detail = filepath.Base(rc.file)
		}
		fmt.Fprintf(os.Stderr, "copied %s to clipboard\n", detail)
		rc.notifyCopy(detail)
	}
	return nil
}

func applyRegionsFile(doc *document.Document, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open regions: %w", err)
	}
	defer f.Close()
	p, err := document.ReadProject(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := doc.ApplyProject(p); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// addShapes commits each command-line shape, converting source pixels to
// the page's display space.
func (rc *redactCmd) addShapes(s *editor.Session) (int, error) {
	surface := s.Surface()
	for i, spec := range rc.shapes {
		c := spec.coords
		a := surface.ToDisplay(geometry.Point{X: float64(c[0]), Y: float64(c[1])})
		b := surface.ToDisplay(geometry.Point{X: float64(c[2]), Y: float64(c[3])})
		if _, err := s.Add(spec.shape, geometry.BoxFrom(a, b), rc.effect); err != nil {
			return i, fmt.Errorf("shape %d: %w", i+1, err)
		}
	}
	return len(rc.shapes), nil
}

func (rc *redactCmd) detect(ctx context.Context, s *editor.Session) (int, error) {
	d, err := newDetector(rc.lang)
	if err != nil {
		return 0, err
	}
	defer d.Close()
	added, err := s.Detect(ctx, d, rc.pattern, detect.Options{MinConfidence: rc.minConfidence, Pad: rc.pad})
	return len(added), err
}

func (rc *redactCmd) export(ctx context.Context, exp *document.Exporter, doc *document.Document) (document.Result, error) {
	switch rc.output {
	case "-":
		if stdoutIsTerminal() {
			return document.Result{}, fmt.Errorf("refusing to write %s data to a terminal", doc.Kind)
		}
		return exp.WriteTo(ctx, stdout, doc)
	case "":
		return exp.Save(ctx, doc, rc.config.SaveDir)
	default:
		return exp.SaveAs(ctx, doc, rc.output)
	}
}
