package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/example/blurkit/internal/config"
	"github.com/example/blurkit/internal/document"
	"github.com/example/blurkit/internal/notify"
	"github.com/example/blurkit/internal/quota"
	"github.com/example/blurkit/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

// usageStore opens the persisted daily counter; tests swap it for memory.
var usageStore = func() (quota.Store, error) {
	path, err := quota.DefaultPath()
	if err != nil {
		return nil, err
	}
	return quota.FileStore{Path: path}, nil
}

type runnable interface{ Run() error }

type root struct {
	fs          *flag.FlagSet
	program     string
	notifier    *notify.Notifier
	config      *config.Config
	exportAlert bool
	copyAlert   bool
	quotaAlert  bool
	themeName   string
	tierName    string
	activeTheme *theme.Theme
	tier        quota.Tier
}

func (r *root) Program() string {
	return r.program
}

// subcommand returns a copy of r whose help names the nested command.
func (r *root) subcommand(name string) *root {
	if r == nil {
		return &root{program: "blurkit " + name, activeTheme: theme.Default(), config: config.New()}
	}
	child := *r
	child.fs = nil
	child.program = strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &child
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("blurkit", flag.ExitOnError),
		program:  "blurkit",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.BoolVar(&r.exportAlert, "notify-export", cfg.Notify.Export, "show a desktop notification after exporting a file")
	r.fs.BoolVar(&r.copyAlert, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.quotaAlert, "notify-quota", cfg.Notify.Quota, "show a desktop notification when free exports run low")

	// Precedence: CLI > Env > Config > Default. Empty flags fall through in Run.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use ("+strings.Join(theme.BuiltinNames(), ", ")+")")
	r.fs.StringVar(&r.tierName, "tier", "", "entitlement tier (free, premium, lifetime)")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventExport, r.exportAlert)
		r.notifier.Enable(notify.EventCopy, r.copyAlert)
		r.notifier.Enable(notify.EventQuota, r.quotaAlert)
	}
	tier, err := r.resolveTier()
	if err != nil {
		return err
	}
	r.tier = tier
	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var cmd runnable
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "redact":
		cmd, err = parseRedactCmd(subArgs, r)
	case "pages":
		cmd, err = parsePagesCmd(subArgs, r)
	case "usage":
		cmd, err = parseUsageCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) resolveTier() (quota.Tier, error) {
	name := r.tierName
	if name == "" {
		name = os.Getenv("BLURKIT_TIER")
	}
	if name == "" {
		return r.config.Tier, nil
	}
	t, err := quota.ParseTier(name)
	if err != nil {
		return quota.Free, fmt.Errorf("tier: %w", err)
	}
	return t, nil
}

func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("BLURKIT_THEME")
	}
	if name == "" {
		name = r.config.Theme
	}
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && name != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		return theme.Default()
	}
	return t
}

// exporter charges exports against the persisted daily counter for the
// resolved tier.
func (r *root) exporter() (*document.Exporter, error) {
	store, err := usageStore()
	if err != nil {
		return nil, fmt.Errorf("open usage counter: %w", err)
	}
	return document.NewExporter(quota.NewTracker(r.tier, store)), nil
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func (r *root) notifyExport(path string, preview image.Image) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Export(path, preview)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}

func (r *root) notifyQuota(remaining int) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Quota(remaining)
}
