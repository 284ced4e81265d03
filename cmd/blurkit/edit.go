package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/example/blurkit/internal/appstate"
	"github.com/example/blurkit/internal/clipboard"
	"github.com/example/blurkit/internal/document"
	"github.com/example/blurkit/internal/editor"
)

// readClipboardImage is swapped out by tests.
var readClipboardImage = clipboard.ReadImage

// runEditor shows the editor window; tests replace it.
var runEditor = func(a *appstate.AppState) error { return a.Run() }

// editCmd opens a document in the desktop editor.
type editCmd struct {
	file          string
	output        string
	fromClipboard bool
	*root
	fs *flag.FlagSet
}

func (e *editCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	e := &editCmd{root: r.subcommand("edit"), fs: fs}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.file, "file", "", "image or PDF to open")
	fs.StringVar(&e.output, "output", "", "export path (defaults to a timestamped file in the save directory)")
	fs.BoolVar(&e.fromClipboard, "from-clipboard", false, "open the image on the clipboard")
	fs.BoolVar(&e.fromClipboard, "from-clip", false, "open the image on the clipboard (alias)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if e.file == "" && fs.NArg() == 1 {
		e.file = fs.Arg(0)
	}
	if e.fromClipboard && e.file != "" {
		return nil, fmt.Errorf("-from-clipboard cannot be combined with -file")
	}
	if !e.fromClipboard && e.file == "" {
		return nil, &UsageError{of: e}
	}
	return e, nil
}

func (e *editCmd) Run() error {
	doc, err := e.load()
	if err != nil {
		return err
	}
	cfg := e.config.Editor
	session, err := editor.NewSession(doc, editor.WithTool(cfg.Tool), editor.WithEffect(cfg.RegionEffect()))
	if err != nil {
		return fmt.Errorf("edit %s: %w", doc.Name, err)
	}
	exp, err := e.exporter()
	if err != nil {
		return err
	}
	state := appstate.New(
		appstate.WithSession(session),
		appstate.WithExporter(exp),
		appstate.WithNotifier(e.notifier),
		appstate.WithTheme(e.activeTheme),
		appstate.WithSaveDir(e.config.SaveDir),
		appstate.WithOutput(e.output),
	)
	return runEditor(state)
}

func (e *editCmd) load() (*document.Document, error) {
	opts := document.Options{DisplayWidth: document.DefaultDisplayWidth}
	if e.fromClipboard {
		img, err := readClipboardImage()
		if err != nil {
			return nil, fmt.Errorf("read clipboard image: %w", err)
		}
		return document.FromImage("clipboard", img, opts)
	}
	doc, err := document.LoadFile(context.Background(), e.file, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", e.file, err)
	}
	return doc, nil
}

