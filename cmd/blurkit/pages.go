package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/blurkit/internal/document"
)

// pagesCmd lists the pages of a PDF without rendering them.
type pagesCmd struct {
	file string
	*root
	fs *flag.FlagSet
}

func (p *pagesCmd) FlagSet() *flag.FlagSet {
	return p.fs
}

func parsePagesCmd(args []string, r *root) (*pagesCmd, error) {
	fs := flag.NewFlagSet("pages", flag.ExitOnError)
	p := &pagesCmd{root: r.subcommand("pages"), fs: fs}
	fs.Usage = usageFunc(p)
	fs.StringVar(&p.file, "file", "", "PDF to inspect")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if p.file == "" && fs.NArg() == 1 {
		p.file = fs.Arg(0)
	}
	if p.file == "" {
		return nil, &UsageError{of: p}
	}
	return p, nil
}

func (p *pagesCmd) Run() error {
	data, err := os.ReadFile(p.file)
	if err != nil {
		return fmt.Errorf("read %s: %w", p.file, err)
	}
	kind, err := document.Classify(p.file, data)
	if err != nil {
		return fmt.Errorf("%s: %w", p.file, err)
	}
	if kind != document.KindPDF {
		return fmt.Errorf("%s is an image, not a PDF", p.file)
	}
	sizes, err := document.ProbePDF(data)
	if err != nil {
		return fmt.Errorf("%s: %w", p.file, err)
	}
	printPages(stdout, sizes)
	return nil
}

func printPages(w io.Writer, sizes []document.PageSize) {
	fmt.Fprintf(w, "%d page(s)\n", len(sizes))
	for i, s := range sizes {
		fmt.Fprintf(w, "%3d  %.0f x %.0f pt  (%d x %d px when edited)\n", i+1, s.Width, s.Height,
			int(s.Width*document.PDFScale), int(s.Height*document.PDFScale))
	}
}
