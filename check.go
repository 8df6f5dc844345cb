package gsplex

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dpotapov/go-gsplex/gsp"
)

// DefaultExt is the extension of template files matched by Check when CheckOptions.Ext is empty.
const DefaultExt = ".gsp"

type CheckOptions struct {
	// Ext selects the files to scan. Defaults to DefaultExt.
	Ext string

	// Parallel is the number of files scanned at once. Defaults to runtime.GOMAXPROCS(0).
	Parallel int

	// Options is passed to every scanner.
	Options *gsp.Options

	// Logger receives one debug record per scanned file.
	Logger *slog.Logger
}

// CheckResult is the outcome of scanning one template.
type CheckResult struct {
	Path   string
	Tokens int              // number of tokens before EOF, or before the error
	Err    *gsp.SyntaxError // nil when the template scanned cleanly
}

func (r CheckResult) OK() bool { return r.Err == nil }

// Check scans every template in fsys and reports syntax errors per file. Results are sorted by
// path. Hidden directories (names starting with a dot) are skipped.
//
// Syntax errors are part of the results; the returned error is for everything else: a failed walk
// or read, or ctx being done.
func Check(ctx context.Context, fsys fs.FS, opts *CheckOptions) ([]CheckResult, error) {
	if opts == nil {
		opts = &CheckOptions{}
	}
	ext := opts.Ext
	if ext == "" {
		ext = DefaultExt
	}
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// fs.WalkDir visits entries in lexical order, so paths is already sorted
	var paths []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if path.Ext(p) == ext {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk templates: %w", err)
	}

	results := make([]CheckResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, p := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			toks, err := gsp.ScanFile(fsys, p, opts.Options)
			res := CheckResult{Path: p, Tokens: len(toks)}
			if err != nil {
				se, ok := asSyntaxError(err)
				if !ok {
					return err
				}
				res.Err = se
			}
			results[i] = res
			logger.Debug("Checked template", "path", p, "tokens", res.Tokens, "ok", res.OK())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
