// Package lint implements the `kconfig-ls lint` subcommand: batch
// diagnostics over every Kconfig file under a root, optionally watching
// for further edits.
package lint

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/fsnotify.v1"

	"github.com/walteh/kconfig-ls/pkg/document"
	"github.com/walteh/kconfig-ls/pkg/fileassoc"
	"github.com/walteh/kconfig-ls/pkg/query"
	"github.com/walteh/kconfig-ls/pkg/syntax"
)

type options struct {
	roots []string
	watch bool
}

func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "lint [root]...",
		Short: "report diagnostics for every Kconfig file under one or more roots",
	}

	cmd.Flags().BoolVar(&opts.watch, "watch", false, "keep running, re-linting files that change on disk")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts.roots = args
		if len(opts.roots) == 0 {
			opts.roots = []string{"."}
		}
		return run(cmd.Context(), opts)
	}

	return cmd
}

func run(ctx context.Context, opts *options) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx = logger.WithContext(ctx)

	finder := fileassoc.NewDefaultFinder()

	hadErrors, err := lintAll(ctx, finder, opts.roots)
	if err != nil {
		return err
	}

	if !opts.watch {
		if hadErrors {
			os.Exit(1)
		}
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("starting filesystem watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range opts.roots {
		if err := watcher.Add(root); err != nil {
			return errors.Errorf("watching %q: %w", root, err)
		}
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Info().Str("path", ev.Name).Msg("re-linting changed file")
			if _, err := lintAll(ctx, finder, opts.roots); err != nil {
				logger.Error().Err(err).Msg("lint run failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("filesystem watcher error")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// lintAll walks every root, parsing and printing diagnostics for each
// matched file. A root that can't be walked (missing, permission denied)
// doesn't abort the others: failures accumulate into a
// hashicorp/go-multierror so one bad --watch root in a multi-root
// invocation doesn't hide findings from the rest.
func lintAll(ctx context.Context, finder fileassoc.Finder, roots []string) (bool, error) {
	var merr *multierror.Error
	hadErrors := false

	for _, root := range roots {
		files, err := finder.Find(ctx, root, nil)
		if err != nil {
			merr = multierror.Append(merr, errors.Errorf("finding Kconfig files under %q: %w", root, err))
			continue
		}
		for _, f := range files {
			doc := document.New(f.Path, string(f.Content), 0)
			diags := query.Diagnostics(doc)
			for _, d := range diags {
				line, col := doc.LineIndex.LineCol(d.Span.Lo)
				fmt.Printf("%s:%d:%d: %s: %s\n", f.Path, line+1, col+1, severityLabel(d.Severity), d.Message)
				if d.Severity == syntax.SeverityError {
					hadErrors = true
				}
			}
		}
	}

	return hadErrors, merr.ErrorOrNil()
}

func severityLabel(sev syntax.Severity) string {
	switch sev {
	case syntax.SeverityError:
		return "error"
	case syntax.SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}
