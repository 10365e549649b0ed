// Package inspect implements one-shot `kconfig-ls inspect` debug
// subcommands that run a single query operation against a file and print
// the result, without starting the language server.
package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/kconfig-ls/pkg/document"
	"github.com/walteh/kconfig-ls/pkg/query"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "run a single hover/definition/references/completion query and print the result",
	}
	cmd.AddCommand(newHoverCommand())
	cmd.AddCommand(newDefinitionCommand())
	cmd.AddCommand(newReferencesCommand())
	cmd.AddCommand(newCompletionCommand())
	return cmd
}

// position parses "file:line:col" (1-based line/col, as editors report
// them) into a path and byte offset within that file's content.
func position(fs afero.Fs, spec string) (path string, doc *document.Document, offset int, err error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return "", nil, 0, errors.Errorf("expected file:line:col, got %q", spec)
	}
	path = parts[0]
	line, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, 0, errors.Errorf("invalid line %q: %w", parts[1], err)
	}
	col, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", nil, 0, errors.Errorf("invalid column %q: %w", parts[2], err)
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", nil, 0, errors.Errorf("reading %q: %w", path, err)
	}
	doc = document.New(path, string(content), 0)
	offset = doc.LineIndex.Offset(line-1, col-1)
	return path, doc, offset, nil
}

func newHoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hover file:line:col",
		Short: "print hover content at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, offset, err := position(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}
			h, ok := query.HoverAt(doc, offset)
			if !ok {
				fmt.Println("no hover information at this position")
				return nil
			}
			fmt.Println(h.Contents)
			return nil
		},
	}
}

func newDefinitionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "definition file:line:col",
		Short: "print declaration spans for the symbol at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, doc, offset, err := position(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}
			spans, ok := query.DefinitionAt(doc, offset)
			if !ok {
				fmt.Println("no symbol at this position")
				return nil
			}
			for _, s := range spans {
				line, col := doc.LineIndex.LineCol(s.Lo)
				fmt.Printf("%s:%d:%d\n", path, line+1, col+1)
			}
			return nil
		},
	}
}

func newReferencesCommand() *cobra.Command {
	var includeDeclaration bool
	cmd := &cobra.Command{
		Use:   "references file:line:col",
		Short: "print every reference to the symbol at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, doc, offset, err := position(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}
			spans, ok := query.ReferencesAt(doc, offset, includeDeclaration)
			if !ok {
				fmt.Println("no symbol at this position")
				return nil
			}
			for _, s := range spans {
				line, col := doc.LineIndex.LineCol(s.Lo)
				fmt.Printf("%s:%d:%d\n", path, line+1, col+1)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeDeclaration, "include-declaration", true, "include the symbol's own declaration spans")
	return cmd
}

func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion file:line:col",
		Short: "print completion suggestions at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, offset, err := position(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}
			for _, item := range query.CompleteAt(doc, offset) {
				fmt.Println(item.Label)
			}
			return nil
		},
	}
}
