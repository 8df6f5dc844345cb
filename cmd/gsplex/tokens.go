package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dpotapov/go-gsplex"
	"github.com/dpotapov/go-gsplex/gsp"
)

const tokensLongDescription = `Print the tokens of a template.

The template is read from the named file, or from standard input when the file
is "-" or omitted. Formats:
  text    one token per line: position, kind, namespace and quoted text
  json    a JSON array of token objects
  xml     an XML document with one <token> element per token
  table   an aligned text table`

func newTokensCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the tokens of a template",
		Long:  tokensLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "-"
			if len(args) > 0 {
				name = args[0]
			}

			var src []byte
			var err error
			if name == "-" {
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(name)
			}
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}

			toks, scanErr := gsp.Scan(name, string(src), a.scanOptions())
			a.logger.Debug("Scanned template", "page", name, "tokens", len(toks))

			if err := writeTokens(cmd.OutOrStdout(), format, name, toks); err != nil {
				return err
			}
			if scanErr != nil {
				if ctx := gsplex.ErrorContext(string(src), scanErr, 2); ctx != nil {
					_ = ctx.WriteText(cmd.ErrOrStderr())
				}
				return scanErr
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, xml or table")

	return cmd
}

func writeTokens(w io.Writer, format, name string, toks []gsp.Token) error {
	switch format {
	case "text":
		for _, t := range toks {
			if _, err := fmt.Fprintln(w, t); err != nil {
				return err
			}
		}
		return nil
	case "json":
		return gsplex.WriteJSON(w, toks)
	case "xml":
		return gsplex.WriteXML(w, name, toks)
	case "table":
		gsplex.WriteTokenTable(w, toks)
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}
