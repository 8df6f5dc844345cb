package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dpotapov/go-gsplex/gsp"
)

// app holds the state shared by all commands.
type app struct {
	verbose  bool
	maxChunk int
	logger   *slog.Logger
}

func (a *app) scanOptions() *gsp.Options {
	return &gsp.Options{MaxHTMLChunk: a.maxChunk}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "gsplex",
		Short: "Inspect the token stream of server page templates",
		Long: `gsplex splits GSP style server page templates into tokens: literal HTML,
<% %> scriptlets, ${ } expressions, %{ }% scripts, @{ } directives, !{ }! declarations
and <ns:tag> custom tags.

Use it to look at how a template is tokenized, to find syntax errors in a tree of
templates, or to serve an inspector over HTTP.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages")
	cmd.PersistentFlags().IntVar(&a.maxChunk, "max-chunk", gsp.DefaultMaxHTMLChunk, "split literal HTML into tokens of at most this many bytes")

	cmd.AddCommand(newTokensCmd(a), newCheckCmd(a), newServeCmd(a))

	return cmd
}
