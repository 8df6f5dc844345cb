package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dpotapov/go-gsplex"
)

func newCheckCmd(a *app) *cobra.Command {
	var ext string
	var parallel int

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Report syntax errors in every template under a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			results, err := gsplex.Check(cmd.Context(), os.DirFS(dir), &gsplex.CheckOptions{
				Ext:      ext,
				Parallel: parallel,
				Options:  a.scanOptions(),
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}

			gsplex.WriteReport(cmd.OutOrStdout(), results)

			failed := 0
			for _, r := range results {
				if !r.OK() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d templates failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ext, "ext", gsplex.DefaultExt, "extension of template files")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "number of templates scanned at once (default GOMAXPROCS)")

	return cmd
}
