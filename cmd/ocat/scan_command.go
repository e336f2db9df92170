package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Ingest program files from a folder into the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func(svc *services) error {
				root := dir
				if len(args) == 1 {
					root = args[0]
				}
				if root == "" {
					root = svc.cfg.Paths.CatalogDir
				}

				summary, err := svc.scanner.Scan(cmd.Context(), root)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scanned %d files: %d added, %d updated, %d failed\n",
					summary.Scanned, summary.Added, summary.Updated, summary.Failed)
				for _, scanErr := range summary.Errors {
					fmt.Fprintf(out, "  %v\n", scanErr)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to scan (defaults to the catalog directory)")
	return cmd
}
