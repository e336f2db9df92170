package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Detect and classify duplicate programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func(svc *services) error {
				result, err := svc.classifier.Classify(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(result.Groups) == 0 {
					fmt.Fprintln(out, "No duplicate groups found.")
					return nil
				}

				rows := make([][]string, 0, len(result.Groups))
				for _, group := range result.Groups {
					rows = append(rows, []string{
						string(group.Type),
						dash(group.Parent),
						strings.Join(group.Members, ", "),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Type", "Parent", "Members"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintf(out, "%d groups; %d records demoted, %d promoted\n",
					len(result.Groups), result.Demoted, result.Promoted)
				if len(result.MissingFiles) > 0 {
					fmt.Fprintf(out, "Skipped (file missing or unreadable): %s\n",
						strings.Join(result.MissingFiles, ", "))
				}
				return nil
			})
		},
	}
}
