package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <identifier>",
		Short: "Determine a program's round size and range placement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *services) error {
				record, err := svc.store.GetProgram(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if record == nil {
					return fmt.Errorf("no catalog record for %q", args[0])
				}

				result := svc.resolver.Resolve(record)

				rows := [][]string{
					{"Identifier", record.Identifier},
					{"Title", displayTitle(record.Title)},
					{"Round size", formatRoundSize(result.RoundSize)},
					{"Confidence", string(result.Confidence)},
					{"Source", string(result.Source)},
				}
				if result.Resolved {
					if entry, match, ok := svc.table.RangeFor(result.RoundSize); ok {
						rows = append(rows,
							[]string{"Range", fmt.Sprintf("%d-%d (%s)", entry.Start, entry.End, entry.Label)},
							[]string{"Range match", match.String()},
							[]string{"In correct range", yesNo(svc.resolver.InCorrectRange(record.Identifier, result.RoundSize, true))},
						)
					}
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Field", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}
