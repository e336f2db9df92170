package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ocat/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check catalog health and readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *services) error {
				results := preflight.RunAll(cmd.Context(), svc.cfg, svc.store)

				rows := make([][]string, 0, len(results))
				failed := 0
				for _, result := range results {
					state := "ok"
					if !result.Passed {
						state = "FAIL"
						failed++
					}
					rows = append(rows, []string{result.Name, state, result.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Check", "State", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				if failed > 0 {
					return fmt.Errorf("%d checks failed", failed)
				}
				return nil
			})
		},
	}
}
