package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ocat/internal/rename"
)

func newRenameCommand(ctx *commandContext) *cobra.Command {
	var size float64
	var reason string
	var preferred string
	var noOverflow bool

	cmd := &cobra.Command{
		Use:   "rename <identifier>",
		Short: "Rename one program to its next available number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func(svc *services) error {
				outcome, err := svc.engine.Execute(cmd.Context(), rename.Request{
					Identifier:    args[0],
					RoundSize:     size,
					Preferred:     preferred,
					Reason:        reason,
					AllowOverflow: !noOverflow,
				})
				if err != nil {
					return fmt.Errorf("rename stopped at %s: %w", outcome.Stage, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s -> %s (%s)\n",
					outcome.OldIdentifier, outcome.NewIdentifier, outcome.NewPath)
				return nil
			})
		},
	}

	cmd.Flags().Float64VarP(&size, "size", "s", 0, "Round size driving range selection")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason recorded in the provenance comment and audit log")
	cmd.Flags().StringVarP(&preferred, "preferred", "p", "", "Identifier to prefer when still available")
	cmd.Flags().BoolVar(&noOverflow, "no-overflow", false, "Fail instead of spilling into the free ranges")
	return cmd
}
