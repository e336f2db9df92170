package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ocat/internal/batch"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var size float64
	var reason string
	var execute bool
	var noOverflow bool

	cmd := &cobra.Command{
		Use:   "batch <identifier>...",
		Short: "Rename many programs in one pass (dry run by default)",
		Long: `Plans or executes renames for every listed identifier. Without --execute
the command only prints the old->new plan; the plan is exactly what a
subsequent --execute run over the same catalog state will perform.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func(svc *services) error {
				items := make([]batch.Item, 0, len(args))
				for _, identifier := range args {
					items = append(items, batch.Item{
						Identifier:    identifier,
						RoundSize:     size,
						Reason:        reason,
						AllowOverflow: !noOverflow,
					})
				}

				progress := newBatchProgress(len(items), execute)
				summary := svc.coordinator.Run(cmd.Context(), items, !execute, progress.update)
				progress.finish()

				out := cmd.OutOrStdout()
				if summary.DryRun {
					fmt.Fprintln(out, "Dry run: no files or records were changed.")
				}
				if len(summary.Actions) > 0 {
					rows := make([][]string, 0, len(summary.Actions))
					for _, action := range summary.Actions {
						rows = append(rows, []string{action.OldIdentifier, action.NewIdentifier})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Old", "New"},
						rows,
						[]columnAlignment{alignLeft, alignLeft},
					))
				}
				fmt.Fprintf(out, "Total %d: %d successful, %d failed, %d skipped\n",
					summary.Total, summary.Successful, summary.Failed, summary.Skipped)
				for _, itemErr := range summary.Errors {
					fmt.Fprintf(out, "  %s: %v\n", itemErr.Identifier, itemErr.Err)
				}
				if summary.Failed > 0 {
					return fmt.Errorf("%d of %d items failed", summary.Failed, summary.Total)
				}
				return nil
			})
		},
	}

	cmd.Flags().Float64VarP(&size, "size", "s", 0, "Round size applied to every listed identifier")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason recorded on each rename")
	cmd.Flags().BoolVar(&execute, "execute", false, "Apply the plan instead of printing it")
	cmd.Flags().BoolVar(&noOverflow, "no-overflow", false, "Fail items instead of spilling into the free ranges")
	return cmd
}

// batchProgress renders a progress bar on interactive terminals and stays
// silent otherwise.
type batchProgress struct {
	bar *progressbar.ProgressBar
}

func newBatchProgress(total int, execute bool) *batchProgress {
	if !execute || !isatty.IsTerminal(os.Stderr.Fd()) {
		return &batchProgress{}
	}
	return &batchProgress{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("renaming"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (p *batchProgress) update(processed, total int, current string) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Set(processed)
}

func (p *batchProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
