package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ocat/internal/catalog"
)

func newRegistryCommand(ctx *commandContext) *cobra.Command {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Program number registry operations",
	}

	registryCmd.AddCommand(newRegistryInitCommand(ctx))
	registryCmd.AddCommand(newRegistryStatusCommand(ctx))
	registryCmd.AddCommand(newRegistryNextCommand(ctx))
	registryCmd.AddCommand(newRegistryVerifyCommand(ctx))

	return registryCmd
}

func newRegistryInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Rebuild the registry from the range table and catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func(svc *services) error {
				result, err := svc.registry.Initialize(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Registry initialized: %d identifiers (%d in use, %d available)\n",
					result.TotalIdentifiers, result.InUse, result.Available)
				if result.MultiOwner > 0 {
					fmt.Fprintf(out, "WARNING: %d identifiers are claimed by more than one record; run `ocat classify`\n",
						result.MultiOwner)
				}
				return nil
			})
		},
	}
}

func newRegistryStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show occupancy per reserved range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *services) error {
				stats, err := svc.registry.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Registry is empty; run `ocat registry init` first.")
					return nil
				}

				rows := make([][]string, 0, len(stats))
				for _, interval := range stats {
					label := ""
					if entry, ok := svc.table.EntryContaining(interval.RangeStart); ok {
						label = entry.Label
					}
					total := 0
					for _, count := range interval.Counts {
						total += count
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d-%d", interval.RangeStart, interval.RangeEnd),
						label,
						formatRoundSize(interval.RoundSize),
						strconv.Itoa(interval.Counts[catalog.RegistryInUse]),
						strconv.Itoa(interval.Counts[catalog.RegistryReserved]),
						strconv.Itoa(interval.Counts[catalog.RegistryAvailable]),
						strconv.Itoa(total),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Range", "Label", "Round Size", "In Use", "Reserved", "Available", "Total"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newRegistryNextCommand(ctx *commandContext) *cobra.Command {
	var size float64
	var preferred string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next available identifier for a round size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *services) error {
				identifier, err := svc.registry.FindNextAvailable(cmd.Context(), size, preferred, nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), identifier)
				return nil
			})
		},
	}

	cmd.Flags().Float64VarP(&size, "size", "s", 0, "Round size in inches (0 for free range 1, -1 for free range 2)")
	cmd.Flags().StringVarP(&preferred, "preferred", "p", "", "Identifier to prefer when still available")
	return cmd
}

func newRegistryVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Cross-check registry allocations against the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(svc *services) error {
				findings, err := svc.registry.Verify(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(findings) == 0 {
					fmt.Fprintln(out, "Registry is consistent with the catalog.")
					return nil
				}
				for _, finding := range findings {
					fmt.Fprintf(out, "INCONSISTENT: %s\n", finding)
				}
				return fmt.Errorf("%d registry inconsistencies found", len(findings))
			})
		},
	}
}
