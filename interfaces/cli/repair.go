package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Drop orphaned, duplicate and self-referencing connections",
	Long: `Reload the stored graph, drop every connection that breaks the graph
invariants and write the result back. Repair is idempotent: a second run
reports nothing.`,
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, cleanup, err := openContainer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := c.Session.Repair(ctx)
	if err != nil {
		return err
	}
	if !report.Changed() {
		good.Println("graph is consistent, nothing to repair")
		return nil
	}

	warn.Println("repaired stored graph:")
	fmt.Printf("  orphaned connections   %d\n", report.Orphaned)
	fmt.Printf("  duplicate connections  %d\n", report.Duplicates)
	fmt.Printf("  self connections       %d\n", report.SelfLoops)
	fmt.Printf("  duplicate blocks       %d\n", report.DuplicateEntities)
	fmt.Printf("  invalid records        %d\n", report.InvalidRecords)
	return nil
}
