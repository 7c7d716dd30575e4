package dtpfix

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bim2twin/dtpfix/pkg/fixes"
	"github.com/bim2twin/dtpfix/pkg/ontology"
	"github.com/bim2twin/dtpfix/pkg/types"
)

var (
	fixTargetLevel string
	fixNodeSide    string
	fixCategory    string
	fixConvertMap  string
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Apply schema fixes to the DTP graph",
	Long: `Fetch nodes of the selected level, classify them against the legacy
field layouts and rewrite them to match the current ontology. Prints
per-side update counts on success; aborts on the first node that cannot
be migrated, naming it.`,
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)

	fixCmd.Flags().StringVarP(&fixTargetLevel, "target-level", "t", "", "node level to update (element, task, activity, all)")
	fixCmd.Flags().StringVarP(&fixNodeSide, "node-side", "n", "", "side of the twin to update (asbuilt, asdesigned, all)")
	fixCmd.Flags().StringVarP(&fixCategory, "fixes", "f", "all", "fix category to apply (asdesigned, type, iri, all, or the standalone progress migration)")
	fixCmd.Flags().StringVarP(&fixConvertMap, "convert-map", "m", "element_type_map.yaml", "YAML map of legacy type labels to new ones")
	fixCmd.MarkFlagRequired("target-level")
	fixCmd.MarkFlagRequired("node-side")
}

func runFix(cmd *cobra.Command, args []string) error {
	level, err := types.ParseLevel(fixTargetLevel)
	if err != nil {
		return err
	}
	side, err := types.ParseSide(fixNodeSide)
	if err != nil {
		return err
	}
	fix, err := types.ParseFix(fixCategory)
	if err != nil {
		return err
	}

	cfg, log, client, err := setup()
	if err != nil {
		return err
	}
	if simulation {
		log.Info("running in simulation mode")
	}

	if err := client.BeginSession(cfg.Session.LogDir); err != nil {
		return err
	}
	defer client.EndSession()

	ctx := cmd.Context()
	var total types.UpdateCounts

	if level == types.LevelElement || level == types.LevelAll {
		convertMap, err := ontology.LoadConversionMap(fixConvertMap)
		if err != nil {
			return err
		}
		counts, err := fixes.NewElements(cfg, client, log).Update(ctx, side, fix, convertMap)
		if err != nil {
			return err
		}
		total.Add(counts)
		fmt.Printf("Updated %d as-designed and %d as-built element nodes\n", counts.AsPlanned, counts.AsPerf)
	}

	if level == types.LevelTask || level == types.LevelAll {
		counts, err := fixes.NewTasks(cfg, client, log).Update(ctx, side)
		if err != nil {
			return err
		}
		total.Add(counts)
		fmt.Printf("Updated %d task and %d action nodes\n", counts.AsPlanned, counts.AsPerf)
	}

	if level == types.LevelActivity || level == types.LevelAll {
		counts, err := fixes.NewActivities(cfg, client, log).Update(ctx, side)
		if err != nil {
			return err
		}
		total.Add(counts)
		fmt.Printf("Updated %d activity and %d operation nodes\n", counts.AsPlanned, counts.AsPerf)
	}

	if level == types.LevelAll {
		fmt.Printf("Updated %d as-planned and %d as-performed nodes in total\n", total.AsPlanned, total.AsPerf)
	}

	if path := client.SessionPath(); path != "" {
		log.Info("session log written", "path", path)
	}
	return nil
}
