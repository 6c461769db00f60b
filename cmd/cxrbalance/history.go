package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/cxrbalance/internal/config"
	"github.com/nao1215/cxrbalance/internal/database"
	"github.com/nao1215/cxrbalance/internal/model"
)

// historyTimeLayout is the timestamp format of history listings.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command shows stored analyses and compares the class balance of runs.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [data-dir]",
		Short: "Show analysis history and compare runs",
		Long: `History displays the analyses stored by 'cxrbalance analyze' and shows how
the class balance of a dataset changed between runs:
- Per-class annotation counts and their deltas
- The change of the imbalance ratio (improved, worsened or unchanged)
- Whether the selected imbalance strategy changed

By default the two most recent runs of the dataset are compared.

Examples:
  # Compare the latest two analyses of ./data
  cxrbalance history

  # List every stored run of a dataset
  cxrbalance history --list data

  # Compare the latest run with a specific run by ID
  cxrbalance history --id 3 data

  # List every dataset in the database
  cxrbalance history --list-datasets`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false, "List the stored runs of the dataset")
	cmd.Flags().BoolP("list-datasets", "L", false, "List every dataset in the database")
	cmd.Flags().Int64P("id", "i", 0, "Compare the latest run with the run of this ID")
	cmd.Flags().BoolP("json", "j", false, "Output the comparison in JSON format")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	listDatasets, err := flags.GetBool("list-datasets")
	if err != nil {
		return err
	}
	listRuns, err := flags.GetBool("list")
	if err != nil {
		return err
	}
	withID, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Resolve the dataset before opening the database so that argument
	// errors do not leave a lock behind.
	dataset := ""
	if !listDatasets {
		dir := config.DefaultDataDir
		if len(args) > 0 {
			dir = args[0]
		}
		if dataset, err = datasetPath(dir); err != nil {
			return err
		}
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case listDatasets:
		return writeDatasetList(ctx, db, out)
	case listRuns:
		return writeRunHistory(ctx, db, out, dataset)
	default:
		return writeComparison(ctx, db, out, dataset, withID, jsonOutput)
	}
}

// writeDatasetList lists every dataset that has stored analyses.
func writeDatasetList(ctx context.Context, db *database.AnalysisDB, w io.Writer) error {
	datasets, err := db.ListDatasets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}

	if len(datasets) == 0 {
		fmt.Fprintln(w, "No analyzed datasets found in the database.")
		fmt.Fprintln(w, "\nUse 'cxrbalance analyze <data-dir>' to analyze a dataset.")
		return nil
	}

	fmt.Fprintf(w, "Analyzed datasets (%d):\n\n", len(datasets))
	for _, d := range datasets {
		fmt.Fprintf(w, "  • %s\n", d)
	}
	fmt.Fprintln(w, "\nUse 'cxrbalance history --list <data-dir>' to see the runs of a dataset.")
	return nil
}

// writeRunHistory lists the stored runs of a dataset, newest first.
func writeRunHistory(ctx context.Context, db *database.AnalysisDB, w io.Writer, dataset string) error {
	runs, err := db.GetAnalysisHistory(ctx, dataset)
	if err != nil {
		return fmt.Errorf("failed to get analysis history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(w, "No analysis history found for %s\n", dataset)
		return nil
	}

	fmt.Fprintf(w, "Analysis history for %s (%d runs):\n\n", dataset, len(runs))
	fmt.Fprintf(w, "  %-6s  %-20s  %-8s  %s\n", "ID", "Date", "Total", "Strategy")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 60))
	for _, run := range runs {
		fmt.Fprintf(w, "  %-6d  %-20s  %-8d  %s\n",
			run.ID,
			run.Timestamp.Local().Format(historyTimeLayout),
			run.Total(),
			run.Strategy,
		)
	}
	fmt.Fprintln(w, "\nUse 'cxrbalance history --id <id> <data-dir>' to compare with a specific run.")
	return nil
}

// writeComparison compares the latest run of a dataset with the previous
// one, or with the run of withID when it is positive.
func writeComparison(ctx context.Context, db *database.AnalysisDB, w io.Writer, dataset string, withID int64, jsonOutput bool) error {
	recent, err := db.GetRecentAnalyses(ctx, dataset, 2)
	if err != nil {
		return fmt.Errorf("failed to get analysis history: %w", err)
	}
	if len(recent) == 0 {
		return fmt.Errorf("no analysis history found for %s", dataset)
	}
	current := recent[0]

	var previous *model.AnalysisReport
	if withID > 0 {
		previous, err = db.GetAnalysisByID(ctx, withID)
		if err != nil {
			return fmt.Errorf("failed to get run %d: %w", withID, err)
		}
		if previous == nil {
			return fmt.Errorf("run %d not found", withID)
		}
		if previous.Dataset != dataset {
			return fmt.Errorf("run %d belongs to %s, not %s", withID, previous.Dataset, dataset)
		}
	} else {
		if len(recent) < 2 {
			return errors.New("at least 2 runs are required for comparison (found 1)")
		}
		previous = recent[1]
	}

	comparison := database.Compare(previous, current)
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(comparison)
	}
	writeComparisonText(w, comparison)
	return nil
}

func writeComparisonText(w io.Writer, c *database.Comparison) {
	fmt.Fprintf(w, "Dataset: %s\n\n", c.Dataset)
	fmt.Fprintf(w, "  Previous: %s  %s\n", c.Previous.DateAnalyzed.Local().Format(historyTimeLayout), c.Previous.RunID)
	fmt.Fprintf(w, "  Current:  %s  %s\n\n", c.Current.DateAnalyzed.Local().Format(historyTimeLayout), c.Current.RunID)

	fmt.Fprintf(w, "  %-24s %10s %10s %8s\n", "Class", "Previous", "Current", "Delta")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 55))
	for _, d := range c.Classes {
		fmt.Fprintf(w, "  %-24s %10d %10d %+8d\n", d.Class, d.Previous, d.Current, d.Delta)
	}
	fmt.Fprintf(w, "  %-24s %10d %10d %+8d\n\n", "Total", c.Previous.Total, c.Current.Total, c.Current.Total-c.Previous.Total)

	fmt.Fprintf(w, "  Imbalance ratio: %s -> %s (%s)\n", formatRatio(c.Previous.ImbalanceRatio), formatRatio(c.Current.ImbalanceRatio), c.Direction)
	if c.StrategyChanged {
		fmt.Fprintf(w, "  Strategy:        %s -> %s\n", c.Previous.Strategy, c.Current.Strategy)
	} else {
		fmt.Fprintf(w, "  Strategy:        %s (unchanged)\n", c.Current.Strategy)
	}
}

func formatRatio(ratio float64) string {
	if ratio == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", ratio)
}
