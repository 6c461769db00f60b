package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nao1215/cxrbalance/internal/model"
	"github.com/nao1215/cxrbalance/internal/split"
)

// NewSplitCmd creates the split command.
func NewSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <source-dir> <dest-dir>",
		Short: "Split a flat dataset into train, val and test",
		Long: `Split copies a flat dataset (<source-dir>/images and <source-dir>/labels)
into the split layout images/<split> and labels/<split> under <dest-dir>.

By default the split is stratified: images are grouped by the dominant class
of their label file, each group is shuffled with the configured seed and cut
with the split ratios, so every class is represented in each split and the
same seed always gives the same result. Images without annotations form a
background group.

--positional cuts the name-sorted image list in order instead.

Examples:
  # Split with the configured ratios (default 0.7/0.15/0.15)
  cxrbalance split raw data

  # Use an 80/10/10 split with a different seed
  cxrbalance split --train 0.8 --val 0.1 --test 0.1 --seed 7 raw data`,
		Args: cobra.ExactArgs(2),
		RunE: runSplitCmd,
	}

	cmd.Flags().Float64("train", 0, "Train ratio (default from configuration, 0.7)")
	cmd.Flags().Float64("val", 0, "Validation ratio (default from configuration, 0.15)")
	cmd.Flags().Float64("test", 0, "Test ratio (default from configuration, 0.15)")
	cmd.Flags().Uint64("seed", 0, "Shuffle seed (default from configuration, 42)")
	cmd.Flags().Bool("positional", false, "Cut the sorted file list in order instead of stratifying")
	cmd.Flags().IntP("workers", "w", split.DefaultWorkers, "Number of concurrent file copies")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cxrbalance in current or home directory)")

	return cmd
}

func runSplitCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(cmd)

	file, _, err := loadDatasetConfig(cmd, logger)
	if err != nil {
		return err
	}

	ratios := file.Split.Ratios()
	seed := file.Split.Seed
	stratified := file.Split.Stratified

	flags := cmd.Flags()
	if flags.Changed("train") {
		if ratios.Train, err = flags.GetFloat64("train"); err != nil {
			return err
		}
	}
	if flags.Changed("val") {
		if ratios.Val, err = flags.GetFloat64("val"); err != nil {
			return err
		}
	}
	if flags.Changed("test") {
		if ratios.Test, err = flags.GetFloat64("test"); err != nil {
			return err
		}
	}
	if flags.Changed("seed") {
		if seed, err = flags.GetUint64("seed"); err != nil {
			return err
		}
	}
	positional, err := flags.GetBool("positional")
	if err != nil {
		return err
	}
	if positional {
		stratified = false
	}
	workers, err := flags.GetInt("workers")
	if err != nil {
		return err
	}
	if err := ratios.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	srcDir, dstDir := args[0], args[1]
	src, err := split.ScanSource(srcDir, file.Classes)
	if err != nil {
		return err
	}

	var p split.Partition
	if stratified {
		p, err = split.Stratified(src.Items, ratios, seed)
	} else {
		p, err = split.Positional(src.Names(), ratios)
	}
	if err != nil {
		return err
	}

	copier := split.NewCopier(split.WithWorkers(workers), split.WithLogger(logger))
	result, err := copier.Copy(ctx, src, dstDir, p)
	if err != nil {
		return fmt.Errorf("failed to copy dataset: %w", err)
	}

	writeSplitResult(cmd.OutOrStdout(), src, dstDir, stratified, seed, result)
	return nil
}

func writeSplitResult(w io.Writer, src *split.Source, dst string, stratified bool, seed uint64, result *split.CopyResult) {
	mode := "positional"
	if stratified {
		mode = fmt.Sprintf("stratified (seed %d)", seed)
	}
	fmt.Fprintf(w, "Split %s -> %s, %s\n\n", src.Dir, dst, mode)

	fmt.Fprintf(w, "  %-6s %8s %8s\n", "Split", "Images", "Labels")
	for _, s := range model.Splits {
		fmt.Fprintf(w, "  %-6s %8d %8d\n", s, result.Images[s], result.Labels[s])
	}

	if stratified {
		groups := split.GroupSizes(src.Items)
		names := make([]string, 0, len(groups))
		for name := range groups {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w, "\nImages per class:")
		for _, name := range names {
			fmt.Fprintf(w, "  %-24s %d\n", model.DisplayName(name), groups[name])
		}
	}

	if len(result.MissingLabels) > 0 {
		fmt.Fprintf(w, "\nWarning: %d image(s) copied without a label file\n", len(result.MissingLabels))
		for _, name := range result.MissingLabels {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}
