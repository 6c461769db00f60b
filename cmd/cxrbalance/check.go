package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/cxrbalance/internal/config"
	"github.com/nao1215/cxrbalance/internal/quality"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [data-dir]",
		Short: "Check that images and label files pair up",
		Long: `Check verifies the structure of a dataset without counting classes.

For each split it reports missing directories, images without a label file
and label files without an image. Optional checks report images with
identical content and images carrying identifying EXIF metadata.

The command exits with a non-zero status when any issue is found, so it can
gate a training job in CI.

Examples:
  # Check ./data
  cxrbalance check

  # Also look for duplicate images and identifying metadata
  cxrbalance check --duplicates --metadata data`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheckCmd,
	}

	cmd.Flags().Bool("duplicates", false,
		"Report images with identical content")
	cmd.Flags().Bool("metadata", false,
		"Report images carrying identifying EXIF metadata")
	cmd.Flags().BoolP("json", "j", false,
		"Output the result in JSON format")
	cmd.Flags().Int64("max-image-size", quality.DefaultMaxImageSize,
		"Maximum bytes read per image by the metadata check")

	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(cmd)

	dir := config.DefaultDataDir
	if len(args) > 0 {
		dir = args[0]
	}
	duplicates, err := cmd.Flags().GetBool("duplicates")
	if err != nil {
		return err
	}
	metadata, err := cmd.Flags().GetBool("metadata")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	maxImageSize, err := cmd.Flags().GetInt64("max-image-size")
	if err != nil {
		return err
	}
	if maxImageSize <= 0 {
		return fmt.Errorf("max-image-size must be positive, got %d", maxImageSize)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	checker := quality.NewChecker(
		quality.WithDuplicates(duplicates),
		quality.WithMetadata(metadata),
		quality.WithMaxImageSize(maxImageSize),
		quality.WithLogger(logger),
	)
	result, err := checker.Check(ctx, dir)
	if err != nil {
		return fmt.Errorf("quality check failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		writeCheckResult(out, dir, result)
	}

	if !result.OK {
		return fmt.Errorf("%w: %d issue(s) in %s", quality.ErrQualityIssues, len(result.Issues), dir)
	}
	return nil
}

func writeCheckResult(w io.Writer, dir string, result *quality.Result) {
	fmt.Fprintf(w, "Quality check: %s\n", dir)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Images checked: %d\n", result.ImagesChecked)
	fmt.Fprintf(w, "Labels checked: %d\n", result.LabelsChecked)

	if result.OK {
		fmt.Fprintln(w, "\nNo issues found.")
		return
	}

	fmt.Fprintf(w, "\nIssues (%d):\n", len(result.Issues))
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "  %s\n", issue.String())
	}
}
