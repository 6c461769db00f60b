package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for cxrbalance.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cxrbalance",
		Short: "Class balance toolkit for chest X-ray detection datasets",
		Long: `cxrbalance audits and prepares YOLO-format chest X-ray detection datasets
(clavicle fracture, foreign body in bronchus, normal).

It counts annotations per class, measures the class imbalance, selects a
training strategy with class weights, checks dataset integrity, splits raw
data into train/val/test and drives an external detection model service for
training, evaluation and batch inference.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewSplitCmd())
	cmd.AddCommand(NewTrainCmd())
	cmd.AddCommand(NewEvaluateCmd())
	cmd.AddCommand(NewPredictCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
