// Package main provides the CLI entry point for crosscheck-go.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/statedge/crosscheck-go/pkg/crosscheck"
	"github.com/statedge/crosscheck-go/pkg/crosscheck/report"
)

var (
	sheets       []string
	tolerance    float64
	threshold    float64
	headerBuffer int
	concurrency  int
	outputPath   string
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crosscheck [published.xlsx] [recreated.xlsx]",
		Short: "Audit two crosstab spreadsheet exports for discrepancies",
		Long: `crosscheck compares a published spreadsheet export against a recreated
one, reconstructing the dimensional identity of every data cell and
reporting every value or placement disagreement.`,
		Args: cobra.ExactArgs(2),
		RunE: run,
	}

	rootCmd.Flags().StringSliceVar(&sheets, "sheets", nil, "Sheet names to compare (default: all sheets present in both files)")
	rootCmd.Flags().Float64Var(&tolerance, "tolerance", 0.01, "Absolute tolerance for numeric equality")
	rootCmd.Flags().Float64Var(&threshold, "threshold", 0.8, "Similarity threshold for fuzzy key matching")
	rootCmd.Flags().IntVar(&headerBuffer, "header-buffer", 5, "Rows/columns kept above and left of the data extent for headers")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of sheets compared in parallel")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Report workbook path (default: no report written)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose progress logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	publishedPath, recreatedPath := args[0], args[1]
	for _, path := range args {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}

	opts, err := crosscheck.OptionsFromEnv()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("tolerance") {
		opts.NumericTolerance = tolerance
	}
	if cmd.Flags().Changed("threshold") {
		opts.FuzzyThreshold = threshold
	}
	if cmd.Flags().Changed("header-buffer") {
		opts.HeaderBuffer = headerBuffer
	}
	if cmd.Flags().Changed("concurrency") {
		opts.Concurrency = concurrency
	}

	result, err := crosscheck.Compare(publishedPath, recreatedPath, sheets, opts)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	fmt.Printf("Run %s\n", result.RunID)
	fmt.Printf("Compared %d point(s), %d discrepancy(ies), accuracy %.2f%%\n",
		result.TotalPoints, result.TotalDiscrepancies, result.OverallAccuracy*100)
	for _, s := range result.Sheets {
		if s.Skipped {
			fmt.Printf("  %s: skipped (%s)\n", s.SheetName, s.SkipReason)
			continue
		}
		fmt.Printf("  %s: %d point(s), %d discrepancy(ies), accuracy %.2f%%\n",
			s.SheetName, s.TotalPoints, s.DiscrepancyCount, s.AccuracyRatio*100)
	}

	if outputPath != "" {
		if err := report.NewBuilder(nil).Write(result, outputPath); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", outputPath)
	}
	return nil
}
