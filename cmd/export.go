package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write candidates and their answers to an Excel workbook",
	Run: func(cmd *cobra.Command, _ []string) {
		exportCandidates(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "candidates.xlsx", "path of the workbook to write")
	exportCmd.Flags().StringP("search", "s", "", "case-insensitive name filter")
	exportCmd.Flags().String("sort", "score", "sort order: score or name")
}

func exportCandidates(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync()

	list, err := loadCandidates(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading candidates", zap.Error(err))
	}

	path, err := export.WriteFile(cmd.Flag("output").Value.String(), list)
	if err != nil {
		logger.Fatal("exporting candidates", zap.Error(err))
	}

	logger.Info("candidates exported", zap.String("filename", path), zap.Int("count", len(list)))
}
