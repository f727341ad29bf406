package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/candidates"
	"github.com/spigell/ai-interviewer/internal/utils"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List candidates from the session store",
	Run: func(cmd *cobra.Command, _ []string) {
		listCandidates(cmd)
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)

	candidatesCmd.Flags().StringP("search", "s", "", "case-insensitive name filter")
	candidatesCmd.Flags().String("sort", "", "sort order: score or name")
}

// loadCandidates reads the dashboard list from the configured store and applies
// the search and sort flags of cmd.
func loadCandidates(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) ([]candidates.Candidate, error) {
	store, closeStore, err := newStore(ctx, config.Store, logger)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	list, err := candidates.NewDashboard(store).List(ctx)
	if err != nil {
		return nil, err
	}

	list = candidates.Search(list, cmd.Flag("search").Value.String())
	if err := candidates.Sort(list, cmd.Flag("sort").Value.String()); err != nil {
		return nil, err
	}

	return list, nil
}

func listCandidates(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync()

	list, err := loadCandidates(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("listing candidates", zap.Error(err))
	}

	logger.Info("current list of candidates", zap.Int("count", len(list)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tNAME\tEMAIL\tSCORE\tANSWERED\tSUMMARY")
	for _, c := range list {
		answered := 0
		for _, qa := range c.Answers {
			if qa.Answer != nil {
				answered++
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", c.SessionID, c.Name, c.Email, c.Score, answered, utils.TruncateForLog(c.Summary, 60))
	}
	w.Flush()
}

