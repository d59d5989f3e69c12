package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"game-quiz-service/internal/config"
	"game-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewLeaderboardCmd prints the current ranking from the configured backend.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			svc, err := buildServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			board := svc.data.Leaderboard(cmd.Context())
			if limit > 0 && limit < len(board) {
				board = board[:limit]
			}
			return printLeaderboard(cmd.OutOrStdout(), board)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of rows to print (0 for all)")
	return cmd
}

func printLeaderboard(w io.Writer, board []domain.LeaderboardEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tSCORE\tQUIZZES\tAVERAGE")
	for _, e := range board {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f\n", e.Rank, e.Username, e.TotalScore, e.TotalQuizzes, e.AverageScore)
	}
	return tw.Flush()
}
