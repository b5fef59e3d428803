package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var scoresLimit int

func init() {
	scoresCmd.Flags().IntVarP(&scoresLimit, "limit", "n", defaultScoresLimit, "how many scores to show")
	rootCmd.AddCommand(scoresCmd)
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Prints the best scores",
	Long:  `Prints the best scores from the DynamoDB table at $SIMON_DYNAMODB_ENDPOINT.`,
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(report(cmd))
	},
}

func report(cmd *cobra.Command) error {
	store, err := openScoreStore()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scores, err := store.Top(ctx, scoresLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(scores) == 0 {
		fmt.Fprintln(out, "No scores yet")
		return nil
	}
	for i, s := range scores {
		fmt.Fprintf(out, "%2v. level %-3v %v  %v (%v)\n", i+1, s.Level, s.EndedAt.Format(time.RFC3339), s.SessionID, s.Reason)
	}
	return nil
}
