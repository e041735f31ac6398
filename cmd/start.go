package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vantahq/outreach-engine/internal/pipeline"
)

var (
	startMode        string
	startConcurrency int
)

var startCmd = &cobra.Command{
	Use:   "start <campaign-id> [campaign-id...]",
	Short: "Run outreach for one or more campaigns",
	Long:  "Processes every pending lead in the given campaigns. Campaigns run concurrently; leads within a campaign run strictly in order.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode, err := pipeline.ParseMode(startMode)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(startConcurrency)

		for _, campaignID := range args {
			g.Go(func() error {
				report, err := env.Pipeline.Start(gctx, campaignID, mode)
				if err != nil {
					zap.L().Error("campaign run failed",
						zap.String("campaign_id", campaignID), zap.Error(err))
					return nil // don't abort the other campaigns
				}

				out, _ := json.MarshalIndent(report, "", "  ")
				fmt.Printf("campaign %s:\n%s\n", campaignID, out)
				return nil
			})
		}

		return g.Wait()
	},
}

func init() {
	startCmd.Flags().StringVar(&startMode, "mode", "sync", "execution mode: sync or async")
	startCmd.Flags().IntVar(&startConcurrency, "concurrency", 3, "max campaigns processed at once")
	rootCmd.AddCommand(startCmd)
}
