package commands

import (
	"tapascrap/internal/components/chrono"

	"github.com/spf13/cobra"
)

const report_watch = "watch"

var (
	watchSchedule string
	watchNow      bool
)

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "@daily", "cron spec of the archive runs")
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "also run once right away")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Runs all passes on a cron schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		err := app.scraper.Setup(ctx)
		if err != nil {
			return err
		}

		run := func() {
			err := app.scraper.ScrapeAll(ctx)
			if err != nil && ctx.Err() == nil {
				app.tel.ReportBroken(report_watch, err)
			}
		}

		cron := chrono.NewStandardCron(app.tel, app.time)
		job, err := cron.Cron(watchSchedule, run)
		if err != nil {
			<-cron.Stop().Done()
			return err
		}
		app.tel.ReportDebug("watching", watchSchedule)
		if watchNow {
			job.Run()
		}

		<-ctx.Done()
		<-cron.Stop().Done()
		return nil
	},
}
