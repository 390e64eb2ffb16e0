package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(allCmd)
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Runs setup then the forum, topic and member passes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := app.scraper.Setup(cmd.Context())
		if err != nil {
			return err
		}
		return app.scraper.ScrapeAll(cmd.Context())
	},
}
