package commands

import (
	"context"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(forumsCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(membersCmd)
}

// passCommand sets up the database then runs a pass over the ids given as arguments.
func passCommand(run func(ctx context.Context, ids ...int64) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ids, err := parseIds(args)
		if err != nil {
			return err
		}
		err = app.scraper.Setup(cmd.Context())
		if err != nil {
			return err
		}
		return run(cmd.Context(), ids...)
	}
}

var forumsCmd = &cobra.Command{
	Use:   "forums [id...]",
	Short: "Archives forums and the topic rows listed in them, every configured forum if no id is given.",
	RunE: passCommand(func(ctx context.Context, ids ...int64) error {
		return app.scraper.ScrapeForums(ctx, ids...)
	}),
}

var topicsCmd = &cobra.Command{
	Use:   "topics [id...]",
	Short: "Archives topics and their posts, every configured topic if no id is given.",
	RunE: passCommand(func(ctx context.Context, ids ...int64) error {
		return app.scraper.ScrapeTopics(ctx, ids...)
	}),
}

var membersCmd = &cobra.Command{
	Use:   "members [id...]",
	Short: "Archives member profiles, every known user if no id is given.",
	RunE: passCommand(func(ctx context.Context, ids ...int64) error {
		return app.scraper.ScrapeMembers(ctx, ids...)
	}),
}
