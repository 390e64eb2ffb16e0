package commands

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints the row count of every table and the recorded run information.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		err := app.queries.CreateSchema(ctx)
		if err != nil {
			return err
		}
		counts, err := app.queries.Counts(ctx)
		if err != nil {
			return err
		}
		configs, err := app.queries.Configs(ctx)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Table", "Rows"})
		for _, c := range counts {
			t.AppendRow(table.Row{c.Table, humanize.Comma(c.Rows)})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		t = table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Key", "Value"})
		for _, c := range configs {
			t.AppendRow(table.Row{c.Key, c.Value})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
