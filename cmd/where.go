package cmd

import (
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/streamhub-cli/streamhub/color"
	"github.com/streamhub-cli/streamhub/style"
	"github.com/streamhub-cli/streamhub/where"
)

type location struct {
	title string
	flag  string
	short string
	path  func() string
	// internal locations have a flag but are left out of the overview
	internal bool
}

var locations = []location{
	{title: "Config", flag: "config", short: "c", path: where.Config},
	{title: "Logs", flag: "logs", short: "l", path: where.Logs},
	{title: "History", flag: "history", path: where.History, internal: true},
	{title: "Queries", flag: "queries", path: where.Queries, internal: true},
	{title: "Cache", flag: "cache", path: where.Cache, internal: true},
	{title: "Temp", flag: "temp", path: where.Temp, internal: true},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, l := range locations {
		whereCmd.Flags().BoolP(l.flag, l.short, false, "Print only the "+l.title+" path")
		if l.internal {
			lo.Must0(whereCmd.Flags().MarkHidden(l.flag))
		}
	}

	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(locations, func(l location, _ int) string { return l.flag })...)
	whereCmd.SetOut(os.Stdout)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where streamhub keeps its files",
	Run: func(cmd *cobra.Command, args []string) {
		if l, ok := lo.Find(locations, func(l location) bool {
			return lo.Must(cmd.Flags().GetBool(l.flag))
		}); ok {
			cmd.Println(l.path())
			return
		}

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		shown := lo.Reject(locations, func(l location, _ int) bool { return l.internal })
		for i, l := range shown {
			if i > 0 {
				cmd.Println()
			}
			cmd.Printf("%s %s\n%s\n", header(l.title), style.Fg(color.Yellow)("--"+l.flag), l.path())
		}
	},
}
