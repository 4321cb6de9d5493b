package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/streamhub-cli/streamhub/icon"
	"github.com/streamhub-cli/streamhub/util"
	"github.com/streamhub-cli/streamhub/where"
)

type clearable struct {
	what  string
	flag  string
	short string
	path  func() string
}

var clearables = []clearable{
	{what: "watch history", flag: "history", short: "s", path: where.History},
	{what: "remembered queries", flag: "queries", short: "q", path: where.Queries},
	{what: "cache", flag: "cache", short: "c", path: where.Cache},
	{what: "logs", flag: "logs", short: "l", path: where.Logs},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, c := range clearables {
		clearCmd.Flags().BoolP(c.flag, c.short, false, "Clear "+c.what)
	}
	clearCmd.Flags().BoolP("all", "a", false, "Clear everything above")
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear history, caches and logs",
	Run: func(cmd *cobra.Command, args []string) {
		all := lo.Must(cmd.Flags().GetBool("all"))
		selected := lo.Filter(clearables, func(c clearable, _ int) bool {
			return all || lo.Must(cmd.Flags().GetBool(c.flag))
		})

		if len(selected) == 0 {
			handleErr(cmd.Help())
			return
		}

		for _, c := range selected {
			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), c.what))
			err := util.Delete(c.path())
			erase()

			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				handleErr(err)
			}
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(c.what))
		}
	},
}
