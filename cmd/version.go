package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/color"
	"github.com/streamhub-cli/streamhub/constant"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/style"
	"github.com/streamhub-cli/streamhub/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Print only the version number")
	versionCmd.SetOut(os.Stdout)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		defer version.Notify()

		rows := []lo.Tuple2[string, string]{
			lo.T2("Version", constant.Version),
			lo.T2("Commit", constant.Revision),
			lo.T2("Built", strings.TrimSpace(constant.BuiltAt)),
			lo.T2("Built by", constant.BuiltBy),
			lo.T2("Platform", runtime.GOOS+"/"+runtime.GOARCH),
			lo.T2("API", viper.GetString(key.APIBaseURL)),
			lo.T2("Player", viper.GetString(key.Player)),
		}

		cmd.Println(style.Fg(color.Purple)("▇▇▇ " + constant.StreamHub))
		cmd.Println()
		for _, row := range rows {
			cmd.Println(fmt.Sprintf("  %-10s %s", style.Faint(row.A), style.Bold(row.B)))
		}
	},
}
