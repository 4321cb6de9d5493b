package cmd

import (
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/streamhub-cli/streamhub/api"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolP("raw", "r", false, "Print the wire value, e.g. PROCESSING")
	statusCmd.SetOut(os.Stdout)
}

// statusCmd prints the processing status of one video.
var statusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the processing status of a video",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		handleErr(err)

		client, err := api.NewFromConfig()
		handleErr(err)

		status, err := client.GetStatus(cmd.Context(), id)
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("raw")) {
			cmd.Println(status.String())
			return
		}
		cmd.Println(statusColor(status)(status.Label()))
	},
}
