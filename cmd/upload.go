package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/color"
	"github.com/streamhub-cli/streamhub/icon"
	"github.com/streamhub-cli/streamhub/style"
	"github.com/streamhub-cli/streamhub/util"
)

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringP("title", "t", "", "Title of the video; prompted for when omitted")
	uploadCmd.Flags().BoolP("yes", "y", false, "Do not prompt; use the file name as the title when none is given")
}

// uploadCmd sends a video file to the server for processing.
var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a video file for processing",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			title       = lo.Must(cmd.Flags().GetString("title"))
			interactive = !lo.Must(cmd.Flags().GetBool("yes"))
			file        string
		)

		if len(args) == 1 {
			file = args[0]
		} else if interactive {
			handleErr(survey.AskOne(&survey.Input{
				Message: "Video file:",
			}, &file, survey.WithValidator(survey.Required)))
		}

		if title == "" {
			if interactive {
				handleErr(survey.AskOne(&survey.Input{
					Message: "Title:",
					Default: util.FileStem(file),
				}, &title, survey.WithValidator(survey.Required)))
			} else {
				title = util.FileStem(file)
			}
		}

		handleErr(api.ValidateUpload(title, file))

		client, err := api.NewFromConfig()
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		erase := util.PrintErasable(fmt.Sprintf("%s Uploading %s...", icon.Get(icon.Upload), style.Fg(color.Purple)(title)))
		err = client.UploadVideo(ctx, title, file)
		erase()
		handleErr(err)

		fmt.Printf(
			"%s %s Your video is now being processed\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Bold("Upload Successful!"),
		)
	},
}
