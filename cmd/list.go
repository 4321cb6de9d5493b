package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/color"
	"github.com/streamhub-cli/streamhub/icon"
	"github.com/streamhub-cli/streamhub/internal/poller"
	"github.com/streamhub-cli/streamhub/style"
	"github.com/streamhub-cli/streamhub/util"
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("watch", "w", false, "Keep polling until every video is processed")
	listCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	listCmd.Flags().Bool("schema", false, "Print the JSON schema of the output and exit")

	listCmd.SetOut(os.Stdout)
}

// listCmd prints the collection once, or polls it until processing settles.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List uploaded videos and their processing status",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(listSchema()))
			return
		}

		client, err := api.NewFromConfig()
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var items []api.MediaItem
		if lo.Must(cmd.Flags().GetBool("watch")) {
			items, err = watch(ctx, client)
		} else {
			items, err = client.ListVideos(ctx)
		}
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(items))
			return
		}

		renderItems(cmd.OutOrStdout(), items, time.Now())
	},
}

func listSchema() *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	return reflector.Reflect([]api.Record{})
}

// watch polls until no video is pending or ctx is done, then returns the
// last listing.
func watch(ctx context.Context, client poller.Lister) ([]api.MediaItem, error) {
	var (
		mu    sync.Mutex
		erase = func() {}
		errs  = make(chan error, 1)
	)

	synchronizer := poller.New(
		client,
		poller.WithOnChange(func(items []api.MediaItem) {
			mu.Lock()
			defer mu.Unlock()

			erase()
			if pending := lo.CountBy(items, func(m api.MediaItem) bool { return !m.Status.Terminal() }); pending > 0 {
				erase = util.PrintErasable(fmt.Sprintf(
					"%s Waiting for %s to finish processing...",
					icon.Get(icon.Progress),
					util.Quantify(pending, "video", "videos"),
				))
			} else {
				erase = func() {}
			}
		}),
		poller.WithOnError(func(err error, initial bool) {
			if initial {
				errs <- err
			}
		}),
	)

	synchronizer.Start(ctx)
	defer synchronizer.Stop()

	select {
	case <-synchronizer.Quiesced():
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
	}

	mu.Lock()
	erase()
	mu.Unlock()

	return synchronizer.Items(), nil
}

func statusColor(s api.Status) func(string) string {
	switch s {
	case api.Pending:
		return style.Fg(style.WarningColor)
	case api.Processing:
		return style.Fg(style.InfoColor)
	case api.Completed:
		return style.Fg(style.SuccessColor)
	default:
		return style.Fg(style.ErrorColor)
	}
}

func renderItems(w io.Writer, items []api.MediaItem, now time.Time) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, style.Faint("No videos yet"))
		return
	}

	width := lo.Max(lo.Map(items, func(m api.MediaItem, _ int) int { return len(m.Status.Label()) }))
	for _, item := range items {
		_, _ = fmt.Fprintf(
			w,
			"%s %s %s %s\n",
			style.Fg(color.Purple)(fmt.Sprintf("%4d", item.ID)),
			statusColor(item.Status)(fmt.Sprintf("%-*s", width, item.Status.Label())),
			style.Bold(item.Title),
			style.Faint(util.Ago(item.CreatedAt, now)),
		)
	}
}
