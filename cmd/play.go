package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/log"
	"github.com/streamhub-cli/streamhub/query"
	"github.com/streamhub-cli/streamhub/tui"
)

func init() {
	rootCmd.AddCommand(playCmd)
}

// playCmd opens the player view for one video, skipping the listing.
var playCmd = &cobra.Command{
	Use:   "play <id|title>",
	Short: "Play a processed video by id or title",
	Long: `Play a processed video by id or title.

A numeric argument is matched against video ids first. Otherwise the closest
title wins, and among equally close titles the newest upload.`,
	Args: cobra.MinimumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return query.SuggestMany(toComplete), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		client, err := api.NewFromConfig()
		handleErr(err)

		item, err := resolvePlayable(cmd.Context(), client, strings.Join(args, " "))
		handleErr(err)

		if err := query.Remember(item.Title, 1); err != nil {
			log.WithError(err).Warn("remembering query")
		}

		CheckDependencies()
		handleErr(tui.Run(&tui.Options{Client: client, Play: mo.Some(item)}))
	},
}

type videoFinder interface {
	ListVideos(ctx context.Context) ([]api.MediaItem, error)
	GetVideo(ctx context.Context, id int64) (api.MediaItem, error)
}

// resolvePlayable finds the video q refers to and fetches it fresh, since
// the listing may be older than its processing state.
func resolvePlayable(ctx context.Context, client videoFinder, q string) (api.MediaItem, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	items, err := client.ListVideos(ctx)
	if err != nil {
		return api.MediaItem{}, err
	}

	match, err := query.Resolve(q, items)
	if err != nil {
		return api.MediaItem{}, err
	}

	item, err := client.GetVideo(ctx, match.ID)
	if err != nil {
		return api.MediaItem{}, err
	}

	if !item.Playable() {
		return api.MediaItem{}, fmt.Errorf("%s is %s", item.Title, strings.ToLower(item.Status.Label()))
	}

	return item, nil
}
