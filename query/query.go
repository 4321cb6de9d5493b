// Package query resolves what the user typed after "play" to a video and
// remembers past queries for completion.
package query

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/filesystem"
	"github.com/streamhub-cli/streamhub/where"
)

var ErrNoMatch = errors.New("no matching video")

type queryRecord struct {
	Rank  int    `json:"rank"`
	Query string `json:"query"`
}

var cacher = gache.New[map[string]*queryRecord](
	&gache.Options{
		Path:       where.Queries(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Remember adds q to the query history or bumps its rank by weight.
func Remember(q string, weight int) error {
	q = sanitize(q)
	if q == "" {
		return nil
	}

	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		cached = make(map[string]*queryRecord)
	}

	if record, ok := cached[q]; ok {
		record.Rank += weight
	} else {
		cached[q] = &queryRecord{Rank: weight, Query: q}
	}

	return cacher.Set(cached)
}

// SuggestMany returns remembered queries fuzzily matching q, most used first.
func SuggestMany(q string) []string {
	q = sanitize(q)

	cached, expired, err := cacher.Get()
	if err != nil || expired || cached == nil {
		return []string{}
	}

	records := lo.Filter(lo.Values(cached), func(r *queryRecord, _ int) bool {
		return fuzzy.Match(q, r.Query)
	})

	slices.SortFunc(records, func(a, b *queryRecord) int {
		if a.Rank != b.Rank {
			return b.Rank - a.Rank
		}
		return strings.Compare(a.Query, b.Query)
	})

	return lo.Map(records, func(r *queryRecord, _ int) string {
		return r.Query
	})
}

// Resolve picks the video q refers to: an exact id, or else the closest
// fuzzy title match. Ties go to the newer upload.
func Resolve(q string, items []api.MediaItem) (api.MediaItem, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return api.MediaItem{}, fmt.Errorf("%w: empty query", ErrNoMatch)
	}

	if id, err := strconv.ParseInt(q, 10, 64); err == nil {
		if item, ok := lo.Find(items, func(m api.MediaItem) bool { return m.ID == id }); ok {
			return item, nil
		}
	}

	titles := lo.Map(items, func(m api.MediaItem, _ int) string { return m.Title })
	ranks := fuzzy.RankFindNormalizedFold(q, titles)
	if len(ranks) == 0 {
		return api.MediaItem{}, fmt.Errorf("%w: %q", ErrNoMatch, q)
	}

	best := lo.MinBy(ranks, func(a, b fuzzy.Rank) bool {
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return items[a.OriginalIndex].CreatedAt.After(items[b.OriginalIndex].CreatedAt)
	})

	return items[best.OriginalIndex], nil
}

func sanitize(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
