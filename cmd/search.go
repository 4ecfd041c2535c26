package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytexport/internal/formatter"
	"github.com/desertthunder/ytexport/internal/shared"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

// Search queries the YouTube Music proxy the way the export pipeline does and shows the top match.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query argument is required", shared.ErrMissingArgument)
	}

	results, err := r.youtubeService().Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if !cmd.Bool("all") && len(results) > 1 {
		results = results[:1]
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	if len(results) == 0 || results[0].VideoID == "" {
		return r.writePlain("No match for %q\n", query)
	}

	table := tablewriter.NewWriter(r.output)
	table.SetHeader([]string{"#", "Title", "Artists", "Duration", "URL"})
	table.SetAutoWrapText(false)
	for i, t := range results {
		table.Append([]string{fmt.Sprint(i + 1), t.Title, t.ArtistNames(), t.Duration, watchURL(t.VideoID)})
	}
	table.Render()
	return nil
}

func watchURL(id string) string {
	if id == "" {
		return ""
	}
	return formatter.WatchURLPrefix + id
}
