package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/ytexport/internal/models"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

// Playlists lists the signed-in user's Spotify playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")

	source, err := r.source(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("listing spotify playlists", "limit", limit)
	playlists, err := source.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	r.renderPlaylists(playlists)
	return nil
}

func (r *Runner) renderPlaylists(playlists []models.Playlist) {
	table := tablewriter.NewWriter(r.output)
	table.SetHeader([]string{"ID", "Name", "Tracks", "Owner", "Visibility"})
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for _, p := range playlists {
		visibility := "Private"
		if p.Public {
			visibility = "Public"
		}
		table.Append([]string{p.ID, p.Name, strconv.Itoa(p.TrackCount), p.Owner, visibility})
	}
	table.Render()
}
