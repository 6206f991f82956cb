package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"timelines/internal/pipeline"
	"timelines/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "show [video-id]",
		Short: "List stored runs or show the latest run of a video",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			s, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 0 {
				results, err := s.ListResults(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, results)
				}
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No stored runs")
					return nil
				}
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{
						strconv.FormatInt(r.ID, 10),
						r.VideoID,
						strconv.Itoa(r.EventCount),
						strconv.Itoa(r.MatchedCount),
						r.CreatedAt.Local().Format("2006-01-02 15:04"),
						dash(r.Source),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Video", "Events", "Matched", "Created", "Source"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			}

			videoID := strings.TrimSpace(args[0])
			stored, err := s.LatestResult(cmd.Context(), videoID)
			if err != nil {
				return err
			}
			if stored == nil {
				return fmt.Errorf("no stored run for video %q", videoID)
			}
			if jsonOutput {
				_, err := cmd.OutOrStdout().Write(append(stored.Payload, '\n'))
				return err
			}
			var result pipeline.Result
			if err := json.Unmarshal(stored.Payload, &result); err != nil {
				return fmt.Errorf("decode stored run %s: %w", stored.RunID, err)
			}
			printResult(cmd.OutOrStdout(), &result, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print stored data as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	return cmd
}
