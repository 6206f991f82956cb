package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"timelines/internal/dates"
	"timelines/internal/nlp"
	"timelines/internal/services"
	"timelines/internal/store"
	"timelines/internal/wikipedia"
)

func newCandidatesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var noEntities bool

	cmd := &cobra.Command{
		Use:   "candidates <tag>",
		Short: "List Wikipedia candidate events for a date tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := dates.Parse(args[0])
			if !expr.Parseable() {
				return services.Wrap(services.ErrDateParse, "candidates", "parse", fmt.Sprintf("%q is not a matchable date", args[0]), nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var cache *store.Store
			if cfg.Wikipedia.CacheEnabled {
				cache, err = store.Open(cfg)
				if err != nil {
					return err
				}
				defer cache.Close()
			}

			var analyzer nlp.Analyzer
			if !noEntities {
				analyzer, err = ctx.newAnalyzer(cfg, logger)
				if err != nil {
					return err
				}
			}
			client := newWikipediaClient(cfg, cache, nil, logger)
			candidates, err := wikipedia.NewCandidateFetcher(client, analyzer, logger).Fetch(cmd.Context(), expr)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, candidates)
			}
			if len(candidates) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No candidates for %s\n", expr)
				return nil
			}

			rows := make([][]string, 0, len(candidates))
			for i, c := range candidates {
				entities := make([]string, 0, len(c.Entities))
				for _, e := range c.Entities {
					entities = append(entities, e.Text+"/"+e.Type)
				}
				rows = append(rows, []string{
					strconv.Itoa(i),
					dash(c.Source),
					c.Text,
					strconv.Itoa(len(c.Links)),
					dash(strings.Join(entities, ", ")),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Source", "Text", "Links", "Entities"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print candidates as JSON")
	cmd.Flags().BoolVar(&noEntities, "no-entities", false, "Skip entity extraction (no model needed)")
	return cmd
}
