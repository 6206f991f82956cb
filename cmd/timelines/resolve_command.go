package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"timelines/internal/logging"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "resolve <href>...",
		Short: "Resolve /wiki/ links to Wikidata identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			resolver := newResolver(cfg, newWikipediaClient(cfg, nil, nil, logger), nil, logger)
			resolved, err := resolver.Resolve(cmd.Context(), args)
			if err != nil {
				logging.WarnWithContext(logger, "resolution incomplete", "topic_resolution_failed", logging.Error(err))
			}
			if jsonOutput {
				return writeJSON(cmd, resolved)
			}
			if len(resolved) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No article links to resolve")
				return nil
			}
			rows := make([][]string, 0, len(resolved))
			for _, topic := range resolved {
				id := "-"
				if topic.KnowledgeBaseID != nil {
					id = *topic.KnowledgeBaseID
				}
				rows = append(rows, []string{topic.Href, topic.Title, id})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Link", "Title", "Wikidata"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print topics as JSON")
	return cmd
}
