package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"timelines/internal/store"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Wikipedia page cache",
	}
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached pages older than the cache TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			age := olderThan
			if age <= 0 {
				age = cfg.CacheTTL()
			}
			if age <= 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache expiry is disabled; pass --older-than to prune")
				return nil
			}
			s, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			removed, err := s.PrunePages(cmd.Context(), age)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached pages older than %s\n", removed, age)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age threshold (defaults to wikipedia.cache_ttl_hours)")
	return cmd
}
