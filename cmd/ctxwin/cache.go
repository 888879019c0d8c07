package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flemzord/ctxwin/internal/cron"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Token cache maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove token counts unused for longer than cache.max_age",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.Cache.Enabled {
				return errors.New("cache: not enabled in configuration")
			}
			rt, err := newApp(cmd.Context(), cfg, newLogger(cmd, cfg))
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			before, err := rt.store.Len(cmd.Context())
			if err != nil {
				return err
			}
			sched, err := newScheduler(rt)
			if err != nil {
				return err
			}
			if err := sched.RunNow(cmd.Context(), cron.CachePruneJobName); err != nil {
				return err
			}
			after, err := rt.store.Len(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d of %d cached counts\n", before-after, before)
			return nil
		},
	})
	return cmd
}
