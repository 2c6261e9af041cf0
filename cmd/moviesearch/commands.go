package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mmcdole/moviesearch/internal/config"
	"github.com/mmcdole/moviesearch/internal/store"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "moviesearch %s\n", Version)
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the on-disk query cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached query results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := config.ClearCache(cfg.Cache.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cache cleared (%s databases removed)\n", humanize.Comma(int64(n)))
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of cached query results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.NewQueryStore(cfg.Cache.Path, cfg.TMDB.BaseURL)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer st.Close()

		keys := st.Keys()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s cached queries\n", humanize.Comma(int64(len(keys))))
		for _, k := range keys {
			rec, ok := st.Get(k)
			if !ok {
				continue
			}
			fmt.Fprintf(out, "  %-40s %s\n", k, humanize.Time(rec.UpdatedAt))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	configCmd.AddCommand(configPathCmd)
}
