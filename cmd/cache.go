package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/lessbuild/internal/cache"
	"github.com/Norgate-AV/lessbuild/internal/config"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the dependency cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:          "stats",
		Short:        "Show dependency cache statistics",
		Args:         cobra.NoArgs,
		RunE:         runCacheStats,
		SilenceUsage: true,
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:          "clear",
		Short:        "Remove every dependency cache entry",
		Args:         cobra.NoArgs,
		RunE:         runCacheClear,
		SilenceUsage: true,
	})

	return cacheCmd
}

func openStore(cmd *cobra.Command) (cache.Store, *config.Config, error) {
	cfg, err := config.NewLoader().LoadForBuild(cmd, nil)
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.OpenStore(cfg.CacheBackend, cfg.CacheDir)
	if err != nil {
		return nil, nil, err
	}

	return store, cfg, nil
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	store, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Directory: %s\n", cfg.CacheDir)
	fmt.Fprintf(out, "Backend:   %s\n", cfg.CacheBackend)
	fmt.Fprintf(out, "Scripts:   %d\n", stats.Scripts)
	fmt.Fprintf(out, "Entries:   %d\n", stats.Entries)
	fmt.Fprintf(out, "Size:      %d bytes\n", stats.Size)

	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	store, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Clear(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared dependency cache in %s\n", cfg.CacheDir)

	return nil
}
