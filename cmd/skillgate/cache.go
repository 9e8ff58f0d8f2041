package main

import (
	"context"
	"fmt"

	"github.com/jingkaihe/skillgate/pkg/cache"
	"github.com/jingkaihe/skillgate/pkg/config"
	"github.com/jingkaihe/skillgate/pkg/presenter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the intent response cache",
	Long:  `Commands for pruning or clearing cached intent analyses.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cache entries older than 24 hours",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		removed, err := pruneCache(cmd.Context(), cfg.Cache)
		if err != nil {
			return err
		}
		presenter.Success(fmt.Sprintf("Removed %d expired cache entries", removed))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		removed, err := clearCache(cmd.Context(), cfg.Cache)
		if err != nil {
			return err
		}
		presenter.Success(fmt.Sprintf("Removed %d cache entries", removed))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func openCache(ctx context.Context, cfg config.CacheConfig) (*cache.ResponseCache, func() error, error) {
	store, closeStore, err := cache.Open(ctx, cfg.Backend, cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return cache.New(store, cache.WithTTL(cfg.TTL())), closeStore, nil
}

func pruneCache(ctx context.Context, cfg config.CacheConfig) (int, error) {
	responses, closeStore, err := openCache(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer closeStore()
	return responses.EvictExpired(ctx, responses.Now()), nil
}

func clearCache(ctx context.Context, cfg config.CacheConfig) (int, error) {
	responses, closeStore, err := openCache(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer closeStore()
	return responses.Clear(ctx)
}
