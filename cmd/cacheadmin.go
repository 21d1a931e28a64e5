package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adlens/creative-intel/internal/model"
)

var (
	cachePlatform string
	cacheIndustry string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the result cache",
}

var cacheGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the cached result for a platform+industry pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := model.ParsePlatform(cachePlatform)
		if err != nil {
			return err
		}

		e := initEnv(cfg)
		defer e.Close()

		cached, err := e.Cache.Get(cmd.Context(), platform, cacheIndustry)
		if err != nil {
			return err
		}
		if cached == nil {
			fmt.Fprintln(os.Stdout, "cache miss")
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cached)
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove the cached result for a platform+industry pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := model.ParsePlatform(cachePlatform)
		if err != nil {
			return err
		}

		e := initEnv(cfg)
		defer e.Close()

		removed, err := e.Cache.Purge(cmd.Context(), platform, cacheIndustry)
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintln(os.Stdout, "purged")
		} else {
			fmt.Fprintln(os.Stdout, "nothing to purge")
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{cacheGetCmd, cachePurgeCmd} {
		c.Flags().StringVar(&cachePlatform, "platform", "", "platform of the cached result")
		c.Flags().StringVar(&cacheIndustry, "industry", "", "industry of the cached result")
		_ = c.MarkFlagRequired("platform")
		_ = c.MarkFlagRequired("industry")
	}
	cacheCmd.AddCommand(cacheGetCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
