// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperdb CLI: it parses free-text
// citations into structured entries, imports reference-manager exports, and
// manages the local entries database.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperdb/internal/secrets"
	"github.com/pdiddy/paperdb/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the paperdb CLI.
var rootCmd = &cobra.Command{
	Use:   "paperdb",
	Short: "Parse and track academic citations",
	Long: `paperdb turns free-text citations into structured bibliography entries.
It resolves each citation through GROBID, Crossref, and OpenAlex with a
regex fallback, merges the partial results by confidence, and can persist
entries with their ordered author lists in a local SQLite database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperdb.yaml or ~/.config/paperdb/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default: "+types.DefaultDBPath+")")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperdb")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperdb"))
		}
	}

	viper.SetEnvPrefix("PAPERDB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// secretDefault returns fallback when set, else the named secret, else "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// pipelineConfig materializes the immutable pipeline configuration from
// defaults, the config file, environment, and .secrets/, in that order of
// increasing precedence for endpoints and credentials.
func pipelineConfig() types.Config {
	cfg := types.DefaultConfig()

	if v := viper.GetDuration("timeout"); v > 0 {
		cfg.Timeout = v
	}
	if v := viper.GetString("user_agent"); v != "" {
		cfg.UserAgent = v
	}
	if v := viper.GetFloat64("early_exit_threshold"); v > 0 {
		cfg.EarlyExitThreshold = v
	}
	if v := viper.GetFloat64("title_similarity_threshold"); v > 0 {
		cfg.TitleSimilarityThreshold = v
	}
	if v := viper.GetInt("concurrency"); v > 0 {
		cfg.Concurrency = v
	}
	if v := viper.GetFloat64("remote_rate"); v > 0 {
		cfg.RemoteRate = v
	}
	if v := viper.GetStringSlice("anum_names"); len(v) > 0 {
		cfg.AnumNames = v
	}

	cfg.GrobidURL = secretDefault("grobid-url", viper.GetString("grobid_url"))
	cfg.CrossrefMailto = secretDefault("crossref-mailto", viper.GetString("crossref_mailto"))
	cfg.OpenAlexEmail = secretDefault("openalex-email", viper.GetString("openalex_email"))

	cfg.DBPath = dbPath()
	return cfg
}

// dbPath resolves the database location: --db flag, then config, then the
// default.
func dbPath() string {
	if v, _ := rootCmd.PersistentFlags().GetString("db"); v != "" {
		return v
	}
	if v := viper.GetString("db_path"); v != "" {
		return v
	}
	return types.DefaultDBPath
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
