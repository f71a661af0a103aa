// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cne-ai/internal/entity"
	"github.com/pdiddy/cne-ai/internal/operator"
	"github.com/pdiddy/cne-ai/pkg/types"
)

// setDefaults registers every configuration key so that environment
// variables such as CNE_AI_SERVER_ADDR reach Unmarshal.
func setDefaults() {
	viper.SetDefault("extraction.basename", "table")
	viper.SetDefault("extraction.zip", false)
	viper.SetDefault("extraction.concurrency", 4)

	viper.SetDefault("operators.enabled", []string{operator.NameA, operator.NameB})
	viper.SetDefault("operators.entities.config_path", "")
	viper.SetDefault("operators.entities.patterns_path", "")

	viper.SetDefault("server.addr", ":5000")
	viper.SetDefault("server.max_upload_bytes", 32<<20)
	viper.SetDefault("server.max_concurrent", 4)
	viper.SetDefault("server.max_connections", 0)
	viper.SetDefault("server.read_timeout", time.Minute)
	viper.SetDefault("server.write_timeout", 5*time.Minute)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.temp_dir", "")

	viper.SetDefault("store.path", "data/cne_ai_jobs.db")
	viper.SetDefault("store.max_results", 20)

	viper.SetDefault("archive.backend", "")
	viper.SetDefault("archive.dir", "data/archives")
	viper.SetDefault("archive.bucket", "")
	viper.SetDefault("archive.prefix", "")
	viper.SetDefault("archive.region", "")
	viper.SetDefault("archive.endpoint", "")
	viper.SetDefault("archive.path_style", false)
}

// bindFlags binds the named flags of cmd to configuration keys. Binding
// happens when a command runs so that commands sharing a flag name do not
// overwrite each other's binding.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig decodes the merged configuration.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("reading configuration: %w", err)
	}
	return cfg, nil
}

// operators builds the configured operators, attaching the entity ruler
// to operator B when a patterns file is configured.
func operators(cfg types.OperatorConfig) ([]operator.Operator, error) {
	var opts []operator.Option
	if cfg.Entities.Enabled() {
		ruler, err := entity.Load(cfg.Entities)
		if err != nil {
			return nil, err
		}
		opts = append(opts, operator.WithRecognizer(ruler))
	}
	if len(cfg.Enabled) == 0 {
		return operator.Defaults(opts...), nil
	}
	return operator.Select(cfg.Enabled, opts...)
}
