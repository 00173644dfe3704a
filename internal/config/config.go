package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the process configuration for one ETL run, read from a YAML
// file with environment variable overrides (prefix GLETL_, dots replaced by
// underscores, e.g. GLETL_BUILDIUM_CLIENT_SECRET).
type Config struct {
	Buildium  BuildiumConfig  `mapstructure:"buildium"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Run       RunConfig       `mapstructure:"run"`
}

// BuildiumConfig holds the accounting API endpoint and credentials.
type BuildiumConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// WarehouseConfig locates the BigQuery datasets and the GCS staging bucket.
type WarehouseConfig struct {
	ProjectID      string `mapstructure:"project_id"`
	TargetDataset  string `mapstructure:"target_dataset"`
	StagingDataset string `mapstructure:"staging_dataset"`
	StagingBucket  string `mapstructure:"staging_bucket"`
	ExportDir      string `mapstructure:"export_dir"`
}

// RunConfig holds per-run transform settings.
type RunConfig struct {
	DedupStrategy string `mapstructure:"dedup_strategy"`
	FlattenDepth  int    `mapstructure:"flatten_depth"`
}

// Load reads the configuration file at path and applies environment
// overrides. A missing file is not an error when every required value comes
// from the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GLETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("buildium.base_url", "https://api.buildium.com/v1")
	v.SetDefault("buildium.client_id", "")
	v.SetDefault("buildium.client_secret", "")
	v.SetDefault("warehouse.project_id", "")
	v.SetDefault("warehouse.target_dataset", "general_ledger")
	v.SetDefault("warehouse.staging_dataset", "general_ledger_staging")
	v.SetDefault("warehouse.staging_bucket", "")
	v.SetDefault("warehouse.export_dir", "")
	v.SetDefault("run.dedup_strategy", "first_wins")
	v.SetDefault("run.flatten_depth", 1)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}
