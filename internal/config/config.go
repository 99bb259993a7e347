// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the pipeline configuration from defaults, an
// optional YAML file, ARXIV_TRENDS_* environment variables, and a secrets
// directory, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-trends/internal/secrets"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

const (
	envPrefix  = "ARXIV_TRENDS"
	configName = "arxiv-trends"
)

// DefaultSecretsDir is where Load looks for secret files unless told
// otherwise.
const DefaultSecretsDir = ".secrets"

// Load builds the configuration. configFile may be empty, in which case
// arxiv-trends.yaml in the working directory is used when present. A .env
// file is loaded into the environment first so its values are visible to
// viper's env binding.
func Load(configFile, secretsDir string) (*types.Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &types.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applySecrets(cfg, secretsDir)
	return cfg, nil
}

// setDefaults registers every configuration key. Keys without a registered
// default are invisible to env-only overrides.
func setDefaults(v *viper.Viper) {
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.user_agent", "arxiv-trends/0.1")
	v.SetDefault("fetch.topics", []string{"cat:cs.AI", "cat:cs.LG", "cat:cs.CL", "cat:cs.CV"})
	v.SetDefault("fetch.topics_file", "")
	v.SetDefault("fetch.window_days", 7)
	v.SetDefault("fetch.max_results", 100)

	v.SetDefault("classify.model", "gemini-2.0-flash")
	v.SetDefault("classify.api_key", "")
	v.SetDefault("classify.max_tokens", 1024)
	v.SetDefault("classify.max_retries", 3)

	v.SetDefault("storage.db_path", "arxiv-trends.db")
	v.SetDefault("report.output_dir", "output/reports")

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.to", []string{})
	v.SetDefault("mail.timeout", "30s")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("scheduler.cron", "")
	v.SetDefault("logging.level", "info")
}

// applySecrets overlays values from the secrets directory. Secret files
// outrank both the config file and the environment.
func applySecrets(cfg *types.Config, dir string) {
	if dir == "" {
		return
	}
	vals, err := secrets.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}
	if len(vals) > 0 {
		fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", vals.Names())
	}
	if v := vals.Get(secrets.GeminiAPIKey); v != "" {
		cfg.Classify.APIKey = v
	}
	if v := vals.Get(secrets.SMTPPassword); v != "" {
		cfg.Mail.Password = v
	}
}
