// Copyright 2026 Sengol AI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/sengol-ai/conclave/database/plugin"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "conclave.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

type tempConfig struct {
	Config   *Config                   `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	// Logging
	LogLevel string `yaml:"logLevel" split_words:"true"`
	Debug    bool   `yaml:"debug"`
	// API
	BindAddr string `yaml:"bindAddr" split_words:"true"`
	ApiPort  uint   `yaml:"apiPort"  split_words:"true"`
	// Metrics
	MetricsPort uint `yaml:"metricsPort" split_words:"true"`
	// Storage
	DataDir        string `yaml:"dataDir"        split_words:"true"`
	MetadataPlugin string `yaml:"metadataPlugin" envconfig:"CONCLAVE_DATABASE_METADATA_PLUGIN"`
	BlobPlugin     string `yaml:"blobPlugin"     envconfig:"CONCLAVE_DATABASE_BLOB_PLUGIN"`
	// Tracing
	Tracing             bool   `yaml:"tracing"`
	TracingStdout       bool   `yaml:"tracingStdout"       split_words:"true"`
	TracingOtlpEndpoint string `yaml:"tracingOtlpEndpoint" split_words:"true"`
	// Shutdown
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
}

var globalConfig = &Config{
	LogLevel:        "info",
	BindAddr:        "0.0.0.0",
	ApiPort:         8080,
	MetricsPort:     12798,
	DataDir:         ".conclave",
	MetadataPlugin:  DefaultMetadataPlugin,
	BlobPlugin:      DefaultBlobPlugin,
	ShutdownTimeout: DefaultShutdownTimeout,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.conclave/conclave.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".conclave", "conclave.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/conclave/conclave.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/conclave/conclave.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// First unmarshal into temp config to handle plugin sections
		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// If config section exists, use it for main config
		if tempCfg.Config != nil {
			// Overlay config values onto existing defaults
			configBytes, err := yaml.Marshal(tempCfg.Config)
			if err != nil {
				return nil, fmt.Errorf("error re-marshalling config: %w", err)
			}
			err = yaml.Unmarshal(configBytes, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			// Otherwise unmarshal the whole file as main config
			err = yaml.Unmarshal(buf, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}

		// Process plugin configurations
		pluginConfig := make(map[string]map[string]map[string]any)
		if tempCfg.Blob != nil {
			pluginConfig["blob"] = tempCfg.Blob
		}
		if tempCfg.Metadata != nil {
			pluginConfig["metadata"] = tempCfg.Metadata
		}
		// Handle database section if present
		if tempCfg.Database != nil {
			if tempCfg.Database.Blob != nil {
				if blobConfig, pluginName := extractPluginSection(
					"blob",
					tempCfg.Database.Blob,
				); blobConfig != nil {
					if pluginName != "" {
						globalConfig.BlobPlugin = pluginName
					}
					if pluginConfig["blob"] == nil {
						pluginConfig["blob"] = blobConfig
					} else {
						maps.Copy(pluginConfig["blob"], blobConfig)
					}
				}
			}
			if tempCfg.Database.Metadata != nil {
				if metadataConfig, pluginName := extractPluginSection(
					"metadata",
					tempCfg.Database.Metadata,
				); metadataConfig != nil {
					if pluginName != "" {
						globalConfig.MetadataPlugin = pluginName
					}
					if pluginConfig["metadata"] == nil {
						pluginConfig["metadata"] = metadataConfig
					} else {
						maps.Copy(pluginConfig["metadata"], metadataConfig)
					}
				}
			}
		}
		if len(pluginConfig) > 0 {
			err = plugin.ProcessConfig(pluginConfig)
			if err != nil {
				return nil, fmt.Errorf(
					"error processing plugin config: %w",
					err,
				)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("conclave", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	return globalConfig, nil
}

// extractPluginSection converts a database.<store> YAML section into the
// plugin config map shape, pulling out an optional "plugin" name key
func extractPluginSection(
	section string,
	raw map[string]any,
) (map[string]map[string]any, string) {
	var pluginName string
	if pluginVal, exists := raw["plugin"]; exists {
		if name, ok := pluginVal.(string); ok {
			pluginName = name
			delete(raw, "plugin")
		}
	}
	sectionConfig := make(map[string]map[string]any)
	for k, v := range raw {
		if val, ok := v.(map[string]any); ok {
			sectionConfig[k] = val
		} else if val, ok := v.(map[any]any); ok {
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			sectionConfig[k] = stringAnyMap
		} else {
			// Log skipped non-map config entries
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				section,
				k,
				v,
			)
		}
	}
	return sectionConfig, pluginName
}

func GetConfig() *Config {
	return globalConfig
}
