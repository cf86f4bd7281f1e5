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

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envVarPrefix is prepended to the per-option env var names
const envVarPrefix = "CONCLAVE"

func pluginTypeFromName(name string) (PluginType, error) {
	switch name {
	case "blob":
		return PluginTypeBlob, nil
	case "metadata":
		return PluginTypeMetadata, nil
	default:
		return 0, fmt.Errorf("unknown plugin type: %s", name)
	}
}

// ProcessConfig applies plugin option values from parsed config file
// sections. The outer map is keyed by plugin type name, then plugin name,
// then option name.
func ProcessConfig(
	pluginConfig map[string]map[string]map[string]any,
) error {
	for typeName, plugins := range pluginConfig {
		pluginType, err := pluginTypeFromName(typeName)
		if err != nil {
			return err
		}
		for pluginName, options := range plugins {
			for optionName, value := range options {
				if err := SetPluginOption(
					pluginType,
					pluginName,
					optionName,
					value,
				); err != nil {
					return fmt.Errorf(
						"%s plugin %s option %s: %w",
						typeName,
						pluginName,
						optionName,
						err,
					)
				}
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin option values from environment variables.
// Each registered option maps to CONCLAVE_<TYPE>_<PLUGIN>_<OPTION> with
// dashes converted to underscores, e.g. CONCLAVE_BLOB_BADGER_DATA_DIR.
func ProcessEnvVars() error {
	for _, entry := range pluginEntries {
		for _, opt := range entry.Options {
			envName := strings.ToUpper(
				strings.ReplaceAll(
					fmt.Sprintf(
						"%s_%s_%s_%s",
						envVarPrefix,
						PluginTypeName(entry.Type),
						entry.Name,
						opt.Name,
					),
					"-",
					"_",
				),
			)
			envValue, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			var value any
			switch opt.Type {
			case PluginOptionTypeString:
				value = envValue
			case PluginOptionTypeBool:
				parsed, err := strconv.ParseBool(envValue)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", envName, err)
				}
				value = parsed
			case PluginOptionTypeInt:
				parsed, err := strconv.Atoi(envValue)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", envName, err)
				}
				value = parsed
			case PluginOptionTypeUint:
				parsed, err := strconv.ParseUint(envValue, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", envName, err)
				}
				value = parsed
			default:
				return fmt.Errorf(
					"unknown option type %d for %s",
					opt.Type,
					envName,
				)
			}
			if err := SetPluginOption(
				entry.Type,
				entry.Name,
				opt.Name,
				value,
			); err != nil {
				return fmt.Errorf("env var %s: %w", envName, err)
			}
		}
	}
	return nil
}
