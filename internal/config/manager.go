// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/jarpath/internal/cmdlogger"
)

type Manager struct {
	// Override to replace all other configs
	OverrideConfig *Config
	// Config to use if no config file is found next to the target
	DefaultConfig Config
	// Cache to store loaded configs
	ConfigMap map[string]Config
}

// UseOverride updates the Manager to use the config at the given path in place
// of any other config files that would be loaded when calling Get
func (c *Manager) UseOverride(configPath string) error {
	config, configErr := tryLoadConfig(configPath)
	if configErr != nil {
		return configErr
	}
	c.OverrideConfig = &config

	return nil
}

// Get returns the appropriate config to use based on the targetPath. A
// config file that exists but cannot be used is reported as an error
// wrapping ErrInvalidConfig.
func (c *Manager) Get(targetPath string) (Config, error) {
	if c.OverrideConfig != nil {
		return *c.OverrideConfig, nil
	}

	configPath, err := normalizeConfigLoadPath(targetPath)
	if err != nil {
		// targets that do not exist yet (e.g. an --output file) use the default
		return c.DefaultConfig, nil
	}

	config, alreadyExists := c.ConfigMap[configPath]
	if alreadyExists {
		return config, nil
	}

	config, configErr := tryLoadConfig(configPath)
	switch {
	case configErr == nil:
		cmdlogger.Infof("Loaded config from: %s", config.LoadPath)
	case errors.Is(configErr, os.ErrNotExist):
		config = c.DefaultConfig
	default:
		return Config{}, configErr
	}

	if c.ConfigMap == nil {
		c.ConfigMap = make(map[string]Config)
	}
	c.ConfigMap[configPath] = config

	return config, nil
}

// Finds the containing folder of `target`, then appends JarpathConfigName
func normalizeConfigLoadPath(target string) (string, error) {
	stat, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("failed to stat target: %w", err)
	}

	var containingFolder string
	if !stat.IsDir() {
		containingFolder = filepath.Dir(target)
	} else {
		containingFolder = target
	}
	configPath := filepath.Join(containingFolder, JarpathConfigName)

	return configPath, nil
}

// tryLoadConfig attempts to parse the config file at the given path as TOML,
// returning the Config object if successful or otherwise the error
func tryLoadConfig(configPath string) (Config, error) {
	config := Config{}
	m, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}

		return Config{}, fmt.Errorf("%w %s: %w", ErrInvalidConfig, configPath, err)
	}

	unknownKeys := m.Undecoded()
	if len(unknownKeys) > 0 {
		keys := make([]string, 0, len(unknownKeys))

		for _, key := range unknownKeys {
			keys = append(keys, key.String())
		}

		return Config{}, fmt.Errorf("%w %s: unknown keys: %s", ErrInvalidConfig, configPath, strings.Join(keys, ", "))
	}

	config.LoadPath = configPath

	return config, nil
}
