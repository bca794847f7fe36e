/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package config loads the runtime configuration consumed by the policy store,
// roles table, and snapshot cache. Business policy data itself is never loaded
// through this package — only the plumbing settings needed to reach it.
package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// DataSource describes one logical database connection.
type DataSource struct {
	Type             string `yaml:"type"`
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	Name             string `yaml:"name"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	SSLMode          string `yaml:"sslMode"`
	MaxOpenConns     int    `yaml:"maxOpenConns"`
	MaxIdleConns     int    `yaml:"maxIdleConns"`
	ConnMaxLifetimeS int    `yaml:"connMaxLifetimeSeconds"`
}

// DatabaseConfig groups the data sources the policy admin depends on.
type DatabaseConfig struct {
	Policy DataSource `yaml:"policy"`
}

// L1CacheConfig configures the in-process likely-match cache.
type L1CacheConfig struct {
	Enabled         bool   `yaml:"enabled"`
	MaxSize         int    `yaml:"maxSize"`
	DefaultTTL      int    `yaml:"defaultTTLSeconds"`
	EvictionPolicy  string `yaml:"evictionPolicy"`
	EnablePromotion bool   `yaml:"enablePromotion"`
}

// L2CacheConfig configures the distributed snapshot-invalidation hint.
type L2CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Channel string `yaml:"channel"`
}

// CacheConfig groups the snapshot cache settings.
type CacheConfig struct {
	CleanupInterval int           `yaml:"cleanupIntervalSeconds"`
	L1              L1CacheConfig `yaml:"l1"`
	L2              L2CacheConfig `yaml:"l2"`
}

// EvaluatorConfig tunes the evaluator loop itself.
type EvaluatorConfig struct {
	// LikelyMatchCacheSize is loaded from configuration but not read by the
	// cache subsystem; the likely-match cache is bounded by Cache.L1.MaxSize.
	LikelyMatchCacheSize int `yaml:"likelyMatchCacheSize"`
}

// Config is the root configuration document.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
}

// RangerRuntime is the process-wide singleton built from Config.
type RangerRuntime struct {
	Config Config
}

var (
	runtime   *RangerRuntime
	runtimeMu sync.RWMutex
)

// defaultConfig returns the configuration used when no file is loaded, suitable
// for tests and for a single-process deployment with an in-process SQLite store.
func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Policy: DataSource{Type: "sqlite", Name: "ranger_policies.db"},
		},
		Cache: CacheConfig{
			CleanupInterval: 300,
			L1: L1CacheConfig{
				Enabled:        true,
				MaxSize:        1000,
				DefaultTTL:     3600,
				EvictionPolicy: "LRU",
			},
		},
		Evaluator: EvaluatorConfig{LikelyMatchCacheSize: 500},
	}
}

// GetRangerRuntime returns the process-wide runtime config, lazily loading
// defaults if LoadConfig was never called.
func GetRangerRuntime() *RangerRuntime {
	runtimeMu.RLock()
	if runtime != nil {
		defer runtimeMu.RUnlock()
		return runtime
	}
	runtimeMu.RUnlock()

	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtime == nil {
		runtime = &RangerRuntime{Config: defaultConfig()}
	}
	return runtime
}

// LoadConfig reads a YAML configuration file and installs it as the runtime
// config. Unset fields keep their zero value; callers relying on defaults
// should start from defaultConfig and override selectively in their own YAML.
func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtime = &RangerRuntime{Config: cfg}
	return nil
}

// ResetRangerRuntime restores the default configuration. Used by tests that need
// a clean runtime between cases.
func ResetRangerRuntime() {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtime = &RangerRuntime{Config: defaultConfig()}
}
