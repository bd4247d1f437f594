// Copyright (C) 2025 hubert contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads and validates the settings shared by cmd/hubert's
// subcommands and the backend constructors (dhtkv, ipfskv, serverkv,
// hybrid, pgtable), grounded on the teacher's config package.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hubert-project/hubert/dhtkv"
	"github.com/hubert-project/hubert/hybrid"
	"github.com/hubert-project/hubert/ipfskv"
	"github.com/hubert-project/hubert/serverkv/service"
)

// Config is the top-level configuration document.
type Config struct {
	Environment string        `yaml:"environment" json:"environment"`
	DHT         *DHTConfig    `yaml:"dht" json:"dht"`
	IPFS        *IPFSConfig   `yaml:"ipfs" json:"ipfs"`
	Hybrid      *HybridConfig `yaml:"hybrid" json:"hybrid"`
	Server      *ServerConfig `yaml:"server" json:"server"`
	Logging     *LoggingConfig `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig `yaml:"metrics" json:"metrics"`
}

// DHTConfig configures the BEP-44 mainline DHT backend (spec.md §4.C).
type DHTConfig struct {
	Salt         string `yaml:"salt" json:"salt"`
	MaxValueSize int    `yaml:"max_value_size" json:"max_value_size"`
}

// IPFSConfig configures the IPNS-addressed IPFS backend (spec.md §4.D).
type IPFSConfig struct {
	MaxValueSize    int           `yaml:"max_value_size" json:"max_value_size"`
	Pin             bool          `yaml:"pin" json:"pin"`
	DefaultLifetime time.Duration `yaml:"default_lifetime" json:"default_lifetime"`
}

// HybridConfig configures the size-based router (spec.md §4.H).
type HybridConfig struct {
	Threshold int `yaml:"threshold" json:"threshold"`
}

// ServerConfig configures the loopback service backend (spec.md §4.E, §4.F).
type ServerConfig struct {
	Port        int           `yaml:"port" json:"port"`
	MaxTTL      time.Duration `yaml:"max_ttl" json:"max_ttl"`
	PostgresDSN string        `yaml:"postgres_dsn" json:"postgres_dsn"`
	Verbose     bool          `yaml:"verbose" json:"verbose"`
}

// LoggingConfig configures internal/logger's default logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig configures the serverkv/service Prometheus registry.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// LoadFromFile reads cfg from path, trying YAML then JSON, and fills in
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("config: parse file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile writes cfg to path, choosing JSON for a ".json" extension and
// YAML otherwise.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) >= 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

// setDefaults fills every configured section's zero-valued fields with the
// same defaults the constructors in dhtkv, ipfskv, hybrid, and
// serverkv/service apply on their own, so a value read back out of Config
// matches what New would have chosen anyway. IPFSConfig.Pin is not
// defaulted: an [ipfs] section that omits it leaves Pin false, while
// ipfskv.New pins by default.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.DHT != nil {
		if cfg.DHT.MaxValueSize == 0 {
			cfg.DHT.MaxValueSize = dhtkv.DefaultMaxValueSize
		}
	}

	if cfg.IPFS != nil {
		if cfg.IPFS.MaxValueSize == 0 {
			cfg.IPFS.MaxValueSize = ipfskv.DefaultMaxValueSize
		}
		if cfg.IPFS.DefaultLifetime == 0 {
			cfg.IPFS.DefaultLifetime = ipfskv.DefaultLifetime
		}
	}

	if cfg.Hybrid != nil {
		if cfg.Hybrid.Threshold == 0 {
			cfg.Hybrid.Threshold = hybrid.DefaultThreshold
		}
	}

	if cfg.Server != nil {
		if cfg.Server.Port == 0 {
			cfg.Server.Port = service.DefaultPort
		}
		if cfg.Server.MaxTTL == 0 {
			cfg.Server.MaxTTL = service.DefaultMaxTTL
		}
	}

	if cfg.Logging != nil {
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = "info"
		}
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = "json"
		}
		if cfg.Logging.Output == "" {
			cfg.Logging.Output = "stdout"
		}
	}

	if cfg.Metrics != nil {
		if cfg.Metrics.Path == "" {
			cfg.Metrics.Path = "/metrics"
		}
	}
}
