// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads the TOML file backing the mcpcore CLI's subcommands.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the root of a TOML config file accepted by the mcpcore CLI.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	SSE     SSEConfig     `toml:"sse"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig describes the identity and advertised capabilities of a
// server started by serve-stdio or serve-sse.
type ServerConfig struct {
	Name                 string `toml:"name"`
	Version              string `toml:"version"`
	Instructions         string `toml:"instructions"`
	ToolsListChanged     bool   `toml:"tools_list_changed"`
	ResourcesListChanged bool   `toml:"resources_list_changed"`
	ResourcesSubscribe   bool   `toml:"resources_subscribe"`
	PromptsListChanged   bool   `toml:"prompts_list_changed"`
	LoggingCapability    bool   `toml:"logging_capability"`
}

// SSEConfig configures the serve-sse subcommand.
type SSEConfig struct {
	Addr string `toml:"addr"`
}

// LoggingConfig configures the CLI's own process logger, distinct from the
// protocol-level logging capability a server may advertise.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Load reads and decodes the config file at path. An empty path returns the
// default Config (server name "mcpcore", version "dev"), so every
// subcommand works unconfigured with flag-only input.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Name: "mcpcore", Version: "dev"},
	}
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("mcpcore: loading config %q: %w", path, err)
	}
	return cfg, nil
}
