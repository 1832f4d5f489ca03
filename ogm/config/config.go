/*
 * Copyright (c) "Neo4j"
 * Neo4j Sweden AB [https://neo4j.com]
 *
 * This file is part of Neo4j.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      https://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package config contains the options used when opening responses and
// running queries over HTTP. Options can be set in code or loaded from YAML:
//
//	uri: http://localhost:7474
//	database: neo4j
//	user: neo4j
//	password: secret
//	timeout: 10s
//	log_level: info
//	spool_dir: /var/lib/ogm/spool
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neo4j/neo4j-go-ogm/ogm/internal/errorutil"
	"github.com/neo4j/neo4j-go-ogm/ogm/log"
)

const (
	DefaultBufferSize = 4096
	DefaultTimeout    = 30 * time.Second
	DefaultDatabase   = "neo4j"
)

// A Config contains options that can be used to customize how responses are
// fetched and read.
type Config struct {
	// Level of the console logger created by Logger.
	//
	// One of off, error, warn, info and debug.
	//
	// default: off
	LogLevel string `yaml:"log_level"`
	// Size in bytes of the read buffer placed in front of a response stream.
	//
	// default: 4096
	BufferSize int `yaml:"buffer_size"`
	// Base URI of the HTTP endpoint, e.g. http://localhost:7474.
	URI string `yaml:"uri"`
	// Database queries are sent to.
	//
	// default: neo4j
	Database string `yaml:"database"`
	// Credentials for basic authentication, no authentication when User is
	// empty.
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Maximum amount of time to wait for the response headers of a request.
	// Reading the body is not limited, it lasts until the response is closed.
	// Zero disables the timeout.
	//
	// default: 30 * time.Second
	Timeout time.Duration `yaml:"timeout"`
	// Ask the server to send query statistics.
	//
	// default: true
	IncludeStats bool `yaml:"include_stats"`
	// Directory of the capture store keeping raw responses for replay. Empty
	// disables capturing unless SpoolInMemory is set.
	SpoolDir string `yaml:"spool_dir"`
	// Keep captured responses in memory only.
	//
	// default: false
	SpoolInMemory bool `yaml:"spool_in_memory"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		LogLevel:     "off",
		BufferSize:   DefaultBufferSize,
		Database:     DefaultDatabase,
		Timeout:      DefaultTimeout,
		IncludeStats: true,
	}
}

// Load reads a YAML file on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides connection settings with OGM_URI, OGM_DATABASE, OGM_USER,
// OGM_PASSWORD and OGM_LOG_LEVEL when set.
func (c *Config) ApplyEnv() {
	for env, field := range map[string]*string{
		"OGM_URI":       &c.URI,
		"OGM_DATABASE":  &c.Database,
		"OGM_USER":      &c.User,
		"OGM_PASSWORD":  &c.Password,
		"OGM_LOG_LEVEL": &c.LogLevel,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

// Validate checks ranges and normalises the configuration.
func (c *Config) Validate() error {
	if c.BufferSize < 0 {
		return &errorutil.UsageError{Message: "Buffer size cannot be smaller than 0"}
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.Timeout < 0 {
		return &errorutil.UsageError{Message: "Timeout cannot be smaller than 0"}
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	c.URI = strings.TrimRight(c.URI, "/")
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return &errorutil.UsageError{Message: err.Error()}
	}
	return nil
}

// Logger returns a console logger at the configured level, or log.Void when
// logging is off.
func (c *Config) Logger() log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil || level == log.OFF {
		return log.Void{}
	}
	return log.Console(level)
}
