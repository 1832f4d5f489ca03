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

package ogm

import (
	"github.com/neo4j/neo4j-go-ogm/ogm/config"
	"github.com/neo4j/neo4j-go-ogm/ogm/log"
)

type options struct {
	logger     log.Logger
	bufferSize int
}

// Option customizes how a response is read.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{logger: log.Void{}, bufferSize: config.DefaultBufferSize}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger of the response.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBufferSize sets the size of the read buffer in front of the stream.
// Sizes below 1 keep the default.
func WithBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithConfig applies the logger and buffer size of cfg, a nil cfg applies the
// defaults.
func WithConfig(cfg *config.Config) Option {
	if cfg == nil {
		cfg = config.Default()
	}
	return func(o *options) {
		WithLogger(cfg.Logger())(o)
		WithBufferSize(cfg.BufferSize)(o)
	}
}
