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

import "context"

// Materializer turns one record into domain objects. Implementations live in
// package mapping.
type Materializer[T, R any] interface {
	Materialize(record T) ([]R, error)
}

// MaterializerFunc adapts a function to the Materializer interface.
type MaterializerFunc[T, R any] func(record T) ([]R, error)

func (f MaterializerFunc[T, R]) Materialize(record T) ([]R, error) {
	return f(record)
}

// Materialize reads the remaining records of resp and collects what m makes
// of them. The response is not closed. On failure the objects made so far are
// returned along with the error.
func Materialize[T, R any](ctx context.Context, resp Response[T], m Materializer[T, R]) ([]R, error) {
	var out []R
	for resp.Next(ctx) {
		objs, err := m.Materialize(resp.Record())
		if err != nil {
			return out, err
		}
		out = append(out, objs...)
	}
	return out, resp.Err()
}
