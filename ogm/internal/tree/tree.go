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

// Package tree holds the intermediate values produced by the wire readers before
// they are decoded into records. A value is one of nil, bool, int64, float64,
// Number, string, []byte, []any, Object or a struct hydrated by the binary reader.
package tree

// Number is a numeric literal kept in its textual form so that the decoder can
// tell integers from floating point values.
type Number string

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a map kept in wire order. Duplicate keys are preserved, consumers
// decide which occurrence wins.
type Object []Member

// Get returns the value of the last occurrence of key.
func (o Object) Get(key string) (any, bool) {
	for i := len(o) - 1; i >= 0; i-- {
		if o[i].Key == key {
			return o[i].Value, true
		}
	}
	return nil, false
}

func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the distinct keys in order of first occurrence.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	seen := make(map[string]struct{}, len(o))
	for _, m := range o {
		if _, dup := seen[m.Key]; dup {
			continue
		}
		seen[m.Key] = struct{}{}
		keys = append(keys, m.Key)
	}
	return keys
}

type absent struct{}

// Absent is returned for a data element that does not carry the requested key.
var Absent any = absent{}

func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}
