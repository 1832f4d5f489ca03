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

package decoder

import (
	"fmt"

	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

// DecodeBoltGraph collects every node, relationship and path found in the
// hydrated values of a binary record, including values nested in lists and
// maps. Path members are flattened into their nodes and bound relationships.
func DecodeBoltGraph(values []any) (GraphEntry, error) {
	entry := GraphEntry{Nodes: []*model.Node{}, Relationships: []*model.Relationship{}}
	for i, v := range values {
		if err := collect(fmt.Sprintf("[%d]", i), v, &entry); err != nil {
			return GraphEntry{}, err
		}
	}
	return entry, nil
}

func collect(path string, v any, entry *GraphEntry) error {
	switch x := v.(type) {
	case *model.Node:
		entry.Nodes = append(entry.Nodes, x)
	case *model.Relationship:
		entry.Relationships = append(entry.Relationships, x)
	case *model.Path:
		entry.Nodes = append(entry.Nodes, x.Nodes...)
		entry.Relationships = append(entry.Relationships, x.Relationships()...)
	case []any:
		for i, e := range x {
			if err := collect(fmt.Sprintf("%s[%d]", path, i), e, entry); err != nil {
				return err
			}
		}
	case tree.Object:
		for _, m := range x {
			if err := collect(path+"."+m.Key, m.Value, entry); err != nil {
				return err
			}
		}
	case nil, bool, int64, float64, string, []byte:
	default:
		return decodeError(path, "unsupported value %T", v)
	}
	return nil
}

// DecodeBoltRow converts the hydrated values of a binary record into the same
// shapes DecodeRow produces. Maps become map[string]any, entities and paths
// are kept as they are.
func DecodeBoltRow(values []any) ([]any, error) {
	row := make([]any, len(values))
	for i, v := range values {
		val, err := boltValue(fmt.Sprintf("[%d]", i), v)
		if err != nil {
			return nil, err
		}
		row[i] = val
	}
	return row, nil
}

func boltValue(path string, v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, int64, float64, string, []byte, *model.Node, *model.Relationship, *model.Path:
		return x, nil
	case []any:
		list := make([]any, len(x))
		for i, e := range x {
			val, err := boltValue(fmt.Sprintf("%s[%d]", path, i), e)
			if err != nil {
				return nil, err
			}
			list[i] = val
		}
		return list, nil
	case tree.Object:
		m := make(map[string]any, len(x))
		for _, member := range x {
			val, err := boltValue(path+"."+member.Key, member.Value)
			if err != nil {
				return nil, err
			}
			m[member.Key] = val
		}
		return m, nil
	}
	return nil, decodeError(path, "unsupported value %T", v)
}
