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
	"github.com/neo4j/neo4j-go-ogm/ogm/db"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/assembler"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/decoder"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

// Kind selects which representation of each data entry is read and what
// record type it is turned into.
type Kind[T any] struct {
	key      string
	fromJSON func(columns []string, v any) (T, error)
	fromBolt func(columns []string, values []any) (T, error)
}

// Key is the name of the data entry member read by this kind, also the value
// sent as result data content when running queries.
func (k Kind[T]) Key() string {
	return k.key
}

// Graph reads the "graph" representation of each record and merges it into a
// graph model.
var Graph = Kind[*model.GraphModel]{
	key: "graph",
	fromJSON: func(_ []string, v any) (*model.GraphModel, error) {
		entry, err := decoder.DecodeGraph(v)
		if err != nil {
			return nil, err
		}
		return assembler.Assemble(entry)
	},
	fromBolt: func(_ []string, values []any) (*model.GraphModel, error) {
		entry, err := decoder.DecodeBoltGraph(values)
		if err != nil {
			return nil, err
		}
		return assembler.Assemble(entry)
	},
}

// Rest reads the "rest" representation, where nodes and relationships are
// wrapped with their metadata.
var Rest = Kind[*model.RowModel]{key: "rest", fromJSON: jsonRow, fromBolt: boltRow}

// Row reads the plain "row" representation.
var Row = Kind[*model.RowModel]{key: "row", fromJSON: jsonRow, fromBolt: boltRow}

func jsonRow(columns []string, v any) (*model.RowModel, error) {
	values, err := decoder.DecodeRow(v)
	if err != nil {
		return nil, err
	}
	return rowModel(columns, values)
}

func boltRow(columns []string, values []any) (*model.RowModel, error) {
	values, err := decoder.DecodeBoltRow(values)
	if err != nil {
		return nil, err
	}
	return rowModel(columns, values)
}

func rowModel(columns []string, values []any) (*model.RowModel, error) {
	if len(values) != len(columns) {
		return nil, &db.DecodeError{Reason: "row has a different number of values than there are columns"}
	}
	return &model.RowModel{Columns: columns, Values: values}, nil
}
