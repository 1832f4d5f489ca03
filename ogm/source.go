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
	"bufio"
	"io"

	"github.com/neo4j/neo4j-go-ogm/ogm/internal/bolt"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/jsonstream"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
)

// source pulls raw records from one transport.
type source[T any] interface {
	columns() ([]string, error)
	// next returns the next record decoded by kind. skip is true for records
	// lacking the representation the kind reads.
	next(kind *Kind[T], columns []string) (record T, ok, skip bool, err error)
	statistics() tree.Object
}

type jsonSource[T any] struct {
	rd *jsonstream.Reader
}

func newJSONSource[T any](rd io.Reader, bufferSize int) *jsonSource[T] {
	return &jsonSource[T]{rd: jsonstream.NewReader(rd, bufferSize)}
}

func (s *jsonSource[T]) columns() ([]string, error) {
	return s.rd.ReadColumns()
}

func (s *jsonSource[T]) next(kind *Kind[T], columns []string) (record T, ok, skip bool, err error) {
	v, ok, err := s.rd.ReadNextDataEntry(kind.key)
	if err != nil || !ok {
		return record, false, false, err
	}
	if tree.IsAbsent(v) {
		return record, true, true, nil
	}
	record, err = kind.fromJSON(columns, v)
	return record, true, false, err
}

func (s *jsonSource[T]) statistics() tree.Object {
	return s.rd.Statistics()
}

type boltSource[T any] struct {
	stream *bolt.Stream
}

func newBoltSource[T any](rd io.Reader, bufferSize int) *boltSource[T] {
	return &boltSource[T]{stream: bolt.NewStream(bufio.NewReaderSize(rd, bufferSize))}
}

func (s *boltSource[T]) columns() ([]string, error) {
	return s.stream.ReadColumns()
}

func (s *boltSource[T]) next(kind *Kind[T], columns []string) (record T, ok, skip bool, err error) {
	values, ok, err := s.stream.ReadNextRecord()
	if err != nil || !ok {
		return record, false, false, err
	}
	record, err = kind.fromBolt(columns, values)
	return record, true, false, err
}

func (s *boltSource[T]) statistics() tree.Object {
	return s.stream.Statistics()
}
