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

package bolt

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-ogm/ogm/db"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/packstream"
	. "github.com/neo4j/neo4j-go-ogm/ogm/internal/testutil"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

type failingReader struct{}

var errRead = errors.New("connection reset")

func (failingReader) Read([]byte) (int, error) {
	return 0, errRead
}

func record(t *testing.T, fn func(w *Writer)) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	fn(NewWriter(buf))
	return buf.Bytes()
}

func TestStream(outer *testing.T) {
	outer.Parallel()

	adam := &model.Node{Id: 343, ElementId: "4:x:343", Labels: []string{"Person"}, Props: model.Properties{{Key: "name", Value: "adam"}}}
	acme := &model.Node{Id: 26, Labels: []string{"Company"}, Props: model.Properties{}}
	employed := &model.Relationship{Id: 18, StartId: 343, EndId: 26, Type: "EMPLOYED_BY", Props: model.Properties{}}

	outer.Run("columns, records and stats", func(t *testing.T) {
		b := record(t, func(w *Writer) {
			w.WriteSuccess(map[string]any{"fields": []any{"n", "r", "m"}, "t_first": 1})
			w.WriteRecord(adam, employed, acme)
			w.WriteRecord(adam, nil, map[string]any{"k": []any{int64(1)}})
			w.WriteSuccess(map[string]any{"stats": map[string]any{"nodes-created": 2}, "type": "rw"})
		})
		s := NewStream(bytes.NewReader(b))
		cols, err := s.ReadColumns()
		AssertNoError(t, err)
		AssertDeepEquals(t, cols, []string{"n", "r", "m"})

		values, ok, err := s.ReadNextRecord()
		AssertNoError(t, err)
		AssertTrue(t, ok)
		AssertDeepEquals(t, values, []any{adam, employed, acme})

		values, ok, err = s.ReadNextRecord()
		AssertNoError(t, err)
		AssertTrue(t, ok)
		AssertDeepEquals(t, values[2], tree.Object{{Key: "k", Value: []any{int64(1)}}})

		AssertNil(t, s.Statistics())
		_, ok, err = s.ReadNextRecord()
		AssertNoError(t, err)
		AssertFalse(t, ok)
		AssertDeepEquals(t, s.Statistics(), tree.Object{{Key: "nodes-created", Value: int64(2)}})

		// Stays exhausted
		_, ok, err = s.ReadNextRecord()
		AssertNoError(t, err)
		AssertFalse(t, ok)
	})

	outer.Run("paths", func(t *testing.T) {
		path := &model.Path{
			Nodes:    []*model.Node{adam, acme},
			RelNodes: []*model.RelNode{{Id: 18, Type: "EMPLOYED_BY", Props: model.Properties{}}},
			Indexes:  []int{1, 1},
		}
		b := record(t, func(w *Writer) {
			w.WriteSuccess(map[string]any{"fields": []any{"p"}})
			w.WriteRecord(path)
			w.WriteSuccess(map[string]any{})
		})
		s := NewStream(bytes.NewReader(b))
		values, ok, err := s.ReadNextRecord()
		AssertNoError(t, err)
		AssertTrue(t, ok)
		p := values[0].(*model.Path)
		bound := *employed
		bound.StartElementId = adam.ElementId
		AssertDeepEquals(t, p.Relationships(), []*model.Relationship{&bound})
	})

	outer.Run("large values span chunks", func(t *testing.T) {
		long := strings.Repeat("a", 70000)
		b := record(t, func(w *Writer) {
			w.WriteSuccess(map[string]any{"fields": []any{"s"}})
			w.WriteRecord(long)
			w.WriteSuccess(map[string]any{})
		})
		// No-op chunk in between messages
		b = append([]byte{0x00, 0x00}, b...)
		s := NewStream(bytes.NewReader(b))
		values, ok, err := s.ReadNextRecord()
		AssertNoError(t, err)
		AssertTrue(t, ok)
		AssertStringEqual(t, values[0].(string), long)
	})

	outer.Run("failure instead of header", func(t *testing.T) {
		b := record(t, func(w *Writer) {
			w.WriteFailure("Neo.ClientError.Statement.SyntaxError", "Invalid input")
		})
		s := NewStream(bytes.NewReader(b))
		_, err := s.ReadColumns()
		qe := AssertErrorType[*db.QueryExecutionError](t, err)
		AssertStringEqual(t, qe.Code, "Neo.ClientError.Statement.SyntaxError")
		_, _, err2 := s.ReadNextRecord()
		AssertTrue(t, err2 == err)
	})

	outer.Run("failure after records", func(t *testing.T) {
		b := record(t, func(w *Writer) {
			w.WriteSuccess(map[string]any{"fields": []any{"x"}})
			w.WriteRecord(int64(1))
			w.WriteFailure("Neo.TransientError.General.OutOfMemoryError", "oom")
		})
		s := NewStream(bytes.NewReader(b))
		_, ok, err := s.ReadNextRecord()
		AssertNoError(t, err)
		AssertTrue(t, ok)
		_, ok, err = s.ReadNextRecord()
		AssertFalse(t, ok)
		qe := AssertErrorType[*db.QueryExecutionError](t, err)
		AssertTrue(t, qe.IsRetriableTransient())
	})

	outer.Run("record arity differs from fields", func(t *testing.T) {
		b := record(t, func(w *Writer) {
			w.WriteSuccess(map[string]any{"fields": []any{"x", "y"}})
			w.WriteRecord(int64(1))
		})
		_, _, err := NewStream(bytes.NewReader(b)).ReadNextRecord()
		AssertErrorType[*db.MalformedResponseError](t, err)
	})

	outer.Run("header without fields", func(t *testing.T) {
		b := record(t, func(w *Writer) {
			w.WriteSuccess(map[string]any{})
		})
		_, err := NewStream(bytes.NewReader(b)).ReadColumns()
		AssertErrorType[*db.MalformedResponseError](t, err)
	})

	outer.Run("unexpected message", func(t *testing.T) {
		b := record(t, func(w *Writer) {
			w.WriteSuccess(map[string]any{"fields": []any{}})
			w.message(msgIgnored)
		})
		_, _, err := NewStream(bytes.NewReader(b)).ReadNextRecord()
		me := AssertErrorType[*db.MalformedResponseError](t, err)
		AssertStringContain(t, me.Reason, "IGNORED")
	})

	outer.Run("truncated", func(t *testing.T) {
		b := record(t, func(w *Writer) {
			w.WriteSuccess(map[string]any{"fields": []any{"x"}})
			w.WriteRecord("some value")
		})
		s := NewStream(bytes.NewReader(b[:len(b)-5]))
		_, err := s.ReadColumns()
		AssertNoError(t, err)
		_, _, err = s.ReadNextRecord()
		me := AssertErrorType[*db.MalformedResponseError](t, err)
		AssertTrue(t, errors.Is(me, io.ErrUnexpectedEOF))
	})

	outer.Run("missing closing message", func(t *testing.T) {
		b := record(t, func(w *Writer) {
			w.WriteSuccess(map[string]any{"fields": []any{"x"}})
		})
		s := NewStream(bytes.NewReader(b))
		_, _, err := s.ReadNextRecord()
		AssertErrorType[*db.MalformedResponseError](t, err)
	})

	outer.Run("message ends inside value", func(t *testing.T) {
		// Chunk with a list header of two elements holding only one
		b := []byte{0x00, 0x03, 0xb1, 0x70, 0x92, 0x00, 0x00}
		_, err := NewStream(bytes.NewReader(b)).ReadColumns()
		AssertErrorType[*db.MalformedResponseError](t, err)
	})

	outer.Run("read failure", func(t *testing.T) {
		b := record(t, func(w *Writer) {
			w.WriteSuccess(map[string]any{"fields": []any{"x"}})
		})
		s := NewStream(io.MultiReader(bytes.NewReader(b), failingReader{}))
		_, err := s.ReadColumns()
		AssertNoError(t, err)
		_, _, err = s.ReadNextRecord()
		re := AssertErrorType[*db.ReadError](t, err)
		AssertTrue(t, errors.Is(re, errRead))
	})
}

func TestHydrate(outer *testing.T) {
	outer.Parallel()

	outer.Run("repeated property keys keep the last value", func(t *testing.T) {
		x, err := hydrate('N', []any{int64(1), []any{"A"}, tree.Object{
			{Key: "title", Value: "first"},
			{Key: "n", Value: tree.Object{{Key: "x", Value: 1.5}}},
			{Key: "title", Value: "last"},
		}})
		AssertNoError(t, err)
		AssertDeepEquals(t, x, &model.Node{Id: 1, Labels: []string{"A"}, Props: model.Properties{
			{Key: "title", Value: "last"},
			{Key: "n", Value: map[string]any{"x": 1.5}},
		}})
	})

	cases := []struct {
		name   string
		tag    packstream.StructTag
		fields []any
	}{
		{"node with too few fields", 'N', []any{int64(1), []any{}}},
		{"node with label not a string", 'N', []any{int64(1), []any{int64(1)}, tree.Object{}}},
		{"relationship with wrong id type", 'R', []any{"1", int64(1), int64(2), "T", tree.Object{}}},
		{"relationship with six fields", 'R', []any{int64(1), int64(1), int64(2), "T", tree.Object{}, "e"}},
		{"path with odd indexes", 'P', []any{[]any{&model.Node{}}, []any{}, []any{int64(1)}}},
		{"path index out of range", 'P', []any{[]any{&model.Node{}}, []any{&model.RelNode{}}, []any{int64(2), int64(0)}}},
		{"empty path", 'P', []any{[]any{}, []any{}, []any{}}},
		{"unknown tag", 'Z', []any{}},
	}
	for _, c := range cases {
		outer.Run(c.name, func(t *testing.T) {
			_, err := hydrate(c.tag, c.fields)
			AssertError(t, err)
		})
	}
}
