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
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-ogm/ogm/internal/bolt"
	. "github.com/neo4j/neo4j-go-ogm/ogm/internal/testutil"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

// trackingStream counts how often the stream is closed.
type trackingStream struct {
	io.Reader
	closed   int
	closeErr error
}

func (s *trackingStream) Close() error {
	s.closed++
	return s.closeErr
}

func stringStream(s string) *trackingStream {
	return &trackingStream{Reader: strings.NewReader(s)}
}

func fileStream(t *testing.T, name string) *trackingStream {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	AssertNoError(t, err)
	return &trackingStream{Reader: bytes.NewReader(b)}
}

func TestGraphResponse(outer *testing.T) {
	outer.Parallel()
	ctx := context.Background()

	outer.Run("columns", func(t *testing.T) {
		resp, err := OpenResponse(stringStream(`{"results":[{"columns":["_0"],"data":[]}],"errors":[]}`), Graph)
		AssertNoError(t, err)
		AssertDeepEquals(t, resp.Columns(), []string{"_0"})
		AssertFalse(t, resp.Next(ctx))
		AssertNoError(t, resp.Err())
	})

	outer.Run("load by ids", func(t *testing.T) {
		stream := fileStream(t, "graph_load_by_ids.json")
		resp, err := OpenResponse(stream, Graph, WithBufferSize(64))
		AssertNoError(t, err)
		AssertDeepEquals(t, resp.Columns(), []string{"p"})

		var g *model.GraphModel
		AssertTrue(t, resp.NextRecord(ctx, &g))
		AssertLen(t, g.Nodes, 1)
		AssertLen(t, g.Relationships, 0)
		AssertDeepEquals(t, g.Nodes[0].Props, model.Properties{{Key: "firstName", Value: "adam"}})

		AssertTrue(t, resp.NextRecord(ctx, &g))
		AssertLen(t, g.Nodes, 2)
		customer, _ := g.Node(26)
		AssertDeepEquals(t, customer.Props, model.Properties{{Key: "name", Value: "GraphAware"}})
		AssertLen(t, g.Relationships, 1)
		AssertStringEqual(t, g.Relationships[0].Type, "EMPLOYED_BY")
		AssertLen(t, g.RelationshipsOf(343, model.Outgoing), 1)

		AssertTrue(t, resp.NextRecord(ctx, &g))
		issue, _ := g.Node(347)
		AssertDeepEquals(t, issue.Props, model.Properties{
			{Key: "title", Value: "fake 7"},
			{Key: "number", Value: "7"},
		})
		assigned, _ := g.Relationship(506)
		AssertIntEqual(t, int(assigned.StartId), 347)
		AssertIntEqual(t, int(assigned.EndId), 343)

		for i := 0; i < 3; i++ {
			AssertTrue(t, resp.Next(ctx))
			AssertNotNil(t, resp.Record())
		}
		AssertFalse(t, resp.Next(ctx))
		AssertNoError(t, resp.Err())
		AssertNil(t, resp.Record())
		AssertIntEqual(t, stream.closed, 1)

		stats, err := resp.Statistics()
		AssertNoError(t, err)
		AssertDeepEquals(t, stats, model.QueryStatistics{})
	})

	outer.Run("relationship to node outside the record", func(t *testing.T) {
		resp, err := OpenResponse(stringStream(`{"results":[{"columns":["p"],"data":[
			{"graph":{"nodes":[{"id":"1","labels":[],"properties":{}}],"relationships":[]}},
			{"graph":{"nodes":[],"relationships":[{"id":"2","type":"T","startNode":"1","endNode":"1","properties":{}}]}}
		]}],"errors":[]}`), Graph)
		AssertNoError(t, err)
		AssertTrue(t, resp.Next(ctx))
		AssertFalse(t, resp.Next(ctx))
		de := AssertErrorType[*DecodeError](t, resp.Err())
		AssertIntEqual(t, de.Record, 1)
		AssertTrue(t, IsDecodeError(resp.Err()))
	})
}

func TestRestResponse(outer *testing.T) {
	outer.Parallel()
	ctx := context.Background()

	outer.Run("movies", func(t *testing.T) {
		resp, err := OpenResponse(fileStream(t, "rest_movies.json"), Rest)
		AssertNoError(t, err)
		AssertDeepEquals(t, resp.Columns(), []string{"count", "director", "movie"})

		rows, err := resp.Collect(ctx)
		AssertNoError(t, err)
		AssertLen(t, rows, 2)

		first := rows[0]
		AssertLen(t, first.Values, 3)
		AssertDeepEquals(t, first.Values[0], int64(1))
		director := first.Values[1].(*model.Node)
		AssertIntEqual(t, int(director.Id), 396)
		AssertDeepEquals(t, director.Labels, []string{"Person"})
		born, _ := director.Props.Get("born")
		AssertDeepEquals(t, born, int64(1931))
		movie, _ := first.Get("movie")
		AssertIntEqual(t, int(movie.(*model.Node).Id), 395)
		title, _ := movie.(*model.Node).Props.Get("title")
		AssertStringEqual(t, title.(string), "The Birdcage")

		released, _ := rows[1].Values[2].(*model.Node).Props.Get("released")
		AssertDeepEquals(t, released, int64(2007))

		stats, err := resp.Statistics()
		AssertNoError(t, err)
		AssertFalse(t, stats.ContainsUpdates)
	})

	outer.Run("no rows", func(t *testing.T) {
		resp, err := OpenResponse(stringStream(`{"results":[{"columns":["count","director","movie"],"data":[]}],"errors":[]}`), Rest)
		AssertNoError(t, err)
		AssertStringEqual(t, resp.Columns()[1], "director")
		rows, err := resp.Collect(ctx)
		AssertNoError(t, err)
		AssertLen(t, rows, 0)
	})

	outer.Run("row statistics", func(t *testing.T) {
		resp, err := OpenResponse(fileStream(t, "create_with_stats.json"), Row)
		AssertNoError(t, err)
		rows, err := resp.Collect(ctx)
		AssertNoError(t, err)
		AssertDeepEquals(t, rows[1].Values, []any{map[string]any{"name": "vince"}})
		stats, err := resp.Statistics()
		AssertNoError(t, err)
		AssertTrue(t, stats.ContainsUpdates)
		AssertIntEqual(t, stats.NodesCreated, 2)
		AssertIntEqual(t, stats.LabelsAdded, 2)
		AssertIntEqual(t, stats.PropertiesSet, 2)
	})

	outer.Run("entries without the representation are skipped", func(t *testing.T) {
		resp, err := OpenResponse(stringStream(`{"results":[{"columns":["x"],"data":[
			{"row":[1]},{"graph":{"nodes":[],"relationships":[]}},{"row":[3]}
		]}]}`), Row)
		AssertNoError(t, err)
		rows, err := resp.Collect(ctx)
		AssertNoError(t, err)
		AssertLen(t, rows, 2)
		AssertDeepEquals(t, rows[1].Values, []any{int64(3)})
	})

	outer.Run("row arity differs from columns", func(t *testing.T) {
		resp, err := OpenResponse(stringStream(`{"results":[{"columns":["x","y"],"data":[{"row":[1]}]}]}`), Row)
		AssertNoError(t, err)
		_, err = resp.Collect(ctx)
		AssertErrorType[*DecodeError](t, err)
	})

	outer.Run("errors after data", func(t *testing.T) {
		stream := fileStream(t, "error_after_data.json")
		resp, err := OpenResponse(stream, Row)
		AssertNoError(t, err)
		AssertTrue(t, resp.Next(ctx))
		AssertTrue(t, resp.Next(ctx))
		delivered := resp.Record()
		AssertFalse(t, resp.Next(ctx))
		qe := AssertErrorType[*QueryExecutionError](t, resp.Err())
		AssertStringEqual(t, qe.Title(), "ArithmeticError")
		AssertTrue(t, IsQueryExecutionError(resp.Err()))
		AssertIntEqual(t, stream.closed, 1)
		// Delivered records stay valid
		AssertDeepEquals(t, delivered.Values, []any{int64(2)})
		_, err = resp.Statistics()
		AssertTrue(t, err == resp.Err())
	})

	outer.Run("collect keeps records read before the error", func(t *testing.T) {
		resp, err := OpenResponse(fileStream(t, "error_after_data.json"), Row)
		AssertNoError(t, err)
		rows, err := resp.Collect(ctx)
		AssertTrue(t, IsQueryExecutionError(err))
		AssertLen(t, rows, 2)
		AssertDeepEquals(t, rows[0].Values, []any{int64(1)})
	})
}

func TestOpenResponseUsage(outer *testing.T) {
	outer.Parallel()
	ctx := context.Background()

	outer.Run("rejects a kind not made by this package", func(t *testing.T) {
		stream := stringStream(`{"results":[{"columns":["x"],"data":[{"row":[1]}]}]}`)
		resp, err := OpenResponse(stream, Kind[*model.RowModel]{})
		AssertNil(t, resp)
		AssertErrorType[*UsageError](t, err)
		AssertIntEqual(t, stream.closed, 1)

		stream = stringStream("")
		_, err = OpenBoltResponse(stream, Kind[*model.GraphModel]{})
		AssertErrorType[*UsageError](t, err)
		AssertIntEqual(t, stream.closed, 1)
	})

	outer.Run("nil config applies defaults", func(t *testing.T) {
		resp, err := OpenResponse(stringStream(`{"results":[{"columns":["x"],"data":[{"row":[1]}]}]}`), Row, WithConfig(nil))
		AssertNoError(t, err)
		rows, err := resp.Collect(ctx)
		AssertNoError(t, err)
		AssertLen(t, rows, 1)
	})
}

func TestResponseLifecycle(outer *testing.T) {
	outer.Parallel()
	ctx := context.Background()
	twoRows := `{"results":[{"columns":["x"],"data":[{"row":[1]},{"row":[2]}]}]}`

	outer.Run("malformed header closes the stream", func(t *testing.T) {
		stream := stringStream(`{"results":[{"data":[]}]}`)
		resp, err := OpenResponse(stream, Row)
		AssertNil(t, resp)
		AssertTrue(t, IsMalformedResponse(err))
		AssertIntEqual(t, stream.closed, 1)
	})

	outer.Run("nil stream", func(t *testing.T) {
		_, err := OpenResponse(nil, Row)
		AssertErrorType[*UsageError](t, err)
	})

	outer.Run("close before exhaustion", func(t *testing.T) {
		stream := stringStream(twoRows)
		resp, _ := OpenResponse(stream, Row)
		AssertTrue(t, resp.Next(ctx))
		AssertNoError(t, resp.Close())
		AssertNoError(t, resp.Close())
		AssertIntEqual(t, stream.closed, 1)

		AssertFalse(t, resp.Next(ctx))
		AssertTrue(t, IsUseAfterClose(resp.Err()))
		_, err := resp.Statistics()
		AssertErrorType[*UsageError](t, err)
	})

	outer.Run("close after exhaustion", func(t *testing.T) {
		stream := stringStream(twoRows)
		resp, _ := OpenResponse(stream, Row)
		_, err := resp.Collect(ctx)
		AssertNoError(t, err)
		AssertIntEqual(t, stream.closed, 1)
		AssertNoError(t, resp.Close())
		AssertIntEqual(t, stream.closed, 1)
		_, err = resp.Statistics()
		AssertNoError(t, err)
	})

	outer.Run("next after exhaustion", func(t *testing.T) {
		resp, _ := OpenResponse(stringStream(twoRows), Row)
		_, _ = resp.Collect(ctx)
		AssertFalse(t, resp.Next(ctx))
		AssertNoError(t, resp.Err())
	})

	outer.Run("statistics before exhaustion", func(t *testing.T) {
		resp, _ := OpenResponse(stringStream(twoRows), Row)
		AssertTrue(t, resp.Next(ctx))
		_, err := resp.Statistics()
		AssertErrorType[*UsageError](t, err)
	})

	outer.Run("cancelled context", func(t *testing.T) {
		stream := stringStream(twoRows)
		resp, _ := OpenResponse(stream, Row)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		AssertFalse(t, resp.Next(cancelled))
		AssertTrue(t, errors.Is(resp.Err(), context.Canceled))
		AssertIntEqual(t, stream.closed, 1)
		AssertFalse(t, resp.Next(ctx))
	})

	outer.Run("close error is reported once", func(t *testing.T) {
		failure := errors.New("close failed")
		stream := stringStream(twoRows)
		stream.closeErr = failure
		resp, _ := OpenResponse(stream, Row)
		AssertTrue(t, errors.Is(resp.Close(), failure))
		AssertNoError(t, resp.Close())
	})

	outer.Run("truncated stream", func(t *testing.T) {
		resp, _ := OpenResponse(stringStream(`{"results":[{"columns":["x"],"data":[{"row":[1]},{"row":`), Row)
		AssertTrue(t, resp.Next(ctx))
		AssertFalse(t, resp.Next(ctx))
		AssertTrue(t, IsMalformedResponse(resp.Err()))
	})
}

func TestBoltResponse(outer *testing.T) {
	outer.Parallel()
	ctx := context.Background()

	adam := &model.Node{Id: 343, Labels: []string{"User"}, Props: model.Properties{{Key: "firstName", Value: "adam"}}}
	customer := &model.Node{Id: 26, Labels: []string{"Customer"}, Props: model.Properties{{Key: "name", Value: "GraphAware"}}}
	employed := &model.Relationship{Id: 18, StartId: 343, EndId: 26, Type: "EMPLOYED_BY", Props: model.Properties{}}

	recorded := func(t *testing.T) *trackingStream {
		buf := &bytes.Buffer{}
		w := bolt.NewWriter(buf)
		AssertNoError(t, w.WriteSuccess(map[string]any{"fields": []any{"u", "r", "c"}}))
		AssertNoError(t, w.WriteRecord(adam, employed, customer))
		AssertNoError(t, w.WriteRecord(adam, nil, adam))
		AssertNoError(t, w.WriteSuccess(map[string]any{"stats": map[string]any{"nodes-created": 2, "relationships-created": 1}}))
		return &trackingStream{Reader: buf}
	}

	outer.Run("graph", func(t *testing.T) {
		stream := recorded(t)
		resp, err := OpenBoltResponse(stream, Graph)
		AssertNoError(t, err)
		AssertDeepEquals(t, resp.Columns(), []string{"u", "r", "c"})
		graphs, err := resp.Collect(ctx)
		AssertNoError(t, err)
		AssertLen(t, graphs, 2)
		AssertLen(t, graphs[0].Nodes, 2)
		AssertLen(t, graphs[0].Relationships, 1)
		AssertLen(t, graphs[1].Nodes, 1)
		AssertIntEqual(t, stream.closed, 1)

		stats, err := resp.Statistics()
		AssertNoError(t, err)
		AssertIntEqual(t, stats.NodesCreated, 2)
		AssertIntEqual(t, stats.RelationshipsCreated, 1)
		AssertTrue(t, stats.ContainsUpdates)
	})

	outer.Run("row", func(t *testing.T) {
		resp, err := OpenBoltResponse(recorded(t), Row)
		AssertNoError(t, err)
		AssertTrue(t, resp.Next(ctx))
		rel, _ := resp.Record().Get("r")
		AssertDeepEquals(t, rel, employed)
	})

	outer.Run("failure", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := bolt.NewWriter(buf)
		AssertNoError(t, w.WriteFailure("Neo.ClientError.Statement.SyntaxError", "Invalid input"))
		stream := &trackingStream{Reader: buf}
		_, err := OpenBoltResponse(stream, Row)
		AssertTrue(t, IsQueryExecutionError(err))
		AssertIntEqual(t, stream.closed, 1)
	})
}

type labelCounter struct{}

func (labelCounter) Materialize(g *model.GraphModel) ([]string, error) {
	var labels []string
	for _, n := range g.Nodes {
		labels = append(labels, n.Labels...)
	}
	return labels, nil
}

func TestMaterialize(outer *testing.T) {
	ctx := context.Background()

	outer.Run("collects every record", func(t *testing.T) {
		resp, err := OpenResponse(fileStream(t, "graph_load_by_ids.json"), Graph)
		AssertNoError(t, err)
		labels, err := Materialize[*model.GraphModel, string](ctx, resp, labelCounter{})
		AssertNoError(t, err)
		AssertLen(t, labels, 10)
	})

	outer.Run("stops at first error", func(t *testing.T) {
		resp, err := OpenResponse(fileStream(t, "graph_load_by_ids.json"), Graph)
		AssertNoError(t, err)
		failure := errors.New("no")
		_, err = Materialize[*model.GraphModel, int](ctx, resp, MaterializerFunc[*model.GraphModel, int](func(*model.GraphModel) ([]int, error) {
			return nil, failure
		}))
		AssertTrue(t, errors.Is(err, failure))
	})

	outer.Run("keeps objects made before the server error", func(t *testing.T) {
		resp, err := OpenResponse(fileStream(t, "error_after_data.json"), Row)
		AssertNoError(t, err)
		values, err := Materialize[*model.RowModel, any](ctx, resp, MaterializerFunc[*model.RowModel, any](func(row *model.RowModel) ([]any, error) {
			return row.Values, nil
		}))
		AssertTrue(t, IsQueryExecutionError(err))
		AssertDeepEquals(t, values, []any{int64(1), int64(2)})
	})
}
