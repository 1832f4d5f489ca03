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


package main

import (
	"context"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/neo4j/neo4j-go-ogm/ogm"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

type printer struct {
	enc   *jsoniter.Encoder
	stats bool
}

func newPrinter(cmd *cobra.Command) *printer {
	stats, _ := cmd.Flags().GetBool("stats")
	return &printer{enc: newEncoder(cmd.OutOrStdout()), stats: stats}
}

func newEncoder(w io.Writer) *jsoniter.Encoder {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// emit writes every record of resp and closes it.
func emit[T any](ctx context.Context, out *printer, resp ogm.Response[T], render func(T) any) (err error) {
	defer func() {
		if closeErr := resp.Close(); err == nil {
			err = closeErr
		}
	}()
	for resp.Next(ctx) {
		if err := out.enc.Encode(render(resp.Record())); err != nil {
			return err
		}
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if !out.stats {
		return nil
	}
	stats, err := resp.Statistics()
	if err != nil {
		return err
	}
	return out.enc.Encode(map[string]any{"statistics": renderStats(stats)})
}

func renderGraph(g *model.GraphModel) any {
	nodes := make([]any, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = renderNode(n)
	}
	rels := make([]any, len(g.Relationships))
	for i, r := range g.Relationships {
		rels[i] = renderRelationship(r)
	}
	return map[string]any{"nodes": nodes, "relationships": rels}
}

func renderRow(r *model.RowModel) any {
	row := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		row[c] = renderValue(r.Values[i])
	}
	return row
}

func renderValue(v any) any {
	switch x := v.(type) {
	case *model.Node:
		return renderNode(x)
	case *model.Relationship:
		return renderRelationship(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = renderValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = renderValue(e)
		}
		return out
	}
	return v
}

func renderNode(n *model.Node) map[string]any {
	m := map[string]any{"id": n.Id, "labels": n.Labels, "properties": n.Props.AsMap()}
	if n.ElementId != "" {
		m["elementId"] = n.ElementId
	}
	return m
}

func renderRelationship(r *model.Relationship) map[string]any {
	m := map[string]any{
		"id":         r.Id,
		"type":       r.Type,
		"startNode":  r.StartId,
		"endNode":    r.EndId,
		"properties": r.Props.AsMap(),
	}
	if r.ElementId != "" {
		m["elementId"] = r.ElementId
	}
	return m
}

func renderStats(s model.QueryStatistics) map[string]any {
	return map[string]any{
		"contains_updates":        s.ContainsUpdates,
		"contains_system_updates": s.ContainsSystemUpdates,
		"nodes_created":           s.NodesCreated,
		"nodes_deleted":           s.NodesDeleted,
		"relationships_created":   s.RelationshipsCreated,
		"relationships_deleted":   s.RelationshipsDeleted,
		"properties_set":          s.PropertiesSet,
		"labels_added":            s.LabelsAdded,
		"labels_removed":          s.LabelsRemoved,
		"indexes_added":           s.IndexesAdded,
		"indexes_removed":         s.IndexesRemoved,
		"constraints_added":       s.ConstraintsAdded,
		"constraints_removed":     s.ConstraintsRemoved,
		"system_updates":          s.SystemUpdates,
	}
}
