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

package model

// Direction selects relationships relative to a node.
type Direction string

const (
	Outgoing   Direction = "OUTGOING"
	Incoming   Direction = "INCOMING"
	Undirected Direction = "UNDIRECTED"
)

// GraphModel is the graph reconstructed from one graph shaped record. Every
// node and relationship appears once, in order of first appearance.
type GraphModel struct {
	Nodes         []*Node
	Relationships []*Relationship
	nodeIndex     map[int64]int
	relIndex      map[int64]int
}

// NewGraphModel indexes nodes and relationships by id. Ids are expected to be
// unique.
func NewGraphModel(nodes []*Node, rels []*Relationship) *GraphModel {
	g := &GraphModel{
		Nodes:         nodes,
		Relationships: rels,
		nodeIndex:     make(map[int64]int, len(nodes)),
		relIndex:      make(map[int64]int, len(rels)),
	}
	for i, n := range nodes {
		g.nodeIndex[n.Id] = i
	}
	for i, r := range rels {
		g.relIndex[r.Id] = i
	}
	return g
}

func (g *GraphModel) Node(id int64) (*Node, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return g.Nodes[i], true
}

func (g *GraphModel) Relationship(id int64) (*Relationship, bool) {
	i, ok := g.relIndex[id]
	if !ok {
		return nil, false
	}
	return g.Relationships[i], true
}

// RelationshipsOf returns the relationships attached to the node with the
// given id. Undirected returns both outgoing and incoming relationships.
func (g *GraphModel) RelationshipsOf(nodeId int64, dir Direction) []*Relationship {
	var rels []*Relationship
	for _, r := range g.Relationships {
		switch {
		case (dir == Outgoing || dir == Undirected) && r.StartId == nodeId:
			rels = append(rels, r)
		case (dir == Incoming || dir == Undirected) && r.EndId == nodeId:
			rels = append(rels, r)
		}
	}
	return rels
}

// RowModel is one row shaped record: a fixed arity list of values, one per
// column. Values are scalars, []any, map[string]any, *Node or *Relationship.
type RowModel struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column.
func (r *RowModel) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}
