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

// Package assembler merges the nodes and relationships of one decoded graph
// entry into a graph model where every id appears once.
package assembler

import (
	"fmt"

	"github.com/neo4j/neo4j-go-ogm/ogm/db"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/decoder"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

// arena holds entities addressed by id. Entries are copies so merging never
// touches the decoded input.
type arena struct {
	nodes     []*model.Node
	nodeIndex map[int64]int
	rels      []*model.Relationship
	relIndex  map[int64]int
}

func newArena(entry *decoder.GraphEntry) *arena {
	return &arena{
		nodes:     make([]*model.Node, 0, len(entry.Nodes)),
		nodeIndex: make(map[int64]int, len(entry.Nodes)),
		rels:      make([]*model.Relationship, 0, len(entry.Relationships)),
		relIndex:  make(map[int64]int, len(entry.Relationships)),
	}
}

func (a *arena) addNode(n *model.Node) {
	if i, ok := a.nodeIndex[n.Id]; ok {
		existing := a.nodes[i]
		for _, l := range n.Labels {
			if !existing.HasLabel(l) {
				existing.Labels = append(existing.Labels, l)
			}
		}
		existing.Props.Merge(n.Props)
		if n.ElementId != "" {
			existing.ElementId = n.ElementId
		}
		return
	}
	c := &model.Node{
		Id:        n.Id,
		ElementId: n.ElementId,
		Labels:    append(make([]string, 0, len(n.Labels)), n.Labels...),
		Props:     append(make(model.Properties, 0, len(n.Props)), n.Props...),
	}
	a.nodeIndex[n.Id] = len(a.nodes)
	a.nodes = append(a.nodes, c)
}

func (a *arena) addRelationship(r *model.Relationship) {
	if i, ok := a.relIndex[r.Id]; ok {
		existing := a.rels[i]
		existing.Type = r.Type
		existing.StartId, existing.StartElementId = r.StartId, r.StartElementId
		existing.EndId, existing.EndElementId = r.EndId, r.EndElementId
		existing.Props.Merge(r.Props)
		if r.ElementId != "" {
			existing.ElementId = r.ElementId
		}
		return
	}
	c := *r
	c.Props = append(make(model.Properties, 0, len(r.Props)), r.Props...)
	a.relIndex[r.Id] = len(a.rels)
	a.rels = append(a.rels, &c)
}

// Assemble builds the graph model of one record. Relationships may refer to
// nodes declared later in the entry, but every endpoint must be declared
// somewhere in it.
func Assemble(entry decoder.GraphEntry) (*model.GraphModel, error) {
	a := newArena(&entry)
	for _, n := range entry.Nodes {
		a.addNode(n)
	}
	for _, r := range entry.Relationships {
		a.addRelationship(r)
	}
	for i, r := range a.rels {
		if _, ok := a.nodeIndex[r.StartId]; !ok {
			return nil, dangling(i, r, r.StartId)
		}
		if _, ok := a.nodeIndex[r.EndId]; !ok {
			return nil, dangling(i, r, r.EndId)
		}
	}
	return model.NewGraphModel(a.nodes, a.rels), nil
}

func dangling(i int, r *model.Relationship, nodeId int64) error {
	return &db.DecodeError{
		Path:   fmt.Sprintf("relationships[%d]", i),
		Reason: fmt.Sprintf("relationship %d refers to node %d which is not part of the record", r.Id, nodeId),
	}
}
