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

// Package model contains the records produced when reading a query response:
// graph models, row models and the statistics of the executed statement.
package model

// Property is a single key/value pair of a node or relationship.
type Property struct {
	Key   string
	Value any
}

// Properties is an ordered property list. Keys are unique, the order is the
// order in which the keys were first seen.
type Properties []Property

// Get returns the value of key.
func (p Properties) Get(key string) (any, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return nil, false
}

// Set overwrites the value of an existing key in place or appends a new one.
func (p *Properties) Set(key string, value any) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Property{Key: key, Value: value})
}

// Merge overwrites p with every property of other, later keys win.
func (p *Properties) Merge(other Properties) {
	for _, prop := range other {
		p.Set(prop.Key, prop.Value)
	}
}

func (p Properties) Keys() []string {
	keys := make([]string, len(p))
	for i, prop := range p {
		keys[i] = prop.Key
	}
	return keys
}

// AsMap returns the properties as a map, losing the order.
func (p Properties) AsMap() map[string]any {
	m := make(map[string]any, len(p))
	for _, prop := range p {
		m[prop.Key] = prop.Value
	}
	return m
}

// Entity is implemented by Node and Relationship.
type Entity interface {
	GetId() int64
	GetElementId() string
	GetProperties() Properties
}

// Node represents a node in the graph.
type Node struct {
	Id        int64      // Id of this node, stable within one response.
	ElementId string     // ElementId of this node, empty when the source does not send one.
	Labels    []string   // Labels attached to this node.
	Props     Properties // Properties of this node.
}

func (n *Node) GetId() int64              { return n.Id }
func (n *Node) GetElementId() string      { return n.ElementId }
func (n *Node) GetProperties() Properties { return n.Props }

// HasLabel reports whether label is attached to the node.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Relationship represents a relationship in the graph.
type Relationship struct {
	Id             int64      // Identity of this relationship.
	ElementId      string     // ElementId of this relationship, may be empty.
	StartId        int64      // Identity of the start node of this relationship.
	EndId          int64      // Identity of the end node of this relationship.
	StartElementId string     // ElementId of the start node, may be empty.
	EndElementId   string     // ElementId of the end node, may be empty.
	Type           string     // Type of this relationship.
	Props          Properties // Properties of this relationship.
}

func (r *Relationship) GetId() int64              { return r.Id }
func (r *Relationship) GetElementId() string      { return r.ElementId }
func (r *Relationship) GetProperties() Properties { return r.Props }

// RelNode is a relationship inside a path, without start and end.
type RelNode struct {
	Id        int64
	ElementId string
	Type      string
	Props     Properties
}

// Path represents a directed sequence of relationships between two nodes.
// It is allowed to be of size 0, in which case it contains a single node which
// is both the start and the end of the path.
type Path struct {
	Nodes    []*Node
	RelNodes []*RelNode
	Indexes  []int
}

// Relationships bind the path's relationships to their start and end nodes
// by walking the index sequence.
func (p *Path) Relationships() []*Relationship {
	num := len(p.Indexes) / 2
	if num == 0 {
		return nil
	}
	rels := make([]*Relationship, 0, num)

	i := 0
	n1 := p.Nodes[0]
	for num > 0 {
		relni := p.Indexes[i]
		i++
		n2i := p.Indexes[i]
		i++
		num--
		var reln *RelNode
		var n1start bool
		if relni < 0 {
			reln = p.RelNodes[(relni*-1)-1]
		} else {
			reln = p.RelNodes[relni-1]
			n1start = true
		}
		n2 := p.Nodes[n2i]

		rel := &Relationship{
			Id:        reln.Id,
			ElementId: reln.ElementId,
			Type:      reln.Type,
			Props:     reln.Props,
		}
		if n1start {
			rel.StartId, rel.StartElementId = n1.Id, n1.ElementId
			rel.EndId, rel.EndElementId = n2.Id, n2.ElementId
		} else {
			rel.StartId, rel.StartElementId = n2.Id, n2.ElementId
			rel.EndId, rel.EndElementId = n1.Id, n1.ElementId
		}
		rels = append(rels, rel)
		n1 = n2
	}
	return rels
}
