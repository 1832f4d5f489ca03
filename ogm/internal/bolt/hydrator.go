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
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-ogm/ogm/internal/packstream"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

const (
	msgSuccess packstream.StructTag = 0x70
	msgRecord  packstream.StructTag = 0x71
	msgIgnored packstream.StructTag = 0x7e
	msgFailure packstream.StructTag = 0x7f
)

type successResponse struct {
	meta tree.Object
}

type recordResponse struct {
	values []any
}

type failureResponse struct {
	code    string
	message string
}

type ignoredResponse struct{}

// Called by packstream unpacker to hydrate a packstream struct into something
// more usable by the consumer.
func hydrate(tag packstream.StructTag, fields []any) (any, error) {
	switch tag {
	case msgSuccess:
		return hydrateSuccess(fields)
	case msgIgnored:
		return &ignoredResponse{}, nil
	case msgFailure:
		return hydrateFailure(fields)
	case msgRecord:
		return hydrateRecord(fields)
	case 'N':
		return hydrateNode(fields)
	case 'R':
		return hydrateRelationship(fields)
	case 'r':
		return hydrateRelNode(fields)
	case 'P':
		return hydratePath(fields)
	default:
		return nil, fmt.Errorf("Unknown tag: %02x", byte(tag))
	}
}

// properties converts a packstream map into properties. Repeated keys keep
// the last value.
func properties(x any) (model.Properties, bool) {
	obj, ok := x.(tree.Object)
	if !ok {
		return nil, false
	}
	props := make(model.Properties, 0, len(obj))
	for _, m := range obj {
		props.Set(m.Key, plain(m.Value))
	}
	return props, true
}

// plain turns nested packstream maps into map[string]any.
func plain(x any) any {
	switch v := x.(type) {
	case tree.Object:
		m := make(map[string]any, len(v))
		for _, member := range v {
			m[member.Key] = plain(member.Value)
		}
		return m
	case []any:
		for i := range v {
			v[i] = plain(v[i])
		}
	}
	return x
}

func optionalString(fields []any, i int) (string, bool) {
	if len(fields) <= i {
		return "", true
	}
	s, ok := fields[i].(string)
	return s, ok
}

func hydrateNode(fields []any) (any, error) {
	if len(fields) != 3 && len(fields) != 4 {
		return nil, errors.New("Node hydrate error")
	}
	id, idok := fields[0].(int64)
	tagsx, tagsok := fields[1].([]any)
	props, propsok := properties(fields[2])
	elementId, eidok := optionalString(fields, 3)
	if !idok || !tagsok || !propsok || !eidok {
		return nil, errors.New("Node hydrate error")
	}
	n := &model.Node{Id: id, ElementId: elementId, Props: props, Labels: make([]string, len(tagsx))}
	for i, x := range tagsx {
		t, tok := x.(string)
		if !tok {
			return nil, errors.New("Node hydrate error")
		}
		n.Labels[i] = t
	}
	return n, nil
}

func hydrateRelationship(fields []any) (any, error) {
	if len(fields) != 5 && len(fields) != 8 {
		return nil, errors.New("Relationship hydrate error")
	}
	id, idok := fields[0].(int64)
	sid, sidok := fields[1].(int64)
	eid, eidok := fields[2].(int64)
	typ, typok := fields[3].(string)
	props, propsok := properties(fields[4])
	elementId, eidok1 := optionalString(fields, 5)
	startElementId, eidok2 := optionalString(fields, 6)
	endElementId, eidok3 := optionalString(fields, 7)
	if !idok || !sidok || !eidok || !typok || !propsok || !eidok1 || !eidok2 || !eidok3 {
		return nil, errors.New("Relationship hydrate error")
	}
	return &model.Relationship{
		Id:             id,
		ElementId:      elementId,
		StartId:        sid,
		EndId:          eid,
		StartElementId: startElementId,
		EndElementId:   endElementId,
		Type:           typ,
		Props:          props,
	}, nil
}

func hydrateRelNode(fields []any) (any, error) {
	if len(fields) != 3 && len(fields) != 4 {
		return nil, errors.New("RelNode hydrate error")
	}
	id, idok := fields[0].(int64)
	typ, typok := fields[1].(string)
	props, propsok := properties(fields[2])
	elementId, eidok := optionalString(fields, 3)
	if !idok || !typok || !propsok || !eidok {
		return nil, errors.New("RelNode hydrate error")
	}
	return &model.RelNode{Id: id, ElementId: elementId, Type: typ, Props: props}, nil
}

func hydratePath(fields []any) (any, error) {
	if len(fields) != 3 {
		return nil, errors.New("Path hydrate error")
	}
	nodesx, nok := fields[0].([]any)
	relnodesx, rok := fields[1].([]any)
	indsx, iok := fields[2].([]any)
	if !nok || !rok || !iok || len(nodesx) == 0 {
		return nil, errors.New("Path hydrate error")
	}

	nodes := make([]*model.Node, len(nodesx))
	for i, nx := range nodesx {
		n, ok := nx.(*model.Node)
		if !ok {
			return nil, errors.New("Path hydrate error")
		}
		nodes[i] = n
	}

	relnodes := make([]*model.RelNode, len(relnodesx))
	for i, rx := range relnodesx {
		r, ok := rx.(*model.RelNode)
		if !ok {
			return nil, errors.New("Path hydrate error")
		}
		relnodes[i] = r
	}

	indexes := make([]int, len(indsx))
	for i, ix := range indsx {
		p, ok := ix.(int64)
		if !ok {
			return nil, errors.New("Path hydrate error")
		}
		indexes[i] = int(p)
	}
	// Must be even number
	if (len(indexes) & 0x01) == 1 {
		return nil, errors.New("Path hydrate error")
	}
	// Indexes must point into nodes and relationships
	for i := 0; i < len(indexes); i += 2 {
		r, n := indexes[i], indexes[i+1]
		if r < 0 {
			r = -r
		}
		if r == 0 || r > len(relnodes) || n < 0 || n >= len(nodes) {
			return nil, errors.New("Path hydrate error")
		}
	}

	return &model.Path{Nodes: nodes, RelNodes: relnodes, Indexes: indexes}, nil
}

func hydrateSuccess(fields []any) (any, error) {
	if len(fields) != 1 {
		return nil, errors.New("Success hydrate error")
	}
	meta, metaok := fields[0].(tree.Object)
	if !metaok {
		return nil, errors.New("Success hydrate error")
	}
	return &successResponse{meta: meta}, nil
}

func hydrateRecord(fields []any) (any, error) {
	if len(fields) != 1 {
		return nil, errors.New("Record hydrate error")
	}
	v, vok := fields[0].([]any)
	if !vok {
		return nil, errors.New("Record hydrate error")
	}
	return &recordResponse{values: v}, nil
}

func hydrateFailure(fields []any) (any, error) {
	if len(fields) != 1 {
		return nil, errors.New("Failure hydrate error")
	}
	meta, metaok := fields[0].(tree.Object)
	if !metaok {
		return nil, errors.New("Failure hydrate error")
	}
	code, _ := meta.Get("code")
	msg, _ := meta.Get("message")
	f := &failureResponse{}
	f.code, _ = code.(string)
	f.message, _ = msg.(string)
	return f, nil
}

// dehydrate is the reverse of hydrate for entities, used when writing.
func dehydrate(x any) any {
	switch v := x.(type) {
	case *model.Node:
		labels := make([]any, len(v.Labels))
		for i, l := range v.Labels {
			labels[i] = l
		}
		return &packstream.Struct{Tag: 'N', Fields: []any{v.Id, labels, propertyMap(v.Props), v.ElementId}}
	case *model.Relationship:
		return &packstream.Struct{Tag: 'R', Fields: []any{
			v.Id, v.StartId, v.EndId, v.Type, propertyMap(v.Props),
			v.ElementId, v.StartElementId, v.EndElementId,
		}}
	case *model.RelNode:
		return &packstream.Struct{Tag: 'r', Fields: []any{v.Id, v.Type, propertyMap(v.Props), v.ElementId}}
	case *model.Path:
		nodes := make([]any, len(v.Nodes))
		for i, n := range v.Nodes {
			nodes[i] = dehydrate(n)
		}
		rels := make([]any, len(v.RelNodes))
		for i, r := range v.RelNodes {
			rels[i] = dehydrate(r)
		}
		indexes := make([]any, len(v.Indexes))
		for i, ix := range v.Indexes {
			indexes[i] = int64(ix)
		}
		return &packstream.Struct{Tag: 'P', Fields: []any{nodes, rels, indexes}}
	case []any:
		list := make([]any, len(v))
		for i, e := range v {
			list[i] = dehydrate(e)
		}
		return list
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = dehydrate(e)
		}
		return m
	}
	return x
}

func propertyMap(props model.Properties) tree.Object {
	obj := make(tree.Object, len(props))
	for i, p := range props {
		obj[i] = tree.Member{Key: p.Key, Value: p.Value}
	}
	return obj
}
