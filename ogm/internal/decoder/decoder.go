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

// Package decoder converts one raw data entry of a response into a typed
// record. Graph entries become a pre-assembly list of nodes and relationships,
// row and rest entries become a tuple of values.
//
// Numbers keep the distinction made by the source: numbers written without a
// fraction or exponent decode to int64, all other numbers to float64.
// Property maps containing the same key more than once keep the last value at
// the position of the first occurrence.
package decoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/neo4j/neo4j-go-ogm/ogm/db"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

// GraphEntry is a decoded graph entry. Nodes and relationships are in source
// order and may contain the same id more than once.
type GraphEntry struct {
	Nodes         []*model.Node
	Relationships []*model.Relationship
}

func decodeError(path, format string, args ...any) error {
	return &db.DecodeError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// DecodeGraph decodes the value of a "graph" data entry.
func DecodeGraph(v any) (GraphEntry, error) {
	obj, ok := v.(tree.Object)
	if !ok {
		return GraphEntry{}, decodeError("graph", "expected object but was %s", typeName(v))
	}
	entry := GraphEntry{}

	if raw, ok := obj.Get("nodes"); ok && raw != nil {
		arr, ok := raw.([]any)
		if !ok {
			return GraphEntry{}, decodeError("nodes", "expected array but was %s", typeName(raw))
		}
		entry.Nodes = make([]*model.Node, 0, len(arr))
		for i, x := range arr {
			n, err := graphNode(fmt.Sprintf("nodes[%d]", i), x)
			if err != nil {
				return GraphEntry{}, err
			}
			entry.Nodes = append(entry.Nodes, n)
		}
	}

	if raw, ok := obj.Get("relationships"); ok && raw != nil {
		arr, ok := raw.([]any)
		if !ok {
			return GraphEntry{}, decodeError("relationships", "expected array but was %s", typeName(raw))
		}
		entry.Relationships = make([]*model.Relationship, 0, len(arr))
		for i, x := range arr {
			r, err := graphRelationship(fmt.Sprintf("relationships[%d]", i), x)
			if err != nil {
				return GraphEntry{}, err
			}
			entry.Relationships = append(entry.Relationships, r)
		}
	}
	return entry, nil
}

func graphNode(path string, v any) (*model.Node, error) {
	obj, ok := v.(tree.Object)
	if !ok {
		return nil, decodeError(path, "expected object but was %s", typeName(v))
	}
	n := &model.Node{}
	var err error
	if n.Id, err = requiredId(path, obj, "id"); err != nil {
		return nil, err
	}
	if n.ElementId, err = optionalString(path, obj, "elementId"); err != nil {
		return nil, err
	}
	if n.Labels, err = labels(path, obj); err != nil {
		return nil, err
	}
	if n.Props, err = properties(path, obj, "properties"); err != nil {
		return nil, err
	}
	return n, nil
}

func graphRelationship(path string, v any) (*model.Relationship, error) {
	obj, ok := v.(tree.Object)
	if !ok {
		return nil, decodeError(path, "expected object but was %s", typeName(v))
	}
	r := &model.Relationship{}
	var err error
	if r.Id, err = requiredId(path, obj, "id"); err != nil {
		return nil, err
	}
	if r.StartId, err = requiredId(path, obj, "startNode"); err != nil {
		return nil, err
	}
	if r.EndId, err = requiredId(path, obj, "endNode"); err != nil {
		return nil, err
	}
	if r.Type, err = optionalString(path, obj, "type"); err != nil {
		return nil, err
	}
	if r.Type == "" {
		return nil, decodeError(path+".type", "missing relationship type")
	}
	if r.ElementId, err = optionalString(path, obj, "elementId"); err != nil {
		return nil, err
	}
	if r.StartElementId, err = optionalString(path, obj, "startNodeElementId"); err != nil {
		return nil, err
	}
	if r.EndElementId, err = optionalString(path, obj, "endNodeElementId"); err != nil {
		return nil, err
	}
	if r.Props, err = properties(path, obj, "properties"); err != nil {
		return nil, err
	}
	return r, nil
}

// DecodeRow decodes the value of a "row" or "rest" data entry, which is an
// array holding one value per column.
func DecodeRow(v any) ([]any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, decodeError("row", "expected array but was %s", typeName(v))
	}
	values := make([]any, len(arr))
	for i, x := range arr {
		val, err := rowValue(fmt.Sprintf("[%d]", i), x)
		if err != nil {
			return nil, err
		}
		values[i] = val
	}
	return values, nil
}

func rowValue(path string, v any) (any, error) {
	switch x := v.(type) {
	case []any:
		list := make([]any, len(x))
		for i, e := range x {
			val, err := rowValue(fmt.Sprintf("%s[%d]", path, i), e)
			if err != nil {
				return nil, err
			}
			list[i] = val
		}
		return list, nil
	case tree.Object:
		if x.Has("data") && x.Has("metadata") {
			return entity(path, x)
		}
		m := make(map[string]any, len(x))
		for _, member := range x {
			val, err := rowValue(path+"."+member.Key, member.Value)
			if err != nil {
				return nil, err
			}
			m[member.Key] = val
		}
		return m, nil
	default:
		return scalar(path, v)
	}
}

// entity decodes a node or relationship wrapped with its metadata and
// hypermedia links.
func entity(path string, obj tree.Object) (any, error) {
	raw, _ := obj.Get("metadata")
	meta, ok := raw.(tree.Object)
	if !ok {
		return nil, decodeError(path+".metadata", "expected object but was %s", typeName(raw))
	}
	metaPath := path + ".metadata"
	id, err := requiredId(metaPath, meta, "id")
	if err != nil {
		return nil, err
	}
	elementId, err := optionalString(metaPath, meta, "elementId")
	if err != nil {
		return nil, err
	}
	props, err := properties(path, obj, "data")
	if err != nil {
		return nil, err
	}

	if meta.Has("type") {
		r := &model.Relationship{Id: id, ElementId: elementId, Props: props}
		if r.Type, err = optionalString(metaPath, meta, "type"); err != nil {
			return nil, err
		}
		if r.StartId, err = linkId(path, obj, "start"); err != nil {
			return nil, err
		}
		if r.EndId, err = linkId(path, obj, "end"); err != nil {
			return nil, err
		}
		return r, nil
	}

	n := &model.Node{Id: id, ElementId: elementId, Props: props}
	if n.Labels, err = labels(metaPath, meta); err != nil {
		return nil, err
	}
	return n, nil
}

// linkId extracts the id from the last segment of a hypermedia link such as
// http://localhost:7474/db/data/node/396. Absent links give 0.
func linkId(path string, obj tree.Object, key string) (int64, error) {
	raw, ok := obj.Get(key)
	if !ok || raw == nil {
		return 0, nil
	}
	s, ok := raw.(string)
	if !ok {
		return 0, decodeError(path+"."+key, "expected string but was %s", typeName(raw))
	}
	id, err := strconv.ParseInt(s[strings.LastIndexByte(s, '/')+1:], 10, 64)
	if err != nil {
		return 0, decodeError(path+"."+key, "no id in link %q", s)
	}
	return id, nil
}

func requiredId(path string, obj tree.Object, key string) (int64, error) {
	raw, ok := obj.Get(key)
	if !ok || raw == nil {
		return 0, decodeError(path+"."+key, "missing")
	}
	switch x := raw.(type) {
	case string:
		id, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, decodeError(path+"."+key, "invalid id %q", x)
		}
		return id, nil
	case tree.Number:
		id, err := strconv.ParseInt(string(x), 10, 64)
		if err != nil {
			return 0, decodeError(path+"."+key, "invalid id %s", x)
		}
		return id, nil
	}
	return 0, decodeError(path+"."+key, "expected id but was %s", typeName(raw))
}

func optionalString(path string, obj tree.Object, key string) (string, error) {
	raw, ok := obj.Get(key)
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", decodeError(path+"."+key, "expected string but was %s", typeName(raw))
	}
	return s, nil
}

func labels(path string, obj tree.Object) ([]string, error) {
	raw, ok := obj.Get("labels")
	if !ok || raw == nil {
		return []string{}, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, decodeError(path+".labels", "expected array but was %s", typeName(raw))
	}
	labels := make([]string, len(arr))
	for i, x := range arr {
		s, ok := x.(string)
		if !ok {
			return nil, decodeError(fmt.Sprintf("%s.labels[%d]", path, i), "expected string but was %s", typeName(x))
		}
		labels[i] = s
	}
	return labels, nil
}

func properties(path string, obj tree.Object, key string) (model.Properties, error) {
	raw, ok := obj.Get(key)
	if !ok || raw == nil {
		return model.Properties{}, nil
	}
	path = path + "." + key
	m, ok := raw.(tree.Object)
	if !ok {
		return nil, decodeError(path, "expected object but was %s", typeName(raw))
	}
	props := make(model.Properties, 0, len(m))
	for _, member := range m {
		val, err := propertyValue(path+"."+member.Key, member.Value, true)
		if err != nil {
			return nil, err
		}
		props.Set(member.Key, val)
	}
	return props, nil
}

// propertyValue accepts scalars and, one level deep, lists or maps of scalars.
func propertyValue(path string, v any, nested bool) (any, error) {
	switch x := v.(type) {
	case []any:
		if !nested {
			break
		}
		list := make([]any, len(x))
		for i, e := range x {
			val, err := propertyValue(fmt.Sprintf("%s[%d]", path, i), e, false)
			if err != nil {
				return nil, err
			}
			list[i] = val
		}
		return list, nil
	case tree.Object:
		if !nested {
			break
		}
		m := make(map[string]any, len(x))
		for _, member := range x {
			val, err := propertyValue(path+"."+member.Key, member.Value, false)
			if err != nil {
				return nil, err
			}
			m[member.Key] = val
		}
		return m, nil
	default:
		return scalar(path, v)
	}
	return nil, decodeError(path, "unsupported property value %s", typeName(v))
}

func scalar(path string, v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string:
		return x, nil
	case tree.Number:
		return Number(path, x)
	}
	return nil, decodeError(path, "unsupported value %s", typeName(v))
}

// Number converts a number token to int64 or float64. Integers that do not
// fit in 64 bits are decode errors.
func Number(path string, n tree.Number) (any, error) {
	s := string(n)
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, decodeError(path, "invalid number %s", s)
		}
		return f, nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return nil, decodeError(path, "integer %s out of range", s)
		}
		return nil, decodeError(path, "invalid number %s", s)
	}
	return i, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case tree.Object:
		return "object"
	case []any:
		return "array"
	case tree.Number:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}
