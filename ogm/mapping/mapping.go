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


// Package mapping fills Go values from decoded nodes, relationships and row
// values, driven by struct tags of the form
//
//	Name string `ogm:"mapping_type=property,name=title"`
//
// Supported mapping types are id, element_id, labels, type, properties and
// property. Fields without the ogm tag are left untouched.
package mapping

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-ogm/ogm"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

const tagName = "ogm"
const mappingTypeKey = "mapping_type"
const propertyNameKey = "name"

var mappingTypeNames = map[string]string{
	"id":         "ID",
	"element_id": "element ID",
	"labels":     "labels",
	"property":   "property",
	"properties": "bag of properties",
	"type":       "type",
}

var metadataCache sync.Map

type reflectionMetadata struct {
	kind          reflect.Kind
	fieldMappings []map[string]string
	fieldNames    []string
	err           error
}

// source is what a value is mapped from: an entity, or a plain map coming
// from a row column.
type source struct {
	entity model.Entity
	props  map[string]any
}

// MapNode maps a node to R. R is a struct, a map[string]any or a pointer to
// either.
func MapNode[R any](node *model.Node) (R, error) {
	if node == nil {
		return *new(R), fmt.Errorf("cannot map nil node to %T", *new(R))
	}
	return mapSource[R](source{entity: node, props: node.Props.AsMap()})
}

// MapRelationship maps a relationship to R.
func MapRelationship[R any](rel *model.Relationship) (R, error) {
	if rel == nil {
		return *new(R), fmt.Errorf("cannot map nil relationship to %T", *new(R))
	}
	return mapSource[R](source{entity: rel, props: rel.Props.AsMap()})
}

// NodesWithLabel maps every node of a graph record carrying label, in the
// order the nodes appear in the record.
func NodesWithLabel[R any](label string) ogm.MaterializerFunc[*model.GraphModel, R] {
	return func(graph *model.GraphModel) ([]R, error) {
		var out []R
		for _, node := range graph.Nodes {
			if !node.HasLabel(label) {
				continue
			}
			value, err := MapNode[R](node)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	}
}

// RowColumn maps the value of one column of a row record. A null value
// produces nothing.
func RowColumn[R any](column string) ogm.MaterializerFunc[*model.RowModel, R] {
	return func(row *model.RowModel) ([]R, error) {
		raw, ok := row.Get(column)
		if !ok {
			return nil, fmt.Errorf("column %q not found, available columns: %s", column, strings.Join(row.Columns, ", "))
		}
		if raw == nil {
			return nil, nil
		}
		value, err := mapValue[R](raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", column, err)
		}
		return []R{value}, nil
	}
}

func mapValue[R any](raw any) (R, error) {
	switch v := raw.(type) {
	case *model.Node:
		return MapNode[R](v)
	case *model.Relationship:
		return MapRelationship[R](v)
	case map[string]any:
		return mapSource[R](source{props: v})
	}
	if value, ok := raw.(R); ok {
		return value, nil
	}
	target := reflect.TypeOf(new(R)).Elem()
	converted, err := convert(reflect.ValueOf(raw), target)
	if err != nil {
		return *new(R), err
	}
	return converted.Interface().(R), nil
}

func mapSource[R any](src source) (_ R, mapErr error) {
	value := new(R)
	reflectedValue := reflect.ValueOf(value).Elem()
	if reflectedValue.Kind() == reflect.Pointer {
		reflectedValue.Set(reflect.New(reflectedValue.Type().Elem()))
		reflectedValue = reflectedValue.Elem()
	}

	rawMetadata, ok := metadataCache.Load(reflect.TypeOf(value))
	if !ok {
		rawMetadata, _ = metadataCache.LoadOrStore(reflect.TypeOf(value), newMetadata(reflectedValue.Type()))
	}
	metadata := rawMetadata.(*reflectionMetadata)
	if metadata.err != nil {
		return *value, metadata.err
	}

	switch metadata.kind {
	case reflect.Struct:
		for i, mapping := range metadata.fieldMappings {
			if mapping == nil {
				continue
			}
			if err := setStructField[R](reflectedValue.Field(i), metadata.fieldNames[i], mapping, src); err != nil {
				return *value, err
			}
		}
	case reflect.Map:
		defer func() {
			if setterPanic := recover(); setterPanic != nil {
				mapErr = fmt.Errorf("failed setting map of type %T, expected type %T (or pointer thereof) "+
					"but this error occurred: %s", *value, src.props, setterPanic)
			}
		}()
		reflectedValue.Set(reflect.ValueOf(src.props))
	default:
		return *value, fmt.Errorf("only struct, map, struct pointer and map pointer types are supported, given: %T", *value)
	}
	return *value, nil
}

func newMetadata(typ reflect.Type) *reflectionMetadata {
	metadata := reflectionMetadata{kind: typ.Kind()}
	if metadata.kind != reflect.Struct {
		return &metadata
	}
	numField := typ.NumField()
	metadata.fieldMappings = make([]map[string]string, numField)
	metadata.fieldNames = make([]string, numField)
	for i := 0; i < numField; i++ {
		field := typ.Field(i)
		metadata.fieldNames[i] = field.Name
		mapping := parseFieldMapping(field)
		if mapping == nil {
			continue
		}
		if err := validateMapping(typ, field.Name, mapping); err != nil {
			metadata.err = err
			return &metadata
		}
		metadata.fieldMappings[i] = mapping
	}
	return &metadata
}

func validateMapping(typ reflect.Type, fieldName string, mapping map[string]string) error {
	mappingType := mapping[mappingTypeKey]
	if _, ok := mappingTypeNames[mappingType]; !ok {
		validMappings := make([]string, 0, len(mappingTypeNames))
		for name := range mappingTypeNames {
			validMappings = append(validMappings, name)
		}
		sort.Strings(validMappings)
		return fmt.Errorf("unsupported mapping type %q on field %q of %s, expected one of %s",
			mappingType, fieldName, typ, fmt.Sprintf(`"%s"`, strings.Join(validMappings, `", "`)))
	}
	propertyName := mapping[propertyNameKey]
	if propertyName == "" && mappingType == "property" {
		return fmt.Errorf("the property name is missing for field %q of %s", fieldName, typ)
	}
	if propertyName != "" && mappingType != "property" {
		return fmt.Errorf("the property name %q on the field %q of %s must be removed when mapping %s",
			propertyName, fieldName, typ, mappingTypeNames[mappingType])
	}
	return nil
}

func setStructField[R any](field reflect.Value, fieldName string, mapping map[string]string, src source) (err error) {
	mappingType := mapping[mappingTypeKey]
	propertyName := mapping[propertyNameKey]
	defer func() {
		if setterPanic := recover(); setterPanic != nil {
			err = handlePanic[R](mappingTypeNames[mappingType], propertyName, fieldName, field.Type(), setterPanic)
		}
	}()

	if src.entity == nil && mappingType != "properties" && mappingType != "property" {
		return missingEntity[R](mappingType, fieldName)
	}
	switch mappingType {
	case "id":
		field.SetInt(src.entity.GetId())
	case "element_id":
		field.SetString(src.entity.GetElementId())
	case "labels":
		node, ok := src.entity.(*model.Node)
		if !ok {
			return fmt.Errorf("field %q of %T maps labels, which only nodes carry", fieldName, *new(R))
		}
		labels := make([]string, len(node.Labels))
		copy(labels, node.Labels)
		field.Set(reflect.ValueOf(labels))
	case "type":
		rel, ok := src.entity.(*model.Relationship)
		if !ok {
			return fmt.Errorf("field %q of %T maps type, which only relationships carry", fieldName, *new(R))
		}
		field.SetString(rel.Type)
	case "properties":
		field.Set(reflect.ValueOf(src.props))
	case "property":
		property, found := src.props[propertyName]
		if !found || property == nil {
			if !isNullable(field) {
				return fmt.Errorf("the value of property %q is nil, "+
					"but the type of the field %q of type %T is not nilable", propertyName, fieldName, *new(R))
			}
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		converted, err := convert(reflect.ValueOf(property), field.Type())
		if err != nil {
			return fmt.Errorf("property %q for field %q of %T: %w", propertyName, fieldName, *new(R), err)
		}
		field.Set(converted)
	}
	return nil
}

// convert makes v assignable to target. Numbers convert between sized kinds
// when the value fits exactly and []any converts element-wise into typed
// slices.
func convert(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	if v.Type().AssignableTo(target) {
		return v, nil
	}
	if isNumber(v.Kind()) && isNumber(target.Kind()) {
		return convertNumber(v, target)
	}
	if v.Kind() == reflect.Slice && target.Kind() == reflect.Slice {
		out := reflect.MakeSlice(target, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if elem.Kind() == reflect.Interface {
				elem = elem.Elem()
			}
			if !elem.IsValid() {
				continue
			}
			converted, err := convert(elem, target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(converted)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot assign %s to %s", v.Type(), target)
}

func convertNumber(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	out := reflect.New(target).Elem()
	switch {
	case isFloat(target.Kind()):
		if isFloat(v.Kind()) && out.OverflowFloat(v.Float()) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v, target)
		}
	case isFloat(v.Kind()):
		f := v.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return reflect.Value{}, fmt.Errorf("cannot assign %v to %s without losing its fraction", v, target)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 || (isUnsigned(target.Kind()) && f < 0) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v, target)
		}
		return convertNumber(reflect.ValueOf(int64(f)), target)
	case isUnsigned(target.Kind()):
		if !isUnsigned(v.Kind()) && v.Int() < 0 {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v, target)
		}
		if !isUnsigned(v.Kind()) && out.OverflowUint(uint64(v.Int())) || isUnsigned(v.Kind()) && out.OverflowUint(v.Uint()) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v, target)
		}
	default:
		if isUnsigned(v.Kind()) && (v.Uint() > math.MaxInt64 || out.OverflowInt(int64(v.Uint()))) ||
			!isUnsigned(v.Kind()) && out.OverflowInt(v.Int()) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", v, target)
		}
	}
	out.Set(v.Convert(target))
	return out, nil
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func parseFieldMapping(field reflect.StructField) map[string]string {
	rawTag := field.Tag.Get(tagName)
	if rawTag == "" {
		return nil
	}
	specs := strings.Split(rawTag, ",")
	settings := make(map[string]string, len(specs))
	for _, spec := range specs {
		key, setting, _ := strings.Cut(spec, "=")
		settings[strings.TrimSpace(key)] = strings.TrimSpace(setting)
	}
	return settings
}

func isNullable(v reflect.Value) bool {
	k := v.Kind()
	return k == reflect.Chan ||
		k == reflect.Func ||
		k == reflect.Interface ||
		k == reflect.Map ||
		k == reflect.Ptr ||
		k == reflect.Slice
}

func missingEntity[R any](mappingType, fieldName string) error {
	return fmt.Errorf("field %q of %T maps the %s of an entity but the value is a plain map",
		fieldName, *new(R), mappingTypeNames[mappingType])
}

func handlePanic[R any](mappingType, propertyName, fieldName string, fieldType reflect.Type, panic any) error {
	propName := ""
	if propertyName != "" {
		propName = fmt.Sprintf(" %q", propertyName)
	}
	return fmt.Errorf("failed setting %s%s to field %q of type %T, field has type %s "+
		"and this error occurred: %s",
		mappingType, propName, fieldName, *new(R), fieldType, panic)
}
