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

// Package jsonstream reads the JSON envelope of the transactional HTTP
// endpoint one data element at a time:
//
//	{"results": [{"columns": [...], "data": [{"graph": ...}, {"rest": ...}], "stats": {...}}],
//	 "errors": [...]}
//
// Only the data element currently being read is materialized.
package jsonstream

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/neo4j/neo4j-go-ogm/ogm/db"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
)

const DefaultBufferSize = 4096

// Deepest nesting of arrays and objects accepted inside a value.
const maxDepth = 1024

type state int

const (
	stateStart state = iota
	stateData
	stateDone
	stateFailed
)

// sourceReader remembers failures of the byte source so that they can be told
// apart from syntax errors reported by the iterator.
type sourceReader struct {
	rd  io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.rd.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}

type Reader struct {
	src     *sourceReader
	iter    *jsoniter.Iterator
	state   state
	columns []string
	stats   tree.Object
	errs    []db.ServerError
	err     error
	index   int
}

func NewReader(rd io.Reader, bufSize int) *Reader {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	src := &sourceReader{rd: rd}
	return &Reader{
		src:  src,
		iter: jsoniter.Parse(jsoniter.ConfigDefault, src, bufSize),
	}
}

// ReadColumns reads up to and including results[0].columns and leaves the
// cursor in front of results[0].data. A response without results has no
// columns.
func (r *Reader) ReadColumns() ([]string, error) {
	if r.state != stateStart {
		return r.columns, r.err
	}
	if err := r.readHeader(); err != nil {
		return nil, r.fail(err)
	}
	return r.columns, nil
}

// Statistics returns the stats object of results[0], nil when the response
// did not contain one or has not been read that far.
func (r *Reader) Statistics() tree.Object {
	return r.stats
}

// ReadNextDataEntry materializes the next element of results[0].data and
// returns its value under key, or tree.Absent when the element has no such
// key. ok is false once the data array is exhausted; at that point the rest
// of the envelope has been read and reported errors are returned.
func (r *Reader) ReadNextDataEntry(key string) (v any, ok bool, err error) {
	switch r.state {
	case stateStart:
		if _, err = r.ReadColumns(); err != nil {
			return nil, false, err
		}
		if r.state != stateData {
			return nil, false, r.done()
		}
	case stateDone:
		return nil, false, r.done()
	case stateFailed:
		return nil, false, r.err
	}

	if r.iter.ReadArray() {
		if r.iter.WhatIsNext() != jsoniter.ObjectValue {
			return nil, false, r.fail(r.unexpected("results[0].data[%d] is not an object", r.index))
		}
		entry, err := r.readValue()
		if err != nil {
			return nil, false, r.fail(err)
		}
		r.index++
		v, found := entry.(tree.Object).Get(key)
		if !found {
			return tree.Absent, true, nil
		}
		return v, true, nil
	}
	if err = r.check(); err != nil {
		return nil, false, r.fail(err)
	}
	if err = r.finish(); err != nil {
		return nil, false, r.fail(err)
	}
	return nil, false, r.done()
}

func (r *Reader) fail(err error) error {
	r.state = stateFailed
	r.err = err
	return err
}

func (r *Reader) done() error {
	r.state = stateDone
	if len(r.errs) > 0 {
		return r.fail(db.NewQueryExecutionError(r.errs))
	}
	return nil
}

func (r *Reader) check() error {
	if r.src.err != nil {
		return &db.ReadError{Inner: r.src.err}
	}
	if r.iter.Error == nil {
		return nil
	}
	if r.iter.Error == io.EOF {
		return &db.MalformedResponseError{Reason: "unexpected end of response", Err: io.ErrUnexpectedEOF}
	}
	return &db.MalformedResponseError{Reason: "invalid json", Err: r.iter.Error}
}

// unexpected prefers an underlying read or syntax error over the structural
// complaint.
func (r *Reader) unexpected(format string, args ...any) error {
	if err := r.check(); err != nil {
		return err
	}
	return &db.MalformedResponseError{Reason: fmt.Sprintf(format, args...)}
}

func (r *Reader) readHeader() error {
	if r.iter.WhatIsNext() != jsoniter.ObjectValue {
		return r.unexpected("response is not an object")
	}
	for key, ok := r.nextMember(); ok; key, ok = r.nextMember() {
		switch key {
		case "results":
			found, err := r.enterResults()
			if err != nil {
				return err
			}
			if found {
				r.state = stateData
				return nil
			}
		case "errors":
			if err := r.readErrors(); err != nil {
				return err
			}
		default:
			r.iter.Skip()
		}
		if err := r.check(); err != nil {
			return err
		}
	}
	if err := r.check(); err != nil {
		return err
	}
	if r.columns == nil {
		r.columns = []string{}
	}
	r.state = stateDone
	return nil
}

// enterResults returns true when the cursor has been left in front of
// results[0].data.
func (r *Reader) enterResults() (bool, error) {
	switch r.iter.WhatIsNext() {
	case jsoniter.NilValue:
		r.iter.ReadNil()
		return false, nil
	case jsoniter.ArrayValue:
	default:
		return false, r.unexpected("results is not an array")
	}
	if !r.iter.ReadArray() {
		return false, r.check()
	}
	if r.iter.WhatIsNext() != jsoniter.ObjectValue {
		return false, r.unexpected("results[0] is not an object")
	}
	for key, ok := r.nextMember(); ok; key, ok = r.nextMember() {
		switch key {
		case "columns":
			columns, err := r.readColumnNames()
			if err != nil {
				return false, err
			}
			r.columns = columns
		case "data":
			if r.columns == nil {
				return false, r.unexpected("results[0].data precedes results[0].columns")
			}
			switch r.iter.WhatIsNext() {
			case jsoniter.ArrayValue:
				return true, nil
			case jsoniter.NilValue:
				r.iter.ReadNil()
			default:
				return false, r.unexpected("results[0].data is not an array")
			}
		case "stats":
			if err := r.readStats(); err != nil {
				return false, err
			}
		default:
			r.iter.Skip()
		}
		if err := r.check(); err != nil {
			return false, err
		}
	}
	if err := r.check(); err != nil {
		return false, err
	}
	if r.columns == nil {
		return false, &db.MalformedResponseError{Reason: "results[0].columns is missing"}
	}
	return false, r.skipResults()
}

func (r *Reader) readColumnNames() ([]string, error) {
	if r.iter.WhatIsNext() != jsoniter.ArrayValue {
		return nil, r.unexpected("results[0].columns is not an array")
	}
	columns := []string{}
	for r.iter.ReadArray() {
		if r.iter.WhatIsNext() != jsoniter.StringValue {
			return nil, r.unexpected("results[0].columns[%d] is not a string", len(columns))
		}
		columns = append(columns, r.iter.ReadString())
	}
	return columns, r.check()
}

// finish reads everything following results[0].data.
func (r *Reader) finish() error {
	for key, ok := r.nextMember(); ok; key, ok = r.nextMember() {
		if key == "stats" {
			if err := r.readStats(); err != nil {
				return err
			}
		} else {
			r.iter.Skip()
		}
		if err := r.check(); err != nil {
			return err
		}
	}
	if err := r.check(); err != nil {
		return err
	}
	if err := r.skipResults(); err != nil {
		return err
	}
	for key, ok := r.nextMember(); ok; key, ok = r.nextMember() {
		if key == "errors" {
			if err := r.readErrors(); err != nil {
				return err
			}
		} else {
			r.iter.Skip()
		}
		if err := r.check(); err != nil {
			return err
		}
	}
	return r.check()
}

// nextMember reads the key of the next member of the object under the cursor,
// ok is false at the end of the object. ReadObject returns "" both for an
// empty key and for the end, a value following the key tells them apart.
func (r *Reader) nextMember() (key string, ok bool) {
	key = r.iter.ReadObject()
	if key != "" {
		return key, true
	}
	if r.iter.Error != nil {
		return "", false
	}
	if r.iter.WhatIsNext() != jsoniter.InvalidValue {
		return "", true
	}
	if r.iter.Error == io.EOF {
		// end of the envelope, truncation is reported by the next read
		r.iter.Error = nil
	}
	return "", false
}

// skipResults skips results following results[0], only the first statement's
// result is read.
func (r *Reader) skipResults() error {
	for r.iter.ReadArray() {
		r.iter.Skip()
	}
	return r.check()
}

func (r *Reader) readStats() error {
	v, err := r.readValue()
	if err != nil {
		return err
	}
	switch stats := v.(type) {
	case nil:
	case tree.Object:
		r.stats = stats
	default:
		return &db.MalformedResponseError{Reason: fmt.Sprintf("stats is not an object but %T", v)}
	}
	return nil
}

func (r *Reader) readErrors() error {
	switch r.iter.WhatIsNext() {
	case jsoniter.NilValue:
		r.iter.ReadNil()
		return nil
	case jsoniter.ArrayValue:
	default:
		return r.unexpected("errors is not an array")
	}
	for i := 0; r.iter.ReadArray(); i++ {
		v, err := r.readValue()
		if err != nil {
			return err
		}
		obj, ok := v.(tree.Object)
		if !ok {
			return &db.MalformedResponseError{Reason: fmt.Sprintf("errors[%d] is not an object", i)}
		}
		code, _ := obj.Get("code")
		msg, _ := obj.Get("message")
		r.errs = append(r.errs, db.ServerError{Code: fmt.Sprint(code), Message: fmt.Sprint(msg)})
	}
	return r.check()
}

// readValue materializes the value under the cursor.
func (r *Reader) readValue() (any, error) {
	return r.readNested(0)
}

func (r *Reader) readNested(depth int) (any, error) {
	next := r.iter.WhatIsNext()
	if (next == jsoniter.ObjectValue || next == jsoniter.ArrayValue) && depth >= maxDepth {
		return nil, &db.MalformedResponseError{Reason: "nesting too deep"}
	}
	switch next {
	case jsoniter.ObjectValue:
		obj := tree.Object{}
		var cbErr error
		r.iter.ReadObjectCB(func(_ *jsoniter.Iterator, key string) bool {
			v, err := r.readNested(depth + 1)
			if err != nil {
				cbErr = err
				return false
			}
			obj = append(obj, tree.Member{Key: key, Value: v})
			return true
		})
		if cbErr != nil {
			return nil, cbErr
		}
		return obj, r.check()
	case jsoniter.ArrayValue:
		list := []any{}
		for r.iter.ReadArray() {
			v, err := r.readNested(depth + 1)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, r.check()
	case jsoniter.StringValue:
		s := r.iter.ReadString()
		return s, r.check()
	case jsoniter.NumberValue:
		n := r.iter.ReadNumber()
		return tree.Number(n), r.check()
	case jsoniter.BoolValue:
		b := r.iter.ReadBool()
		return b, r.check()
	case jsoniter.NilValue:
		r.iter.ReadNil()
		return nil, r.check()
	default:
		return nil, r.unexpected("unexpected token")
	}
}
