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

// Package bolt reads query responses recorded in the chunked binary bolt
// message format:
//
//	SUCCESS {fields: [...]}  RECORD [...]*  SUCCESS {stats: {...}} | FAILURE {code, message}
//
// Records are read one message at a time.
package bolt

import (
	"errors"
	"fmt"
	"io"

	"github.com/neo4j/neo4j-go-ogm/ogm/db"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/packstream"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
)

type state int

const (
	stateStart state = iota
	stateRecords
	stateDone
	stateFailed
)

// sourceReader remembers failures of the byte source so that they can be told
// apart from protocol errors.
type sourceReader struct {
	rd  io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.rd.Read(p)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		s.err = err
	}
	return n, err
}

type Stream struct {
	src     *sourceReader
	dch     *dechunker
	unp     *packstream.Unpacker
	state   state
	columns []string
	stats   tree.Object
	err     error
	index   int
}

func NewStream(rd io.Reader) *Stream {
	src := &sourceReader{rd: rd}
	dch := newDechunker(src)
	return &Stream{src: src, dch: dch, unp: packstream.NewUnpacker(dch, hydrate)}
}

func (s *Stream) fail(err error) error {
	s.state = stateFailed
	s.err = err
	return err
}

// readMessage reads one complete message and maps read failures onto the
// response error types.
func (s *Stream) readMessage() (any, error) {
	msg, err := s.unp.Unpack()
	if err == nil {
		err = s.dch.endMessage()
	}
	if err == nil {
		return msg, nil
	}
	switch {
	case s.src.err != nil:
		return nil, &db.ReadError{Inner: s.src.err}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return nil, &db.MalformedResponseError{Reason: "unexpected end of response", Err: io.ErrUnexpectedEOF}
	}
	return nil, &db.MalformedResponseError{Reason: "invalid message", Err: err}
}

func failure(f *failureResponse) error {
	return db.NewQueryExecutionError([]db.ServerError{{Code: f.code, Message: f.message}})
}

// ReadColumns reads the message opening the response.
func (s *Stream) ReadColumns() ([]string, error) {
	if s.state != stateStart {
		return s.columns, s.err
	}
	msg, err := s.readMessage()
	if err != nil {
		return nil, s.fail(err)
	}
	switch m := msg.(type) {
	case *successResponse:
		fieldsx, ok := m.meta.Get("fields")
		if !ok {
			return nil, s.fail(&db.MalformedResponseError{Reason: "missing fields in response header"})
		}
		fields, ok := fieldsx.([]any)
		if !ok {
			return nil, s.fail(&db.MalformedResponseError{Reason: "fields is not a list"})
		}
		s.columns = make([]string, len(fields))
		for i, f := range fields {
			if s.columns[i], ok = f.(string); !ok {
				return nil, s.fail(&db.MalformedResponseError{Reason: fmt.Sprintf("fields[%d] is not a string", i)})
			}
		}
		s.state = stateRecords
		return s.columns, nil
	case *failureResponse:
		return nil, s.fail(failure(m))
	}
	return nil, s.fail(unexpected(msg))
}

// Statistics returns the stats of the closing SUCCESS message.
func (s *Stream) Statistics() tree.Object {
	return s.stats
}

// ReadNextRecord returns the values of the next record. ok is false once the
// closing message has been read.
func (s *Stream) ReadNextRecord() (values []any, ok bool, err error) {
	switch s.state {
	case stateStart:
		if _, err = s.ReadColumns(); err != nil {
			return nil, false, err
		}
	case stateDone:
		return nil, false, nil
	case stateFailed:
		return nil, false, s.err
	}

	msg, err := s.readMessage()
	if err != nil {
		return nil, false, s.fail(err)
	}
	switch m := msg.(type) {
	case *recordResponse:
		if len(m.values) != len(s.columns) {
			return nil, false, s.fail(&db.MalformedResponseError{
				Reason: fmt.Sprintf("record %d has %d values for %d fields", s.index, len(m.values), len(s.columns))})
		}
		s.index++
		return m.values, true, nil
	case *successResponse:
		if statsx, found := m.meta.Get("stats"); found {
			stats, isObj := statsx.(tree.Object)
			if !isObj {
				return nil, false, s.fail(&db.MalformedResponseError{Reason: "stats is not a map"})
			}
			s.stats = stats
		}
		s.state = stateDone
		return nil, false, nil
	case *failureResponse:
		return nil, false, s.fail(failure(m))
	}
	return nil, false, s.fail(unexpected(msg))
}

func unexpected(msg any) error {
	name := fmt.Sprintf("%T", msg)
	switch msg.(type) {
	case *successResponse:
		name = "SUCCESS"
	case *recordResponse:
		name = "RECORD"
	case *ignoredResponse:
		name = "IGNORED"
	case *failureResponse:
		name = "FAILURE"
	}
	return &db.MalformedResponseError{Reason: "unexpected message " + name}
}
