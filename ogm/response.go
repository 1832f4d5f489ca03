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

// Package ogm reads query responses of a graph database lazily, one record
// at a time, and turns each record into a graph model or a row model.
//
// A response is opened over the raw stream returned by the database, either
// the JSON envelope of the transactional HTTP endpoint or a recorded bolt
// message stream:
//
//	resp, err := ogm.OpenResponse(body, ogm.Graph)
//	if err != nil {
//		return err
//	}
//	defer resp.Close()
//	for resp.Next(ctx) {
//		graph := resp.Record()
//		...
//	}
//	if err := resp.Err(); err != nil {
//		return err
//	}
//	stats, _ := resp.Statistics()
package ogm

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/neo4j/neo4j-go-ogm/ogm/internal/errorutil"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/stats"
	"github.com/neo4j/neo4j-go-ogm/ogm/log"
	"github.com/neo4j/neo4j-go-ogm/ogm/model"
)

type Response[T any] interface {
	// Columns returns the column names declared by the response.
	Columns() []string
	// Next returns true only if there is a record to be processed.
	Next(ctx context.Context) bool
	// NextRecord returns true if there is a record to be processed, out is set
	// to the current record.
	NextRecord(ctx context.Context, out *T) bool
	// Record returns the current record.
	Record() T
	// Err returns the error that caused Next to return false, nil when the
	// response was read to its end.
	Err() error
	// Collect reads all remaining records and returns them. On failure the
	// records read before the error are returned along with it.
	Collect(ctx context.Context) ([]T, error)
	// Statistics returns the statistics of the executed statement. They are
	// only available once every record has been read.
	Statistics() (model.QueryStatistics, error)
	// Close releases the underlying stream. Closing more than once is allowed.
	Close() error
}

type state int

const (
	stateStreaming state = iota
	stateExhausted
	stateFailed
	stateClosed
)

const logName = "response"

type response[T any] struct {
	id        string
	log       log.Logger
	kind      Kind[T]
	stream    io.ReadCloser
	src       source[T]
	cols      []string
	state     state
	exhausted bool
	record    T
	err       error
	stats     model.QueryStatistics
	index     int
	released  bool
	closeErr  error
}

// OpenResponse opens a response over the JSON envelope of the transactional
// HTTP endpoint. The columns are read before returning; when that fails the
// stream is closed.
func OpenResponse[T any](stream io.ReadCloser, kind Kind[T], opts ...Option) (Response[T], error) {
	o := newOptions(opts)
	r, err := open[T](stream, kind, newJSONSource[T](stream, o.bufferSize), o)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// OpenBoltResponse opens a response over a chunked bolt message stream.
func OpenBoltResponse[T any](stream io.ReadCloser, kind Kind[T], opts ...Option) (Response[T], error) {
	o := newOptions(opts)
	r, err := open[T](stream, kind, newBoltSource[T](stream, o.bufferSize), o)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func open[T any](stream io.ReadCloser, kind Kind[T], src source[T], o *options) (*response[T], error) {
	if stream == nil {
		return nil, &UsageError{Message: "Response stream is nil"}
	}
	if kind.fromJSON == nil || kind.fromBolt == nil {
		return nil, errorutil.CombineErrors(&UsageError{Message: "Response kind must be one of Graph, Rest or Row"}, stream.Close())
	}
	r := &response[T]{
		id:     uuid.NewString(),
		log:    o.logger,
		kind:   kind,
		stream: stream,
		src:    src,
	}
	cols, err := src.columns()
	if err != nil {
		r.log.Error(logName, r.id, err)
		return nil, errorutil.CombineErrors(err, stream.Close())
	}
	r.cols = cols
	r.log.Debugf(logName, r.id, "opened %s response with columns %v", kind.key, cols)
	return r, nil
}

func (r *response[T]) Columns() []string {
	return r.cols
}

func (r *response[T]) Next(ctx context.Context) bool {
	return r.advance(ctx)
}

func (r *response[T]) NextRecord(ctx context.Context, out *T) bool {
	ok := r.advance(ctx)
	if out != nil {
		*out = r.record
	}
	return ok
}

func (r *response[T]) Record() T {
	return r.record
}

func (r *response[T]) Err() error {
	return r.err
}

func (r *response[T]) Collect(ctx context.Context) ([]T, error) {
	recs := make([]T, 0, 64)
	for r.advance(ctx) {
		recs = append(recs, r.record)
	}
	return recs, r.err
}

func (r *response[T]) Statistics() (model.QueryStatistics, error) {
	if !r.exhausted {
		if r.state == stateFailed {
			return model.QueryStatistics{}, r.err
		}
		return model.QueryStatistics{}, &UsageError{Message: "Statistics are only available after all records have been read"}
	}
	return r.stats, nil
}

func (r *response[T]) Close() error {
	if r.state == stateClosed {
		return nil
	}
	r.release()
	r.state = stateClosed
	var zero T
	r.record = zero
	r.log.Debugf(logName, r.id, "closed after %d records", r.index)
	err := r.closeErr
	r.closeErr = nil
	return err
}

// release closes the stream exactly once.
func (r *response[T]) release() {
	if r.released {
		return
	}
	r.released = true
	if err := r.stream.Close(); err != nil {
		r.log.Warnf(logName, r.id, "failed to close stream: %s", err)
		r.closeErr = err
	}
}

func (r *response[T]) fail(err error) bool {
	r.state = stateFailed
	r.err = err
	var zero T
	r.record = zero
	r.log.Error(logName, r.id, err)
	r.release()
	return false
}

func (r *response[T]) advance(ctx context.Context) bool {
	var zero T
	switch r.state {
	case stateClosed:
		r.record = zero
		r.err = &UsageError{Message: useAfterClose}
		return false
	case stateExhausted, stateFailed:
		r.record = zero
		return false
	}

	for {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return r.fail(err)
			}
		}
		record, ok, skip, err := r.src.next(&r.kind, r.cols)
		if err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				decodeErr.Record = r.index
			}
			return r.fail(err)
		}
		if !ok {
			return r.exhaust()
		}
		if skip {
			r.log.Debugf(logName, r.id, "skipped entry without %s data", r.kind.key)
			continue
		}
		r.record = record
		r.index++
		return true
	}
}

func (r *response[T]) exhaust() bool {
	s, err := stats.Extract(r.src.statistics())
	if err != nil {
		return r.fail(err)
	}
	r.stats = s
	r.exhausted = true
	r.state = stateExhausted
	var zero T
	r.record = zero
	r.log.Debugf(logName, r.id, "read %d records", r.index)
	r.release()
	return false
}
