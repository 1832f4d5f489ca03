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

// Package db contains the error types raised while reading responses sent by
// the database.
package db

import (
	"fmt"
	"strings"
)

// ServerError is one entry of the errors reported by the database.
type ServerError struct {
	Code    string
	Message string
}

// QueryExecutionError is created when the database reported errors for the
// executed statement. Records delivered before the error was discovered stay
// valid.
type QueryExecutionError struct {
	Code string
	Msg  string
	// Errors holds every error reported, the first one is also exposed through
	// Code and Msg.
	Errors         []ServerError
	parsed         bool
	classification string
	category       string
	title          string
}

func NewQueryExecutionError(errs []ServerError) *QueryExecutionError {
	e := &QueryExecutionError{Errors: errs}
	if len(errs) > 0 {
		e.Code = errs[0].Code
		e.Msg = errs[0].Message
	}
	return e
}

func (e *QueryExecutionError) Error() string {
	if len(e.Errors) > 1 {
		return fmt.Sprintf("QueryExecutionError: %s (%s) and %d more", e.Code, e.Msg, len(e.Errors)-1)
	}
	return fmt.Sprintf("QueryExecutionError: %s (%s)", e.Code, e.Msg)
}

func (e *QueryExecutionError) Classification() string {
	e.parse()
	return e.classification
}

func (e *QueryExecutionError) Category() string {
	e.parse()
	return e.category
}

func (e *QueryExecutionError) Title() string {
	e.parse()
	return e.title
}

// parse code from the database into usable parts.
// Code Neo.ClientError.Statement.SyntaxError is split into:
//
//	Classification: ClientError
//	Category: Statement
//	Title: SyntaxError
func (e *QueryExecutionError) parse() {
	if e.parsed {
		return
	}
	e.parsed = true
	parts := strings.Split(e.Code, ".")
	if len(parts) != 4 {
		return
	}
	e.classification = parts[1]
	e.category = parts[2]
	e.title = parts[3]
}

func (e *QueryExecutionError) IsRetriableTransient() bool {
	return e.Classification() == "TransientError"
}

// MalformedResponseError is returned when the response envelope is
// structurally invalid. It aborts the response.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("MalformedResponse: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("MalformedResponse: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a single record could not be decoded. Path
// points at the offending value inside the record, e.g. "nodes[1].id".
type DecodeError struct {
	Record int
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("DecodeError: record %d: %s", e.Record, e.Reason)
	}
	return fmt.Sprintf("DecodeError: record %d at %s: %s", e.Record, e.Path, e.Reason)
}

// ReadError wraps failures of the underlying byte source.
type ReadError struct {
	Inner error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("ReadError: %s", e.Inner)
}

func (e *ReadError) Unwrap() error {
	return e.Inner
}
