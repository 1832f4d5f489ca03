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

package ogm

import (
	"errors"

	"github.com/neo4j/neo4j-go-ogm/ogm/db"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/errorutil"
)

// MalformedResponseError is returned when the envelope of a response is
// structurally invalid. It aborts the response.
type MalformedResponseError = db.MalformedResponseError

// QueryExecutionError is returned when the database reported errors for the
// statement. Records delivered before it stay valid.
type QueryExecutionError = db.QueryExecutionError

// ServerError is a single error reported by the database.
type ServerError = db.ServerError

// DecodeError is returned when a record could not be decoded. It aborts the
// response.
type DecodeError = db.DecodeError

// ReadError is returned when the underlying stream failed.
type ReadError = db.ReadError

// UsageError represents errors caused by incorrect usage of the API.
type UsageError = errorutil.UsageError

const useAfterClose = "Response used after being closed"

func IsMalformedResponse(err error) bool {
	var e *MalformedResponseError
	return errors.As(err, &e)
}

func IsQueryExecutionError(err error) bool {
	var e *QueryExecutionError
	return errors.As(err, &e)
}

func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// IsUseAfterClose reports whether err was caused by using a closed response.
func IsUseAfterClose(err error) bool {
	var e *UsageError
	return errors.As(err, &e) && e.Message == useAfterClose
}
