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


// Package httpdriver runs Cypher statements against the transactional HTTP
// endpoint and hands the streamed body to the response reader.
package httpdriver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/neo4j/neo4j-go-ogm/ogm"
	"github.com/neo4j/neo4j-go-ogm/ogm/config"
	"github.com/neo4j/neo4j-go-ogm/ogm/db"
	"github.com/neo4j/neo4j-go-ogm/ogm/internal/errorutil"
	"github.com/neo4j/neo4j-go-ogm/ogm/log"
	"github.com/neo4j/neo4j-go-ogm/ogm/spool"
)

const logName = "http"

// Largest error body read when the server answers with a non 2xx status.
const maxErrorBody = 64 << 10

type Driver struct {
	cfg    *config.Config
	client *http.Client
	store  *spool.Store
	log    log.Logger
}

// New creates a driver for cfg. A nil client uses http.DefaultClient. When
// cfg asks for a spool the store is opened here and closed by Close.
func New(cfg *config.Config, client *http.Client) (*Driver, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.URI == "" {
		return nil, &errorutil.UsageError{Message: "URI is required to run queries"}
	}
	if client == nil {
		client = http.DefaultClient
	}
	d := &Driver{cfg: cfg, client: client, log: cfg.Logger()}
	if cfg.SpoolDir != "" || cfg.SpoolInMemory {
		store, err := spool.Open(spool.Options{Dir: cfg.SpoolDir, InMemory: cfg.SpoolInMemory, Log: d.log})
		if err != nil {
			return nil, err
		}
		d.store = store
	}
	return d, nil
}

// Spool returns the capture store, nil when capturing is disabled.
func (d *Driver) Spool() *spool.Store {
	return d.store
}

func (d *Driver) Close() error {
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}

type statement struct {
	Statement          string         `json:"statement"`
	Parameters         map[string]any `json:"parameters,omitempty"`
	ResultDataContents []string       `json:"resultDataContents"`
	IncludeStats       bool           `json:"includeStats"`
}

type request struct {
	Statements []statement `json:"statements"`
}

type errorBody struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Query runs statement in its own transaction and returns the streamed
// response, decoded as kind. The caller must close the response.
func Query[T any](ctx context.Context, d *Driver, stmt string, params map[string]any, kind ogm.Kind[T]) (ogm.Response[T], error) {
	id := uuid.NewString()
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(request{Statements: []statement{{
		Statement:          stmt,
		Parameters:         convertParams(params),
		ResultDataContents: []string{kind.Key()},
		IncludeStats:       d.cfg.IncludeStats,
	}}})
	if err != nil {
		return nil, fmt.Errorf("cannot encode request: %w", err)
	}
	url := fmt.Sprintf("%s/db/%s/tx/commit", d.cfg.URI, d.cfg.Database)
	// The timeout bounds the wait for the response headers only, the body is
	// streamed for as long as the response is being read.
	reqCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if d.cfg.User != "" {
		req.SetBasicAuth(d.cfg.User, d.cfg.Password)
	}

	d.log.Debugf(logName, id, "POST %s (%s)", url, kind.Key())
	var timer *time.Timer
	if d.cfg.Timeout > 0 {
		timer = time.AfterFunc(d.cfg.Timeout, cancel)
	}
	resp, err := d.client.Do(req)
	if timer != nil && !timer.Stop() && err == nil {
		_ = resp.Body.Close()
		err = fmt.Errorf("no response within %s: %w", d.cfg.Timeout, context.DeadlineExceeded)
	}
	if err != nil {
		cancel()
		d.log.Error(logName, id, err)
		return nil, &db.ReadError{Inner: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := statusError(resp)
		cancel()
		d.log.Error(logName, id, err)
		return nil, err
	}

	var stream io.ReadCloser = &streamBody{ReadCloser: resp.Body, cancel: cancel}
	if d.store != nil {
		key, err := spool.Key(stmt, params)
		if err != nil {
			_ = resp.Body.Close()
			return nil, err
		}
		d.log.Debugf(logName, id, "capturing response as %s", key)
		stream = d.store.Tee(key, stream)
	}
	return ogm.OpenResponse(stream, kind, ogm.WithConfig(d.cfg))
}

// streamBody releases the request context once the response is closed.
type streamBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *streamBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}

func statusError(resp *http.Response) error {
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var parsed errorBody
	if jsoniter.Unmarshal(raw, &parsed) == nil && len(parsed.Errors) > 0 {
		errs := make([]db.ServerError, len(parsed.Errors))
		for i, e := range parsed.Errors {
			errs[i] = db.ServerError{Code: e.Code, Message: e.Message}
		}
		return db.NewQueryExecutionError(errs)
	}
	code := "Neo.ClientError.Request.Invalid"
	if resp.StatusCode == http.StatusUnauthorized {
		code = "Neo.ClientError.Security.Unauthorized"
	} else if resp.StatusCode >= 500 {
		code = "Neo.DatabaseError.General.UnknownError"
	}
	return db.NewQueryExecutionError([]db.ServerError{{
		Code:    code,
		Message: fmt.Sprintf("server answered %s", resp.Status),
	}})
}

// convertParams replaces time values, which the endpoint does not accept, by
// their RFC 3339 text.
func convertParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = convertParam(v)
	}
	return out
}

func convertParam(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.Format(time.RFC3339Nano)
	case map[string]any:
		return convertParams(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = convertParam(e)
		}
		return out
	}
	return v
}
