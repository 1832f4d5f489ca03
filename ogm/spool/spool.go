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


// Package spool keeps raw response bodies in a badger store so that they can
// be decoded again later without contacting the server.
package spool

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/blake2b"

	"github.com/neo4j/neo4j-go-ogm/ogm/log"
)

const logName = "spool"

var keyPrefix = []byte("response:")

// ErrNotFound is returned when no body is stored under a key.
var ErrNotFound = errors.New("spool: response not found")

type Options struct {
	// Dir is where badger keeps its files. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	Log      log.Logger
}

// Store is safe for concurrent use.
type Store struct {
	db  *badger.DB
	log log.Logger
}

func Open(opts Options) (*Store, error) {
	if opts.Dir == "" && !opts.InMemory {
		return nil, errors.New("spool: a directory is required unless the store is in memory")
	}
	logger := opts.Log
	if logger == nil {
		logger = log.Void{}
	}
	badgerOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	badgerOpts = badgerOpts.
		WithLogger(&badgerLogger{log: logger}).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithValueThreshold(1024)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open spool: %w", err)
	}
	return &Store{db: db, log: logger}, nil
}

// Key derives the spool key of a query: the hex encoded BLAKE2b-256 digest of
// the statement followed by its parameters as canonical JSON.
func Key(statement string, params map[string]any) (string, error) {
	canonical, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("spool: cannot encode parameters: %w", err)
	}
	h, _ := blake2b.New256(nil)
	h.Write([]byte(statement))
	h.Write([]byte{0})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Store) Put(key string, body []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(key), body)
	})
	if err != nil {
		return fmt.Errorf("spool: cannot store %s: %w", key, err)
	}
	s.log.Debugf(logName, key, "stored %d bytes", len(body))
	return nil
}

func (s *Store) Get(key string) ([]byte, error) {
	var body []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(key))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Reader returns the stored body as a stream, ready to be handed to
// ogm.OpenResponse.
func (s *Store) Reader(key string) (io.ReadCloser, error) {
	body, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

// Keys lists stored keys in ascending order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	return keys, err
}

func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(key))
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Tee wraps rc so that everything read through it is stored under key once
// the stream is closed. Only a body read to the end is stored, closing early
// leaves an earlier capture under key untouched.
func (s *Store) Tee(key string, rc io.ReadCloser) io.ReadCloser {
	return &tee{store: s, key: key, src: rc}
}

type tee struct {
	store *Store
	key   string
	src   io.ReadCloser
	buf   bytes.Buffer
	eof   bool
	once  sync.Once
}

func (t *tee) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	t.buf.Write(p[:n])
	if err == io.EOF {
		t.eof = true
	}
	return n, err
}

func (t *tee) Close() error {
	var putErr error
	t.once.Do(func() {
		if !t.eof {
			t.store.log.Debugf(logName, t.key, "response closed after %d bytes, not stored", t.buf.Len())
			return
		}
		putErr = t.store.Put(t.key, t.buf.Bytes())
	})
	closeErr := t.src.Close()
	if closeErr != nil {
		return closeErr
	}
	return putErr
}

func storeKey(key string) []byte {
	return append(append([]byte{}, keyPrefix...), key...)
}

// badgerLogger routes badger's own messages to the module logger.
type badgerLogger struct {
	log log.Logger
}

func (l *badgerLogger) Errorf(msg string, args ...any) {
	l.log.Errorf("badger", "", msg, args...)
}

func (l *badgerLogger) Warningf(msg string, args ...any) {
	l.log.Warnf("badger", "", msg, args...)
}

func (l *badgerLogger) Infof(msg string, args ...any) {
	l.log.Debugf("badger", "", msg, args...)
}

func (l *badgerLogger) Debugf(msg string, args ...any) {
	l.log.Debugf("badger", "", msg, args...)
}
