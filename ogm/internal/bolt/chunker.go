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
	"encoding/binary"
	"io"

	"github.com/neo4j/neo4j-go-ogm/ogm/internal/packstream"
)

const maxChunkSize = 0xffff

// chunker buffers one message and writes it as chunks.
type chunker struct {
	wr     io.Writer
	chunks [][]byte
}

func newChunker(wr io.Writer) *chunker {
	return &chunker{wr: wr, chunks: make([][]byte, 0, 2)}
}

func (c *chunker) chunk() {
	chunk := make([]byte, 2, 0x100)
	c.chunks = append(c.chunks, chunk)
}

// Writes to current chunk or creates new chunks as needed.
func (c *chunker) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		if len(c.chunks) == 0 {
			c.chunk()
		}
		index := len(c.chunks) - 1
		chunk := c.chunks[index]
		left := (maxChunkSize + 2) - len(chunk)
		if len(p) <= left {
			c.chunks[index] = append(chunk, p...)
			return written + len(p), nil
		}
		c.chunks[index] = append(chunk, p[:left]...)
		written += left
		p = p[left:]
		c.chunk()
	}
	return written, nil
}

// send writes all chunks followed by the message terminator.
func (c *chunker) send() error {
	for _, chunk := range c.chunks {
		binary.BigEndian.PutUint16(chunk, uint16(len(chunk)-2))
		if _, err := c.wr.Write(chunk); err != nil {
			return err
		}
	}
	c.chunks = c.chunks[:0]
	_, err := c.wr.Write([]byte{0x00, 0x00})
	return err
}

// Writer writes response messages in the format read by Stream. It is used to
// produce recorded responses.
type Writer struct {
	ch     *chunker
	packer *packstream.Packer
}

func NewWriter(wr io.Writer) *Writer {
	ch := newChunker(wr)
	return &Writer{ch: ch, packer: packstream.NewPacker(ch)}
}

func (w *Writer) message(tag packstream.StructTag, fields ...any) error {
	if err := w.packer.PackStruct(tag, fields...); err != nil {
		return err
	}
	return w.ch.send()
}

// WriteSuccess writes a SUCCESS message with the given metadata.
func (w *Writer) WriteSuccess(meta map[string]any) error {
	return w.message(msgSuccess, meta)
}

// WriteRecord writes a RECORD message. Nodes, relationships and paths are
// written as their packstream structs.
func (w *Writer) WriteRecord(values ...any) error {
	fields := make([]any, len(values))
	for i, v := range values {
		fields[i] = dehydrate(v)
	}
	return w.message(msgRecord, fields)
}

// WriteFailure writes a FAILURE message.
func (w *Writer) WriteFailure(code, message string) error {
	return w.message(msgFailure, map[string]any{"code": code, "message": message})
}
