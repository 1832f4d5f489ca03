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
	"errors"
	"fmt"
	"io"
)

var errMessageEnd = errors.New("message ended before value was complete")

// dechunker reads the content of one message at a time. Messages are split
// into chunks prefixed with a big endian uint16 size and terminated by an
// empty chunk. Empty chunks between messages are no-ops.
type dechunker struct {
	rd        io.Reader
	size      int // Bytes left in current chunk
	inMessage bool
	hdr       [2]byte
}

func newDechunker(rd io.Reader) *dechunker {
	return &dechunker{rd: rd}
}

func (d *dechunker) readHeader() (int, error) {
	if _, err := io.ReadFull(d.rd, d.hdr[:]); err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint16(d.hdr[:])), nil
}

func (d *dechunker) Read(p []byte) (int, error) {
	for d.size == 0 {
		size, err := d.readHeader()
		if err != nil {
			return 0, err
		}
		if size == 0 && d.inMessage {
			return 0, errMessageEnd
		}
		d.size = size
	}
	d.inMessage = true

	// Don't read more than what's left of the current chunk
	if len(p) > d.size {
		p = p[:d.size]
	}
	n, err := d.rd.Read(p)
	d.size -= n
	if err == io.EOF && d.size > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// endMessage consumes the terminating empty chunk of the current message.
func (d *dechunker) endMessage() error {
	if d.size > 0 {
		return fmt.Errorf("%d trailing bytes in message", d.size)
	}
	size, err := d.readHeader()
	if err != nil {
		return err
	}
	if size != 0 {
		return fmt.Errorf("message continues after complete value")
	}
	d.inMessage = false
	return nil
}
