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

// Package packstream reads and writes values in the packstream binary format
// used by the bolt protocol. Maps are read into tree.Object to keep their key
// order and any repeated keys.
package packstream

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
)

type StructTag byte

// Hydrate is called with the tag and the unpacked fields of every struct.
type Hydrate func(tag StructTag, fields []any) (any, error)

// Struct is what an Unpacker without Hydrate returns for structs, and what
// a Packer writes for them.
type Struct struct {
	Tag    StructTag
	Fields []any
}

type Unpacker struct {
	rd      io.Reader
	hydrate Hydrate
	buf     [8]byte
}

func NewUnpacker(rd io.Reader, hydrate Hydrate) *Unpacker {
	if hydrate == nil {
		hydrate = func(tag StructTag, fields []any) (any, error) {
			return &Struct{Tag: tag, Fields: fields}, nil
		}
	}
	return &Unpacker{rd: rd, hydrate: hydrate}
}

func (u *Unpacker) fill(n int) ([]byte, error) {
	_, err := io.ReadFull(u.rd, u.buf[:n])
	if err != nil {
		return nil, &IoError{inner: err}
	}
	return u.buf[:n], nil
}

func (u *Unpacker) read(n uint32) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(u.rd, buf)
	if err != nil {
		return nil, &IoError{inner: err}
	}
	return buf, nil
}

// size reads a big endian length of 1, 2 or 4 bytes.
func (u *Unpacker) size(bytes int) (uint32, error) {
	buf, err := u.fill(bytes)
	if err != nil {
		return 0, err
	}
	switch bytes {
	case 1:
		return uint32(buf[0]), nil
	case 2:
		return uint32(binary.BigEndian.Uint16(buf)), nil
	}
	return binary.BigEndian.Uint32(buf), nil
}

func (u *Unpacker) readStruct(numFields int) (any, error) {
	buf, err := u.fill(1)
	if err != nil {
		return nil, err
	}
	tag := StructTag(buf[0])
	fields, err := u.readArr(uint32(numFields))
	if err != nil {
		return nil, err
	}
	return u.hydrate(tag, fields)
}

func (u *Unpacker) readArr(n uint32) ([]any, error) {
	var err error
	arr := make([]any, n)
	for i := range arr {
		arr[i], err = u.Unpack()
		if err != nil {
			return nil, err
		}
	}
	return arr, nil
}

func (u *Unpacker) readMap(n uint32) (tree.Object, error) {
	m := make(tree.Object, 0, n)
	for i := uint32(0); i < n; i++ {
		keyx, err := u.Unpack()
		if err != nil {
			return nil, err
		}
		key, ok := keyx.(string)
		if !ok {
			return nil, &IllegalFormatError{msg: fmt.Sprintf("Map key is not string type: %T", keyx)}
		}
		valx, err := u.Unpack()
		if err != nil {
			return nil, err
		}
		m = append(m, tree.Member{Key: key, Value: valx})
	}
	return m, nil
}

func (u *Unpacker) readInt(bytes int) (int64, error) {
	buf, err := u.fill(bytes)
	if err != nil {
		return 0, err
	}
	switch bytes {
	case 1:
		return int64(int8(buf[0])), nil
	case 2:
		return int64(int16(binary.BigEndian.Uint16(buf))), nil
	case 4:
		return int64(int32(binary.BigEndian.Uint32(buf))), nil
	}
	return int64(binary.BigEndian.Uint64(buf)), nil
}

// Unpack reads the next value. Integers are returned as int64, maps as
// tree.Object and structs as whatever Hydrate returns.
func (u *Unpacker) Unpack() (any, error) {
	buf, err := u.fill(1)
	if err != nil {
		return nil, err
	}
	marker := buf[0]

	switch {
	case marker < 0x80:
		// Tiny positive int
		return int64(marker), nil
	case marker >= 0xf0:
		// Tiny negative int
		return int64(marker) - 0x100, nil
	case marker >= 0x80 && marker < 0x90:
		return u.readStr(uint32(marker - 0x80))
	case marker >= 0x90 && marker < 0xa0:
		return u.readArr(uint32(marker - 0x90))
	case marker >= 0xa0 && marker < 0xb0:
		return u.readMap(uint32(marker - 0xa0))
	case marker >= 0xb0 && marker < 0xc0:
		return u.readStruct(int(marker - 0xb0))
	}

	switch marker {
	case 0xc0:
		return nil, nil
	case 0xc1:
		buf, err := u.fill(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil
	case 0xc2:
		return false, nil
	case 0xc3:
		return true, nil
	case 0xc8, 0xc9, 0xca, 0xcb:
		return u.readInt(1 << (marker - 0xc8))
	case 0xcc, 0xcd, 0xce:
		n, err := u.size(1 << (marker - 0xcc))
		if err != nil {
			return nil, err
		}
		return u.read(n)
	case 0xd0, 0xd1, 0xd2:
		n, err := u.size(1 << (marker - 0xd0))
		if err != nil {
			return nil, err
		}
		return u.readStr(n)
	case 0xd4, 0xd5, 0xd6:
		n, err := u.size(1 << (marker - 0xd4))
		if err != nil {
			return nil, err
		}
		return u.readArr(n)
	case 0xd8, 0xd9, 0xda:
		n, err := u.size(1 << (marker - 0xd8))
		if err != nil {
			return nil, err
		}
		return u.readMap(n)
	}

	return nil, &IllegalFormatError{msg: fmt.Sprintf("Unknown marker: %02x", marker)}
}

func (u *Unpacker) readStr(n uint32) (any, error) {
	buf, err := u.read(n)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}
