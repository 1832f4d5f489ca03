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

package packstream

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"

	"github.com/neo4j/neo4j-go-ogm/ogm/internal/tree"
)

type Packer struct {
	wr io.Writer
}

func NewPacker(wr io.Writer) *Packer {
	return &Packer{wr: wr}
}

func (p *Packer) write(buf []byte) error {
	_, err := p.wr.Write(buf)
	if err == nil {
		return nil
	}
	return &IoError{inner: err}
}

func (p *Packer) PackStruct(tag StructTag, fields ...any) error {
	return p.Pack(&Struct{Tag: tag, Fields: fields})
}

func (p *Packer) writeStruct(s *Struct) error {
	l := len(s.Fields)
	if l > 0x0f {
		return &OverflowError{msg: "Trying to pack struct with too many fields"}
	}
	if err := p.write([]byte{0xb0 + byte(l), byte(s.Tag)}); err != nil {
		return err
	}
	for _, f := range s.Fields {
		if err := p.Pack(f); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) writeInt(i int64) error {
	switch {
	case int64(-0x10) <= i && i < int64(0x80):
		return p.write([]byte{byte(i)})
	case int64(-0x80) <= i && i < int64(-0x10):
		return p.write([]byte{0xc8, byte(i)})
	case int64(-0x8000) <= i && i < int64(0x8000):
		buf := [3]byte{0xc9}
		binary.BigEndian.PutUint16(buf[1:], uint16(i))
		return p.write(buf[:])
	case int64(-0x80000000) <= i && i < int64(0x80000000):
		buf := [5]byte{0xca}
		binary.BigEndian.PutUint32(buf[1:], uint32(i))
		return p.write(buf[:])
	default:
		buf := [9]byte{0xcb}
		binary.BigEndian.PutUint64(buf[1:], uint64(i))
		return p.write(buf[:])
	}
}

func (p *Packer) writeFloat(f float64) error {
	buf := [9]byte{0xc1}
	binary.BigEndian.PutUint64(buf[1:], math.Float64bits(f))
	return p.write(buf[:])
}

// writeHeader writes the marker and size of strings, lists, maps and byte
// arrays. Byte arrays have no tiny form, pass tiny as 0.
func (p *Packer) writeHeader(l int, tiny, long byte) error {
	switch {
	case tiny != 0 && l < 0x10:
		return p.write([]byte{tiny + byte(l)})
	case l < 0x100:
		return p.write([]byte{long, byte(l)})
	case l < 0x10000:
		buf := [3]byte{long + 1}
		binary.BigEndian.PutUint16(buf[1:], uint16(l))
		return p.write(buf[:])
	case int64(l) < math.MaxUint32:
		buf := [5]byte{long + 2}
		binary.BigEndian.PutUint32(buf[1:], uint32(l))
		return p.write(buf[:])
	}
	return &OverflowError{msg: fmt.Sprintf("Trying to pack too large value of size %d", l)}
}

// Pack writes x. Supported are nil, booleans, all int and float kinds,
// strings, byte slices, []any, tree.Object, map[string]any and *Struct.
// map[string]any is written with sorted keys.
func (p *Packer) Pack(x any) error {
	switch v := x.(type) {
	case nil:
		return p.write([]byte{0xc0})
	case bool:
		if v {
			return p.write([]byte{0xc3})
		}
		return p.write([]byte{0xc2})
	case int:
		return p.writeInt(int64(v))
	case int64:
		return p.writeInt(v)
	case float64:
		return p.writeFloat(v)
	case string:
		if err := p.writeHeader(len(v), 0x80, 0xd0); err != nil {
			return err
		}
		return p.write([]byte(v))
	case []byte:
		if err := p.writeHeader(len(v), 0, 0xcc); err != nil {
			return err
		}
		return p.write(v)
	case []any:
		if err := p.writeHeader(len(v), 0x90, 0xd4); err != nil {
			return err
		}
		for _, e := range v {
			if err := p.Pack(e); err != nil {
				return err
			}
		}
		return nil
	case []string:
		if err := p.writeHeader(len(v), 0x90, 0xd4); err != nil {
			return err
		}
		for _, e := range v {
			if err := p.Pack(e); err != nil {
				return err
			}
		}
		return nil
	case tree.Object:
		if err := p.writeHeader(len(v), 0xa0, 0xd8); err != nil {
			return err
		}
		for _, m := range v {
			if err := p.Pack(m.Key); err != nil {
				return err
			}
			if err := p.Pack(m.Value); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(tree.Object, len(keys))
		for i, k := range keys {
			obj[i] = tree.Member{Key: k, Value: v[k]}
		}
		return p.Pack(obj)
	case *Struct:
		return p.writeStruct(v)
	}

	// Other kinds of ints and floats
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return p.writeInt(rv.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return p.writeInt(int64(rv.Uint()))
	case reflect.Uint, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return &OverflowError{msg: "Trying to pack uint64 that doesn't fit into int64"}
		}
		return p.writeInt(int64(u))
	case reflect.Float32:
		return p.writeFloat(rv.Float())
	}
	return &UnsupportedTypeError{t: reflect.TypeOf(x)}
}
