// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package proxygen

import (
	"encoding/binary"
	"math"

	"github.com/google/jarpath/pkg/classfile"
)

// poolEntry is both the stored constant and its deduplication key. Direct
// values use s or bits; indirect entries use a and b.
type poolEntry struct {
	kind classfile.ConstantKind
	s    string
	bits uint64
	a, b uint16
}

// ConstantPool assigns constant pool indices on first use and returns the
// existing index for repeated values. Once frozen with SetReadOnly, adding
// a new entry panics with ErrConstantPoolReadOnly; looking up existing
// entries keeps working.
type ConstantPool struct {
	entries  []poolEntry // entries[0] is unused
	index    map[poolEntry]uint16
	readOnly bool
}

// NewConstantPool returns an empty writable pool.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{
		entries: make([]poolEntry, 1),
		index:   map[poolEntry]uint16{},
	}
}

func (cp *ConstantPool) get(e poolEntry) uint16 {
	if idx, ok := cp.index[e]; ok {
		return idx
	}
	if cp.readOnly {
		panic(ErrConstantPoolReadOnly)
	}

	slots := 1
	if e.kind.Wide() {
		slots = 2
	}
	// constant_pool_count is a u2 holding the number of slots plus one.
	if len(cp.entries)+slots > classfile.MaxTableSize {
		overflow("constant pool size limit exceeded")
	}

	idx := uint16(len(cp.entries))
	cp.entries = append(cp.entries, e)
	if slots == 2 {
		cp.entries = append(cp.entries, poolEntry{kind: classfile.ConstantKindPlaceholder})
	}
	cp.index[e] = idx

	return idx
}

// Utf8 returns the index of a Utf8 entry.
func (cp *ConstantPool) Utf8(s string) uint16 {
	if classfile.ModifiedUTF8Len(s) > math.MaxUint16 {
		overflow("encoded string too long")
	}

	return cp.get(poolEntry{kind: classfile.ConstantKindUtf8, s: s})
}

// Integer returns the index of an Integer entry.
func (cp *ConstantPool) Integer(v int32) uint16 {
	return cp.get(poolEntry{kind: classfile.ConstantKindInteger, bits: uint64(uint32(v))})
}

// Float returns the index of a Float entry.
func (cp *ConstantPool) Float(v float32) uint16 {
	return cp.get(poolEntry{kind: classfile.ConstantKindFloat, bits: uint64(math.Float32bits(v))})
}

// Long returns the index of a Long entry. It occupies two slots.
func (cp *ConstantPool) Long(v int64) uint16 {
	return cp.get(poolEntry{kind: classfile.ConstantKindLong, bits: uint64(v)})
}

// Double returns the index of a Double entry. It occupies two slots.
func (cp *ConstantPool) Double(v float64) uint16 {
	return cp.get(poolEntry{kind: classfile.ConstantKindDouble, bits: math.Float64bits(v)})
}

// Class returns the index of a Class entry for an internal name.
func (cp *ConstantPool) Class(internalName string) uint16 {
	return cp.get(poolEntry{kind: classfile.ConstantKindClass, a: cp.Utf8(internalName)})
}

// String returns the index of a String entry.
func (cp *ConstantPool) String(s string) uint16 {
	return cp.get(poolEntry{kind: classfile.ConstantKindString, a: cp.Utf8(s)})
}

// NameAndType returns the index of a NameAndType entry.
func (cp *ConstantPool) NameAndType(name, descriptor string) uint16 {
	return cp.get(poolEntry{kind: classfile.ConstantKindNameAndType, a: cp.Utf8(name), b: cp.Utf8(descriptor)})
}

func (cp *ConstantPool) ref(kind classfile.ConstantKind, class, name, descriptor string) uint16 {
	return cp.get(poolEntry{kind: kind, a: cp.Class(class), b: cp.NameAndType(name, descriptor)})
}

// Fieldref returns the index of a Fieldref entry.
func (cp *ConstantPool) Fieldref(class, name, descriptor string) uint16 {
	return cp.ref(classfile.ConstantKindFieldref, class, name, descriptor)
}

// Methodref returns the index of a Methodref entry.
func (cp *ConstantPool) Methodref(class, name, descriptor string) uint16 {
	return cp.ref(classfile.ConstantKindMethodref, class, name, descriptor)
}

// InterfaceMethodref returns the index of an InterfaceMethodref entry.
func (cp *ConstantPool) InterfaceMethodref(class, name, descriptor string) uint16 {
	return cp.ref(classfile.ConstantKindInterfaceMethodref, class, name, descriptor)
}

// SetReadOnly freezes the pool. There is no way back.
func (cp *ConstantPool) SetReadOnly() { cp.readOnly = true }

// ReadOnly reports whether the pool has been frozen.
func (cp *ConstantPool) ReadOnly() bool { return cp.readOnly }

// Count returns the constant_pool_count value: used slots plus one.
func (cp *ConstantPool) Count() int { return len(cp.entries) }

// AppendTo appends constant_pool_count and the serialized entries to b.
func (cp *ConstantPool) AppendTo(b []byte) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(len(cp.entries)))
	for _, e := range cp.entries[1:] {
		if e.kind == classfile.ConstantKindPlaceholder {
			continue
		}
		b = append(b, byte(e.kind))
		switch e.kind {
		case classfile.ConstantKindUtf8:
			b = binary.BigEndian.AppendUint16(b, uint16(classfile.ModifiedUTF8Len(e.s)))
			b = classfile.AppendModifiedUTF8(b, e.s)
		case classfile.ConstantKindInteger, classfile.ConstantKindFloat:
			b = binary.BigEndian.AppendUint32(b, uint32(e.bits))
		case classfile.ConstantKindLong, classfile.ConstantKindDouble:
			b = binary.BigEndian.AppendUint64(b, e.bits)
		case classfile.ConstantKindClass, classfile.ConstantKindString:
			b = binary.BigEndian.AppendUint16(b, e.a)
		default:
			b = binary.BigEndian.AppendUint16(b, e.a)
			b = binary.BigEndian.AppendUint16(b, e.b)
		}
	}

	return b
}
