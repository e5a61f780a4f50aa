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

package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// maxAttributeLength bounds the memory a single attribute may claim.
const maxAttributeLength = 64 << 20

var (
	// ErrBadMagic is returned when the input does not start with 0xCAFEBABE.
	ErrBadMagic = errors.New("not a class file")
	// ErrInvalidIndex is returned for an out of range or mistyped constant
	// pool reference.
	ErrInvalidIndex = errors.New("invalid constant pool index")
)

// ClassFile is a fully decoded class file. ConstantPool is indexed by
// constant pool index; index 0 holds a placeholder.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool []Constant
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
}

// Member is a field_info or method_info structure.
type Member struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// Attribute is an undecoded attribute_info structure.
type Attribute struct {
	NameIndex uint16
	Info      []byte
}

// Code is a decoded Code attribute.
type Code struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
}

// ExceptionHandler is one exception_table entry of a Code attribute.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// reader decodes big-endian class-file values and remembers the first error,
// so callers can check once after a group of reads.
type reader struct {
	r   io.Reader
	err error
	buf [8]byte
}

func (r *reader) fill(n int) []byte {
	if r.err != nil {
		return nil
	}
	if _, err := io.ReadFull(r.r, r.buf[:n]); err != nil {
		r.err = err
		return nil
	}

	return r.buf[:n]
}

func (r *reader) u1() uint8 {
	if b := r.fill(1); b != nil {
		return b[0]
	}

	return 0
}

func (r *reader) u2() uint16 {
	if b := r.fill(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}

	return 0
}

func (r *reader) u4() uint32 {
	if b := r.fill(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}

	return 0
}

func (r *reader) u8() uint64 {
	if b := r.fill(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}

	return 0
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = err
		return nil
	}

	return b
}

func (r *reader) u2s(n int) []uint16 {
	out := make([]uint16, 0, n)
	for range n {
		out = append(out, r.u2())
	}

	return out
}

func (r *reader) attributes() []Attribute {
	count := int(r.u2())
	if count == 0 {
		return nil
	}
	attrs := make([]Attribute, 0, count)
	for range count {
		nameIndex := r.u2()
		length := r.u4()
		if r.err == nil && length > maxAttributeLength {
			r.err = fmt.Errorf("attribute size too large (%d)", length)
		}
		info := r.bytes(int(length))
		if r.err != nil {
			return nil
		}
		attrs = append(attrs, Attribute{NameIndex: nameIndex, Info: info})
	}

	return attrs
}

func (r *reader) members() []Member {
	count := int(r.u2())
	members := make([]Member, 0, count)
	for range count {
		m := Member{
			AccessFlags:     r.u2(),
			NameIndex:       r.u2(),
			DescriptorIndex: r.u2(),
		}
		m.Attributes = r.attributes()
		if r.err != nil {
			return nil
		}
		members = append(members, m)
	}

	return members
}

func (r *reader) constant(kind ConstantKind) (Constant, error) {
	switch kind {
	case ConstantKindUtf8:
		raw := r.bytes(int(r.u2()))
		if r.err != nil {
			return nil, r.err
		}
		s, err := DecodeModifiedUTF8(raw)
		if err != nil {
			return nil, err
		}

		return &ConstantUtf8{Value: s}, nil
	case ConstantKindInteger:
		return &ConstantInteger{Value: int32(r.u4())}, r.err
	case ConstantKindFloat:
		return &ConstantFloat{Value: math.Float32frombits(r.u4())}, r.err
	case ConstantKindLong:
		return &ConstantLong{Value: int64(r.u8())}, r.err
	case ConstantKindDouble:
		return &ConstantDouble{Value: math.Float64frombits(r.u8())}, r.err
	case ConstantKindClass:
		return &ConstantClass{NameIndex: r.u2()}, r.err
	case ConstantKindString:
		return &ConstantString{StringIndex: r.u2()}, r.err
	case ConstantKindFieldref, ConstantKindMethodref, ConstantKindInterfaceMethodref:
		return &ConstantRef{Kind: kind, ClassIndex: r.u2(), NameAndTypeIndex: r.u2()}, r.err
	case ConstantKindNameAndType:
		return &ConstantNameAndType{NameIndex: r.u2(), DescriptorIndex: r.u2()}, r.err
	case ConstantKindMethodHandle:
		return &ConstantMethodHandle{ReferenceKind: r.u1(), ReferenceIndex: r.u2()}, r.err
	case ConstantKindMethodType:
		return &ConstantMethodType{DescriptorIndex: r.u2()}, r.err
	case ConstantKindDynamic, ConstantKindInvokeDynamic:
		return &ConstantDynamic{Kind: kind, BootstrapMethodAttrIndex: r.u2(), NameAndTypeIndex: r.u2()}, r.err
	case ConstantKindModule, ConstantKindPackage:
		return &ConstantNamed{Kind: kind, NameIndex: r.u2()}, r.err
	}

	return nil, fmt.Errorf("invalid cp_info type %d", kind)
}

// ParseClass parses a complete Java class file from a reader.
func ParseClass(in io.Reader) (*ClassFile, error) {
	r := &reader{r: in}
	if magic := r.u4(); r.err == nil && magic != Magic {
		return nil, fmt.Errorf("%w: magic %#x", ErrBadMagic, magic)
	}

	var cf ClassFile
	cf.MinorVersion = r.u2()
	cf.MajorVersion = r.u2()
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}

	// The constant_pool_count item is the number of entries plus one.
	cf.ConstantPool = make([]Constant, 1, max(count, 1))
	cf.ConstantPool[0] = &ConstantPlaceholder{}
	for len(cf.ConstantPool) < count {
		kind := ConstantKind(r.u1())
		if r.err != nil {
			return nil, r.err
		}
		c, err := r.constant(kind)
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", len(cf.ConstantPool), err)
		}
		cf.ConstantPool = append(cf.ConstantPool, c)
		if kind.Wide() {
			cf.ConstantPool = append(cf.ConstantPool, &ConstantPlaceholder{})
		}
	}

	cf.AccessFlags = r.u2()
	cf.ThisClass = r.u2()
	cf.SuperClass = r.u2()
	cf.Interfaces = r.u2s(int(r.u2()))
	cf.Fields = r.members()
	cf.Methods = r.members()
	cf.Attributes = r.attributes()
	if r.err != nil {
		return nil, r.err
	}

	return &cf, nil
}

func (cf *ClassFile) lookup(idx uint16, kind ConstantKind) (Constant, error) {
	// An index is valid when it is greater than zero and less than
	// constant_pool_count, and does not name the slot after a long or double.
	if idx == 0 || int(idx) >= len(cf.ConstantPool) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, idx)
	}
	c := cf.ConstantPool[idx]
	if c.Type() != kind {
		return nil, fmt.Errorf("%w: %d is %s, not %s", ErrInvalidIndex, idx, c.Type(), kind)
	}

	return c, nil
}

// Utf8 returns the string stored at the given index.
func (cf *ClassFile) Utf8(idx uint16) (string, error) {
	c, err := cf.lookup(idx, ConstantKindUtf8)
	if err != nil {
		return "", err
	}

	return c.(*ConstantUtf8).Value, nil
}

// ClassName returns the internal name of the class at the given index.
func (cf *ClassFile) ClassName(idx uint16) (string, error) {
	c, err := cf.lookup(idx, ConstantKindClass)
	if err != nil {
		return "", err
	}

	return cf.Utf8(c.(*ConstantClass).NameIndex)
}

// Ref returns the owner, name and descriptor of a Fieldref, Methodref or
// InterfaceMethodref entry.
func (cf *ClassFile) Ref(idx uint16) (class, name, descriptor string, err error) {
	if idx == 0 || int(idx) >= len(cf.ConstantPool) {
		return "", "", "", fmt.Errorf("%w: %d", ErrInvalidIndex, idx)
	}
	ref, ok := cf.ConstantPool[idx].(*ConstantRef)
	if !ok {
		return "", "", "", fmt.Errorf("%w: %d is not a member reference", ErrInvalidIndex, idx)
	}
	if class, err = cf.ClassName(ref.ClassIndex); err != nil {
		return "", "", "", err
	}
	c, err := cf.lookup(ref.NameAndTypeIndex, ConstantKindNameAndType)
	if err != nil {
		return "", "", "", err
	}
	nat := c.(*ConstantNameAndType)
	if name, err = cf.Utf8(nat.NameIndex); err != nil {
		return "", "", "", err
	}
	descriptor, err = cf.Utf8(nat.DescriptorIndex)

	return class, name, descriptor, err
}

// ThisClassName returns the internal name of the class itself.
func (cf *ClassFile) ThisClassName() (string, error) {
	return cf.ClassName(cf.ThisClass)
}

// SuperClassName returns the internal name of the superclass, or "" for
// java/lang/Object.
func (cf *ClassFile) SuperClassName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}

	return cf.ClassName(cf.SuperClass)
}

// InterfaceNames returns the internal names of the direct superinterfaces.
func (cf *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, 0, len(cf.Interfaces))
	for _, idx := range cf.Interfaces {
		name, err := cf.ClassName(idx)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}

// NameAndDescriptor returns the name and descriptor of a field or method.
func (cf *ClassFile) NameAndDescriptor(m Member) (string, string, error) {
	name, err := cf.Utf8(m.NameIndex)
	if err != nil {
		return "", "", err
	}
	desc, err := cf.Utf8(m.DescriptorIndex)

	return name, desc, err
}

// FindAttribute returns the first attribute with the given name.
func (cf *ClassFile) FindAttribute(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if n, err := cf.Utf8(a.NameIndex); err == nil && n == name {
			return a, true
		}
	}

	return Attribute{}, false
}

// Code decodes the Code attribute of a method. It returns nil for abstract
// and native methods.
func (cf *ClassFile) Code(m Member) (*Code, error) {
	attr, ok := cf.FindAttribute(m.Attributes, AttributeCode)
	if !ok {
		return nil, nil
	}

	r := &reader{r: bytes.NewReader(attr.Info)}
	code := &Code{
		MaxStack:  r.u2(),
		MaxLocals: r.u2(),
	}
	length := r.u4()
	if r.err == nil && int64(length) > int64(len(attr.Info)) {
		return nil, fmt.Errorf("malformed Code attribute: code length %d", length)
	}
	code.Code = r.bytes(int(length))
	handlers := int(r.u2())
	for range handlers {
		code.ExceptionTable = append(code.ExceptionTable, ExceptionHandler{
			StartPC:   r.u2(),
			EndPC:     r.u2(),
			HandlerPC: r.u2(),
			CatchType: r.u2(),
		})
	}
	code.Attributes = r.attributes()
	if r.err != nil {
		return nil, fmt.Errorf("malformed Code attribute: %w", r.err)
	}

	return code, nil
}

// Exceptions returns the internal names listed in the Exceptions attribute
// of a method.
func (cf *ClassFile) Exceptions(m Member) ([]string, error) {
	attr, ok := cf.FindAttribute(m.Attributes, AttributeExceptions)
	if !ok {
		return nil, nil
	}

	r := &reader{r: bytes.NewReader(attr.Info)}
	indexes := r.u2s(int(r.u2()))
	if r.err != nil {
		return nil, fmt.Errorf("malformed Exceptions attribute: %w", r.err)
	}
	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		name, err := cf.ClassName(idx)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}
