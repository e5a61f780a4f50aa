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

// Package classfile models the binary Java class-file format: constant kinds,
// access flags, modified UTF-8 strings and a reader for complete class files.
package classfile

// Magic is the first four bytes of every class file.
const Magic uint32 = 0xCAFEBABE

// MaxTableSize is the largest number of entries a u2-counted class-file
// table (constant pool, fields, methods) can describe.
const MaxTableSize = 65535

// ConstantKind is the tag of a constant pool entry.
type ConstantKind uint8

// ConstantKind values as defined in
// https://docs.oracle.com/javase/specs/jvms/se22/html/jvms-4.html#jvms-4.4
const (
	ConstantKindUtf8               ConstantKind = 1
	ConstantKindInteger            ConstantKind = 3
	ConstantKindFloat              ConstantKind = 4
	ConstantKindLong               ConstantKind = 5
	ConstantKindDouble             ConstantKind = 6
	ConstantKindClass              ConstantKind = 7
	ConstantKindString             ConstantKind = 8
	ConstantKindFieldref           ConstantKind = 9
	ConstantKindMethodref          ConstantKind = 10
	ConstantKindInterfaceMethodref ConstantKind = 11
	ConstantKindNameAndType        ConstantKind = 12
	ConstantKindMethodHandle       ConstantKind = 15
	ConstantKindMethodType         ConstantKind = 16
	ConstantKindDynamic            ConstantKind = 17
	ConstantKindInvokeDynamic      ConstantKind = 18
	ConstantKindModule             ConstantKind = 19
	ConstantKindPackage            ConstantKind = 20

	// ConstantKindPlaceholder is not a real tag. It fills index 0 and the
	// unusable slot following every long and double constant, so the pool
	// can be indexed directly with constant pool indices.
	ConstantKindPlaceholder ConstantKind = 255
)

// Wide reports whether constants of this kind occupy two pool slots.
func (k ConstantKind) Wide() bool {
	return k == ConstantKindLong || k == ConstantKindDouble
}

func (k ConstantKind) String() string {
	switch k {
	case ConstantKindUtf8:
		return "Utf8"
	case ConstantKindInteger:
		return "Integer"
	case ConstantKindFloat:
		return "Float"
	case ConstantKindLong:
		return "Long"
	case ConstantKindDouble:
		return "Double"
	case ConstantKindClass:
		return "Class"
	case ConstantKindString:
		return "String"
	case ConstantKindFieldref:
		return "Fieldref"
	case ConstantKindMethodref:
		return "Methodref"
	case ConstantKindInterfaceMethodref:
		return "InterfaceMethodref"
	case ConstantKindNameAndType:
		return "NameAndType"
	case ConstantKindMethodHandle:
		return "MethodHandle"
	case ConstantKindMethodType:
		return "MethodType"
	case ConstantKindDynamic:
		return "Dynamic"
	case ConstantKindInvokeDynamic:
		return "InvokeDynamic"
	case ConstantKindModule:
		return "Module"
	case ConstantKindPackage:
		return "Package"
	case ConstantKindPlaceholder:
		return "Placeholder"
	}

	return "Unknown"
}

// Access flags shared by classes, fields and methods. Some bits carry a
// different meaning depending on where they appear.
const (
	AccPublic       uint16 = 0x0001
	AccPrivate      uint16 = 0x0002
	AccProtected    uint16 = 0x0004
	AccStatic       uint16 = 0x0008
	AccFinal        uint16 = 0x0010
	AccSuper        uint16 = 0x0020
	AccSynchronized uint16 = 0x0020
	AccVolatile     uint16 = 0x0040
	AccBridge       uint16 = 0x0040
	AccTransient    uint16 = 0x0080
	AccVarargs      uint16 = 0x0080
	AccNative       uint16 = 0x0100
	AccInterface    uint16 = 0x0200
	AccAbstract     uint16 = 0x0400
	AccStrict       uint16 = 0x0800
	AccSynthetic    uint16 = 0x1000
	AccAnnotation   uint16 = 0x2000
	AccEnum         uint16 = 0x4000
)

// Well known attribute names.
const (
	AttributeCode       = "Code"
	AttributeExceptions = "Exceptions"
	AttributeSourceFile = "SourceFile"
)

type (
	// Constant is a single constant pool entry.
	Constant interface {
		Type() ConstantKind
	}

	// ConstantUtf8 holds a decoded modified UTF-8 string.
	ConstantUtf8 struct {
		Value string
	}
	// ConstantInteger holds an int constant.
	ConstantInteger struct {
		Value int32
	}
	// ConstantFloat holds a float constant.
	ConstantFloat struct {
		Value float32
	}
	// ConstantLong holds a long constant.
	ConstantLong struct {
		Value int64
	}
	// ConstantDouble holds a double constant.
	ConstantDouble struct {
		Value float64
	}
	// ConstantClass references the Utf8 internal name of a class.
	ConstantClass struct {
		NameIndex uint16
	}
	// ConstantString references the Utf8 value of a string literal.
	ConstantString struct {
		StringIndex uint16
	}
	// ConstantRef is a Fieldref, Methodref or InterfaceMethodref entry.
	ConstantRef struct {
		Kind             ConstantKind
		ClassIndex       uint16
		NameAndTypeIndex uint16
	}
	// ConstantNameAndType pairs a member name with its descriptor.
	ConstantNameAndType struct {
		NameIndex       uint16
		DescriptorIndex uint16
	}
	// ConstantMethodHandle represents a method handle entry.
	ConstantMethodHandle struct {
		ReferenceKind  uint8
		ReferenceIndex uint16
	}
	// ConstantMethodType represents a method type entry.
	ConstantMethodType struct {
		DescriptorIndex uint16
	}
	// ConstantDynamic is a Dynamic or InvokeDynamic entry.
	ConstantDynamic struct {
		Kind                     ConstantKind
		BootstrapMethodAttrIndex uint16
		NameAndTypeIndex         uint16
	}
	// ConstantNamed is a Module or Package entry.
	ConstantNamed struct {
		Kind      ConstantKind
		NameIndex uint16
	}
	// ConstantPlaceholder occupies unusable pool slots.
	ConstantPlaceholder struct{}
)

func (ConstantUtf8) Type() ConstantKind         { return ConstantKindUtf8 }
func (ConstantInteger) Type() ConstantKind      { return ConstantKindInteger }
func (ConstantFloat) Type() ConstantKind        { return ConstantKindFloat }
func (ConstantLong) Type() ConstantKind         { return ConstantKindLong }
func (ConstantDouble) Type() ConstantKind       { return ConstantKindDouble }
func (ConstantClass) Type() ConstantKind        { return ConstantKindClass }
func (ConstantString) Type() ConstantKind       { return ConstantKindString }
func (c ConstantRef) Type() ConstantKind        { return c.Kind }
func (ConstantNameAndType) Type() ConstantKind  { return ConstantKindNameAndType }
func (ConstantMethodHandle) Type() ConstantKind { return ConstantKindMethodHandle }
func (ConstantMethodType) Type() ConstantKind   { return ConstantKindMethodType }
func (c ConstantDynamic) Type() ConstantKind    { return c.Kind }
func (c ConstantNamed) Type() ConstantKind      { return c.Kind }
func (ConstantPlaceholder) Type() ConstantKind  { return ConstantKindPlaceholder }
