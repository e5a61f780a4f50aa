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
	"fmt"
	"strings"
)

// Type is a Java field type or void, held as its descriptor.
type Type struct {
	desc string
}

type primitiveInfo struct {
	name    string
	desc    byte
	wrapper string // internal name of the box class
	unbox   string // name of the unboxing method on the wrapper
}

var primitives = []primitiveInfo{
	{name: "boolean", desc: 'Z', wrapper: "java/lang/Boolean", unbox: "booleanValue"},
	{name: "byte", desc: 'B', wrapper: "java/lang/Byte", unbox: "byteValue"},
	{name: "char", desc: 'C', wrapper: "java/lang/Character", unbox: "charValue"},
	{name: "short", desc: 'S', wrapper: "java/lang/Short", unbox: "shortValue"},
	{name: "int", desc: 'I', wrapper: "java/lang/Integer", unbox: "intValue"},
	{name: "long", desc: 'J', wrapper: "java/lang/Long", unbox: "longValue"},
	{name: "float", desc: 'F', wrapper: "java/lang/Float", unbox: "floatValue"},
	{name: "double", desc: 'D', wrapper: "java/lang/Double", unbox: "doubleValue"},
	{name: "void", desc: 'V', wrapper: "java/lang/Void"},
}

func primitiveByName(name string) (primitiveInfo, bool) {
	for _, p := range primitives {
		if p.name == name {
			return p, true
		}
	}

	return primitiveInfo{}, false
}

func primitiveByDesc(desc byte) (primitiveInfo, bool) {
	for _, p := range primitives {
		if p.desc == desc {
			return p, true
		}
	}

	return primitiveInfo{}, false
}

var (
	typeVoid    = Type{desc: "V"}
	typeInt     = Type{desc: "I"}
	typeBoolean = Type{desc: "Z"}
)

func classType(internalName string) Type {
	return Type{desc: "L" + internalName + ";"}
}

// ParseType converts a Java source type name such as "int",
// "java.util.List" or "byte[][]" into a Type. Slash separated internal
// names are accepted as well.
func ParseType(name string) (Type, error) {
	base := strings.TrimSpace(name)
	dims := 0
	for strings.HasSuffix(base, "[]") {
		dims++
		base = strings.TrimSpace(strings.TrimSuffix(base, "[]"))
	}
	if base == "" {
		return Type{}, fmt.Errorf("%w: empty type name %q", ErrInvalidType, name)
	}

	var desc string
	if p, ok := primitiveByName(base); ok {
		if p.desc == 'V' && dims > 0 {
			return Type{}, fmt.Errorf("%w: array of void", ErrInvalidType)
		}
		desc = string(p.desc)
	} else {
		internal, err := internalName(base)
		if err != nil {
			return Type{}, err
		}
		desc = "L" + internal + ";"
	}
	if dims > 255 {
		return Type{}, fmt.Errorf("%w: %q has more than 255 dimensions", ErrInvalidType, name)
	}

	return Type{desc: strings.Repeat("[", dims) + desc}, nil
}

// internalName converts a binary class name to its slash separated form.
func internalName(name string) (string, error) {
	internal := strings.ReplaceAll(name, ".", "/")
	for _, part := range strings.Split(internal, "/") {
		if part == "" || strings.ContainsAny(part, ";[<> \t") {
			return "", fmt.Errorf("%w: invalid class name %q", ErrInvalidType, name)
		}
	}

	return internal, nil
}

// Descriptor returns the JVM field descriptor, or "V" for void.
func (t Type) Descriptor() string { return t.desc }

// IsPrimitive reports whether t is a primitive type or void.
func (t Type) IsPrimitive() bool { return len(t.desc) == 1 }

// IsVoid reports whether t is void.
func (t Type) IsVoid() bool { return t.desc == "V" }

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool { return strings.HasPrefix(t.desc, "[") }

// Elem returns the component type of an array type.
func (t Type) Elem() Type { return Type{desc: t.desc[1:]} }

// Slots returns the number of local variable slots a value of t occupies.
func (t Type) Slots() int {
	switch t.desc {
	case "V":
		return 0
	case "J", "D":
		return 2
	}

	return 1
}

// InternalName returns the name used by CONSTANT_Class entries: the slash
// separated class name, or the descriptor for arrays. Primitives have none.
func (t Type) InternalName() string {
	switch {
	case t.IsArray():
		return t.desc
	case strings.HasPrefix(t.desc, "L"):
		return t.desc[1 : len(t.desc)-1]
	}

	return ""
}

// ClassName returns the name reported by java.lang.Class.getName, which is
// what Class.forName expects.
func (t Type) ClassName() string {
	if t.IsPrimitive() {
		p, _ := primitiveByDesc(t.desc[0])
		return p.name
	}
	if t.IsArray() {
		return strings.ReplaceAll(t.desc, "/", ".")
	}

	return strings.ReplaceAll(t.InternalName(), "/", ".")
}

// String returns the Java source form of the type.
func (t Type) String() string {
	if t.IsArray() {
		return t.Elem().String() + "[]"
	}

	return t.ClassName()
}

func (t Type) primitive() primitiveInfo {
	p, _ := primitiveByDesc(t.desc[0])
	return p
}

// parameterDescriptor builds "(params)".
func parameterDescriptor(params []Type) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		sb.WriteString(p.desc)
	}
	sb.WriteByte(')')

	return sb.String()
}

// methodDescriptor builds "(params)ret".
func methodDescriptor(params []Type, ret Type) string {
	return parameterDescriptor(params) + ret.desc
}
