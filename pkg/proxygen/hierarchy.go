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
	"maps"
	"slices"
	"strings"
)

const (
	javaLangObject     = "java/lang/Object"
	javaLangThrowable  = "java/lang/Throwable"
	javaLangCloneable  = "java/lang/Cloneable"
	javaIOSerializable = "java/io/Serializable"
)

type typeNode struct {
	super      string
	interfaces []string
	isIface    bool
}

// Hierarchy answers subtype questions for the reference types a proxy
// mentions. It knows the java.lang throwables and common collection types;
// other types are registered with AddClass and AddInterface. Unknown
// classes are assumed to extend java.lang.Object directly, except in a
// throws clause, where they are taken to extend java.lang.Exception.
type Hierarchy struct {
	types map[string]typeNode
}

// NewHierarchy returns a hierarchy seeded with commonly used JDK types.
func NewHierarchy() *Hierarchy {
	h := &Hierarchy{types: map[string]typeNode{}}

	h.addInternalInterface(javaIOSerializable)
	h.addInternalInterface(javaLangCloneable)
	h.addInternalInterface("java/lang/Comparable")
	h.addInternalInterface("java/lang/CharSequence")
	h.addInternalInterface("java/lang/Iterable")
	h.addInternalInterface("java/lang/AutoCloseable")
	h.addInternalInterface("java/io/Closeable", "java/lang/AutoCloseable")
	h.addInternalInterface("java/util/Collection", "java/lang/Iterable")
	h.addInternalInterface("java/util/List", "java/util/Collection")
	h.addInternalInterface("java/util/Set", "java/util/Collection")
	h.addInternalInterface("java/util/Queue", "java/util/Collection")
	h.addInternalInterface("java/util/Map")

	h.addInternalClass(javaLangObject, "")
	h.addInternalClass("java/lang/String", javaLangObject, javaIOSerializable, "java/lang/Comparable", "java/lang/CharSequence")
	h.addInternalClass("java/lang/Number", javaLangObject, javaIOSerializable)
	for _, p := range primitives {
		switch p.desc {
		case 'V':
			h.addInternalClass(p.wrapper, javaLangObject)
		case 'Z', 'C':
			h.addInternalClass(p.wrapper, javaLangObject, javaIOSerializable, "java/lang/Comparable")
		default:
			h.addInternalClass(p.wrapper, "java/lang/Number", "java/lang/Comparable")
		}
	}

	h.addInternalClass(javaLangThrowable, javaLangObject, javaIOSerializable)
	h.addInternalClass("java/lang/Exception", javaLangThrowable)
	h.addInternalClass("java/lang/Error", javaLangThrowable)
	h.addInternalClass("java/lang/RuntimeException", "java/lang/Exception")
	h.addInternalClass("java/lang/IllegalArgumentException", "java/lang/RuntimeException")
	h.addInternalClass("java/lang/IllegalStateException", "java/lang/RuntimeException")
	h.addInternalClass("java/lang/UnsupportedOperationException", "java/lang/RuntimeException")
	h.addInternalClass("java/lang/reflect/UndeclaredThrowableException", "java/lang/RuntimeException")
	h.addInternalClass("java/lang/InterruptedException", "java/lang/Exception")
	h.addInternalClass("java/lang/ReflectiveOperationException", "java/lang/Exception")
	h.addInternalClass("java/lang/ClassNotFoundException", "java/lang/ReflectiveOperationException")
	h.addInternalClass("java/lang/NoSuchMethodException", "java/lang/ReflectiveOperationException")
	h.addInternalClass("java/lang/CloneNotSupportedException", "java/lang/Exception")
	h.addInternalClass("java/io/IOException", "java/lang/Exception")
	h.addInternalClass("java/io/FileNotFoundException", "java/io/IOException")
	h.addInternalClass("java/lang/LinkageError", "java/lang/Error")
	h.addInternalClass("java/lang/NoClassDefFoundError", "java/lang/LinkageError")
	h.addInternalClass("java/lang/IncompatibleClassChangeError", "java/lang/LinkageError")
	h.addInternalClass("java/lang/NoSuchMethodError", "java/lang/IncompatibleClassChangeError")

	return h
}

func (h *Hierarchy) addInternalClass(name, super string, interfaces ...string) {
	h.types[name] = typeNode{super: super, interfaces: interfaces}
}

func (h *Hierarchy) addInternalInterface(name string, extends ...string) {
	h.types[name] = typeNode{interfaces: extends, isIface: true}
}

func toInternal(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.ReplaceAll(n, ".", "/"))
	}

	return out
}

// AddClass registers a class by binary name with its superclass and
// implemented interfaces. An empty super means java.lang.Object.
func (h *Hierarchy) AddClass(name, super string, interfaces ...string) {
	if super == "" {
		super = javaLangObject
	}
	h.addInternalClass(strings.ReplaceAll(name, ".", "/"), strings.ReplaceAll(super, ".", "/"), toInternal(interfaces)...)
}

// AddInterface registers an interface by binary name with the interfaces
// it extends.
func (h *Hierarchy) AddInterface(name string, extends ...string) {
	h.addInternalInterface(strings.ReplaceAll(name, ".", "/"), toInternal(extends)...)
}

// IsInterface reports whether the named type is a known interface.
func (h *Hierarchy) IsInterface(name string) bool {
	return h.types[strings.ReplaceAll(name, ".", "/")].isIface
}

// Clone returns an independent copy.
func (h *Hierarchy) Clone() *Hierarchy {
	return &Hierarchy{types: maps.Clone(h.types)}
}

// assumeThrowable registers the first unknown class on the superclass
// chain of name as a direct subclass of java.lang.Exception. A thrown type
// nobody described is therefore still treated as a checked exception.
func (h *Hierarchy) assumeThrowable(name string) {
	seen := map[string]bool{}
	for name != "" && name != javaLangObject && name != javaLangThrowable && !seen[name] {
		seen[name] = true
		node, ok := h.types[name]
		if !ok {
			h.addInternalClass(name, "java/lang/Exception")
			return
		}
		name = node.super
	}
}

// supertypes returns the direct supertypes of a class or interface.
func (h *Hierarchy) supertypes(name string) []string {
	if name == javaLangObject {
		return nil
	}
	node, ok := h.types[name]
	if !ok {
		return []string{javaLangObject}
	}
	out := slices.Clone(node.interfaces)
	if node.super != "" {
		out = append(out, node.super)
	} else {
		out = append(out, javaLangObject)
	}

	return out
}

// isSubtype reports whether class or interface sub is sup or inherits from it.
func (h *Hierarchy) isSubtype(sub, sup string) bool {
	if sub == sup || sup == javaLangObject {
		return true
	}
	seen := map[string]bool{sub: true}
	queue := []string{sub}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, s := range h.supertypes(cur) {
			if s == sup {
				return true
			}
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}

	return false
}

// IsAssignable reports whether a value of type from can be assigned to a
// variable of type to, following java.lang.Class.isAssignableFrom.
func (h *Hierarchy) IsAssignable(to, from Type) bool {
	if to == from {
		return true
	}
	if to.IsPrimitive() || from.IsPrimitive() {
		return false
	}

	if from.IsArray() {
		if to.IsArray() {
			fe, te := from.Elem(), to.Elem()
			if fe.IsPrimitive() || te.IsPrimitive() {
				return fe == te
			}

			return h.IsAssignable(te, fe)
		}
		switch to.InternalName() {
		case javaLangObject, javaLangCloneable, javaIOSerializable:
			return true
		}

		return false
	}
	if to.IsArray() {
		return false
	}

	return h.isSubtype(from.InternalName(), to.InternalName())
}
