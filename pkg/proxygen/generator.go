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

// Package proxygen generates class files for dynamic proxy classes: final
// subclasses of java.lang.reflect.Proxy that implement a list of interfaces
// by forwarding every call to an InvocationHandler.
package proxygen

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/google/jarpath/pkg/classfile"
)

// DefaultMajorVersion is class-file version 49.0, which predates the
// StackMapTable requirement.
const DefaultMajorVersion = 49

const (
	proxySuperclass     = "java/lang/reflect/Proxy"
	invocationHandler   = "java/lang/reflect/InvocationHandler"
	reflectMethod       = "java/lang/reflect/Method"
	javaLangClass       = "java/lang/Class"
	undeclaredThrowable = "java/lang/reflect/UndeclaredThrowableException"

	handlerDescriptor = "Ljava/lang/reflect/InvocationHandler;"
	methodDescriptorL = "Ljava/lang/reflect/Method;"
	invokeDescriptor  = "(Ljava/lang/Object;Ljava/lang/reflect/Method;[Ljava/lang/Object;)Ljava/lang/Object;"

	// Every generated method gets the same generous operand stack.
	maxStack = 10
)

// Generator turns interface descriptions into proxy class files. The zero
// value is ready to use.
type Generator struct {
	// Hierarchy resolves subtype questions. Nil means NewHierarchy().
	Hierarchy *Hierarchy
	// Interfaces holds additional interfaces, keyed by binary name, whose
	// methods are inherited by the interfaces passed to Generate.
	Interfaces map[string]*Interface
	// MajorVersion and MinorVersion of the emitted class file. A zero
	// MajorVersion means DefaultMajorVersion.
	MajorVersion uint16
	MinorVersion uint16
}

// Generate builds a proxy class implementing interfaces with the default
// generator.
func Generate(className string, interfaces ...*Interface) ([]byte, error) {
	return (&Generator{}).Generate(className, interfaces)
}

// proxyMethod is one method of the generated class together with the static
// field that caches its java.lang.reflect.Method.
type proxyMethod struct {
	name       string
	params     []Type
	ret        Type
	exceptions []Type
	from       Type
	field      string
}

func (pm *proxyMethod) descriptor() string {
	return methodDescriptor(pm.params, pm.ret)
}

type memberInfo struct {
	access     uint16
	name       uint16
	descriptor uint16
	code       *classfile.Code
	exceptions []uint16
}

// generation holds the state of a single Generate call.
type generation struct {
	gen        *Generator
	h          *Hierarchy
	className  string
	interfaces []*Interface
	pool       *ConstantPool

	signatures []string
	methods    map[string][]*proxyMethod
	count      int

	// Filled during the reservation pass, written after the pool is frozen.
	thisClass  uint16
	superClass uint16
	ifaces     []uint16
	fields     []memberInfo
	members    []memberInfo
	codeAttr   uint16
	excAttr    uint16
}

// Generate builds the class file of a proxy class named className that
// implements interfaces in the given order. Faults are reported before any
// bytes are produced.
func (g *Generator) Generate(className string, interfaces []*Interface) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			le, ok := r.(*limitExceeded)
			if !ok {
				panic(r)
			}
			out = nil
			err = fmt.Errorf("%w: %s", ErrLimitExceeded, le.what)
		}
	}()

	gen, err := g.prepare(className, interfaces)
	if err != nil {
		return nil, err
	}
	gen.reserve()

	return gen.write(), nil
}

func (g *Generator) prepare(className string, interfaces []*Interface) (*generation, error) {
	internal, err := internalName(className)
	if err != nil {
		return nil, err
	}
	if len(interfaces) > classfile.MaxTableSize {
		overflow("interface limit exceeded")
	}

	h := NewHierarchy()
	if g.Hierarchy != nil {
		h = g.Hierarchy.Clone()
	}
	seen := map[string]bool{}
	for _, iface := range interfaces {
		if iface == nil || iface.Name == "" {
			return nil, fmt.Errorf("%w: interface without a name", ErrInvalidInterface)
		}
		if seen[iface.Name] {
			return nil, fmt.Errorf("%w: repeated interface %s", ErrInvalidInterface, iface.Name)
		}
		seen[iface.Name] = true
		h.AddInterface(iface.Name, iface.Extends...)
	}
	for _, iface := range g.Interfaces {
		if !seen[iface.Name] {
			h.AddInterface(iface.Name, iface.Extends...)
		}
	}

	gen := &generation{
		gen:        g,
		h:          h,
		className:  internal,
		interfaces: interfaces,
		methods:    map[string][]*proxyMethod{},
	}

	// The java.lang.Object methods come first so that an interface method
	// with the same signature is merged into them rather than the reverse.
	object := classType(javaLangObject)
	gen.add(&proxyMethod{name: "hashCode", ret: typeInt, from: object})
	gen.add(&proxyMethod{name: "equals", params: []Type{object}, ret: typeBoolean, from: object})
	gen.add(&proxyMethod{name: "toString", ret: classType("java/lang/String"), from: object})

	visited := map[string]bool{}
	for _, iface := range interfaces {
		if err := gen.collect(iface, visited); err != nil {
			return nil, err
		}
	}

	for _, sig := range gen.signatures {
		if err := gen.checkReturnTypes(sig); err != nil {
			return nil, err
		}
	}

	return gen, nil
}

func (gen *generation) lookup(name string) (*Interface, bool) {
	for _, iface := range gen.interfaces {
		if iface.Name == name {
			return iface, true
		}
	}
	iface, ok := gen.gen.Interfaces[name]

	return iface, ok
}

// collect adds the methods of iface and, depth first, of the known
// interfaces it extends.
func (gen *generation) collect(iface *Interface, visited map[string]bool) error {
	if visited[iface.Name] {
		return nil
	}
	visited[iface.Name] = true

	from, err := ParseType(iface.Name)
	if err != nil || from.IsPrimitive() || from.IsArray() {
		return fmt.Errorf("%w: %q is not a class name", ErrInvalidInterface, iface.Name)
	}

	for _, m := range iface.Methods {
		pm, err := resolveMethod(m, from)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", iface.Name, m.Name, err)
		}
		for _, ex := range pm.exceptions {
			gen.h.assumeThrowable(ex.InternalName())
			if !gen.h.IsAssignable(classType(javaLangThrowable), ex) {
				return fmt.Errorf("%s.%s: %w: %s is not a java.lang.Throwable", iface.Name, m.Name, ErrInvalidType, ex)
			}
		}
		gen.add(pm)
	}

	for _, name := range iface.Extends {
		if super, ok := gen.lookup(name); ok {
			if err := gen.collect(super, visited); err != nil {
				return err
			}
		}
	}

	return nil
}

func resolveMethod(m Method, from Type) (*proxyMethod, error) {
	if m.Name == "" || strings.ContainsAny(m.Name, ".;[/<>") {
		return nil, fmt.Errorf("%w: invalid method name %q", ErrInvalidInterface, m.Name)
	}

	pm := &proxyMethod{name: m.Name, ret: typeVoid, from: from}
	slots := 1
	for _, p := range m.Params {
		t, err := ParseType(p)
		if err != nil {
			return nil, err
		}
		if t.IsVoid() {
			return nil, fmt.Errorf("%w: void parameter", ErrInvalidType)
		}
		slots += t.Slots()
		pm.params = append(pm.params, t)
	}
	if slots > math.MaxUint8 {
		return nil, fmt.Errorf("%w: parameters need %d local slots", ErrInvalidInterface, slots)
	}

	if m.Returns != "" {
		t, err := ParseType(m.Returns)
		if err != nil {
			return nil, err
		}
		pm.ret = t
	}

	for _, ex := range m.Throws {
		t, err := ParseType(ex)
		if err != nil {
			return nil, err
		}
		if t.IsPrimitive() || t.IsArray() {
			return nil, fmt.Errorf("%w: %s cannot be thrown", ErrInvalidType, ex)
		}
		pm.exceptions = append(pm.exceptions, t)
	}

	return pm, nil
}

// add records pm under its name and parameter signature. A method whose
// signature and return type are already present only narrows the existing
// throws list to the exceptions compatible with both declarations.
func (gen *generation) add(pm *proxyMethod) {
	sig := pm.name + parameterDescriptor(pm.params)

	existing, ok := gen.methods[sig]
	if !ok {
		gen.signatures = append(gen.signatures, sig)
	}
	for _, other := range existing {
		if other.ret == pm.ret {
			var legal []Type
			legal = gen.collectCompatible(pm.exceptions, other.exceptions, legal)
			legal = gen.collectCompatible(other.exceptions, pm.exceptions, legal)
			other.exceptions = legal
			return
		}
	}

	pm.field = fmt.Sprintf("m%d", gen.count)
	gen.count++
	gen.methods[sig] = append(existing, pm)
}

// collectCompatible appends every type of from that is a subtype of some
// type in with.
func (gen *generation) collectCompatible(from, with, list []Type) []Type {
	for _, f := range from {
		if slices.Contains(list, f) {
			continue
		}
		for _, w := range with {
			if gen.h.IsAssignable(w, f) {
				list = append(list, f)
				break
			}
		}
	}

	return list
}

// checkReturnTypes requires the methods of one signature to have reference
// return types with a single most specific type among them.
func (gen *generation) checkReturnTypes(sig string) error {
	methods := gen.methods[sig]
	if len(methods) < 2 {
		return nil
	}

	var uncovered []Type
next:
	for _, pm := range methods {
		ret := pm.ret
		if ret.IsPrimitive() {
			return fmt.Errorf("%w: methods with same signature %s but incompatible return types: %s and others",
				ErrIncompatibleReturnTypes, sig, ret)
		}

		added := false
		for i := 0; i < len(uncovered); {
			if gen.h.IsAssignable(ret, uncovered[i]) {
				continue next
			}
			if gen.h.IsAssignable(uncovered[i], ret) {
				if !added {
					uncovered[i] = ret
					added = true
				} else {
					uncovered = slices.Delete(uncovered, i, i+1)
					continue
				}
			}
			i++
		}
		if !added {
			uncovered = append(uncovered, ret)
		}
	}

	if len(uncovered) > 1 {
		names := make([]string, 0, len(uncovered))
		for _, t := range uncovered {
			names = append(names, t.String())
		}

		return fmt.Errorf("%w: methods with same signature %s but incompatible return types: %s",
			ErrIncompatibleReturnTypes, sig, strings.Join(names, ", "))
	}

	return nil
}

// uniqueCatchList returns the exceptions a dispatcher rethrows unchanged:
// Error, RuntimeException and the declared checked exceptions, reduced so no
// entry is a subtype of another. An empty result means every Throwable is
// declared.
func (gen *generation) uniqueCatchList(exceptions []Type) []Type {
	list := []Type{classType("java/lang/Error"), classType("java/lang/RuntimeException")}
	throwable := classType(javaLangThrowable)

next:
	for _, ex := range exceptions {
		if gen.h.IsAssignable(ex, throwable) {
			return nil
		}
		if !gen.h.IsAssignable(throwable, ex) {
			continue
		}
		for i := 0; i < len(list); {
			if gen.h.IsAssignable(list[i], ex) {
				continue next
			}
			if gen.h.IsAssignable(ex, list[i]) {
				list = slices.Delete(list, i, i+1)
				continue
			}
			i++
		}
		list = append(list, ex)
	}

	return list
}
