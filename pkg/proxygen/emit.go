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

	"github.com/google/jarpath/pkg/classfile"
)

// reserve builds every member and adds every constant the class file needs,
// then freezes the pool. write only looks entries up afterwards.
func (gen *generation) reserve() {
	gen.pool = NewConstantPool()
	pool := gen.pool
	gen.codeAttr = pool.Utf8(classfile.AttributeCode)
	gen.excAttr = pool.Utf8(classfile.AttributeExceptions)

	gen.members = append(gen.members, gen.constructor())
	for _, sig := range gen.signatures {
		for _, pm := range gen.methods[sig] {
			gen.fields = append(gen.fields, memberInfo{
				access:     classfile.AccPrivate | classfile.AccStatic,
				name:       pool.Utf8(pm.field),
				descriptor: pool.Utf8(methodDescriptorL),
			})
			gen.members = append(gen.members, gen.dispatcher(pm))
		}
	}
	gen.members = append(gen.members, gen.staticInitializer())

	if len(gen.members) > classfile.MaxTableSize {
		overflow("method limit exceeded")
	}
	if len(gen.fields) > classfile.MaxTableSize {
		overflow("field limit exceeded")
	}

	gen.thisClass = pool.Class(gen.className)
	gen.superClass = pool.Class(proxySuperclass)
	for _, iface := range gen.interfaces {
		t, _ := ParseType(iface.Name)
		gen.ifaces = append(gen.ifaces, pool.Class(t.InternalName()))
	}

	pool.SetReadOnly()
}

func (gen *generation) method(access uint16, name, descriptor string, code *classfile.Code, exceptions []Type) memberInfo {
	m := memberInfo{
		access:     access,
		name:       gen.pool.Utf8(name),
		descriptor: gen.pool.Utf8(descriptor),
		code:       code,
	}
	for _, ex := range exceptions {
		m.exceptions = append(m.exceptions, gen.pool.Class(ex.InternalName()))
	}

	return m
}

func (gen *generation) constructor() memberInfo {
	c := newCode(gen.pool)
	c.aload(0)
	c.aload(1)
	c.opIndex(opInvokespecial, gen.pool.Methodref(proxySuperclass, "<init>", "("+handlerDescriptor+")V"))
	c.op(opReturn)

	return gen.method(classfile.AccPublic, "<init>", "("+handlerDescriptor+")V", c.finish(maxStack, 2), nil)
}

// dispatcher emits a method that boxes its arguments, calls
// InvocationHandler.invoke and unboxes the result. Checked exceptions the
// method does not declare are wrapped in UndeclaredThrowableException.
func (gen *generation) dispatcher(pm *proxyMethod) memberInfo {
	pool := gen.pool
	c := newCode(pool)

	slot := 1
	slots := make([]int, len(pm.params))
	for i, p := range pm.params {
		slots[i] = slot
		slot += p.Slots()
	}
	localSlot0 := slot

	c.aload(0)
	c.opIndex(opGetfield, pool.Fieldref(proxySuperclass, "h", handlerDescriptor))
	c.aload(0)
	c.opIndex(opGetstatic, pool.Fieldref(gen.className, pm.field, methodDescriptorL))

	if len(pm.params) > 0 {
		c.ipush(int32(len(pm.params)))
		c.opIndex(opAnewarray, pool.Class(javaLangObject))
		for i, p := range pm.params {
			c.op(opDup)
			c.ipush(int32(i))
			gen.box(c, p, slots[i])
			c.op(opAastore)
		}
	} else {
		c.op(opAconstNull)
	}

	c.invokeinterface(invocationHandler, "invoke", invokeDescriptor, 4)

	if pm.ret.IsVoid() {
		c.op(opPop, opReturn)
	} else {
		gen.unbox(c, pm.ret)
	}

	tryEnd := c.pc()
	if catches := gen.uniqueCatchList(pm.exceptions); len(catches) > 0 {
		for _, ex := range catches {
			c.handler(0, tryEnd, tryEnd, ex.InternalName())
		}
		c.op(opAthrow)

		c.handler(0, tryEnd, c.pc(), javaLangThrowable)
		c.astore(localSlot0)
		c.opIndex(opNew, pool.Class(undeclaredThrowable))
		c.op(opDup)
		c.aload(localSlot0)
		c.opIndex(opInvokespecial, pool.Methodref(undeclaredThrowable, "<init>", "(Ljava/lang/Throwable;)V"))
		c.op(opAthrow)
	}

	return gen.method(classfile.AccPublic|classfile.AccFinal, pm.name, pm.descriptor(), c.finish(maxStack, localSlot0+1), pm.exceptions)
}

func (gen *generation) box(c *code, t Type, slot int) {
	if !t.IsPrimitive() {
		c.aload(slot)
		return
	}

	p := t.primitive()
	c.load(t, slot)
	c.opIndex(opInvokestatic, gen.pool.Methodref(p.wrapper, "valueOf", "("+t.desc+")L"+p.wrapper+";"))
}

func (gen *generation) unbox(c *code, t Type) {
	if !t.IsPrimitive() {
		c.opIndex(opCheckcast, gen.pool.Class(t.InternalName()))
		c.op(opAreturn)
		return
	}

	p := t.primitive()
	c.opIndex(opCheckcast, gen.pool.Class(p.wrapper))
	c.opIndex(opInvokevirtual, gen.pool.Methodref(p.wrapper, p.unbox, "()"+t.desc))
	c.ret(t)
}

func (gen *generation) classForName(c *code, t Type) {
	c.ldc(gen.pool.String(t.ClassName()))
	c.opIndex(opInvokestatic, gen.pool.Methodref(javaLangClass, "forName", "(Ljava/lang/String;)Ljava/lang/Class;"))
}

// staticInitializer looks up every java.lang.reflect.Method once and
// stores it in the method's static field.
func (gen *generation) staticInitializer() memberInfo {
	pool := gen.pool
	c := newCode(pool)

	for _, sig := range gen.signatures {
		for _, pm := range gen.methods[sig] {
			gen.classForName(c, pm.from)
			c.ldc(pool.String(pm.name))
			c.ipush(int32(len(pm.params)))
			c.opIndex(opAnewarray, pool.Class(javaLangClass))
			for i, p := range pm.params {
				c.op(opDup)
				c.ipush(int32(i))
				if p.IsPrimitive() {
					c.opIndex(opGetstatic, pool.Fieldref(p.primitive().wrapper, "TYPE", "Ljava/lang/Class;"))
				} else {
					gen.classForName(c, p)
				}
				c.op(opAastore)
			}
			c.opIndex(opInvokevirtual, pool.Methodref(javaLangClass, "getMethod", "(Ljava/lang/String;[Ljava/lang/Class;)"+methodDescriptorL))
			c.opIndex(opPutstatic, pool.Fieldref(gen.className, pm.field, methodDescriptorL))
		}
	}
	c.op(opReturn)

	tryEnd := c.pc()
	gen.rethrowAs(c, tryEnd, "java/lang/NoSuchMethodException", "java/lang/NoSuchMethodError")
	gen.rethrowAs(c, tryEnd, "java/lang/ClassNotFoundException", "java/lang/NoClassDefFoundError")

	return gen.method(classfile.AccStatic, "<clinit>", "()V", c.finish(maxStack, 2), nil)
}

// rethrowAs emits a handler converting a caught exception into a linkage
// error carrying the same message.
func (gen *generation) rethrowAs(c *code, tryEnd uint16, caught, thrown string) {
	c.handler(0, tryEnd, c.pc(), caught)
	c.astore(1)
	c.opIndex(opNew, gen.pool.Class(thrown))
	c.op(opDup)
	c.aload(1)
	c.opIndex(opInvokevirtual, gen.pool.Methodref(javaLangThrowable, "getMessage", "()Ljava/lang/String;"))
	c.opIndex(opInvokespecial, gen.pool.Methodref(thrown, "<init>", "(Ljava/lang/String;)V"))
	c.op(opAthrow)
}

func (gen *generation) write() []byte {
	major := gen.gen.MajorVersion
	if major == 0 {
		major = DefaultMajorVersion
	}

	b := binary.BigEndian.AppendUint32(nil, classfile.Magic)
	b = binary.BigEndian.AppendUint16(b, gen.gen.MinorVersion)
	b = binary.BigEndian.AppendUint16(b, major)
	b = gen.pool.AppendTo(b)

	b = binary.BigEndian.AppendUint16(b, classfile.AccPublic|classfile.AccFinal|classfile.AccSuper)
	b = binary.BigEndian.AppendUint16(b, gen.thisClass)
	b = binary.BigEndian.AppendUint16(b, gen.superClass)
	b = appendU2s(b, gen.ifaces)

	b = binary.BigEndian.AppendUint16(b, uint16(len(gen.fields)))
	for _, f := range gen.fields {
		b = binary.BigEndian.AppendUint16(b, f.access)
		b = binary.BigEndian.AppendUint16(b, f.name)
		b = binary.BigEndian.AppendUint16(b, f.descriptor)
		b = binary.BigEndian.AppendUint16(b, 0)
	}

	b = binary.BigEndian.AppendUint16(b, uint16(len(gen.members)))
	for _, m := range gen.members {
		b = gen.appendMethod(b, m)
	}

	// No class attributes.
	return binary.BigEndian.AppendUint16(b, 0)
}

func (gen *generation) appendMethod(b []byte, m memberInfo) []byte {
	b = binary.BigEndian.AppendUint16(b, m.access)
	b = binary.BigEndian.AppendUint16(b, m.name)
	b = binary.BigEndian.AppendUint16(b, m.descriptor)
	b = binary.BigEndian.AppendUint16(b, 2)

	code := m.code
	b = binary.BigEndian.AppendUint16(b, gen.codeAttr)
	b = binary.BigEndian.AppendUint32(b, uint32(12+len(code.Code)+8*len(code.ExceptionTable)))
	b = binary.BigEndian.AppendUint16(b, code.MaxStack)
	b = binary.BigEndian.AppendUint16(b, code.MaxLocals)
	b = binary.BigEndian.AppendUint32(b, uint32(len(code.Code)))
	b = append(b, code.Code...)
	b = binary.BigEndian.AppendUint16(b, uint16(len(code.ExceptionTable)))
	for _, h := range code.ExceptionTable {
		b = binary.BigEndian.AppendUint16(b, h.StartPC)
		b = binary.BigEndian.AppendUint16(b, h.EndPC)
		b = binary.BigEndian.AppendUint16(b, h.HandlerPC)
		b = binary.BigEndian.AppendUint16(b, h.CatchType)
	}
	b = binary.BigEndian.AppendUint16(b, 0)

	b = binary.BigEndian.AppendUint16(b, gen.excAttr)
	b = binary.BigEndian.AppendUint32(b, uint32(2+2*len(m.exceptions)))

	return appendU2s(b, m.exceptions)
}

func appendU2s(b []byte, vs []uint16) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(len(vs)))
	for _, v := range vs {
		b = binary.BigEndian.AppendUint16(b, v)
	}

	return b
}
