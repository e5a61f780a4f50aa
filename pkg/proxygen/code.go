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

// Opcodes used by generated proxies.
const (
	opAconstNull      byte = 0x01
	opIconstM1        byte = 0x02
	opBipush          byte = 0x10
	opSipush          byte = 0x11
	opLdc             byte = 0x12
	opLdcW            byte = 0x13
	opIload           byte = 0x15
	opLload           byte = 0x16
	opFload           byte = 0x17
	opDload           byte = 0x18
	opAload           byte = 0x19
	opIload0          byte = 0x1a
	opLload0          byte = 0x1e
	opFload0          byte = 0x22
	opDload0          byte = 0x26
	opAload0          byte = 0x2a
	opAstore          byte = 0x3a
	opAstore0         byte = 0x4b
	opAastore         byte = 0x53
	opPop             byte = 0x57
	opDup             byte = 0x59
	opIreturn         byte = 0xac
	opLreturn         byte = 0xad
	opFreturn         byte = 0xae
	opDreturn         byte = 0xaf
	opAreturn         byte = 0xb0
	opReturn          byte = 0xb1
	opGetstatic       byte = 0xb2
	opPutstatic       byte = 0xb3
	opGetfield        byte = 0xb4
	opInvokevirtual   byte = 0xb6
	opInvokespecial   byte = 0xb7
	opInvokestatic    byte = 0xb8
	opInvokeinterface byte = 0xb9
	opNew             byte = 0xbb
	opAnewarray       byte = 0xbd
	opAthrow          byte = 0xbf
	opCheckcast       byte = 0xc0
	opWide            byte = 0xc4
)

// code accumulates the body of one method.
type code struct {
	pool     *ConstantPool
	buf      []byte
	handlers []classfile.ExceptionHandler
}

func newCode(pool *ConstantPool) *code {
	return &code{pool: pool}
}

func (c *code) pc() uint16 {
	if len(c.buf) > math.MaxUint16 {
		overflow("code size limit exceeded")
	}

	return uint16(len(c.buf))
}

func (c *code) op(ops ...byte) {
	c.buf = append(c.buf, ops...)
}

func (c *code) opIndex(op byte, idx uint16) {
	c.buf = append(c.buf, op)
	c.buf = binary.BigEndian.AppendUint16(c.buf, idx)
}

func (c *code) ldc(idx uint16) {
	if idx <= math.MaxUint8 {
		c.op(opLdc, byte(idx))
		return
	}
	c.opIndex(opLdcW, idx)
}

// ipush pushes an int constant using the shortest instruction.
func (c *code) ipush(v int32) {
	switch {
	case v >= -1 && v <= 5:
		c.op(opIconstM1 + byte(v+1))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		c.op(opBipush, byte(int8(v)))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		c.op(opSipush)
		c.buf = binary.BigEndian.AppendUint16(c.buf, uint16(int16(v)))
	default:
		c.ldc(c.pool.Integer(v))
	}
}

// local emits a load or store of a local variable, choosing between the
// _0.._3 short forms, the one byte index form and the wide form.
func (c *code) local(op, op0 byte, slot int) {
	switch {
	case slot <= 3:
		c.op(op0 + byte(slot))
	case slot <= math.MaxUint8:
		c.op(op, byte(slot))
	default:
		c.op(opWide)
		c.opIndex(op, uint16(slot))
	}
}

func (c *code) aload(slot int)  { c.local(opAload, opAload0, slot) }
func (c *code) astore(slot int) { c.local(opAstore, opAstore0, slot) }

// load pushes a local of the given type.
func (c *code) load(t Type, slot int) {
	switch t.Descriptor() {
	case "Z", "B", "C", "S", "I":
		c.local(opIload, opIload0, slot)
	case "J":
		c.local(opLload, opLload0, slot)
	case "F":
		c.local(opFload, opFload0, slot)
	case "D":
		c.local(opDload, opDload0, slot)
	default:
		c.aload(slot)
	}
}

// ret emits the return instruction for a value of the given type.
func (c *code) ret(t Type) {
	switch t.Descriptor() {
	case "V":
		c.op(opReturn)
	case "Z", "B", "C", "S", "I":
		c.op(opIreturn)
	case "J":
		c.op(opLreturn)
	case "F":
		c.op(opFreturn)
	case "D":
		c.op(opDreturn)
	default:
		c.op(opAreturn)
	}
}

func (c *code) invokeinterface(class, name, descriptor string, argSlots int) {
	c.opIndex(opInvokeinterface, c.pool.InterfaceMethodref(class, name, descriptor))
	c.op(byte(argSlots), 0)
}

func (c *code) handler(start, end, handlerPC uint16, catchType string) {
	c.handlers = append(c.handlers, classfile.ExceptionHandler{
		StartPC:   start,
		EndPC:     end,
		HandlerPC: handlerPC,
		CatchType: c.pool.Class(catchType),
	})
}

// finish validates the body and returns it as a Code attribute value.
func (c *code) finish(maxStack, maxLocals int) *classfile.Code {
	if len(c.buf) > math.MaxUint16 {
		overflow("code size limit exceeded")
	}

	return &classfile.Code{
		MaxStack:       uint16(maxStack),
		MaxLocals:      uint16(maxLocals),
		Code:           c.buf,
		ExceptionTable: c.handlers,
	}
}
