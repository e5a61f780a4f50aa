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

package proxygen_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/jarpath/pkg/classfile"
	"github.com/google/jarpath/pkg/proxygen"
)

func TestConstantPool_Deduplicates(t *testing.T) {
	t.Parallel()

	cp := proxygen.NewConstantPool()

	first := cp.Methodref("java/lang/Integer", "valueOf", "(I)Ljava/lang/Integer;")
	count := cp.Count()
	if again := cp.Methodref("java/lang/Integer", "valueOf", "(I)Ljava/lang/Integer;"); again != first {
		t.Errorf("repeated Methodref = %d, want %d", again, first)
	}
	if cp.Count() != count {
		t.Errorf("Count() grew from %d to %d on a repeated entry", count, cp.Count())
	}

	// A Methodref and an InterfaceMethodref with the same operands are
	// different entries.
	if iref := cp.InterfaceMethodref("java/lang/Integer", "valueOf", "(I)Ljava/lang/Integer;"); iref == first {
		t.Error("InterfaceMethodref shares an index with Methodref")
	}
	if cp.Class("java/lang/Integer") != cp.Class("java/lang/Integer") {
		t.Error("Class entries are not deduplicated")
	}
	if cp.Utf8("x") == cp.String("x") {
		t.Error("String entry shares an index with its Utf8")
	}
}

func TestConstantPool_WideEntries(t *testing.T) {
	t.Parallel()

	cp := proxygen.NewConstantPool()
	long := cp.Long(7)
	next := cp.Utf8("after")
	if next != long+2 {
		t.Errorf("entry after a long got index %d, want %d", next, long+2)
	}
	double := cp.Double(1.5)
	if cp.Integer(3) != double+2 {
		t.Error("entry after a double does not skip a slot")
	}
}

func TestConstantPool_ReadOnly(t *testing.T) {
	t.Parallel()

	cp := proxygen.NewConstantPool()
	idx := cp.Class("java/lang/Object")
	cp.SetReadOnly()

	if !cp.ReadOnly() {
		t.Fatal("ReadOnly() = false after SetReadOnly")
	}
	if got := cp.Class("java/lang/Object"); got != idx {
		t.Errorf("lookup after freeze = %d, want %d", got, idx)
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, proxygen.ErrConstantPoolReadOnly) {
			t.Errorf("late addition panicked with %v, want ErrConstantPoolReadOnly", r)
		}
	}()
	cp.Utf8("late")
	t.Error("late addition did not panic")
}

func TestConstantPool_AppendTo(t *testing.T) {
	t.Parallel()

	cp := proxygen.NewConstantPool()
	cp.Class("Foo")
	cp.Long(-1)
	cp.String("a\x00")

	// Wrap the serialized pool in a minimal class so the reader decodes it.
	var b []byte
	b = binary.BigEndian.AppendUint32(b, classfile.Magic)
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, 49)
	b = cp.AppendTo(b)
	b = append(b, make([]byte, 16)...)

	cf, err := classfile.ParseClass(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("ParseClass() error = %v", err)
	}

	var kinds []classfile.ConstantKind
	for _, c := range cf.ConstantPool[1:] {
		kinds = append(kinds, c.Type())
	}
	want := []classfile.ConstantKind{
		classfile.ConstantKindUtf8,
		classfile.ConstantKindClass,
		classfile.ConstantKindLong,
		classfile.ConstantKindPlaceholder,
		classfile.ConstantKindUtf8,
		classfile.ConstantKindString,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("pool kinds mismatch (-want +got):\n%s", diff)
	}
	if s, _ := cf.Utf8(5); s != "a\x00" {
		t.Errorf("Utf8(5) = %q, want %q", s, "a\x00")
	}
}

func TestConstantPool_Overflow(t *testing.T) {
	t.Parallel()

	iface := &proxygen.Interface{Name: "com.example.Wide"}
	// Every distinct parameter type adds at least a Utf8 and a String entry
	// to the pool.
	for i := range 40000 {
		iface.Methods = append(iface.Methods, proxygen.Method{
			Name:   "f",
			Params: []string{"com.example.T" + strconv.Itoa(i)},
		})
	}

	if _, err := proxygen.Generate("com.example.$ProxyWide", iface); !errors.Is(err, proxygen.ErrLimitExceeded) {
		t.Errorf("Generate() error = %v, want ErrLimitExceeded", err)
	}
}
