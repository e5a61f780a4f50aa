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

package proxy

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/google/jarpath/cmd/jarpath/internal/helper"
	"github.com/google/jarpath/pkg/classfile"
	"github.com/jedib0t/go-pretty/v6/table"
)

// printSummary decodes the generated class file and describes it
func printSummary(w io.Writer, data []byte) error {
	cf, err := classfile.ParseClass(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("generated class file is unreadable: %w", err)
	}

	name, err := cf.ThisClassName()
	if err != nil {
		return err
	}
	super, err := cf.SuperClassName()
	if err != nil {
		return err
	}
	interfaces, err := cf.InterfaceNames()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Class:      %s\n", binaryName(name))
	fmt.Fprintf(w, "Extends:    %s\n", binaryName(super))
	for i, iface := range interfaces {
		interfaces[i] = binaryName(iface)
	}
	fmt.Fprintf(w, "Implements: %s\n", strings.Join(interfaces, ", "))
	fmt.Fprintf(w, "Version:    %d.%d\n", cf.MajorVersion, cf.MinorVersion)
	fmt.Fprintf(w, "Size:       %d bytes, %d constants, %d fields\n", len(data), len(cf.ConstantPool)-1, len(cf.Fields))

	outputTable := helper.NewTable(w, helper.TerminalWidth(w))
	outputTable.AppendHeader(table.Row{"Method", "Descriptor", "Throws"})

	for _, m := range cf.Methods {
		mName, desc, err := cf.NameAndDescriptor(m)
		if err != nil {
			return err
		}
		exceptions, err := cf.Exceptions(m)
		if err != nil {
			return err
		}
		for i, e := range exceptions {
			exceptions[i] = binaryName(e)
		}
		outputTable.AppendRow(table.Row{mName, desc, strings.Join(exceptions, ", ")})
	}

	outputTable.Render()

	return nil
}

func binaryName(internalName string) string {
	return strings.ReplaceAll(internalName, "/", ".")
}
