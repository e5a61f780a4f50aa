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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Method describes one abstract interface method. Types use Java source
// names; an empty Returns means void.
type Method struct {
	Name    string   `toml:"name" yaml:"name"`
	Params  []string `toml:"params" yaml:"params"`
	Returns string   `toml:"returns" yaml:"returns"`
	Throws  []string `toml:"throws" yaml:"throws"`
}

// Interface describes an interface a proxy implements.
type Interface struct {
	Name    string   `toml:"name" yaml:"name"`
	Extends []string `toml:"extends" yaml:"extends"`
	Methods []Method `toml:"method" yaml:"methods"`
}

// Class declares a class referenced by interface methods, typically a
// checked exception, so subtype checks know its ancestry.
type Class struct {
	Name       string   `toml:"name" yaml:"name"`
	Super      string   `toml:"super" yaml:"super"`
	Interfaces []string `toml:"interfaces" yaml:"interfaces"`
}

// Definitions is the content of an interface definition file.
type Definitions struct {
	Interfaces []*Interface `toml:"interface" yaml:"interfaces"`
	Classes    []Class      `toml:"class" yaml:"classes"`
}

// LoadDefinitions reads interface definitions from a .toml, .yaml or .yml
// file. Unknown keys are rejected.
func LoadDefinitions(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var defs Definitions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &defs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%s: unknown keys %v", path, undecoded)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&defs); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported definition format %q", path, filepath.Ext(path))
	}

	return &defs, defs.validate()
}

func (d *Definitions) validate() error {
	seen := map[string]bool{}
	for _, iface := range d.Interfaces {
		if iface.Name == "" {
			return fmt.Errorf("%w: interface without a name", ErrInvalidInterface)
		}
		if seen[iface.Name] {
			return fmt.Errorf("%w: %s defined twice", ErrInvalidInterface, iface.Name)
		}
		seen[iface.Name] = true
		for _, m := range iface.Methods {
			if m.Name == "" {
				return fmt.Errorf("%w: %s has a method without a name", ErrInvalidInterface, iface.Name)
			}
		}
	}
	for _, c := range d.Classes {
		if c.Name == "" {
			return fmt.Errorf("%w: class without a name", ErrInvalidType)
		}
	}

	return nil
}

// Lookup returns the interface with the given binary name.
func (d *Definitions) Lookup(name string) (*Interface, bool) {
	for _, iface := range d.Interfaces {
		if iface.Name == name {
			return iface, true
		}
	}

	return nil, false
}

// Hierarchy returns the default hierarchy extended with every class and
// interface in d.
func (d *Definitions) Hierarchy() *Hierarchy {
	h := NewHierarchy()
	for _, c := range d.Classes {
		h.AddClass(c.Name, c.Super, c.Interfaces...)
	}
	for _, iface := range d.Interfaces {
		h.AddInterface(iface.Name, iface.Extends...)
	}

	return h
}

// Generator returns a Generator that resolves supertypes and inherited
// interface methods against d.
func (d *Definitions) Generator() *Generator {
	known := make(map[string]*Interface, len(d.Interfaces))
	for _, iface := range d.Interfaces {
		known[iface.Name] = iface
	}

	return &Generator{
		Hierarchy:  d.Hierarchy(),
		Interfaces: known,
	}
}
