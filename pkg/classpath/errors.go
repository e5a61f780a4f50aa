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

package classpath

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrClosed   = errors.New("class path is closed")

	// ErrInvalidIndex matches every *InvalidIndexError.
	ErrInvalidIndex = errors.New("invalid jar index")

	errUnsupportedScheme = errors.New("unsupported url scheme")
)

// InvalidIndexError reports a JAR index that names a JAR for a package the
// JAR does not contain.
type InvalidIndexError struct {
	// Index is the URL of the JAR whose index was consulted.
	Index string
	// Jar is the URL of the JAR the index pointed at.
	Jar string
	// Name is the resource being looked up.
	Name string
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid jar index in %s: %s has no entries in the package of %s", e.Index, e.Jar, e.Name)
}

func (e *InvalidIndexError) Is(target error) bool {
	return target == ErrInvalidIndex
}
