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

import "errors"

var (
	// ErrInvalidType is returned for type names that cannot be parsed.
	ErrInvalidType = errors.New("invalid type")
	// ErrInvalidInterface is returned for malformed or repeated interfaces.
	ErrInvalidInterface = errors.New("invalid interface")
	// ErrIncompatibleReturnTypes is returned when methods sharing a
	// signature have return types without a single most specific type.
	ErrIncompatibleReturnTypes = errors.New("incompatible return types")
	// ErrLimitExceeded is returned when a class-file table would exceed
	// 65535 entries or a method body would exceed 65535 bytes.
	ErrLimitExceeded = errors.New("class file limit exceeded")
	// ErrConstantPoolReadOnly is the panic value raised when an entry is
	// added to a frozen constant pool.
	ErrConstantPoolReadOnly = errors.New("late constant pool addition")
)

// limitExceeded is panicked from deep inside generation and recovered at
// the Generate boundary.
type limitExceeded struct {
	what string
}

func overflow(what string) {
	panic(&limitExceeded{what: what})
}
