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

// Package cmdlogger provides the slog handler used by the jarpath command,
// which writes plain messages to stdout and errors to stderr.
package cmdlogger

import (
	"log/slog"
)

type CmdLogger interface {
	slog.Handler

	SendEverythingToStderr()
	HasErrored() bool
	SetLevel(level slog.Leveler)
}

// SendEverythingToStderr tells the logger (if its in use) to send all logs
// to stderr regardless of their level.
//
// This is useful if we're expecting to output structured data to stdout such
// as JSON, which cannot be mixed with other output.
func SendEverythingToStderr() {
	l, ok := slog.Default().Handler().(CmdLogger)

	if ok {
		l.SendEverythingToStderr()
	}
}
