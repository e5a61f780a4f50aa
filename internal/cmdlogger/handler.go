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

package cmdlogger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

type Handler struct {
	// shared by handlers derived with WithAttrs
	state *handlerState
	attrs []slog.Attr
}

type handlerState struct {
	mu                 sync.Mutex
	stdout             io.Writer
	stderr             io.Writer
	hasErrored         bool
	everythingToStderr bool
	level              slog.Leveler
}

// SendEverythingToStderr tells the logger to send all logs to stderr regardless
// of their level.
//
// This is useful if we're expecting to output structured data to stdout such
// as JSON, which cannot be mixed with other output.
func (c *Handler) SendEverythingToStderr() {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	c.state.everythingToStderr = true
}

func (c *Handler) SetLevel(level slog.Leveler) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	c.state.level = level
}

func (c *Handler) writer(level slog.Level) io.Writer {
	if c.state.everythingToStderr || level == slog.LevelError {
		return c.state.stderr
	}

	return c.state.stdout
}

func (c *Handler) Enabled(_ context.Context, level slog.Level) bool {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	if level == slog.LevelError {
		c.state.hasErrored = true
	}

	return level >= c.state.level.Level()
}

func (c *Handler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)

	writeAttr := func(a slog.Attr) bool {
		if a.Equal(slog.Attr{}) {
			return true
		}
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value.Resolve())

		return true
	}
	for _, a := range c.attrs {
		writeAttr(a)
	}
	record.Attrs(writeAttr)
	sb.WriteByte('\n')

	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	if record.Level == slog.LevelError {
		c.state.hasErrored = true
	}

	_, err := io.WriteString(c.writer(record.Level), sb.String())

	return err
}

// HasErrored returns true if there have been any calls to Handle with
// a level of [slog.LevelError]
func (c *Handler) HasErrored() bool {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	return c.state.hasErrored
}

func (c *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return c
	}

	return &Handler{
		state: c.state,
		attrs: append(c.attrs[:len(c.attrs):len(c.attrs)], attrs...),
	}
}

func (c *Handler) WithGroup(_ string) slog.Handler {
	panic("not supported")
}

var _ CmdLogger = &Handler{}

func New(stdout, stderr io.Writer) CmdLogger {
	return &Handler{
		state: &handlerState{
			stdout: stdout,
			stderr: stderr,
			level:  slog.LevelInfo,
		},
	}
}
