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

// Package testlogger provides a slog handler which can handle t.Parallel() tests while being a global logging handler,
// redirecting it to the correct underlying logger for each test thread.
package testlogger

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/google/jarpath/internal/cmdlogger"
)

// backgroundLogger receives records logged from goroutines, which cannot be
// attributed to a test.
var backgroundLogger = cmdlogger.New(io.Discard, io.Discard)

// Handler can be set as the global logging handler before the test starts, and individual test cases can add their
// own instance/implementation of the cmdlogger.CmdLogger interface.
type Handler struct {
	loggerMap sync.Map // map[string]cmdlogger.CmdLogger
}

func (tl *Handler) getLogger() cmdlogger.CmdLogger {
	key := getCallerInstance()

	if key == "" {
		return backgroundLogger
	}

	val, ok := tl.loggerMap.Load(key)
	if !ok {
		panic("logger not found: " + key)
	}

	return val.(cmdlogger.CmdLogger)
}

// AddInstance adds a "global" logger to this specific test run.
func (tl *Handler) AddInstance(logger cmdlogger.CmdLogger) {
	key := getCallerInstance()
	prev, _ := tl.loggerMap.Swap(key, logger)
	if prev != nil {
		// This is used as a safety check for incorrect usage of the Handler, and should never happen
		// during actual tests if Delete() is correctly called at the end of a test.
		panic("same logger being added twice")
	}
}

// Delete removes the logger created by AddInstance()
// This **must** be called before a test ends, as the same memory address may be reused.
func (tl *Handler) Delete() {
	tl.loggerMap.Delete(getCallerInstance())
}

// SendEverythingToStderr tells the logger to send all logs to stderr regardless
// of their level.
func (tl *Handler) SendEverythingToStderr() {
	tl.getLogger().SendEverythingToStderr()
}

func (tl *Handler) SetLevel(level slog.Leveler) {
	tl.getLogger().SetLevel(level)
}

func (tl *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return tl.getLogger().Enabled(ctx, level)
}

func (tl *Handler) Handle(ctx context.Context, record slog.Record) error {
	return tl.getLogger().Handle(ctx, record)
}

// HasErrored returns true if there have been any calls to Handle with
// a level of [slog.LevelError]
func (tl *Handler) HasErrored() bool {
	return tl.getLogger().HasErrored()
}

func (tl *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return tl.getLogger().WithAttrs(attrs)
}

func (tl *Handler) WithGroup(g string) slog.Handler {
	return tl.getLogger().WithGroup(g)
}

var _ cmdlogger.CmdLogger = &Handler{}

func New() *Handler {
	return &Handler{
		loggerMap: sync.Map{},
	}
}

// getCallerInstance finds in the call stack the memory address of the initial test runner call.
// It will look something like this:
//
// `testing.tRunner(0x12345678, 0x98765432)`
//
// This is safe to be used as a key, as the first pointer address must be unique
// while this test is running, and will only be reused after the test exists and that address is garbage collected.
//
// Caveat: This cannot get the stack trace if called from a goroutine, and will return ""
func getCallerInstance() string {
	stack := debug.Stack()
	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "testing.tRunner(") {
			return sc.Text()
		}
		if strings.HasPrefix(sc.Text(), "created by ") && strings.Contains(sc.Text(), " in goroutine ") {
			return ""
		}
	}

	return ""
}
