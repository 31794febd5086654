// Copyright 2016 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package log implements the leveled, key-value logging used throughout the
// module. Call sites look like log.Info("message", "key", value, ...) rather
// than formatted strings, so logs stay greppable and structured.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Lvl is a log severity level, ordered from most to least severe.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "CRIT"
	case LvlError:
		return "ERRO"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DBUG"
	case LvlTrace:
		return "TRCE"
	default:
		return "????"
	}
}

var levelColor = map[Lvl]int{
	LvlCrit:  35, // magenta
	LvlError: 31, // red
	LvlWarn:  33, // yellow
	LvlInfo:  32, // green
	LvlDebug: 36, // cyan
	LvlTrace: 90, // bright black
}

// Logger emits leveled, key-value records, optionally tagged with a fixed
// set of context fields (the way h.peers.peer(id).Log() in the teacher's
// p2p code tags every line with "peer", <id>).
type Logger interface {
	New(ctx ...interface{}) Logger
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

type logger struct {
	ctx []interface{}
}

var (
	mu       sync.Mutex
	output   io.Writer = colorable.NewColorableStderr()
	useColor           = isatty.IsTerminal(os.Stderr.Fd())
	level              = LvlInfo
)

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetLevel sets the minimum level that will be emitted.
func SetLevel(l Lvl) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Root is the base logger new context-free log lines are written through.
func Root() Logger { return &logger{} }

// New returns a Logger that prefixes every record with ctx, in addition to
// any context already carried by the root.
func New(ctx ...interface{}) Logger {
	return (&logger{}).New(ctx...)
}

func (l *logger) New(ctx ...interface{}) Logger {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &logger{ctx: merged}
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if lvl > level {
		return
	}
	var call stack.Call
	if cs := stack.Caller(2); true {
		call = cs
	}
	line := format(lvl, msg, call, append(append([]interface{}{}, l.ctx...), ctx...))
	_, _ = io.WriteString(output, line)
}

func format(lvl Lvl, msg string, call stack.Call, ctx []interface{}) string {
	ts := time.Now().Format("2006-01-02T15:04:05-0700")
	levelStr := lvl.String()
	if useColor {
		levelStr = fmt.Sprintf("\x1b[%dm%s\x1b[0m", levelColor[lvl], levelStr)
	}
	out := fmt.Sprintf("%s [%s] %s", ts, levelStr, msg)
	for i := 0; i+1 < len(ctx); i += 2 {
		out += fmt.Sprintf(" %v=%v", ctx[i], ctx[i+1])
	}
	if lvl <= LvlError {
		out += fmt.Sprintf(" caller=%v", call)
	}
	return out + "\n"
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{})  { l.write(LvlCrit, msg, ctx) }

// package-level convenience wrappers over Root(), mirroring the teacher's
// own log.Info/log.Warn/log.Error call sites (see probe/handler.go).
func Trace(msg string, ctx ...interface{}) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { Root().Crit(msg, ctx...) }
