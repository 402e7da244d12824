/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package logger provides the structured logging idiom shared by the rest of
// this module: build an Entry, decorate it with fields/errors/data, call Log.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// FuncLog is the constructor signature components accept to obtain a Logger
// without depending on a concrete implementation.
type FuncLog func() Logger

// Logger is the logging surface passed into the reactor and socket
// components. It panics only for entries logged at PanicLevel, and never
// blocks on I/O beyond what the underlying io.Writer does.
type Logger interface {
	// Entry starts a new log record at the given level with the given message.
	Entry(level Level, message string) *Entry

	// SetLevel adjusts the minimum level the logger emits.
	SetLevel(level Level)

	// SetOutput redirects where formatted entries are written.
	SetOutput(w io.Writer)

	// SetFormatterJSON switches the underlying formatter to JSON (vs text).
	SetFormatterJSON(enable bool)
}

type logger struct {
	log *logrus.Logger
}

// New returns a Logger writing to stderr in text format at InfoLevel,
// matching the teacher's default service-logger configuration.
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(InfoLevel.Logrus())
	return &logger{log: l}
}

func (l *logger) Entry(level Level, message string) *Entry {
	return newEntry(l.log, level, message)
}

func (l *logger) SetLevel(level Level) {
	l.log.SetLevel(level.Logrus())
}

func (l *logger) SetOutput(w io.Writer) {
	l.log.SetOutput(w)
}

func (l *logger) SetFormatterJSON(enable bool) {
	if enable {
		l.log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.log.SetFormatter(&logrus.TextFormatter{})
	}
}
