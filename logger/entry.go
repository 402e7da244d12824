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

package logger

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is a single, mutable log record built up by its Field*, Data* and
// Error* methods and
// emitted by Log. It carries no transport-specific context: callers that need
// request-scoped fields attach them with FieldAdd before calling Log.
type Entry struct {
	log *logrus.Logger

	level   Level
	time    time.Time
	caller  string
	file    string
	line    int
	message string
	errs    []error
	data    interface{}
	fields  Fields
}

func newEntry(log *logrus.Logger, level Level, message string) *Entry {
	e := &Entry{
		log:     log,
		level:   level,
		time:    time.Now(),
		message: message,
		fields:  make(Fields),
	}

	if _, file, line, ok := runtime.Caller(2); ok {
		e.file = file
		e.line = line
	}

	return e
}

// FieldAdd sets a single contextual field on the entry.
func (e *Entry) FieldAdd(key string, val interface{}) *Entry {
	e.fields = e.fields.Add(key, val)
	return e
}

// FieldMerge merges the given Fields into the entry's fields.
func (e *Entry) FieldMerge(f Fields) *Entry {
	e.fields = e.fields.Merge(f)
	return e
}

// FieldClean drops nil-valued fields from the entry.
func (e *Entry) FieldClean() *Entry {
	e.fields = e.fields.Clean()
	return e
}

// DataSet attaches an arbitrary payload to the entry, logged under "data".
func (e *Entry) DataSet(v interface{}) *Entry {
	e.data = v
	return e
}

// ErrorAdd appends one or more parent errors to the entry.
func (e *Entry) ErrorAdd(err ...error) *Entry {
	for _, er := range err {
		if er != nil {
			e.errs = append(e.errs, er)
		}
	}
	return e
}

// ErrorClean clears any previously attached errors.
func (e *Entry) ErrorClean() *Entry {
	e.errs = nil
	return e
}

// Check returns true if the entry carries at least one error.
func (e *Entry) Check() bool {
	return len(e.errs) > 0
}

// Log emits the entry through the underlying logrus.Logger at its level.
// A NilLevel entry is a no-op, matching the "silence this entry" idiom used
// for expected/benign conditions (e.g. a filtered reactor error).
func (e *Entry) Log() {
	if e.level == NilLevel || e.log == nil {
		return
	}

	fields := e.fields.Clone()
	fields["time"] = e.time
	if e.file != "" {
		fields["caller"] = e.file
		fields["line"] = e.line
	}
	if e.data != nil {
		fields["data"] = e.data
	}
	if len(e.errs) > 0 {
		msgs := make([]string, 0, len(e.errs))
		for _, er := range e.errs {
			msgs = append(msgs, er.Error())
		}
		fields["errors"] = msgs
	}

	e.log.WithFields(fields.Logrus()).Log(e.level.Logrus(), e.message)
}
