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

import "github.com/sirupsen/logrus"

// Fields is a map of contextual key/value pairs attached to a log Entry.
type Fields map[string]interface{}

// Clone returns a shallow copy of the current Fields.
func (f Fields) Clone() Fields {
	n := make(Fields, len(f))
	for k, v := range f {
		n[k] = v
	}
	return n
}

// Add sets a single key/value pair, allocating the map if needed.
func (f Fields) Add(key string, val interface{}) Fields {
	if f == nil {
		f = make(Fields)
	}
	f[key] = val
	return f
}

// Merge returns a new Fields containing the receiver's pairs overridden by n's.
func (f Fields) Merge(n Fields) Fields {
	r := f.Clone()
	for k, v := range n {
		r[k] = v
	}
	return r
}

// Clean drops any key whose value is nil.
func (f Fields) Clean() Fields {
	r := make(Fields, len(f))
	for k, v := range f {
		if v == nil {
			continue
		}
		r[k] = v
	}
	return r
}

// Map returns the Fields as a plain map[string]interface{}.
func (f Fields) Map() map[string]interface{} {
	return map[string]interface{}(f)
}

// Logrus converts the Fields into logrus.Fields.
func (f Fields) Logrus() logrus.Fields {
	r := make(logrus.Fields, len(f))
	for k, v := range f {
		r[k] = v
	}
	return r
}
