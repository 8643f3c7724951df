package jsoncsv

import (
	"bufio"
	"errors"
	"io"
)

const defaultBufferSize = 1 << 10 // 1024 bytes

var (
	errNilWriter      = errors.New("jsoncsv: writer is nil")
	errWriterNoTarget = errors.New("jsoncsv: writer destination cannot be nil")
)

// Writer emits lines of already rendered cells. Cells are written verbatim;
// quoting is the caller's job (see Convert).
//
// A line is preceded by LineBreak only when something was written before it,
// so the output never starts or ends with a bare line break.
type Writer struct {
	dst *bufio.Writer

	// Delimiter separates cells. Default is ",".
	Delimiter string
	// EOL is appended to every line written with Write. Default is empty.
	EOL string
	// LineBreak separates lines. Default is the platform line break.
	LineBreak string

	written int64
	err     error
}

// NewWriter creates a new Writer with internal buffering tuned for bulk writes.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:       bufio.NewWriterSize(w, defaultBufferSize),
		Delimiter: defaultDelimiter,
		LineBreak: platformLineBreak,
	}
}

// Reset updates the underlying writer while preserving the configuration fields.
func (w *Writer) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.written = 0
	w.err = nil
}

// WriteHeader emits the title line. Unlike Write it does not append EOL.
// An empty cell list writes nothing.
func (w *Writer) WriteHeader(cells []string) error {
	if len(cells) == 0 {
		if w == nil {
			return errNilWriter
		}
		return w.err
	}
	return w.writeLine(cells, "")
}

// Write emits a single data line terminated with EOL.
func (w *Writer) Write(cells []string) error {
	if w == nil {
		return errNilWriter
	}
	return w.writeLine(cells, w.EOL)
}

// WriteAll writes multiple lines, stopping at the first error.
func (w *Writer) WriteAll(lines [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, cells := range lines {
		if err := w.Write(cells); err != nil {
			return err
		}
	}
	return nil
}

// Written reports the number of bytes accepted so far, buffered or not.
func (w *Writer) Written() int64 {
	if w == nil {
		return 0
	}
	return w.written
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *Writer) writeLine(cells []string, eol string) error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	delim := w.Delimiter
	if delim == "" {
		delim = defaultDelimiter
	}
	lineBreak := w.LineBreak
	if lineBreak == "" {
		lineBreak = platformLineBreak
	}

	if w.written > 0 {
		if err := w.writeString(lineBreak); err != nil {
			return err
		}
	}
	for i := range cells {
		if i > 0 {
			if err := w.writeString(delim); err != nil {
				return err
			}
		}
		if err := w.writeString(cells[i]); err != nil {
			return err
		}
	}
	return w.writeString(eol)
}

func (w *Writer) writeString(s string) error {
	if s == "" {
		return nil
	}
	n, err := w.dst.WriteString(s)
	w.written += int64(n)
	if err != nil {
		w.err = err
	}
	return err
}
