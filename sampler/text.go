package sampler

import (
	"bufio"
	"io"
	"strconv"
)

// TextWriter writes rows as tab-separated values with four decimal
// places, optionally preceded by a label column.
type TextWriter struct {
	w     *bufio.Writer
	label string
	buf   []byte
}

func NewTextWriter(w io.Writer, label string) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w), label: label}
}

// WriteHeader writes the column names. When rows are labelled the
// label column is titled DATA.
func (tw *TextWriter) WriteHeader(columns []string) error {
	buf := tw.buf[:0]
	if tw.label != "" {
		buf = append(buf, "DATA\t"...)
	}
	for i, name := range columns {
		if i > 0 {
			buf = append(buf, '\t')
		}
		buf = append(buf, name...)
	}
	buf = append(buf, '\n')
	tw.buf = buf
	_, err := tw.w.Write(buf)
	return err
}

func (tw *TextWriter) WriteRow(row []float32) error {
	buf := tw.buf[:0]
	if tw.label != "" {
		buf = append(buf, tw.label...)
		buf = append(buf, '\t')
	}
	for i, v := range row {
		if i > 0 {
			buf = append(buf, '\t')
		}
		buf = strconv.AppendFloat(buf, float64(v), 'f', 4, 64)
	}
	buf = append(buf, '\n')
	tw.buf = buf
	_, err := tw.w.Write(buf)
	return err
}

func (tw *TextWriter) Flush() error { return tw.w.Flush() }
