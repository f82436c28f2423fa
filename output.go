package main

import (
	"bufio"
	"fmt"
	"io"

	"git.arvados.org/countog.git/sampler"
	"github.com/kshedden/gonpy"
)

type rowSink interface {
	WriteHeader(columns []string) error
	WriteRow(row []float32) error
	// Close flushes buffered output and closes the underlying
	// writer.
	Close() error
}

type tsvSink struct {
	*sampler.TextWriter
	output io.WriteCloser
}

func newTSVSink(output io.WriteCloser, label string) *tsvSink {
	return &tsvSink{TextWriter: sampler.NewTextWriter(output, label), output: output}
}

func (s *tsvSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.output.Close()
}

// npySink collects all rows and writes them as a single float32
// matrix when closed.
type npySink struct {
	output io.WriteCloser
	cols   int
	rows   int
	data   []float32
}

func newNpySink(output io.WriteCloser, cols int) *npySink {
	return &npySink{output: output, cols: cols}
}

func (s *npySink) WriteHeader([]string) error { return nil }

func (s *npySink) WriteRow(row []float32) error {
	if len(row) != s.cols {
		return fmt.Errorf("npy: row has %d values, expected %d", len(row), s.cols)
	}
	s.data = append(s.data, row...)
	s.rows++
	return nil
}

func (s *npySink) Close() error {
	bufw := bufio.NewWriter(s.output)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return err
	}
	npw.Shape = []int{s.rows, s.cols}
	err = npw.WriteFloat32(s.data)
	if err != nil {
		return err
	}
	err = bufw.Flush()
	if err != nil {
		return err
	}
	return s.output.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
