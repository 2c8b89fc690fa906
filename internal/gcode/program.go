package gcode

import (
	"bufio"
	"io"
	"strings"
)

// Program is an emitted G-code body wrapped in optional user text blocks.
type Program struct {
	Prologue []string
	Body     []string
	Epilogue []string

	Stats Stats
	Trace Trace
}

// TextLines splits a block of text into lines for a prologue or epilogue.
// A trailing newline does not produce an extra empty line.
func TextLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(strings.ReplaceAll(text, "\r\n", "\n"), "\n"), "\n")
}

// WriteTo writes prologue, body and epilogue, one command per line.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64

	for _, block := range [][]string{p.Prologue, p.Body, p.Epilogue} {
		for _, l := range block {
			c, err := bw.WriteString(l + "\n")
			n += int64(c)
			if err != nil {
				return n, err
			}
		}
	}

	return n, bw.Flush()
}

func (p *Program) Gcode() string {
	gcode := strings.Builder{}
	p.WriteTo(&gcode)
	return gcode.String()
}
