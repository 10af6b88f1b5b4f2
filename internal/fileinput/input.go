// Package fileinput implements a queued, line-tracking byte source.
//
// Commands in eigth are lexed byte-by-byte (character literals such as
// '\xff' must round-trip through the lexer without UTF-8 reinterpretation),
// so Input reads bytes rather than runes.
package fileinput

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Location names a line in an Input file.
type Location struct {
	Name string
	Line int
}

// Line combines a Location along with a bytes.Buffer for handling it.
type Line struct {
	Location
	bytes.Buffer
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }
func (il Line) String() string      { return fmt.Sprintf("%v %q", il.Location, il.Buffer.String()) }

// Input implements sequential byte reading through a Queue of one or more
// input streams. Both the current and last scanned lines are tracked in
// Scan and Last; nothing else in the module reads them.
type Input struct {
	src   io.Reader
	br    *bufio.Reader
	Queue []io.Reader
	Last  Line
	Scan  Line
}

// ReadByte reads one byte from the current input stream, appending it into
// the current Scan line, and rolling Scan over to Last after a line feed.
func (in *Input) ReadByte() (byte, error) {
	if in.br == nil && !in.nextIn() {
		return 0, io.EOF
	}

	b, err := in.br.ReadByte()
	if err != nil {
		if err == io.EOF && in.nextIn() {
			return in.ReadByte()
		}
		return 0, err
	}

	if b == '\n' {
		in.nextLine()
	} else {
		in.Scan.WriteByte(b)
	}
	return b, nil
}

func (in *Input) nextLine() {
	in.Last.Reset()
	in.Last.Name = in.Scan.Name
	in.Last.Line = in.Scan.Line
	in.Last.Write(in.Scan.Bytes())
	in.Scan.Reset()
	in.Scan.Line++
}

func (in *Input) nextIn() bool {
	in.nextLine()
	if in.src != nil {
		if cl, ok := in.src.(io.Closer); ok {
			cl.Close()
		}
		in.src, in.br = nil, nil
	}
	if len(in.Queue) > 0 {
		r := in.Queue[0]
		in.Queue = in.Queue[1:]
		in.src = r
		in.br = bufio.NewReader(r)
		in.Scan.Name = nameOf(r)
		in.Scan.Line = 1
	}
	return in.br != nil
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
