package sse

import (
	"bytes"
	"errors"
	"io"
	"iter"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LineDecoder turns arbitrarily split byte chunks into complete text lines.
//
// It holds one pending partial line and the undecoded tail of a multi-byte
// UTF-8 sequence that was cut by a chunk boundary. Invalid UTF-8 becomes
// U+FFFD. A LineDecoder is not safe for concurrent use.
type LineDecoder struct {
	utf8    transform.Transformer
	carry   []byte // incomplete trailing rune, not yet decoded
	pending []byte // decoded text after the last newline
	dst     []byte
}

// NewLineDecoder returns a decoder with empty buffers.
func NewLineDecoder() *LineDecoder {
	return &LineDecoder{utf8: unicode.UTF8.NewDecoder()}
}

// Decode appends chunk to the pending buffer and returns an iterator over the
// complete lines now available. Lines are yielded without the newline and
// without a trailing carriage return. Lines the caller does not consume stay
// pending and are yielded by the next call.
func (d *LineDecoder) Decode(chunk []byte) iter.Seq[string] {
	d.decode(chunk)
	return func(yield func(string) bool) {
		for {
			i := bytes.IndexByte(d.pending, '\n')
			if i < 0 {
				return
			}
			line := string(bytes.TrimSuffix(d.pending[:i], []byte{'\r'}))
			d.pending = d.pending[i+1:]
			if !yield(line) {
				return
			}
		}
	}
}

// Buffered returns the number of bytes held back: the pending partial line
// plus any carried partial rune.
func (d *LineDecoder) Buffered() int {
	return len(d.pending) + len(d.carry)
}

// Close discards the unterminated remainder at end of stream and returns how
// many bytes were dropped. The remainder is never emitted as a line. The
// decoder is reset and may be reused.
func (d *LineDecoder) Close() int {
	n := d.Buffered()
	d.pending = nil
	d.carry = nil
	d.utf8.Reset()
	return n
}

func (d *LineDecoder) decode(chunk []byte) {
	src := chunk
	if len(d.carry) > 0 {
		src = append(d.carry, chunk...)
		d.carry = nil
	}
	if need := 3*len(src) + 4; cap(d.dst) < need {
		d.dst = make([]byte, need)
	}
	dst := d.dst[:cap(d.dst)]
	for len(src) > 0 {
		nDst, nSrc, err := d.utf8.Transform(dst, src, false)
		d.pending = append(d.pending, dst[:nDst]...)
		src = src[nSrc:]
		switch {
		case err == nil:
			return
		case errors.Is(err, transform.ErrShortSrc):
			d.carry = append([]byte(nil), src...)
			return
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
				d.dst = dst
			}
		default:
			// The UTF-8 decoder only reports short buffers; anything else
			// leaves the rest of the chunk undecodable.
			d.pending = append(d.pending, "\uFFFD"...)
			return
		}
	}
}

// Lines reads r in chunks of size bytes and yields every complete line.
// A read error other than io.EOF is yielded once and ends the sequence.
// The unterminated remainder at EOF is discarded.
func Lines(r io.Reader, size int) iter.Seq2[string, error] {
	if size <= 0 {
		size = defaultChunkSize
	}
	return func(yield func(string, error) bool) {
		d := NewLineDecoder()
		defer d.Close()
		buf := make([]byte, size)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				for line := range d.Decode(buf[:n]) {
					if !yield(line, nil) {
						return
					}
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}
