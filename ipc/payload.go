package ipc

import (
	"bytes"
	"encoding/binary"

	"github.com/wippyai/hle/errors"
)

// Reader decodes a fixed-layout little-endian payload with position tracking.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, errors.OutOfBounds(errors.PhaseDecode, r.pos, n, len(r.data))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool reads a one-byte boolean. Any non-zero byte is true.
func (r *Reader) Bool() (bool, error) {
	b, err := r.U8()
	return b != 0, err
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// S32 reads a little-endian int32.
func (r *Reader) S32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Bytes reads exactly n bytes. The result aliases the input.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

// Writer builds a fixed-layout little-endian payload.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reset discards everything written.
func (w *Writer) Reset() {
	w.buf.Reset()
}

// U8 writes one byte.
func (w *Writer) U8(v uint8) {
	w.buf.WriteByte(v)
}

// Bool writes a one-byte boolean.
func (w *Writer) Bool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// U32 writes a little-endian uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// S32 writes a little-endian int32.
func (w *Writer) S32(v int32) {
	w.U32(uint32(v))
}

// U64 writes a little-endian uint64.
func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// Raw writes data as-is.
func (w *Writer) Raw(data []byte) {
	w.buf.Write(data)
}
