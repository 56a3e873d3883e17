package openwire

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/primitives"
)

// Writer writes big-endian OpenWire primitives into a buffer. The first
// failure sticks; later writes are no-ops, and the error is collected once
// at the frame boundary.
type Writer struct {
	buf bytes.Buffer
	err error
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Err() error { return w.err }

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) Len() int { return w.buf.Len() }

func (w *Writer) WriteByte(b byte) {
	if w.err != nil {
		return
	}
	w.buf.WriteByte(b)
}

func (w *Writer) WriteBool(b bool) {
	if b {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

func (w *Writer) WriteBytes(data []byte) {
	if w.err != nil {
		return
	}
	w.buf.Write(data)
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.WriteBytes(b[:])
}

func (w *Writer) WriteInt32(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.WriteBytes(b[:])
}

func (w *Writer) WriteInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.WriteBytes(b[:])
}

// WriteUTF writes a modified UTF-8 string with a u16 length prefix.
func (w *Writer) WriteUTF(s string) {
	if w.err != nil {
		return
	}
	encoded := primitives.EncodeModifiedUTF8(s)
	if len(encoded) > math.MaxUint16 {
		w.fail(errors.Newf(errors.CodeInvalidArgument, "string too long for short encoding: %d bytes", len(encoded)))
		return
	}
	w.WriteUint16(uint16(len(encoded)))
	w.WriteBytes(encoded)
}

// Reader reads big-endian OpenWire primitives from a frame body. The first
// failure sticks; later reads return zero values.
type Reader struct {
	data []byte
	pos  int
	err  error
}

func NewReader(data []byte) *Reader { return &Reader{data: data} }

func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

func (r *Reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if r.Remaining() < n {
		r.fail(ErrTruncated(what))
		return nil
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *Reader) ReadByte() byte {
	b := r.take(1, "byte")
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) ReadBool() bool {
	return r.ReadByte() != 0
}

// ReadBytes reads exactly n bytes, copying them out of the frame.
func (r *Reader) ReadBytes(n int) []byte {
	b := r.take(n, "byte array")
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func (r *Reader) ReadUint16() uint16 {
	b := r.take(2, "short")
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) ReadInt32() int32 {
	b := r.take(4, "int")
	if b == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

func (r *Reader) ReadInt64() int64 {
	b := r.take(8, "long")
	if b == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

// ReadUTF reads a modified UTF-8 string with a u16 length prefix.
func (r *Reader) ReadUTF() string {
	n := int(r.ReadUint16())
	raw := r.take(n, "string")
	if raw == nil {
		return ""
	}
	s, err := primitives.DecodeModifiedUTF8(raw)
	if err != nil {
		r.fail(err)
		return ""
	}
	return s
}
