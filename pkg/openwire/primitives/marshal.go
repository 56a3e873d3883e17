package primitives

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf16"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
)

// maxShortString is the largest encoded length carried with a u16 prefix.
// Longer strings use the big-string tag with a u32 prefix.
const maxShortString = math.MaxInt16

// MarshalMap encodes m into OpenWire bytes.
func MarshalMap(m Map) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteMap(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalMap decodes an OpenWire primitive map. A nil or empty input
// yields an empty map.
func UnmarshalMap(data []byte) (Map, error) {
	if len(data) == 0 {
		return Map{}, nil
	}
	return ReadMap(bytes.NewReader(data))
}

// MarshalList encodes l into OpenWire bytes.
func MarshalList(l List) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteList(&buf, l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalList decodes an OpenWire primitive list.
func UnmarshalList(data []byte) (List, error) {
	if len(data) == 0 {
		return List{}, nil
	}
	return ReadList(bytes.NewReader(data))
}

// WriteMap writes size-prefixed entries of (key, tagged value).
func WriteMap(w io.Writer, m Map) error {
	if err := writeInt32(w, int32(len(m))); err != nil {
		return err
	}
	for key, value := range m {
		if err := WriteUTF(w, key); err != nil {
			return err
		}
		if err := WriteValue(w, value); err != nil {
			return err
		}
	}
	return nil
}

// ReadMap reads a map written by WriteMap.
func ReadMap(r io.Reader) (Map, error) {
	size, err := readInt32(r)
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, errors.Newf(CodeTruncated, "negative map size %d", size)
	}
	m := make(Map, size)
	for i := int32(0); i < size; i++ {
		key, err := ReadUTF(r)
		if err != nil {
			return nil, err
		}
		value, err := ReadValue(r)
		if err != nil {
			return nil, err
		}
		m[key] = value
	}
	return m, nil
}

// WriteList writes size-prefixed tagged values.
func WriteList(w io.Writer, l List) error {
	if err := writeInt32(w, int32(len(l))); err != nil {
		return err
	}
	for _, value := range l {
		if err := WriteValue(w, value); err != nil {
			return err
		}
	}
	return nil
}

// ReadList reads a list written by WriteList.
func ReadList(r io.Reader) (List, error) {
	size, err := readInt32(r)
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, errors.Newf(CodeTruncated, "negative list size %d", size)
	}
	l := make(List, 0, size)
	for i := int32(0); i < size; i++ {
		value, err := ReadValue(r)
		if err != nil {
			return nil, err
		}
		l = append(l, value)
	}
	return l, nil
}

// WriteValue writes one tagged value.
func WriteValue(w io.Writer, v Value) error {
	switch v.Type {
	case NullType:
		return writeByte(w, byte(NullType))
	case BooleanType:
		if err := writeByte(w, byte(BooleanType)); err != nil {
			return err
		}
		return writeBool(w, v.Bool)
	case ByteType:
		if err := writeByte(w, byte(ByteType)); err != nil {
			return err
		}
		return writeByte(w, v.Byte)
	case CharType:
		if err := writeByte(w, byte(CharType)); err != nil {
			return err
		}
		return writeUint16(w, v.Char)
	case ShortType:
		if err := writeByte(w, byte(ShortType)); err != nil {
			return err
		}
		return writeUint16(w, uint16(v.Short))
	case IntegerType:
		if err := writeByte(w, byte(IntegerType)); err != nil {
			return err
		}
		return writeInt32(w, v.Int)
	case LongType:
		if err := writeByte(w, byte(LongType)); err != nil {
			return err
		}
		return writeInt64(w, v.Long)
	case FloatType:
		if err := writeByte(w, byte(FloatType)); err != nil {
			return err
		}
		return writeInt32(w, int32(math.Float32bits(v.Float)))
	case DoubleType:
		if err := writeByte(w, byte(DoubleType)); err != nil {
			return err
		}
		return writeInt64(w, int64(math.Float64bits(v.Double)))
	case StringType, BigStringType:
		encoded := EncodeModifiedUTF8(v.String)
		if len(encoded) > maxShortString {
			if err := writeByte(w, byte(BigStringType)); err != nil {
				return err
			}
			if err := writeInt32(w, int32(len(encoded))); err != nil {
				return err
			}
			_, err := w.Write(encoded)
			return err
		}
		if err := writeByte(w, byte(StringType)); err != nil {
			return err
		}
		if err := writeUint16(w, uint16(len(encoded))); err != nil {
			return err
		}
		_, err := w.Write(encoded)
		return err
	case ByteArrayType:
		if err := writeByte(w, byte(ByteArrayType)); err != nil {
			return err
		}
		if err := writeInt32(w, int32(len(v.Bytes))); err != nil {
			return err
		}
		_, err := w.Write(v.Bytes)
		return err
	case MapType:
		if err := writeByte(w, byte(MapType)); err != nil {
			return err
		}
		return WriteMap(w, v.Map)
	case ListType:
		if err := writeByte(w, byte(ListType)); err != nil {
			return err
		}
		return WriteList(w, v.List)
	}
	return errors.Newf(CodeUnknownTag, "cannot marshal primitive tag %d", v.Type)
}

// ReadValue reads one tagged value, rejecting unknown tags.
func ReadValue(r io.Reader) (Value, error) {
	tag, err := readByte(r)
	if err != nil {
		return Value{}, err
	}
	switch Type(tag) {
	case NullType:
		return Null(), nil
	case BooleanType:
		b, err := readBool(r)
		if err != nil {
			return Value{}, err
		}
		return NewBool(b), nil
	case ByteType:
		b, err := readByte(r)
		if err != nil {
			return Value{}, err
		}
		return NewByte(b), nil
	case CharType:
		c, err := readUint16(r)
		if err != nil {
			return Value{}, err
		}
		return NewChar(c), nil
	case ShortType:
		s, err := readUint16(r)
		if err != nil {
			return Value{}, err
		}
		return NewShort(int16(s)), nil
	case IntegerType:
		n, err := readInt32(r)
		if err != nil {
			return Value{}, err
		}
		return NewInt(n), nil
	case LongType:
		n, err := readInt64(r)
		if err != nil {
			return Value{}, err
		}
		return NewLong(n), nil
	case FloatType:
		n, err := readInt32(r)
		if err != nil {
			return Value{}, err
		}
		return NewFloat(math.Float32frombits(uint32(n))), nil
	case DoubleType:
		n, err := readInt64(r)
		if err != nil {
			return Value{}, err
		}
		return NewDouble(math.Float64frombits(uint64(n))), nil
	case StringType:
		s, err := ReadUTF(r)
		if err != nil {
			return Value{}, err
		}
		return NewString(s), nil
	case BigStringType:
		n, err := readInt32(r)
		if err != nil {
			return Value{}, err
		}
		if n < 0 {
			return Value{}, errors.Newf(CodeTruncated, "negative string length %d", n)
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(r, raw); err != nil {
			return Value{}, errors.New(CodeTruncated, "truncated big string", err)
		}
		s, err := DecodeModifiedUTF8(raw)
		if err != nil {
			return Value{}, err
		}
		return NewString(s), nil
	case ByteArrayType:
		n, err := readInt32(r)
		if err != nil {
			return Value{}, err
		}
		if n < 0 {
			return Value{}, errors.Newf(CodeTruncated, "negative byte array length %d", n)
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(r, raw); err != nil {
			return Value{}, errors.New(CodeTruncated, "truncated byte array", err)
		}
		return NewBytes(raw), nil
	case MapType:
		m, err := ReadMap(r)
		if err != nil {
			return Value{}, err
		}
		return NewMap(m), nil
	case ListType:
		l, err := ReadList(r)
		if err != nil {
			return Value{}, err
		}
		return NewList(l), nil
	}
	return Value{}, errors.Newf(CodeUnknownTag, "unknown primitive tag %d", tag)
}

// WriteUTF writes a modified UTF-8 string with a u16 length prefix.
func WriteUTF(w io.Writer, s string) error {
	encoded := EncodeModifiedUTF8(s)
	if len(encoded) > math.MaxUint16 {
		return errors.Newf(errors.CodeInvalidArgument, "string too long for short encoding: %d bytes", len(encoded))
	}
	if err := writeUint16(w, uint16(len(encoded))); err != nil {
		return err
	}
	_, err := w.Write(encoded)
	return err
}

// ReadUTF reads a string written by WriteUTF.
func ReadUTF(r io.Reader) (string, error) {
	n, err := readUint16(r)
	if err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", errors.New(CodeTruncated, "truncated string", err)
	}
	return DecodeModifiedUTF8(raw)
}

// EncodeModifiedUTF8 encodes s the way Java's DataOutput.writeUTF does:
// NUL becomes the two-byte sequence 0xC0 0x80 and supplementary characters
// become CESU-8 surrogate pairs.
func EncodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xC0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r < 0x10000:
			out = append(out, 0xE0|byte(r>>12), 0x80|byte((r>>6)&0x3F), 0x80|byte(r&0x3F))
		default:
			hi, lo := utf16.EncodeRune(r)
			for _, unit := range []rune{hi, lo} {
				out = append(out, 0xE0|byte(unit>>12), 0x80|byte((unit>>6)&0x3F), 0x80|byte(unit&0x3F))
			}
		}
	}
	return out
}

// DecodeModifiedUTF8 reverses EncodeModifiedUTF8, failing on malformed
// sequences.
func DecodeModifiedUTF8(data []byte) (string, error) {
	units := make([]uint16, 0, len(data))
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b&0x80 == 0:
			units = append(units, uint16(b))
			i++
		case b&0xE0 == 0xC0:
			if i+1 >= len(data) || data[i+1]&0xC0 != 0x80 {
				return "", errors.Newf(CodeInvalidUTF8, "malformed 2-byte sequence at offset %d", i)
			}
			units = append(units, uint16(b&0x1F)<<6|uint16(data[i+1]&0x3F))
			i += 2
		case b&0xF0 == 0xE0:
			if i+2 >= len(data) || data[i+1]&0xC0 != 0x80 || data[i+2]&0xC0 != 0x80 {
				return "", errors.Newf(CodeInvalidUTF8, "malformed 3-byte sequence at offset %d", i)
			}
			units = append(units, uint16(b&0x0F)<<12|uint16(data[i+1]&0x3F)<<6|uint16(data[i+2]&0x3F))
			i += 3
		default:
			return "", errors.Newf(CodeInvalidUTF8, "invalid lead byte 0x%02X at offset %d", b, i)
		}
	}
	return string(utf16.Decode(units)), nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func writeBool(w io.Writer, b bool) error {
	if b {
		return writeByte(w, 1)
	}
	return writeByte(w, 0)
}

func writeUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func writeInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.New(CodeTruncated, "truncated value", err)
	}
	return buf[0], nil
}

func readBool(r io.Reader) (bool, error) {
	b, err := readByte(r)
	return b != 0, err
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.New(CodeTruncated, "truncated value", err)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.New(CodeTruncated, "truncated value", err)
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func readInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.New(CodeTruncated, "truncated value", err)
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}
