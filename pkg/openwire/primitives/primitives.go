// Package primitives implements the self-describing OpenWire container for
// primitive values: the typed maps used for message properties and wire
// format negotiation, and the typed lists used for stream message bodies.
//
// Values convert between types according to the JMS property conversion
// matrix: booleans and strings interconvert, numeric types widen upward,
// byte arrays convert to nothing else, and every scalar type converts to
// string. Invalid conversions fail with an error carrying
// CodeUnsupportedConversion.
package primitives

import (
	"strconv"
	"strings"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
)

// Type is the one-byte tag preceding every marshalled value.
type Type byte

// Wire tags for primitive values.
const (
	NullType      Type = 0
	BooleanType   Type = 1
	ByteType      Type = 2
	CharType      Type = 3
	ShortType     Type = 4
	IntegerType   Type = 5
	LongType      Type = 6
	DoubleType    Type = 7
	FloatType     Type = 8
	StringType    Type = 9
	ByteArrayType Type = 10
	MapType       Type = 11
	ListType      Type = 12
	BigStringType Type = 13
)

// Error codes for primitive value handling.
const (
	CodeUnsupportedConversion = "OPENWIRE_UNSUPPORTED_CONVERSION"
	CodeInvalidUTF8           = "OPENWIRE_INVALID_UTF8"
	CodeUnknownTag            = "OPENWIRE_UNKNOWN_TYPE"
	CodeTruncated             = "OPENWIRE_TRUNCATED"
)

// Value is one tagged primitive. Exactly the field selected by Type is
// meaningful.
type Value struct {
	Type   Type
	Bool   bool
	Byte   byte
	Char   uint16
	Short  int16
	Int    int32
	Long   int64
	Float  float32
	Double float64
	String string
	Bytes  []byte
	Map    Map
	List   List
}

// Map is the OpenWire primitive map: string keys to tagged values.
type Map map[string]Value

// List is the OpenWire primitive list.
type List []Value

func Null() Value               { return Value{Type: NullType} }
func NewBool(v bool) Value      { return Value{Type: BooleanType, Bool: v} }
func NewByte(v byte) Value      { return Value{Type: ByteType, Byte: v} }
func NewChar(v uint16) Value    { return Value{Type: CharType, Char: v} }
func NewShort(v int16) Value    { return Value{Type: ShortType, Short: v} }
func NewInt(v int32) Value      { return Value{Type: IntegerType, Int: v} }
func NewLong(v int64) Value     { return Value{Type: LongType, Long: v} }
func NewFloat(v float32) Value  { return Value{Type: FloatType, Float: v} }
func NewDouble(v float64) Value { return Value{Type: DoubleType, Double: v} }
func NewString(v string) Value  { return Value{Type: StringType, String: v} }
func NewBytes(v []byte) Value   { return Value{Type: ByteArrayType, Bytes: v} }
func NewMap(v Map) Value        { return Value{Type: MapType, Map: v} }
func NewList(v List) Value      { return Value{Type: ListType, List: v} }

func (v Value) IsNull() bool { return v.Type == NullType }

func errConversion(from Type, to string) error {
	return errors.Newf(CodeUnsupportedConversion, "cannot convert %s to %s", from.Name(), to)
}

// Name returns the JMS-ish name of the type for error messages.
func (t Type) Name() string {
	switch t {
	case NullType:
		return "null"
	case BooleanType:
		return "boolean"
	case ByteType:
		return "byte"
	case CharType:
		return "char"
	case ShortType:
		return "short"
	case IntegerType:
		return "int"
	case LongType:
		return "long"
	case DoubleType:
		return "double"
	case FloatType:
		return "float"
	case StringType, BigStringType:
		return "string"
	case ByteArrayType:
		return "byte[]"
	case MapType:
		return "map"
	case ListType:
		return "list"
	}
	return "unknown"
}

// AsBool converts per the matrix: boolean or string.
func (v Value) AsBool() (bool, error) {
	switch v.Type {
	case BooleanType:
		return v.Bool, nil
	case StringType, BigStringType:
		// JMS semantics: "true" in any letter case is true; any other
		// string is false.
		return strings.EqualFold(v.String, "true"), nil
	}
	return false, errConversion(v.Type, "boolean")
}

// AsByte converts per the matrix: byte or string.
func (v Value) AsByte() (byte, error) {
	switch v.Type {
	case ByteType:
		return v.Byte, nil
	case StringType, BigStringType:
		n, err := strconv.ParseInt(v.String, 10, 8)
		if err != nil {
			return 0, errConversion(v.Type, "byte")
		}
		return byte(n), nil
	}
	return 0, errConversion(v.Type, "byte")
}

// AsChar converts per the matrix: chars convert only to themselves and
// string.
func (v Value) AsChar() (uint16, error) {
	if v.Type == CharType {
		return v.Char, nil
	}
	return 0, errConversion(v.Type, "char")
}

// AsShort widens byte and parses string.
func (v Value) AsShort() (int16, error) {
	switch v.Type {
	case ByteType:
		return int16(v.Byte), nil
	case ShortType:
		return v.Short, nil
	case StringType, BigStringType:
		n, err := strconv.ParseInt(v.String, 10, 16)
		if err != nil {
			return 0, errConversion(v.Type, "short")
		}
		return int16(n), nil
	}
	return 0, errConversion(v.Type, "short")
}

// AsInt widens byte and short and parses string.
func (v Value) AsInt() (int32, error) {
	switch v.Type {
	case ByteType:
		return int32(v.Byte), nil
	case ShortType:
		return int32(v.Short), nil
	case IntegerType:
		return v.Int, nil
	case StringType, BigStringType:
		n, err := strconv.ParseInt(v.String, 10, 32)
		if err != nil {
			return 0, errConversion(v.Type, "int")
		}
		return int32(n), nil
	}
	return 0, errConversion(v.Type, "int")
}

// AsLong widens every smaller integer and parses string.
func (v Value) AsLong() (int64, error) {
	switch v.Type {
	case ByteType:
		return int64(v.Byte), nil
	case ShortType:
		return int64(v.Short), nil
	case IntegerType:
		return int64(v.Int), nil
	case LongType:
		return v.Long, nil
	case StringType, BigStringType:
		n, err := strconv.ParseInt(v.String, 10, 64)
		if err != nil {
			return 0, errConversion(v.Type, "long")
		}
		return n, nil
	}
	return 0, errConversion(v.Type, "long")
}

// AsFloat converts float or string.
func (v Value) AsFloat() (float32, error) {
	switch v.Type {
	case FloatType:
		return v.Float, nil
	case StringType, BigStringType:
		f, err := strconv.ParseFloat(v.String, 32)
		if err != nil {
			return 0, errConversion(v.Type, "float")
		}
		return float32(f), nil
	}
	return 0, errConversion(v.Type, "float")
}

// AsDouble widens float and parses string.
func (v Value) AsDouble() (float64, error) {
	switch v.Type {
	case FloatType:
		return float64(v.Float), nil
	case DoubleType:
		return v.Double, nil
	case StringType, BigStringType:
		f, err := strconv.ParseFloat(v.String, 64)
		if err != nil {
			return 0, errConversion(v.Type, "double")
		}
		return f, nil
	}
	return 0, errConversion(v.Type, "double")
}

// AsString converts every type except byte arrays, maps and lists.
func (v Value) AsString() (string, error) {
	switch v.Type {
	case NullType:
		return "", nil
	case BooleanType:
		return strconv.FormatBool(v.Bool), nil
	case ByteType:
		return strconv.FormatInt(int64(v.Byte), 10), nil
	case CharType:
		return string(rune(v.Char)), nil
	case ShortType:
		return strconv.FormatInt(int64(v.Short), 10), nil
	case IntegerType:
		return strconv.FormatInt(int64(v.Int), 10), nil
	case LongType:
		return strconv.FormatInt(v.Long, 10), nil
	case FloatType:
		return strconv.FormatFloat(float64(v.Float), 'g', -1, 32), nil
	case DoubleType:
		return strconv.FormatFloat(v.Double, 'g', -1, 64), nil
	case StringType, BigStringType:
		return v.String, nil
	}
	return "", errConversion(v.Type, "string")
}

// AsBytes converts only byte arrays.
func (v Value) AsBytes() ([]byte, error) {
	if v.Type == ByteArrayType {
		return v.Bytes, nil
	}
	return nil, errConversion(v.Type, "byte[]")
}

// Convenience map accessors used for negotiated wire format properties.

func (m Map) GetBool(key string, def bool) bool {
	if v, ok := m[key]; ok {
		if b, err := v.AsBool(); err == nil {
			return b
		}
	}
	return def
}

func (m Map) GetInt(key string, def int32) int32 {
	if v, ok := m[key]; ok {
		if n, err := v.AsInt(); err == nil {
			return n
		}
	}
	return def
}

func (m Map) GetLong(key string, def int64) int64 {
	if v, ok := m[key]; ok {
		if n, err := v.AsLong(); err == nil {
			return n
		}
	}
	return def
}

func (m Map) GetString(key string) string {
	if v, ok := m[key]; ok {
		if s, err := v.AsString(); err == nil {
			return s
		}
	}
	return ""
}
