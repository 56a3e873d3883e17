package commands

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/primitives"
)

// Message carries one application message. The same field set backs the
// five body-typed variants; only the wire type code and the interpretation
// of Content differ.
type Message struct {
	BaseCommand
	ProducerId            *ProducerId
	Destination           Destination
	TransactionId         TransactionId
	OriginalDestination   Destination
	MessageId             *MessageId
	OriginalTransactionId TransactionId
	GroupId               string
	GroupSequence         int32
	CorrelationId         string
	Persistent            bool
	Expiration            int64
	Priority              byte
	ReplyTo               Destination
	Timestamp             int64
	Type                  string
	Content               []byte
	MarshalledProperties  []byte
	DataStructure         DataStructure
	TargetConsumerId      *ConsumerId
	Compressed            bool
	RedeliveryCounter     int32
	BrokerPath            []*BrokerId
	Arrival               int64
	UserId                string
	RecievedByDFBridge    bool
	Droppable             bool
	Cluster               []*BrokerId
	BrokerInTime          int64
	BrokerOutTime         int64

	properties primitives.Map
}

func (m *Message) DataStructureType() byte { return TypeMessage }

// GetMessage returns the shared field set from any of the body-typed
// variants.
func (m *Message) GetMessage() *Message { return m }

// MessageVariant is satisfied by Message and all five body-typed variants.
type MessageVariant interface {
	Command
	GetMessage() *Message
}

// Properties returns the decoded property map, unmarshalling it on first
// access.
func (m *Message) Properties() (primitives.Map, error) {
	if m.properties == nil {
		decoded, err := primitives.UnmarshalMap(m.MarshalledProperties)
		if err != nil {
			return nil, err
		}
		m.properties = decoded
	}
	return m.properties, nil
}

// SetProperty sets one property, decoding the existing map first if needed.
func (m *Message) SetProperty(key string, value primitives.Value) error {
	props, err := m.Properties()
	if err != nil {
		return err
	}
	props[key] = value
	return nil
}

// BeforeMarshal flushes the decoded property map back into its wire form.
func (m *Message) BeforeMarshal() error {
	if m.properties == nil {
		return nil
	}
	if len(m.properties) == 0 {
		m.MarshalledProperties = nil
		return nil
	}
	marshalled, err := primitives.MarshalMap(m.properties)
	if err != nil {
		return err
	}
	m.MarshalledProperties = marshalled
	return nil
}

// AfterUnmarshal resets the lazy property cache.
func (m *Message) AfterUnmarshal() error {
	m.properties = nil
	return nil
}

// IsExpired reports whether the message has outlived its expiration, given
// the current time in milliseconds since the epoch.
func (m *Message) IsExpired(nowMillis int64) bool {
	return m.Expiration > 0 && nowMillis > m.Expiration
}

// BodyBytes returns the content with compression undone.
func (m *Message) BodyBytes() ([]byte, error) {
	if !m.Compressed {
		return m.Content, nil
	}
	if len(m.Content) < 4 {
		return nil, errors.Newf(primitives.CodeTruncated, "compressed body too short: %d bytes", len(m.Content))
	}
	// Compressed content is a u32 uncompressed length followed by a zlib
	// stream.
	r, err := zlib.NewReader(bytes.NewReader(m.Content[4:]))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open compressed message body")
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to inflate message body")
	}
	return body, nil
}

// SetBodyBytes stores the content, compressing it when compress is set.
func (m *Message) SetBodyBytes(body []byte, compress bool) error {
	if !compress {
		m.Content = body
		m.Compressed = false
		return nil
	}
	var buf bytes.Buffer
	var lengthPrefix [4]byte
	binary.BigEndian.PutUint32(lengthPrefix[:], uint32(len(body)))
	buf.Write(lengthPrefix[:])
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		w.Close()
		return errors.Wrap(err, "failed to compress message body")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "failed to compress message body")
	}
	m.Content = buf.Bytes()
	m.Compressed = true
	return nil
}

// TextMessage carries a single string body, stored as a u32-length-prefixed
// modified UTF-8 blob.
type TextMessage struct {
	Message
}

func NewTextMessage(text string) *TextMessage {
	m := &TextMessage{}
	m.SetText(text) //nolint:errcheck // encoding a fresh string cannot fail
	return m
}

func (m *TextMessage) DataStructureType() byte { return TypeTextMessage }

func (m *TextMessage) Text() (string, error) {
	body, err := m.BodyBytes()
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", nil
	}
	if len(body) < 4 {
		return "", errors.Newf(primitives.CodeTruncated, "text body too short: %d bytes", len(body))
	}
	size := binary.BigEndian.Uint32(body)
	if int(size) > len(body)-4 {
		return "", errors.Newf(primitives.CodeTruncated, "text body declares %d bytes, has %d", size, len(body)-4)
	}
	return primitives.DecodeModifiedUTF8(body[4 : 4+size])
}

func (m *TextMessage) SetText(text string) error {
	encoded := primitives.EncodeModifiedUTF8(text)
	body := make([]byte, 4+len(encoded))
	binary.BigEndian.PutUint32(body, uint32(len(encoded)))
	copy(body[4:], encoded)
	return m.SetBodyBytes(body, m.Compressed)
}

// BytesMessage carries an opaque byte body.
type BytesMessage struct {
	Message
}

func NewBytesMessage(body []byte) *BytesMessage {
	m := &BytesMessage{}
	m.Content = body
	return m
}

func (m *BytesMessage) DataStructureType() byte { return TypeBytesMessage }

// ObjectMessage carries a serialized object opaque to this client.
type ObjectMessage struct {
	Message
}

func (m *ObjectMessage) DataStructureType() byte { return TypeObjectMessage }

// MapMessage carries a primitive map body.
type MapMessage struct {
	Message
}

func (m *MapMessage) DataStructureType() byte { return TypeMapMessage }

// Body decodes the map body.
func (m *MapMessage) Body() (primitives.Map, error) {
	body, err := m.BodyBytes()
	if err != nil {
		return nil, err
	}
	return primitives.UnmarshalMap(body)
}

// SetBody encodes the map body.
func (m *MapMessage) SetBody(body primitives.Map) error {
	marshalled, err := primitives.MarshalMap(body)
	if err != nil {
		return err
	}
	return m.SetBodyBytes(marshalled, m.Compressed)
}

// StreamMessage carries a sequence of tagged primitive values read back in
// write order.
type StreamMessage struct {
	Message
	readOffset int
}

func (m *StreamMessage) DataStructureType() byte { return TypeStreamMessage }

// WriteValue appends one value to the stream body.
func (m *StreamMessage) WriteValue(v primitives.Value) error {
	body, err := m.BodyBytes()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Write(body)
	if err := primitives.WriteValue(&buf, v); err != nil {
		return err
	}
	return m.SetBodyBytes(buf.Bytes(), m.Compressed)
}

// ReadValue reads the next value, or io.EOF at the end of the stream.
func (m *StreamMessage) ReadValue() (primitives.Value, error) {
	body, err := m.BodyBytes()
	if err != nil {
		return primitives.Value{}, err
	}
	if m.readOffset >= len(body) {
		return primitives.Value{}, io.EOF
	}
	r := bytes.NewReader(body[m.readOffset:])
	v, err := primitives.ReadValue(r)
	if err != nil {
		return primitives.Value{}, err
	}
	m.readOffset = len(body) - r.Len()
	return v, nil
}

// ResetRead rewinds the read cursor to the start of the stream.
func (m *StreamMessage) ResetRead() {
	m.readOffset = 0
}
