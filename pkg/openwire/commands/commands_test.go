package commands_test

import (
	"io"
	"testing"

	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdCanonicalForms(t *testing.T) {
	connection := &commands.ConnectionId{Value: "ID:host-123-456-1"}
	session := &commands.SessionId{ConnectionId: connection.Value, Value: 1}
	producer := &commands.ProducerId{ConnectionId: connection.Value, SessionId: 1, Value: 2}
	message := &commands.MessageId{ProducerId: producer, ProducerSequenceId: 9}

	assert.Equal(t, "ID:host-123-456-1", connection.String())
	assert.Equal(t, "ID:host-123-456-1:1", session.String())
	assert.Equal(t, "ID:host-123-456-1:1:2", producer.String())
	assert.Equal(t, "ID:host-123-456-1:1:2:9", message.String())
}

func TestMessageIdEquality(t *testing.T) {
	producer := &commands.ProducerId{ConnectionId: "ID:a-1", SessionId: 1, Value: 1}
	a := &commands.MessageId{ProducerId: producer, ProducerSequenceId: 5}
	b := &commands.MessageId{ProducerId: &commands.ProducerId{ConnectionId: "ID:a-1", SessionId: 1, Value: 1}, ProducerSequenceId: 5, BrokerSequenceId: 77}
	c := &commands.MessageId{ProducerId: producer, ProducerSequenceId: 6}

	assert.True(t, a.Equal(b), "broker sequence is not part of the identity")
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestCompositeDestinations(t *testing.T) {
	composite := commands.NewQueue("orders,invoices,audit")
	assert.True(t, composite.IsComposite())
	assert.Equal(t, []string{"orders", "invoices", "audit"}, composite.CompositeNames())

	plain := commands.NewTopic("events")
	assert.False(t, plain.IsComposite())
	assert.Equal(t, []string{"events"}, plain.CompositeNames())
}

func TestTempDestinationOwnership(t *testing.T) {
	temp := commands.NewTempQueue("ID:host-1-2-3", 4)
	assert.Equal(t, "ID:host-1-2-3:4", temp.PhysicalName())
	assert.Equal(t, "ID:host-1-2-3", commands.TempDestinationOwner(temp))
	assert.True(t, temp.IsTemporary())
	assert.Empty(t, commands.TempDestinationOwner(commands.NewQueue("not-temp")))
}

func TestTextMessageBody(t *testing.T) {
	msg := commands.NewTextMessage("payload with ünïcode")
	text, err := msg.Text()
	require.NoError(t, err)
	assert.Equal(t, "payload with ünïcode", text)
}

func TestCompressedBodyRoundTrip(t *testing.T) {
	msg := &commands.Message{}
	body := []byte("squeeze me squeeze me squeeze me squeeze me")
	require.NoError(t, msg.SetBodyBytes(body, true))
	assert.True(t, msg.Compressed)
	assert.NotEqual(t, body, msg.Content)

	out, err := msg.BodyBytes()
	require.NoError(t, err)
	assert.Equal(t, body, out)
}

func TestMessageProperties(t *testing.T) {
	msg := &commands.Message{}
	require.NoError(t, msg.SetProperty("retries", primitives.NewInt(3)))
	require.NoError(t, msg.BeforeMarshal())
	require.NotEmpty(t, msg.MarshalledProperties)

	// A received copy decodes the same map lazily.
	received := &commands.Message{MarshalledProperties: msg.MarshalledProperties}
	props, err := received.Properties()
	require.NoError(t, err)
	n, err := props["retries"].AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(3), n)
}

func TestMapMessageBody(t *testing.T) {
	msg := &commands.MapMessage{}
	require.NoError(t, msg.SetBody(primitives.Map{
		"name":  primitives.NewString("order-1"),
		"total": primitives.NewDouble(19.99),
	}))
	body, err := msg.Body()
	require.NoError(t, err)
	assert.Equal(t, "order-1", body.GetString("name"))
}

func TestStreamMessageCursor(t *testing.T) {
	msg := &commands.StreamMessage{}
	require.NoError(t, msg.WriteValue(primitives.NewBool(true)))
	require.NoError(t, msg.WriteValue(primitives.NewLong(99)))
	require.NoError(t, msg.WriteValue(primitives.NewString("tail")))

	v, err := msg.ReadValue()
	require.NoError(t, err)
	b, err := v.AsBool()
	require.NoError(t, err)
	assert.True(t, b)

	v, err = msg.ReadValue()
	require.NoError(t, err)
	n, err := v.AsLong()
	require.NoError(t, err)
	assert.Equal(t, int64(99), n)

	v, err = msg.ReadValue()
	require.NoError(t, err)
	s, err := v.AsString()
	require.NoError(t, err)
	assert.Equal(t, "tail", s)

	_, err = msg.ReadValue()
	assert.Equal(t, io.EOF, err)

	msg.ResetRead()
	v, err = msg.ReadValue()
	require.NoError(t, err)
	b, err = v.AsBool()
	require.NoError(t, err)
	assert.True(t, b)
}

func TestMessageExpiration(t *testing.T) {
	msg := &commands.Message{Expiration: 1000}
	assert.False(t, msg.IsExpired(999))
	assert.True(t, msg.IsExpired(1001))
	assert.False(t, (&commands.Message{}).IsExpired(1<<60), "zero expiration never expires")
}
