package openwire

import (
	"bytes"
	"testing"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// negotiatedPair returns two codecs that have exchanged WireFormatInfo, as
// a connected client and broker would.
func negotiatedPair(t *testing.T, opts Options) (sender, receiver *WireFormat) {
	t.Helper()
	sender = NewWireFormat(opts)
	receiver = NewWireFormat(opts)
	senderInfo, err := sender.PreferredWireFormatInfo()
	require.NoError(t, err)
	receiverInfo, err := receiver.PreferredWireFormatInfo()
	require.NoError(t, err)
	require.NoError(t, sender.Renegotiate(receiverInfo))
	require.NoError(t, receiver.Renegotiate(senderInfo))
	return sender, receiver
}

func sampleCommands() []commands.Command {
	connectionId := &commands.ConnectionId{Value: "ID:host-1-100-1"}
	sessionId := &commands.SessionId{ConnectionId: connectionId.Value, Value: 1}
	producerId := &commands.ProducerId{ConnectionId: connectionId.Value, SessionId: 1, Value: 2}
	consumerId := &commands.ConsumerId{ConnectionId: connectionId.Value, SessionId: 1, Value: 3}
	queue := commands.NewQueue("orders")
	topic := commands.NewTopic("events")
	messageId := &commands.MessageId{ProducerId: producerId, ProducerSequenceId: 7}
	localTx := &commands.LocalTransactionId{ConnectionId: connectionId.Value, Value: 9}
	xaTx := &commands.XATransactionId{FormatId: 0x51246, GlobalTransactionId: []byte{1, 2, 3}, BranchQualifier: []byte{4, 5}}

	text := commands.NewTextMessage("hello broker")
	text.ProducerId = producerId
	text.Destination = queue
	text.MessageId = messageId
	text.Persistent = true
	text.Priority = 4
	text.Timestamp = 1700000000000
	text.GroupId = "group-a"
	text.GroupSequence = 3
	text.CorrelationId = "corr-1"
	text.ReplyTo = topic

	return []commands.Command{
		&commands.ConnectionInfo{
			ConnectionId: connectionId,
			ClientId:     "client-1",
			UserName:     "admin",
			Password:     "admin",
			Manageable:   true,
			BrokerPath:   []*commands.BrokerId{{Value: "broker-a"}, {Value: "broker-b"}},
		},
		&commands.SessionInfo{SessionId: sessionId},
		&commands.ConsumerInfo{
			ConsumerId:   consumerId,
			Destination:  topic,
			PrefetchSize: 1000,
			Selector:     "color = 'red'",
			NoLocal:      true,
			Priority:     5,
		},
		&commands.ProducerInfo{ProducerId: producerId, Destination: queue, WindowSize: 65536},
		&commands.TransactionInfo{ConnectionId: connectionId, TransactionId: localTx, Type: commands.TransactionBegin},
		&commands.TransactionInfo{ConnectionId: connectionId, TransactionId: xaTx, Type: commands.TransactionPrepare},
		&commands.DestinationInfo{ConnectionId: connectionId, Destination: queue, OperationType: commands.DestinationAdd, Timeout: 5000},
		&commands.RemoveInfo{ObjectId: consumerId, LastDeliveredSequenceId: 41},
		&commands.RemoveSubscriptionInfo{ConnectionId: connectionId, SubscriptionName: "sub-1", ClientId: "client-1"},
		&commands.MessageAck{
			Destination:    queue,
			ConsumerId:     consumerId,
			AckType:        commands.AckStandard,
			FirstMessageId: messageId,
			LastMessageId:  messageId,
			MessageCount:   1,
		},
		&commands.MessageDispatch{ConsumerId: consumerId, Destination: queue, Message: text, RedeliveryCounter: 2},
		&commands.MessagePull{ConsumerId: consumerId, Destination: queue, Timeout: 1500, CorrelationId: "pull-1"},
		&commands.ProducerAck{ProducerId: producerId, Size: 4096},
		&commands.KeepAliveInfo{},
		&commands.ShutdownInfo{},
		&commands.FlushCommand{},
		&commands.ControlCommand{Command: "shutdown"},
		&commands.ConnectionControl{FaultTolerant: true, ConnectedBrokers: "tcp://a:61616,tcp://b:61616"},
		&commands.ConsumerControl{ConsumerId: consumerId, Destination: queue, Prefetch: 100, Start: true},
		&commands.BrokerInfo{
			BrokerId:   &commands.BrokerId{Value: "broker-a"},
			BrokerURL:  "tcp://localhost:61616",
			BrokerName: "localhost",
		},
		&commands.Response{CorrelationId: 12},
		&commands.ExceptionResponse{
			CorrelationId: 13,
			Exception: &commands.BrokerError{
				ExceptionClass: "java.lang.SecurityException",
				Message:        "not authorized",
			},
		},
		&commands.DataResponse{CorrelationId: 14, Data: sessionId},
		&commands.DataArrayResponse{CorrelationId: 15, Data: []commands.DataStructure{xaTx}},
		&commands.IntegerResponse{CorrelationId: 16, Result: commands.XAOk},
	}
}

func roundTrip(t *testing.T, sender, receiver *WireFormat, cmd commands.Command) commands.Command {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, sender.Marshal(cmd, &buf))
	decoded, err := receiver.Unmarshal(&buf)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Zero(t, buf.Len(), "decoder must consume exactly one frame")
	result, ok := decoded.(commands.Command)
	require.True(t, ok)
	return result
}

func TestRoundTripLooseEncoding(t *testing.T) {
	opts := DefaultOptions()
	opts.TightEncodingEnabled = false
	sender, receiver := negotiatedPair(t, opts)
	for _, cmd := range sampleCommands() {
		assert.Equal(t, cmd, roundTrip(t, sender, receiver, cmd), "type %d", cmd.DataStructureType())
	}
}

func TestRoundTripBeforeNegotiation(t *testing.T) {
	// Fresh codecs speak conservative version-1 loose encoding; commands
	// restricted to version-1 fields survive unchanged.
	sender := NewWireFormat(DefaultOptions())
	receiver := NewWireFormat(DefaultOptions())

	text := commands.NewTextMessage("early")
	text.ProducerId = &commands.ProducerId{ConnectionId: "ID:x-1", SessionId: 1, Value: 1}
	text.MessageId = &commands.MessageId{ProducerId: text.ProducerId, ProducerSequenceId: 1}
	text.Persistent = true

	early := []commands.Command{
		commands.NewWireFormatInfo(CurrentVersion),
		&commands.SessionInfo{SessionId: &commands.SessionId{ConnectionId: "ID:x-1", Value: 1}},
		&commands.KeepAliveInfo{},
		&commands.Response{CorrelationId: 5},
		text,
	}
	for _, cmd := range early {
		assert.Equal(t, cmd, roundTrip(t, sender, receiver, cmd), "type %d", cmd.DataStructureType())
	}
}

func TestBrokerErrorStackTraceRoundTrip(t *testing.T) {
	sender, receiver := negotiatedPair(t, DefaultOptions())
	response := &commands.ExceptionResponse{
		CorrelationId: 21,
		Exception: &commands.BrokerError{
			ExceptionClass: "java.lang.SecurityException",
			Message:        "not authorized",
			StackTrace: []commands.StackTraceElement{
				{ClassName: "org.apache.Broker", MethodName: "addConnection", FileName: "Broker.java", LineNumber: 42},
			},
			Cause: &commands.BrokerError{ExceptionClass: "java.lang.Exception", Message: "root"},
		},
	}
	assert.Equal(t, response, roundTrip(t, sender, receiver, response))
}

func TestRoundTripTightEncoding(t *testing.T) {
	sender, receiver := negotiatedPair(t, DefaultOptions())
	for _, cmd := range sampleCommands() {
		assert.Equal(t, cmd, roundTrip(t, sender, receiver, cmd), "type %d", cmd.DataStructureType())
	}
}

func TestRoundTripTightWithoutCache(t *testing.T) {
	opts := DefaultOptions()
	opts.CacheEnabled = false
	sender, receiver := negotiatedPair(t, opts)
	for _, cmd := range sampleCommands() {
		assert.Equal(t, cmd, roundTrip(t, sender, receiver, cmd), "type %d", cmd.DataStructureType())
	}
}

func TestCacheTransparency(t *testing.T) {
	// The same command sequence decoded through a cached stream and a
	// cache-free stream must be identical; repeated identifiers hit the
	// cache from the second frame on.
	cached, cachedReceiver := negotiatedPair(t, DefaultOptions())

	uncachedOpts := DefaultOptions()
	uncachedOpts.CacheEnabled = false
	plain, plainReceiver := negotiatedPair(t, uncachedOpts)

	sequence := sampleCommands()
	// Marshal the sequence twice so every cacheable identifier recurs.
	var withCache, withoutCache []commands.Command
	for i := 0; i < 2; i++ {
		for _, cmd := range sequence {
			withCache = append(withCache, roundTrip(t, cached, cachedReceiver, cmd))
			withoutCache = append(withoutCache, roundTrip(t, plain, plainReceiver, cmd))
		}
	}
	assert.Equal(t, withoutCache, withCache)
}

func TestCachedFramesShrink(t *testing.T) {
	sender, receiver := negotiatedPair(t, DefaultOptions())
	info := sampleCommands()[0]

	var first, second bytes.Buffer
	require.NoError(t, sender.Marshal(info, &first))
	require.NoError(t, sender.Marshal(info, &second))
	assert.Less(t, second.Len(), first.Len(), "second marshal should reference the identifier cache")

	_, err := receiver.Decode(first.Bytes()[4:])
	require.NoError(t, err)
	decoded, err := receiver.Decode(second.Bytes()[4:])
	require.NoError(t, err)
	assert.Equal(t, info, decoded)
}

func TestFrameSelfDelimitation(t *testing.T) {
	sender, receiver := negotiatedPair(t, DefaultOptions())
	cmds := sampleCommands()

	var wire bytes.Buffer
	require.NoError(t, sender.Marshal(cmds[0], &wire))
	require.NoError(t, sender.Marshal(cmds[1], &wire))

	first, err := receiver.Unmarshal(&wire)
	require.NoError(t, err)
	assert.Equal(t, cmds[0], first)

	second, err := receiver.Unmarshal(&wire)
	require.NoError(t, err)
	assert.Equal(t, cmds[1], second)
	assert.Zero(t, wire.Len())
}

func TestOversizedFrameRejected(t *testing.T) {
	wf := NewWireFormat(DefaultOptions())
	// Header claiming a 200 MiB frame; no body follows, and none must be
	// read or allocated.
	header := []byte{0x0C, 0x80, 0x00, 0x00}
	_, err := wf.Unmarshal(bytes.NewReader(header))
	require.Error(t, err)
	assert.Equal(t, CodeFrameTooLarge, errors.Code(err))
}

func TestUnknownTypeTagRejected(t *testing.T) {
	wf := NewWireFormat(DefaultOptions())
	frame := []byte{0, 0, 0, 1, 0xEF}
	_, err := wf.Unmarshal(bytes.NewReader(frame))
	require.Error(t, err)
	assert.Equal(t, CodeUnknownType, errors.Code(err))
}

func TestNullFrame(t *testing.T) {
	wf := NewWireFormat(DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, wf.Marshal(nil, &buf))
	decoded, err := wf.Unmarshal(&buf)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestBadMagicRejected(t *testing.T) {
	wf := NewWireFormat(DefaultOptions())
	peer := commands.NewWireFormatInfo(CurrentVersion)
	peer.Magic = []byte("NotAMQ!!")
	err := wf.Renegotiate(peer)
	require.Error(t, err)
	assert.Equal(t, CodeBadMagic, errors.Code(err))
}

func TestNegotiationTakesMinimum(t *testing.T) {
	ours := DefaultOptions()
	ours.MaxInactivityDuration = 30 * time.Second
	ours.CacheSize = 1024
	wf := NewWireFormat(ours)

	theirs := DefaultOptions()
	theirs.MaxInactivityDuration = 2 * time.Second
	theirs.CacheSize = 128
	peerInfo, err := NewWireFormat(theirs).PreferredWireFormatInfo()
	require.NoError(t, err)
	// An older peer drags the version down.
	peerInfo.Version = 3

	require.NoError(t, wf.Renegotiate(peerInfo))
	assert.Equal(t, int32(3), wf.Version())
	assert.Equal(t, 2*time.Second, wf.MaxInactivityDuration())

	wf.mu.Lock()
	assert.True(t, wf.tightEncoding)
	assert.True(t, wf.cacheEnabled)
	assert.Equal(t, int32(128), wf.cacheSize)
	wf.mu.Unlock()
}

func TestCacheMissReferenceRejected(t *testing.T) {
	_, receiver := negotiatedPair(t, DefaultOptions())
	// A loose-encoded SessionInfo whose session id claims a cache hit on a
	// slot the receiver never saw assigned.
	w := NewWriter()
	w.WriteByte(commands.TypeSessionInfo)
	w.WriteInt32(1)     // commandId
	w.WriteBool(false)  // responseRequired
	w.WriteBool(false)  // cached object: hit
	w.WriteUint16(0x33) // unassigned slot
	receiver.mu.Lock()
	receiver.tightEncoding = false
	receiver.mu.Unlock()
	_, err := receiver.Decode(w.Bytes())
	require.Error(t, err)
	assert.Equal(t, CodeCacheMiss, errors.Code(err))
}

func TestVersionedFieldsRoundTripOnOldVersions(t *testing.T) {
	for _, version := range []int32{1, 2, 3, 4, 5, 6} {
		sender := NewWireFormat(DefaultOptions())
		receiver := NewWireFormat(DefaultOptions())
		sender.mu.Lock()
		sender.version = version
		sender.mu.Unlock()
		receiver.mu.Lock()
		receiver.version = version
		receiver.mu.Unlock()

		msg := commands.NewTextMessage("versioned")
		msg.ProducerId = &commands.ProducerId{ConnectionId: "ID:x-1", SessionId: 1, Value: 1}
		msg.MessageId = &commands.MessageId{ProducerId: msg.ProducerId, ProducerSequenceId: 1}
		msg.BrokerInTime = 111
		msg.BrokerOutTime = 222
		msg.Droppable = true

		decoded := roundTrip(t, sender, receiver, msg)
		text, ok := decoded.(*commands.TextMessage)
		require.True(t, ok)
		body, err := text.Text()
		require.NoError(t, err)
		assert.Equal(t, "versioned", body)
		if version >= 3 {
			assert.Equal(t, int64(111), text.BrokerInTime, "version %d", version)
		} else {
			assert.Zero(t, text.BrokerInTime, "version %d drops the field", version)
		}
	}
}
