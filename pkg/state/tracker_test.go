package state

import (
	"context"
	"testing"

	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []commands.Command
}

func (r *recordingSender) Oneway(ctx context.Context, cmd commands.Command) error {
	r.sent = append(r.sent, cmd)
	return nil
}

func buildConnection(t *Tracker) (*commands.ConnectionId, *commands.SessionId) {
	connectionId := &commands.ConnectionId{Value: "ID:host-1-1-1"}
	sessionId := &commands.SessionId{ConnectionId: connectionId.Value, Value: 1}
	t.Track(&commands.ConnectionInfo{ConnectionId: connectionId, ClientId: "c1"})
	t.Track(&commands.SessionInfo{SessionId: sessionId})
	return connectionId, sessionId
}

func TestReplayOrder(t *testing.T) {
	tracker := NewTracker(Options{})
	connectionId, _ := buildConnection(tracker)

	producerId := &commands.ProducerId{ConnectionId: connectionId.Value, SessionId: 1, Value: 1}
	consumerId := &commands.ConsumerId{ConnectionId: connectionId.Value, SessionId: 1, Value: 2}
	tracker.Track(&commands.ProducerInfo{ProducerId: producerId})
	tracker.Track(&commands.ConsumerInfo{ConsumerId: consumerId, Destination: commands.NewTopic("T")})

	tracker.TransportInterrupted()
	sender := &recordingSender{}
	require.NoError(t, tracker.Restore(context.Background(), sender))

	require.Len(t, sender.sent, 4)
	assert.IsType(t, &commands.ConnectionInfo{}, sender.sent[0])
	assert.IsType(t, &commands.SessionInfo{}, sender.sent[1])
	assert.IsType(t, &commands.ProducerInfo{}, sender.sent[2])
	assert.IsType(t, &commands.ConsumerInfo{}, sender.sent[3], "consumers replay last within a session")

	for _, cmd := range sender.sent {
		assert.False(t, cmd.IsResponseRequired(), "replayed commands never expect responses")
	}
}

func TestReplayOrderWithManySiblings(t *testing.T) {
	tracker := NewTracker(Options{})
	connectionId, _ := buildConnection(tracker)

	// Second session plus several producers and consumers per session,
	// interleaved the way an application would create them.
	secondSession := &commands.SessionId{ConnectionId: connectionId.Value, Value: 2}
	tracker.Track(&commands.SessionInfo{SessionId: secondSession})
	for _, sessionValue := range []int64{1, 2} {
		for _, value := range []int64{1, 2, 3} {
			tracker.Track(&commands.ProducerInfo{ProducerId: &commands.ProducerId{
				ConnectionId: connectionId.Value, SessionId: sessionValue, Value: value,
			}})
		}
		for _, value := range []int64{4, 5} {
			tracker.Track(&commands.ConsumerInfo{
				ConsumerId: &commands.ConsumerId{
					ConnectionId: connectionId.Value, SessionId: sessionValue, Value: value,
				},
				Destination: commands.NewQueue("Q"),
			})
		}
	}
	for _, txValue := range []int64{1, 2} {
		tracker.Track(&commands.TransactionInfo{
			ConnectionId:  connectionId,
			TransactionId: &commands.LocalTransactionId{ConnectionId: connectionId.Value, Value: txValue},
			Type:          commands.TransactionBegin,
		})
	}
	for _, name := range []string{"dest-a", "dest-b"} {
		tracker.Track(&commands.DestinationInfo{
			ConnectionId:  connectionId,
			Destination:   commands.NewQueue(name),
			OperationType: commands.DestinationAdd,
		})
	}

	flatten := func(sent []commands.Command) []string {
		var out []string
		for _, cmd := range sent {
			switch c := cmd.(type) {
			case *commands.ConnectionInfo:
				out = append(out, "connection")
			case *commands.SessionInfo:
				out = append(out, "session:"+c.SessionId.String())
			case *commands.ProducerInfo:
				out = append(out, "producer:"+c.ProducerId.String())
			case *commands.ConsumerInfo:
				out = append(out, "consumer:"+c.ConsumerId.String())
			case *commands.TransactionInfo:
				out = append(out, "tx:"+c.TransactionId.TransactionKey())
			case *commands.DestinationInfo:
				out = append(out, "destination:"+c.Destination.PhysicalName())
			}
		}
		return out
	}

	want := []string{
		"connection",
		"session:" + connectionId.Value + ":1",
		"producer:" + connectionId.Value + ":1:1",
		"producer:" + connectionId.Value + ":1:2",
		"producer:" + connectionId.Value + ":1:3",
		"consumer:" + connectionId.Value + ":1:4",
		"consumer:" + connectionId.Value + ":1:5",
		"session:" + connectionId.Value + ":2",
		"producer:" + connectionId.Value + ":2:1",
		"producer:" + connectionId.Value + ":2:2",
		"producer:" + connectionId.Value + ":2:3",
		"consumer:" + connectionId.Value + ":2:4",
		"consumer:" + connectionId.Value + ":2:5",
		"tx:TX:" + connectionId.Value + ":1",
		"tx:TX:" + connectionId.Value + ":2",
		"destination:dest-a",
		"destination:dest-b",
	}

	// Every reconnect must see the same creation-ordered program.
	for attempt := 0; attempt < 3; attempt++ {
		sender := &recordingSender{}
		require.NoError(t, tracker.Restore(context.Background(), sender))
		assert.Equal(t, want, flatten(sender.sent), "attempt %d", attempt)
	}
}

func TestReplayIncludesOpenTransactions(t *testing.T) {
	tracker := NewTracker(Options{})
	connectionId, _ := buildConnection(tracker)

	txid := &commands.LocalTransactionId{ConnectionId: connectionId.Value, Value: 1}
	tracker.Track(&commands.TransactionInfo{ConnectionId: connectionId, TransactionId: txid, Type: commands.TransactionBegin})

	producerId := &commands.ProducerId{ConnectionId: connectionId.Value, SessionId: 1, Value: 1}
	tracker.Track(&commands.ProducerInfo{ProducerId: producerId})

	msg := commands.NewTextMessage("in tx")
	msg.ProducerId = producerId
	msg.TransactionId = txid
	msg.MessageId = &commands.MessageId{ProducerId: producerId, ProducerSequenceId: 1}
	tracker.Track(msg)

	ack := &commands.MessageAck{TransactionId: txid, AckType: commands.AckStandard}
	tracker.Track(ack)

	sender := &recordingSender{}
	require.NoError(t, tracker.Restore(context.Background(), sender))

	// connection, session, producer, then BEGIN followed by the recorded
	// transaction commands in order.
	var beginIdx, msgIdx, ackIdx int
	for i, cmd := range sender.sent {
		switch c := cmd.(type) {
		case *commands.TransactionInfo:
			assert.Equal(t, commands.TransactionBegin, c.Type)
			beginIdx = i
		case *commands.TextMessage:
			msgIdx = i
		case *commands.MessageAck:
			ackIdx = i
		}
	}
	assert.Less(t, beginIdx, msgIdx)
	assert.Less(t, msgIdx, ackIdx)
}

func TestCommittedTransactionsAreNotReplayed(t *testing.T) {
	tracker := NewTracker(Options{})
	connectionId, _ := buildConnection(tracker)

	txid := &commands.LocalTransactionId{ConnectionId: connectionId.Value, Value: 1}
	tracker.Track(&commands.TransactionInfo{ConnectionId: connectionId, TransactionId: txid, Type: commands.TransactionBegin})
	tracker.Track(&commands.TransactionInfo{ConnectionId: connectionId, TransactionId: txid, Type: commands.TransactionCommitOnePhase})

	sender := &recordingSender{}
	require.NoError(t, tracker.Restore(context.Background(), sender))
	for _, cmd := range sender.sent {
		_, isTx := cmd.(*commands.TransactionInfo)
		assert.False(t, isTx, "completed transaction must not replay")
	}
}

func TestRemoveCascades(t *testing.T) {
	tracker := NewTracker(Options{})
	connectionId, sessionId := buildConnection(tracker)

	producerId := &commands.ProducerId{ConnectionId: connectionId.Value, SessionId: 1, Value: 1}
	tracker.Track(&commands.ProducerInfo{ProducerId: producerId})

	// Removing the session removes its children with it.
	tracker.Track(&commands.RemoveInfo{ObjectId: sessionId})
	sender := &recordingSender{}
	require.NoError(t, tracker.Restore(context.Background(), sender))
	require.Len(t, sender.sent, 1)
	assert.IsType(t, &commands.ConnectionInfo{}, sender.sent[0])

	// Removing the connection empties the tracker.
	tracker.Track(&commands.RemoveInfo{ObjectId: connectionId})
	sender = &recordingSender{}
	require.NoError(t, tracker.Restore(context.Background(), sender))
	assert.Empty(t, sender.sent)
}

func TestTrackedDestinationsReplay(t *testing.T) {
	tracker := NewTracker(Options{})
	connectionId, _ := buildConnection(tracker)

	tempQueue := commands.NewTempQueue(connectionId.Value, 1)
	tracker.Track(&commands.DestinationInfo{
		ConnectionId:  connectionId,
		Destination:   tempQueue,
		OperationType: commands.DestinationAdd,
	})

	sender := &recordingSender{}
	require.NoError(t, tracker.Restore(context.Background(), sender))
	var found bool
	for _, cmd := range sender.sent {
		if info, ok := cmd.(*commands.DestinationInfo); ok {
			assert.Equal(t, tempQueue.PhysicalName(), info.Destination.PhysicalName())
			found = true
		}
	}
	assert.True(t, found)
}

func TestMessageAuditSuppressesAckedSends(t *testing.T) {
	tracker := NewTracker(Options{TrackMessages: true, MaxCacheSize: 1 << 20})
	connectionId, _ := buildConnection(tracker)

	producerId := &commands.ProducerId{ConnectionId: connectionId.Value, SessionId: 1, Value: 1}
	tracker.Track(&commands.ProducerInfo{ProducerId: producerId})

	send := func(seq int64) *commands.TextMessage {
		msg := commands.NewTextMessage("m")
		msg.ProducerId = producerId
		msg.MessageId = &commands.MessageId{ProducerId: producerId, ProducerSequenceId: seq}
		tracker.Track(msg)
		return msg
	}
	send(1)
	send(2)

	// The broker producer-acks the window; both sends are settled.
	tracker.OnProducerAck(&commands.ProducerAck{ProducerId: producerId, Size: 128})
	third := send(3)

	sender := &recordingSender{}
	require.NoError(t, tracker.Restore(context.Background(), sender))

	var replayed []*commands.TextMessage
	for _, cmd := range sender.sent {
		if msg, ok := cmd.(*commands.TextMessage); ok {
			replayed = append(replayed, msg)
		}
	}
	require.Len(t, replayed, 1, "only the unacked send replays")
	assert.True(t, replayed[0].MessageId.Equal(third.MessageId))
}

func TestInterruptedTrackerIgnoresMutations(t *testing.T) {
	tracker := NewTracker(Options{})
	connectionId, _ := buildConnection(tracker)
	tracker.TransportInterrupted()

	// Mutations during reconnect must not corrupt the pre-interruption
	// snapshot.
	tracker.Track(&commands.RemoveInfo{ObjectId: connectionId})

	sender := &recordingSender{}
	require.NoError(t, tracker.Restore(context.Background(), sender))
	require.NotEmpty(t, sender.sent)
	assert.IsType(t, &commands.ConnectionInfo{}, sender.sent[0])
}
