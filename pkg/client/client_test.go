package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/client"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/chris-alexander-pop/openwire-client/pkg/transport/adapters/mock"
	"github.com/stretchr/testify/suite"
)

// ClientSuite runs the client against the mock broker transport.
type ClientSuite struct {
	suite.Suite
	address string
	conn    *client.Connection
	broker  *mock.Transport
}

func (s *ClientSuite) connect(address string) {
	s.address = address
	cfg, err := client.DefaultConfig()
	s.Require().NoError(err)
	cfg.Redelivery.InitialRedeliveryDelay = 0
	cfg.Redelivery.MaximumRedeliveries = 2

	conn, err := client.ConnectWithConfig("mock://"+address, cfg)
	s.Require().NoError(err)
	s.conn = conn
	s.broker = mock.Lookup(address)
	s.Require().NotNil(s.broker)
}

func (s *ClientSuite) TearDownTest() {
	if s.conn != nil {
		s.conn.Close() //nolint:errcheck
		s.conn = nil
	}
}

// consumerIdFor mirrors the deterministic id sequence of a fresh
// connection: first session, first consumer.
func (s *ClientSuite) consumerIdFor(session int64, value int64) *commands.ConsumerId {
	return &commands.ConsumerId{
		ConnectionId: s.conn.ConnectionId(),
		SessionId:    session,
		Value:        value,
	}
}

func (s *ClientSuite) injectText(consumerId *commands.ConsumerId, destination commands.Destination, seq int64, text string) {
	msg := commands.NewTextMessage(text)
	msg.Destination = destination
	msg.MessageId = &commands.MessageId{
		ProducerId:         &commands.ProducerId{ConnectionId: "ID:broker-producer", SessionId: 1, Value: 1},
		ProducerSequenceId: seq,
		BrokerSequenceId:   seq,
	}
	s.broker.Inject(&commands.MessageDispatch{
		ConsumerId:  consumerId,
		Destination: destination,
		Message:     msg,
	})
}

func textOf(s *suite.Suite, msg commands.MessageVariant) string {
	text, ok := msg.(*commands.TextMessage)
	s.Require().True(ok)
	body, err := text.Text()
	s.Require().NoError(err)
	return body
}

func (s *ClientSuite) TestConnectAndPublish() {
	s.connect("s1:61616")

	session, err := s.conn.CreateSession(client.AutoAcknowledge)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	producer, err := session.CreateProducer(queue)
	s.Require().NoError(err)

	ctx := context.Background()
	for _, body := range []string{"1", "2", "3"} {
		s.Require().NoError(producer.SendText(ctx, body))
	}

	written := s.broker.WrittenOfType(commands.TypeTextMessage)
	s.Require().Len(written, 3)
	for i, cmd := range written {
		msg := cmd.(*commands.TextMessage)
		s.Equal("Q", msg.Destination.PhysicalName())
		s.True(msg.Persistent, "default delivery mode is persistent")
		s.Equal(int64(i+1), msg.MessageId.ProducerSequenceId)
		s.Equal(textOf(&s.Suite, msg), []string{"1", "2", "3"}[i])
	}
}

func (s *ClientSuite) TestClientAcknowledgeAndRecover() {
	s.connect("s3:61616")
	s.Require().NoError(s.conn.Start())

	session, err := s.conn.CreateSession(client.ClientAcknowledge)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	consumer, err := session.CreateConsumer(queue)
	s.Require().NoError(err)

	consumerId := s.consumerIdFor(1, 1)
	s.injectText(consumerId, queue, 1, "First")
	s.injectText(consumerId, queue, 2, "Second")

	first, err := consumer.Receive(2 * time.Second)
	s.Require().NoError(err)
	s.Equal("First", textOf(&s.Suite, first))
	s.Require().NoError(session.Acknowledge())

	second, err := consumer.Receive(2 * time.Second)
	s.Require().NoError(err)
	s.Equal("Second", textOf(&s.Suite, second))
	s.Zero(second.GetMessage().RedeliveryCounter, "not yet redelivered")

	s.Require().NoError(session.Recover())

	redelivered, err := consumer.Receive(2 * time.Second)
	s.Require().NoError(err)
	s.Equal("Second", textOf(&s.Suite, redelivered))
	s.Equal(int32(1), redelivered.GetMessage().RedeliveryCounter)
	s.Require().NoError(session.Acknowledge())

	acks := s.broker.WrittenOfType(commands.TypeMessageAck)
	s.Require().NotEmpty(acks)
	for _, cmd := range acks {
		s.Equal(commands.AckStandard, cmd.(*commands.MessageAck).AckType)
	}
}

func (s *ClientSuite) TestAsyncListenerPreservesOrderAndAcks() {
	s.connect("s-async:61616")
	s.Require().NoError(s.conn.Start())

	session, err := s.conn.CreateSession(client.AutoAcknowledge)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	consumer, err := session.CreateConsumer(queue)
	s.Require().NoError(err)

	received := make(chan string, 8)
	consumer.SetMessageListener(func(msg commands.MessageVariant) {
		received <- textOf(&s.Suite, msg)
	})

	consumerId := s.consumerIdFor(1, 1)
	for i, body := range []string{"a", "b", "c"} {
		s.injectText(consumerId, queue, int64(i+1), body)
	}

	for _, want := range []string{"a", "b", "c"} {
		select {
		case got := <-received:
			s.Equal(want, got, "listener sees broker order")
		case <-time.After(2 * time.Second):
			s.FailNow("listener never received " + want)
		}
	}

	s.Require().Eventually(func() bool {
		return len(s.broker.WrittenOfType(commands.TypeMessageAck)) == 3
	}, 2*time.Second, 5*time.Millisecond, "auto mode acks each delivered message")
}

func (s *ClientSuite) TestTransactedProduceAndCommit() {
	s.connect("s-tx:61616")

	session, err := s.conn.CreateSession(client.SessionTransacted)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	producer, err := session.CreateProducer(queue)
	s.Require().NoError(err)

	s.Require().NoError(producer.SendText(context.Background(), "tx-payload"))

	sent := s.broker.WrittenOfType(commands.TypeTextMessage)
	s.Require().Len(sent, 1)
	s.Require().NotNil(sent[0].(*commands.TextMessage).TransactionId, "transacted sends carry the txid")

	committed := make(chan struct{}, 1)
	rolledBack := make(chan struct{}, 1)
	session.Transaction().AddSynchronization(&client.Synchronization{
		AfterCommit:   func() { committed <- struct{}{} },
		AfterRollback: func() { rolledBack <- struct{}{} },
	})

	s.Require().NoError(session.Commit())
	select {
	case <-committed:
	default:
		s.FailNow("after-commit synchronization did not run")
	}
	s.Empty(rolledBack)

	var phases []byte
	for _, cmd := range s.broker.WrittenOfType(commands.TypeTransactionInfo) {
		phases = append(phases, cmd.(*commands.TransactionInfo).Type)
	}
	// Begin, commit, then the replacement transaction's begin.
	s.Equal([]byte{commands.TransactionBegin, commands.TransactionCommitOnePhase, commands.TransactionBegin}, phases)
}

func (s *ClientSuite) TestTransactedRollbackRedelivers() {
	s.connect("s-rb:61616")
	s.Require().NoError(s.conn.Start())

	session, err := s.conn.CreateSession(client.SessionTransacted)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	consumer, err := session.CreateConsumer(queue)
	s.Require().NoError(err)

	consumerId := s.consumerIdFor(1, 1)
	s.injectText(consumerId, queue, 1, "again")

	msg, err := consumer.Receive(2 * time.Second)
	s.Require().NoError(err)
	s.Equal("again", textOf(&s.Suite, msg))

	s.Require().NoError(session.Rollback())

	redelivered, err := consumer.Receive(2 * time.Second)
	s.Require().NoError(err)
	s.Equal("again", textOf(&s.Suite, redelivered))
	s.Equal(int32(1), redelivered.GetMessage().RedeliveryCounter)
}

func (s *ClientSuite) TestRedeliveryExhaustionPoisons() {
	s.connect("s-poison:61616")
	s.Require().NoError(s.conn.Start())

	session, err := s.conn.CreateSession(client.SessionTransacted)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	consumer, err := session.CreateConsumer(queue)
	s.Require().NoError(err)

	consumerId := s.consumerIdFor(1, 1)
	s.injectText(consumerId, queue, 1, "poison-me")

	// MaximumRedeliveries is 2 in this suite; the third rollback poisons.
	for i := 0; i < 3; i++ {
		msg, err := consumer.Receive(2 * time.Second)
		s.Require().NoError(err, "attempt %d", i)
		s.Require().NotNil(msg)
		s.Require().NoError(session.Rollback())
	}

	s.Require().Eventually(func() bool {
		for _, cmd := range s.broker.WrittenOfType(commands.TypeMessageAck) {
			if cmd.(*commands.MessageAck).AckType == commands.AckPoison {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "exhausted message goes to the DLQ")

	msg, err := consumer.Receive(-1)
	s.Require().NoError(err)
	s.Nil(msg, "poisoned message is not redelivered locally")
}

func (s *ClientSuite) TestPrefetchBound() {
	s.connect("s-prefetch:61616")
	s.Require().NoError(s.conn.Start())

	session, err := s.conn.CreateSession(client.ClientAcknowledge)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	consumer, err := session.CreateConsumer(queue, client.WithPrefetch(10))
	s.Require().NoError(err)

	consumerId := s.consumerIdFor(1, 1)
	for i := 1; i <= 10; i++ {
		s.injectText(consumerId, queue, int64(i), "m")
	}
	for i := 0; i < 4; i++ {
		_, err := consumer.Receive(time.Second)
		s.Require().NoError(err)
	}

	s.Equal(10, consumer.PendingCount()+consumer.DeliveredCount())
	s.LessOrEqual(consumer.PendingCount()+consumer.DeliveredCount(), int(consumer.PrefetchSize()))
}

func (s *ClientSuite) TestDupsOkBatchesAcks() {
	s.connect("s-dups:61616")
	s.Require().NoError(s.conn.Start())

	session, err := s.conn.CreateSession(client.DupsOkAcknowledge)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	consumer, err := session.CreateConsumer(queue, client.WithPrefetch(4))
	s.Require().NoError(err)

	consumerId := s.consumerIdFor(1, 1)
	for i := 1; i <= 2; i++ {
		s.injectText(consumerId, queue, int64(i), "m")
	}

	// Half the prefetch window (2 of 4) triggers one batch ack.
	for i := 0; i < 2; i++ {
		_, err := consumer.Receive(time.Second)
		s.Require().NoError(err)
	}
	s.Require().Eventually(func() bool {
		acks := s.broker.WrittenOfType(commands.TypeMessageAck)
		return len(acks) == 1 && acks[0].(*commands.MessageAck).MessageCount == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func (s *ClientSuite) TestZeroPrefetchSendsMessagePull() {
	s.connect("s-pull:61616")
	s.Require().NoError(s.conn.Start())

	session, err := s.conn.CreateSession(client.AutoAcknowledge)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	consumer, err := session.CreateConsumer(queue, client.WithPrefetch(0))
	s.Require().NoError(err)

	done := make(chan struct{})
	go func() {
		consumer.Receive(300 * time.Millisecond) //nolint:errcheck
		close(done)
	}()
	s.Require().Eventually(func() bool {
		return len(s.broker.WrittenOfType(commands.TypeMessagePull)) == 1
	}, 2*time.Second, 5*time.Millisecond)
	<-done
}

func (s *ClientSuite) TestIndividualAcknowledge() {
	s.connect("s-ind:61616")
	s.Require().NoError(s.conn.Start())

	session, err := s.conn.CreateSession(client.IndividualAcknowledge)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	consumer, err := session.CreateConsumer(queue)
	s.Require().NoError(err)

	consumerId := s.consumerIdFor(1, 1)
	s.injectText(consumerId, queue, 1, "one")
	s.injectText(consumerId, queue, 2, "two")

	first, err := consumer.Receive(time.Second)
	s.Require().NoError(err)
	second, err := consumer.Receive(time.Second)
	s.Require().NoError(err)

	// Ack only the second; the first stays delivered.
	s.Require().NoError(consumer.AcknowledgeMessage(second))
	acks := s.broker.WrittenOfType(commands.TypeMessageAck)
	s.Require().Len(acks, 1)
	ack := acks[0].(*commands.MessageAck)
	s.Equal(commands.AckIndividual, ack.AckType)
	s.True(ack.LastMessageId.Equal(second.GetMessage().MessageId))
	s.Equal(1, consumer.DeliveredCount())
	_ = first
}

func (s *ClientSuite) TestTemporaryQueueEmbedsConnectionId() {
	s.connect("s-temp:61616")

	tempQueue, err := s.conn.CreateTemporaryQueue()
	s.Require().NoError(err)
	s.Contains(tempQueue.PhysicalName(), s.conn.ConnectionId())
	s.Equal(s.conn.ConnectionId(), commands.TempDestinationOwner(tempQueue))

	infos := s.broker.WrittenOfType(commands.TypeDestinationInfo)
	s.Require().Len(infos, 1)
	s.Equal(commands.DestinationAdd, infos[0].(*commands.DestinationInfo).OperationType)
}

func (s *ClientSuite) TestSessionLifecycle() {
	s.connect("s-life:61616")
	s.Require().NoError(s.conn.Start())

	session, err := s.conn.CreateSession(client.AutoAcknowledge)
	s.Require().NoError(err)
	queue := commands.NewQueue("Q")
	consumer, err := session.CreateConsumer(queue)
	s.Require().NoError(err)

	// Stop holds delivery but preserves the queue.
	s.Require().NoError(s.conn.Stop())
	consumerId := s.consumerIdFor(1, 1)
	s.injectText(consumerId, queue, 1, "held")
	msg, err := consumer.Receive(-1)
	s.Require().NoError(err)
	s.Nil(msg, "stopped session must not deliver")
	s.Equal(1, consumer.PendingCount())

	// Start releases it.
	s.Require().NoError(s.conn.Start())
	msg, err = consumer.Receive(2 * time.Second)
	s.Require().NoError(err)
	s.Equal("held", textOf(&s.Suite, msg))

	// Close is terminal.
	s.Require().NoError(session.Close())
	_, err = session.CreateProducer(queue)
	s.Require().Error(err)
}

func (s *ClientSuite) TestConnectionCloseIsOrderly() {
	s.connect("s-close:61616")
	session, err := s.conn.CreateSession(client.AutoAcknowledge)
	s.Require().NoError(err)
	_ = session

	s.Require().NoError(s.conn.Close())

	var sawRemove, sawShutdown bool
	for _, cmd := range s.broker.Written() {
		switch c := cmd.(type) {
		case *commands.RemoveInfo:
			if _, isConnection := c.ObjectId.(*commands.ConnectionId); isConnection {
				sawRemove = !sawShutdown
			}
		case *commands.ShutdownInfo:
			sawShutdown = true
		}
	}
	s.True(sawRemove, "connection removal precedes shutdown")
	s.True(sawShutdown)

	_, err = s.conn.CreateSession(client.AutoAcknowledge)
	s.Require().Error(err)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}
