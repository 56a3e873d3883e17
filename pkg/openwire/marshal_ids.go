package openwire

import "github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"

func init() {
	register(commands.TypeConnectionID, connectionIdMarshaller{})
	register(commands.TypeSessionID, sessionIdMarshaller{})
	register(commands.TypeConsumerID, consumerIdMarshaller{})
	register(commands.TypeProducerID, producerIdMarshaller{})
	register(commands.TypeBrokerID, brokerIdMarshaller{})
	register(commands.TypeMessageID, messageIdMarshaller{})
	register(commands.TypeLocalTransactionID, localTransactionIdMarshaller{})
	register(commands.TypeXATransactionID, xaTransactionIdMarshaller{})
	register(commands.TypeQueue, destinationMarshaller{typeCode: commands.TypeQueue})
	register(commands.TypeTopic, destinationMarshaller{typeCode: commands.TypeTopic})
	register(commands.TypeTempQueue, destinationMarshaller{typeCode: commands.TypeTempQueue})
	register(commands.TypeTempTopic, destinationMarshaller{typeCode: commands.TypeTempTopic})
}

type connectionIdMarshaller struct{}

func (connectionIdMarshaller) createObject() commands.DataStructure { return &commands.ConnectionId{} }

func (connectionIdMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	id := o.(*commands.ConnectionId)
	return tightMarshalString1(id.Value, bs)
}

func (connectionIdMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	id := o.(*commands.ConnectionId)
	tightMarshalString2(w, id.Value, bs)
}

func (connectionIdMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	id := o.(*commands.ConnectionId)
	id.Value = tightUnmarshalString(r, bs)
}

func (connectionIdMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	id := o.(*commands.ConnectionId)
	looseMarshalString(w, id.Value)
}

func (connectionIdMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	id := o.(*commands.ConnectionId)
	id.Value = looseUnmarshalString(r)
}

type sessionIdMarshaller struct{}

func (sessionIdMarshaller) createObject() commands.DataStructure { return &commands.SessionId{} }

func (sessionIdMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	id := o.(*commands.SessionId)
	size := tightMarshalString1(id.ConnectionId, bs)
	size += tightMarshalLong1(id.Value, bs)
	return size
}

func (sessionIdMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	id := o.(*commands.SessionId)
	tightMarshalString2(w, id.ConnectionId, bs)
	tightMarshalLong2(w, id.Value, bs)
}

func (sessionIdMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	id := o.(*commands.SessionId)
	id.ConnectionId = tightUnmarshalString(r, bs)
	id.Value = tightUnmarshalLong(r, bs)
}

func (sessionIdMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	id := o.(*commands.SessionId)
	looseMarshalString(w, id.ConnectionId)
	w.WriteInt64(id.Value)
}

func (sessionIdMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	id := o.(*commands.SessionId)
	id.ConnectionId = looseUnmarshalString(r)
	id.Value = r.ReadInt64()
}

type consumerIdMarshaller struct{}

func (consumerIdMarshaller) createObject() commands.DataStructure { return &commands.ConsumerId{} }

func (consumerIdMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	id := o.(*commands.ConsumerId)
	size := tightMarshalString1(id.ConnectionId, bs)
	size += tightMarshalLong1(id.SessionId, bs)
	size += tightMarshalLong1(id.Value, bs)
	return size
}

func (consumerIdMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	id := o.(*commands.ConsumerId)
	tightMarshalString2(w, id.ConnectionId, bs)
	tightMarshalLong2(w, id.SessionId, bs)
	tightMarshalLong2(w, id.Value, bs)
}

func (consumerIdMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	id := o.(*commands.ConsumerId)
	id.ConnectionId = tightUnmarshalString(r, bs)
	id.SessionId = tightUnmarshalLong(r, bs)
	id.Value = tightUnmarshalLong(r, bs)
}

func (consumerIdMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	id := o.(*commands.ConsumerId)
	looseMarshalString(w, id.ConnectionId)
	w.WriteInt64(id.SessionId)
	w.WriteInt64(id.Value)
}

func (consumerIdMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	id := o.(*commands.ConsumerId)
	id.ConnectionId = looseUnmarshalString(r)
	id.SessionId = r.ReadInt64()
	id.Value = r.ReadInt64()
}

// producerIdMarshaller writes value before session id; the protocol field
// order differs from ConsumerId.
type producerIdMarshaller struct{}

func (producerIdMarshaller) createObject() commands.DataStructure { return &commands.ProducerId{} }

func (producerIdMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	id := o.(*commands.ProducerId)
	size := tightMarshalString1(id.ConnectionId, bs)
	size += tightMarshalLong1(id.Value, bs)
	size += tightMarshalLong1(id.SessionId, bs)
	return size
}

func (producerIdMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	id := o.(*commands.ProducerId)
	tightMarshalString2(w, id.ConnectionId, bs)
	tightMarshalLong2(w, id.Value, bs)
	tightMarshalLong2(w, id.SessionId, bs)
}

func (producerIdMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	id := o.(*commands.ProducerId)
	id.ConnectionId = tightUnmarshalString(r, bs)
	id.Value = tightUnmarshalLong(r, bs)
	id.SessionId = tightUnmarshalLong(r, bs)
}

func (producerIdMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	id := o.(*commands.ProducerId)
	looseMarshalString(w, id.ConnectionId)
	w.WriteInt64(id.Value)
	w.WriteInt64(id.SessionId)
}

func (producerIdMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	id := o.(*commands.ProducerId)
	id.ConnectionId = looseUnmarshalString(r)
	id.Value = r.ReadInt64()
	id.SessionId = r.ReadInt64()
}

type brokerIdMarshaller struct{}

func (brokerIdMarshaller) createObject() commands.DataStructure { return &commands.BrokerId{} }

func (brokerIdMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	id := o.(*commands.BrokerId)
	return tightMarshalString1(id.Value, bs)
}

func (brokerIdMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	id := o.(*commands.BrokerId)
	tightMarshalString2(w, id.Value, bs)
}

func (brokerIdMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	id := o.(*commands.BrokerId)
	id.Value = tightUnmarshalString(r, bs)
}

func (brokerIdMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	id := o.(*commands.BrokerId)
	looseMarshalString(w, id.Value)
}

func (brokerIdMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	id := o.(*commands.BrokerId)
	id.Value = looseUnmarshalString(r)
}

type messageIdMarshaller struct{}

func (messageIdMarshaller) createObject() commands.DataStructure { return &commands.MessageId{} }

func (messageIdMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	id := o.(*commands.MessageId)
	size := tightMarshalCachedObject1(wf, id.ProducerId, bs)
	size += tightMarshalLong1(id.ProducerSequenceId, bs)
	size += tightMarshalLong1(id.BrokerSequenceId, bs)
	return size
}

func (messageIdMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	id := o.(*commands.MessageId)
	tightMarshalCachedObject2(wf, id.ProducerId, w, bs)
	tightMarshalLong2(w, id.ProducerSequenceId, bs)
	tightMarshalLong2(w, id.BrokerSequenceId, bs)
}

func (messageIdMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	id := o.(*commands.MessageId)
	id.ProducerId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ProducerId)
	id.ProducerSequenceId = tightUnmarshalLong(r, bs)
	id.BrokerSequenceId = tightUnmarshalLong(r, bs)
}

func (messageIdMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	id := o.(*commands.MessageId)
	looseMarshalCachedObject(wf, id.ProducerId, w)
	w.WriteInt64(id.ProducerSequenceId)
	w.WriteInt64(id.BrokerSequenceId)
}

func (messageIdMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	id := o.(*commands.MessageId)
	id.ProducerId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ProducerId)
	id.ProducerSequenceId = r.ReadInt64()
	id.BrokerSequenceId = r.ReadInt64()
}

// localTransactionIdMarshaller writes the transaction value before the
// owning connection id.
type localTransactionIdMarshaller struct{}

func (localTransactionIdMarshaller) createObject() commands.DataStructure {
	return &commands.LocalTransactionId{}
}

func (localTransactionIdMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	id := o.(*commands.LocalTransactionId)
	size := tightMarshalLong1(id.Value, bs)
	size += tightMarshalCachedObject1(wf, &commands.ConnectionId{Value: id.ConnectionId}, bs)
	return size
}

func (localTransactionIdMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	id := o.(*commands.LocalTransactionId)
	tightMarshalLong2(w, id.Value, bs)
	tightMarshalCachedObject2(wf, &commands.ConnectionId{Value: id.ConnectionId}, w, bs)
}

func (localTransactionIdMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	id := o.(*commands.LocalTransactionId)
	id.Value = tightUnmarshalLong(r, bs)
	if cid, ok := tightUnmarshalCachedObject(wf, r, bs).(*commands.ConnectionId); ok {
		id.ConnectionId = cid.Value
	}
}

func (localTransactionIdMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	id := o.(*commands.LocalTransactionId)
	w.WriteInt64(id.Value)
	looseMarshalCachedObject(wf, &commands.ConnectionId{Value: id.ConnectionId}, w)
}

func (localTransactionIdMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	id := o.(*commands.LocalTransactionId)
	id.Value = r.ReadInt64()
	if cid, ok := looseUnmarshalCachedObject(wf, r).(*commands.ConnectionId); ok {
		id.ConnectionId = cid.Value
	}
}

type xaTransactionIdMarshaller struct{}

func (xaTransactionIdMarshaller) createObject() commands.DataStructure {
	return &commands.XATransactionId{}
}

func (xaTransactionIdMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	id := o.(*commands.XATransactionId)
	size := 4
	size += tightMarshalByteArray1(id.GlobalTransactionId, bs)
	size += tightMarshalByteArray1(id.BranchQualifier, bs)
	return size
}

func (xaTransactionIdMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	id := o.(*commands.XATransactionId)
	w.WriteInt32(id.FormatId)
	tightMarshalByteArray2(w, id.GlobalTransactionId, bs)
	tightMarshalByteArray2(w, id.BranchQualifier, bs)
}

func (xaTransactionIdMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	id := o.(*commands.XATransactionId)
	id.FormatId = r.ReadInt32()
	id.GlobalTransactionId = tightUnmarshalByteArray(r, bs)
	id.BranchQualifier = tightUnmarshalByteArray(r, bs)
}

func (xaTransactionIdMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	id := o.(*commands.XATransactionId)
	w.WriteInt32(id.FormatId)
	looseMarshalByteArray(w, id.GlobalTransactionId)
	looseMarshalByteArray(w, id.BranchQualifier)
}

func (xaTransactionIdMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	id := o.(*commands.XATransactionId)
	id.FormatId = r.ReadInt32()
	id.GlobalTransactionId = looseUnmarshalByteArray(r)
	id.BranchQualifier = looseUnmarshalByteArray(r)
}

// destinationMarshaller covers all four destination variants; only the
// type code differs.
type destinationMarshaller struct {
	typeCode byte
}

func (m destinationMarshaller) createObject() commands.DataStructure {
	return commands.NewDestination(m.typeCode, "")
}

func (destinationMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	d := o.(commands.Destination)
	return tightMarshalString1(d.PhysicalName(), bs)
}

func (destinationMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	d := o.(commands.Destination)
	tightMarshalString2(w, d.PhysicalName(), bs)
}

func (m destinationMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	name := tightUnmarshalString(r, bs)
	setDestinationName(o, name)
}

func (destinationMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	d := o.(commands.Destination)
	looseMarshalString(w, d.PhysicalName())
}

func (m destinationMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	name := looseUnmarshalString(r)
	setDestinationName(o, name)
}

func setDestinationName(o commands.DataStructure, name string) {
	switch d := o.(type) {
	case *commands.Queue:
		*d = *commands.NewQueue(name)
	case *commands.Topic:
		*d = *commands.NewTopic(name)
	case *commands.TempQueue:
		*d = *commands.NewTempQueueFromName(name)
	case *commands.TempTopic:
		*d = *commands.NewTempTopicFromName(name)
	}
}
