package openwire

import "github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"

func init() {
	register(commands.TypeMessageDispatch, messageDispatchMarshaller{})
	register(commands.TypeMessagePull, messagePullMarshaller{})
	register(commands.TypeMessageAck, messageAckMarshaller{})
	register(commands.TypeProducerAck, producerAckMarshaller{})
}

type messageDispatchMarshaller struct{}

func (messageDispatchMarshaller) createObject() commands.DataStructure {
	return &commands.MessageDispatch{}
}

func (messageDispatchMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.MessageDispatch)
	size := tightMarshalBaseCommand1(cmd, bs)
	size += tightMarshalCachedObject1(wf, cmd.ConsumerId, bs)
	size += tightMarshalCachedObject1(wf, cmd.Destination, bs)
	size += tightMarshalNestedObject1(wf, messageOrNil(cmd.Message), bs)
	size += 4 // redeliveryCounter
	return size
}

func (messageDispatchMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.MessageDispatch)
	tightMarshalBaseCommand2(cmd, w, bs)
	tightMarshalCachedObject2(wf, cmd.ConsumerId, w, bs)
	tightMarshalCachedObject2(wf, cmd.Destination, w, bs)
	tightMarshalNestedObject2(wf, messageOrNil(cmd.Message), w, bs)
	w.WriteInt32(cmd.RedeliveryCounter)
}

func (messageDispatchMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.MessageDispatch)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.ConsumerId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ConsumerId)
	cmd.Destination, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.Destination)
	cmd.Message = asMessage(tightUnmarshalNestedObject(wf, r, bs))
	cmd.RedeliveryCounter = r.ReadInt32()
}

func (messageDispatchMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.MessageDispatch)
	looseMarshalBaseCommand(cmd, w)
	looseMarshalCachedObject(wf, cmd.ConsumerId, w)
	looseMarshalCachedObject(wf, cmd.Destination, w)
	looseMarshalNestedObject(wf, messageOrNil(cmd.Message), w)
	w.WriteInt32(cmd.RedeliveryCounter)
}

func (messageDispatchMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.MessageDispatch)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.ConsumerId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ConsumerId)
	cmd.Destination, _ = looseUnmarshalCachedObject(wf, r).(commands.Destination)
	cmd.Message = asMessage(looseUnmarshalNestedObject(wf, r))
	cmd.RedeliveryCounter = r.ReadInt32()
}

type messagePullMarshaller struct{}

func (messagePullMarshaller) createObject() commands.DataStructure { return &commands.MessagePull{} }

func (messagePullMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.MessagePull)
	size := tightMarshalBaseCommand1(cmd, bs)
	size += tightMarshalCachedObject1(wf, cmd.ConsumerId, bs)
	size += tightMarshalCachedObject1(wf, cmd.Destination, bs)
	size += tightMarshalLong1(cmd.Timeout, bs)
	if wf.version >= 4 {
		size += tightMarshalString1(cmd.CorrelationId, bs)
		size += tightMarshalNestedObject1(wf, cmd.MessageId, bs)
	}
	return size
}

func (messagePullMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.MessagePull)
	tightMarshalBaseCommand2(cmd, w, bs)
	tightMarshalCachedObject2(wf, cmd.ConsumerId, w, bs)
	tightMarshalCachedObject2(wf, cmd.Destination, w, bs)
	tightMarshalLong2(w, cmd.Timeout, bs)
	if wf.version >= 4 {
		tightMarshalString2(w, cmd.CorrelationId, bs)
		tightMarshalNestedObject2(wf, cmd.MessageId, w, bs)
	}
}

func (messagePullMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.MessagePull)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.ConsumerId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ConsumerId)
	cmd.Destination, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.Destination)
	cmd.Timeout = tightUnmarshalLong(r, bs)
	if wf.version >= 4 {
		cmd.CorrelationId = tightUnmarshalString(r, bs)
		cmd.MessageId, _ = tightUnmarshalNestedObject(wf, r, bs).(*commands.MessageId)
	}
}

func (messagePullMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.MessagePull)
	looseMarshalBaseCommand(cmd, w)
	looseMarshalCachedObject(wf, cmd.ConsumerId, w)
	looseMarshalCachedObject(wf, cmd.Destination, w)
	w.WriteInt64(cmd.Timeout)
	if wf.version >= 4 {
		looseMarshalString(w, cmd.CorrelationId)
		looseMarshalNestedObject(wf, cmd.MessageId, w)
	}
}

func (messagePullMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.MessagePull)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.ConsumerId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ConsumerId)
	cmd.Destination, _ = looseUnmarshalCachedObject(wf, r).(commands.Destination)
	cmd.Timeout = r.ReadInt64()
	if wf.version >= 4 {
		cmd.CorrelationId = looseUnmarshalString(r)
		cmd.MessageId, _ = looseUnmarshalNestedObject(wf, r).(*commands.MessageId)
	}
}

type messageAckMarshaller struct{}

func (messageAckMarshaller) createObject() commands.DataStructure { return &commands.MessageAck{} }

func (messageAckMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.MessageAck)
	size := tightMarshalBaseCommand1(cmd, bs)
	size += tightMarshalCachedObject1(wf, cmd.Destination, bs)
	size += tightMarshalCachedObject1(wf, cmd.TransactionId, bs)
	size += tightMarshalCachedObject1(wf, cmd.ConsumerId, bs)
	size += 1 // ackType
	size += tightMarshalNestedObject1(wf, cmd.FirstMessageId, bs)
	size += tightMarshalNestedObject1(wf, cmd.LastMessageId, bs)
	size += 4 // messageCount
	return size
}

func (messageAckMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.MessageAck)
	tightMarshalBaseCommand2(cmd, w, bs)
	tightMarshalCachedObject2(wf, cmd.Destination, w, bs)
	tightMarshalCachedObject2(wf, cmd.TransactionId, w, bs)
	tightMarshalCachedObject2(wf, cmd.ConsumerId, w, bs)
	w.WriteByte(cmd.AckType)
	tightMarshalNestedObject2(wf, cmd.FirstMessageId, w, bs)
	tightMarshalNestedObject2(wf, cmd.LastMessageId, w, bs)
	w.WriteInt32(cmd.MessageCount)
}

func (messageAckMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.MessageAck)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.Destination, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.Destination)
	cmd.TransactionId, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.TransactionId)
	cmd.ConsumerId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ConsumerId)
	cmd.AckType = r.ReadByte()
	cmd.FirstMessageId, _ = tightUnmarshalNestedObject(wf, r, bs).(*commands.MessageId)
	cmd.LastMessageId, _ = tightUnmarshalNestedObject(wf, r, bs).(*commands.MessageId)
	cmd.MessageCount = r.ReadInt32()
}

func (messageAckMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.MessageAck)
	looseMarshalBaseCommand(cmd, w)
	looseMarshalCachedObject(wf, cmd.Destination, w)
	looseMarshalCachedObject(wf, cmd.TransactionId, w)
	looseMarshalCachedObject(wf, cmd.ConsumerId, w)
	w.WriteByte(cmd.AckType)
	looseMarshalNestedObject(wf, cmd.FirstMessageId, w)
	looseMarshalNestedObject(wf, cmd.LastMessageId, w)
	w.WriteInt32(cmd.MessageCount)
}

func (messageAckMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.MessageAck)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.Destination, _ = looseUnmarshalCachedObject(wf, r).(commands.Destination)
	cmd.TransactionId, _ = looseUnmarshalCachedObject(wf, r).(commands.TransactionId)
	cmd.ConsumerId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ConsumerId)
	cmd.AckType = r.ReadByte()
	cmd.FirstMessageId, _ = looseUnmarshalNestedObject(wf, r).(*commands.MessageId)
	cmd.LastMessageId, _ = looseUnmarshalNestedObject(wf, r).(*commands.MessageId)
	cmd.MessageCount = r.ReadInt32()
}

type producerAckMarshaller struct{}

func (producerAckMarshaller) createObject() commands.DataStructure { return &commands.ProducerAck{} }

func (producerAckMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.ProducerAck)
	size := tightMarshalBaseCommand1(cmd, bs)
	size += tightMarshalNestedObject1(wf, cmd.ProducerId, bs)
	size += 4 // size
	return size
}

func (producerAckMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.ProducerAck)
	tightMarshalBaseCommand2(cmd, w, bs)
	tightMarshalNestedObject2(wf, cmd.ProducerId, w, bs)
	w.WriteInt32(cmd.Size)
}

func (producerAckMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.ProducerAck)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.ProducerId, _ = tightUnmarshalNestedObject(wf, r, bs).(*commands.ProducerId)
	cmd.Size = r.ReadInt32()
}

func (producerAckMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.ProducerAck)
	looseMarshalBaseCommand(cmd, w)
	looseMarshalNestedObject(wf, cmd.ProducerId, w)
	w.WriteInt32(cmd.Size)
}

func (producerAckMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.ProducerAck)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.ProducerId, _ = looseUnmarshalNestedObject(wf, r).(*commands.ProducerId)
	cmd.Size = r.ReadInt32()
}
