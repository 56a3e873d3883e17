package openwire

import "github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"

func init() {
	register(commands.TypeMessage, messageMarshaller{create: func() commands.DataStructure { return &commands.Message{} }})
	register(commands.TypeTextMessage, messageMarshaller{create: func() commands.DataStructure { return &commands.TextMessage{} }})
	register(commands.TypeBytesMessage, messageMarshaller{create: func() commands.DataStructure { return &commands.BytesMessage{} }})
	register(commands.TypeMapMessage, messageMarshaller{create: func() commands.DataStructure { return &commands.MapMessage{} }})
	register(commands.TypeObjectMessage, messageMarshaller{create: func() commands.DataStructure { return &commands.ObjectMessage{} }})
	register(commands.TypeStreamMessage, messageMarshaller{create: func() commands.DataStructure { return &commands.StreamMessage{} }})
}

func messageOrNil(m commands.MessageVariant) commands.DataStructure {
	if m == nil {
		return nil
	}
	return m
}

func asMessage(o commands.DataStructure) commands.MessageVariant {
	if o == nil {
		return nil
	}
	m, _ := o.(commands.MessageVariant)
	return m
}

// messageMarshaller covers Message and all five body-typed variants; the
// field set is identical, only the wire type code differs.
type messageMarshaller struct {
	create func() commands.DataStructure
}

func (m messageMarshaller) createObject() commands.DataStructure { return m.create() }

func (messageMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	msg := o.(commands.MessageVariant).GetMessage()
	size := tightMarshalBaseCommand1(msg, bs)
	size += tightMarshalCachedObject1(wf, msg.ProducerId, bs)
	size += tightMarshalCachedObject1(wf, msg.Destination, bs)
	size += tightMarshalCachedObject1(wf, msg.TransactionId, bs)
	size += tightMarshalCachedObject1(wf, msg.OriginalDestination, bs)
	size += tightMarshalNestedObject1(wf, msg.MessageId, bs)
	size += tightMarshalCachedObject1(wf, msg.OriginalTransactionId, bs)
	size += tightMarshalString1(msg.GroupId, bs)
	size += 4 // groupSequence
	size += tightMarshalString1(msg.CorrelationId, bs)
	bs.WriteBool(msg.Persistent)
	size += tightMarshalLong1(msg.Expiration, bs)
	size += 1 // priority
	size += tightMarshalNestedObject1(wf, msg.ReplyTo, bs)
	size += tightMarshalLong1(msg.Timestamp, bs)
	size += tightMarshalString1(msg.Type, bs)
	size += tightMarshalByteArray1(msg.Content, bs)
	size += tightMarshalByteArray1(msg.MarshalledProperties, bs)
	size += tightMarshalNestedObject1(wf, msg.DataStructure, bs)
	size += tightMarshalCachedObject1(wf, msg.TargetConsumerId, bs)
	bs.WriteBool(msg.Compressed)
	size += 4 // redeliveryCounter
	size += tightMarshalArray1(wf, msg.BrokerPath, bs)
	size += tightMarshalLong1(msg.Arrival, bs)
	size += tightMarshalString1(msg.UserId, bs)
	bs.WriteBool(msg.RecievedByDFBridge)
	if wf.version >= 3 {
		bs.WriteBool(msg.Droppable)
		size += tightMarshalArray1(wf, msg.Cluster, bs)
		size += tightMarshalLong1(msg.BrokerInTime, bs)
		size += tightMarshalLong1(msg.BrokerOutTime, bs)
	}
	return size
}

func (messageMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	msg := o.(commands.MessageVariant).GetMessage()
	tightMarshalBaseCommand2(msg, w, bs)
	tightMarshalCachedObject2(wf, msg.ProducerId, w, bs)
	tightMarshalCachedObject2(wf, msg.Destination, w, bs)
	tightMarshalCachedObject2(wf, msg.TransactionId, w, bs)
	tightMarshalCachedObject2(wf, msg.OriginalDestination, w, bs)
	tightMarshalNestedObject2(wf, msg.MessageId, w, bs)
	tightMarshalCachedObject2(wf, msg.OriginalTransactionId, w, bs)
	tightMarshalString2(w, msg.GroupId, bs)
	w.WriteInt32(msg.GroupSequence)
	tightMarshalString2(w, msg.CorrelationId, bs)
	bs.ReadBool()
	tightMarshalLong2(w, msg.Expiration, bs)
	w.WriteByte(msg.Priority)
	tightMarshalNestedObject2(wf, msg.ReplyTo, w, bs)
	tightMarshalLong2(w, msg.Timestamp, bs)
	tightMarshalString2(w, msg.Type, bs)
	tightMarshalByteArray2(w, msg.Content, bs)
	tightMarshalByteArray2(w, msg.MarshalledProperties, bs)
	tightMarshalNestedObject2(wf, msg.DataStructure, w, bs)
	tightMarshalCachedObject2(wf, msg.TargetConsumerId, w, bs)
	bs.ReadBool()
	w.WriteInt32(msg.RedeliveryCounter)
	tightMarshalArray2(wf, msg.BrokerPath, w, bs)
	tightMarshalLong2(w, msg.Arrival, bs)
	tightMarshalString2(w, msg.UserId, bs)
	bs.ReadBool()
	if wf.version >= 3 {
		bs.ReadBool()
		tightMarshalArray2(wf, msg.Cluster, w, bs)
		tightMarshalLong2(w, msg.BrokerInTime, bs)
		tightMarshalLong2(w, msg.BrokerOutTime, bs)
	}
}

func (messageMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	msg := o.(commands.MessageVariant).GetMessage()
	tightUnmarshalBaseCommand(msg, r, bs)
	msg.ProducerId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ProducerId)
	msg.Destination, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.Destination)
	msg.TransactionId, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.TransactionId)
	msg.OriginalDestination, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.Destination)
	msg.MessageId, _ = tightUnmarshalNestedObject(wf, r, bs).(*commands.MessageId)
	msg.OriginalTransactionId, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.TransactionId)
	msg.GroupId = tightUnmarshalString(r, bs)
	msg.GroupSequence = r.ReadInt32()
	msg.CorrelationId = tightUnmarshalString(r, bs)
	msg.Persistent = bs.ReadBool()
	msg.Expiration = tightUnmarshalLong(r, bs)
	msg.Priority = r.ReadByte()
	msg.ReplyTo, _ = tightUnmarshalNestedObject(wf, r, bs).(commands.Destination)
	msg.Timestamp = tightUnmarshalLong(r, bs)
	msg.Type = tightUnmarshalString(r, bs)
	msg.Content = tightUnmarshalByteArray(r, bs)
	msg.MarshalledProperties = tightUnmarshalByteArray(r, bs)
	msg.DataStructure = tightUnmarshalNestedObject(wf, r, bs)
	msg.TargetConsumerId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ConsumerId)
	msg.Compressed = bs.ReadBool()
	msg.RedeliveryCounter = r.ReadInt32()
	msg.BrokerPath = tightUnmarshalArray[*commands.BrokerId](wf, r, bs)
	msg.Arrival = tightUnmarshalLong(r, bs)
	msg.UserId = tightUnmarshalString(r, bs)
	msg.RecievedByDFBridge = bs.ReadBool()
	if wf.version >= 3 {
		msg.Droppable = bs.ReadBool()
		msg.Cluster = tightUnmarshalArray[*commands.BrokerId](wf, r, bs)
		msg.BrokerInTime = tightUnmarshalLong(r, bs)
		msg.BrokerOutTime = tightUnmarshalLong(r, bs)
	}
}

func (messageMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	msg := o.(commands.MessageVariant).GetMessage()
	looseMarshalBaseCommand(msg, w)
	looseMarshalCachedObject(wf, msg.ProducerId, w)
	looseMarshalCachedObject(wf, msg.Destination, w)
	looseMarshalCachedObject(wf, msg.TransactionId, w)
	looseMarshalCachedObject(wf, msg.OriginalDestination, w)
	looseMarshalNestedObject(wf, msg.MessageId, w)
	looseMarshalCachedObject(wf, msg.OriginalTransactionId, w)
	looseMarshalString(w, msg.GroupId)
	w.WriteInt32(msg.GroupSequence)
	looseMarshalString(w, msg.CorrelationId)
	w.WriteBool(msg.Persistent)
	w.WriteInt64(msg.Expiration)
	w.WriteByte(msg.Priority)
	looseMarshalNestedObject(wf, msg.ReplyTo, w)
	w.WriteInt64(msg.Timestamp)
	looseMarshalString(w, msg.Type)
	looseMarshalByteArray(w, msg.Content)
	looseMarshalByteArray(w, msg.MarshalledProperties)
	looseMarshalNestedObject(wf, msg.DataStructure, w)
	looseMarshalCachedObject(wf, msg.TargetConsumerId, w)
	w.WriteBool(msg.Compressed)
	w.WriteInt32(msg.RedeliveryCounter)
	looseMarshalArray(wf, msg.BrokerPath, w)
	w.WriteInt64(msg.Arrival)
	looseMarshalString(w, msg.UserId)
	w.WriteBool(msg.RecievedByDFBridge)
	if wf.version >= 3 {
		w.WriteBool(msg.Droppable)
		looseMarshalArray(wf, msg.Cluster, w)
		w.WriteInt64(msg.BrokerInTime)
		w.WriteInt64(msg.BrokerOutTime)
	}
}

func (messageMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	msg := o.(commands.MessageVariant).GetMessage()
	looseUnmarshalBaseCommand(msg, r)
	msg.ProducerId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ProducerId)
	msg.Destination, _ = looseUnmarshalCachedObject(wf, r).(commands.Destination)
	msg.TransactionId, _ = looseUnmarshalCachedObject(wf, r).(commands.TransactionId)
	msg.OriginalDestination, _ = looseUnmarshalCachedObject(wf, r).(commands.Destination)
	msg.MessageId, _ = looseUnmarshalNestedObject(wf, r).(*commands.MessageId)
	msg.OriginalTransactionId, _ = looseUnmarshalCachedObject(wf, r).(commands.TransactionId)
	msg.GroupId = looseUnmarshalString(r)
	msg.GroupSequence = r.ReadInt32()
	msg.CorrelationId = looseUnmarshalString(r)
	msg.Persistent = r.ReadBool()
	msg.Expiration = r.ReadInt64()
	msg.Priority = r.ReadByte()
	msg.ReplyTo, _ = looseUnmarshalNestedObject(wf, r).(commands.Destination)
	msg.Timestamp = r.ReadInt64()
	msg.Type = looseUnmarshalString(r)
	msg.Content = looseUnmarshalByteArray(r)
	msg.MarshalledProperties = looseUnmarshalByteArray(r)
	msg.DataStructure = looseUnmarshalNestedObject(wf, r)
	msg.TargetConsumerId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ConsumerId)
	msg.Compressed = r.ReadBool()
	msg.RedeliveryCounter = r.ReadInt32()
	msg.BrokerPath = looseUnmarshalArray[*commands.BrokerId](wf, r)
	msg.Arrival = r.ReadInt64()
	msg.UserId = looseUnmarshalString(r)
	msg.RecievedByDFBridge = r.ReadBool()
	if wf.version >= 3 {
		msg.Droppable = r.ReadBool()
		msg.Cluster = looseUnmarshalArray[*commands.BrokerId](wf, r)
		msg.BrokerInTime = r.ReadInt64()
		msg.BrokerOutTime = r.ReadInt64()
	}
}
