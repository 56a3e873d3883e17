package openwire

import "github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"

func init() {
	register(commands.TypeConnectionInfo, connectionInfoMarshaller{})
	register(commands.TypeSessionInfo, sessionInfoMarshaller{})
	register(commands.TypeConsumerInfo, consumerInfoMarshaller{})
	register(commands.TypeProducerInfo, producerInfoMarshaller{})
	register(commands.TypeTransactionInfo, transactionInfoMarshaller{})
	register(commands.TypeDestinationInfo, destinationInfoMarshaller{})
	register(commands.TypeRemoveSubscriptionInfo, removeSubscriptionInfoMarshaller{})
	register(commands.TypeRemoveInfo, removeInfoMarshaller{})
}

type connectionInfoMarshaller struct{}

func (connectionInfoMarshaller) createObject() commands.DataStructure {
	return &commands.ConnectionInfo{}
}

func (connectionInfoMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	info := o.(*commands.ConnectionInfo)
	size := tightMarshalBaseCommand1(info, bs)
	size += tightMarshalCachedObject1(wf, info.ConnectionId, bs)
	size += tightMarshalString1(info.ClientId, bs)
	size += tightMarshalString1(info.Password, bs)
	size += tightMarshalString1(info.UserName, bs)
	size += tightMarshalArray1(wf, info.BrokerPath, bs)
	bs.WriteBool(info.BrokerMasterConnector)
	bs.WriteBool(info.Manageable)
	if wf.version >= 2 {
		bs.WriteBool(info.ClientMaster)
	}
	if wf.version >= 6 {
		bs.WriteBool(info.FaultTolerant)
		bs.WriteBool(info.FailoverReconnect)
	}
	return size
}

func (connectionInfoMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	info := o.(*commands.ConnectionInfo)
	tightMarshalBaseCommand2(info, w, bs)
	tightMarshalCachedObject2(wf, info.ConnectionId, w, bs)
	tightMarshalString2(w, info.ClientId, bs)
	tightMarshalString2(w, info.Password, bs)
	tightMarshalString2(w, info.UserName, bs)
	tightMarshalArray2(wf, info.BrokerPath, w, bs)
	bs.ReadBool()
	bs.ReadBool()
	if wf.version >= 2 {
		bs.ReadBool()
	}
	if wf.version >= 6 {
		bs.ReadBool()
		bs.ReadBool()
	}
}

func (connectionInfoMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	info := o.(*commands.ConnectionInfo)
	tightUnmarshalBaseCommand(info, r, bs)
	info.ConnectionId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ConnectionId)
	info.ClientId = tightUnmarshalString(r, bs)
	info.Password = tightUnmarshalString(r, bs)
	info.UserName = tightUnmarshalString(r, bs)
	info.BrokerPath = tightUnmarshalArray[*commands.BrokerId](wf, r, bs)
	info.BrokerMasterConnector = bs.ReadBool()
	info.Manageable = bs.ReadBool()
	if wf.version >= 2 {
		info.ClientMaster = bs.ReadBool()
	}
	if wf.version >= 6 {
		info.FaultTolerant = bs.ReadBool()
		info.FailoverReconnect = bs.ReadBool()
	}
}

func (connectionInfoMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	info := o.(*commands.ConnectionInfo)
	looseMarshalBaseCommand(info, w)
	looseMarshalCachedObject(wf, info.ConnectionId, w)
	looseMarshalString(w, info.ClientId)
	looseMarshalString(w, info.Password)
	looseMarshalString(w, info.UserName)
	looseMarshalArray(wf, info.BrokerPath, w)
	w.WriteBool(info.BrokerMasterConnector)
	w.WriteBool(info.Manageable)
	if wf.version >= 2 {
		w.WriteBool(info.ClientMaster)
	}
	if wf.version >= 6 {
		w.WriteBool(info.FaultTolerant)
		w.WriteBool(info.FailoverReconnect)
	}
}

func (connectionInfoMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	info := o.(*commands.ConnectionInfo)
	looseUnmarshalBaseCommand(info, r)
	info.ConnectionId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ConnectionId)
	info.ClientId = looseUnmarshalString(r)
	info.Password = looseUnmarshalString(r)
	info.UserName = looseUnmarshalString(r)
	info.BrokerPath = looseUnmarshalArray[*commands.BrokerId](wf, r)
	info.BrokerMasterConnector = r.ReadBool()
	info.Manageable = r.ReadBool()
	if wf.version >= 2 {
		info.ClientMaster = r.ReadBool()
	}
	if wf.version >= 6 {
		info.FaultTolerant = r.ReadBool()
		info.FailoverReconnect = r.ReadBool()
	}
}

type sessionInfoMarshaller struct{}

func (sessionInfoMarshaller) createObject() commands.DataStructure { return &commands.SessionInfo{} }

func (sessionInfoMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	info := o.(*commands.SessionInfo)
	size := tightMarshalBaseCommand1(info, bs)
	size += tightMarshalCachedObject1(wf, info.SessionId, bs)
	return size
}

func (sessionInfoMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	info := o.(*commands.SessionInfo)
	tightMarshalBaseCommand2(info, w, bs)
	tightMarshalCachedObject2(wf, info.SessionId, w, bs)
}

func (sessionInfoMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	info := o.(*commands.SessionInfo)
	tightUnmarshalBaseCommand(info, r, bs)
	info.SessionId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.SessionId)
}

func (sessionInfoMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	info := o.(*commands.SessionInfo)
	looseMarshalBaseCommand(info, w)
	looseMarshalCachedObject(wf, info.SessionId, w)
}

func (sessionInfoMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	info := o.(*commands.SessionInfo)
	looseUnmarshalBaseCommand(info, r)
	info.SessionId, _ = looseUnmarshalCachedObject(wf, r).(*commands.SessionId)
}

type consumerInfoMarshaller struct{}

func (consumerInfoMarshaller) createObject() commands.DataStructure { return &commands.ConsumerInfo{} }

func (consumerInfoMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	info := o.(*commands.ConsumerInfo)
	size := tightMarshalBaseCommand1(info, bs)
	size += tightMarshalCachedObject1(wf, info.ConsumerId, bs)
	bs.WriteBool(info.Browser)
	size += tightMarshalCachedObject1(wf, info.Destination, bs)
	size += 8 // prefetchSize, maximumPendingMessageLimit
	bs.WriteBool(info.DispatchAsync)
	size += tightMarshalString1(info.Selector, bs)
	size += tightMarshalString1(info.SubscriptionName, bs)
	bs.WriteBool(info.NoLocal)
	bs.WriteBool(info.Exclusive)
	bs.WriteBool(info.Retroactive)
	size += 1 // priority
	size += tightMarshalArray1(wf, info.BrokerPath, bs)
	size += tightMarshalNestedObject1(wf, info.AdditionalPredicate, bs)
	bs.WriteBool(info.NetworkSubscription)
	bs.WriteBool(info.OptimizedAcknowledge)
	bs.WriteBool(info.NoRangeAcks)
	if wf.version >= 4 {
		size += tightMarshalArray1(wf, info.NetworkConsumerPath, bs)
	}
	return size
}

func (consumerInfoMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	info := o.(*commands.ConsumerInfo)
	tightMarshalBaseCommand2(info, w, bs)
	tightMarshalCachedObject2(wf, info.ConsumerId, w, bs)
	bs.ReadBool()
	tightMarshalCachedObject2(wf, info.Destination, w, bs)
	w.WriteInt32(info.PrefetchSize)
	w.WriteInt32(info.MaximumPendingMessageLimit)
	bs.ReadBool()
	tightMarshalString2(w, info.Selector, bs)
	tightMarshalString2(w, info.SubscriptionName, bs)
	bs.ReadBool()
	bs.ReadBool()
	bs.ReadBool()
	w.WriteByte(info.Priority)
	tightMarshalArray2(wf, info.BrokerPath, w, bs)
	tightMarshalNestedObject2(wf, info.AdditionalPredicate, w, bs)
	bs.ReadBool()
	bs.ReadBool()
	bs.ReadBool()
	if wf.version >= 4 {
		tightMarshalArray2(wf, info.NetworkConsumerPath, w, bs)
	}
}

func (consumerInfoMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	info := o.(*commands.ConsumerInfo)
	tightUnmarshalBaseCommand(info, r, bs)
	info.ConsumerId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ConsumerId)
	info.Browser = bs.ReadBool()
	info.Destination, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.Destination)
	info.PrefetchSize = r.ReadInt32()
	info.MaximumPendingMessageLimit = r.ReadInt32()
	info.DispatchAsync = bs.ReadBool()
	info.Selector = tightUnmarshalString(r, bs)
	info.SubscriptionName = tightUnmarshalString(r, bs)
	info.NoLocal = bs.ReadBool()
	info.Exclusive = bs.ReadBool()
	info.Retroactive = bs.ReadBool()
	info.Priority = r.ReadByte()
	info.BrokerPath = tightUnmarshalArray[*commands.BrokerId](wf, r, bs)
	info.AdditionalPredicate = tightUnmarshalNestedObject(wf, r, bs)
	info.NetworkSubscription = bs.ReadBool()
	info.OptimizedAcknowledge = bs.ReadBool()
	info.NoRangeAcks = bs.ReadBool()
	if wf.version >= 4 {
		info.NetworkConsumerPath = tightUnmarshalArray[*commands.ConsumerId](wf, r, bs)
	}
}

func (consumerInfoMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	info := o.(*commands.ConsumerInfo)
	looseMarshalBaseCommand(info, w)
	looseMarshalCachedObject(wf, info.ConsumerId, w)
	w.WriteBool(info.Browser)
	looseMarshalCachedObject(wf, info.Destination, w)
	w.WriteInt32(info.PrefetchSize)
	w.WriteInt32(info.MaximumPendingMessageLimit)
	w.WriteBool(info.DispatchAsync)
	looseMarshalString(w, info.Selector)
	looseMarshalString(w, info.SubscriptionName)
	w.WriteBool(info.NoLocal)
	w.WriteBool(info.Exclusive)
	w.WriteBool(info.Retroactive)
	w.WriteByte(info.Priority)
	looseMarshalArray(wf, info.BrokerPath, w)
	looseMarshalNestedObject(wf, info.AdditionalPredicate, w)
	w.WriteBool(info.NetworkSubscription)
	w.WriteBool(info.OptimizedAcknowledge)
	w.WriteBool(info.NoRangeAcks)
	if wf.version >= 4 {
		looseMarshalArray(wf, info.NetworkConsumerPath, w)
	}
}

func (consumerInfoMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	info := o.(*commands.ConsumerInfo)
	looseUnmarshalBaseCommand(info, r)
	info.ConsumerId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ConsumerId)
	info.Browser = r.ReadBool()
	info.Destination, _ = looseUnmarshalCachedObject(wf, r).(commands.Destination)
	info.PrefetchSize = r.ReadInt32()
	info.MaximumPendingMessageLimit = r.ReadInt32()
	info.DispatchAsync = r.ReadBool()
	info.Selector = looseUnmarshalString(r)
	info.SubscriptionName = looseUnmarshalString(r)
	info.NoLocal = r.ReadBool()
	info.Exclusive = r.ReadBool()
	info.Retroactive = r.ReadBool()
	info.Priority = r.ReadByte()
	info.BrokerPath = looseUnmarshalArray[*commands.BrokerId](wf, r)
	info.AdditionalPredicate = looseUnmarshalNestedObject(wf, r)
	info.NetworkSubscription = r.ReadBool()
	info.OptimizedAcknowledge = r.ReadBool()
	info.NoRangeAcks = r.ReadBool()
	if wf.version >= 4 {
		info.NetworkConsumerPath = looseUnmarshalArray[*commands.ConsumerId](wf, r)
	}
}

type producerInfoMarshaller struct{}

func (producerInfoMarshaller) createObject() commands.DataStructure { return &commands.ProducerInfo{} }

func (producerInfoMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	info := o.(*commands.ProducerInfo)
	size := tightMarshalBaseCommand1(info, bs)
	size += tightMarshalCachedObject1(wf, info.ProducerId, bs)
	size += tightMarshalCachedObject1(wf, info.Destination, bs)
	size += tightMarshalArray1(wf, info.BrokerPath, bs)
	if wf.version >= 2 {
		bs.WriteBool(info.DispatchAsync)
		size += 4 // windowSize
	}
	return size
}

func (producerInfoMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	info := o.(*commands.ProducerInfo)
	tightMarshalBaseCommand2(info, w, bs)
	tightMarshalCachedObject2(wf, info.ProducerId, w, bs)
	tightMarshalCachedObject2(wf, info.Destination, w, bs)
	tightMarshalArray2(wf, info.BrokerPath, w, bs)
	if wf.version >= 2 {
		bs.ReadBool()
		w.WriteInt32(info.WindowSize)
	}
}

func (producerInfoMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	info := o.(*commands.ProducerInfo)
	tightUnmarshalBaseCommand(info, r, bs)
	info.ProducerId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ProducerId)
	info.Destination, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.Destination)
	info.BrokerPath = tightUnmarshalArray[*commands.BrokerId](wf, r, bs)
	if wf.version >= 2 {
		info.DispatchAsync = bs.ReadBool()
		info.WindowSize = r.ReadInt32()
	}
}

func (producerInfoMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	info := o.(*commands.ProducerInfo)
	looseMarshalBaseCommand(info, w)
	looseMarshalCachedObject(wf, info.ProducerId, w)
	looseMarshalCachedObject(wf, info.Destination, w)
	looseMarshalArray(wf, info.BrokerPath, w)
	if wf.version >= 2 {
		w.WriteBool(info.DispatchAsync)
		w.WriteInt32(info.WindowSize)
	}
}

func (producerInfoMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	info := o.(*commands.ProducerInfo)
	looseUnmarshalBaseCommand(info, r)
	info.ProducerId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ProducerId)
	info.Destination, _ = looseUnmarshalCachedObject(wf, r).(commands.Destination)
	info.BrokerPath = looseUnmarshalArray[*commands.BrokerId](wf, r)
	if wf.version >= 2 {
		info.DispatchAsync = r.ReadBool()
		info.WindowSize = r.ReadInt32()
	}
}

type transactionInfoMarshaller struct{}

func (transactionInfoMarshaller) createObject() commands.DataStructure {
	return &commands.TransactionInfo{}
}

func (transactionInfoMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	info := o.(*commands.TransactionInfo)
	size := tightMarshalBaseCommand1(info, bs)
	size += tightMarshalCachedObject1(wf, info.ConnectionId, bs)
	size += tightMarshalCachedObject1(wf, info.TransactionId, bs)
	return size + 1
}

func (transactionInfoMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	info := o.(*commands.TransactionInfo)
	tightMarshalBaseCommand2(info, w, bs)
	tightMarshalCachedObject2(wf, info.ConnectionId, w, bs)
	tightMarshalCachedObject2(wf, info.TransactionId, w, bs)
	w.WriteByte(info.Type)
}

func (transactionInfoMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	info := o.(*commands.TransactionInfo)
	tightUnmarshalBaseCommand(info, r, bs)
	info.ConnectionId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ConnectionId)
	info.TransactionId, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.TransactionId)
	info.Type = r.ReadByte()
}

func (transactionInfoMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	info := o.(*commands.TransactionInfo)
	looseMarshalBaseCommand(info, w)
	looseMarshalCachedObject(wf, info.ConnectionId, w)
	looseMarshalCachedObject(wf, info.TransactionId, w)
	w.WriteByte(info.Type)
}

func (transactionInfoMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	info := o.(*commands.TransactionInfo)
	looseUnmarshalBaseCommand(info, r)
	info.ConnectionId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ConnectionId)
	info.TransactionId, _ = looseUnmarshalCachedObject(wf, r).(commands.TransactionId)
	info.Type = r.ReadByte()
}

type destinationInfoMarshaller struct{}

func (destinationInfoMarshaller) createObject() commands.DataStructure {
	return &commands.DestinationInfo{}
}

func (destinationInfoMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	info := o.(*commands.DestinationInfo)
	size := tightMarshalBaseCommand1(info, bs)
	size += tightMarshalCachedObject1(wf, info.ConnectionId, bs)
	size += tightMarshalCachedObject1(wf, info.Destination, bs)
	size += 1 // operationType
	size += tightMarshalLong1(info.Timeout, bs)
	size += tightMarshalArray1(wf, info.BrokerPath, bs)
	return size
}

func (destinationInfoMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	info := o.(*commands.DestinationInfo)
	tightMarshalBaseCommand2(info, w, bs)
	tightMarshalCachedObject2(wf, info.ConnectionId, w, bs)
	tightMarshalCachedObject2(wf, info.Destination, w, bs)
	w.WriteByte(info.OperationType)
	tightMarshalLong2(w, info.Timeout, bs)
	tightMarshalArray2(wf, info.BrokerPath, w, bs)
}

func (destinationInfoMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	info := o.(*commands.DestinationInfo)
	tightUnmarshalBaseCommand(info, r, bs)
	info.ConnectionId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ConnectionId)
	info.Destination, _ = tightUnmarshalCachedObject(wf, r, bs).(commands.Destination)
	info.OperationType = r.ReadByte()
	info.Timeout = tightUnmarshalLong(r, bs)
	info.BrokerPath = tightUnmarshalArray[*commands.BrokerId](wf, r, bs)
}

func (destinationInfoMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	info := o.(*commands.DestinationInfo)
	looseMarshalBaseCommand(info, w)
	looseMarshalCachedObject(wf, info.ConnectionId, w)
	looseMarshalCachedObject(wf, info.Destination, w)
	w.WriteByte(info.OperationType)
	w.WriteInt64(info.Timeout)
	looseMarshalArray(wf, info.BrokerPath, w)
}

func (destinationInfoMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	info := o.(*commands.DestinationInfo)
	looseUnmarshalBaseCommand(info, r)
	info.ConnectionId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ConnectionId)
	info.Destination, _ = looseUnmarshalCachedObject(wf, r).(commands.Destination)
	info.OperationType = r.ReadByte()
	info.Timeout = r.ReadInt64()
	info.BrokerPath = looseUnmarshalArray[*commands.BrokerId](wf, r)
}

type removeSubscriptionInfoMarshaller struct{}

func (removeSubscriptionInfoMarshaller) createObject() commands.DataStructure {
	return &commands.RemoveSubscriptionInfo{}
}

func (removeSubscriptionInfoMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	info := o.(*commands.RemoveSubscriptionInfo)
	size := tightMarshalBaseCommand1(info, bs)
	size += tightMarshalCachedObject1(wf, info.ConnectionId, bs)
	size += tightMarshalString1(info.SubscriptionName, bs)
	size += tightMarshalString1(info.ClientId, bs)
	return size
}

func (removeSubscriptionInfoMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	info := o.(*commands.RemoveSubscriptionInfo)
	tightMarshalBaseCommand2(info, w, bs)
	tightMarshalCachedObject2(wf, info.ConnectionId, w, bs)
	tightMarshalString2(w, info.SubscriptionName, bs)
	tightMarshalString2(w, info.ClientId, bs)
}

func (removeSubscriptionInfoMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	info := o.(*commands.RemoveSubscriptionInfo)
	tightUnmarshalBaseCommand(info, r, bs)
	info.ConnectionId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.ConnectionId)
	info.SubscriptionName = tightUnmarshalString(r, bs)
	info.ClientId = tightUnmarshalString(r, bs)
}

func (removeSubscriptionInfoMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	info := o.(*commands.RemoveSubscriptionInfo)
	looseMarshalBaseCommand(info, w)
	looseMarshalCachedObject(wf, info.ConnectionId, w)
	looseMarshalString(w, info.SubscriptionName)
	looseMarshalString(w, info.ClientId)
}

func (removeSubscriptionInfoMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	info := o.(*commands.RemoveSubscriptionInfo)
	looseUnmarshalBaseCommand(info, r)
	info.ConnectionId, _ = looseUnmarshalCachedObject(wf, r).(*commands.ConnectionId)
	info.SubscriptionName = looseUnmarshalString(r)
	info.ClientId = looseUnmarshalString(r)
}

type removeInfoMarshaller struct{}

func (removeInfoMarshaller) createObject() commands.DataStructure { return &commands.RemoveInfo{} }

func (removeInfoMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	info := o.(*commands.RemoveInfo)
	size := tightMarshalBaseCommand1(info, bs)
	size += tightMarshalCachedObject1(wf, info.ObjectId, bs)
	if wf.version >= 5 {
		size += tightMarshalLong1(info.LastDeliveredSequenceId, bs)
	}
	return size
}

func (removeInfoMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	info := o.(*commands.RemoveInfo)
	tightMarshalBaseCommand2(info, w, bs)
	tightMarshalCachedObject2(wf, info.ObjectId, w, bs)
	if wf.version >= 5 {
		tightMarshalLong2(w, info.LastDeliveredSequenceId, bs)
	}
}

func (removeInfoMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	info := o.(*commands.RemoveInfo)
	tightUnmarshalBaseCommand(info, r, bs)
	info.ObjectId = tightUnmarshalCachedObject(wf, r, bs)
	if wf.version >= 5 {
		info.LastDeliveredSequenceId = tightUnmarshalLong(r, bs)
	}
}

func (removeInfoMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	info := o.(*commands.RemoveInfo)
	looseMarshalBaseCommand(info, w)
	looseMarshalCachedObject(wf, info.ObjectId, w)
	if wf.version >= 5 {
		w.WriteInt64(info.LastDeliveredSequenceId)
	}
}

func (removeInfoMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	info := o.(*commands.RemoveInfo)
	looseUnmarshalBaseCommand(info, r)
	info.ObjectId = looseUnmarshalCachedObject(wf, r)
	if wf.version >= 5 {
		info.LastDeliveredSequenceId = r.ReadInt64()
	}
}
