package openwire

import "github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"

func init() {
	register(commands.TypeWireFormatInfo, wireFormatInfoMarshaller{})
	register(commands.TypeKeepAliveInfo, headerOnlyMarshaller{create: func() commands.DataStructure { return &commands.KeepAliveInfo{} }})
	register(commands.TypeShutdownInfo, headerOnlyMarshaller{create: func() commands.DataStructure { return &commands.ShutdownInfo{} }})
	register(commands.TypeFlushCommand, headerOnlyMarshaller{create: func() commands.DataStructure { return &commands.FlushCommand{} }})
	register(commands.TypeControlCommand, controlCommandMarshaller{})
	register(commands.TypeConnectionError, connectionErrorMarshaller{})
	register(commands.TypeConnectionControl, connectionControlMarshaller{})
	register(commands.TypeConsumerControl, consumerControlMarshaller{})
	register(commands.TypeBrokerInfo, brokerInfoMarshaller{})
}

// wireFormatInfoMarshaller handles the negotiation frame. Unlike every
// other command it carries no command header: the magic, the version and
// the property map are the whole body.
type wireFormatInfoMarshaller struct{}

func (wireFormatInfoMarshaller) createObject() commands.DataStructure {
	return &commands.WireFormatInfo{}
}

func (wireFormatInfoMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	info := o.(*commands.WireFormatInfo)
	size := 8 + 4
	size += tightMarshalByteArray1(info.MarshalledProperties, bs)
	return size
}

func (wireFormatInfoMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	info := o.(*commands.WireFormatInfo)
	w.WriteBytes(info.Magic)
	w.WriteInt32(info.Version)
	tightMarshalByteArray2(w, info.MarshalledProperties, bs)
}

func (wireFormatInfoMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	info := o.(*commands.WireFormatInfo)
	info.Magic = r.ReadBytes(8)
	info.Version = r.ReadInt32()
	info.MarshalledProperties = tightUnmarshalByteArray(r, bs)
}

func (wireFormatInfoMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	info := o.(*commands.WireFormatInfo)
	w.WriteBytes(info.Magic)
	w.WriteInt32(info.Version)
	looseMarshalByteArray(w, info.MarshalledProperties)
}

func (wireFormatInfoMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	info := o.(*commands.WireFormatInfo)
	info.Magic = r.ReadBytes(8)
	info.Version = r.ReadInt32()
	info.MarshalledProperties = looseUnmarshalByteArray(r)
}

// headerOnlyMarshaller covers the commands whose body is just the command
// header: KeepAliveInfo, ShutdownInfo and FlushCommand.
type headerOnlyMarshaller struct {
	create func() commands.DataStructure
}

func (m headerOnlyMarshaller) createObject() commands.DataStructure { return m.create() }

func (headerOnlyMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	return tightMarshalBaseCommand1(o.(commands.Command), bs)
}

func (headerOnlyMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	tightMarshalBaseCommand2(o.(commands.Command), w, bs)
}

func (headerOnlyMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	tightUnmarshalBaseCommand(o.(commands.Command), r, bs)
}

func (headerOnlyMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	looseMarshalBaseCommand(o.(commands.Command), w)
}

func (headerOnlyMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	looseUnmarshalBaseCommand(o.(commands.Command), r)
}

type controlCommandMarshaller struct{}

func (controlCommandMarshaller) createObject() commands.DataStructure {
	return &commands.ControlCommand{}
}

func (controlCommandMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.ControlCommand)
	size := tightMarshalBaseCommand1(cmd, bs)
	size += tightMarshalString1(cmd.Command, bs)
	return size
}

func (controlCommandMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.ControlCommand)
	tightMarshalBaseCommand2(cmd, w, bs)
	tightMarshalString2(w, cmd.Command, bs)
}

func (controlCommandMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.ControlCommand)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.Command = tightUnmarshalString(r, bs)
}

func (controlCommandMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.ControlCommand)
	looseMarshalBaseCommand(cmd, w)
	looseMarshalString(w, cmd.Command)
}

func (controlCommandMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.ControlCommand)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.Command = looseUnmarshalString(r)
}

type connectionErrorMarshaller struct{}

func (connectionErrorMarshaller) createObject() commands.DataStructure {
	return &commands.ConnectionError{}
}

func (connectionErrorMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.ConnectionError)
	size := tightMarshalBaseCommand1(cmd, bs)
	size += tightMarshalThrowable1(wf, cmd.Exception, bs)
	size += tightMarshalNestedObject1(wf, cmd.ConnectionId, bs)
	return size
}

func (connectionErrorMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.ConnectionError)
	tightMarshalBaseCommand2(cmd, w, bs)
	tightMarshalThrowable2(wf, cmd.Exception, w, bs)
	tightMarshalNestedObject2(wf, cmd.ConnectionId, w, bs)
}

func (connectionErrorMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.ConnectionError)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.Exception = tightUnmarshalThrowable(wf, r, bs)
	cmd.ConnectionId, _ = tightUnmarshalNestedObject(wf, r, bs).(*commands.ConnectionId)
}

func (connectionErrorMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.ConnectionError)
	looseMarshalBaseCommand(cmd, w)
	looseMarshalThrowable(wf, cmd.Exception, w)
	looseMarshalNestedObject(wf, cmd.ConnectionId, w)
}

func (connectionErrorMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.ConnectionError)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.Exception = looseUnmarshalThrowable(wf, r)
	cmd.ConnectionId, _ = looseUnmarshalNestedObject(wf, r).(*commands.ConnectionId)
}

type connectionControlMarshaller struct{}

func (connectionControlMarshaller) createObject() commands.DataStructure {
	return &commands.ConnectionControl{}
}

func (connectionControlMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.ConnectionControl)
	size := tightMarshalBaseCommand1(cmd, bs)
	bs.WriteBool(cmd.Close)
	bs.WriteBool(cmd.Exit)
	bs.WriteBool(cmd.FaultTolerant)
	bs.WriteBool(cmd.Resume)
	bs.WriteBool(cmd.Suspend)
	if wf.version >= 6 {
		size += tightMarshalString1(cmd.ConnectedBrokers, bs)
		size += tightMarshalString1(cmd.ReconnectTo, bs)
		bs.WriteBool(cmd.RebalanceConnection)
	}
	return size
}

func (connectionControlMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.ConnectionControl)
	tightMarshalBaseCommand2(cmd, w, bs)
	bs.ReadBool()
	bs.ReadBool()
	bs.ReadBool()
	bs.ReadBool()
	bs.ReadBool()
	if wf.version >= 6 {
		tightMarshalString2(w, cmd.ConnectedBrokers, bs)
		tightMarshalString2(w, cmd.ReconnectTo, bs)
		bs.ReadBool()
	}
}

func (connectionControlMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.ConnectionControl)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.Close = bs.ReadBool()
	cmd.Exit = bs.ReadBool()
	cmd.FaultTolerant = bs.ReadBool()
	cmd.Resume = bs.ReadBool()
	cmd.Suspend = bs.ReadBool()
	if wf.version >= 6 {
		cmd.ConnectedBrokers = tightUnmarshalString(r, bs)
		cmd.ReconnectTo = tightUnmarshalString(r, bs)
		cmd.RebalanceConnection = bs.ReadBool()
	}
}

func (connectionControlMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.ConnectionControl)
	looseMarshalBaseCommand(cmd, w)
	w.WriteBool(cmd.Close)
	w.WriteBool(cmd.Exit)
	w.WriteBool(cmd.FaultTolerant)
	w.WriteBool(cmd.Resume)
	w.WriteBool(cmd.Suspend)
	if wf.version >= 6 {
		looseMarshalString(w, cmd.ConnectedBrokers)
		looseMarshalString(w, cmd.ReconnectTo)
		w.WriteBool(cmd.RebalanceConnection)
	}
}

func (connectionControlMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.ConnectionControl)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.Close = r.ReadBool()
	cmd.Exit = r.ReadBool()
	cmd.FaultTolerant = r.ReadBool()
	cmd.Resume = r.ReadBool()
	cmd.Suspend = r.ReadBool()
	if wf.version >= 6 {
		cmd.ConnectedBrokers = looseUnmarshalString(r)
		cmd.ReconnectTo = looseUnmarshalString(r)
		cmd.RebalanceConnection = r.ReadBool()
	}
}

type consumerControlMarshaller struct{}

func (consumerControlMarshaller) createObject() commands.DataStructure {
	return &commands.ConsumerControl{}
}

func (consumerControlMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.ConsumerControl)
	size := tightMarshalBaseCommand1(cmd, bs)
	if wf.version >= 6 {
		size += tightMarshalNestedObject1(wf, cmd.Destination, bs)
	}
	bs.WriteBool(cmd.Close)
	size += tightMarshalNestedObject1(wf, cmd.ConsumerId, bs)
	size += 4 // prefetch
	if wf.version >= 2 {
		bs.WriteBool(cmd.Flush)
		bs.WriteBool(cmd.Start)
		bs.WriteBool(cmd.Stop)
	}
	return size
}

func (consumerControlMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.ConsumerControl)
	tightMarshalBaseCommand2(cmd, w, bs)
	if wf.version >= 6 {
		tightMarshalNestedObject2(wf, cmd.Destination, w, bs)
	}
	bs.ReadBool()
	tightMarshalNestedObject2(wf, cmd.ConsumerId, w, bs)
	w.WriteInt32(cmd.Prefetch)
	if wf.version >= 2 {
		bs.ReadBool()
		bs.ReadBool()
		bs.ReadBool()
	}
}

func (consumerControlMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.ConsumerControl)
	tightUnmarshalBaseCommand(cmd, r, bs)
	if wf.version >= 6 {
		cmd.Destination, _ = tightUnmarshalNestedObject(wf, r, bs).(commands.Destination)
	}
	cmd.Close = bs.ReadBool()
	cmd.ConsumerId, _ = tightUnmarshalNestedObject(wf, r, bs).(*commands.ConsumerId)
	cmd.Prefetch = r.ReadInt32()
	if wf.version >= 2 {
		cmd.Flush = bs.ReadBool()
		cmd.Start = bs.ReadBool()
		cmd.Stop = bs.ReadBool()
	}
}

func (consumerControlMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.ConsumerControl)
	looseMarshalBaseCommand(cmd, w)
	if wf.version >= 6 {
		looseMarshalNestedObject(wf, cmd.Destination, w)
	}
	w.WriteBool(cmd.Close)
	looseMarshalNestedObject(wf, cmd.ConsumerId, w)
	w.WriteInt32(cmd.Prefetch)
	if wf.version >= 2 {
		w.WriteBool(cmd.Flush)
		w.WriteBool(cmd.Start)
		w.WriteBool(cmd.Stop)
	}
}

func (consumerControlMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.ConsumerControl)
	looseUnmarshalBaseCommand(cmd, r)
	if wf.version >= 6 {
		cmd.Destination, _ = looseUnmarshalNestedObject(wf, r).(commands.Destination)
	}
	cmd.Close = r.ReadBool()
	cmd.ConsumerId, _ = looseUnmarshalNestedObject(wf, r).(*commands.ConsumerId)
	cmd.Prefetch = r.ReadInt32()
	if wf.version >= 2 {
		cmd.Flush = r.ReadBool()
		cmd.Start = r.ReadBool()
		cmd.Stop = r.ReadBool()
	}
}

type brokerInfoMarshaller struct{}

func (brokerInfoMarshaller) createObject() commands.DataStructure { return &commands.BrokerInfo{} }

func (brokerInfoMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	info := o.(*commands.BrokerInfo)
	size := tightMarshalBaseCommand1(info, bs)
	size += tightMarshalCachedObject1(wf, info.BrokerId, bs)
	size += tightMarshalString1(info.BrokerURL, bs)
	size += tightMarshalArray1(wf, info.PeerBrokerInfos, bs)
	size += tightMarshalString1(info.BrokerName, bs)
	bs.WriteBool(info.SlaveBroker)
	bs.WriteBool(info.MasterBroker)
	bs.WriteBool(info.FaultTolerantConfiguration)
	if wf.version >= 2 {
		bs.WriteBool(info.DuplexConnection)
		bs.WriteBool(info.NetworkConnection)
		size += tightMarshalLong1(info.ConnectionId, bs)
	}
	if wf.version >= 3 {
		size += tightMarshalString1(info.BrokerUploadUrl, bs)
		size += tightMarshalString1(info.NetworkProperties, bs)
	}
	return size
}

func (brokerInfoMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	info := o.(*commands.BrokerInfo)
	tightMarshalBaseCommand2(info, w, bs)
	tightMarshalCachedObject2(wf, info.BrokerId, w, bs)
	tightMarshalString2(w, info.BrokerURL, bs)
	tightMarshalArray2(wf, info.PeerBrokerInfos, w, bs)
	tightMarshalString2(w, info.BrokerName, bs)
	bs.ReadBool()
	bs.ReadBool()
	bs.ReadBool()
	if wf.version >= 2 {
		bs.ReadBool()
		bs.ReadBool()
		tightMarshalLong2(w, info.ConnectionId, bs)
	}
	if wf.version >= 3 {
		tightMarshalString2(w, info.BrokerUploadUrl, bs)
		tightMarshalString2(w, info.NetworkProperties, bs)
	}
}

func (brokerInfoMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	info := o.(*commands.BrokerInfo)
	tightUnmarshalBaseCommand(info, r, bs)
	info.BrokerId, _ = tightUnmarshalCachedObject(wf, r, bs).(*commands.BrokerId)
	info.BrokerURL = tightUnmarshalString(r, bs)
	info.PeerBrokerInfos = tightUnmarshalArray[*commands.BrokerInfo](wf, r, bs)
	info.BrokerName = tightUnmarshalString(r, bs)
	info.SlaveBroker = bs.ReadBool()
	info.MasterBroker = bs.ReadBool()
	info.FaultTolerantConfiguration = bs.ReadBool()
	if wf.version >= 2 {
		info.DuplexConnection = bs.ReadBool()
		info.NetworkConnection = bs.ReadBool()
		info.ConnectionId = tightUnmarshalLong(r, bs)
	}
	if wf.version >= 3 {
		info.BrokerUploadUrl = tightUnmarshalString(r, bs)
		info.NetworkProperties = tightUnmarshalString(r, bs)
	}
}

func (brokerInfoMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	info := o.(*commands.BrokerInfo)
	looseMarshalBaseCommand(info, w)
	looseMarshalCachedObject(wf, info.BrokerId, w)
	looseMarshalString(w, info.BrokerURL)
	looseMarshalArray(wf, info.PeerBrokerInfos, w)
	looseMarshalString(w, info.BrokerName)
	w.WriteBool(info.SlaveBroker)
	w.WriteBool(info.MasterBroker)
	w.WriteBool(info.FaultTolerantConfiguration)
	if wf.version >= 2 {
		w.WriteBool(info.DuplexConnection)
		w.WriteBool(info.NetworkConnection)
		w.WriteInt64(info.ConnectionId)
	}
	if wf.version >= 3 {
		looseMarshalString(w, info.BrokerUploadUrl)
		looseMarshalString(w, info.NetworkProperties)
	}
}

func (brokerInfoMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	info := o.(*commands.BrokerInfo)
	looseUnmarshalBaseCommand(info, r)
	info.BrokerId, _ = looseUnmarshalCachedObject(wf, r).(*commands.BrokerId)
	info.BrokerURL = looseUnmarshalString(r)
	info.PeerBrokerInfos = looseUnmarshalArray[*commands.BrokerInfo](wf, r)
	info.BrokerName = looseUnmarshalString(r)
	info.SlaveBroker = r.ReadBool()
	info.MasterBroker = r.ReadBool()
	info.FaultTolerantConfiguration = r.ReadBool()
	if wf.version >= 2 {
		info.DuplexConnection = r.ReadBool()
		info.NetworkConnection = r.ReadBool()
		info.ConnectionId = r.ReadInt64()
	}
	if wf.version >= 3 {
		info.BrokerUploadUrl = looseUnmarshalString(r)
		info.NetworkProperties = looseUnmarshalString(r)
	}
}
