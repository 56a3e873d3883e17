package commands

import "bytes"

// MagicBytes is the 8-byte prelude of every WireFormatInfo frame.
var MagicBytes = []byte{'A', 'c', 't', 'i', 'v', 'e', 'M', 'Q'}

// Property keys negotiated via WireFormatInfo.
const (
	PropTightEncodingEnabled             = "TightEncodingEnabled"
	PropCacheEnabled                     = "CacheEnabled"
	PropCacheSize                        = "CacheSize"
	PropStackTraceEnabled                = "StackTraceEnabled"
	PropSizePrefixDisabled               = "SizePrefixDisabled"
	PropMaxInactivityDuration            = "MaxInactivityDuration"
	PropMaxInactivityDurationInitalDelay = "MaxInactivityDurationInitalDelay"
	PropMaxFrameSize                     = "MaxFrameSize"
)

// WireFormatInfo opens every conversation: both peers send one, and the
// effective wire format is the intersection of the two. Properties carry a
// marshalled primitive map.
type WireFormatInfo struct {
	BaseCommand
	Magic                []byte
	Version              int32
	MarshalledProperties []byte
}

func NewWireFormatInfo(version int32) *WireFormatInfo {
	return &WireFormatInfo{Magic: append([]byte(nil), MagicBytes...), Version: version}
}

func (w *WireFormatInfo) DataStructureType() byte { return TypeWireFormatInfo }

// Valid reports whether the magic prelude matches.
func (w *WireFormatInfo) Valid() bool {
	return bytes.Equal(w.Magic, MagicBytes)
}

// KeepAliveInfo is the inactivity-monitor heartbeat. It has no body.
type KeepAliveInfo struct {
	BaseCommand
}

func (k *KeepAliveInfo) DataStructureType() byte { return TypeKeepAliveInfo }

// ShutdownInfo announces an orderly close of the sending peer.
type ShutdownInfo struct {
	BaseCommand
}

func (s *ShutdownInfo) DataStructureType() byte { return TypeShutdownInfo }

// ControlCommand carries an opaque broker control verb.
type ControlCommand struct {
	BaseCommand
	Command string
}

func (c *ControlCommand) DataStructureType() byte { return TypeControlCommand }

// FlushCommand asks the peer to flush buffered output.
type FlushCommand struct {
	BaseCommand
}

func (f *FlushCommand) DataStructureType() byte { return TypeFlushCommand }

// ConnectionError is a broker-pushed fatal error for one connection.
type ConnectionError struct {
	BaseCommand
	Exception    *BrokerError
	ConnectionId *ConnectionId
}

func (c *ConnectionError) DataStructureType() byte { return TypeConnectionError }

// ConnectionControl lets the broker steer a client: pause/resume delivery,
// fail over to another broker, or rebalance across a cluster. The broker
// lists are comma-separated URIs.
type ConnectionControl struct {
	BaseCommand
	Close               bool
	Exit                bool
	FaultTolerant       bool
	Resume              bool
	Suspend             bool
	ConnectedBrokers    string
	ReconnectTo         string
	RebalanceConnection bool
}

func (c *ConnectionControl) DataStructureType() byte { return TypeConnectionControl }

// ConsumerControl lets the broker adjust a single consumer: change its
// prefetch, pause/resume it, or close it.
type ConsumerControl struct {
	BaseCommand
	Destination Destination
	Close       bool
	ConsumerId  *ConsumerId
	Prefetch    int32
	Flush       bool
	Start       bool
	Stop        bool
}

func (c *ConsumerControl) DataStructureType() byte { return TypeConsumerControl }

// BrokerInfo describes a broker to its peers and clients.
type BrokerInfo struct {
	BaseCommand
	BrokerId                   *BrokerId
	BrokerURL                  string
	PeerBrokerInfos            []*BrokerInfo
	BrokerName                 string
	SlaveBroker                bool
	MasterBroker               bool
	FaultTolerantConfiguration bool
	DuplexConnection           bool
	NetworkConnection          bool
	ConnectionId               int64
	BrokerUploadUrl            string
	NetworkProperties          string
}

func (b *BrokerInfo) DataStructureType() byte { return TypeBrokerInfo }
