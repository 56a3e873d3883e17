// Package openwire implements the OpenWire binary wire format: the framing,
// the tight and loose encodings, version negotiation, and the per-direction
// identifier caches.
//
// A WireFormat starts in the conservative pre-negotiation configuration
// (loose encoding, no caching, version 1 semantics for optional features).
// Once the peer's WireFormatInfo arrives, Renegotiate applies the
// intersection of the two peers' capabilities and subsequent frames use the
// negotiated settings.
package openwire

import (
	"io"
	"sync"
	"time"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/primitives"
)

// CurrentVersion is the newest protocol version this codec speaks. Older
// brokers negotiate the codec down during the WireFormatInfo exchange.
const CurrentVersion int32 = 6

// DefaultMaxFrameSize is the frame size cap applied until negotiation says
// otherwise (100 MiB).
const DefaultMaxFrameSize int64 = 100 * 1024 * 1024

// Options are the locally preferred wire format settings, before
// negotiation. URI query options under the wireFormat. prefix map onto
// these fields.
type Options struct {
	TightEncodingEnabled              bool          `env:"OPENWIRE_TIGHT_ENCODING" env-default:"true" opt:"wireFormat.tightEncodingEnabled"`
	CacheEnabled                      bool          `env:"OPENWIRE_CACHE_ENABLED" env-default:"true" opt:"wireFormat.cacheEnabled"`
	CacheSize                         int32         `env:"OPENWIRE_CACHE_SIZE" env-default:"1024" opt:"wireFormat.cacheSize" validate:"min=0,max=32767"`
	StackTraceEnabled                 bool          `env:"OPENWIRE_STACK_TRACE_ENABLED" env-default:"true" opt:"wireFormat.stackTraceEnabled"`
	SizePrefixDisabled                bool          `env:"OPENWIRE_SIZE_PREFIX_DISABLED" env-default:"false" opt:"wireFormat.sizePrefixDisabled"`
	MaxInactivityDuration             time.Duration `env:"OPENWIRE_MAX_INACTIVITY" env-default:"30s" opt:"wireFormat.maxInactivityDuration"`
	MaxInactivityDurationInitialDelay time.Duration `env:"OPENWIRE_MAX_INACTIVITY_INITIAL_DELAY" env-default:"10s" opt:"wireFormat.maxInactivityDurationInitalDelay"`
	MaxFrameSize                      int64         `env:"OPENWIRE_MAX_FRAME_SIZE" env-default:"104857600" opt:"wireFormat.maxFrameSize" validate:"min=1024"`
}

// DefaultOptions returns the standard client preferences.
func DefaultOptions() Options {
	return Options{
		TightEncodingEnabled:              true,
		CacheEnabled:                      true,
		CacheSize:                         1024,
		StackTraceEnabled:                 true,
		MaxInactivityDuration:             30 * time.Second,
		MaxInactivityDurationInitialDelay: 10 * time.Second,
		MaxFrameSize:                      DefaultMaxFrameSize,
	}
}

// WireFormat is the codec for one transport. It is safe for one marshalling
// and one unmarshalling goroutine plus concurrent renegotiation.
type WireFormat struct {
	mu   sync.Mutex
	opts Options

	version       int32
	tightEncoding bool
	cacheEnabled  bool
	cacheSize     int32
	stackTrace    bool
	sizePrefix    bool
	maxFrameSize  int64

	maxInactivity             time.Duration
	maxInactivityInitialDelay time.Duration

	marshalIndex      map[string]int16
	marshalSlots      []commands.DataStructure
	marshalAssigned   []bool
	nextMarshalIdx    int16
	unmarshalSlots    []commands.DataStructure
	unmarshalAssigned []bool
}

// NewWireFormat creates a codec in the pre-negotiation configuration.
func NewWireFormat(opts Options) *WireFormat {
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = DefaultMaxFrameSize
	}
	return &WireFormat{
		opts:         opts,
		version:      1,
		sizePrefix:   true,
		maxFrameSize: opts.MaxFrameSize,

		maxInactivity:             opts.MaxInactivityDuration,
		maxInactivityInitialDelay: opts.MaxInactivityDurationInitialDelay,
	}
}

// Version returns the protocol version currently in effect.
func (wf *WireFormat) Version() int32 {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	return wf.version
}

// MaxInactivityDuration returns the negotiated dead-peer detection window.
func (wf *WireFormat) MaxInactivityDuration() time.Duration {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	return wf.maxInactivity
}

// MaxInactivityInitialDelay returns the negotiated grace period before dead
// peer detection starts.
func (wf *WireFormat) MaxInactivityInitialDelay() time.Duration {
	wf.mu.Lock()
	defer wf.mu.Unlock()
	return wf.maxInactivityInitialDelay
}

// PreferredWireFormatInfo builds the WireFormatInfo advertising our
// preferences, sent as the first frame of every conversation.
func (wf *WireFormat) PreferredWireFormatInfo() (*commands.WireFormatInfo, error) {
	wf.mu.Lock()
	opts := wf.opts
	wf.mu.Unlock()

	props := primitives.Map{
		commands.PropTightEncodingEnabled:             primitives.NewBool(opts.TightEncodingEnabled),
		commands.PropCacheEnabled:                     primitives.NewBool(opts.CacheEnabled),
		commands.PropCacheSize:                        primitives.NewInt(opts.CacheSize),
		commands.PropStackTraceEnabled:                primitives.NewBool(opts.StackTraceEnabled),
		commands.PropSizePrefixDisabled:               primitives.NewBool(opts.SizePrefixDisabled),
		commands.PropMaxInactivityDuration:            primitives.NewLong(opts.MaxInactivityDuration.Milliseconds()),
		commands.PropMaxInactivityDurationInitalDelay: primitives.NewLong(opts.MaxInactivityDurationInitialDelay.Milliseconds()),
		commands.PropMaxFrameSize:                     primitives.NewLong(opts.MaxFrameSize),
	}
	marshalled, err := primitives.MarshalMap(props)
	if err != nil {
		return nil, err
	}
	info := commands.NewWireFormatInfo(CurrentVersion)
	info.MarshalledProperties = marshalled
	return info, nil
}

// Renegotiate applies the peer's WireFormatInfo: size-like settings take the
// minimum of the two preferences, capability flags the logical AND. The
// identifier caches are resized and cleared.
func (wf *WireFormat) Renegotiate(peer *commands.WireFormatInfo) error {
	if !peer.Valid() {
		return ErrBadMagic(peer.Magic)
	}
	props, err := primitives.UnmarshalMap(peer.MarshalledProperties)
	if err != nil {
		return err
	}

	wf.mu.Lock()
	defer wf.mu.Unlock()

	wf.version = min32(CurrentVersion, peer.Version)
	if wf.version < 1 {
		return errors.Newf(CodeBadMagic, "unsupported peer wire format version %d", peer.Version)
	}

	wf.tightEncoding = wf.opts.TightEncodingEnabled && props.GetBool(commands.PropTightEncodingEnabled, false)
	wf.stackTrace = wf.opts.StackTraceEnabled && props.GetBool(commands.PropStackTraceEnabled, false)
	wf.sizePrefix = !(wf.opts.SizePrefixDisabled && props.GetBool(commands.PropSizePrefixDisabled, false))

	wf.cacheEnabled = wf.opts.CacheEnabled && props.GetBool(commands.PropCacheEnabled, false)
	wf.cacheSize = minPositive32(wf.opts.CacheSize, props.GetInt(commands.PropCacheSize, 0))
	if wf.cacheSize <= 0 {
		wf.cacheEnabled = false
	}
	if wf.cacheEnabled {
		wf.marshalIndex = make(map[string]int16, wf.cacheSize)
		wf.marshalSlots = make([]commands.DataStructure, wf.cacheSize)
		wf.marshalAssigned = make([]bool, wf.cacheSize)
		wf.nextMarshalIdx = 0
		wf.unmarshalSlots = make([]commands.DataStructure, wf.cacheSize)
		wf.unmarshalAssigned = make([]bool, wf.cacheSize)
	} else {
		wf.marshalIndex = nil
		wf.marshalSlots = nil
		wf.marshalAssigned = nil
		wf.unmarshalSlots = nil
		wf.unmarshalAssigned = nil
	}

	if peerMax := props.GetLong(commands.PropMaxFrameSize, 0); peerMax > 0 {
		wf.maxFrameSize = min64(wf.maxFrameSize, peerMax)
	}
	wf.maxInactivity = negotiateDuration(wf.opts.MaxInactivityDuration, props.GetLong(commands.PropMaxInactivityDuration, 0))
	wf.maxInactivityInitialDelay = negotiateDuration(wf.opts.MaxInactivityDurationInitialDelay, props.GetLong(commands.PropMaxInactivityDurationInitalDelay, 0))
	return nil
}

// Marshal encodes one data structure as a frame on out.
func (wf *WireFormat) Marshal(o commands.DataStructure, out io.Writer) error {
	wf.mu.Lock()
	defer wf.mu.Unlock()

	w := NewWriter()
	if o == nil {
		if wf.sizePrefix {
			w.WriteInt32(1)
		}
		w.WriteByte(0)
		_, err := out.Write(w.Bytes())
		return err
	}

	if aware, ok := o.(commands.MarshalAware); ok {
		if err := aware.BeforeMarshal(); err != nil {
			return err
		}
	}

	tag := o.DataStructureType()
	m := marshallerFor(tag)
	if m == nil {
		return ErrUnknownType(tag)
	}

	body := NewWriter()
	body.WriteByte(tag)
	if wf.tightEncoding {
		bs := NewBooleanStream()
		m.tightMarshal1(wf, o, bs)
		if err := bs.Err(); err != nil {
			return err
		}
		bs.Restart()
		bs.MarshalTo(body)
		m.tightMarshal2(wf, o, body, bs)
	} else {
		m.looseMarshal(wf, o, body)
	}
	if err := body.Err(); err != nil {
		return err
	}
	if int64(body.Len()) > wf.maxFrameSize {
		return ErrFrameTooLarge(int64(body.Len()), wf.maxFrameSize)
	}

	if wf.sizePrefix {
		w.WriteInt32(int32(body.Len()))
	}
	w.WriteBytes(body.Bytes())
	if err := w.Err(); err != nil {
		return err
	}
	_, err := out.Write(w.Bytes())
	return err
}

// Unmarshal reads one frame from in. The frame body is not allocated until
// the length prefix has passed the max-frame-size check.
func (wf *WireFormat) Unmarshal(in io.Reader) (commands.DataStructure, error) {
	var header [4]byte
	if _, err := io.ReadFull(in, header[:]); err != nil {
		return nil, err
	}
	size := int32(uint32(header[0])<<24 | uint32(header[1])<<16 | uint32(header[2])<<8 | uint32(header[3]))
	if size < 1 {
		return nil, ErrTruncated("frame header")
	}
	wf.mu.Lock()
	maxSize := wf.maxFrameSize
	wf.mu.Unlock()
	if int64(size) > maxSize {
		return nil, ErrFrameTooLarge(int64(size), maxSize)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(in, body); err != nil {
		return nil, ErrTruncated("frame body")
	}
	return wf.Decode(body)
}

// Decode decodes one frame body (everything after the length prefix).
func (wf *WireFormat) Decode(body []byte) (commands.DataStructure, error) {
	wf.mu.Lock()
	defer wf.mu.Unlock()

	r := NewReader(body)
	tag := r.ReadByte()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	m := marshallerFor(tag)
	if m == nil {
		return nil, ErrUnknownType(tag)
	}

	o := m.createObject()
	if wf.tightEncoding {
		bs := NewBooleanStream()
		bs.UnmarshalFrom(r)
		m.tightUnmarshal(wf, o, r, bs)
	} else {
		m.looseUnmarshal(wf, o, r)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if aware, ok := o.(commands.MarshalAware); ok {
		if err := aware.AfterUnmarshal(); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Cache plumbing. The marshal cache wraps around when full, evicting the
// oldest entry on both sides in lockstep; the unmarshal cache mirrors the
// peer's assignments.

func (wf *WireFormat) cacheEnabledNow() bool { return wf.cacheEnabled }

func (wf *WireFormat) marshalCacheIndex(o commands.DataStructure) (int16, bool) {
	idx, ok := wf.marshalIndex[cacheKey(o)]
	return idx, ok
}

func (wf *WireFormat) addToMarshalCache(o commands.DataStructure) int16 {
	idx := wf.nextMarshalIdx
	wf.nextMarshalIdx++
	if int(wf.nextMarshalIdx) >= len(wf.marshalSlots) {
		wf.nextMarshalIdx = 0
	}
	if wf.marshalAssigned[idx] {
		delete(wf.marshalIndex, cacheKey(wf.marshalSlots[idx]))
	}
	wf.marshalSlots[idx] = o
	wf.marshalAssigned[idx] = true
	wf.marshalIndex[cacheKey(o)] = idx
	return idx
}

func (wf *WireFormat) unmarshalCacheStore(idx int16, o commands.DataStructure) error {
	if int(idx) < 0 || int(idx) >= len(wf.unmarshalSlots) {
		return ErrCacheMiss(idx)
	}
	wf.unmarshalSlots[idx] = o
	wf.unmarshalAssigned[idx] = true
	return nil
}

func (wf *WireFormat) unmarshalCacheLookup(idx int16) (commands.DataStructure, error) {
	if int(idx) < 0 || int(idx) >= len(wf.unmarshalSlots) || !wf.unmarshalAssigned[idx] {
		return nil, ErrCacheMiss(idx)
	}
	return wf.unmarshalSlots[idx], nil
}

// cacheKey gives a stable value-equality key for every cacheable type; the
// canonical string form is the cross-language identity.
func cacheKey(o commands.DataStructure) string {
	if isNil(o) {
		return "\x00"
	}
	type stringer interface{ String() string }
	if s, ok := o.(stringer); ok {
		return string([]byte{o.DataStructureType()}) + s.String()
	}
	return string([]byte{o.DataStructureType()})
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func minPositive32(a, b int32) int32 {
	if a <= 0 {
		return b
	}
	if b <= 0 {
		return a
	}
	return min32(a, b)
}

func negotiateDuration(ours time.Duration, peerMillis int64) time.Duration {
	theirs := time.Duration(peerMillis) * time.Millisecond
	if ours <= 0 || theirs <= 0 {
		return 0
	}
	if theirs < ours {
		return theirs
	}
	return ours
}
