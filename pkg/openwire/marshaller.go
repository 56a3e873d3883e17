package openwire

import (
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/primitives"
)

// marshaller encodes and decodes one data structure type. Tight encoding is
// two-pass: tightMarshal1 sizes the body and collects boolean bits,
// tightMarshal2 writes the remaining fields consuming those bits in order.
type marshaller interface {
	createObject() commands.DataStructure
	tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int
	tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream)
	tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream)
	looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer)
	looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader)
}

var registry [256]marshaller

func register(tag byte, m marshaller) { registry[tag] = m }

func marshallerFor(tag byte) marshaller { return registry[tag] }

func isNil(o commands.DataStructure) bool {
	if o == nil {
		return true
	}
	// A typed nil pointer inside the interface is still nil on the wire.
	switch v := o.(type) {
	case *commands.ConnectionId:
		return v == nil
	case *commands.SessionId:
		return v == nil
	case *commands.ProducerId:
		return v == nil
	case *commands.ConsumerId:
		return v == nil
	case *commands.BrokerId:
		return v == nil
	case *commands.MessageId:
		return v == nil
	case *commands.LocalTransactionId:
		return v == nil
	case *commands.XATransactionId:
		return v == nil
	}
	return false
}

// Strings. The empty string marshals as absent; the tight form spends one
// presence bit and one bit recording whether the text was pure ASCII.

func tightMarshalString1(s string, bs *BooleanStream) int {
	if s == "" {
		bs.WriteBool(false)
		return 0
	}
	bs.WriteBool(true)
	encoded := primitives.EncodeModifiedUTF8(s)
	if len(encoded) > 32767 {
		bs.Fail(ErrTruncated("string too long for tight encoding"))
		return 0
	}
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] == 0 || s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	bs.WriteBool(ascii)
	return len(encoded) + 2
}

func tightMarshalString2(w *Writer, s string, bs *BooleanStream) {
	if bs.ReadBool() {
		bs.ReadBool()
		w.WriteUTF(s)
	}
}

func tightUnmarshalString(r *Reader, bs *BooleanStream) string {
	if bs.ReadBool() {
		bs.ReadBool()
		return r.ReadUTF()
	}
	return ""
}

func looseMarshalString(w *Writer, s string) {
	w.WriteBool(s != "")
	if s != "" {
		w.WriteUTF(s)
	}
}

func looseUnmarshalString(r *Reader) string {
	if r.ReadBool() {
		return r.ReadUTF()
	}
	return ""
}

// Longs compress to 0, 2, 4 or 8 bytes, the width recorded in two bits.

func tightMarshalLong1(v int64, bs *BooleanStream) int {
	u := uint64(v)
	switch {
	case u == 0:
		bs.WriteBool(false)
		bs.WriteBool(false)
		return 0
	case u&0xFFFFFFFFFFFF0000 == 0:
		bs.WriteBool(false)
		bs.WriteBool(true)
		return 2
	case u&0xFFFFFFFF00000000 == 0:
		bs.WriteBool(true)
		bs.WriteBool(false)
		return 4
	default:
		bs.WriteBool(true)
		bs.WriteBool(true)
		return 8
	}
}

func tightMarshalLong2(w *Writer, v int64, bs *BooleanStream) {
	if bs.ReadBool() {
		if bs.ReadBool() {
			w.WriteInt64(v)
		} else {
			w.WriteInt32(int32(uint32(uint64(v))))
		}
	} else if bs.ReadBool() {
		w.WriteUint16(uint16(uint64(v)))
	}
}

func tightUnmarshalLong(r *Reader, bs *BooleanStream) int64 {
	if bs.ReadBool() {
		if bs.ReadBool() {
			return r.ReadInt64()
		}
		return int64(uint32(r.ReadInt32()))
	}
	if bs.ReadBool() {
		return int64(r.ReadUint16())
	}
	return 0
}

// Nested objects carry a presence bit (tight) or byte (loose), then the
// type tag and body.

func tightMarshalNestedObject1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	if isNil(o) {
		bs.WriteBool(false)
		return 0
	}
	bs.WriteBool(true)
	if aware, ok := o.(commands.MarshalAware); ok {
		if err := aware.BeforeMarshal(); err != nil {
			bs.Fail(err)
			return 0
		}
	}
	m := marshallerFor(o.DataStructureType())
	if m == nil {
		bs.Fail(ErrUnknownType(o.DataStructureType()))
		return 0
	}
	return 1 + m.tightMarshal1(wf, o, bs)
}

func tightMarshalNestedObject2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	if !bs.ReadBool() {
		return
	}
	tag := o.DataStructureType()
	w.WriteByte(tag)
	marshallerFor(tag).tightMarshal2(wf, o, w, bs)
}

func tightUnmarshalNestedObject(wf *WireFormat, r *Reader, bs *BooleanStream) commands.DataStructure {
	if !bs.ReadBool() {
		return nil
	}
	tag := r.ReadByte()
	m := marshallerFor(tag)
	if m == nil {
		r.fail(ErrUnknownType(tag))
		return nil
	}
	o := m.createObject()
	m.tightUnmarshal(wf, o, r, bs)
	if aware, ok := o.(commands.MarshalAware); ok {
		if err := aware.AfterUnmarshal(); err != nil {
			r.fail(err)
		}
	}
	return o
}

func looseMarshalNestedObject(wf *WireFormat, o commands.DataStructure, w *Writer) {
	if isNil(o) {
		w.WriteBool(false)
		return
	}
	w.WriteBool(true)
	if aware, ok := o.(commands.MarshalAware); ok {
		if err := aware.BeforeMarshal(); err != nil {
			w.fail(err)
			return
		}
	}
	tag := o.DataStructureType()
	m := marshallerFor(tag)
	if m == nil {
		w.fail(ErrUnknownType(tag))
		return
	}
	w.WriteByte(tag)
	m.looseMarshal(wf, o, w)
}

func looseUnmarshalNestedObject(wf *WireFormat, r *Reader) commands.DataStructure {
	if !r.ReadBool() {
		return nil
	}
	tag := r.ReadByte()
	m := marshallerFor(tag)
	if m == nil {
		r.fail(ErrUnknownType(tag))
		return nil
	}
	o := m.createObject()
	m.looseUnmarshal(wf, o, r)
	if aware, ok := o.(commands.MarshalAware); ok {
		if err := aware.AfterUnmarshal(); err != nil {
			r.fail(err)
		}
	}
	return o
}

// Cached objects: on a cache miss the sender assigns the next slot and
// sends the full value after the slot index; on a hit only the index goes
// out. The receiver mirrors the assignments.

func tightMarshalCachedObject1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	if !wf.cacheEnabledNow() {
		return tightMarshalNestedObject1(wf, o, bs)
	}
	if _, ok := wf.marshalCacheIndex(o); ok {
		bs.WriteBool(false)
		return 2
	}
	bs.WriteBool(true)
	wf.addToMarshalCache(o)
	return 2 + tightMarshalNestedObject1(wf, o, bs)
}

func tightMarshalCachedObject2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	if !wf.cacheEnabledNow() {
		tightMarshalNestedObject2(wf, o, w, bs)
		return
	}
	idx, _ := wf.marshalCacheIndex(o)
	w.WriteUint16(uint16(idx))
	if bs.ReadBool() {
		tightMarshalNestedObject2(wf, o, w, bs)
	}
}

func tightUnmarshalCachedObject(wf *WireFormat, r *Reader, bs *BooleanStream) commands.DataStructure {
	if !wf.cacheEnabledNow() {
		return tightUnmarshalNestedObject(wf, r, bs)
	}
	if bs.ReadBool() {
		idx := int16(r.ReadUint16())
		o := tightUnmarshalNestedObject(wf, r, bs)
		if err := wf.unmarshalCacheStore(idx, o); err != nil {
			r.fail(err)
		}
		return o
	}
	idx := int16(r.ReadUint16())
	o, err := wf.unmarshalCacheLookup(idx)
	if err != nil {
		r.fail(err)
		return nil
	}
	return o
}

func looseMarshalCachedObject(wf *WireFormat, o commands.DataStructure, w *Writer) {
	if !wf.cacheEnabledNow() {
		looseMarshalNestedObject(wf, o, w)
		return
	}
	idx, hit := wf.marshalCacheIndex(o)
	if !hit {
		idx = wf.addToMarshalCache(o)
	}
	w.WriteBool(!hit)
	w.WriteUint16(uint16(idx))
	if !hit {
		looseMarshalNestedObject(wf, o, w)
	}
}

func looseUnmarshalCachedObject(wf *WireFormat, r *Reader) commands.DataStructure {
	if !wf.cacheEnabledNow() {
		return looseUnmarshalNestedObject(wf, r)
	}
	miss := r.ReadBool()
	idx := int16(r.ReadUint16())
	if miss {
		o := looseUnmarshalNestedObject(wf, r)
		if err := wf.unmarshalCacheStore(idx, o); err != nil {
			r.fail(err)
		}
		return o
	}
	o, err := wf.unmarshalCacheLookup(idx)
	if err != nil {
		r.fail(err)
		return nil
	}
	return o
}

// Byte arrays: nil marshals as absent, otherwise a u32 length and the raw
// bytes.

func tightMarshalByteArray1(data []byte, bs *BooleanStream) int {
	if data == nil {
		bs.WriteBool(false)
		return 0
	}
	bs.WriteBool(true)
	return len(data) + 4
}

func tightMarshalByteArray2(w *Writer, data []byte, bs *BooleanStream) {
	if bs.ReadBool() {
		w.WriteInt32(int32(len(data)))
		w.WriteBytes(data)
	}
}

func tightUnmarshalByteArray(r *Reader, bs *BooleanStream) []byte {
	if !bs.ReadBool() {
		return nil
	}
	n := r.ReadInt32()
	if n < 0 {
		r.fail(ErrTruncated("negative byte array length"))
		return nil
	}
	return r.ReadBytes(int(n))
}

func looseMarshalByteArray(w *Writer, data []byte) {
	w.WriteBool(data != nil)
	if data != nil {
		w.WriteInt32(int32(len(data)))
		w.WriteBytes(data)
	}
}

func looseUnmarshalByteArray(r *Reader) []byte {
	if !r.ReadBool() {
		return nil
	}
	n := r.ReadInt32()
	if n < 0 {
		r.fail(ErrTruncated("negative byte array length"))
		return nil
	}
	return r.ReadBytes(int(n))
}

// Object arrays (broker paths, network consumer paths, response sets).

func tightMarshalArray1[T commands.DataStructure](wf *WireFormat, arr []T, bs *BooleanStream) int {
	if arr == nil {
		bs.WriteBool(false)
		return 0
	}
	bs.WriteBool(true)
	size := 2
	for _, o := range arr {
		size += tightMarshalNestedObject1(wf, o, bs)
	}
	return size
}

func tightMarshalArray2[T commands.DataStructure](wf *WireFormat, arr []T, w *Writer, bs *BooleanStream) {
	if !bs.ReadBool() {
		return
	}
	w.WriteUint16(uint16(len(arr)))
	for _, o := range arr {
		tightMarshalNestedObject2(wf, o, w, bs)
	}
}

func tightUnmarshalArray[T commands.DataStructure](wf *WireFormat, r *Reader, bs *BooleanStream) []T {
	if !bs.ReadBool() {
		return nil
	}
	n := int(r.ReadUint16())
	arr := make([]T, 0, n)
	for i := 0; i < n; i++ {
		o := tightUnmarshalNestedObject(wf, r, bs)
		if o == nil {
			var zero T
			arr = append(arr, zero)
			continue
		}
		typed, ok := o.(T)
		if !ok {
			r.fail(ErrUnknownType(o.DataStructureType()))
			return nil
		}
		arr = append(arr, typed)
	}
	return arr
}

func looseMarshalArray[T commands.DataStructure](wf *WireFormat, arr []T, w *Writer) {
	w.WriteBool(arr != nil)
	if arr == nil {
		return
	}
	w.WriteUint16(uint16(len(arr)))
	for _, o := range arr {
		looseMarshalNestedObject(wf, o, w)
	}
}

func looseUnmarshalArray[T commands.DataStructure](wf *WireFormat, r *Reader) []T {
	if !r.ReadBool() {
		return nil
	}
	n := int(r.ReadUint16())
	arr := make([]T, 0, n)
	for i := 0; i < n; i++ {
		o := looseUnmarshalNestedObject(wf, r)
		if o == nil {
			var zero T
			arr = append(arr, zero)
			continue
		}
		typed, ok := o.(T)
		if !ok {
			r.fail(ErrUnknownType(o.DataStructureType()))
			return nil
		}
		arr = append(arr, typed)
	}
	return arr
}

// Broker errors (marshalled throwables): class, message, optional stack
// trace and cause chain, gated on the negotiated stack-trace capability.

func tightMarshalThrowable1(wf *WireFormat, e *commands.BrokerError, bs *BooleanStream) int {
	if e == nil {
		bs.WriteBool(false)
		return 0
	}
	bs.WriteBool(true)
	size := tightMarshalString1(e.ExceptionClass, bs)
	size += tightMarshalString1(e.Message, bs)
	if wf.stackTrace {
		size += 2
		for _, frame := range e.StackTrace {
			size += tightMarshalString1(frame.ClassName, bs)
			size += tightMarshalString1(frame.MethodName, bs)
			size += tightMarshalString1(frame.FileName, bs)
			size += 4
		}
		size += tightMarshalThrowable1(wf, e.Cause, bs)
	}
	return size
}

func tightMarshalThrowable2(wf *WireFormat, e *commands.BrokerError, w *Writer, bs *BooleanStream) {
	if !bs.ReadBool() {
		return
	}
	tightMarshalString2(w, e.ExceptionClass, bs)
	tightMarshalString2(w, e.Message, bs)
	if wf.stackTrace {
		w.WriteUint16(uint16(len(e.StackTrace)))
		for _, frame := range e.StackTrace {
			tightMarshalString2(w, frame.ClassName, bs)
			tightMarshalString2(w, frame.MethodName, bs)
			tightMarshalString2(w, frame.FileName, bs)
			w.WriteInt32(frame.LineNumber)
		}
		tightMarshalThrowable2(wf, e.Cause, w, bs)
	}
}

func tightUnmarshalThrowable(wf *WireFormat, r *Reader, bs *BooleanStream) *commands.BrokerError {
	if !bs.ReadBool() {
		return nil
	}
	e := &commands.BrokerError{
		ExceptionClass: tightUnmarshalString(r, bs),
		Message:        tightUnmarshalString(r, bs),
	}
	if wf.stackTrace {
		n := int(r.ReadUint16())
		for i := 0; i < n; i++ {
			e.StackTrace = append(e.StackTrace, commands.StackTraceElement{
				ClassName:  tightUnmarshalString(r, bs),
				MethodName: tightUnmarshalString(r, bs),
				FileName:   tightUnmarshalString(r, bs),
				LineNumber: r.ReadInt32(),
			})
		}
		e.Cause = tightUnmarshalThrowable(wf, r, bs)
	}
	return e
}

func looseMarshalThrowable(wf *WireFormat, e *commands.BrokerError, w *Writer) {
	w.WriteBool(e != nil)
	if e == nil {
		return
	}
	looseMarshalString(w, e.ExceptionClass)
	looseMarshalString(w, e.Message)
	if wf.stackTrace {
		w.WriteUint16(uint16(len(e.StackTrace)))
		for _, frame := range e.StackTrace {
			looseMarshalString(w, frame.ClassName)
			looseMarshalString(w, frame.MethodName)
			looseMarshalString(w, frame.FileName)
			w.WriteInt32(frame.LineNumber)
		}
		looseMarshalThrowable(wf, e.Cause, w)
	}
}

func looseUnmarshalThrowable(wf *WireFormat, r *Reader) *commands.BrokerError {
	if !r.ReadBool() {
		return nil
	}
	e := &commands.BrokerError{
		ExceptionClass: looseUnmarshalString(r),
		Message:        looseUnmarshalString(r),
	}
	if wf.stackTrace {
		n := int(r.ReadUint16())
		for i := 0; i < n; i++ {
			e.StackTrace = append(e.StackTrace, commands.StackTraceElement{
				ClassName:  looseUnmarshalString(r),
				MethodName: looseUnmarshalString(r),
				FileName:   looseUnmarshalString(r),
				LineNumber: r.ReadInt32(),
			})
		}
		e.Cause = looseUnmarshalThrowable(wf, r)
	}
	return e
}

// Command headers: every command starts with its id and response flag.

func tightMarshalBaseCommand1(c commands.Command, bs *BooleanStream) int {
	bs.WriteBool(c.IsResponseRequired())
	return 4
}

func tightMarshalBaseCommand2(c commands.Command, w *Writer, bs *BooleanStream) {
	w.WriteInt32(c.GetCommandId())
	bs.ReadBool()
}

func tightUnmarshalBaseCommand(c commands.Command, r *Reader, bs *BooleanStream) {
	responseRequired := bs.ReadBool()
	c.SetCommandId(r.ReadInt32())
	c.SetResponseRequired(responseRequired)
}

func looseMarshalBaseCommand(c commands.Command, w *Writer) {
	w.WriteInt32(c.GetCommandId())
	w.WriteBool(c.IsResponseRequired())
}

func looseUnmarshalBaseCommand(c commands.Command, r *Reader) {
	c.SetCommandId(r.ReadInt32())
	c.SetResponseRequired(r.ReadBool())
}
