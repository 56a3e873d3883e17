package openwire

import "github.com/chris-alexander-pop/openwire-client/pkg/openwire/commands"

func init() {
	register(commands.TypeResponse, responseMarshaller{})
	register(commands.TypeExceptionResponse, exceptionResponseMarshaller{})
	register(commands.TypeDataResponse, dataResponseMarshaller{})
	register(commands.TypeDataArrayResponse, dataArrayResponseMarshaller{})
	register(commands.TypeIntegerResponse, integerResponseMarshaller{})
}

type responseMarshaller struct{}

func (responseMarshaller) createObject() commands.DataStructure { return &commands.Response{} }

func (responseMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.Response)
	return tightMarshalBaseCommand1(cmd, bs) + 4
}

func (responseMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.Response)
	tightMarshalBaseCommand2(cmd, w, bs)
	w.WriteInt32(cmd.CorrelationId)
}

func (responseMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.Response)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.CorrelationId = r.ReadInt32()
}

func (responseMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.Response)
	looseMarshalBaseCommand(cmd, w)
	w.WriteInt32(cmd.CorrelationId)
}

func (responseMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.Response)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.CorrelationId = r.ReadInt32()
}

type exceptionResponseMarshaller struct{}

func (exceptionResponseMarshaller) createObject() commands.DataStructure {
	return &commands.ExceptionResponse{}
}

func (exceptionResponseMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.ExceptionResponse)
	size := tightMarshalBaseCommand1(cmd, bs) + 4
	size += tightMarshalThrowable1(wf, cmd.Exception, bs)
	return size
}

func (exceptionResponseMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.ExceptionResponse)
	tightMarshalBaseCommand2(cmd, w, bs)
	w.WriteInt32(cmd.CorrelationId)
	tightMarshalThrowable2(wf, cmd.Exception, w, bs)
}

func (exceptionResponseMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.ExceptionResponse)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.CorrelationId = r.ReadInt32()
	cmd.Exception = tightUnmarshalThrowable(wf, r, bs)
}

func (exceptionResponseMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.ExceptionResponse)
	looseMarshalBaseCommand(cmd, w)
	w.WriteInt32(cmd.CorrelationId)
	looseMarshalThrowable(wf, cmd.Exception, w)
}

func (exceptionResponseMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.ExceptionResponse)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.CorrelationId = r.ReadInt32()
	cmd.Exception = looseUnmarshalThrowable(wf, r)
}

type dataResponseMarshaller struct{}

func (dataResponseMarshaller) createObject() commands.DataStructure { return &commands.DataResponse{} }

func (dataResponseMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.DataResponse)
	size := tightMarshalBaseCommand1(cmd, bs) + 4
	size += tightMarshalNestedObject1(wf, cmd.Data, bs)
	return size
}

func (dataResponseMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.DataResponse)
	tightMarshalBaseCommand2(cmd, w, bs)
	w.WriteInt32(cmd.CorrelationId)
	tightMarshalNestedObject2(wf, cmd.Data, w, bs)
}

func (dataResponseMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.DataResponse)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.CorrelationId = r.ReadInt32()
	cmd.Data = tightUnmarshalNestedObject(wf, r, bs)
}

func (dataResponseMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.DataResponse)
	looseMarshalBaseCommand(cmd, w)
	w.WriteInt32(cmd.CorrelationId)
	looseMarshalNestedObject(wf, cmd.Data, w)
}

func (dataResponseMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.DataResponse)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.CorrelationId = r.ReadInt32()
	cmd.Data = looseUnmarshalNestedObject(wf, r)
}

type dataArrayResponseMarshaller struct{}

func (dataArrayResponseMarshaller) createObject() commands.DataStructure {
	return &commands.DataArrayResponse{}
}

func (dataArrayResponseMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.DataArrayResponse)
	size := tightMarshalBaseCommand1(cmd, bs) + 4
	size += tightMarshalArray1(wf, cmd.Data, bs)
	return size
}

func (dataArrayResponseMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.DataArrayResponse)
	tightMarshalBaseCommand2(cmd, w, bs)
	w.WriteInt32(cmd.CorrelationId)
	tightMarshalArray2(wf, cmd.Data, w, bs)
}

func (dataArrayResponseMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.DataArrayResponse)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.CorrelationId = r.ReadInt32()
	cmd.Data = tightUnmarshalArray[commands.DataStructure](wf, r, bs)
}

func (dataArrayResponseMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.DataArrayResponse)
	looseMarshalBaseCommand(cmd, w)
	w.WriteInt32(cmd.CorrelationId)
	looseMarshalArray(wf, cmd.Data, w)
}

func (dataArrayResponseMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.DataArrayResponse)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.CorrelationId = r.ReadInt32()
	cmd.Data = looseUnmarshalArray[commands.DataStructure](wf, r)
}

type integerResponseMarshaller struct{}

func (integerResponseMarshaller) createObject() commands.DataStructure {
	return &commands.IntegerResponse{}
}

func (integerResponseMarshaller) tightMarshal1(wf *WireFormat, o commands.DataStructure, bs *BooleanStream) int {
	cmd := o.(*commands.IntegerResponse)
	return tightMarshalBaseCommand1(cmd, bs) + 8
}

func (integerResponseMarshaller) tightMarshal2(wf *WireFormat, o commands.DataStructure, w *Writer, bs *BooleanStream) {
	cmd := o.(*commands.IntegerResponse)
	tightMarshalBaseCommand2(cmd, w, bs)
	w.WriteInt32(cmd.CorrelationId)
	w.WriteInt32(cmd.Result)
}

func (integerResponseMarshaller) tightUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader, bs *BooleanStream) {
	cmd := o.(*commands.IntegerResponse)
	tightUnmarshalBaseCommand(cmd, r, bs)
	cmd.CorrelationId = r.ReadInt32()
	cmd.Result = r.ReadInt32()
}

func (integerResponseMarshaller) looseMarshal(wf *WireFormat, o commands.DataStructure, w *Writer) {
	cmd := o.(*commands.IntegerResponse)
	looseMarshalBaseCommand(cmd, w)
	w.WriteInt32(cmd.CorrelationId)
	w.WriteInt32(cmd.Result)
}

func (integerResponseMarshaller) looseUnmarshal(wf *WireFormat, o commands.DataStructure, r *Reader) {
	cmd := o.(*commands.IntegerResponse)
	looseUnmarshalBaseCommand(cmd, r)
	cmd.CorrelationId = r.ReadInt32()
	cmd.Result = r.ReadInt32()
}
