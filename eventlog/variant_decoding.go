package eventlog

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
	"github.com/quentin-nozomi/windows-eventlog/winguid"
)

const boolSize = 4 // Win32 BOOL

func (b *RenderBuffer) decodeSlot(index uint32) (Variant, error) {
	raw, err := b.slot(index)
	if err != nil {
		return Variant{}, err
	}

	varType := winapi.EvtVarType(raw.tag & winapi.EVT_VARIANT_TYPE_MASK)
	v := Variant{
		Type:  varType,
		Array: raw.tag&winapi.EVT_VARIANT_TYPE_ARRAY != 0,
		Count: raw.count,
	}
	if raw.tag&^(winapi.EVT_VARIANT_TYPE_MASK|winapi.EVT_VARIANT_TYPE_ARRAY) != 0 || !varType.Known() {
		v.Value = UnknownType{Tag: raw.tag}
		return v, nil
	}
	if v.Array {
		switch varType {
		case winapi.EvtVarTypeNull, winapi.EvtVarTypeBinary, winapi.EvtVarTypeEvtHandle:
			// no array counterpart in winevt.h
			v.Value = UnknownType{Tag: raw.tag}
			return v, nil
		}
		v.Value, err = b.decodeArray(varType, raw)
	} else {
		v.Value, err = b.decodeScalar(varType, raw)
	}
	if err != nil {
		return Variant{Type: v.Type, Array: v.Array, Count: v.Count}, err
	}
	return v, nil
}

func (b *RenderBuffer) decodeScalar(varType winapi.EvtVarType, raw rawVariant) (any, error) {
	u := raw.union[:]

	switch varType {
	case winapi.EvtVarTypeNull:
		return nil, nil
	case winapi.EvtVarTypeString, winapi.EvtVarTypeEvtXml:
		return b.utf16At(b.pointer(u))
	case winapi.EvtVarTypeAnsiString:
		return b.ansiAt(b.pointer(u))
	case winapi.EvtVarTypeSByte:
		return readLE[int8](u), nil
	case winapi.EvtVarTypeByte:
		return readLE[uint8](u), nil
	case winapi.EvtVarTypeInt16:
		return readLE[int16](u), nil
	case winapi.EvtVarTypeUInt16:
		return readLE[uint16](u), nil
	case winapi.EvtVarTypeInt32:
		return readLE[int32](u), nil
	case winapi.EvtVarTypeUInt32, winapi.EvtVarTypeHexInt32:
		return readLE[uint32](u), nil
	case winapi.EvtVarTypeInt64:
		return readLE[int64](u), nil
	case winapi.EvtVarTypeUInt64, winapi.EvtVarTypeHexInt64:
		return readLE[uint64](u), nil
	case winapi.EvtVarTypeSingle:
		return math.Float32frombits(readLE[uint32](u)), nil
	case winapi.EvtVarTypeDouble:
		return math.Float64frombits(readLE[uint64](u)), nil
	case winapi.EvtVarTypeBoolean:
		return readLE[uint32](u) != 0, nil
	case winapi.EvtVarTypeBinary:
		return b.binaryAt(b.pointer(u), raw.count)
	case winapi.EvtVarTypeGuid:
		return b.guidAt(b.pointer(u))
	case winapi.EvtVarTypeSizeT:
		return b.pointer(u), nil
	case winapi.EvtVarTypeFileTime:
		return winapi.FileTimeFromTicks(readLE[uint64](u)), nil
	case winapi.EvtVarTypeSysTime:
		return b.systemTimeAt(b.pointer(u))
	case winapi.EvtVarTypeSid:
		return b.sidAt(b.pointer(u))
	case winapi.EvtVarTypeEvtHandle:
		return winapi.Handle(b.pointer(u)), nil
	}
	return nil, fmt.Errorf("no scalar decoder for %s", varType)
}

func (b *RenderBuffer) decodeArray(varType winapi.EvtVarType, raw rawVariant) (any, error) {
	ptr := b.pointer(raw.union[:])
	count := raw.count
	if ptr == 0 && count > 0 {
		return nil, nil
	}

	switch varType {
	case winapi.EvtVarTypeString, winapi.EvtVarTypeEvtXml:
		return pointerArray[string](b, ptr, count, b.utf16At)
	case winapi.EvtVarTypeAnsiString:
		return pointerArray[string](b, ptr, count, b.ansiAt)
	case winapi.EvtVarTypeSByte:
		return integerArray[int8](b, ptr, count)
	case winapi.EvtVarTypeByte:
		return integerArray[uint8](b, ptr, count)
	case winapi.EvtVarTypeInt16:
		return integerArray[int16](b, ptr, count)
	case winapi.EvtVarTypeUInt16:
		return integerArray[uint16](b, ptr, count)
	case winapi.EvtVarTypeInt32:
		return integerArray[int32](b, ptr, count)
	case winapi.EvtVarTypeUInt32, winapi.EvtVarTypeHexInt32:
		return integerArray[uint32](b, ptr, count)
	case winapi.EvtVarTypeInt64:
		return integerArray[int64](b, ptr, count)
	case winapi.EvtVarTypeUInt64, winapi.EvtVarTypeHexInt64:
		return integerArray[uint64](b, ptr, count)
	case winapi.EvtVarTypeSingle:
		return elementArray(b, ptr, count, 4, func(e []byte) (float32, error) {
			return math.Float32frombits(binary.LittleEndian.Uint32(e)), nil
		})
	case winapi.EvtVarTypeDouble:
		return elementArray(b, ptr, count, 8, func(e []byte) (float64, error) {
			return math.Float64frombits(binary.LittleEndian.Uint64(e)), nil
		})
	case winapi.EvtVarTypeBoolean:
		return elementArray(b, ptr, count, boolSize, func(e []byte) (bool, error) {
			return binary.LittleEndian.Uint32(e) != 0, nil
		})
	case winapi.EvtVarTypeGuid:
		return elementArray(b, ptr, count, winguid.Size, winguid.FromBytes)
	case winapi.EvtVarTypeSizeT:
		return elementArray(b, ptr, count, b.pointerSize, func(e []byte) (uint64, error) {
			return b.pointer(e), nil
		})
	case winapi.EvtVarTypeFileTime:
		return elementArray(b, ptr, count, 8, func(e []byte) (winapi.FileTime, error) {
			return winapi.FileTimeFromTicks(binary.LittleEndian.Uint64(e)), nil
		})
	case winapi.EvtVarTypeSysTime:
		return elementArray(b, ptr, count, winapi.SystemTimeSize, winapi.SystemTimeFromBytes)
	case winapi.EvtVarTypeSid:
		return pointerArray[winapi.SID](b, ptr, count, b.sidAt)
	}
	return nil, fmt.Errorf("no array decoder for %s", varType)
}

// readLE reads a little-endian integer of T's width from the start of p.
func readLE[T constraints.Integer](p []byte) T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	var v uint64
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(p[i])
	}
	return T(v)
}

func integerArray[T constraints.Integer](b *RenderBuffer, ptr uint64, count uint32) ([]T, error) {
	var zero T
	return elementArray(b, ptr, count, int(unsafe.Sizeof(zero)), func(e []byte) (T, error) {
		return readLE[T](e), nil
	})
}

// elementArray decodes count contiguous elements of size bytes starting at ptr.
func elementArray[T any](b *RenderBuffer, ptr uint64, count uint32, size int, decode func([]byte) (T, error)) ([]T, error) {
	out := make([]T, count)
	if count == 0 {
		return out, nil
	}
	data, err := b.resolve(ptr, uint64(count)*uint64(size))
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i], err = decode(data[i*size:]); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// pointerArray decodes count pointers starting at ptr, each resolved by decode.
// A NULL element decodes to T's zero value.
func pointerArray[T any](b *RenderBuffer, ptr uint64, count uint32, decode func(uint64) (any, error)) ([]T, error) {
	pointers, err := elementArray(b, ptr, count, b.pointerSize, func(e []byte) (uint64, error) {
		return b.pointer(e), nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]T, count)
	for i, p := range pointers {
		if p == 0 {
			continue
		}
		value, err := decode(p)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = value.(T)
	}
	return out, nil
}

func (b *RenderBuffer) utf16At(ptr uint64) (any, error) {
	if ptr == 0 {
		return nil, nil
	}
	data, err := b.resolveFrom(ptr)
	if err != nil {
		return nil, err
	}
	s, _, err := winapi.UTF16CString(data)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *RenderBuffer) ansiAt(ptr uint64) (any, error) {
	if ptr == 0 {
		return nil, nil
	}
	data, err := b.resolveFrom(ptr)
	if err != nil {
		return nil, err
	}
	s, _, err := winapi.AnsiCString(data)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *RenderBuffer) binaryAt(ptr uint64, size uint32) (any, error) {
	if ptr == 0 {
		return nil, nil
	}
	data, err := b.resolve(ptr, uint64(size))
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, data)
	return out, nil
}

func (b *RenderBuffer) guidAt(ptr uint64) (any, error) {
	if ptr == 0 {
		return nil, nil
	}
	data, err := b.resolve(ptr, winguid.Size)
	if err != nil {
		return nil, err
	}
	return winguid.FromBytes(data)
}

func (b *RenderBuffer) systemTimeAt(ptr uint64) (any, error) {
	if ptr == 0 {
		return nil, nil
	}
	data, err := b.resolve(ptr, winapi.SystemTimeSize)
	if err != nil {
		return nil, err
	}
	return winapi.SystemTimeFromBytes(data)
}

func (b *RenderBuffer) sidAt(ptr uint64) (any, error) {
	if ptr == 0 {
		return nil, nil
	}
	data, err := b.resolveFrom(ptr)
	if err != nil {
		return nil, err
	}
	sid, _, err := winapi.ParseSID(data)
	if err != nil {
		return nil, err
	}
	return sid, nil
}
