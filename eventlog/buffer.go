package eventlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

// RenderBuffer owns the bytes filled by EvtRender. In values mode they start with
// PropertyCount EVT_VARIANT slots whose pointers refer back into the same bytes;
// in XML and bookmark mode they hold a single UTF-16 string.
type RenderBuffer struct {
	data          []byte
	propertyCount uint32

	// address of data[0] when EvtRender wrote the pointers
	base        uint64
	pointerSize int
}

func NewRenderBuffer(data []byte, propertyCount uint32) *RenderBuffer {
	b := &RenderBuffer{
		data:          data,
		propertyCount: propertyCount,
		pointerSize:   winapi.PointerSize,
	}
	if len(data) > 0 {
		b.base = uint64(uintptr(unsafe.Pointer(&data[0])))
	}
	return b
}

func (b *RenderBuffer) PropertyCount() uint32 {
	return b.propertyCount
}

func (b *RenderBuffer) Size() int {
	return len(b.data)
}

// Text decodes an XML or bookmark rendering.
func (b *RenderBuffer) Text() string {
	return winapi.UTF16BytesToString(b.data)
}

// Value decodes slot index into an owned Variant.
func (b *RenderBuffer) Value(index uint32) (Variant, error) {
	if index >= b.propertyCount {
		return Variant{}, &DecodeError{Index: index, Err: fmt.Errorf("index out of range, buffer holds %d values", b.propertyCount)}
	}
	v, err := b.decodeSlot(index)
	if err != nil {
		return Variant{}, &DecodeError{Index: index, Type: v.Type, Array: v.Array, Err: err}
	}
	return v, nil
}

// Values decodes every slot in order. A slot that fails to decode is left as a
// zero Variant and its error is joined into the returned error.
func (b *RenderBuffer) Values() ([]Variant, error) {
	values := make([]Variant, b.propertyCount)
	var errs []error
	for i := range values {
		v, err := b.Value(uint32(i))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values[i] = v
	}
	return values, errors.Join(errs...)
}

type rawVariant struct {
	union [8]byte
	count uint32
	tag   uint32
}

func (b *RenderBuffer) slot(index uint32) (rawVariant, error) {
	offset := uint64(index) * winapi.EvtVariantSize
	if offset+winapi.EvtVariantSize > uint64(len(b.data)) {
		return rawVariant{}, fmt.Errorf("slot at offset %d exceeds %d byte buffer", offset, len(b.data))
	}
	s := b.data[offset : offset+winapi.EvtVariantSize]

	var raw rawVariant
	copy(raw.union[:], s[:8])
	raw.count = binary.LittleEndian.Uint32(s[winapi.EvtVariantCountOffset:])
	raw.tag = binary.LittleEndian.Uint32(s[winapi.EvtVariantTypeOffset:])
	return raw, nil
}

func (b *RenderBuffer) pointer(p []byte) uint64 {
	if b.pointerSize == 4 {
		return uint64(binary.LittleEndian.Uint32(p))
	}
	return binary.LittleEndian.Uint64(p)
}

// resolveFrom returns the bytes from ptr to the end of the buffer.
func (b *RenderBuffer) resolveFrom(ptr uint64) ([]byte, error) {
	if ptr < b.base || ptr-b.base > uint64(len(b.data)) {
		return nil, fmt.Errorf("pointer 0x%x outside buffer [0x%x, 0x%x)", ptr, b.base, b.base+uint64(len(b.data)))
	}
	return b.data[ptr-b.base:], nil
}

// resolve returns exactly size bytes at ptr, all of them inside the buffer.
func (b *RenderBuffer) resolve(ptr uint64, size uint64) ([]byte, error) {
	tail, err := b.resolveFrom(ptr)
	if err != nil {
		return nil, err
	}
	if size > uint64(len(tail)) {
		return nil, fmt.Errorf("%d bytes at pointer 0x%x run past the end of the buffer", size, ptr)
	}
	return tail[:size], nil
}

type DecodeError struct {
	Index uint32
	Type  winapi.EvtVarType
	Array bool
	Err   error
}

func (e *DecodeError) Error() string {
	kind := e.Type.String()
	if e.Array {
		kind += "[]"
	}
	return fmt.Sprintf("decoding value %d (%s): %s", e.Index, kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
