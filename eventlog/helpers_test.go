package eventlog

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
	"github.com/quentin-nozomi/windows-eventlog/winguid"
)

type slotKind int

const (
	slotInline slotKind = iota
	slotPayload
	slotPointerTable
	slotRawPointer
)

type testSlot struct {
	kind     slotKind
	tag      uint32
	count    uint32
	inline   uint64
	payload  []byte
	elements [][]byte
}

func inlineSlot(varType winapi.EvtVarType, value uint64) testSlot {
	return testSlot{kind: slotInline, tag: uint32(varType), inline: value}
}

// payloadSlot points the union at a copy of payload inside the buffer.
func payloadSlot(tag uint32, count uint32, payload []byte) testSlot {
	return testSlot{kind: slotPayload, tag: tag, count: count, payload: payload}
}

// pointerTableSlot points the union at a table of pointers, one per element; nil elements stay NULL.
func pointerTableSlot(tag uint32, elements ...[]byte) testSlot {
	return testSlot{kind: slotPointerTable, tag: tag, count: uint32(len(elements)), elements: elements}
}

func rawPointerSlot(tag uint32, count uint32, pointer uint64) testSlot {
	return testSlot{kind: slotRawPointer, tag: tag, count: count, inline: pointer}
}

func nullSlot() testSlot {
	return inlineSlot(winapi.EvtVarTypeNull, 0)
}

func arrayTag(varType winapi.EvtVarType) uint32 {
	return uint32(varType) | winapi.EVT_VARIANT_TYPE_ARRAY
}

// bufferBuilder lays out EVT_VARIANT slots followed by their payloads, the way
// EvtRender fills a values buffer.
type bufferBuilder struct {
	slots []testSlot
}

func newBufferBuilder(slots ...testSlot) *bufferBuilder {
	return &bufferBuilder{slots: slots}
}

func align8(n int) int {
	return (n + 7) &^ 7
}

func (bb *bufferBuilder) size() int {
	return bb.layout(nil)
}

// write fills dst, which must hold size() bytes, and returns the slot count.
func (bb *bufferBuilder) write(dst []byte) uint32 {
	bb.layout(dst)
	return uint32(len(bb.slots))
}

func (bb *bufferBuilder) layout(dst []byte) int {
	var base uint64
	if len(dst) > 0 {
		base = uint64(uintptr(unsafe.Pointer(&dst[0])))
	}
	place := func(offset int, data []byte) {
		if dst != nil {
			copy(dst[offset:], data)
		}
	}

	offset := len(bb.slots) * winapi.EvtVariantSize
	for i, s := range bb.slots {
		var union uint64
		switch s.kind {
		case slotInline, slotRawPointer:
			union = s.inline
		case slotPayload:
			offset = align8(offset)
			place(offset, s.payload)
			union = base + uint64(offset)
			offset += len(s.payload)
		case slotPointerTable:
			pointers := make([]uint64, len(s.elements))
			for j, element := range s.elements {
				if element == nil {
					continue
				}
				offset = align8(offset)
				place(offset, element)
				pointers[j] = base + uint64(offset)
				offset += len(element)
			}
			offset = align8(offset)
			union = base + uint64(offset)
			for _, p := range pointers {
				if dst != nil {
					putPointer(dst[offset:], p)
				}
				offset += winapi.PointerSize
			}
		}

		if dst != nil {
			slot := dst[i*winapi.EvtVariantSize:]
			binary.LittleEndian.PutUint64(slot, union)
			binary.LittleEndian.PutUint32(slot[winapi.EvtVariantCountOffset:], s.count)
			binary.LittleEndian.PutUint32(slot[winapi.EvtVariantTypeOffset:], s.tag)
		}
	}
	return offset
}

func putPointer(b []byte, p uint64) {
	if winapi.PointerSize == 4 {
		binary.LittleEndian.PutUint32(b, uint32(p))
		return
	}
	binary.LittleEndian.PutUint64(b, p)
}

func (bb *bufferBuilder) build() *RenderBuffer {
	data := make([]byte, bb.size())
	count := bb.write(data)
	return NewRenderBuffer(data, count)
}

func utf16z(s string) []byte {
	u16, err := winapi.UTF16FromString(s)
	if err != nil {
		panic(err)
	}
	b := make([]byte, 2*len(u16))
	for i, c := range u16 {
		binary.LittleEndian.PutUint16(b[2*i:], c)
	}
	return b
}

func ansiz(s string) []byte {
	return append([]byte(s), 0)
}

func guidBytes(s string) []byte {
	return winguid.MustParse(s).Bytes()
}

func sidBytes(authority uint8, subAuthorities ...uint32) []byte {
	sid := winapi.SID{Revision: 1, SubAuthority: subAuthorities}
	sid.IdentifierAuthority.Value[5] = authority
	return sid.Bytes()
}

func le16(values ...uint16) []byte {
	b := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}
	return b
}

func le32(values ...uint32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return b
}

func le64(values ...uint64) []byte {
	b := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(b[8*i:], v)
	}
	return b
}

// renderRequest is what the fake sees of one EvtRender call.
type renderRequest struct {
	paths        []string
	contextFlags uint32
	renderFlags  uint32
	fragment     winapi.Handle
}

// builderRender answers like EvtRender for the layout of bb.
func builderRender(bb *bufferBuilder) func(renderRequest, []byte) (uint32, uint32, error) {
	return func(_ renderRequest, buffer []byte) (uint32, uint32, error) {
		size := bb.size()
		if len(buffer) < size {
			return uint32(size), 0, winapi.ERROR_INSUFFICIENT_BUFFER
		}
		return uint32(size), bb.write(buffer), nil
	}
}

// textRender answers like EvtRender in XML or bookmark mode.
func textRender(text string) func(renderRequest, []byte) (uint32, uint32, error) {
	encoded := utf16z(text)
	return func(_ renderRequest, buffer []byte) (uint32, uint32, error) {
		if len(buffer) < len(encoded) {
			return uint32(len(encoded)), 0, winapi.ERROR_INSUFFICIENT_BUFFER
		}
		copy(buffer, encoded)
		return uint32(len(encoded)), 0, nil
	}
}

type renderContextEntry struct {
	paths []string
	flags uint32
}

// fakeAPI scripts wevtapi.dll and records what the code under test asked of it.
type fakeAPI struct {
	mu         sync.Mutex
	nextHandle winapi.Handle
	contexts   map[winapi.Handle]renderContextEntry
	live       map[winapi.Handle]bool

	createContextErr error
	render           func(renderRequest, []byte) (uint32, uint32, error)
	renderCalls      []int

	openMetadataErr   error
	metadataProviders []string
	formatMessage     func(call int, buffer []uint16) (uint32, error)
	formatCalls       []int

	bookmarkXML       []string
	bookmarkUpdates   []winapi.Handle
	updateBookmarkErr error

	closed []winapi.Handle
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextHandle: 0x1000,
		contexts:   map[winapi.Handle]renderContextEntry{},
		live:       map[winapi.Handle]bool{},
	}
}

func (f *fakeAPI) allocate() winapi.Handle {
	f.nextHandle++
	f.live[f.nextHandle] = true
	return f.nextHandle
}

func (f *fakeAPI) CreateRenderContext(paths []string, flags uint32) (winapi.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createContextErr != nil {
		return winapi.NullHandle, f.createContextErr
	}
	h := f.allocate()
	f.contexts[h] = renderContextEntry{paths: append([]string(nil), paths...), flags: flags}
	return h, nil
}

func (f *fakeAPI) Render(context winapi.Handle, fragment winapi.Handle, flags uint32, buffer []byte) (uint32, uint32, error) {
	f.mu.Lock()
	entry := f.contexts[context]
	f.renderCalls = append(f.renderCalls, len(buffer))
	render := f.render
	f.mu.Unlock()

	if render == nil {
		return 0, 0, winapi.ERROR_INVALID_PARAMETER
	}
	return render(renderRequest{paths: entry.paths, contextFlags: entry.flags, renderFlags: flags, fragment: fragment}, buffer)
}

func (f *fakeAPI) OpenPublisherMetadata(publisher string) (winapi.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadataProviders = append(f.metadataProviders, publisher)
	if f.openMetadataErr != nil {
		return winapi.NullHandle, f.openMetadataErr
	}
	return f.allocate(), nil
}

func (f *fakeAPI) FormatMessage(_ winapi.Handle, _ winapi.Handle, flags uint32, buffer []uint16) (uint32, error) {
	f.mu.Lock()
	f.formatCalls = append(f.formatCalls, len(buffer))
	call := len(f.formatCalls)
	format := f.formatMessage
	f.mu.Unlock()

	if flags != winapi.EvtFormatMessageEvent {
		return 0, fmt.Errorf("unexpected format flags %d", flags)
	}
	if format == nil {
		return 0, winapi.ERROR_EVT_MESSAGE_NOT_FOUND
	}
	return format(call, buffer)
}

func (f *fakeAPI) CreateBookmark(bookmarkXML string) (winapi.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookmarkXML = append(f.bookmarkXML, bookmarkXML)
	return f.allocate(), nil
}

func (f *fakeAPI) UpdateBookmark(_ winapi.Handle, event winapi.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateBookmarkErr != nil {
		return f.updateBookmarkErr
	}
	f.bookmarkUpdates = append(f.bookmarkUpdates, event)
	return nil
}

func (f *fakeAPI) Close(object winapi.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, object)
	delete(f.contexts, object)
	delete(f.live, object)
	return nil
}

// open is the number of handles the fake allocated and that are not closed yet.
func (f *fakeAPI) open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// messageFormatter fills the buffer with text when it is large enough.
func messageFormatter(text string) func(int, []uint16) (uint32, error) {
	u16, err := winapi.UTF16FromString(text)
	if err != nil {
		panic(err)
	}
	return func(_ int, buffer []uint16) (uint32, error) {
		if len(buffer) < len(u16) {
			return uint32(len(u16)), winapi.ERROR_INSUFFICIENT_BUFFER
		}
		copy(buffer, u16)
		return uint32(len(u16)), nil
	}
}

func stringSlot(s string) testSlot {
	return payloadSlot(uint32(winapi.EvtVarTypeString), 0, utf16z(s))
}

func guidSlot(s string) testSlot {
	return payloadSlot(uint32(winapi.EvtVarTypeGuid), 0, guidBytes(s))
}

// pointerSized encodes values with the width of a native pointer.
func pointerSized(values ...uint64) []byte {
	b := make([]byte, winapi.PointerSize*len(values))
	for i, v := range values {
		putPointer(b[winapi.PointerSize*i:], v)
	}
	return b
}
