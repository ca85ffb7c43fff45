package winapi

import (
	"runtime"

	"golang.org/x/sys/windows"
)

// Wevtapi exposes the wevtapi.dll primitives with Go slices and strings in place
// of raw pointers.
type Wevtapi struct{}

func (Wevtapi) CreateRenderContext(paths []string, flags uint32) (Handle, error) {
	var pathPtrs []*uint16
	for _, p := range paths {
		u16, err := windows.UTF16PtrFromString(p)
		if err != nil {
			return NullHandle, err
		}
		pathPtrs = append(pathPtrs, u16)
	}

	var first **uint16
	if len(pathPtrs) > 0 {
		first = &pathPtrs[0]
	}
	h, err := EvtCreateRenderContext(uint32(len(pathPtrs)), first, flags)
	runtime.KeepAlive(pathPtrs)
	return h, err
}

func (Wevtapi) Render(context Handle, fragment Handle, flags uint32, buffer []byte) (uint32, uint32, error) {
	var bufferUsed, propertyCount uint32
	var first *byte
	if len(buffer) > 0 {
		first = &buffer[0]
	}
	err := EvtRender(context, fragment, flags, uint32(len(buffer)), first, &bufferUsed, &propertyCount)
	return bufferUsed, propertyCount, err
}

func (Wevtapi) OpenPublisherMetadata(publisher string) (Handle, error) {
	u16, err := windows.UTF16PtrFromString(publisher)
	if err != nil {
		return NullHandle, err
	}
	// local session, registered publisher, default locale
	return EvtOpenPublisherMetadata(NullHandle, u16, nil, 0, 0)
}

func (Wevtapi) FormatMessage(metadata Handle, event Handle, flags uint32, buffer []uint16) (uint32, error) {
	var bufferUsed uint32
	var first *uint16
	if len(buffer) > 0 {
		first = &buffer[0]
	}
	err := EvtFormatMessage(metadata, event, 0, 0, 0, flags, uint32(len(buffer)), first, &bufferUsed)
	return bufferUsed, err
}

func (Wevtapi) CreateBookmark(bookmarkXML string) (Handle, error) {
	if bookmarkXML == "" {
		return EvtCreateBookmark(nil)
	}
	u16, err := windows.UTF16PtrFromString(bookmarkXML)
	if err != nil {
		return NullHandle, err
	}
	return EvtCreateBookmark(u16)
}

func (Wevtapi) UpdateBookmark(bookmark Handle, event Handle) error {
	return EvtUpdateBookmark(bookmark, event)
}

func (Wevtapi) Close(object Handle) error {
	return EvtClose(object)
}

// Subscription is a pull subscription signalled through a manual-reset event.
type Subscription struct {
	handle Handle
	signal windows.Handle
}

func Subscribe(channel string, query string, bookmark Handle, flags uint32) (*Subscription, error) {
	signal, err := windows.CreateEvent(nil, 1, 1, nil)
	if err != nil {
		return nil, err
	}

	u16Channel, err := windows.UTF16PtrFromString(channel)
	if err != nil {
		windows.CloseHandle(signal)
		return nil, err
	}
	var u16Query *uint16
	if query != "" {
		if u16Query, err = windows.UTF16PtrFromString(query); err != nil {
			windows.CloseHandle(signal)
			return nil, err
		}
	}

	h, err := EvtSubscribe(NullHandle, signal, u16Channel, u16Query, bookmark, 0, 0, flags)
	if err != nil {
		windows.CloseHandle(signal)
		return nil, err
	}
	return &Subscription{handle: h, signal: signal}, nil
}

// Wait returns true when the signal fired before timeoutMs elapsed.
func (s *Subscription) Wait(timeoutMs uint32) (bool, error) {
	event, err := windows.WaitForSingleObject(s.signal, timeoutMs)
	if err != nil {
		return false, err
	}
	return event == windows.WAIT_OBJECT_0, nil
}

// Next returns up to len(handles) records; an empty result resets the signal.
func (s *Subscription) Next(handles []Handle) (int, error) {
	if len(handles) == 0 {
		return 0, nil
	}
	var returned uint32
	err := EvtNext(s.handle, uint32(len(handles)), &handles[0], 0, 0, &returned)
	if err == ERROR_NO_MORE_ITEMS {
		return 0, windows.ResetEvent(s.signal)
	}
	if err != nil {
		return 0, err
	}
	return int(returned), nil
}

func (s *Subscription) Close() error {
	err := EvtClose(s.handle)
	if closeErr := windows.CloseHandle(s.signal); err == nil {
		err = closeErr
	}
	return err
}
