package winapi

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// wevtapi functions return a BOOL or a handle and report failures through GetLastError,
// which Call hands back as its third result.
func lastError(err error) error {
	if errno, ok := err.(syscall.Errno); ok && errno != ERROR_SUCCESS {
		return errno
	}
	return ERROR_INVALID_PARAMETER
}

func EvtClose(object Handle) error {
	r1, _, err := evtClose.Call(uintptr(object))
	if r1 != 0 {
		return nil
	}
	return lastError(err)
}

func EvtCreateRenderContext(valuePathsCount uint32, valuePaths **uint16, flags uint32) (Handle, error) {
	r1, _, err := evtCreateRenderContext.Call(
		uintptr(valuePathsCount),
		uintptr(unsafe.Pointer(valuePaths)),
		uintptr(flags))
	if r1 != 0 {
		return Handle(r1), nil
	}
	return NullHandle, lastError(err)
}

func EvtRender(context Handle,
	fragment Handle,
	flags uint32,
	bufferSize uint32,
	buffer *byte,
	bufferUsed *uint32,
	propertyCount *uint32,
) error {
	r1, _, err := evtRender.Call(
		uintptr(context),
		uintptr(fragment),
		uintptr(flags),
		uintptr(bufferSize),
		uintptr(unsafe.Pointer(buffer)),
		uintptr(unsafe.Pointer(bufferUsed)),
		uintptr(unsafe.Pointer(propertyCount)))
	if r1 != 0 {
		return nil
	}
	return lastError(err)
}

func EvtOpenPublisherMetadata(session Handle,
	publisherID *uint16,
	logFilePath *uint16,
	locale uint32,
	flags uint32,
) (Handle, error) {
	r1, _, err := evtOpenPublisherMetadata.Call(
		uintptr(session),
		uintptr(unsafe.Pointer(publisherID)),
		uintptr(unsafe.Pointer(logFilePath)),
		uintptr(locale),
		uintptr(flags))
	if r1 != 0 {
		return Handle(r1), nil
	}
	return NullHandle, lastError(err)
}

func EvtFormatMessage(publisherMetadata Handle,
	event Handle,
	messageID uint32,
	valueCount uint32,
	values uintptr,
	flags uint32,
	bufferSize uint32,
	buffer *uint16,
	bufferUsed *uint32,
) error {
	r1, _, err := evtFormatMessage.Call(
		uintptr(publisherMetadata),
		uintptr(event),
		uintptr(messageID),
		uintptr(valueCount),
		values,
		uintptr(flags),
		uintptr(bufferSize),
		uintptr(unsafe.Pointer(buffer)),
		uintptr(unsafe.Pointer(bufferUsed)))
	if r1 != 0 {
		return nil
	}
	return lastError(err)
}

func EvtCreateBookmark(bookmarkXML *uint16) (Handle, error) {
	r1, _, err := evtCreateBookmark.Call(uintptr(unsafe.Pointer(bookmarkXML)))
	if r1 != 0 {
		return Handle(r1), nil
	}
	return NullHandle, lastError(err)
}

func EvtUpdateBookmark(bookmark Handle, event Handle) error {
	r1, _, err := evtUpdateBookmark.Call(uintptr(bookmark), uintptr(event))
	if r1 != 0 {
		return nil
	}
	return lastError(err)
}

func EvtSubscribe(session Handle,
	signalEvent windows.Handle,
	channelPath *uint16,
	query *uint16,
	bookmark Handle,
	context uintptr,
	callback uintptr,
	flags uint32,
) (Handle, error) {
	r1, _, err := evtSubscribe.Call(
		uintptr(session),
		uintptr(signalEvent),
		uintptr(unsafe.Pointer(channelPath)),
		uintptr(unsafe.Pointer(query)),
		uintptr(bookmark),
		context,
		callback,
		uintptr(flags))
	if r1 != 0 {
		return Handle(r1), nil
	}
	return NullHandle, lastError(err)
}

func EvtNext(resultSet Handle,
	eventsSize uint32,
	events *Handle,
	timeout uint32,
	flags uint32,
	returned *uint32,
) error {
	r1, _, err := evtNext.Call(
		uintptr(resultSet),
		uintptr(eventsSize),
		uintptr(unsafe.Pointer(events)),
		uintptr(timeout),
		uintptr(flags),
		uintptr(unsafe.Pointer(returned)))
	if r1 != 0 {
		return nil
	}
	return lastError(err)
}
