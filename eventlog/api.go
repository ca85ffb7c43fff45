package eventlog

import (
	"errors"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

// API is the subset of wevtapi.dll the decoder drives. winapi.Wevtapi implements it
// on Windows; tests provide scripted fakes.
type API interface {
	// CreateRenderContext returns a context selecting the given value paths, or the
	// system/user properties when flags ask for them.
	CreateRenderContext(paths []string, flags uint32) (winapi.Handle, error)
	// Render fills buffer and reports the bytes used and the property count. When buffer
	// is too small it fails with ERROR_INSUFFICIENT_BUFFER and reports the required size.
	Render(context winapi.Handle, fragment winapi.Handle, flags uint32, buffer []byte) (bufferUsed uint32, propertyCount uint32, err error)
	OpenPublisherMetadata(publisher string) (winapi.Handle, error)
	// FormatMessage sizes are in UTF-16 code units.
	FormatMessage(metadata winapi.Handle, event winapi.Handle, flags uint32, buffer []uint16) (bufferUsed uint32, err error)
	CreateBookmark(bookmarkXML string) (winapi.Handle, error)
	UpdateBookmark(bookmark winapi.Handle, event winapi.Handle) error
	Close(object winapi.Handle) error
}

var (
	ErrRender                 = errors.New("error rendering event")
	ErrFormatMessage          = errors.New("error formatting event message")
	ErrUnexpectedMessageShape = errors.New("unexpected rendering info message")
	ErrUnsupportedPlatform    = errors.New("windows event log is not available on this platform")
)
