package winapi

import "syscall"

// Win32 error codes surfaced by wevtapi. Kept as syscall.Errno so that they compare
// equal to the values returned by the proc wrappers.
const (
	ERROR_SUCCESS                          = syscall.Errno(0)
	ERROR_INVALID_HANDLE                   = syscall.Errno(6)
	ERROR_INVALID_PARAMETER                = syscall.Errno(87)
	ERROR_INSUFFICIENT_BUFFER              = syscall.Errno(122)
	WAIT_TIMEOUT                           = syscall.Errno(258)
	ERROR_NO_MORE_ITEMS                    = syscall.Errno(259)
	ERROR_TIMEOUT                          = syscall.Errno(1460)
	ERROR_EVT_INVALID_EVENT_DATA           = syscall.Errno(15005)
	ERROR_EVT_CHANNEL_NOT_FOUND            = syscall.Errno(15007)
	ERROR_EVT_MESSAGE_NOT_FOUND            = syscall.Errno(15027)
	ERROR_EVT_UNRESOLVED_VALUE_INSERT      = syscall.Errno(15029)
	ERROR_EVT_PUBLISHER_METADATA_NOT_FOUND = syscall.Errno(15002)
)
