package winapi

import (
	"golang.org/x/sys/windows"
)

var (
	wevtapi = windows.NewLazySystemDLL("wevtapi.dll")

	// https://learn.microsoft.com/en-us/windows/win32/api/winevt/nf-winevt-evtclose
	evtClose = wevtapi.NewProc("EvtClose")

	// https://learn.microsoft.com/en-us/windows/win32/api/winevt/nf-winevt-evtcreaterendercontext
	evtCreateRenderContext = wevtapi.NewProc("EvtCreateRenderContext")

	// https://learn.microsoft.com/en-us/windows/win32/api/winevt/nf-winevt-evtrender
	evtRender = wevtapi.NewProc("EvtRender")

	// https://learn.microsoft.com/en-us/windows/win32/api/winevt/nf-winevt-evtopenpublishermetadata
	evtOpenPublisherMetadata = wevtapi.NewProc("EvtOpenPublisherMetadata")

	// https://learn.microsoft.com/en-us/windows/win32/api/winevt/nf-winevt-evtformatmessage
	evtFormatMessage = wevtapi.NewProc("EvtFormatMessage")

	// https://learn.microsoft.com/en-us/windows/win32/api/winevt/nf-winevt-evtcreatebookmark
	evtCreateBookmark = wevtapi.NewProc("EvtCreateBookmark")

	// https://learn.microsoft.com/en-us/windows/win32/api/winevt/nf-winevt-evtupdatebookmark
	evtUpdateBookmark = wevtapi.NewProc("EvtUpdateBookmark")

	// https://learn.microsoft.com/en-us/windows/win32/api/winevt/nf-winevt-evtsubscribe
	evtSubscribe = wevtapi.NewProc("EvtSubscribe")

	// https://learn.microsoft.com/en-us/windows/win32/api/winevt/nf-winevt-evtnext
	evtNext = wevtapi.NewProc("EvtNext")
)
