package winapi

import (
	"fmt"
	"unsafe"
)

// https://learn.microsoft.com/en-us/windows/win32/wes/windows-event-log-data-types
type Handle uintptr

const NullHandle = Handle(0)

// Size of a native pointer inside rendered buffers.
const PointerSize = int(unsafe.Sizeof(uintptr(0)))

// https://learn.microsoft.com/en-us/windows/win32/api/winevt/ns-winevt-evt_variant
// The union is 8 bytes on every architecture, followed by Count and Type.
const (
	EvtVariantSize        = 16
	EvtVariantCountOffset = 8
	EvtVariantTypeOffset  = 12
)

// https://learn.microsoft.com/en-us/windows/win32/api/winevt/ne-winevt-evt_variant_type
type EvtVarType uint32

const (
	EvtVarTypeNull = EvtVarType(iota)
	EvtVarTypeString
	EvtVarTypeAnsiString
	EvtVarTypeSByte
	EvtVarTypeByte
	EvtVarTypeInt16
	EvtVarTypeUInt16
	EvtVarTypeInt32
	EvtVarTypeUInt32
	EvtVarTypeInt64
	EvtVarTypeUInt64
	EvtVarTypeSingle
	EvtVarTypeDouble
	EvtVarTypeBoolean
	EvtVarTypeBinary
	EvtVarTypeGuid
	EvtVarTypeSizeT
	EvtVarTypeFileTime
	EvtVarTypeSysTime
	EvtVarTypeSid
	EvtVarTypeHexInt32
	EvtVarTypeHexInt64
)

const (
	EvtVarTypeEvtHandle = EvtVarType(32)
	EvtVarTypeEvtXml    = EvtVarType(35)
)

const (
	EVT_VARIANT_TYPE_MASK  = 0x7f
	EVT_VARIANT_TYPE_ARRAY = 128
)

var evtVarTypeNames = map[EvtVarType]string{
	EvtVarTypeNull:       "Null",
	EvtVarTypeString:     "String",
	EvtVarTypeAnsiString: "AnsiString",
	EvtVarTypeSByte:      "SByte",
	EvtVarTypeByte:       "Byte",
	EvtVarTypeInt16:      "Int16",
	EvtVarTypeUInt16:     "UInt16",
	EvtVarTypeInt32:      "Int32",
	EvtVarTypeUInt32:     "UInt32",
	EvtVarTypeInt64:      "Int64",
	EvtVarTypeUInt64:     "UInt64",
	EvtVarTypeSingle:     "Single",
	EvtVarTypeDouble:     "Double",
	EvtVarTypeBoolean:    "Boolean",
	EvtVarTypeBinary:     "Binary",
	EvtVarTypeGuid:       "Guid",
	EvtVarTypeSizeT:      "SizeT",
	EvtVarTypeFileTime:   "FileTime",
	EvtVarTypeSysTime:    "SysTime",
	EvtVarTypeSid:        "Sid",
	EvtVarTypeHexInt32:   "HexInt32",
	EvtVarTypeHexInt64:   "HexInt64",
	EvtVarTypeEvtHandle:  "EvtHandle",
	EvtVarTypeEvtXml:     "EvtXml",
}

func (t EvtVarType) Known() bool {
	_, ok := evtVarTypeNames[t]
	return ok
}

func (t EvtVarType) String() string {
	if name, ok := evtVarTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EvtVarType(%d)", uint32(t))
}

// https://learn.microsoft.com/en-us/windows/win32/api/winevt/ne-winevt-evt_render_context_flags
const (
	EvtRenderContextValues = 0
	EvtRenderContextSystem = 1
	EvtRenderContextUser   = 2
)

// https://learn.microsoft.com/en-us/windows/win32/api/winevt/ne-winevt-evt_render_flags
const (
	EvtRenderEventValues = 0
	EvtRenderEventXml    = 1
	EvtRenderBookmark    = 2
)

// https://learn.microsoft.com/en-us/windows/win32/api/winevt/ne-winevt-evt_format_message_flags
const (
	EvtFormatMessageEvent    = 1
	EvtFormatMessageLevel    = 2
	EvtFormatMessageTask     = 3
	EvtFormatMessageOpcode   = 4
	EvtFormatMessageKeyword  = 5
	EvtFormatMessageChannel  = 6
	EvtFormatMessageProvider = 7
	EvtFormatMessageId       = 8
	EvtFormatMessageXml      = 9
)

// https://learn.microsoft.com/en-us/windows/win32/api/winevt/ne-winevt-evt_subscribe_flags
const (
	EvtSubscribeToFutureEvents      = 1
	EvtSubscribeStartAtOldestRecord = 2
	EvtSubscribeStartAfterBookmark  = 3
	EvtSubscribeStrict              = 0x10000
)

// https://learn.microsoft.com/en-us/windows/win32/api/winevt/ne-winevt-evt_system_property_id
// The position of each property in a buffer rendered with EvtRenderContextSystem.
type EvtSystemPropertyID uint32

const (
	EvtSystemProviderName = EvtSystemPropertyID(iota)
	EvtSystemProviderGuid
	EvtSystemEventID
	EvtSystemQualifiers
	EvtSystemLevel
	EvtSystemTask
	EvtSystemOpcode
	EvtSystemKeywords
	EvtSystemTimeCreated
	EvtSystemEventRecordId
	EvtSystemActivityID
	EvtSystemRelatedActivityID
	EvtSystemProcessID
	EvtSystemThreadID
	EvtSystemChannel
	EvtSystemComputer
	EvtSystemUserID
	EvtSystemVersion
	EvtSystemPropertyIdEND
)
