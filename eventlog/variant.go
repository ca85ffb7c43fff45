package eventlog

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
	"github.com/quentin-nozomi/windows-eventlog/winguid"
)

// Variant is an owned copy of one EVT_VARIANT.
//
// Value holds, for a scalar of each type:
//
//	Null                       nil
//	String, AnsiString, EvtXml string
//	SByte .. UInt64            int8, uint8, int16, uint16, int32, uint32, int64, uint64
//	Single, Double             float32, float64
//	Boolean                    bool
//	Binary                     []byte
//	Guid                       winguid.GUID
//	SizeT                      uint64
//	FileTime                   winapi.FileTime
//	SysTime                    winapi.SystemTime
//	Sid                        winapi.SID
//	HexInt32, HexInt64         uint32, uint64
//	EvtHandle                  winapi.Handle
//
// Arrays hold a slice of the scalar type. A pointer-bearing value whose pointer is
// NULL keeps its Type and has a nil Value (see IsAbsent). A tag outside the known set
// decodes to an UnknownType value instead of failing.
type Variant struct {
	Type  winapi.EvtVarType
	Array bool
	Count uint32
	Value any
}

// UnknownType carries the raw tag, array flag included.
type UnknownType struct {
	Tag uint32
}

func (u UnknownType) String() string {
	return fmt.Sprintf("Unknown(%d)", u.Tag)
}

func (v Variant) IsUnknown() bool {
	_, ok := v.Value.(UnknownType)
	return ok
}

func (v Variant) IsNull() bool {
	return v.Type == winapi.EvtVarTypeNull && v.Value == nil
}

// IsAbsent reports a Null value or a pointer-bearing value rendered with a NULL pointer.
func (v Variant) IsAbsent() bool {
	return v.Value == nil
}

// Kind names the variant type, e.g. "String", "UInt32[]" or "Unknown(200)".
func (v Variant) Kind() string {
	if u, ok := v.Value.(UnknownType); ok {
		return u.String()
	}
	if v.Array {
		return v.Type.String() + "[]"
	}
	return v.Type.String()
}

func (v Variant) AsString() (string, bool) {
	s, ok := v.Value.(string)
	return s, ok
}

func (v Variant) AsGUID() (winguid.GUID, bool) {
	g, ok := v.Value.(winguid.GUID)
	return g, ok
}

func (v Variant) AsSID() (winapi.SID, bool) {
	s, ok := v.Value.(winapi.SID)
	return s, ok
}

// AsUint64 widens any unsigned integer scalar.
func (v Variant) AsUint64() (uint64, bool) {
	switch n := v.Value.(type) {
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	}
	return 0, false
}

func (v Variant) String() string {
	switch value := v.Value.(type) {
	case nil:
		if v.Type == winapi.EvtVarTypeNull {
			return "Null"
		}
		return "<absent " + v.Kind() + ">"
	case UnknownType:
		return value.String()
	case []byte:
		return hex.EncodeToString(value)
	case uint32:
		if v.Type == winapi.EvtVarTypeHexInt32 {
			return fmt.Sprintf("0x%X", value)
		}
	case uint64:
		if v.Type == winapi.EvtVarTypeHexInt64 {
			return fmt.Sprintf("0x%X", value)
		}
	case []uint32:
		if v.Type == winapi.EvtVarTypeHexInt32 {
			return hexList(value)
		}
	case []uint64:
		if v.Type == winapi.EvtVarTypeHexInt64 {
			return hexList(value)
		}
	case winapi.Handle:
		return fmt.Sprintf("EvtHandle(0x%X)", uintptr(value))
	}
	return fmt.Sprint(v.Value)
}

func hexList[T uint32 | uint64](values []T) string {
	parts := make([]string, len(values))
	for i, n := range values {
		parts[i] = fmt.Sprintf("0x%X", n)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// MarshalJSON emits the payload alone; GUIDs, SIDs and times use their text forms.
// Non-finite floats become the strings "NaN", "+Inf" and "-Inf".
func (v Variant) MarshalJSON() ([]byte, error) {
	switch value := v.Value.(type) {
	case UnknownType:
		return json.Marshal(value.String())
	case float32:
		return json.Marshal(jsonFloat(value))
	case float64:
		return json.Marshal(jsonFloat(value))
	case []float32:
		return json.Marshal(jsonFloats(value))
	case []float64:
		return json.Marshal(jsonFloats(value))
	}
	return json.Marshal(v.Value)
}

func jsonFloat[T constraints.Float](f T) any {
	switch x := float64(f); {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "+Inf"
	case math.IsInf(x, -1):
		return "-Inf"
	}
	return f
}

func jsonFloats[T constraints.Float](fs []T) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = jsonFloat(f)
	}
	return out
}

func (v Variant) MarshalYAML() (interface{}, error) {
	switch value := v.Value.(type) {
	case UnknownType:
		return value.String(), nil
	case []byte:
		return hex.EncodeToString(value), nil
	}
	return v.Value, nil
}
