package winguid

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// https://learn.microsoft.com/en-us/windows/win32/api/guiddef/ns-guiddef-guid
// https://learn.microsoft.com/en-us/windows/win32/api/guiddef/ns-guiddef-guid#members
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// Size of a GUID in memory.
const Size = 16

const (
	NullGUIDStr = "{00000000-0000-0000-0000-000000000000}"
)

var (
	nullGUID = GUID{}
)

func MustParse(sguid string) GUID {
	guid, err := Parse(sguid)
	if err != nil {
		panic(err)
	}
	return guid
}

// Parse accepts the braced registry form as well as the bare 8-4-4-4-12 form.
func Parse(sguid string) (GUID, error) {
	parsed, err := uuid.Parse(sguid)
	if err != nil {
		return GUID{}, fmt.Errorf("bad GUID format %q: %w", sguid, err)
	}

	// uuid keeps the text order, Data1..Data3 are the big-endian groups of it
	outGuid := GUID{
		Data1: binary.BigEndian.Uint32(parsed[0:4]),
		Data2: binary.BigEndian.Uint16(parsed[4:6]),
		Data3: binary.BigEndian.Uint16(parsed[6:8]),
	}
	copy(outGuid.Data4[:], parsed[8:16])

	return outGuid, nil
}

// FromBytes reads a GUID laid out as in memory: Data1, Data2 and Data3 little-endian.
func FromBytes(b []byte) (GUID, error) {
	if len(b) < Size {
		return GUID{}, fmt.Errorf("GUID needs %d bytes, got %d", Size, len(b))
	}
	g := GUID{
		Data1: binary.LittleEndian.Uint32(b[0:4]),
		Data2: binary.LittleEndian.Uint16(b[4:6]),
		Data3: binary.LittleEndian.Uint16(b[6:8]),
	}
	copy(g.Data4[:], b[8:16])
	return g, nil
}

// Bytes is the inverse of FromBytes.
func (g GUID) Bytes() []byte {
	b := make([]byte, Size)
	binary.LittleEndian.PutUint32(b[0:4], g.Data1)
	binary.LittleEndian.PutUint16(b[4:6], g.Data2)
	binary.LittleEndian.PutUint16(b[6:8], g.Data3)
	copy(b[8:16], g.Data4[:])
	return b
}

func ToString(g *GUID) string {
	return fmt.Sprintf("{%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x}",
		g.Data1,
		g.Data2,
		g.Data3,
		g.Data4[0], g.Data4[1],
		g.Data4[2], g.Data4[3], g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7],
	)
}

func (g GUID) String() string {
	return ToString(&g)
}

func (g GUID) MarshalText() ([]byte, error) {
	return []byte(ToString(&g)), nil
}

func (g *GUID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func (g GUID) IsZero() bool {
	return Equals(&g, &nullGUID)
}

func Equals(g *GUID, other *GUID) bool {
	return g.Data1 == other.Data1 &&
		g.Data2 == other.Data2 &&
		g.Data3 == other.Data3 &&
		g.Data4 == other.Data4
}
