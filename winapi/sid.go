package winapi

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// https://learn.microsoft.com/en-us/windows/win32/api/winnt/ns-winnt-sid
// SubAuthority holds SubAuthorityCount entries.
type SID struct {
	Revision            uint8
	IdentifierAuthority SidIdentifierAuthority
	SubAuthority        []uint32
}

// https://learn.microsoft.com/en-us/windows/win32/api/winnt/ns-winnt-sid_identifier_authority
// Big-endian 48-bit value.
type SidIdentifierAuthority struct {
	Value [6]uint8
}

const (
	sidHeaderSize        = 8
	SidMaxSubAuthorities = 15
)

func (a SidIdentifierAuthority) Uint64() uint64 {
	var v uint64
	for _, b := range a.Value {
		v = v<<8 | uint64(b)
	}
	return v
}

// ParseSID reads a SID from the start of b and returns it with the number of bytes it spans.
func ParseSID(b []byte) (SID, int, error) {
	if len(b) < sidHeaderSize {
		return SID{}, 0, fmt.Errorf("SID header needs %d bytes, got %d", sidHeaderSize, len(b))
	}

	count := int(b[1])
	if count > SidMaxSubAuthorities {
		return SID{}, 0, fmt.Errorf("SID declares %d sub-authorities, maximum is %d", count, SidMaxSubAuthorities)
	}
	size := sidHeaderSize + 4*count
	if len(b) < size {
		return SID{}, 0, fmt.Errorf("SID with %d sub-authorities needs %d bytes, got %d", count, size, len(b))
	}

	sid := SID{
		Revision:     b[0],
		SubAuthority: make([]uint32, count),
	}
	copy(sid.IdentifierAuthority.Value[:], b[2:8])
	for i := 0; i < count; i++ {
		sid.SubAuthority[i] = binary.LittleEndian.Uint32(b[sidHeaderSize+4*i:])
	}
	return sid, size, nil
}

func (s SID) Bytes() []byte {
	b := make([]byte, sidHeaderSize+4*len(s.SubAuthority))
	b[0] = s.Revision
	b[1] = uint8(len(s.SubAuthority))
	copy(b[2:8], s.IdentifierAuthority.Value[:])
	for i, sub := range s.SubAuthority {
		binary.LittleEndian.PutUint32(b[sidHeaderSize+4*i:], sub)
	}
	return b
}

// String renders S-{revision}-{authority}-{subauthority}...
func (s SID) String() string {
	var sb strings.Builder
	sb.WriteString("S-")
	sb.WriteString(strconv.FormatUint(uint64(s.Revision), 10))
	sb.WriteByte('-')

	a := s.IdentifierAuthority.Value
	if a[0] == 0 && a[1] == 0 && a[2] == 0 && a[3] == 0 && a[4] == 0 {
		sb.WriteString(strconv.FormatUint(uint64(a[5]), 10))
	} else {
		sb.WriteString(strconv.FormatUint(s.IdentifierAuthority.Uint64(), 10))
	}

	for _, sub := range s.SubAuthority {
		sb.WriteByte('-')
		sb.WriteString(strconv.FormatUint(uint64(sub), 10))
	}
	return sb.String()
}

func (s SID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
