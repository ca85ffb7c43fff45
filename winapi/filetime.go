package winapi

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// 100ns ticks between 1601-01-01 and 1970-01-01.
const EpochDifferenceTicks = uint64(116444736000000000)

const (
	ticksPerSecond         = 10000000
	nanosecondsPerTick     = 100
	epochDifferenceSeconds = int64(11644473600)
)

var (
	ErrTimeUnderflow = errors.New("windows timestamp predates the unix epoch")
	ErrTimeOverflow  = errors.New("windows timestamp overflows nanosecond range")
)

// https://learn.microsoft.com/en-us/windows/win32/api/minwinbase/ns-minwinbase-filetime
type FileTime struct {
	LowDateTime  uint32
	HighDateTime uint32
}

func FileTimeFromTicks(ticks uint64) FileTime {
	return FileTime{
		LowDateTime:  uint32(ticks & 0xFFFFFFFF),
		HighDateTime: uint32(ticks >> 32),
	}
}

func (f FileTime) Ticks() uint64 {
	return uint64(f.HighDateTime)<<32 | uint64(f.LowDateTime)
}

// Time covers the whole FILETIME range, including dates before 1970.
func (f FileTime) Time() time.Time {
	ticks := f.Ticks()
	sec := int64(ticks/ticksPerSecond) - epochDifferenceSeconds
	nsec := int64(ticks%ticksPerSecond) * nanosecondsPerTick
	return time.Unix(sec, nsec).UTC()
}

func (f FileTime) String() string {
	return f.Time().Format(time.RFC3339Nano)
}

func (f FileTime) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// FileTimeFromTime truncates t to 100ns resolution.
func FileTimeFromTime(t time.Time) (FileTime, error) {
	sec := t.Unix() + epochDifferenceSeconds
	if sec < 0 {
		return FileTime{}, fmt.Errorf("%s is before 1601-01-01", t)
	}
	if uint64(sec) > math.MaxUint64/ticksPerSecond {
		return FileTime{}, fmt.Errorf("%w: %s", ErrTimeOverflow, t)
	}
	ticks := uint64(sec) * ticksPerSecond
	fraction := uint64(t.Nanosecond() / nanosecondsPerTick)
	if ticks > math.MaxUint64-fraction {
		return FileTime{}, fmt.Errorf("%w: %s", ErrTimeOverflow, t)
	}
	return FileTimeFromTicks(ticks + fraction), nil
}

// TicksToTime converts through unix nanoseconds, so it only accepts timestamps between
// 1970 and the end of the int64 nanosecond range.
func TicksToTime(ticks uint64) (time.Time, error) {
	if ticks < EpochDifferenceTicks {
		return time.Time{}, fmt.Errorf("%w: %d", ErrTimeUnderflow, ticks)
	}
	unixTicks := ticks - EpochDifferenceTicks
	if unixTicks > math.MaxInt64/nanosecondsPerTick {
		return time.Time{}, fmt.Errorf("%w: %d", ErrTimeOverflow, ticks)
	}
	return time.Unix(0, int64(unixTicks*nanosecondsPerTick)).UTC(), nil
}
