package winapi

import (
	"encoding/binary"
	"fmt"
	"time"
)

// https://learn.microsoft.com/en-us/windows/win32/api/minwinbase/ns-minwinbase-systemtime
type SystemTime struct {
	Year         uint16
	Month        uint16
	DayOfWeek    uint16
	Day          uint16
	Hour         uint16
	Minute       uint16
	Second       uint16
	Milliseconds uint16
}

// In-memory size of a SYSTEMTIME.
const SystemTimeSize = 16

// Valid SYSTEMTIME years.
const (
	SystemTimeMinYear = 1601
	SystemTimeMaxYear = 30827
)

// Time rejects field combinations that time.Date would silently normalise.
func (s SystemTime) Time() (time.Time, error) {
	if s.Year < SystemTimeMinYear || s.Year > SystemTimeMaxYear ||
		s.Month < 1 || s.Month > 12 ||
		s.DayOfWeek > 6 ||
		s.Day < 1 ||
		s.Hour > 23 || s.Minute > 59 || s.Second > 59 ||
		s.Milliseconds > 999 {
		return time.Time{}, fmt.Errorf("invalid SYSTEMTIME %+v", s)
	}

	t := time.Date(
		int(s.Year), time.Month(s.Month), int(s.Day),
		int(s.Hour), int(s.Minute), int(s.Second),
		int(s.Milliseconds)*int(time.Millisecond),
		time.UTC,
	)
	if t.Day() != int(s.Day) || t.Month() != time.Month(s.Month) {
		return time.Time{}, fmt.Errorf("invalid SYSTEMTIME %+v: day out of range for month", s)
	}
	return t, nil
}

func (s SystemTime) String() string {
	t, err := s.Time()
	if err != nil {
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03d(invalid)",
			s.Year, s.Month, s.Day, s.Hour, s.Minute, s.Second, s.Milliseconds)
	}
	return t.Format("2006-01-02T15:04:05.000Z07:00")
}

func (s SystemTime) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SystemTimeFromTime truncates t to millisecond resolution in UTC.
func SystemTimeFromTime(t time.Time) SystemTime {
	t = t.UTC()
	return SystemTime{
		Year:         uint16(t.Year()),
		Month:        uint16(t.Month()),
		DayOfWeek:    uint16(t.Weekday()),
		Day:          uint16(t.Day()),
		Hour:         uint16(t.Hour()),
		Minute:       uint16(t.Minute()),
		Second:       uint16(t.Second()),
		Milliseconds: uint16(t.Nanosecond() / int(time.Millisecond)),
	}
}

// SystemTimeFromBytes reads the in-memory layout: eight little-endian WORDs.
func SystemTimeFromBytes(b []byte) (SystemTime, error) {
	if len(b) < SystemTimeSize {
		return SystemTime{}, fmt.Errorf("SYSTEMTIME needs %d bytes, got %d", SystemTimeSize, len(b))
	}
	word := func(i int) uint16 { return binary.LittleEndian.Uint16(b[2*i:]) }
	return SystemTime{
		Year:         word(0),
		Month:        word(1),
		DayOfWeek:    word(2),
		Day:          word(3),
		Hour:         word(4),
		Minute:       word(5),
		Second:       word(6),
		Milliseconds: word(7),
	}, nil
}
