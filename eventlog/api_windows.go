package eventlog

import (
	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

// SystemAPI returns the wevtapi.dll backed API.
func SystemAPI() (API, error) {
	return winapi.Wevtapi{}, nil
}
