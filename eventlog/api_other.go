//go:build !windows

package eventlog

func SystemAPI() (API, error) {
	return nil, ErrUnsupportedPlatform
}
