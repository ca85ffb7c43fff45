//go:build !windows

package eventlog

func Subscribe(SubscribeOptions) (Source, error) {
	return nil, ErrUnsupportedPlatform
}
