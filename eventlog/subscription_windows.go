package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

const subscriptionPollInterval = 500 * time.Millisecond

// https://learn.microsoft.com/en-us/windows/win32/wes/subscribing-to-events#pull-subscriptions
type subscriptionSource struct {
	subscription *winapi.Subscription
}

// Subscribe opens a pull subscription on a channel.
func Subscribe(opts SubscribeOptions) (Source, error) {
	bookmark := winapi.NullHandle
	if opts.Bookmark != nil {
		bookmark = opts.Bookmark.Handle()
	}

	subscription, err := winapi.Subscribe(opts.Channel, opts.Query, bookmark, opts.flags())
	if err != nil {
		return nil, fmt.Errorf("subscribing to %q: %w", opts.Channel, err)
	}
	return &subscriptionSource{subscription: subscription}, nil
}

func (s *subscriptionSource) Next(ctx context.Context, handles []winapi.Handle) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := s.subscription.Next(handles)
		if err != nil || n > 0 {
			return n, err
		}
		if _, err = s.subscription.Wait(uint32(subscriptionPollInterval.Milliseconds())); err != nil {
			return 0, err
		}
	}
}

func (s *subscriptionSource) Close() error {
	return s.subscription.Close()
}
