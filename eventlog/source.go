package eventlog

import (
	"context"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

// Source delivers event handles. The consumer closes every handle it receives.
type Source interface {
	// Next blocks until at least one handle is available or ctx is done, and fills
	// handles from the start.
	Next(ctx context.Context, handles []winapi.Handle) (int, error)
	Close() error
}

// SubscribeOptions selects where a subscription starts.
type SubscribeOptions struct {
	Channel string
	// XPath query, empty for every event of the channel
	Query string
	// Bookmark, when set, resumes after the event it points to.
	Bookmark   *Bookmark
	FromOldest bool
}

func (o SubscribeOptions) flags() uint32 {
	switch {
	case o.Bookmark != nil:
		return winapi.EvtSubscribeStartAfterBookmark
	case o.FromOldest:
		return winapi.EvtSubscribeStartAtOldestRecord
	}
	return winapi.EvtSubscribeToFutureEvents
}
