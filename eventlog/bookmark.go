package eventlog

import (
	"fmt"
	"sync"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

// https://learn.microsoft.com/en-us/windows/win32/wes/bookmarking-events

// Bookmark tracks the last event handed to Update. It is safe for concurrent use.
type Bookmark struct {
	api    API
	mu     sync.Mutex
	handle winapi.Handle
}

// NewBookmark starts empty, or from a previously rendered bookmark XML.
func NewBookmark(api API, bookmarkXML string) (*Bookmark, error) {
	handle, err := api.CreateBookmark(bookmarkXML)
	if err != nil {
		return nil, fmt.Errorf("creating bookmark: %w", err)
	}
	return &Bookmark{api: api, handle: handle}, nil
}

func (b *Bookmark) Handle() winapi.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle
}

func (b *Bookmark) Update(event winapi.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handle == winapi.NullHandle {
		return fmt.Errorf("bookmark is closed")
	}
	if err := b.api.UpdateBookmark(b.handle, event); err != nil {
		return fmt.Errorf("updating bookmark: %w", err)
	}
	return nil
}

// XML renders the bookmark so it can be passed back to NewBookmark.
func (b *Bookmark) XML() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handle == winapi.NullHandle {
		return "", fmt.Errorf("bookmark is closed")
	}
	buf, err := Render(b.api, b.handle, BookmarkSpec())
	if err != nil {
		return "", err
	}
	return buf.Text(), nil
}

func (b *Bookmark) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handle == winapi.NullHandle {
		return nil
	}
	err := b.api.Close(b.handle)
	b.handle = winapi.NullHandle
	return err
}
