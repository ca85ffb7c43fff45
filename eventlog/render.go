package eventlog

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

// https://learn.microsoft.com/en-us/windows/win32/wes/rendering-events

type RenderTarget int

const (
	TargetSystem RenderTarget = iota
	TargetUser
	TargetXML
	TargetBookmark
	TargetValues
)

func (t RenderTarget) String() string {
	switch t {
	case TargetSystem:
		return "system"
	case TargetUser:
		return "user"
	case TargetXML:
		return "xml"
	case TargetBookmark:
		return "bookmark"
	case TargetValues:
		return "values"
	}
	return fmt.Sprintf("RenderTarget(%d)", int(t))
}

type RenderSpec struct {
	Target       RenderTarget
	Paths        []string // only for TargetValues
	ContextFlags uint32
	RenderFlags  uint32
}

func SystemSpec() RenderSpec {
	return RenderSpec{Target: TargetSystem, ContextFlags: winapi.EvtRenderContextSystem, RenderFlags: winapi.EvtRenderEventValues}
}

func UserSpec() RenderSpec {
	return RenderSpec{Target: TargetUser, ContextFlags: winapi.EvtRenderContextUser, RenderFlags: winapi.EvtRenderEventValues}
}

func XMLSpec() RenderSpec {
	return RenderSpec{Target: TargetXML, RenderFlags: winapi.EvtRenderEventXml}
}

func BookmarkSpec() RenderSpec {
	return RenderSpec{Target: TargetBookmark, RenderFlags: winapi.EvtRenderBookmark}
}

// ValuesSpec selects XPath value paths such as "Event/System/Provider/@Name".
func ValuesSpec(paths ...string) RenderSpec {
	return RenderSpec{Target: TargetValues, Paths: paths, ContextFlags: winapi.EvtRenderContextValues, RenderFlags: winapi.EvtRenderEventValues}
}

// XML and bookmark rendering require a NULL context.
func (s RenderSpec) needsContext() bool {
	return s.RenderFlags != winapi.EvtRenderEventXml && s.RenderFlags != winapi.EvtRenderBookmark
}

type renderContext struct {
	api    API
	handle winapi.Handle
}

func newRenderContext(api API, spec RenderSpec) (*renderContext, error) {
	c := &renderContext{api: api}
	if !spec.needsContext() {
		return c, nil
	}

	var err error
	c.handle, err = api.CreateRenderContext(spec.Paths, spec.ContextFlags)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *renderContext) Close() error {
	if c.handle == winapi.NullHandle {
		return nil
	}
	err := c.api.Close(c.handle)
	c.handle = winapi.NullHandle
	return err
}

// Render runs EvtRender twice: a size query with an empty buffer, then a fill with
// exactly the reported size. The fragment is an event or bookmark handle owned by the caller.
func Render(api API, fragment winapi.Handle, spec RenderSpec) (*RenderBuffer, error) {
	context, err := newRenderContext(api, spec)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s render context: %w", ErrRender, spec.Target, err)
	}
	defer func() {
		if closeErr := context.Close(); closeErr != nil {
			Logger().Debug("failed to close render context", zap.Error(closeErr))
		}
	}()

	// EvtRender may succeed on the size query when the event has no properties
	bufferUsed, _, err := api.Render(context.handle, fragment, spec.RenderFlags, nil)
	if err != nil && !errors.Is(err, winapi.ERROR_INSUFFICIENT_BUFFER) {
		return nil, fmt.Errorf("%w: determining %s buffer size: %w", ErrRender, spec.Target, err)
	}
	if err == nil || bufferUsed == 0 {
		return NewRenderBuffer(nil, 0), nil
	}

	buffer := make([]byte, bufferUsed)
	_, propertyCount, err := api.Render(context.handle, fragment, spec.RenderFlags, buffer)
	if err != nil {
		return nil, fmt.Errorf("%w: filling %d byte %s buffer: %w", ErrRender, len(buffer), spec.Target, err)
	}

	return NewRenderBuffer(buffer, propertyCount), nil
}
