package eventlog

import (
	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

// Event borrows a record handle; closing it is left to whoever delivered it.
type Event struct {
	api    API
	handle winapi.Handle
}

func NewEvent(api API, handle winapi.Handle) *Event {
	return &Event{api: api, handle: handle}
}

func (e *Event) Handle() winapi.Handle {
	return e.handle
}

func (e *Event) RenderSystemContext() (*SystemContext, error) {
	buf, err := Render(e.api, e.handle, SystemSpec())
	if err != nil {
		return nil, err
	}
	return ExtractSystemContext(buf)
}

// RenderUserContext returns the EventData or UserData properties in declaration order.
func (e *Event) RenderUserContext() ([]Variant, error) {
	return e.render(UserSpec())
}

// RenderValues returns one value per XPath, Null where the event has no such node.
func (e *Event) RenderValues(paths ...string) ([]Variant, error) {
	return e.render(ValuesSpec(paths...))
}

func (e *Event) RenderXML() (string, error) {
	buf, err := Render(e.api, e.handle, XMLSpec())
	if err != nil {
		return "", err
	}
	return buf.Text(), nil
}

func (e *Event) RenderDescription() (string, error) {
	return ResolveMessage(e.api, e.handle)
}

func (e *Event) render(spec RenderSpec) ([]Variant, error) {
	buf, err := Render(e.api, e.handle, spec)
	if err != nil {
		return nil, err
	}
	return buf.Values()
}
