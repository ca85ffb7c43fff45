package eventlog

import (
	"errors"
	"fmt"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

// RenderOptions selects the parts of an event a Record carries.
type RenderOptions struct {
	System  bool
	User    bool
	XML     bool
	Message bool
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{System: true, User: true, Message: true}
}

// Record is the owned rendering of one event; it stays valid after the handle is closed.
type Record struct {
	System      *SystemContext `json:"system,omitempty" yaml:"system,omitempty"`
	UserData    []Variant      `json:"user_data,omitempty" yaml:"user_data,omitempty"`
	XML         string         `json:"xml,omitempty" yaml:"xml,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
}

// GetProperty returns the index-th user property.
func (r *Record) GetProperty(index int) (Variant, bool) {
	if index < 0 || index >= len(r.UserData) {
		return Variant{}, false
	}
	return r.UserData[index], true
}

func (r *Record) GetPropertyString(index int) (string, bool) {
	if v, ok := r.GetProperty(index); ok {
		return v.AsString()
	}
	return "", false
}

func (r *Record) EventID() uint16 {
	if r.System == nil {
		return 0
	}
	return r.System.EventID
}

func (r *Record) Provider() string {
	if r.System == nil {
		return ""
	}
	return r.System.ProviderName
}

// RenderRecord renders every selected part. Parts that fail are left empty and their
// errors joined, so a record with an unformattable message still carries its fields.
func RenderRecord(api API, handle winapi.Handle, opts RenderOptions) (*Record, error) {
	event := NewEvent(api, handle)
	record := &Record{}
	var errs []error

	if opts.System {
		system, err := event.RenderSystemContext()
		if err != nil {
			errs = append(errs, fmt.Errorf("system: %w", err))
		}
		record.System = system
	}
	if opts.User {
		values, err := event.RenderUserContext()
		if err != nil {
			errs = append(errs, fmt.Errorf("user data: %w", err))
		}
		record.UserData = values
	}
	if opts.XML {
		xml, err := event.RenderXML()
		if err != nil {
			errs = append(errs, fmt.Errorf("xml: %w", err))
		}
		record.XML = xml
	}
	if opts.Message {
		description, err := event.RenderDescription()
		if err != nil {
			errs = append(errs, fmt.Errorf("description: %w", err))
		}
		record.Description = description
	}

	return record, errors.Join(errs...)
}
