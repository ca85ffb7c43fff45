package eventlog

import (
	"fmt"
	"time"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
	"github.com/quentin-nozomi/windows-eventlog/winguid"
)

// SystemContext holds the <System> section of an event, rendered with EvtRenderContextSystem.
// GUID and SID fields are nil when the event does not carry them; Has reports the
// presence of every other field.
type SystemContext struct {
	ProviderName      string          `json:"provider_name" yaml:"provider_name"`
	ProviderGUID      *winguid.GUID   `json:"provider_guid,omitempty" yaml:"provider_guid,omitempty"`
	EventID           uint16          `json:"event_id" yaml:"event_id"`
	Qualifiers        uint16          `json:"qualifiers,omitempty" yaml:"qualifiers,omitempty"`
	Level             uint8           `json:"level" yaml:"level"`
	Task              uint16          `json:"task" yaml:"task"`
	Opcode            uint8           `json:"opcode" yaml:"opcode"`
	Keywords          uint64          `json:"keywords" yaml:"keywords"`
	TimeCreated       winapi.FileTime `json:"time_created" yaml:"time_created"`
	EventRecordID     uint64          `json:"event_record_id" yaml:"event_record_id"`
	ActivityID        *winguid.GUID   `json:"activity_id,omitempty" yaml:"activity_id,omitempty"`
	RelatedActivityID *winguid.GUID   `json:"related_activity_id,omitempty" yaml:"related_activity_id,omitempty"`
	ProcessID         uint32          `json:"process_id" yaml:"process_id"`
	ThreadID          uint32          `json:"thread_id" yaml:"thread_id"`
	Channel           string          `json:"channel" yaml:"channel"`
	Computer          string          `json:"computer" yaml:"computer"`
	UserID            *winapi.SID     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Version           uint8           `json:"version" yaml:"version"`
	present           uint32
}

// Has reports whether the event carried the property.
func (s *SystemContext) Has(id winapi.EvtSystemPropertyID) bool {
	return id < winapi.EvtSystemPropertyIdEND && s.present&(1<<id) != 0
}

// CreatedAt converts TimeCreated, failing for timestamps outside 1970 to 2262.
func (s *SystemContext) CreatedAt() (time.Time, error) {
	if !s.Has(winapi.EvtSystemTimeCreated) {
		return time.Time{}, fmt.Errorf("event has no TimeCreated")
	}
	return winapi.TicksToTime(s.TimeCreated.Ticks())
}

type systemField struct {
	id       winapi.EvtSystemPropertyID
	name     string
	expected winapi.EvtVarType
	required bool
	assign   func(*SystemContext, any)
}

// systemSchema is the positional layout of a system render, one entry per
// EVT_SYSTEM_PROPERTY_ID in enumeration order.
var systemSchema = []systemField{
	{winapi.EvtSystemProviderName, "ProviderName", winapi.EvtVarTypeString, true,
		func(s *SystemContext, v any) { s.ProviderName = v.(string) }},
	{winapi.EvtSystemProviderGuid, "ProviderGuid", winapi.EvtVarTypeGuid, false,
		func(s *SystemContext, v any) { g := v.(winguid.GUID); s.ProviderGUID = &g }},
	{winapi.EvtSystemEventID, "EventID", winapi.EvtVarTypeUInt16, false,
		func(s *SystemContext, v any) { s.EventID = v.(uint16) }},
	{winapi.EvtSystemQualifiers, "Qualifiers", winapi.EvtVarTypeUInt16, false,
		func(s *SystemContext, v any) { s.Qualifiers = v.(uint16) }},
	{winapi.EvtSystemLevel, "Level", winapi.EvtVarTypeByte, false,
		func(s *SystemContext, v any) { s.Level = v.(uint8) }},
	{winapi.EvtSystemTask, "Task", winapi.EvtVarTypeUInt16, false,
		func(s *SystemContext, v any) { s.Task = v.(uint16) }},
	{winapi.EvtSystemOpcode, "Opcode", winapi.EvtVarTypeByte, false,
		func(s *SystemContext, v any) { s.Opcode = v.(uint8) }},
	{winapi.EvtSystemKeywords, "Keywords", winapi.EvtVarTypeHexInt64, false,
		func(s *SystemContext, v any) { s.Keywords = v.(uint64) }},
	{winapi.EvtSystemTimeCreated, "TimeCreated", winapi.EvtVarTypeFileTime, false,
		func(s *SystemContext, v any) { s.TimeCreated = v.(winapi.FileTime) }},
	{winapi.EvtSystemEventRecordId, "EventRecordId", winapi.EvtVarTypeUInt64, false,
		func(s *SystemContext, v any) { s.EventRecordID = v.(uint64) }},
	{winapi.EvtSystemActivityID, "ActivityID", winapi.EvtVarTypeGuid, false,
		func(s *SystemContext, v any) { g := v.(winguid.GUID); s.ActivityID = &g }},
	{winapi.EvtSystemRelatedActivityID, "RelatedActivityID", winapi.EvtVarTypeGuid, false,
		func(s *SystemContext, v any) { g := v.(winguid.GUID); s.RelatedActivityID = &g }},
	{winapi.EvtSystemProcessID, "ProcessID", winapi.EvtVarTypeUInt32, false,
		func(s *SystemContext, v any) { s.ProcessID = v.(uint32) }},
	{winapi.EvtSystemThreadID, "ThreadID", winapi.EvtVarTypeUInt32, false,
		func(s *SystemContext, v any) { s.ThreadID = v.(uint32) }},
	{winapi.EvtSystemChannel, "Channel", winapi.EvtVarTypeString, false,
		func(s *SystemContext, v any) { s.Channel = v.(string) }},
	{winapi.EvtSystemComputer, "Computer", winapi.EvtVarTypeString, false,
		func(s *SystemContext, v any) { s.Computer = v.(string) }},
	{winapi.EvtSystemUserID, "UserID", winapi.EvtVarTypeSid, false,
		func(s *SystemContext, v any) { sid := v.(winapi.SID); s.UserID = &sid }},
	{winapi.EvtSystemVersion, "Version", winapi.EvtVarTypeByte, false,
		func(s *SystemContext, v any) { s.Version = v.(uint8) }},
}

// SchemaError reports a system render whose layout differs from EVT_SYSTEM_PROPERTY_ID.
type SchemaError struct {
	Index    winapi.EvtSystemPropertyID
	Field    string
	Expected string
	Actual   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("system property %d (%s): expected %s, got %s", e.Index, e.Field, e.Expected, e.Actual)
}

// ExtractSystemContext reads each system property from its fixed slot. A Null or
// NULL-pointer slot leaves the field absent, except ProviderName which every event carries.
func ExtractSystemContext(buf *RenderBuffer) (*SystemContext, error) {
	if buf.PropertyCount() < uint32(len(systemSchema)) {
		return nil, &SchemaError{
			Index:    winapi.EvtSystemPropertyID(buf.PropertyCount()),
			Field:    systemSchema[min(int(buf.PropertyCount()), len(systemSchema)-1)].name,
			Expected: fmt.Sprintf("%d properties", len(systemSchema)),
			Actual:   fmt.Sprintf("%d properties", buf.PropertyCount()),
		}
	}

	ctx := &SystemContext{}
	for _, field := range systemSchema {
		v, err := buf.Value(uint32(field.id))
		if err != nil {
			return nil, fmt.Errorf("system property %s: %w", field.name, err)
		}

		if v.IsAbsent() && (v.Type == winapi.EvtVarTypeNull || v.Type == field.expected) && !v.Array {
			if field.required {
				return nil, &SchemaError{Index: field.id, Field: field.name, Expected: field.expected.String(), Actual: v.Kind()}
			}
			continue
		}
		if v.Type != field.expected || v.Array || v.IsUnknown() {
			return nil, &SchemaError{Index: field.id, Field: field.name, Expected: field.expected.String(), Actual: v.Kind()}
		}

		field.assign(ctx, v.Value)
		ctx.present |= 1 << field.id
	}
	return ctx, nil
}
