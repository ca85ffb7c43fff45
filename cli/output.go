package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quentin-nozomi/windows-eventlog/config"
	"github.com/quentin-nozomi/windows-eventlog/eventlog"
)

type recordWriter interface {
	Write(record *eventlog.Record) error
}

func newRecordWriter(format string, w io.Writer) (recordWriter, error) {
	switch format {
	case config.FormatJSON:
		return jsonWriter{encoder: json.NewEncoder(w)}, nil
	case config.FormatYAML:
		return &yamlWriter{w: w}, nil
	case config.FormatText:
		return textWriter{w: w}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// one JSON document per line
type jsonWriter struct {
	encoder *json.Encoder
}

func (j jsonWriter) Write(record *eventlog.Record) error {
	return j.encoder.Encode(record)
}

type yamlWriter struct {
	w io.Writer
}

func (y *yamlWriter) Write(record *eventlog.Record) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return err
	}
	if _, err = io.WriteString(y.w, "---\n"); err != nil {
		return err
	}
	_, err = y.w.Write(data)
	return err
}

type textWriter struct {
	w io.Writer
}

func (t textWriter) Write(record *eventlog.Record) error {
	var sb strings.Builder
	if s := record.System; s != nil {
		fmt.Fprintf(&sb, "%s [%s] %s/%d level=%d record=%d",
			s.TimeCreated, s.Channel, s.ProviderName, s.EventID, s.Level, s.EventRecordID)
	}
	if record.Description != "" {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}
		sb.WriteString(strings.Join(strings.Fields(record.Description), " "))
	}
	if len(record.UserData) > 0 {
		values := make([]string, len(record.UserData))
		for i, v := range record.UserData {
			values[i] = v.String()
		}
		fmt.Fprintf(&sb, " data=[%s]", strings.Join(values, ", "))
	}
	if record.XML != "" {
		sb.WriteString("\n")
		sb.WriteString(record.XML)
	}
	sb.WriteString("\n")
	_, err := io.WriteString(t.w, sb.String())
	return err
}
