package eventlog

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/quentin-nozomi/windows-eventlog/winapi"
)

const (
	providerNamePath         = "Event/System/Provider/@Name"
	renderingInfoMessagePath = "Event/RenderingInfo/Message"

	// in UTF-16 code units
	messageBufferSize = 512
)

// ResolveMessage returns the event description. Events forwarded with rendering info
// carry the formatted text inline; for the others it is formatted from the provider's
// message table.
func ResolveMessage(api API, event winapi.Handle) (string, error) {
	buf, err := Render(api, event, ValuesSpec(providerNamePath, renderingInfoMessagePath))
	if err != nil {
		return "", err
	}

	message, err := buf.Value(1)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnexpectedMessageShape, err)
	}
	if text, ok := message.AsString(); ok && message.Type == winapi.EvtVarTypeString {
		return text, nil
	}
	if !message.IsAbsent() {
		return "", fmt.Errorf("%w: message is %s", ErrUnexpectedMessageShape, message.Kind())
	}

	provider, err := buf.Value(0)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnexpectedMessageShape, err)
	}
	providerName, ok := provider.AsString()
	if !ok {
		return "", fmt.Errorf("%w: provider name is %s", ErrUnexpectedMessageShape, provider.Kind())
	}

	Logger().Debug("no inline message, formatting from publisher metadata", zap.String("provider", providerName))
	return formatPublisherMessage(api, providerName, event)
}

func formatPublisherMessage(api API, provider string, event winapi.Handle) (string, error) {
	metadata, err := api.OpenPublisherMetadata(provider)
	if err != nil {
		return "", fmt.Errorf("%w: opening metadata of %q: %w", ErrFormatMessage, provider, err)
	}
	defer func() {
		if closeErr := api.Close(metadata); closeErr != nil {
			Logger().Debug("failed to close publisher metadata", zap.String("provider", provider), zap.Error(closeErr))
		}
	}()

	buffer := make([]uint16, messageBufferSize)
	bufferUsed, err := api.FormatMessage(metadata, event, winapi.EvtFormatMessageEvent, buffer)
	if errors.Is(err, winapi.ERROR_INSUFFICIENT_BUFFER) {
		Logger().Debug("message buffer too small, retrying",
			zap.String("provider", provider), zap.Uint32("required", bufferUsed))
		buffer = make([]uint16, bufferUsed)
		bufferUsed, err = api.FormatMessage(metadata, event, winapi.EvtFormatMessageEvent, buffer)
	}
	if err != nil {
		return "", fmt.Errorf("%w: provider %q: %w", ErrFormatMessage, provider, err)
	}

	return winapi.UTF16ToString(buffer[:min(int(bufferUsed), len(buffer))]), nil
}
