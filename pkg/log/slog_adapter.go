package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger at Debug level,
// except error-category events which log at Error level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes event to the underlying slog.Logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.ChannelID != 0 {
		attrs = append(attrs, slog.Int("channel_id", int(event.ChannelID)))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote_addr", event.RemoteAddr))
	}

	level := slog.LevelDebug
	msg := "protocol event"

	switch {
	case event.Frame != nil:
		attrs = append(attrs, slog.Int("size", event.Frame.Size),
			slog.Bool("first", event.Frame.First), slog.Bool("last", event.Frame.Last),
			slog.Bool("encrypted", event.Frame.Encrypted))
	case event.Message != nil:
		attrs = append(attrs, slog.Int("msg_id", int(event.Message.MessageID)),
			slog.Int("size", event.Message.Size))
	case event.StateChange != nil:
		attrs = append(attrs, slog.String("entity", event.StateChange.Entity),
			slog.String("old", event.StateChange.OldState), slog.String("new", event.StateChange.NewState))
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
		msg = "state change"
	case event.Control != nil:
		attrs = append(attrs, slog.String("control_type", event.Control.Type))
		msg = "control message"
	case event.Error != nil:
		attrs = append(attrs, slog.String("kind", event.Error.Kind), slog.String("error", event.Error.Message))
		level = slog.LevelError
		msg = "protocol error"
	case event.Pairing != nil:
		attrs = append(attrs, slog.String("phone_address", event.Pairing.PhoneAddress),
			slog.String("status", event.Pairing.Status))
		msg = "pairing event"
	}

	a.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
