package gateway

import (
	"context"
	"fmt"

	"github.com/igorsilveira/ada/pkg/live"
)

// Client events.
const (
	EventVisionFrame = "vision_frame"
	EventVoiceInput  = "voice_input"
)

// Server events.
const (
	EventSession   = "session"
	EventReady     = "ready"
	EventAIMessage = "ai_message"
	EventError     = "error"
)

type wsIncoming struct {
	Event    string `json:"event"`
	Data     []byte `json:"data,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
}

type wsMedia struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

type wsOutgoing struct {
	Event            string    `json:"event"`
	SessionID        string    `json:"session_id,omitempty"`
	Text             string    `json:"text,omitempty"`
	Media            []wsMedia `json:"media,omitempty"`
	InputTranscript  string    `json:"input_transcript,omitempty"`
	OutputTranscript string    `json:"output_transcript,omitempty"`
	TurnComplete     bool      `json:"turn_complete,omitempty"`
	Interrupted      bool      `json:"interrupted,omitempty"`
	GoAway           bool      `json:"go_away,omitempty"`
	Error            string    `json:"error,omitempty"`
}

type eventHandler func(ctx context.Context, c *client, in wsIncoming) error

func (g *Gateway) eventHandlers() map[string]eventHandler {
	return map[string]eventHandler{
		EventVisionFrame: g.handleVisionFrame,
		EventVoiceInput:  g.handleVoiceInput,
	}
}

func (g *Gateway) handleVisionFrame(ctx context.Context, c *client, in wsIncoming) error {
	if len(in.Data) == 0 {
		return nil
	}
	if err := c.session.SendFrame(ctx, in.Data); err != nil {
		return fmt.Errorf("forwarding frame: %w", err)
	}
	return nil
}

func (g *Gateway) handleVoiceInput(ctx context.Context, c *client, in wsIncoming) error {
	if len(in.Data) == 0 {
		return nil
	}
	if err := c.session.SendAudio(ctx, in.Data, in.MIMEType); err != nil {
		return fmt.Errorf("forwarding audio: %w", err)
	}
	return nil
}

func toOutgoing(sessionID string, m live.Message) wsOutgoing {
	if m.SetupComplete {
		return wsOutgoing{Event: EventReady, SessionID: sessionID}
	}
	out := wsOutgoing{
		Event:            EventAIMessage,
		SessionID:        sessionID,
		Text:             m.Text,
		InputTranscript:  m.InputTranscript,
		OutputTranscript: m.OutputTranscript,
		TurnComplete:     m.TurnComplete,
		Interrupted:      m.Interrupted,
		GoAway:           m.GoAway,
	}
	for _, c := range m.Media {
		out.Media = append(out.Media, wsMedia{MIMEType: c.MIMEType, Data: c.Data})
	}
	return out
}
