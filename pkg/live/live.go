// Package live manages streaming sessions against a hosted multimodal model.
// A Session owns one remote connection, pushes media chunks into it and
// exposes the model's responses as a channel of Messages.
package live

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

const (
	MIMEJPEG     = "image/jpeg"
	MIMEAudioPCM = "audio/pcm;rate=16000"
)

var (
	ErrAlreadyConnected = errors.New("live: session already connected")
	ErrClosed           = errors.New("live: session closed")
	ErrUnknownClient    = errors.New("live: unknown client")
)

type ChunkKind string

const (
	KindFrame ChunkKind = "frame"
	KindAudio ChunkKind = "audio"
)

// Chunk is a binary payload tagged with its MIME type.
type Chunk struct {
	Kind     ChunkKind
	MIMEType string
	Data     []byte
}

func kindOf(mimeType string) ChunkKind {
	if strings.HasPrefix(mimeType, "audio/") {
		return KindAudio
	}
	return KindFrame
}

// Message is one decoded unit of the model's response stream.
type Message struct {
	Text             string
	Media            []Chunk
	InputTranscript  string
	OutputTranscript string
	TurnComplete     bool
	Interrupted      bool
	SetupComplete    bool
	GoAway           bool
}

func (m Message) Empty() bool {
	return m.Text == "" && len(m.Media) == 0 &&
		m.InputTranscript == "" && m.OutputTranscript == "" &&
		!m.TurnComplete && !m.Interrupted && !m.SetupComplete && !m.GoAway
}

// Conn is an open remote session. *genai.Session satisfies it.
type Conn interface {
	SendRealtimeInput(input genai.LiveRealtimeInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, model string, cfg *genai.LiveConnectConfig) (Conn, error)
}

func decodeMessage(msg *genai.LiveServerMessage) Message {
	var m Message
	if msg == nil {
		return m
	}
	m.SetupComplete = msg.SetupComplete != nil
	m.GoAway = msg.GoAway != nil

	sc := msg.ServerContent
	if sc == nil {
		return m
	}
	m.TurnComplete = sc.TurnComplete
	m.Interrupted = sc.Interrupted
	if sc.InputTranscription != nil {
		m.InputTranscript = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		m.OutputTranscript = sc.OutputTranscription.Text
	}
	if sc.ModelTurn == nil {
		return m
	}

	var text strings.Builder
	for _, p := range sc.ModelTurn.Parts {
		if p == nil {
			continue
		}
		text.WriteString(p.Text)
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			m.Media = append(m.Media, Chunk{
				Kind:     kindOf(p.InlineData.MIMEType),
				MIMEType: p.InlineData.MIMEType,
				Data:     p.InlineData.Data,
			})
		}
	}
	m.Text = text.String()
	return m
}
