package live

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/igorsilveira/ada/pkg/config"
	"github.com/igorsilveira/ada/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

const messageBuffer = 64

type Options struct {
	Model        string
	Config       *genai.LiveConnectConfig
	Capabilities []string
	Logger       *slog.Logger
}

// Session wraps a single streaming connection. It can be connected once;
// after Close or after the remote stream ends it stays closed.
type Session struct {
	dialer Dialer
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	conn   Conn
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
	err    error

	sendMu sync.Mutex

	frames  atomic.Int64
	audio   atomic.Int64
	dropped atomic.Int64
}

// Stats counts chunks the session handed to the remote side and chunks it
// dropped.
type Stats struct {
	Frames      int64
	AudioChunks int64
	Dropped     int64
}

func NewSession(dialer Dialer, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		dialer: dialer,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Connect dials the remote endpoint and returns the inbound message stream.
// The stream is closed when ctx is cancelled, Close is called or the remote
// side ends the session.
func (s *Session) Connect(ctx context.Context) (<-chan Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.conn != nil {
		return nil, ErrAlreadyConnected
	}

	spanCtx, span := telemetry.StartSpan(ctx, "live.connect", attribute.String("model", s.opts.Model))
	defer span.End()

	start := time.Now()
	conn, err := s.dialer.Dial(spanCtx, s.opts.Model, s.opts.Config)
	if err != nil {
		telemetry.FailSpan(span, err, "dial failed")
		telemetry.Metrics.ErrorsTotal.WithLabelValues("live").Inc()
		return nil, fmt.Errorf("live: connecting to %s: %w", s.opts.Model, err)
	}
	telemetry.Metrics.LiveConnectLatency.Observe(time.Since(start).Seconds())
	telemetry.Metrics.ActiveLiveSessions.Inc()

	streamCtx, cancel := context.WithCancel(ctx)
	out := make(chan Message, messageBuffer)
	done := make(chan struct{})

	s.conn = conn
	s.cancel = cancel
	s.done = done

	go s.receive(streamCtx, cancel, conn, out, done)
	go func() {
		<-streamCtx.Done()
		_ = s.Close()
	}()

	s.logger.Info("live session opened", slog.String("model", s.opts.Model))
	return out, nil
}

func (s *Session) receive(ctx context.Context, cancel context.CancelFunc, conn Conn, out chan<- Message, done chan<- struct{}) {
	defer cancel()
	defer close(done)
	defer close(out)

	for {
		raw, err := conn.Receive()
		if err != nil {
			if ctx.Err() == nil {
				s.mu.Lock()
				if !s.closed {
					s.err = err
				}
				s.mu.Unlock()
				s.logger.Warn("live session receive ended", slog.String("err", err.Error()))
				telemetry.Metrics.ErrorsTotal.WithLabelValues("live").Inc()
			}
			return
		}

		msg := decodeMessage(raw)
		if msg.Empty() {
			continue
		}
		telemetry.Metrics.LiveMessagesTotal.Inc()

		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// SendFrame pushes one JPEG frame into the session. With no open session the
// frame is dropped and nil is returned.
func (s *Session) SendFrame(ctx context.Context, data []byte) error {
	return s.send(ctx, Chunk{Kind: KindFrame, MIMEType: MIMEJPEG, Data: data})
}

// SendAudio pushes one audio chunk into the session. An empty mimeType means
// 16kHz PCM.
func (s *Session) SendAudio(ctx context.Context, data []byte, mimeType string) error {
	if mimeType == "" {
		mimeType = MIMEAudioPCM
	}
	return s.send(ctx, Chunk{Kind: KindAudio, MIMEType: mimeType, Data: data})
}

func (s *Session) send(ctx context.Context, c Chunk) error {
	kind := string(c.Kind)
	if !s.accepts(c.Kind) {
		telemetry.Metrics.ChunksDropped.WithLabelValues(kind, "capability").Inc()
		s.dropped.Add(1)
		return nil
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		telemetry.Metrics.ChunksDropped.WithLabelValues(kind, "no_session").Inc()
		s.dropped.Add(1)
		s.logger.Debug("dropping chunk, no open session", slog.String("kind", kind))
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	blob := &genai.Blob{Data: c.Data, MIMEType: c.MIMEType}
	var input genai.LiveRealtimeInput
	switch c.Kind {
	case KindAudio:
		input.Audio = blob
	default:
		input.Video = blob
	}

	s.sendMu.Lock()
	err := conn.SendRealtimeInput(input)
	s.sendMu.Unlock()
	if err != nil {
		telemetry.Metrics.ErrorsTotal.WithLabelValues("live").Inc()
		return fmt.Errorf("live: sending %s: %w", kind, err)
	}

	if c.Kind == KindAudio {
		s.audio.Add(1)
	} else {
		s.frames.Add(1)
	}
	telemetry.Metrics.ChunksForwarded.WithLabelValues(kind).Inc()
	telemetry.Metrics.ChunkBytes.WithLabelValues(kind).Observe(float64(len(c.Data)))
	return nil
}

func (s *Session) Stats() Stats {
	return Stats{
		Frames:      s.frames.Load(),
		AudioChunks: s.audio.Load(),
		Dropped:     s.dropped.Load(),
	}
}

func (s *Session) accepts(kind ChunkKind) bool {
	switch kind {
	case KindFrame:
		return slices.Contains(s.opts.Capabilities, config.CapabilityVision)
	case KindAudio:
		return slices.Contains(s.opts.Capabilities, config.CapabilityAudio)
	}
	return false
}

// Open reports whether the session currently holds a remote connection.
func (s *Session) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Err returns the error that ended the remote stream, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the session down and waits for the receive loop to exit.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	conn, cancel, done := s.conn, s.cancel, s.done
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	cancel()
	err := conn.Close()
	<-done

	telemetry.Metrics.ActiveLiveSessions.Dec()
	s.logger.Info("live session closed")
	if err != nil {
		return fmt.Errorf("live: closing session: %w", err)
	}
	return nil
}
