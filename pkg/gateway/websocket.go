package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/igorsilveira/ada/pkg/audit"
	"github.com/igorsilveira/ada/pkg/live"
	"github.com/igorsilveira/ada/pkg/store"
	"github.com/igorsilveira/ada/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Frames arrive base64-encoded inside JSON, so the default 32KiB read limit
// is far too small.
const maxMessageBytes = 16 << 20

type client struct {
	id      string
	conn    *websocket.Conn
	session *live.Session
	logger  *slog.Logger

	pumpDone chan struct{}
	liveErr  atomic.Value

	messages atomic.Int64
}

// forwarded reports the chunks the live session accepted for this client.
func (c *client) forwarded() live.Stats {
	if c.session == nil {
		return live.Stats{}
	}
	return c.session.Stats()
}

func (c *client) write(ctx context.Context, msg wsOutgoing) {
	if err := wsjson.Write(ctx, c.conn, msg); err != nil && ctx.Err() == nil {
		c.logger.Debug("websocket write failed", slog.String("err", err.Error()))
	}
}

func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, g.accept)
	if err != nil {
		g.logger.Error("websocket accept failed", slog.String("err", err.Error()))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxMessageBytes)

	sessionID := uuid.NewString()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	ctx, span := telemetry.StartSpan(ctx, "gateway.websocket", attribute.String("session_id", sessionID))
	defer span.End()

	c := &client{
		id:     sessionID,
		conn:   conn,
		logger: telemetry.ForSession(g.logger, sessionID),
	}
	ctx = telemetry.WithLogger(ctx, c.logger)

	g.connect(ctx, c, r)
	defer g.disconnect(context.WithoutCancel(ctx), cancel, c)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				c.logger.Warn("websocket read error", slog.String("err", err.Error()))
				telemetry.FailSpan(span, err, "websocket read failed")
			}
			return
		}
		g.dispatch(ctx, c, data)
	}
}

// connect registers the client and opens its live session. A failed dial
// leaves the client connected; its media is dropped.
func (g *Gateway) connect(ctx context.Context, c *client, r *http.Request) {
	telemetry.Metrics.ActiveConnections.Inc()
	c.logger.Info("client connected", slog.String("remote_addr", r.RemoteAddr))

	if g.store != nil {
		rec := &store.Connection{
			ID:         c.id,
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		}
		if err := g.store.OpenConnection(ctx, rec); err != nil {
			c.logger.Warn("recording connection failed", slog.String("err", err.Error()))
			telemetry.Metrics.ErrorsTotal.WithLabelValues("store").Inc()
		}
	}
	g.audit.Record(ctx, audit.EventClientConnect, c.id, "client", r.RemoteAddr)

	c.write(ctx, wsOutgoing{Event: EventSession, SessionID: c.id})

	if g.sessions == nil {
		return
	}
	sess, msgs, err := g.sessions.Open(ctx, c.id)
	c.session = sess
	if err != nil {
		c.logger.Error("opening live session failed", slog.String("err", err.Error()))
		c.liveErr.Store(err.Error())
		g.audit.Record(ctx, audit.EventLiveError, c.id, "live", err.Error())
		c.write(ctx, wsOutgoing{Event: EventError, SessionID: c.id, Error: "live session unavailable"})
		return
	}
	g.audit.Record(ctx, audit.EventLiveOpen, c.id, "live", "")

	c.pumpDone = make(chan struct{})
	go g.pump(ctx, c, msgs)
}

// pump forwards model output to the client until the stream closes.
func (g *Gateway) pump(ctx context.Context, c *client, msgs <-chan live.Message) {
	defer close(c.pumpDone)

	for msg := range msgs {
		c.messages.Add(1)
		c.write(ctx, toOutgoing(c.id, msg))
	}

	if err := c.session.Err(); err != nil {
		c.liveErr.Store(err.Error())
		g.audit.Record(ctx, audit.EventLiveError, c.id, "live", err.Error())
		c.write(ctx, wsOutgoing{Event: EventError, SessionID: c.id, Error: "live session ended"})
	}
}

func (g *Gateway) disconnect(ctx context.Context, cancel context.CancelFunc, c *client) {
	cancel()

	if g.sessions != nil && c.session != nil {
		if err := g.sessions.Close(c.id); err != nil && !errors.Is(err, live.ErrUnknownClient) {
			c.logger.Warn("closing live session failed", slog.String("err", err.Error()))
		}
		if c.pumpDone != nil {
			<-c.pumpDone
			g.audit.Record(ctx, audit.EventLiveClose, c.id, "live", "")
		}
	}

	var liveErr string
	if v, ok := c.liveErr.Load().(string); ok {
		liveErr = v
	}
	stats := c.forwarded()
	if g.store != nil {
		counters := store.Counters{
			Frames:      stats.Frames,
			AudioChunks: stats.AudioChunks,
			Messages:    c.messages.Load(),
		}
		if err := g.store.CloseConnection(ctx, c.id, counters, liveErr); err != nil {
			c.logger.Warn("recording disconnect failed", slog.String("err", err.Error()))
		}
	}

	telemetry.Metrics.ActiveConnections.Dec()
	c.logger.Info("client disconnected",
		slog.Int64("frames", stats.Frames),
		slog.Int64("audio_chunks", stats.AudioChunks),
		slog.Int64("dropped", stats.Dropped),
		slog.Int64("messages", c.messages.Load()),
	)
	g.audit.Record(ctx, audit.EventClientDisconnect, c.id, "client", "")
}

func (g *Gateway) dispatch(ctx context.Context, c *client, data []byte) {
	var in wsIncoming
	if err := json.Unmarshal(data, &in); err != nil {
		telemetry.Metrics.EventsTotal.WithLabelValues("invalid", "rejected").Inc()
		c.write(ctx, wsOutgoing{Event: EventError, Error: "invalid message format"})
		return
	}

	handle, ok := g.handlers[in.Event]
	if !ok {
		telemetry.Metrics.EventsTotal.WithLabelValues("unknown", "rejected").Inc()
		g.audit.Record(ctx, audit.EventBadEvent, c.id, "client", in.Event)
		c.write(ctx, wsOutgoing{Event: EventError, Error: "unknown event: " + in.Event})
		return
	}

	if c.session == nil {
		telemetry.Metrics.EventsTotal.WithLabelValues(in.Event, "dropped").Inc()
		return
	}

	if err := handle(ctx, c, in); err != nil {
		telemetry.Metrics.EventsTotal.WithLabelValues(in.Event, "error").Inc()
		telemetry.Metrics.ErrorsTotal.WithLabelValues("gateway").Inc()
		c.logger.Warn("event failed", slog.String("event", in.Event), slog.String("err", err.Error()))
		c.write(ctx, wsOutgoing{Event: EventError, SessionID: c.id, Error: "failed to forward " + in.Event})
		return
	}
	telemetry.Metrics.EventsTotal.WithLabelValues(in.Event, "ok").Inc()
}
