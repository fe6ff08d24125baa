package gateway

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/igorsilveira/ada/pkg/audit"
	"github.com/igorsilveira/ada/pkg/live"
	"github.com/igorsilveira/ada/pkg/store"
	"google.golang.org/genai"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   []genai.LiveRealtimeInput
	inbox  chan *genai.LiveServerMessage
	closed chan struct{}
	ended  chan error
	once   sync.Once
}

func (c *fakeConn) SendRealtimeInput(input genai.LiveRealtimeInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, input)
	return nil
}

func (c *fakeConn) Receive() (*genai.LiveServerMessage, error) {
	select {
	case msg := <-c.inbox:
		return msg, nil
	case err := <-c.ended:
		return nil, err
	case <-c.closed:
		return nil, errors.New("closed")
	}
}

// endStream makes the next Receive fail with err, as a remote hangup would.
func (c *fakeConn) endStream(err error) {
	c.ended <- err
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) sentInputs() []genai.LiveRealtimeInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]genai.LiveRealtimeInput(nil), c.sent...)
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
}

func (d *fakeDialer) Dial(_ context.Context, _ string, _ *genai.LiveConnectConfig) (live.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := &fakeConn{
		inbox:  make(chan *genai.LiveServerMessage, 16),
		closed: make(chan struct{}),
		ended:  make(chan error, 1),
	}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes slog makes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) count(substr string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Count(b.buf.String(), substr)
}

type testEnv struct {
	gw       *Gateway
	dialer   *fakeDialer
	sessions *live.Registry
	store    *store.Store
	audit    *audit.Logger
	logs     *syncBuffer
}

func newTestEnv(t *testing.T, dialer *fakeDialer) *testEnv {
	t.Helper()

	db, err := store.New(filepath.Join(t.TempDir(), "gateway.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	auditLog, err := audit.New(db.DB())
	if err != nil {
		t.Fatalf("audit.New: %v", err)
	}

	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sessions := live.NewRegistry(dialer, live.Options{
		Model:        "gemini-2.0-flash-exp",
		Capabilities: []string{"vision", "audio"},
		Logger:       logger,
	})
	t.Cleanup(sessions.CloseAll)

	gw := New(Config{
		Bind:     "loopback",
		Port:     0,
		Sessions: sessions,
		Store:    db,
		Audit:    auditLog,
		Logger:   logger,
	})

	return &testEnv{
		gw:       gw,
		dialer:   dialer,
		sessions: sessions,
		store:    db,
		audit:    auditLog,
		logs:     logs,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
