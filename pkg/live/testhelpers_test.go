package live

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/genai"
)

var errConnClosed = errors.New("fake conn closed")

type fakeConn struct {
	mu      sync.Mutex
	sent    []genai.LiveRealtimeInput
	inbox   chan *genai.LiveServerMessage
	closed  chan struct{}
	once    sync.Once
	recvErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbox:  make(chan *genai.LiveServerMessage, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) SendRealtimeInput(input genai.LiveRealtimeInput) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, input)
	return nil
}

func (c *fakeConn) Receive() (*genai.LiveServerMessage, error) {
	select {
	case msg, ok := <-c.inbox:
		if !ok {
			return nil, c.recvErr
		}
		return msg, nil
	case <-c.closed:
		return nil, errConnClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// endStream makes Receive fail with err as if the remote side hung up.
func (c *fakeConn) endStream(err error) {
	c.recvErr = err
	close(c.inbox)
}

func (c *fakeConn) sentInputs() []genai.LiveRealtimeInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]genai.LiveRealtimeInput(nil), c.sent...)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeDialer struct {
	mu     sync.Mutex
	conns  []*fakeConn
	models []string
	err    error
}

func (d *fakeDialer) Dial(_ context.Context, model string, _ *genai.LiveConnectConfig) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	d.models = append(d.models, model)
	return c, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func testOptions() Options {
	return Options{
		Model:        "gemini-2.0-flash-exp",
		Capabilities: []string{"vision", "audio"},
	}
}

func textMessage(text string) *genai.LiveServerMessage {
	return &genai.LiveServerMessage{
		ServerContent: &genai.LiveServerContent{
			ModelTurn: &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: text}},
			},
		},
	}
}
