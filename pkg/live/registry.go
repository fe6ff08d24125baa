package live

import (
	"context"
	"sync"

	"github.com/igorsilveira/ada/pkg/telemetry"
)

// Registry holds one Session per connected client.
type Registry struct {
	dialer Dialer
	opts   Options

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(dialer Dialer, opts Options) *Registry {
	return &Registry{
		dialer:   dialer,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Open creates and connects a session for clientID. The session is
// registered even when the dial fails, so sends from that client become
// no-ops until Close.
func (r *Registry) Open(ctx context.Context, clientID string) (*Session, <-chan Message, error) {
	r.mu.Lock()
	if _, ok := r.sessions[clientID]; ok {
		r.mu.Unlock()
		return nil, nil, ErrAlreadyConnected
	}
	opts := r.opts
	opts.Logger = telemetry.ForSession(r.opts.Logger, clientID)
	s := NewSession(r.dialer, opts)
	r.sessions[clientID] = s
	r.mu.Unlock()

	msgs, err := s.Connect(ctx)
	return s, msgs, err
}

func (r *Registry) Get(clientID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[clientID]
	return s, ok
}

// Close tears down and forgets the client's session.
func (r *Registry) Close(clientID string) error {
	r.mu.Lock()
	s, ok := r.sessions[clientID]
	delete(r.sessions, clientID)
	r.mu.Unlock()

	if !ok {
		return ErrUnknownClient
	}
	return s.Close()
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
