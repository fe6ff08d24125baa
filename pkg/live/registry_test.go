package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/igorsilveira/ada/pkg/config"
	"google.golang.org/genai"
)

func TestRegistryOpenAndClose(t *testing.T) {
	d := &fakeDialer{}
	r := NewRegistry(d, testOptions())

	s, msgs, err := r.Open(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !s.Open() {
		t.Error("session should be open")
	}
	if got, ok := r.Get("client-1"); !ok || got != s {
		t.Error("Get should return the opened session")
	}

	if err := r.Close("client-1"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	waitClosed(t, msgs)
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
	if !d.last().isClosed() {
		t.Error("remote connection leaked after Close")
	}
}

func TestRegistryOpenTwice(t *testing.T) {
	d := &fakeDialer{}
	r := NewRegistry(d, testOptions())
	defer r.CloseAll()

	if _, _, err := r.Open(context.Background(), "client-1"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, _, err := r.Open(context.Background(), "client-1"); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("second Open err = %v, want ErrAlreadyConnected", err)
	}
	if d.dials() != 1 {
		t.Errorf("dials = %d, want 1", d.dials())
	}
}

func TestRegistryIsolatesClients(t *testing.T) {
	d := &fakeDialer{}
	r := NewRegistry(d, testOptions())
	defer r.CloseAll()

	a, _, err := r.Open(context.Background(), "a")
	if err != nil {
		t.Fatalf("Open a: %v", err)
	}
	b, _, err := r.Open(context.Background(), "b")
	if err != nil {
		t.Fatalf("Open b: %v", err)
	}
	if a == b {
		t.Fatal("clients must not share a session")
	}

	if err := a.SendFrame(context.Background(), []byte{0xff, 0xd8}); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	if got := len(d.conns[0].sentInputs()); got != 1 {
		t.Errorf("client a conn got %d chunks, want 1", got)
	}
	if got := len(d.conns[1].sentInputs()); got != 0 {
		t.Errorf("client b conn got %d chunks, want 0", got)
	}
}

func TestRegistryDialFailureKeepsEntry(t *testing.T) {
	d := &fakeDialer{err: errors.New("quota exceeded")}
	r := NewRegistry(d, testOptions())

	s, msgs, err := r.Open(context.Background(), "client-1")
	if err == nil {
		t.Fatal("expected dial error")
	}
	if msgs != nil {
		t.Error("message stream should be nil when the dial fails")
	}
	if s == nil {
		t.Fatal("session should still be returned")
	}
	if err := s.SendFrame(context.Background(), []byte{0xff}); err != nil {
		t.Errorf("SendFrame on unconnected session: %v", err)
	}
	if err := r.Close("client-1"); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestRegistryCloseUnknown(t *testing.T) {
	r := NewRegistry(&fakeDialer{}, testOptions())
	if err := r.Close("nobody"); !errors.Is(err, ErrUnknownClient) {
		t.Errorf("Close err = %v, want ErrUnknownClient", err)
	}
}

func TestRegistryConcurrentClients(t *testing.T) {
	d := &fakeDialer{}
	r := NewRegistry(d, testOptions())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			clientID := fmt.Sprintf("client-%d", id)
			if _, _, err := r.Open(context.Background(), clientID); err != nil {
				t.Errorf("Open %s: %v", clientID, err)
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != 20 {
		t.Errorf("Len = %d, want 20", r.Len())
	}
	r.CloseAll()
	if r.Len() != 0 {
		t.Errorf("Len after CloseAll = %d, want 0", r.Len())
	}
}

func TestConnectConfig(t *testing.T) {
	lc := config.LiveConfig{
		Model:               "gemini-2.0-flash-exp",
		ResponseModalities:  []string{"audio"},
		SystemPrompt:        "You are Ada.",
		OutputTranscription: true,
	}

	cfg := ConnectConfig(lc)
	if len(cfg.ResponseModalities) != 1 || cfg.ResponseModalities[0] != genai.ModalityAudio {
		t.Errorf("ResponseModalities = %v, want [AUDIO]", cfg.ResponseModalities)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "You are Ada." {
		t.Error("system instruction not set")
	}
	if cfg.InputAudioTranscription != nil {
		t.Error("input transcription should be off")
	}
	if cfg.OutputAudioTranscription == nil {
		t.Error("output transcription should be on")
	}

	opts := OptionsFromConfig(lc, nil)
	if opts.Model != lc.Model {
		t.Errorf("Model = %q, want %q", opts.Model, lc.Model)
	}
}
