package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveAddr(t *testing.T) {
	tests := []struct {
		bind string
		port int
		want string
	}{
		{"all", 8000, "0.0.0.0:8000"},
		{"lan", 8000, "0.0.0.0:8000"},
		{"", 8000, "0.0.0.0:8000"},
		{"loopback", 9000, "127.0.0.1:9000"},
		{"192.168.1.10", 8080, "192.168.1.10:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.bind, func(t *testing.T) {
			if got := resolveAddr(tt.bind, tt.port); got != tt.want {
				t.Errorf("resolveAddr(%q, %d) = %q, want %q", tt.bind, tt.port, got, tt.want)
			}
		})
	}
}

func TestAcceptOptions(t *testing.T) {
	opts := acceptOptions([]string{"*"})
	if !opts.InsecureSkipVerify {
		t.Error("wildcard origin should skip origin verification")
	}

	opts = acceptOptions([]string{"https://app.example.com", "localhost:3000"})
	if opts.InsecureSkipVerify {
		t.Error("explicit origins should be verified")
	}
	want := []string{"app.example.com", "localhost:3000"}
	if len(opts.OriginPatterns) != len(want) {
		t.Fatalf("OriginPatterns = %v, want %v", opts.OriginPatterns, want)
	}
	for i := range want {
		if opts.OriginPatterns[i] != want[i] {
			t.Errorf("OriginPatterns[%d] = %q, want %q", i, opts.OriginPatterns[i], want[i])
		}
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, &fakeDialer{})

	rec := httptest.NewRecorder()
	env.gw.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t, &fakeDialer{})

	rec := httptest.NewRecorder()
	env.gw.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Status != "ready" || body.Sessions != 0 {
		t.Errorf("body = %+v", body)
	}
}

func TestReadyzWithoutBackend(t *testing.T) {
	gw := New(Config{Port: 0})

	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, &fakeDialer{})

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "X-Custom")
	rec := httptest.NewRecorder()
	env.gw.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != http.MethodGet {
		t.Errorf("Allow-Methods = %q, want GET", got)
	}
}

func TestConsolePage(t *testing.T) {
	env := newTestEnv(t, &fakeDialer{})

	rec := httptest.NewRecorder()
	env.gw.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "vision_frame") {
		t.Error("console page should send vision_frame events")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, &fakeDialer{})

	rec := httptest.NewRecorder()
	env.gw.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ada_active_websocket_connections") {
		t.Error("metrics output missing ada gauges")
	}
}
