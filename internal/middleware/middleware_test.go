package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/groupexpenses/pkg/logging"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequestLoggerRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "debug")

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Cookie", "session=secret-cookie")
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()

	RequestLogger(logger)(http.HandlerFunc(ok)).ServeHTTP(w, req)

	out := buf.String()
	for _, secret := range []string{"secret-token", "secret-cookie"} {
		if strings.Contains(out, secret) {
			t.Errorf("log output leaked %q: %s", secret, out)
		}
	}
	if !strings.Contains(out, "Request completed") {
		t.Errorf("expected completion log, got %s", out)
	}
	if !strings.Contains(out, "application/json") {
		t.Errorf("expected non-sensitive headers to be logged, got %s", out)
	}
}

func TestCORS(t *testing.T) {
	t.Run("preflight", func(t *testing.T) {
		called := false
		h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
		w := httptest.NewRecorder()

		h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/graphql", nil))

		if called {
			t.Error("preflight should not reach the handler")
		}
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
			t.Errorf("expected Authorization to be allowed, got %q", got)
		}
		if got := w.Header().Get("Access-Control-Max-Age"); got != "3600" {
			t.Errorf("expected max age 3600, got %q", got)
		}
	})

	t.Run("passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		CORS(http.HandlerFunc(ok)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", nil))
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected allow-origin header")
		}
	})
}

func TestRateLimiter(t *testing.T) {
	limiter, err := NewRateLimiter(1, 2, 16, time.Minute)
	if err != nil {
		t.Fatalf("NewRateLimiter failed: %v", err)
	}
	h := limiter.Middleware(http.HandlerFunc(ok))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := send("10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 once burst is spent, got %d", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("expected other clients to be unaffected, got %d", code)
	}
}

func TestRateLimiterEvictsIdle(t *testing.T) {
	limiter, err := NewRateLimiter(1, 1, 16, time.Minute)
	if err != nil {
		t.Fatalf("NewRateLimiter failed: %v", err)
	}
	limiter.Allow("10.0.0.1")
	if limiter.Allow("10.0.0.1") {
		t.Fatal("expected second request to be limited")
	}

	limiter.evictIdle(time.Now().Add(2 * time.Minute))

	if !limiter.Allow("10.0.0.1") {
		t.Error("expected a fresh bucket after eviction")
	}
}

func TestMetricsInstrument(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(metrics.Instrument)
	r.Get("/groups/{id}", ok)

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/groups/"+string(rune('a'+i)), nil))
	}

	got := testutil.ToFloat64(metrics.httpRequests.WithLabelValues(http.MethodGet, "/groups/{id}", "200"))
	if got != 3 {
		t.Errorf("expected 3 requests on the route pattern, got %v", got)
	}
}

func TestRateLimiterIgnoresSpoofedHeaders(t *testing.T) {
	limiter, err := NewRateLimiter(0.001, 1, 64, time.Minute)
	if err != nil {
		t.Fatalf("NewRateLimiter failed: %v", err)
	}
	h := RealIP(nil)(limiter.Middleware(http.HandlerFunc(ok)))

	allowed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 1 {
		t.Errorf("expected 1 request allowed from one peer, got %d", allowed)
	}
}

func TestRateLimiterBehindTrustedProxy(t *testing.T) {
	limiter, err := NewRateLimiter(0.001, 1, 64, time.Minute)
	if err != nil {
		t.Fatalf("NewRateLimiter failed: %v", err)
	}
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	h := RealIP(trusted)(limiter.Middleware(http.HandlerFunc(ok)))

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.RemoteAddr = "10.1.2.3:4000"
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("198.51.100.1"); code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", code)
	}
	if code := send("198.51.100.2"); code != http.StatusOK {
		t.Errorf("second client behind the proxy: expected 200, got %d", code)
	}
	// A forged leftmost hop does not change the client the proxy saw.
	if code := send("192.0.2.77, 198.51.100.1"); code != http.StatusTooManyRequests {
		t.Errorf("repeat client: expected 429, got %d", code)
	}
}

func TestRealIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	tests := []struct {
		name   string
		peer   string
		xff    string
		realIP string
		want   string
	}{
		{name: "untrusted peer keeps socket address", peer: "203.0.113.9:4000", xff: "198.51.100.1", want: "203.0.113.9:4000"},
		{name: "trusted peer uses forwarded client", peer: "10.0.0.1:4000", xff: "198.51.100.1", want: "198.51.100.1"},
		{name: "skips trusted hops", peer: "10.0.0.1:4000", xff: "198.51.100.1, 10.0.0.2", want: "198.51.100.1"},
		{name: "falls back to X-Real-IP", peer: "10.0.0.1:4000", realIP: "198.51.100.5", want: "198.51.100.5"},
		{name: "garbage header is ignored", peer: "10.0.0.1:4000", xff: "nonsense", want: "10.0.0.1:4000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := RealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.peer
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}
