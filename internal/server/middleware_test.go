package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(log.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pot", nil))

	out := buf.String()
	for _, want := range []string{"method=GET", "uri=/pot", "status=418", "size=15"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log line %q", want, out)
		}
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	h := Recover(log.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}

func TestRateLimit(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("Throttles Prefix Per Client", func(t *testing.T) {
		h := RateLimit(NewClientLimiter(0.001, 1), "/convert/")(next)

		do := func(path, addr string) int {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec.Code
		}

		if code := do("/convert/a", "10.0.0.1:1000"); code != http.StatusOK {
			t.Errorf("first request should pass, got %d", code)
		}
		if code := do("/convert/a", "10.0.0.1:2000"); code != http.StatusTooManyRequests {
			t.Errorf("second request should be throttled, got %d", code)
		}
		if code := do("/convert/a", "10.0.0.2:1000"); code != http.StatusOK {
			t.Errorf("other client should pass, got %d", code)
		}
		if code := do("/", "10.0.0.1:1000"); code != http.StatusOK {
			t.Errorf("other paths should pass, got %d", code)
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		h := RateLimit(nil, "/convert/")(next)
		for range 5 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/convert/a", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 with limiter disabled, got %d", rec.Code)
			}
		}
	})
}
