package admin

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDefaultAdminServeMux(t *testing.T) {
	for _, c := range []struct {
		path     string
		wantCode int
		contains string
	}{
		{
			path:     "/metrics",
			wantCode: http.StatusOK,
			contains: "go_goroutines",
		},
		{
			path:     "/health",
			wantCode: http.StatusOK,
		},
		{
			path:     "/debug/pprof/",
			wantCode: http.StatusOK,
			contains: "goroutine",
		},
		{
			path:     "/nope",
			wantCode: http.StatusNotFound,
		},
	} {
		t.Run(c.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			DefaultAdminServeMux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, c.path, nil))
			if rec.Code != c.wantCode {
				t.Errorf("Expected code %d, got %d", c.wantCode, rec.Code)
			}
			if c.contains != "" && !strings.Contains(rec.Body.String(), c.contains) {
				t.Errorf("Expected body to contain %q, got %q", c.contains, rec.Body.String())
			}
		})
	}
}

func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		errs <- Serve(ctx, l)
	}()

	resp, err := http.Get("http://" + l.Addr().String() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errs:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after ctx was canceled")
	}
}
