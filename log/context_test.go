package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestAttach(t *testing.T) {
	buf := new(bytes.Buffer)
	ctx := context.WithValue(context.Background(), contextKey, zap.New(initCore(buf)).Sugar())
	ctx = Attach(ctx, AttachArgs{
		Queue: "/foo",
		AdditionalPairs: map[string]interface{}{
			"source": "notify",
		},
	})
	C(ctx).Infow("This is a log")

	const expected = `{"level":"info","msg":"This is a log","queue":"/foo","source":"notify"}`
	if actual := strings.TrimSpace(buf.String()); actual != expected {
		t.Errorf("Expected log line %#q, got %#q", expected, actual)
	}
}

func TestCFallback(t *testing.T) {
	if C(context.Background()) != logger {
		t.Error("Expected C to fall back to the global logger")
	}
	ctx := Attach(context.Background(), AttachArgs{})
	if C(ctx) != logger {
		t.Error("Expected empty AttachArgs to attach the global logger")
	}
}

func TestWrapperNilSafe(t *testing.T) {
	// Just make sure Wrapper.Log is nil-safe, no real tests
	var w Wrapper
	w.Log(context.Background(), "Hello, world!")
}

func TestZapWrapper(t *testing.T) {
	const expected = `{"level":"warn","msg":"This is a log"}`

	buf := new(bytes.Buffer)
	ctx := context.WithValue(context.Background(), contextKey, zap.New(initCore(buf)).Sugar())
	ZapWrapper(zap.WarnLevel).Log(ctx, "This is a log")
	if actual := strings.TrimSpace(buf.String()); actual != expected {
		t.Errorf("Expected log line %#q, got %#q", expected, actual)
	}
}
