package log

import (
	"context"
	"errors"
	"testing"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type pair struct {
	key, value string
}

func TestExtractKeyValuePairs(t *testing.T) {
	for _, c := range []struct {
		label    string
		kv       []interface{}
		expected []pair
		dangling bool
	}{
		{
			label: "empty",
		},
		{
			label: "normal",
			kv: []interface{}{
				"key1", "value1",
				"key2", 2,
				"key3", 3.14,
			},
			expected: []pair{
				{
					key:   "key1",
					value: "value1",
				},
				{
					key:   "key2",
					value: "2",
				},
				{
					key:   "key3",
					value: "3.14",
				},
			},
		},
		{
			label: "ignore-zap-field",
			kv: []interface{}{
				"key1", "value1",
				"key2", "value2",
				zap.Field{},     // will be ignored
				zapcore.Field{}, // will be ignored
			},
			expected: []pair{
				{
					key:   "key1",
					value: "value1",
				},
				{
					key:   "key2",
					value: "value2",
				},
			},
		},
		{
			label: "dangling",
			kv: []interface{}{
				"key1", "value1",
				"dangling",
			},
			expected: []pair{
				{
					key:   "key1",
					value: "value1",
				},
			},
			dangling: true,
		},
		{
			label: "dangling-with-field",
			kv: []interface{}{
				"key1", "value1",
				zap.Field{},
				"dangling",
			},
			expected: []pair{
				{
					key:   "key1",
					value: "value1",
				},
			},
			dangling: true,
		},
	} {
		t.Run(
			c.label,
			func(t *testing.T) {
				var called int
				f := func(key, value string) {
					t.Helper()
					defer func() {
						called++
					}()
					if called >= len(c.expected) {
						t.Errorf("Extra call with (%q, %q)", key, value)
						return
					}
					if c.expected[called].key != key || c.expected[called].value != value {
						t.Errorf(
							"Expected %#v on %dth call, got (%q, %q)",
							c.expected[called],
							called,
							key, value,
						)
					}
				}
				dangling := extractKeyValuePairs(c.kv, f)
				if dangling != c.dangling {
					t.Errorf("Expected dangling to return %v, got %v", c.dangling, dangling)
				}
				if called < len(c.expected) {
					t.Errorf("Expected %d calls, got %v", len(c.expected), called)
				}
			},
		)
	}
}

type captureTransport struct {
	events []*sentry.Event
}

func (t *captureTransport) Flush(time.Duration) bool        { return true }
func (t *captureTransport) Configure(sentry.ClientOptions) {}
func (t *captureTransport) SendEvent(event *sentry.Event) {
	t.events = append(t.events, event)
}

func TestErrorWithSentryHubFromContext(t *testing.T) {
	transport := new(captureTransport)
	client, err := sentry.NewClient(sentry.ClientOptions{
		SampleRate: 1,
		Transport:  transport,
	})
	if err != nil {
		t.Fatal(err)
	}
	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	ErrorWithSentry(ctx, "handler failed", errors.New("boom"), "queue", "/foo")

	if len(transport.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(transport.events))
	}
	event := transport.events[0]
	if got := event.Tags["queue"]; got != "/foo" {
		t.Errorf("Expected tag queue=/foo, got %q", got)
	}
	if len(event.Exception) == 0 || event.Exception[0].Value != "boom" {
		t.Errorf("Expected exception with value boom, got %+v", event.Exception)
	}
}
