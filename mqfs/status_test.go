package mqfs_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reddit/posixmq.go/mqfs"
)

func TestParseStatus(t *testing.T) {
	for _, c := range []struct {
		label string
		raw   string
		want  mqfs.Status
	}{
		{
			label: "idle",
			raw:   "QSIZE:0          NOTIFY:0     SIGNO:0     NOTIFY_PID:0     \n",
		},
		{
			label: "registered",
			raw:   "QSIZE:129        NOTIFY:0     SIGNO:10    NOTIFY_PID:4242  \n",
			want: mqfs.Status{
				Size:      129,
				Notify:    mqfs.NotifySignal,
				Signal:    10,
				NotifyPID: 4242,
			},
		},
		{
			label: "thread",
			raw:   "QSIZE:7 NOTIFY:2 SIGNO:0 NOTIFY_PID:1",
			want: mqfs.Status{
				Size:      7,
				Notify:    mqfs.NotifyThread,
				NotifyPID: 1,
			},
		},
		{
			label: "unknown-field",
			raw:   "QSIZE:5 FUTURE:abc NOTIFY:0 SIGNO:0 NOTIFY_PID:0\n",
			want: mqfs.Status{
				Size: 5,
			},
		},
	} {
		t.Run(c.label, func(t *testing.T) {
			got, err := mqfs.ParseStatus(strings.NewReader(c.raw))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("ParseStatus mismatch (-want +got):\n%s", diff)
			}
			if got.Registered() != (c.want.NotifyPID != 0) {
				t.Errorf("Registered() got %v", got.Registered())
			}
		})
	}
}

func TestParseStatusErrors(t *testing.T) {
	for _, c := range []struct {
		label string
		raw   string
	}{
		{label: "empty", raw: ""},
		{label: "no-colon", raw: "QSIZE 0"},
		{label: "not-a-number", raw: "QSIZE:lots"},
		{label: "no-known-fields", raw: "HELLO:world"},
	} {
		t.Run(c.label, func(t *testing.T) {
			if s, err := mqfs.ParseStatus(strings.NewReader(c.raw)); err == nil {
				t.Errorf("Expected error, got %+v", s)
			}
		})
	}

	t.Run("eof", func(t *testing.T) {
		_, err := mqfs.ParseStatus(strings.NewReader(""))
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("Expected io.ErrUnexpectedEOF, got %v", err)
		}
	})
}

func TestNotifyMethodString(t *testing.T) {
	for m, want := range map[mqfs.NotifyMethod]string{
		mqfs.NotifySignal: "signal",
		mqfs.NotifyNone:   "none",
		mqfs.NotifyThread: "thread",
		7:                 "NotifyMethod(7)",
	} {
		if got := m.String(); got != want {
			t.Errorf("%d.String() got %q, want %q", int(m), got, want)
		}
	}
}
