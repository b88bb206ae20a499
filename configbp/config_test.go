package configbp_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reddit/posixmq.go/configbp"
	"github.com/reddit/posixmq.go/log"
	"github.com/reddit/posixmq.go/posixmq"
)

func init() {
	log.InitLogger(log.DebugLevel)
}

type testConfig struct {
	Log    log.Config           `yaml:"log"`
	Sentry log.SentryConfig     `yaml:"sentry"`
	Queue  posixmq.Config       `yaml:"queue"`
	Names  []string             `yaml:"names"`
	Limit  configbp.Int64String `yaml:"limit"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir() // automatically cleaned up
	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		t.Fatalf("SETUP: failed to write file: %s", err)
	}
	return filename
}

func TestParseStrictFile(t *testing.T) {
	valueFromEnv := "_value_from_environment_var_"
	t.Setenv("VALUE_FROM_ENV", valueFromEnv)
	t.Setenv("QUEUE_LIMIT", "42")

	tests := []struct {
		desc    string
		content string
		want    testConfig
	}{
		{
			desc: "basic_env",
			content: `
log:
  level: debug
sentry:
  dsn: $VALUE_FROM_ENV
  serverName: ${VALUE_FROM_ENV}
limit: $QUEUE_LIMIT
`,
			want: testConfig{
				Log: log.Config{
					Level: log.DebugLevel,
				},
				Sentry: log.SentryConfig{
					DSN:        valueFromEnv,
					ServerName: valueFromEnv,
				},
				Limit: 42,
			},
		},
		{
			desc: "queue",
			content: `
queue:
  mode: w
  maxMessages: "8"
  permissions: "0640"
names: [/a, /b]
`,
			want: testConfig{
				Queue: posixmq.Config{
					Mode:        posixmq.ModeWriteOnly,
					MaxMessages: 8,
					Permissions: 0640,
				},
				Names: []string{"/a", "/b"},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			filename := writeFile(t, "test.yaml", test.content)
			var got testConfig
			if err := configbp.ParseStrictFile(filename, &got); err != nil {
				t.Fatalf("ParseStrictFile(%q): %s", filename, err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Parsed config incorrect: (-want +got)\n%s", diff)
			}
		})
	}
}

func TestParseStrictFileErrors(t *testing.T) {
	for _, c := range []struct {
		desc    string
		name    string
		content string
		wantErr string
	}{
		{
			desc:    "unknown-field",
			name:    "test.yaml",
			content: "unknown: 1\n",
			wantErr: "parsing YAML",
		},
		{
			desc:    "extension",
			name:    "test.json",
			content: "{}",
			wantErr: "unsupported config extension",
		},
	} {
		t.Run(c.desc, func(t *testing.T) {
			filename := writeFile(t, c.name, c.content)
			var got testConfig
			err := configbp.ParseStrictFile(filename, &got)
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Errorf("Expected error containing %q, got %v", c.wantErr, err)
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		var got testConfig
		err := configbp.ParseStrictFile(filepath.Join(t.TempDir(), "nope.yaml"), &got)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected not exist error, got %v", err)
		}
	})
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv(configbp.ConfigPathEnv, "/etc/mqctl.yaml")
	if got := configbp.DefaultConfigPath(); got != "/etc/mqctl.yaml" {
		t.Errorf("DefaultConfigPath() got %q", got)
	}
}
