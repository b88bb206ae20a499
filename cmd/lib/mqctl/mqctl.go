package mqctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/reddit/posixmq.go/batchcloser"
	"github.com/reddit/posixmq.go/configbp"
	"github.com/reddit/posixmq.go/internal/admin"
	"github.com/reddit/posixmq.go/internal/prometheusbpint"
	"github.com/reddit/posixmq.go/log"
	"github.com/reddit/posixmq.go/mqfs"
	"github.com/reddit/posixmq.go/mqpublish"
	"github.com/reddit/posixmq.go/posixmq"
	"github.com/reddit/posixmq.go/runtimebp"
)

// Config is the YAML config file of mqctl.
//
// Example:
//
//	log:
//	  level: info
//	sentry:
//	  dsn: $SENTRY_DSN
//	adminAddr: localhost:6060
//	queue:
//	  maxMessages: 100
//	  maxMessageSize: 8192
//	  permissions: "0660"
//	publisher:
//	  maxPutTimeout: 50ms
//	  retries: 3
type Config struct {
	Log    log.Config       `yaml:"log"`
	Sentry log.SentryConfig `yaml:"sentry"`

	// When non-empty, /metrics and /debug/pprof are served on this address
	// while the command runs.
	AdminAddr string `yaml:"adminAddr"`

	// Where the mqueue filesystem is mounted, for ls and watch.
	MQueueRoot string `yaml:"mqueueRoot"`

	// Queue settings. The access mode is picked by each command.
	Queue posixmq.Config `yaml:"queue"`

	Publisher mqpublish.Config `yaml:"publisher"`
}

// Run runs mqctl with os.Args.
//
// It returns 0 to indicate success,
// and non-zero to indicate failure.
func Run() int {
	if err := RunArgs(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// RunArgs is the more customizable/testable version of Run.
//
// In production code it expects you to pass in os.Args as the arg.
func RunArgs(args []string) error {
	ctx, stop := runtimebp.ShutdownContext(context.Background())
	defer stop()
	return defaultEnv().run(ctx, args)
}

// env holds what commands need from the outside world.
type env struct {
	stdout   io.Writer
	newQueue func(*posixmq.Options) *posixmq.Queue
	unlink   func(name string) error
	setup    bool
}

func defaultEnv() *env {
	return &env{
		stdout:   os.Stdout,
		newQueue: posixmq.NewQueue,
		unlink:   posixmq.Unlink,
		setup:    true,
	}
}

type command func(ctx context.Context, e *env, cfg Config, args []string) error

var commands = map[string]command{
	"create":  runCreate,
	"send":    runSend,
	"receive": runReceive,
	"attrs":   runAttrs,
	"unlink":  runUnlink,
	"notify":  runNotify,
	"ls":      runList,
	"watch":   runWatch,
}

var usages = map[string]string{
	"create":  "create [-max-messages N] [-max-message-size N] [-perm 0640] NAME",
	"send":    "send [-create] NAME MSG...",
	"receive": "receive [-count N] [-nonblock] [-format text|hex] NAME",
	"attrs":   "attrs NAME",
	"unlink":  "unlink NAME...",
	"notify":  "notify [-count N] [-rearm] [-format text|hex] NAME",
	"ls":      "ls",
	"watch":   "watch",
}

func usage() string {
	names := make([]string, 0, len(usages))
	for name := range usages {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("commands:")
	for _, name := range names {
		sb.WriteString("\n  ")
		sb.WriteString(usages[name])
	}
	return sb.String()
}

func (e *env) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	configPath := fs.String(
		"config",
		configbp.DefaultConfigPath(),
		fmt.Sprintf("The YAML config file. Defaults to $%s.", configbp.ConfigPathEnv),
	)
	level := oneof{
		choices: logLevels,
		value:   "",
	}
	fs.Var(
		&level,
		"log-level",
		fmt.Sprintf("Overrides the log level of the config, one of %s.", level.choicesString()),
	)
	timeout := fs.Duration(
		"timeout",
		0,
		"The timeout of the whole command, 0 means no timeout.",
	)
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	if fs.NArg() == 0 {
		return errors.New("missing command\n" + usage())
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		return fmt.Errorf("unknown command %q\n%s", fs.Arg(0), usage())
	}

	var cfg Config
	if *configPath != "" {
		if err := configbp.ParseStrictFile(*configPath, &cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if level.value != "" {
		cfg.Log.Level = level.getValue().(log.Level)
	}

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	closers := batchcloser.New()
	defer func() {
		if err := closers.Close(); err != nil {
			log.Errorw("mqctl: cleanup failed", "err", err)
		}
		log.Sync()
	}()
	if e.setup {
		if err := e.initProcess(ctx, cfg, closers); err != nil {
			return err
		}
	}

	return cmd(ctx, e, cfg, fs.Args()[1:])
}

// logLevels are the choices of -log-level.
var logLevels = map[string]interface{}{
	string(log.DebugLevel): log.DebugLevel,
	string(log.InfoLevel):  log.InfoLevel,
	string(log.WarnLevel):  log.WarnLevel,
	string(log.ErrorLevel): log.ErrorLevel,
	string(log.NopLevel):   log.NopLevel,
}

// initProcess sets up the process-wide logging, sentry and metrics.
func (e *env) initProcess(ctx context.Context, cfg Config, closers *batchcloser.BatchCloser) error {
	if cfg.Log.Level == "" {
		cfg.Log.Level = log.WarnLevel
		cfg.Log.Console = true
	}
	log.InitFromConfig(cfg.Log)

	sentryCloser, err := log.InitSentry(cfg.Sentry)
	if err != nil {
		return fmt.Errorf("failed to init sentry: %w", err)
	}
	closers.AddNamed("sentry", sentryCloser)

	if info, ok := debug.ReadBuildInfo(); ok {
		prometheusbpint.RecordModuleVersions(info)
	}

	if cfg.AdminAddr != "" {
		adminCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := admin.ListenAndServe(adminCtx, cfg.AdminAddr); err != nil {
				log.Errorw("mqctl: admin server failed", "err", err)
			}
		}()
		closers.AddNamed("admin", batchcloser.Wrap(func() error {
			cancel()
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return nil
		}))
	}
	return nil
}

func (cfg Config) mqfs() mqfs.FS {
	return mqfs.FS{Root: cfg.MQueueRoot}
}

// queueOptions returns the Options of the queue config with mode forced.
func (cfg Config) queueOptions(mode posixmq.AccessMode) (*posixmq.Options, error) {
	qc := cfg.Queue
	qc.Mode = mode
	return qc.Options()
}
