package posixmq

import (
	"os"
	"syscall"

	"github.com/reddit/posixmq.go/configbp"
)

// Config is the YAML representation of Options.
//
// Zero values fall back to the defaults of New. Example:
//
//	queue:
//	  mode: rw
//	  nonBlocking: false
//	  maxMessages: 10
//	  maxMessageSize: 4096
//	  permissions: "0640"
type Config struct {
	// One of "r", "w", "rw" (or the long forms). Default is "r".
	Mode AccessMode `yaml:"mode"`

	NonBlocking bool `yaml:"nonBlocking"`

	// If <=0, DefaultMaxMessages will be used instead.
	MaxMessages configbp.Int64String `yaml:"maxMessages"`

	// If <=0, DefaultMaxMessageSize will be used instead.
	MaxMessageSize configbp.Int64String `yaml:"maxMessageSize"`

	// Octal string. If empty, DefaultPermissions will be used instead.
	Permissions Permissions `yaml:"permissions"`

	// Signal number used for notifications. If 0, SIGUSR1 on linux.
	NotifySignal int `yaml:"notifySignal"`

	RearmNotifications bool `yaml:"rearmNotifications"`
}

// Options converts the Config into Options.
func (cfg Config) Options() (*Options, error) {
	opts := New(cfg.Mode)
	if cfg.NonBlocking {
		opts.NonBlocking()
	}
	if cfg.MaxMessages > 0 {
		if err := opts.SetMaxMessages(int64(cfg.MaxMessages)); err != nil {
			return nil, err
		}
	}
	if cfg.MaxMessageSize > 0 {
		if err := opts.SetMaxMessageSize(int64(cfg.MaxMessageSize)); err != nil {
			return nil, err
		}
	}
	if cfg.Permissions != 0 {
		opts.WithPermissions(os.FileMode(cfg.Permissions))
	}
	if cfg.NotifySignal != 0 {
		opts.WithNotifySignal(syscall.Signal(cfg.NotifySignal))
	}
	if cfg.RearmNotifications {
		opts.RearmNotifications()
	}
	return opts, nil
}

// Permissions is an os.FileMode that can be yaml deserialized from octal
// strings like "0600".
type Permissions = configbp.FileMode
