// Package configbp parses strict YAML configuration files with environment
// variable substitution.
package configbp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/reddit/posixmq.go/internal/limitopen"
	"github.com/reddit/posixmq.go/log"
)

// ConfigPathEnv is the environment variable holding the default config path.
const ConfigPathEnv = "POSIXMQ_CONFIG_PATH"

// DefaultConfigPath returns the config file path from ConfigPathEnv.
func DefaultConfigPath() string {
	return os.Getenv(ConfigPathEnv)
}

// maxConfigSize is the hard limit of config files.
const maxConfigSize = 1 << 20

type envsubstReader struct {
	buffer bytes.Buffer
	lines  *bufio.Scanner
}

func (r *envsubstReader) Read(buf []byte) (int, error) {
	// Keep flushing pending data if we have it
	if r.buffer.Len() > 0 {
		return r.buffer.Read(buf)
	}

	// Fill the buffer with some data
	if r.lines.Scan() {
		r.buffer.WriteString(os.ExpandEnv(r.lines.Text()))
		r.buffer.WriteString("\n")
	} else {
		return 0, io.EOF
	}

	// Return some data to satisfy the reader
	return r.buffer.Read(buf)
}

// ParseStrictFile parses configuration from the file at the given path.
//
// Environment variables (e.g. $FOO and ${FOO}) are substituted from the environment before parsing.
// The configuration is parsed into ptr, which will typically be a pointer to a struct.
func ParseStrictFile(path string, ptr interface{}) error {
	f, err := limitopen.OpenWithLimit(path, 0, maxConfigSize)
	if err != nil {
		return err // contains filename
	}
	defer f.Close() // safe to blindly close read-only files

	switch ext := filepath.Ext(path); strings.ToLower(ext) {
	case ".yaml", ".yml":
		return ParseStrictYAML(f, ptr)
	default:
		return fmt.Errorf("unsupported config extension %q", ext)
	}
}

// ParseStrictYAML parses YAML read from the given Reader.
//
// Environment variables (e.g. $FOO and ${FOO}) are substituted from the environment before parsing.
// Unknown fields are errors.
func ParseStrictYAML(reader io.Reader, ptr interface{}) error {
	reader = &envsubstReader{
		lines: bufio.NewScanner(reader),
	}

	var debugOutput strings.Builder
	if log.With().Desugar().Core().Enabled(zap.DebugLevel) {
		reader = io.TeeReader(reader, &debugOutput)
	}

	dec := yaml.NewDecoder(reader)
	dec.SetStrict(true)
	if err := dec.Decode(ptr); err != nil {
		if debugOutput.Len() > 0 {
			log.Debugw(
				"Partial configuration",
				"type", fmt.Sprintf("%T", ptr),
				"err", err,
				"yaml", debugOutput.String(),
			)
		}
		return fmt.Errorf("parsing YAML into %T: %w", ptr, err)
	}

	if debugOutput.Len() > 0 {
		log.Debugw(
			"Parsed configuration",
			"type", fmt.Sprintf("%T", ptr),
			"yaml", debugOutput.String(),
		)
	}

	return nil
}
