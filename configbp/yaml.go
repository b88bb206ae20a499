package configbp

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Int64String is an int64 type that can be yaml deserialized from strings.
//
// It's useful when the yaml config goes through templating that quotes every
// value, for example queue limits rendered from environment variables.
type Int64String int64

// FileMode is an os.FileMode that can be yaml deserialized from octal
// strings like "0600".
//
// Only the permission bits are accepted.
type FileMode os.FileMode

var (
	_ yaml.Unmarshaler = (*Int64String)(nil)
	_ yaml.Unmarshaler = (*FileMode)(nil)
)

// UnmarshalYAML implements yaml.Unmarshaler.
func (i *Int64String) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	i64, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("cannot parse %q as int64: %v", s, err)
	}
	*i = Int64String(i64)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *FileMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return fmt.Errorf("cannot parse %q as octal permissions: %v", s, err)
	}
	if v&^uint64(os.ModePerm) != 0 {
		return fmt.Errorf("permissions %q has bits beyond %o", s, os.ModePerm)
	}
	*m = FileMode(v)
	return nil
}
