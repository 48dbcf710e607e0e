// Package cli contains helper functions related to flag parsing and logging.
package cli

import (
	"github.com/dustin/go-humanize"
	cli "github.com/peterebden/go-cli-init/v5/flags"
)

// ParseFlagsOrDie parses the app's flags and dies if unsuccessful.
// Also dies if any unexpected arguments are passed.
// It returns the active command if there is one.
func ParseFlagsOrDie(appname string, data interface{}) string {
	return cli.ParseFlagsOrDie(appname, data, nil)
}

// A Duration is used for flags or config fields that represent a time duration;
// it's just a wrapper around time.Duration that implements the flags.Unmarshaler
// and encoding.TextUnmarshaler interfaces.
type Duration = cli.Duration

// A ByteSize is used for flags or config fields that represent some quantity of
// bytes that can be passed as human-readable quantities (eg. "10M").
type ByteSize uint64

// UnmarshalFlag implements the flags.Unmarshaler interface.
func (b *ByteSize) UnmarshalFlag(in string) error {
	b2, err := humanize.ParseBytes(in)
	*b = ByteSize(b2)
	return err
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (b *ByteSize) UnmarshalText(text []byte) error {
	return b.UnmarshalFlag(string(text))
}
