// Utilities for reading the annotate config files.

package core

import (
	"os"
	"sort"
	"time"

	"github.com/peterebden/go-deferred-regex"
	"github.com/please-build/gcfg"
	"gopkg.in/op/go-logging.v1"

	"github.com/thought-machine/annotate/src/cli"
)

var log = logging.MustGetLogger("core")

// ConfigFileName is the file name for the typical repo config - this is normally checked in.
const ConfigFileName = ".lintconfig"

// LocalConfigFileName is the file name for the local repo config - this is not
// normally checked in and used to override settings on the local machine.
const LocalConfigFileName = ".lintconfig.local"

// A Configuration is the structure of the config files; one [lint] section
// for general knobs and one [linter "name"] subsection per linter.
type Configuration struct {
	Lint struct {
		Timeout       cli.Duration
		MaxOutputSize cli.ByteSize
		WrapWidth     int
	}
	Metrics struct {
		PushGatewayURL string
		PushFrequency  cli.Duration
		PushTimeout    cli.Duration
	}
	Linter map[string]*LinterConfig
}

// A LinterConfig is one [linter "name"] subsection.
type LinterConfig struct {
	Cmd     string
	Pattern string
	File    []string
}

// DefaultConfiguration returns the config with default values filled in.
func DefaultConfiguration() *Configuration {
	config := &Configuration{Linter: map[string]*LinterConfig{}}
	config.Lint.Timeout = cli.Duration(30 * time.Second)
	config.Lint.MaxOutputSize = 10 * 1024 * 1024
	config.Lint.WrapWidth = 80
	config.Metrics.PushFrequency = cli.Duration(30 * time.Second)
	config.Metrics.PushTimeout = cli.Duration(5 * time.Second)
	return config
}

func readConfigFile(config *Configuration, filename string) error {
	if err := gcfg.ReadFileInto(config, filename); err != nil && os.IsNotExist(err) {
		return nil // It's not an error to not have the file at all.
	} else if err != nil {
		return err
	}
	log.Debug("Read config from %s", filename)
	return nil
}

// ReadConfigFiles reads the config from the given locations, in order.
// Values are filled in by defaults initially and then overridden by each file in turn.
func ReadConfigFiles(filenames []string) (*Configuration, error) {
	config := DefaultConfiguration()
	for _, filename := range filenames {
		if err := readConfigFile(config, filename); err != nil {
			return config, err
		}
	}
	return config, nil
}

// Registry builds the linter registry from this config. Configured linters
// are registered in name order so that applicability order is deterministic.
func (config *Configuration) Registry() *Registry {
	names := make([]string, 0, len(config.Linter))
	for name := range config.Linter {
		names = append(names, name)
	}
	sort.Strings(names)
	registry := NewRegistry()
	for _, name := range names {
		l := config.Linter[name]
		if l.Cmd == "" || l.Pattern == "" {
			log.Warning("Linter %s has no cmd or pattern configured, ignoring", name)
			continue
		}
		spec := &LinterSpec{
			Name:    name,
			Cmd:     l.Cmd,
			Pattern: deferredregex.DeferredRegex{Re: l.Pattern},
		}
		for _, f := range l.File {
			spec.FilePatterns = append(spec.FilePatterns, deferredregex.DeferredRegex{Re: f})
		}
		registry.Register(spec)
	}
	return registry
}
