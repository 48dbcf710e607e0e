// Contains various utility functions related to logging.

package cli

import (
	"os"

	cli "github.com/peterebden/go-cli-init/v5/logging"
	"gopkg.in/op/go-logging.v1"
)

// A Verbosity is used as a flag to define logging verbosity.
type Verbosity = cli.Verbosity

// InitLogging initialises the logging backend to stderr at the given verbosity.
func InitLogging(verbosity Verbosity) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logFormatter())
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.Level(verbosity), "")
	logging.SetBackend(leveled)
}

func logFormatter() logging.Formatter {
	formatStr := "%{time:15:04:05.000} %{level:7s}: %{message}"
	if isATerminal(os.Stderr) {
		formatStr = "%{color}" + formatStr + "%{color:reset}"
	}
	return logging.MustStringFormatter(formatStr)
}

func isATerminal(f *os.File) bool {
	stat, _ := f.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}
