package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thought-machine/annotate/src/cli"
)

func TestReadConfigFile(t *testing.T) {
	config, err := ReadConfigFiles([]string{"test_data/lintconfig"})
	require.NoError(t, err)
	assert.Equal(t, cli.Duration(10*time.Second), config.Lint.Timeout)
	assert.Equal(t, cli.ByteSize(1000000), config.Lint.MaxOutputSize)
	assert.Equal(t, 72, config.Lint.WrapWidth)
	require.Contains(t, config.Linter, "golint")
	assert.Equal(t, "golint $(file)", config.Linter["golint"].Cmd)
	assert.Equal(t, []string{"[.]sh$", "[.]bash$"}, config.Linter["shellcheck"].File)
}

func TestMissingConfigFileIsNotAnError(t *testing.T) {
	config, err := ReadConfigFiles([]string{"test_data/doesnt_exist"})
	assert.NoError(t, err)
	assert.Equal(t, 80, config.Lint.WrapWidth)
}

func TestRegistryFromConfig(t *testing.T) {
	config, err := ReadConfigFiles([]string{"test_data/lintconfig"})
	require.NoError(t, err)
	registry := config.Registry()
	// Config-registered linters apply in name order.
	specs := registry.Matching("thing.sh")
	require.Len(t, specs, 1)
	assert.Equal(t, "shellcheck", specs[0].Name)
	specs = registry.Matching("main.go")
	require.Len(t, specs, 1)
	assert.Equal(t, "golint", specs[0].Name)
}

func TestRegistryIgnoresIncompleteLinters(t *testing.T) {
	config := DefaultConfiguration()
	config.Linter["empty"] = &LinterConfig{File: []string{".*"}}
	registry := config.Registry()
	assert.Empty(t, registry.Matching("anything"))
}
