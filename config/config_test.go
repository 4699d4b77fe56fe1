package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsHardwareMode(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.Simulate)
	assert.Equal(t, DefaultConfigFile, cfg.ConfigFile)
	assert.Equal(t, DefaultBoard, cfg.Board)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DUT_SIMULATE", "true")
	t.Setenv("DUT_CONFIG", "/etc/dut.json")
	t.Setenv("DUT_BOARD", "OtherBoard")
	t.Setenv("DUT_SERIAL_PORT", "tcp://localhost:9999")

	cfg := Default()
	ApplyEnv(&cfg)
	assert.True(t, cfg.Simulate)
	assert.Equal(t, "/etc/dut.json", cfg.ConfigFile)
	assert.Equal(t, "OtherBoard", cfg.Board)
	assert.Equal(t, "tcp://localhost:9999", cfg.Port)
}

func TestApplyEnvIgnoresBadBool(t *testing.T) {
	t.Setenv("DUT_SIMULATE", "maybe")
	cfg := Default()
	ApplyEnv(&cfg)
	assert.False(t, cfg.Simulate)
}

func TestRegisterFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := Default()
	RegisterFlags(fs, &cfg)
	require.NoError(t, fs.Parse([]string{"-simulate"}))
	assert.True(t, cfg.Simulate)
}
