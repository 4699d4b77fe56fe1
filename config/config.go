package config

import (
	"flag"
	"os"
	"strconv"
)

const (
	DefaultConfigFile = "dut_config.json"
	DefaultBoard      = "STM32DevBoard"
)

// Config holds the session-wide options of the harness
type Config struct {
	Simulate   bool   // use the in-memory board instead of hardware
	ConfigFile string // board profile file
	Board      string // profile key inside ConfigFile
	Port       string // explicit port (e.g. /dev/ttyACM0, tcp://localhost:9999); skips discovery
	WSAddr     string
	LogDir     string
	LogLevel   string
}

// Default returns the options used when nothing is overridden. Hardware mode is the default.
func Default() Config {
	return Config{
		ConfigFile: DefaultConfigFile,
		Board:      DefaultBoard,
		WSAddr:     ":8989",
		LogDir:     "logs",
		LogLevel:   "info",
	}
}

// Load parses the console binary's flags and applies environment overrides
func Load() *Config {
	cfg := Default()

	flag.BoolVar(&cfg.Simulate, "simulate", cfg.Simulate, "Use the simulated board instead of hardware")
	flag.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Board profile file")
	flag.StringVar(&cfg.Board, "board", cfg.Board, "Board profile name")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "Serial port, skips discovery (e.g. /dev/ttyACM0, tcp://localhost:9999)")
	flag.StringVar(&cfg.WSAddr, "ws", cfg.WSAddr, "WebSocket server address")
	flag.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Log directory")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	ApplyEnv(&cfg)
	return &cfg
}

// RegisterFlags registers the mode-select flag used by test binaries
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.Simulate, "simulate", cfg.Simulate, "Run against the simulated board instead of hardware")
}

// ApplyEnv lets environment variables override cfg
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("DUT_SIMULATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Simulate = b
		}
	}
	if v := os.Getenv("DUT_CONFIG"); v != "" {
		cfg.ConfigFile = v
	}
	if v := os.Getenv("DUT_BOARD"); v != "" {
		cfg.Board = v
	}
	if v := os.Getenv("DUT_SERIAL_PORT"); v != "" {
		cfg.Port = v
	}
}
