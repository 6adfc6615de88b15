// Package config loads and saves the recfg tool's persistent settings as
// TOML, the same format and load/save shape the upstream arm-emulator
// config package uses.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds every setting recfg's CLI, inspector and service front ends
// read at startup.
type Config struct {
	// Codec settings control how the Tape is interpreted.
	Codec struct {
		Access    string `toml:"access"`    // "normal" or "volatile"
		Alignment string `toml:"alignment"` // "extracted" or "volatile"
	} `toml:"codec"`

	// Scan settings control the heuristic iBoot-image search.
	Scan struct {
		Enabled bool   `toml:"enabled"`
		Offset  uint64 `toml:"offset"`
		Length  uint64 `toml:"length"`
	} `toml:"scan"`

	// Inspector settings control the breakpoint/watchpoint TUI and GUI.
	Inspector struct {
		HistorySize   int  `toml:"history_size"`
		ShowHex       bool `toml:"show_hex"`
		BytesPerLine  int  `toml:"bytes_per_line"`
		AutoSaveState bool `toml:"auto_save_state"`
	} `toml:"inspector"`

	// Display settings control how decoded commands are printed.
	Display struct {
		ColorOutput  bool   `toml:"color_output"`
		NumberFormat string `toml:"number_format"` // hex, dec, both
	} `toml:"display"`

	// Service settings control the decode-as-a-service HTTP/WebSocket front
	// end.
	Service struct {
		ListenAddr     string `toml:"listen_addr"`
		MaxSessions    int    `toml:"max_sessions"`
		BroadcastEvery bool   `toml:"broadcast_every_command"`
	} `toml:"service"`
}

// DefaultConfig returns the settings recfg runs with when no config file is
// present.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Codec.Access = "normal"
	cfg.Codec.Alignment = "extracted"

	cfg.Scan.Enabled = false
	cfg.Scan.Offset = 0
	cfg.Scan.Length = 0

	cfg.Inspector.HistorySize = 1000
	cfg.Inspector.ShowHex = true
	cfg.Inspector.BytesPerLine = 16
	cfg.Inspector.AutoSaveState = false

	cfg.Display.ColorOutput = true
	cfg.Display.NumberFormat = "hex"

	cfg.Service.ListenAddr = ":8080"
	cfg.Service.MaxSessions = 32
	cfg.Service.BroadcastEvery = false

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "recfg")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "recfg")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file is
// not an error: it yields DefaultConfig().
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
