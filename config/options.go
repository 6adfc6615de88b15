package config

import (
	"fmt"

	"github.com/ibootdbg/recfg/recfg"
)

// TapeOptions translates the Codec section into recfg.Options, the form
// every codec entry point actually consumes.
func (c *Config) TapeOptions() (recfg.Options, error) {
	var opts recfg.Options

	switch c.Codec.Access {
	case "", "normal":
		opts.Access = recfg.AccessNormal
	case "volatile":
		opts.Access = recfg.AccessVolatile
	default:
		return opts, fmt.Errorf("config: unknown codec.access %q", c.Codec.Access)
	}

	switch c.Codec.Alignment {
	case "", "extracted":
		opts.Alignment = recfg.AlignmentExtracted
	case "volatile":
		opts.Alignment = recfg.AlignmentVolatile
	default:
		return opts, fmt.Errorf("config: unknown codec.alignment %q", c.Codec.Alignment)
	}

	return opts, nil
}
