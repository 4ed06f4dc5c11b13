package config

import (
	"fmt"
	"math"

	"bitgraph/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFFprobe(); err != nil {
		return err
	}
	if err := c.validateBitrate(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validatePlot(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFFprobe() error {
	if c.FFprobe.TimeoutSeconds < 0 {
		return invalid("ffprobe.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateBitrate() error {
	width := c.Bitrate.BucketSeconds
	if math.IsNaN(width) || math.IsInf(width, 0) || width <= 0 {
		return invalid("bitrate.bucket_seconds must be a positive number of seconds")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.Limit < 1 {
		return invalid("history.limit must be >= 1 when history.enabled is true")
	}
	return nil
}

func (c *Config) validatePlot() error {
	if c.Plot.Width < 64 || c.Plot.Height < 64 {
		return invalid("plot.width and plot.height must be at least 64 pixels")
	}
	switch c.Plot.Format {
	case "png", "svg":
		return nil
	default:
		return invalid(fmt.Sprintf("plot.format must be png or svg, got %q", c.Plot.Format))
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return invalid(fmt.Sprintf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level))
	}
}

func invalid(message string) error {
	return services.Wrap(services.ErrConfiguration, "config", "validate", message, nil)
}
