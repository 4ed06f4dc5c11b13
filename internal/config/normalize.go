package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeFFprobe(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizePlot()
	return c.normalizeLogging()
}

func (c *Config) normalizeFFprobe() error {
	if value, ok := os.LookupEnv(EnvFFprobe); ok && strings.TrimSpace(value) != "" {
		c.FFprobe.Path = value
	}
	c.FFprobe.Path = strings.TrimSpace(c.FFprobe.Path)
	if c.FFprobe.Path != "" && strings.ContainsAny(c.FFprobe.Path, `/\`) {
		expanded, err := expandPath(c.FFprobe.Path)
		if err != nil {
			return fmt.Errorf("ffprobe.path: %w", err)
		}
		c.FFprobe.Path = expanded
	}
	c.FFprobe.SelectStreams = strings.TrimSpace(c.FFprobe.SelectStreams)
	return nil
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath()
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizePlot() {
	c.Plot.Format = strings.ToLower(strings.TrimSpace(c.Plot.Format))
	if c.Plot.Format == "" {
		c.Plot.Format = defaultPlotFormat
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
