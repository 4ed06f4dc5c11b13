package config

const (
	defaultConfigPath    = "~/.config/bitgraph/config.toml"
	defaultBucketSeconds = 1.0
	defaultHistoryLimit  = 10
	defaultPlotWidth     = 1280
	defaultPlotHeight    = 480
	defaultPlotFormat    = "png"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"

	// EnvFFprobe names the environment variable that overrides ffprobe.path.
	EnvFFprobe = "BITGRAPH_FFPROBE"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Bitrate: Bitrate{
			BucketSeconds: defaultBucketSeconds,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath(),
			Limit:   defaultHistoryLimit,
		},
		Plot: Plot{
			Width:  defaultPlotWidth,
			Height: defaultPlotHeight,
			Format: defaultPlotFormat,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
