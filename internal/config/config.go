package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Camera     CameraConfig     `yaml:"camera"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Stream     StreamConfig     `yaml:"stream"`
	Chart      ChartConfig      `yaml:"chart"`
	History    HistoryConfig    `yaml:"history"`
	Storage    StorageConfig    `yaml:"storage"`
	Web        WebConfig        `yaml:"web"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Camera source kinds
const (
	SourceDevice = "device" // OpenCV capture device by index
	SourceV4L2   = "v4l2"   // V4L2 device path with MJPEG pixel format
	SourceMJPEG  = "mjpeg"  // remote multipart MJPEG URL
)

// CameraConfig selects and tunes the frame source
type CameraConfig struct {
	Source      string `yaml:"source"`
	DeviceIndex int    `yaml:"device_index"`
	DevicePath  string `yaml:"device_path"`
	URL         string `yaml:"url"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Buffers     int    `yaml:"buffers"`
}

// ClassifierConfig contains emotion classifier service configuration
type ClassifierConfig struct {
	ServiceURL    string        `yaml:"service_url"`
	Timeout       time.Duration `yaml:"timeout"` // 0 = no timeout
	FallbackLabel string        `yaml:"fallback_label"`
	MaxWidth      int           `yaml:"max_width"` // 0 = send frames at capture size
	Detector      string        `yaml:"detector_backend"`
}

// StreamConfig contains annotate-and-stream settings
type StreamConfig struct {
	JPEGQuality int     `yaml:"jpeg_quality"`
	FontSize    float64 `yaml:"font_size"`
	TextX       float64 `yaml:"text_x"`
	TextY       float64 `yaml:"text_y"`
}

// ChartConfig contains chart rendering settings
type ChartConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// HistoryConfig contains emotion history settings
type HistoryConfig struct {
	WarnEvery int  `yaml:"warn_every"` // 0 = default, negative = never warn
	Restore   bool `yaml:"restore"`
}

// StorageConfig contains optional sample persistence settings
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`

	MaxDiskUsagePercent float64 `yaml:"max_disk_usage_percent"`
}

// WebConfig contains web server configuration
type WebConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"` // empty = embedded assets
	Debug     bool   `yaml:"debug"`
}

// Load reads and parses the configuration file, then applies environment
// overrides. When no path is given and none of the default locations exist,
// built-in defaults are used.
func Load(configPath string) (*Config, error) {
	cfg := &Config{Web: WebConfig{Enabled: true}}

	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}

		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{Web: WebConfig{Enabled: true}}
	cfg.setDefaults()
	return cfg
}

// getDefaultConfigPath returns the first existing default location, or ""
func getDefaultConfigPath() string {
	paths := []string{
		"./config/config.yaml",
		"../config/config.yaml",
		"/etc/emotion-stream/config.yaml",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}

	if c.Camera.Source == "" {
		c.Camera.Source = SourceDevice
	}
	if c.Camera.DevicePath == "" {
		c.Camera.DevicePath = "/dev/video0"
	}
	if c.Camera.Width == 0 {
		c.Camera.Width = 640
	}
	if c.Camera.Height == 0 {
		c.Camera.Height = 480
	}
	if c.Camera.Buffers == 0 {
		c.Camera.Buffers = 4
	}

	if c.Classifier.ServiceURL == "" {
		c.Classifier.ServiceURL = "http://localhost:5005"
	}
	if c.Classifier.FallbackLabel == "" {
		c.Classifier.FallbackLabel = "neutral"
	}
	if c.Classifier.Detector == "" {
		c.Classifier.Detector = "opencv"
	}

	if c.Stream.JPEGQuality == 0 {
		c.Stream.JPEGQuality = 95
	}
	if c.Stream.FontSize == 0 {
		c.Stream.FontSize = 24
	}
	if c.Stream.TextX == 0 {
		c.Stream.TextX = 10
	}
	if c.Stream.TextY == 0 {
		c.Stream.TextY = 50
	}

	if c.Chart.Width == 0 {
		c.Chart.Width = 800
	}
	if c.Chart.Height == 0 {
		c.Chart.Height = 600
	}
	if c.Chart.Title == "" {
		c.Chart.Title = "Emotion distribution"
	}

	if c.History.WarnEvery == 0 {
		c.History.WarnEvery = 100000
	}

	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "./data"
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = filepath.Join(c.Storage.DataDir, "db", "emotions.db")
	}
	if c.Storage.MaxDiskUsagePercent == 0 {
		c.Storage.MaxDiskUsagePercent = 95
	}

	if c.Web.Host == "" {
		c.Web.Host = "0.0.0.0"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 5000
	}
}
