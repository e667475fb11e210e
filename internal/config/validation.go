package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vzahanych/emotion-stream/internal/chart"
	"github.com/vzahanych/emotion-stream/internal/emotion"
)

// Validate validates the configuration with detailed error messages
func (c *Config) Validate() error {
	var errors []string

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errors = append(errors, fmt.Sprintf("invalid log.level: %s (must be: debug, info, warn, error)", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errors = append(errors, fmt.Sprintf("invalid log.format: %s (must be: text or json)", c.Log.Format))
	}

	switch c.Camera.Source {
	case SourceDevice:
		if c.Camera.DeviceIndex < 0 {
			errors = append(errors, fmt.Sprintf("camera.device_index must be >= 0, got: %d", c.Camera.DeviceIndex))
		}
	case SourceV4L2:
		if c.Camera.DevicePath == "" {
			errors = append(errors, "camera.device_path is required for the v4l2 source")
		}
	case SourceMJPEG:
		if u, err := url.Parse(c.Camera.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("camera.url must be an absolute http(s) URL for the mjpeg source, got: %q", c.Camera.URL))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid camera.source: %s (must be: device, v4l2 or mjpeg)", c.Camera.Source))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errors = append(errors, fmt.Sprintf("camera.width and camera.height must be > 0, got: %dx%d", c.Camera.Width, c.Camera.Height))
	}

	if c.Classifier.ServiceURL == "" {
		errors = append(errors, "classifier.service_url is required")
	}
	if c.Classifier.Timeout < 0 {
		errors = append(errors, fmt.Sprintf("classifier.timeout must be >= 0, got: %v", c.Classifier.Timeout))
	}
	if _, ok := emotion.Parse(c.Classifier.FallbackLabel); !ok {
		errors = append(errors, fmt.Sprintf("classifier.fallback_label must be one of %v, got: %s", emotion.Labels(), c.Classifier.FallbackLabel))
	}
	if c.Classifier.MaxWidth < 0 {
		errors = append(errors, fmt.Sprintf("classifier.max_width must be >= 0, got: %d", c.Classifier.MaxWidth))
	}

	if c.Stream.JPEGQuality < 1 || c.Stream.JPEGQuality > 100 {
		errors = append(errors, fmt.Sprintf("stream.jpeg_quality must be between 1 and 100, got: %d", c.Stream.JPEGQuality))
	}
	if c.Stream.FontSize <= 0 {
		errors = append(errors, fmt.Sprintf("stream.font_size must be > 0, got: %.1f", c.Stream.FontSize))
	}

	if c.Chart.Width < chart.MinWidth || c.Chart.Height < chart.MinHeight {
		errors = append(errors, fmt.Sprintf("chart size must be at least %dx%d, got: %dx%d",
			chart.MinWidth, chart.MinHeight, c.Chart.Width, c.Chart.Height))
	}

	if c.History.Restore && !c.Storage.Enabled {
		errors = append(errors, "history.restore requires storage.enabled")
	}

	if c.Storage.Enabled && c.Storage.DBPath == "" {
		errors = append(errors, "storage.db_path is required when storage is enabled")
	}
	if c.Storage.MaxDiskUsagePercent <= 0 || c.Storage.MaxDiskUsagePercent > 100 {
		errors = append(errors, fmt.Sprintf("storage.max_disk_usage_percent must be in (0, 100], got: %.1f", c.Storage.MaxDiskUsagePercent))
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		errors = append(errors, fmt.Sprintf("web.port must be between 1 and 65535, got: %d", c.Web.Port))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
