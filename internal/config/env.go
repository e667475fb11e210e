package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "EMOTION_STREAM_"

// applyEnvOverrides applies environment variable overrides to configuration.
// Values that fail to parse are ignored and the file value is kept.
func applyEnvOverrides(cfg *Config) {
	// Log settings
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.Output, "LOG_OUTPUT")

	// Camera settings
	setString(&cfg.Camera.Source, "CAMERA_SOURCE")
	setInt(&cfg.Camera.DeviceIndex, "CAMERA_DEVICE_INDEX")
	setString(&cfg.Camera.DevicePath, "CAMERA_DEVICE_PATH")
	setString(&cfg.Camera.URL, "CAMERA_URL")

	// Classifier settings
	setString(&cfg.Classifier.ServiceURL, "CLASSIFIER_URL")
	setDuration(&cfg.Classifier.Timeout, "CLASSIFIER_TIMEOUT")
	setString(&cfg.Classifier.FallbackLabel, "CLASSIFIER_FALLBACK_LABEL")

	// Storage settings
	setBool(&cfg.Storage.Enabled, "STORAGE_ENABLED")
	setString(&cfg.Storage.DataDir, "STORAGE_DATA_DIR")
	setString(&cfg.Storage.DBPath, "STORAGE_DB_PATH")
	setFloat64(&cfg.Storage.MaxDiskUsagePercent, "STORAGE_MAX_DISK_USAGE_PERCENT")
	setBool(&cfg.History.Restore, "HISTORY_RESTORE")

	// Web settings
	setString(&cfg.Web.Host, "WEB_HOST")
	setInt(&cfg.Web.Port, "WEB_PORT")
	setBool(&cfg.Web.Debug, "WEB_DEBUG")
}

func lookup(key string) (string, bool) {
	val := os.Getenv(EnvPrefix + key)
	return val, val != ""
}

func setString(dst *string, key string) {
	if val, ok := lookup(key); ok {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val, ok := lookup(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if val, ok := lookup(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val, ok := lookup(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func setBool(dst *bool, key string) {
	if val, ok := lookup(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			*dst = true
		case "false", "0", "no", "off":
			*dst = false
		}
	}
}
