// Package config loads device-patrol configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (DEVICE_PATROL_*, OTEL_EXPORTER_OTLP_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .device-patrol.yaml in current directory
//  2. ~/.config/device-patrol/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultInterval            = 30 * time.Second
	defaultNotificationTimeout = 5 * time.Second
)

// Config holds all device-patrol configuration.
type Config struct {
	// Polling
	Interval string `yaml:"interval"` // Go duration string, e.g. "30s"

	// Notifications
	Notify              *bool  `yaml:"notify"`               // nil means enabled
	NotificationTimeout string `yaml:"notification_timeout"` // how long a desktop notification stays up

	// Devices
	Microphone   string   `yaml:"microphone_device"` // ALSA name, e.g. "hw:1,0" or "default"; empty skips audio
	VideoDevices []string `yaml:"video_devices"`     // explicit list; empty means discover /dev/video*

	// Processes whose use of a device is expected
	IgnoreApps []string `yaml:"ignore_apps"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs, e.g. "Authorization=Basic abc123"

	// Parsed durations (not from YAML, set after loading)
	IntervalDuration            time.Duration `yaml:"-"`
	NotificationTimeoutDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// envConfig mirrors the overridable settings. Unset (or empty) variables
// leave pointers nil and slices empty.
type envConfig struct {
	Interval            *string  `env:"DEVICE_PATROL_INTERVAL"`
	NotificationTimeout *string  `env:"DEVICE_PATROL_NOTIFICATION_TIMEOUT"`
	Notify              *bool    `env:"DEVICE_PATROL_NOTIFY"`
	Microphone          *string  `env:"DEVICE_PATROL_MICROPHONE"`
	IgnoreApps          []string `env:"DEVICE_PATROL_IGNORE_APPS" envSeparator:","`
	VideoDevices        []string `env:"DEVICE_PATROL_VIDEO_DEVICES" envSeparator:","`
	OTELEndpoint        *string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELHeaders         *string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	notify := true
	return &Config{
		Interval:            "30s",
		Notify:              &notify,
		NotificationTimeout: "5s",
	}
}

// NotificationsEnabled reports whether desktop notifications should be sent.
func (c *Config) NotificationsEnabled() bool {
	return c.Notify == nil || *c.Notify
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	// Try to load config file
	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	// Environment variables override everything
	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	// Parse durations
	var err error
	cfg.IntervalDuration, err = parseDurationOrDisable(cfg.Interval, defaultInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid interval %q: %w", cfg.Interval, err)
	}
	cfg.NotificationTimeoutDuration, err = parseDurationOrDisable(cfg.NotificationTimeout, defaultNotificationTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid notification timeout %q: %w", cfg.NotificationTimeout, err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".device-patrol.yaml"); err == nil {
		return ".device-patrol.yaml", data, nil
	}

	// 2. ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "device-patrol", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Interval != "" {
		cfg.Interval = file.Interval
	}
	if file.Notify != nil {
		cfg.Notify = file.Notify
	}
	if file.NotificationTimeout != "" {
		cfg.NotificationTimeout = file.NotificationTimeout
	}
	if file.Microphone != "" {
		cfg.Microphone = file.Microphone
	}
	if len(file.VideoDevices) > 0 {
		cfg.VideoDevices = file.VideoDevices
	}
	if len(file.IgnoreApps) > 0 {
		cfg.IgnoreApps = file.IgnoreApps
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) error {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	if e.Interval != nil {
		cfg.Interval = *e.Interval
	}
	if e.NotificationTimeout != nil {
		cfg.NotificationTimeout = *e.NotificationTimeout
	}
	if e.Notify != nil {
		cfg.Notify = e.Notify
	}
	if e.Microphone != nil {
		cfg.Microphone = *e.Microphone
	}
	if apps := compact(e.IgnoreApps); len(apps) > 0 {
		cfg.IgnoreApps = apps
	}
	if devs := compact(e.VideoDevices); len(devs) > 0 {
		cfg.VideoDevices = devs
	}
	if e.OTELEndpoint != nil {
		cfg.OTELEndpoint = *e.OTELEndpoint
	}
	if e.OTELHeaders != nil {
		cfg.OTELHeaders = *e.OTELHeaders
	}
	return nil
}

// compact trims entries and drops the empty ones left by stray separators
// ("zoom, ,obs,").
func compact(list []string) []string {
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable" return 0.
// Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
