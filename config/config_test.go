package config

import (
	"testing"
	"time"
)

func TestLoadDefaultConfig(t *testing.T) {
	opts := GetDefaultOptions()

	t.Logf(`Config
		Host: %s
		Port: %d
		DSN: %s
		LogLevel: %s
		Data: %s
		`, opts.Host, opts.Port, opts.DSN, opts.LogLevel, opts.Data)

	if opts.Data != "/var/opt/yomu" {
		t.Errorf("data not set")
	}
	if opts.RecommendationTTL != time.Hour {
		t.Errorf("recommendation_ttl incorrect")
	}
	if len(opts.SupportedTypes) != 1 || opts.SupportedTypes[0] != "application/zip" {
		t.Errorf("supported_types incorrect")
	}
}

func TestLoadConfigFile(t *testing.T) {
	GetDefaultOptions()
	opts, err := ParseFile("config_test.toml")
	if err != nil {
		t.Fatalf("Error loading config: %s", err)
	}
	t.Logf(`Config
		Host: %s
		Port: %d
		DSN: %s
		LogLevel: %s
		LogFile: %s
		`, opts.Host, opts.Port, opts.DSN, opts.LogLevel, opts.LogFile)
	if opts.Host != "127.0.0.1" {
		t.Errorf("host incorrect")
	}
	if opts.LogFile != "test.log" {
		t.Errorf("log_file incorrect")
	}
	if opts.Port != 2333 {
		t.Errorf("port incorrect")
	}
	if opts.LogLevel != "debug" {
		t.Errorf("log_level incorrect")
	}
	if opts.RecommendationTTL != 30*time.Minute {
		t.Errorf("recommendation_ttl incorrect")
	}
}
